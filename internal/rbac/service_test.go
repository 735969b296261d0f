package rbac

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

// Mock RepositoryAPI for testing
type mockRepository struct {
	roles       map[int64]*Role
	rolesByName map[string]*Role
	assignments map[string]*Assignment
	nextID      int64
	failCreate  error
}

func newMockRepository() *mockRepository {
	doctor := &Role{ID: 1, Name: "Doctor", AccessLevel: AccessLevelSeniorMedical, CanTriggerEmergency: true}
	nurse := &Role{ID: 2, Name: "Nurse", AccessLevel: AccessLevelMedical}
	return &mockRepository{
		roles:       map[int64]*Role{1: doctor, 2: nurse},
		rolesByName: map[string]*Role{"Doctor": doctor, "Nurse": nurse},
		assignments: map[string]*Assignment{},
		nextID:      1,
	}
}

func pairKey(personnelID, roleID int64) string {
	return fmt.Sprintf("%d:%d", personnelID, roleID)
}

func (m *mockRepository) GetRoleByID(roleID int64) (*Role, error) {
	if role, ok := m.roles[roleID]; ok {
		return role, nil
	}
	return nil, ErrRoleNotFound
}

func (m *mockRepository) GetRoleByName(name string) (*Role, error) {
	if role, ok := m.rolesByName[name]; ok {
		return role, nil
	}
	return nil, ErrRoleNotFound
}

func (m *mockRepository) ListRoles() ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRepository) CreateRole(role *Role) error {
	role.ID = int64(len(m.roles) + 1)
	m.roles[role.ID] = role
	m.rolesByName[role.Name] = role
	return nil
}

func (m *mockRepository) GetAssignment(personnelID, roleID int64) (*Assignment, error) {
	if a, ok := m.assignments[pairKey(personnelID, roleID)]; ok {
		return a, nil
	}
	return nil, nil
}

func (m *mockRepository) CreateAssignment(a *Assignment) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	key := pairKey(a.PersonnelID, a.RoleID)
	if _, exists := m.assignments[key]; exists {
		return errors.New("duplicate key value violates unique constraint")
	}
	a.ID = m.nextID
	m.nextID++
	copied := *a
	m.assignments[key] = &copied
	return nil
}

func (m *mockRepository) UpdateAssignment(a *Assignment) error {
	key := pairKey(a.PersonnelID, a.RoleID)
	copied := *a
	m.assignments[key] = &copied
	return nil
}

func (m *mockRepository) ListAssignments(personnelID int64) ([]Assignment, error) {
	out := []Assignment{}
	for _, a := range m.assignments {
		if a.PersonnelID == personnelID {
			withRole := *a
			if role, ok := m.roles[a.RoleID]; ok {
				withRole.Role = *role
			}
			out = append(out, withRole)
		}
	}
	return out, nil
}

var _ = ginkgo.Describe("RBAC Service", func() {
	var (
		service *Service
		repo    *mockRepository
	)

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		service = NewService(repo, slog.Default())
	})

	ginkgo.Describe("GrantRole", func() {
		ginkgo.It("creates a new active assignment", func() {
			assignment, err := service.GrantRole(10, 1, nil, nil)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(assignment.IsActive).To(gomega.BeTrue())
			gomega.Expect(assignment.Role.Name).To(gomega.Equal("Doctor"))
		})

		ginkgo.It("fails for an unknown role", func() {
			_, err := service.GrantRole(10, 99, nil, nil)

			gomega.Expect(err).To(gomega.MatchError(ErrRoleNotFound))
		})

		ginkgo.It("rejects an expiry in the past", func() {
			past := time.Now().Add(-time.Hour)
			_, err := service.GrantRole(10, 1, nil, &past)

			gomega.Expect(err).To(gomega.MatchError(ErrInvalidExpiry))
		})

		ginkgo.It("reactivates a revoked assignment instead of duplicating", func() {
			first, err := service.GrantRole(10, 1, nil, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(service.RevokeRole(10, 1)).To(gomega.Succeed())

			second, err := service.GrantRole(10, 1, nil, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(second.ID).To(gomega.Equal(first.ID))
			gomega.Expect(second.IsActive).To(gomega.BeTrue())
			gomega.Expect(repo.assignments).To(gomega.HaveLen(1))
		})
	})

	ginkgo.Describe("RevokeRole", func() {
		ginkgo.It("soft-deactivates an active assignment", func() {
			_, err := service.GrantRole(10, 1, nil, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(service.RevokeRole(10, 1)).To(gomega.Succeed())

			assignments, _ := service.ListAssignments(10)
			gomega.Expect(assignments).To(gomega.HaveLen(1))
			gomega.Expect(assignments[0].IsActive).To(gomega.BeFalse())
		})

		ginkgo.It("is a no-op for an assignment that does not exist", func() {
			gomega.Expect(service.RevokeRole(10, 1)).To(gomega.Succeed())
		})
	})

	ginkgo.Describe("SnapshotFor", func() {
		ginkgo.It("reflects only effective assignments", func() {
			_, err := service.GrantRole(10, 1, nil, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			_, err = service.GrantRole(10, 2, nil, nil)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(service.RevokeRole(10, 1)).To(gomega.Succeed())

			snap, err := service.SnapshotFor(10)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(snap.CanTriggerEmergency).To(gomega.BeFalse())
			gomega.Expect(snap.Roles).To(gomega.ConsistOf("Nurse"))
			gomega.Expect(snap.Permissions.Has(PermCreatePrescriptions)).To(gomega.BeFalse())
			gomega.Expect(snap.Permissions.Has(PermViewLabResults)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("SeedDefaultRoles", func() {
		ginkgo.It("creates missing roles and skips existing ones", func() {
			gomega.Expect(service.SeedDefaultRoles()).To(gomega.Succeed())

			roles, err := service.ListRoles()
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			// Doctor and Nurse pre-exist in the mock; six more get created.
			gomega.Expect(roles).To(gomega.HaveLen(8))

			gomega.Expect(service.SeedDefaultRoles()).To(gomega.Succeed())
			roles, _ = service.ListRoles()
			gomega.Expect(roles).To(gomega.HaveLen(8))
		})
	})
})
