package emergency

import (
	"errors"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/hospital-management/internal/accounts"
)

func TestEmergency(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Emergency Module Suite")
}

type mockRepository struct {
	accesses   map[string]*Access
	failCreate error
}

func newMockRepository() *mockRepository {
	return &mockRepository{accesses: map[string]*Access{}}
}

func (m *mockRepository) CreateAccess(a *Access) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	cp := *a
	m.accesses[a.ID] = &cp
	return nil
}

func (m *mockRepository) GetAccess(id string) (*Access, error) {
	if a, ok := m.accesses[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (m *mockRepository) EndSession(id string, at time.Time) error {
	if a, ok := m.accesses[id]; ok && a.SessionEndedAt == nil {
		a.SessionEndedAt = &at
	}
	return nil
}

func (m *mockRepository) ListRecent(limit int) ([]Access, error) {
	out := make([]Access, 0, len(m.accesses))
	for _, a := range m.accesses {
		out = append(out, *a)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepository) ListForPersonnel(personnelID int64, limit int) ([]Access, error) {
	var out []Access
	for _, a := range m.accesses {
		if a.PersonnelID == personnelID {
			out = append(out, *a)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type mockPatientFinder struct {
	patients []*accounts.Patient
}

func (m *mockPatientFinder) SearchPatientExact(patientID string) (*accounts.Patient, error) {
	for _, p := range m.patients {
		if p.PatientID == patientID {
			return p, nil
		}
	}
	return nil, accounts.ErrNotFound
}

func (m *mockPatientFinder) SearchPatientFuzzy(firstName, lastName string, dob time.Time) (*accounts.Patient, error) {
	for _, p := range m.patients {
		if p.FirstName == firstName && p.LastName == lastName && p.DateOfBirth != nil && p.DateOfBirth.Equal(dob) {
			return p, nil
		}
	}
	return nil, accounts.ErrNotFound
}

func (m *mockPatientFinder) SearchPatientByPhone(phone string) (*accounts.Patient, error) {
	for _, p := range m.patients {
		if p.PhonePrimary == phone {
			return p, nil
		}
	}
	return nil, accounts.ErrNotFound
}

var _ = ginkgo.Describe("Emergency access", func() {
	var (
		svc    *Service
		repo   *mockRepository
		finder *mockPatientFinder
	)

	const doctorID = int64(5)
	dob := time.Date(1980, 3, 14, 0, 0, 0, 0, time.UTC)

	jane := &accounts.Patient{
		ID:           21,
		Email:        "jane@example.com",
		FirstName:    "Jane",
		LastName:     "Doe",
		PatientID:    "HMS2026000021",
		PhonePrimary: "+15550100",
		DateOfBirth:  &dob,
		IsActive:     true,
	}

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		finder = &mockPatientFinder{patients: []*accounts.Patient{jane}}
		svc = NewService(repo, finder)
	})

	ginkgo.It("requires a reason before anything else", func() {
		_, err := svc.AccessPatient(doctorID, SearchQuery{PatientID: jane.PatientID}, "   ", "10.0.0.1")
		gomega.Expect(err).To(gomega.Equal(ErrReasonRequired))
		gomega.Expect(repo.accesses).To(gomega.BeEmpty())
	})

	ginkgo.It("requires at least one usable identifier", func() {
		_, err := svc.AccessPatient(doctorID, SearchQuery{FirstName: "Jane"}, "cardiac arrest", "10.0.0.1")
		gomega.Expect(err).To(gomega.Equal(ErrQueryRequired))
	})

	ginkgo.It("finds by business identifier and audits the access", func() {
		result, err := svc.AccessPatient(doctorID, SearchQuery{PatientID: jane.PatientID}, "cardiac arrest", "10.0.0.1")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(result.Patient.ID).To(gomega.Equal(jane.ID))
		gomega.Expect(result.Access.SearchMethod).To(gomega.Equal(SearchMethodPatientID))
		gomega.Expect(result.Access.Reason).To(gomega.Equal("cardiac arrest"))
		gomega.Expect(result.Access.IPAddress).To(gomega.Equal("10.0.0.1"))
		gomega.Expect(repo.accesses).To(gomega.HaveKey(result.Access.ID))
	})

	ginkgo.It("falls back to name plus date of birth", func() {
		query := SearchQuery{FirstName: "Jane", LastName: "Doe", DateOfBirth: &dob}
		result, err := svc.AccessPatient(doctorID, query, "unconscious on arrival", "10.0.0.1")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(result.Access.SearchMethod).To(gomega.Equal(SearchMethodNameDOB))
	})

	ginkgo.It("falls back to phone last", func() {
		result, err := svc.AccessPatient(doctorID, SearchQuery{Phone: "+15550100"}, "relative called in", "10.0.0.1")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(result.Access.SearchMethod).To(gomega.Equal(SearchMethodPhone))
	})

	ginkgo.It("prefers the business identifier when several identifiers match", func() {
		query := SearchQuery{PatientID: jane.PatientID, Phone: "+15550100"}
		result, err := svc.AccessPatient(doctorID, query, "cardiac arrest", "10.0.0.1")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(result.Access.SearchMethod).To(gomega.Equal(SearchMethodPatientID))
	})

	ginkgo.It("reports not-found without writing an audit row", func() {
		_, err := svc.AccessPatient(doctorID, SearchQuery{PatientID: "HMS0000000000"}, "cardiac arrest", "10.0.0.1")
		gomega.Expect(err).To(gomega.Equal(ErrPatientNotFound))
		gomega.Expect(repo.accesses).To(gomega.BeEmpty())
	})

	ginkgo.It("denies access when the audit write fails", func() {
		repo.failCreate = errors.New("connection refused")

		result, err := svc.AccessPatient(doctorID, SearchQuery{PatientID: jane.PatientID}, "cardiac arrest", "10.0.0.1")
		gomega.Expect(err).To(gomega.Equal(ErrAuditWrite))
		gomega.Expect(result).To(gomega.BeNil())
	})

	ginkgo.Describe("ending sessions", func() {
		ginkgo.It("stamps the end time once", func() {
			result, _ := svc.AccessPatient(doctorID, SearchQuery{PatientID: jane.PatientID}, "cardiac arrest", "10.0.0.1")

			gomega.Expect(svc.EndSession(result.Access.ID, doctorID)).To(gomega.Succeed())

			stored, _ := repo.GetAccess(result.Access.ID)
			gomega.Expect(stored.SessionEndedAt).NotTo(gomega.BeNil())
			first := *stored.SessionEndedAt

			gomega.Expect(svc.EndSession(result.Access.ID, doctorID)).To(gomega.Succeed())
			stored, _ = repo.GetAccess(result.Access.ID)
			gomega.Expect(*stored.SessionEndedAt).To(gomega.Equal(first))
		})

		ginkgo.It("rejects another personnel ending the session", func() {
			result, _ := svc.AccessPatient(doctorID, SearchQuery{PatientID: jane.PatientID}, "cardiac arrest", "10.0.0.1")

			err := svc.EndSession(result.Access.ID, doctorID+1)
			gomega.Expect(err).To(gomega.Equal(ErrNotSessionOwner))
		})

		ginkgo.It("reports unknown access records", func() {
			err := svc.EndSession("01J0000000000000000000000", doctorID)
			gomega.Expect(err).To(gomega.Equal(ErrAccessNotFound))
		})
	})

	ginkgo.Describe("audit log listing", func() {
		ginkgo.It("caps the limit at 100", func() {
			_, err := svc.ListAccessLog(1000)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})

		ginkgo.It("returns only the caller's own entries", func() {
			_, _ = svc.AccessPatient(doctorID, SearchQuery{PatientID: jane.PatientID}, "cardiac arrest", "10.0.0.1")
			_, _ = svc.AccessPatient(doctorID+1, SearchQuery{PatientID: jane.PatientID}, "second opinion", "10.0.0.2")

			own, err := svc.ListOwnAccesses(doctorID, 10)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(own).To(gomega.HaveLen(1))
			gomega.Expect(own[0].PersonnelID).To(gomega.Equal(doctorID))
		})
	})
})
