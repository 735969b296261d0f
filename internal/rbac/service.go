package rbac

import (
	"log/slog"
	"time"
)

// Service is the role catalog and assignment business logic.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GrantRole assigns a role to a personnel account. If a soft-revoked
// assignment already exists for the pair it is reactivated rather than
// duplicated; concurrent grants race on the unique (personnel, role) index
// and the loser falls through to the reactivate path.
func (s *Service) GrantRole(personnelID, roleID int64, assignedBy *int64, expiresAt *time.Time) (*Assignment, error) {
	if expiresAt != nil && !expiresAt.After(time.Now()) {
		return nil, ErrInvalidExpiry
	}

	role, err := s.repo.GetRoleByID(roleID)
	if err != nil {
		return nil, ErrRoleNotFound
	}

	existing, err := s.repo.GetAssignment(personnelID, roleID)
	if err == nil && existing != nil {
		existing.IsActive = true
		existing.AssignedBy = assignedBy
		existing.AssignedAt = time.Now()
		existing.ExpiresAt = expiresAt
		if err := s.repo.UpdateAssignment(existing); err != nil {
			return nil, err
		}
		existing.Role = *role
		s.logger.Info("role assignment reactivated",
			"personnel_id", personnelID, "role", role.Name)
		return existing, nil
	}

	assignment := &Assignment{
		PersonnelID: personnelID,
		RoleID:      roleID,
		AssignedBy:  assignedBy,
		AssignedAt:  time.Now(),
		ExpiresAt:   expiresAt,
		IsActive:    true,
	}
	if err := s.repo.CreateAssignment(assignment); err != nil {
		// Lost the race against a concurrent grant; reuse the winner's row.
		if winner, getErr := s.repo.GetAssignment(personnelID, roleID); getErr == nil && winner != nil {
			winner.IsActive = true
			winner.ExpiresAt = expiresAt
			if updErr := s.repo.UpdateAssignment(winner); updErr != nil {
				return nil, updErr
			}
			winner.Role = *role
			return winner, nil
		}
		return nil, err
	}

	assignment.Role = *role
	s.logger.Info("role granted", "personnel_id", personnelID, "role", role.Name)
	return assignment, nil
}

// RevokeRole soft-deactivates the assignment. Revoking an absent or already
// inactive assignment is a no-op.
func (s *Service) RevokeRole(personnelID, roleID int64) error {
	assignment, err := s.repo.GetAssignment(personnelID, roleID)
	if err != nil || assignment == nil {
		return nil
	}
	if !assignment.IsActive {
		return nil
	}

	assignment.IsActive = false
	if err := s.repo.UpdateAssignment(assignment); err != nil {
		return err
	}
	s.logger.Info("role revoked", "personnel_id", personnelID, "role_id", roleID)
	return nil
}

// ListRoles returns the role catalog.
func (s *Service) ListRoles() ([]Role, error) {
	return s.repo.ListRoles()
}

// ListAssignments returns all assignments for a personnel account, effective
// or not, for audit views.
func (s *Service) ListAssignments(personnelID int64) ([]Assignment, error) {
	return s.repo.ListAssignments(personnelID)
}

// SnapshotFor resolves the current permission snapshot for a personnel
// account. Token issuance and refresh call this so role changes take effect
// on the next mint without forcing re-login.
func (s *Service) SnapshotFor(personnelID int64) (Snapshot, error) {
	assignments, err := s.repo.ListAssignments(personnelID)
	if err != nil {
		return Snapshot{Permissions: make(PermissionSet), Roles: []string{}}, err
	}
	return Resolve(assignments, time.Now()), nil
}

// defaultRoles is the provisioning catalog for a fresh deployment.
var defaultRoles = []Role{
	{Name: "Doctor", Description: "Medical doctor with full patient care access", AccessLevel: AccessLevelSeniorMedical, CanTriggerEmergency: true},
	{Name: "Specialist", Description: "Medical specialist with full patient care access", AccessLevel: AccessLevelSeniorMedical, CanTriggerEmergency: true},
	{Name: "Senior Doctor", Description: "Senior medical doctor with emergency override capabilities", AccessLevel: AccessLevelEmergency, CanTriggerEmergency: true},
	{Name: "Nurse", Description: "Registered nurse with medical access", AccessLevel: AccessLevelMedical, CanTriggerEmergency: false},
	{Name: "Pharmacist", Description: "Licensed pharmacist with prescription access", AccessLevel: AccessLevelMedical, CanTriggerEmergency: false},
	{Name: "Lab Technician", Description: "Laboratory technician with lab test access", AccessLevel: AccessLevelMedical, CanTriggerEmergency: false},
	{Name: "Receptionist", Description: "Front desk receptionist with basic patient info access", AccessLevel: AccessLevelBasic, CanTriggerEmergency: false},
	{Name: "Admin", Description: "System administrator with full system access", AccessLevel: AccessLevelAdministrative, CanTriggerEmergency: false},
}

// SeedDefaultRoles creates any missing default roles. Existing roles are
// left untouched, so the seeder is safe to re-run.
func (s *Service) SeedDefaultRoles() error {
	for _, role := range defaultRoles {
		if existing, err := s.repo.GetRoleByName(role.Name); err == nil && existing != nil {
			continue
		}
		r := role
		if err := s.repo.CreateRole(&r); err != nil {
			return err
		}
		s.logger.Info("role created", "role", r.Name, "access_level", r.AccessLevel)
	}
	return nil
}
