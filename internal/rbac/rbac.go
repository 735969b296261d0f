package rbac

import (
	"errors"
	"time"
)

// Role is static reference data created by provisioning.
type Role struct {
	ID                  int64       `json:"id"`
	Name                string      `json:"name"`
	Description         string      `json:"description,omitempty"`
	AccessLevel         AccessLevel `json:"access_level"`
	CanTriggerEmergency bool        `json:"can_trigger_emergency"`
}

// Assignment is a role grant to a personnel account. Rows are soft-revoked
// and retained for audit, never deleted.
type Assignment struct {
	ID          int64      `json:"id"`
	PersonnelID int64      `json:"personnel_id"`
	RoleID      int64      `json:"role_id"`
	AssignedBy  *int64     `json:"assigned_by,omitempty"`
	AssignedAt  time.Time  `json:"assigned_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	Notes       string     `json:"notes,omitempty"`

	Role Role `json:"role"`
}

// Effective reports whether the assignment currently grants its role:
// active and either unexpiring or not yet expired.
func (a Assignment) Effective(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
		return false
	}
	return true
}

var (
	ErrRoleNotFound      = errors.New("role not found")
	ErrPersonnelNotFound = errors.New("personnel not found")
	ErrInvalidExpiry     = errors.New("expiry must be in the future")
)

// RepositoryAPI abstracts role catalog and assignment storage.
type RepositoryAPI interface {
	GetRoleByID(roleID int64) (*Role, error)
	GetRoleByName(name string) (*Role, error)
	ListRoles() ([]Role, error)
	CreateRole(role *Role) error

	// GetAssignment returns the row for the (personnel, role) pair regardless
	// of active state, so grants can reactivate instead of duplicating.
	GetAssignment(personnelID, roleID int64) (*Assignment, error)
	CreateAssignment(a *Assignment) error
	UpdateAssignment(a *Assignment) error
	ListAssignments(personnelID int64) ([]Assignment, error)
}
