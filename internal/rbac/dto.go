package rbac

import "time"

// GrantRoleDTO is the transport shape for role grant requests.
type GrantRoleDTO struct {
	PersonnelID int64      `json:"personnel_id"`
	RoleID      int64      `json:"role_id"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type RevokeRoleDTO struct {
	PersonnelID int64 `json:"personnel_id"`
	RoleID      int64 `json:"role_id"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d GrantRoleDTO) Validate() error {
	if d.PersonnelID <= 0 {
		return ValidationError{Msg: "personnel_id is required"}
	}
	if d.RoleID <= 0 {
		return ValidationError{Msg: "role_id is required"}
	}
	return nil
}

func (d RevokeRoleDTO) Validate() error {
	if d.PersonnelID <= 0 {
		return ValidationError{Msg: "personnel_id is required"}
	}
	if d.RoleID <= 0 {
		return ValidationError{Msg: "role_id is required"}
	}
	return nil
}
