package rbac

import "time"

type Role struct {
	ID                  int64     `gorm:"primaryKey"`
	Name                string    `gorm:"column:name;uniqueIndex;not null"`
	Description         string    `gorm:"column:description"`
	AccessLevel         string    `gorm:"column:access_level;not null"`
	CanTriggerEmergency bool      `gorm:"column:can_trigger_emergency;default:false"`
	CreatedAt           time.Time `gorm:"column:created_at;default:now()"`
}

func (Role) TableName() string {
	return "roles"
}

// RoleAssignment links personnel to a role. The composite unique index keeps
// concurrent grants from creating duplicate rows for the same pair; a revoked
// assignment is reactivated instead of re-created.
type RoleAssignment struct {
	ID          int64      `gorm:"primaryKey"`
	PersonnelID int64      `gorm:"column:personnel_id;not null;uniqueIndex:idx_personnel_role"`
	RoleID      int64      `gorm:"column:role_id;not null;uniqueIndex:idx_personnel_role"`
	AssignedBy  *int64     `gorm:"column:assigned_by"`
	AssignedAt  time.Time  `gorm:"column:assigned_at;default:now()"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	IsActive    bool       `gorm:"column:is_active;default:true"`
	Notes       string     `gorm:"column:notes"`

	Role Role `gorm:"foreignKey:RoleID"`
}

func (RoleAssignment) TableName() string {
	return "role_assignments"
}
