package postgres

import (
	"errors"

	rbacDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/rbac"
	"github.com/frahmantamala/hospital-management/internal/rbac"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) rbac.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) GetRoleByID(roleID int64) (*rbac.Role, error) {
	var row rbacDatamodel.Role
	if err := r.db.Where("id = ?", roleID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rbac.ErrRoleNotFound
		}
		return nil, err
	}
	role := toRole(row)
	return &role, nil
}

func (r *Repository) GetRoleByName(name string) (*rbac.Role, error) {
	var row rbacDatamodel.Role
	if err := r.db.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rbac.ErrRoleNotFound
		}
		return nil, err
	}
	role := toRole(row)
	return &role, nil
}

func (r *Repository) ListRoles() ([]rbac.Role, error) {
	var rows []rbacDatamodel.Role
	if err := r.db.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	roles := make([]rbac.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, toRole(row))
	}
	return roles, nil
}

func (r *Repository) CreateRole(role *rbac.Role) error {
	row := rbacDatamodel.Role{
		Name:                role.Name,
		Description:         role.Description,
		AccessLevel:         string(role.AccessLevel),
		CanTriggerEmergency: role.CanTriggerEmergency,
	}
	if err := r.db.Create(&row).Error; err != nil {
		return err
	}
	role.ID = row.ID
	return nil
}

func (r *Repository) GetAssignment(personnelID, roleID int64) (*rbac.Assignment, error) {
	var row rbacDatamodel.RoleAssignment
	err := r.db.Preload("Role").
		Where("personnel_id = ? AND role_id = ?", personnelID, roleID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	assignment := toAssignment(row)
	return &assignment, nil
}

func (r *Repository) CreateAssignment(a *rbac.Assignment) error {
	row := rbacDatamodel.RoleAssignment{
		PersonnelID: a.PersonnelID,
		RoleID:      a.RoleID,
		AssignedBy:  a.AssignedBy,
		AssignedAt:  a.AssignedAt,
		ExpiresAt:   a.ExpiresAt,
		IsActive:    a.IsActive,
		Notes:       a.Notes,
	}
	if err := r.db.Create(&row).Error; err != nil {
		return err
	}
	a.ID = row.ID
	return nil
}

func (r *Repository) UpdateAssignment(a *rbac.Assignment) error {
	return r.db.Model(&rbacDatamodel.RoleAssignment{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"is_active":   a.IsActive,
			"assigned_by": a.AssignedBy,
			"assigned_at": a.AssignedAt,
			"expires_at":  a.ExpiresAt,
			"notes":       a.Notes,
		}).Error
}

func (r *Repository) ListAssignments(personnelID int64) ([]rbac.Assignment, error) {
	var rows []rbacDatamodel.RoleAssignment
	err := r.db.Preload("Role").
		Where("personnel_id = ?", personnelID).
		Order("assigned_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	assignments := make([]rbac.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, toAssignment(row))
	}
	return assignments, nil
}

func toRole(row rbacDatamodel.Role) rbac.Role {
	return rbac.Role{
		ID:                  row.ID,
		Name:                row.Name,
		Description:         row.Description,
		AccessLevel:         rbac.AccessLevel(row.AccessLevel),
		CanTriggerEmergency: row.CanTriggerEmergency,
	}
}

func toAssignment(row rbacDatamodel.RoleAssignment) rbac.Assignment {
	return rbac.Assignment{
		ID:          row.ID,
		PersonnelID: row.PersonnelID,
		RoleID:      row.RoleID,
		AssignedBy:  row.AssignedBy,
		AssignedAt:  row.AssignedAt,
		ExpiresAt:   row.ExpiresAt,
		IsActive:    row.IsActive,
		Notes:       row.Notes,
		Role:        toRole(row.Role),
	}
}
