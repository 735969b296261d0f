package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	emergencyDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/emergency"
	"github.com/frahmantamala/hospital-management/internal/emergency"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) emergency.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) CreateAccess(a *emergency.Access) error {
	row := emergencyDatamodel.EmergencyAccess{
		ID:           a.ID,
		PersonnelID:  a.PersonnelID,
		PatientID:    a.PatientID,
		Reason:       a.Reason,
		SearchMethod: a.SearchMethod,
		IPAddress:    a.IPAddress,
		AccessedAt:   a.AccessedAt,
	}
	return r.db.Create(&row).Error
}

func (r *Repository) GetAccess(id string) (*emergency.Access, error) {
	var row emergencyDatamodel.EmergencyAccess
	if err := r.db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	access := toAccess(row)
	return &access, nil
}

func (r *Repository) EndSession(id string, at time.Time) error {
	return r.db.Model(&emergencyDatamodel.EmergencyAccess{}).
		Where("id = ? AND session_ended_at IS NULL", id).
		Update("session_ended_at", at).Error
}

func (r *Repository) ListRecent(limit int) ([]emergency.Access, error) {
	var rows []emergencyDatamodel.EmergencyAccess
	if err := r.db.Order("accessed_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAccesses(rows), nil
}

func (r *Repository) ListForPersonnel(personnelID int64, limit int) ([]emergency.Access, error) {
	var rows []emergencyDatamodel.EmergencyAccess
	err := r.db.Where("personnel_id = ?", personnelID).
		Order("accessed_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toAccesses(rows), nil
}

func toAccess(row emergencyDatamodel.EmergencyAccess) emergency.Access {
	return emergency.Access{
		ID:             row.ID,
		PersonnelID:    row.PersonnelID,
		PatientID:      row.PatientID,
		Reason:         row.Reason,
		SearchMethod:   row.SearchMethod,
		IPAddress:      row.IPAddress,
		AccessedAt:     row.AccessedAt,
		SessionEndedAt: row.SessionEndedAt,
	}
}

func toAccesses(rows []emergencyDatamodel.EmergencyAccess) []emergency.Access {
	out := make([]emergency.Access, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAccess(row))
	}
	return out
}
