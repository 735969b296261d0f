package postgres

import (
	"errors"
	"time"

	"github.com/frahmantamala/hospital-management/internal/accounts"
	accountsDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/accounts"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) accounts.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) CreatePersonnel(p *accounts.Personnel) error {
	row := toPersonnelRow(p)
	if err := r.db.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return accounts.ErrDuplicateAccount
		}
		return err
	}
	p.ID = row.ID
	p.CreatedAt = row.CreatedAt
	return nil
}

func (r *Repository) GetPersonnelByID(id int64) (*accounts.Personnel, error) {
	var row accountsDatamodel.Personnel
	if err := r.db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounts.ErrNotFound
		}
		return nil, err
	}
	return fromPersonnelRow(row), nil
}

func (r *Repository) GetPersonnelByUsername(username string) (*accounts.Personnel, error) {
	var row accountsDatamodel.Personnel
	if err := r.db.Where("username = ?", username).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounts.ErrNotFound
		}
		return nil, err
	}
	return fromPersonnelRow(row), nil
}

func (r *Repository) GetPersonnelByEmail(email string) (*accounts.Personnel, error) {
	var row accountsDatamodel.Personnel
	if err := r.db.Where("email = ?", email).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounts.ErrNotFound
		}
		return nil, err
	}
	return fromPersonnelRow(row), nil
}

func (r *Repository) UpdatePersonnel(p *accounts.Personnel) error {
	return r.db.Model(&accountsDatamodel.Personnel{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"email":                 p.Email,
			"first_name":            p.FirstName,
			"last_name":             p.LastName,
			"password_hash":         p.PasswordHash,
			"phone_work":            p.PhoneWork,
			"is_active":             p.IsActive,
			"is_verified":           p.IsVerified,
			"verification_status":   p.VerificationStatus,
			"failed_login_attempts": p.FailedLoginAttempts,
			"updated_at":            time.Now(),
		}).Error
}

func (r *Repository) CreatePatient(p *accounts.Patient) error {
	row := toPatientRow(p)
	if err := r.db.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return accounts.ErrDuplicateAccount
		}
		return err
	}
	p.ID = row.ID
	p.CreatedAt = row.CreatedAt
	return nil
}

func (r *Repository) GetPatientByID(id int64) (*accounts.Patient, error) {
	var row accountsDatamodel.Patient
	if err := r.db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounts.ErrNotFound
		}
		return nil, err
	}
	return fromPatientRow(row), nil
}

func (r *Repository) GetPatientByEmail(email string) (*accounts.Patient, error) {
	var row accountsDatamodel.Patient
	if err := r.db.Where("email = ?", email).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounts.ErrNotFound
		}
		return nil, err
	}
	return fromPatientRow(row), nil
}

func (r *Repository) UpdatePatient(p *accounts.Patient) error {
	return r.db.Model(&accountsDatamodel.Patient{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"email":                 p.Email,
			"first_name":            p.FirstName,
			"last_name":             p.LastName,
			"password_hash":         p.PasswordHash,
			"phone_primary":         p.PhonePrimary,
			"address":               p.Address,
			"is_active":             p.IsActive,
			"is_verified":           p.IsVerified,
			"failed_login_attempts": p.FailedLoginAttempts,
			"updated_at":            time.Now(),
		}).Error
}

func (r *Repository) SearchPatientExact(patientID string) (*accounts.Patient, error) {
	var row accountsDatamodel.Patient
	err := r.db.Where("patient_id = ? AND is_active = ?", patientID, true).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounts.ErrNotFound
		}
		return nil, err
	}
	return fromPatientRow(row), nil
}

func (r *Repository) SearchPatientFuzzy(firstName, lastName string, dob time.Time) (*accounts.Patient, error) {
	var row accountsDatamodel.Patient
	err := r.db.Where(
		"LOWER(first_name) = LOWER(?) AND LOWER(last_name) = LOWER(?) AND date_of_birth = ? AND is_active = ?",
		firstName, lastName, dob, true,
	).Order("id ASC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounts.ErrNotFound
		}
		return nil, err
	}
	return fromPatientRow(row), nil
}

func (r *Repository) SearchPatientByPhone(phone string) (*accounts.Patient, error) {
	var row accountsDatamodel.Patient
	err := r.db.Where("phone_primary = ? AND is_active = ?", phone, true).
		Order("id ASC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounts.ErrNotFound
		}
		return nil, err
	}
	return fromPatientRow(row), nil
}

func toPersonnelRow(p *accounts.Personnel) accountsDatamodel.Personnel {
	return accountsDatamodel.Personnel{
		ID:                  p.ID,
		Email:               p.Email,
		Username:            p.Username,
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		EmployeeID:          p.EmployeeID,
		PasswordHash:        p.PasswordHash,
		PhoneWork:           p.PhoneWork,
		DateOfBirth:         p.DateOfBirth,
		HireDate:            p.HireDate,
		IsActive:            p.IsActive,
		IsVerified:          p.IsVerified,
		VerificationStatus:  p.VerificationStatus,
		FailedLoginAttempts: p.FailedLoginAttempts,
	}
}

func fromPersonnelRow(row accountsDatamodel.Personnel) *accounts.Personnel {
	return &accounts.Personnel{
		ID:                  row.ID,
		Email:               row.Email,
		Username:            row.Username,
		FirstName:           row.FirstName,
		LastName:            row.LastName,
		EmployeeID:          row.EmployeeID,
		PasswordHash:        row.PasswordHash,
		PhoneWork:           row.PhoneWork,
		DateOfBirth:         row.DateOfBirth,
		HireDate:            row.HireDate,
		IsActive:            row.IsActive,
		IsVerified:          row.IsVerified,
		VerificationStatus:  row.VerificationStatus,
		FailedLoginAttempts: row.FailedLoginAttempts,
		CreatedAt:           row.CreatedAt,
	}
}

func toPatientRow(p *accounts.Patient) accountsDatamodel.Patient {
	return accountsDatamodel.Patient{
		ID:                  p.ID,
		Email:               p.Email,
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		PatientID:           p.PatientID,
		PasswordHash:        p.PasswordHash,
		PhonePrimary:        p.PhonePrimary,
		DateOfBirth:         p.DateOfBirth,
		Address:             p.Address,
		IsActive:            p.IsActive,
		IsVerified:          p.IsVerified,
		FailedLoginAttempts: p.FailedLoginAttempts,
	}
}

func fromPatientRow(row accountsDatamodel.Patient) *accounts.Patient {
	return &accounts.Patient{
		ID:                  row.ID,
		Email:               row.Email,
		FirstName:           row.FirstName,
		LastName:            row.LastName,
		PatientID:           row.PatientID,
		PasswordHash:        row.PasswordHash,
		PhonePrimary:        row.PhonePrimary,
		DateOfBirth:         row.DateOfBirth,
		Address:             row.Address,
		IsActive:            row.IsActive,
		IsVerified:          row.IsVerified,
		FailedLoginAttempts: row.FailedLoginAttempts,
		CreatedAt:           row.CreatedAt,
	}
}
