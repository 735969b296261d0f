package accounts

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	accountsDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/accounts"
	"golang.org/x/crypto/bcrypt"
)

// Service owns account lifecycle: registration, verification, profile state.
type Service struct {
	repo       RepositoryAPI
	logger     *slog.Logger
	bcryptCost int
}

func NewService(repo RepositoryAPI, logger *slog.Logger, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// RegisterPersonnel creates a staff account. It starts inactive and
// unverified; activation happens when the email verification OTP succeeds.
func (s *Service) RegisterPersonnel(dto RegisterPersonnelDTO) (*Personnel, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, _ := s.repo.GetPersonnelByUsername(dto.Username); existing != nil {
		return nil, ErrDuplicateAccount
	}
	if existing, _ := s.repo.GetPersonnelByEmail(dto.Email); existing != nil {
		return nil, ErrDuplicateAccount
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	p := &Personnel{
		Email:              dto.Email,
		Username:           dto.Username,
		FirstName:          dto.FirstName,
		LastName:           dto.LastName,
		EmployeeID:         generateEmployeeID(),
		PasswordHash:       string(hash),
		PhoneWork:          dto.PhoneWork,
		IsActive:           false,
		IsVerified:         false,
		VerificationStatus: accountsDatamodel.VerificationPending,
	}
	if err := s.repo.CreatePersonnel(p); err != nil {
		return nil, err
	}

	s.logger.Info("personnel registered", "username", p.Username, "employee_id", p.EmployeeID)
	return p, nil
}

// RegisterPatient creates a patient account, inactive until email verification.
func (s *Service) RegisterPatient(dto RegisterPatientDTO) (*Patient, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, _ := s.repo.GetPatientByEmail(dto.Email); existing != nil {
		return nil, ErrDuplicateAccount
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	p := &Patient{
		Email:        dto.Email,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		PatientID:    generatePatientID(),
		PasswordHash: string(hash),
		PhonePrimary: dto.PhonePrimary,
		DateOfBirth:  dto.DateOfBirth,
		Address:      dto.Address,
		IsActive:     false,
		IsVerified:   false,
	}
	if err := s.repo.CreatePatient(p); err != nil {
		return nil, err
	}

	s.logger.Info("patient registered", "patient_id", p.PatientID)
	return p, nil
}

func (s *Service) GetPersonnelByID(id int64) (*Personnel, error) {
	return s.repo.GetPersonnelByID(id)
}

func (s *Service) GetPatientByID(id int64) (*Patient, error) {
	return s.repo.GetPatientByID(id)
}

// MarkPersonnelVerified flips verification state after a successful email
// verification OTP.
func (s *Service) MarkPersonnelVerified(id int64) error {
	p, err := s.repo.GetPersonnelByID(id)
	if err != nil {
		return err
	}
	p.IsVerified = true
	p.IsActive = true
	p.VerificationStatus = accountsDatamodel.VerificationApproved
	return s.repo.UpdatePersonnel(p)
}

// MarkPatientVerified flips verification state after a successful email
// verification OTP.
func (s *Service) MarkPatientVerified(id int64) error {
	p, err := s.repo.GetPatientByID(id)
	if err != nil {
		return err
	}
	p.IsVerified = true
	p.IsActive = true
	return s.repo.UpdatePatient(p)
}

// DeactivatePersonnel soft-deactivates. The row is retained for audit.
func (s *Service) DeactivatePersonnel(id int64) error {
	p, err := s.repo.GetPersonnelByID(id)
	if err != nil {
		return err
	}
	p.IsActive = false
	if err := s.repo.UpdatePersonnel(p); err != nil {
		return err
	}
	s.logger.Info("personnel deactivated", "personnel_id", id)
	return nil
}

// DeactivatePatient soft-deactivates. The row is retained for audit.
func (s *Service) DeactivatePatient(id int64) error {
	p, err := s.repo.GetPatientByID(id)
	if err != nil {
		return err
	}
	p.IsActive = false
	if err := s.repo.UpdatePatient(p); err != nil {
		return err
	}
	s.logger.Info("patient deactivated", "patient_id", id)
	return nil
}

// SetPersonnelPassword replaces the password hash. The caller is responsible
// for OTP verification before invoking this.
func (s *Service) SetPersonnelPassword(id int64, newPassword string) error {
	p, err := s.repo.GetPersonnelByID(id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	p.PasswordHash = string(hash)
	return s.repo.UpdatePersonnel(p)
}

// SetPatientPassword replaces the password hash. The caller is responsible
// for OTP verification before invoking this.
func (s *Service) SetPatientPassword(id int64, newPassword string) error {
	p, err := s.repo.GetPatientByID(id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	p.PasswordHash = string(hash)
	return s.repo.UpdatePatient(p)
}

// Business identifier formats: EMP<year><4 digits> and HMS<year><6 digits>.
func generateEmployeeID() string {
	return fmt.Sprintf("EMP%d%04d", time.Now().Year(), rand.Intn(10000))
}

func generatePatientID() string {
	return fmt.Sprintf("HMS%d%06d", time.Now().Year(), rand.Intn(1000000))
}
