package emergency

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/hospital-management/internal/accounts"
	"github.com/frahmantamala/hospital-management/pkg/ids"
	"github.com/frahmantamala/hospital-management/pkg/logger"
)

// PatientFinder is the slice of the credential store emergency lookup needs.
type PatientFinder interface {
	SearchPatientExact(patientID string) (*accounts.Patient, error)
	SearchPatientFuzzy(firstName, lastName string, dob time.Time) (*accounts.Patient, error)
	SearchPatientByPhone(phone string) (*accounts.Patient, error)
}

// AccessResult pairs the located patient with its audit entry so the caller
// can surface both.
type AccessResult struct {
	Patient *accounts.Patient `json:"patient"`
	Access  *Access           `json:"access"`
}

// Service implements break-glass patient lookup. The contract is
// audit-or-fail: patient data is never returned unless the audit row is
// durably written first.
type Service struct {
	repo     RepositoryAPI
	patients PatientFinder
	newID    func() string
	now      func() time.Time
}

func NewService(repo RepositoryAPI, patients PatientFinder) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		newID:    ids.New,
		now:      time.Now,
	}
}

// AccessPatient locates a patient by the first identifier that matches and
// writes the audit entry before returning any data. A failed audit write
// denies the access outright.
func (s *Service) AccessPatient(personnelID int64, query SearchQuery, reason, ipAddress string) (*AccessResult, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}
	if query.empty() {
		return nil, ErrQueryRequired
	}

	patient, method, err := s.locate(query)
	if err != nil {
		return nil, err
	}

	access := &Access{
		ID:           s.newID(),
		PersonnelID:  personnelID,
		PatientID:    patient.ID,
		Reason:       strings.TrimSpace(reason),
		SearchMethod: method,
		IPAddress:    ipAddress,
		AccessedAt:   s.now(),
	}
	if err := s.repo.CreateAccess(access); err != nil {
		logger.LoggerWrapper().Error("emergency audit write failed, access denied",
			"personnel_id", personnelID, "patient_id", patient.ID, "error", err)
		return nil, ErrAuditWrite
	}

	logger.LoggerWrapper().Warn("emergency access granted",
		"access_id", access.ID,
		"personnel_id", personnelID,
		"patient_id", patient.ID,
		"search_method", method)

	return &AccessResult{Patient: patient, Access: access}, nil
}

func (s *Service) locate(query SearchQuery) (*accounts.Patient, string, error) {
	if query.PatientID != "" {
		patient, err := s.patients.SearchPatientExact(query.PatientID)
		if err == nil {
			return patient, SearchMethodPatientID, nil
		}
		if err != accounts.ErrNotFound {
			return nil, "", fmt.Errorf("search by patient id: %w", err)
		}
	}

	if query.FirstName != "" && query.LastName != "" && query.DateOfBirth != nil {
		patient, err := s.patients.SearchPatientFuzzy(query.FirstName, query.LastName, *query.DateOfBirth)
		if err == nil {
			return patient, SearchMethodNameDOB, nil
		}
		if err != accounts.ErrNotFound {
			return nil, "", fmt.Errorf("search by name and dob: %w", err)
		}
	}

	if query.Phone != "" {
		patient, err := s.patients.SearchPatientByPhone(query.Phone)
		if err == nil {
			return patient, SearchMethodPhone, nil
		}
		if err != accounts.ErrNotFound {
			return nil, "", fmt.Errorf("search by phone: %w", err)
		}
	}

	return nil, "", ErrPatientNotFound
}

// EndSession stamps the end of an emergency session. Only the personnel who
// opened the access may end it; ending twice is a no-op.
func (s *Service) EndSession(accessID string, personnelID int64) error {
	access, err := s.repo.GetAccess(accessID)
	if err != nil {
		return err
	}
	if access == nil {
		return ErrAccessNotFound
	}
	if access.PersonnelID != personnelID {
		return ErrNotSessionOwner
	}
	if access.SessionEndedAt != nil {
		return nil
	}
	return s.repo.EndSession(accessID, s.now())
}

// ListAccessLog returns the most recent audit entries, newest first.
func (s *Service) ListAccessLog(limit int) ([]Access, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.repo.ListRecent(limit)
}

// ListOwnAccesses returns the caller's own audit entries.
func (s *Service) ListOwnAccesses(personnelID int64, limit int) ([]Access, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.repo.ListForPersonnel(personnelID, limit)
}
