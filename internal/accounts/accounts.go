package accounts

import (
	"errors"
	"time"
)

// Personnel is a staff account. Username is the primary login identifier.
type Personnel struct {
	ID                  int64      `json:"id"`
	Email               string     `json:"email"`
	Username            string     `json:"username"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	EmployeeID          string     `json:"employee_id"`
	PasswordHash        string     `json:"-"`
	PhoneWork           string     `json:"phone_work,omitempty"`
	DateOfBirth         *time.Time `json:"date_of_birth,omitempty"`
	HireDate            *time.Time `json:"hire_date,omitempty"`
	IsActive            bool       `json:"is_active"`
	IsVerified          bool       `json:"is_verified"`
	VerificationStatus  string     `json:"verification_status"`
	FailedLoginAttempts int        `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Patient is a patient account. Email is the primary login identifier.
type Patient struct {
	ID                  int64      `json:"id"`
	Email               string     `json:"email"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	PatientID           string     `json:"patient_id"`
	PasswordHash        string     `json:"-"`
	PhonePrimary        string     `json:"phone_primary,omitempty"`
	DateOfBirth         *time.Time `json:"date_of_birth,omitempty"`
	Address             string     `json:"address,omitempty"`
	IsActive            bool       `json:"is_active"`
	IsVerified          bool       `json:"is_verified"`
	FailedLoginAttempts int        `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
}

var (
	ErrNotFound         = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account already exists")
)

// RepositoryAPI is the credential store. Accounts are soft-deactivated,
// never physically deleted.
type RepositoryAPI interface {
	CreatePersonnel(p *Personnel) error
	GetPersonnelByID(id int64) (*Personnel, error)
	GetPersonnelByUsername(username string) (*Personnel, error)
	GetPersonnelByEmail(email string) (*Personnel, error)
	UpdatePersonnel(p *Personnel) error

	CreatePatient(p *Patient) error
	GetPatientByID(id int64) (*Patient, error)
	GetPatientByEmail(email string) (*Patient, error)
	UpdatePatient(p *Patient) error

	// SearchPatientExact resolves a patient by business identifier (HMS...).
	SearchPatientExact(patientID string) (*Patient, error)
	// SearchPatientFuzzy matches on name and date of birth, first match wins.
	SearchPatientFuzzy(firstName, lastName string, dob time.Time) (*Patient, error)
	// SearchPatientByPhone matches on the primary phone number.
	SearchPatientByPhone(phone string) (*Patient, error)
}
