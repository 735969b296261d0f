package accounts

import "time"

// VerificationStatus values for personnel accounts.
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

type Personnel struct {
	ID                  int64      `gorm:"primaryKey"`
	Email               string     `gorm:"column:email;uniqueIndex;not null"`
	Username            string     `gorm:"column:username;uniqueIndex;not null"`
	FirstName           string     `gorm:"column:first_name;not null"`
	LastName            string     `gorm:"column:last_name;not null"`
	EmployeeID          string     `gorm:"column:employee_id;uniqueIndex"`
	PasswordHash        string     `gorm:"column:password_hash;not null"`
	PhoneWork           string     `gorm:"column:phone_work"`
	DateOfBirth         *time.Time `gorm:"column:date_of_birth"`
	HireDate            *time.Time `gorm:"column:hire_date"`
	IsActive            bool       `gorm:"column:is_active;default:false"`
	IsVerified          bool       `gorm:"column:is_verified;default:false"`
	VerificationStatus  string     `gorm:"column:verification_status;default:pending"`
	FailedLoginAttempts int        `gorm:"column:failed_login_attempts;default:0"`
	CreatedAt           time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;default:now()"`
}

func (Personnel) TableName() string {
	return "personnel"
}

type Patient struct {
	ID                  int64      `gorm:"primaryKey"`
	Email               string     `gorm:"column:email;uniqueIndex;not null"`
	FirstName           string     `gorm:"column:first_name;not null"`
	LastName            string     `gorm:"column:last_name;not null"`
	PatientID           string     `gorm:"column:patient_id;uniqueIndex"`
	PasswordHash        string     `gorm:"column:password_hash;not null"`
	PhonePrimary        string     `gorm:"column:phone_primary"`
	DateOfBirth         *time.Time `gorm:"column:date_of_birth"`
	Address             string     `gorm:"column:address"`
	IsActive            bool       `gorm:"column:is_active;default:false"`
	IsVerified          bool       `gorm:"column:is_verified;default:false"`
	FailedLoginAttempts int        `gorm:"column:failed_login_attempts;default:0"`
	CreatedAt           time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;default:now()"`
}

func (Patient) TableName() string {
	return "patients"
}
