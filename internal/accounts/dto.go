package accounts

import (
	"strings"
	"time"
)

// RegisterPersonnelDTO is the transport shape for staff registration.
type RegisterPersonnelDTO struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhoneWork string `json:"phone_work,omitempty"`
}

type RegisterPatientDTO struct {
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PhonePrimary string     `json:"phone_primary,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	Address      string     `json:"address,omitempty"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d RegisterPersonnelDTO) Validate() error {
	if d.Username == "" {
		return ValidationError{Msg: "username is required"}
	}
	if d.Email == "" || !strings.Contains(d.Email, "@") {
		return ValidationError{Msg: "a valid email is required"}
	}
	if len(d.Password) < 8 {
		return ValidationError{Msg: "password must be at least 8 characters"}
	}
	if d.FirstName == "" || d.LastName == "" {
		return ValidationError{Msg: "first_name and last_name are required"}
	}
	return nil
}

func (d RegisterPatientDTO) Validate() error {
	if d.Email == "" || !strings.Contains(d.Email, "@") {
		return ValidationError{Msg: "a valid email is required"}
	}
	if len(d.Password) < 8 {
		return ValidationError{Msg: "password must be at least 8 characters"}
	}
	if d.FirstName == "" || d.LastName == "" {
		return ValidationError{Msg: "first_name and last_name are required"}
	}
	return nil
}
