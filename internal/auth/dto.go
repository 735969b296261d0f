package auth

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// PersonnelLoginDTO carries staff credentials. Staff log in by username.
type PersonnelLoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (d PersonnelLoginDTO) Validate() error {
	if d.Username == "" {
		return ValidationError{Msg: "username is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

// PatientLoginDTO carries patient credentials. Patients log in by email.
type PatientLoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d PatientLoginDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Msg: "refresh_token is required"}
	}
	return nil
}

// LogoutDTO optionally carries the refresh token so both halves of the pair
// end together. The access token comes from the Authorization header.
type LogoutDTO struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type VerifyEmailDTO struct {
	Code string `json:"code"`
}

func (d VerifyEmailDTO) Validate() error {
	if len(d.Code) != 6 {
		return ValidationError{Msg: "code must be 6 digits"}
	}
	return nil
}

// PasswordResetRequestDTO starts a reset flow for the given account type.
type PasswordResetRequestDTO struct {
	Email    string `json:"email"`
	UserType string `json:"user_type"`
}

func (d PasswordResetRequestDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	return nil
}

type PasswordResetConfirmDTO struct {
	Email       string `json:"email"`
	UserType    string `json:"user_type"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (d PasswordResetConfirmDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if len(d.Code) != 6 {
		return ValidationError{Msg: "code must be 6 digits"}
	}
	if len(d.NewPassword) < 8 {
		return ValidationError{Msg: "new_password must be at least 8 characters"}
	}
	return nil
}

type UnlockRequestDTO struct {
	Email    string `json:"email"`
	UserType string `json:"user_type"`
}

func (d UnlockRequestDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	return nil
}

type UnlockConfirmDTO struct {
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	Code     string `json:"code"`
}

func (d UnlockConfirmDTO) Validate() error {
	if d.Email == "" {
		return ValidationError{Msg: "email is required"}
	}
	if len(d.Code) != 6 {
		return ValidationError{Msg: "code must be 6 digits"}
	}
	return nil
}
