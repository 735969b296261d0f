package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/accounts"
	"github.com/frahmantamala/hospital-management/internal/rbac"
	"github.com/frahmantamala/hospital-management/pkg/logger"
)

// SnapshotResolver derives the current permission snapshot for personnel.
type SnapshotResolver interface {
	SnapshotFor(personnelID int64) (rbac.Snapshot, error)
}

// AccountMutator is the slice of the accounts service the auth flows need.
type AccountMutator interface {
	MarkPersonnelVerified(id int64) error
	MarkPatientVerified(id int64) error
	SetPersonnelPassword(id int64, newPassword string) error
	SetPatientPassword(id int64, newPassword string) error
}

// Mailer delivers one-time codes out of band. Delivery runs off the request
// path; a failed send never invalidates the issued code.
type Mailer interface {
	SendOTP(ctx context.Context, recipient, code, purpose string) error
}

// otpDeliveryTimeout bounds a single background delivery attempt.
const otpDeliveryTimeout = 15 * time.Second

// Service ties credential checks, lockout, token issuance and OTP flows
// together. It owns the failed-attempt counters on account rows; LockPolicy
// owns the lock rows.
type Service struct {
	accounts  accounts.RepositoryAPI
	mutator   AccountMutator
	tokens    *TokenService
	otp       *OTPService
	locks     *LockPolicy
	snapshots SnapshotResolver
	mailer    Mailer
	dispatch  func(func())
}

func NewService(
	accountRepo accounts.RepositoryAPI,
	mutator AccountMutator,
	tokens *TokenService,
	otp *OTPService,
	locks *LockPolicy,
	snapshots SnapshotResolver,
	mailer Mailer,
) *Service {
	return &Service{
		accounts:  accountRepo,
		mutator:   mutator,
		tokens:    tokens,
		otp:       otp,
		locks:     locks,
		snapshots: snapshots,
		mailer:    mailer,
		dispatch:  func(fn func()) { go fn() },
	}
}

// LoginPersonnel authenticates staff by username. Order matters: the lock
// gate runs before the password check so a locked account rejects even with
// correct credentials, and a failed password charges the attempt counter.
func (s *Service) LoginPersonnel(ctx context.Context, username, password string, meta TokenIssueMeta) (*AuthTokens, error) {
	p, err := s.accounts.GetPersonnelByUsername(username)
	if err != nil {
		if err == accounts.ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup personnel: %w", err)
	}

	locked, released, err := s.locks.IsLocked(p.ID, internal.KindPersonnel)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, ErrAccountLocked
	}
	if released && p.FailedLoginAttempts > 0 {
		p.FailedLoginAttempts = 0
		if uerr := s.accounts.UpdatePersonnel(p); uerr != nil {
			logger.LoggerWrapper().Warn("reset attempt counter", "personnel_id", p.ID, "error", uerr)
		}
	}

	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		if ferr := s.recordPersonnelFailure(p); ferr != nil {
			logger.LoggerWrapper().Error("record failed login", "personnel_id", p.ID, "error", ferr)
		}
		return nil, ErrInvalidCredentials
	}

	if !p.IsVerified {
		// Re-issue the verification code so an account whose original code
		// lapsed can still complete verification from a plain login attempt.
		if verr := s.StartEmailVerification(ctx, p.ID, internal.KindPersonnel, p.Email); verr != nil {
			logger.LoggerWrapper().Warn("reissue verification code", "personnel_id", p.ID, "error", verr)
		}
		return nil, ErrAccountNotVerified
	}
	if !p.IsActive {
		return nil, ErrAccountInactive
	}

	if p.FailedLoginAttempts > 0 {
		p.FailedLoginAttempts = 0
		if uerr := s.accounts.UpdatePersonnel(p); uerr != nil {
			logger.LoggerWrapper().Warn("reset attempt counter", "personnel_id", p.ID, "error", uerr)
		}
	}

	info, err := s.personnelInfo(p)
	if err != nil {
		return nil, err
	}
	return s.tokens.IssuePair(ctx, info, meta)
}

// LoginPatient authenticates a patient by email.
func (s *Service) LoginPatient(ctx context.Context, email, password string, meta TokenIssueMeta) (*AuthTokens, error) {
	p, err := s.accounts.GetPatientByEmail(email)
	if err != nil {
		if err == accounts.ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup patient: %w", err)
	}

	locked, released, err := s.locks.IsLocked(p.ID, internal.KindPatient)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, ErrAccountLocked
	}
	if released && p.FailedLoginAttempts > 0 {
		p.FailedLoginAttempts = 0
		if uerr := s.accounts.UpdatePatient(p); uerr != nil {
			logger.LoggerWrapper().Warn("reset attempt counter", "patient_id", p.ID, "error", uerr)
		}
	}

	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		if ferr := s.recordPatientFailure(p); ferr != nil {
			logger.LoggerWrapper().Error("record failed login", "patient_id", p.ID, "error", ferr)
		}
		return nil, ErrInvalidCredentials
	}

	if !p.IsVerified {
		if verr := s.StartEmailVerification(ctx, p.ID, internal.KindPatient, p.Email); verr != nil {
			logger.LoggerWrapper().Warn("reissue verification code", "patient_id", p.ID, "error", verr)
		}
		return nil, ErrAccountNotVerified
	}
	if !p.IsActive {
		return nil, ErrAccountInactive
	}

	if p.FailedLoginAttempts > 0 {
		p.FailedLoginAttempts = 0
		if uerr := s.accounts.UpdatePatient(p); uerr != nil {
			logger.LoggerWrapper().Warn("reset attempt counter", "patient_id", p.ID, "error", uerr)
		}
	}

	return s.tokens.IssuePair(ctx, patientInfo(p), meta)
}

func (s *Service) recordPersonnelFailure(p *accounts.Personnel) error {
	p.FailedLoginAttempts++
	if err := s.accounts.UpdatePersonnel(p); err != nil {
		return err
	}
	locked, err := s.locks.RecordFailure(p.ID, internal.KindPersonnel, p.FailedLoginAttempts)
	if err != nil {
		return err
	}
	if locked {
		logger.LoggerWrapper().Warn("account locked after repeated failures",
			"personnel_id", p.ID, "attempts", p.FailedLoginAttempts)
	}
	return nil
}

func (s *Service) recordPatientFailure(p *accounts.Patient) error {
	p.FailedLoginAttempts++
	if err := s.accounts.UpdatePatient(p); err != nil {
		return err
	}
	locked, err := s.locks.RecordFailure(p.ID, internal.KindPatient, p.FailedLoginAttempts)
	if err != nil {
		return err
	}
	if locked {
		logger.LoggerWrapper().Warn("account locked after repeated failures",
			"patient_id", p.ID, "attempts", p.FailedLoginAttempts)
	}
	return nil
}

// personnelInfo snapshots identity and permissions at this instant. Later
// role changes do not affect tokens already issued.
func (s *Service) personnelInfo(p *accounts.Personnel) (PrincipalInfo, error) {
	snap, err := s.snapshots.SnapshotFor(p.ID)
	if err != nil {
		return PrincipalInfo{}, fmt.Errorf("resolve permissions: %w", err)
	}
	return PrincipalInfo{
		ID:                  p.ID,
		Kind:                internal.KindPersonnel,
		Email:               p.Email,
		EmployeeID:          p.EmployeeID,
		Permissions:         snap.Permissions.Strings(),
		Roles:               snap.Roles,
		CanTriggerEmergency: snap.CanTriggerEmergency,
		IsVerified:          p.IsVerified,
	}, nil
}

func patientInfo(p *accounts.Patient) PrincipalInfo {
	perms := rbac.PatientPermissions()
	strs := make([]string, len(perms))
	for i, perm := range perms {
		strs[i] = string(perm)
	}
	return PrincipalInfo{
		ID:          p.ID,
		Kind:        internal.KindPatient,
		Email:       p.Email,
		PatientID:   p.PatientID,
		Permissions: strs,
		IsVerified:  p.IsVerified,
	}
}

// Refresh rotates the session: the presented refresh token is consumed, the
// permission snapshot is recomputed, and a fresh pair is issued. A principal
// deactivated or locked since login cannot refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string, meta TokenIssueMeta) (*AuthTokens, error) {
	claims, err := s.tokens.Validate(ctx, refreshToken, TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	principalID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	kind := claims.PrincipalKind()

	locked, released, err := s.locks.IsLocked(principalID, kind)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, ErrAccountLocked
	}
	if released {
		if rerr := s.resetAttemptCounter(principalID, kind); rerr != nil {
			logger.LoggerWrapper().Warn("reset attempt counter", "principal_id", principalID, "error", rerr)
		}
	}

	var info PrincipalInfo
	switch kind {
	case internal.KindPersonnel:
		p, aerr := s.accounts.GetPersonnelByID(principalID)
		if aerr != nil {
			return nil, ErrTokenInvalid
		}
		if !p.IsActive {
			return nil, ErrAccountInactive
		}
		info, err = s.personnelInfo(p)
		if err != nil {
			return nil, err
		}
	case internal.KindPatient:
		p, aerr := s.accounts.GetPatientByID(principalID)
		if aerr != nil {
			return nil, ErrTokenInvalid
		}
		if !p.IsActive {
			return nil, ErrAccountInactive
		}
		info = patientInfo(p)
	default:
		return nil, ErrTokenInvalid
	}

	if err := s.tokens.Revoke(ctx, refreshToken, TokenKindRefresh); err != nil {
		return nil, err
	}
	return s.tokens.IssuePair(ctx, info, meta)
}

// Logout revokes the presented tokens. Idempotent: logging out twice
// succeeds both times.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		if err := s.tokens.Revoke(ctx, accessToken, TokenKindAccess); err != nil && err != ErrTokenInvalid {
			return err
		}
	}
	if refreshToken != "" {
		if err := s.tokens.Revoke(ctx, refreshToken, TokenKindRefresh); err != nil && err != ErrTokenInvalid {
			return err
		}
	}
	return nil
}

// LogoutAll ends every session the principal holds.
func (s *Service) LogoutAll(ctx context.Context, principalID int64, kind internal.PrincipalKind) error {
	return s.tokens.RevokeAllForPrincipal(ctx, principalID, kind)
}

// Authenticate validates an access token and materializes the request
// identity from its frozen claims.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*internal.AuthContext, error) {
	claims, err := s.tokens.Validate(ctx, accessToken, TokenKindAccess)
	if err != nil {
		return nil, err
	}
	principalID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return &internal.AuthContext{
		PrincipalID:         principalID,
		Kind:                claims.PrincipalKind(),
		Email:               claims.Email,
		EmployeeID:          claims.EmployeeID,
		PatientID:           claims.PatientID,
		Permissions:         claims.Permissions,
		Roles:               claims.Roles,
		CanTriggerEmergency: claims.CanTriggerEmergency,
		IsVerified:          claims.IsVerified,
	}, nil
}

// StartEmailVerification issues a verification code and mails it. Called on
// registration and on explicit resend.
func (s *Service) StartEmailVerification(ctx context.Context, principalID int64, kind internal.PrincipalKind, email string) error {
	challenge, err := s.otp.Create(principalID, kind, OTPPurposeEmailVerification, "")
	if err != nil {
		return err
	}
	s.dispatchOTP(email, challenge.Code, OTPPurposeEmailVerification)
	return nil
}

// dispatchOTP hands the code to the mailer off the request path. The
// challenge is already persisted; delivery failures are logged only so a
// wedged relay cannot block the flow or betray which emails exist.
func (s *Service) dispatchOTP(recipient, code string, purpose OTPPurpose) {
	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), otpDeliveryTimeout)
		defer cancel()
		if err := s.mailer.SendOTP(ctx, recipient, code, string(purpose)); err != nil {
			logger.LoggerWrapper().Error("send one-time code", "purpose", string(purpose), "error", err)
		}
	})
}

// VerifyEmail consumes a verification code and activates the account.
func (s *Service) VerifyEmail(ctx context.Context, principalID int64, kind internal.PrincipalKind, code string) error {
	if err := s.otp.Verify(principalID, kind, OTPPurposeEmailVerification, code); err != nil {
		return err
	}
	switch kind {
	case internal.KindPatient:
		return s.mutator.MarkPatientVerified(principalID)
	default:
		return s.mutator.MarkPersonnelVerified(principalID)
	}
}

// RequestPasswordReset issues a reset code to the account behind the email.
// Unknown emails are silently accepted so the endpoint does not confirm
// account existence.
func (s *Service) RequestPasswordReset(ctx context.Context, kind internal.PrincipalKind, email, ipAddress string) error {
	principalID, recipient, err := s.resolveByEmail(kind, email)
	if err != nil {
		if err == accounts.ErrNotFound {
			logger.LoggerWrapper().Info("password reset for unknown email", "kind", kind)
			return nil
		}
		return err
	}

	challenge, err := s.otp.Create(principalID, kind, OTPPurposePasswordReset, ipAddress)
	if err != nil {
		return err
	}
	s.dispatchOTP(recipient, challenge.Code, OTPPurposePasswordReset)
	return nil
}

// ConfirmPasswordReset consumes the reset code, rotates the password and
// ends every open session for the principal.
func (s *Service) ConfirmPasswordReset(ctx context.Context, kind internal.PrincipalKind, email, code, newPassword string) error {
	principalID, _, err := s.resolveByEmail(kind, email)
	if err != nil {
		if err == accounts.ErrNotFound {
			return ErrOTPInvalid
		}
		return err
	}

	if err := s.otp.Verify(principalID, kind, OTPPurposePasswordReset, code); err != nil {
		return err
	}

	switch kind {
	case internal.KindPatient:
		err = s.mutator.SetPatientPassword(principalID, newPassword)
	default:
		err = s.mutator.SetPersonnelPassword(principalID, newPassword)
	}
	if err != nil {
		return err
	}

	if err := s.tokens.RevokeAllForPrincipal(ctx, principalID, kind); err != nil {
		logger.LoggerWrapper().Error("revoke sessions after password reset",
			"principal_id", principalID, "error", err)
	}
	return nil
}

// RequestUnlock issues an unlock code to a locked account.
func (s *Service) RequestUnlock(ctx context.Context, kind internal.PrincipalKind, email, ipAddress string) error {
	principalID, recipient, err := s.resolveByEmail(kind, email)
	if err != nil {
		if err == accounts.ErrNotFound {
			return nil
		}
		return err
	}

	challenge, err := s.otp.Create(principalID, kind, OTPPurposeAccountUnlock, ipAddress)
	if err != nil {
		return err
	}
	s.dispatchOTP(recipient, challenge.Code, OTPPurposeAccountUnlock)
	return nil
}

// ConfirmUnlock consumes the unlock code, releases the lock and clears the
// attempt counter.
func (s *Service) ConfirmUnlock(ctx context.Context, kind internal.PrincipalKind, email, code string) error {
	principalID, _, err := s.resolveByEmail(kind, email)
	if err != nil {
		if err == accounts.ErrNotFound {
			return ErrOTPInvalid
		}
		return err
	}

	if err := s.otp.Verify(principalID, kind, OTPPurposeAccountUnlock, code); err != nil {
		return err
	}
	if err := s.locks.Unlock(principalID, kind); err != nil {
		return err
	}
	return s.resetAttemptCounter(principalID, kind)
}

func (s *Service) resolveByEmail(kind internal.PrincipalKind, email string) (int64, string, error) {
	if kind == internal.KindPatient {
		p, err := s.accounts.GetPatientByEmail(email)
		if err != nil {
			return 0, "", err
		}
		return p.ID, p.Email, nil
	}
	p, err := s.accounts.GetPersonnelByEmail(email)
	if err != nil {
		return 0, "", err
	}
	return p.ID, p.Email, nil
}

func (s *Service) resetAttemptCounter(principalID int64, kind internal.PrincipalKind) error {
	if kind == internal.KindPatient {
		p, err := s.accounts.GetPatientByID(principalID)
		if err != nil {
			return err
		}
		p.FailedLoginAttempts = 0
		return s.accounts.UpdatePatient(p)
	}
	p, err := s.accounts.GetPersonnelByID(principalID)
	if err != nil {
		return err
	}
	p.FailedLoginAttempts = 0
	return s.accounts.UpdatePersonnel(p)
}

// CleanupExpired garbage-collects expired token records and OTP challenges.
// Run periodically by the cleanup command.
func (s *Service) CleanupExpired(ctx context.Context) error {
	tokens, err := s.tokens.CleanupExpired(ctx)
	if err != nil {
		return fmt.Errorf("cleanup tokens: %w", err)
	}
	codes, err := s.otp.CleanupExpired()
	if err != nil {
		return fmt.Errorf("cleanup otp challenges: %w", err)
	}
	if tokens > 0 || codes > 0 {
		logger.LoggerWrapper().Info("expired auth artifacts removed",
			"tokens", tokens, "otp_challenges", codes)
	}
	return nil
}
