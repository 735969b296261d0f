package auth

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates access and refresh tokens. A refresh token must
// never be accepted where an access token is required, and vice versa.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// OTP purposes.
type OTPPurpose string

const (
	OTPPurposeEmailVerification OTPPurpose = "email_verification"
	OTPPurposePasswordReset     OTPPurpose = "password_reset"
	OTPPurposeLoginVerification OTPPurpose = "login_verification"
	OTPPurposeAccountUnlock     OTPPurpose = "account_unlock"
)

// Claims carries the permission snapshot frozen at issuance time. The
// snapshot is copy-on-issue: concurrent requests bearing the same token read
// immutable data.
type Claims struct {
	UserID              string   `json:"user_id"`
	Email               string   `json:"email"`
	UserType            string   `json:"user_type"`
	Permissions         []string `json:"permissions"`
	Roles               []string `json:"roles,omitempty"`
	CanTriggerEmergency bool     `json:"can_trigger_emergency,omitempty"`
	EmployeeID          string   `json:"employee_id,omitempty"`
	PatientID           string   `json:"patient_id,omitempty"`
	IsVerified          bool     `json:"is_verified,omitempty"`
	TokenType           string   `json:"token_type"`
	jwt.RegisteredClaims
}

// PrincipalKind returns the tagged kind carried in the claims.
func (c *Claims) PrincipalKind() internal.PrincipalKind {
	return internal.PrincipalKind(c.UserType)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenRecord is the persisted row backing an issued token, kept for
// revocation lookup until natural expiry.
type TokenRecord struct {
	TokenID       string
	PrincipalID   int64
	PrincipalKind internal.PrincipalKind
	Kind          TokenKind
	IssuedAt      time.Time
	ExpiresAt     time.Time
	LastUsedAt    *time.Time
	IPAddress     string
	UserAgent     string
	IsActive      bool
}

// OTPChallenge is a short-lived one-time code bound to a principal and
// purpose. At most one unused challenge exists per (principal, purpose).
type OTPChallenge struct {
	ID            int64
	PrincipalID   int64
	PrincipalKind internal.PrincipalKind
	Code          string
	Purpose       OTPPurpose
	ExpiresAt     time.Time
	IsUsed        bool
	Attempts      int
	IPAddress     string
	CreatedAt     time.Time
}

// Lock is an active account lock. At most one per principal.
type Lock struct {
	ID            int64
	PrincipalID   int64
	PrincipalKind internal.PrincipalKind
	Reason        string
	LockedAt      time.Time
	UnlockAt      *time.Time
	LockedBy      *int64
	IsActive      bool
}

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountLocked       = errors.New("account is locked")
	ErrAccountNotVerified  = errors.New("account is not verified")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenInvalid        = errors.New("invalid token")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrInvalidTokenType    = errors.New("invalid token type")
	ErrOTPInvalid          = errors.New("invalid or expired verification code")
	ErrOTPAttemptsExceeded = errors.New("verification attempts exceeded")
)

// TokenRepository persists token records for revocation lookup.
type TokenRepository interface {
	CreateToken(rec *TokenRecord) error
	GetToken(tokenID string) (*TokenRecord, error)
	DeactivateToken(tokenID string) error
	DeactivateAllForPrincipal(principalID int64, kind internal.PrincipalKind) ([]TokenRecord, error)
	TouchLastUsed(tokenID string, at time.Time) error
	DeleteExpiredBefore(cutoff time.Time) (int64, error)
}

// OTPRepository persists one-time codes.
type OTPRepository interface {
	CreateChallenge(c *OTPChallenge) error
	GetActiveChallenge(principalID int64, kind internal.PrincipalKind, purpose OTPPurpose) (*OTPChallenge, error)
	InvalidateChallenges(principalID int64, kind internal.PrincipalKind, purpose OTPPurpose) error
	IncrementAttempts(challengeID int64) (int, error)
	MarkUsed(challengeID int64) error
	DeleteExpiredBefore(cutoff time.Time) (int64, error)
}

// LockRepository persists account locks.
type LockRepository interface {
	GetActiveLock(principalID int64, kind internal.PrincipalKind) (*Lock, error)
	CreateLock(l *Lock) error
	DeactivateLock(lockID int64) error
}

// RevocationCache is the shared blacklist surface. Entries are keyed by
// token ID and carry a TTL matching the token's remaining lifetime, so a
// revoked token is rejected across all instances until natural expiry.
type RevocationCache interface {
	Blacklist(ctx context.Context, key string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, key string) (bool, error)
}
