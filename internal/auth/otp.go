package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
)

// OTPService issues and verifies single-use numeric codes. Issuing a new
// code invalidates any unused code of the same purpose, so exactly one
// challenge is live per (principal, purpose) at a time.
type OTPService struct {
	repo        OTPRepository
	expiry      time.Duration
	resetExpiry time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewOTPService(repo OTPRepository, expiry, resetExpiry time.Duration, maxAttempts int) *OTPService {
	return &OTPService{
		repo:        repo,
		expiry:      expiry,
		resetExpiry: resetExpiry,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// generateCode draws a uniform 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *OTPService) expiryFor(purpose OTPPurpose) time.Duration {
	if purpose == OTPPurposePasswordReset {
		return s.resetExpiry
	}
	return s.expiry
}

// Create invalidates prior unused challenges of the same purpose and issues
// a fresh code.
func (s *OTPService) Create(principalID int64, kind internal.PrincipalKind, purpose OTPPurpose, ipAddress string) (*OTPChallenge, error) {
	if err := s.repo.InvalidateChallenges(principalID, kind, purpose); err != nil {
		return nil, fmt.Errorf("invalidate prior challenges: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	challenge := &OTPChallenge{
		PrincipalID:   principalID,
		PrincipalKind: kind,
		Code:          code,
		Purpose:       purpose,
		ExpiresAt:     s.now().Add(s.expiryFor(purpose)),
		IPAddress:     ipAddress,
		CreatedAt:     s.now(),
	}
	if err := s.repo.CreateChallenge(challenge); err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	return challenge, nil
}

// Verify consumes the live challenge if the code matches. The attempt
// counter is charged before the comparison, so wrong guesses burn attempts
// and the cap rejects further tries even with the correct code.
func (s *OTPService) Verify(principalID int64, kind internal.PrincipalKind, purpose OTPPurpose, code string) error {
	challenge, err := s.repo.GetActiveChallenge(principalID, kind, purpose)
	if err != nil {
		return fmt.Errorf("lookup challenge: %w", err)
	}
	if challenge == nil || challenge.IsUsed || s.now().After(challenge.ExpiresAt) {
		return ErrOTPInvalid
	}
	if challenge.Attempts >= s.maxAttempts {
		return ErrOTPAttemptsExceeded
	}

	attempts, err := s.repo.IncrementAttempts(challenge.ID)
	if err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}
	if attempts > s.maxAttempts {
		return ErrOTPAttemptsExceeded
	}

	if challenge.Code != code {
		return ErrOTPInvalid
	}

	if err := s.repo.MarkUsed(challenge.ID); err != nil {
		return fmt.Errorf("mark challenge used: %w", err)
	}
	return nil
}

// CleanupExpired removes challenges past expiry.
func (s *OTPService) CleanupExpired() (int64, error) {
	return s.repo.DeleteExpiredBefore(s.now())
}
