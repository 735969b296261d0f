package auth

import (
	"fmt"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	datamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/auth"
)

// LockPolicy owns account lock rows. Failed-attempt counters live on the
// account rows and are managed by the auth service; the policy decides when
// a counter crosses the threshold and when a timed lock has lapsed.
type LockPolicy struct {
	locks     LockRepository
	threshold int
	duration  time.Duration
	now       func() time.Time
}

func NewLockPolicy(locks LockRepository, threshold int, duration time.Duration) *LockPolicy {
	return &LockPolicy{
		locks:     locks,
		threshold: threshold,
		duration:  duration,
		now:       time.Now,
	}
}

func (p *LockPolicy) Threshold() int { return p.threshold }

// IsLocked reports whether the principal is currently locked. A timed lock
// whose unlock_at has passed is released in place and reported through the
// second return so the caller can reset its attempt counter; manual locks
// (nil unlock_at) never self-release.
func (p *LockPolicy) IsLocked(principalID int64, kind internal.PrincipalKind) (locked, released bool, err error) {
	lock, err := p.locks.GetActiveLock(principalID, kind)
	if err != nil {
		return false, false, fmt.Errorf("lookup lock: %w", err)
	}
	if lock == nil {
		return false, false, nil
	}
	if lock.UnlockAt != nil && !p.now().Before(*lock.UnlockAt) {
		if err := p.locks.DeactivateLock(lock.ID); err != nil {
			return false, false, fmt.Errorf("release lapsed lock: %w", err)
		}
		return false, true, nil
	}
	return true, false, nil
}

// RecordFailure applies a timed lock once the caller-maintained attempt
// counter reaches the threshold. Returns true if a lock was placed.
func (p *LockPolicy) RecordFailure(principalID int64, kind internal.PrincipalKind, attempts int) (bool, error) {
	if attempts < p.threshold {
		return false, nil
	}
	unlockAt := p.now().Add(p.duration)
	err := p.locks.CreateLock(&Lock{
		PrincipalID:   principalID,
		PrincipalKind: kind,
		Reason:        datamodel.LockReasonFailedAttempts,
		LockedAt:      p.now(),
		UnlockAt:      &unlockAt,
		IsActive:      true,
	})
	if err != nil {
		return false, fmt.Errorf("create lock: %w", err)
	}
	return true, nil
}

// LockManually places a lock with no automatic expiry, attributed to an
// administrator.
func (p *LockPolicy) LockManually(principalID int64, kind internal.PrincipalKind, reason string, lockedBy int64) error {
	err := p.locks.CreateLock(&Lock{
		PrincipalID:   principalID,
		PrincipalKind: kind,
		Reason:        reason,
		LockedAt:      p.now(),
		LockedBy:      &lockedBy,
		IsActive:      true,
	})
	if err != nil {
		return fmt.Errorf("create manual lock: %w", err)
	}
	return nil
}

// Unlock releases any active lock for the principal. No-op when none exists.
func (p *LockPolicy) Unlock(principalID int64, kind internal.PrincipalKind) error {
	lock, err := p.locks.GetActiveLock(principalID, kind)
	if err != nil {
		return fmt.Errorf("lookup lock: %w", err)
	}
	if lock == nil {
		return nil
	}
	if err := p.locks.DeactivateLock(lock.ID); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
