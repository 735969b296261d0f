package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/internal/auth"
	authDatamodel "github.com/frahmantamala/hospital-management/internal/core/datamodel/auth"
)

// TokenRepository persists issued token records.
type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) auth.TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) CreateToken(rec *auth.TokenRecord) error {
	row := authDatamodel.AuthToken{
		PrincipalID:   rec.PrincipalID,
		PrincipalKind: string(rec.PrincipalKind),
		TokenID:       rec.TokenID,
		TokenType:     string(rec.Kind),
		IssuedAt:      rec.IssuedAt,
		ExpiresAt:     rec.ExpiresAt,
		IPAddress:     rec.IPAddress,
		UserAgent:     rec.UserAgent,
		IsActive:      rec.IsActive,
	}
	return r.db.Create(&row).Error
}

func (r *TokenRepository) GetToken(tokenID string) (*auth.TokenRecord, error) {
	var row authDatamodel.AuthToken
	if err := r.db.Where("token_id = ?", tokenID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rec := toTokenRecord(row)
	return &rec, nil
}

func (r *TokenRepository) DeactivateToken(tokenID string) error {
	return r.db.Model(&authDatamodel.AuthToken{}).
		Where("token_id = ?", tokenID).
		Update("is_active", false).Error
}

func (r *TokenRepository) DeactivateAllForPrincipal(principalID int64, kind internal.PrincipalKind) ([]auth.TokenRecord, error) {
	var rows []authDatamodel.AuthToken
	err := r.db.Where("principal_id = ? AND principal_kind = ? AND is_active = ?",
		principalID, string(kind), true).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&authDatamodel.AuthToken{}).
		Where("principal_id = ? AND principal_kind = ? AND is_active = ?",
			principalID, string(kind), true).
		Update("is_active", false).Error
	if err != nil {
		return nil, err
	}

	records := make([]auth.TokenRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, toTokenRecord(row))
	}
	return records, nil
}

func (r *TokenRepository) TouchLastUsed(tokenID string, at time.Time) error {
	return r.db.Model(&authDatamodel.AuthToken{}).
		Where("token_id = ?", tokenID).
		Update("last_used_at", at).Error
}

func (r *TokenRepository) DeleteExpiredBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", cutoff).Delete(&authDatamodel.AuthToken{})
	return result.RowsAffected, result.Error
}

func toTokenRecord(row authDatamodel.AuthToken) auth.TokenRecord {
	return auth.TokenRecord{
		TokenID:       row.TokenID,
		PrincipalID:   row.PrincipalID,
		PrincipalKind: internal.PrincipalKind(row.PrincipalKind),
		Kind:          auth.TokenKind(row.TokenType),
		IssuedAt:      row.IssuedAt,
		ExpiresAt:     row.ExpiresAt,
		LastUsedAt:    row.LastUsedAt,
		IPAddress:     row.IPAddress,
		UserAgent:     row.UserAgent,
		IsActive:      row.IsActive,
	}
}

// OTPRepository persists one-time codes.
type OTPRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) auth.OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) CreateChallenge(c *auth.OTPChallenge) error {
	row := authDatamodel.OTPToken{
		PrincipalID:   c.PrincipalID,
		PrincipalKind: string(c.PrincipalKind),
		Code:          c.Code,
		Purpose:       string(c.Purpose),
		ExpiresAt:     c.ExpiresAt,
		Attempts:      c.Attempts,
		IPAddress:     c.IPAddress,
		CreatedAt:     c.CreatedAt,
	}
	if err := r.db.Create(&row).Error; err != nil {
		return err
	}
	c.ID = row.ID
	return nil
}

func (r *OTPRepository) GetActiveChallenge(principalID int64, kind internal.PrincipalKind, purpose auth.OTPPurpose) (*auth.OTPChallenge, error) {
	var row authDatamodel.OTPToken
	err := r.db.Where("principal_id = ? AND principal_kind = ? AND purpose = ? AND is_used = ?",
		principalID, string(kind), string(purpose), false).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	challenge := toChallenge(row)
	return &challenge, nil
}

func (r *OTPRepository) InvalidateChallenges(principalID int64, kind internal.PrincipalKind, purpose auth.OTPPurpose) error {
	return r.db.Model(&authDatamodel.OTPToken{}).
		Where("principal_id = ? AND principal_kind = ? AND purpose = ? AND is_used = ?",
			principalID, string(kind), string(purpose), false).
		Update("is_used", true).Error
}

func (r *OTPRepository) IncrementAttempts(challengeID int64) (int, error) {
	err := r.db.Model(&authDatamodel.OTPToken{}).
		Where("id = ?", challengeID).
		Update("attempts", gorm.Expr("attempts + 1")).Error
	if err != nil {
		return 0, err
	}
	var row authDatamodel.OTPToken
	if err := r.db.Where("id = ?", challengeID).First(&row).Error; err != nil {
		return 0, err
	}
	return row.Attempts, nil
}

func (r *OTPRepository) MarkUsed(challengeID int64) error {
	return r.db.Model(&authDatamodel.OTPToken{}).
		Where("id = ?", challengeID).
		Update("is_used", true).Error
}

func (r *OTPRepository) DeleteExpiredBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", cutoff).Delete(&authDatamodel.OTPToken{})
	return result.RowsAffected, result.Error
}

func toChallenge(row authDatamodel.OTPToken) auth.OTPChallenge {
	return auth.OTPChallenge{
		ID:            row.ID,
		PrincipalID:   row.PrincipalID,
		PrincipalKind: internal.PrincipalKind(row.PrincipalKind),
		Code:          row.Code,
		Purpose:       auth.OTPPurpose(row.Purpose),
		ExpiresAt:     row.ExpiresAt,
		IsUsed:        row.IsUsed,
		Attempts:      row.Attempts,
		IPAddress:     row.IPAddress,
		CreatedAt:     row.CreatedAt,
	}
}

// LockRepository persists account locks. Creating a lock supersedes any
// active lock the principal already has.
type LockRepository struct {
	db *gorm.DB
}

func NewLockRepository(db *gorm.DB) auth.LockRepository {
	return &LockRepository{db: db}
}

func (r *LockRepository) GetActiveLock(principalID int64, kind internal.PrincipalKind) (*auth.Lock, error) {
	var row authDatamodel.AccountLock
	err := r.db.Where("principal_id = ? AND principal_kind = ? AND is_active = ?",
		principalID, string(kind), true).
		Order("locked_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	lock := toLock(row)
	return &lock, nil
}

func (r *LockRepository) CreateLock(l *auth.Lock) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&authDatamodel.AccountLock{}).
			Where("principal_id = ? AND principal_kind = ? AND is_active = ?",
				l.PrincipalID, string(l.PrincipalKind), true).
			Update("is_active", false).Error
		if err != nil {
			return err
		}

		row := authDatamodel.AccountLock{
			PrincipalID:   l.PrincipalID,
			PrincipalKind: string(l.PrincipalKind),
			Reason:        l.Reason,
			LockedAt:      l.LockedAt,
			UnlockAt:      l.UnlockAt,
			LockedBy:      l.LockedBy,
			IsActive:      true,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		l.ID = row.ID
		return nil
	})
}

func (r *LockRepository) DeactivateLock(lockID int64) error {
	return r.db.Model(&authDatamodel.AccountLock{}).
		Where("id = ?", lockID).
		Update("is_active", false).Error
}

func toLock(row authDatamodel.AccountLock) auth.Lock {
	return auth.Lock{
		ID:            row.ID,
		PrincipalID:   row.PrincipalID,
		PrincipalKind: internal.PrincipalKind(row.PrincipalKind),
		Reason:        row.Reason,
		LockedAt:      row.LockedAt,
		UnlockAt:      row.UnlockAt,
		LockedBy:      row.LockedBy,
		IsActive:      row.IsActive,
	}
}
