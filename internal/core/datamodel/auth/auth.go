package auth

import "time"

// AuthToken is the persisted record backing issued JWTs, kept for revocation
// lookup until natural expiry.
type AuthToken struct {
	ID            int64      `gorm:"primaryKey"`
	PrincipalID   int64      `gorm:"column:principal_id;not null;index:idx_token_principal"`
	PrincipalKind string     `gorm:"column:principal_kind;not null;index:idx_token_principal"`
	TokenID       string     `gorm:"column:token_id;uniqueIndex;not null"`
	TokenType     string     `gorm:"column:token_type;not null"`
	IssuedAt      time.Time  `gorm:"column:issued_at;not null"`
	ExpiresAt     time.Time  `gorm:"column:expires_at;not null"`
	LastUsedAt    *time.Time `gorm:"column:last_used_at"`
	IPAddress     string     `gorm:"column:ip_address"`
	UserAgent     string     `gorm:"column:user_agent"`
	IsActive      bool       `gorm:"column:is_active;default:true"`
	CreatedAt     time.Time  `gorm:"column:created_at;default:now()"`
}

func (AuthToken) TableName() string {
	return "auth_tokens"
}

type OTPToken struct {
	ID            int64     `gorm:"primaryKey"`
	PrincipalID   int64     `gorm:"column:principal_id;not null;index:idx_otp_principal"`
	PrincipalKind string    `gorm:"column:principal_kind;not null;index:idx_otp_principal"`
	Code          string    `gorm:"column:code;not null"`
	Purpose       string    `gorm:"column:purpose;not null"`
	ExpiresAt     time.Time `gorm:"column:expires_at;not null"`
	IsUsed        bool      `gorm:"column:is_used;default:false"`
	Attempts      int       `gorm:"column:attempts;default:0"`
	IPAddress     string    `gorm:"column:ip_address"`
	CreatedAt     time.Time `gorm:"column:created_at;default:now()"`
}

func (OTPToken) TableName() string {
	return "otp_tokens"
}

// AccountLock reasons.
const (
	LockReasonFailedAttempts     = "failed_attempts"
	LockReasonSecurityBreach     = "security_breach"
	LockReasonAdminAction        = "admin_action"
	LockReasonSuspiciousActivity = "suspicious_activity"
)

type AccountLock struct {
	ID            int64      `gorm:"primaryKey"`
	PrincipalID   int64      `gorm:"column:principal_id;not null;index:idx_lock_principal"`
	PrincipalKind string     `gorm:"column:principal_kind;not null;index:idx_lock_principal"`
	Reason        string     `gorm:"column:reason;not null"`
	LockedAt      time.Time  `gorm:"column:locked_at;default:now()"`
	UnlockAt      *time.Time `gorm:"column:unlock_at"`
	LockedBy      *int64     `gorm:"column:locked_by"`
	Notes         string     `gorm:"column:notes"`
	IsActive      bool       `gorm:"column:is_active;default:true"`
}

func (AccountLock) TableName() string {
	return "account_locks"
}
