package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextAuthKey ctxKey = "authContext"

// PrincipalKind distinguishes the two account populations. It is resolved
// once at authentication time and carried explicitly, never re-derived.
type PrincipalKind string

const (
	KindPersonnel PrincipalKind = "personnel"
	KindPatient   PrincipalKind = "patient"
)

// AuthContext is the per-request authorization snapshot computed once by the
// authentication middleware and passed to handlers through the request
// context. A nil AuthContext means the request is anonymous.
type AuthContext struct {
	PrincipalID         int64
	Kind                PrincipalKind
	Email               string
	EmployeeID          string
	PatientID           string
	Permissions         []string
	Roles               []string
	CanTriggerEmergency bool
	IsVerified          bool
}

// HasPermission reports whether the snapshot carries the capability tag.
func (a *AuthContext) HasPermission(permission string) bool {
	if a == nil {
		return false
	}
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// HasRole reports whether the snapshot carries the named role.
func (a *AuthContext) HasRole(role string) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func AuthFromContext(ctx context.Context) (*AuthContext, bool) {
	if ctx == nil {
		return nil, false
	}
	a, ok := ctx.Value(ContextAuthKey).(*AuthContext)
	return a, ok && a != nil
}

func ContextWithAuth(ctx context.Context, a *AuthContext) context.Context {
	return context.WithValue(ctx, ContextAuthKey, a)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
