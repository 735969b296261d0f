package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// PrincipalInfo is the identity and snapshot material frozen into claims at
// issuance time.
type PrincipalInfo struct {
	ID                  int64
	Kind                internal.PrincipalKind
	Email               string
	EmployeeID          string
	PatientID           string
	Permissions         []string
	Roles               []string
	CanTriggerEmergency bool
	IsVerified          bool
}

// TokenIssueMeta is optional request metadata persisted alongside a token.
type TokenIssueMeta struct {
	IPAddress string
	UserAgent string
}

// JWTGenerator signs and parses HS256 tokens with separate secrets per kind.
type JWTGenerator struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessDuration  time.Duration
	refreshDuration time.Duration
}

func NewJWTGenerator(accessSecret, refreshSecret string, accessDuration, refreshDuration time.Duration) *JWTGenerator {
	return &JWTGenerator{
		accessSecret:    []byte(accessSecret),
		refreshSecret:   []byte(refreshSecret),
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
	}
}

func (g *JWTGenerator) secretFor(kind TokenKind) []byte {
	if kind == TokenKindRefresh {
		return g.refreshSecret
	}
	return g.accessSecret
}

func (g *JWTGenerator) durationFor(kind TokenKind) time.Duration {
	if kind == TokenKindRefresh {
		return g.refreshDuration
	}
	return g.accessDuration
}

// Sign builds and signs a token of the given kind. Refresh tokens carry the
// full snapshot too so a refresh can fall back to stale permissions only
// when the resolver is unavailable.
func (g *JWTGenerator) Sign(info PrincipalInfo, kind TokenKind, now time.Time) (string, *Claims, error) {
	claims := &Claims{
		UserID:              strconv.FormatInt(info.ID, 10),
		Email:               info.Email,
		UserType:            string(info.Kind),
		Permissions:         info.Permissions,
		Roles:               info.Roles,
		CanTriggerEmergency: info.CanTriggerEmergency,
		EmployeeID:          info.EmployeeID,
		PatientID:           info.PatientID,
		IsVerified:          info.IsVerified,
		TokenType:           string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(info.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.durationFor(kind))),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secretFor(kind))
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, claims, nil
}

// Parse verifies signature and expiry for the expected kind. An otherwise
// valid token of the wrong kind fails with ErrInvalidTokenType.
func (g *JWTGenerator) Parse(tokenString string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.secretFor(kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != string(kind) {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

// blacklistKey derives the revocation key for a single token. Keyed by JTI
// so revoking one token never shadows a pair issued in the same second.
func blacklistKey(tokenID string) string {
	return fmt.Sprintf("blacklist:token:%s", tokenID)
}

// TokenService issues, validates, refreshes and revokes session tokens.
// Revocation is write-through: the durable record is flipped inactive and
// the cache entry keeps rejections fast until natural expiry.
type TokenService struct {
	generator *JWTGenerator
	tokens    TokenRepository
	cache     RevocationCache
	now       func() time.Time
}

func NewTokenService(generator *JWTGenerator, tokens TokenRepository, cache RevocationCache) *TokenService {
	return &TokenService{
		generator: generator,
		tokens:    tokens,
		cache:     cache,
		now:       time.Now,
	}
}

// IssuePair signs an access and refresh token for the principal and records
// both for revocation lookup.
func (s *TokenService) IssuePair(ctx context.Context, info PrincipalInfo, meta TokenIssueMeta) (*AuthTokens, error) {
	now := s.now()

	access, accessClaims, err := s.generator.Sign(info, TokenKindAccess, now)
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := s.generator.Sign(info, TokenKindRefresh, now)
	if err != nil {
		return nil, err
	}

	for _, rec := range []struct {
		claims *Claims
		kind   TokenKind
	}{
		{accessClaims, TokenKindAccess},
		{refreshClaims, TokenKindRefresh},
	} {
		if err := s.tokens.CreateToken(&TokenRecord{
			TokenID:       rec.claims.ID,
			PrincipalID:   info.ID,
			PrincipalKind: info.Kind,
			Kind:          rec.kind,
			IssuedAt:      rec.claims.IssuedAt.Time,
			ExpiresAt:     rec.claims.ExpiresAt.Time,
			IPAddress:     meta.IPAddress,
			UserAgent:     meta.UserAgent,
			IsActive:      true,
		}); err != nil {
			return nil, fmt.Errorf("persist %s token: %w", rec.kind, err)
		}
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessClaims.ExpiresAt.Time.Sub(now).Seconds()),
	}, nil
}

// Validate checks signature, expiry, kind, blacklist, and the durable
// record. A token whose record is missing or inactive is treated as revoked.
func (s *TokenService) Validate(ctx context.Context, tokenString string, kind TokenKind) (*Claims, error) {
	claims, err := s.generator.Parse(tokenString, kind)
	if err != nil {
		return nil, err
	}

	blacklisted, err := s.cache.IsBlacklisted(ctx, blacklistKey(claims.ID))
	if err != nil {
		logger.LoggerWrapper().Warn("blacklist lookup failed, falling through to store",
			"token_id", claims.ID, "error", err)
	} else if blacklisted {
		return nil, ErrTokenRevoked
	}

	rec, err := s.tokens.GetToken(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup token record: %w", err)
	}
	if rec == nil || !rec.IsActive {
		return nil, ErrTokenRevoked
	}

	go func(tokenID string, at time.Time) {
		if err := s.tokens.TouchLastUsed(tokenID, at); err != nil {
			logger.LoggerWrapper().Debug("touch last_used failed", "token_id", tokenID, "error", err)
		}
	}(claims.ID, s.now())

	return claims, nil
}

// Revoke deactivates a single token and blacklists it until natural expiry.
// Revoking an already revoked or expired token is a no-op.
func (s *TokenService) Revoke(ctx context.Context, tokenString string, kind TokenKind) error {
	claims, err := s.generator.Parse(tokenString, kind)
	if err != nil {
		if err == ErrTokenExpired {
			return nil
		}
		return err
	}

	if err := s.tokens.DeactivateToken(claims.ID); err != nil {
		return fmt.Errorf("deactivate token: %w", err)
	}

	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Blacklist(ctx, blacklistKey(claims.ID), ttl); err != nil {
		logger.LoggerWrapper().Warn("blacklist write failed, store record already inactive",
			"token_id", claims.ID, "error", err)
	}
	return nil
}

// RevokeAllForPrincipal deactivates every active token the principal holds
// and blacklists each until its natural expiry.
func (s *TokenService) RevokeAllForPrincipal(ctx context.Context, principalID int64, kind internal.PrincipalKind) error {
	records, err := s.tokens.DeactivateAllForPrincipal(principalID, kind)
	if err != nil {
		return fmt.Errorf("deactivate tokens: %w", err)
	}
	now := s.now()
	for _, rec := range records {
		ttl := rec.ExpiresAt.Sub(now)
		if ttl <= 0 {
			continue
		}
		if err := s.cache.Blacklist(ctx, blacklistKey(rec.TokenID), ttl); err != nil {
			logger.LoggerWrapper().Warn("blacklist write failed during revoke-all",
				"token_id", rec.TokenID, "error", err)
		}
	}
	return nil
}

// CleanupExpired removes durable records whose tokens have passed natural
// expiry. Blacklist entries expire on their own TTLs.
func (s *TokenService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpiredBefore(s.now())
}
