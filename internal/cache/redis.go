package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore keeps token blacklist entries in Redis. Entries carry a
// TTL equal to the token's remaining lifetime, so the set never accumulates
// naturally expired tokens.
type RevocationStore struct {
	client redis.UniversalClient
}

func NewRevocationStore(client redis.UniversalClient) *RevocationStore {
	return &RevocationStore{client: client}
}

// Blacklist marks a key revoked until the TTL elapses.
func (s *RevocationStore) Blacklist(ctx context.Context, key string, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// IsBlacklisted reports whether the key is currently revoked.
func (s *RevocationStore) IsBlacklisted(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	result, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return result > 0, nil
}

// Ping verifies connectivity for health checks.
func (s *RevocationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
