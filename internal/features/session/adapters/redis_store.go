package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/cache"
	"storefront-checkout/internal/features/session/domain"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore implements ports.SessionStore on top of the cache port.
type RedisSessionStore struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRedisSessionStore creates a store whose entries expire after ttl.
func NewRedisSessionStore(c cache.Cache, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{cache: c, ttl: ttl}
}

// Get loads a session by id.
func (r *RedisSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: no session", apierror.ErrUnauthenticated)
	}

	data, err := r.cache.Get(ctx, sessionKeyPrefix+id)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("%w: session expired or logged out", apierror.ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Save stores the session with the configured TTL.
func (r *RedisSessionStore) Save(ctx context.Context, s *domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.cache.Set(ctx, sessionKeyPrefix+s.ID, data, r.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear deletes the session.
func (r *RedisSessionStore) Clear(ctx context.Context, id string) error {
	if err := r.cache.Delete(ctx, sessionKeyPrefix+id); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
