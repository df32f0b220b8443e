package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/cache"
	"storefront-checkout/internal/features/payments/domain"
)

const statusKeyPrefix = "payment:"

// RedisStatusStore implements ports.StatusStore on top of the cache port.
// Entries are scoped to the session that ran the reconciliation.
type RedisStatusStore struct {
	cache cache.Cache
}

// NewRedisStatusStore creates a new RedisStatusStore.
func NewRedisStatusStore(c cache.Cache) *RedisStatusStore {
	return &RedisStatusStore{cache: c}
}

func statusKey(sessionID, orderID string) string {
	return statusKeyPrefix + sessionID + ":" + orderID
}

// Save stores the status for ttl.
func (r *RedisStatusStore) Save(ctx context.Context, sessionID string, status domain.Status, ttl time.Duration) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal payment status: %w", err)
	}
	if err := r.cache.Set(ctx, statusKey(sessionID, status.OrderID), data, ttl); err != nil {
		return fmt.Errorf("failed to save payment status: %w", err)
	}
	return nil
}

// Get loads the stored status for orderID.
func (r *RedisStatusStore) Get(ctx context.Context, sessionID, orderID string) (*domain.Status, error) {
	data, err := r.cache.Get(ctx, statusKey(sessionID, orderID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("%w: no payment status for order %s", apierror.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment status: %w", err)
	}

	var status domain.Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment status: %w", err)
	}
	return &status, nil
}
