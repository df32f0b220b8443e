package adapters

import (
	"context"
	"testing"
	"time"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/cache"
	"storefront-checkout/internal/features/session/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewRedisAdapter("redis://"+mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return NewRedisSessionStore(c, time.Hour), mr
}

func TestRedisSessionStore_SaveGetClear(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	s := domain.NewSession("tok-1")
	s.Role = "admin"
	require.NoError(t, store.Save(ctx, s))
	assert.Equal(t, time.Hour, mr.TTL("session:"+s.ID))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.Token)
	assert.True(t, got.IsAdmin())

	require.NoError(t, store.Clear(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, apierror.ErrUnauthenticated)
}

func TestRedisSessionStore_Expired(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	s := domain.NewSession("tok")
	require.NoError(t, store.Save(ctx, s))
	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, apierror.ErrUnauthenticated)
}

func TestRedisSessionStore_EmptyID(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Get(context.Background(), "")
	assert.ErrorIs(t, err, apierror.ErrUnauthenticated)
}

func TestRedisSessionStore_Corrupt(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, mr.Set("session:bad", "{oops"))

	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apierror.ErrUnauthenticated)
	assert.Contains(t, err.Error(), "failed to unmarshal session")
}
