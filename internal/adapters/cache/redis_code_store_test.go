package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lumengallery/auth-service/internal/domain"
)

func newTestStore(t *testing.T) (*RedisCodeStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCodeStore(client), srv
}

func TestRedisCodeStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	code := domain.OneTimeCode{Email: "a@example.com", Code: "123456", ExpiresAt: now.Add(10 * time.Minute)}
	require.NoError(t, store.Put(ctx, "a@example.com", code, 10*time.Minute))

	got, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "123456", got.Code)
	require.True(t, got.ExpiresAt.Equal(code.ExpiresAt))
}

func TestRedisCodeStoreMissingKey(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.Get(context.Background(), "missing@example.com")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisCodeStoreLastIssuedWins(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	first := domain.OneTimeCode{Email: "a@example.com", Code: "111111", ExpiresAt: now.Add(10 * time.Minute)}
	second := domain.OneTimeCode{Email: "a@example.com", Code: "222222", ExpiresAt: now.Add(10 * time.Minute)}
	require.NoError(t, store.Put(ctx, "a@example.com", first, 10*time.Minute))
	require.NoError(t, store.Put(ctx, "a@example.com", second, 10*time.Minute))

	got, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "222222", got.Code)
}

func TestRedisCodeStoreTTLEviction(t *testing.T) {
	store, srv := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	code := domain.OneTimeCode{Email: "a@example.com", Code: "123456", ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, store.Put(ctx, "a@example.com", code, time.Minute))

	srv.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisCodeStoreDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	code := domain.OneTimeCode{Email: "a@example.com", Code: "123456", ExpiresAt: time.Now().UTC().Add(time.Minute)}
	require.NoError(t, store.Put(ctx, "a@example.com", code, time.Minute))
	require.NoError(t, store.Delete(ctx, "a@example.com"))

	got, err := store.Get(ctx, "a@example.com")
	require.NoError(t, err)
	require.Nil(t, got)
}
