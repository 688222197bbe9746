package redisstore_test

import (
	"context"
	"testing"
	"time"

	redisstore "fxledger/internal/infrastructure/redis"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstore.New(client, ttl), mr
}

func TestTryReserve(t *testing.T) {
	store, mr := newStore(t, time.Hour)
	ctx := context.Background()

	ok, err := store.TryReserve(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, mr.Exists("fxledger:idem:k1"))

	ok, err = store.TryReserve(ctx, "k1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRelease(t *testing.T) {
	store, _ := newStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.TryReserve(ctx, "k2")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k2"))

	ok, err := store.TryReserve(ctx, "k2")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReservationExpires(t *testing.T) {
	store, mr := newStore(t, time.Minute)
	ctx := context.Background()

	_, err := store.TryReserve(ctx, "k3")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	ok, err := store.TryReserve(ctx, "k3")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.Ping(ctx))
}
