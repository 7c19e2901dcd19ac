package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	interfaces "github.com/sheikh-saqib/account-ledger/internal/interfaces"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_ReserveSaveGet(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	reserved, err := store.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, err)
	require.True(t, reserved)
	assert.True(t, mr.Exists(keyPrefix+"k1"))

	reserved, err = store.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, reserved, "second reservation must lose")

	marker, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, marker.InFlight())

	final := interfaces.CachedResponse{Status: 201, Body: []byte(`{"outcome":"COMPLETED"}`)}
	require.NoError(t, store.Save(ctx, "k1", final, time.Hour))

	got, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, got.InFlight())
	assert.Equal(t, final, got)
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"k1"))

	reserved, err = store.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, reserved, "a stored response keeps the key taken")
}

func TestRedisStore_ConcurrentReserveHasOneWinner(t *testing.T) {
	store, _ := newTestStore(t)

	const callers = 16
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Reserve(context.Background(), "same", time.Minute)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestRedisStore_Release(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	reserved, err := store.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, err)
	require.True(t, reserved)

	require.NoError(t, store.Release(ctx, "k1"))
	assert.False(t, mr.Exists(keyPrefix+"k1"))

	reserved, err = store.Reserve(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestRedisStore_Expiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k1", interfaces.CachedResponse{Status: 201}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_CorruptEntry(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set(keyPrefix+"bad", "not-json"))

	_, ok, err := store.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()

	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client)

	_, _, err := store.Get(context.Background(), "k1")
	assert.Error(t, err)
	assert.Error(t, store.Save(context.Background(), "k1", interfaces.CachedResponse{Status: 201}, time.Minute))
	_, err = store.Reserve(context.Background(), "k1", time.Minute)
	assert.Error(t, err)
}
