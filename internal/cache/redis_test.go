package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisCacheFromClient(client, nil)
}

func TestRedisCache_SetGet(t *testing.T) {
	_, c := setupTestRedis(t)
	ctx := context.Background()

	c.Set(ctx, "evsum:click:0:now:all", []byte(`{"count":1}`), 30*time.Second)

	val, ok := c.Get(ctx, "evsum:click:0:now:all")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"count":1}`), val)
}

func TestRedisCache_MissOnUnknownKey(t *testing.T) {
	_, c := setupTestRedis(t)

	_, ok := c.Get(context.Background(), "uStats:nobody")
	assert.False(t, ok)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	c.Set(ctx, "uStats:u1", []byte(`{}`), 30*time.Second)

	_, ok := c.Get(ctx, "uStats:u1")
	require.True(t, ok)

	mr.FastForward(31 * time.Second)

	_, ok = c.Get(ctx, "uStats:u1")
	assert.False(t, ok, "value should expire after the TTL")
}

func TestRedisCache_DegradesWhenRedisDown(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	mr.Close()

	// Failures must surface as misses, never as errors.
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	c.Set(ctx, "k2", []byte("v2"), time.Minute)

	c.mu.Lock()
	available := c.available
	c.mu.Unlock()
	assert.False(t, available, "cache should be marked unavailable after a failure")
}

func TestRedisCache_RecoversAfterOutage(t *testing.T) {
	mr, c := setupTestRedis(t)
	ctx := context.Background()

	mr.Close()
	_, ok := c.Get(ctx, "k")
	require.False(t, ok)

	require.NoError(t, mr.Restart())

	c.Set(ctx, "k", []byte("v"), time.Minute)
	val, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	c.mu.Lock()
	available := c.available
	c.mu.Unlock()
	assert.True(t, available, "cache should recover once redis is reachable again")
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache("not-a-redis-url", nil)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
