package ratelimit

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAllowsBurstThenBlocks(t *testing.T) {
	limiter := NewMemory(1, 3, time.Minute)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i)
	}
	allowed, _ := limiter.Allow(ctx, "10.0.0.1")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow(ctx, "10.0.0.2")
	assert.True(t, allowed, "keys are limited independently")

	fixed = fixed.Add(2 * time.Second)
	allowed, _ = limiter.Allow(ctx, "10.0.0.1")
	assert.True(t, allowed, "tokens refill over time")
}

func TestMemoryPrunesIdleVisitors(t *testing.T) {
	limiter := NewMemory(10, 10, time.Minute)
	limiter.maxEntries = 2
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		_, err := limiter.Allow(ctx, key)
		require.NoError(t, err)
	}
	require.Equal(t, 3, limiter.size())

	now = now.Add(2 * time.Minute)
	_, err := limiter.Allow(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.size())
}

func TestNewMemoryDefaults(t *testing.T) {
	limiter := NewMemory(0, 0, 0)
	assert.Equal(t, 1, limiter.burst)
	assert.Equal(t, time.Minute, limiter.ttl)
}

func TestRedisFixedWindow(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	limiter := NewRedis(client, RedisConfig{
		Prefix: fmt.Sprintf("test-%d", time.Now().UnixNano()),
		Limit:  2,
		Window: time.Minute,
	})
	fixed := time.Now()
	limiter.now = func() time.Time { return fixed }

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	limiter.now = func() time.Time { return fixed.Add(time.Minute) }
	allowed, err = limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisReportsBackendErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer client.Close()

	limiter := NewRedis(client, RedisConfig{Limit: 1})
	_, err := limiter.Allow(context.Background(), "k")
	assert.Error(t, err)
}
