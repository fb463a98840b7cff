package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRateLimiter_IsLimited_IsPerKey(t *testing.T) {
	ctx := context.Background()
	limiter := NewInMemoryRateLimiter(1, time.Second)

	limited, err := limiter.IsLimited(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, limited, "first request for client-a should not be limited")

	limited, err = limiter.IsLimited(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, limited, "second immediate request for client-a should be limited")

	limited, err = limiter.IsLimited(ctx, "client-b")
	require.NoError(t, err)
	assert.False(t, limited, "client-b has its own bucket")
}

func TestInMemoryRateLimiter_EmptyKeySharesBucket(t *testing.T) {
	ctx := context.Background()
	limiter := NewInMemoryRateLimiter(1, time.Minute)

	limited, err := limiter.IsLimited(ctx, "")
	require.NoError(t, err)
	assert.False(t, limited)

	limited, err = limiter.IsLimited(ctx, "__empty__")
	require.NoError(t, err)
	assert.True(t, limited)
}

func TestInMemoryRateLimiter_SweepDropsIdleKeys(t *testing.T) {
	limiter := NewInMemoryRateLimiter(5, time.Second)

	_, err := limiter.IsLimited(context.Background(), "idle")
	require.NoError(t, err)

	limiter.sweep(time.Now().Add(time.Minute))

	assert.Empty(t, limiter.limiters)
}

func TestNewRateLimiter_SelectsInMemoryWithoutRedis(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{Requests: 30, Window: time.Minute})

	_, ok := limiter.(*InMemoryRateLimiter)
	assert.True(t, ok)

	requests, window := limiter.GetLimitDetails()
	assert.Equal(t, 30, requests)
	assert.Equal(t, time.Minute, window)
	assert.NoError(t, limiter.Close())
}

func TestRedisRateLimiter_KeysAreNamespaced(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRateLimiter(&RateLimitConfig{
		Requests:  2,
		Window:    time.Minute,
		Redis:     client,
		KeyPrefix: "ratelimit:waitlist:",
	}).(*RedisRateLimiter)

	assert.Equal(t, "ratelimit:waitlist:10.0.0.7", limiter.redisKey("10.0.0.7"))
	assert.Equal(t, "ratelimit:waitlist:10.0.0.7", limiter.redisKey("ratelimit:waitlist:10.0.0.7"))
	assert.Equal(t, "ratelimit:10.0.0.7", NewRedisRateLimiter(client, 2, time.Minute, nil).redisKey("10.0.0.7"))
}

func TestRedisRateLimiter_UnreachableRedisIsAnError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	limited, err := NewRedisRateLimiter(client, 2, time.Minute, nil).IsLimited(context.Background(), "10.0.0.7")

	assert.Error(t, err)
	assert.False(t, limited)
}
