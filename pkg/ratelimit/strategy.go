package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type Logger interface {
	Error(msg string, args ...interface{})
}

// RateLimiter decides whether the caller identified by key is over its budget.
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	IsLimited(ctx context.Context, key string) (bool, error)
	Close() error
}

// RateLimitConfig selects and configures a limiter.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Redis    *redis.Client // nil selects the in-memory limiter
	Logger   Logger
	// KeyPrefix namespaces Redis keys so limiters sharing a client do not
	// share a window. Defaults to "ratelimit:".
	KeyPrefix string
}

// NewRateLimiter returns a Redis sliding window limiter when a client is
// configured and an in-memory token bucket otherwise.
func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		limiter := NewRedisRateLimiter(config.Redis, config.Requests, config.Window, config.Logger)
		if config.KeyPrefix != "" {
			limiter.keyPrefix = config.KeyPrefix
		}
		return limiter
	}
	return NewInMemoryRateLimiter(config.Requests, config.Window)
}

// InMemoryRateLimiter keeps one token bucket per key. Only suitable for a
// single instance.
type InMemoryRateLimiter struct {
	requests int
	window   time.Duration

	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	ops      uint64
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewInMemoryRateLimiter(requests int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		requests: requests,
		window:   window,
		limiters: make(map[string]*keyedLimiter),
	}
}

func (r *InMemoryRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *InMemoryRateLimiter) IsLimited(_ context.Context, key string) (bool, error) {
	if key == "" {
		key = "__empty__"
	}

	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.limiters[key]
	if !ok {
		rps := float64(r.requests) / r.window.Seconds()
		k = &keyedLimiter{
			limiter:  rate.NewLimiter(rate.Limit(rps), r.requests),
			lastSeen: now,
		}
		r.limiters[key] = k
	} else {
		k.lastSeen = now
	}

	// Sweep idle keys every 1024 calls so the map cannot grow without bound.
	r.ops++
	if r.ops%1024 == 0 {
		r.sweep(now.Add(-2 * r.window))
	}

	return !k.limiter.AllowN(now, 1), nil
}

func (r *InMemoryRateLimiter) sweep(cutoff time.Time) {
	for key, entry := range r.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(r.limiters, key)
		}
	}
}

func (r *InMemoryRateLimiter) Close() error {
	return nil
}

// slidingWindowScript trims the window, counts it and records the current
// request atomically. Scores are Unix milliseconds. Returns 1 when the caller
// is limited.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local nowMs = tonumber(ARGV[1])
	local windowMs = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', nowMs - windowMs)
	if redis.call('ZCARD', key) >= limit then
		return 1
	end

	redis.call('ZADD', key, nowMs, member)
	redis.call('PEXPIRE', key, windowMs)
	return 0
`)

const defaultRedisKeyPrefix = "ratelimit:"

// RedisRateLimiter shares a sliding window across every instance talking to
// the same Redis.
type RedisRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
}

func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration, logger Logger) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		requests:  requests,
		window:    window,
		keyPrefix: defaultRedisKeyPrefix,
		logger:    logger,
	}
}

func (r *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *RedisRateLimiter) redisKey(key string) string {
	if strings.HasPrefix(key, r.keyPrefix) {
		return key
	}
	return r.keyPrefix + key
}

// IsLimited returns an error when Redis cannot be reached. The caller decides
// whether to fail open.
func (r *RedisRateLimiter) IsLimited(ctx context.Context, key string) (bool, error) {
	redisKey := r.redisKey(key)

	limited, err := slidingWindowScript.Run(ctx, r.client, []string{redisKey},
		time.Now().UnixMilli(),
		r.window.Milliseconds(),
		r.requests,
		uuid.NewString(),
	).Int64()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit script failed", "key", redisKey, "error", err)
		}
		return false, fmt.Errorf("ratelimit: redis: %w", err)
	}

	return limited == 1, nil
}

// Close is a no-op: the Redis client belongs to the application cache.
func (r *RedisRateLimiter) Close() error {
	return nil
}
