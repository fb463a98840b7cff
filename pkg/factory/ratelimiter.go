package factory

import (
	"time"

	"github.com/akeren/waitlist-service/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

// RateLimiterFactory builds limiters that share one backend: Redis when a
// client is available, in-memory otherwise.
type RateLimiterFactory interface {
	CreateRateLimiter(name string, requests int, window time.Duration) ratelimit.RateLimiter
}

type DefaultRateLimiterFactory struct {
	redis  *redis.Client
	logger ratelimit.Logger
}

func NewDefaultRateLimiterFactory(client *redis.Client, logger ratelimit.Logger) *DefaultRateLimiterFactory {
	return &DefaultRateLimiterFactory{
		redis:  client,
		logger: logger,
	}
}

// CreateRateLimiter returns a limiter whose Redis keys are namespaced by name.
func (f *DefaultRateLimiterFactory) CreateRateLimiter(name string, requests int, window time.Duration) ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests:  requests,
		Window:    window,
		Redis:     f.redis,
		Logger:    f.logger,
		KeyPrefix: "ratelimit:" + name + ":",
	})
}

func (f *DefaultRateLimiterFactory) UsesRedis() bool {
	return f.redis != nil
}
