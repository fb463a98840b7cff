package config

import (
	"context"
	"errors"

	"github.com/akeren/waitlist-service/internal/log"
	pkgredis "github.com/akeren/waitlist-service/pkg/redis"
	"github.com/akeren/waitlist-service/pkg/utils"
)

// Cache is the optional Redis connection. The waitlist never caches entries
// in it; it backs the rate limiters and the /health/ready check.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheNotConfigured = errors.New("cache: REDIS_HOST is not set")

type CacheConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Host:     utils.GetEnvTrimmed("REDIS_HOST"),
		Port:     utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		Password: utils.GetEnvOrDefault("REDIS_PASSWORD", ""),
		DB:       utils.GetEnvPositiveInt("REDIS_DB", 0),
	}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
		DB:       cc.DB,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Redis connected", "host", cc.Host, "port", cc.Port, "db", cc.DB)
	return cache, nil
}

// NewCacheOrNil returns nil when Redis is not configured or unreachable, and
// the service runs with in-memory rate limiting.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	cache, err := cc.NewCache(logger)
	switch {
	case errors.Is(err, ErrCacheNotConfigured):
		logger.Info("Redis not configured; rate limiting in memory")
		return nil
	case err != nil:
		logger.Error("Redis unavailable; rate limiting in memory", "error", err)
		return nil
	}
	return cache
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	logger.Info("Redis connection closed")
	return nil
}
