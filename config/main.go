package config

import (
	"context"
	"time"

	"github.com/akeren/waitlist-service/config/router"
	"github.com/akeren/waitlist-service/internal/log"
	"github.com/akeren/waitlist-service/internal/models"
	"github.com/akeren/waitlist-service/pkg/constants"
	"github.com/akeren/waitlist-service/pkg/utils"
	"gorm.io/gorm"
)

const tracingShutdownTimeout = 5 * time.Second

// ApplicationConfig is everything the waitlist service holds open while it
// runs. Cleanup releases it in reverse order of acquisition.
type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	// WaitlistRateLimitRequests caps signups per client per minute.
	WaitlistRateLimitRequests int
}

// NewAppConfig reads RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, REQUEST_TIMEOUT
// and WAITLIST_RATE_LIMIT_REQUESTS. Missing or non-positive values keep the
// defaults.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		RateLimitRequests:         utils.GetEnvPositiveInt("RATE_LIMIT_REQUESTS", constants.DefaultRateLimitRequests),
		RateLimitWindow:           utils.GetEnvPositiveDuration("RATE_LIMIT_WINDOW", constants.DefaultRateLimitWindow),
		RequestTimeout:            utils.GetEnvPositiveDuration("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		WaitlistRateLimitRequests: utils.GetEnvPositiveInt("WAITLIST_RATE_LIMIT_REQUESTS", constants.DefaultWaitlistRateLimitRequests),
	}
}

func (c *AppConfig) RouterConfig() *router.RouterConfig {
	return &router.RouterConfig{
		RateLimitRequests: c.RateLimitRequests,
		RateLimitWindow:   c.RateLimitWindow,
		RequestTimeout:    c.RequestTimeout,
	}
}

func shutdownTracing(logger *log.Logger, shutdown func(context.Context) error) {
	if shutdown == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("Failed to flush traces", "error", err)
	}
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}
	if ac.Cache != nil {
		_ = CloseCache(ac.Cache, ac.Logger)
	}
	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}
	shutdownTracing(ac.Logger, ac.TracingShutdown)

	ac.Logger.Info("Application cleanup completed")
}

// LoadApplicationConfiguration loads .env, then opens tracing, Postgres and
// the optional Redis cache, and builds the router. With autoMigrate it also
// creates the schema, which only development-like APP_ENV values allow.
// On error, whatever was already opened is released.
func LoadApplicationConfiguration(ctx context.Context, logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; treating it as development for --auto-migrate")
		}
	}

	ac := &ApplicationConfig{Logger: logger, Config: NewAppConfig()}

	var err error
	if ac.TracingShutdown, err = SetupTracing(ctx, logger); err != nil {
		return nil, err
	}

	if ac.DB, err = NewDatabase(ctx, logger, NewDBConfig()); err != nil {
		ac.Cleanup()
		return nil, err
	}

	if autoMigrate {
		if err = AutoMigrate(logger, ac.DB, models.ModelRegistry...); err != nil {
			ac.Cleanup()
			return nil, err
		}
	}

	ac.Cache = NewCacheConfig().NewCacheOrNil(logger)
	ac.RouterService = router.CreateRouterService(logger, ac.Cache, ac.Config.RouterConfig())

	logger.Info("Application configuration loaded",
		"auto_migrate", autoMigrate,
		"redis", ac.Cache != nil,
		"tracing", ac.TracingShutdown != nil)

	return ac, nil
}
