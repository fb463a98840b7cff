package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akeren/waitlist-service/internal/log"
	"github.com/akeren/waitlist-service/pkg/ratelimit"
	"github.com/akeren/waitlist-service/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// DefaultTimeoutDuration applies when RouterConfig.RequestTimeout is unset.
const DefaultTimeoutDuration = 30 * time.Second

const defaultPort = "8080"

type MiddlewareConfig struct {
	TimeoutDuration time.Duration
}

type Cache interface {
	Ping(ctx context.Context) error
}

// RedisClientProvider is implemented by caches backed by go-redis. The router
// shares that client with its rate limiters.
type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RouterService struct {
	engine           *gin.Engine
	server           *http.Server
	logger           *log.Logger
	options          httpOptions
	rateLimiter      ratelimit.RateLimiter
	limits           RouterConfig
	redisClient      *redis.Client
	middlewareConfig *MiddlewareConfig
	metricsRegistry  *prometheus.Registry

	// Keyed by "METHOD /path" as gin reports it through FullPath.
	handlerToControllerMap map[string]*RESTController
	rateLimitOverrides     map[string]ratelimit.RateLimiter
}

type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	if mode := utils.GetEnvTrimmed("GIN_MODE"); mode != "" {
		logger.Info("Setting Gin mode", "mode", mode)
		gin.SetMode(mode)
	}

	limits := *routerConfig
	if limits.RequestTimeout <= 0 {
		limits.RequestTimeout = DefaultTimeoutDuration
	}

	options := loadHTTPOptions()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true

	if utils.IsTracingEnabled() {
		engine.Use(otelgin.Middleware(utils.OTelServiceName()))
		logger.Info("Tracing middleware enabled")
	}

	// Without TRUSTED_PROXIES, ClientIP is the socket address and
	// X-Forwarded-For cannot be used to dodge the rate limiter.
	if err := engine.SetTrustedProxies(options.trustedProxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; trusting no proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
	} else if options.trustedProxies == nil {
		logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	}

	rs := &RouterService{
		engine:           engine,
		logger:           logger,
		options:          options,
		limits:           limits,
		redisClient:      redisClientOf(cache),
		middlewareConfig: &MiddlewareConfig{TimeoutDuration: limits.RequestTimeout},

		handlerToControllerMap: make(map[string]*RESTController),
		rateLimitOverrides:     make(map[string]ratelimit.RateLimiter),
	}

	rs.initRateLimiting()
	rs.mountMetrics()

	engine.Use(
		rs.securityHeadersMiddleware(),
		rs.maxBodySizeMiddleware(),
		rs.corsMiddleware(),
		rs.rateLimitMiddleware(),
		rs.timeoutMiddleware(),
		rs.requestContextMiddleware(),
		rs.requestLoggingMiddleware(),
	)

	engine.NoRoute(func(c *gin.Context) {
		GetLogger(c).Warn("Route not found", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(http.StatusNotFound, NotFoundResult("Route not found").ToJSON())
	})
	engine.NoMethod(func(c *gin.Context) {
		GetLogger(c).Warn("Method not allowed", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(http.StatusMethodNotAllowed, ErrorResult(http.StatusMethodNotAllowed, "Method not allowed", nil).ToJSON())
	})

	// Handlers run on the server goroutine; Read/WriteTimeout bound them.
	rs.server = &http.Server{
		Addr:              ":" + options.port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       limits.RequestTimeout,
		WriteTimeout:      limits.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized", "addr", rs.server.Addr)
	return rs
}

func redisClientOf(cache Cache) *redis.Client {
	if provider, ok := cache.(RedisClientProvider); ok {
		return provider.GetClient()
	}
	return nil
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

// MetricsRegisterer lets controllers publish their own collectors on /metrics.
// It returns nil when metrics are disabled.
func (routerService *RouterService) MetricsRegisterer() prometheus.Registerer {
	if routerService.metricsRegistry == nil {
		return nil
	}
	return routerService.metricsRegistry
}

// RedisClient is the shared Redis client, or nil when running without Redis.
func (routerService *RouterService) RedisClient() *redis.Client {
	return routerService.redisClient
}

func (routerService *RouterService) MountController(controller *RESTController) {
	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"path", controller.mountPoint,
		"handlers", controller.handlerCount,
	)
}

// RunHTTPServer blocks until the listener fails or Shutdown is called. The
// latter returns nil.
func (routerService *RouterService) RunHTTPServer() error {
	routerService.logger.Info("Starting HTTP server", "addr", routerService.server.Addr)

	err := routerService.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http server: %w", err)
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server")
	return routerService.server.Shutdown(ctx)
}

func (routerService *RouterService) Cleanup() {
	if routerService.rateLimiter != nil {
		if err := routerService.rateLimiter.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "error", err)
		}
	}
	routerService.logger.Info("Router service cleanup completed")
}
