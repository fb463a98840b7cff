package monitoring

import (
	"context"
	"time"

	"github.com/akeren/waitlist-service/config/router"
	"github.com/akeren/waitlist-service/internal/log"
	"github.com/akeren/waitlist-service/pkg/ratelimit"
	"gorm.io/gorm"
)

const (
	monitoringRequestsPerMinute = 10
	healthCheckTimeout          = 2 * time.Second
)

type Cache interface {
	Ping(ctx context.Context) error
}

// HealthStatus reports 1 for a healthy dependency and 0 otherwise.
type HealthStatus struct {
	Database int
	Cache    int // 0 also when no cache is configured
	Uptime   int // seconds
}

func (h HealthStatus) payload() router.Payload {
	return router.Payload{
		"database": h.Database,
		"cache":    h.Cache,
		"uptime":   h.Uptime,
	}
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	startTime time.Time
}

func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Cache) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			monitoringRateLimiter := ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
				Requests: monitoringRequestsPerMinute,
				Window:   time.Minute,
			})

			routerService.AddGetHandler(controller, monitoringRateLimiter, "", ctrl.liveness)
			routerService.AddGetHandler(controller, monitoringRateLimiter, "health", ctrl.healthCheck)
		},
	)
}

func (ctrl *MonitoringController) liveness(c *router.RequestContext) *router.ServiceResult {
	return router.OKResult(router.Payload{"status": "ok"}, "Waitlist service is running")
}

func (ctrl *MonitoringController) healthCheck(c *router.RequestContext) *router.ServiceResult {
	logger := router.GetLogger(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := ctrl.performHealthChecks(ctx, logger)

	return router.OKResult(status.payload(), "Health check completed")
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Uptime: int(time.Since(ctrl.startTime).Seconds()),
	}

	if ctrl.checkDatabase(ctx) {
		status.Database = 1
	} else {
		logger.Error("Database health check failed")
	}

	switch {
	case ctrl.cache == nil:
		logger.Debug("Cache not configured, cache health check skipped")
	case ctrl.cache.Ping(ctx) == nil:
		status.Cache = 1
	default:
		logger.Error("Cache health check failed")
	}

	return status
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context) bool {
	if ctrl.db == nil {
		return false
	}

	sqlDB, err := ctrl.db.DB()
	if err != nil {
		return false
	}

	return sqlDB.PingContext(ctx) == nil
}
