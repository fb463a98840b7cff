package router

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/akeren/waitlist-service/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

// initRateLimiting builds the service-wide limiter. A Redis client that does
// not answer PING is dropped so every limiter falls back to memory.
func (routerService *RouterService) initRateLimiting() {
	if routerService.redisClient != nil {
		if err := routerService.redisClient.Ping(context.Background()).Err(); err != nil {
			routerService.logger.Warn("Redis unreachable; rate limiting in memory", "error", err)
			routerService.redisClient = nil
		}
	}

	routerService.rateLimiter = ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: routerService.limits.RateLimitRequests,
		Window:   routerService.limits.RateLimitWindow,
		Redis:    routerService.redisClient,
		Logger:   routerService.logger,
	})

	backend := "memory"
	if routerService.redisClient != nil {
		backend = "redis"
	}
	routerService.logger.Info("Rate limiting initialized",
		"backend", backend,
		"requests", routerService.limits.RateLimitRequests,
		"window", routerService.limits.RateLimitWindow)
}

// limiterFor picks the route's own limiter when it registered one, else the
// global limiter. ok is false for a matched route with no controller.
func (routerService *RouterService) limiterFor(c *gin.Context) (limiter ratelimit.RateLimiter, ok bool) {
	// Unmatched path or method: gin answers through NoRoute/NoMethod.
	if c.FullPath() == "" {
		return routerService.rateLimiter, true
	}

	key := routerService.keyForPathAndMethod(c.FullPath(), c.Request.Method)
	if controller, found := routerService.handlerToControllerMap[key]; !found || controller == nil {
		return nil, false
	}

	if override, found := routerService.rateLimitOverrides[key]; found {
		return override, true
	}
	return routerService.rateLimiter, true
}

func retryAfterSeconds(window time.Duration) int {
	return max(1, int(math.Ceil(window.Seconds())))
}

// rateLimitMiddleware counts every request against the client IP and answers
// 429 with Retry-After once the limiter refuses it. Limiter errors let the
// request through.
func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter, ok := routerService.limiterFor(c)
		if !ok {
			routerService.logger.Error("Route has no controller mapping", "method", c.Request.Method, "route", c.FullPath())
			c.AbortWithStatusJSON(http.StatusNotFound, NotFoundResult("Route not found").ToJSON())
			return
		}

		limit, window := limiter.GetLimitDetails()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", window.String())

		clientIP := c.ClientIP()
		limited, err := limiter.IsLimited(c.Request.Context(), clientIP)
		if err != nil {
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}
		if !limited {
			c.Next()
			return
		}

		retryAfter := strconv.Itoa(retryAfterSeconds(window))
		routerService.logger.Warn("Rate limit exceeded", "client_ip", clientIP, "path", c.Request.URL.Path)
		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
			Limit:      limit,
			Window:     window.String(),
			RetryAfter: retryAfter,
		}).ToJSON())
	}
}
