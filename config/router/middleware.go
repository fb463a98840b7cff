package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/akeren/waitlist-service/internal/log"
	"github.com/akeren/waitlist-service/pkg/utils"
	"github.com/gin-gonic/gin"
)

const (
	correlationIDHeader = "X-Correlation-ID"

	defaultMaxBodyBytes = 1 << 20
	defaultHSTSMaxAge   = 365 * 24 * 60 * 60

	corsAllowedMethods = "GET, POST, OPTIONS"
	corsAllowedHeaders = "Content-Type, Accept, Origin, " + correlationIDHeader
)

// httpOptions are the edge settings read from the environment once, when the
// router is created.
type httpOptions struct {
	port           string
	trustedProxies []string
	maxBodyBytes   int64
	allowedOrigins []string
	hsts           string // Strict-Transport-Security value; empty disables it
}

func loadHTTPOptions() httpOptions {
	return httpOptions{
		port:           utils.GetEnvTrimmedOrDefault("APP_PORT", defaultPort),
		trustedProxies: parseTrustedProxies(utils.GetEnvTrimmed("TRUSTED_PROXIES")),
		maxBodyBytes:   int64(utils.GetEnvPositiveInt("MAX_REQUEST_BODY_BYTES", defaultMaxBodyBytes)),
		allowedOrigins: splitList(utils.GetEnvTrimmed("CORS_ALLOWED_ORIGIN")),
		hsts:           hstsHeader(),
	}
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseTrustedProxies maps "" to no proxies and "*" to every address.
func parseTrustedProxies(raw string) []string {
	if strings.TrimSpace(raw) == "*" {
		return []string{"0.0.0.0/0", "::/0"}
	}
	return splitList(raw)
}

// hstsHeader is on by default only when APP_ENV is production. HSTS_ENABLED,
// HSTS_MAX_AGE and HSTS_INCLUDE_SUBDOMAINS override it.
func hstsHeader() string {
	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))
	if !utils.GetEnvBool("HSTS_ENABLED", appEnv == "production" || appEnv == "prod") {
		return ""
	}

	value := fmt.Sprintf("max-age=%d", utils.GetEnvPositiveInt("HSTS_MAX_AGE", defaultHSTSMaxAge))
	if utils.GetEnvBool("HSTS_INCLUDE_SUBDOMAINS", true) {
		value += "; includeSubDomains"
	}
	return value
}

func isHTTPS(c *gin.Context) bool {
	return c.Request.TLS != nil || strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")), "https")
}

func (routerService *RouterService) securityHeadersMiddleware() gin.HandlerFunc {
	hsts := routerService.options.hsts

	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("X-Content-Type-Options", "nosniff")
		header.Set("X-Frame-Options", "DENY")
		header.Set("Referrer-Policy", "no-referrer")
		if hsts != "" && isHTTPS(c) {
			header.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

// maxBodySizeMiddleware rejects declared oversize bodies up front and caps
// chunked ones while they are read.
func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	maxBytes := routerService.options.maxBodyBytes

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				ErrorResult(http.StatusRequestEntityTooLarge, "Request payload too large", nil).ToJSON())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// corsMiddleware answers browsers on the origins listed in CORS_ALLOWED_ORIGIN
// ("*" for any). Other origins get no CORS headers and the browser blocks them.
func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	allowedOrigins := routerService.options.allowedOrigins
	if len(allowedOrigins) == 0 {
		routerService.logger.Warn("CORS_ALLOWED_ORIGIN not set; browsers will refuse cross-origin requests")
	}
	anyOrigin := slices.Contains(allowedOrigins, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if !anyOrigin && !slices.Contains(allowedOrigins, origin) {
			routerService.logger.Warn("CORS origin not allowed", "origin", origin)
			c.Next()
			return
		}

		header := c.Writer.Header()
		header.Set("Access-Control-Allow-Origin", origin)
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
		header.Set("Access-Control-Allow-Methods", corsAllowedMethods)
		header.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// timeoutMiddleware puts a deadline on the request context. The chain stays
// on the server goroutine; a handler that overran without writing gets a 408.
func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	timeout := routerService.middlewareConfig.TimeoutDuration

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			GetLogger(c).Warn("Request deadline exceeded", "timeout", timeout.String())
			c.AbortWithStatusJSON(http.StatusRequestTimeout,
				ErrorResult(http.StatusRequestTimeout, "Request timeout", nil).ToJSON())
		}
	}
}

// requestContextMiddleware stores the correlation ID (taken from the request
// header or generated) and a logger carrying it in the request context.
func (routerService *RouterService) requestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(correlationIDHeader))
		if id == "" {
			id = log.GenerateCorrelationID()
		}
		c.Header(correlationIDHeader, id)

		ctx := log.ContextWithCorrelationID(c.Request.Context(), id)
		ctx = log.ContextWithLogger(ctx, routerService.logger.WithCorrelationID(ctx))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		GetLogger(c).Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
