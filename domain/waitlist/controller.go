package waitlist

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/akeren/waitlist-service/config/router"
	"github.com/akeren/waitlist-service/internal/log"
	"github.com/akeren/waitlist-service/pkg/constants"
	apperrors "github.com/akeren/waitlist-service/pkg/errors"
	"github.com/akeren/waitlist-service/pkg/factory"
)

type ControllerConfig struct {
	// RegistrationsPerMinute caps POST /waitlist per client. Zero uses the default.
	RegistrationsPerMinute int
}

// NewWaitlistController serves POST /waitlist (register) and GET /waitlist
// (count). Registration has its own per-client limiter on top of the global one.
func NewWaitlistController(service WaitlistService, logger *log.Logger, cfg ControllerConfig) *router.RESTController {
	return router.NewRESTController(
		"WaitlistController",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			metrics := newRegistrationMetrics(rs.MetricsRegisterer())

			registrationLimiter := factory.
				NewDefaultRateLimiterFactory(rs.RedisClient(), logger).
				CreateRateLimiter("waitlist", registrationLimit(cfg), time.Minute)

			rs.AddPostHandler(c, registrationLimiter, "", registerHandler(service, metrics))
			rs.AddGetHandler(c, nil, "", countHandler(service, metrics))
		},
	)
}

func registrationLimit(cfg ControllerConfig) int {
	if cfg.RegistrationsPerMinute > 0 {
		return cfg.RegistrationsPerMinute
	}
	return constants.DefaultWaitlistRateLimitRequests
}

func registerHandler(service WaitlistService, metrics *registrationMetrics) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req RegisterRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind request", "error", err)
			metrics.observeRegistration(NewValidationError(MsgInvalidBody, err))

			// {"email": 42} is a bad email; [] or "x" is a bad body.
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field == "email" {
				return router.BadRequestResult(MsgInvalidEmail, nil)
			}

			return router.BadRequestResult(MsgInvalidBody, nil)
		}

		result, err := service.Register(ctx.Request.Context(), req.Email)
		metrics.observeRegistration(err)
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
				nil,
			)
		}

		return router.CreatedResult(router.Payload{"entry": result.Entry}, result.Message)
	}
}

func countHandler(service WaitlistService, metrics *registrationMetrics) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		count, err := service.Count(ctx.Request.Context())
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
				nil,
			)
		}

		metrics.observeCount(count)

		return router.OKResult(router.Payload{"count": count}, "")
	}
}
