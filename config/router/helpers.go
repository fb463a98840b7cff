package router

import (
	"net/http"

	"github.com/akeren/waitlist-service/internal/log"
)

// GetLogger returns the correlated logger the request context carries. Outside
// the router's middleware chain it builds a fresh one.
func GetLogger(ctx *RequestContext) *log.Logger {
	return log.GetLoggerInstanceFromContext(ctx.Request.Context(), nil)
}

func newResult(statusCode int, data any, message string) *ServiceResult {
	return &ServiceResult{StatusCode: statusCode, Data: data, Message: message}
}

func OKResult(data any, message string) *ServiceResult {
	return newResult(http.StatusOK, data, message)
}

func CreatedResult(data any, message string) *ServiceResult {
	return newResult(http.StatusCreated, data, message)
}

// BadRequestResult renders {"error": message}, plus "details" when details is non-nil.
func BadRequestResult(message string, details any) *ServiceResult {
	return newResult(http.StatusBadRequest, details, message)
}

func NotFoundResult(message string) *ServiceResult {
	return newResult(http.StatusNotFound, nil, message)
}

func TooManyRequestsResult(details RateLimitResponse) *ServiceResult {
	return newResult(http.StatusTooManyRequests, details, "Too Many Requests")
}

func InternalServerErrorResult(message string) *ServiceResult {
	return newResult(http.StatusInternalServerError, nil, message)
}

func ErrorResult(statusCode int, message string, details any) *ServiceResult {
	return newResult(statusCode, details, message)
}
