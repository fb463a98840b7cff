package router

import (
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// ServiceResult is what every handler returns. Errors render as
// {"error": Message}; a Payload renders as its own top-level keys.
type ServiceResult struct {
	StatusCode int
	Data       any
	Message    string
}

// Payload is a flat response body. Its keys are emitted at the top level of
// the JSON document next to "message".
type Payload map[string]any

type RateLimitResponse struct {
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	RetryAfter string `json:"retry_after"`
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

func (result *ServiceResult) ToJSON() gin.H {
	if result.IsError() {
		body := gin.H{"error": result.Message}
		if result.Data != nil {
			body["details"] = result.Data
		}
		return body
	}

	if payload, ok := result.Data.(Payload); ok {
		body := make(gin.H, len(payload)+1)
		for key, value := range payload {
			body[key] = value
		}
		if result.Message != "" {
			body["message"] = result.Message
		}
		return body
	}

	return gin.H{
		"data":    result.Data,
		"message": result.Message,
	}
}

func (result *ServiceResult) IsError() bool {
	return result.StatusCode >= 400
}
