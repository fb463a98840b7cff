package errors

import (
	"errors"
	"net/http"
)

const genericErrorMessage = "An unexpected error occurred"

// HTTPStatusCode maps err to a response status. Anything that is not a
// client error is a 500.
func HTTPStatusCode(err error) int {
	switch GetErrorType(err) {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetHumanReadableMessage returns the AppError message, never the text of a
// raw driver or runtime error.
func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}

	return genericErrorMessage
}
