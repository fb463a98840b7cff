package waitlist

import (
	"errors"

	apperrors "github.com/akeren/waitlist-service/pkg/errors"
)

// User-facing messages. They are part of the HTTP contract.
const (
	MsgInvalidEmail      = "Please enter a valid email address"
	MsgAlreadyOnWaitlist = "This email is already on the waitlist!"
	MsgRegistered        = "Successfully joined the waitlist!"
	MsgRegisterFailed    = "Something went wrong. Please try again."
	MsgCountFailed       = "Failed to fetch waitlist count"
	MsgInvalidBody       = "Invalid request body"
)

// Sentinel errors for the waitlist domain.
var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrAlreadyOnWaitlist = errors.New("email already on waitlist")
)

// NewValidationError reports malformed input. Maps to 400.
func NewValidationError(message string, cause error) *apperrors.AppError {
	return apperrors.NewInvalidRequestError(message, wrapSentinel(ErrInvalidEmail, cause))
}

// NewDuplicateError reports that the email is already registered. Maps to 409.
func NewDuplicateError(cause error) *apperrors.AppError {
	return apperrors.NewConflictError(MsgAlreadyOnWaitlist, wrapSentinel(ErrAlreadyOnWaitlist, cause))
}

// NewSystemError hides cause behind a generic message. Maps to 500.
func NewSystemError(message string, cause error) *apperrors.AppError {
	return apperrors.NewInternalServerError(message, cause)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEmail)
}

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrAlreadyOnWaitlist)
}

func IsSystemError(err error) bool {
	return err != nil && !IsValidationError(err) && !IsDuplicateError(err)
}

func wrapSentinel(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return errors.Join(sentinel, cause)
}
