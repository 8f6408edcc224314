package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application-level error
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeReminderNotFound = "REMINDER_NOT_FOUND"
	CodeOwnerNotFound    = "OWNER_NOT_FOUND"

	// Time resolution errors. Recoverable: callers degrade to defaults or
	// prompt the user for more information.
	CodeInvalidTimezone      = "INVALID_TIMEZONE"
	CodeUnresolvedExpression = "UNRESOLVED_TIME_EXPRESSION"
	CodePastInstantRejected  = "PAST_INSTANT_REJECTED"

	// Scheduling errors. Retried on the next tick rather than failed fast.
	CodeDeliveryFailure = "DELIVERY_FAILURE"
	CodeStoreConflict   = "STORE_CONFLICT"
)

// Common errors
var (
	ErrBadRequest = &AppError{
		Code:       CodeBadRequest,
		Message:    "Bad request",
		StatusCode: http.StatusBadRequest,
	}

	ErrNotFound = &AppError{
		Code:       CodeNotFound,
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrInternalError = &AppError{
		Code:       CodeInternalError,
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}

	ErrReminderNotFound = &AppError{
		Code:       CodeReminderNotFound,
		Message:    "Reminder not found",
		StatusCode: http.StatusNotFound,
	}

	ErrInvalidTimezone = &AppError{
		Code:       CodeInvalidTimezone,
		Message:    "Not a resolvable IANA timezone identifier",
		StatusCode: http.StatusBadRequest,
	}

	ErrUnresolvedExpression = &AppError{
		Code:       CodeUnresolvedExpression,
		Message:    "Could not resolve the time expression; more information is needed",
		StatusCode: http.StatusUnprocessableEntity,
	}

	ErrPastInstantRejected = &AppError{
		Code:       CodePastInstantRejected,
		Message:    "That time is in the past. Pick a future time.",
		StatusCode: http.StatusBadRequest,
	}

	ErrStoreConflict = &AppError{
		Code:       CodeStoreConflict,
		Message:    "Concurrent update lost the race",
		StatusCode: http.StatusConflict,
	}
)

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with an AppError
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// ValidationError creates a validation error
func ValidationError(message string) *AppError {
	return &AppError{
		Code:       CodeValidationError,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// DeliveryError wraps a notification sink failure
func DeliveryError(err error) *AppError {
	return &AppError{
		Code:       CodeDeliveryFailure,
		Message:    "Notification delivery failed",
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HasCode reports whether err carries the given application error code.
func HasCode(err error, code string) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}
