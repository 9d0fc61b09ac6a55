package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrAccountNotFound indicates the connected mailbox account was not found
	ErrAccountNotFound = errors.New("account not found")

	// ErrFolderNotFound indicates a folder token could not be resolved
	ErrFolderNotFound = errors.New("folder not found")

	// ErrScheduledEmailNotFound indicates the scheduled email was not found
	ErrScheduledEmailNotFound = errors.New("scheduled email not found")

	// ErrSnoozeNotFound indicates the snooze was not found
	ErrSnoozeNotFound = errors.New("snooze not found")

	// ErrNotPending indicates a scheduled record already reached a terminal status
	ErrNotPending = errors.New("record is no longer pending")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates forbidden access
	ErrForbidden = errors.New("forbidden")

	// ErrExternalService indicates a provider or other upstream failure
	ErrExternalService = errors.New("external service error")

	// ErrRateLimited indicates an upstream rate limit was hit
	ErrRateLimited = errors.New("rate limited")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound        = "NOT_FOUND"
	CodeDuplicateEntry  = "DUPLICATE_ENTRY"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeFolderNotFound  = "FOLDER_NOT_FOUND"
	CodeNotPending      = "NOT_PENDING"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// External wraps an upstream failure so it maps to a 502 response
func External(service string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %v", ErrExternalService, err),
		Message: fmt.Sprintf("%s request failed", service),
		Code:    CodeExternalService,
	}
}

// IsExternal checks if the error came from an upstream service
func IsExternal(err error) bool {
	return errors.Is(err, ErrExternalService)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}

	switch {
	case errors.Is(err, ErrFolderNotFound):
		return CodeFolderNotFound
	case IsNotFound(err):
		return CodeNotFound
	case IsDuplicateEntry(err):
		return CodeDuplicateEntry
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrNotPending):
		return CodeNotPending
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case IsExternal(err):
		return CodeExternalService
	default:
		return CodeInternalError
	}
}
