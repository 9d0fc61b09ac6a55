package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies provider failures for callers that translate them.
type Kind string

const (
	KindAuth        Kind = "auth"
	KindRateLimit   Kind = "rate_limit"
	KindServer      Kind = "server"
	KindNotFound    Kind = "not_found"
	KindBadRequest  Kind = "bad_request"
	KindUnavailable Kind = "unavailable"
	KindUnknown     Kind = "unknown"
)

// Error is returned by every Client method on failure.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether a later attempt may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindServer, KindUnavailable:
		return true
	default:
		return false
	}
}

// KindOf returns the Kind of err, or KindUnknown when err is not a provider error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindBadRequest
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}
