package errx

import (
	"context"
	"errors"
	"net/http"
)

// Sentinel errors for completion backend failures. Callers inspect these with
// errors.Is to decide between cascading to another backend and surfacing a
// configuration problem.
var (
	// ErrBackendTimeout marks a backend call that exceeded its deadline.
	ErrBackendTimeout = errors.New("backend timeout")
	// ErrBackendRateLimited marks an HTTP 429 style rejection.
	ErrBackendRateLimited = errors.New("backend rate limited")
	// ErrBackendAuth marks an authentication or authorization rejection.
	ErrBackendAuth = errors.New("backend auth rejected")
	// ErrBackendConfig marks a backend that cannot run because a credential
	// or endpoint is missing. This is a deployment problem, not a transient
	// failure, so it is surfaced rather than cascaded over silently.
	ErrBackendConfig = errors.New("backend not configured")
)

// WrapBackend classifies a raw backend error into the unified AppError type,
// attaching the matching sentinel so callers can branch on the failure class.
func WrapBackend(err error, statusCode int) *AppError {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return New(errors.Join(ErrBackendTimeout, err), http.StatusGatewayTimeout, BackendErrorMessage)
	case statusCode == http.StatusTooManyRequests:
		return New(errors.Join(ErrBackendRateLimited, err), http.StatusTooManyRequests, BackendErrorMessage)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return New(errors.Join(ErrBackendAuth, err), statusCode, BackendErrorMessage)
	default:
		return New(err, http.StatusBadGateway, BackendErrorMessage)
	}
}
