// Package library provides an HTTP client for the remote game-library
// server's save and note APIs, with error classification and a retry
// policy for transient failures.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, library.ErrConflict) to check.
var (
	ErrBadRequest   = errors.New("library: bad request")
	ErrUnauthorized = errors.New("library: unauthorized")
	ErrForbidden    = errors.New("library: forbidden")
	ErrNotFound     = errors.New("library: not found")
	ErrConflict     = errors.New("library: version conflict")
	ErrServerError  = errors.New("library: server error")
)

// APIError wraps a sentinel error with the HTTP status code and the API
// error message body for debugging.
type APIError struct {
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("library: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// IsRetryable reports whether an error from a remote call should be retried.
// Server-side 5xx responses and transport-level failures (refused
// connections, timeouts, DNS errors) are retryable. Client-rejected 4xx
// responses — including version conflicts — and every non-network error
// fail immediately on first occurrence.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation is never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Connection failures below the net.Error surface (a bare dial error,
	// a connection reset mid-body).
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	// Anything else is a programming or data error and must not be retried.
	return false
}
