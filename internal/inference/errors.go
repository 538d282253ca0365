package inference

import (
	"fmt"
	"net/http"
)

// APIError is the single failure shape returned by every client operation.
// Network errors, non-2xx responses and malformed bodies are all normalized
// into it; nothing else crosses the client boundary. Code follows HTTP status
// conventions so callers can apply uniform handling (5xx retryable, 4xx not).
type APIError struct {
	Code    int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("inference service error (code %d): %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("inference service error (code %d): %s", e.Code, e.Message)
}

// Retryable reports whether the failure is presumed transient.
func (e *APIError) Retryable() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == 0
}

// IsSessionNotFound reports whether the remote service no longer knows the
// chat session, as opposed to a generic failure.
func (e *APIError) IsSessionNotFound() bool {
	return e.Code == http.StatusNotFound
}

func newConnectionError(err error) *APIError {
	return &APIError{
		Code:    http.StatusServiceUnavailable,
		Message: "failed to reach the inference service",
		Details: err.Error(),
	}
}

func newDecodeError(err error) *APIError {
	return &APIError{
		Code:    http.StatusBadGateway,
		Message: "unexpected response from the inference service",
		Details: err.Error(),
	}
}
