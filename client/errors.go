package client

import (
	"errors"
	"fmt"
)

// UnreachableMessage is shown when no response arrived at all.
const UnreachableMessage = "Unable to connect to server. Please check if the backend is running."

const fallbackMessage = "An unexpected error occurred"

// ErrUnreachable matches every transport failure via errors.Is.
var ErrUnreachable = errors.New("backend unreachable")

// UnreachableError wraps a transport failure (refused, DNS, timeout).
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string { return UnreachableMessage }

func (e *UnreachableError) Unwrap() error { return e.Err }

func (e *UnreachableError) Is(target error) bool { return target == ErrUnreachable }

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// ErrorMessage picks the text to show for err: the backend's message when
// there is one, otherwise the error text, otherwise a generic fallback.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallbackMessage
}
