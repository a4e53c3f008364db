package client

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a package or version is not found upstream.
var ErrNotFound = errors.New("not found")

// HTTPError represents an HTTP error response from the upstream feed.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// IsNotFound returns true if the error represents a 404 response.
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == 404
}

// NotFoundError wraps ErrNotFound with package context.
type NotFoundError struct {
	ID      string
	Version string
}

func (e *NotFoundError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("package %s version %s not found", e.ID, e.Version)
	}
	return fmt.Sprintf("package %s not found", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
