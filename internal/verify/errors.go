package verify

import (
	"errors"
	"fmt"
)

// Common errors returned by the CrossRef client and URL prober.
var (
	// ErrNotFound indicates the registry has no record of the DOI.
	ErrNotFound = errors.New("DOI not found in CrossRef")

	// ErrRateLimited indicates the registry rejected the request for rate reasons.
	ErrRateLimited = errors.New("CrossRef rate limit exceeded")

	// ErrNetworkError indicates a transport failure (DNS, connect, timeout).
	ErrNetworkError = errors.New("network error")

	// ErrInvalidResponse indicates a body that could not be decoded.
	ErrInvalidResponse = errors.New("invalid response from CrossRef")

	// ErrUnreachable indicates a URL answered outside [200, 400).
	ErrUnreachable = errors.New("URL unreachable")
)

// APIError represents a non-2xx response from the registry.
type APIError struct {
	StatusCode int
	Message    string
	DOI        string
}

func (e *APIError) Error() string {
	if e.DOI != "" {
		return fmt.Sprintf("CrossRef API error (status %d): %s (doi: %s)", e.StatusCode, e.Message, e.DOI)
	}
	return fmt.Sprintf("CrossRef API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates the DOI is unknown.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}
