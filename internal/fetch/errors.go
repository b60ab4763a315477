package fetch

import (
	"errors"
	"fmt"
)

// Common errors returned by the listing client.
var (
	// ErrNotFound indicates the listing page does not exist.
	ErrNotFound = errors.New("listing not found")

	// ErrRateLimited indicates the server refused the request for rate reasons.
	ErrRateLimited = errors.New("listing server rate limit exceeded")

	// ErrNetwork indicates the request never produced a response.
	ErrNetwork = errors.New("network error fetching listing")

	// ErrTooLarge indicates the listing body was longer than the client accepts.
	ErrTooLarge = errors.New("listing too large")
)

// HTTPError represents an unexpected HTTP status from the listing server.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("listing request failed (status %d): %s", e.StatusCode, e.URL)
}

// IsNotFound returns true if the error indicates a missing listing.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode == 503
	}
	return false
}

// IsNetwork returns true for any failure talking to the listing server.
func IsNetwork(err error) bool {
	if errors.Is(err, ErrNetwork) || errors.Is(err, ErrTooLarge) || IsNotFound(err) || IsRateLimited(err) {
		return true
	}
	var httpErr *HTTPError
	return errors.As(err, &httpErr)
}
