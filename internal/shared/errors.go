package shared

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrRateLimited     = fmt.Errorf("rate limited")
	ErrLabelNotFound   = fmt.Errorf("label not found")
	ErrReleaseNotFound = fmt.Errorf("release not found")
	ErrProjectNotFound = fmt.Errorf("todoist project not found")
	ErrSectionNotFound = fmt.Errorf("todoist section not found")
	ErrRunInProgress   = fmt.Errorf("a queue run is already in progress")
	ErrUnknownRequest  = fmt.Errorf("unknown request type")
	ErrStorageFailure  = fmt.Errorf("storage failure")
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrAlreadyQueued   = fmt.Errorf("label is already in the queue")
	ErrAlreadyImported = fmt.Errorf("label has already been imported")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// ConfigError reports a credential or setting that must be supplied before a request can be made.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is not set", e.Key)
}

func (e *ConfigError) Unwrap() error { return ErrMissingCredentials }

// RateLimitError is returned when the remote API answers 429.
type RateLimitError struct {
	Endpoint   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (429) on %s, retry after %s", e.Endpoint, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited (429) on %s", e.Endpoint)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// APIError is any other non-success HTTP status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API request failed: status %d", e.Status)
	}
	return fmt.Sprintf("API request failed: status %d: %s", e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return ErrAPIRequest }

// IsRateLimited reports whether err (or anything it wraps) is a 429 from a remote API.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// StatusCode extracts the HTTP status from an [APIError] chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	if IsRateLimited(err) {
		return 429
	}
	return 0
}
