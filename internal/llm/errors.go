package llm

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"clinsynth/internal/domain"
)

// ErrNotConfigured is wrapped by UnavailableError when a hosted provider has no credentials.
var ErrNotConfigured = errors.New("provider credentials not configured")

// UnavailableError means the provider cannot be used from this environment at all
// (no credentials, unsupported here, or host unreachable). It is the only failure
// that lets the primary provider fall back.
type UnavailableError struct {
	Provider   string
	StatusCode int
	Reason     string
	Err        error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s unavailable (status %d, %s): %v", e.Provider, e.StatusCode, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s unavailable (%s): %v", e.Provider, e.Reason, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == domain.ErrNoProviderReachable
}

// RejectedError is a genuine request failure (bad input, auth, quota, server error).
// It is surfaced to the caller and never triggers a fallback from the primary.
type RejectedError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s rejected the request (status %d): %v", e.Provider, e.StatusCode, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

func (e *RejectedError) Is(target error) bool {
	return target == domain.ErrRequestRejected
}

// RateLimitError indicates a provider returned HTTP 429. It is a rejection that
// carries the provider's Retry-After hint.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

func (e *RateLimitError) Is(target error) bool {
	return target == domain.ErrRequestRejected
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// TimeoutError means a bounded provider attempt ran out of time. Usually the input was
// too large for the local model.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s did not finish within %s; try analyzing fewer or smaller documents: %v", e.Provider, e.Timeout, e.Err)
	}
	return fmt.Sprintf("%s timed out; try analyzing fewer or smaller documents: %v", e.Provider, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

func (e *TimeoutError) Is(target error) bool {
	return target == domain.ErrAnalysisTimeout
}

// UnreachableError means the last provider in the chain could not be connected to.
type UnreachableError struct {
	Provider string
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%s is unreachable; start the local model server and retry: %v", e.Provider, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

func (e *UnreachableError) Is(target error) bool {
	return target == domain.ErrNoProviderReachable
}

// IsUnavailable reports whether err carries the provider-unavailable signature.
func IsUnavailable(err error) bool {
	var u *UnavailableError
	return errors.As(err, &u)
}
