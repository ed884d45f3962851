package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Statuses that, combined with an unavailable marker in the body, mean the provider
// does not serve this environment rather than that the request was bad.
var unavailableStatuses = map[int]bool{
	http.StatusNotFound:           true,
	http.StatusNotImplemented:     true,
	http.StatusServiceUnavailable: true,
}

var unavailableMarkers = []string{
	"not_supported",
	"not supported",
	"not yet supported",
	"unsupported_environment",
	"model_not_found",
	"not available in",
}

// ClassifyHTTPError turns a non-200 provider response into a typed error.
func ClassifyHTTPError(provider string, resp *http.Response, body []byte) error {
	baseErr := fmt.Errorf("%s API error (status %d): %s", provider, resp.StatusCode, truncate(string(body), 500))

	if unavailableStatuses[resp.StatusCode] && hasUnavailableMarker(body) {
		return &UnavailableError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Reason:     "not supported in this environment",
			Err:        baseErr,
		}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
		return NewRateLimitError(provider, baseErr, retryAfter)
	}
	return &RejectedError{Provider: provider, StatusCode: resp.StatusCode, Err: baseErr}
}

// ClassifyTransportError wraps an http.Client error. Failing to connect at all is an
// unavailable signature and running out of time is a TimeoutError; anything else is
// returned wrapped.
func ClassifyTransportError(provider string, err error) error {
	if isTimeout(err) {
		return &TimeoutError{Provider: provider, Err: fmt.Errorf("calling %s API: %w", provider, err)}
	}
	if isConnectError(err) {
		return &UnavailableError{
			Provider: provider,
			Reason:   "host unreachable",
			Err:      fmt.Errorf("calling %s API: %w", provider, err),
		}
	}
	return fmt.Errorf("calling %s API: %w", provider, err)
}

// MalformedResponse reports a 200 answer whose body could not be used.
func MalformedResponse(provider string, statusCode int, err error) error {
	return &RejectedError{Provider: provider, StatusCode: statusCode, Err: err}
}

// NotConfigured returns the unavailable error a hosted client reports when it has no API key.
func NotConfigured(provider string) error {
	return &UnavailableError{Provider: provider, Reason: "no API key configured", Err: ErrNotConfigured}
}

func hasUnavailableMarker(body []byte) bool {
	lower := strings.ToLower(string(body))
	for _, m := range unavailableMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func isConnectError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial" && !opErr.Timeout()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
