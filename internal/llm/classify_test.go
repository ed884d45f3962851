package llm_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinsynth/internal/domain"
	"clinsynth/internal/llm"
)

func response(status int, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Header: header}
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		wantUnavailable bool
		wantIs          error
	}{
		{"503 not supported", http.StatusServiceUnavailable, `{"error":{"type":"not_supported"}}`, true, domain.ErrNoProviderReachable},
		{"404 model not found", http.StatusNotFound, `{"error":{"code":"model_not_found"}}`, true, domain.ErrNoProviderReachable},
		{"501 region", http.StatusNotImplemented, `This API is not available in your region`, true, domain.ErrNoProviderReachable},
		{"503 overloaded", http.StatusServiceUnavailable, `{"error":"overloaded"}`, false, domain.ErrRequestRejected},
		{"400 with marker", http.StatusBadRequest, `feature not supported`, false, domain.ErrRequestRejected},
		{"401", http.StatusUnauthorized, `invalid x-api-key`, false, domain.ErrRequestRejected},
		{"500", http.StatusInternalServerError, `boom`, false, domain.ErrRequestRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := llm.ClassifyHTTPError("claude", response(tt.status, nil), []byte(tt.body))
			assert.Equal(t, tt.wantUnavailable, llm.IsUnavailable(err))
			assert.ErrorIs(t, err, tt.wantIs)
		})
	}
}

func TestClassifyHTTPError_RateLimit(t *testing.T) {
	err := llm.ClassifyHTTPError("openai", response(http.StatusTooManyRequests, http.Header{"Retry-After": []string{"30"}}), []byte("slow down"))

	var rl *llm.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 30*time.Second, rl.RetryAfter)
	assert.ErrorIs(t, err, domain.ErrRequestRejected)
	assert.False(t, llm.IsUnavailable(err))
}

func TestClassifyHTTPError_RateLimitDefaultRetry(t *testing.T) {
	err := llm.ClassifyHTTPError("openai", response(http.StatusTooManyRequests, nil), nil)

	var rl *llm.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 60*time.Second, rl.RetryAfter)
}

func TestClassifyHTTPError_TruncatesBody(t *testing.T) {
	body := make([]byte, 2000)
	for i := range body {
		body[i] = 'x'
	}
	err := llm.ClassifyHTTPError("claude", response(http.StatusBadRequest, nil), body)
	assert.Less(t, len(err.Error()), 700)
}

func TestNotConfigured(t *testing.T) {
	err := llm.NotConfigured("openai")
	assert.True(t, llm.IsUnavailable(err))
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
	assert.ErrorIs(t, err, domain.ErrNoProviderReachable)
}

func TestClassifyTransportError_NonConnect(t *testing.T) {
	err := llm.ClassifyTransportError("claude", errors.New("tls handshake failure"))
	assert.False(t, llm.IsUnavailable(err))
	assert.Contains(t, err.Error(), "calling claude API")
}

type timeoutNetError struct{}

func (timeoutNetError) Error() string { return "i/o timeout" }
func (timeoutNetError) Timeout() bool { return true }
func (timeoutNetError) Temporary() bool { return true }

func TestClassifyTransportError_Timeout(t *testing.T) {
	for _, cause := range []error{
		fmt.Errorf("Post %q: %w", "https://api.example.test", context.DeadlineExceeded),
		fmt.Errorf("reading response: %w", timeoutNetError{}),
	} {
		err := llm.ClassifyTransportError("openai", cause)

		var timeout *llm.TimeoutError
		require.ErrorAs(t, err, &timeout, "cause %v", cause)
		assert.Equal(t, "openai", timeout.Provider)
		assert.ErrorIs(t, err, domain.ErrAnalysisTimeout)
		assert.False(t, llm.IsUnavailable(err))
	}
}

func TestMalformedResponse(t *testing.T) {
	err := llm.MalformedResponse("gemini", http.StatusOK, errors.New("unmarshaling response: invalid character"))

	assert.ErrorIs(t, err, domain.ErrRequestRejected)
	assert.False(t, llm.IsUnavailable(err))
	assert.Contains(t, err.Error(), "status 200")
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 0, llm.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, llm.ParseRetryAfterHeader("Wed, 21 Oct 2015 07:28:00 GMT"))
	assert.Equal(t, 12, llm.ParseRetryAfterHeader("12"))
}
