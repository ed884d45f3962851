package claude_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinsynth/internal/config"
	"clinsynth/internal/domain"
	"clinsynth/internal/llm"
	"clinsynth/internal/llm/claude"
	"clinsynth/internal/port"
)

func newTestClient(serverURL, apiKey string) *claude.Client {
	cfg := &config.ProviderConfig{
		Provider:     "claude",
		APIKey:       apiKey,
		DefaultModel: "claude-sonnet-4-20250514",
		MaxTokens:    8192,
		TimeoutSecs:  30,
	}
	return claude.NewClientWithEndpoint(cfg, serverURL)
}

var testRequest = port.CompletionRequest{SystemInstruction: "You are a clinical analyst.", UserMessage: "Analyze these documents."}

func TestClaudeClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		assert.NoError(t, err)
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])
		assert.Equal(t, float64(8192), reqBody["max_tokens"])
		assert.Equal(t, "You are a clinical analyst.", reqBody["system"])

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])
		assert.Equal(t, "Analyze these documents.", msg["content"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "claude-sonnet-4-20250514",
			"content": []map[string]interface{}{
				{"type": "text", "text": "## Executive Summary\n"},
				{"type": "text", "text": "Stable. [SOURCE: doc-1]"},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	res, err := newTestClient(server.URL, "test-api-key").Complete(context.Background(), testRequest)

	require.NoError(t, err)
	assert.Equal(t, "## Executive Summary\nStable. [SOURCE: doc-1]", res.Text)
	assert.Equal(t, "claude-sonnet-4-20250514", res.Model)
}

func TestClaudeClient_Complete_AcceptsTruncatedAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]interface{}{{"type": "text", "text": "## Executive Summary\npartial"}},
			"stop_reason": "max_tokens",
		})
	}))
	defer server.Close()

	res, err := newTestClient(server.URL, "k").Complete(context.Background(), testRequest)

	require.NoError(t, err)
	assert.Equal(t, "## Executive Summary\npartial", res.Text)
	assert.Equal(t, "claude-sonnet-4-20250514", res.Model, "falls back to configured model")
}

func TestClaudeClient_Complete_NoAPIKeyMakesNoCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "").Complete(context.Background(), testRequest)

	assert.True(t, llm.IsUnavailable(err))
	assert.False(t, called)
}

func TestClaudeClient_Complete_UnsupportedEnvironment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"unsupported_environment"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "k").Complete(context.Background(), testRequest)

	assert.True(t, llm.IsUnavailable(err))
}

func TestClaudeClient_Complete_BadRequestIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"prompt is too long"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "k").Complete(context.Background(), testRequest)

	assert.False(t, llm.IsUnavailable(err))
	assert.ErrorIs(t, err, domain.ErrRequestRejected)
	assert.Contains(t, err.Error(), "prompt is too long")
}

func TestClaudeClient_Complete_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "k").Complete(context.Background(), testRequest)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
	assert.ErrorIs(t, err, domain.ErrRequestRejected)
}

func TestClaudeClient_Complete_NonJSONBodyIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, "k").Complete(context.Background(), testRequest)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRequestRejected)
	assert.False(t, llm.IsUnavailable(err))
	var rejected *llm.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusOK, rejected.StatusCode)
}

func TestClaudeClient_Complete_ClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer server.Close()

	cfg := &config.ProviderConfig{Provider: "claude", APIKey: "k", TimeoutSecs: 1}
	_, err := claude.NewClientWithEndpoint(cfg, server.URL).Complete(context.Background(), testRequest)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAnalysisTimeout)
	assert.False(t, llm.IsUnavailable(err))
}
