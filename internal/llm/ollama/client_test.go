package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinsynth/internal/config"
	"clinsynth/internal/llm"
	"clinsynth/internal/llm/ollama"
	"clinsynth/internal/port"
)

func TestOllamaClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "llama3.1", reqBody["model"])
		assert.Equal(t, false, reqBody["stream"])
		opts := reqBody["options"].(map[string]interface{})
		assert.Equal(t, float64(2048), opts["num_predict"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model":   "llama3.1:8b",
			"message": map[string]interface{}{"role": "assistant", "content": "## Executive Summary\nlocal"},
			"done":    true,
		})
	}))
	defer server.Close()

	cfg := &config.ProviderConfig{Provider: "ollama", BaseURL: server.URL + "/", MaxTokens: 2048}
	res, err := ollama.NewClient(cfg).Complete(context.Background(), port.CompletionRequest{SystemInstruction: "s", UserMessage: "u"})

	require.NoError(t, err)
	assert.Equal(t, "## Executive Summary\nlocal", res.Text)
	assert.Equal(t, "llama3.1:8b", res.Model)
}

func TestOllamaClient_Complete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"out of memory"}`))
	}))
	defer server.Close()

	_, err := ollama.NewClientWithEndpoint(&config.ProviderConfig{}, server.URL).Complete(context.Background(), port.CompletionRequest{})

	require.Error(t, err)
	assert.False(t, llm.IsUnavailable(err))
	assert.Contains(t, err.Error(), "out of memory")
}

func TestOllamaClient_Complete_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := ollama.NewClientWithEndpoint(&config.ProviderConfig{}, url).Complete(context.Background(), port.CompletionRequest{})

	assert.True(t, llm.IsUnavailable(err))
}
