// Package ollama talks to a locally hosted model through the Ollama chat API. It needs
// no credentials; an unreachable host surfaces as llm.UnavailableError.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"clinsynth/internal/config"
	"clinsynth/internal/llm"
	"clinsynth/internal/port"
)

const (
	providerName = "ollama"
	apiBaseURL   = "http://localhost:11434"
	apiPath      = "/api/chat"
)

// Client implements port.ModelClient against a local Ollama server.
type Client struct {
	model     string
	maxTokens int
	endpoint  string
	client    *http.Client
}

// NewClient creates an Ollama client from a provider config.
func NewClient(cfg *config.ProviderConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = apiBaseURL
	}
	return NewClientWithEndpoint(cfg, strings.TrimRight(base, "/")+apiPath)
}

// NewClientWithEndpoint creates a client pointing at a custom endpoint (for testing).
func NewClientWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Client {
	model := cfg.DefaultModel
	if model == "" {
		model = "llama3.1"
	}
	// The hard deadline arrives through ctx from the chain; zero means no transport limit.
	return &Client{
		model:     model,
		maxTokens: cfg.MaxTokens,
		endpoint:  endpoint,
		client:    &http.Client{Timeout: cfg.Timeout(0)},
	}
}

func (c *Client) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResult, error) {
	reqBody := map[string]interface{}{
		"model":  c.model,
		"stream": false,
		"messages": []map[string]interface{}{
			{"role": "system", "content": req.SystemInstruction},
			{"role": "user", "content": req.UserMessage},
		},
	}
	if c.maxTokens > 0 {
		reqBody["options"] = map[string]interface{}{"num_predict": c.maxTokens}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, llm.ClassifyTransportError(providerName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.ClassifyTransportError(providerName, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, llm.ClassifyHTTPError(providerName, resp, respBody)
	}

	var out struct {
		Model   string `json:"model"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, llm.MalformedResponse(providerName, resp.StatusCode, fmt.Errorf("unmarshaling response: %w", err))
	}
	if out.Error != "" {
		return nil, llm.MalformedResponse(providerName, resp.StatusCode, fmt.Errorf("ollama error: %s", out.Error))
	}
	if strings.TrimSpace(out.Message.Content) == "" {
		return nil, llm.MalformedResponse(providerName, resp.StatusCode, fmt.Errorf("empty response from local model"))
	}

	model := c.model
	if out.Model != "" {
		model = out.Model
	}
	return &port.CompletionResult{Text: out.Message.Content, Model: model}, nil
}
