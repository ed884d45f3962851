package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clinsynth/internal/config"
	"clinsynth/internal/llm"
	"clinsynth/internal/port"
)

const (
	providerName = "openai"
	apiBaseURL   = "https://api.openai.com"
	apiPath      = "/v1/chat/completions"
)

// Client implements port.ModelClient using the OpenAI Chat Completions API.
type Client struct {
	apiKey    string
	model     string
	maxTokens int
	endpoint  string
	client    *http.Client
}

// NewClient creates an OpenAI client from a provider config.
func NewClient(cfg *config.ProviderConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = apiBaseURL
	}
	return newClient(cfg, strings.TrimRight(base, "/")+apiPath)
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.ProviderConfig, endpoint string) *Client {
	model := cfg.DefaultModel
	if model == "" {
		model = "gpt-4o"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 16384
	}
	return &Client{
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: maxTokens,
		endpoint:  endpoint,
		client:    &http.Client{Timeout: cfg.Timeout(300 * time.Second)},
	}
}

func (c *Client) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResult, error) {
	if c.apiKey == "" {
		return nil, llm.NotConfigured(providerName)
	}

	reqBody := map[string]interface{}{
		"model":                 c.model,
		"max_completion_tokens": c.maxTokens,
		"messages": []map[string]interface{}{
			{"role": "system", "content": req.SystemInstruction},
			{"role": "user", "content": req.UserMessage},
		},
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
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

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

	res, err := parseResponse(respBody, c.model)
	if err != nil {
		return nil, llm.MalformedResponse(providerName, resp.StatusCode, err)
	}
	return res, nil
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte, model string) (*port.CompletionResult, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty response from API: no content")
	}

	if resp.Model != "" {
		model = resp.Model
	}
	return &port.CompletionResult{Text: text, Model: model}, nil
}
