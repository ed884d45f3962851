package claude

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
	providerName = "claude"
	apiBaseURL   = "https://api.anthropic.com"
	apiPath      = "/v1/messages"
	apiVersion   = "2023-06-01"
)

// Client implements port.ModelClient using the Anthropic Messages API.
type Client struct {
	apiKey    string
	model     string
	maxTokens int
	endpoint  string
	client    *http.Client
}

// NewClient creates a Claude client from a provider config.
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
		model = "claude-sonnet-4-20250514"
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
		"model":      c.model,
		"max_tokens": c.maxTokens,
		"system":     req.SystemInstruction,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": req.UserMessage,
			},
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
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

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

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte, model string) (*port.CompletionResult, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("empty response from API")
	}

	if resp.Model != "" {
		model = resp.Model
	}
	return &port.CompletionResult{Text: text.String(), Model: model}, nil
}
