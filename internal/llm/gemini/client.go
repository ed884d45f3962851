package gemini

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
	providerName = "gemini"
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
)

// Client implements port.ModelClient using the Gemini generateContent API.
type Client struct {
	apiKey    string
	model     string
	maxTokens int
	endpoint  string
	client    *http.Client
}

// NewClient creates a Gemini client from a provider config.
func NewClient(cfg *config.ProviderConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = apiBaseURL
	}
	model := modelName(cfg)
	return newClient(cfg, fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(base, "/"), model))
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func modelName(cfg *config.ProviderConfig) string {
	if cfg.DefaultModel == "" {
		return "gemini-2.0-flash"
	}
	return cfg.DefaultModel
}

func newClient(cfg *config.ProviderConfig, endpoint string) *Client {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 16384
	}
	return &Client{
		apiKey:    cfg.APIKey,
		model:     modelName(cfg),
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
		"systemInstruction": map[string]interface{}{
			"parts": []map[string]interface{}{
				{"text": req.SystemInstruction},
			},
		},
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{"text": req.UserMessage},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"maxOutputTokens": c.maxTokens,
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
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

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

// apiResponse models the Gemini generateContent API response.
type apiResponse struct {
	ModelVersion string `json:"modelVersion"`
	Candidates   []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte, model string) (*port.CompletionResult, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from API: no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("empty response from API: no parts")
	}

	if resp.ModelVersion != "" {
		model = resp.ModelVersion
	}
	return &port.CompletionResult{Text: text.String(), Model: model}, nil
}
