package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lingo_gateway/internal/features"
)

const (
	openAIDefaultBaseURL = "https://api.openai.com/v1"
	openAIDefaultTimeout = 60 * time.Second
)

// OpenAIClient implements Client against the OpenAI chat completions API.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// OpenAIConfig holds configuration for creating an OpenAI client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required for OpenAI client")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = openAIDefaultTimeout
	}

	return &OpenAIClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Generate sends a chat completion request and extracts the message content
// and token usage from the response.
func (c *OpenAIClient) Generate(ctx context.Context, spec *features.PromptSpec) (*GenerateResponse, error) {
	start := time.Now()

	payload := map[string]any{
		"model":       spec.Model,
		"temperature": spec.Temperature,
		"messages": []map[string]string{
			{"role": "system", "content": spec.System},
			{"role": "user", "content": spec.Prompt},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: Permanent, Message: "failed to marshal request", Cause: err}
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: Permanent, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		// Transport failures (timeouts, connection resets) count as
		// temporary unavailability.
		return nil, &Error{Kind: Transient, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: Transient, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, respBody)
	}

	output, usage, err := extractCompletion(respBody)
	if err != nil {
		return nil, &Error{Kind: Permanent, Message: "malformed completion payload", Cause: err}
	}

	return &GenerateResponse{
		Output:     output,
		UsageUnits: usage,
		Latency:    time.Since(start),
	}, nil
}

// Close cleans up resources.
func (c *OpenAIClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// classifyStatus tags a non-200 response as transient or permanent.
// Rate limiting and server-side errors are retryable; everything else is not.
func classifyStatus(status int, body []byte) *Error {
	kind := Permanent
	if status == http.StatusTooManyRequests || status >= 500 {
		kind = Transient
	}

	message := "request rejected"
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return &Error{Kind: kind, StatusCode: status, Message: message}
}

// extractCompletion pulls the first choice's message content and the total
// token usage out of a chat completion response.
func extractCompletion(body []byte) ([]byte, int, error) {
	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return nil, 0, err
	}
	if len(response.Choices) == 0 {
		return nil, 0, fmt.Errorf("response has no choices")
	}

	usage := response.Usage.TotalTokens
	if usage == 0 {
		usage = response.Usage.PromptTokens + response.Usage.CompletionTokens
	}

	return []byte(response.Choices[0].Message.Content), usage, nil
}
