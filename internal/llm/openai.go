package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBodySnippet = 512

// OpenAIClient implements Client for OpenAI-compatible chat completions.
// It performs a single attempt per Call; retries live in RetryingClient.
type OpenAIClient struct {
	config *Config
	apiKey string
	hc     *http.Client
}

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(config *Config, apiKey string) *OpenAIClient {
	return &OpenAIClient{
		config: config,
		apiKey: apiKey,
		hc:     &http.Client{Timeout: config.RequestTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	Temperature         float32       `json:"temperature"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

// Call sends one chat completion request
func (c *OpenAIClient) Call(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessageOrDefault(req.SystemMessage)},
			{Role: "user", Content: req.Prompt},
		},
		Temperature:         req.Temperature,
		MaxCompletionTokens: req.MaxOutputTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(respBody)
		if len(snippet) > maxErrorBodySnippet {
			snippet = snippet[:maxErrorBodySnippet]
		}
		return nil, &StatusError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Body: snippet}
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	model := out.Model
	if model == "" {
		model = c.config.Model
	}
	return &Response{
		Text:  out.Choices[0].Message.Content,
		Model: model,
		Usage: out.Usage,
	}, nil
}

// Close releases resources held by the client
func (c *OpenAIClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}
