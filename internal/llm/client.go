package llm

import (
	"context"
	"fmt"
)

// Request is a single model invocation.
type Request struct {
	Prompt          string
	SystemMessage   string
	Temperature     float32
	MaxOutputTokens int
	// Operation labels the call in logs, metrics and the usage log.
	Operation string
}

// Usage is the token accounting reported by the provider. Zero values mean
// the provider did not report usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the text returned by the model.
type Response struct {
	Text  string
	Model string
	Usage *Usage
}

// Client is an abstraction over LLM providers
type Client interface {
	// Call sends one request and returns the model text
	Call(ctx context.Context, req Request) (*Response, error)
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a provider client wrapped with retry and usage logging
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	var provider Client
	var err error
	switch config.Provider {
	case ProviderGemini:
		provider, err = NewGeminiClient(ctx, config, apiKey)
	case ProviderOpenAI, "":
		provider, err = NewOpenAIClient(config, apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	var usage *UsageLog
	if config.UsageLogPath != "" {
		usage = NewUsageLog(config.UsageLogPath)
	}
	return NewRetryingClient(provider, config, usage), nil
}

// Text is a convenience wrapper returning only the response text.
func Text(ctx context.Context, c Client, req Request) (string, error) {
	resp, err := c.Call(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func systemMessageOrDefault(msg string) string {
	if msg == "" {
		return DefaultSystemMessage
	}
	return msg
}
