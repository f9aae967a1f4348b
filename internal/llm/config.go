// Package llm provides the model-call collaborator used by every pipeline
// stage: provider clients, bounded retry, and token-usage accounting.
package llm

import "time"

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderOpenAI is any OpenAI-compatible chat completions endpoint
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// DefaultSystemMessage is sent when a request carries no system message.
// It pins the model to JSON-only output.
const DefaultSystemMessage = "あなたは採用コンサルタントです。出力は厳密にJSONのみとし、" +
	"説明文・マークダウン・注釈を一切含めないでください。"

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Model    string
	BaseURL  string

	// MaxRetries is the total number of attempts per call.
	MaxRetries int
	// RetryDelay is the fixed wait after a non rate-limit failure.
	RetryDelay time.Duration
	// RateLimitBaseDelay is multiplied by 2^attempt after a rate-limit failure.
	RateLimitBaseDelay time.Duration
	// RequestTimeout bounds a single HTTP attempt.
	RequestTimeout time.Duration

	// UsageLogPath is the JSONL token-usage file; empty disables the log.
	UsageLogPath string
}

// DefaultConfig returns the default configuration (OpenAI gpt-5-mini)
func DefaultConfig() *Config {
	return &Config{
		Provider:           ProviderOpenAI,
		Model:              "gpt-5-mini",
		BaseURL:            "https://api.openai.com/v1",
		MaxRetries:         3,
		RetryDelay:         2 * time.Second,
		RateLimitBaseDelay: time.Second,
		RequestTimeout:     120 * time.Second,
	}
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	cfg := DefaultConfig()
	cfg.Provider = ProviderGemini
	cfg.Model = "gemini-2.5-flash"
	cfg.BaseURL = ""
	return cfg
}

// WithModel returns a copy of the config using model
func (c *Config) WithModel(model string) *Config {
	cp := *c
	cp.Model = model
	return &cp
}
