// Package config loads the application configuration from an optional JSON
// file and environment overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/jonathan/recruiter-insight/internal/llm"
)

// Duration is a time.Duration read from strings such as "2s" in both the
// JSON file and the environment.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds every tunable of the CLI and the HTTP server. Values come
// from Default, then the JSON file, then the environment.
type Config struct {
	// Model
	Provider      string `json:"llm_provider,omitempty" env:"LLM_PROVIDER"`
	Model         string `json:"llm_model,omitempty" env:"LLM_MODEL"`
	OpenAIAPIKey  string `json:"-" env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `json:"openai_base_url,omitempty" env:"OPENAI_BASE_URL"`
	GeminiAPIKey  string `json:"-" env:"GEMINI_API_KEY"`

	// Web search
	SerpAPIKey         string `json:"-" env:"SERPAPI_KEY"`
	GoogleSearchAPIKey string `json:"-" env:"GOOGLE_SEARCH_API_KEY"`
	GoogleSearchCX     string `json:"google_search_cx,omitempty" env:"GOOGLE_SEARCH_CX"`
	SearchCacheTTL     Duration `json:"search_cache_ttl" env:"SEARCH_CACHE_TTL"`

	// Comparison
	ConfidenceThreshold float64 `json:"confidence_threshold" env:"CONFIDENCE_THRESHOLD"`
	MaxSearchResults    int     `json:"max_search_results" env:"MAX_SEARCH_RESULTS"`
	WebContextMaxChars  int     `json:"web_context_max_chars" env:"WEB_CONTEXT_MAX_CHARS"`
	PromptFieldMaxChars int     `json:"prompt_field_max_chars" env:"PROMPT_FIELD_MAX_CHARS"`

	// Temperatures and token budgets per stage
	TempLayer1            float32 `json:"temp_layer1" env:"TEMP_LAYER1"`
	TempLayer2            float32 `json:"temp_layer2" env:"TEMP_LAYER2"`
	TempLayer3            float32 `json:"temp_layer3" env:"TEMP_LAYER3"`
	MaxTokensLayer1       int     `json:"max_tokens_layer1" env:"MAX_TOKENS_LAYER1"`
	MaxTokensLayer2       int     `json:"max_tokens_layer2" env:"MAX_TOKENS_LAYER2"`
	MaxTokensLayer3       int     `json:"max_tokens_layer3" env:"MAX_TOKENS_LAYER3"`
	MaxTokensModification int     `json:"max_tokens_modification" env:"MAX_TOKENS_MODIFICATION"`

	// QA and technology specialization
	QAHistoryMaxItems int      `json:"qa_history_max_items" env:"QA_HISTORY_MAX_ITEMS"`
	QAHistoryMaxChars int      `json:"qa_history_max_chars" env:"QA_HISTORY_MAX_CHARS"`
	TechDefaultCount  int      `json:"tech_default_count" env:"TECH_DEFAULT_COUNT"`
	TechFocusDefault  string   `json:"tech_focus_default" env:"TECH_FOCUS_DEFAULT"`
	TechBlacklist     []string `json:"tech_blacklist" env:"TECH_BLACKLIST" envSeparator:","`

	// Retry
	MaxRetries         int      `json:"max_retries" env:"MAX_RETRIES"`
	RetryDelay         Duration `json:"retry_delay" env:"RETRY_DELAY"`
	RateLimitBaseDelay Duration `json:"rate_limit_base_delay" env:"RATE_LIMIT_BASE_DELAY"`

	// Logging
	LogLevel string `json:"log_level,omitempty" env:"LOG_LEVEL"`
	LogDir   string `json:"log_dir,omitempty" env:"LOG_DIR"`
	Verbose  bool   `json:"verbose,omitempty" env:"VERBOSE"`

	// Storage
	DatabaseURL string   `json:"-" env:"DATABASE_URL"`
	RedisURL    string   `json:"-" env:"REDIS_URL"`
	SessionTTL  Duration `json:"session_ttl" env:"SESSION_TTL"`

	// Server
	Port               int    `json:"port" env:"PORT"`
	RateLimitPerMin    int    `json:"rate_limit_per_min" env:"RATE_LIMIT_PER_MIN"`
	UseBrowser         bool   `json:"use_browser,omitempty" env:"USE_BROWSER"`
	JWTSecret          string `json:"-" env:"JWT_SECRET"`
	JWTExpirationHours int    `json:"jwt_expiration_hours" env:"JWT_EXPIRATION_HOURS"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider:              string(llm.ProviderOpenAI),
		Model:                 "gpt-5-mini",
		OpenAIBaseURL:         "https://api.openai.com/v1",
		SearchCacheTTL:        Duration{24 * time.Hour},
		ConfidenceThreshold:   0.65,
		MaxSearchResults:      5,
		WebContextMaxChars:    3000,
		PromptFieldMaxChars:   3000,
		TempLayer1:            0,
		TempLayer2:            0,
		TempLayer3:            1,
		MaxTokensLayer1:       2000,
		MaxTokensLayer2:       2500,
		MaxTokensLayer3:       3500,
		MaxTokensModification: 3500,
		QAHistoryMaxItems:     10,
		QAHistoryMaxChars:     4000,
		TechDefaultCount:      6,
		TechFocusDefault:      "auto",
		TechBlacklist:         []string{"Teams", "PowerPoint", "Excel", "Word", "Slack"},
		MaxRetries:            3,
		RetryDelay:            Duration{2 * time.Second},
		RateLimitBaseDelay:    Duration{time.Second},
		LogLevel:              "info",
		LogDir:                "logs",
		SessionTTL:            Duration{2 * time.Hour},
		Port:                  8080,
		RateLimitPerMin:       30,
		JWTExpirationHours:    24,
	}
}

// LoadConfig loads configuration from a JSON file on top of the defaults.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return cfg, nil
}

// Read reads the optional JSON file at path and applies environment
// overrides without validating. Commands that never call the model use it.
func Read(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is Read followed by Validate.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the variables present in the environment.
// Unset variables leave the current values in place.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// APIKey returns the key of the selected provider.
func (c *Config) APIKey() string {
	if llm.Provider(c.Provider) == llm.ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// WebSearchEnabled reports whether any search backend is configured.
func (c *Config) WebSearchEnabled() bool {
	return c.SerpAPIKey != "" || (c.GoogleSearchAPIKey != "" && c.GoogleSearchCX != "")
}

// Validate checks that the configuration has valid values. Every problem is
// reported at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config error: "+format, args...))
	}

	switch llm.Provider(c.Provider) {
	case llm.ProviderOpenAI, llm.ProviderGemini:
		if c.APIKey() == "" {
			add("API key for provider %q is not set", c.Provider)
		}
	default:
		add("unknown llm_provider %q (expected openai or gemini)", c.Provider)
	}
	if strings.TrimSpace(c.Model) == "" {
		add("'llm_model' must not be empty")
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		add("'confidence_threshold' must be within [0, 1], got %v", c.ConfidenceThreshold)
	}
	if c.MaxSearchResults < 1 {
		add("'max_search_results' must be at least 1")
	}
	budgets := map[string]int{
		"max_tokens_layer1":       c.MaxTokensLayer1,
		"max_tokens_layer2":       c.MaxTokensLayer2,
		"max_tokens_layer3":       c.MaxTokensLayer3,
		"max_tokens_modification": c.MaxTokensModification,
	}
	for _, name := range []string{"max_tokens_layer1", "max_tokens_layer2", "max_tokens_layer3", "max_tokens_modification"} {
		if budgets[name] <= 0 {
			add("'%s' must be positive", name)
		}
	}
	if c.WebContextMaxChars <= 0 || c.PromptFieldMaxChars <= 0 {
		add("character limits must be positive")
	}
	if c.QAHistoryMaxItems < 0 || c.QAHistoryMaxChars < 0 {
		add("QA history limits must be non-negative")
	}
	if c.TechDefaultCount < 1 {
		add("'tech_default_count' must be at least 1")
	}
	if c.MaxRetries < 1 {
		add("'max_retries' must be at least 1")
	}

	return errors.Join(errs...)
}

// LLMConfig converts the model settings into an llm.Config.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	if llm.Provider(c.Provider) == llm.ProviderGemini {
		cfg = llm.DefaultGeminiConfig()
	}
	cfg.Model = c.Model
	if cfg.Provider == llm.ProviderOpenAI {
		cfg.BaseURL = c.OpenAIBaseURL
	}
	cfg.MaxRetries = c.MaxRetries
	cfg.RetryDelay = c.RetryDelay.Duration
	cfg.RateLimitBaseDelay = c.RateLimitBaseDelay.Duration
	if c.LogDir != "" {
		cfg.UsageLogPath = filepath.Join(c.LogDir, llm.UsageLogFileName)
	}
	return cfg
}

// Summary returns a short human-readable description of the settings.
func (c *Config) Summary() string {
	search := "無効"
	if c.WebSearchEnabled() {
		search = "有効"
	}
	return fmt.Sprintf("モデル: %s (%s)\n信頼度閾値: %.2f\n検索結果数: %d\nWeb検索: %s",
		c.Model, c.Provider, c.ConfidenceThreshold, c.MaxSearchResults, search)
}
