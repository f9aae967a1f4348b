package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Snapshot is the reproducibility record of a configuration. It never
// carries credentials.
type Snapshot struct {
	Version             string         `json:"version"`
	Timestamp           string         `json:"timestamp"`
	Provider            string         `json:"llm_provider"`
	Model               string         `json:"model"`
	ConfidenceThreshold float64        `json:"confidence_threshold"`
	MaxSearchResults    int            `json:"max_search_results"`
	WebSearchEnabled    bool           `json:"web_search_enabled"`
	Temperatures        map[string]any `json:"temperatures"`
	MaxTokens           map[string]int `json:"max_tokens"`
	WebContextMaxChars  int            `json:"web_context_max_chars"`
	PromptFieldMaxChars int            `json:"prompt_field_max_chars"`
}

// NewSnapshot captures the reproducibility-relevant settings of c.
func (c *Config) NewSnapshot(version string, now time.Time) Snapshot {
	return Snapshot{
		Version:             version,
		Timestamp:           now.Format(time.RFC3339),
		Provider:            c.Provider,
		Model:               c.Model,
		ConfidenceThreshold: c.ConfidenceThreshold,
		MaxSearchResults:    c.MaxSearchResults,
		WebSearchEnabled:    c.WebSearchEnabled(),
		Temperatures: map[string]any{
			"layer1": c.TempLayer1,
			"layer2": c.TempLayer2,
			"layer3": c.TempLayer3,
		},
		MaxTokens: map[string]int{
			"layer1":       c.MaxTokensLayer1,
			"layer2":       c.MaxTokensLayer2,
			"layer3":       c.MaxTokensLayer3,
			"modification": c.MaxTokensModification,
		},
		WebContextMaxChars:  c.WebContextMaxChars,
		PromptFieldMaxChars: c.PromptFieldMaxChars,
	}
}

// SaveSnapshot writes <dir>/config_snapshot_<version>.json and returns its
// path.
func SaveSnapshot(c *Config, dir, version string) (string, error) {
	if version == "" {
		version = "v1.0"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	data, err := json.MarshalIndent(c.NewSnapshot(version, time.Now()), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("config_snapshot_%s.json", version))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return path, nil
}
