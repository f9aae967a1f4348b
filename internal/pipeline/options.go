package pipeline

import (
	"github.com/jonathan/recruiter-insight/internal/config"
	"github.com/jonathan/recruiter-insight/internal/modification"
	"github.com/jonathan/recruiter-insight/internal/qa"
)

// OptionsFromConfig maps the loaded configuration onto stage options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()

	opts.Structuring.Temperature = cfg.TempLayer1
	opts.Structuring.MaxOutputTokens = cfg.MaxTokensLayer1

	opts.Comparison.Temperature = cfg.TempLayer2
	opts.Comparison.MaxOutputTokens = cfg.MaxTokensLayer2
	opts.Comparison.ConfidenceThreshold = cfg.ConfidenceThreshold
	opts.Comparison.MaxSearchResults = cfg.MaxSearchResults
	opts.Comparison.WebContextMaxChars = cfg.WebContextMaxChars
	opts.Comparison.PromptFieldMaxChars = cfg.PromptFieldMaxChars

	opts.Optimization.Temperature = cfg.TempLayer3
	opts.Optimization.MaxOutputTokens = cfg.MaxTokensLayer3
	opts.Optimization.TechCount = cfg.TechDefaultCount
	if len(cfg.TechBlacklist) > 0 {
		opts.Optimization.TechBlacklist = cfg.TechBlacklist
	}
	return opts
}

// ModificationOptionsFromConfig maps the configuration onto modification settings.
func ModificationOptionsFromConfig(cfg *config.Config) modification.Options {
	opts := modification.DefaultOptions()
	opts.MaxOutputTokens = cfg.MaxTokensModification
	opts.TechCount = cfg.TechDefaultCount
	opts.TechFocus = cfg.TechFocusDefault
	if len(cfg.TechBlacklist) > 0 {
		opts.TechBlacklist = cfg.TechBlacklist
	}
	return opts
}

// QAOptionsFromConfig maps the configuration onto QA settings.
func QAOptionsFromConfig(cfg *config.Config) qa.Options {
	opts := qa.DefaultOptions()
	opts.Limits = qa.Limits{MaxItems: cfg.QAHistoryMaxItems, MaxChars: cfg.QAHistoryMaxChars}
	return opts
}
