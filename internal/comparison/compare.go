// Package comparison builds the market-reality comparison of a structured
// job, optionally grounded with web search context when the model is unsure.
package comparison

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/llmjson"
	"github.com/jonathan/recruiter-insight/internal/observability"
	"github.com/jonathan/recruiter-insight/internal/prompts"
	"github.com/jonathan/recruiter-insight/internal/research"
	"github.com/jonathan/recruiter-insight/internal/types"
	"github.com/jonathan/recruiter-insight/internal/validation"
)

// Operation labels Layer 2 calls.
const Operation = "comparison"

// Options tunes the comparison stage
type Options struct {
	Temperature         float32
	MaxOutputTokens     int
	ConfidenceThreshold float64
	MaxSearchResults    int
	WebContextMaxChars  int
	PromptFieldMaxChars int
}

// DefaultOptions returns the default comparison settings
func DefaultOptions() Options {
	return Options{
		Temperature:         0,
		MaxOutputTokens:     2500,
		ConfidenceThreshold: 0.65,
		MaxSearchResults:    5,
		WebContextMaxChars:  3000,
		PromptFieldMaxChars: 3000,
	}
}

// Build compares the structured job against typical market reality. When
// the first pass scores below the confidence threshold and a searcher is
// available, a second pass grounded in web results replaces it; a failed
// second pass keeps the first. The result's content_a always echoes job.
func Build(ctx context.Context, client llm.Client, searcher research.Searcher,
	job *types.StructuredJob, category string, opts Options) (*types.ComparisonResult, error) {
	result, err := build(ctx, client, searcher, job, category, opts)
	if err != nil {
		observability.StageOutcomesTotal.WithLabelValues(Operation, "failure").Inc()
		zap.S().Errorw("comparison failed", "error", err)
		return nil, &ComparisonError{Cause: err}
	}
	observability.StageOutcomesTotal.WithLabelValues(Operation, "success").Inc()
	return result, nil
}

func build(ctx context.Context, client llm.Client, searcher research.Searcher,
	job *types.StructuredJob, category string, opts Options) (*types.ComparisonResult, error) {
	if job == nil {
		return nil, &validation.Error{Field: "structured_job", Message: "構造化データがありません"}
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = job.JobTitle
	}
	zap.S().Infow("comparison started", "category", category)

	result, err := pass(ctx, client, job, category, "", opts)
	if err != nil {
		return nil, err
	}
	result.WebSearchPerformed = false
	zap.S().Infow("comparison first pass", "confidence", result.ConfidenceScore)

	if result.ConfidenceScore < opts.ConfidenceThreshold && searcher != nil {
		zap.S().Infow("confidence below threshold, running web search",
			"confidence", result.ConfidenceScore, "threshold", opts.ConfidenceThreshold)

		webContext := research.DualSearch(ctx, searcher, category, opts.MaxSearchResults, opts.WebContextMaxChars)
		webContext = validation.SanitizeExternal(webContext, "web_search")

		grounded, gerr := pass(ctx, client, job, category, webContext, opts)
		if gerr != nil {
			observability.BestEffortFailuresTotal.WithLabelValues("comparison_web_pass").Inc()
			zap.S().Warnw("web-grounded comparison failed, keeping first pass", "error", gerr)
		} else {
			grounded.WebSearchPerformed = true
			result = grounded
			zap.S().Infow("comparison web pass", "confidence", result.ConfidenceScore)
		}
	}

	result.ContentA = job.AsMap()
	zap.S().Infow("comparison completed",
		"confidence", result.ConfidenceScore, "web_search_performed", result.WebSearchPerformed)
	return result, nil
}

func pass(ctx context.Context, client llm.Client, job *types.StructuredJob, category, webContext string,
	opts Options) (*types.ComparisonResult, error) {
	prompt, err := buildPrompt(job, category, webContext, opts.PromptFieldMaxChars)
	if err != nil {
		return nil, err
	}

	text, err := llm.Text(ctx, client, llm.Request{
		Prompt:          prompt,
		Temperature:     opts.Temperature,
		MaxOutputTokens: opts.MaxOutputTokens,
		Operation:       Operation,
	})
	if err != nil {
		return nil, err
	}

	raw, err := llmjson.Recover(text)
	if err != nil {
		return nil, err
	}
	return validation.Comparison(raw)
}

func buildPrompt(job *types.StructuredJob, category, webContext string, fieldMax int) (string, error) {
	fields := make(map[string]string, 6)
	for item, value := range job.AsMap() {
		fields[item] = truncate(value, fieldMax)
	}
	jobJSON, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal structured job: %w", err)
	}

	section := ""
	if webContext != "" {
		section, err = prompts.Render(prompts.Comparison, "web-context", map[string]string{
			"Results": validation.QuoteExternalContentWithLabel(webContext, "web search results"),
		})
		if err != nil {
			return "", err
		}
	}

	return prompts.Render(prompts.Comparison, "compare", map[string]string{
		"StructuredJob":      string(jobJSON),
		"Category":           category,
		"WebContext":         section,
		"WebSearchPerformed": strconv.FormatBool(webContext != ""),
	})
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
