// Package parsing extracts the six structured items from a free-text job
// posting.
package parsing

import (
	"context"
	"strings"

	"github.com/jonathan/recruiter-insight/internal/jsontree"
	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/llmjson"
	"github.com/jonathan/recruiter-insight/internal/observability"
	"github.com/jonathan/recruiter-insight/internal/prompts"
	"github.com/jonathan/recruiter-insight/internal/types"
	"github.com/jonathan/recruiter-insight/internal/validation"
	"go.uber.org/zap"
)

// Operation labels Layer 1 calls in logs and usage records.
const Operation = "structuring"

// Options tunes the structuring call
type Options struct {
	Temperature     float32
	MaxOutputTokens int
}

// DefaultOptions returns deterministic extraction settings
func DefaultOptions() Options {
	return Options{Temperature: 0, MaxOutputTokens: 2000}
}

// ExtractStructure sends the job posting to the model and returns the six
// validated items. The business process is coerced into step notation
// before validation.
func ExtractStructure(ctx context.Context, client llm.Client, jobText string, opts Options) (*types.StructuredJob, error) {
	job, err := extract(ctx, client, jobText, opts)
	if err != nil {
		observability.StageOutcomesTotal.WithLabelValues(Operation, "failure").Inc()
		zap.S().Errorw("structuring failed", "error", err)
		return nil, &StructuringError{Cause: err}
	}
	observability.StageOutcomesTotal.WithLabelValues(Operation, "success").Inc()
	return job, nil
}

func extract(ctx context.Context, client llm.Client, jobText string, opts Options) (*types.StructuredJob, error) {
	jobText = strings.TrimSpace(jobText)
	if jobText == "" {
		return nil, &validation.Error{Field: "job_text", Message: "求人テキストが空です"}
	}
	zap.S().Infow("structuring started", "input_chars", len([]rune(jobText)))

	prompt, err := prompts.Render(prompts.Structuring, "extract-structure", map[string]string{
		"JobText": jobText,
	})
	if err != nil {
		return nil, err
	}

	text, err := llm.Text(ctx, client, llm.Request{
		Prompt:          prompt,
		SystemMessage:   prompts.MustGet(prompts.Structuring, "system"),
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
	zap.S().Infow("structuring response parsed", "keys", jsontree.NaturalKeys(raw))

	normalizeProcess(raw)

	job, err := validation.StructuredJob(raw)
	if err != nil {
		return nil, err
	}
	zap.S().Infow("structuring completed", "job_title", job.JobTitle)
	return job, nil
}

// normalizeProcess rewrites the business process in place when it can be
// coerced. Values that cannot are left for the validator to reject.
func normalizeProcess(raw map[string]any) {
	v, ok := raw[types.ItemProcess]
	if !ok || !types.Truthy(v) {
		return
	}
	process, _ := validation.CoerceProcess(v)
	process = validation.NormalizeSeparators(process)
	if process != "" {
		raw[types.ItemProcess] = process
	}
}
