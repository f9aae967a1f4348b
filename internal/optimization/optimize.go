// Package optimization turns a comparison into the trainee-facing document:
// the canonical table, per-item explanations and a reading guide.
package optimization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/llmjson"
	"github.com/jonathan/recruiter-insight/internal/merge"
	"github.com/jonathan/recruiter-insight/internal/observability"
	"github.com/jonathan/recruiter-insight/internal/prompts"
	"github.com/jonathan/recruiter-insight/internal/table"
	"github.com/jonathan/recruiter-insight/internal/types"
	"github.com/jonathan/recruiter-insight/internal/validation"
)

// Operation labels the Layer 3 generation call.
const Operation = "optimization"

// Options tunes the optimization stage
type Options struct {
	Temperature         float32
	MaxOutputTokens     int
	TechCount           int
	TechBlacklist       []string
	TechMaxOutputTokens int
}

// DefaultOptions returns the default optimization settings
func DefaultOptions() Options {
	return Options{
		Temperature:         1,
		MaxOutputTokens:     3500,
		TechCount:           6,
		TechBlacklist:       []string{"Teams", "PowerPoint", "Excel", "Word", "Slack"},
		TechMaxOutputTokens: 800,
	}
}

var errNoTable = errors.New("table_data has no data rows")

// Optimize generates the final document from a comparison. The content-A
// and technology passes are best-effort: their failures are logged and the
// normalized, validated document is still returned.
func Optimize(ctx context.Context, client llm.Client, cmp *types.ComparisonResult, opts Options) (*types.FinalDocument, error) {
	doc, err := optimize(ctx, client, cmp, opts)
	if err != nil {
		observability.StageOutcomesTotal.WithLabelValues(Operation, "failure").Inc()
		zap.S().Errorw("optimization failed", "error", err)
		return nil, &OptimizationError{Cause: err}
	}
	observability.StageOutcomesTotal.WithLabelValues(Operation, "success").Inc()
	return doc, nil
}

func optimize(ctx context.Context, client llm.Client, cmp *types.ComparisonResult, opts Options) (*types.FinalDocument, error) {
	if cmp == nil {
		return nil, &validation.Error{Field: "comparison", Message: "比較データがありません"}
	}
	zap.S().Infow("optimization started", "confidence", cmp.ConfidenceScore)

	prompt, err := buildPrompt(cmp, opts)
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
	normalized := table.Normalize(raw)

	doc, err := types.FinalDocumentFromMap(normalized)
	if err != nil {
		return nil, &validation.Error{Field: "table_data", Message: err.Error()}
	}
	doc.ConfidenceScore = cmp.ConfidenceScore
	doc.WebSearchPerformed = cmp.WebSearchPerformed

	if err := applyContentAPass(doc, normalized["a_comments"], cmp.ContentA); err != nil {
		observability.BestEffortFailuresTotal.WithLabelValues("content_a").Inc()
		zap.S().Warnw("content-A pass failed, continuing", "error", err)
	}
	if _, err := SpecializeTech(ctx, client, doc, opts); err != nil {
		observability.BestEffortFailuresTotal.WithLabelValues("tech_specialization").Inc()
		zap.S().Warnw("technology specialization failed, continuing", "error", err)
	}

	if err := validation.FinalDocument(doc); err != nil {
		return nil, err
	}

	zap.S().Infow("optimization completed",
		"rows", len(doc.TableData), "extended_rows", len(doc.ExtendedRows),
		"explanations", len(doc.Explanations))
	return doc, nil
}

func buildPrompt(cmp *types.ComparisonResult, opts Options) (string, error) {
	data, err := json.MarshalIndent(cmp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal comparison: %w", err)
	}
	return prompts.Render(prompts.Optimization, "optimize", map[string]string{
		"Comparison":         string(data),
		"TechCount":          strconv.Itoa(opts.TechCount),
		"Blacklist":          strings.Join(opts.TechBlacklist, ", "),
		"ConfidenceScore":    strconv.FormatFloat(cmp.ConfidenceScore, 'f', -1, 64),
		"WebSearchPerformed": strconv.FormatBool(cmp.WebSearchPerformed),
	})
}

// applyContentAPass stores the model's content-A comments beside the table
// and restores the job title and role from the comparison's content_a.
// Content-A cells other than those two are never touched here.
func applyContentAPass(doc *types.FinalDocument, rawComments any, contentA map[string]string) error {
	if len(doc.TableData) < 2 {
		return errNoTable
	}

	comments := make(map[string]string)
	if m, ok := rawComments.(map[string]any); ok {
		for k, v := range m {
			if s, ok := v.(string); ok {
				comments[k] = strings.TrimRight(strings.TrimSpace(s), "。")
				continue
			}
			comments[k] = strings.TrimSpace(types.NewFieldValue(v).Display())
		}
	} else {
		for _, row := range doc.TableData[1:] {
			if len(row) > 0 {
				comments[row[types.CellItem]] = ""
			}
		}
	}
	doc.AComments = comments

	for _, r := range merge.ProtectIdentity(doc.TableData, contentA) {
		zap.S().Infow("restored protected content-A", "item", r.Item, "rejected", r.Rejected, "restored", r.Restored)
	}
	return nil
}
