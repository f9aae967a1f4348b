package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/types"
)

var validate = validator.New()

// Validator returns the shared struct validator.
func Validator() *validator.Validate {
	return validate
}

var comparisonRequired = []string{
	"content_b", "gap_analysis", "confidence_score", "uncertain_aspects", "reasoning",
}

// Comparison checks the required comparison fields and the confidence range.
func Comparison(raw map[string]any) (*types.ComparisonResult, error) {
	for _, field := range comparisonRequired {
		if _, ok := raw[field]; !ok {
			return nil, &Error{Field: field, Message: fmt.Sprintf("必須フィールド '%s' が欠落しています", field)}
		}
	}

	score, ok := raw["confidence_score"].(float64)
	if !ok || validate.Var(score, "gte=0,lte=1") != nil {
		return nil, &Error{
			Field:   "confidence_score",
			Message: fmt.Sprintf("confidence_scoreは0.0-1.0の範囲の数値である必要があります（現在: %v）", raw["confidence_score"]),
		}
	}

	result := &types.ComparisonResult{
		ContentB:           raw["content_b"],
		GapAnalysis:        raw["gap_analysis"],
		ConfidenceScore:    score,
		UncertainAspects:   raw["uncertain_aspects"],
		Reasoning:          raw["reasoning"],
		WebSearchPerformed: cast.ToBool(raw["web_search_performed"]),
	}
	if a, ok := raw["content_a"].(map[string]any); ok {
		result.ContentA = make(map[string]string, len(a))
		for k, v := range a {
			result.ContentA[k] = types.NewFieldValue(v).Display()
		}
	}

	zap.S().Infow("comparison validated", "confidence", score)
	return result, nil
}
