package schemas

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruiter-insight/internal/types"
)

func validDocument() *types.FinalDocument {
	rows := [][]string{types.CanonicalHeader()}
	explanations := map[string]string{}
	for _, item := range types.CanonicalItems() {
		rows = append(rows, []string{item, "a", "b", "g"})
		explanations[item] = "e"
	}
	return &types.FinalDocument{
		TableData:       rows,
		Explanations:    explanations,
		HowToRead:       "h",
		ConfidenceScore: 0.7,
	}
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestValidateFinalDocument(t *testing.T) {
	short := validDocument()
	short.TableData = short.TableData[:5]

	narrow := validDocument()
	narrow.TableData[2] = []string{types.ItemRole, "a"}

	missingExplanation := validDocument()
	delete(missingExplanation.Explanations, types.ItemTechnologies)

	badScore := validDocument()
	badScore.ConfidenceScore = 1.5

	extended := validDocument()
	extended.ExtendedRows = [][]string{{types.ItemValueChain, "記載なし", "b", "g"}}

	tests := []struct {
		name    string
		doc     *types.FinalDocument
		wantErr bool
	}{
		{name: "valid", doc: validDocument()},
		{name: "with extended rows", doc: extended},
		{name: "short table", doc: short, wantErr: true},
		{name: "narrow row", doc: narrow, wantErr: true},
		{name: "missing explanation", doc: missingExplanation, wantErr: true},
		{name: "score out of range", doc: badScore, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFinalDocument(marshal(t, tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Errors)
		})
	}
}

func TestValidateStructuredJob(t *testing.T) {
	job := types.StructuredJob{JobTitle: "営業", Role: "r", Process: "p", Product: "x", Stakeholders: "s", Technologies: "t"}
	assert.NoError(t, ValidateStructuredJob(marshal(t, job)))

	err := ValidateStructuredJob([]byte(`{"求人票名": "営業", "役割": 3}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Errors), 2)
}

func TestValidate_Comparison(t *testing.T) {
	cmp := types.ComparisonResult{
		ContentA:         map[string]string{types.ItemJobTitle: "営業"},
		ContentB:         map[string]any{},
		GapAnalysis:      map[string]any{},
		ConfidenceScore:  0.4,
		UncertainAspects: []any{"x"},
		Reasoning:        "r",
	}
	assert.NoError(t, Validate(KindComparison, marshal(t, cmp)))
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := ValidateFinalDocument([]byte("{ invalid json }"))
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Final ")
	require.NoError(t, err)
	assert.Equal(t, KindFinalDocument, k)

	_, err = ParseKind("resume")
	assert.Error(t, err)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{{Field: "table_data", Message: "too short"}}}
	assert.Equal(t, "validation failed:\n  1. table_data: too short\n", err.Error())
}
