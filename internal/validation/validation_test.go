package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruiter-insight/internal/types"
)

func validJobMap() map[string]any {
	return map[string]any{
		types.ItemJobTitle:     "法人営業",
		types.ItemRole:         "メンバー",
		types.ItemProcess:      "設計\n↓\n試作",
		types.ItemProduct:      "SaaS",
		types.ItemStakeholders: "顧客",
		types.ItemTechnologies: "Salesforce",
	}
}

func TestStructuredJob_Valid(t *testing.T) {
	job, err := StructuredJob(validJobMap())
	require.NoError(t, err)
	assert.Equal(t, "法人営業", job.JobTitle)
	assert.Equal(t, "設計\n↓\n試作", job.Process)
}

func TestStructuredJob_MissingField(t *testing.T) {
	for _, item := range types.CanonicalItems() {
		t.Run(item, func(t *testing.T) {
			m := validJobMap()
			m[item] = ""

			_, err := StructuredJob(m)

			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, item, verr.Field)
		})
	}
}

func TestStructuredJob_ProcessCoercion(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"list", []any{"設計", "試作", "評価"}, "設計\n↓\n試作\n↓\n評価"},
		{"mapping", map[string]any{"2": "試作", "1": "設計"}, "設計\n↓\n試作"},
		{"arrows", "設計 → 試作 → 評価", "設計\n↓\n試作\n↓\n評価"},
		{"ascii arrows", "設計->試作=>評価", "設計\n↓\n試作\n↓\n評価"},
		{"hyphen bullets", "- 設計 - 試作", "設計\n↓\n試作"},
		{"middle dots", "・設計・試作", "設計\n↓\n試作"},
		{"lines without glyph", "設計\n試作", "設計\n↓\n試作"},
		{"inline glyph", "設計↓試作", "設計\n↓\n試作"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validJobMap()
			m[types.ItemProcess] = tt.value

			job, err := StructuredJob(m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, job.Process)
		})
	}
}

func TestStructuredJob_ProcessFormatError(t *testing.T) {
	m := validJobMap()
	m[types.ItemProcess] = "設計のみ"

	_, err := StructuredJob(m)

	require.Error(t, err)
	assert.True(t, IsProcessFormat(err))
	assert.Contains(t, err.Error(), ProcessFormatMessage)
}

func TestStructuredJob_NonStringFields(t *testing.T) {
	m := validJobMap()
	m[types.ItemTechnologies] = []any{"Go", "PostgreSQL"}

	job, err := StructuredJob(m)
	require.NoError(t, err)
	assert.Equal(t, "Go\nPostgreSQL", job.Technologies)
}

func TestNormalizeSeparators(t *testing.T) {
	assert.Equal(t, "a\n↓\nb", NormalizeSeparators("a↓b"))
	assert.Equal(t, "a\n↓\nb", NormalizeSeparators("a\r\n\n↓\n\nb"))
	assert.Equal(t, "a\n↓\nb", NormalizeSeparators("a\n↓\n↓\nb"))
	assert.Equal(t, "a\n↓\nb", NormalizeSeparators("a\n↓\nb"))
}

func comparisonMap(score any) map[string]any {
	return map[string]any{
		"content_a":         map[string]any{types.ItemJobTitle: "営業"},
		"content_b":         map[string]any{},
		"gap_analysis":      map[string]any{},
		"confidence_score":  score,
		"uncertain_aspects": []any{},
		"reasoning":         "r",
	}
}

func TestComparison(t *testing.T) {
	tests := []struct {
		name    string
		score   any
		wantErr bool
	}{
		{"standard", 0.65, false},
		{"zero", 0.0, false},
		{"one", 1.0, false},
		{"above range", 1.5, true},
		{"negative", -0.1, true},
		{"string", "0.7", true},
		{"null", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Comparison(comparisonMap(tt.score))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "営業", res.ContentA[types.ItemJobTitle])
		})
	}
}

func TestComparison_MissingField(t *testing.T) {
	m := comparisonMap(0.7)
	delete(m, "reasoning")

	_, err := Comparison(m)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "reasoning", verr.Field)
}

func canonicalDoc(dataRows int) *types.FinalDocument {
	rows := [][]string{types.CanonicalHeader()}
	items := append(types.CanonicalItems(), types.ExtendedItems()...)
	for i := 0; i < dataRows; i++ {
		rows = append(rows, []string{items[i%len(items)], "A", "B", "G"})
	}
	expl := map[string]string{}
	for _, item := range types.CanonicalItems() {
		expl[item] = "説明"
	}
	return &types.FinalDocument{TableData: rows, Explanations: expl}
}

func TestFinalDocument_Autopad(t *testing.T) {
	doc := canonicalDoc(5)

	require.NoError(t, FinalDocument(doc))

	require.Len(t, doc.TableData, types.CanonicalRowCount)
	assert.Equal(t, []string{"", "", "", ""}, doc.TableData[6])
}

func TestFinalDocument_TooManyRows(t *testing.T) {
	err := FinalDocument(canonicalDoc(7))

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "table_data", verr.Field)
}

func TestFinalDocument_Errors(t *testing.T) {
	t.Run("missing table", func(t *testing.T) {
		assert.Error(t, FinalDocument(&types.FinalDocument{}))
		assert.Error(t, FinalDocument(nil))
	})

	t.Run("bad header width", func(t *testing.T) {
		doc := canonicalDoc(6)
		doc.TableData[0] = []string{"a", "b", "c"}
		assert.Error(t, FinalDocument(doc))
	})

	t.Run("missing explanations", func(t *testing.T) {
		doc := canonicalDoc(6)
		doc.Explanations = nil
		assert.Error(t, FinalDocument(doc))
	})

	t.Run("missing explanation item", func(t *testing.T) {
		doc := canonicalDoc(6)
		delete(doc.Explanations, types.ItemTechnologies)
		err := FinalDocument(doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), types.ItemTechnologies)
	})

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, FinalDocument(canonicalDoc(6)))
	})
}

func TestIsProcessFormat_MissingProcessIsNotFormatError(t *testing.T) {
	m := validJobMap()
	delete(m, types.ItemProcess)

	_, err := StructuredJob(m)

	require.Error(t, err)
	assert.False(t, IsProcessFormat(err))
}
