package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruiter-insight/internal/types"
)

func tableWith(rows ...[]string) [][]string {
	return append([][]string{types.CanonicalHeader()}, rows...)
}

func TestTrailingParenthetical(t *testing.T) {
	assert.Equal(t, "（補足）", TrailingParenthetical("営業（補足）"))
	assert.Equal(t, "（法人）（補足）", TrailingParenthetical("営業（法人）（補足）"))
	assert.Equal(t, "", TrailingParenthetical("営業（法人）です"))
	assert.Equal(t, "", TrailingParenthetical("営業(half)"))
}

func TestWithNewAnnotation(t *testing.T) {
	assert.Equal(t, "Senior Sales Rep（補足）", WithNewAnnotation("Senior Sales Rep", "Account Manager（補足）"))
	assert.Equal(t, "営業（法人）", WithNewAnnotation("営業（法人）", "営業担当（法人）"))
	assert.Equal(t, "営業", WithNewAnnotation("営業", "別物"))
}

func TestProtectContentA_IdentityFields(t *testing.T) {
	original := tableWith(
		[]string{types.ItemJobTitle, "Senior Sales Rep", "B", "G"},
		[]string{types.ItemRole, "リーダー", "B", "G"},
	)
	modified := tableWith(
		[]string{types.ItemJobTitle, "Account Manager", "B2", "G2"},
		[]string{types.ItemRole, "リーダー（補足）", "B2", "G2"},
	)

	restored, err := ProtectContentA(original, modified)
	require.NoError(t, err)

	assert.Equal(t, "Senior Sales Rep", modified[1][types.CellContentA])
	assert.Equal(t, "リーダー", modified[2][types.CellContentA])
	assert.Equal(t, "B2", modified[1][types.CellContentB])
	assert.Len(t, restored, 2)
}

func TestProtectContentA_OtherFields(t *testing.T) {
	tests := []struct {
		name     string
		origA    string
		modA     string
		expected string
	}{
		{"destructive replacement restored", "Go", "Rust", "Go"},
		{"destructive with annotation", "Go", "Rust（具体例: API開発）", "Go（具体例: API開発）"},
		{"additive edit accepted", "Go", "Go（具体例: API開発）", "Go（具体例: API開発）"},
		{"empty original ignored", "", "Rust", "Rust"},
		{"annotation already in original", "Go（API）", "Rust（API）", "Go（API）"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tableWith([]string{types.ItemTechnologies, tt.origA, "", ""})
			modified := tableWith([]string{types.ItemTechnologies, tt.modA, "", ""})

			_, err := ProtectContentA(original, modified)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, modified[1][types.CellContentA])
		})
	}
}

func TestProtectContentA_ItemMissingInModified(t *testing.T) {
	original := tableWith([]string{types.ItemProduct, "SaaS", "", ""})
	modified := tableWith([]string{types.ItemRole, "x", "", ""})

	restored, err := ProtectContentA(original, modified)
	require.NoError(t, err)
	assert.Empty(t, restored)
	assert.Equal(t, "x", modified[1][types.CellContentA])
}

func TestProtectContentA_EmptyModified(t *testing.T) {
	original := tableWith([]string{types.ItemProduct, "SaaS", "", ""})

	_, err := ProtectContentA(original, tableWith())
	assert.ErrorIs(t, err, ErrNoDataRows)

	restored, err := ProtectContentA(tableWith(), tableWith())
	assert.NoError(t, err)
	assert.Empty(t, restored)
}

func TestProtectIdentity(t *testing.T) {
	rows := tableWith(
		[]string{types.ItemJobTitle, "営業職（BtoB）", "", ""},
		[]string{types.ItemRole, "マネージャー", "", ""},
		[]string{types.ItemProduct, "新しい値", "", ""},
	)
	contentA := map[string]string{types.ItemJobTitle: "法人営業", types.ItemRole: ""}

	restored := ProtectIdentity(rows, contentA)

	assert.Equal(t, "法人営業（BtoB）", rows[1][types.CellContentA])
	assert.Equal(t, "マネージャー", rows[2][types.CellContentA])
	assert.Equal(t, "新しい値", rows[3][types.CellContentA])
	require.Len(t, restored, 1)
	assert.Equal(t, types.ItemJobTitle, restored[0].Item)
}
