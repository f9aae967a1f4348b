// Package merge protects content-A cells of a trusted comparison table from
// destructive rewrites by the model.
package merge

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jonathan/recruiter-insight/internal/types"
)

// ErrNoDataRows is returned when the rewritten table has nothing to merge into.
var ErrNoDataRows = errors.New("modified table has no data rows")

var trailingParen = regexp.MustCompile(`（.+）$`)

// Restoration records one content-A cell put back to its trusted value.
type Restoration struct {
	Item     string
	Rejected string
	Restored string
}

// TrailingParenthetical returns the full-width parenthetical at the end of s,
// or "".
func TrailingParenthetical(s string) string {
	return trailingParen.FindString(strings.TrimSpace(s))
}

// WithNewAnnotation returns original, extended by the trailing parenthetical
// of generated when original does not already contain it.
func WithNewAnnotation(original, generated string) string {
	paren := TrailingParenthetical(generated)
	if paren != "" && !strings.Contains(original, paren) {
		return original + paren
	}
	return original
}

// ProtectIdentity forces content-A of the job title and role rows back to the
// values in contentA, keeping a new trailing parenthetical the model added.
// Rows are modified in place.
func ProtectIdentity(tableData [][]string, contentA map[string]string) []Restoration {
	var restored []Restoration
	for _, row := range dataRows(tableData) {
		item := row[types.CellItem]
		if !types.IsProtectedItem(item) || len(row) <= types.CellContentA {
			continue
		}
		original := lookupOriginal(contentA, item)
		if original == "" {
			continue
		}
		generated := strings.TrimSpace(row[types.CellContentA])
		value := WithNewAnnotation(original, generated)
		if value != row[types.CellContentA] {
			restored = append(restored, Restoration{Item: item, Rejected: row[types.CellContentA], Restored: value})
		}
		row[types.CellContentA] = value
	}
	return restored
}

// ProtectContentA reconciles modified against the trusted original table.
// For every item of original present in modified:
//   - job title and role get their original content-A back unconditionally;
//   - any other non-empty original content-A that is not a substring of the
//     modified one is restored, keeping a new trailing parenthetical;
//   - additive edits that still contain the original are accepted.
//
// Modified rows are changed in place; the header is left untouched.
func ProtectContentA(original, modified [][]string) ([]Restoration, error) {
	origRows := dataRows(original)
	if len(origRows) == 0 {
		return nil, nil
	}
	modRows := dataRows(modified)
	if len(modRows) == 0 {
		return nil, ErrNoDataRows
	}

	byItem := make(map[string][]string, len(modRows))
	for _, row := range modRows {
		byItem[row[types.CellItem]] = row
	}

	var restored []Restoration
	for _, origRow := range origRows {
		item := origRow[types.CellItem]
		modRow, ok := byItem[item]
		if !ok || len(origRow) <= types.CellContentA || len(modRow) <= types.CellContentA {
			continue
		}

		origA := strings.TrimSpace(origRow[types.CellContentA])
		modA := strings.TrimSpace(modRow[types.CellContentA])
		if origA == "" {
			continue
		}

		var value string
		switch {
		case types.IsProtectedItem(item):
			value = origA
		case !strings.Contains(modA, origA):
			value = WithNewAnnotation(origA, modA)
		default:
			continue
		}

		if value != modRow[types.CellContentA] {
			restored = append(restored, Restoration{Item: item, Rejected: modRow[types.CellContentA], Restored: value})
		}
		modRow[types.CellContentA] = value
	}
	return restored, nil
}

func dataRows(tableData [][]string) [][]string {
	if len(tableData) < 2 {
		return nil
	}
	rows := make([][]string, 0, len(tableData)-1)
	for _, row := range tableData[1:] {
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

// lookupOriginal also tries the label without full-width parentheses.
func lookupOriginal(contentA map[string]string, item string) string {
	if v := strings.TrimSpace(contentA[item]); v != "" {
		return v
	}
	bare := strings.NewReplacer("（", "", "）", "").Replace(item)
	return strings.TrimSpace(contentA[bare])
}
