// Package table canonicalizes the comparison table returned by the model.
package table

import (
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/jsontree"
	"github.com/jonathan/recruiter-insight/internal/types"
)

const (
	// KeyTableData is the canonical key of the comparison table.
	KeyTableData = "table_data"
	// KeyExtendedRows holds the inferred-only rows moved out of the table.
	KeyExtendedRows = "extended_rows"

	legacyTableKey = "table"
)

// Normalize rewrites doc so that its table has the canonical header followed
// by exactly the six canonical items in fixed order, each with four cells.
//
// Every "table" key is renamed to "table_data" unless that level already has
// one. The table is taken from the top level or, failing that, from the first
// "table_data" list found depth-first, and is replaced at the same location.
// Rows for inferred-only items are moved to the top-level "extended_rows".
// Normalize modifies doc in place and is idempotent.
func Normalize(doc map[string]any) map[string]any {
	if doc == nil {
		return doc
	}
	jsontree.RenameKey(doc, legacyTableKey, KeyTableData)

	var raw any
	if top, ok := doc[KeyTableData]; ok {
		raw = top
	} else if found, ok := jsontree.FindFirst(doc, jsontree.KeyIsList(KeyTableData)); ok {
		raw = found
	}

	rows, ok := raw.([]any)
	if !ok || len(rows) == 0 {
		zap.S().Debugw("no table to normalize")
		return doc
	}

	lookup := indexRows(rows)

	canonical := make([]any, 0, types.CanonicalRowCount)
	canonical = append(canonical, headerRow())
	for _, item := range types.CanonicalItems() {
		canonical = append(canonical, canonicalRow(item, lookup[item]))
	}

	var extended []any
	for _, item := range types.ExtendedItems() {
		if row, ok := lookup[item]; ok {
			extended = append(extended, canonicalRow(item, row))
		}
	}

	if _, ok := doc[KeyTableData]; ok {
		doc[KeyTableData] = canonical
	} else {
		jsontree.ReplaceFirst(doc, jsontree.KeyIsList(KeyTableData), canonical)
	}
	if len(extended) > 0 {
		doc[KeyExtendedRows] = extended
	}
	return doc
}

// indexRows maps the trimmed first cell of every data row to the row.
func indexRows(rows []any) map[string][]any {
	lookup := make(map[string][]any, len(rows))
	for _, r := range rows[1:] {
		row, ok := r.([]any)
		if !ok || len(row) == 0 {
			continue
		}
		label, ok := row[types.CellItem].(string)
		if !ok {
			continue
		}
		if key := strings.TrimSpace(label); key != "" {
			lookup[key] = row
		}
	}
	return lookup
}

// canonicalRow returns a four-cell copy of row labelled item. Missing cells
// are padded with "", and cells past the third are space-joined into the
// fourth.
func canonicalRow(item string, row []any) []any {
	out := make([]any, types.CellCount)
	for i := range out {
		out[i] = ""
	}
	if row != nil {
		limit := len(row)
		if limit > types.CellGap {
			limit = types.CellGap
		}
		copy(out, row[:limit])
		if len(row) > types.CellCount {
			out[types.CellGap] = joinCells(row[types.CellGap:])
		} else if len(row) == types.CellCount {
			out[types.CellGap] = row[types.CellGap]
		}
	}
	out[types.CellItem] = item
	return out
}

func joinCells(cells []any) string {
	parts := make([]string, 0, len(cells))
	for _, c := range cells {
		if c == nil {
			continue
		}
		parts = append(parts, types.NewFieldValue(c).Display())
	}
	return strings.Join(parts, " ")
}

func headerRow() []any {
	header := types.CanonicalHeader()
	out := make([]any, len(header))
	for i, h := range header {
		out[i] = h
	}
	return out
}
