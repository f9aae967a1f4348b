package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// FinalDocument is the canonical comparison table handed to readers.
// TableData is nil when the source carried no table; Explanations is nil
// when absent. Both conditions are rejected by validation.
type FinalDocument struct {
	TableData          [][]string        `json:"table_data"`
	ExtendedRows       [][]string        `json:"extended_rows,omitempty"`
	Explanations       map[string]string `json:"explanations"`
	HowToRead          string            `json:"how_to_read"`
	ConfidenceScore    float64           `json:"confidence_score"`
	WebSearchPerformed bool              `json:"web_search_performed"`
	AComments          map[string]string `json:"a_comments,omitempty"`
}

// FinalDocumentFromMap converts a normalized JSON object into a FinalDocument,
// coercing loosely typed cells and values into strings.
func FinalDocumentFromMap(m map[string]any) (*FinalDocument, error) {
	doc := &FinalDocument{}

	if raw, ok := m["table_data"]; ok {
		rows, err := toRows(raw)
		if err != nil {
			return nil, fmt.Errorf("table_data: %w", err)
		}
		doc.TableData = rows
	}
	if raw, ok := m["extended_rows"]; ok {
		rows, err := toRows(raw)
		if err != nil {
			return nil, fmt.Errorf("extended_rows: %w", err)
		}
		doc.ExtendedRows = rows
	}
	if raw, ok := m["explanations"]; ok && raw != nil {
		doc.Explanations = toStringMap(raw)
	}
	if raw, ok := m["a_comments"]; ok && raw != nil {
		doc.AComments = toStringMap(raw)
	}

	doc.HowToRead = NewFieldValue(m["how_to_read"]).Join("\n")
	doc.ConfidenceScore = cast.ToFloat64(m["confidence_score"])
	doc.WebSearchPerformed = cast.ToBool(m["web_search_performed"])
	return doc, nil
}

// ToMap converts the document back into a generic JSON object.
func (d *FinalDocument) ToMap() (map[string]any, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Clone returns a deep copy; versions of a document never share rows.
func (d *FinalDocument) Clone() *FinalDocument {
	if d == nil {
		return nil
	}
	c := *d
	c.TableData = cloneRows(d.TableData)
	c.ExtendedRows = cloneRows(d.ExtendedRows)
	c.Explanations = cloneMap(d.Explanations)
	c.AComments = cloneMap(d.AComments)
	return &c
}

// Row returns the data row whose first cell equals item.
func (d *FinalDocument) Row(item string) ([]string, bool) {
	if len(d.TableData) < 2 {
		return nil, false
	}
	for _, row := range d.TableData[1:] {
		if len(row) > 0 && row[CellItem] == item {
			return row, true
		}
	}
	return nil, false
}

// Cell returns one cell of the row for item, or "" when absent.
func (d *FinalDocument) Cell(item string, cell int) string {
	row, ok := d.Row(item)
	if !ok || cell >= len(row) {
		return ""
	}
	return row[cell]
}

func toRows(raw any) ([][]string, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", raw)
	}
	rows := make([][]string, 0, len(list))
	for i, r := range list {
		cells, ok := r.([]any)
		if !ok {
			return nil, fmt.Errorf("row %d: expected array, got %T", i, r)
		}
		row := make([]string, len(cells))
		for j, c := range cells {
			row[j] = NewFieldValue(c).Display()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func toStringMap(raw any) map[string]string {
	src, ok := raw.(map[string]any)
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = NewFieldValue(v).Display()
	}
	return out
}

func cloneRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// TrimmedCell returns the trimmed cell text, tolerating short rows.
func TrimmedCell(row []string, cell int) string {
	if cell >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[cell])
}
