// Package export writes the comparison table as spreadsheet-friendly text.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/recruiter-insight/internal/types"
)

// BOM is written first so spreadsheet applications detect UTF-8.
const BOM = "\uFEFF"

// Format is an export file format.
type Format string

// Supported formats.
const (
	CSV Format = "csv"
	TSV Format = "tsv"
)

// ParseFormat accepts "csv" or "tsv" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, TSV:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q (expected csv or tsv)", s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == TSV {
		return "text/tab-separated-values; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// WriteTable writes the header and data rows of doc, followed by its
// extended rows. Cells keep embedded newlines.
func WriteTable(w io.Writer, doc *types.FinalDocument, format Format) error {
	if doc == nil || len(doc.TableData) == 0 {
		return fmt.Errorf("document has no table_data")
	}

	cw := csv.NewWriter(w)
	switch format {
	case CSV:
	case TSV:
		cw.Comma = '\t'
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}

	if _, err := io.WriteString(w, BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}
	if err := cw.WriteAll(doc.TableData); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	if len(doc.ExtendedRows) > 0 {
		if err := cw.WriteAll(doc.ExtendedRows); err != nil {
			return fmt.Errorf("failed to write extended rows: %w", err)
		}
	}
	return nil
}

// FileName returns the download name for a document export.
func FileName(base string, format Format) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "recruiter_insight"
	}
	return base + format.Extension()
}
