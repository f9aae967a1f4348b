// Package observability provides logging, metrics, and formatted output
// utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/recruiter-insight/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// maxCellRunes bounds how much of a table cell is echoed per line
	maxCellRunes = 40
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncateRunes(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncateRunes shortens s to at most n runes, marking the cut with "...".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// firstLine returns the first non-empty line of s.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

// PrintStructuredJob outputs the six extracted fields.
func (p *Printer) PrintStructuredJob(job *types.StructuredJob) {
	if job == nil {
		return
	}

	var sb strings.Builder
	for _, item := range types.CanonicalItems() {
		value := job.Get(item)
		if item == types.ItemProcess {
			steps := 0
			for _, line := range strings.Split(value, "\n") {
				if t := strings.TrimSpace(line); t != "" && t != types.StepGlyph {
					steps++
				}
			}
			sb.WriteString(fmt.Sprintf("%s: %d steps\n", item, steps))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", item, truncateRunes(firstLine(value), maxCellRunes)))
	}

	p.printBox("STRUCTURED JOB", sb.String())
}

// PrintComparison outputs the confidence and search status of a comparison.
func (p *Printer) PrintComparison(result *types.ComparisonResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	_, label := types.ConfidenceBand(result.ConfidenceScore)
	sb.WriteString(fmt.Sprintf("Confidence: %.2f (%s)\n", result.ConfidenceScore, label))
	sb.WriteString(fmt.Sprintf("Web search: %t\n", result.WebSearchPerformed))

	uncertain := types.NewFieldValue(result.UncertainAspects)
	if !uncertain.IsEmpty() {
		sb.WriteString("\nUncertain aspects:\n")
		lines := strings.Split(uncertain.Display(), "\n")
		count := min(len(lines), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", lines[i]))
		}
		if len(lines) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(lines)-maxItemsToShow))
		}
	}

	p.printBox("MARKET COMPARISON", sb.String())
}

// PrintFinalDocument outputs the table rows with a short preview per cell.
func (p *Printer) PrintFinalDocument(doc *types.FinalDocument) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	_, label := types.ConfidenceBand(doc.ConfidenceScore)
	sb.WriteString(fmt.Sprintf("Confidence: %.2f (%s)\n", doc.ConfidenceScore, label))
	sb.WriteString(fmt.Sprintf("Web search: %t\n", doc.WebSearchPerformed))
	sb.WriteString(fmt.Sprintf("Rows: %d\n", len(doc.TableData)))

	writeRows := func(rows [][]string) {
		for _, row := range rows {
			if len(row) <= types.CellItem {
				continue
			}
			sb.WriteString(fmt.Sprintf("\n[%s]\n", row[types.CellItem]))
			sb.WriteString(fmt.Sprintf("  A: %s\n", truncateRunes(firstLine(types.TrimmedCell(row, types.CellContentA)), maxCellRunes)))
			sb.WriteString(fmt.Sprintf("  B: %s\n", truncateRunes(firstLine(types.TrimmedCell(row, types.CellContentB)), maxCellRunes)))
		}
	}
	if len(doc.TableData) > 1 {
		writeRows(doc.TableData[1:])
	}
	writeRows(doc.ExtendedRows)

	p.printBox("FINAL DOCUMENT", sb.String())
}

// PrintModification outputs the change list of a modification.
func (p *Printer) PrintModification(resp *types.ModificationResponse) {
	if resp == nil {
		return
	}

	var sb strings.Builder
	if len(resp.ChangesMade) == 0 {
		sb.WriteString("No changes reported\n")
	}
	for _, change := range resp.ChangesMade {
		sb.WriteString(fmt.Sprintf("• %s\n", change.Item))
		if change.Reason != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", truncateRunes(change.Reason, maxCellRunes)))
		}
	}
	if resp.Timestamp != "" {
		sb.WriteString(fmt.Sprintf("\nAt: %s\n", resp.Timestamp))
	}

	p.printBox("MODIFICATION", sb.String())
}
