package validation

import (
	"strings"

	"github.com/jonathan/recruiter-insight/internal/types"
)

// ProcessFormatMessage is reported when the business process cannot be
// coerced into newline- and glyph-separated steps.
const ProcessFormatMessage = "業務プロセスが正しいフォーマットではありません。ステップを改行と「↓」で区切って記述してください。"

var arrowReplacer = strings.NewReplacer("->", "\n", "→", "\n", "=>", "\n", "- ", "\n", "・", "\n")

// CoerceProcess converts a decoded business-process value into the canonical
// "step\n↓\nstep" form. Lists are joined in order, mappings by value in
// natural key order. A string missing either a newline or the step glyph is
// re-split on arrows, hyphen bullets and middle dots. The second result
// reports whether the outcome is well formed.
func CoerceProcess(v any) (string, bool) {
	fv := types.NewFieldValue(v)
	s := fv.Join(types.StepSeparator)

	if fv.Kind == types.KindText && !isStepFormatted(s) {
		if lines := splitSteps(s); len(lines) > 1 {
			s = strings.Join(lines, types.StepSeparator)
		}
	}
	return s, isStepFormatted(s)
}

// NormalizeSeparators surrounds every step glyph with newlines, removes
// blank lines and collapses repeated glyph lines.
func NormalizeSeparators(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, types.StepGlyph, types.StepSeparator)

	lines := make([]string, 0)
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		if ln == types.StepGlyph && len(lines) > 0 && lines[len(lines)-1] == types.StepGlyph {
			continue
		}
		lines = append(lines, ln)
	}
	return strings.Join(lines, "\n")
}

func isStepFormatted(s string) bool {
	return strings.Contains(s, "\n") && strings.Contains(s, types.StepGlyph)
}

func splitSteps(s string) []string {
	s = strings.ReplaceAll(s, types.StepGlyph, "\n")
	s = arrowReplacer.Replace(s)
	var lines []string
	for _, ln := range strings.Split(s, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}
