package optimization

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/jsontree"
	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/llmjson"
	"github.com/jonathan/recruiter-insight/internal/prompts"
	"github.com/jonathan/recruiter-insight/internal/types"
)

// TechOperation labels the technology specialization call.
const TechOperation = "tech_specialization"

// structuredMinRunes is the length above which a content-B containing the
// label separator is treated as already specialized.
const structuredMinRunes = 40

// LooksStructured reports whether a technology content-B is already a
// bulleted or labelled list.
func LooksStructured(s string) bool {
	if s == "" {
		return false
	}
	if strings.Contains(s, "\n-") {
		return true
	}
	hasLabel := strings.Contains(s, "：")
	return hasLabel && (strings.Contains(s, "\n") || len([]rune(s)) > structuredMinRunes)
}

// SpecializeTech replaces content-B of the technology row with a bulleted
// list of up to TechCount specialized entries. It reports whether the row
// was changed; a structured row is left alone without a model call.
func SpecializeTech(ctx context.Context, client llm.Client, doc *types.FinalDocument, opts Options) (bool, error) {
	row, ok := doc.Row(types.ItemTechnologies)
	if !ok || len(row) <= types.CellContentB {
		return false, nil
	}

	current := strings.TrimSpace(row[types.CellContentB])
	if LooksStructured(current) {
		zap.S().Infow("technology content-B already structured, skipping specialization")
		return false, nil
	}

	quoted, err := json.Marshal(current)
	if err != nil {
		return false, fmt.Errorf("failed to quote technology text: %w", err)
	}
	prompt, err := prompts.Render(prompts.Optimization, "specialize-tech", map[string]string{
		"TechCount": strconv.Itoa(opts.TechCount),
		"Current":   string(quoted),
	})
	if err != nil {
		return false, err
	}

	text, err := llm.Text(ctx, client, llm.Request{
		Prompt:          prompt,
		Temperature:     opts.Temperature,
		MaxOutputTokens: opts.TechMaxOutputTokens,
		Operation:       TechOperation,
	})
	if err != nil {
		return false, err
	}

	entries, err := llmjson.Recover(text)
	if err != nil {
		return false, err
	}

	lines := RenderTechList(entries)
	if len(lines) == 0 {
		return false, nil
	}
	row[types.CellContentB] = strings.Join(lines, "\n")
	zap.S().Infow("technology content-B specialized", "entries", len(lines))
	return true, nil
}

// RenderTechList renders ordinal-keyed entries as "- tech：purpose" lines in
// ordinal order. Entries may be objects with tech and purpose or bare values.
func RenderTechList(entries map[string]any) []string {
	var lines []string
	for _, key := range jsontree.NaturalKeys(entries) {
		var tech, purpose string
		if m, ok := entries[key].(map[string]any); ok {
			tech = strings.TrimSpace(cast.ToString(m["tech"]))
			purpose = strings.TrimSpace(cast.ToString(m["purpose"]))
		} else {
			tech = strings.TrimSpace(types.NewFieldValue(entries[key]).Display())
		}
		if tech == "" {
			continue
		}
		if purpose != "" {
			lines = append(lines, fmt.Sprintf("- %s：%s", tech, purpose))
		} else {
			lines = append(lines, "- "+tech)
		}
	}
	return lines
}
