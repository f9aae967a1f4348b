package session

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"

	"github.com/jonathan/recruiter-insight/internal/types"
)

// Default QA history bounds.
const (
	DefaultQAMaxItems = 10
	DefaultQAMaxChars = 4000
)

// TrimQAHistory keeps the newest maxItems turns, then drops the oldest until
// the total serialized size (in runes, one JSON object per turn) is within
// maxChars. The input slice is not modified.
func TrimQAHistory(history []types.QATurn, maxItems, maxChars int) []types.QATurn {
	if len(history) == 0 {
		return []types.QATurn{}
	}
	start := 0
	if maxItems >= 0 && len(history) > maxItems {
		start = len(history) - maxItems
	}
	trimmed := append([]types.QATurn{}, history[start:]...)

	sizes := make([]int, len(trimmed))
	total := 0
	for i, turn := range trimmed {
		sizes[i] = serializedLen(turn)
		total += sizes[i]
	}
	for total > maxChars && len(trimmed) > 0 {
		total -= sizes[0]
		sizes = sizes[1:]
		trimmed = trimmed[1:]
	}
	return trimmed
}

func serializedLen(turn types.QATurn) int {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(turn); err != nil {
		return utf8.RuneCountInString(turn.Q) + utf8.RuneCountInString(turn.A)
	}
	return utf8.RuneCount(bytes.TrimRight(buf.Bytes(), "\n"))
}
