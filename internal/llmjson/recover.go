// Package llmjson recovers a single JSON object from free-form LLM output.
//
// Models wrap JSON in code fences, append commentary after the object, or
// emit several candidate objects. Recover tries progressively looser
// strategies before giving up with a MalformedOutputError.
package llmjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/jsontree"
)

// MaxAttempts is the number of direct/cleaned parse attempts made before the
// bracket-scan fallback.
const MaxAttempts = 3

// HeadLength is the number of runes of the raw response kept for diagnostics.
const HeadLength = 200

var errNotObject = errors.New("top-level JSON value is not an object")

// Recover parses text into a JSON object. The returned map has every
// "table" key renamed to "table_data" (see NormalizeTableKey).
func Recover(text string) (map[string]any, error) {
	log := zap.S()
	current := text
	var lastErr error

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		log.Debugw("parsing LLM JSON", "attempt", attempt, "max", MaxAttempts)

		obj, err := decodeObject(current)
		if err == nil {
			return NormalizeTableKey(obj), nil
		}
		lastErr = err

		// Trailing commentary after a complete object: keep the first object only.
		if isTrailingData(err) {
			if obj, offset, firstErr := decodeFirstObject(current); firstErr == nil {
				log.Infow("parsed first JSON object, discarding trailing data", "offset", offset)
				return NormalizeTableKey(obj), nil
			}
		}

		if attempt < MaxAttempts {
			log.Warnw("JSON parse failed, retrying after cleanup", "attempt", attempt, "error", err)
			current = StripFences(current)
		}
	}

	log.Warnw("JSON parse failed, scanning for candidate objects", "error", lastErr)
	if obj, ok := scanCandidates(text); ok {
		return NormalizeTableKey(obj), nil
	}

	return nil, &MalformedOutputError{Head: Head(text, HeadLength), Cause: lastErr}
}

// NormalizeTableKey renames every "table" key to "table_data" at all levels
// unless the level already carries "table_data".
func NormalizeTableKey(obj map[string]any) map[string]any {
	jsontree.RenameKey(obj, "table", "table_data")
	return obj
}

// StripFences removes a leading ```json or ``` marker and a trailing ```
// marker, then trims surrounding whitespace.
func StripFences(text string) string {
	cleaned := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(cleaned, "```json"):
		cleaned = cleaned[len("```json"):]
	case strings.HasPrefix(cleaned, "```"):
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// Head returns at most n runes of text, marking truncation with "...".
func Head(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func decodeObject(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}

// decodeFirstObject decodes the first JSON value of text and ignores
// whatever follows it. It returns the byte offset where decoding stopped.
func decodeFirstObject(text string) (map[string]any, int64, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, 0, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, 0, errNotObject
	}
	return obj, dec.InputOffset(), nil
}

func isTrailingData(err error) bool {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return false
	}
	return strings.Contains(syntaxErr.Error(), "after top-level value")
}

// scanCandidates walks from every '{' to its matching '}' while tracking
// string and escape state, and returns the first candidate that parses.
func scanCandidates(text string) (map[string]any, bool) {
	data := []byte(text)
	for start := bytes.IndexByte(data, '{'); start >= 0; {
		if end, ok := matchBrace(data, start); ok {
			if obj, err := decodeObject(string(data[start : end+1])); err == nil {
				return obj, true
			}
		}
		next := bytes.IndexByte(data[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

func matchBrace(data []byte, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(data); i++ {
		ch := data[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
