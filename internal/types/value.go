package types

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cast"

	"github.com/jonathan/recruiter-insight/internal/jsontree"
)

// FieldKind discriminates the shapes a model may use for a single field.
type FieldKind int

const (
	KindEmpty FieldKind = iota
	KindText
	KindSequence
	KindMapping
)

func (k FieldKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "empty"
	}
}

// FieldValue is a decoded JSON field coerced into one of three shapes.
// Sequence and Mapping elements are already rendered as trimmed text;
// null elements are dropped. Mapping entries are kept in natural key order.
type FieldValue struct {
	Kind  FieldKind
	Text  string
	Items []string
	Keys  []string
}

// NewFieldValue classifies a decoded JSON value.
func NewFieldValue(v any) FieldValue {
	switch val := v.(type) {
	case nil:
		return FieldValue{Kind: KindEmpty}
	case string:
		return FieldValue{Kind: KindText, Text: val}
	case []any:
		items := make([]string, 0, len(val))
		for _, el := range val {
			if el == nil {
				continue
			}
			items = append(items, strings.TrimSpace(scalarText(el)))
		}
		return FieldValue{Kind: KindSequence, Items: items}
	case []string:
		items := make([]string, 0, len(val))
		for _, el := range val {
			items = append(items, strings.TrimSpace(el))
		}
		return FieldValue{Kind: KindSequence, Items: items}
	case map[string]any:
		fv := FieldValue{Kind: KindMapping}
		for _, k := range jsontree.NaturalKeys(val) {
			if val[k] == nil {
				continue
			}
			fv.Keys = append(fv.Keys, k)
			fv.Items = append(fv.Items, strings.TrimSpace(scalarText(val[k])))
		}
		return fv
	default:
		return FieldValue{Kind: KindText, Text: scalarText(val)}
	}
}

// Join renders the value as text. Sequence and Mapping values join their
// element texts with sep; Text is returned unchanged.
func (f FieldValue) Join(sep string) string {
	switch f.Kind {
	case KindText:
		return f.Text
	case KindSequence, KindMapping:
		return strings.Join(f.Items, sep)
	default:
		return ""
	}
}

// Display renders the value for a table cell. Mapping entries keep their
// keys as "key：value" lines.
func (f FieldValue) Display() string {
	if f.Kind != KindMapping {
		return f.Join("\n")
	}
	lines := make([]string, len(f.Items))
	for i, item := range f.Items {
		lines[i] = f.Keys[i] + "：" + item
	}
	return strings.Join(lines, "\n")
}

// IsEmpty reports whether the value carries no content.
func (f FieldValue) IsEmpty() bool {
	switch f.Kind {
	case KindText:
		return f.Text == ""
	case KindSequence, KindMapping:
		return len(f.Items) == 0
	default:
		return true
	}
}

// Truthy reports whether a decoded JSON value counts as present: non-null,
// non-zero, non-false and non-empty.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return cast.ToString(val) != ""
	}
}

func scalarText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return cast.ToString(val)
	}
}
