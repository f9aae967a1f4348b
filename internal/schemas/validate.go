// Package schemas validates persisted artifacts against their JSON Schemas.
package schemas

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	embedded "github.com/jonathan/recruiter-insight/schemas"
)

// Kind names an artifact with an embedded schema.
type Kind string

// Artifact kinds.
const (
	KindFinalDocument Kind = "final"
	KindStructuredJob Kind = "structured"
	KindComparison    Kind = "comparison"
)

var schemaFiles = map[Kind]string{
	KindFinalDocument: embedded.FinalDocument,
	KindStructuredJob: embedded.StructuredJob,
	KindComparison:    embedded.ComparisonResult,
}

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ParseKind maps a CLI/API kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schemaFiles[k]; !ok {
		return "", fmt.Errorf("unknown artifact kind %q (expected final, structured or comparison)", s)
	}
	return k, nil
}

// Validate checks data against the embedded schema of kind.
func Validate(kind Kind, data []byte) error {
	name, ok := schemaFiles[kind]
	if !ok {
		return fmt.Errorf("unknown artifact kind %q", kind)
	}
	schema, err := embedded.FS.ReadFile(name)
	if err != nil {
		return &SchemaLoadError{Path: name, Message: "embedded schema missing", Cause: err}
	}
	return validate(name, gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(data))
}

// ValidateFinalDocument checks a serialized FinalDocument.
func ValidateFinalDocument(data []byte) error {
	return Validate(KindFinalDocument, data)
}

// ValidateStructuredJob checks a serialized StructuredJob.
func ValidateStructuredJob(data []byte) error {
	return Validate(KindStructuredJob, data)
}

func validate(path string, schema, document gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schema, document)
	if err != nil {
		return &SchemaLoadError{
			Path:    path,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
