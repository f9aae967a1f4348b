// Package schemas embeds the JSON Schemas of the persisted artifacts.
package schemas

import "embed"

// Schema file names.
const (
	FinalDocument    = "final_document.schema.json"
	StructuredJob    = "structured_job.schema.json"
	ComparisonResult = "comparison_result.schema.json"
)

//go:embed *.schema.json
var FS embed.FS
