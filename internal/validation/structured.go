package validation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/types"
)

// StructuredJob checks that all six items are present and non-empty and
// coerces the business process into step format. Non-string values of the
// other items are rendered as text.
func StructuredJob(raw map[string]any) (*types.StructuredJob, error) {
	for _, item := range types.CanonicalItems() {
		if !types.Truthy(raw[item]) {
			return nil, &Error{Field: item, Message: fmt.Sprintf("必須項目 '%s' が欠落しています", item)}
		}
	}

	job := &types.StructuredJob{}
	for _, item := range types.CanonicalItems() {
		if item == types.ItemProcess {
			continue
		}
		job.Set(item, types.NewFieldValue(raw[item]).Display())
	}

	process, ok := CoerceProcess(raw[types.ItemProcess])
	if !ok {
		return nil, &Error{Field: types.ItemProcess, Message: ProcessFormatMessage}
	}
	job.Process = process

	zap.S().Debugw("structured job validated")
	return job, nil
}
