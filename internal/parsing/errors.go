package parsing

import (
	"fmt"

	"github.com/jonathan/recruiter-insight/internal/types"
	"github.com/jonathan/recruiter-insight/internal/validation"
)

// StructuringError wraps any Layer 1 failure. The business-process format
// failure renders the expected notation with an example.
type StructuringError struct {
	Cause error
}

func (e *StructuringError) Error() string {
	if validation.IsProcessFormat(e.Cause) {
		return "求人構造化に失敗しました: 業務プロセスのフォーマットが正しくありません。\n" +
			"期待される形式: 'プロセス／（アウトプット）\\n↓\\n...'\n" +
			"例:\n" + types.ProcessFormatExample
	}
	return fmt.Sprintf("求人構造化に失敗しました: %v", e.Cause)
}

func (e *StructuringError) Unwrap() error {
	return e.Cause
}
