package comparison

import "fmt"

// ComparisonError wraps any Layer 2 failure.
type ComparisonError struct {
	Cause error
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("比較分析に失敗しました: %v", e.Cause)
}

func (e *ComparisonError) Unwrap() error {
	return e.Cause
}
