package optimization

import "fmt"

// OptimizationError wraps any unrecoverable Layer 3 failure.
type OptimizationError struct {
	Cause error
}

func (e *OptimizationError) Error() string {
	return fmt.Sprintf("教育最適化に失敗しました: %v", e.Cause)
}

func (e *OptimizationError) Unwrap() error {
	return e.Cause
}
