package modification

import "fmt"

// ModificationError wraps any failure of a modification request together
// with the state the handler was in.
type ModificationError struct {
	State State
	Cause error
}

func (e *ModificationError) Error() string {
	return fmt.Sprintf("修正依頼の処理に失敗しました: %v", e.Cause)
}

func (e *ModificationError) Unwrap() error {
	return e.Cause
}
