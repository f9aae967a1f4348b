package qa

import "fmt"

// AnswerError wraps a failure to answer a question.
type AnswerError struct {
	Cause error
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("質問応答に失敗しました: %v", e.Cause)
}

func (e *AnswerError) Unwrap() error {
	return e.Cause
}
