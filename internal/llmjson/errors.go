package llmjson

import "fmt"

// MalformedOutputError is returned when no strategy could coerce the model
// response into a JSON object. Head holds the beginning of the response.
type MalformedOutputError struct {
	Head  string
	Cause error
}

func (e *MalformedOutputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("JSON解析に失敗しました: %v\n応答: %s", e.Cause, e.Head)
	}
	return fmt.Sprintf("JSON解析に失敗しました\n応答: %s", e.Head)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Cause
}
