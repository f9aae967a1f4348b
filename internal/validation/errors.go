// Package validation provides the acceptance gates applied to every stage
// output before it is handed to the next stage.
package validation

import (
	"errors"
	"fmt"
)

// Error reports a missing or malformed field in a parsed stage output.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// IsProcessFormat reports whether err is the business-process format failure.
func IsProcessFormat(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Message == ProcessFormatMessage
}
