package llm

import (
	"fmt"
	"net/http"
)

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider   Provider
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
}

// RateLimited reports whether the status denotes throttling.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// TransportError is returned once the retry budget of a call is exhausted
// or a non-retryable provider failure occurs.
type TransportError struct {
	Provider    Provider
	Attempts    int
	RateLimited bool
	Cause       error
}

func (e *TransportError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("LLM APIのレート制限により処理を中断しました（%s, %d回試行）: %v", e.Provider, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("LLM APIエラー（%s, %d回試行）: %v", e.Provider, e.Attempts, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
