package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/recruiter-insight/internal/db"
	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/llmjson"
	"github.com/jonathan/recruiter-insight/internal/session"
	"github.com/jonathan/recruiter-insight/internal/validation"
)

// Error codes of the JSON error envelope.
const (
	CodeBadRequest     = "bad_request"
	CodeUnauthorized   = "unauthorized"
	CodeForbidden      = "forbidden"
	CodeNotFound       = "not_found"
	CodeConflict       = "no_document"
	CodeValidation     = "validation_error"
	CodeUpstream       = "upstream_error"
	CodeMalformed      = "malformed_output"
	CodeRateLimited    = "rate_limit_exceeded"
	CodeInternal       = "internal_error"
	CodeNotConfigured  = "not_configured"
	CodeStreamingError = "streaming_unsupported"
)

// HTTPError is an error with an explicit status and code.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *HTTPError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Cause
}

// NewHTTPError returns an HTTPError without a cause.
func NewHTTPError(status int, code, message string) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message}
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine code and the human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Classify maps err to a status code and error code.
func Classify(err error) (int, string) {
	var httpErr *HTTPError
	var vErr *validation.Error
	var transportErr *llm.TransportError
	var malformedErr *llmjson.MalformedOutputError

	switch {
	case errors.As(err, &httpErr):
		return httpErr.Status, httpErr.Code
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity, CodeValidation
	case errors.As(err, &transportErr):
		return http.StatusBadGateway, CodeUpstream
	case errors.As(err, &malformedErr):
		return http.StatusBadGateway, CodeMalformed
	case errors.Is(err, session.ErrNotFound), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, session.ErrNoDocument):
		return http.StatusConflict, CodeConflict
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// HTTPStatus returns the status code for err.
func HTTPStatus(err error) int {
	status, _ := Classify(err)
	return status
}

func errorBody(err error) (int, ErrorBody) {
	status, code := Classify(err)
	message := err.Error()
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		message = httpErr.Message
	}
	return status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}}
}
