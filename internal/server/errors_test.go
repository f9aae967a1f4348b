package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/recruiter-insight/internal/comparison"
	"github.com/jonathan/recruiter-insight/internal/db"
	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/llmjson"
	"github.com/jonathan/recruiter-insight/internal/parsing"
	"github.com/jonathan/recruiter-insight/internal/session"
	"github.com/jonathan/recruiter-insight/internal/validation"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"http error", NewHTTPError(http.StatusBadRequest, CodeBadRequest, "bad"), http.StatusBadRequest, CodeBadRequest},
		{"validation", &validation.Error{Field: "question", Message: "質問が空です"}, http.StatusUnprocessableEntity, CodeValidation},
		{"wrapped validation", &parsing.StructuringError{Cause: &validation.Error{Field: "役割"}}, http.StatusUnprocessableEntity, CodeValidation},
		{"transport", &comparison.ComparisonError{Cause: &llm.TransportError{Provider: llm.ProviderOpenAI, Cause: errors.New("timeout")}}, http.StatusBadGateway, CodeUpstream},
		{"malformed", &llmjson.MalformedOutputError{Head: "oops"}, http.StatusBadGateway, CodeMalformed},
		{"session missing", fmt.Errorf("load: %w", session.ErrNotFound), http.StatusNotFound, CodeNotFound},
		{"run missing", db.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"no document", session.ErrNoDocument, http.StatusConflict, CodeConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestErrorBody(t *testing.T) {
	status, body := errorBody(&HTTPError{Status: http.StatusForbidden, Code: CodeForbidden, Message: "別のセッションです", Cause: errors.New("hidden")})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, ErrorDetail{Code: CodeForbidden, Message: "別のセッションです"}, body.Error)

	_, body = errorBody(&parsing.StructuringError{Cause: errors.New("x")})
	assert.Contains(t, body.Error.Message, "求人構造化に失敗しました")
}
