// Package qa answers free-form questions about a generated document,
// keeping a bounded conversation history.
package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/observability"
	"github.com/jonathan/recruiter-insight/internal/prompts"
	"github.com/jonathan/recruiter-insight/internal/session"
	"github.com/jonathan/recruiter-insight/internal/types"
	"github.com/jonathan/recruiter-insight/internal/validation"
)

// Operation labels the QA call.
const Operation = "qa"

// Limits bounds the history sent to and returned from Answer.
type Limits struct {
	MaxItems int
	MaxChars int
}

// Options tunes the QA call.
type Options struct {
	Temperature     float32
	MaxOutputTokens int
	Limits          Limits
}

// DefaultOptions returns the default QA settings
func DefaultOptions() Options {
	return Options{
		Temperature:     0,
		MaxOutputTokens: 1500,
		Limits:          Limits{MaxItems: session.DefaultQAMaxItems, MaxChars: session.DefaultQAMaxChars},
	}
}

// Result is the answer and the trimmed history including the new turn.
type Result struct {
	Answer  string         `json:"answer"`
	History []types.QATurn `json:"history"`
}

// Answer asks the model about doc. The incoming history is trimmed before
// it is sent; the new turn is appended and the history trimmed again.
func Answer(ctx context.Context, client llm.Client, doc *types.FinalDocument, question string, history []types.QATurn, opts Options) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &validation.Error{Field: "question", Message: "質問が空です"}
	}
	if doc == nil {
		return nil, &validation.Error{Field: "document", Message: "参照する出力がありません"}
	}

	history = session.TrimQAHistory(history, opts.Limits.MaxItems, opts.Limits.MaxChars)

	prompt, err := buildPrompt(doc, question, history)
	if err != nil {
		return nil, &AnswerError{Cause: err}
	}
	system, err := prompts.Get(prompts.QA, "system")
	if err != nil {
		return nil, &AnswerError{Cause: err}
	}

	zap.S().Infow("qa started", "question_len", len([]rune(question)), "history", len(history))
	text, err := llm.Text(ctx, client, llm.Request{
		Prompt:          prompt,
		SystemMessage:   system,
		Temperature:     opts.Temperature,
		MaxOutputTokens: opts.MaxOutputTokens,
		Operation:       Operation,
	})
	if err != nil {
		observability.StageOutcomesTotal.WithLabelValues(Operation, "failure").Inc()
		zap.S().Errorw("qa failed", "error", err)
		return nil, &AnswerError{Cause: err}
	}
	observability.StageOutcomesTotal.WithLabelValues(Operation, "success").Inc()

	answer := strings.TrimSpace(text)
	history = append(history, types.QATurn{Q: question, A: answer})
	history = session.TrimQAHistory(history, opts.Limits.MaxItems, opts.Limits.MaxChars)

	zap.S().Infow("qa completed", "answer_len", len([]rune(answer)), "history", len(history))
	return &Result{Answer: answer, History: history}, nil
}

func buildPrompt(doc *types.FinalDocument, question string, history []types.QATurn) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	pairs := make([]string, 0, len(history))
	for _, turn := range history {
		pairs = append(pairs, fmt.Sprintf("Q: %s\nA: %s", turn.Q, turn.A))
	}

	return prompts.Render(prompts.QA, "answer", map[string]string{
		"Context":  strings.TrimRight(buf.String(), "\n"),
		"History":  strings.Join(pairs, "\n\n"),
		"Question": question,
	})
}
