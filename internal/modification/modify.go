// Package modification applies user-requested edits to a final document
// while keeping the job posting's own statements intact.
package modification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/llmjson"
	"github.com/jonathan/recruiter-insight/internal/merge"
	"github.com/jonathan/recruiter-insight/internal/observability"
	"github.com/jonathan/recruiter-insight/internal/prompts"
	"github.com/jonathan/recruiter-insight/internal/table"
	"github.com/jonathan/recruiter-insight/internal/types"
	"github.com/jonathan/recruiter-insight/internal/validation"
)

// Operation labels the modification call.
const Operation = "modification"

// ProcessFormatError is reported when a request mentions the business
// process but does not follow the step/output notation.
const ProcessFormatError = "業務プロセスのフォーマットが正しくありません。期待される形式: 'プロセス／（アウトプット）\n↓\n...'"

var processRequest = regexp.MustCompile(`(?s).+[／/][(（].+[)）]\s*↓\s*.+`)

// Options tunes the modification call.
type Options struct {
	Temperature     float32
	MaxOutputTokens int
	TechCount       int
	TechFocus       string
	TechBlacklist   []string
	// Now stamps the response; defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the default modification settings
func DefaultOptions() Options {
	return Options{
		Temperature:     0.2,
		MaxOutputTokens: 3500,
		TechCount:       6,
		TechFocus:       "auto",
		TechBlacklist:   []string{"Teams", "PowerPoint", "Excel", "Word", "Slack"},
		Now:             time.Now,
	}
}

// Request is one modification request. A non-nil Flags selects template
// mode; Text is then appended as an extra instruction when present.
type Request struct {
	Text  string
	Flags *TemplateFlags
}

// CheckProcessFormat rejects a request that mentions the business process
// without using the "プロセス／（アウトプット）↓ ..." notation.
func CheckProcessFormat(request string) error {
	if !strings.Contains(request, types.ItemProcess) {
		return nil
	}
	if processRequest.MatchString(request) {
		return nil
	}
	return &validation.Error{Field: types.ItemProcess, Message: ProcessFormatError}
}

type handler struct {
	state State
	opts  Options
}

func (h *handler) enter(next State) {
	if !h.state.canTransition(next) {
		zap.S().Errorw("invalid modification state transition", "from", h.state, "to", next)
	}
	zap.S().Debugw("modification state", "from", h.state, "to", next)
	h.state = next
}

func (h *handler) fail(err error) error {
	failedIn := h.state
	h.enter(StateFailed)
	observability.StageOutcomesTotal.WithLabelValues(Operation, "failure").Inc()
	zap.S().Errorw("modification failed", "state", failedIn, "error", err)
	return &ModificationError{State: failedIn, Cause: err}
}

// Apply edits current according to req. current is never mutated; the
// response carries a new document whose content-A cells have been
// reconciled against current.
func Apply(ctx context.Context, client llm.Client, current *types.FinalDocument, req Request, opts Options) (*types.ModificationResponse, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	h := &handler{state: StateIdle, opts: opts}

	h.enter(StateFormatChecking)
	if current == nil {
		return nil, h.fail(&validation.Error{Field: "document", Message: "修正対象の出力がありません"})
	}
	if req.Flags == nil && strings.TrimSpace(req.Text) == "" {
		return nil, h.fail(&validation.Error{Field: "request", Message: "修正依頼が空です"})
	}
	if err := CheckProcessFormat(req.Text); err != nil {
		return nil, h.fail(err)
	}
	if req.Flags != nil {
		if err := req.Flags.Validate(); err != nil {
			return nil, h.fail(err)
		}
	}

	h.enter(StatePrompting)
	prompt, err := buildPrompt(current, req, opts)
	if err != nil {
		return nil, h.fail(err)
	}
	zap.S().Infow("modification started", "template", req.Flags != nil, "request_len", len([]rune(req.Text)))
	text, err := llm.Text(ctx, client, llm.Request{
		Prompt:          prompt,
		Temperature:     opts.Temperature,
		MaxOutputTokens: opts.MaxOutputTokens,
		Operation:       Operation,
	})
	if err != nil {
		return nil, h.fail(err)
	}

	h.enter(StateRecoveringJSON)
	raw, err := llmjson.Recover(text)
	if err != nil {
		return nil, h.fail(err)
	}
	modifiedRaw, ok := raw["modified_output"].(map[string]any)
	if !ok {
		return nil, h.fail(&validation.Error{Field: "modified_output", Message: "modified_outputが欠落しています"})
	}
	changes := parseChanges(raw["changes_made"])

	h.enter(StateMerging)
	modified, err := mergeDocument(current, modifiedRaw)
	if err != nil {
		return nil, h.fail(err)
	}

	h.enter(StateTimestamping)
	resp := &types.ModificationResponse{
		ModifiedOutput: modified,
		ChangesMade:    changes,
		Timestamp:      opts.Now().Format(time.RFC3339),
	}

	h.enter(StateDone)
	observability.StageOutcomesTotal.WithLabelValues(Operation, "success").Inc()
	for _, c := range changes {
		zap.S().Infow("modification change", "item", c.Item, "reason", c.Reason)
	}
	zap.S().Infow("modification completed", "changes", len(changes), "timestamp", resp.Timestamp)
	return resp, nil
}

func buildPrompt(current *types.FinalDocument, req Request, opts Options) (string, error) {
	document, err := marshalDocument(current)
	if err != nil {
		return "", err
	}

	if req.Flags == nil {
		return prompts.Render(prompts.Modification, "free-text", map[string]string{
			"Document": document,
			"Request":  req.Text,
		})
	}

	parts, err := templateParts(req.Flags, req.Text, opts)
	if err != nil {
		return "", err
	}
	return prompts.Render(prompts.Modification, "template", map[string]string{
		"Document": document,
		"Parts":    strings.Join(parts, "\n\n"),
	})
}

func marshalDocument(doc *types.FinalDocument) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// mergeDocument normalizes the model's document, fills keys it dropped from
// current and reconciles content-A. Confidence and the web-search flag are
// always carried over from current.
func mergeDocument(current *types.FinalDocument, modifiedRaw map[string]any) (*types.FinalDocument, error) {
	normalized := table.Normalize(modifiedRaw)

	base, err := current.ToMap()
	if err != nil {
		return nil, fmt.Errorf("failed to convert current document: %w", err)
	}
	for k, v := range base {
		if _, ok := normalized[k]; !ok {
			normalized[k] = v
		}
	}
	for _, k := range perItemKeys {
		fillItems(normalized, base, k)
	}

	modified, err := types.FinalDocumentFromMap(normalized)
	if err != nil {
		return nil, &validation.Error{Field: "modified_output", Message: err.Error()}
	}
	modified.ConfidenceScore = current.ConfidenceScore
	modified.WebSearchPerformed = current.WebSearchPerformed

	restored, err := merge.ProtectContentA(current.TableData, modified.TableData)
	if err != nil {
		observability.BestEffortFailuresTotal.WithLabelValues("content_a_merge").Inc()
		zap.S().Warnw("content-A merge skipped", "error", err)
	}
	for _, r := range restored {
		zap.S().Infow("restored content-A", "item", r.Item, "rejected", r.Rejected, "restored", r.Restored)
	}

	if err := validation.FinalDocument(modified); err != nil {
		return nil, err
	}
	return modified, nil
}

// parseChanges accepts a list of {item, reason} objects; anything else
// yields no changes.
func parseChanges(raw any) []types.Change {
	list, ok := raw.([]any)
	if !ok {
		return []types.Change{}
	}
	changes := make([]types.Change, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		changes = append(changes, types.Change{
			Item:   strings.TrimSpace(cast.ToString(m["item"])),
			Reason: strings.TrimSpace(cast.ToString(m["reason"])),
		})
	}
	return changes
}

// perItemKeys hold one entry per table item; a reply may return only the
// items it touched.
var perItemKeys = []string{"explanations", "a_comments"}

func fillItems(dst, base map[string]any, key string) {
	current, ok := base[key].(map[string]any)
	if !ok {
		return
	}
	got, ok := dst[key].(map[string]any)
	if !ok {
		dst[key] = current
		return
	}
	for item, v := range current {
		if _, ok := got[item]; !ok {
			got[item] = v
		}
	}
}
