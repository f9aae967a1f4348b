// Package session holds the per-user interaction state: the current
// document, its modification history and the QA conversation.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/recruiter-insight/internal/types"
)

// ErrNotFound is returned by stores for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// ErrNoDocument is returned when an operation needs a generated document.
var ErrNoDocument = errors.New("session has no document")

// Session is the mutable state of one user session. Nothing in it is shared
// across sessions.
type Session struct {
	ID            string                     `json:"id"`
	RunID         string                     `json:"run_id,omitempty"`
	Document      *types.FinalDocument       `json:"document,omitempty"`
	StructuredJob *types.StructuredJob       `json:"structured_job,omitempty"`
	Comparison    *types.ComparisonResult    `json:"comparison,omitempty"`
	Modifications []types.ModificationRecord `json:"modifications"`
	QAHistory     []types.QATurn             `json:"qa_history"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// New returns an empty session with a fresh id.
func New(now time.Time) *Session {
	return &Session{
		ID:            uuid.NewString(),
		Modifications: []types.ModificationRecord{},
		QAHistory:     []types.QATurn{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SetResult stores a fresh pipeline result. Earlier modifications and the
// QA conversation refer to the previous document and are cleared.
func (s *Session) SetResult(runID string, job *types.StructuredJob, cmp *types.ComparisonResult, doc *types.FinalDocument, now time.Time) {
	s.RunID = runID
	s.StructuredJob = job
	s.Comparison = cmp
	s.Document = doc.Clone()
	s.Modifications = []types.ModificationRecord{}
	s.QAHistory = []types.QATurn{}
	s.UpdatedAt = now
}

// ApplyModification replaces the document with a copy of the modified one
// and records the request.
func (s *Session) ApplyModification(request string, resp *types.ModificationResponse, now time.Time) error {
	if s.Document == nil {
		return ErrNoDocument
	}
	if resp == nil || resp.ModifiedOutput == nil {
		return errors.New("modification response has no document")
	}
	s.Document = resp.ModifiedOutput.Clone()

	changes := make([]types.Change, len(resp.ChangesMade))
	copy(changes, resp.ChangesMade)
	s.Modifications = append(s.Modifications, types.ModificationRecord{
		Request:   request,
		Changes:   changes,
		Timestamp: resp.Timestamp,
	})
	s.UpdatedAt = now
	return nil
}

// AppendQA adds one turn and trims the history to the limits.
func (s *Session) AppendQA(turn types.QATurn, maxItems, maxChars int, now time.Time) {
	s.QAHistory = TrimQAHistory(append(s.QAHistory, turn), maxItems, maxChars)
	s.UpdatedAt = now
}

// SetQAHistory replaces the history, typically with the one returned by a
// QA answer.
func (s *Session) SetQAHistory(history []types.QATurn, now time.Time) {
	s.QAHistory = append([]types.QATurn{}, history...)
	s.UpdatedAt = now
}

// Clone returns a deep copy suitable for handing to a store.
func (s *Session) Clone() *Session {
	out := *s
	out.Document = s.Document.Clone()
	if s.StructuredJob != nil {
		job := *s.StructuredJob
		out.StructuredJob = &job
	}
	out.Comparison = s.Comparison.Clone()
	out.Modifications = make([]types.ModificationRecord, len(s.Modifications))
	for i, m := range s.Modifications {
		m.Changes = append([]types.Change{}, m.Changes...)
		out.Modifications[i] = m
	}
	out.QAHistory = append([]types.QATurn{}, s.QAHistory...)
	return &out
}
