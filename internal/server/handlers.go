package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/export"
	"github.com/jonathan/recruiter-insight/internal/modification"
	"github.com/jonathan/recruiter-insight/internal/pipeline"
	"github.com/jonathan/recruiter-insight/internal/pipeline/steps"
	"github.com/jonathan/recruiter-insight/internal/qa"
	"github.com/jonathan/recruiter-insight/internal/server/middleware"
	"github.com/jonathan/recruiter-insight/internal/session"
	"github.com/jonathan/recruiter-insight/internal/types"
	"github.com/jonathan/recruiter-insight/internal/validation"
)

// GenerateRequest is the body of the generate endpoints.
type GenerateRequest struct {
	JobText  string `json:"job_text" validate:"required_without=URL,max=100000"`
	URL      string `json:"url" validate:"omitempty,url"`
	Category string `json:"category" validate:"max=100"`
}

// ModifyRequest is the body of POST /sessions/{id}/modify.
type ModifyRequest struct {
	Request       string                      `json:"request" validate:"max=5000"`
	TemplateFlags *modification.TemplateFlags `json:"template_flags,omitempty"`
}

// AskRequest is the body of POST /sessions/{id}/ask.
type AskRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

// SessionResponse is the body returned by POST /sessions.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionView is a session snapshot with the display band of its
// confidence score.
type SessionView struct {
	*session.Session
	ConfidenceColor string `json:"confidence_color,omitempty"`
	ConfidenceLabel string `json:"confidence_label,omitempty"`
}

// RunView is the body returned by GET /runs/{id}.
type RunView struct {
	Run          any      `json:"run"`
	Steps        any      `json:"steps"`
	Artifacts    any      `json:"artifacts"`
	BlockedSteps []string `json:"blocked_steps"`
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session) error

// withSession checks that the token subject owns the path session, holds
// the session lock for the duration of the handler and loads the session.
func (s *Server) withSession(h sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if subject, err := middleware.GetSessionID(r); err != nil || subject != id {
			s.writeError(w, NewHTTPError(http.StatusForbidden, CodeForbidden, "このセッションへのアクセス権がありません"))
			return
		}

		mu := s.sessionLock(id)
		mu.Lock()
		defer mu.Unlock()

		sess, err := s.sessions.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				s.dropSessionLock(id)
			}
			s.writeError(w, err)
			return
		}
		if err := h(w, r, sess); err != nil {
			s.writeError(w, err)
		}
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return NewHTTPError(http.StatusRequestEntityTooLarge, CodeBadRequest, "リクエストが大きすぎます")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &HTTPError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: "リクエストボディが不正です", Cause: err}
	}
	if err := validation.Validator().Struct(dst); err != nil {
		return &validation.Error{Field: "body", Message: err.Error()}
	}
	return nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	token, expiresAt, err := s.jwt.GenerateToken(sess.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	zap.S().Infow("session created", "session_id", sess.ID)
	s.jsonResponse(w, http.StatusCreated, SessionResponse{SessionID: sess.ID, Token: token, ExpiresAt: expiresAt})
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request, sess *session.Session) error {
	view := SessionView{Session: sess}
	if sess.Document != nil {
		view.ConfidenceColor, view.ConfidenceLabel = types.ConfidenceBand(sess.Document.ConfidenceScore)
	}
	s.jsonResponse(w, http.StatusOK, view)
	return nil
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		return err
	}
	s.dropSessionLock(sess.ID)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) runOptions(req GenerateRequest, sessionID string) pipeline.Options {
	opts := s.pipelineOpts
	opts.JobText = req.JobText
	opts.JobURL = strings.TrimSpace(req.URL)
	opts.Category = req.Category
	opts.SessionID = sessionID
	return opts
}

func (s *Server) pipelineDeps() pipeline.Deps {
	return pipeline.Deps{
		Client:   s.client,
		Searcher: s.searcher,
		Store:    s.runs,
		Fetcher:  s.fetcher,
		Render:   s.render,
	}
}

// storeResult records a finished run on the session and persists it.
func (s *Server) storeResult(r *http.Request, sess *session.Session, result *pipeline.Result) error {
	sess.SetResult(result.RunID, result.StructuredJob, result.Comparison, result.Document, s.now())
	return s.sessions.Save(r.Context(), sess)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	result, err := pipeline.Run(r.Context(), s.pipelineDeps(), s.runOptions(req, sess.ID), nil)
	if err != nil {
		return err
	}
	if err := s.storeResult(r, sess, result); err != nil {
		return err
	}
	w.Header().Set("X-Run-ID", result.RunID)
	s.jsonResponse(w, http.StatusOK, result.Document)
	return nil
}

func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, CodeStreamingError, "ストリーミングに対応していません")
	}

	onProgress := func(event pipeline.ProgressEvent) {
		if event.Step == pipeline.EventComplete || event.Step == pipeline.EventError {
			return
		}
		if err := sse.WriteEvent("progress", event); err != nil {
			zap.S().Debugw("client went away during stream", "error", err)
		}
	}

	result, err := pipeline.Run(r.Context(), s.pipelineDeps(), s.runOptions(req, sess.ID), onProgress)
	if err == nil {
		err = s.storeResult(r, sess, result)
	}
	if err != nil {
		zap.S().Warnw("streamed generation failed", "session_id", sess.ID, "error", err)
		sse.WriteError(err)
		return nil
	}
	sse.WriteEvent("complete", map[string]any{ //nolint:errcheck
		"run_id":         result.RunID,
		"final_document": result.Document,
	})
	return nil
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	var req ModifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if sess.Document == nil {
		return session.ErrNoDocument
	}
	if req.TemplateFlags == nil && strings.TrimSpace(req.Request) == "" {
		return &validation.Error{Field: "request", Message: "修正依頼が空です"}
	}

	resp, err := modification.Apply(r.Context(), s.client, sess.Document,
		modification.Request{Text: req.Request, Flags: req.TemplateFlags}, s.modOpts)
	if err != nil {
		return err
	}

	label := req.Request
	if req.TemplateFlags != nil && strings.TrimSpace(label) == "" {
		label = "テンプレート修正"
	}
	if err := sess.ApplyModification(label, resp, s.now()); err != nil {
		return err
	}
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		return err
	}
	s.jsonResponse(w, http.StatusOK, resp)
	return nil
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	var req AskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	if sess.Document == nil {
		return session.ErrNoDocument
	}

	result, err := qa.Answer(r.Context(), s.client, sess.Document, req.Question, sess.QAHistory, s.qaOpts)
	if err != nil {
		return err
	}
	sess.SetQAHistory(result.History, s.now())
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		return err
	}
	s.jsonResponse(w, http.StatusOK, result)
	return nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		raw = string(export.CSV)
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		return &HTTPError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: err.Error()}
	}
	if sess.Document == nil {
		return session.ErrNoDocument
	}

	var buf bytes.Buffer
	if err := export.WriteTable(&buf, sess.Document, format); err != nil {
		return err
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName("", format)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		zap.S().Debugw("failed to write export", "error", err)
	}
	return nil
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, NewHTTPError(http.StatusNotFound, CodeNotConfigured, "実行履歴の保存が設定されていません"))
		return
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, NewHTTPError(http.StatusBadRequest, CodeBadRequest, "run idが不正です"))
		return
	}

	ctx := r.Context()
	run, err := s.runs.GetRun(ctx, runID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if subject, err := middleware.GetSessionID(r); err != nil || run.SessionID != subject {
		s.writeError(w, NewHTTPError(http.StatusForbidden, CodeForbidden, "この実行へのアクセス権がありません"))
		return
	}

	runSteps, err := s.runs.ListRunSteps(ctx, runID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	artifacts, err := s.runs.ListArtifacts(ctx, runID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	blocked, err := steps.BlockedSteps(ctx, s.runs, runID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if blocked == nil {
		blocked = []string{}
	}
	s.jsonResponse(w, http.StatusOK, RunView{Run: run, Steps: runSteps, Artifacts: artifacts, BlockedSteps: blocked})
}
