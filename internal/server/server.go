// Package server exposes sessions, generation, modification, QA and export
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/config"
	"github.com/jonathan/recruiter-insight/internal/db"
	"github.com/jonathan/recruiter-insight/internal/fetch"
	"github.com/jonathan/recruiter-insight/internal/ingestion"
	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/modification"
	"github.com/jonathan/recruiter-insight/internal/observability"
	"github.com/jonathan/recruiter-insight/internal/pipeline"
	"github.com/jonathan/recruiter-insight/internal/qa"
	"github.com/jonathan/recruiter-insight/internal/research"
	"github.com/jonathan/recruiter-insight/internal/server/middleware"
	"github.com/jonathan/recruiter-insight/internal/session"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Deps are the collaborators of the server. Config, Client and Sessions are
// required; Runs enables GET /runs/{id}.
type Deps struct {
	Config   *config.Config
	Client   llm.Client
	Searcher research.Searcher
	Sessions session.Store
	Runs     db.Store
	Fetcher  ingestion.Fetcher
	Render   fetch.Renderer
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    http.Handler

	cfg      *config.Config
	client   llm.Client
	searcher research.Searcher
	sessions session.Store
	runs     db.Store
	fetcher  ingestion.Fetcher
	render   fetch.Renderer
	jwt      *JWTService

	pipelineOpts pipeline.Options
	modOpts      modification.Options
	qaOpts       qa.Options
	now          func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New builds the server and its routes.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.Client == nil || deps.Sessions == nil {
		return nil, errors.New("server: config, model client and session store are required")
	}
	jwtConfig, err := deps.Config.JWT()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	s := &Server{
		cfg:          deps.Config,
		client:       deps.Client,
		searcher:     deps.Searcher,
		sessions:     deps.Sessions,
		runs:         deps.Runs,
		fetcher:      deps.Fetcher,
		render:       deps.Render,
		jwt:          NewJWTService(jwtConfig),
		pipelineOpts: pipeline.OptionsFromConfig(deps.Config),
		modOpts:      pipeline.ModificationOptionsFromConfig(deps.Config),
		qaOpts:       pipeline.QAOptionsFromConfig(deps.Config),
		now:          time.Now,
		locks:        make(map[string]*sync.Mutex),
	}

	auth := middleware.AuthMiddleware(s.jwt.AsTokenValidator(), func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "認証が必要です"))
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /sessions", s.handleCreateSession)

	mux.Handle("GET /sessions/{id}", auth(s.withSession(s.handleGetSession)))
	mux.Handle("DELETE /sessions/{id}", auth(s.withSession(s.handleDeleteSession)))
	mux.Handle("POST /sessions/{id}/generate", auth(s.withSession(s.handleGenerate)))
	mux.Handle("POST /sessions/{id}/generate/stream", auth(s.withSession(s.handleGenerateStream)))
	mux.Handle("POST /sessions/{id}/modify", auth(s.withSession(s.handleModify)))
	mux.Handle("POST /sessions/{id}/ask", auth(s.withSession(s.handleAsk)))
	mux.Handle("GET /sessions/{id}/export", auth(s.withSession(s.handleExport)))
	mux.Handle("GET /runs/{id}", auth(http.HandlerFunc(s.handleGetRun)))

	var handler http.Handler = mux
	handler = s.withCORS(handler)
	if deps.Config.RateLimitPerMin > 0 {
		handler = httprate.Limit(deps.Config.RateLimitPerMin, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				s.writeError(w, NewHTTPError(http.StatusTooManyRequests, CodeRateLimited,
					"リクエストが多すぎます。しばらくしてから再度お試しください"))
			}),
		)(handler)
	}
	handler = s.withLogging(handler)
	s.handler = handler

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", deps.Config.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // pipeline runs are long
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.S().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	zap.S().Info("server stopped")
	return nil
}

// sessionLock serializes operations on one session.
func (s *Server) sessionLock(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	return mu
}

func (s *Server) dropSessionLock(id string) {
	s.locksMu.Lock()
	delete(s.locks, id)
	s.locksMu.Unlock()
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		observability.HTTPRequestsTotal.WithLabelValues(route, r.Method, fmt.Sprintf("%d", rec.status)).Inc()
		zap.S().Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"elapsed", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		zap.S().Warnw("failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		zap.S().Errorw("request failed", "status", status, "error", err)
	}
	s.jsonResponse(w, status, body)
}
