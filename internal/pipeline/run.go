// Package pipeline runs the three analysis layers over one job posting:
// structuring, market comparison and optimization into the final table.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/comparison"
	"github.com/jonathan/recruiter-insight/internal/db"
	"github.com/jonathan/recruiter-insight/internal/fetch"
	"github.com/jonathan/recruiter-insight/internal/ingestion"
	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/optimization"
	"github.com/jonathan/recruiter-insight/internal/parsing"
	"github.com/jonathan/recruiter-insight/internal/pipeline/steps"
	"github.com/jonathan/recruiter-insight/internal/research"
	"github.com/jonathan/recruiter-insight/internal/types"
	"github.com/jonathan/recruiter-insight/internal/validation"
)

// Progress event names.
const (
	EventStart        = "start"
	EventStructuring  = "structuring"
	EventComparison   = "comparison"
	EventOptimization = "optimization"
	EventComplete     = "complete"
	EventError        = "error"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Deps are the collaborators of a run. Only Client is required.
type Deps struct {
	Client   llm.Client
	Searcher research.Searcher
	Store    db.Store
	Fetcher  ingestion.Fetcher
	Render   fetch.Renderer
}

// Options describes one run. Exactly one of JobText, JobURL and JobPath is
// used, in that order of preference.
type Options struct {
	JobText   string
	JobURL    string
	JobPath   string
	Category  string
	SessionID string

	Structuring  parsing.Options
	Comparison   comparison.Options
	Optimization optimization.Options
}

// DefaultOptions returns options with every stage at its defaults.
func DefaultOptions() Options {
	return Options{
		Structuring:  parsing.DefaultOptions(),
		Comparison:   comparison.DefaultOptions(),
		Optimization: optimization.DefaultOptions(),
	}
}

// Result holds every stage output of a successful run.
type Result struct {
	RunID         string                  `json:"run_id"`
	JobText       string                  `json:"job_text"`
	Metadata      *ingestion.Metadata     `json:"metadata,omitempty"`
	StructuredJob *types.StructuredJob    `json:"structured_job"`
	Comparison    *types.ComparisonResult `json:"comparison"`
	Document      *types.FinalDocument    `json:"final_document"`
}

// Run executes Layer 1, Layer 2 and Layer 3 in order. onProgress may be
// nil. The run id is attached to ctx so token usage is attributed to it.
func Run(ctx context.Context, deps Deps, opts Options, onProgress ProgressCallback) (*Result, error) {
	if deps.Client == nil {
		return nil, fmt.Errorf("pipeline: no model client configured")
	}

	rec := newRecorder(ctx, deps.Store, db.RunInput{SessionID: opts.SessionID, JobURL: opts.JobURL})
	runID := rec.runID.String()
	ctx = llm.WithRunID(ctx, runID)
	log := zap.S().With("run_id", runID)

	emit := func(step, category, message string) {
		if onProgress != nil {
			onProgress(ProgressEvent{Step: step, Category: category, Message: message, RunID: runID})
		}
	}
	fail := func(step string, err error) (*Result, error) {
		log.Errorw("pipeline failed", "step", step, "error", err)
		rec.failStep(ctx, step, err)
		rec.complete(ctx, err)
		emit(EventError, step, err.Error())
		return nil, err
	}

	emit(EventStart, db.StepCategoryIngestion, "分析を開始します")
	log.Infow("pipeline started", "session_id", opts.SessionID)

	rec.beginStep(ctx, db.StepJobPosting)
	jobText, metadata, err := loadJobText(ctx, deps, opts)
	if err != nil {
		return fail(db.StepJobPosting, err)
	}
	rec.completeStep(ctx, db.StepJobPosting, map[string]any{"text": jobText, "metadata": metadata})

	emit(EventStructuring, db.StepCategoryStructuring, stepMessage(db.StepStructuredJob))
	rec.beginStep(ctx, db.StepStructuredJob)
	job, err := parsing.ExtractStructure(ctx, deps.Client, jobText, opts.Structuring)
	if err != nil {
		return fail(db.StepStructuredJob, err)
	}
	rec.completeStep(ctx, db.StepStructuredJob, job)
	rec.setTitle(ctx, job.JobTitle)

	emit(EventComparison, db.StepCategoryComparison, stepMessage(db.StepComparison))
	rec.beginStep(ctx, db.StepComparison)
	cmp, err := comparison.Build(ctx, deps.Client, deps.Searcher, job, opts.Category, opts.Comparison)
	if err != nil {
		return fail(db.StepComparison, err)
	}
	rec.completeStep(ctx, db.StepComparison, cmp)

	emit(EventOptimization, db.StepCategoryOptimization, stepMessage(db.StepFinalDocument))
	rec.beginStep(ctx, db.StepFinalDocument)
	doc, err := optimization.Optimize(ctx, deps.Client, cmp, opts.Optimization)
	if err != nil {
		return fail(db.StepFinalDocument, err)
	}
	rec.completeStep(ctx, db.StepFinalDocument, doc)

	rec.complete(ctx, nil)
	emit(EventComplete, db.StepCategoryOptimization, "分析が完了しました")
	log.Infow("pipeline completed",
		"job_title", job.JobTitle,
		"confidence", cmp.ConfidenceScore,
		"web_search_performed", cmp.WebSearchPerformed)

	return &Result{
		RunID:         runID,
		JobText:       jobText,
		Metadata:      metadata,
		StructuredJob: job,
		Comparison:    cmp,
		Document:      doc,
	}, nil
}

func stepMessage(step string) string {
	def, err := steps.Lookup(step)
	if err != nil {
		return step
	}
	return def.Message
}

func loadJobText(ctx context.Context, deps Deps, opts Options) (string, *ingestion.Metadata, error) {
	switch {
	case strings.TrimSpace(opts.JobText) != "":
		text := ingestion.CleanText(opts.JobText)
		return text, ingestion.NewMetadata(text, ""), nil
	case opts.JobURL != "":
		return ingestion.IngestFromURL(ctx, opts.JobURL, ingestion.URLOptions{Fetcher: deps.Fetcher, Render: deps.Render})
	case opts.JobPath != "":
		return ingestion.IngestFromFile(opts.JobPath)
	default:
		return "", nil, &validation.Error{Field: "job_text", Message: "求人テキストが空です"}
	}
}

// recorder persists run progress. Every failure is logged and swallowed.
type recorder struct {
	store db.Store
	runID uuid.UUID
}

func newRecorder(ctx context.Context, store db.Store, in db.RunInput) *recorder {
	r := &recorder{store: store, runID: uuid.New()}
	if store == nil {
		return r
	}
	id, err := store.CreateRun(ctx, in)
	if err != nil {
		zap.S().Warnw("failed to create run record, continuing without persistence", "error", err)
		r.store = nil
		return r
	}
	r.runID = id
	return r
}

func (r *recorder) beginStep(ctx context.Context, step string) {
	if r.store == nil {
		return
	}
	def, _ := steps.Lookup(step)
	_, err := r.store.CreateRunStep(ctx, r.runID, &db.RunStepInput{
		Step:     step,
		Category: def.Category,
		Status:   db.StepStatusInProgress,
	})
	r.warn(err, "failed to record step start", step)
}

func (r *recorder) completeStep(ctx context.Context, step string, artifact any) {
	if r.store == nil {
		return
	}
	def, _ := steps.Lookup(step)
	r.warn(r.store.SaveArtifact(ctx, r.runID, step, def.Category, artifact), "failed to save artifact", step)
	r.warn(r.store.UpdateRunStepStatus(ctx, r.runID, step, db.StepStatusCompleted, nil), "failed to record step completion", step)
}

func (r *recorder) failStep(ctx context.Context, step string, cause error) {
	if r.store == nil {
		return
	}
	msg := cause.Error()
	r.warn(r.store.UpdateRunStepStatus(ctx, r.runID, step, db.StepStatusFailed, &msg), "failed to record step failure", step)
}

func (r *recorder) setTitle(ctx context.Context, title string) {
	if r.store == nil || title == "" {
		return
	}
	r.warn(r.store.SetRunTitle(ctx, r.runID, title), "failed to record job title", "")
}

func (r *recorder) complete(ctx context.Context, runErr error) {
	if r.store == nil {
		return
	}
	status := db.RunStatusCompleted
	if runErr != nil {
		status = db.RunStatusFailed
	}
	r.warn(r.store.CompleteRun(ctx, r.runID, status, runErr), "failed to complete run record", "")
}

func (r *recorder) warn(err error, msg, step string) {
	if err != nil {
		zap.S().Warnw(msg, "run_id", r.runID, "step", step, "error", err)
	}
}
