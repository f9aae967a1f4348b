package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents a pipeline run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	SessionID   string     `json:"session_id,omitempty"`
	JobTitle    string     `json:"job_title"`
	JobURL      string     `json:"job_url,omitempty"`
	Status      string     `json:"status"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RunInput describes a run being started.
type RunInput struct {
	SessionID string
	JobTitle  string
	JobURL    string
}

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Artifact step names, one per stage output.
const (
	StepJobPosting    = "job_posting"
	StepStructuredJob = "structured_job"
	StepComparison    = "comparison"
	StepFinalDocument = "final_document"
)

// Artifact represents an artifact record
type Artifact struct {
	ID        uuid.UUID `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Step      string    `json:"step"`
	Category  string    `json:"category"`
	Content   any       `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	SessionID string
	Status    string
	Limit     int
}

// StepStatus constants
const (
	StepStatusPending    = "pending"
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
	StepStatusSkipped    = "skipped"
)

// StepCategory constants
const (
	StepCategoryIngestion    = "ingestion"
	StepCategoryStructuring  = "structuring"
	StepCategoryComparison   = "comparison"
	StepCategoryOptimization = "optimization"
)

// RunStep represents a single step execution for a pipeline run
type RunStep struct {
	ID           uuid.UUID      `json:"id"`
	RunID        uuid.UUID      `json:"run_id"`
	Step         string         `json:"step"`
	Category     string         `json:"category"`
	Status       string         `json:"status"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	DurationMs   *int           `json:"duration_ms,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// RunStepInput represents input for creating a run step
type RunStepInput struct {
	Step       string
	Category   string
	Status     string
	Parameters map[string]any
}
