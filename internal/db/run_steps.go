package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const runStepColumns = `id, run_id, step, category, status, started_at, completed_at,
	duration_ms, error_message, parameters, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunStep(row rowScanner) (*RunStep, error) {
	var step RunStep
	var parametersJSON []byte
	if err := row.Scan(&step.ID, &step.RunID, &step.Step, &step.Category, &step.Status,
		&step.StartedAt, &step.CompletedAt, &step.DurationMs,
		&step.ErrorMessage, &parametersJSON, &step.CreatedAt, &step.UpdatedAt); err != nil {
		return nil, err
	}
	if parametersJSON != nil {
		_ = json.Unmarshal(parametersJSON, &step.Parameters)
	}
	return &step, nil
}

// CreateRunStep creates a new run step record
func (db *DB) CreateRunStep(ctx context.Context, runID uuid.UUID, input *RunStepInput) (*RunStep, error) {
	var parametersJSON []byte
	if input.Parameters != nil {
		var err error
		parametersJSON, err = json.Marshal(input.Parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal parameters: %w", err)
		}
	}

	var startedAt *time.Time
	if input.Status == StepStatusInProgress {
		now := time.Now()
		startedAt = &now
	}

	step, err := scanRunStep(db.pool.QueryRow(ctx,
		`INSERT INTO run_steps (run_id, step, category, status, started_at, parameters)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (run_id, step) DO UPDATE
		 SET status = EXCLUDED.status, started_at = EXCLUDED.started_at,
		     parameters = EXCLUDED.parameters, updated_at = NOW()
		 RETURNING `+runStepColumns,
		runID, input.Step, input.Category, input.Status, startedAt, parametersJSON,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create run step: %w", err)
	}
	return step, nil
}

// GetRunStep retrieves a run step by run_id and step name. It returns nil
// when the step does not exist.
func (db *DB) GetRunStep(ctx context.Context, runID uuid.UUID, stepName string) (*RunStep, error) {
	step, err := scanRunStep(db.pool.QueryRow(ctx,
		`SELECT `+runStepColumns+` FROM run_steps WHERE run_id = $1 AND step = $2`,
		runID, stepName,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run step: %w", err)
	}
	return step, nil
}

// ListRunSteps retrieves all steps for a run in creation order
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID) ([]RunStep, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+runStepColumns+` FROM run_steps WHERE run_id = $1 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	var steps []RunStep
	for rows.Next() {
		step, err := scanRunStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		steps = append(steps, *step)
	}
	return steps, rows.Err()
}

// UpdateRunStepStatus updates the status and related fields of a run step
func (db *DB) UpdateRunStepStatus(ctx context.Context, runID uuid.UUID, stepName, status string, errorMsg *string) error {
	currentStep, err := db.GetRunStep(ctx, runID, stepName)
	if err != nil {
		return err
	}
	if currentStep == nil {
		return fmt.Errorf("step %s: %w", stepName, ErrNotFound)
	}

	t := stepTimes(currentStep, status, time.Now())

	_, err = db.pool.Exec(ctx,
		`UPDATE run_steps
		 SET status = $1, started_at = COALESCE($2, started_at), completed_at = $3,
		     duration_ms = $4, error_message = $5, updated_at = NOW()
		 WHERE run_id = $6 AND step = $7`,
		status, t.startedAt, t.completedAt, t.durationMs, errorMsg, runID, stepName,
	)
	if err != nil {
		return fmt.Errorf("failed to update run step status: %w", err)
	}
	return nil
}

type stepTiming struct {
	startedAt   *time.Time
	completedAt *time.Time
	durationMs  *int
}

// stepTimes derives the timestamps of a status change.
func stepTimes(current *RunStep, status string, now time.Time) stepTiming {
	var t stepTiming
	if status == StepStatusInProgress && current.StartedAt == nil {
		t.startedAt = &now
	}
	switch status {
	case StepStatusCompleted, StepStatusFailed, StepStatusSkipped:
		t.completedAt = &now
		if current.StartedAt != nil {
			d := int(now.Sub(*current.StartedAt).Milliseconds())
			t.durationMs = &d
		}
	}
	return t
}
