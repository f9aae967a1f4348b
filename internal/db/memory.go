package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store used when no database is
// configured. Artifact content is round-tripped through JSON so reads look
// the same as from Postgres.
type MemoryStore struct {
	mu        sync.Mutex
	runs      map[uuid.UUID]*Run
	artifacts map[uuid.UUID][]Artifact
	steps     map[uuid.UUID][]RunStep
	now       func() time.Time
}

var _ Store = (*MemoryStore)(nil)
var _ Store = (*DB)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:      make(map[uuid.UUID]*Run),
		artifacts: make(map[uuid.UUID][]Artifact),
		steps:     make(map[uuid.UUID][]RunStep),
		now:       time.Now,
	}
}

func (m *MemoryStore) CreateRun(_ context.Context, in RunInput) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.runs[id] = &Run{
		ID:        id,
		SessionID: in.SessionID,
		JobTitle:  in.JobTitle,
		JobURL:    in.JobURL,
		Status:    RunStatusRunning,
		CreatedAt: m.now(),
	}
	return id, nil
}

func (m *MemoryStore) SetRunTitle(_ context.Context, runID uuid.UUID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return ErrNotFound
	}
	run.JobTitle = title
	return nil
}

func (m *MemoryStore) CompleteRun(_ context.Context, runID uuid.UUID, status string, runErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return ErrNotFound
	}
	now := m.now()
	run.Status = status
	run.CompletedAt = &now
	if runErr != nil {
		msg := runErr.Error()
		run.Error = &msg
	}
	return nil
}

func (m *MemoryStore) SaveArtifact(_ context.Context, runID uuid.UUID, step, category string, content any) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[runID]; !ok {
		return ErrNotFound
	}
	a := Artifact{ID: uuid.New(), RunID: runID, Step: step, Category: category, Content: decoded, CreatedAt: m.now()}
	list := m.artifacts[runID]
	for i := range list {
		if list[i].Step == step {
			list[i] = a
			return nil
		}
	}
	m.artifacts[runID] = append(list, a)
	return nil
}

func (m *MemoryStore) CreateRunStep(_ context.Context, runID uuid.UUID, input *RunStepInput) (*RunStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[runID]; !ok {
		return nil, ErrNotFound
	}
	now := m.now()
	step := RunStep{
		ID:         uuid.New(),
		RunID:      runID,
		Step:       input.Step,
		Category:   input.Category,
		Status:     input.Status,
		Parameters: input.Parameters,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if input.Status == StepStatusInProgress {
		step.StartedAt = &now
	}
	list := m.steps[runID]
	for i := range list {
		if list[i].Step == input.Step {
			step.ID, step.CreatedAt = list[i].ID, list[i].CreatedAt
			list[i] = step
			return &step, nil
		}
	}
	m.steps[runID] = append(list, step)
	return &step, nil
}

func (m *MemoryStore) UpdateRunStepStatus(_ context.Context, runID uuid.UUID, stepName, status string, errorMsg *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.steps[runID]
	for i := range list {
		if list[i].Step != stepName {
			continue
		}
		now := m.now()
		t := stepTimes(&list[i], status, now)
		if t.startedAt != nil {
			list[i].StartedAt = t.startedAt
		}
		list[i].Status = status
		list[i].CompletedAt = t.completedAt
		list[i].DurationMs = t.durationMs
		list[i].ErrorMessage = errorMsg
		list[i].UpdatedAt = now
		return nil
	}
	return fmt.Errorf("step %s: %w", stepName, ErrNotFound)
}

func (m *MemoryStore) ListRunSteps(_ context.Context, runID uuid.UUID) ([]RunStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RunStep(nil), m.steps[runID]...), nil
}

func (m *MemoryStore) GetRun(_ context.Context, runID uuid.UUID) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (m *MemoryStore) ListArtifacts(_ context.Context, runID uuid.UUID) ([]Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Artifact(nil), m.artifacts[runID]...), nil
}
