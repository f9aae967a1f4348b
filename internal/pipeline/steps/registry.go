// Package steps defines the stages of an analysis run and the order they
// execute in.
package steps

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	dbpkg "github.com/jonathan/recruiter-insight/internal/db"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	// Message is the progress text shown when the step starts.
	Message string
}

// StepRegistry holds all step definitions, keyed by name.
var StepRegistry = map[string]StepDefinition{
	dbpkg.StepJobPosting: {
		Name:     dbpkg.StepJobPosting,
		Category: dbpkg.StepCategoryIngestion,
		Message:  "求人票を読み込んでいます",
	},
	dbpkg.StepStructuredJob: {
		Name:         dbpkg.StepStructuredJob,
		Category:     dbpkg.StepCategoryStructuring,
		Dependencies: []string{dbpkg.StepJobPosting},
		Message:      "求人票を構造化しています",
	},
	dbpkg.StepComparison: {
		Name:         dbpkg.StepComparison,
		Category:     dbpkg.StepCategoryComparison,
		Dependencies: []string{dbpkg.StepStructuredJob},
		Message:      "実態との比較を作成しています",
	},
	dbpkg.StepFinalDocument: {
		Name:         dbpkg.StepFinalDocument,
		Category:     dbpkg.StepCategoryOptimization,
		Dependencies: []string{dbpkg.StepComparison},
		Message:      "比較表を仕上げています",
	},
}

// Ordered returns the step definitions in execution order.
func Ordered() []StepDefinition {
	names := []string{dbpkg.StepJobPosting, dbpkg.StepStructuredJob, dbpkg.StepComparison, dbpkg.StepFinalDocument}
	out := make([]StepDefinition, 0, len(names))
	for _, n := range names {
		out = append(out, StepRegistry[n])
	}
	return out
}

// Lookup returns the definition for name.
func Lookup(name string) (StepDefinition, error) {
	def, ok := StepRegistry[name]
	if !ok {
		return StepDefinition{}, fmt.Errorf("unknown step: %s", name)
	}
	return def, nil
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s has missing dependencies: %v", e.Step, e.MissingDependencies)
}

// StepReader reads recorded run steps.
type StepReader interface {
	ListRunSteps(ctx context.Context, runID uuid.UUID) ([]dbpkg.RunStep, error)
}

// ValidateDependencies checks that every dependency of stepName has
// completed for the run.
func ValidateDependencies(ctx context.Context, reader StepReader, runID uuid.UUID, stepName string) error {
	def, err := Lookup(stepName)
	if err != nil {
		return err
	}
	if len(def.Dependencies) == 0 {
		return nil
	}

	recorded, err := reader.ListRunSteps(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to list run steps: %w", err)
	}
	completed := make(map[string]bool, len(recorded))
	for _, s := range recorded {
		completed[s.Step] = s.Status == dbpkg.StepStatusCompleted
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// BlockedSteps returns the steps that have not completed and cannot run yet.
func BlockedSteps(ctx context.Context, reader StepReader, runID uuid.UUID) ([]string, error) {
	recorded, err := reader.ListRunSteps(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	status := make(map[string]string, len(recorded))
	for _, s := range recorded {
		status[s.Step] = s.Status
	}

	var blocked []string
	for _, def := range Ordered() {
		if status[def.Name] == dbpkg.StepStatusCompleted {
			continue
		}
		for _, dep := range def.Dependencies {
			if status[dep] != dbpkg.StepStatusCompleted {
				blocked = append(blocked, def.Name)
				break
			}
		}
	}
	return blocked, nil
}
