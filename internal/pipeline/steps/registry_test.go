package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/jonathan/recruiter-insight/internal/db"
)

type fakeReader struct {
	steps []dbpkg.RunStep
	err   error
}

func (f fakeReader) ListRunSteps(context.Context, uuid.UUID) ([]dbpkg.RunStep, error) {
	return f.steps, f.err
}

func TestOrdered(t *testing.T) {
	var names []string
	for _, def := range Ordered() {
		names = append(names, def.Name)
		assert.NotEmpty(t, def.Category)
		assert.NotEmpty(t, def.Message)
	}
	assert.Equal(t, []string{"job_posting", "structured_job", "comparison", "final_document"}, names)
}

func TestStepRegistryCategories(t *testing.T) {
	assert.Equal(t, dbpkg.StepCategoryIngestion, StepRegistry[dbpkg.StepJobPosting].Category)
	assert.Equal(t, dbpkg.StepCategoryStructuring, StepRegistry[dbpkg.StepStructuredJob].Category)
	assert.Equal(t, dbpkg.StepCategoryComparison, StepRegistry[dbpkg.StepComparison].Category)
	assert.Equal(t, dbpkg.StepCategoryOptimization, StepRegistry[dbpkg.StepFinalDocument].Category)
}

func TestValidateDependencies(t *testing.T) {
	ctx := context.Background()
	reader := fakeReader{steps: []dbpkg.RunStep{
		{Step: dbpkg.StepJobPosting, Status: dbpkg.StepStatusCompleted},
		{Step: dbpkg.StepStructuredJob, Status: dbpkg.StepStatusFailed},
	}}

	require.NoError(t, ValidateDependencies(ctx, reader, uuid.New(), dbpkg.StepJobPosting))
	require.NoError(t, ValidateDependencies(ctx, reader, uuid.New(), dbpkg.StepStructuredJob))

	err := ValidateDependencies(ctx, reader, uuid.New(), dbpkg.StepComparison)
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, []string{dbpkg.StepStructuredJob}, depErr.MissingDependencies)
	assert.Contains(t, err.Error(), "missing dependencies")
}

func TestValidateDependencies_Errors(t *testing.T) {
	err := ValidateDependencies(context.Background(), fakeReader{}, uuid.Nil, "unknown_step")
	assert.ErrorContains(t, err, "unknown step")

	err = ValidateDependencies(context.Background(), fakeReader{err: errors.New("down")}, uuid.Nil, dbpkg.StepComparison)
	assert.ErrorContains(t, err, "down")
}

func TestBlockedSteps(t *testing.T) {
	reader := fakeReader{steps: []dbpkg.RunStep{
		{Step: dbpkg.StepJobPosting, Status: dbpkg.StepStatusCompleted},
	}}

	blocked, err := BlockedSteps(context.Background(), reader, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, []string{dbpkg.StepComparison, dbpkg.StepFinalDocument}, blocked)
}
