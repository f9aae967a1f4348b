package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(LogConfig{Level: "info", Dir: dir})
	require.NoError(t, err)

	logger.Info("pipeline started", zap.String("run_id", "r1"))
	logger.Debug("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"pipeline started"`)
	assert.Contains(t, string(data), `"run_id":"r1"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNewLogger_VerboseEnablesDebug(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(LogConfig{Level: "warn", Dir: dir, Verbose: true})
	require.NoError(t, err)
	logger.Debug("visible")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
}
