package ingestion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_ToJSON(t *testing.T) {
	metadata := &Metadata{
		URL:       "https://hrmos.co/pages/acme/jobs/1",
		Title:     "バックエンドエンジニア",
		Timestamp: "2024-01-01T00:00:00Z",
		Hash:      "abcd1234",
		Platform:  "hrmos",
	}

	jsonBytes, err := metadata.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(jsonBytes), "\n  \"url\"")

	var decoded Metadata
	require.NoError(t, json.Unmarshal(jsonBytes, &decoded))
	assert.Equal(t, *metadata, decoded)
	assert.NotContains(t, string(jsonBytes), "from_cache")
}

func TestComputeHash(t *testing.T) {
	hash1 := computeHash("求人A")
	hash2 := computeHash("求人B")

	assert.Len(t, hash1, 64)
	assert.NotEqual(t, hash1, hash2)
	assert.Equal(t, hash1, computeHash("求人A"))
}

func TestNewMetadata(t *testing.T) {
	metadata := NewMetadata("test content", "https://example.com/job")

	assert.Equal(t, "https://example.com/job", metadata.URL)
	assert.Equal(t, computeHash("test content"), metadata.Hash)
	_, err := time.Parse(time.RFC3339, metadata.Timestamp)
	assert.NoError(t, err)
}
