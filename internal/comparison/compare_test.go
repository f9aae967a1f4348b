package comparison

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/llm/llmtest"
	"github.com/jonathan/recruiter-insight/internal/research"
	"github.com/jonathan/recruiter-insight/internal/types"
	"github.com/jonathan/recruiter-insight/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleJob() *types.StructuredJob {
	return &types.StructuredJob{
		JobTitle:     "法人営業",
		Role:         "新規開拓",
		Process:      "リスト作成／（リスト）\n↓\n商談／（提案書）",
		Product:      "SaaS",
		Stakeholders: "営業部長(R)",
		Technologies: "Salesforce",
	}
}

func response(score float64) string {
	return fmt.Sprintf(`{"content_a":{"求人票名":"書き換え"},"content_b":{"求人票名":"B"},"gap_analysis":{"求人票名":"G"},`+
		`"confidence_score":%v,"uncertain_aspects":["x"],"reasoning":"r","web_search_performed":false}`, score)
}

type stubSearcher struct {
	calls int
}

func (s *stubSearcher) Search(_ context.Context, query string, _ int) ([]research.Result, error) {
	s.calls++
	return []research.Result{{Title: "title for " + query, Snippet: "snippet"}}, nil
}

func TestBuild_HighConfidenceSkipsSearch(t *testing.T) {
	client := llmtest.New(response(0.9))
	searcher := &stubSearcher{}

	result, err := Build(context.Background(), client, searcher, sampleJob(), "", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, client.CallCount())
	assert.Equal(t, 0, searcher.calls)
	assert.False(t, result.WebSearchPerformed)
	assert.InDelta(t, 0.9, result.ConfidenceScore, 1e-9)
	assert.Equal(t, "法人営業", result.ContentA[types.ItemJobTitle])
	assert.Len(t, result.ContentA, 6)

	call := client.Calls()[0]
	assert.Equal(t, Operation, call.Operation)
	assert.Equal(t, 2500, call.MaxOutputTokens)
	assert.Contains(t, call.Prompt, "法人営業")
	assert.NotContains(t, call.Prompt, "Web検索結果")
}

func TestBuild_LowConfidenceRunsWebPass(t *testing.T) {
	client := llmtest.New(response(0.4), response(0.8))
	searcher := &stubSearcher{}

	result, err := Build(context.Background(), client, searcher, sampleJob(), "インサイドセールス", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, client.CallCount())
	assert.Equal(t, 2, searcher.calls)
	assert.True(t, result.WebSearchPerformed)
	assert.InDelta(t, 0.8, result.ConfidenceScore, 1e-9)

	second := client.Calls()[1].Prompt
	assert.Contains(t, second, "【検索1: 業務フロー】")
	assert.Contains(t, second, "インサイドセールス 業務フロー 標準的な流れ")
	assert.Contains(t, second, "BEGIN QUOTED WEB SEARCH RESULTS")
}

func TestBuild_LowConfidenceWithoutSearcher(t *testing.T) {
	client := llmtest.New(response(0.3))

	result, err := Build(context.Background(), client, nil, sampleJob(), "", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, client.CallCount())
	assert.False(t, result.WebSearchPerformed)
}

func TestBuild_FailedWebPassKeepsFirst(t *testing.T) {
	client := llmtest.NewWithReplies(
		llmtest.Reply{Text: response(0.4)},
		llmtest.Reply{Text: "not json"},
	)

	result, err := Build(context.Background(), client, &stubSearcher{}, sampleJob(), "", DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0.4, result.ConfidenceScore, 1e-9)
	assert.False(t, result.WebSearchPerformed)
}

func TestBuild_ScoreOutOfRange(t *testing.T) {
	client := llmtest.New(response(1.5))

	_, err := Build(context.Background(), client, nil, sampleJob(), "", DefaultOptions())
	require.Error(t, err)

	var ve *validation.Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "confidence_score", ve.Field)
	assert.True(t, strings.HasPrefix(err.Error(), "比較分析に失敗しました: "))
}

func TestBuild_TransportError(t *testing.T) {
	client := llmtest.NewWithReplies(llmtest.Reply{Err: &llm.TransportError{Attempts: 3, Cause: errors.New("down")}})

	_, err := Build(context.Background(), client, nil, sampleJob(), "", DefaultOptions())

	var ce *ComparisonError
	require.ErrorAs(t, err, &ce)
	var te *llm.TransportError
	assert.ErrorAs(t, err, &te)
}

func TestBuild_NilJob(t *testing.T) {
	_, err := Build(context.Background(), llmtest.New(), nil, nil, "", DefaultOptions())
	assert.Error(t, err)
}

func TestBuildPrompt_TruncatesFields(t *testing.T) {
	job := sampleJob()
	job.Product = strings.Repeat("製", 50)

	prompt, err := buildPrompt(job, "営業", "", 10)
	require.NoError(t, err)
	assert.Contains(t, prompt, strings.Repeat("製", 10))
	assert.NotContains(t, prompt, strings.Repeat("製", 11))
	assert.Contains(t, prompt, `"web_search_performed": false`)
}
