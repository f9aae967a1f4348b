package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruiter-insight/internal/comparison"
	"github.com/jonathan/recruiter-insight/internal/config"
	"github.com/jonathan/recruiter-insight/internal/export"
	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/llm/llmtest"
	"github.com/jonathan/recruiter-insight/internal/modification"
	"github.com/jonathan/recruiter-insight/internal/optimization"
	"github.com/jonathan/recruiter-insight/internal/parsing"
	"github.com/jonathan/recruiter-insight/internal/qa"
	"github.com/jonathan/recruiter-insight/internal/types"
)

const optimizationReply = `{"table_data":[["項目名","内容A","内容B","ギャップ"],` +
	`["求人票名","x","B1","G1"],["役割","x","B2","G2"],["業務プロセス","x","B3","G3"],` +
	`["対象製品","x","B4","G4"],["ステークホルダー","x","B5","G5"],` +
	`["使用技術","x","- Salesforce：商談管理","G6"]],` +
	`"explanations":{"求人票名":"e","役割":"e","業務プロセス":"e","対象製品":"e","ステークホルダー":"e","使用技術":"e"},` +
	`"how_to_read":"見方"}`

func scriptedClient() *llmtest.Client {
	return llmtest.ByOperation(map[string]llmtest.Reply{
		parsing.Operation: {Text: `{"求人票名":"法人営業","役割":"新規開拓","業務プロセス":"商談／（提案書）",` +
			`"対象製品":"SaaS","ステークホルダー":"部長","使用技術":"Salesforce"}`},
		comparison.Operation: {Text: `{"content_a":{},"content_b":{},"gap_analysis":{},"confidence_score":0.9,` +
			`"uncertain_aspects":[],"reasoning":"r","web_search_performed":false}`},
		optimization.Operation: {Text: optimizationReply},
		modification.Operation: {Text: `{"modified_output":` + optimizationReply + `,"changes_made":[{"item":"求人票名","reason":"具体化"}]}`},
		qa.Operation:           {Text: "面接で確認してください。"},
	})
}

func execute(t *testing.T, client llm.Client, args ...string) (string, error) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LOG_DIR", t.TempDir())

	a := &app{newClient: func(context.Context, *config.Config) (llm.Client, error) {
		if client == nil {
			return nil, errors.New("no client")
		}
		return client, nil
	}}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func sampleDocument() *types.FinalDocument {
	rows := [][]string{types.CanonicalHeader()}
	explanations := make(map[string]string)
	for _, item := range types.CanonicalItems() {
		rows = append(rows, []string{item, "A-" + item, "B-" + item, "G-" + item})
		explanations[item] = "解説-" + item
	}
	return &types.FinalDocument{
		TableData:       rows,
		Explanations:    explanations,
		HowToRead:       "見方",
		ConfidenceScore: 0.7,
	}
}

func writeDocument(t *testing.T, doc any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, writeJSON(path, doc))
	return path
}

func TestGenerate_FromFile(t *testing.T) {
	dir := t.TempDir()
	job := filepath.Join(dir, "job.txt")
	require.NoError(t, os.WriteFile(job, []byte("法人営業の求人です。"), 0o644))
	out := filepath.Join(dir, "out", "final.json")

	output, err := execute(t, scriptedClient(), "generate", "--job", job, "--out", out, "--export", "tsv")
	require.NoError(t, err, output)
	assert.Contains(t, output, "FINAL DOCUMENT")
	assert.Contains(t, output, "Run ID:")

	doc, err := readDocument(out)
	require.NoError(t, err)
	assert.Equal(t, "法人営業", doc.Cell(types.ItemJobTitle, types.CellContentA))
	assert.InDelta(t, 0.9, doc.ConfidenceScore, 1e-9)

	tsv, err := os.ReadFile(filepath.Join(dir, "out", "final.tsv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(tsv), export.BOM))
}

func TestGenerate_FlagErrors(t *testing.T) {
	_, err := execute(t, scriptedClient(), "generate", "--job", "a.txt")
	assert.ErrorContains(t, err, "out")

	_, err = execute(t, scriptedClient(), "generate", "--job", "a.txt", "--url", "https://example.com", "--out", "x.json")
	assert.Error(t, err)

	_, err = execute(t, scriptedClient(), "generate", "--out", "x.json")
	assert.Error(t, err)

	_, err = execute(t, scriptedClient(), "generate", "--job", "a.txt", "--out", "x.json", "--export", "xlsx")
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestModify_TemplateFlags(t *testing.T) {
	in := writeDocument(t, sampleDocument())
	out := filepath.Join(t.TempDir(), "modified.json")
	client := scriptedClient()

	output, err := execute(t, client, "modify", "--in", in, "--out", out, "--reformat-b", "--tech-count", "3")
	require.NoError(t, err, output)
	assert.Contains(t, output, "MODIFICATION")

	doc, err := readDocument(out)
	require.NoError(t, err)
	assert.Equal(t, "A-求人票名", doc.Cell(types.ItemJobTitle, types.CellContentA))
	assert.Equal(t, "B1", doc.Cell(types.ItemJobTitle, types.CellContentB))
	assert.Equal(t, 1, client.CallCount())
}

func TestModify_RejectsProcessWithoutNotation(t *testing.T) {
	in := writeDocument(t, sampleDocument())
	client := scriptedClient()

	_, err := execute(t, client, "modify", "--in", in, "--out", filepath.Join(t.TempDir(), "m.json"),
		"--request", "業務プロセスをもっと詳しく")
	assert.Error(t, err)
	assert.Zero(t, client.CallCount())
}

func TestAsk_WritesHistory(t *testing.T) {
	in := writeDocument(t, sampleDocument())
	history := filepath.Join(t.TempDir(), "history.json")

	output, err := execute(t, scriptedClient(), "ask", "--in", in, "--question", "役割とは？", "--history", history)
	require.NoError(t, err)
	assert.Contains(t, output, "面接で確認してください。")

	_, err = execute(t, scriptedClient(), "ask", "--in", in, "--question", "次は？", "--history", history)
	require.NoError(t, err)

	turns, err := readHistory(history)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "役割とは？", turns[0].Q)
}

func TestModelCommands_RequireAPIKey(t *testing.T) {
	in := writeDocument(t, sampleDocument())
	t.Setenv("LOG_DIR", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	a := &app{newClient: defaultClient}
	root := newRootCmd(a)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"ask", "--in", in, "--question", "q"})
	assert.ErrorContains(t, root.ExecuteContext(context.Background()), "API key")
}

func TestExport_DefaultPath(t *testing.T) {
	in := writeDocument(t, sampleDocument())

	output, err := execute(t, nil, "export", "--in", in)
	require.NoError(t, err)
	assert.Contains(t, output, "Exported 7 rows")

	data, err := os.ReadFile(strings.TrimSuffix(in, ".json") + ".csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), "項目名,内容A,内容B,ギャップ")
}

func TestValidate(t *testing.T) {
	valid := writeDocument(t, sampleDocument())
	output, err := execute(t, nil, "validate", "--in", valid)
	require.NoError(t, err)
	assert.Contains(t, output, "valid final artifact")

	doc := sampleDocument()
	delete(doc.Explanations, types.ItemRole)
	invalid := writeDocument(t, doc)
	_, err = execute(t, nil, "validate", "--in", invalid)
	assert.Error(t, err)

	_, err = execute(t, nil, "validate", "--in", valid, "--kind", "resume")
	assert.ErrorContains(t, err, "unknown artifact kind")
}

func TestValidate_StructuredJob(t *testing.T) {
	job := writeDocument(t, map[string]any{
		"求人票名": "法人営業", "役割": "新規開拓", "業務プロセス": "商談／（提案書）",
		"対象製品": "SaaS", "ステークホルダー": "部長", "使用技術": "Salesforce",
	})
	_, err := execute(t, nil, "validate", "--in", job, "--kind", "structured")
	assert.NoError(t, err)
}

func TestTokenUsage(t *testing.T) {
	dir := t.TempDir()
	lines := []string{
		`{"model":"m","prompt_len":10,"prompt_tokens":5,"completion_tokens":5,"total_tokens":10,"run_id":"run-a","timestamp":"2026-01-01T00:00:00Z"}`,
		`{"model":"m","prompt_len":10,"prompt_tokens":20,"completion_tokens":10,"total_tokens":30,"run_id":"run-a","timestamp":"2026-01-01T00:00:01Z"}`,
		`{"model":"m","prompt_len":10,"prompt_tokens":null,"completion_tokens":null,"total_tokens":null,"timestamp":"2026-01-01T00:00:02Z"}`,
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, llm.UsageLogFileName), []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	output, err := execute(t, nil, "token-usage", "--log-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, output, "run-a")
	assert.Contains(t, output, llm.UnassignedRunID)
	assert.Contains(t, output, "2 runs, 40 tokens")

	data, err := os.ReadFile(filepath.Join(dir, usageSummaryFileName))
	require.NoError(t, err)
	var runs []llm.RunUsage
	require.NoError(t, json.Unmarshal(data, &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Calls)
}

func TestTokenUsage_MissingLog(t *testing.T) {
	_, err := execute(t, nil, "token-usage", "--log-dir", t.TempDir())
	assert.Error(t, err)
}

func TestConfigSnapshot(t *testing.T) {
	dir := t.TempDir()
	output, err := execute(t, nil, "config-snapshot", "--version", "v2.0", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, output, "信頼度閾値")

	data, err := os.ReadFile(filepath.Join(dir, "config_snapshot_v2.0.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-test")
}
