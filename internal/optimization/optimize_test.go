package optimization

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/llm/llmtest"
	"github.com/jonathan/recruiter-insight/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layer3Response = `{
  "table": [
    ["項目名", "内容A（求人票の記述）", "内容B（実態推察）", "ギャップ"],
    ["求人票名", "アカウントマネージャー（SaaS）", "B1", "G1"],
    ["採用背景", "記載なし", "事業拡大", "推察のみ（求人票に記載なし）"],
    ["役割", "リーダー", "B2", "G2"],
    ["業務プロセス", "商談\n↓\n受注", "B3", "G3"],
    ["対象製品", "勤怠SaaS", "B4", "G4"],
    ["ステークホルダー", "部長(R)", "B5", "G5"],
    ["使用技術", "Salesforce", "Excel, Salesforce", "G6"],
    ["バリューチェーン", "記載なし", "下流", "推察のみ（求人票に記載なし）"]
  ],
  "explanations": {"求人票名":"e","採用背景":"e","役割":"e","業務プロセス":"e","対象製品":"e","ステークホルダー":"e","使用技術":"e","バリューチェーン":"e"},
  "how_to_read": "見方",
  "confidence_score": 0.1,
  "web_search_performed": true,
  "a_comments": {"求人票名": " 具体的な担当地域。。 ", "役割": 3}
}`

const techResponse = `{"2":{"tech":"HubSpot","purpose":"MA連携"},"1":{"tech":"Salesforce","purpose":"商談管理"},"10":{"tech":"Looker"}}`

func sampleComparison() *types.ComparisonResult {
	return &types.ComparisonResult{
		ContentA: map[string]string{
			types.ItemJobTitle: "法人営業",
			types.ItemRole:     "新規開拓担当",
		},
		ContentB:           map[string]any{},
		GapAnalysis:        map[string]any{},
		ConfidenceScore:    0.72,
		UncertainAspects:   []any{},
		Reasoning:          "r",
		WebSearchPerformed: false,
	}
}

func TestOptimize_FullFlow(t *testing.T) {
	client := llmtest.New(layer3Response, techResponse)

	doc, err := Optimize(context.Background(), client, sampleComparison(), DefaultOptions())
	require.NoError(t, err)

	require.Len(t, doc.TableData, types.CanonicalRowCount)
	assert.Equal(t, types.CanonicalHeader(), doc.TableData[0])
	for i, item := range types.CanonicalItems() {
		assert.Equal(t, item, doc.TableData[i+1][types.CellItem])
		assert.Len(t, doc.TableData[i+1], types.CellCount)
	}

	assert.Equal(t, "法人営業（SaaS）", doc.Cell(types.ItemJobTitle, types.CellContentA))
	assert.Equal(t, "新規開拓担当", doc.Cell(types.ItemRole, types.CellContentA))
	assert.Equal(t, "Salesforce", doc.Cell(types.ItemTechnologies, types.CellContentA))

	assert.Equal(t, "- Salesforce：商談管理\n- HubSpot：MA連携\n- Looker", doc.Cell(types.ItemTechnologies, types.CellContentB))

	require.Len(t, doc.ExtendedRows, 2)
	assert.Equal(t, types.ItemHiringBackground, doc.ExtendedRows[0][types.CellItem])
	assert.Equal(t, types.ItemValueChain, doc.ExtendedRows[1][types.CellItem])

	assert.Equal(t, "具体的な担当地域", doc.AComments[types.ItemJobTitle])
	assert.Equal(t, "3", doc.AComments[types.ItemRole])

	assert.InDelta(t, 0.72, doc.ConfidenceScore, 1e-9)
	assert.False(t, doc.WebSearchPerformed)

	calls := client.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, float32(1), calls[0].Temperature)
	assert.Equal(t, 3500, calls[0].MaxOutputTokens)
	assert.Contains(t, calls[0].Prompt, "上位6個")
	assert.Contains(t, calls[0].Prompt, "Teams, PowerPoint, Excel, Word, Slack")
	assert.Equal(t, TechOperation, calls[1].Operation)
	assert.Equal(t, 800, calls[1].MaxOutputTokens)
	assert.Contains(t, calls[1].Prompt, `"Excel, Salesforce"`)
}

func TestOptimize_TechFailureIsBestEffort(t *testing.T) {
	client := llmtest.NewWithReplies(
		llmtest.Reply{Text: layer3Response},
		llmtest.Reply{Err: errors.New("tech call failed")},
	)

	doc, err := Optimize(context.Background(), client, sampleComparison(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Excel, Salesforce", doc.Cell(types.ItemTechnologies, types.CellContentB))
}

func TestOptimize_MissingCommentsInitialized(t *testing.T) {
	resp := `{"table_data":[["x"],["使用技術","A","- Go\n- Rust","G"]],"explanations":{"求人票名":"","役割":"","業務プロセス":"","対象製品":"","ステークホルダー":"","使用技術":""},"how_to_read":"h"}`
	client := llmtest.New(resp)

	doc, err := Optimize(context.Background(), client, sampleComparison(), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, client.CallCount())
	assert.Len(t, doc.AComments, 6)
	for _, item := range types.CanonicalItems() {
		v, ok := doc.AComments[item]
		assert.True(t, ok, item)
		assert.Empty(t, v)
	}
	assert.Equal(t, "法人営業", doc.Cell(types.ItemJobTitle, types.CellContentA))
}

func TestOptimize_MissingExplanationsFails(t *testing.T) {
	client := llmtest.New(`{"table":[["項目名"],["使用技術","A","- Go\n- Rust","G"]],"how_to_read":"h"}`)

	_, err := Optimize(context.Background(), client, sampleComparison(), DefaultOptions())
	require.Error(t, err)

	var oe *OptimizationError
	require.ErrorAs(t, err, &oe)
	assert.Contains(t, err.Error(), "教育最適化に失敗しました: ")
	assert.Contains(t, err.Error(), "explanations")
}

func TestOptimize_TransportError(t *testing.T) {
	client := llmtest.NewWithReplies(llmtest.Reply{Err: &llm.TransportError{Attempts: 3, Cause: errors.New("x")}})

	_, err := Optimize(context.Background(), client, sampleComparison(), DefaultOptions())
	var te *llm.TransportError
	assert.ErrorAs(t, err, &te)
}

func TestLooksStructured(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"Excel, Python", false},
		{"- Python\n- Go", true},
		{"言語：Python\nDB：PostgreSQL", true},
		{"言語：Python", false},
		{"言語：Python、Go、Rust、TypeScript、Java、Kotlin、Swift、Scala、C++", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksStructured(tt.in), tt.in)
	}
}

func TestRenderTechList(t *testing.T) {
	entries := map[string]any{
		"3": "Terraform",
		"1": map[string]any{"tech": "Go", "purpose": "API開発"},
		"2": map[string]any{"tech": "", "purpose": "ignored"},
	}

	assert.Equal(t, []string{"- Go：API開発", "- Terraform"}, RenderTechList(entries))
}
