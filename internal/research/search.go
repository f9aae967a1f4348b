// Package research provides the web-search collaborator consumed by the
// comparison stage: search backends, a fallback-to-empty wrapper, and the
// dual query used to build web context.
package research

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is one organic search hit
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string, num int) ([]Result, error)
}

// maxTitleRunes bounds each result title in the formatted context.
const maxTitleRunes = 100

// SearchWithFallback runs the search and returns an empty slice on any
// failure, so callers continue with model knowledge only.
func SearchWithFallback(ctx context.Context, s Searcher, query string, num int) []Result {
	if s == nil {
		return []Result{}
	}
	results, err := s.Search(ctx, query, num)
	if err != nil {
		zap.S().Warnw("web search failed, continuing without results", "query", query, "error", err)
		return []Result{}
	}
	return results
}

// DualQueries returns the business-flow and technology queries for a job category.
func DualQueries(category string) (flow, tech string) {
	return fmt.Sprintf("%s 業務フロー 標準的な流れ", category),
		fmt.Sprintf("%s 使用技術 ツール 最新", category)
}

// DualSearch runs both category queries concurrently and returns the
// formatted context. Failed queries contribute an empty section.
func DualSearch(ctx context.Context, s Searcher, category string, num, maxChars int) string {
	flowQuery, techQuery := DualQueries(category)
	zap.S().Infow("dual search started", "category", category)

	var flow, tech []Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		flow = SearchWithFallback(gctx, s, flowQuery, num)
		return nil
	})
	g.Go(func() error {
		tech = SearchWithFallback(gctx, s, techQuery, num)
		return nil
	})
	_ = g.Wait()

	formatted := FormatResults(flow, tech, maxChars)
	zap.S().Infow("dual search completed",
		"flow_results", len(flow), "tech_results", len(tech),
		"context_chars", len([]rune(formatted)))
	return formatted
}

// FormatResults renders both result sets as numbered sections. Titles are
// cut to 100 runes and snippets to maxChars runes.
func FormatResults(flow, tech []Result, maxChars int) string {
	var sb strings.Builder
	sb.WriteString("【検索1: 業務フロー】\n")
	writeSection(&sb, flow, maxChars)
	sb.WriteString("\n【検索2: 使用技術】\n")
	writeSection(&sb, tech, maxChars)
	return sb.String()
}

func writeSection(sb *strings.Builder, results []Result, maxChars int) {
	if len(results) == 0 {
		sb.WriteString("（検索結果なし）\n\n")
		return
	}
	for i, r := range results {
		fmt.Fprintf(sb, "%d. %s\n%s\n\n", i+1, cutRunes(r.Title, maxTitleRunes), cutRunes(r.Snippet, maxChars))
	}
}

func cutRunes(s string, n int) string {
	if n < 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
