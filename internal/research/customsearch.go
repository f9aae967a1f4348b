package research

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// maxCustomSearchNum is the largest page size the Custom Search API accepts.
const maxCustomSearchNum = 10

// CustomSearchClient searches through the Google Custom Search JSON API
type CustomSearchClient struct {
	svc *customsearch.Service
	cx  string
}

// NewCustomSearchClient creates a client for the given engine id
func NewCustomSearchClient(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*CustomSearchClient, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("custom search requires both an API key and an engine id")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &CustomSearchClient{svc: svc, cx: cx}, nil
}

// Search implements Searcher
func (c *CustomSearchClient) Search(ctx context.Context, query string, num int) ([]Result, error) {
	num = min(max(num, 1), maxCustomSearchNum)

	resp, err := c.svc.Cse.List().Cx(c.cx).Q(query).Num(int64(num)).Hl("ja").Gl("jp").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("custom search failed: %w", err)
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, Result{Title: item.Title, Link: item.Link, Snippet: item.Snippet})
	}
	return results, nil
}
