package research

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultSerpAPIEndpoint is the SerpAPI search endpoint
const DefaultSerpAPIEndpoint = "https://serpapi.com/search"

// SerpAPIClient searches Google through SerpAPI with Japanese locale.
type SerpAPIClient struct {
	apiKey   string
	endpoint string
	hc       *http.Client
}

// NewSerpAPIClient creates a client with a 30 second timeout
func NewSerpAPIClient(apiKey string) *SerpAPIClient {
	return &SerpAPIClient{
		apiKey:   apiKey,
		endpoint: DefaultSerpAPIEndpoint,
		hc:       &http.Client{Timeout: 30 * time.Second},
	}
}

// WithEndpoint overrides the endpoint, mainly for tests
func (c *SerpAPIClient) WithEndpoint(endpoint string) *SerpAPIClient {
	c.endpoint = endpoint
	return c
}

type serpAPIResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// Search implements Searcher
func (c *SerpAPIClient) Search(ctx context.Context, query string, num int) ([]Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("SERPAPI_KEYが設定されていません")
	}
	zap.S().Infow("SerpAPI search started", "query", query, "num", num)

	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(num))
	params.Set("hl", "ja")
	params.Set("gl", "jp")
	params.Set("engine", "google")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create SerpAPI request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SerpAPI接続エラー: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read SerpAPI response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SerpAPI HTTPエラー: %d", resp.StatusCode)
	}

	var data serpAPIResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("SerpAPIレスポンス解析エラー: %w", err)
	}
	if data.Error != "" {
		return nil, fmt.Errorf("SerpAPIエラー: %s", data.Error)
	}

	results := make([]Result, 0, len(data.OrganicResults))
	for _, item := range data.OrganicResults {
		results = append(results, Result{Title: item.Title, Link: item.Link, Snippet: item.Snippet})
	}
	zap.S().Infow("SerpAPI search succeeded", "results", len(results))
	return results, nil
}
