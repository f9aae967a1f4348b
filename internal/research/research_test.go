package research

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	mu      sync.Mutex
	byQuery map[string][]Result
	err     error
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string, _ int) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.byQuery[query], nil
}

func TestFormatResults(t *testing.T) {
	flow := []Result{{Title: strings.Repeat("t", 120), Snippet: "abcdef"}}

	got := FormatResults(flow, nil, 3)

	want := "【検索1: 業務フロー】\n" +
		"1. " + strings.Repeat("t", 100) + "\nabc\n\n" +
		"\n【検索2: 使用技術】\n" +
		"（検索結果なし）\n\n"
	assert.Equal(t, want, got)
}

func TestDualQueries(t *testing.T) {
	flow, tech := DualQueries("法人営業")
	assert.Equal(t, "法人営業 業務フロー 標準的な流れ", flow)
	assert.Equal(t, "法人営業 使用技術 ツール 最新", tech)
}

func TestDualSearch(t *testing.T) {
	flowQ, techQ := DualQueries("経理")
	s := &stubSearcher{byQuery: map[string][]Result{
		flowQ: {{Title: "月次決算の流れ", Snippet: "仕訳→試算表"}},
		techQ: {{Title: "会計ソフト比較", Snippet: "freee, 勘定奉行"}},
	}}

	got := DualSearch(context.Background(), s, "経理", 5, 3000)

	assert.Contains(t, got, "1. 月次決算の流れ\n仕訳→試算表")
	assert.Contains(t, got, "1. 会計ソフト比較\nfreee, 勘定奉行")
	assert.Len(t, s.queries, 2)
}

func TestSearchWithFallback_ErrorReturnsEmpty(t *testing.T) {
	s := &stubSearcher{err: errors.New("quota exceeded")}

	results := SearchWithFallback(context.Background(), s, "q", 5)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchWithFallback_NilSearcher(t *testing.T) {
	assert.Empty(t, SearchWithFallback(context.Background(), nil, "q", 5))
}

func TestSerpAPIClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "営業 業務フロー", q.Get("q"))
		assert.Equal(t, "key", q.Get("api_key"))
		assert.Equal(t, "5", q.Get("num"))
		assert.Equal(t, "ja", q.Get("hl"))
		assert.Equal(t, "jp", q.Get("gl"))
		assert.Equal(t, "google", q.Get("engine"))
		_, _ = w.Write([]byte(`{"organic_results":[{"title":"T","link":"https://example.com","snippet":"S"}]}`))
	}))
	defer srv.Close()

	c := NewSerpAPIClient("key").WithEndpoint(srv.URL)
	results, err := c.Search(context.Background(), "営業 業務フロー", 5)
	require.NoError(t, err)
	assert.Equal(t, []Result{{Title: "T", Link: "https://example.com", Snippet: "S"}}, results)
}

func TestSerpAPIClient_ErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Invalid API key"}`))
	}))
	defer srv.Close()

	_, err := NewSerpAPIClient("key").WithEndpoint(srv.URL).Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestSerpAPIClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewSerpAPIClient("key").WithEndpoint(srv.URL).Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSerpAPIClient_MissingKey(t *testing.T) {
	_, err := NewSerpAPIClient("").Search(context.Background(), "q", 5)
	assert.Error(t, err)
}

func TestCachedSearcher(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	inner := &stubSearcher{byQuery: map[string][]Result{"q": {{Title: "T"}}}}
	c := NewCachedSearcher(inner, rdb, time.Hour)

	first, err := c.Search(context.Background(), "q", 5)
	require.NoError(t, err)
	second, err := c.Search(context.Background(), "q", 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, inner.queries, 1)

	mr.FastForward(2 * time.Hour)
	_, err = c.Search(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Len(t, inner.queries, 2)
}

func TestCachedSearcher_ErrorNotCached(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	inner := &stubSearcher{err: errors.New("down")}
	c := NewCachedSearcher(inner, rdb, time.Hour)

	_, err = c.Search(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Empty(t, mr.Keys())
}
