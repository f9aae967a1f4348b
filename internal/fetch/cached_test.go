package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedFetcher_HitAndExpiry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<html><body>求人</body></html>"))
	}))
	defer server.Close()

	mr, client := newTestRedis(t)
	f := NewCachedFetcher(client, time.Hour, nil)
	ctx := context.Background()

	first, err := f.Fetch(ctx, server.URL)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.Fetch(ctx, server.URL)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.HTML, second.HTML)
	assert.Equal(t, int32(1), hits.Load())

	mr.FastForward(2 * time.Hour)
	third, err := f.Fetch(ctx, server.URL)
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCachedFetcher_ErrorsAreNotCached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	mr, client := newTestRedis(t)
	f := NewCachedFetcher(client, 0, nil)

	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.False(t, mr.Exists(pageKeyPrefix+server.URL))
}

func TestCachedFetcher_NilClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewCachedFetcher(nil, 0, nil)
	res, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, "ok", res.HTML)
}
