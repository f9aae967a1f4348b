package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultPageCacheTTL is how long fetched pages stay in the cache.
const DefaultPageCacheTTL = 24 * time.Hour

const pageKeyPrefix = "page:"

// CachedFetcher wraps URL fetching with a Redis page cache. Failed fetches
// are never cached.
type CachedFetcher struct {
	client  *redis.Client
	options *Options
	ttl     time.Duration
	fetch   func(ctx context.Context, url string, opts *Options) (*Result, error)
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// NewCachedFetcher creates a fetcher. A nil client disables caching.
func NewCachedFetcher(client *redis.Client, ttl time.Duration, opts *Options) *CachedFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if ttl <= 0 {
		ttl = DefaultPageCacheTTL
	}
	return &CachedFetcher{client: client, options: opts, ttl: ttl, fetch: URL}
}

// Fetch retrieves a URL, serving from the cache when a fresh copy exists.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	if f.client != nil {
		raw, err := f.client.Get(ctx, pageKeyPrefix+urlStr).Bytes()
		switch {
		case err == nil:
			var cached Result
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				zap.S().Debugw("page cache hit", "url", urlStr)
				return &CachedResult{Result: &cached, FromCache: true}, nil
			}
		case !errors.Is(err, redis.Nil):
			zap.S().Warnw("page cache lookup failed", "url", urlStr, "error", err)
		}
	}

	result, err := f.fetch(ctx, urlStr, f.options)
	if err != nil {
		return nil, err
	}

	if f.client != nil {
		if err := f.store(ctx, result); err != nil {
			zap.S().Warnw("page cache store failed", "url", urlStr, "error", err)
		}
	}
	return &CachedResult{Result: result}, nil
}

func (f *CachedFetcher) store(ctx context.Context, result *Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode page: %w", err)
	}
	return f.client.Set(ctx, pageKeyPrefix+result.URL, raw, f.ttl).Err()
}
