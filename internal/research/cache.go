package research

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "research:search:"

// CachedSearcher memoizes search results in Redis. Cache errors never fail
// a search; they fall through to the wrapped searcher.
type CachedSearcher struct {
	inner Searcher
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedSearcher wraps inner with a Redis cache
func NewCachedSearcher(inner Searcher, rdb *redis.Client, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(query string, num int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", num, query)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Search implements Searcher
func (c *CachedSearcher) Search(ctx context.Context, query string, num int) ([]Result, error) {
	key := cacheKey(query, num)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var results []Result
		if jerr := json.Unmarshal(cached, &results); jerr == nil {
			zap.S().Debugw("search cache hit", "query", query)
			return results, nil
		}
	case !errors.Is(err, redis.Nil):
		zap.S().Debugw("search cache read failed", "error", err)
	}

	results, err := c.inner.Search(ctx, query, num)
	if err != nil {
		return nil, err
	}

	if data, jerr := json.Marshal(results); jerr == nil {
		if serr := c.rdb.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			zap.S().Debugw("search cache write failed", "error", serr)
		}
	}
	return results, nil
}
