package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/config"
	"github.com/jonathan/recruiter-insight/internal/db"
	"github.com/jonathan/recruiter-insight/internal/fetch"
	"github.com/jonathan/recruiter-insight/internal/research"
)

// connectRedis returns nil when no REDIS_URL is configured.
func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// newSearcher picks SerpAPI, then Google Custom Search, and wraps the
// choice in the Redis cache when one is available. It returns nil when no
// search backend is configured.
func newSearcher(ctx context.Context, cfg *config.Config, rdb *redis.Client) (research.Searcher, error) {
	var searcher research.Searcher
	switch {
	case cfg.SerpAPIKey != "":
		searcher = research.NewSerpAPIClient(cfg.SerpAPIKey)
	case cfg.GoogleSearchAPIKey != "" && cfg.GoogleSearchCX != "":
		cs, err := research.NewCustomSearchClient(ctx, cfg.GoogleSearchAPIKey, cfg.GoogleSearchCX)
		if err != nil {
			return nil, err
		}
		searcher = cs
	default:
		zap.S().Infow("web search disabled: no search backend configured")
		return nil, nil
	}
	if rdb != nil {
		searcher = research.NewCachedSearcher(searcher, rdb, cfg.SearchCacheTTL.Duration)
	}
	return searcher, nil
}

// openRunStore connects to PostgreSQL when DATABASE_URL is set and returns
// a close function. Without a database, runs are kept in memory when
// memoryFallback is set and not recorded otherwise.
func openRunStore(ctx context.Context, cfg *config.Config, memoryFallback bool) (db.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		if memoryFallback {
			return db.NewMemoryStore(), func() {}, nil
		}
		return nil, func() {}, nil
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}
	return database, database.Close, nil
}

func newRenderer(cfg *config.Config) fetch.Renderer {
	if !cfg.UseBrowser {
		return nil
	}
	return fetch.DefaultRenderer
}
