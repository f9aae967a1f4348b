package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/recruiter-insight/internal/fetch"
	"github.com/jonathan/recruiter-insight/internal/server"
	"github.com/jonathan/recruiter-insight/internal/session"
)

// sweepInterval is how often the in-memory session store drops idle sessions.
const sweepInterval = 5 * time.Minute

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  "Start an HTTP server exposing sessions, generation, modification, QA and export.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port > 0 {
				a.cfg.Port = port
			}
			return runServe(cmd, a)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (defaults to PORT or 8080)")
	return cmd
}

func runServe(cmd *cobra.Command, a *app) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := a.modelClient(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	rdb, err := connectRedis(ctx, a.cfg)
	if err != nil {
		return err
	}

	var sessions session.Store
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		sessions = session.NewRedisStore(rdb, a.cfg.SessionTTL.Duration)
		zap.S().Infow("using redis session store")
	} else {
		mem := session.NewMemoryStore(a.cfg.SessionTTL.Duration)
		go mem.RunSweeper(ctx, sweepInterval)
		sessions = mem
		zap.S().Infow("using in-memory session store")
	}

	searcher, err := newSearcher(ctx, a.cfg, rdb)
	if err != nil {
		return err
	}
	runs, closeRuns, err := openRunStore(ctx, a.cfg, true)
	if err != nil {
		return err
	}
	defer closeRuns()

	srv, err := server.New(server.Deps{
		Config:   a.cfg,
		Client:   client,
		Searcher: searcher,
		Sessions: sessions,
		Runs:     runs,
		Fetcher:  fetch.NewCachedFetcher(rdb, fetch.DefaultPageCacheTTL, fetch.DefaultOptions()),
		Render:   newRenderer(a.cfg),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), a.cfg.Summary())
	return srv.Start(ctx)
}
