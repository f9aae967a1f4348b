// Package main provides the insight_agent CLI and HTTP server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-insight/internal/config"
	"github.com/jonathan/recruiter-insight/internal/llm"
	"github.com/jonathan/recruiter-insight/internal/observability"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool

	cfg       *config.Config
	closeLogs func()

	// newClient builds the model client; tests replace it.
	newClient func(ctx context.Context, cfg *config.Config) (llm.Client, error)
}

func defaultClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	return llm.NewClient(ctx, cfg.LLMConfig(), cfg.APIKey())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "insight_agent",
		Short: "Recruiter Insight: job posting vs. market reality",
		Long: "Recruiter Insight structures a job posting, compares it with market reality " +
			"and produces a four-column comparison table for recruiters.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Read(a.configPath)
			if err != nil {
				return err
			}
			if a.verbose {
				cfg.Verbose = true
			}
			a.cfg = cfg

			closeLogs, err := observability.Setup(observability.LogConfig{
				Level:   cfg.LogLevel,
				Dir:     cfg.LogDir,
				Verbose: cfg.Verbose,
			})
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}
			a.closeLogs = closeLogs
			observability.InitMetrics()
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.closeLogs != nil {
				a.closeLogs()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a JSON config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Print intermediate results and debug logs")

	root.AddCommand(
		newGenerateCmd(a),
		newModifyCmd(a),
		newAskCmd(a),
		newExportCmd(a),
		newValidateCmd(a),
		newTokenUsageCmd(a),
		newServeCmd(a),
		newConfigSnapshotCmd(a),
	)
	return root
}

// modelClient validates the configuration and builds the model client.
func (a *app) modelClient(ctx context.Context) (llm.Client, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	return a.newClient(ctx, a.cfg)
}

func run(args []string, stdout, stderr io.Writer) error {
	a := &app{newClient: defaultClient}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(context.Background())
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
