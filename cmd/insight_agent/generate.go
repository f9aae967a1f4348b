package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-insight/internal/export"
	"github.com/jonathan/recruiter-insight/internal/fetch"
	"github.com/jonathan/recruiter-insight/internal/observability"
	"github.com/jonathan/recruiter-insight/internal/pipeline"
)

type generateOptions struct {
	jobFile  string
	url      string
	category string
	out      string
	format   string
}

func newGenerateCmd(a *app) *cobra.Command {
	o := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Analyze a job posting and write the comparison table",
		Long: "Structure a job posting from a text file or URL, compare it with market reality " +
			"and write the final document as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, a, o)
		},
	}
	cmd.Flags().StringVarP(&o.jobFile, "job", "j", "", "Path to a text file containing the job posting")
	cmd.Flags().StringVarP(&o.url, "url", "u", "", "URL to fetch the job posting from")
	cmd.Flags().StringVarP(&o.category, "category", "c", "", "Job category used for market research")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "Output path of the final document JSON (required)")
	cmd.Flags().StringVar(&o.format, "export", "", "Also export the table as csv or tsv next to --out")
	_ = cmd.MarkFlagRequired("out")
	cmd.MarkFlagsMutuallyExclusive("job", "url")
	cmd.MarkFlagsOneRequired("job", "url")
	return cmd
}

func runGenerate(cmd *cobra.Command, a *app, o *generateOptions) error {
	ctx := cmd.Context()

	var format export.Format
	if o.format != "" {
		f, err := export.ParseFormat(o.format)
		if err != nil {
			return err
		}
		format = f
	}

	client, err := a.modelClient(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	rdb, err := connectRedis(ctx, a.cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	searcher, err := newSearcher(ctx, a.cfg, rdb)
	if err != nil {
		return err
	}
	runs, closeRuns, err := openRunStore(ctx, a.cfg, false)
	if err != nil {
		return err
	}
	defer closeRuns()

	opts := pipeline.OptionsFromConfig(a.cfg)
	opts.JobPath = o.jobFile
	opts.JobURL = o.url
	opts.Category = o.category

	deps := pipeline.Deps{
		Client:   client,
		Searcher: searcher,
		Store:    runs,
		Fetcher:  fetch.NewCachedFetcher(rdb, fetch.DefaultPageCacheTTL, fetch.DefaultOptions()),
		Render:   newRenderer(a.cfg),
	}

	stderr := cmd.ErrOrStderr()
	result, err := pipeline.Run(ctx, deps, opts, func(e pipeline.ProgressEvent) {
		fmt.Fprintf(stderr, "[%s] %s\n", e.Step, e.Message)
	})
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if a.cfg.Verbose {
		printer.PrintStructuredJob(result.StructuredJob)
		printer.PrintComparison(result.Comparison)
	}
	printer.PrintFinalDocument(result.Document)

	if err := writeJSON(o.out, result.Document); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Final document: %s\n", o.out)
	fmt.Fprintf(cmd.OutOrStdout(), "Run ID: %s\n", result.RunID)

	if format != "" {
		path := strings.TrimSuffix(o.out, filepath.Ext(o.out)) + format.Extension()
		if err := exportFile(path, result.Document, format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Export: %s\n", path)
	}
	return nil
}
