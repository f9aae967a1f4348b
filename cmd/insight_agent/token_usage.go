package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-insight/internal/llm"
)

// usageSummaryFileName is written next to the usage log.
const usageSummaryFileName = "token_usage_summary.json"

func newTokenUsageCmd(a *app) *cobra.Command {
	var logDir string
	cmd := &cobra.Command{
		Use:   "token-usage",
		Short: "Summarize token usage per run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := logDir
			if dir == "" {
				dir = a.cfg.LogDir
			}
			records, err := llm.ReadUsage(filepath.Join(dir, llm.UsageLogFileName))
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return llm.ErrNoUsage
			}
			runs := llm.AggregateUsage(records)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN ID\tCALLS\tPROMPT\tCOMPLETION\tTOTAL\tAVG/CALL")
			var total int
			for _, r := range runs {
				total += r.TotalTokens
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.1f\n",
					r.RunID, r.Calls, r.PromptTokens, r.CompletionTokens, r.TotalTokens, r.AveragePerCall())
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d runs, %d tokens\n", len(runs), total)

			summary := filepath.Join(dir, usageSummaryFileName)
			if err := llm.WriteAggregate(summary, runs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Summary: %s\n", summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&logDir, "log-dir", "", "Directory holding the token usage log (defaults to log_dir)")
	return cmd
}
