package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-insight/internal/config"
)

func newConfigSnapshotCmd(a *app) *cobra.Command {
	var version, dir string
	cmd := &cobra.Command{
		Use:   "config-snapshot",
		Short: "Write the reproducibility snapshot of the current configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.SaveSnapshot(a.cfg, dir, version)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.cfg.Summary())
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "v1.0", "Version label of the snapshot")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write the snapshot to")
	return cmd
}
