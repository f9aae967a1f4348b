package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-insight/internal/export"
	"github.com/jonathan/recruiter-insight/internal/types"
)

type exportOptions struct {
	in     string
	format string
	out    string
}

func newExportCmd(_ *app) *cobra.Command {
	o := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a final document as CSV or TSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := export.ParseFormat(o.format)
			if err != nil {
				return err
			}
			doc, err := readDocument(o.in)
			if err != nil {
				return err
			}
			out := o.out
			if out == "" {
				out = strings.TrimSuffix(o.in, filepath.Ext(o.in)) + format.Extension()
			}
			if err := exportFile(out, doc, format); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", len(doc.TableData)+len(doc.ExtendedRows), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&o.in, "in", "i", "", "Path to the final document JSON (required)")
	cmd.Flags().StringVarP(&o.format, "format", "f", string(export.CSV), "Export format: csv or tsv")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "Output path (defaults to --in with the format extension)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func exportFile(path string, doc *types.FinalDocument, format export.Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close export file: %w", cerr)
		}
	}()
	return export.WriteTable(f, doc, format)
}
