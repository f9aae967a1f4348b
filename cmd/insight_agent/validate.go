package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-insight/internal/schemas"
	"github.com/jonathan/recruiter-insight/internal/types"
	"github.com/jonathan/recruiter-insight/internal/validation"
)

func newValidateCmd(_ *app) *cobra.Command {
	var in, kind string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an artifact against its JSON Schema and semantic rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := schemas.ParseKind(kind)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", in, err)
			}
			if err := schemas.Validate(k, data); err != nil {
				return err
			}
			if err := validateSemantics(k, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is a valid %s artifact\n", in, k)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Path to the JSON artifact (required)")
	cmd.Flags().StringVarP(&kind, "kind", "k", string(schemas.KindFinalDocument), "Artifact kind: final, structured or comparison")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// validateSemantics applies the rules the schemas cannot express, such as
// the canonical row order of a final document.
func validateSemantics(kind schemas.Kind, data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse artifact: %w", err)
	}
	switch kind {
	case schemas.KindStructuredJob:
		_, err := validation.StructuredJob(raw)
		return err
	case schemas.KindComparison:
		_, err := validation.Comparison(raw)
		return err
	default:
		doc, err := types.FinalDocumentFromMap(raw)
		if err != nil {
			return err
		}
		return validation.FinalDocument(doc)
	}
}
