package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-insight/internal/pipeline"
	"github.com/jonathan/recruiter-insight/internal/qa"
	"github.com/jonathan/recruiter-insight/internal/types"
)

type askOptions struct {
	in       string
	question string
	history  string
}

func newAskCmd(a *app) *cobra.Command {
	o := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask a question about a final document",
		Long: "Answer a question about a final document. With --history the conversation is " +
			"read from and written back to a JSON file.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAsk(cmd, a, o)
		},
	}
	cmd.Flags().StringVarP(&o.in, "in", "i", "", "Path to the final document JSON (required)")
	cmd.Flags().StringVarP(&o.question, "question", "q", "", "Question to ask (required)")
	cmd.Flags().StringVar(&o.history, "history", "", "Path to the QA history JSON file")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func readHistory(path string) ([]types.QATurn, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	var history []types.QATurn
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", path, err)
	}
	return history, nil
}

func runAsk(cmd *cobra.Command, a *app, o *askOptions) error {
	ctx := cmd.Context()
	doc, err := readDocument(o.in)
	if err != nil {
		return err
	}
	history, err := readHistory(o.history)
	if err != nil {
		return err
	}

	client, err := a.modelClient(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	result, err := qa.Answer(ctx, client, doc, o.question, history, pipeline.QAOptionsFromConfig(a.cfg))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Answer)

	if o.history != "" {
		return writeJSON(o.history, result.History)
	}
	return nil
}
