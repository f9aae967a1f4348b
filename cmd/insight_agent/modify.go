package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-insight/internal/modification"
	"github.com/jonathan/recruiter-insight/internal/observability"
	"github.com/jonathan/recruiter-insight/internal/pipeline"
)

type modifyOptions struct {
	in      string
	request string
	out     string

	addComments bool
	specialize  bool
	techCount   int
	techFocus   string
	reformatB   bool
	improveGap  bool
}

func (o *modifyOptions) flags() *modification.TemplateFlags {
	if !o.addComments && !o.specialize && !o.reformatB && !o.improveGap {
		return nil
	}
	return &modification.TemplateFlags{
		AddCommentsForA:     o.addComments,
		SpecializeBTech:     o.specialize,
		TechCount:           o.techCount,
		TechFocus:           o.techFocus,
		ReformatBNewlines:   o.reformatB,
		ImproveGapQuestions: o.improveGap,
	}
}

func newModifyCmd(a *app) *cobra.Command {
	o := &modifyOptions{}
	cmd := &cobra.Command{
		Use:   "modify",
		Short: "Apply a modification request to a final document",
		Long: "Apply a free-text modification request, or a combination of template flags, " +
			"to a final document. Content-A cells are never changed.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runModify(cmd, a, o)
		},
	}
	cmd.Flags().StringVarP(&o.in, "in", "i", "", "Path to the final document JSON (required)")
	cmd.Flags().StringVarP(&o.request, "request", "r", "", "Modification request text")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "Output path of the modified document (required)")
	cmd.Flags().BoolVar(&o.addComments, "add-a-comments", false, "Add comments to the content-A column")
	cmd.Flags().BoolVar(&o.specialize, "specialize-tech", false, "Specialize the technology row of content-B")
	cmd.Flags().IntVar(&o.techCount, "tech-count", 0, "Number of technologies to list (1-20)")
	cmd.Flags().StringVar(&o.techFocus, "tech-focus", "", "Technology focus area")
	cmd.Flags().BoolVar(&o.reformatB, "reformat-b", false, "Reformat content-B with one entry per line")
	cmd.Flags().BoolVar(&o.improveGap, "improve-gap", false, "Rewrite gaps as interview questions")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runModify(cmd *cobra.Command, a *app, o *modifyOptions) error {
	ctx := cmd.Context()
	doc, err := readDocument(o.in)
	if err != nil {
		return err
	}
	req := modification.Request{Text: o.request, Flags: o.flags()}

	client, err := a.modelClient(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	resp, err := modification.Apply(ctx, client, doc, req, pipeline.ModificationOptionsFromConfig(a.cfg))
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.PrintModification(resp)
	if a.cfg.Verbose {
		printer.PrintFinalDocument(resp.ModifiedOutput)
	}
	if err := writeJSON(o.out, resp.ModifiedOutput); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Modified document: %s\n", o.out)
	return nil
}
