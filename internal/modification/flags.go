package modification

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/recruiter-insight/internal/prompts"
	"github.com/jonathan/recruiter-insight/internal/validation"
)

// TemplateFlags selects the canned transformations of a template request.
type TemplateFlags struct {
	AddCommentsForA     bool   `json:"add_comments_for_a"`
	SpecializeBTech     bool   `json:"specialize_b_tech"`
	TechCount           int    `json:"tech_count,omitempty" validate:"omitempty,min=1,max=20"`
	TechFocus           string `json:"tech_focus,omitempty" validate:"omitempty,max=200"`
	ReformatBNewlines   bool   `json:"reformat_b_newlines"`
	ImproveGapQuestions bool   `json:"improve_gap_questions"`
}

// Validate checks the numeric and length bounds of the flags.
func (f *TemplateFlags) Validate() error {
	if err := validation.Validator().Struct(f); err != nil {
		return &validation.Error{Field: "template_flags", Message: err.Error()}
	}
	return nil
}

// templateParts renders the instruction block of every enabled flag, in
// fixed order, followed by the output instruction.
func templateParts(f *TemplateFlags, request string, opts Options) ([]string, error) {
	parts := []string{prompts.MustGet(prompts.Modification, "template-header")}

	if f.AddCommentsForA {
		parts = append(parts, prompts.MustGet(prompts.Modification, "template-add-a-comments"))
	}
	if f.SpecializeBTech {
		count := f.TechCount
		if count <= 0 {
			count = opts.TechCount
		}
		focus := strings.TrimSpace(f.TechFocus)
		if focus == "" {
			focus = opts.TechFocus
		}
		part, err := prompts.Render(prompts.Modification, "template-specialize-tech", map[string]string{
			"Blacklist": strings.Join(opts.TechBlacklist, ", "),
			"TechFocus": focus,
			"TechCount": strconv.Itoa(count),
		})
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	if f.ReformatBNewlines {
		parts = append(parts, prompts.MustGet(prompts.Modification, "template-reformat-b"))
	}
	if f.ImproveGapQuestions {
		parts = append(parts, prompts.MustGet(prompts.Modification, "template-improve-gap"))
	}
	if request = strings.TrimSpace(request); request != "" {
		parts = append(parts, fmt.Sprintf("5) 追加の修正依頼: %s", request))
	}

	parts = append(parts, prompts.MustGet(prompts.Modification, "template-output"))
	return parts, nil
}
