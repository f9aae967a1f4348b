package types

// ComparisonResult is the market-reality comparison of a StructuredJob.
// ContentB, GapAnalysis, UncertainAspects and Reasoning are model-authored
// and may be strings, lists or objects; they are carried through opaquely.
type ComparisonResult struct {
	ContentA           map[string]string `json:"content_a"`
	ContentB           any               `json:"content_b"`
	GapAnalysis        any               `json:"gap_analysis"`
	ConfidenceScore    float64           `json:"confidence_score"`
	UncertainAspects   any               `json:"uncertain_aspects"`
	Reasoning          any               `json:"reasoning"`
	WebSearchPerformed bool              `json:"web_search_performed"`
}

// Clone returns a deep copy. Model-authored fields are copied through their
// decoded JSON shapes.
func (c *ComparisonResult) Clone() *ComparisonResult {
	if c == nil {
		return nil
	}
	out := *c
	if c.ContentA != nil {
		out.ContentA = make(map[string]string, len(c.ContentA))
		for k, v := range c.ContentA {
			out.ContentA[k] = v
		}
	}
	out.ContentB = cloneAny(c.ContentB)
	out.GapAnalysis = cloneAny(c.GapAnalysis)
	out.UncertainAspects = cloneAny(c.UncertainAspects)
	out.Reasoning = cloneAny(c.Reasoning)
	return &out
}

func cloneAny(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneAny(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneAny(e)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	case map[string]string:
		m := make(map[string]string, len(t))
		for k, e := range t {
			m[k] = e
		}
		return m
	}
	return v
}
