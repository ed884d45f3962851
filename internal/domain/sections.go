package domain

// SectionKey identifies one section of the synthesized clinical report.
type SectionKey string

const (
	SectionSummary         SectionKey = "summary"
	SectionKeyFindings     SectionKey = "key_findings"
	SectionKeyValues       SectionKey = "key_values"
	SectionCorrelations    SectionKey = "clinical_correlations"
	SectionRecommendations SectionKey = "recommendations"
	SectionUncertainties   SectionKey = "uncertainties"
	SectionReferences      SectionKey = "references"
)

// ReportSection describes one required markdown section. Heading is the exact text the
// model is told to emit after "## "; Aliases are the alternative headings the extractor
// accepts, tried after Heading in the order listed.
type ReportSection struct {
	Key      SectionKey
	Heading  string
	Aliases  []string
	Guidance string
}

// ReportSections is the ordered output skeleton shared by the prompt builder and the
// section extractor. Changing a heading here changes both sides together.
var ReportSections = []ReportSection{
	{
		Key:      SectionSummary,
		Heading:  "Executive Summary",
		Aliases:  []string{"Summary", "Clinical Summary", "Overview"},
		Guidance: "A concise narrative of the overall clinical picture across all documents, with citations.",
	},
	{
		Key:      SectionKeyFindings,
		Heading:  "Key Findings",
		Aliases:  []string{"Findings", "Significant Findings", "Main Findings"},
		Guidance: "A numbered list, one finding per line, formatted as **Category:** detail [SOURCE: id].",
	},
	{
		Key:      SectionKeyValues,
		Heading:  "Key Laboratory Values",
		Aliases:  []string{"Key Values", "Laboratory Values", "Lab Values"},
		Guidance: "One line per measured value, formatted as Test: value unit (reference range) [SOURCE: id].",
	},
	{
		Key:      SectionCorrelations,
		Heading:  "Clinical Correlations",
		Aliases:  []string{"Correlations", "Clinical Correlation", "Integrated Interpretation"},
		Guidance: "How findings across documents relate to each other and to the clinical context.",
	},
	{
		Key:      SectionRecommendations,
		Heading:  "Recommendations",
		Aliases:  []string{"Clinical Recommendations", "Recommended Next Steps", "Next Steps"},
		Guidance: "A numbered list of concrete, actionable follow-up steps, each with a citation.",
	},
	{
		Key:      SectionUncertainties,
		Heading:  "Uncertainties and Limitations",
		Aliases:  []string{"Uncertainties", "Limitations", "Data Gaps"},
		Guidance: "Missing data, conflicting results, and the limits of this analysis.",
	},
	{
		Key:      SectionReferences,
		Heading:  "References",
		Aliases:  []string{"Sources", "Citations"},
		Guidance: "Every source cited above, grouped by source category.",
	},
}

// Section returns the vocabulary entry for key. The zero value is returned for unknown keys.
func Section(key SectionKey) ReportSection {
	for _, s := range ReportSections {
		if s.Key == key {
			return s
		}
	}
	return ReportSection{}
}

// HeaderNames returns the heading followed by its aliases, in lookup order.
func (s ReportSection) HeaderNames() []string {
	names := make([]string, 0, len(s.Aliases)+1)
	names = append(names, s.Heading)
	return append(names, s.Aliases...)
}
