package prompt

import (
	"fmt"
	"strings"

	"clinsynth/internal/domain"
)

// Prompt is the pair of messages sent to a model provider.
type Prompt struct {
	SystemInstruction string
	UserMessage       string
}

// Build assembles the system instruction and the user message for an analysis. Document
// text is always included in full; sizing the input is the caller's concern.
func Build(docs []domain.SourceDocument, clinicalContext string) Prompt {
	return Prompt{
		SystemInstruction: SystemInstruction(),
		UserMessage:       userMessage(docs, clinicalContext),
	}
}

// SystemInstruction returns the fixed analyst instruction, ending with the required
// output skeleton taken from domain.ReportSections.
func SystemInstruction() string {
	return `You are a senior clinical analyst synthesizing a comprehensive clinical report from the medical documents provided by the user. Your audience is a treating clinician who will read your report alongside the source documents.

CITATION POLICY (MANDATORY):
- Every clinical claim, value, interpretation and recommendation MUST carry a citation in square brackets.
- Use exactly one of these source categories:
  - [SOURCE: <document id>] for anything taken from a provided document (use the Document ID shown in the input)
  - [GUIDELINE: <issuing body and guideline name>] for published clinical practice guidelines
  - [LITERATURE: <author, journal, year>] for peer-reviewed literature
  - [CLINICAL KNOWLEDGE] for widely accepted textbook medical knowledge
- Never invent document ids. If a claim cannot be attributed, state it as an uncertainty instead.

ABNORMAL VALUE RULE (STRICT):
- Only flag a value as abnormal, high, low or critical when it falls outside the reference range explicitly stated in the source document.
- If a document gives no reference range for a value, report the value as stated and say that no reference range was provided. Do not infer abnormality from general knowledge.
- Always quote the value, its unit and the stated reference range together.

DEPTH AND COMPLETENESS:
- Every section below must contain substantive content. Never output a header with nothing under it.
- Review every document in full. Correlate findings across documents and across dates.
- Prefer specific, quantitative statements over general ones.
- If a section genuinely has nothing to report, write one sentence explaining why.

REQUIRED OUTPUT FORMAT:
Respond in markdown using exactly these level-two headers, in this order:

` + skeleton() + `
Do not add a preamble before the first header. Do not rename, merge, or reorder the headers.`
}

// skeleton renders the ordered header list with per-section guidance.
func skeleton() string {
	var b strings.Builder
	for _, s := range domain.ReportSections {
		fmt.Fprintf(&b, "## %s\n%s\n\n", s.Heading, s.Guidance)
	}
	return b.String()
}

func userMessage(docs []domain.SourceDocument, clinicalContext string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Please analyze the following %d clinical document(s) and produce the clinical report.\n\n", len(docs))

	if ctx := strings.TrimSpace(clinicalContext); ctx != "" {
		b.WriteString("## Clinical Context\n")
		b.WriteString(ctx)
		b.WriteString("\n\n")
	}

	b.WriteString("## Documents\n\n")
	for i, doc := range docs {
		cat := Classify(doc)
		fmt.Fprintf(&b, "### Document %d: %s\n", i+1, doc.DisplayName)
		fmt.Fprintf(&b, "Document ID: %s\n", doc.ID)
		fmt.Fprintf(&b, "Document Type: %s\n", cat.Label)
		if doc.MIMEType != "" {
			fmt.Fprintf(&b, "Format: %s\n", doc.MIMEType)
		}
		b.WriteString("\n--- BEGIN DOCUMENT TEXT ---\n")
		b.WriteString(doc.ExtractedText)
		b.WriteString("\n--- END DOCUMENT TEXT ---\n\n")
	}

	b.WriteString("## Required Output Checklist\n")
	b.WriteString("Your report must contain every one of these headers, each followed by substantive content:\n")
	for _, s := range domain.ReportSections {
		fmt.Fprintf(&b, "- [ ] ## %s\n", s.Heading)
	}
	b.WriteString("\nCite every claim using [SOURCE: <document id>] or another recognized source category.\n")

	return b.String()
}
