package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clinsynth/internal/extract"
)

func TestSection_MarkdownHeading(t *testing.T) {
	text := "## Executive Summary\nPatient stable. [SOURCE: doc-1]\n\n## Key Findings\n1. x"

	body, ok := extract.Section(text, "Executive Summary")

	assert.True(t, ok)
	assert.Equal(t, "Patient stable. [SOURCE: doc-1]", body)
}

func TestSection_RunsToEndOfText(t *testing.T) {
	body, ok := extract.Section("# Report\n### Recommendations\n1. Repeat CBC\n2. Refer  \n", "Recommendations")

	assert.True(t, ok)
	assert.Equal(t, "1. Repeat CBC\n2. Refer", body)
}

func TestSection_HeadingVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"numbered", "## 2. Key Findings\nbody\n## Next"},
		{"bold", "### **Key Findings**\nbody\n## Next"},
		{"trailing colon", "## Key Findings:\nbody\n## Next"},
		{"lower case", "## key findings\nbody\n## Next"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ok := extract.Section(tt.text, "Key Findings")
			assert.True(t, ok)
			assert.Equal(t, "body", body)
		})
	}
}

func TestSection_StylePrecedesAliasOrder(t *testing.T) {
	text := "**Executive Summary:** from label\n\n## Overview\nfrom heading"

	body, ok := extract.Section(text, "Executive Summary", "Overview")

	assert.True(t, ok)
	assert.Equal(t, "from heading", body)
}

func TestSection_AliasesTriedInOrder(t *testing.T) {
	text := "## Overview\nfirst\n\n## Clinical Summary\nsecond"

	body, _ := extract.Section(text, "Clinical Summary", "Overview")

	assert.Equal(t, "second", body)
}

func TestSection_EmphasizedLabel(t *testing.T) {
	text := "**Summary:** Stable overall.\nMore text.\n**Key Findings:**\n- a"

	body, ok := extract.Section(text, "Summary")

	assert.True(t, ok)
	assert.Equal(t, "Stable overall.\nMore text.", body)
}

func TestSection_EmphasizedLabelKeepsSubLabels(t *testing.T) {
	text := "**Key Findings:**\n**Hepatic:** ALT 45\n**Renal:** normal\n\n**Recommendations:** none"

	body, ok := extract.Section(text, "Key Findings")

	assert.True(t, ok)
	assert.Equal(t, "**Hepatic:** ALT 45\n**Renal:** normal", body)
}

func TestSection_PlainLabel(t *testing.T) {
	text := "Summary: Stable.\nRecommendations: Repeat CBC."

	body, ok := extract.Section(text, "Summary")

	assert.True(t, ok)
	assert.Equal(t, "Stable.", body)
}

func TestSection_NotFound(t *testing.T) {
	body, ok := extract.Section("just some prose", "Key Findings", "Findings")

	assert.False(t, ok)
	assert.Empty(t, body)
}

func TestSection_EmptyBody(t *testing.T) {
	body, ok := extract.Section("## Key Findings\n## Recommendations\n- a", "Key Findings")

	assert.True(t, ok)
	assert.Empty(t, body)
}

func TestSection_AliasMustStartHeading(t *testing.T) {
	_, ok := extract.Section("## Plan and Recommendations\n- a", "Recommendations")
	assert.False(t, ok)
}
