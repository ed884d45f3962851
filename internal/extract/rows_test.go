package extract_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"clinsynth/internal/extract"
)

func TestSplitFinding(t *testing.T) {
	tests := []struct {
		line       string
		wantLabel  string
		wantDetail string
	}{
		{"1. **Hepatic:** ALT 45 (normal)", "Hepatic", "ALT 45 (normal)"},
		{"**Renal**: Creatinine 1.1", "Renal", "Creatinine 1.1"},
		{"Lipids: LDL 160 [SOURCE: doc-1]", "Lipids", "LDL 160 [SOURCE: doc-1]"},
		{"ALT elevated [SOURCE: doc-1]", "", "ALT elevated [SOURCE: doc-1]"},
		{"- plain bullet", "", "plain bullet"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			label, detail := extract.SplitFinding(tt.line)
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestSplitKeyValue(t *testing.T) {
	tests := []struct {
		line string
		want extract.KeyValueRow
	}{
		{
			"- Hemoglobin: 13.5 g/dL (ref 12.0-15.5) [SOURCE: doc-1]",
			extract.KeyValueRow{Test: "Hemoglobin", Value: "13.5", Unit: "g/dL", Reference: "ref 12.0-15.5", Source: "[SOURCE: doc-1]"},
		},
		{
			"**TSH:** 2.1 mIU/L",
			extract.KeyValueRow{Test: "TSH", Value: "2.1", Unit: "mIU/L"},
		},
		{
			"HBsAg: Negative",
			extract.KeyValueRow{Test: "HBsAg", Value: "Negative"},
		},
		{
			"Hemoglobin | 13.5 | g/dL | 12.0-15.5",
			extract.KeyValueRow{Test: "Hemoglobin", Value: "13.5", Unit: "g/dL", Reference: "12.0-15.5"},
		},
		{
			"Free text without a label",
			extract.KeyValueRow{Test: "Free text without a label"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, extract.SplitKeyValue(tt.line))
		})
	}
}

func TestSplitCitations(t *testing.T) {
	text := "ALT 45 [SOURCE: doc-1] and AST [GUIDELINE: AASLD 2023]. Known [CLINICAL KNOWLEDGE]"

	segs := extract.SplitCitations(text)

	assert.Equal(t, []extract.Segment{
		{Text: "ALT 45 "},
		{Text: "[SOURCE: doc-1]", Citation: true},
		{Text: " and AST "},
		{Text: "[GUIDELINE: AASLD 2023]", Citation: true},
		{Text: ". Known "},
		{Text: "[CLINICAL KNOWLEDGE]", Citation: true},
	}, segs)

	var joined strings.Builder
	for _, s := range segs {
		joined.WriteString(s.Text)
	}
	assert.Equal(t, text, joined.String())
}

func TestSplitCitations_IgnoresOtherBrackets(t *testing.T) {
	segs := extract.SplitCitations("see [1] and [link](http://x)")
	assert.Equal(t, []extract.Segment{{Text: "see [1] and [link](http://x)"}}, segs)
	assert.Nil(t, extract.SplitCitations(""))
}

func TestStripCitations(t *testing.T) {
	assert.Equal(t, "ALT 45 high.", extract.StripCitations("ALT 45 [SOURCE: a] high. [LITERATURE: Smith 2020]"))
}
