package render

import (
	"bytes"
	"fmt"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinsynth/internal/domain"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(A4, "Clinical Analysis Report")
	require.NoError(t, err)
	return r
}

func longReport() domain.ParsedReport {
	var findings domain.StringList
	var md strings.Builder
	md.WriteString("## Executive Summary\nOverall stable with **mild** anemia. [SOURCE: doc-1]\n\n## Key Findings\n")
	for i := 1; i <= 40; i++ {
		f := fmt.Sprintf("**Finding %d:** Hemoglobin measured at %d.%d g/dL on repeat testing, slightly below the stated reference range [SOURCE: doc-%d]", i, 10+i%4, i%10, i%3+1)
		findings = append(findings, f)
		fmt.Fprintf(&md, "%d. %s\n", i, f)
	}
	md.WriteString("\n## Recommendations\n1. Repeat CBC in 4 weeks [GUIDELINE: ASH 2019]\n")
	unc := "No prior results were available for comparison."
	return domain.ParsedReport{
		Summary:         "Overall stable with **mild** anemia. [SOURCE: doc-1]",
		KeyFindings:     findings,
		Recommendations: domain.StringList{"Repeat CBC in 4 weeks [GUIDELINE: ASH 2019]"},
		KeyValues:       domain.StringList{"Hemoglobin: 11.2 g/dL (ref 12.0-15.5) [SOURCE: doc-1]"},
		Uncertainties:   &unc,
		FullMarkdown:    md.String(),
	}
}

func textOps(doc *Document) []Op {
	var out []Op
	for _, p := range doc.Pages {
		for _, op := range p.Ops {
			if op.Kind == OpText {
				out = append(out, op)
			}
		}
	}
	return out
}

func findText(doc *Document, s string) (Op, bool) {
	for _, op := range textOps(doc) {
		if op.Text == s {
			return op, true
		}
	}
	return Op{}, false
}

func TestRender_IsDeterministic(t *testing.T) {
	r := newTestRenderer(t)
	report := longReport()

	first := r.Render(report, Options{Subtitle: "Generated 2026-01-02"})
	second := r.Render(report, Options{Subtitle: "Generated 2026-01-02"})

	assert.Equal(t, first, second)
	assert.Greater(t, first.PageCount(), 1)
}

func TestRender_SectionBarsNeverOrphaned(t *testing.T) {
	r := newTestRenderer(t)
	doc := r.Render(longReport(), Options{})

	bars := 0
	for pi, page := range doc.Pages {
		for _, op := range page.Ops {
			if op.Kind != OpFillRect || op.Color != colorBar || op.H != barHeight {
				continue
			}
			bars++
			assert.LessOrEqual(t, op.Y+barHeight, A4.Bottom(), "bar overflows page %d", pi+1)

			followed := false
			for _, other := range page.Ops {
				if other.Kind == OpText && other.Y > op.Y+barHeight && other.Y <= A4.Bottom() {
					followed = true
					break
				}
			}
			assert.True(t, followed, "bar on page %d has no content below it", pi+1)
		}
	}
	assert.Equal(t, 6, bars, "summary, findings, values, recommendations, uncertainties, appendix")
}

func TestRender_CitationsAreMutedEvenInsideBold(t *testing.T) {
	r := newTestRenderer(t)
	report := domain.ParsedReport{
		Summary:         "**ALT high [SOURCE: doc-1]** today",
		KeyFindings:     domain.StringList{domain.PlaceholderKeyFindings},
		Recommendations: domain.StringList{domain.PlaceholderRecommendations},
	}

	doc := r.Render(report, Options{})

	op, ok := findText(doc, "[SOURCE: doc-1]")
	require.True(t, ok)
	assert.Equal(t, colorMuted, op.Color)
	assert.Equal(t, FaceBold, op.Font.Face)
	assert.Equal(t, bodySize-citationDrop, op.Font.Size)

	bold, ok := findText(doc, "ALT high ")
	require.True(t, ok)
	assert.Equal(t, FaceBold, bold.Font.Face)
	assert.Equal(t, colorText, bold.Color)
}

func TestRender_FindingsAsTable(t *testing.T) {
	r := newTestRenderer(t)
	report := domain.ParsedReport{
		Summary:         "s",
		KeyFindings:     domain.StringList{"**Hepatic:** ALT 45", "Platelets low"},
		Recommendations: domain.StringList{"Repeat CBC"},
	}

	doc := r.Render(report, Options{})

	label, ok := findText(doc, "Hepatic")
	require.True(t, ok)
	assert.Equal(t, FaceBold, label.Font.Face)
	_, ok = findText(doc, "Finding 2")
	assert.True(t, ok, "unlabeled rows get a numbered label")
	_, ok = findText(doc, "Details")
	assert.True(t, ok)

	strokes := 0
	for _, op := range doc.Pages[0].Ops {
		if op.Kind == OpStrokeRect {
			strokes++
		}
	}
	assert.Equal(t, 6, strokes, "header plus two rows, two cells each")
}

func TestRender_KeyValuesTable(t *testing.T) {
	r := newTestRenderer(t)
	doc := r.Render(longReport(), Options{})

	for _, want := range []string{"Test", "Unit", "Reference", "Hemoglobin", "11.2", "g/dL"} {
		_, ok := findText(doc, want)
		assert.True(t, ok, "missing %q", want)
	}
	ref := false
	for _, op := range textOps(doc) {
		if strings.HasPrefix(op.Text, "ref 12.0-15.5") {
			ref = true
		}
	}
	assert.True(t, ref)
}

func TestRender_PageFooters(t *testing.T) {
	r := newTestRenderer(t)
	doc := r.Render(longReport(), Options{})

	n := doc.PageCount()
	for i := range doc.Pages {
		_, ok := findText(doc, fmt.Sprintf("Page %d of %d", i+1, n))
		assert.True(t, ok)
	}
}

func TestRender_AppendixKeepsFullAnswer(t *testing.T) {
	r := newTestRenderer(t)
	report := domain.ParsedReport{
		Summary:         domain.PlaceholderSummary,
		KeyFindings:     domain.StringList{domain.PlaceholderKeyFindings},
		Recommendations: domain.StringList{domain.PlaceholderRecommendations},
		FullMarkdown:    "Unstructured answer mentioning zebrafish.",
	}

	doc := r.Render(report, Options{})

	_, ok := findText(doc, AppendixHeading)
	assert.True(t, ok)
	found := false
	for _, op := range textOps(doc) {
		if strings.Contains(op.Text, "zebrafish") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLayout_HeadingBreaksPageBeforeDrawing(t *testing.T) {
	fonts, err := LoadFonts()
	require.NoError(t, err)
	l := newLayout(A4, fonts)
	l.cur = RenderCursor{Page: 0, Y: A4.Bottom() - 10}

	l.heading(Block{Kind: BlockHeading, Level: 2, Inlines: []Inline{{Text: "Assessment"}}}, A4.Left(), A4.ContentWidth())

	require.Len(t, l.doc.Pages, 2)
	assert.Empty(t, l.doc.Pages[0].Ops)
	assert.Equal(t, "Assessment", l.doc.Pages[1].Ops[0].Text)
}

func TestLayout_WrapRespectsWidth(t *testing.T) {
	fonts, err := LoadFonts()
	require.NoError(t, err)
	l := newLayout(A4, fonts)

	in := []Inline{{Text: "word " + strings.Repeat("x", 200) + " tail and some more words to wrap around"}}
	lines := l.wrap(l.tokens(in, bodyText), 120, bodySize)

	require.Greater(t, len(lines), 2)
	for _, ln := range lines {
		assert.LessOrEqual(t, ln.width, 120.0+1e-9)
		assert.True(t, hasWord(ln))
	}
}

func TestLayout_GuardedFallsBackToPlainText(t *testing.T) {
	fonts, err := LoadFonts()
	require.NoError(t, err)
	l := newLayout(A4, fonts)
	l.flow([]Inline{{Text: "kept"}}, bodyText, A4.Left(), A4.ContentWidth())
	before := l.cur

	recovered := l.guarded("**plain** fallback", A4.Left(), A4.ContentWidth(), func() {
		l.flow([]Inline{{Text: "discarded"}}, bodyText, A4.Left(), A4.ContentWidth())
		panic("boom")
	})

	assert.True(t, recovered)
	var texts []string
	for _, op := range l.doc.Pages[0].Ops {
		texts = append(texts, op.Text)
	}
	assert.Equal(t, []string{"kept", "plain fallback"}, texts)
	assert.Equal(t, before.Advance(lineHeight(bodySize)), l.cur)
}

func TestCursor(t *testing.T) {
	c := RenderCursor{Page: 0, Y: A4.Top()}

	assert.Equal(t, c, c.Ensure(A4, 10000), "content taller than a page stays at the top")
	low := c.Advance(A4.Bottom() - A4.Top() - 6)
	assert.False(t, low.Fits(A4, 10))
	assert.Equal(t, RenderCursor{Page: 1, Y: A4.Top()}, low.Ensure(A4, 10))
	assert.Equal(t, low, low.Ensure(A4, 4))
}

func TestGeometryFor(t *testing.T) {
	assert.Equal(t, Letter, GeometryFor("LETTER"))
	assert.Equal(t, A4, GeometryFor("a4"))
	assert.Equal(t, A4, GeometryFor(""))
}

func TestEncodePDF(t *testing.T) {
	r := newTestRenderer(t)
	doc := r.Render(longReport(), Options{})

	var buf bytes.Buffer
	err := EncodePDF(&buf, doc, r.Fonts(), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestEncodePDF_ByteIdentical(t *testing.T) {
	r := newTestRenderer(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	regular := bytes.Clone(r.Fonts().ttf[FaceRegular])

	encode := func() []byte {
		doc := r.Render(longReport(), Options{Title: "Clinical Analysis Report"})
		var buf bytes.Buffer
		require.NoError(t, EncodePDF(&buf, doc, r.Fonts(), created))
		return buf.Bytes()
	}

	first := encode()
	for i := 0; i < 4; i++ {
		next := encode()
		require.Equal(t, len(first), len(next), "run %d", i+2)
		assert.True(t, bytes.Equal(first, next), "run %d differs", i+2)
	}
	assert.True(t, bytes.Equal(regular, r.Fonts().ttf[FaceRegular]), "font source bytes modified by encoding")
}

func TestEncodePDF_IndependentOfEncodeTime(t *testing.T) {
	r := newTestRenderer(t)
	doc := r.Render(longReport(), Options{})
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var a, b bytes.Buffer
	require.NoError(t, EncodePDF(&a, doc, r.Fonts(), created))
	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, EncodePDF(&b, doc, r.Fonts(), created))

	assert.True(t, bytes.Equal(a.Bytes(), b.Bytes()))
	assert.Contains(t, a.String(), "/ModDate (D:20260102030405")
}

func TestEncodePNG(t *testing.T) {
	r := newTestRenderer(t)
	doc := r.Render(longReport(), Options{})

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, doc, r.Fonts(), 0, 1.5))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, int(math.Ceil(A4.Width*1.5)), img.Bounds().Dx())
	assert.Equal(t, int(math.Ceil(A4.Height*1.5)), img.Bounds().Dy())

	err = EncodePNG(&buf, doc, r.Fonts(), doc.PageCount(), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidPage)
}
