// Package render lays a parsed clinical report out as paginated drawing operations and
// encodes the result as PDF or PNG.
package render

import (
	"fmt"
	"strings"

	"clinsynth/internal/domain"
	"clinsynth/internal/extract"
)

const (
	barHeight   = 22.0
	barGap      = 8.0
	barTextSize = 12.0
	titleSize   = 20.0
	footerSize  = 8.0
)

// AppendixHeading titles the section that reproduces the full model answer.
const AppendixHeading = "Full Analysis"

var (
	findingColumns  = []float64{0.35, 0.65}
	keyValueColumns = []float64{0.34, 0.18, 0.14, 0.34}
)

// Options carries per-document text that does not come from the report body.
type Options struct {
	Title    string
	Subtitle string
}

// Renderer turns parsed reports into documents. It holds only read-only state and is
// safe for concurrent use.
type Renderer struct {
	fonts *Fonts
	geo   PageGeometry
	title string
}

// NewRenderer creates a Renderer for the given page geometry and default title.
func NewRenderer(geo PageGeometry, title string) (*Renderer, error) {
	fonts, err := LoadFonts()
	if err != nil {
		return nil, fmt.Errorf("render.NewRenderer: %w", err)
	}
	return &Renderer{fonts: fonts, geo: geo, title: title}, nil
}

// Fonts returns the faces used for layout, needed by the encoders.
func (r *Renderer) Fonts() *Fonts {
	return r.fonts
}

// Render lays out the report. It never fails: a section that cannot be drawn is
// replaced by its plain text, and a document that cannot be drawn at all degrades to
// the plain text of the full answer.
func (r *Renderer) Render(report domain.ParsedReport, opts Options) (doc *Document) {
	if opts.Title == "" {
		opts.Title = r.title
	}
	defer func() {
		if rec := recover(); rec != nil {
			doc = r.renderPlain(report, opts)
		}
	}()

	l := newLayout(r.geo, r.fonts)
	left, width := r.geo.Left(), r.geo.ContentWidth()

	l.title(opts, left, width)

	l.section(domain.Section(domain.SectionSummary).Heading, report.Summary, func() {
		l.blocks(Tokenize(report.Summary), left, width)
	})

	l.findings(report.KeyFindings, left, width)

	if len(report.KeyValues) > 0 {
		l.keyValues(report.KeyValues, left, width)
	}

	l.section(domain.Section(domain.SectionRecommendations).Heading, joinLines(report.Recommendations), func() {
		l.block(numbered(report.Recommendations), left, width)
	})

	if report.Uncertainties != nil {
		l.section(domain.Section(domain.SectionUncertainties).Heading, *report.Uncertainties, func() {
			l.blocks(Tokenize(*report.Uncertainties), left, width)
		})
	}

	l.section(AppendixHeading, report.FullMarkdown, func() {
		l.blocks(Tokenize(report.FullMarkdown), left, width)
	})

	l.footers()
	return l.doc
}

// renderPlain is the last resort when structured layout fails outright.
func (r *Renderer) renderPlain(report domain.ParsedReport, opts Options) (doc *Document) {
	defer func() {
		if rec := recover(); rec != nil {
			doc = &Document{Width: r.geo.Width, Height: r.geo.Height, Pages: []Page{{}}}
		}
	}()
	l := newLayout(r.geo, r.fonts)
	l.title(opts, r.geo.Left(), r.geo.ContentWidth())
	l.plain(StripMarkdown(report.FullMarkdown), r.geo.Left(), r.geo.ContentWidth())
	l.footers()
	return l.doc
}

func (l *layout) title(opts Options, x, width float64) {
	l.flow([]Inline{{Text: opts.Title}}, textStyle{Size: titleSize, Style: StyleBold, Color: colorBar}, x, width)
	if opts.Subtitle != "" {
		l.flow([]Inline{{Text: opts.Subtitle}}, textStyle{Size: 9, Color: colorMuted}, x, width)
	}
	l.cur = l.cur.Advance(4)
	l.add(Op{Kind: OpLine, X: x, Y: l.cur.Y, W: width, Color: colorBar})
	l.cur = l.cur.Advance(10)
}

// sectionBar draws a filled title bar. keep is the height of content that must follow
// the bar on the same page; the page is broken before the bar is drawn.
func (l *layout) sectionBar(title string, keep float64) {
	x, width := l.geo.Left(), l.geo.ContentWidth()
	l.gap(barGap)
	l.cur = l.cur.Ensure(l.geo, barHeight+barGap+keep)
	l.add(Op{Kind: OpFillRect, X: x, Y: l.cur.Y, W: width, H: barHeight, Color: colorBar})
	l.add(Op{
		Kind:  OpText,
		X:     x + 8,
		Y:     l.cur.Y + (barHeight-barTextSize)/2 + barTextSize*0.8,
		Text:  title,
		Font:  Font{Face: FaceBold, Size: barTextSize},
		Color: colorWhite,
	})
	l.cur = l.cur.Advance(barHeight + barGap)
}

// section draws a bar followed by a guarded body that falls back to text.
func (l *layout) section(title, text string, draw func()) {
	l.sectionBar(title, 2*lineHeight(bodySize))
	l.guarded(text, l.geo.Left(), l.geo.ContentWidth(), draw)
}

func (l *layout) findings(items domain.StringList, x, width float64) {
	title := domain.Section(domain.SectionKeyFindings).Heading
	if len(items) == 1 && items[0] == domain.PlaceholderKeyFindings {
		l.section(title, items[0], func() { l.flow([]Inline{{Text: items[0]}}, l.base, x, width) })
		return
	}

	rows := make([][][]Inline, len(items))
	for i, item := range items {
		label, detail := extract.SplitFinding(item)
		if label == "" {
			label = fmt.Sprintf("Finding %d", i+1)
		}
		rows[i] = [][]Inline{{{Text: label, Style: StyleBold}}, InlineMarkdown(detail)}
	}
	l.sectionBar(title, l.tableKeep(rows, findingColumns, width))
	l.guarded(joinLines(items), x, width, func() {
		l.table([]string{"Finding", "Details"}, rows, findingColumns, x, width)
	})
}

func (l *layout) keyValues(items domain.StringList, x, width float64) {
	rows := make([][][]Inline, len(items))
	for i, item := range items {
		kv := extract.SplitKeyValue(item)
		ref := kv.Reference
		if kv.Source != "" {
			if ref != "" {
				ref += " "
			}
			ref += kv.Source
		}
		rows[i] = [][]Inline{
			{{Text: kv.Test, Style: StyleBold}},
			{{Text: kv.Value}},
			{{Text: kv.Unit}},
			{{Text: ref}},
		}
	}
	l.sectionBar(domain.Section(domain.SectionKeyValues).Heading, l.tableKeep(rows, keyValueColumns, width))
	l.guarded(joinLines(items), x, width, func() {
		l.table([]string{"Test", "Value", "Unit", "Reference"}, rows, keyValueColumns, x, width)
	})
}

// tableKeep is the height of a table header plus its first row.
func (l *layout) tableKeep(rows [][][]Inline, fracs []float64, width float64) float64 {
	widths := make([]float64, len(fracs))
	for i, f := range fracs {
		widths[i] = f * width
	}
	keep := lineHeight(bodySize) + 2*cellPad
	if len(rows) > 0 {
		keep += l.measureRow(rows[0], widths, l.base).height
	}
	return keep
}

// footers stamps "Page i of N" on every page once the page count is known.
func (l *layout) footers() {
	n := len(l.doc.Pages)
	font := Font{Face: FaceRegular, Size: footerSize}
	for i := range l.doc.Pages {
		text := fmt.Sprintf("Page %d of %d", i+1, n)
		w := l.fonts.Width(font, text)
		l.doc.add(i, Op{
			Kind:  OpText,
			X:     (l.geo.Width - w) / 2,
			Y:     l.geo.Height - l.geo.BottomMargin/2,
			W:     w,
			Text:  text,
			Font:  font,
			Color: colorMuted,
		})
	}
}

func numbered(items []string) Block {
	b := Block{Kind: BlockList, Ordered: true, Start: 1}
	for _, item := range items {
		b.Items = append(b.Items, []Block{{Kind: BlockParagraph, Inlines: InlineMarkdown(item)}})
	}
	return b
}

func joinLines(items []string) string {
	return strings.Join(items, "\n")
}
