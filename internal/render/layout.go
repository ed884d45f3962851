package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"clinsynth/internal/extract"
)

const (
	bodySize     = 10.0
	lineFactor   = 1.4
	codeSize     = 9.0
	minSize      = 6.0
	blockGap     = 6.0
	itemGap      = 2.0
	listIndent   = 16.0
	quoteIndent  = 14.0
	codePad      = 6.0
	citationDrop = 2.0
)

// textStyle is the base style inline runs are layered onto.
type textStyle struct {
	Size  float64
	Style Style
	Color Color
}

var bodyText = textStyle{Size: bodySize, Color: colorText}

func lineHeight(size float64) float64 { return size * lineFactor }

// token is a measured word, space or forced break.
type token struct {
	text    string
	font    Font
	color   Color
	style   Style
	width   float64
	space   bool
	newline bool
}

// line is one wrapped line of tokens.
type line struct {
	tokens []token
	width  float64
	height float64
	ascent float64
}

// layout owns the document being built and the cursor threaded through drawing.
type layout struct {
	geo   PageGeometry
	fonts *Fonts
	doc   *Document
	cur   RenderCursor
	base  textStyle
}

func newLayout(geo PageGeometry, fonts *Fonts) *layout {
	return &layout{
		geo:   geo,
		fonts: fonts,
		doc:   &Document{Width: geo.Width, Height: geo.Height, Pages: []Page{{}}},
		cur:   RenderCursor{Page: 0, Y: geo.Top()},
		base:  bodyText,
	}
}

func (l *layout) add(op Op) {
	l.doc.add(l.cur.Page, op)
}

// tokens measures inline runs. Citations are split out of every run and drawn smaller
// and muted, whatever the surrounding style.
func (l *layout) tokens(in []Inline, ts textStyle) []token {
	var out []token
	for _, run := range in {
		style := ts.Style | run.Style
		for _, seg := range extract.SplitCitations(run.Text) {
			font := Font{Face: faceFor(style), Size: ts.Size}
			color := ts.Color
			if style&StyleLink != 0 {
				color = colorLink
			}
			if seg.Citation {
				font.Size = max(ts.Size-citationDrop, minSize)
				color = colorMuted
			}
			out = l.words(out, seg.Text, font, color, style)
		}
	}
	return out
}

func (l *layout) words(out []token, s string, font Font, color Color, style Style) []token {
	start := -1
	emitWord := func(end int) {
		if start >= 0 {
			w := s[start:end]
			out = append(out, token{text: w, font: font, color: color, style: style, width: l.fonts.Width(font, w)})
			start = -1
		}
	}
	for i, r := range s {
		switch r {
		case '\n':
			emitWord(i)
			out = append(out, token{newline: true, font: font})
		case ' ', '\t', '\r':
			emitWord(i)
			if n := len(out); n > 0 && out[n-1].space {
				continue
			}
			out = append(out, token{text: " ", font: font, color: color, style: style, space: true, width: l.fonts.Width(font, " ")})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	emitWord(len(s))
	return out
}

// wrap breaks tokens into lines no wider than maxWidth. Words wider than a line are
// broken between characters.
func (l *layout) wrap(tokens []token, maxWidth, baseSize float64) []line {
	var lines []line
	var cur line
	flush := func() {
		for n := len(cur.tokens); n > 0 && cur.tokens[n-1].space; n = len(cur.tokens) {
			cur.width -= cur.tokens[n-1].width
			cur.tokens = cur.tokens[:n-1]
		}
		size := baseSize
		for _, t := range cur.tokens {
			size = max(size, t.font.Size)
		}
		cur.height = lineHeight(size)
		cur.ascent = size
		lines = append(lines, cur)
		cur = line{}
	}
	push := func(t token) {
		cur.tokens = append(cur.tokens, t)
		cur.width += t.width
	}

	for _, t := range tokens {
		switch {
		case t.newline:
			flush()
		case t.space:
			if len(cur.tokens) > 0 {
				push(t)
			}
		case t.width > maxWidth:
			if hasWord(cur) {
				flush()
			}
			for _, piece := range l.breakWord(t, maxWidth) {
				if hasWord(cur) {
					flush()
				}
				push(piece)
			}
		default:
			if hasWord(cur) && cur.width+t.width > maxWidth {
				flush()
			}
			push(t)
		}
	}
	if len(cur.tokens) > 0 {
		flush()
	}
	return lines
}

func hasWord(ln line) bool {
	for _, t := range ln.tokens {
		if !t.space {
			return true
		}
	}
	return false
}

func (l *layout) breakWord(t token, maxWidth float64) []token {
	var pieces []token
	rest := t.text
	for rest != "" {
		n := 0
		for n < len(rest) {
			_, size := utf8.DecodeRuneInString(rest[n:])
			if n > 0 && l.fonts.Width(t.font, rest[:n+size]) > maxWidth {
				break
			}
			n += size
		}
		piece := t
		piece.text = rest[:n]
		piece.width = l.fonts.Width(t.font, piece.text)
		pieces = append(pieces, piece)
		rest = rest[n:]
	}
	return pieces
}

// drawLine emits one wrapped line with its top edge at top. Adjacent tokens sharing a
// font and color are merged into a single text operation.
func (l *layout) drawLine(ln line, x, top float64) {
	baseline := top + ln.ascent
	var run strings.Builder
	var runTok token
	runX, runW := x, 0.0
	emit := func() {
		if run.Len() == 0 {
			return
		}
		l.add(Op{Kind: OpText, X: runX, Y: baseline, W: runW, Text: run.String(), Font: runTok.font, Color: runTok.color})
		if runTok.style&StyleStrike != 0 {
			mid := baseline - runTok.font.Size*0.3
			l.add(Op{Kind: OpLine, X: runX, Y: mid, W: runW, Color: runTok.color})
		}
		run.Reset()
	}

	pos := x
	for _, t := range ln.tokens {
		if run.Len() > 0 && (t.font != runTok.font || t.color != runTok.color || t.style&StyleStrike != runTok.style&StyleStrike) {
			emit()
		}
		if run.Len() == 0 {
			runTok, runX, runW = t, pos, 0
		}
		run.WriteString(t.text)
		runW += t.width
		pos += t.width
	}
	emit()
}

// flow wraps and draws inline text, breaking pages between lines.
func (l *layout) flow(in []Inline, ts textStyle, x, width float64) {
	for _, ln := range l.wrap(l.tokens(in, ts), width, ts.Size) {
		l.cur = l.cur.Ensure(l.geo, ln.height)
		l.drawLine(ln, x, l.cur.Y)
		l.cur = l.cur.Advance(ln.height)
	}
}

// plain draws de-formatted text, one paragraph per input line.
func (l *layout) plain(text string, x, width float64) {
	for _, para := range strings.Split(text, "\n") {
		if strings.TrimSpace(para) == "" {
			l.cur = l.cur.Advance(lineHeight(bodySize) / 2)
			continue
		}
		l.flow([]Inline{{Text: para}}, l.base, x, width)
	}
}

// guarded runs draw and, if it panics, rolls the document back and draws text as
// plain de-formatted paragraphs instead.
func (l *layout) guarded(text string, x, width float64, draw func()) (recovered bool) {
	m := l.doc.mark(l.cur)
	func() {
		defer func() {
			if r := recover(); r != nil {
				recovered = true
			}
		}()
		draw()
	}()
	if recovered {
		l.cur = l.doc.rollback(m)
		l.plain(StripMarkdown(text), x, width)
	}
	return recovered
}

func (l *layout) gap(dy float64) {
	if l.cur.Y > l.geo.Top() {
		l.cur = l.cur.Advance(dy)
	}
}

// linesHeight sums the height of wrapped lines.
func linesHeight(lines []line) float64 {
	h := 0.0
	for _, ln := range lines {
		h += ln.height
	}
	return h
}

func listMarker(b Block, i int) string {
	if b.Ordered {
		return fmt.Sprintf("%d.", b.Start+i)
	}
	return "•"
}
