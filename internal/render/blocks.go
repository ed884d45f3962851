package render

// headingSizes maps markdown heading levels 1..4+ to point sizes.
var headingSizes = []float64{16, 14, 12, 11}

func headingSize(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > len(headingSizes) {
		level = len(headingSizes)
	}
	return headingSizes[level-1]
}

// blocks draws a tokenized markdown sequence.
func (l *layout) blocks(bs []Block, x, width float64) {
	for _, b := range bs {
		l.block(b, x, width)
		l.gap(blockGap)
	}
}

func (l *layout) block(b Block, x, width float64) {
	switch b.Kind {
	case BlockHeading:
		l.heading(b, x, width)
	case BlockParagraph:
		l.flow(b.Inlines, l.base, x, width)
	case BlockList:
		l.list(b, x, width)
	case BlockCode:
		l.code(b.Code, x, width)
	case BlockQuote:
		l.quote(b, x, width)
	case BlockRule:
		l.rule(x, width)
	case BlockTable:
		l.markdownTable(b.Rows, x, width)
	}
}

// heading keeps the whole heading plus one body line together, breaking the page
// before anything is drawn.
func (l *layout) heading(b Block, x, width float64) {
	ts := textStyle{Size: headingSize(b.Level), Style: StyleBold, Color: colorBar}
	lines := l.wrap(l.tokens(b.Inlines, ts), width, ts.Size)
	l.gap(4)
	l.cur = l.cur.Ensure(l.geo, linesHeight(lines)+lineHeight(bodySize))
	for _, ln := range lines {
		l.drawLine(ln, x, l.cur.Y)
		l.cur = l.cur.Advance(ln.height)
	}
}

func (l *layout) list(b Block, x, width float64) {
	for i, item := range b.Items {
		l.cur = l.cur.Ensure(l.geo, lineHeight(l.base.Size))
		marker := listMarker(b, i)
		l.add(Op{
			Kind:  OpText,
			X:     x + 2,
			Y:     l.cur.Y + l.base.Size,
			W:     l.fonts.Width(Font{Face: FaceRegular, Size: l.base.Size}, marker),
			Text:  marker,
			Font:  Font{Face: FaceRegular, Size: l.base.Size},
			Color: l.base.Color,
		})
		if len(item) == 0 {
			l.cur = l.cur.Advance(lineHeight(l.base.Size))
		}
		for j, c := range item {
			if j > 0 {
				l.gap(itemGap)
			}
			l.block(c, x+listIndent, width-listIndent)
		}
		l.gap(itemGap)
	}
}

func (l *layout) code(src string, x, width float64) {
	ts := textStyle{Size: codeSize, Style: StyleCode, Color: colorText}
	for _, raw := range splitLines(src) {
		lines := l.wrap(l.tokens([]Inline{{Text: raw}}, ts), width-2*codePad, ts.Size)
		if len(lines) == 0 {
			lines = []line{{height: lineHeight(codeSize), ascent: codeSize}}
		}
		for _, ln := range lines {
			l.cur = l.cur.Ensure(l.geo, ln.height)
			l.add(Op{Kind: OpFillRect, X: x, Y: l.cur.Y, W: width, H: ln.height, Color: colorCodeBg})
			l.drawLine(ln, x+codePad, l.cur.Y)
			l.cur = l.cur.Advance(ln.height)
		}
	}
}

// quote indents its children and draws a bar beside them on every page they span.
func (l *layout) quote(b Block, x, width float64) {
	l.cur = l.cur.Ensure(l.geo, lineHeight(l.base.Size))
	start := l.cur

	saved := l.base
	l.base.Color = colorMuted
	l.blocks(b.Children, x+quoteIndent, width-quoteIndent)
	l.base = saved

	end := l.cur
	for p := start.Page; p <= end.Page; p++ {
		top, bottom := l.geo.Top(), l.geo.Bottom()
		if p == start.Page {
			top = start.Y
		}
		if p == end.Page {
			bottom = end.Y
		}
		if bottom > top {
			l.doc.add(p, Op{Kind: OpFillRect, X: x + 2, Y: top, W: 3, H: bottom - top, Color: colorQuoteBar})
		}
	}
}

func (l *layout) rule(x, width float64) {
	l.cur = l.cur.Ensure(l.geo, 12)
	l.cur = l.cur.Advance(6)
	l.add(Op{Kind: OpLine, X: x, Y: l.cur.Y, W: width, Color: colorRule})
	l.cur = l.cur.Advance(6)
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}
