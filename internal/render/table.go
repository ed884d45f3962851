package render

const cellPad = 4.0

// tableRow is a measured row ready to draw.
type tableRow struct {
	cells  [][]line
	height float64
}

// measureRow wraps every cell and sizes the row to its tallest cell.
func (l *layout) measureRow(cells [][]Inline, widths []float64, ts textStyle) tableRow {
	row := tableRow{cells: make([][]line, len(widths))}
	tallest := lineHeight(ts.Size)
	for i := range widths {
		var in []Inline
		if i < len(cells) {
			in = cells[i]
		}
		row.cells[i] = l.wrap(l.tokens(in, ts), widths[i]-2*cellPad, ts.Size)
		tallest = max(tallest, linesHeight(row.cells[i]))
	}
	row.height = tallest + 2*cellPad
	return row
}

func (l *layout) drawRow(row tableRow, widths []float64, x float64, fill *Color) {
	cx := x
	for i, w := range widths {
		if fill != nil {
			l.add(Op{Kind: OpFillRect, X: cx, Y: l.cur.Y, W: w, H: row.height, Color: *fill})
		}
		l.add(Op{Kind: OpStrokeRect, X: cx, Y: l.cur.Y, W: w, H: row.height, Color: colorBorder})
		top := l.cur.Y + cellPad
		for _, ln := range row.cells[i] {
			l.drawLine(ln, cx+cellPad, top)
			top += ln.height
		}
		cx += w
	}
	l.cur = l.cur.Advance(row.height)
}

// table draws a header and body rows across the given column fractions of width. The
// header is kept with the first row and repeated after every page break.
func (l *layout) table(header []string, rows [][][]Inline, fracs []float64, x, width float64) {
	widths := make([]float64, len(fracs))
	for i, f := range fracs {
		widths[i] = f * width
	}

	headerCells := make([][]Inline, len(header))
	for i, h := range header {
		headerCells[i] = []Inline{{Text: h}}
	}
	head := l.measureRow(headerCells, widths, textStyle{Size: l.base.Size, Style: StyleBold, Color: l.base.Color})
	fill := colorHeaderRow

	first := 0.0
	if len(rows) > 0 {
		first = l.measureRow(rows[0], widths, l.base).height
	}
	l.cur = l.cur.Ensure(l.geo, head.height+first)
	l.drawRow(head, widths, x, &fill)

	for _, cells := range rows {
		row := l.measureRow(cells, widths, l.base)
		if !l.cur.Fits(l.geo, row.height) {
			l.cur = l.cur.NextPage(l.geo)
			l.drawRow(head, widths, x, &fill)
		}
		l.drawRow(row, widths, x, nil)
	}
}

// markdownTable draws a GFM table with equal column widths.
func (l *layout) markdownTable(rows [][][]Inline, x, width float64) {
	if len(rows) == 0 {
		return
	}
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return
	}
	fracs := make([]float64, cols)
	for i := range fracs {
		fracs[i] = 1 / float64(cols)
	}
	header := make([]string, cols)
	for i := range header {
		if i < len(rows[0]) {
			header[i] = plainText(rows[0][i])
		}
	}
	l.table(header, rows[1:], fracs, x, width)
}

func plainText(in []Inline) string {
	s := ""
	for _, r := range in {
		s += r.Text
	}
	return s
}
