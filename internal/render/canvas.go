package render

// OpKind identifies a drawing operation.
type OpKind int

const (
	OpText OpKind = iota
	OpFillRect
	OpStrokeRect
	OpLine
)

// Color is an opaque RGB color.
type Color struct{ R, G, B uint8 }

var (
	colorText      = Color{33, 33, 33}
	colorMuted     = Color{128, 128, 128}
	colorLink      = Color{26, 82, 160}
	colorWhite     = Color{255, 255, 255}
	colorBar       = Color{31, 73, 125}
	colorHeaderRow = Color{230, 236, 245}
	colorBorder    = Color{190, 198, 210}
	colorCodeBg    = Color{244, 245, 247}
	colorQuoteBar  = Color{200, 200, 200}
	colorRule      = Color{210, 210, 210}
)

// Op is one positioned drawing operation. For text, Y is the baseline; for shapes, X/Y
// is the top-left corner. Lines run from (X, Y) to (X+W, Y+H).
type Op struct {
	Kind  OpKind
	X     float64
	Y     float64
	W     float64
	H     float64
	Text  string
	Font  Font
	Color Color
}

// Page is the ordered list of operations drawn on one page.
type Page struct {
	Ops []Op
}

// Document is a laid out, paginated report. It is immutable once returned by Render.
type Document struct {
	Width  float64
	Height float64
	Pages  []Page
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

func (d *Document) add(page int, op Op) {
	for len(d.Pages) <= page {
		d.Pages = append(d.Pages, Page{})
	}
	d.Pages[page].Ops = append(d.Pages[page].Ops, op)
}

// mark records how much of the document has been drawn, for rollback.
type mark struct {
	pages  int
	ops    int
	cursor RenderCursor
}

func (d *Document) mark(c RenderCursor) mark {
	m := mark{pages: len(d.Pages), cursor: c}
	if m.pages > 0 {
		m.ops = len(d.Pages[m.pages-1].Ops)
	}
	return m
}

func (d *Document) rollback(m mark) RenderCursor {
	d.Pages = d.Pages[:m.pages]
	if m.pages > 0 {
		d.Pages[m.pages-1].Ops = d.Pages[m.pages-1].Ops[:m.ops]
	}
	return m.cursor
}
