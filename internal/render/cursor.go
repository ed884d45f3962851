package render

import "strings"

// PageGeometry describes the page box in points.
type PageGeometry struct {
	Width        float64
	Height       float64
	Margin       float64
	BottomMargin float64
}

// A4 and Letter page boxes with the default margins.
var (
	A4     = PageGeometry{Width: 595.28, Height: 841.89, Margin: 48, BottomMargin: 56}
	Letter = PageGeometry{Width: 612, Height: 792, Margin: 48, BottomMargin: 56}
)

// GeometryFor returns the page geometry for a configured size name. Unknown names fall
// back to A4.
func GeometryFor(name string) PageGeometry {
	if strings.EqualFold(name, "letter") {
		return Letter
	}
	return A4
}

func (g PageGeometry) Top() float64          { return g.Margin }
func (g PageGeometry) Bottom() float64       { return g.Height - g.BottomMargin }
func (g PageGeometry) Left() float64         { return g.Margin }
func (g PageGeometry) ContentWidth() float64 { return g.Width - 2*g.Margin }

// RenderCursor is the vertical drawing position. Methods return updated copies.
type RenderCursor struct {
	Page int
	Y    float64
}

// Advance moves the cursor down by dy.
func (c RenderCursor) Advance(dy float64) RenderCursor {
	c.Y += dy
	return c
}

// Fits reports whether h points still fit above the bottom margin.
func (c RenderCursor) Fits(g PageGeometry, h float64) bool {
	return c.Y+h <= g.Bottom()
}

// NextPage moves to the top of the following page.
func (c RenderCursor) NextPage(g PageGeometry) RenderCursor {
	return RenderCursor{Page: c.Page + 1, Y: g.Top()}
}

// Ensure breaks the page unless h fits. A cursor already at the top of a page stays,
// so content taller than a page is drawn rather than looping.
func (c RenderCursor) Ensure(g PageGeometry, h float64) RenderCursor {
	if c.Fits(g, h) || c.Y <= g.Top() {
		return c
	}
	return c.NextPage(g)
}
