package render

import (
	"fmt"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"clinsynth/internal/domain"
)

// EncodePNG rasterizes one zero-based page of doc. scale 1 is 72 dpi.
func EncodePNG(w io.Writer, doc *Document, fonts *Fonts, page int, scale float64) error {
	if page < 0 || page >= len(doc.Pages) {
		return fmt.Errorf("render.EncodePNG: page %d of %d: %w", page+1, len(doc.Pages), domain.ErrInvalidPage)
	}
	if scale <= 0 {
		scale = 1
	}

	dc := gg.NewContext(int(math.Ceil(doc.Width*scale)), int(math.Ceil(doc.Height*scale)))
	dc.SetRGB255(255, 255, 255)
	dc.Clear()

	faces := make(map[Font]font.Face)
	defer func() {
		for _, f := range faces {
			_ = f.Close()
		}
	}()

	for _, op := range doc.Pages[page].Ops {
		dc.SetRGB255(int(op.Color.R), int(op.Color.G), int(op.Color.B))
		switch op.Kind {
		case OpText:
			face, ok := faces[op.Font]
			if !ok {
				face = truetype.NewFace(fonts.parsed(op.Font.Face), &truetype.Options{
					Size:    op.Font.Size * scale,
					DPI:     72,
					Hinting: font.HintingNone,
				})
				faces[op.Font] = face
			}
			dc.SetFontFace(face)
			dc.DrawString(op.Text, op.X*scale, op.Y*scale)
		case OpFillRect:
			dc.DrawRectangle(op.X*scale, op.Y*scale, op.W*scale, op.H*scale)
			dc.Fill()
		case OpStrokeRect:
			dc.SetLineWidth(0.5 * scale)
			dc.DrawRectangle(op.X*scale, op.Y*scale, op.W*scale, op.H*scale)
			dc.Stroke()
		case OpLine:
			dc.SetLineWidth(0.75 * scale)
			dc.DrawLine(op.X*scale, op.Y*scale, (op.X+op.W)*scale, (op.Y+op.H)*scale)
			dc.Stroke()
		}
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("render.EncodePNG: %w", err)
	}
	return nil
}
