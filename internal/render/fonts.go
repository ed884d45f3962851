package render

import (
	"bytes"
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Face selects one of the embedded type faces.
type Face int

const (
	FaceRegular Face = iota
	FaceBold
	FaceItalic
	FaceBoldItalic
	FaceMono
)

// Font is a face at a point size.
type Font struct {
	Face Face
	Size float64
}

// Fonts holds the parsed embedded faces. It is read-only after LoadFonts and safe for
// concurrent use.
type Fonts struct {
	ttf  map[Face][]byte
	font map[Face]*truetype.Font
}

// LoadFonts parses the embedded Go font family.
func LoadFonts() (*Fonts, error) {
	f := &Fonts{
		ttf: map[Face][]byte{
			FaceRegular:    bytes.Clone(goregular.TTF),
			FaceBold:       bytes.Clone(gobold.TTF),
			FaceItalic:     bytes.Clone(goitalic.TTF),
			FaceBoldItalic: bytes.Clone(gobolditalic.TTF),
			FaceMono:       bytes.Clone(gomono.TTF),
		},
		font: make(map[Face]*truetype.Font),
	}
	for face, data := range f.ttf {
		parsed, err := truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing font face %d: %w", face, err)
		}
		f.font[face] = parsed
	}
	return f, nil
}

// Width returns the advance width of s in points.
func (f *Fonts) Width(font Font, s string) float64 {
	ttf := f.font[font.Face]
	if ttf == nil {
		ttf = f.font[FaceRegular]
	}
	scale := fixed.Int26_6(font.Size * 64)
	var w fixed.Int26_6
	for _, r := range s {
		w += ttf.HMetric(scale, ttf.Index(r)).AdvanceWidth
	}
	return float64(w) / 64
}

func (f *Fonts) parsed(face Face) *truetype.Font {
	if t := f.font[face]; t != nil {
		return t
	}
	return f.font[FaceRegular]
}

// data returns a private copy of the face's TTF bytes. fpdf writes into the buffer it is
// given while subsetting, so each encoder gets its own.
func (f *Fonts) data(face Face) []byte {
	return bytes.Clone(f.ttf[face])
}

// faceFor maps an inline style to a type face.
func faceFor(style Style) Face {
	switch {
	case style&StyleCode != 0:
		return FaceMono
	case style&StyleBold != 0 && style&StyleItalic != 0:
		return FaceBoldItalic
	case style&StyleBold != 0:
		return FaceBold
	case style&StyleItalic != 0:
		return FaceItalic
	default:
		return FaceRegular
	}
}
