package render

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// pdfEpoch is stamped when a document has no creation time of its own.
var pdfEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

type pdfFont struct {
	family string
	style  string
}

var (
	pdfFaceOrder = []Face{FaceRegular, FaceBold, FaceItalic, FaceBoldItalic, FaceMono}
	pdfFonts     = map[Face]pdfFont{
		FaceRegular:    {"go", ""},
		FaceBold:       {"go", "B"},
		FaceItalic:     {"go", "I"},
		FaceBoldItalic: {"go", "BI"},
		FaceMono:       {"gomono", ""},
	}
)

// EncodePDF writes doc as a PDF file. created is used as the creation date so that
// encoding the same document twice yields the same file.
func EncodePDF(w io.Writer, doc *Document, fonts *Fonts, created time.Time) error {
	if created.IsZero() {
		created = pdfEpoch
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: doc.Width, Ht: doc.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(created.UTC())
	pdf.SetModificationDate(created.UTC())
	pdf.SetCatalogSort(true)
	pdf.SetCreator("clinsynth", true)

	for _, face := range pdfFaceOrder {
		f := pdfFonts[face]
		pdf.AddUTF8FontFromBytes(f.family, f.style, fonts.data(face))
	}

	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, op := range page.Ops {
			drawPDF(pdf, op)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render.EncodePDF: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render.EncodePDF: writing output: %w", err)
	}
	return nil
}

func drawPDF(pdf *fpdf.Fpdf, op Op) {
	r, g, b := int(op.Color.R), int(op.Color.G), int(op.Color.B)
	switch op.Kind {
	case OpText:
		f := pdfFonts[op.Font.Face]
		pdf.SetFont(f.family, f.style, op.Font.Size)
		pdf.SetTextColor(r, g, b)
		pdf.Text(op.X, op.Y, op.Text)
	case OpFillRect:
		pdf.SetFillColor(r, g, b)
		pdf.Rect(op.X, op.Y, op.W, op.H, "F")
	case OpStrokeRect:
		pdf.SetDrawColor(r, g, b)
		pdf.SetLineWidth(0.5)
		pdf.Rect(op.X, op.Y, op.W, op.H, "D")
	case OpLine:
		pdf.SetDrawColor(r, g, b)
		pdf.SetLineWidth(0.75)
		pdf.Line(op.X, op.Y, op.X+op.W, op.Y+op.H)
	}
}
