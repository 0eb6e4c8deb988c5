package render

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
)

const (
	margin     = 72.0
	lineHeight = 14.0
	fontFamily = "Helvetica"
)

// PDF renders documents to A4 PDFs with fpdf core fonts.
type PDF struct{}

var _ analysis.Renderer = PDF{}

func (PDF) Render(doc analysis.Document) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin/2)
	pdf.SetTitle("Business Intelligence Report - "+doc.Domain, true)
	pdf.SetCreator("domain-intel", true)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin / 2)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	for _, b := range Plan(doc) {
		switch b.Kind {
		case BlockTitle:
			pdf.SetFont(fontFamily, "B", 22)
			pdf.SetTextColor(26, 35, 126)
			pdf.MultiCell(0, 28, tr(b.Text), "", "C", false)
			pdf.Ln(4)
		case BlockSubtitle:
			pdf.SetFont(fontFamily, "B", 14)
			pdf.SetTextColor(40, 40, 40)
			pdf.MultiCell(0, 18, tr(b.Text), "", "L", false)
		case BlockMeta:
			pdf.SetFont(fontFamily, "", 10)
			pdf.SetTextColor(90, 90, 90)
			pdf.MultiCell(0, lineHeight, tr(b.Text), "", "L", false)
			pdf.Ln(lineHeight)
		case BlockPageBreak:
			pdf.AddPage()
		case BlockHeading:
			pdf.Ln(6)
			pdf.SetFont(fontFamily, "B", 14)
			pdf.SetTextColor(40, 53, 147)
			pdf.MultiCell(0, 18, tr(b.Text), "", "L", false)
			pdf.Ln(2)
		case BlockParagraph:
			bodyFont(pdf)
			pdf.MultiCell(0, lineHeight, tr(b.Text), "", "J", false)
			pdf.Ln(4)
		case BlockBullet:
			bodyFont(pdf)
			pdf.SetX(margin + 8)
			pdf.MultiCell(0, lineHeight, tr("- "+b.Text), "", "L", false)
		case BlockEntry:
			pdf.Ln(4)
			labeled(pdf, tr(b.Label), tr(b.Text))
		case BlockField:
			labeled(pdf, tr(b.Label), tr(b.Text))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", analysis.ErrRenderFailure, err)
	}
	return buf.Bytes(), nil
}

func bodyFont(pdf *fpdf.Fpdf) {
	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(20, 20, 20)
}

// labeled writes "Label: text" with a bold label, wrapping the text.
func labeled(pdf *fpdf.Fpdf, label, text string) {
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetTextColor(20, 20, 20)
	w := pdf.GetStringWidth(label + " ")
	pdf.CellFormat(w, lineHeight, label+" ", "", 0, "L", false, 0, "")
	bodyFont(pdf)
	pdf.MultiCell(0, lineHeight, text, "", "L", false)
}
