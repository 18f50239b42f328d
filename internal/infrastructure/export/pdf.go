package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/ibportal/backend/internal/domain/grid"
)

const (
	pdfFont       = "Helvetica"
	pdfFontSize   = 8
	pdfTitleSize  = 13
	pdfRowHeight  = 6
	pdfCellMargin = 1.5
	pdfEllipsis   = "..."
)

var (
	headerFill  = [3]int{55, 65, 81}
	headerText  = [3]int{255, 255, 255}
	stripedFill = [3]int{243, 244, 246}
)

// WritePDF writes an A4 document with an optional title and one table. The
// header row has a dark fill and is repeated on every page; body rows alternate
// shading. Cell text that does not fit is truncated with an ellipsis.
func WritePDF(w io.Writer, table *grid.Table, opts Options) error {
	orientation := "L"
	if opts.Orientation == Portrait {
		orientation = "P"
	}

	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(false, 12)
	pdf.SetTitle(table.Title, true)
	pdf.SetCreator("ib-portal", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	widths := pdfColumnWidths(table, pageW-left-right)

	drawHeader := func() {
		pdf.SetFont(pdfFont, "B", pdfFontSize)
		pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
		pdf.SetTextColor(headerText[0], headerText[1], headerText[2])
		for i, h := range table.Headers {
			pdf.CellFormat(widths[i], pdfRowHeight+1, fit(pdf, tr(h), widths[i]), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(pdfFont, "", pdfFontSize)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.AddPage()
	if table.Title != "" {
		pdf.SetFont(pdfFont, "B", pdfTitleSize)
		pdf.CellFormat(0, 9, tr(table.Title), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	drawHeader()

	for i, row := range table.Rows {
		if pdf.GetY()+pdfRowHeight > pageH-bottom {
			pdf.AddPage()
			drawHeader()
		}
		striped := i%2 == 1
		if striped {
			pdf.SetFillColor(stripedFill[0], stripedFill[1], stripedFill[2])
		}
		for col := range table.Headers {
			text, align := "", "L"
			if col < len(row) {
				text = grid.CellString(row[col])
				if _, isNumber := row[col].(float64); isNumber {
					align = "R"
				}
			}
			pdf.CellFormat(widths[col], pdfRowHeight, fit(pdf, tr(text), widths[col]), "1", 0, align, striped, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// pdfColumnWidths splits the usable width proportionally to each column's
// longest text, with a floor so short columns stay readable.
func pdfColumnWidths(table *grid.Table, usable float64) []float64 {
	n := len(table.Headers)
	if n == 0 {
		return nil
	}
	weights := make([]float64, n)
	for i, h := range table.Headers {
		weights[i] = float64(utf8.RuneCountInString(h))
	}
	for _, row := range table.Rows {
		for i := 0; i < n && i < len(row); i++ {
			if l := float64(utf8.RuneCountInString(grid.CellString(row[i]))); l > weights[i] {
				weights[i] = l
			}
		}
	}

	const floor, ceiling = 4.0, 40.0
	var total float64
	for i, w := range weights {
		weights[i] = min(max(w, floor), ceiling)
		total += weights[i]
	}
	widths := make([]float64, n)
	for i, w := range weights {
		widths[i] = usable * w / total
	}
	return widths
}

// fit truncates s so it fits in a cell of width w
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	limit := w - 2*pdfCellMargin
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	for len(s) > 0 {
		s = s[:len(s)-1]
		if pdf.GetStringWidth(s+pdfEllipsis) <= limit {
			return s + pdfEllipsis
		}
	}
	return ""
}
