package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/server/models"
	"github.com/phpdave11/gofpdf"
)

var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"PRODUCT", 86, "L"},
	{"SALES", 28, "R"},
	{"UNITS", 28, "R"},
	{"REVENUE", 40, "R"},
}

func pdfHeaderRow(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(245, 245, 245)
	for i, col := range pdfColumns {
		ln := 0
		if i == len(pdfColumns)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, 8, col.title, "1", ln, "C", true, 0, "")
	}
	pdf.SetFont("Helvetica", "", 9)
}

func pdfRow(pdf *gofpdf.Fpdf, cells ...string) {
	for i, col := range pdfColumns {
		ln := 0
		if i == len(pdfColumns)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, 8, cells[i], "1", ln, col.align, false, 0, "")
	}
}

// RenderReportPDF lays out a period report as a one-table A4 document.
func RenderReportPDF(r *models.Report, generated time.Time, w io.Writer) error {
	from := r.From.Format(time.DateOnly)
	to := r.To.AddDate(0, 0, -1).Format(time.DateOnly)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Sales report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Period: "+from+" to "+to)
	pdf.Ln(10)
	pdf.SetTextColor(20, 20, 20)

	pdfHeaderRow(pdf)
	for _, p := range r.Products {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			pdfHeaderRow(pdf)
		}
		name := p.ProductName
		if p.ProductID == nil {
			name = "(deleted product)"
		}
		pdfRow(pdf, tr(name), strconv.FormatInt(p.Count, 10), strconv.FormatInt(p.Quantity, 10), p.Revenue.StringFixed(2))
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdfRow(pdf, "TOTAL", strconv.FormatInt(r.Totals.Count, 10), strconv.FormatInt(r.Totals.Quantity, 10), r.Totals.Revenue.StringFixed(2))

	pdf.SetAutoPageBreak(false, 0)
	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 10, "Generated "+generated.UTC().Format(time.RFC3339), "", 0, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf build failed: %w", err)
	}
	return nil
}

// ReportPDF writes the Report for start..end (inclusive) to w as a PDF.
func (s *ReportService) ReportPDF(ctx context.Context, start, end time.Time, w io.Writer) error {
	r, err := s.Report(ctx, start, end)
	if err != nil {
		return err
	}
	return RenderReportPDF(r, s.now(), w)
}
