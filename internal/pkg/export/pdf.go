package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/ManuelReschke/CashFox/internal/pkg/aggregate"
)

const (
	pdfLeft        = 14.0
	pdfRowHeight   = 7.0
	pdfSectionGap  = 15.0
	pdfBreakAt     = 250.0
	pdfMaxDescRune = 48
)

type rgb struct{ r, g, b int }

type section struct {
	title  string
	column string
	fill   rgb
	rows   [][]string
}

var pdfColumnWidths = []float64{32, 82, 40, 28}

// WritePDF renders the report. Sections without records are skipped.
func WritePDF(w io.Writer, data Data, now time.Time) error {
	return buildPDF(data, now).Output(w)
}

// PDF renders the report into memory.
func PDF(data Data, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, data, now); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildPDF(data Data, now time.Time) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfLeft, 20, pdfLeft)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 20)
	pdf.Text(pdfLeft, 20, "Financial Report")
	pdf.SetFontSize(10)
	pdf.Text(pdfLeft, 28, "Generated on "+now.Format("Jan 02, 2006"))

	sections := []section{
		{title: "Expenses", column: "Category", fill: rgb{66, 133, 244}, rows: rowsOf(data.Expenses)},
		{title: "Income", column: "Source", fill: rgb{52, 168, 83}, rows: rowsOf(data.Income)},
		{title: "Investments", column: "Type", fill: rgb{156, 39, 176}, rows: rowsOf(data.Investments)},
	}

	y := 40.0
	first := true
	for _, s := range sections {
		if len(s.rows) == 0 {
			continue
		}
		if !first && y > pdfBreakAt {
			pdf.AddPage()
			y = 20
		}
		first = false

		pdf.SetFont("Helvetica", "", 14)
		pdf.SetTextColor(0, 0, 0)
		pdf.Text(pdfLeft, y, s.title)
		y += 5

		pdf.SetXY(pdfLeft, y)
		drawTable(pdf, tr, s)
		y = pdf.GetY() + pdfSectionGap
	}
	return pdf
}

func drawTable(pdf *fpdf.Fpdf, tr func(string) string, s section) {
	header := []string{"Date", "Description", s.column, "Amount"}
	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(s.fill.r, s.fill.g, s.fill.b)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetDrawColor(200, 200, 200)
		for i, h := range header {
			pdf.CellFormat(pdfColumnWidths[i], pdfRowHeight+1, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
	}

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	drawHeader()
	for _, row := range s.rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-bottom {
			pdf.AddPage()
			drawHeader()
		}
		for i, cell := range row {
			pdf.CellFormat(pdfColumnWidths[i], pdfRowHeight, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func rowsOf[R aggregate.Record](records []R) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		desc := r.GetDescription()
		if desc == "" {
			desc = "-"
		}
		amount, _ := r.GetAmount().Float64()
		rows = append(rows, []string{
			r.GetDate().Format("Jan 02, 2006"),
			truncate(desc, pdfMaxDescRune),
			r.GetGroup(),
			fmt.Sprintf("$%.2f", amount),
		})
	}
	return rows
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
