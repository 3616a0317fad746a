package template

import (
	"bytes"
	"fmt"
	"time"

	"github.com/signintech/gopdf"

	"yard-ticketing/internal/models"
	"yard-ticketing/internal/timefmt"
)

const (
	tableTop   = 84.0
	rowHeight  = 18.0
	pageBottom = 742.0
)

var reportColumns = []struct {
	Title string
	Width float64
}{
	{"Ticket #", 75},
	{"Date/Time", 85},
	{"Customer", 120},
	{"Dir", 35},
	{"Material", 110},
	{"Qty", 45},
	{"Unit", 40},
}

// RenderReport produces the printable report: a line-item table of the
// filtered tickets followed by the totals-by-unit and totals-by-material
// tables.
func (g *PDFGenerator) RenderReport(tickets []models.Ticket, unitTotals []models.UnitTotal, materialTotals []models.MaterialTotal) ([]byte, error) {
	pdf, err := g.newDocument()
	if err != nil {
		return nil, err
	}
	pdf.AddPage()

	setFont(pdf, fontBold, 14)
	drawText(pdf, marginLeft, 40, "Ticket Report")
	setFont(pdf, fontRegular, 10)
	drawText(pdf, marginLeft, 62, "Generated: "+timefmt.Format(time.Now()))

	y := tableTop
	y = g.drawReportHeader(pdf, y)
	for _, t := range tickets {
		if y > pageBottom {
			pdf.AddPage()
			y = g.drawReportHeader(pdf, 40)
		}
		cells := []string{
			t.TicketNumber,
			timefmt.Format(t.CreatedAt),
			t.CustomerSnapshot,
			t.Direction,
			t.MaterialNameSnapshot,
			fmt.Sprintf("%.2f", t.Quantity),
			t.Unit,
		}
		y = g.drawReportRow(pdf, y, cells)
	}

	y += 20
	y = g.drawTotalsTable(pdf, y, "Totals By Unit",
		[]string{"Unit", "Total Quantity"}, []float64{100, 120},
		unitTotalRows(unitTotals))

	y += 20
	g.drawTotalsTable(pdf, y, "Totals By Material",
		[]string{"Material", "Unit", "Total Quantity"}, []float64{200, 80, 120},
		materialTotalRows(materialTotals))

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *PDFGenerator) drawReportHeader(pdf *gopdf.GoPdf, y float64) float64 {
	x := marginLeft
	setFont(pdf, fontBold, 9)
	pdf.SetFillColor(211, 211, 211)
	for _, col := range reportColumns {
		pdf.RectFromUpperLeftWithStyle(x, y, col.Width, rowHeight, "FD")
		drawText(pdf, x+3, y+5, col.Title)
		x += col.Width
	}
	pdf.SetFillColor(255, 255, 255)
	return y + rowHeight
}

func (g *PDFGenerator) drawReportRow(pdf *gopdf.GoPdf, y float64, cells []string) float64 {
	x := marginLeft
	setFont(pdf, fontRegular, 9)
	for i, col := range reportColumns {
		pdf.RectFromUpperLeftWithStyle(x, y, col.Width, rowHeight, "D")
		drawText(pdf, x+3, y+5, cells[i])
		x += col.Width
	}
	return y + rowHeight
}

func (g *PDFGenerator) drawTotalsTable(pdf *gopdf.GoPdf, y float64, title string, headers []string, widths []float64, rows [][]string) float64 {
	if y > pageBottom-rowHeight*3 {
		pdf.AddPage()
		y = 40
	}

	setFont(pdf, fontBold, 12)
	drawText(pdf, marginLeft, y, title)
	y += 20

	x := marginLeft
	setFont(pdf, fontBold, 9)
	pdf.SetFillColor(211, 211, 211)
	for i, header := range headers {
		pdf.RectFromUpperLeftWithStyle(x, y, widths[i], rowHeight, "FD")
		drawText(pdf, x+3, y+5, header)
		x += widths[i]
	}
	pdf.SetFillColor(255, 255, 255)
	y += rowHeight

	setFont(pdf, fontRegular, 9)
	for _, row := range rows {
		if y > pageBottom {
			pdf.AddPage()
			y = 40
		}
		x = marginLeft
		for i, cell := range row {
			pdf.RectFromUpperLeftWithStyle(x, y, widths[i], rowHeight, "D")
			drawText(pdf, x+3, y+5, cell)
			x += widths[i]
		}
		y += rowHeight
	}
	return y
}

func unitTotalRows(totals []models.UnitTotal) [][]string {
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{t.Unit, fmt.Sprintf("%.2f", t.TotalQuantity)})
	}
	return rows
}

func materialTotalRows(totals []models.MaterialTotal) [][]string {
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{t.MaterialName, t.Unit, fmt.Sprintf("%.2f", t.TotalQuantity)})
	}
	return rows
}
