// Package template renders tickets and reports into fixed-layout PDF
// documents.
package template

import (
	"bytes"
	"fmt"
	"image/png"
	"strconv"
	"time"

	"github.com/signintech/gopdf"
	qrcode "github.com/skip2/go-qrcode"

	"yard-ticketing/internal/models"
	"yard-ticketing/internal/timefmt"
)

const (
	fontRegular = "body"
	fontBold    = "bold"

	pageWidth  = 612.0 // Letter
	pageHeight = 792.0

	marginLeft  = 36.0
	marginRight = 36.0

	notesLimit = 200
)

// PDFGenerator draws the two-copy dump ticket and the tabular report.
type PDFGenerator struct {
	FontPath     string
	FontBoldPath string
	HeaderLines  []string
}

func NewPDFGenerator(fontPath, fontBoldPath string, headerLines []string) *PDFGenerator {
	return &PDFGenerator{
		FontPath:     fontPath,
		FontBoldPath: fontBoldPath,
		HeaderLines:  headerLines,
	}
}

func (g *PDFGenerator) newDocument() (*gopdf.GoPdf, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeLetter})

	if err := pdf.AddTTFFont(fontRegular, g.FontPath); err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", g.FontPath, err)
	}
	boldPath := g.FontBoldPath
	if boldPath == "" {
		boldPath = g.FontPath
	}
	if err := pdf.AddTTFFont(fontBold, boldPath); err != nil {
		// No dedicated bold face available; reuse the regular file so the
		// layout still renders.
		if err := pdf.AddTTFFont(fontBold, g.FontPath); err != nil {
			return nil, fmt.Errorf("failed to load font %s: %w", g.FontPath, err)
		}
	}
	if err := pdf.SetFont(fontRegular, "", 10); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}
	return pdf, nil
}

// RenderTicket produces one document with two sequential copies of the same
// ticket: the driver copy carrying a blank name/signature line pair and the
// internal billing copy without it.
func (g *PDFGenerator) RenderTicket(ticket *models.Ticket) ([]byte, error) {
	pdf, err := g.newDocument()
	if err != nil {
		return nil, err
	}

	g.drawTicketPage(pdf, ticket, "DRIVER COPY - SIGNATURE REQUIRED", true)
	g.drawTicketPage(pdf, ticket, "INTERNAL BILLING COPY", false)

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *PDFGenerator) drawTicketPage(pdf *gopdf.GoPdf, ticket *models.Ticket, copyTitle string, includeSignature bool) {
	pdf.AddPage()

	left := marginLeft
	right := pageWidth - marginRight
	boxW := right - left

	pdf.SetLineWidth(1)
	pdf.RectFromUpperLeftWithStyle(left, 40, boxW, pageHeight-70, "D")

	headerLines := g.HeaderLines
	for i, line := range headerLines {
		if i == 0 {
			setFont(pdf, fontBold, 12)
		} else {
			setFont(pdf, fontRegular, 10)
		}
		drawCentered(pdf, line, 48+float64(i)*14)
	}

	drawQRCode(pdf, ticket.TicketNumber, right-66, 46, 56)

	setFont(pdf, fontBold, 18)
	drawCentered(pdf, "DUMP TICKET", 122)
	setFont(pdf, fontBold, 11)
	drawCentered(pdf, copyTitle, 146)

	g.field(pdf, "Ticket #", ticket.TicketNumber, left+10, 164, 250, 24, 65)
	g.field(pdf, "Date/Time", timefmt.Format(ticket.CreatedAt), left+270, 164, boxW-280, 24, 72)

	g.field(pdf, "Direction", directionText(ticket.Direction), left+10, 194, boxW-20, 24, 72)

	g.field(pdf, "Job #", ticket.JobCodeSnapshot, left+10, 224, 180, 24, 45)
	g.field(pdf, "Job Name", ticket.JobNameSnapshot, left+195, 224, boxW-205, 24, 65)
	g.field(pdf, "Customer", ticket.CustomerSnapshot, left+10, 254, boxW-20, 24, 65)

	g.field(pdf, "Truck #", ticket.TruckNumberSnapshot, left+10, 284, 180, 24, 55)
	g.field(pdf, "Material", ticket.MaterialNameSnapshot, left+195, 284, boxW-205, 24, 55)

	g.field(pdf, "Quantity", strconv.FormatFloat(ticket.Quantity, 'f', -1, 64), left+10, 314, 180, 24, 58)
	g.field(pdf, "Unit", ticket.Unit, left+195, 314, 120, 24, 34)

	// Notes box with its own taller frame.
	notesY := 344.0
	notesH := 88.0
	pdf.RectFromUpperLeftWithStyle(left+10, notesY, boxW-20, notesH, "D")
	setFont(pdf, fontBold, 10)
	drawText(pdf, left+16, notesY+7, "Notes")
	setFont(pdf, fontRegular, 10)
	drawText(pdf, left+70, notesY+7, truncateNotes(ticket.Notes))

	if includeSignature {
		sigY := notesY + notesH + 36
		half := (boxW - 30) / 2
		g.field(pdf, "Driver Name", "", left+10, sigY, half, 24, 70)
		g.field(pdf, "Signature", "", left+20+half, sigY, half, 24, 60)
	}

	setFont(pdf, fontRegular, 8)
	drawRightAligned(pdf, "Printed: "+timefmt.Format(time.Now()), right-8, 746)
}

// field draws one bordered label/value box with a fixed label column. The
// box and label render even when the value is blank; a blank field is part
// of the display contract, not an omission.
func (g *PDFGenerator) field(pdf *gopdf.GoPdf, label, value string, x, y, w, h, labelW float64) {
	pdf.RectFromUpperLeftWithStyle(x, y, w, h, "D")
	pdf.Line(x+labelW, y, x+labelW, y+h)
	setFont(pdf, fontBold, 10)
	drawText(pdf, x+6, y+7, label)
	setFont(pdf, fontRegular, 10)
	drawText(pdf, x+labelW+6, y+7, value)
}

func directionText(direction string) string {
	if direction == models.DirectionIn {
		return "IN  [X]   OUT [ ]"
	}
	return "IN  [ ]   OUT [X]"
}

func truncateNotes(notes string) string {
	runes := []rune(notes)
	if len(runes) > notesLimit {
		return string(runes[:notesLimit-3]) + "..."
	}
	return notes
}

func drawText(pdf *gopdf.GoPdf, x, y float64, text string) {
	if text == "" {
		return
	}
	pdf.SetX(x)
	pdf.SetY(y)
	pdf.Cell(nil, text)
}

func drawCentered(pdf *gopdf.GoPdf, text string, y float64) {
	w, err := pdf.MeasureTextWidth(text)
	if err != nil {
		w = 0
	}
	drawText(pdf, (pageWidth-w)/2, y, text)
}

func drawRightAligned(pdf *gopdf.GoPdf, text string, right, y float64) {
	w, err := pdf.MeasureTextWidth(text)
	if err != nil {
		w = 0
	}
	drawText(pdf, right-w, y, text)
}

func setFont(pdf *gopdf.GoPdf, name string, size float64) {
	_ = pdf.SetFont(name, "", size)
}

// drawQRCode puts a scannable copy of the ticket number on the page. A QR
// failure degrades to an empty corner rather than failing the ticket.
func drawQRCode(pdf *gopdf.GoPdf, content string, x, y, size float64) {
	if content == "" {
		return
	}
	encoded, err := qrcode.Encode(content, qrcode.Medium, int(size))
	if err != nil {
		return
	}
	img, err := png.Decode(bytes.NewReader(encoded))
	if err != nil {
		return
	}
	_ = pdf.ImageFrom(img, x, y, &gopdf.Rect{W: size, H: size})
}
