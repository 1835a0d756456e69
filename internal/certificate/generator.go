// Package certificate renders participation certificates as PDF documents.
package certificate

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/hackbox-events/server/internal/dates"
)

var ErrMissingRecipient = errors.New("certificate recipient name is required")

// Generator renders landscape A4 certificates signed off by Issuer.
type Generator struct {
	Issuer string
}

func NewGenerator(issuer string) *Generator {
	if strings.TrimSpace(issuer) == "" {
		issuer = "Team Hackbox"
	}
	return &Generator{Issuer: issuer}
}

// Generate returns the PDF bytes of a certificate for recipient. eventDate is
// printed in long form when it parses and verbatim otherwise.
func (g *Generator) Generate(recipient, eventName, eventDate string) ([]byte, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, ErrMissingRecipient
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificate of Participation", true)
	pdf.SetAuthor(g.Issuer, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width, height := pdf.GetPageSize()

	pdf.SetDrawColor(31, 58, 147)
	pdf.SetLineWidth(2)
	pdf.Rect(10, 10, width-20, height-20, "D")
	pdf.SetLineWidth(0.5)
	pdf.Rect(15, 15, width-30, height-30, "D")

	pdf.SetTextColor(31, 58, 147)
	pdf.SetFont("Helvetica", "B", 34)
	pdf.SetXY(0, 40)
	pdf.CellFormat(width, 16, tr("Certificate of Participation"), "", 1, "C", false, 0, "")

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 16)
	pdf.SetXY(0, 72)
	pdf.CellFormat(width, 10, tr("This is to certify that"), "", 1, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Times", "BI", 30)
	pdf.SetXY(0, 88)
	pdf.CellFormat(width, 16, tr(recipient), "", 1, "C", false, 0, "")

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 16)
	pdf.SetXY(30, 112)
	line := fmt.Sprintf("has successfully participated in %s", strings.TrimSpace(eventName))
	if date := dates.Format(eventDate); date != "" {
		line += " held on " + date
	}
	pdf.MultiCell(width-60, 9, tr(line+"."), "", "C", false)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(width-110, height-50)
	pdf.CellFormat(80, 8, tr(g.Issuer), "T", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
