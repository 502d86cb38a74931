package quote

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// Company identity printed on every quote.
const (
	companyName     = "ALFONSA"
	companySubtitle = "DISTRIBUIDORA MAYORISTA"
	companyTagline  = "Bebidas y Artículos de Almacén"
	companyEmail    = "ventas@alfonsa.com"
)

const defaultClientName = "Consumidor Final"

// Number builds a quote number from the current date plus a short random
// suffix, e.g. 202608-31-042.
func Number(now time.Time) string {
	return fmt.Sprintf("%s-%03d", now.Format("200601-02"), uuid.New().ID()%1000)
}

// GeneratePDF renders a finalized line list into a printable quote: header
// block, client line, paginated line-item table and totals footer. Pure
// formatting; the caller decides what to do with the bytes.
func GeneratePDF(lines []models.CartLine, clientName string, total float64) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	now := time.Now()
	number := Number(now)

	drawHeader(pdf, tr, number, now)
	drawClient(pdf, tr, clientName)
	y := drawTable(pdf, tr, lines)
	drawTotals(pdf, tr, y, total)
	drawFooter(pdf, tr)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering quote pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func drawHeader(pdf *gofpdf.Fpdf, tr func(string) string, number string, now time.Time) {
	pdf.SetFillColor(240, 240, 240)
	pdf.Rect(14, 10, 182, 40, "F")

	pdf.SetTextColor(228, 124, 0)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.Text(20, 25, companyName)

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(20, 32, companySubtitle)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(20, 37, tr(companyTagline))
	pdf.Text(20, 42, companyEmail)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.5)
	pdf.Rect(120, 10, 76, 40, "D")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(120, 15)
	pdf.CellFormat(76, 8, "PRESUPUESTO", "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(125, 30, tr(fmt.Sprintf("N°: %s", number)))
	pdf.Text(125, 36, fmt.Sprintf("Fecha: %s", now.Format("02/01/2006")))
	pdf.Text(125, 42, fmt.Sprintf("Hora: %s", now.Format("15:04")))
}

func drawClient(pdf *gofpdf.Fpdf, tr func(string) string, clientName string) {
	pdf.SetDrawColor(228, 124, 0)
	pdf.SetLineWidth(1)
	pdf.Line(14, 58, 196, 58)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Text(14, 66, "CLIENTE:")

	if strings.TrimSpace(clientName) == "" {
		clientName = defaultClientName
	}
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(40, 66, tr(clientName))
}

var tableWidths = [...]float64{25, 72, 20, 30, 30}

func drawTableHead(pdf *gofpdf.Fpdf, tr func(string) string, y float64) float64 {
	headers := [...]string{"CÓDIGO", "DESCRIPCIÓN", "CANT.", "UNITARIO", "SUBTOTAL"}

	pdf.SetFillColor(228, 124, 0)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetXY(14, y)
	for i, h := range headers {
		pdf.CellFormat(tableWidths[i], 8, tr(h), "", 0, "C", true, 0, "")
	}
	return y + 8
}

func drawTable(pdf *gofpdf.Fpdf, tr func(string) string, lines []models.CartLine) float64 {
	_, pageHeight := pdf.GetPageSize()
	y := drawTableHead(pdf, tr, 75)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetDrawColor(220, 220, 220)
	pdf.SetLineWidth(0.1)

	for _, line := range lines {
		if y > pageHeight-40 {
			pdf.AddPage()
			y = drawTableHead(pdf, tr, 15)
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont("Helvetica", "", 9)
		}

		cells := [...]string{
			line.ID,
			line.Name,
			fmt.Sprintf("%d", line.Quantity),
			fmt.Sprintf("$%s", FormatAmount(line.SelectedPrice)),
			fmt.Sprintf("$%s", FormatAmount(line.Subtotal())),
		}
		aligns := [...]string{"L", "L", "C", "R", "R"}

		pdf.SetXY(14, y)
		for i, c := range cells {
			pdf.CellFormat(tableWidths[i], 7, tr(c), "", 0, aligns[i], false, 0, "")
		}
		pdf.Line(14, y+7, 191, y+7)
		y += 7
	}

	return y
}

func drawTotals(pdf *gofpdf.Fpdf, tr func(string) string, y, total float64) {
	_, pageHeight := pdf.GetPageSize()
	y += 5
	if y > pageHeight-50 {
		pdf.AddPage()
		y = 15
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.Rect(130, y, 66, 20, "F")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(135, y+13, "TOTAL:")
	pdf.SetXY(130, y+6)
	pdf.CellFormat(62, 10, tr(fmt.Sprintf("$%s", FormatAmount(total))), "", 0, "R", false, 0, "")
}

func drawFooter(pdf *gofpdf.Fpdf, tr func(string) string) {
	_, pageHeight := pdf.GetPageSize()

	pdf.SetTextColor(120, 120, 120)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(14, pageHeight-22)
	pdf.CellFormat(182, 5, tr("Este documento es un presupuesto no válido como factura fiscal."), "", 1, "C", false, 0, "")
	pdf.SetX(14)
	pdf.CellFormat(182, 5, tr("Los precios están sujetos a cambios sin previo aviso."), "", 0, "C", false, 0, "")
}

// WhatsAppLink builds a wa.me share URL embedding a plain-text itemized
// summary of the quote. No authentication, no persistence.
func WhatsAppLink(lines []models.CartLine, total float64) string {
	var sb strings.Builder
	sb.WriteString("*PEDIDO ALFONSA DISTRIBUIDORA*\n\n")

	for _, line := range lines {
		fmt.Fprintf(&sb, "• *(%d)* %s | $%s\n",
			line.Quantity, line.Name, FormatAmount(line.Subtotal()))
	}

	fmt.Fprintf(&sb, "\n*TOTAL FINAL: $%s*", FormatAmount(total))

	return "https://wa.me/?text=" + url.QueryEscape(sb.String())
}

// FormatAmount renders an amount the way the quotes read locally: dots for
// thousands, comma decimals, decimals dropped for whole amounts (es-AR
// style, e.g. 1234.5 -> "1.234,50", 1800 -> "1.800").
func FormatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	s := fmt.Sprintf("%.2f", v)
	parts := strings.SplitN(s, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var sb strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(d)
	}

	out := sb.String()
	if fracPart != "00" {
		out += "," + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
