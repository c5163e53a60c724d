// Package export renders cutting plans and quotes to PDF, Excel and QR-coded
// stick labels.
package export

import (
	"fmt"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
)

// cutColor represents an RGB color for a cut segment.
type cutColor struct {
	R, G, B int
}

// cutColors cycles per cut label so repeated pieces share a color.
var cutColors = []cutColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth     = 297.0
	pageHeight    = 210.0
	marginLeft    = 15.0
	marginRight   = 15.0
	marginTop     = 15.0
	marginBottom  = 15.0
	headerHeight  = 12.0
	drawAreaTop   = marginTop + headerHeight + 5.0
	stickHeight   = 10.0
	stickSpacing  = 12.0 // caption and cut list below each bar
	sticksPerPage = 6
)

// DisplayGraduation is the finest fraction printed on exports.
const DisplayGraduation = 16

// inches formats m for print, e.g. 48 1/2".
func inches(m measure.Measurement) string {
	return measure.FormatRounded(m, DisplayGraduation) + `"`
}

// ExportPlanPDF writes a cutting plan: the sticks as scaled bars, several per
// page, followed by a summary page.
func ExportPlanPDF(path string, plan model.CuttingPlan, settings model.CutSettings) error {
	if len(plan.Sticks) == 0 {
		return fmt.Errorf("no sticks to export")
	}
	if plan.StockLength.Sign() <= 0 {
		return fmt.Errorf("stock length must be positive, got %s", plan.StockLength.Exact())
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	colors := labelColors(plan)
	pages := (len(plan.Sticks) + sticksPerPage - 1) / sticksPerPage
	for page := 0; page < pages; page++ {
		pdf.AddPage()
		start := page * sticksPerPage
		end := start + sticksPerPage
		if end > len(plan.Sticks) {
			end = len(plan.Sticks)
		}
		renderStickPage(pdf, plan, settings, plan.Sticks[start:end], colors, page+1, pages)
	}

	pdf.AddPage()
	renderPlanSummary(pdf, plan, settings)

	return pdf.OutputFileAndClose(path)
}

// labelColors assigns a color per distinct cut label in first-seen order.
func labelColors(plan model.CuttingPlan) map[string]cutColor {
	colors := make(map[string]cutColor)
	for _, s := range plan.Sticks {
		for _, c := range s.Cuts {
			if _, ok := colors[c.Label]; !ok {
				colors[c.Label] = cutColors[len(colors)%len(cutColors)]
			}
		}
	}
	return colors
}

func renderStickPage(pdf *fpdf.Fpdf, plan model.CuttingPlan, settings model.CutSettings, sticks []model.Stick, colors map[string]cutColor, page, pages int) {
	stockLabel := settings.StockLabel
	if stockLabel == "" {
		stockLabel = "Stock"
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Cutting Plan: %s %s, kerf %s", stockLabel, inches(plan.StockLength), inches(plan.Kerf))
	pdf.CellFormat(pageWidth-marginLeft-marginRight-40, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(40, headerHeight, fmt.Sprintf("Page %d of %d", page, pages), "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	canvasW := pageWidth - marginLeft - marginRight
	scale := canvasW / plan.StockLength.Float64()

	y := drawAreaTop
	for _, stick := range sticks {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetXY(marginLeft, y)
		caption := fmt.Sprintf("Stick %d  -  %d cuts, waste %s, %.1f%% used",
			stick.Index+1, len(stick.Cuts), inches(stick.Waste), stick.Efficiency(plan.StockLength))
		pdf.CellFormat(canvasW, 5, caption, "", 0, "L", false, 0, "")
		y += 6

		drawStick(pdf, stick, plan.Kerf, colors, scale, marginLeft, y)
		y += stickHeight + 1

		drawCutList(pdf, stick, marginLeft, y, canvasW)
		y += stickSpacing
	}
}

// drawStick renders one stick left to right: cuts, kerf slivers between them,
// and the hatched offcut at the end.
func drawStick(pdf *fpdf.Fpdf, stick model.Stick, kerf measure.Measurement, colors map[string]cutColor, scale, x, y float64) {
	pos := x
	for i, c := range stick.Cuts {
		if i > 0 && kerf.Sign() > 0 {
			kw := math.Max(kerf.Float64()*scale, 0.3)
			pdf.SetFillColor(40, 40, 40)
			pdf.Rect(pos, y, kw, stickHeight, "F")
			pos += kerf.Float64() * scale
		}

		w := c.Length.Float64() * scale
		col := colors[c.Label]
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(0, 0, 0)
		pdf.SetLineWidth(0.2)
		pdf.Rect(pos, y, w, stickHeight, "FD")

		text := inches(c.Length)
		pdf.SetFont("Helvetica", "", labelFontSize(w))
		if tw := pdf.GetStringWidth(text); tw+2 < w {
			pdf.SetTextColor(255, 255, 255)
			pdf.SetXY(pos+(w-tw)/2, y+stickHeight/2-2)
			pdf.CellFormat(tw, 4, text, "", 0, "C", false, 0, "")
		}
		pos += w
	}

	if stick.Waste.Sign() > 0 {
		ww := stick.Waste.Float64() * scale
		pdf.SetDrawColor(200, 0, 0)
		pdf.SetLineWidth(0.2)
		pdf.Rect(pos, y, ww, stickHeight, "D")
		drawHatchPattern(pdf, pos, y, ww, stickHeight)
	}

	pdf.SetTextColor(0, 0, 0)
}

// drawHatchPattern draws diagonal lines inside a rectangle to mark offcuts.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 3.0
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

// drawCutList prints the cut labels under a bar, wrapping when needed.
func drawCutList(pdf *fpdf.Fpdf, stick model.Stick, x, y, maxW float64) {
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(60, 60, 60)
	text := ""
	for i, c := range stick.Cuts {
		if i > 0 {
			text += ", "
		}
		label := c.Label
		if label == "" {
			label = "piece"
		}
		text += fmt.Sprintf("%s %s", label, inches(c.Length))
	}
	for pdf.GetStringWidth(text) > maxW && len(text) > 3 {
		text = text[:len(text)-4] + "..."
	}
	pdf.SetXY(x, y)
	pdf.CellFormat(maxW, 4, text, "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// renderPlanSummary draws the final summary page with overall statistics.
func renderPlanSummary(pdf *fpdf.Fpdf, plan model.CuttingPlan, settings model.CutSettings) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Cutting Plan Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	algorithm := plan.Algorithm
	if algorithm == "" {
		algorithm = model.AlgorithmFirstFit
	}
	y = drawKeyValues(pdf, y, []keyValue{
		{"Sticks Used", fmt.Sprintf("%d", plan.TotalSticks)},
		{"Pieces Cut", fmt.Sprintf("%d", plan.TotalPieces)},
		{"Total Stock", inches(plan.TotalStock)},
		{"Total Cut Length", inches(plan.TotalCutLength)},
		{"Kerf Loss", inches(plan.TotalKerfLoss)},
		{"Waste", inches(plan.TotalWaste)},
		{"Efficiency", fmt.Sprintf("%.1f%% (material %.1f%%)", plan.Efficiency, plan.MaterialEfficiency)},
		{"Algorithm", string(algorithm)},
	})

	y += 5

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Stick Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{20, 25, 45, 40, 45, 35}
	headers := []string{"Stick", "Cuts", "Cut Length", "Kerf", "Waste", "Used"}
	y = drawTableHeader(pdf, y, colWidths, headers)

	pdf.SetFont("Helvetica", "", 9)
	for i, stick := range plan.Sticks {
		if y > pageHeight-marginBottom-10 {
			pdf.AddPage()
			y = drawTableHeader(pdf, marginTop, colWidths, headers)
			pdf.SetFont("Helvetica", "", 9)
		}
		drawTableRow(pdf, y, colWidths, i, []string{
			fmt.Sprintf("%d", stick.Index+1),
			fmt.Sprintf("%d", len(stick.Cuts)),
			inches(stick.CutLength),
			inches(stick.KerfLoss),
			inches(stick.Waste),
			fmt.Sprintf("%.1f%%", stick.Efficiency(plan.StockLength)),
		})
		y += 6
	}

	footer(pdf, fmt.Sprintf("Stock %s, kerf %s", inches(settings.StockLength), inches(settings.Kerf)))
}

// QuoteHeader identifies a printed quote.
type QuoteHeader struct {
	Company     string
	Customer    string
	JobName     string
	QuoteNumber int
	Version     int
	Date        time.Time
}

// ExportQuotePDF writes an itemized job quote: one block per item with its
// formula lines, then the job total and quote price.
func ExportQuotePDF(path string, job model.JobQuote, header QuoteHeader) error {
	if len(job.Items) == 0 {
		return fmt.Errorf("no items to export")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AddPage()

	const portraitWidth = 215.9
	const portraitHeight = 279.4
	contentW := portraitWidth - marginLeft - marginRight

	company := header.Company
	if company == "" {
		company = "Glass Quote"
	}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(contentW, 10, company, "", 0, "L", false, 0, "")

	date := header.Date
	if date.IsZero() {
		date = time.Now()
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(marginLeft, marginTop)
	ref := date.Format("2006-01-02")
	if header.QuoteNumber > 0 {
		ref = fmt.Sprintf("Quote #%d v%d  %s", header.QuoteNumber, header.Version, ref)
	}
	pdf.CellFormat(contentW, 10, ref, "", 0, "R", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, portraitWidth-marginRight, marginTop+12)

	y := marginTop + 16
	if header.Customer != "" || header.JobName != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(contentW, 6, fmt.Sprintf("Customer: %s    Job: %s", header.Customer, header.JobName), "", 0, "L", false, 0, "")
		y += 8
	}

	colWidths := []float64{45, 95, 45}
	for i, item := range job.Items {
		if y > portraitHeight-marginBottom-60 {
			pdf.AddPage()
			y = marginTop
		}
		label := item.Label
		if label == "" {
			label = fmt.Sprintf("Item %d", i+1)
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(contentW, 7, fmt.Sprintf("%s  (qty %d, %s sq ft billable)", label, item.Quantity, item.BillableSqFt.String()), "", 0, "L", false, 0, "")
		y += 8

		y = drawTableHeader(pdf, y, colWidths, []string{"Line", "Detail", "Amount"})
		pdf.SetFont("Helvetica", "", 9)
		for j, line := range item.Lines {
			drawTableRow(pdf, y, colWidths, j, []string{string(line.Name), line.Detail, money(line.Amount)})
			y += 6
		}

		rows := []keyValue{
			{"Subtotal", money(item.Subtotal)},
		}
		if item.Discount.IsPositive() {
			rows = append(rows, keyValue{"Discount", "-" + money(item.Discount)})
		}
		rows = append(rows,
			keyValue{"Per unit", money(item.PerUnitTotal)},
			keyValue{"Total", money(item.Total)},
		)
		y = drawKeyValues(pdf, y+1, rows)
		y += 4
	}

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.3)
	pdf.Line(marginLeft, y, portraitWidth-marginRight, y)
	y += 3
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(contentW/2, 7, "Job Total", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 7, money(job.Total), "", 0, "R", false, 0, "")
	y += 8
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(contentW/2, 7, "Quote Price", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 7, money(job.QuotePrice), "", 0, "R", false, 0, "")

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, portraitHeight-marginBottom)
	pdf.CellFormat(contentW, 4, "Generated by GlassCut", "", 0, "C", false, 0, "")

	return pdf.OutputFileAndClose(path)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

type keyValue struct {
	label string
	value string
}

func drawKeyValues(pdf *fpdf.Fpdf, y float64, items []keyValue) float64 {
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}
	return y
}

func drawTableHeader(pdf *fpdf.Fpdf, y float64, colWidths []float64, headers []string) float64 {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	return y + 6
}

func drawTableRow(pdf *fpdf.Fpdf, y float64, colWidths []float64, row int, cells []string) {
	// Alternate row background
	if row%2 == 0 {
		pdf.SetFillColor(245, 245, 245)
	} else {
		pdf.SetFillColor(255, 255, 255)
	}
	xPos := marginLeft
	for j, cell := range cells {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
		xPos += colWidths[j]
	}
}

func footer(pdf *fpdf.Fpdf, note string) {
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by GlassCut - "+note, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// labelFontSize returns a font size that fits a segment of width w.
func labelFontSize(w float64) float64 {
	switch {
	case w > 40:
		return 8
	case w > 20:
		return 7
	default:
		return 6
	}
}
