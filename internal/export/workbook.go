package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/GlassCut/internal/model"
)

const (
	planSheet  = "Cutting Plan"
	quoteSheet = "Quote"
)

var (
	planHeaders  = []string{"Stick", "Cut", "Label", "Length", "Length (in)", "Request"}
	quoteHeaders = []string{"Item", "Line", "Detail", "Amount", "Quantity", "Item Total"}
)

// ExportWorkbook writes an .xlsx file with a sheet for the cutting plan and
// one for the quote. Either may be nil, but not both.
func ExportWorkbook(path string, plan *model.CuttingPlan, job *model.JobQuote) error {
	f, err := BuildWorkbook(plan, job)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// BuildWorkbook builds the workbook in memory.
func BuildWorkbook(plan *model.CuttingPlan, job *model.JobQuote) (*excelize.File, error) {
	if plan == nil && job == nil {
		return nil, fmt.Errorf("nothing to export")
	}

	f := excelize.NewFile()
	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	summaryStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create summary style: %w", err)
	}

	first := true
	sheetName := func(name string) string {
		if first {
			f.SetSheetName("Sheet1", name)
			first = false
		} else {
			f.NewSheet(name)
		}
		return name
	}

	if plan != nil {
		writePlanSheet(f, sheetName(planSheet), *plan, boldStyle, summaryStyle)
	}
	if job != nil {
		writeQuoteSheet(f, sheetName(quoteSheet), *job, boldStyle, summaryStyle)
	}
	return f, nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

func setColWidths(f *excelize.File, sheet string, widths []float64) {
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
}

func writePlanSheet(f *excelize.File, sheet string, plan model.CuttingPlan, headerStyle, summaryStyle int) {
	writeHeaders(f, sheet, planHeaders, headerStyle)

	row := 2
	for _, stick := range plan.Sticks {
		for i, c := range stick.Cuts {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), stick.Index+1)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), i+1)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), c.Label)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), c.Length.Exact())
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), c.Length.Float64())
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), c.RequestID)
			row++
		}
	}

	row++
	summary := []struct {
		label string
		value interface{}
	}{
		{"Stock length", plan.StockLength.Exact()},
		{"Kerf", plan.Kerf.Exact()},
		{"Sticks", plan.TotalSticks},
		{"Pieces", plan.TotalPieces},
		{"Total cut length", plan.TotalCutLength.Exact()},
		{"Kerf loss", plan.TotalKerfLoss.Exact()},
		{"Waste", plan.TotalWaste.Exact()},
		{"Efficiency %", round1(plan.Efficiency)},
		{"Material efficiency %", round1(plan.MaterialEfficiency)},
	}
	for _, s := range summary {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), s.label)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), s.value)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), summaryStyle)
		row++
	}

	setColWidths(f, sheet, []float64{8, 6, 24, 12, 12, 12})
}

func writeQuoteSheet(f *excelize.File, sheet string, job model.JobQuote, headerStyle, summaryStyle int) {
	writeHeaders(f, sheet, quoteHeaders, headerStyle)

	row := 2
	for i, item := range job.Items {
		label := item.Label
		if label == "" {
			label = fmt.Sprintf("Item %d", i+1)
		}
		for _, line := range item.Lines {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), label)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), string(line.Name))
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), line.Detail)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), line.Amount.InexactFloat64())
			row++
		}
		if item.Discount.IsPositive() {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), label)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), "discount")
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Discount.Neg().InexactFloat64())
			row++
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), label)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), "per_unit")
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.PerUnitTotal.InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.Total.InexactFloat64())
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), summaryStyle)
		row++
	}

	row++
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Job total")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", row), job.Total.InexactFloat64())
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), summaryStyle)
	row++
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Quote price")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", row), job.QuotePrice.InexactFloat64())
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), summaryStyle)

	setColWidths(f, sheet, []float64{20, 16, 40, 12, 10, 12})
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
