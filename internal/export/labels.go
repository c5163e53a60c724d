package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/GlassCut/internal/model"
)

// LabelInfo is what each piece's QR code carries. Scanning it at the
// assembly bench tells which window a spacer frame belongs to.
type LabelInfo struct {
	Label     string `json:"label"`
	Length    string `json:"length"` // exact, e.g. "48 1/2"
	Stick     int    `json:"stick"`  // 1-based
	Position  int    `json:"pos"`    // 1-based cutting order on the stick
	RequestID string `json:"request_id,omitempty"`
}

// LabelSheet describes a sheet of adhesive labels, in millimetres.
type LabelSheet struct {
	Name       string
	PageSize   string // fpdf page size name
	MarginTop  float64
	MarginLeft float64
	Width      float64
	Height     float64
	GapX       float64
	Cols       int
	Rows       int
}

// Avery5160 is the common 30-up address label sheet on US Letter.
var Avery5160 = LabelSheet{
	Name:       "Avery 5160",
	PageSize:   "Letter",
	MarginTop:  12.7,
	MarginLeft: 4.8,
	Width:      66.7,
	Height:     25.4,
	GapX:       3.2,
	Cols:       3,
	Rows:       10,
}

func (s LabelSheet) perPage() int { return s.Cols * s.Rows }

// origin returns the top-left corner of the n-th label on its page.
func (s LabelSheet) origin(n int) (float64, float64) {
	n %= s.perPage()
	col, row := n%s.Cols, n/s.Cols
	return s.MarginLeft + float64(col)*(s.Width+s.GapX), s.MarginTop + float64(row)*s.Height
}

const (
	qrSide   = 20.0
	labelPad = 2.0
)

// ExportLabels writes one QR-coded label per cut piece on Avery 5160 sheets,
// in stick and cutting order so labels peel off as pieces come off the saw.
func ExportLabels(path string, plan model.CuttingPlan) error {
	return ExportLabelsOn(path, plan, Avery5160)
}

// ExportLabelsOn is ExportLabels for another label sheet.
func ExportLabelsOn(path string, plan model.CuttingPlan, sheet LabelSheet) error {
	if sheet.perPage() <= 0 || sheet.Width <= qrSide+2*labelPad {
		return fmt.Errorf("label sheet %q is too small", sheet.Name)
	}
	if len(plan.Sticks) == 0 {
		return fmt.Errorf("no sticks to generate labels for")
	}
	infos := CollectLabelInfos(plan)
	if len(infos) == 0 {
		return fmt.Errorf("no cuts to generate labels for")
	}

	pdf := fpdf.New("P", "mm", sheet.PageSize, "")
	pdf.SetAutoPageBreak(false, 0)
	for i, info := range infos {
		if i%sheet.perPage() == 0 {
			pdf.AddPage()
		}
		x, y := sheet.origin(i)
		if err := drawPieceLabel(pdf, sheet, x, y, info); err != nil {
			return fmt.Errorf("label for %q: %w", info.Label, err)
		}
	}
	return pdf.OutputFileAndClose(path)
}

func drawPieceLabel(pdf *fpdf.Fpdf, sheet LabelSheet, x, y float64, info LabelInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return err
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to encode QR code: %w", err)
	}
	name := fmt.Sprintf("qr_%d_%d", info.Stick, info.Position)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))

	// faint outline to trim against when printing on plain paper
	pdf.SetDrawColor(210, 210, 210)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, sheet.Width, sheet.Height, "D")

	pdf.ImageOptions(name, x+sheet.Width-qrSide-labelPad, y+(sheet.Height-qrSide)/2, qrSide, qrSide, false, opts, 0, "")

	textW := sheet.Width - qrSide - 3*labelPad
	left := x + labelPad

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(left, y+labelPad)
	pdf.CellFormat(textW, 6, info.Length+`"`, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(left, y+labelPad+7)
	pdf.CellFormat(textW, 4, fitText(pdf, info.Label, textW), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(110, 110, 110)
	pdf.SetXY(left, y+sheet.Height-labelPad-3)
	pdf.CellFormat(textW, 3, fmt.Sprintf("stick %d / cut %d", info.Stick, info.Position), "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	return nil
}

// fitText trims s and appends an ellipsis until it is at most w wide in the
// current font.
func fitText(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > w {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// CollectLabelInfos lists one label per cut, in stick then cutting order.
func CollectLabelInfos(plan model.CuttingPlan) []LabelInfo {
	var infos []LabelInfo
	for _, stick := range plan.Sticks {
		for i, c := range stick.Cuts {
			infos = append(infos, LabelInfo{
				Label:     c.Label,
				Length:    c.Length.Exact(),
				Stick:     stick.Index + 1,
				Position:  i + 1,
				RequestID: c.RequestID,
			})
		}
	}
	return infos
}
