package model

import (
	"math"

	"github.com/piwi3910/GlassCut/internal/measure"
)

// SpacerSummary holds the spacer bar requirements for a list of windows.
type SpacerSummary struct {
	TotalLength      measure.Measurement `json:"total_length"`        // Total spacer in inches (no waste)
	TotalLinearFeet  float64             `json:"total_linear_feet"`   // Total spacer in feet (no waste)
	WastePercent     float64             `json:"waste_percent"`       // Waste percentage applied
	TotalWithWasteIn float64             `json:"total_with_waste_in"` // Total with waste, rounded up to the inch
	TotalWithWasteFt float64             `json:"total_with_waste_ft"` // Total with waste in feet
	WindowCount      int                 `json:"window_count"`        // Number of individual windows framed
	CornerCount      int                 `json:"corner_count"`        // Spacer corners (4 per frame)
}

// CalculateSpacer computes the total spacer bar needed to frame every window.
// wastePercent is the additional percentage to add for waste (e.g., 10 for 10%).
func CalculateSpacer(windows []Window, wastePercent float64) SpacerSummary {
	var total measure.Measurement
	var count int

	for _, w := range windows {
		if w.Quantity <= 0 || w.Width.Sign() <= 0 || w.Height.Sign() <= 0 {
			continue
		}
		total = total.Add(SpacerLength(w.Width, w.Height).MulInt(int64(w.Quantity)))
		count += w.Quantity
	}

	wasteFactor := 1.0 + (wastePercent / 100.0)
	withWaste := math.Ceil(measure.ToDecimal(total) * wasteFactor)

	return SpacerSummary{
		TotalLength:      total,
		TotalLinearFeet:  measure.ToDecimal(total) / 12.0,
		WastePercent:     wastePercent,
		TotalWithWasteIn: withWaste,
		TotalWithWasteFt: withWaste / 12.0,
		WindowCount:      count,
		CornerCount:      count * 4,
	}
}

// PerWindowSpacer is one row of the per-window spacer and pane breakdown.
type PerWindowSpacer struct {
	Label         string              `json:"label"`
	Width         measure.Measurement `json:"width"`
	Height        measure.Measurement `json:"height"`
	Quantity      int                 `json:"quantity"`
	PaneWidth     measure.Measurement `json:"pane_width"`
	PaneHeight    measure.Measurement `json:"pane_height"`
	LengthPerUnit measure.Measurement `json:"length_per_unit"`
	TotalLength   measure.Measurement `json:"total_length"`
}

// CalculatePerWindowSpacer returns spacer length and pane size per window.
// Pane size is the window less spacerThickness on every side.
func CalculatePerWindowSpacer(windows []Window, spacerThickness measure.Measurement) ([]PerWindowSpacer, error) {
	var results []PerWindowSpacer
	for _, w := range windows {
		if w.Quantity <= 0 {
			continue
		}
		pw, ph, err := PaneDimensions(w.Width, w.Height, spacerThickness)
		if err != nil {
			return nil, err
		}
		perUnit := SpacerLength(w.Width, w.Height)
		results = append(results, PerWindowSpacer{
			Label:         w.Label,
			Width:         w.Width,
			Height:        w.Height,
			Quantity:      w.Quantity,
			PaneWidth:     pw,
			PaneHeight:    ph,
			LengthPerUnit: perUnit,
			TotalLength:   perUnit.MulInt(int64(w.Quantity)),
		})
	}
	return results, nil
}
