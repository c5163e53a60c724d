package model

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/piwi3910/GlassCut/internal/measure"
)

// Offcut is a stick remnant long enough to keep on the rack for a later job.
type Offcut struct {
	ID         string              `json:"id"`
	StockLabel string              `json:"stock_label"` // Which stock it came from
	StickIndex int                 `json:"stick_index"` // Index of the source stick in the plan
	Length     measure.Measurement `json:"length"`      // Usable length (inches)
	Value      decimal.Decimal     `json:"value"`       // Share of the stick price by length (0 if not set)
}

// MinOffcutLength is the shortest remnant (in inches) worth keeping.
// Anything shorter is scrap.
var MinOffcutLength = measure.FromInt(12)

// DetectOffcuts returns the remnant of one stick when it is at least minLength.
// The last kerf is taken off the remnant when the stick has cuts, since the
// remnant has to be cut free.
func DetectOffcuts(s Stick, stockLabel string, stockLength, kerf, minLength measure.Measurement, pricePerStick decimal.Decimal) []Offcut {
	remnant := s.Waste
	if len(s.Cuts) > 0 && remnant.Sign() > 0 {
		remnant = remnant.Sub(kerf)
	}
	if remnant.Sign() <= 0 || remnant.Cmp(minLength) < 0 {
		return nil
	}

	o := Offcut{
		ID:         uuid.New().String()[:8],
		StockLabel: stockLabel,
		StickIndex: s.Index,
		Length:     remnant,
		Value:      decimal.Zero,
	}
	if pricePerStick.IsPositive() && stockLength.Sign() > 0 {
		share := decimal.NewFromFloat(measure.ToDecimal(remnant) / measure.ToDecimal(stockLength))
		o.Value = pricePerStick.Mul(share).Round(2)
	}
	return []Offcut{o}
}

// DetectAllOffcuts finds offcuts across every stick in a plan, longest first.
func DetectAllOffcuts(plan CuttingPlan, stockLabel string, minLength measure.Measurement, pricePerStick decimal.Decimal) []Offcut {
	var all []Offcut
	for _, s := range plan.Sticks {
		all = append(all, DetectOffcuts(s, stockLabel, plan.StockLength, plan.Kerf, minLength, pricePerStick)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Length.Cmp(all[j].Length) > 0
	})
	return all
}

// TotalOffcutLength returns the combined length of all offcuts in inches.
func TotalOffcutLength(offcuts []Offcut) measure.Measurement {
	var total measure.Measurement
	for _, o := range offcuts {
		total = total.Add(o.Length)
	}
	return total
}
