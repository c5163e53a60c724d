package model

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/GlassCut/internal/measure"
)

func TestCalculatePurchaseEstimateBasic(t *testing.T) {
	reqs := []CutRequest{
		{Label: "W1", Length: measure.MustParse("48 1/2"), Quantity: 4},
	}
	est := CalculatePurchaseEstimate(reqs, measure.FromInt(152), measure.FromFrac(1, 8), 10, decimal.RequireFromString("12.50"))

	// (48.5 + 0.125) x 4 = 194.5
	if !est.TotalLength.Equal(measure.MustParse("194.5")) {
		t.Errorf("expected total length 194 1/2, got %s", est.TotalLength.Exact())
	}
	if est.TotalPieces != 4 {
		t.Errorf("expected 4 pieces, got %d", est.TotalPieces)
	}
	if est.SticksNeededMin != 2 {
		t.Errorf("expected 2 sticks minimum, got %d", est.SticksNeededMin)
	}
	if est.SticksWithWaste != 2 {
		t.Errorf("expected 2 sticks with 10%% waste, got %d", est.SticksWithWaste)
	}
	if !est.EstimatedCost.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("expected cost 25.00, got %s", est.EstimatedCost)
	}
	if math.Abs(est.TotalLinearFeet-194.5/12.0) > 1e-9 {
		t.Errorf("expected %.4f linear feet, got %.4f", 194.5/12.0, est.TotalLinearFeet)
	}
}

func TestCalculatePurchaseEstimateZeroStock(t *testing.T) {
	reqs := []CutRequest{{Label: "P1", Length: measure.FromInt(10), Quantity: 1}}
	est := CalculatePurchaseEstimate(reqs, measure.Measurement{}, measure.Measurement{}, 10, decimal.Zero)
	if est.SticksNeededMin != 0 {
		t.Errorf("expected 0 sticks for zero stock length, got %d", est.SticksNeededMin)
	}
	if est.TotalLength.Sign() <= 0 {
		t.Error("expected positive total length even with zero stock")
	}
}

func TestCalculatePurchaseEstimateWasteFactorRoundsUp(t *testing.T) {
	// Exactly one stick of material; any waste factor needs a second stick.
	reqs := []CutRequest{{Label: "Full", Length: measure.FromInt(76), Quantity: 2}}
	est := CalculatePurchaseEstimate(reqs, measure.FromInt(152), measure.Measurement{}, 5, decimal.NewFromInt(30))
	if est.SticksNeededMin != 1 {
		t.Errorf("expected exactly 1 stick, got %d", est.SticksNeededMin)
	}
	if est.SticksWithWaste != 2 {
		t.Errorf("expected 2 sticks with waste, got %d", est.SticksWithWaste)
	}
	if !est.EstimatedCost.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected cost 60, got %s", est.EstimatedCost)
	}
}

func TestCalculatePurchaseEstimateSkipsEmptyRequests(t *testing.T) {
	reqs := []CutRequest{
		{Label: "none", Length: measure.FromInt(40), Quantity: 0},
		{Label: "zero", Length: measure.Measurement{}, Quantity: 3},
		{Label: "ok", Length: measure.FromInt(40), Quantity: 1},
	}
	est := CalculatePurchaseEstimate(reqs, measure.FromInt(152), measure.Measurement{}, 0, decimal.Zero)
	if est.TotalPieces != 1 {
		t.Errorf("expected 1 piece, got %d", est.TotalPieces)
	}
	if est.SticksWithWaste != 1 {
		t.Errorf("expected 1 stick, got %d", est.SticksWithWaste)
	}
}
