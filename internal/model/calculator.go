package model

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/GlassCut/internal/measure"
)

// PurchaseEstimate holds the results of a stick purchasing calculation. It is a
// quick upper bound for ordering; the optimizer gives the real stick count.
type PurchaseEstimate struct {
	TotalPieces       int                 `json:"total_pieces"`
	TotalLength       measure.Measurement `json:"total_length"`        // Sum of piece lengths plus one kerf per piece (inches)
	TotalLinearFeet   float64             `json:"total_linear_feet"`   // TotalLength / 12
	StockLength       measure.Measurement `json:"stock_length"`        // Length of one stick (inches)
	SticksNeededExact float64             `json:"sticks_needed_exact"` // Exact fractional number of sticks
	SticksNeededMin   int                 `json:"sticks_needed_min"`   // Ceiling of exact
	SticksWithWaste   int                 `json:"sticks_with_waste"`   // Recommended sticks including waste factor
	WastePercent      float64             `json:"waste_percent"`       // Waste factor applied (e.g., 10 for 10%)
	PricePerStick     decimal.Decimal     `json:"price_per_stick"`
	EstimatedCost     decimal.Decimal     `json:"estimated_cost"`
	Kerf              measure.Measurement `json:"kerf"`
}

// CalculatePurchaseEstimate computes how many sticks to buy for a cut list,
// allowing one kerf per piece and an extra waste percentage.
func CalculatePurchaseEstimate(requests []CutRequest, stockLength, kerf measure.Measurement, wastePercent float64, pricePerStick decimal.Decimal) PurchaseEstimate {
	var total measure.Measurement
	var pieces int
	for _, r := range requests {
		if r.Quantity <= 0 || r.Length.Sign() <= 0 {
			continue
		}
		total = total.Add(r.Length.Add(kerf).MulInt(int64(r.Quantity)))
		pieces += r.Quantity
	}

	est := PurchaseEstimate{
		TotalPieces:     pieces,
		TotalLength:     total,
		TotalLinearFeet: measure.ToDecimal(total) / 12.0,
		StockLength:     stockLength,
		WastePercent:    wastePercent,
		PricePerStick:   pricePerStick,
		EstimatedCost:   decimal.Zero,
		Kerf:            kerf,
	}
	if stockLength.Sign() <= 0 {
		return est
	}

	exact := measure.ToDecimal(total) / measure.ToDecimal(stockLength)
	minSticks := int(math.Ceil(exact))

	wasteFactor := 1.0 + (wastePercent / 100.0)
	withWaste := int(math.Ceil(exact * wasteFactor))
	if withWaste < minSticks {
		withWaste = minSticks
	}

	est.SticksNeededExact = exact
	est.SticksNeededMin = minSticks
	est.SticksWithWaste = withWaste
	est.EstimatedCost = pricePerStick.Mul(decimal.NewFromInt(int64(withWaste))).Round(2)
	return est
}
