package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/piwi3910/GlassCut/internal/measure"
)

// CutRequest is one required piece length, tagged with the window or job it
// belongs to.
type CutRequest struct {
	ID       string              `json:"id" yaml:"id"`
	Label    string              `json:"label" yaml:"label"`
	Length   measure.Measurement `json:"length" yaml:"length"`
	Quantity int                 `json:"quantity" yaml:"quantity"`
}

func NewCutRequest(label string, length measure.Measurement, qty int) CutRequest {
	return CutRequest{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Length:   length,
		Quantity: qty,
	}
}

// Algorithm selects the stick placement strategy.
type Algorithm string

const (
	AlgorithmFirstFit Algorithm = "first-fit" // First-Fit-Decreasing (default)
	AlgorithmBestFit  Algorithm = "best-fit"  // Best-Fit-Decreasing: tightest remaining stick
	AlgorithmGenetic  Algorithm = "genetic"   // Order search decoded by first fit, seeded with FFD
)

// Algorithms lists the accepted Algorithm values.
var Algorithms = []Algorithm{AlgorithmFirstFit, AlgorithmBestFit, AlgorithmGenetic}

// Valid reports whether a is a known algorithm. The empty value means first fit.
func (a Algorithm) Valid() bool {
	if a == "" {
		return true
	}
	for _, known := range Algorithms {
		if a == known {
			return true
		}
	}
	return false
}

// CutSettings holds the stock and blade parameters for an optimization run.
type CutSettings struct {
	Algorithm   Algorithm           `json:"algorithm" yaml:"algorithm"`
	StockLength measure.Measurement `json:"stock_length" yaml:"stock_length"` // inches
	Kerf        measure.Measurement `json:"kerf" yaml:"kerf"`                 // blade width in inches
	StockLabel  string              `json:"stock_label,omitempty" yaml:"stock_label,omitempty"`
}

func DefaultSettings() CutSettings {
	return CutSettings{
		Algorithm:   AlgorithmFirstFit,
		StockLength: measure.FromInt(152),
		Kerf:        measure.FromFrac(1, 8),
		StockLabel:  "Spacer bar",
	}
}

// Cut is a single piece assigned to a stick.
type Cut struct {
	RequestID string              `json:"request_id"`
	Label     string              `json:"label"`
	Length    measure.Measurement `json:"length"`
}

// Stick is one length of stock with the cuts assigned to it, in cutting order.
// CutLength + KerfLoss + Waste always equals the stock length.
type Stick struct {
	Index     int                 `json:"index"`
	Cuts      []Cut               `json:"cuts"`
	CutLength measure.Measurement `json:"cut_length"`
	KerfLoss  measure.Measurement `json:"kerf_loss"`
	Waste     measure.Measurement `json:"waste"`
}

// Efficiency returns the share of the stock turned into pieces, in percent.
func (s Stick) Efficiency(stockLength measure.Measurement) float64 {
	if stockLength.Sign() <= 0 {
		return 0
	}
	return measure.ToDecimal(s.CutLength) / measure.ToDecimal(stockLength) * 100.0
}

// CuttingPlan is the optimizer output.
//
// Efficiency counts kerf as consumed material: (stock − waste) / stock.
// MaterialEfficiency counts only the pieces themselves: cuts / stock.
type CuttingPlan struct {
	StockLength        measure.Measurement `json:"stock_length"`
	Kerf               measure.Measurement `json:"kerf"`
	Algorithm          Algorithm           `json:"algorithm"`
	Sticks             []Stick             `json:"sticks"`
	TotalSticks        int                 `json:"total_sticks"`
	TotalPieces        int                 `json:"total_pieces"`
	TotalStock         measure.Measurement `json:"total_stock"`
	TotalCutLength     measure.Measurement `json:"total_cut_length"`
	TotalKerfLoss      measure.Measurement `json:"total_kerf_loss"`
	TotalWaste         measure.Measurement `json:"total_waste"`
	Efficiency         float64             `json:"efficiency"`
	MaterialEfficiency float64             `json:"material_efficiency"`
}

// Summarize recomputes the aggregate fields from Sticks.
func (p *CuttingPlan) Summarize() {
	p.TotalSticks = len(p.Sticks)
	p.TotalPieces = 0
	p.TotalCutLength = measure.Measurement{}
	p.TotalKerfLoss = measure.Measurement{}
	p.TotalWaste = measure.Measurement{}
	for _, s := range p.Sticks {
		p.TotalPieces += len(s.Cuts)
		p.TotalCutLength = p.TotalCutLength.Add(s.CutLength)
		p.TotalKerfLoss = p.TotalKerfLoss.Add(s.KerfLoss)
		p.TotalWaste = p.TotalWaste.Add(s.Waste)
	}
	p.TotalStock = p.StockLength.MulInt(int64(p.TotalSticks))

	p.Efficiency = 0
	p.MaterialEfficiency = 0
	if p.TotalStock.Sign() > 0 {
		total := measure.ToDecimal(p.TotalStock)
		p.Efficiency = measure.ToDecimal(p.TotalStock.Sub(p.TotalWaste)) / total * 100.0
		p.MaterialEfficiency = measure.ToDecimal(p.TotalCutLength) / total * 100.0
	}
}

// WastePercent is 100 minus Efficiency.
func (p CuttingPlan) WastePercent() float64 {
	if p.TotalSticks == 0 {
		return 0
	}
	return 100.0 - p.Efficiency
}

// MaterialCost prices the sticks consumed by the plan.
func (p CuttingPlan) MaterialCost(pricePerStick decimal.Decimal) decimal.Decimal {
	return pricePerStick.Mul(decimal.NewFromInt(int64(p.TotalSticks))).Round(2)
}

// Project ties a batch of windows, cut requests and glass items together for
// save/load.
type Project struct {
	Name     string          `json:"name" yaml:"name"`
	Windows  []Window        `json:"windows,omitempty" yaml:"windows,omitempty"`
	Requests []CutRequest    `json:"requests,omitempty" yaml:"requests,omitempty"`
	Items    []GlassItemSpec `json:"items,omitempty" yaml:"items,omitempty"`
	Settings CutSettings     `json:"settings" yaml:"settings"`
	Plan     *CuttingPlan    `json:"plan,omitempty" yaml:"-"`
}

func NewProject() Project {
	return Project{
		Name:     "Untitled",
		Settings: DefaultSettings(),
	}
}
