package engine

import (
	"fmt"
	"sort"

	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
)

// Optimizer packs required piece lengths onto stock sticks.
type Optimizer struct {
	Settings model.CutSettings
}

func New(settings model.CutSettings) *Optimizer {
	return &Optimizer{Settings: settings}
}

// piece is one expanded unit of a CutRequest.
type piece struct {
	requestID string
	label     string
	length    measure.Measurement
}

// openStick is a stick being filled during packing.
type openStick struct {
	cuts      []model.Cut
	cutLength measure.Measurement
	remaining measure.Measurement
}

// need is the capacity a piece takes on s: the very first cut on a stick is
// free of kerf, every later cut pays one kerf.
func (s *openStick) need(length, kerf measure.Measurement) measure.Measurement {
	if len(s.cuts) == 0 {
		return length
	}
	return length.Add(kerf)
}

func (s *openStick) fits(length, kerf measure.Measurement) bool {
	return s.remaining.Cmp(s.need(length, kerf)) >= 0
}

func (s *openStick) place(p piece, kerf measure.Measurement) {
	s.remaining = s.remaining.Sub(s.need(p.length, kerf))
	s.cutLength = s.cutLength.Add(p.length)
	s.cuts = append(s.cuts, model.Cut{RequestID: p.requestID, Label: p.label, Length: p.length})
}

// placement picks the open stick for a piece, or -1 to open a new one.
type placement func(sticks []*openStick, length, kerf measure.Measurement) int

// firstFit scans sticks in creation order.
func firstFit(sticks []*openStick, length, kerf measure.Measurement) int {
	for i, s := range sticks {
		if s.fits(length, kerf) {
			return i
		}
	}
	return -1
}

// bestFit picks the stick left with the least capacity after the cut; ties go
// to the older stick.
func bestFit(sticks []*openStick, length, kerf measure.Measurement) int {
	best := -1
	var bestLeft measure.Measurement
	for i, s := range sticks {
		if !s.fits(length, kerf) {
			continue
		}
		left := s.remaining.Sub(s.need(length, kerf))
		if best < 0 || left.Cmp(bestLeft) < 0 {
			best = i
			bestLeft = left
		}
	}
	return best
}

// Optimize builds a cutting plan for the requests. Requests with a zero
// quantity or zero length are ignored. A piece that can never fit on the stock
// fails the whole batch with *model.InvalidCutError; nothing is dropped.
func (o *Optimizer) Optimize(requests []model.CutRequest) (model.CuttingPlan, error) {
	if err := o.checkSettings(); err != nil {
		return model.CuttingPlan{}, err
	}
	stock := o.Settings.StockLength
	kerf := o.Settings.Kerf

	pieces, err := expandRequests(requests, stock)
	if err != nil {
		return model.CuttingPlan{}, err
	}

	// Sort by length descending (largest first = better packing); stable so
	// equal lengths keep request order.
	sort.SliceStable(pieces, func(i, j int) bool {
		return pieces[i].length.Cmp(pieces[j].length) > 0
	})

	algorithm := o.Settings.Algorithm
	if algorithm == "" {
		algorithm = model.AlgorithmFirstFit
	}

	var sticks []*openStick
	switch algorithm {
	case model.AlgorithmBestFit:
		sticks = pack(pieces, stock, kerf, bestFit)
	case model.AlgorithmGenetic:
		order := searchOrder(pieces, stock, kerf, DefaultGeneticConfig(), geneticSeed)
		sticks = pack(order, stock, kerf, firstFit)
	default:
		sticks = pack(pieces, stock, kerf, firstFit)
	}

	return buildPlan(sticks, stock, kerf, algorithm), nil
}

func (o *Optimizer) checkSettings() error {
	if o.Settings.StockLength.Sign() <= 0 {
		return fmt.Errorf("stock length must be positive, got %s", o.Settings.StockLength.Exact())
	}
	if o.Settings.Kerf.Sign() < 0 {
		return fmt.Errorf("kerf must not be negative, got %s", o.Settings.Kerf.Exact())
	}
	if !o.Settings.Algorithm.Valid() {
		return fmt.Errorf("unknown algorithm %q", o.Settings.Algorithm)
	}
	return nil
}

// expandRequests flattens requests by quantity, carrying labels through.
func expandRequests(requests []model.CutRequest, stock measure.Measurement) ([]piece, error) {
	var pieces []piece
	for _, r := range requests {
		if r.Quantity <= 0 || r.Length.IsZero() {
			continue
		}
		if r.Length.Sign() < 0 {
			return nil, &model.InvalidCutError{
				Label: r.Label, Length: r.Length, StockLength: stock, Reason: "length must not be negative",
			}
		}
		if r.Length.Cmp(stock) > 0 {
			return nil, &model.InvalidCutError{
				Label: r.Label, Length: r.Length, StockLength: stock, Reason: "piece is longer than the stock",
			}
		}
		for i := 0; i < r.Quantity; i++ {
			pieces = append(pieces, piece{requestID: r.ID, label: r.Label, length: r.Length})
		}
	}
	return pieces, nil
}

// pack places pieces in the given order. Every piece fits on a fresh stick
// because expandRequests rejected anything longer than the stock.
func pack(pieces []piece, stock, kerf measure.Measurement, choose placement) []*openStick {
	var sticks []*openStick
	for _, p := range pieces {
		idx := choose(sticks, p.length, kerf)
		if idx < 0 {
			sticks = append(sticks, &openStick{remaining: stock})
			idx = len(sticks) - 1
		}
		sticks[idx].place(p, kerf)
	}
	return sticks
}

func buildPlan(sticks []*openStick, stock, kerf measure.Measurement, algorithm model.Algorithm) model.CuttingPlan {
	plan := model.CuttingPlan{
		StockLength: stock,
		Kerf:        kerf,
		Algorithm:   algorithm,
		Sticks:      make([]model.Stick, 0, len(sticks)),
	}
	for i, s := range sticks {
		kerfLoss := kerf.MulInt(int64(len(s.cuts) - 1))
		plan.Sticks = append(plan.Sticks, model.Stick{
			Index:     i,
			Cuts:      s.cuts,
			CutLength: s.cutLength,
			KerfLoss:  kerfLoss,
			Waste:     stock.Sub(s.cutLength).Sub(kerfLoss),
		})
	}
	plan.Summarize()
	return plan
}
