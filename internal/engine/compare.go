package engine

import (
	"fmt"

	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string            `json:"name"`
	Settings model.CutSettings `json:"settings"`
}

// ComparisonResult holds the plan and headline numbers for one scenario.
// Err is set instead of Plan when the scenario cannot be planned, for example
// when a piece is longer than that scenario's stock.
type ComparisonResult struct {
	Scenario     ComparisonScenario  `json:"scenario"`
	Plan         model.CuttingPlan   `json:"plan"`
	SticksUsed   int                 `json:"sticks_used"`
	TotalCuts    int                 `json:"total_cuts"`
	TotalWaste   measure.Measurement `json:"total_waste"`
	WastePercent float64             `json:"waste_percent"`
	Err          error               `json:"-"`
	Error        string              `json:"error,omitempty"`
}

// CompareScenarios runs optimization for each scenario and returns the results
// in scenario order. This enables side-by-side comparison of algorithms, kerf
// widths and stock lengths.
func CompareScenarios(scenarios []ComparisonScenario, requests []model.CutRequest) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		plan, err := New(scenario.Settings).Optimize(requests)
		if err != nil {
			results = append(results, ComparisonResult{Scenario: scenario, Err: err, Error: err.Error()})
			continue
		}

		results = append(results, ComparisonResult{
			Scenario:     scenario,
			Plan:         plan,
			SticksUsed:   plan.TotalSticks,
			TotalCuts:    plan.TotalPieces,
			TotalWaste:   plan.TotalWaste,
			WastePercent: plan.WastePercent(),
		})
	}

	return results
}

// BestScenario returns the index of the successful result using the fewest
// sticks, then the least waste. It returns -1 when every scenario failed.
func BestScenario(results []ComparisonResult) int {
	best := -1
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		if best < 0 ||
			r.SticksUsed < results[best].SticksUsed ||
			(r.SticksUsed == results[best].SticksUsed && r.TotalWaste.Cmp(results[best].TotalWaste) < 0) {
			best = i
		}
	}
	return best
}

// standardStick is the 16' bar most spacer suppliers also sell.
var standardStick = measure.FromInt(192)

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(baseSettings model.CutSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: baseSettings,
		},
	}

	// Scenario: Try the other placement strategies
	for _, algo := range model.Algorithms {
		current := baseSettings.Algorithm
		if current == "" {
			current = model.AlgorithmFirstFit
		}
		if algo == current {
			continue
		}
		alt := baseSettings
		alt.Algorithm = algo
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Algorithm %s", algo),
			Settings: alt,
		})
	}

	// Scenario: Thinner blade
	if baseSettings.Kerf.Sign() > 0 {
		half := baseSettings
		half.Kerf = baseSettings.Kerf.Mul(measure.FromFrac(1, 2))
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Kerf %s\" (half)", half.Kerf.Exact()),
			Settings: half,
		})
	}

	// Scenario: Longer stock
	if baseSettings.StockLength.Cmp(standardStick) < 0 {
		long := baseSettings
		long.StockLength = standardStick
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Stock 192\" (16')",
			Settings: long,
		})
	}

	return scenarios
}
