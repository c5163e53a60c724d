package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
)

func TestBuildDefaultScenarios(t *testing.T) {
	scenarios := BuildDefaultScenarios(defaultTestSettings())

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"Current Settings",
		"Algorithm best-fit",
		"Algorithm genetic",
		"Kerf 1/16\" (half)",
		"Stock 192\" (16')",
	}, names)
	assert.Equal(t, "1/16", scenarios[3].Settings.Kerf.Exact())
	assert.Equal(t, "192", scenarios[4].Settings.StockLength.Exact())
}

func TestBuildDefaultScenariosNoKerfLongStock(t *testing.T) {
	s := defaultTestSettings()
	s.Kerf = measure.Measurement{}
	s.StockLength = measure.FromInt(240)
	s.Algorithm = model.AlgorithmBestFit

	scenarios := BuildDefaultScenarios(s)
	require.Len(t, scenarios, 3)
	assert.Equal(t, model.AlgorithmFirstFit, scenarios[1].Settings.Algorithm)
	assert.Equal(t, model.AlgorithmGenetic, scenarios[2].Settings.Algorithm)
}

func TestCompareScenarios(t *testing.T) {
	reqs := scenarioRequests()
	results := CompareScenarios(BuildDefaultScenarios(defaultTestSettings()), reqs)
	require.Len(t, results, 5)

	for _, r := range results {
		require.NoError(t, r.Err, r.Scenario.Name)
		assert.Equal(t, 12, r.TotalCuts, r.Scenario.Name)
		assert.Equal(t, r.Plan.TotalSticks, r.SticksUsed)
	}
	assert.Equal(t, 4, results[0].SticksUsed)

	// 16' sticks need fewer bars for the same 508".
	assert.Equal(t, 3, results[4].SticksUsed)
	assert.Equal(t, 4, BestScenario(results))
}

func TestCompareScenariosReportsFailures(t *testing.T) {
	short := defaultTestSettings()
	short.StockLength = measure.FromInt(40)
	scenarios := []ComparisonScenario{
		{Name: "short", Settings: short},
		{Name: "normal", Settings: defaultTestSettings()},
	}
	results := CompareScenarios(scenarios, scenarioRequests())
	require.Len(t, results, 2)

	assert.ErrorIs(t, results[0].Err, model.ErrInvalidCut)
	assert.NotEmpty(t, results[0].Error)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, 1, BestScenario(results))

	assert.Equal(t, -1, BestScenario(results[:1]))
}

func TestSpacerRequests(t *testing.T) {
	windows := []model.Window{
		{Label: "W1", Width: measure.MustParse("24 1/2"), Height: measure.FromInt(36), Quantity: 2},
		{Label: "skip", Width: measure.FromInt(10), Height: measure.FromInt(10), Quantity: 0},
	}

	frames := SpacerRequests(windows)
	require.Len(t, frames, 1)
	assert.Equal(t, "W1", frames[0].Label)
	assert.Equal(t, "121", frames[0].Length.Exact())
	assert.Equal(t, 2, frames[0].Quantity)

	sides := SpacerSideRequests(windows)
	require.Len(t, sides, 2)
	assert.Equal(t, "W1 width", sides[0].Label)
	assert.Equal(t, "24 1/2", sides[0].Length.Exact())
	assert.Equal(t, 4, sides[0].Quantity)
	assert.Equal(t, "36", sides[1].Length.Exact())

	plan, err := New(defaultTestSettings()).Optimize(frames)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.TotalSticks)
}
