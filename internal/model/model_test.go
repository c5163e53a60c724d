package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/GlassCut/internal/measure"
)

func TestNewCutRequest(t *testing.T) {
	r := NewCutRequest("W1", measure.MustParse("48 1/2"), 4)
	assert.Len(t, r.ID, 8)
	assert.Equal(t, "W1", r.Label)
	assert.Equal(t, 4, r.Quantity)
	assert.True(t, r.Length.Equal(measure.FromFrac(97, 2)))

	other := NewCutRequest("W1", measure.MustParse("48 1/2"), 4)
	assert.NotEqual(t, r.ID, other.ID)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, AlgorithmFirstFit, s.Algorithm)
	assert.Equal(t, "152", s.StockLength.Exact())
	assert.Equal(t, "1/8", s.Kerf.Exact())
}

func TestCuttingPlanSummarize(t *testing.T) {
	plan := CuttingPlan{
		StockLength: measure.FromInt(100),
		Kerf:        measure.FromFrac(1, 8),
		Sticks: []Stick{
			{
				Cuts:      []Cut{{Length: measure.FromInt(60)}, {Length: measure.FromInt(30)}},
				CutLength: measure.FromInt(90),
				KerfLoss:  measure.FromFrac(1, 8),
				Waste:     measure.MustParse("9 7/8"),
			},
			{
				Cuts:      []Cut{{Length: measure.FromInt(50)}},
				CutLength: measure.FromInt(50),
				Waste:     measure.FromInt(50),
			},
		},
	}
	plan.Summarize()

	assert.Equal(t, 2, plan.TotalSticks)
	assert.Equal(t, 3, plan.TotalPieces)
	assert.Equal(t, "200", plan.TotalStock.Exact())
	assert.Equal(t, "140", plan.TotalCutLength.Exact())
	assert.Equal(t, "1/8", plan.TotalKerfLoss.Exact())
	assert.Equal(t, "59 7/8", plan.TotalWaste.Exact())
	assert.InDelta(t, (200-59.875)/200*100, plan.Efficiency, 1e-9)
	assert.InDelta(t, 70.0, plan.MaterialEfficiency, 1e-9)
	assert.InDelta(t, 100-plan.Efficiency, plan.WastePercent(), 1e-9)
	assert.InDelta(t, 90.0, plan.Sticks[0].Efficiency(plan.StockLength), 1e-9)
}

func TestCuttingPlanEmpty(t *testing.T) {
	var plan CuttingPlan
	plan.Summarize()
	assert.Equal(t, 0, plan.TotalSticks)
	assert.Equal(t, 0.0, plan.Efficiency)
	assert.Equal(t, 0.0, plan.WastePercent())
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     string
	}{
		{"parse", &ParseError{Input: "x", Reason: "bad"}, ErrParse, CodeParseError},
		{"config", &ConfigMissingError{Thickness: `1/4"`, GlassType: "clear"}, ErrConfigMissing, CodeConfigMissing},
		{"spec", &InvalidSpecError{Field: "width", Value: "-1", Reason: "must be positive"}, ErrInvalidSpec, CodeInvalidSpec},
		{"cut", &InvalidCutError{Label: "W1", Length: measure.FromInt(200), StockLength: measure.FromInt(152), Reason: "longer than stock"}, ErrInvalidCut, CodeInvalidCut},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := errors.Join(errors.New("context"), tt.err)
			assert.True(t, errors.Is(wrapped, tt.sentinel))
			assert.Equal(t, tt.code, ErrorCode(wrapped))
		})
	}
	assert.Equal(t, "", ErrorCode(errors.New("plain")))
}

func TestConfigMissingErrorMessages(t *testing.T) {
	assert.Contains(t, (&ConfigMissingError{Thickness: `1/4"`, GlassType: "clear"}).Error(), `glass type "clear"`)
	assert.Contains(t, (&ConfigMissingError{Key: "shape"}).Error(), `key "shape"`)
	assert.Contains(t, (&ConfigMissingError{Thickness: `1/8"`, Key: "beveled"}).Error(), `no beveled rate configured for thickness 1/8"`)
}

func TestInvalidCutErrorNamesPiece(t *testing.T) {
	err := &InvalidCutError{Label: "Kitchen", Length: measure.FromInt(160), StockLength: measure.FromInt(152), Reason: "longer than stock"}
	assert.Contains(t, err.Error(), `"Kitchen"`)
	assert.Contains(t, err.Error(), "160")
}

func TestSpacerLengthAndPerimeter(t *testing.T) {
	w := measure.MustParse("24 1/2")
	h := measure.MustParse("36 1/4")
	assert.Equal(t, "121 1/2", SpacerLength(w, h).Exact())
	assert.True(t, SpacerLength(w, h).Equal(RectPerimeter(w, h)))
}

func TestPaneDimensions(t *testing.T) {
	w, h, err := PaneDimensions(measure.FromInt(24), measure.FromInt(36), measure.FromFrac(1, 2))
	require.NoError(t, err)
	assert.Equal(t, "23", w.Exact())
	assert.Equal(t, "35", h.Exact())

	_, _, err = PaneDimensions(measure.FromInt(1), measure.FromInt(36), measure.FromFrac(1, 2))
	var se *InvalidSpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "width", se.Field)

	_, _, err = PaneDimensions(measure.FromInt(24), measure.FromInt(36), measure.FromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestCalculateSpacer(t *testing.T) {
	windows := []Window{
		{Label: "A", Width: measure.FromInt(24), Height: measure.FromInt(36), Quantity: 2},
		{Label: "B", Width: measure.MustParse("30 1/2"), Height: measure.FromInt(48), Quantity: 1},
		{Label: "skip", Width: measure.FromInt(10), Height: measure.FromInt(10), Quantity: 0},
	}
	sum := CalculateSpacer(windows, 10)
	// A: 120 x 2 = 240, B: 157
	assert.Equal(t, "397", sum.TotalLength.Exact())
	assert.Equal(t, 3, sum.WindowCount)
	assert.Equal(t, 12, sum.CornerCount)
	assert.InDelta(t, 437.0, sum.TotalWithWasteIn, 1e-9) // ceil(436.7)

	rows, err := CalculatePerWindowSpacer(windows, measure.FromFrac(1, 2))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "240", rows[0].TotalLength.Exact())
	assert.Equal(t, "29 1/2", rows[1].PaneWidth.Exact())
}

func TestNormalizeThickness(t *testing.T) {
	assert.Equal(t, NormalizeThickness(`1/4"`), NormalizeThickness("0.25"))
	assert.Equal(t, NormalizeThickness("1/4"), NormalizeThickness(" 1/4 in"))
	assert.Equal(t, "laminated", NormalizeThickness(" Laminated "))
}

func TestPricingConfigLookups(t *testing.T) {
	cfg := DefaultPricingConfig()
	require.NoError(t, cfg.Validate())

	r, err := cfg.Rate("1/4", GlassClear)
	require.NoError(t, err)
	assert.True(t, r.BaseRate.Equal(decimal.RequireFromString("12.50")))

	_, err = cfg.Rate(`5/8"`, GlassClear)
	var cm *ConfigMissingError
	require.True(t, errors.As(err, &cm))
	assert.Equal(t, `5/8"`, cm.Thickness)
	assert.Equal(t, "clear", cm.GlassType)

	_, err = cfg.Markup("rush")
	require.True(t, errors.As(err, &cm))
	assert.Equal(t, "rush", cm.Key)

	bevel, err := cfg.BeveledRate("0.25")
	require.NoError(t, err)
	assert.True(t, bevel.Equal(decimal.RequireFromString("1.25")))

	clip, err := cfg.ClipRate(`1/4"`, ClipOver1)
	require.NoError(t, err)
	assert.True(t, clip.Equal(decimal.RequireFromString("6.50")))

	_, err = cfg.ClipRate(`5/8"`, ClipOver1)
	assert.ErrorIs(t, err, ErrConfigMissing)

	assert.True(t, cfg.IsThinnest("1/8"))
	assert.False(t, cfg.IsThinnest(`1/4"`))
}

func TestPricingConfigValidate(t *testing.T) {
	t.Run("missing markup", func(t *testing.T) {
		cfg := DefaultPricingConfig()
		delete(cfg.Markups, MarkupShape)
		assert.ErrorIs(t, cfg.Validate(), ErrConfigMissing)
	})
	t.Run("zero divisor", func(t *testing.T) {
		cfg := DefaultPricingConfig()
		cfg.MarginDivisor = decimal.Zero
		assert.Error(t, cfg.Validate())
	})
	t.Run("duplicate rate", func(t *testing.T) {
		cfg := DefaultPricingConfig()
		cfg.Rates = append(cfg.Rates, GlassRate{Thickness: "0.25", GlassType: GlassClear, BaseRate: decimal.NewFromInt(1)})
		assert.ErrorContains(t, cfg.Validate(), "duplicate")
	})
	t.Run("no rates", func(t *testing.T) {
		assert.Error(t, PricingConfig{}.Validate())
	})
	t.Run("bad clip bucket", func(t *testing.T) {
		cfg := DefaultPricingConfig()
		cfg.ClippedCornerRates[`1/4"`]["huge"] = decimal.NewFromInt(1)
		assert.ErrorContains(t, cfg.Validate(), "huge")
	})
}

func TestPricingConfigWithDefaults(t *testing.T) {
	cfg := PricingConfig{}.WithDefaults()
	assert.True(t, cfg.MinimumSqFt.IsZero())
	assert.True(t, cfg.ContractorDiscount.IsZero())
	assert.True(t, cfg.MarginDivisor.Equal(decimal.RequireFromString("0.28")))
	assert.Equal(t, `1/8"`, cfg.ThinnestThickness)

	custom := PricingConfig{MarginDivisor: decimal.RequireFromString("0.4")}.WithDefaults()
	assert.True(t, custom.MarginDivisor.Equal(decimal.RequireFromString("0.4")))
}

func TestPricingConfigDecodeKeepsExplicitZero(t *testing.T) {
	var absent PricingConfig
	require.NoError(t, json.Unmarshal([]byte(`{"rates": []}`), &absent))
	assert.True(t, absent.MinimumSqFt.Equal(DefaultMinimumSqFt))
	assert.True(t, absent.ContractorDiscount.Equal(DefaultContractorDiscount))
	assert.True(t, absent.MarginDivisor.Equal(DefaultMarginDivisor))

	var zeroJSON PricingConfig
	require.NoError(t, json.Unmarshal([]byte(`{"minimum_sq_ft": "0", "contractor_discount": 0}`), &zeroJSON))
	assert.True(t, zeroJSON.MinimumSqFt.IsZero())
	assert.True(t, zeroJSON.ContractorDiscount.IsZero())

	var zeroYAML PricingConfig
	require.NoError(t, yaml.Unmarshal([]byte("minimum_sq_ft: 0\ncontractor_discount: 0\n"), &zeroYAML))
	assert.True(t, zeroYAML.MinimumSqFt.IsZero())
	assert.True(t, zeroYAML.ContractorDiscount.IsZero())
	assert.True(t, zeroYAML.MarginDivisor.Equal(DefaultMarginDivisor))
}

func TestPricingConfigJSONAndYAML(t *testing.T) {
	cfg := DefaultPricingConfig()

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	var fromJSON PricingConfig
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Len(t, fromJSON.Rates, len(cfg.Rates))
	assert.True(t, fromJSON.MarginDivisor.Equal(cfg.MarginDivisor))
	assert.True(t, fromJSON.ClippedCornerRates[`1/4"`][ClipUnder1].Equal(decimal.NewFromInt(4)))

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	var fromYAML PricingConfig
	require.NoError(t, yaml.Unmarshal(out, &fromYAML))
	assert.Len(t, fromYAML.Rates, len(cfg.Rates))
	assert.True(t, fromYAML.Markups[MarkupTempered].Equal(decimal.NewFromInt(35)))
	require.NoError(t, fromYAML.Validate())
}

func TestQuoteBreakdownRecompute(t *testing.T) {
	q := QuoteBreakdown{
		Lines: []LineItem{
			{Name: LineBase, Amount: decimal.RequireFromString("75.00")},
			{Name: LinePolish, Amount: decimal.RequireFromString("102.00")},
			{Name: LineTemperedMarkup, Amount: decimal.RequireFromString("61.95")},
		},
		Quantity:      1,
		DiscountRate:  decimal.Zero,
		MarginDivisor: decimal.RequireFromString("0.28"),
	}.Recompute()

	assert.True(t, q.SubtotalBeforeMarkups.Equal(decimal.NewFromInt(177)))
	assert.True(t, q.Markups.Equal(decimal.RequireFromString("61.95")))
	assert.True(t, q.Subtotal.Equal(decimal.RequireFromString("238.95")))
	assert.True(t, q.Total.Equal(decimal.RequireFromString("238.95")))
	assert.True(t, q.QuotePrice.Equal(decimal.RequireFromString("853.39")), "got %s", q.QuotePrice)

	again := q.Recompute()
	assert.True(t, again.Total.Equal(q.Total))
	assert.True(t, again.QuotePrice.Equal(q.QuotePrice))

	line, ok := q.Line(LinePolish)
	assert.True(t, ok)
	assert.True(t, line.Amount.Equal(decimal.NewFromInt(102)))
	_, ok = q.Line(LineBeveled)
	assert.False(t, ok)
}

func TestJobQuoteSummarize(t *testing.T) {
	j := JobQuote{
		Items: []QuoteBreakdown{
			{Total: decimal.RequireFromString("100.00")},
			{Total: decimal.RequireFromString("40.00")},
		},
		MarginDivisor: decimal.RequireFromString("0.28"),
	}
	j.Summarize()
	assert.True(t, j.Total.Equal(decimal.NewFromInt(140)))
	assert.True(t, j.QuotePrice.Equal(decimal.NewFromInt(500)))
}
