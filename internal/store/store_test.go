package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
	"github.com/piwi3910/GlassCut/internal/pricing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Ping(context.Background()))
}

func TestOpenFileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "glasscut.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.SeedDefaults(ctx, model.DefaultPricingConfig())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// data survives reopening
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	cfg, err := s.LoadPricingConfig(ctx)
	require.NoError(t, err)
	assert.Len(t, cfg.Rates, len(model.DefaultPricingConfig().Rates))
}

func TestSeedAndLoadPricingConfig(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LoadPricingConfig(ctx)
	assert.Error(t, err, "empty table is not a usable config")

	seeded, err := s.SeedDefaults(ctx, model.DefaultPricingConfig())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = s.SeedDefaults(ctx, model.DefaultPricingConfig())
	require.NoError(t, err)
	assert.False(t, seeded, "second seed must not touch existing rates")

	cfg, err := s.LoadPricingConfig(ctx)
	require.NoError(t, err)
	want := model.DefaultPricingConfig()

	assert.Len(t, cfg.Rates, len(want.Rates))
	rate, err := cfg.Rate(`1/4"`, model.GlassLowE)
	require.NoError(t, err)
	assert.True(t, rate.OnlyTempered)
	assert.True(t, rate.NoPolish)
	assert.True(t, rate.BaseRate.Equal(decimal.RequireFromString("19.00")))

	bevel, err := cfg.BeveledRate(`3/8"`)
	require.NoError(t, err)
	assert.Equal(t, "1.5", bevel.String())

	clip, err := cfg.ClipRate(`1/2"`, model.ClipOver1)
	require.NoError(t, err)
	assert.Equal(t, "9.5", clip.String())

	assert.True(t, cfg.MarginDivisor.Equal(want.MarginDivisor))
	assert.True(t, cfg.MirrorPolishRate.Equal(want.MirrorPolishRate))
	assert.Equal(t, want.ThinnestThickness, cfg.ThinnestThickness)
}

func TestStoredConfigPricesLikeFileConfig(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.SeedDefaults(ctx, model.DefaultPricingConfig())
	require.NoError(t, err)
	stored, err := s.LoadPricingConfig(ctx)
	require.NoError(t, err)

	spec := model.GlassItemSpec{
		Width: measure.FromInt(30), Height: measure.FromInt(40), Thickness: `1/4"`,
		GlassType: model.GlassClear, Quantity: 2, Polished: true, Tempered: true,
	}
	fromStore, err := pricing.Calculate(stored, spec)
	require.NoError(t, err)
	fromDefaults, err := pricing.Calculate(model.DefaultPricingConfig(), spec)
	require.NoError(t, err)
	assert.True(t, fromStore.QuotePrice.Equal(fromDefaults.QuotePrice))
}

func TestUpsertRateAndSetters(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.SeedDefaults(ctx, model.DefaultPricingConfig())
	require.NoError(t, err)

	// "0.25" addresses the same row as `1/4"`
	require.NoError(t, s.UpsertRate(ctx, model.GlassRate{
		Thickness: "0.25", GlassType: model.GlassClear,
		BaseRate: decimal.RequireFromString("13.75"), PolishRate: decimal.RequireFromString("0.90"),
	}))
	require.NoError(t, s.UpsertRate(ctx, model.GlassRate{
		Thickness: `5/8"`, GlassType: model.GlassClear, BaseRate: decimal.RequireFromString("31"),
	}))
	require.NoError(t, s.SetMarkup(ctx, model.MarkupTempered, decimal.NewFromInt(40)))
	require.NoError(t, s.SetBeveledRate(ctx, `1/4"`, decimal.RequireFromString("1.30")))
	require.NoError(t, s.SetClippedCornerRate(ctx, `1/4"`, model.ClipUnder1, decimal.RequireFromString("4.25")))

	cfg, err := s.LoadPricingConfig(ctx)
	require.NoError(t, err)
	assert.Len(t, cfg.Rates, len(model.DefaultPricingConfig().Rates)+1)

	rate, err := cfg.Rate(`1/4"`, model.GlassClear)
	require.NoError(t, err)
	assert.Equal(t, "13.75", rate.BaseRate.String())
	assert.Equal(t, "0.25", rate.Thickness)

	pct, _ := cfg.Markup(model.MarkupTempered)
	assert.Equal(t, "40", pct.String())
	bevel, _ := cfg.BeveledRate("1/4")
	assert.Equal(t, "1.3", bevel.String())
	clip, _ := cfg.ClipRate("1/4", model.ClipUnder1)
	assert.Equal(t, "4.25", clip.String())
}

func TestSetterValidation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	assert.Error(t, s.UpsertRate(ctx, model.GlassRate{GlassType: model.GlassClear}))
	assert.Error(t, s.UpsertRate(ctx, model.GlassRate{Thickness: "1/4", GlassType: model.GlassClear, BaseRate: decimal.NewFromInt(-1)}))
	assert.Error(t, s.SetMarkup(ctx, model.MarkupShape, decimal.NewFromInt(-5)))
	assert.Error(t, s.SetClippedCornerRate(ctx, "1/4", "huge", decimal.NewFromInt(1)))
}

func TestSavePricingConfigReplacesTable(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.SeedDefaults(ctx, model.DefaultPricingConfig())
	require.NoError(t, err)

	small := model.PricingConfig{
		Rates: []model.GlassRate{{Thickness: `1/4"`, GlassType: model.GlassClear, BaseRate: decimal.NewFromInt(10)}},
		Markups: map[string]decimal.Decimal{
			model.MarkupTempered: decimal.NewFromInt(30),
			model.MarkupShape:    decimal.NewFromInt(20),
		},
		MarginDivisor: decimal.RequireFromString("0.5"),
	}
	require.NoError(t, s.SavePricingConfig(ctx, small))

	cfg, err := s.LoadPricingConfig(ctx)
	require.NoError(t, err)
	assert.Len(t, cfg.Rates, 1)
	assert.Empty(t, cfg.BeveledRates)
	assert.Equal(t, "0.5", cfg.MarginDivisor.String())
	// unset in small, so stored and loaded as an explicit zero
	assert.True(t, cfg.MinimumSqFt.IsZero())
	assert.True(t, cfg.ContractorDiscount.IsZero())

	bad := small
	bad.Markups = nil
	assert.ErrorIs(t, s.SavePricingConfig(ctx, bad), model.ErrConfigMissing)
}
