package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
	"github.com/piwi3910/GlassCut/internal/pricing"
)

func pricedRecord(t *testing.T, customer string, specs ...model.GlassItemSpec) QuoteRecord {
	t.Helper()
	job, err := pricing.CalculateBatch(model.DefaultPricingConfig(), specs)
	require.NoError(t, err)
	return QuoteRecord{Customer: customer, JobName: "Storefront", Specs: specs, Job: job}
}

func sampleSpec(width int64) model.GlassItemSpec {
	return model.GlassItemSpec{
		Label: "Pane", Width: measure.FromInt(width), Height: measure.FromInt(36),
		Thickness: `1/4"`, GlassType: model.GlassClear, Quantity: 2, Polished: true,
	}
}

func TestSaveQuoteNumbersAndVersions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	first, err := s.SaveQuote(ctx, pricedRecord(t, "Acme", sampleSpec(24)))
	require.NoError(t, err)
	assert.Equal(t, 1001, first.QuoteNumber)
	assert.Equal(t, 1, first.Version)
	assert.NotZero(t, first.ID)
	assert.True(t, first.CreatedAt.Equal(fixed))

	second, err := s.SaveQuote(ctx, pricedRecord(t, "Bolt", sampleSpec(30)))
	require.NoError(t, err)
	assert.Equal(t, 1002, second.QuoteNumber)

	revised := pricedRecord(t, "Acme", sampleSpec(26))
	revised.QuoteNumber = first.QuoteNumber
	v2, err := s.SaveQuote(ctx, revised)
	require.NoError(t, err)
	assert.Equal(t, 1001, v2.QuoteNumber)
	assert.Equal(t, 2, v2.Version)
}

func TestSaveQuoteRejectsUnchangedVersion(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	saved, err := s.SaveQuote(ctx, pricedRecord(t, "Acme", sampleSpec(24)))
	require.NoError(t, err)

	again := pricedRecord(t, "Acme", sampleSpec(24))
	again.QuoteNumber = saved.QuoteNumber
	_, err = s.SaveQuote(ctx, again)
	assert.ErrorIs(t, err, ErrNoChanges)

	// a renamed customer is a change even at the same price
	again.Customer = "Acme Corp"
	_, err = s.SaveQuote(ctx, again)
	assert.NoError(t, err)
}

func TestSaveQuoteUnknownNumber(t *testing.T) {
	s := openTestStore(t)
	rec := pricedRecord(t, "Acme", sampleSpec(24))
	rec.QuoteNumber = 4242
	_, err := s.SaveQuote(context.Background(), rec)
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestSaveQuoteSpecMismatch(t *testing.T) {
	s := openTestStore(t)
	rec := pricedRecord(t, "Acme", sampleSpec(24))
	rec.Specs = nil
	_, err := s.SaveQuote(context.Background(), rec)
	assert.Error(t, err)
}

func TestLoadQuoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec := pricedRecord(t, "Acme", sampleSpec(24), sampleSpec(48))
	saved, err := s.SaveQuote(ctx, rec)
	require.NoError(t, err)

	loaded, err := s.LoadQuote(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", loaded.Customer)
	assert.Equal(t, saved.QuoteNumber, loaded.QuoteNumber)
	require.Len(t, loaded.Specs, 2)
	require.Len(t, loaded.Job.Items, 2)
	assert.Equal(t, "48", loaded.Specs[1].Width.Exact())
	assert.True(t, loaded.Job.QuotePrice.Equal(rec.Job.QuotePrice))
	assert.True(t, loaded.Job.Total.Equal(rec.Job.Total))

	// a stored breakdown recomputes to the same figures
	item := loaded.Job.Items[0]
	assert.True(t, item.Recompute().QuotePrice.Equal(item.QuotePrice))
	assert.True(t, item.Recompute().Total.Equal(rec.Job.Items[0].Total))

	_, err = s.LoadQuote(ctx, 999)
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestListAndLatestQuote(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, err := s.SaveQuote(ctx, pricedRecord(t, "Acme", sampleSpec(24)))
	require.NoError(t, err)
	_, err = s.SaveQuote(ctx, pricedRecord(t, "Bolt", sampleSpec(30), sampleSpec(20)))
	require.NoError(t, err)
	rev := pricedRecord(t, "Acme", sampleSpec(28))
	rev.QuoteNumber = a.QuoteNumber
	_, err = s.SaveQuote(ctx, rev)
	require.NoError(t, err)

	list, err := s.ListQuotes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 1002, list[0].QuoteNumber)
	assert.Equal(t, 2, list[0].Items)
	assert.Equal(t, 1001, list[1].QuoteNumber)
	assert.Equal(t, 2, list[1].Version)
	assert.Equal(t, 1, list[2].Version)
	assert.False(t, list[0].QuotePrice.Equal(decimal.Zero))

	latest, err := s.LatestQuote(ctx, a.QuoteNumber)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "28", latest.Specs[0].Width.Exact())

	_, err = s.LatestQuote(ctx, 1)
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestListQuotesEmpty(t *testing.T) {
	list, err := openTestStore(t).ListQuotes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}
