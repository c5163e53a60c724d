// Package pricing turns a GlassItemSpec and a PricingConfig into an itemized
// quote. It is a pure function of its inputs: no I/O, no shared state.
package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
)

// Precision of the geometric quantities carried on a breakdown.
const geometryPlaces = 4

var (
	sqInPerSqFt = decimal.NewFromInt(144)
	hundred     = decimal.NewFromInt(100)
)

// Calculate prices one glass item. Every amount on the returned breakdown comes
// from exactly one formula step and is rounded to cents; totals are derived
// from the lines by QuoteBreakdown.Recompute.
func Calculate(cfg model.PricingConfig, spec model.GlassItemSpec) (model.QuoteBreakdown, error) {
	cfg = cfg.WithDefaults()

	if err := ValidateSpec(spec); err != nil {
		return model.QuoteBreakdown{}, err
	}
	// independent of the rate row, so it wins over a missing one
	if spec.Beveled && cfg.IsThinnest(spec.Thickness) {
		return model.QuoteBreakdown{}, &model.InvalidSpecError{
			Field: "beveled", Value: spec.Thickness,
			Reason: "beveled edges are not offered at the thinnest thickness",
		}
	}
	rate, err := cfg.Rate(spec.Thickness, spec.GlassType)
	if err != nil {
		return model.QuoteBreakdown{}, err
	}
	if err := checkRateRules(rate, spec); err != nil {
		return model.QuoteBreakdown{}, err
	}

	q := model.QuoteBreakdown{
		Label:         spec.Label,
		Quantity:      spec.Quantity,
		MarginDivisor: cfg.MarginDivisor,
		DiscountRate:  decimal.Zero,
	}

	// 1. geometry
	q.SqFt, q.Perimeter = geometry(spec)
	q.BillableSqFt = decimal.Max(q.SqFt, cfg.MinimumSqFt)

	// 2. base
	q.Lines = append(q.Lines, model.LineItem{
		Name:   model.LineBase,
		Detail: fmt.Sprintf("%s sq ft x $%s", q.BillableSqFt.String(), rate.BaseRate.StringFixed(2)),
		Amount: q.BillableSqFt.Mul(rate.BaseRate).Round(2),
	})

	// 3. edge treatments
	if spec.Polished {
		polishRate := rate.PolishRate
		detail := "perimeter %s in x $%s"
		if spec.GlassType == model.GlassMirror {
			polishRate = cfg.MirrorPolishRate
			detail = "perimeter %s in x $%s (mirror)"
		}
		q.Lines = append(q.Lines, model.LineItem{
			Name:   model.LinePolish,
			Detail: fmt.Sprintf(detail, q.Perimeter.String(), polishRate.StringFixed(2)),
			Amount: q.Perimeter.Mul(polishRate).Round(2),
		})
	}
	if spec.Beveled {
		bevelRate, err := cfg.BeveledRate(spec.Thickness)
		if err != nil {
			return model.QuoteBreakdown{}, err
		}
		q.Lines = append(q.Lines, model.LineItem{
			Name:   model.LineBeveled,
			Detail: fmt.Sprintf("perimeter %s in x $%s", q.Perimeter.String(), bevelRate.StringFixed(2)),
			Amount: q.Perimeter.Mul(bevelRate).Round(2),
		})
	}
	if spec.ClippedCorners.Count > 0 {
		clipRate, err := cfg.ClipRate(spec.Thickness, spec.ClippedCorners.Size)
		if err != nil {
			return model.QuoteBreakdown{}, err
		}
		count := decimal.NewFromInt(int64(spec.ClippedCorners.Count))
		q.Lines = append(q.Lines, model.LineItem{
			Name:   model.LineClippedCorners,
			Detail: fmt.Sprintf("%d x $%s (%s)", spec.ClippedCorners.Count, clipRate.StringFixed(2), spec.ClippedCorners.Size),
			Amount: count.Mul(clipRate).Round(2),
		})
	}

	// 4. subtotal before markups
	pre := decimal.Zero
	for _, l := range q.Lines {
		pre = pre.Add(l.Amount)
	}

	// 5. markups, each on the pre-markup subtotal
	if spec.Tempered {
		line := model.LineItem{Name: model.LineTemperedMarkup, Amount: decimal.Zero}
		switch {
		case spec.GlassType == model.GlassMirror:
			line.Detail = "mirrors are never tempered"
		case rate.NeverTempered:
			line.Detail = fmt.Sprintf("%s %s is never tempered", spec.Thickness, spec.GlassType)
		default:
			pct, err := cfg.Markup(model.MarkupTempered)
			if err != nil {
				return model.QuoteBreakdown{}, err
			}
			line.Detail = fmt.Sprintf("%s%% of $%s", pct.String(), pre.StringFixed(2))
			line.Amount = pre.Mul(pct).Div(hundred).Round(2)
		}
		q.Lines = append(q.Lines, line)
	}
	if spec.NonRectangular || spec.Circular {
		pct, err := cfg.Markup(model.MarkupShape)
		if err != nil {
			return model.QuoteBreakdown{}, err
		}
		q.Lines = append(q.Lines, model.LineItem{
			Name:   model.LineShapeMarkup,
			Detail: fmt.Sprintf("%s%% of $%s", pct.String(), pre.StringFixed(2)),
			Amount: pre.Mul(pct).Div(hundred).Round(2),
		})
	}

	// 7. contractor discount
	if spec.Contractor {
		q.DiscountRate = cfg.ContractorDiscount
	}

	// 4, 6, 8, 9 are derived from the lines.
	return q.Recompute(), nil
}

// checkRateRules applies the business rules that depend on the rate row.
func checkRateRules(rate model.GlassRate, spec model.GlassItemSpec) error {
	if spec.Polished && rate.NoPolish && spec.GlassType != model.GlassMirror {
		return &model.InvalidSpecError{
			Field: "polished", Value: fmt.Sprintf("%s %s", spec.Thickness, spec.GlassType),
			Reason: "polish is not offered for this glass",
		}
	}
	if rate.OnlyTempered && !spec.Tempered {
		return &model.InvalidSpecError{
			Field: "tempered", Value: fmt.Sprintf("%s %s", spec.Thickness, spec.GlassType),
			Reason: "this glass is only sold tempered",
		}
	}
	return nil
}

// geometry returns (sq ft, perimeter in inches). Rectangles stay exact until
// the final conversion; circles go through float64 for π.
func geometry(spec model.GlassItemSpec) (decimal.Decimal, decimal.Decimal) {
	if spec.Circular {
		d := measure.ToDecimal(spec.Diameter)
		r := d / 2
		sqft := decimal.NewFromFloat(math.Pi * r * r / 144.0).Round(geometryPlaces)
		perimeter := decimal.NewFromFloat(math.Pi * d).Round(geometryPlaces)
		return sqft, perimeter
	}
	area := spec.Width.Mul(spec.Height)
	sqft := toDecimal(area).DivRound(sqInPerSqFt, geometryPlaces)
	perimeter := toDecimal(model.RectPerimeter(spec.Width, spec.Height)).Round(geometryPlaces)
	return sqft, perimeter
}

// toDecimal converts an exact measurement without going through float64.
func toDecimal(m measure.Measurement) decimal.Decimal {
	num := decimal.NewFromBigInt(m.Num(), 0)
	den := decimal.NewFromBigInt(m.Denom(), 0)
	return num.DivRound(den, 2*geometryPlaces)
}

// CalculateBatch prices every item of a job. The first failing item fails the
// whole job; there are no partial quotes.
func CalculateBatch(cfg model.PricingConfig, specs []model.GlassItemSpec) (model.JobQuote, error) {
	cfg = cfg.WithDefaults()
	job := model.JobQuote{MarginDivisor: cfg.MarginDivisor}
	for i, spec := range specs {
		q, err := Calculate(cfg, spec)
		if err != nil {
			if spec.Label != "" {
				return model.JobQuote{}, fmt.Errorf("item %d (%s): %w", i+1, spec.Label, err)
			}
			return model.JobQuote{}, fmt.Errorf("item %d: %w", i+1, err)
		}
		job.Items = append(job.Items, q)
	}
	job.Summarize()
	return job, nil
}
