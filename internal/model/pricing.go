package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/GlassCut/internal/measure"
)

// GlassType names a glass product line. Only mirror carries special rules.
type GlassType string

const (
	GlassClear   GlassType = "clear"
	GlassMirror  GlassType = "mirror"
	GlassBronze  GlassType = "bronze"
	GlassGray    GlassType = "gray"
	GlassFrosted GlassType = "frosted"
	GlassLowE    GlassType = "low-e"
)

// ClipSize buckets a clipped corner by its clip radius.
type ClipSize string

const (
	ClipUnder1 ClipSize = "under_1" // clip radius under 1"
	ClipOver1  ClipSize = "over_1"  // clip radius 1" and over
)

func (c ClipSize) Valid() bool { return c == ClipUnder1 || c == ClipOver1 }

// Markup keys every PricingConfig must carry.
const (
	MarkupTempered = "tempered"
	MarkupShape    = "shape"
)

// GlassRate is one row of the rate table, keyed by (Thickness, GlassType).
type GlassRate struct {
	Thickness     string          `json:"thickness" yaml:"thickness"`
	GlassType     GlassType       `json:"glass_type" yaml:"glass_type"`
	BaseRate      decimal.Decimal `json:"base_rate" yaml:"base_rate"`     // $ per sq ft
	PolishRate    decimal.Decimal `json:"polish_rate" yaml:"polish_rate"` // $ per linear inch
	OnlyTempered  bool            `json:"only_tempered,omitempty" yaml:"only_tempered,omitempty"`
	NoPolish      bool            `json:"no_polish,omitempty" yaml:"no_polish,omitempty"`
	NeverTempered bool            `json:"never_tempered,omitempty" yaml:"never_tempered,omitempty"`
}

// PricingConfig is the full set of rate tables a quote is computed against.
// It is data: nothing in the pricing formula hard-codes a rate.
type PricingConfig struct {
	Rates              []GlassRate                             `json:"rates" yaml:"rates"`
	Markups            map[string]decimal.Decimal              `json:"markups" yaml:"markups"`             // percent, e.g. 35 = 35%
	BeveledRates       map[string]decimal.Decimal              `json:"beveled_rates" yaml:"beveled_rates"` // thickness -> $ per linear inch
	ClippedCornerRates map[string]map[ClipSize]decimal.Decimal `json:"clipped_corner_rates" yaml:"clipped_corner_rates"`
	MirrorPolishRate   decimal.Decimal                         `json:"mirror_polish_rate" yaml:"mirror_polish_rate"` // $ per linear inch
	MinimumSqFt        decimal.Decimal                         `json:"minimum_sq_ft" yaml:"minimum_sq_ft"`
	ContractorDiscount decimal.Decimal                         `json:"contractor_discount" yaml:"contractor_discount"` // fraction, 0.15 = 15%
	MarginDivisor      decimal.Decimal                         `json:"margin_divisor" yaml:"margin_divisor"`
	ThinnestThickness  string                                  `json:"thinnest_thickness" yaml:"thinnest_thickness"`
}

// Defaults for the scalar policy fields.
var (
	DefaultMinimumSqFt        = decimal.NewFromInt(3)
	DefaultContractorDiscount = decimal.RequireFromString("0.15")
	DefaultMarginDivisor      = decimal.RequireFromString("0.28")
)

const DefaultThinnestThickness = `1/8"`

// NormalizeThickness reduces a thickness label to a canonical key so that
// `1/4"`, "1/4" and "0.25" all address the same row. Labels that are not
// measurements are only trimmed and lower-cased.
func NormalizeThickness(s string) string {
	if m, err := measure.Parse(s); err == nil {
		return m.Exact()
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// policyDefaults is the starting point for decoding a table, so keys left out
// of a file keep their defaults while an explicit 0 stays 0.
func policyDefaults() PricingConfig {
	return PricingConfig{
		MinimumSqFt:        DefaultMinimumSqFt,
		ContractorDiscount: DefaultContractorDiscount,
		MarginDivisor:      DefaultMarginDivisor,
		ThinnestThickness:  DefaultThinnestThickness,
	}
}

// UnmarshalJSON decodes a table over the policy defaults.
func (c *PricingConfig) UnmarshalJSON(data []byte) error {
	type plain PricingConfig
	p := plain(policyDefaults())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = PricingConfig(p)
	return nil
}

// UnmarshalYAML decodes a table over the policy defaults.
func (c *PricingConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain PricingConfig
	p := plain(policyDefaults())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = PricingConfig(p)
	return nil
}

// WithDefaults fills the fields whose zero value is never meaningful. A zero
// minimum area or contractor discount is a valid policy and is left alone.
func (c PricingConfig) WithDefaults() PricingConfig {
	if c.MarginDivisor.IsZero() {
		c.MarginDivisor = DefaultMarginDivisor
	}
	if c.ThinnestThickness == "" {
		c.ThinnestThickness = DefaultThinnestThickness
	}
	return c
}

// Validate checks the table is usable before any quote is computed against it.
func (c PricingConfig) Validate() error {
	if len(c.Rates) == 0 {
		return fmt.Errorf("pricing config has no glass rates")
	}
	seen := make(map[string]bool, len(c.Rates))
	for i, r := range c.Rates {
		if strings.TrimSpace(r.Thickness) == "" || r.GlassType == "" {
			return fmt.Errorf("rate %d: thickness and glass type are required", i)
		}
		if r.BaseRate.IsNegative() || r.PolishRate.IsNegative() {
			return fmt.Errorf("rate %d (%s %s): rates must not be negative", i, r.Thickness, r.GlassType)
		}
		key := NormalizeThickness(r.Thickness) + "|" + string(r.GlassType)
		if seen[key] {
			return fmt.Errorf("duplicate rate for thickness %s, glass type %q", r.Thickness, r.GlassType)
		}
		seen[key] = true
	}
	for _, k := range []string{MarkupTempered, MarkupShape} {
		if _, ok := c.Markups[k]; !ok {
			return &ConfigMissingError{Key: k}
		}
	}
	for k, v := range c.Markups {
		if v.IsNegative() {
			return fmt.Errorf("markup %q must not be negative", k)
		}
	}
	if !c.MarginDivisor.IsPositive() || c.MarginDivisor.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("margin divisor must be in (0, 1], got %s", c.MarginDivisor)
	}
	if c.ContractorDiscount.IsNegative() || c.ContractorDiscount.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("contractor discount must be in [0, 1), got %s", c.ContractorDiscount)
	}
	if c.MinimumSqFt.IsNegative() {
		return fmt.Errorf("minimum sq ft must not be negative, got %s", c.MinimumSqFt)
	}
	for thickness, buckets := range c.ClippedCornerRates {
		for size := range buckets {
			if !size.Valid() {
				return fmt.Errorf("clipped corner rate for %s: unknown size bucket %q", thickness, size)
			}
		}
	}
	return nil
}

// Rate returns the table row for (thickness, glassType).
func (c PricingConfig) Rate(thickness string, glassType GlassType) (GlassRate, error) {
	want := NormalizeThickness(thickness)
	for _, r := range c.Rates {
		if r.GlassType == glassType && NormalizeThickness(r.Thickness) == want {
			return r, nil
		}
	}
	return GlassRate{}, &ConfigMissingError{Thickness: thickness, GlassType: string(glassType)}
}

// Markup returns the named markup percentage.
func (c PricingConfig) Markup(key string) (decimal.Decimal, error) {
	v, ok := c.Markups[key]
	if !ok {
		return decimal.Zero, &ConfigMissingError{Key: key}
	}
	return v, nil
}

// BeveledRate returns the per-inch bevel rate for thickness.
func (c PricingConfig) BeveledRate(thickness string) (decimal.Decimal, error) {
	want := NormalizeThickness(thickness)
	for k, v := range c.BeveledRates {
		if NormalizeThickness(k) == want {
			return v, nil
		}
	}
	return decimal.Zero, &ConfigMissingError{Thickness: thickness, Key: "beveled"}
}

// ClipRate returns the per-corner rate for (thickness, size).
func (c PricingConfig) ClipRate(thickness string, size ClipSize) (decimal.Decimal, error) {
	want := NormalizeThickness(thickness)
	for k, buckets := range c.ClippedCornerRates {
		if NormalizeThickness(k) != want {
			continue
		}
		if v, ok := buckets[size]; ok {
			return v, nil
		}
	}
	return decimal.Zero, &ConfigMissingError{Thickness: thickness, Key: "clipped corner " + string(size)}
}

// IsThinnest reports whether thickness is the tier that cannot be beveled.
func (c PricingConfig) IsThinnest(thickness string) bool {
	thinnest := c.ThinnestThickness
	if thinnest == "" {
		thinnest = DefaultThinnestThickness
	}
	return NormalizeThickness(thickness) == NormalizeThickness(thinnest)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DefaultPricingConfig is a starter rate table written by `config init` and
// seeded into a fresh store. Shops are expected to edit it.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		Rates: []GlassRate{
			{Thickness: `1/8"`, GlassType: GlassClear, BaseRate: dec("8.00"), PolishRate: dec("0.60")},
			{Thickness: `3/16"`, GlassType: GlassClear, BaseRate: dec("10.00"), PolishRate: dec("0.75")},
			{Thickness: `1/4"`, GlassType: GlassClear, BaseRate: dec("12.50"), PolishRate: dec("0.85")},
			{Thickness: `3/8"`, GlassType: GlassClear, BaseRate: dec("18.00"), PolishRate: dec("1.10")},
			{Thickness: `1/2"`, GlassType: GlassClear, BaseRate: dec("24.00"), PolishRate: dec("1.35")},
			{Thickness: `1/4"`, GlassType: GlassBronze, BaseRate: dec("15.00"), PolishRate: dec("0.85")},
			{Thickness: `1/4"`, GlassType: GlassGray, BaseRate: dec("15.00"), PolishRate: dec("0.85")},
			{Thickness: `1/4"`, GlassType: GlassFrosted, BaseRate: dec("17.50"), PolishRate: dec("0.95")},
			{Thickness: `1/4"`, GlassType: GlassLowE, BaseRate: dec("19.00"), NoPolish: true, OnlyTempered: true},
			{Thickness: `1/8"`, GlassType: GlassMirror, BaseRate: dec("9.00"), NeverTempered: true},
			{Thickness: `1/4"`, GlassType: GlassMirror, BaseRate: dec("13.50"), NeverTempered: true},
		},
		Markups: map[string]decimal.Decimal{
			MarkupTempered: dec("35"),
			MarkupShape:    dec("25"),
		},
		BeveledRates: map[string]decimal.Decimal{
			`1/4"`: dec("1.25"),
			`3/8"`: dec("1.50"),
			`1/2"`: dec("1.75"),
		},
		ClippedCornerRates: map[string]map[ClipSize]decimal.Decimal{
			`1/8"`: {ClipUnder1: dec("3.00"), ClipOver1: dec("5.00")},
			`1/4"`: {ClipUnder1: dec("4.00"), ClipOver1: dec("6.50")},
			`3/8"`: {ClipUnder1: dec("5.00"), ClipOver1: dec("8.00")},
			`1/2"`: {ClipUnder1: dec("6.00"), ClipOver1: dec("9.50")},
		},
		MirrorPolishRate:   dec("0.45"),
		MinimumSqFt:        DefaultMinimumSqFt,
		ContractorDiscount: DefaultContractorDiscount,
		MarginDivisor:      DefaultMarginDivisor,
		ThinnestThickness:  DefaultThinnestThickness,
	}
}

// ClippedCorners requests Count corners clipped at the Size bucket.
type ClippedCorners struct {
	Count int      `json:"count" yaml:"count" validate:"gte=0,lte=4"`
	Size  ClipSize `json:"size,omitempty" yaml:"size,omitempty" validate:"omitempty,clip_size"`
}

// GlassItemSpec is one billable glass piece. Rectangular pieces use Width and
// Height; circular ones use Diameter.
type GlassItemSpec struct {
	Label          string              `json:"label,omitempty" yaml:"label,omitempty"`
	Width          measure.Measurement `json:"width" yaml:"width"`       // inches
	Height         measure.Measurement `json:"height" yaml:"height"`     // inches
	Diameter       measure.Measurement `json:"diameter" yaml:"diameter"` // inches, circular only
	Circular       bool                `json:"circular,omitempty" yaml:"circular,omitempty"`
	Thickness      string              `json:"thickness" yaml:"thickness" validate:"required"`
	GlassType      GlassType           `json:"glass_type" yaml:"glass_type" validate:"required,max=40"`
	Quantity       int                 `json:"quantity" yaml:"quantity" validate:"gte=1"`
	Polished       bool                `json:"polished,omitempty" yaml:"polished,omitempty"`
	Beveled        bool                `json:"beveled,omitempty" yaml:"beveled,omitempty"`
	ClippedCorners ClippedCorners      `json:"clipped_corners" yaml:"clipped_corners"`
	Tempered       bool                `json:"tempered,omitempty" yaml:"tempered,omitempty"`
	NonRectangular bool                `json:"non_rectangular,omitempty" yaml:"non_rectangular,omitempty"`
	Contractor     bool                `json:"contractor,omitempty" yaml:"contractor,omitempty"`
}

// LineName identifies one formula step in a QuoteBreakdown.
type LineName string

const (
	LineBase           LineName = "base"
	LinePolish         LineName = "polish"
	LineBeveled        LineName = "beveled"
	LineClippedCorners LineName = "clipped_corners"
	LineTemperedMarkup LineName = "tempered_markup"
	LineShapeMarkup    LineName = "shape_markup"
)

// IsMarkup reports whether the line is computed on the pre-markup subtotal.
func (n LineName) IsMarkup() bool {
	return n == LineTemperedMarkup || n == LineShapeMarkup
}

// LineItem is one priced formula step, rounded to cents.
type LineItem struct {
	Name   LineName        `json:"name"`
	Detail string          `json:"detail,omitempty"`
	Amount decimal.Decimal `json:"amount"`
}

// QuoteBreakdown is the itemized per-unit and total price of one GlassItemSpec.
// Lines appear in formula order and only when applicable.
type QuoteBreakdown struct {
	Label                 string          `json:"label,omitempty"`
	SqFt                  decimal.Decimal `json:"sq_ft"`
	BillableSqFt          decimal.Decimal `json:"billable_sq_ft"`
	Perimeter             decimal.Decimal `json:"perimeter"` // inches
	Lines                 []LineItem      `json:"lines"`
	SubtotalBeforeMarkups decimal.Decimal `json:"subtotal_before_markups"`
	Markups               decimal.Decimal `json:"markups"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	DiscountRate          decimal.Decimal `json:"discount_rate"`
	Discount              decimal.Decimal `json:"discount"`
	PerUnitTotal          decimal.Decimal `json:"per_unit_total"`
	Quantity              int             `json:"quantity"`
	Total                 decimal.Decimal `json:"total"`
	MarginDivisor         decimal.Decimal `json:"margin_divisor"`
	QuotePrice            decimal.Decimal `json:"quote_price"`
}

// Line returns the named line, if present.
func (q QuoteBreakdown) Line(name LineName) (LineItem, bool) {
	for _, l := range q.Lines {
		if l.Name == name {
			return l, true
		}
	}
	return LineItem{}, false
}

// Recompute derives every total from Lines, DiscountRate, Quantity and
// MarginDivisor. The pricing engine finishes every quote with it, so a stored
// breakdown run through Recompute again yields the same figures.
func (q QuoteBreakdown) Recompute() QuoteBreakdown {
	q.SubtotalBeforeMarkups = decimal.Zero
	q.Markups = decimal.Zero
	for _, l := range q.Lines {
		if l.Name.IsMarkup() {
			q.Markups = q.Markups.Add(l.Amount)
		} else {
			q.SubtotalBeforeMarkups = q.SubtotalBeforeMarkups.Add(l.Amount)
		}
	}
	q.Subtotal = q.SubtotalBeforeMarkups.Add(q.Markups)
	q.Discount = q.Subtotal.Mul(q.DiscountRate).Round(2)
	q.PerUnitTotal = q.Subtotal.Sub(q.Discount)
	q.Total = q.PerUnitTotal.Mul(decimal.NewFromInt(int64(q.Quantity)))
	q.QuotePrice = decimal.Zero
	if q.MarginDivisor.IsPositive() {
		q.QuotePrice = q.Total.DivRound(q.MarginDivisor, 2)
	}
	return q
}

// JobQuote prices several items together.
type JobQuote struct {
	Items         []QuoteBreakdown `json:"items"`
	Total         decimal.Decimal  `json:"total"`
	MarginDivisor decimal.Decimal  `json:"margin_divisor"`
	QuotePrice    decimal.Decimal  `json:"quote_price"`
}

// Summarize recomputes the job totals from Items.
func (j *JobQuote) Summarize() {
	j.Total = decimal.Zero
	for _, it := range j.Items {
		j.Total = j.Total.Add(it.Total)
	}
	j.QuotePrice = decimal.Zero
	if j.MarginDivisor.IsPositive() {
		j.QuotePrice = j.Total.DivRound(j.MarginDivisor, 2)
	}
}
