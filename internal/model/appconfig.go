package model

import "github.com/piwi3910/GlassCut/internal/measure"

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Defaults applied to new cutting runs
	DefaultStockLength measure.Measurement `json:"default_stock_length"`
	DefaultKerf        measure.Measurement `json:"default_kerf"`
	DefaultAlgorithm   Algorithm           `json:"default_algorithm"`
	DefaultStockLabel  string              `json:"default_stock_label"`
	SpacerThickness    measure.Measurement `json:"spacer_thickness"` // taken off each side for pane sizes
	WastePercent       float64             `json:"waste_percent"`    // purchase estimate allowance

	// Application preferences
	DisplayDenominator int64    `json:"display_denominator"` // 16 = sixteenths
	CompanyName        string   `json:"company_name"`        // printed on quotes and cut sheets
	PricingConfigPath  string   `json:"pricing_config_path"` // "" = pricing.json next to the app config
	RecentProjects     []string `json:"recent_projects"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultStockLength: defaults.StockLength,
		DefaultKerf:        defaults.Kerf,
		DefaultAlgorithm:   defaults.Algorithm,
		DefaultStockLabel:  defaults.StockLabel,
		SpacerThickness:    measure.FromFrac(1, 2),
		WastePercent:       10,
		DisplayDenominator: measure.DefaultMaxDenominator,
		CompanyName:        "",
		PricingConfigPath:  "",
		RecentProjects:     []string{},
	}
}

// ApplyToSettings copies the default values from AppConfig into a CutSettings struct.
// An unset stock length, algorithm or label leaves the setting untouched;
// a zero kerf is a real setting (notch-and-bend spacer).
func (c AppConfig) ApplyToSettings(s *CutSettings) {
	if c.DefaultStockLength.Sign() > 0 {
		s.StockLength = c.DefaultStockLength
	}
	if c.DefaultKerf.Sign() >= 0 {
		s.Kerf = c.DefaultKerf
	}
	if c.DefaultAlgorithm != "" {
		s.Algorithm = c.DefaultAlgorithm
	}
	if c.DefaultStockLabel != "" {
		s.StockLabel = c.DefaultStockLabel
	}
}
