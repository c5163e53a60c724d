package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/GlassCut/internal/model"
)

// DefaultPricingPath returns ~/.glasscut/pricing.yaml.
func DefaultPricingPath() string {
	return filepath.Join(DefaultConfigDir(), "pricing.yaml")
}

// LoadPricingConfig reads a rate table from a JSON or YAML file (chosen by
// extension) and validates it. Policy scalars missing from the file get their
// defaults; ones set to 0 stay 0.
// A missing file is an error: quoting against an invented table would be
// worse than not quoting.
func LoadPricingConfig(path string) (model.PricingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PricingConfig{}, fmt.Errorf("failed to read pricing config: %w", err)
	}
	var cfg model.PricingConfig
	if err := decode(path, data, &cfg); err != nil {
		return model.PricingConfig{}, err
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return model.PricingConfig{}, fmt.Errorf("invalid pricing config %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// SavePricingConfig validates cfg and writes it as JSON or YAML.
func SavePricingConfig(path string, cfg model.PricingConfig) error {
	if err := cfg.WithDefaults().Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid pricing config: %w", err)
	}
	return writeFile(path, cfg)
}

// InitPricingConfig writes the starter rate table to path unless a file is
// already there. It reports whether a file was written.
func InitPricingConfig(path string, overwrite bool) (bool, error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	if err := SavePricingConfig(path, model.DefaultPricingConfig()); err != nil {
		return false, err
	}
	return true, nil
}
