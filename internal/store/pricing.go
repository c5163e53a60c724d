package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/GlassCut/internal/model"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SeedDefaults writes cfg into an empty rate table. A table that already has
// rates is left alone, so shop edits survive restarts.
func (s *Store) SeedDefaults(ctx context.Context, cfg model.PricingConfig) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM glass_rates").Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count rates: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	if err := s.SavePricingConfig(ctx, cfg); err != nil {
		return false, err
	}
	return true, nil
}

// SavePricingConfig replaces the whole rate table with cfg.
func (s *Store) SavePricingConfig(ctx context.Context, cfg model.PricingConfig) error {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to store invalid pricing config: %w", err)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"glass_rates", "markups", "beveled_rates", "clipped_corner_rates", "pricing_settings"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		for _, r := range cfg.Rates {
			if err := upsertRate(ctx, tx, r); err != nil {
				return err
			}
		}
		for name, pct := range cfg.Markups {
			if err := setMarkup(ctx, tx, name, pct); err != nil {
				return err
			}
		}
		for thickness, rate := range cfg.BeveledRates {
			if err := setBeveledRate(ctx, tx, thickness, rate); err != nil {
				return err
			}
		}
		for thickness, buckets := range cfg.ClippedCornerRates {
			for size, rate := range buckets {
				if err := setClipRate(ctx, tx, thickness, size, rate); err != nil {
					return err
				}
			}
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO pricing_settings
			(id, mirror_polish_rate, minimum_sq_ft, contractor_discount, margin_divisor, thinnest_thickness)
			VALUES (1, ?, ?, ?, ?, ?)`,
			cfg.MirrorPolishRate, cfg.MinimumSqFt, cfg.ContractorDiscount, cfg.MarginDivisor, cfg.ThinnestThickness)
		if err != nil {
			return fmt.Errorf("failed to save pricing settings: %w", err)
		}
		return nil
	})
}

// LoadPricingConfig reads the rate table as the pricing engine consumes it.
func (s *Store) LoadPricingConfig(ctx context.Context) (model.PricingConfig, error) {
	cfg := model.PricingConfig{
		Markups:            map[string]decimal.Decimal{},
		BeveledRates:       map[string]decimal.Decimal{},
		ClippedCornerRates: map[string]map[model.ClipSize]decimal.Decimal{},
		// kept when no settings row has been written yet
		MinimumSqFt:        model.DefaultMinimumSqFt,
		ContractorDiscount: model.DefaultContractorDiscount,
	}

	rows, err := s.db.QueryContext(ctx, `SELECT thickness, glass_type, base_rate, polish_rate,
		only_tempered, no_polish, never_tempered FROM glass_rates ORDER BY thickness_key, glass_type`)
	if err != nil {
		return model.PricingConfig{}, fmt.Errorf("failed to query rates: %w", err)
	}
	for rows.Next() {
		var r model.GlassRate
		if err := rows.Scan(&r.Thickness, &r.GlassType, &r.BaseRate, &r.PolishRate,
			&r.OnlyTempered, &r.NoPolish, &r.NeverTempered); err != nil {
			rows.Close()
			return model.PricingConfig{}, fmt.Errorf("failed to scan rate: %w", err)
		}
		cfg.Rates = append(cfg.Rates, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.PricingConfig{}, err
	}

	rows, err = s.db.QueryContext(ctx, "SELECT name, percent FROM markups")
	if err != nil {
		return model.PricingConfig{}, fmt.Errorf("failed to query markups: %w", err)
	}
	for rows.Next() {
		var name string
		var pct decimal.Decimal
		if err := rows.Scan(&name, &pct); err != nil {
			rows.Close()
			return model.PricingConfig{}, fmt.Errorf("failed to scan markup: %w", err)
		}
		cfg.Markups[name] = pct
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, "SELECT thickness, rate FROM beveled_rates")
	if err != nil {
		return model.PricingConfig{}, fmt.Errorf("failed to query beveled rates: %w", err)
	}
	for rows.Next() {
		var thickness string
		var rate decimal.Decimal
		if err := rows.Scan(&thickness, &rate); err != nil {
			rows.Close()
			return model.PricingConfig{}, fmt.Errorf("failed to scan beveled rate: %w", err)
		}
		cfg.BeveledRates[thickness] = rate
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, "SELECT thickness, size, rate FROM clipped_corner_rates")
	if err != nil {
		return model.PricingConfig{}, fmt.Errorf("failed to query clipped corner rates: %w", err)
	}
	for rows.Next() {
		var thickness string
		var size model.ClipSize
		var rate decimal.Decimal
		if err := rows.Scan(&thickness, &size, &rate); err != nil {
			rows.Close()
			return model.PricingConfig{}, fmt.Errorf("failed to scan clipped corner rate: %w", err)
		}
		if cfg.ClippedCornerRates[thickness] == nil {
			cfg.ClippedCornerRates[thickness] = map[model.ClipSize]decimal.Decimal{}
		}
		cfg.ClippedCornerRates[thickness][size] = rate
	}
	rows.Close()

	err = s.db.QueryRowContext(ctx, `SELECT mirror_polish_rate, minimum_sq_ft, contractor_discount,
		margin_divisor, thinnest_thickness FROM pricing_settings WHERE id = 1`).
		Scan(&cfg.MirrorPolishRate, &cfg.MinimumSqFt, &cfg.ContractorDiscount, &cfg.MarginDivisor, &cfg.ThinnestThickness)
	if err != nil && err != sql.ErrNoRows {
		return model.PricingConfig{}, fmt.Errorf("failed to load pricing settings: %w", err)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return model.PricingConfig{}, fmt.Errorf("stored pricing config is not usable: %w", err)
	}
	return cfg, nil
}

// UpsertRate inserts or replaces the row for (thickness, glass type).
func (s *Store) UpsertRate(ctx context.Context, r model.GlassRate) error {
	if r.Thickness == "" || r.GlassType == "" {
		return fmt.Errorf("thickness and glass type are required")
	}
	if r.BaseRate.IsNegative() || r.PolishRate.IsNegative() {
		return fmt.Errorf("rates must not be negative")
	}
	return upsertRate(ctx, s.db, r)
}

// SetMarkup sets a named markup percentage (35 = 35%).
func (s *Store) SetMarkup(ctx context.Context, name string, pct decimal.Decimal) error {
	if pct.IsNegative() {
		return fmt.Errorf("markup %q must not be negative", name)
	}
	return setMarkup(ctx, s.db, name, pct)
}

// SetBeveledRate sets the per-inch bevel rate for a thickness.
func (s *Store) SetBeveledRate(ctx context.Context, thickness string, rate decimal.Decimal) error {
	return setBeveledRate(ctx, s.db, thickness, rate)
}

// SetClippedCornerRate sets the per-corner rate for a thickness and size bucket.
func (s *Store) SetClippedCornerRate(ctx context.Context, thickness string, size model.ClipSize, rate decimal.Decimal) error {
	if !size.Valid() {
		return fmt.Errorf("unknown clipped corner size %q", size)
	}
	return setClipRate(ctx, s.db, thickness, size, rate)
}

func upsertRate(ctx context.Context, ex execer, r model.GlassRate) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO glass_rates
		(thickness_key, thickness, glass_type, base_rate, polish_rate, only_tempered, no_polish, never_tempered)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (thickness_key, glass_type) DO UPDATE SET
			thickness = excluded.thickness,
			base_rate = excluded.base_rate,
			polish_rate = excluded.polish_rate,
			only_tempered = excluded.only_tempered,
			no_polish = excluded.no_polish,
			never_tempered = excluded.never_tempered`,
		model.NormalizeThickness(r.Thickness), r.Thickness, string(r.GlassType), r.BaseRate, r.PolishRate,
		r.OnlyTempered, r.NoPolish, r.NeverTempered)
	if err != nil {
		return fmt.Errorf("failed to save rate %s %s: %w", r.Thickness, r.GlassType, err)
	}
	return nil
}

func setMarkup(ctx context.Context, ex execer, name string, pct decimal.Decimal) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO markups (name, percent) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET percent = excluded.percent`, name, pct)
	if err != nil {
		return fmt.Errorf("failed to save markup %q: %w", name, err)
	}
	return nil
}

func setBeveledRate(ctx context.Context, ex execer, thickness string, rate decimal.Decimal) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO beveled_rates (thickness_key, thickness, rate) VALUES (?, ?, ?)
		ON CONFLICT (thickness_key) DO UPDATE SET thickness = excluded.thickness, rate = excluded.rate`,
		model.NormalizeThickness(thickness), thickness, rate)
	if err != nil {
		return fmt.Errorf("failed to save beveled rate for %s: %w", thickness, err)
	}
	return nil
}

func setClipRate(ctx context.Context, ex execer, thickness string, size model.ClipSize, rate decimal.Decimal) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO clipped_corner_rates (thickness_key, thickness, size, rate) VALUES (?, ?, ?, ?)
		ON CONFLICT (thickness_key, size) DO UPDATE SET thickness = excluded.thickness, rate = excluded.rate`,
		model.NormalizeThickness(thickness), thickness, string(size), rate)
	if err != nil {
		return fmt.Errorf("failed to save clipped corner rate for %s %s: %w", thickness, size, err)
	}
	return nil
}
