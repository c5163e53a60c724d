package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/piwi3910/GlassCut/internal/measure"
)

// BladeProfile is a saw or cutter setup; only its kerf matters for planning.
type BladeProfile struct {
	ID   string              `json:"id"`
	Name string              `json:"name"`
	Kerf measure.Measurement `json:"kerf"` // inches
}

func NewBladeProfile(name string, kerf measure.Measurement) BladeProfile {
	return BladeProfile{
		ID:   uuid.New().String()[:8],
		Name: name,
		Kerf: kerf,
	}
}

// ApplyToSettings copies this blade's kerf into the given CutSettings.
func (b BladeProfile) ApplyToSettings(s *CutSettings) {
	s.Kerf = b.Kerf
}

// StockPreset is a spacer bar or extrusion stock the shop buys.
type StockPreset struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Length        measure.Measurement `json:"length"` // inches
	Material      string              `json:"material"`
	PricePerStick decimal.Decimal     `json:"price_per_stick"`
}

func NewStockPreset(name string, length measure.Measurement, material string, price decimal.Decimal) StockPreset {
	return StockPreset{
		ID:            uuid.New().String()[:8],
		Name:          name,
		Length:        length,
		Material:      material,
		PricePerStick: price,
	}
}

// ApplyToSettings makes this preset the stock for the given CutSettings.
func (sp StockPreset) ApplyToSettings(s *CutSettings) {
	s.StockLength = sp.Length
	s.StockLabel = sp.Name
}

// Inventory holds the shop's saved blades and stock presets.
type Inventory struct {
	Blades []BladeProfile `json:"blades"`
	Stocks []StockPreset  `json:"stocks"`
}

// DefaultInventory returns an inventory populated with common defaults.
func DefaultInventory() Inventory {
	return Inventory{
		Blades: []BladeProfile{
			NewBladeProfile("Spacer saw 1/8\"", measure.FromFrac(1, 8)),
			NewBladeProfile("Thin kerf 3/32\"", measure.FromFrac(3, 32)),
			NewBladeProfile("Notch and bend (no kerf)", measure.Measurement{}),
		},
		Stocks: []StockPreset{
			NewStockPreset("Aluminum spacer 1/2\" x 152\"", measure.FromInt(152), "Aluminum", decimal.RequireFromString("6.40")),
			NewStockPreset("Aluminum spacer 5/8\" x 152\"", measure.FromInt(152), "Aluminum", decimal.RequireFromString("6.90")),
			NewStockPreset("Warm edge spacer 1/2\" x 16'", measure.FromInt(192), "Stainless", decimal.RequireFromString("11.25")),
			NewStockPreset("Muntin bar 5/8\" x 12'", measure.FromInt(144), "Aluminum", decimal.RequireFromString("4.80")),
		},
	}
}

// FindBladeByID returns a pointer to the blade with the given ID, or nil.
func (inv *Inventory) FindBladeByID(id string) *BladeProfile {
	for i := range inv.Blades {
		if inv.Blades[i].ID == id {
			return &inv.Blades[i]
		}
	}
	return nil
}

// FindStockByID returns a pointer to the stock preset with the given ID, or nil.
func (inv *Inventory) FindStockByID(id string) *StockPreset {
	for i := range inv.Stocks {
		if inv.Stocks[i].ID == id {
			return &inv.Stocks[i]
		}
	}
	return nil
}

// BladeNames returns blade names in inventory order.
func (inv *Inventory) BladeNames() []string {
	names := make([]string, len(inv.Blades))
	for i, b := range inv.Blades {
		names[i] = b.Name
	}
	return names
}

// StockNames returns stock preset names in inventory order.
func (inv *Inventory) StockNames() []string {
	names := make([]string, len(inv.Stocks))
	for i, s := range inv.Stocks {
		names[i] = s.Name
	}
	return names
}

// FindBladeByName returns a pointer to the first blade with the given name, or nil.
func (inv *Inventory) FindBladeByName(name string) *BladeProfile {
	for i := range inv.Blades {
		if inv.Blades[i].Name == name {
			return &inv.Blades[i]
		}
	}
	return nil
}

// FindStockByName returns a pointer to the first stock preset with the given name, or nil.
func (inv *Inventory) FindStockByName(name string) *StockPreset {
	for i := range inv.Stocks {
		if inv.Stocks[i].Name == name {
			return &inv.Stocks[i]
		}
	}
	return nil
}
