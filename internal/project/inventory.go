package project

import (
	"os"
	"path/filepath"

	"github.com/piwi3910/GlassCut/internal/model"
)

// DefaultInventoryPath returns the default file path for the inventory file.
// This is located at ~/.glasscut/inventory.json.
func DefaultInventoryPath() string {
	return filepath.Join(DefaultConfigDir(), "inventory.json")
}

// SaveInventory writes the inventory to the specified file.
// It creates parent directories if they do not exist.
func SaveInventory(path string, inv model.Inventory) error {
	return writeFile(path, inv)
}

// LoadInventory reads the inventory from the specified file.
// If the file does not exist, it returns the default inventory and saves it.
func LoadInventory(path string) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			inv := model.DefaultInventory()
			if saveErr := SaveInventory(path, inv); saveErr != nil {
				return inv, saveErr
			}
			return inv, nil
		}
		return model.Inventory{}, err
	}
	var inv model.Inventory
	if err := decode(path, data, &inv); err != nil {
		return model.Inventory{}, err
	}
	return inv, nil
}

// ImportInventory reads an inventory file and merges it into existing.
// Entries whose ID is already present are skipped.
func ImportInventory(path string, existing model.Inventory) (model.Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, err
	}
	var imported model.Inventory
	if err := decode(path, data, &imported); err != nil {
		return existing, err
	}
	return MergeInventory(existing, imported), nil
}

// MergeInventory appends the blades and stocks of imported that existing
// does not already have.
func MergeInventory(existing, imported model.Inventory) model.Inventory {
	bladeIDs := make(map[string]bool, len(existing.Blades))
	for _, b := range existing.Blades {
		bladeIDs[b.ID] = true
	}
	stockIDs := make(map[string]bool, len(existing.Stocks))
	for _, s := range existing.Stocks {
		stockIDs[s.ID] = true
	}

	for _, b := range imported.Blades {
		if !bladeIDs[b.ID] {
			existing.Blades = append(existing.Blades, b)
			bladeIDs[b.ID] = true
		}
	}
	for _, s := range imported.Stocks {
		if !stockIDs[s.ID] {
			existing.Stocks = append(existing.Stocks, s)
			stockIDs[s.ID] = true
		}
	}
	return existing
}
