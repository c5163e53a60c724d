package project

import (
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/GlassCut/internal/model"
)

const backupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of all shop data.
type BackupData struct {
	Version   string               `json:"version" yaml:"version"`
	CreatedAt string               `json:"created_at" yaml:"created_at"`
	Config    model.AppConfig      `json:"config" yaml:"config"`
	Inventory model.Inventory      `json:"inventory" yaml:"inventory"`
	Pricing   *model.PricingConfig `json:"pricing,omitempty" yaml:"pricing,omitempty"`
}

// ExportAllData writes config, inventory and (when given) the rate table to a
// single file at exportPath.
func ExportAllData(exportPath string, config model.AppConfig, inv model.Inventory, pricing *model.PricingConfig) error {
	backup := BackupData{
		Version:   backupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Inventory: inv,
		Pricing:   pricing,
	}
	if err := writeFile(exportPath, backup); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup file and returns the contained data.
// The caller is responsible for applying it.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := decode(importPath, data, &backup); err != nil {
		return BackupData{}, err
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Pricing != nil {
		cfg := backup.Pricing.WithDefaults()
		if err := cfg.Validate(); err != nil {
			return BackupData{}, fmt.Errorf("invalid backup file: %w", err)
		}
		backup.Pricing = &cfg
	}
	if backup.Config.RecentProjects == nil {
		backup.Config.RecentProjects = []string{}
	}
	return backup, nil
}
