package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/GlassCut/internal/model"
)

func TestExportAndImportAllData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")

	cfg := model.DefaultAppConfig()
	cfg.CompanyName = "Harbor Glass"
	pricing := model.DefaultPricingConfig()

	if err := ExportAllData(path, cfg, model.DefaultInventory(), &pricing); err != nil {
		t.Fatalf("ExportAllData failed: %v", err)
	}

	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}
	if backup.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %s", backup.Version)
	}
	if backup.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if backup.Config.CompanyName != "Harbor Glass" {
		t.Errorf("expected CompanyName=Harbor Glass, got %s", backup.Config.CompanyName)
	}
	if len(backup.Inventory.Stocks) == 0 {
		t.Error("expected inventory stocks in backup")
	}
	if backup.Pricing == nil || len(backup.Pricing.Rates) != len(pricing.Rates) {
		t.Error("expected pricing table in backup")
	}
}

func TestExportAllDataWithoutPricing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.yaml")
	if err := ExportAllData(path, model.DefaultAppConfig(), model.Inventory{}, nil); err != nil {
		t.Fatalf("ExportAllData failed: %v", err)
	}
	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}
	if backup.Pricing != nil {
		t.Error("expected no pricing table")
	}
}

func TestImportAllDataMissingFile(t *testing.T) {
	if _, err := ImportAllData(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportAllDataInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportAllData(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestImportAllDataMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noversion.json")
	if err := os.WriteFile(path, []byte(`{"config":{"company_name":"x"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportAllData(path); err == nil {
		t.Fatal("expected error for missing version")
	}
}

func TestImportAllDataRejectsBrokenPricing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	data := []byte(`{"version":"1.0.0","pricing":{"rates":[]}}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportAllData(path); err == nil {
		t.Fatal("expected error for empty rate table")
	}
}

func TestExportAllDataCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "backup.json")
	if err := ExportAllData(path, model.DefaultAppConfig(), model.DefaultInventory(), nil); err != nil {
		t.Fatalf("ExportAllData failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("backup file not created: %v", err)
	}
}
