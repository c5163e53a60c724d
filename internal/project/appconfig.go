package project

import (
	"os"
	"path/filepath"

	"github.com/piwi3910/GlassCut/internal/model"
)

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.glasscut/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".glasscut")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig persists an AppConfig to the given path.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	return writeFile(path, config)
}

// LoadAppConfig reads an AppConfig from the given path.
// If the file does not exist, it returns DefaultAppConfig with no error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.AppConfig{}, err
	}
	config := model.DefaultAppConfig()
	if err := decode(path, data, &config); err != nil {
		return model.AppConfig{}, err
	}
	if config.RecentProjects == nil {
		config.RecentProjects = []string{}
	}
	return config, nil
}

// PricingPath resolves where the pricing table lives for this config.
func PricingPath(config model.AppConfig) string {
	if config.PricingConfigPath != "" {
		return config.PricingConfigPath
	}
	return DefaultPricingPath()
}

// AddRecentProject moves path to the front of the recent list, keeping at
// most limit entries.
func AddRecentProject(config *model.AppConfig, path string, limit int) {
	recent := []string{path}
	for _, p := range config.RecentProjects {
		if p != path && len(recent) < limit {
			recent = append(recent, p)
		}
	}
	config.RecentProjects = recent
}
