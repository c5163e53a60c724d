// Package config loads process settings for the glasscut server and CLI from
// glasscut.yaml and GLASSCUT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
)

// EnvPrefix namespaces environment overrides, e.g. GLASSCUT_SERVER_PORT.
const EnvPrefix = "GLASSCUT"

type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Pricing  PricingConfig  `mapstructure:"pricing" yaml:"pricing"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Cutting  CuttingConfig  `mapstructure:"cutting" yaml:"cutting"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	Mode            string        `mapstructure:"mode" yaml:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// PricingConfig locates the rate table. With SeedFromFile set, an empty store
// is seeded from Path on startup.
type PricingConfig struct {
	Path         string `mapstructure:"path" yaml:"path"`
	SeedFromFile bool   `mapstructure:"seed_from_file" yaml:"seed_from_file"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// CuttingConfig overrides the cut settings. Empty fields keep the defaults.
type CuttingConfig struct {
	StockLength string `mapstructure:"stock_length" yaml:"stock_length"`
	Kerf        string `mapstructure:"kerf" yaml:"kerf"`
	Algorithm   string `mapstructure:"algorithm" yaml:"algorithm"`
	StockLabel  string `mapstructure:"stock_label" yaml:"stock_label"`
}

// Dir is the per-user directory searched for glasscut.yaml.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".glasscut")
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.path", filepath.Join(Dir(), "glasscut.db"))
	v.SetDefault("pricing.path", filepath.Join(Dir(), "pricing.yaml"))
	v.SetDefault("pricing.seed_from_file", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("cutting.stock_length", "")
	v.SetDefault("cutting.kerf", "")
	v.SetDefault("cutting.algorithm", "")
	v.SetDefault("cutting.stock_label", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration. An explicit path must exist; otherwise
// glasscut.yaml is looked up in ./configs, . and ~/.glasscut, and a missing
// file just means defaults plus environment.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("glasscut")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot type-check.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if _, err := c.Cutting.Apply(model.DefaultSettings()); err != nil {
		return err
	}
	return nil
}

// Apply layers the configured cutting overrides onto settings.
func (c CuttingConfig) Apply(settings model.CutSettings) (model.CutSettings, error) {
	if c.StockLength != "" {
		stock, err := measure.Parse(c.StockLength)
		if err != nil {
			return settings, fmt.Errorf("cutting.stock_length: %w", err)
		}
		if stock.Sign() <= 0 {
			return settings, fmt.Errorf("cutting.stock_length must be positive, got %s", stock.Exact())
		}
		settings.StockLength = stock
	}
	if c.Kerf != "" {
		kerf, err := measure.Parse(c.Kerf)
		if err != nil {
			return settings, fmt.Errorf("cutting.kerf: %w", err)
		}
		if kerf.Sign() < 0 {
			return settings, fmt.Errorf("cutting.kerf must not be negative, got %s", kerf.Exact())
		}
		settings.Kerf = kerf
	}
	if c.Algorithm != "" {
		algorithm := model.Algorithm(c.Algorithm)
		if !algorithm.Valid() {
			return settings, fmt.Errorf("cutting.algorithm: unknown algorithm %q", c.Algorithm)
		}
		settings.Algorithm = algorithm
	}
	if c.StockLabel != "" {
		settings.StockLabel = c.StockLabel
	}
	return settings, nil
}

// WriteDefault writes a glasscut.yaml holding every default. An existing file
// is only replaced when overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	v := newViper()
	v.SetConfigType("yaml")
	if overwrite {
		return v.WriteConfigAs(path)
	}
	return v.SafeWriteConfigAs(path)
}
