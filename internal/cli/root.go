// Package cli implements the glasscut command line: measurement parsing,
// glass quotes, spacer cutting plans and the HTTP server.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/piwi3910/GlassCut/internal/config"
	"github.com/piwi3910/GlassCut/internal/logging"
	"github.com/piwi3910/GlassCut/internal/measure"
	"github.com/piwi3910/GlassCut/internal/model"
	"github.com/piwi3910/GlassCut/internal/project"
)

// app carries what the persistent flags load for every subcommand.
type app struct {
	cfgFile    string
	appCfgFile string
	noColor    bool
	logLevel   string

	cfg    *config.Config
	appCfg model.AppConfig
	logger *zap.Logger
}

// NewRootCmd builds the command tree. Each call returns an independent tree,
// so tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "glasscut",
		Short: "Glass quoting and spacer cutting for window shops",
		Long: `glasscut prices glass pieces from a rate table, plans spacer bar cuts
with minimal waste and reads shop-floor measurements like "48 1/2" exactly.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "path to glasscut.yaml")
	root.PersistentFlags().StringVar(&a.appCfgFile, "app-config", "", "path to the shop preferences file (default ~/.glasscut/config.json)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable ANSI color output")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the log level (debug, info, warn, error)")

	root.AddCommand(
		newParseCmd(a),
		newQuoteCmd(a),
		newCutCmd(a),
		newSpacersCmd(a),
		newConfigCmd(a),
		newServeCmd(a),
	)
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) load() error {
	if a.noColor {
		color.NoColor = true
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	a.logger = logger

	appCfg, err := project.LoadAppConfig(a.appConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load shop preferences from %s: %w", a.appConfigPath(), err)
	}
	a.appCfg = appCfg
	return nil
}

func (a *app) appConfigPath() string {
	if a.appCfgFile != "" {
		return a.appCfgFile
	}
	return project.DefaultConfigPath()
}

// settings layers the shop preferences and then glasscut.yaml over the
// built-in cut settings.
func (a *app) settings() (model.CutSettings, error) {
	s := model.DefaultSettings()
	a.appCfg.ApplyToSettings(&s)
	return a.cfg.Cutting.Apply(s)
}

// pricingPath resolves the rate table file: an explicit flag, then the shop
// preferences, then glasscut.yaml.
func (a *app) pricingPath(flag string) string {
	if flag != "" {
		return flag
	}
	if a.appCfg.PricingConfigPath != "" {
		return project.PricingPath(a.appCfg)
	}
	return a.cfg.Pricing.Path
}

func (a *app) graduation() int64 {
	if a.appCfg.DisplayDenominator > 0 {
		return a.appCfg.DisplayDenominator
	}
	return measure.DefaultMaxDenominator
}

// inch formats m for display at the shop's graduation.
func (a *app) inch(m measure.Measurement) string {
	return measure.FormatRounded(m, a.graduation()) + `"`
}
