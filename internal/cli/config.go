package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/piwi3910/GlassCut/internal/config"
	"github.com/piwi3910/GlassCut/internal/model"
	"github.com/piwi3910/GlassCut/internal/project"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, show, back up and restore configuration",
	}
	cmd.AddCommand(
		newConfigInitCmd(a),
		newConfigShowCmd(a),
		newConfigBackupCmd(a),
		newConfigRestoreCmd(a),
		newConfigImportInventoryCmd(a),
		newConfigRecentCmd(a),
	)
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write starter glasscut.yaml, rate table, shop preferences and inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			report := func(path string, written bool) {
				if written {
					fmt.Fprintf(out, "%s %s\n", color.GreenString("created"), path)
				} else {
					fmt.Fprintf(out, "%s %s\n", color.YellowString("kept   "), path)
				}
			}

			cfgPath := a.cfgFile
			if cfgPath == "" {
				cfgPath = filepath.Join(config.Dir(), "glasscut.yaml")
			}
			written, err := writeIfMissing(cfgPath, force, func() error {
				return config.WriteDefault(cfgPath, true)
			})
			if err != nil {
				return err
			}
			report(cfgPath, written)

			pricingPath := a.pricingPath("")
			written, err = project.InitPricingConfig(pricingPath, force)
			if err != nil {
				return err
			}
			report(pricingPath, written)

			appPath := a.appConfigPath()
			written, err = writeIfMissing(appPath, force, func() error {
				return project.SaveAppConfig(appPath, model.DefaultAppConfig())
			})
			if err != nil {
				return err
			}
			report(appPath, written)

			invPath := project.DefaultInventoryPath()
			written, err = writeIfMissing(invPath, force, func() error {
				return project.SaveInventory(invPath, model.DefaultInventory())
			})
			if err != nil {
				return err
			}
			report(invPath, written)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

// writeIfMissing runs write unless path exists and force is unset.
func writeIfMissing(path string, force bool, write func() error) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	if err := write(); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newConfigBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Save shop preferences, inventory and rate table to one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := project.LoadInventory(project.DefaultInventoryPath())
			if err != nil {
				return err
			}
			var rates *model.PricingConfig
			if cfg, err := project.LoadPricingConfig(a.pricingPath("")); err == nil {
				rates = &cfg
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("warning: rate table not included: %v", err))
			}
			if err := project.ExportAllData(args[0], a.appCfg, inv, rates); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Backed up to %s", args[0]))
			return nil
		},
	}
}

func newConfigRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore shop preferences, inventory and rate table from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := project.ImportAllData(args[0])
			if err != nil {
				return err
			}
			if err := project.SaveAppConfig(a.appConfigPath(), data.Config); err != nil {
				return err
			}
			if err := project.SaveInventory(project.DefaultInventoryPath(), data.Inventory); err != nil {
				return err
			}
			if data.Pricing != nil {
				a.appCfg = data.Config
				if err := project.SavePricingConfig(a.pricingPath(""), *data.Pricing); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("Restored backup from %s (%s)", args[0], data.CreatedAt))
			return nil
		},
	}
}

func newConfigImportInventoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-inventory <file>",
		Short: "Add stock presets and blades from another shop's inventory file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invPath := project.DefaultInventoryPath()
			existing, err := project.LoadInventory(invPath)
			if err != nil {
				return err
			}
			merged, err := project.ImportInventory(args[0], existing)
			if err != nil {
				return fmt.Errorf("failed to import inventory: %w", err)
			}
			if err := project.SaveInventory(invPath, merged); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d stock presets, %d blades from %s\n",
				color.GreenString("Imported"),
				len(merged.Stocks)-len(existing.Stocks),
				len(merged.Blades)-len(existing.Blades),
				args[0])
			return nil
		},
	}
}

func newConfigRecentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List recently saved job files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(a.appCfg.RecentProjects) == 0 {
				fmt.Fprintln(out, "No recent jobs.")
				return nil
			}
			for i, p := range a.appCfg.RecentProjects {
				fmt.Fprintf(out, "%2d. %s\n", i+1, p)
			}
			return nil
		},
	}
}
