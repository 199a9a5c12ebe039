package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/geoprefix/internal/config"
	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/internal/output"
)

func newConfigCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage geoprefix configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/geoprefix/config.yaml)
  3. Project config (.geoprefix.yaml)
  4. Environment variables (GEOPREFIX_*)`,
		Example: `  # Write the defaults as the user config
  geoprefix config init

  # Write a project config instead
  geoprefix config init --project

  # Show effective configuration
  geoprefix config show --json`,
	}

	cmd.AddCommand(newConfigInitCmd(global))
	cmd.AddCommand(newConfigShowCmd(global))
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigInitCmd(global *globalOptions) *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with default values",
		Long: `Create a configuration file holding the default values.

Without --project the user config is written; an existing user config is
backed up first and only replaced with --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			cfg := config.NewConfig()

			if project {
				path := filepath.Join(global.dir, config.ProjectConfigName)
				if fileExists(path) && !force {
					return configExistsError(path)
				}
				if err := cfg.WriteYAML(path); err != nil {
					return err
				}
				out.Successf("Wrote %s", path)
				return nil
			}

			path := config.GetUserConfigPath()
			if config.UserConfigExists() && !force {
				return configExistsError(path)
			}
			backup, err := config.WriteUserConfig(cfg)
			if err != nil {
				return err
			}
			out.Successf("Wrote %s", path)
			if backup != "" {
				out.Statusf("", "previous config saved to %s", backup)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	cmd.Flags().BoolVar(&project, "project", false, "Write .geoprefix.yaml in the project directory")

	return cmd
}

func configExistsError(path string) error {
	return geoerrors.ConfigurationError(fmt.Sprintf("configuration already exists: %s", path), nil).
		WithSuggestion("Use --force to overwrite")
}

func newConfigShowCmd(global *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "restore [backup]",
		Short: "Restore the user config from a backup",
		Long: `Restore the user config from a backup. Without an argument the newest
backup is used. --list prints the available backups, newest first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			backups, err := config.ListUserConfigBackups()
			if err != nil {
				return err
			}
			if list {
				for _, b := range backups {
					out.Line(b)
				}
				return nil
			}

			var target string
			switch {
			case len(args) == 1:
				target = args[0]
			case len(backups) > 0:
				target = backups[0]
			default:
				return geoerrors.New(geoerrors.ErrCodeConfigNotFound, "no user config backups found", nil)
			}

			if err := config.RestoreUserConfig(target); err != nil {
				return err
			}
			out.Successf("Restored %s from %s", config.GetUserConfigPath(), target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List available backups")

	return cmd
}
