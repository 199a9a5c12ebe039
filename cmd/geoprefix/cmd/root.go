// Package cmd provides the CLI commands for geoprefix.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/geoprefix/internal/config"
	"github.com/Aman-CERP/geoprefix/internal/logging"
	"github.com/Aman-CERP/geoprefix/internal/profiling"
	"github.com/Aman-CERP/geoprefix/pkg/version"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	dir      string
	debug    bool
	profiles profiling.Options
}

// NewRootCmd creates the root command for the geoprefix CLI.
func NewRootCmd() *cobra.Command {
	var (
		opts           globalOptions
		loggingCleanup func()
		session        *profiling.Session
	)

	cmd := &cobra.Command{
		Use:   "geoprefix",
		Short: "Prefix-tree spatial indexing for points and shapes",
		Long: `geoprefix indexes points, rectangles and circles as grid-cell tokens
(geohash or quad) or as coordinate pairs, and answers spatial queries
(intersects, within, contains, disjoint) against an on-disk store.

Configuration is read from ~/.config/geoprefix/config.yaml, then
.geoprefix.yaml in the project directory, then GEOPREFIX_* variables.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("geoprefix version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "Project directory (config and index location)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging to ~/.geoprefix/logs/")
	cmd.PersistentFlags().StringVar(&opts.profiles.CPUPath, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&opts.profiles.HeapPath, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&opts.profiles.TracePath, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		cleanup, err := setupLogging(opts)
		if err != nil {
			return err
		}
		loggingCleanup = cleanup

		if opts.profiles.Enabled() {
			session, err = profiling.Start(opts.profiles)
			if err != nil {
				return err
			}
		}
		return nil
	}

	cmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		var err error
		if session != nil {
			err = session.Stop()
			session = nil
		}
		if loggingCleanup != nil {
			loggingCleanup()
			loggingCleanup = nil
		}
		return err
	}

	cmd.AddCommand(newIndexCmd(&opts))
	cmd.AddCommand(newSearchCmd(&opts))
	cmd.AddCommand(newDeleteCmd(&opts))
	cmd.AddCommand(newStatsCmd(&opts))
	cmd.AddCommand(newTokensCmd(&opts))
	cmd.AddCommand(newValidateCmd(&opts))
	cmd.AddCommand(newConfigCmd(&opts))
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// setupLogging installs the default slog logger. The level comes from the
// project configuration when it loads; --debug forces debug level and adds
// the rotating log file.
func setupLogging(opts globalOptions) (func(), error) {
	logCfg := logging.DefaultConfig()
	if cfg, err := config.Load(opts.dir); err == nil {
		logCfg.Level = cfg.Logging.Level
		logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
		logCfg.MaxFiles = cfg.Logging.MaxFiles
	}
	if opts.debug {
		logCfg.Level = "debug"
		logCfg.FilePath = logging.DefaultLogPath()
	}

	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	if opts.debug {
		slog.Debug("debug_logging_enabled",
			slog.String("log_file", logCfg.FilePath),
			slog.String("version", version.Version),
			slog.Int("pid", os.Getpid()))
	}
	return cleanup, nil
}
