package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/geoprefix/internal/output"
	"github.com/Aman-CERP/geoprefix/internal/store"
)

func newDeleteCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Remove documents from the index",
		Long: `Remove documents by ID. Unknown IDs are ignored.

Examples:
  geoprefix delete 5 14
  geoprefix delete corner`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			lock := store.NewWriteLock(cfg.Store.DataDir)
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			if err := checkManifest(cfg); err != nil {
				return err
			}
			eng, err := openEngine(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			before := eng.indexer.Stats().DocumentCount
			if err := eng.indexer.Delete(cmd.Context(), args); err != nil {
				return err
			}
			removed := before - eng.indexer.Stats().DocumentCount

			slog.Info("delete_complete", slog.Int("requested", len(args)), slog.Int("removed", removed))
			output.New(cmd.OutOrStdout()).Successf("Removed %d of %d documents", removed, len(args))
			return nil
		},
	}
}
