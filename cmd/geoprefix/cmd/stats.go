package cmd

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/geoprefix/internal/output"
	"github.com/Aman-CERP/geoprefix/internal/profiling"
	"github.com/Aman-CERP/geoprefix/internal/store"
	"github.com/Aman-CERP/geoprefix/internal/telemetry"
)

// statsResponse is the JSON form of index statistics.
type statsResponse struct {
	DataDir   string `json:"data_dir"`
	Backend   string `json:"backend"`
	Strategy  string `json:"strategy"`
	Documents int    `json:"documents"`
	Tokens    int    `json:"tokens"`
	Numerics  int    `json:"numerics"`
	SizeBytes int64  `json:"size_bytes"`

	Queries *telemetry.Summary `json:"queries,omitempty"`
}

func newStatsCmd(global *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			if err := checkManifest(cfg); err != nil {
				return err
			}
			eng, err := openEngine(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			st := eng.store.Stats()
			resp := statsResponse{
				DataDir:   cfg.Store.DataDir,
				Backend:   st.Backend,
				Strategy:  fmt.Sprint(eng.strategy),
				Documents: st.DocumentCount,
				Tokens:    st.TokenCount,
				Numerics:  st.NumericCount,
				SizeBytes: diskUsage(store.IndexPath(cfg.Store.DataDir, cfg.Store.Backend)),
			}
			if resp.Queries, err = loadQuerySummary(cfg); err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			rows := [][]string{
				{"data dir", resp.DataDir},
				{"backend", resp.Backend},
				{"strategy", resp.Strategy},
				{"documents", strconv.Itoa(resp.Documents)},
				{"tokens", strconv.Itoa(resp.Tokens)},
				{"coordinates", strconv.Itoa(resp.Numerics)},
				{"size", profiling.FormatBytes(uint64(resp.SizeBytes))},
			}
			if q := resp.Queries; q != nil {
				rows = append(rows,
					[]string{"queries", strconv.FormatInt(q.TotalQueries, 10)},
					[]string{"zero-result queries", fmt.Sprintf("%d (%.1f%%)", q.ZeroResultCount, q.ZeroResultPercentage())},
				)
			}

			out := output.New(cmd.OutOrStdout())
			out.Table([]string{"PROPERTY", "VALUE"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output statistics as JSON")

	return cmd
}

// diskUsage sums the sizes of the files at path, which may be a file or a
// directory. Missing paths count as zero.
func diskUsage(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if info, err := d.Info(); err == nil && !d.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}
