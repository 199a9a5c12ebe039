package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/internal/output"
	"github.com/Aman-CERP/geoprefix/internal/telemetry"
	"github.com/Aman-CERP/geoprefix/pkg/query"
	"github.com/Aman-CERP/geoprefix/pkg/searcher"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	circle     string
	bbox       string
	rect       string
	op         string
	limit      int
	distErrPct float64
	format     string // "text", "json"
	explain    bool   // print the compiled query
}

// searchResponse is the JSON form of a search.
type searchResponse struct {
	Args    string   `json:"args"`
	Query   string   `json:"query,omitempty"`
	Count   int      `json:"count"`
	Results []string `json:"results"`
}

func newSearchCmd(global *globalOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find indexed documents by spatial relation",
		Long: `Find indexed documents whose shapes satisfy a spatial operation against a
query shape. Exactly one of --circle, --bbox or --rect selects the shape.

Operations: intersects, iswithin, contains, isdisjointto, overlaps.

Examples:
  geoprefix search --circle -80,33,300
  geoprefix search --bbox 0,0,3000 --limit 10
  geoprefix search --rect -10,10,-5,5 --op iswithin --format json
  geoprefix search --circle 0,0,20 --explain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd.Context(), cmd, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.circle, "circle", "", "Circle query: lon,lat,km")
	cmd.Flags().StringVar(&opts.bbox, "bbox", "", "Bounding box of a circle: lon,lat,km")
	cmd.Flags().StringVar(&opts.rect, "rect", "", "Rectangle query: minX,maxX,minY,maxY")
	cmd.Flags().StringVar(&opts.op, "op", "intersects", "Spatial operation")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 = all)")
	cmd.Flags().Float64Var(&opts.distErrPct, "dist-err-pct", -1, "Query precision as a fraction of shape size (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Print the query the strategy compiles")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, global *globalOptions, opts searchOptions) error {
	start := time.Now()

	if opts.format != "text" && opts.format != "json" {
		return geoerrors.InvalidArgumentError("unknown format %q (use text or json)", opts.format)
	}
	if opts.limit < 0 {
		return geoerrors.InvalidArgumentError("limit must not be negative")
	}

	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	geoCtx, err := cfg.GeoContext()
	if err != nil {
		return err
	}

	op, err := query.ParseOperation(opts.op)
	if err != nil {
		return err
	}
	shape, err := queryShape(geoCtx, opts.circle, opts.bbox, opts.rect)
	if err != nil {
		return err
	}
	args := query.NewSpatialArgs(op, shape)
	if opts.distErrPct >= 0 {
		args = args.WithDistErrPct(opts.distErrPct)
	}

	if err := checkManifest(cfg); err != nil {
		return err
	}
	eng, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	compiled, err := eng.searcher.Query(args)
	if err != nil {
		return err
	}

	results, err := eng.searcher.Search(ctx, args, opts.limit)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	slog.Info("search_complete",
		slog.String("args", args.String()),
		slog.Int("results", len(results)),
		slog.Duration("duration", elapsed))

	recordQuery(cfg, telemetry.QueryEvent{
		Args:        args.String(),
		Operation:   args.Operation.String(),
		Shape:       shapeKind(shape),
		Clauses:     query.Size(compiled.Expression),
		ResultCount: len(results),
		Latency:     elapsed,
	})

	if !opts.explain {
		compiled = nil
	}
	return writeResults(cmd, args, compiled, results, opts.format)
}

func writeResults(cmd *cobra.Command, args query.SpatialArgs, compiled *query.Query, results []searcher.Result, format string) error {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}

	if format == "json" {
		resp := searchResponse{Args: args.String(), Count: len(ids), Results: ids}
		if compiled != nil {
			resp.Query = compiled.String()
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	out := output.New(cmd.OutOrStdout())
	if compiled != nil {
		out.Statusf("🔍", "%s", args)
		out.Statusf("", "query: %s (%d clauses)", compiled, query.Size(compiled.Expression))
		out.Newline()
	}
	for _, id := range ids {
		out.Line(id)
	}
	if compiled != nil {
		out.Newline()
		out.Line(fmt.Sprintf("%d results", len(ids)))
	}
	return nil
}
