package cmd

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/internal/output"
	"github.com/Aman-CERP/geoprefix/internal/profiling"
	"github.com/Aman-CERP/geoprefix/internal/store"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
	"github.com/Aman-CERP/geoprefix/pkg/indexer"
)

type indexOptions struct {
	reset bool
	quiet bool
}

func newIndexCmd(global *globalOptions) *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index <file.csv|->",
		Short: "Index shapes from a CSV file",
		Long: `Index shapes from a CSV file ("-" reads stdin). Each row is an ID followed
by coordinates:

  id,lon,lat                  point
  id,lon,lat,km               circle
  id,minX,maxX,minY,maxY      rectangle

Rows sharing an ID form one multi-shape document. A header row and lines
starting with '#' are skipped. Re-indexing an ID replaces its shapes.

Examples:
  geoprefix index cities.csv
  geoprefix index --reset zones.csv
  cat points.csv | geoprefix index -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, global, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.reset, "reset", false, "Remove every indexed document first")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress output")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, global *globalOptions, path string, opts indexOptions) error {
	start := time.Now()
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(cmd, path)
	if err != nil {
		return err
	}
	defer closeIn()

	geoCtx, err := cfg.GeoContext()
	if err != nil {
		return err
	}
	docs, err := readDocuments(in, geoCtx)
	if err != nil {
		return err
	}

	lock := store.NewWriteLock(cfg.Store.DataDir)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	if !opts.reset {
		if err := checkManifest(cfg); err != nil {
			return err
		}
	}

	eng, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	if opts.reset {
		if err := eng.indexer.Clear(ctx); err != nil {
			return err
		}
	}

	batch := cfg.Indexing.BatchSize
	for lo := 0; lo < len(docs); lo += batch {
		hi := min(lo+batch, len(docs))
		if err := eng.indexer.Index(ctx, docs[lo:hi]); err != nil {
			return err
		}
		if !opts.quiet {
			out.Progress(hi, len(docs), "indexing")
		}
	}

	if err := writeManifest(cfg.Store.DataDir, manifestFor(cfg)); err != nil {
		return err
	}

	stats := eng.indexer.Stats()
	slog.Info("index_complete",
		slog.String("source", path),
		slog.Int("documents", len(docs)),
		slog.Int("total_documents", stats.DocumentCount),
		slog.String("heap_in_use", profiling.FormatBytes(profiling.HeapInUse())),
		slog.Duration("duration", time.Since(start)))

	if !opts.quiet {
		out.Successf("Indexed %d documents with %s (%d documents, %d tokens, %d coordinates in index)",
			len(docs), eng.strategy, stats.DocumentCount, stats.TokenCount, stats.NumericCount)
	}
	return nil
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, geoerrors.IOError(fmt.Sprintf("cannot open %s", path), err)
	}
	return f, func() { _ = f.Close() }, nil
}

// readDocuments parses CSV rows into documents, merging rows with the same
// ID in first-seen order.
func readDocuments(r io.Reader, ctx *geo.Context) ([]*indexer.Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	var docs []*indexer.Document
	byID := make(map[string]*indexer.Document)

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, geoerrors.InvalidArgumentError("csv: %v", err)
		}
		if row == 1 && isHeader(record) {
			continue
		}
		if len(record) < 3 {
			return nil, geoerrors.InvalidArgumentError("row %d: expected id and 2 to 4 coordinates", row)
		}

		id := strings.TrimSpace(record[0])
		values, err := parseFields(record[1:])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		shape, err := shapeFromValues(ctx, values)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		doc, ok := byID[id]
		if !ok {
			doc = &indexer.Document{ID: id}
			byID[id] = doc
			docs = append(docs, doc)
		}
		doc.Shapes = append(doc.Shapes, shape)
	}

	return docs, nil
}

// isHeader reports whether the first coordinate column is not a number.
func isHeader(record []string) bool {
	if len(record) < 2 {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	return err != nil
}
