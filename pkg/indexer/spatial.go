package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/internal/store"
	"github.com/Aman-CERP/geoprefix/pkg/query"
	"github.com/Aman-CERP/geoprefix/pkg/strategy"
)

// ErrNilStore is returned when attempting to create a SpatialIndexer without a store.
var ErrNilStore = errors.New("spatial store is required")

// ErrNilStrategy is returned when attempting to create a SpatialIndexer without a strategy.
var ErrNilStrategy = errors.New("spatial strategy is required")

// SpatialIndexer converts each document's shapes to fields with a strategy
// and writes them to a store.SpatialIndex.
//
// SpatialIndexer is safe for concurrent use. All methods may be called
// from multiple goroutines simultaneously.
type SpatialIndexer struct {
	strategy strategy.Strategy
	store    store.SpatialIndex
	workers  int
	mu       sync.RWMutex
	closed   bool
}

// Option configures a SpatialIndexer.
type Option func(*SpatialIndexer)

// WithStrategy sets the strategy that produces fields. Required.
func WithStrategy(s strategy.Strategy) Option {
	return func(i *SpatialIndexer) {
		i.strategy = s
	}
}

// WithStore sets the store backend. Required.
func WithStore(s store.SpatialIndex) Option {
	return func(i *SpatialIndexer) {
		i.store = s
	}
}

// WithWorkers bounds how many documents are converted concurrently.
// Values below 1 select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(i *SpatialIndexer) {
		i.workers = n
	}
}

// NewSpatialIndexer creates a new spatial indexer with the given options.
//
// Returns ErrNilStrategy or ErrNilStore if a required option is missing.
func NewSpatialIndexer(opts ...Option) (*SpatialIndexer, error) {
	i := &SpatialIndexer{}

	for _, opt := range opts {
		opt(i)
	}

	if i.strategy == nil {
		return nil, ErrNilStrategy
	}
	if i.store == nil {
		return nil, ErrNilStore
	}
	if i.workers < 1 {
		i.workers = runtime.GOMAXPROCS(0)
	}

	return i, nil
}

// Strategy returns the strategy documents are indexed with.
func (i *SpatialIndexer) Strategy() strategy.Strategy {
	return i.strategy
}

// Index converts documents to fields and writes them as one batch.
//
// Fields repeated across a document's shapes are written once. A shape the
// strategy rejects fails the whole batch before anything is written.
// Empty or nil slices are no-ops that return nil.
//
// This method is thread-safe.
func (i *SpatialIndexer) Index(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	for j, doc := range docs {
		if doc == nil {
			return geoerrors.InvalidArgumentError("document %d is nil", j)
		}
	}

	start := time.Now()
	storeDocs := make([]*store.Document, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for j, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fields, err := i.documentFields(doc)
			if err != nil {
				return err
			}
			storeDocs[j] = &store.Document{ID: doc.ID, Fields: fields}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return fmt.Errorf("indexer is closed")
	}
	if err := i.store.Index(ctx, storeDocs); err != nil {
		return fmt.Errorf("spatial index: %w", err)
	}

	slog.Debug("spatial_index_batch",
		slog.Int("documents", len(docs)),
		slog.String("strategy", i.strategy.FieldName()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// documentFields collects the fields of every shape in doc. Repeated tokens
// are dropped; numeric fields are kept as produced so that the coordinates of
// each point stay at the same position in every numeric field.
func (i *SpatialIndexer) documentFields(doc *Document) ([]query.Field, error) {
	if doc.ID == "" {
		return nil, geoerrors.InvalidArgumentError("document ID is empty")
	}

	seen := make(map[query.Field]struct{})
	var fields []query.Field
	for n, shape := range doc.Shapes {
		if shape == nil {
			return nil, geoerrors.InvalidArgumentError("document %s: shape %d is nil", doc.ID, n)
		}
		seq, err := i.strategy.Fields(shape)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID, err)
		}
		for f := range seq {
			if f.Numeric {
				fields = append(fields, f)
				continue
			}
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			fields = append(fields, f)
		}
	}
	return fields, nil
}

// Delete removes documents by ID.
//
// Non-existent IDs are silently ignored (no error).
// Empty or nil slices are no-ops that return nil.
func (i *SpatialIndexer) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.store.Delete(ctx, ids); err != nil {
		return fmt.Errorf("spatial delete: %w", err)
	}

	return nil
}

// Clear removes every document from the store.
//
// An empty index is a no-op.
func (i *SpatialIndexer) Clear(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	ids, err := i.store.AllIDs()
	if err != nil {
		return fmt.Errorf("spatial get all IDs: %w", err)
	}

	if len(ids) == 0 {
		return nil
	}

	if err := i.store.Delete(ctx, ids); err != nil {
		return fmt.Errorf("spatial clear: %w", err)
	}

	slog.Info("spatial_index_cleared_documents", slog.Int("documents", len(ids)))
	return nil
}

// Stats returns current index statistics.
func (i *SpatialIndexer) Stats() IndexStats {
	i.mu.RLock()
	defer i.mu.RUnlock()

	storeStats := i.store.Stats()
	return IndexStats{
		DocumentCount: storeStats.DocumentCount,
		TokenCount:    storeStats.TokenCount,
		NumericCount:  storeStats.NumericCount,
	}
}

// Close releases the store.
//
// This method is idempotent; calling it multiple times is safe.
func (i *SpatialIndexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}

	i.closed = true

	if err := i.store.Close(); err != nil {
		return fmt.Errorf("spatial close: %w", err)
	}

	return nil
}

// Ensure SpatialIndexer implements Indexer at compile time.
var _ Indexer = (*SpatialIndexer)(nil)
