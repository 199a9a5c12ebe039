package searcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Aman-CERP/geoprefix/internal/store"
	"github.com/Aman-CERP/geoprefix/pkg/query"
	"github.com/Aman-CERP/geoprefix/pkg/strategy"
)

// SpatialSearcher evaluates strategy queries in a store.
//
// Thread-safe for concurrent use.
type SpatialSearcher struct {
	strategy strategy.Strategy
	store    store.SpatialIndex
	mu       sync.RWMutex
}

// Option configures SpatialSearcher.
type Option func(*SpatialSearcher)

// WithStrategy sets the strategy that builds queries. Required.
func WithStrategy(s strategy.Strategy) Option {
	return func(searcher *SpatialSearcher) {
		searcher.strategy = s
	}
}

// WithStore sets the store backend. Required.
func WithStore(s store.SpatialIndex) Option {
	return func(searcher *SpatialSearcher) {
		searcher.store = s
	}
}

// NewSpatialSearcher creates a new spatial searcher.
//
// Returns ErrNilStrategy or ErrNilStore if a required option is missing.
func NewSpatialSearcher(opts ...Option) (*SpatialSearcher, error) {
	s := &SpatialSearcher{}

	for _, opt := range opts {
		opt(s)
	}

	if s.strategy == nil {
		return nil, ErrNilStrategy
	}
	if s.store == nil {
		return nil, ErrNilStore
	}

	return s, nil
}

// Query returns the query Search would run for args.
func (s *SpatialSearcher) Query(args query.SpatialArgs) (*query.Query, error) {
	return s.strategy.MakeQuery(args)
}

// Search builds the query for args, evaluates it and applies the distance
// filter when the strategy produced one.
func (s *SpatialSearcher) Search(ctx context.Context, args query.SpatialArgs, limit int) ([]Result, error) {
	start := time.Now()

	q, err := s.strategy.MakeQuery(args)
	if err != nil {
		return nil, err
	}

	// The filter drops candidates, so the store cannot apply the limit.
	opts := store.SearchOptions{Limit: limit}
	if q.Filter != nil {
		opts = store.SearchOptions{Fields: q.Filter.Fields()}
	}

	s.mu.RLock()
	hits, err := s.store.Search(ctx, q.Expression, opts)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("spatial search failed: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		if q.Filter != nil && !acceptHit(q.Filter, h) {
			continue
		}
		results = append(results, Result{ID: h.ID})
	}
	results = truncateResults(results, limit)

	slog.Debug("spatial_search",
		slog.String("operation", args.Operation.String()),
		slog.String("field", s.strategy.FieldName()),
		slog.Int("clauses", query.Size(q.Expression)),
		slog.Int("candidates", len(hits)),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))

	return results, nil
}

// acceptHit pairs the i-th x value with the i-th y value, relying on stores
// returning values in indexing order (see store.Hit).
func acceptHit(f *query.PointFilter, h *store.Hit) bool {
	return f.AcceptAll(h.Values[f.XField], h.Values[f.YField])
}

// Ensure SpatialSearcher implements Searcher at compile time.
var _ Searcher = (*SpatialSearcher)(nil)
