package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNoIndexers is returned when attempting to create a MultiIndexer without any indexers.
var ErrNoIndexers = errors.New("at least one indexer is required")

// MultiIndexer writes the same documents through several indexers, each
// typically a SpatialIndexer with its own strategy and field name.
//
// MultiIndexer is safe for concurrent use.
type MultiIndexer struct {
	indexers []Indexer
	mu       sync.RWMutex
	closed   bool
}

// NewMultiIndexer composes indexers. Nil entries are skipped.
//
// Returns ErrNoIndexers if none remain.
func NewMultiIndexer(indexers ...Indexer) (*MultiIndexer, error) {
	m := &MultiIndexer{}
	for _, ix := range indexers {
		if ix != nil {
			m.indexers = append(m.indexers, ix)
		}
	}

	if len(m.indexers) == 0 {
		return nil, ErrNoIndexers
	}

	return m, nil
}

// Index sends documents to each indexer in order.
//
// Fails fast: the first error is returned and later indexers are skipped.
// Empty or nil slices are no-ops that return nil.
func (m *MultiIndexer) Index(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for n, ix := range m.indexers {
		if err := ix.Index(ctx, docs); err != nil {
			return fmt.Errorf("multi index %d: %w", n, err)
		}
	}

	return nil
}

// Delete removes documents from every indexer.
//
// Best-effort: every indexer is attempted even if one fails, and the
// errors are joined.
func (m *MultiIndexer) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for n, ix := range m.indexers {
		if err := ix.Delete(ctx, ids); err != nil {
			errs = append(errs, fmt.Errorf("multi delete %d: %w", n, err))
		}
	}

	return errors.Join(errs...)
}

// Clear clears every indexer, stopping at the first failure.
func (m *MultiIndexer) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for n, ix := range m.indexers {
		if err := ix.Clear(ctx); err != nil {
			return fmt.Errorf("multi clear %d: %w", n, err)
		}
	}

	return nil
}

// Stats aggregates statistics:
//   - DocumentCount: maximum over indexers (equal when consistent)
//   - TokenCount, NumericCount: sums
func (m *MultiIndexer) Stats() IndexStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats IndexStats
	for _, ix := range m.indexers {
		s := ix.Stats()
		stats.DocumentCount = max(stats.DocumentCount, s.DocumentCount)
		stats.TokenCount += s.TokenCount
		stats.NumericCount += s.NumericCount
	}

	return stats
}

// Close closes every indexer even if one fails. Errors are joined.
//
// This method is idempotent; calling it multiple times is safe.
func (m *MultiIndexer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true

	var errs []error
	for n, ix := range m.indexers {
		if err := ix.Close(); err != nil {
			errs = append(errs, fmt.Errorf("multi close %d: %w", n, err))
		}
	}

	return errors.Join(errs...)
}

// Ensure MultiIndexer implements Indexer at compile time.
var _ Indexer = (*MultiIndexer)(nil)
