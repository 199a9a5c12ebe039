package indexer

import (
	"context"

	"github.com/Aman-CERP/geoprefix/pkg/geo"
)

// Document is one record to index: an ID and the shapes it occupies.
type Document struct {
	ID     string
	Shapes []geo.Shape
}

// Indexer defines the contract for indexing operations.
//
// Implementations must be thread-safe for concurrent use.
// All methods accept a context for cancellation and timeout support.
type Indexer interface {
	// Index adds documents to the index.
	//
	// Behavior:
	//   - Idempotent: re-indexing the same ID replaces its shapes
	//   - Thread-safe: may be called concurrently
	//   - Empty slice is a no-op (returns nil)
	//
	// Returns an error if a shape cannot be indexed or the store fails.
	Index(ctx context.Context, docs []*Document) error

	// Delete removes documents by ID.
	//
	// Behavior:
	//   - No-op for non-existent IDs (does not error)
	//   - Empty slice is a no-op (returns nil)
	Delete(ctx context.Context, ids []string) error

	// Clear removes all indexed documents.
	Clear(ctx context.Context) error

	// Stats returns current index statistics.
	//
	// The returned stats are a snapshot; values may change
	// immediately after the call if other goroutines modify the index.
	Stats() IndexStats

	// Close releases all resources held by the indexer.
	//
	// Behavior:
	//   - Safe to call multiple times (idempotent)
	//   - After Close, other methods may return errors
	Close() error
}

// IndexStats holds statistics about an index.
type IndexStats struct {
	// DocumentCount is the number of indexed documents.
	DocumentCount int

	// TokenCount is the number of token postings (0 where the store
	// does not count them).
	TokenCount int

	// NumericCount is the number of numeric postings.
	NumericCount int
}
