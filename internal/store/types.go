// Package store provides the posting stores that hold strategy fields and
// evaluate query expressions: an in-memory ordered index, a Bleve index and
// a SQLite index.
package store

import (
	"context"
	"slices"

	"github.com/Aman-CERP/geoprefix/pkg/query"
)

// Document is one record to index: an ID and the fields a strategy produced
// for its shapes.
type Document struct {
	ID     string
	Fields []query.Field
}

// Hit is one matching document. Values holds the numeric fields requested
// in SearchOptions, each in the order the document's fields were indexed.
// Strategies that write several numeric fields per shape rely on that order
// to pair them: memory keeps the field slice, SQLite reads by rowid and Bleve
// returns stored arrays in array order.
type Hit struct {
	ID     string
	Values map[string][]float64
}

// SearchOptions controls what Search returns.
type SearchOptions struct {
	// Fields lists numeric fields to load into each hit.
	Fields []string

	// Limit caps the number of hits after sorting by ID. 0 means no limit.
	Limit int
}

// IndexStats provides statistics about a spatial index.
type IndexStats struct {
	Backend       string
	DocumentCount int
	TokenCount    int // token postings
	NumericCount  int // numeric postings
}

// SpatialIndex stores documents and evaluates query expressions over them.
// Indexing a known ID replaces the stored document.
type SpatialIndex interface {
	// Index adds or replaces documents.
	Index(ctx context.Context, docs []*Document) error

	// Delete removes documents by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, ids []string) error

	// Search returns the documents matching expr, sorted by ID.
	Search(ctx context.Context, expr query.Expression, opts SearchOptions) ([]*Hit, error)

	// AllIDs returns every document ID, sorted.
	AllIDs() ([]string, error)

	// Stats returns index statistics.
	Stats() *IndexStats

	// Close releases resources. It is idempotent.
	Close() error
}

// finishHits sorts hits by ID and applies the limit.
func finishHits(hits []*Hit, limit int) []*Hit {
	slices.SortFunc(hits, func(a, b *Hit) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// dedupeDocs keeps the last document for each ID, preserving first-seen order.
func dedupeDocs(docs []*Document) []*Document {
	index := make(map[string]int, len(docs))
	out := make([]*Document, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		if i, ok := index[d.ID]; ok {
			out[i] = d
			continue
		}
		index[d.ID] = len(out)
		out = append(out, d)
	}
	return out
}
