package searcher

import (
	"context"
	"errors"

	"github.com/Aman-CERP/geoprefix/pkg/query"
)

// ErrNilStore is returned when attempting to create a SpatialSearcher without a store.
var ErrNilStore = errors.New("spatial store is required")

// ErrNilStrategy is returned when attempting to create a SpatialSearcher without a strategy.
var ErrNilStrategy = errors.New("spatial strategy is required")

// ErrNoSearchers is returned when attempting to create a CombinedSearcher without any searchers.
var ErrNoSearchers = errors.New("at least one searcher is required")

// Searcher answers spatial args with matching document IDs.
//
// Implementations must be thread-safe for concurrent use.
type Searcher interface {
	// Search returns the documents satisfying args, sorted by ID.
	//
	// Parameters:
	//   - ctx: Context for cancellation and deadlines
	//   - args: The operation and query shape
	//   - limit: Maximum number of results to return (0 = all)
	//
	// Returns an empty slice (not nil) if no results match.
	Search(ctx context.Context, args query.SpatialArgs, limit int) ([]Result, error)
}

// Result represents a single search result.
type Result struct {
	// ID is the matched document ID.
	ID string
}

// truncateResults applies limit. 0 means no limit.
func truncateResults(results []Result, limit int) []Result {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
