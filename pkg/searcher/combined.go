package searcher

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/geoprefix/pkg/query"
)

// CombineMode selects how CombinedSearcher merges answers.
type CombineMode int

const (
	// Union returns documents any searcher matched.
	Union CombineMode = iota
	// Intersect returns documents every searcher matched.
	Intersect
)

// CombinedSearcher runs several searchers on the same args in parallel and
// merges their answers, for example a prefix tree field and a point vector
// field indexed for the same documents.
//
// Thread-safe for concurrent use.
type CombinedSearcher struct {
	searchers []Searcher
	mode      CombineMode
	mu        sync.RWMutex
}

// NewCombinedSearcher creates a combined searcher. Nil searchers are skipped.
//
// Returns ErrNoSearchers if none remain.
func NewCombinedSearcher(mode CombineMode, searchers ...Searcher) (*CombinedSearcher, error) {
	c := &CombinedSearcher{mode: mode}
	for _, s := range searchers {
		if s != nil {
			c.searchers = append(c.searchers, s)
		}
	}

	if len(c.searchers) == 0 {
		return nil, ErrNoSearchers
	}

	return c, nil
}

// Search runs every searcher without a limit, merges the answers and then
// applies limit. Any searcher failing fails the search.
func (c *CombinedSearcher) Search(ctx context.Context, args query.SpatialArgs, limit int) ([]Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	answers := make([][]Result, len(c.searchers))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range c.searchers {
		g.Go(func() error {
			results, err := s.Search(gctx, args, 0)
			if err != nil {
				return fmt.Errorf("searcher %d: %w", i, err)
			}
			answers[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, results := range answers {
		seen := make(map[string]struct{}, len(results))
		for _, r := range results {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			counts[r.ID]++
		}
	}

	need := 1
	if c.mode == Intersect {
		need = len(c.searchers)
	}
	ids := make([]string, 0, len(counts))
	for id, n := range counts {
		if n >= need {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	results := make([]Result, len(ids))
	for i, id := range ids {
		results[i] = Result{ID: id}
	}
	return truncateResults(results, limit), nil
}

// Ensure CombinedSearcher implements Searcher at compile time.
var _ Searcher = (*CombinedSearcher)(nil)
