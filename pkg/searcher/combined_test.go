package searcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/geoprefix/pkg/query"
)

// MockSearcher implements Searcher for testing CombinedSearcher.
type MockSearcher struct {
	SearchFn func(ctx context.Context, args query.SpatialArgs, limit int) ([]Result, error)

	searchCalled atomic.Int32
}

func (m *MockSearcher) Search(ctx context.Context, args query.SpatialArgs, limit int) ([]Result, error) {
	m.searchCalled.Add(1)
	if m.SearchFn != nil {
		return m.SearchFn(ctx, args, limit)
	}
	return []Result{}, nil
}

func fixed(ids ...string) *MockSearcher {
	return &MockSearcher{SearchFn: func(context.Context, query.SpatialArgs, int) ([]Result, error) {
		out := make([]Result, len(ids))
		for i, id := range ids {
			out[i] = Result{ID: id}
		}
		return out, nil
	}}
}

func TestNewCombinedSearcher_RequiresSearcher(t *testing.T) {
	c, err := NewCombinedSearcher(Union, nil)

	assert.ErrorIs(t, err, ErrNoSearchers)
	assert.Nil(t, c)
}

func TestCombinedSearcher_Search(t *testing.T) {
	tests := []struct {
		name  string
		mode  CombineMode
		limit int
		want  []string
	}{
		{"union", Union, 0, []string{"1", "2", "3", "4"}},
		{"union with limit", Union, 2, []string{"1", "2"}},
		{"intersect", Intersect, 0, []string{"2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: two searchers with overlapping answers
			c, err := NewCombinedSearcher(tt.mode, fixed("3", "1", "2", "2"), fixed("2", "3", "4"))
			require.NoError(t, err)

			// When: searching
			results, err := c.Search(t.Context(), query.SpatialArgs{}, tt.limit)

			// Then: answers are merged and sorted
			require.NoError(t, err)
			assert.Equal(t, tt.want, resultIDs(results))
		})
	}
}

func TestCombinedSearcher_Search_PropagatesFailure(t *testing.T) {
	failing := &MockSearcher{SearchFn: func(context.Context, query.SpatialArgs, int) ([]Result, error) {
		return nil, errors.New("store closed")
	}}
	ok := fixed("1")
	c, err := NewCombinedSearcher(Union, ok, failing)
	require.NoError(t, err)

	_, err = c.Search(t.Context(), query.SpatialArgs{}, 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "store closed")
	assert.Equal(t, int32(1), failing.searchCalled.Load())
}

func TestCombinedSearcher_MatchesExactSearcher(t *testing.T) {
	// Given: an exact point vector searcher combined with itself
	exact := newPointSearcher(t)
	c, err := NewCombinedSearcher(Intersect, exact, exact)
	require.NoError(t, err)

	// When: searching a circle
	results, err := c.Search(t.Context(), query.NewSpatialArgs(query.Intersects, originCircle(t, 20)), 0)

	// Then: the intersection equals the single answer
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "6"}, resultIDs(results))
}
