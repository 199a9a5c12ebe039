package integration

import (
	"fmt"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/geoprefix/internal/store"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
	"github.com/Aman-CERP/geoprefix/pkg/indexer"
	"github.com/Aman-CERP/geoprefix/pkg/prefixtree"
	"github.com/Aman-CERP/geoprefix/pkg/query"
	"github.com/Aman-CERP/geoprefix/pkg/searcher"
	"github.com/Aman-CERP/geoprefix/pkg/strategy"
)

// Integration Tests - these run the full flow from shapes through a
// strategy, an indexer and a store backend to search results.

// cityPoints holds scattered points plus pairs straddling the origin, the
// antimeridian and both poles.
var cityPoints = map[string]geo.Point{
	"1":  {X: -79.9289094, Y: 32.7693246},
	"2":  {X: -80.9289094, Y: 33.7693246},
	"3":  {X: 50.9289094, Y: -32.7693246},
	"4":  {X: 60.9289094, Y: -50.7693246},
	"5":  {X: 0, Y: 0},
	"6":  {X: 0.1, Y: 0.1},
	"7":  {X: -0.1, Y: -0.1},
	"8":  {X: 179.9, Y: 0},
	"9":  {X: -179.9, Y: 0},
	"10": {X: 50, Y: 89.9},
	"11": {X: -130, Y: 89.9},
	"12": {X: 50, Y: -89.9},
	"13": {X: -130, Y: -89.9},
}

// distancePoints sit near distance thresholds: 16 is just over 3000 km
// from the origin and 17 is 123 km from (-96.789603, 43.517030).
var distancePoints = map[string]geo.Point{
	"14": {X: 5, Y: 0},
	"15": {X: 15, Y: 0},
	"16": {X: 19.79750, Y: 18.71111},
	"17": {X: -95.436643, Y: 44.043900},
}

// searchCase is one query against a dataset. bbox queries the bounding
// box of the circle instead of the circle itself.
type searchCase struct {
	name    string
	dataset string
	x, y    float64
	km      float64
	bbox    bool
	want    []string
}

var datasets = map[string]map[string]geo.Point{
	"cities":    cityPoints,
	"distances": distancePoints,
}

var referenceCases = []searchCase{
	{"near origin", "cities", 1, 1, 175, false, []string{"5", "6", "7"}},
	{"across antimeridian", "cities", 179.8, 0, 200, false, []string{"8", "9"}},
	{"over north pole", "cities", 50, 89.8, 200, false, []string{"10", "11"}},
	{"over south pole", "cities", 50, -89.8, 200, false, []string{"12", "13"}},
	{"charleston", "cities", -80, 33, 300, false, []string{"1", "2"}},
	{"large circle", "cities", 1, 1, 5000, false, []string{"5", "6", "7"}},
	{"small box", "cities", 0.1, 0.1, 15, true, []string{"5", "6"}},
	{"1000 km", "distances", 0, 0, 1000, false, []string{"14"}},
	{"2000 km", "distances", 0, 0, 2000, false, []string{"14", "15"}},
	{"3000 km box", "distances", 0, 0, 3000, true, []string{"14", "15", "16"}},
	{"3001 km", "distances", 0, 0, 3001, false, []string{"14", "15", "16"}},
	{"3000.1 km", "distances", 0, 0, 3000.1, false, []string{"14", "15", "16"}},
	{"109 km", "distances", -96.789603, 43.517030, 109, false, nil},
	{"110 km", "distances", -96.789603, 43.517030, 110, false, nil},
	{"110 km box", "distances", -96.789603, 43.517030, 110, true, []string{"17"}},
}

// fixedLevelCases are the reference cases whose query cover stays small
// at geohash level 5.
var fixedLevelCases = []string{"small box", "109 km", "110 km", "110 km box"}

// strategyConfig builds one strategy under test.
type strategyConfig struct {
	name  string
	cases []string // nil runs every reference case
	build func(t *testing.T) strategy.Strategy
}

var strategyConfigs = []strategyConfig{
	{"recursive geohash 12", nil, func(t *testing.T) strategy.Strategy {
		return newStrategy(t, strategy.NameRecursive, prefixtree.KindGeohash, 12)
	}},
	{"recursive quad 25", nil, func(t *testing.T) strategy.Strategy {
		return newStrategy(t, strategy.NameRecursive, prefixtree.KindQuad, 25)
	}},
	{"term geohash 5", fixedLevelCases, func(t *testing.T) strategy.Strategy {
		return newStrategy(t, strategy.NameTerm, prefixtree.KindGeohash, 5)
	}},
	{"point vector", nil, func(t *testing.T) strategy.Strategy {
		s, err := strategy.NewPointVector(geo.DefaultContext(), "geo")
		require.NoError(t, err)
		return s
	}},
}

func newStrategy(t *testing.T, name strategy.Name, kind prefixtree.Kind, levels int) strategy.Strategy {
	t.Helper()
	ctx := geo.DefaultContext()
	grid, err := prefixtree.New(ctx, kind, levels)
	require.NoError(t, err)
	s, err := strategy.New(name, grid, ctx, "geo")
	require.NoError(t, err)
	return s
}

// testIndex creates a backend-specific store under a temp dir.
func testIndex(t *testing.T, backend store.Backend) store.SpatialIndex {
	t.Helper()
	base := filepath.Join(t.TempDir(), "spatial")

	idx, err := store.NewSpatialIndexWithBackend(base, string(backend))
	require.NoError(t, err)
	return idx
}

// indexDataset indexes points through s into a fresh store and returns a
// searcher over it.
func indexDataset(t *testing.T, s strategy.Strategy, backend store.Backend, points map[string]geo.Point) *searcher.SpatialSearcher {
	t.Helper()
	idx := testIndex(t, backend)

	ix, err := indexer.NewSpatialIndexer(indexer.WithStrategy(s), indexer.WithStore(idx))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })

	docs := make([]*indexer.Document, 0, len(points))
	for id, p := range points {
		docs = append(docs, &indexer.Document{ID: id, Shapes: []geo.Shape{p}})
	}
	require.NoError(t, ix.Index(t.Context(), docs))
	require.Equal(t, len(points), ix.Stats().DocumentCount)

	srch, err := searcher.NewSpatialSearcher(searcher.WithStrategy(s), searcher.WithStore(idx))
	require.NoError(t, err)
	return srch
}

func caseShape(t *testing.T, c searchCase) geo.Shape {
	t.Helper()
	circle, err := geo.DefaultContext().MakeCircleKm(geo.Point{X: c.x, Y: c.y}, c.km)
	require.NoError(t, err)
	if c.bbox {
		return circle.BoundingBox()
	}
	return circle
}

func resultIDs(results []searcher.Result) []string {
	var ids []string
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	slices.Sort(ids)
	return ids
}

func TestReferenceQueries(t *testing.T) {
	for _, cfg := range strategyConfigs {
		for _, backend := range store.Backends() {
			t.Run(fmt.Sprintf("%s/%s", cfg.name, backend), func(t *testing.T) {
				s := cfg.build(t)
				searchers := map[string]*searcher.SpatialSearcher{}

				for _, tt := range referenceCases {
					if cfg.cases != nil && !slices.Contains(cfg.cases, tt.name) {
						continue
					}
					srch, ok := searchers[tt.dataset]
					if !ok {
						srch = indexDataset(t, s, backend, datasets[tt.dataset])
						searchers[tt.dataset] = srch
					}

					// When
					results, err := srch.Search(t.Context(), query.NewSpatialArgs(query.Intersects, caseShape(t, tt)), 0)

					// Then
					require.NoError(t, err, tt.name)
					assert.Equal(t, tt.want, resultIDs(results), tt.name)
				}
			})
		}
	}
}

func TestDisjointIsComplementOfIntersects(t *testing.T) {
	for _, cfg := range strategyConfigs {
		if cfg.cases != nil {
			continue
		}
		t.Run(cfg.name, func(t *testing.T) {
			// Given
			s := cfg.build(t)
			srch := indexDataset(t, s, store.BackendMemory, cityPoints)
			shape := geo.Rectangle{MinX: 170, MaxX: -170, MinY: -10, MaxY: 10}

			// When
			hits, err := srch.Search(t.Context(), query.NewSpatialArgs(query.Intersects, shape), 0)
			require.NoError(t, err)
			misses, err := srch.Search(t.Context(), query.NewSpatialArgs(query.IsDisjointTo, shape), 0)
			require.NoError(t, err)

			// Then
			assert.Equal(t, []string{"8", "9"}, resultIDs(hits))
			assert.Len(t, misses, len(cityPoints)-2)
			assert.NotContains(t, resultIDs(misses), "8")
			assert.NotContains(t, resultIDs(misses), "9")
		})
	}
}

func TestReindexAndDelete(t *testing.T) {
	for _, backend := range store.Backends() {
		t.Run(string(backend), func(t *testing.T) {
			// Given
			s := newStrategy(t, strategy.NameRecursive, prefixtree.KindGeohash, 12)
			idx := testIndex(t, backend)
			ix, err := indexer.NewSpatialIndexer(indexer.WithStrategy(s), indexer.WithStore(idx))
			require.NoError(t, err)
			t.Cleanup(func() { _ = ix.Close() })
			srch, err := searcher.NewSpatialSearcher(searcher.WithStrategy(s), searcher.WithStore(idx))
			require.NoError(t, err)

			near := query.NewSpatialArgs(query.Intersects, caseShape(t, searchCase{x: 0, y: 0, km: 50}))
			require.NoError(t, ix.Index(t.Context(), []*indexer.Document{
				{ID: "a", Shapes: []geo.Shape{geo.Point{X: 0.1, Y: 0.1}}},
				{ID: "b", Shapes: []geo.Shape{geo.Point{X: 0.2, Y: 0.2}}},
			}))

			// When: a is moved away and b deleted
			require.NoError(t, ix.Index(t.Context(), []*indexer.Document{
				{ID: "a", Shapes: []geo.Shape{geo.Point{X: 40, Y: 40}}},
			}))
			require.NoError(t, ix.Delete(t.Context(), []string{"b"}))

			// Then
			results, err := srch.Search(t.Context(), near, 0)
			require.NoError(t, err)
			assert.Empty(t, results)
			assert.Equal(t, 1, ix.Stats().DocumentCount)
		})
	}
}
