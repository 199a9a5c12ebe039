package strategy

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
	"github.com/Aman-CERP/geoprefix/pkg/prefixtree"
	"github.com/Aman-CERP/geoprefix/pkg/query"
)

func newRecursive(t *testing.T, kind prefixtree.Kind, levels int, opts ...Option) *RecursivePrefixTree {
	t.Helper()
	s, err := NewRecursivePrefixTree(mustGrid(t, kind, levels), "geo", opts...)
	require.NoError(t, err)
	return s
}

func TestRecursive_PointTokens(t *testing.T) {
	s := newRecursive(t, prefixtree.KindGeohash, 12)
	p := geo.Point{X: 10.40744, Y: 57.64911}

	// When
	tokens := slices.Collect(s.Tokens(p))

	// Then: one full-precision cell
	require.Len(t, tokens, 1)
	assert.Len(t, tokens[0], 12)
	assert.Equal(t, "u4pruydqqvj", tokens[0][:11])
	assert.Equal(t, 12, s.IndexLevel(p))
}

func TestRecursive_IndexLevelFollowsShapeSize(t *testing.T) {
	s := newRecursive(t, prefixtree.KindGeohash, 12)

	small := geo.Rectangle{MinX: 0, MaxX: 0.1, MinY: 0, MaxY: 0.1}
	large := geo.Rectangle{MinX: -40, MaxX: 40, MinY: -40, MaxY: 40}

	assert.Greater(t, s.IndexLevel(small), s.IndexLevel(large))

	coarse := newRecursive(t, prefixtree.KindGeohash, 12, WithDistErrPct(0.5))
	assert.LessOrEqual(t, coarse.IndexLevel(small), s.IndexLevel(small))
}

func TestRecursive_TokensIdempotent(t *testing.T) {
	s := newRecursive(t, prefixtree.KindQuad, 20)
	c := circleKm(t, 179.8, 0, 200)

	first := slices.Sorted(s.Tokens(c))
	second := slices.Sorted(s.Tokens(c))

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestRecursive_FieldsRejectNil(t *testing.T) {
	s := newRecursive(t, prefixtree.KindGeohash, 6)

	_, err := s.Fields(nil)
	assert.ErrorIs(t, err, geoerrors.ErrInvalidShape)
	assert.Empty(t, slices.Collect(s.Tokens(nil)))
}

func TestRecursive_IntersectsReferencePoints(t *testing.T) {
	tests := []struct {
		name  string
		shape func(t *testing.T) geo.Shape
		want  []string
	}{
		{"near origin", func(t *testing.T) geo.Shape { return circleKm(t, 1, 1, 175) }, []string{"5", "6", "7"}},
		{"across antimeridian", func(t *testing.T) geo.Shape { return circleKm(t, 179.8, 0, 200) }, []string{"8", "9"}},
		{"over north pole", func(t *testing.T) geo.Shape { return circleKm(t, 50, 89.8, 200) }, []string{"10", "11"}},
		{"bounding box", func(t *testing.T) geo.Shape { return circleKm(t, 0.1, 0.1, 15).BoundingBox() }, []string{"5", "6"}},
		{"wrapping rectangle", func(t *testing.T) geo.Shape {
			return geo.Rectangle{MinX: 170, MaxX: -170, MinY: -10, MaxY: 10}
		}, []string{"8", "9"}},
		{"point", func(t *testing.T) geo.Shape { return geo.Point{X: 5, Y: 0} }, []string{"14"}},
	}

	configs := []struct {
		name  string
		kind  prefixtree.Kind
		level int
		opts  []Option
	}{
		{"geohash", prefixtree.KindGeohash, 12, nil},
		{"geohash points only", prefixtree.KindGeohash, 12, []Option{WithPointsOnly(true)}},
		{"quad", prefixtree.KindQuad, 25, nil},
	}

	for _, cfg := range configs {
		s := newRecursive(t, cfg.kind, cfg.level, cfg.opts...)
		docs := indexPoints(t, s)
		for _, tt := range tests {
			t.Run(cfg.name+"/"+tt.name, func(t *testing.T) {
				got := search(t, s, docs, query.NewSpatialArgs(query.Intersects, tt.shape(t)))
				assert.Equal(t, tt.want, got)
			})
		}
	}
}

func TestRecursive_PointsOnlyDropsAncestorClauses(t *testing.T) {
	// Given
	s := newRecursive(t, prefixtree.KindGeohash, 8, WithPointsOnly(true))
	args := query.NewSpatialArgs(query.Intersects, circleKm(t, 0, 0, 100))

	// When
	q, err := s.MakeQuery(args)
	require.NoError(t, err)

	// Then: only prefix clauses remain
	query.Walk(q.Expression, func(e query.Expression) bool {
		_, exact := e.(query.TermEquals)
		assert.False(t, exact, "unexpected %s", e)
		return true
	})
	assert.True(t, s.PointsOnly())
}

func TestRecursive_ShapeDocuments(t *testing.T) {
	s := newRecursive(t, prefixtree.KindGeohash, 10)

	// Given documents with area
	docs := map[string]testDoc{
		"small":  indexDoc(t, s, geo.Rectangle{MinX: 1, MaxX: 2, MinY: 1, MaxY: 2}),
		"large":  indexDoc(t, s, geo.Rectangle{MinX: -20, MaxX: 20, MinY: -20, MaxY: 20}),
		"far":    indexDoc(t, s, geo.Rectangle{MinX: 100, MaxX: 110, MinY: 40, MaxY: 50}),
		"circle": indexDoc(t, s, circleKm(t, -60, -30, 300)),
	}
	area := geo.Rectangle{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10}
	inner := geo.Rectangle{MinX: 5, MaxX: 6, MinY: 5, MaxY: 6}

	tests := []struct {
		name string
		args query.SpatialArgs
		want []string
	}{
		{"intersects", query.NewSpatialArgs(query.Intersects, area), []string{"large", "small"}},
		{"overlaps", query.NewSpatialArgs(query.Overlaps, area), []string{"large", "small"}},
		{"within", query.NewSpatialArgs(query.IsWithin, area), []string{"small"}},
		{"contains", query.NewSpatialArgs(query.Contains, inner), []string{"large"}},
		{"contains circle", query.NewSpatialArgs(query.Contains, circleKm(t, -60, -30, 50)), []string{"circle"}},
		{"disjoint", query.NewSpatialArgs(query.IsDisjointTo, area), []string{"circle", "far"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, search(t, s, docs, tt.args))
		})
	}
}

func TestRecursive_ContainsMatchesIdenticalShape(t *testing.T) {
	s := newRecursive(t, prefixtree.KindQuad, 16)
	shape := geo.Rectangle{MinX: 10, MaxX: 12.5, MinY: -3, MaxY: -1}
	docs := map[string]testDoc{"same": indexDoc(t, s, shape)}

	got := search(t, s, docs, query.NewSpatialArgs(query.Contains, shape))

	assert.Equal(t, []string{"same"}, got)
}

func TestRecursive_DisjointRequiresField(t *testing.T) {
	s := newRecursive(t, prefixtree.KindGeohash, 8)
	docs := indexPoints(t, s)
	docs["empty"] = testDoc{}

	got := search(t, s, docs, query.NewSpatialArgs(query.IsDisjointTo, circleKm(t, 1, 1, 175)))

	assert.Equal(t, []string{"10", "11", "14", "8", "9"}, got)
}

func TestRecursive_FinerErrorGrowsQuery(t *testing.T) {
	s := newRecursive(t, prefixtree.KindGeohash, 12)
	c := circleKm(t, 10, 10, 50)

	coarse, err := s.MakeQuery(query.NewSpatialArgs(query.Intersects, c).WithDistErrPct(0.2))
	require.NoError(t, err)
	fine, err := s.MakeQuery(query.NewSpatialArgs(query.Intersects, c).WithDistErrPct(0.01))
	require.NoError(t, err)

	assert.Less(t, query.Size(coarse.Expression), query.Size(fine.Expression))
}

func TestRecursive_ClauseBoundCoarsensQuery(t *testing.T) {
	// Given: a pole circle whose default precision needs a huge query
	bounded := newRecursive(t, prefixtree.KindGeohash, 12, WithMaxTerms(500))
	c := circleKm(t, 50, 89.8, 200)

	// When
	q, err := bounded.MakeQuery(query.NewSpatialArgs(query.Intersects, c))
	require.NoError(t, err)

	// Then: it stays within the bound and still finds the pole points
	leaves := 0
	query.Walk(q.Expression, func(e query.Expression) bool {
		switch e.(type) {
		case query.TermEquals, query.TermPrefix:
			leaves++
		}
		return true
	})
	assert.LessOrEqual(t, leaves, 500)

	docs := indexPoints(t, bounded)
	var got []string
	for id, d := range docs {
		if matchQuery(q, d) {
			got = append(got, id)
		}
	}
	assert.ElementsMatch(t, []string{"10", "11"}, got)
}

func TestRecursive_RejectsInvalidArgs(t *testing.T) {
	s := newRecursive(t, prefixtree.KindGeohash, 6)

	_, err := s.MakeQuery(query.NewSpatialArgs(query.IsWithin, geo.Point{X: 1, Y: 1}))
	assert.ErrorIs(t, err, geoerrors.ErrInvalidQuery)

	_, err = s.MakeQuery(query.NewSpatialArgs(query.Intersects, geo.Point{}).WithDistErrPct(2))
	assert.ErrorIs(t, err, geoerrors.ErrInvalidArgument)
}

func TestRecursive_QueryDeterministic(t *testing.T) {
	s := newRecursive(t, prefixtree.KindQuad, 12)
	args := query.NewSpatialArgs(query.IsWithin, geo.Rectangle{MinX: 170, MaxX: -175, MinY: 0, MaxY: 5})

	a, err := s.MakeQuery(args)
	require.NoError(t, err)
	b, err := s.MakeQuery(args)
	require.NoError(t, err)

	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, []string{"geo"}, query.Fields(a.Expression))
}
