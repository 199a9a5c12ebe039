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

func newTerm(t *testing.T, levels int, opts ...Option) *TermQueryPrefixTree {
	t.Helper()
	s, err := NewTermQueryPrefixTree(mustGrid(t, prefixtree.KindGeohash, levels), "geo", opts...)
	require.NoError(t, err)
	return s
}

func TestTerm_TokensAtFixedLevel(t *testing.T) {
	s := newTerm(t, 4)

	// Given a shape spanning many cells
	rect := geo.Rectangle{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}

	// When
	tokens := slices.Collect(s.Tokens(rect))

	// Then: every token is exactly at the fixed level
	require.NotEmpty(t, tokens)
	for _, tok := range tokens {
		assert.Len(t, tok, 4)
	}
	assert.Equal(t, 4, s.Level())
	assert.Equal(t, []string{s.Grid().CellForPoint(geo.Point{X: 3, Y: 4}, 4).Token},
		slices.Collect(s.Tokens(geo.Point{X: 3, Y: 4})))
}

func TestTerm_IntersectsReferencePoints(t *testing.T) {
	s := newTerm(t, 5)
	docs := indexPoints(t, s)

	tests := []struct {
		name  string
		shape geo.Shape
		want  []string
	}{
		{"near origin", circleKm(t, 1, 1, 175), []string{"5", "6", "7"}},
		{"across antimeridian", circleKm(t, 179.8, 0, 200), []string{"8", "9"}},
		{"bounding box", circleKm(t, 0.1, 0.1, 15).BoundingBox(), []string{"5", "6"}},
		{"point", geo.Point{X: 5, Y: 0}, []string{"14"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, search(t, s, docs, query.NewSpatialArgs(query.Intersects, tt.shape)))
		})
	}
}

func TestTerm_QueryIsFlatExactTerms(t *testing.T) {
	s := newTerm(t, 3)

	q, err := s.MakeQuery(query.NewSpatialArgs(query.Overlaps, geo.Rectangle{MinX: 0, MaxX: 5, MinY: 0, MaxY: 5}))
	require.NoError(t, err)

	or, ok := q.Expression.(query.Or)
	require.True(t, ok, "got %T", q.Expression)
	for _, c := range or.Clauses {
		term, ok := c.(query.TermEquals)
		require.True(t, ok)
		assert.Len(t, term.Token, 3)
	}
}

func TestTerm_Disjoint(t *testing.T) {
	s := newTerm(t, 5)
	docs := indexPoints(t, s)

	got := search(t, s, docs, query.NewSpatialArgs(query.IsDisjointTo, circleKm(t, 179.8, 0, 200)))

	assert.Equal(t, []string{"10", "11", "14", "5", "6", "7"}, got)
}

func TestTerm_UnsupportedOperations(t *testing.T) {
	s := newTerm(t, 5)
	area := geo.Rectangle{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}

	for _, op := range []query.Operation{query.IsWithin, query.Contains} {
		t.Run(op.String(), func(t *testing.T) {
			_, err := s.MakeQuery(query.NewSpatialArgs(op, area))
			assert.ErrorIs(t, err, geoerrors.ErrUnsupportedOperation)
		})
	}
}

func TestTerm_TooManyTerms(t *testing.T) {
	// Given a low term bound
	s := newTerm(t, 5, WithMaxTerms(100))

	// When the covering is larger
	_, err := s.MakeQuery(query.NewSpatialArgs(query.Intersects, circleKm(t, 0, 0, 1000)))

	// Then
	assert.ErrorIs(t, err, geoerrors.ErrInvalidQuery)
}
