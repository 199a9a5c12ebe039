package prefixtree

import (
	"errors"
	"testing"

	"github.com/mmcloughlin/geohash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
)

func mustGrid(t *testing.T, kind Kind, levels int) *Grid {
	t.Helper()
	g, err := New(geo.DefaultContext(), kind, levels)
	require.NoError(t, err)
	return g
}

func TestNew_ValidatesLevels(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		levels  int
		wantErr bool
	}{
		{"geohash minimum", KindGeohash, 1, false},
		{"geohash ceiling", KindGeohash, GeohashMaxLevelsCeiling, false},
		{"geohash zero", KindGeohash, 0, true},
		{"geohash above ceiling", KindGeohash, 25, true},
		{"quad ceiling", KindQuad, QuadMaxLevelsCeiling, false},
		{"quad negative", KindQuad, -3, true},
		{"quad above ceiling", KindQuad, 51, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(geo.DefaultContext(), tt.kind, tt.levels)
			if tt.wantErr {
				assert.True(t, errors.Is(err, geoerrors.ErrGridLevels))
				assert.Equal(t, geoerrors.CategoryConfig, geoerrors.GetCategory(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.levels, g.MaxLevels())
		})
	}
}

func TestNew_RejectsMissingContextAndKind(t *testing.T) {
	_, err := New(nil, KindGeohash, 5)
	assert.True(t, errors.Is(err, geoerrors.ErrConfiguration))

	_, err = New(geo.DefaultContext(), Kind(7), 5)
	assert.True(t, errors.Is(err, geoerrors.ErrConfiguration))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("GeoHash")
	require.NoError(t, err)
	assert.Equal(t, KindGeohash, k)

	k, err = ParseKind(" quad ")
	require.NoError(t, err)
	assert.Equal(t, KindQuad, k)

	_, err = ParseKind("s2")
	assert.True(t, errors.Is(err, geoerrors.ErrConfiguration))
	assert.Equal(t, "quad", KindQuad.String())
}

func TestGrid_String(t *testing.T) {
	assert.Equal(t, "geohashGrid(maxLevels:12)", mustGrid(t, KindGeohash, 12).String())
	assert.Equal(t, "quadGrid(maxLevels:25)", mustGrid(t, KindQuad, 25).String())
}

func TestGeohashCell_MatchesLibraryDecoding(t *testing.T) {
	g := mustGrid(t, KindGeohash, 12)

	for _, token := range []string{"s", "u4", "ezs42", "u4pruydqqvj", "zzzzzzzzzzzz", "000000000000", "9q8yyk8ytpxr"} {
		t.Run(token, func(t *testing.T) {
			cell, err := g.Cell(token)
			require.NoError(t, err)

			box := geohash.BoundingBox(token)
			assert.InDelta(t, box.MinLng, cell.Rect.MinX, 1e-9)
			assert.InDelta(t, box.MaxLng, cell.Rect.MaxX, 1e-9)
			assert.InDelta(t, box.MinLat, cell.Rect.MinY, 1e-9)
			assert.InDelta(t, box.MaxLat, cell.Rect.MaxY, 1e-9)
			assert.Equal(t, len(token), cell.Level())
		})
	}
}

func TestCell_RejectsBadTokens(t *testing.T) {
	g := mustGrid(t, KindGeohash, 4)

	_, err := g.Cell("abc") // 'a' is not a geohash symbol
	assert.True(t, errors.Is(err, geoerrors.ErrInvalidArgument))

	_, err = g.Cell("bcdef")
	assert.True(t, errors.Is(err, geoerrors.ErrInvalidArgument))

	q := mustGrid(t, KindQuad, 4)
	_, err = q.Cell("0124")
	assert.True(t, errors.Is(err, geoerrors.ErrInvalidArgument))

	world, err := q.Cell("")
	require.NoError(t, err)
	assert.Equal(t, geo.WorldRect(), world.Rect)
}

func TestQuadCell_Quarters(t *testing.T) {
	g := mustGrid(t, KindQuad, 10)

	tests := []struct {
		token string
		want  geo.Rectangle
	}{
		{"0", geo.Rectangle{MinX: -180, MaxX: 0, MinY: -90, MaxY: 0}},
		{"1", geo.Rectangle{MinX: 0, MaxX: 180, MinY: -90, MaxY: 0}},
		{"2", geo.Rectangle{MinX: -180, MaxX: 0, MinY: 0, MaxY: 90}},
		{"3", geo.Rectangle{MinX: 0, MaxX: 180, MinY: 0, MaxY: 90}},
		{"30", geo.Rectangle{MinX: 0, MaxX: 90, MinY: 0, MaxY: 45}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			c, err := g.Cell(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Rect)
		})
	}
}

func TestChildren_TileTheParent(t *testing.T) {
	for _, kind := range []Kind{KindGeohash, KindQuad} {
		t.Run(kind.String(), func(t *testing.T) {
			g := mustGrid(t, kind, 6)
			parent := g.World()

			for depth := 0; depth < 3; depth++ {
				children := g.Children(parent)
				require.Len(t, children, len(g.alphabet))

				area := 0.0
				for _, c := range children {
					assert.Equal(t, geo.Contains, g.Context().Relate(parent.Rect, c.Rect), "%s in %s", c, parent)
					assert.Equal(t, parent.Token, g.Parent(c).Token)
					area += c.Rect.Width() * c.Rect.Height()
				}
				assert.InDelta(t, parent.Rect.Width()*parent.Rect.Height(), area, 1e-9)

				parent = children[len(children)/2+1]
			}
		})
	}
}

func TestChildren_NilAtMaxLevel(t *testing.T) {
	g := mustGrid(t, KindQuad, 2)

	leaf, err := g.Cell("21")
	require.NoError(t, err)
	assert.Nil(t, g.Children(leaf))
	assert.Equal(t, g.World(), g.Parent(g.World()))
}

func TestCell_AncestorTokens(t *testing.T) {
	assert.Equal(t, []string{"u", "u4", "u4p"}, Cell{Token: "u4pr"}.AncestorTokens())
	assert.Nil(t, Cell{Token: "u"}.AncestorTokens())
}

func TestCellSize(t *testing.T) {
	g := mustGrid(t, KindGeohash, 12)

	w, h := g.CellSize(1)
	assert.Equal(t, 45.0, w)
	assert.Equal(t, 45.0, h)

	w, h = g.CellSize(2)
	assert.Equal(t, 11.25, w)
	assert.Equal(t, 5.625, h)

	q := mustGrid(t, KindQuad, 25)
	w, h = q.CellSize(3)
	assert.Equal(t, 45.0, w)
	assert.Equal(t, 22.5, h)
}

func TestLevelForDistance(t *testing.T) {
	gh := mustGrid(t, KindGeohash, 12)
	gh3 := mustGrid(t, KindGeohash, 3)
	quad := mustGrid(t, KindQuad, 25)

	tests := []struct {
		name string
		grid *Grid
		dist float64
		want int
	}{
		{"geohash zero is max", gh, 0, 12},
		{"geohash huge", gh, 100, 1},
		{"geohash 1.5 degrees", gh, 1.5, 3},
		{"geohash 0.05 degrees", gh, 0.05, 5},
		{"geohash 0.025 degrees", gh, 0.025, 6},
		{"geohash clamped to max", gh3, 0.0001, 3},
		{"geohash tiny", gh, 1e-12, 12},
		{"quad zero is max", quad, 0, 25},
		{"quad huge", quad, 200, 1},
		{"quad 100 degrees", quad, 100, 2},
		{"quad 0.025 degrees", quad, 0.025, 14},
		{"quad tiny", quad, 1e-12, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.grid.LevelForDistance(tt.dist))
		})
	}
}

func TestCache_DisabledGivesSameExtents(t *testing.T) {
	cached := mustGrid(t, KindGeohash, 8)
	uncached, err := NewGeohashGrid(geo.DefaultContext(), 8, WithCellCacheSize(0))
	require.NoError(t, err)

	for _, token := range []string{"s", "s0", "s00twy0", "zzzzzzzz"} {
		a, err := cached.Cell(token)
		require.NoError(t, err)
		b, err := uncached.Cell(token)
		require.NoError(t, err)
		assert.Equal(t, a, b)

		// second lookup is served from the cache
		again, err := cached.Cell(token)
		require.NoError(t, err)
		assert.Equal(t, a, again)
	}
}
