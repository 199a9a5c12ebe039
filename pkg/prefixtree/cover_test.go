package prefixtree

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/geoprefix/pkg/geo"
)

func TestCellForPoint_KnownGeohash(t *testing.T) {
	g := mustGrid(t, KindGeohash, 24)
	p := geo.Point{X: 10.40744, Y: 57.64911}

	cell := g.CellForPoint(p, 11)
	assert.Equal(t, "u4pruydqqvj", cell.Token)
	assert.True(t, cell.Rect.ContainsPoint(p))

	// deeper than the library's precision: computed by bisection, same prefix
	deep := g.CellForPoint(p, 20)
	assert.Len(t, deep.Token, 20)
	assert.Equal(t, "u4pruydqqvj", deep.Token[:11])
	assert.True(t, deep.Rect.ContainsPoint(p))
}

func TestCellForPoint_LibraryAndBisectionAgree(t *testing.T) {
	g := mustGrid(t, KindGeohash, 24)
	points := []geo.Point{
		{X: -79.9289094, Y: 32.7693246},
		{X: 50.9289094, Y: -32.7693246},
		{X: 0.1, Y: 0.1},
		{X: -0.1, Y: -0.1},
		{X: 179.9, Y: 0},
		{X: -179.9, Y: 0},
		{X: -130, Y: 89.9},
		{X: 19.7975, Y: 18.71111},
	}

	for _, p := range points {
		deep := g.CellForPoint(p, 24)
		for level := 1; level <= 12; level++ {
			cell := g.CellForPoint(p, level)
			assert.Equal(t, deep.Token[:level], cell.Token, "%s level %d", p, level)
		}
	}
}

func TestCellForPoint_WorldEdges(t *testing.T) {
	for _, kind := range []Kind{KindGeohash, KindQuad} {
		g := mustGrid(t, kind, 8)
		for _, p := range []geo.Point{{X: 180, Y: 90}, {X: -180, Y: -90}, {X: 180, Y: -90}, {X: 0, Y: 0}} {
			cell := g.CellForPoint(p, 8)
			assert.Len(t, cell.Token, 8)
			assert.True(t, cell.Rect.ContainsPoint(p), "%s %s not in %s", kind, p, cell)
		}
	}
}

func TestCells_PointYieldsOneCell(t *testing.T) {
	g := mustGrid(t, KindQuad, 25)
	p := geo.Point{X: 0.1, Y: 0.1}

	cells := slices.Collect(g.Cells(p, 25))

	require.Len(t, cells, 1)
	assert.Equal(t, 25, cells[0].Level())
	assert.Equal(t, g.CellForPoint(p, 25), cells[0])
}

// Every emitted cell touches the shape and every sampled point of the shape
// lies in some emitted cell.
func TestCells_CoveringCorrectness(t *testing.T) {
	ctx := geo.DefaultContext()
	circle := func(x, y, km float64) geo.Shape {
		c, err := ctx.MakeCircleKm(geo.Point{X: x, Y: y}, km)
		require.NoError(t, err)
		return c
	}
	shapes := map[string]geo.Shape{
		"rect":              geo.Rectangle{MinX: -10, MaxX: 25, MinY: 5, MaxY: 30},
		"wrapping rect":     geo.Rectangle{MinX: 170, MaxX: -160, MinY: -20, MaxY: 10},
		"circle":            circle(1, 1, 1500),
		"antimeridian":      circle(179.8, 0, 800),
		"north pole circle": circle(50, 89.8, 1200),
		"polar cap":         geo.Rectangle{MinX: -180, MaxX: 180, MinY: 80, MaxY: 90},
	}
	grids := []*Grid{mustGrid(t, KindGeohash, 3), mustGrid(t, KindQuad, 6)}

	for name, shape := range shapes {
		for _, g := range grids {
			t.Run(name+"/"+g.Kind().String(), func(t *testing.T) {
				cells := slices.Collect(g.Cells(shape, g.MaxLevels()))
				require.NotEmpty(t, cells)

				for _, c := range cells {
					assert.NotEqual(t, geo.Disjoint, ctx.Relate(c.Rect, shape), "%s", c)
					assert.LessOrEqual(t, c.Level(), g.MaxLevels())
					assert.Positive(t, c.Level())
				}

				box := shape.BoundingBox()
				for x := -179.5; x < 180; x += 1 {
					for y := -89.75; y < 90; y += 0.5 {
						p := geo.Point{X: x, Y: y}
						if !box.ContainsPoint(p) || !ctx.Contains(shape, p) {
							continue
						}
						covered := slices.ContainsFunc(cells, func(c Cell) bool {
							return c.Rect.ContainsPoint(p)
						})
						require.True(t, covered, "%s not covered", p)
					}
				}
			})
		}
	}
}

func TestCells_WithinCellsStopEarly(t *testing.T) {
	g := mustGrid(t, KindQuad, 8)

	// Given: a rectangle inside cell "30" covering its two western children
	shape := geo.Rectangle{MinX: 0, MaxX: 45, MinY: 0, MaxY: 45}

	cells := slices.Collect(g.Cells(shape, 8))

	// Then: the level-3 cells inside it are emitted, not their children
	tokens := map[string]bool{}
	for _, c := range cells {
		tokens[c.Token] = true
	}
	for _, tok := range []string{"300", "302"} {
		assert.True(t, tokens[tok], "missing %s", tok)
	}
	for tok := range tokens {
		if len(tok) > 3 && (tok[:3] == "300" || tok[:3] == "302") {
			t.Errorf("descended into %s", tok)
		}
	}
}

func TestCells_ShapeMatchingCellEmitsThatCell(t *testing.T) {
	g := mustGrid(t, KindQuad, 8)

	// Given: a rectangle with exactly the extent of cell "30"
	cell, err := g.Cell("30")
	require.NoError(t, err)

	// When
	tokens := map[string]bool{}
	for c := range g.Cells(cell.Rect, 8) {
		tokens[c.Token] = true
	}

	// Then: "30" itself is emitted and nothing below it
	assert.True(t, tokens["30"])
	for tok := range tokens {
		assert.False(t, len(tok) > 2 && tok[:2] == "30", "descended into %s", tok)
	}
	assert.Equal(t, geo.Within, g.Relate(cell, cell.Rect))
}

func TestCells_StopsWhenConsumerBreaks(t *testing.T) {
	g := mustGrid(t, KindGeohash, 6)
	c, err := geo.DefaultContext().MakeCircleKm(geo.Point{X: 0, Y: 0}, 3000)
	require.NoError(t, err)

	n := 0
	for range g.Cells(c, 6) {
		n++
		if n == 3 {
			break
		}
	}

	assert.Equal(t, 3, n)
}

func TestCells_Idempotent(t *testing.T) {
	g := mustGrid(t, KindGeohash, 5)
	c, err := geo.DefaultContext().MakeCircleKm(geo.Point{X: 179.8, Y: 0}, 200)
	require.NoError(t, err)

	tokens := func() map[string]bool {
		out := map[string]bool{}
		for cell := range g.Cells(c, 4) {
			out[cell.Token] = true
		}
		return out
	}

	first, second := tokens(), tokens()
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestCellsAtLevel_OnlyTargetLevel(t *testing.T) {
	g := mustGrid(t, KindQuad, 10)
	shape := geo.Rectangle{MinX: 0, MaxX: 90, MinY: 0, MaxY: 45}

	cells := slices.Collect(g.CellsAtLevel(shape, 4))

	for _, c := range cells {
		assert.Equal(t, 4, c.Level())
	}
	// 4x4 interior cells of 22.5x11.25 degrees plus the ring touching the edges
	assert.Equal(t, 36, len(cells))

	// the shape is exactly cell "30", so the sparse covering is that cell plus the ring
	sparse := slices.Collect(g.Cells(shape, 4))
	assert.Equal(t, 21, len(sparse))
}

func TestCellsAtLevel_AntimeridianHasBothSides(t *testing.T) {
	g := mustGrid(t, KindGeohash, 3)
	c, err := geo.DefaultContext().MakeCircleKm(geo.Point{X: 179.8, Y: 0}, 200)
	require.NoError(t, err)

	east, west := false, false
	for cell := range g.CellsAtLevel(c, 3) {
		if cell.Rect.ContainsPoint(geo.Point{X: 179.9, Y: 0}) {
			east = true
		}
		if cell.Rect.ContainsPoint(geo.Point{X: -179.9, Y: 0}) {
			west = true
		}
	}

	assert.True(t, east)
	assert.True(t, west)
}

func TestCells_ClampsLevel(t *testing.T) {
	g := mustGrid(t, KindQuad, 3)
	shape := geo.Rectangle{MinX: 1, MaxX: 2, MinY: 1, MaxY: 2}

	levels := map[int]bool{}
	for c := range g.Cells(shape, 99) {
		levels[c.Level()] = true
	}
	for c := range g.Cells(shape, 0) {
		assert.Equal(t, 1, c.Level())
	}

	assert.Equal(t, []int{3}, slices.Collect(maps.Keys(levels)))
}
