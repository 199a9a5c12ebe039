package prefixtree

import (
	"iter"
	"strings"

	"github.com/Aman-CERP/geoprefix/pkg/geo"
)

// CellForPoint returns the single cell at level holding p.
func (g *Grid) CellForPoint(p geo.Point, level int) Cell {
	level = g.clampLevel(level)
	if g.kind == KindGeohash && level <= geohashLibMaxChars {
		token := encodeGeohash(p, level)
		c := Cell{Token: token, Rect: g.extent(token)}
		// fixed-point rounding can land a split-line point in the lower cell
		if c.Rect.ContainsPoint(p) {
			return c
		}
	}

	r := geo.WorldRect()
	var sb strings.Builder
	sb.Grow(level)
	for l := range level {
		var sym int
		if g.kind == KindGeohash {
			sym = geohashSymbol(r, l, p)
		} else {
			sym = quadSymbol(r, p)
		}
		sb.WriteByte(g.alphabet[sym])
		r = g.subdivide(r, l, sym)
	}
	return Cell{Token: sb.String(), Rect: r}
}

// Cells lazily enumerates the cells covering shape, no deeper than maxLevel.
// Cells disjoint from the shape are pruned, cells within it are emitted
// without descending, partially covered cells are refined until maxLevel.
// A point yields exactly one cell at maxLevel.
func (g *Grid) Cells(shape geo.Shape, maxLevel int) iter.Seq[Cell] {
	maxLevel = g.clampLevel(maxLevel)
	return func(yield func(Cell) bool) {
		if p, ok := shape.(geo.Point); ok {
			yield(g.CellForPoint(p, maxLevel))
			return
		}
		g.cover(g.World(), shape, maxLevel, false, yield)
	}
}

// CellsAtLevel lazily enumerates every cell exactly at level that is not
// disjoint from shape.
func (g *Grid) CellsAtLevel(shape geo.Shape, level int) iter.Seq[Cell] {
	level = g.clampLevel(level)
	return func(yield func(Cell) bool) {
		if p, ok := shape.(geo.Point); ok {
			yield(g.CellForPoint(p, level))
			return
		}
		g.cover(g.World(), shape, level, true, yield)
	}
}

func (g *Grid) cover(parent Cell, shape geo.Shape, maxLevel int, full bool, yield func(Cell) bool) bool {
	for _, child := range g.Children(parent) {
		rel := g.Relate(child, shape)
		switch {
		case rel == geo.Disjoint:
		case child.Level() == maxLevel:
			if !yield(child) {
				return false
			}
		case rel == geo.Within:
			if !full {
				if !yield(child) {
					return false
				}
			} else if !g.descendAll(child, maxLevel, yield) {
				return false
			}
		default:
			if !g.cover(child, shape, maxLevel, full, yield) {
				return false
			}
		}
	}
	return true
}

// Relate classifies a cell against shape. A cell whose extent is exactly a
// rectangle shape counts as Within so the covering stops at that cell.
func (g *Grid) Relate(c Cell, shape geo.Shape) geo.Relation {
	if r, ok := shape.(geo.Rectangle); ok && r == c.Rect {
		return geo.Within
	}
	return g.ctx.Relate(c.Rect, shape)
}

// descendAll yields every descendant of c at level.
func (g *Grid) descendAll(c Cell, level int, yield func(Cell) bool) bool {
	if c.Level() == level {
		return yield(c)
	}
	for _, child := range g.Children(c) {
		if !g.descendAll(child, level, yield) {
			return false
		}
	}
	return true
}

// LevelForDistance returns the shallowest level whose cells are smaller than
// dist degrees on both axes, clamped to [1, MaxLevels]. A zero distance asks
// for full precision.
func (g *Grid) LevelForDistance(dist float64) int {
	if !(dist > 0) {
		return g.maxLevels
	}
	if g.kind == KindGeohash {
		for l := 1; l < GeohashMaxLevelsCeiling; l++ {
			if g.levelH[l] < dist && g.levelW[l] < dist {
				return g.clampLevel(l)
			}
		}
		return g.clampLevel(GeohashMaxLevelsCeiling)
	}
	for l := 1; l < g.maxLevels; l++ {
		if dist > g.levelW[l] && dist > g.levelH[l] {
			return l
		}
	}
	return g.maxLevels
}
