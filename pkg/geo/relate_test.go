package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCircleKm(t *testing.T, x, y, km float64) Circle {
	t.Helper()
	c, err := DefaultContext().MakeCircleKm(Point{X: x, Y: y}, km)
	require.NoError(t, err)
	return c
}

func mustCircle(t *testing.T, x, y, deg float64) Circle {
	t.Helper()
	c, err := DefaultContext().MakeCircle(Point{X: x, Y: y}, deg)
	require.NoError(t, err)
	return c
}

func TestRelate_RectRect(t *testing.T) {
	ctx := DefaultContext()
	outer := Rectangle{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10}

	tests := []struct {
		name string
		b    Rectangle
		want Relation
	}{
		{"inside", Rectangle{2, 3, 2, 3}, Contains},
		{"equal", outer, Intersects},
		{"overlap", Rectangle{5, 15, 5, 15}, Intersects},
		{"touching edge", Rectangle{10, 12, 0, 10}, Intersects},
		{"disjoint x", Rectangle{11, 12, 0, 10}, Disjoint},
		{"disjoint y", Rectangle{0, 10, 11, 12}, Disjoint},
		{"around", Rectangle{-1, 11, -1, 11}, Within},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ctx.Relate(outer, tt.b))
			assert.Equal(t, tt.want.Inverse(), ctx.Relate(tt.b, outer))
		})
	}
}

func TestRelate_WrappingRect(t *testing.T) {
	ctx := DefaultContext()
	wrap := Rectangle{MinX: 170, MaxX: -170, MinY: -10, MaxY: 10}

	tests := []struct {
		name string
		b    Rectangle
		want Relation
	}{
		{"east half", Rectangle{175, 180, 0, 1}, Contains},
		{"west half", Rectangle{-180, -175, 0, 1}, Contains},
		{"straddling inside", Rectangle{175, -175, 0, 1}, Contains},
		{"partial", Rectangle{160, 175, 0, 1}, Intersects},
		{"far away", Rectangle{0, 10, 0, 1}, Disjoint},
		{"world", WorldRect(), Within},
		{"wrapping around it", Rectangle{160, -160, -20, 20}, Within},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ctx.Relate(wrap, tt.b))
			assert.Equal(t, tt.want.Inverse(), ctx.Relate(tt.b, wrap))
		})
	}
}

func TestRelate_SeamIsNotTouching(t *testing.T) {
	ctx := DefaultContext()

	east := Rectangle{MinX: 170, MaxX: 180, MinY: 0, MaxY: 1}
	west := Rectangle{MinX: -180, MaxX: -170, MinY: 0, MaxY: 1}

	assert.Equal(t, Disjoint, ctx.Relate(east, west))
}

func TestRelate_PointCases(t *testing.T) {
	ctx := DefaultContext()
	p := Point{X: 1, Y: 1}

	assert.Equal(t, Intersects, ctx.Relate(p, p))
	assert.Equal(t, Disjoint, ctx.Relate(p, Point{X: 1, Y: 2}))
	assert.Equal(t, Within, ctx.Relate(p, Rectangle{0, 2, 0, 2}))
	assert.Equal(t, Contains, ctx.Relate(Rectangle{0, 2, 0, 2}, p))
	assert.Equal(t, Within, ctx.Relate(p, mustCircle(t, 0, 0, 2)))
	assert.Equal(t, Contains, ctx.Relate(mustCircle(t, 0, 0, 2), p))
	assert.Equal(t, Disjoint, ctx.Relate(mustCircle(t, 0, 0, 1), p))
	assert.True(t, ctx.Contains(Rectangle{0, 2, 0, 2}, Point{X: 2, Y: 2}))
}

func TestRelate_NilShapeIsDisjoint(t *testing.T) {
	ctx := DefaultContext()

	assert.Equal(t, Disjoint, ctx.Relate(nil, Point{}))
	assert.Equal(t, Disjoint, ctx.Relate(Point{}, nil))
	assert.False(t, ctx.Contains(nil, Point{}))
}

func TestRelate_CircleCircle(t *testing.T) {
	ctx := DefaultContext()
	big := mustCircle(t, 0, 0, 10)

	assert.Equal(t, Contains, ctx.Relate(big, mustCircle(t, 1, 0, 2)))
	assert.Equal(t, Within, ctx.Relate(mustCircle(t, 1, 0, 2), big))
	assert.Equal(t, Intersects, ctx.Relate(big, mustCircle(t, 12, 0, 5)))
	assert.Equal(t, Disjoint, ctx.Relate(big, mustCircle(t, 30, 0, 5)))
	assert.Equal(t, Intersects, ctx.Relate(big, mustCircle(t, 0, 0, 10)))
}

func TestRelate_RectCircle(t *testing.T) {
	ctx := DefaultContext()
	c := mustCircle(t, 0, 0, 1)

	assert.Equal(t, Contains, ctx.Relate(Rectangle{-10, 10, -10, 10}, c))
	assert.Equal(t, Within, ctx.Relate(Rectangle{-0.1, 0.1, -0.1, 0.1}, c))
	assert.Equal(t, Intersects, ctx.Relate(Rectangle{0.5, 5, -0.5, 0.5}, c))
	assert.Equal(t, Disjoint, ctx.Relate(Rectangle{2, 5, -0.5, 0.5}, c))
	assert.Equal(t, Disjoint, ctx.Relate(Rectangle{0.8, 5, 0.8, 5}, c))
	assert.Equal(t, Within, ctx.Relate(c, Rectangle{-10, 10, -10, 10}))
}

func TestRelate_AntimeridianCircle(t *testing.T) {
	ctx := DefaultContext()
	circle := mustCircleKm(t, 179.8, 0, 200)

	// Then: points on both sides of the meridian are in range
	assert.Equal(t, Contains, ctx.Relate(circle, Point{X: 179.9, Y: 0}))
	assert.Equal(t, Contains, ctx.Relate(circle, Point{X: -179.9, Y: 0}))
	assert.Equal(t, Disjoint, ctx.Relate(circle, Point{X: -177, Y: 0}))

	// And: a box on the far side of the meridian intersects it
	assert.Equal(t, Intersects, ctx.Relate(Rectangle{-180, -170, -10, 10}, circle))
	assert.Equal(t, Contains, ctx.Relate(Rectangle{170, -170, -10, 10}, circle))
}

func TestRelate_PoleCircle(t *testing.T) {
	ctx := DefaultContext()
	circle := mustCircleKm(t, 50, 89.8, 200)

	// Then: a point on the opposite side of the pole is in range
	assert.Equal(t, Contains, ctx.Relate(circle, Point{X: -130, Y: 89.9}))

	// And: a small box around it is within the circle, despite the
	// degenerate longitude span of the circle's bounding box
	box := Rectangle{MinX: -135, MaxX: -125, MinY: 89.85, MaxY: 89.95}
	assert.Equal(t, Within, ctx.Relate(box, circle))

	// And: a box reaching the pole from the far side is not disjoint
	polar := Rectangle{MinX: -150, MaxX: -110, MinY: 88.5, MaxY: 90}
	assert.Equal(t, Within, ctx.Relate(polar, circle))
	assert.Equal(t, Disjoint, ctx.Relate(Rectangle{-150, -110, 80, 85}, circle))
}

func TestRelate_CircleContainingAntipodeRect(t *testing.T) {
	ctx := DefaultContext()
	huge := mustCircle(t, 0, 0, 179)

	// the rectangle holds the antipode, so the circle cannot contain it
	assert.Equal(t, Intersects, ctx.Relate(Rectangle{170, -170, -5, 5}, huge))
	assert.Equal(t, Within, ctx.Relate(Rectangle{10, 20, -5, 5}, huge))
}

// Relate(a, b) == Contains exactly when Relate(b, a) == Within, across a fixed
// set of shapes exercising wraps, poles and coincident extents.
func TestRelate_InverseConsistency(t *testing.T) {
	ctx := DefaultContext()
	shapes := []Shape{
		Point{X: 0, Y: 0},
		Point{X: 179.9, Y: 0},
		Point{X: -130, Y: 89.9},
		Rectangle{0, 10, 0, 10},
		Rectangle{0, 10, 0, 10},
		Rectangle{2, 3, 2, 3},
		Rectangle{170, -170, -10, 10},
		Rectangle{-180, 180, 80, 90},
		WorldRect(),
		mustCircle(t, 0, 0, 1),
		mustCircle(t, 5, 5, 2),
		mustCircleKm(t, 179.8, 0, 200),
		mustCircleKm(t, 50, 89.8, 200),
		mustCircleKm(t, 1, 1, 5000),
	}

	for i, a := range shapes {
		for j, b := range shapes {
			ab, ba := ctx.Relate(a, b), ctx.Relate(b, a)
			assert.Equal(t, ab == Contains, ba == Within, "%d:%s vs %d:%s = %s / %s", i, a, j, b, ab, ba)
			assert.Equal(t, ab == Disjoint, ba == Disjoint, "%d:%s vs %d:%s", i, a, j, b)
		}
	}
}

func TestRelation_String(t *testing.T) {
	assert.Equal(t, "DISJOINT", Disjoint.String())
	assert.Equal(t, "WITHIN", Within.String())
	assert.Equal(t, "UNKNOWN", Relation(42).String())
	assert.False(t, Disjoint.Intersects())
	assert.True(t, Within.Intersects())
}

func TestRectangle_SplitAndCenter(t *testing.T) {
	r := Rectangle{MinX: 170, MaxX: -170, MinY: -10, MaxY: 10}

	parts := r.Split()
	require.Len(t, parts, 2)
	assert.Equal(t, Rectangle{170, 180, -10, 10}, parts[0])
	assert.Equal(t, Rectangle{-180, -170, -10, 10}, parts[1])
	assert.Equal(t, Point{X: 180, Y: 0}, r.Center())
	assert.Equal(t, Point{X: 5, Y: 5}, Rectangle{0, 10, 0, 10}.Center())
	assert.Len(t, Rectangle{0, 10, 0, 10}.Split(), 1)
}
