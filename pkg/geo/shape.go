package geo

import (
	"fmt"
	"math"
)

// Shape is a Point, Rectangle or Circle.
type Shape interface {
	// BoundingBox returns the smallest rectangle containing the shape.
	BoundingBox() Rectangle
	// Center returns the shape's center.
	Center() Point
	// HasArea reports whether the shape has non-zero area.
	HasArea() bool
	String() string

	isShape()
}

// Point is a longitude/latitude pair.
type Point struct {
	X float64
	Y float64
}

func (Point) isShape() {}

// BoundingBox returns the degenerate rectangle at the point.
func (p Point) BoundingBox() Rectangle {
	return Rectangle{MinX: p.X, MaxX: p.X, MinY: p.Y, MaxY: p.Y}
}

// Center returns the point itself.
func (p Point) Center() Point { return p }

// HasArea is always false for a point.
func (p Point) HasArea() bool { return false }

func (p Point) String() string {
	return fmt.Sprintf("Pt(x=%g,y=%g)", p.X, p.Y)
}

// Rectangle is an axis-aligned box. MinX > MaxX means the box crosses the
// ±180 meridian; latitude never wraps.
type Rectangle struct {
	MinX float64
	MaxX float64
	MinY float64
	MaxY float64
}

func (Rectangle) isShape() {}

// WorldRect returns the rectangle covering the whole globe.
func WorldRect() Rectangle {
	return Rectangle{MinX: MinLon, MaxX: MaxLon, MinY: MinLat, MaxY: MaxLat}
}

// normRect puts seam longitudes in canonical form: a box starting at 180 starts
// at -180 instead, and a box ending at -180 ends at 180.
func normRect(minX, maxX, minY, maxY float64) Rectangle {
	if minX == MaxLon && maxX != MaxLon {
		minX = MinLon
	}
	if maxX == MinLon && minX != MinLon {
		maxX = MaxLon
	}
	return Rectangle{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY}
}

// BoundingBox returns the rectangle itself.
func (r Rectangle) BoundingBox() Rectangle { return r }

// CrossesDateLine reports whether the rectangle spans the ±180 meridian.
func (r Rectangle) CrossesDateLine() bool {
	return r.MinX > r.MaxX
}

// Width is the longitude span in degrees.
func (r Rectangle) Width() float64 {
	if r.CrossesDateLine() {
		return r.MaxX + 360 - r.MinX
	}
	return r.MaxX - r.MinX
}

// Height is the latitude span in degrees.
func (r Rectangle) Height() float64 {
	return r.MaxY - r.MinY
}

// Center returns the middle of the rectangle, wrapping across the meridian.
func (r Rectangle) Center() Point {
	x := r.MinX + r.Width()/2
	if x > MaxLon {
		x -= 360
	}
	return Point{X: x, Y: (r.MinY + r.MaxY) / 2}
}

// HasArea reports whether both spans are non-zero.
func (r Rectangle) HasArea() bool {
	return r.Width() > 0 && r.Height() > 0
}

// IsWorldLon reports whether the rectangle covers every longitude.
func (r Rectangle) IsWorldLon() bool {
	return r.MinX == MinLon && r.MaxX == MaxLon
}

// Split returns the rectangle as non-wrapping pieces: itself, or the eastern
// and western halves when it crosses the meridian.
func (r Rectangle) Split() []Rectangle {
	if !r.CrossesDateLine() {
		return []Rectangle{r}
	}
	return []Rectangle{
		{MinX: r.MinX, MaxX: MaxLon, MinY: r.MinY, MaxY: r.MaxY},
		{MinX: MinLon, MaxX: r.MaxX, MinY: r.MinY, MaxY: r.MaxY},
	}
}

// ContainsPoint reports whether p lies inside the rectangle or on its edge.
func (r Rectangle) ContainsPoint(p Point) bool {
	if p.Y < r.MinY || p.Y > r.MaxY {
		return false
	}
	if r.CrossesDateLine() {
		return p.X >= r.MinX || p.X <= r.MaxX
	}
	return p.X >= r.MinX && p.X <= r.MaxX
}

func (r Rectangle) String() string {
	return fmt.Sprintf("Rect(minX=%g,maxX=%g,minY=%g,maxY=%g)", r.MinX, r.MaxX, r.MinY, r.MaxY)
}

// Circle is a center and a radius in degrees of arc. Its bounding box is
// derived from the context on demand.
type Circle struct {
	ctx    *Context
	center Point
	radius float64
}

func (Circle) isShape() {}

// Center returns the circle's center.
func (c Circle) Center() Point { return c.center }

// Radius returns the radius in degrees.
func (c Circle) Radius() float64 { return c.radius }

// BoundingBox returns the circle's bounding rectangle.
func (c Circle) BoundingBox() Rectangle {
	return c.ctx.CircleBoundingBox(c.center, c.radius)
}

// HasArea is true for any valid circle.
func (c Circle) HasArea() bool { return c.radius > 0 }

// ContainsPoint reports whether p is within the radius.
func (c Circle) ContainsPoint(p Point) bool {
	return c.ctx.Distance(c.center, p) <= c.radius
}

func (c Circle) String() string {
	return fmt.Sprintf("Circle(%s, d=%.6g°)", c.center, c.radius)
}

// Degenerate reports whether a rectangle collapses to a single point.
func (r Rectangle) Degenerate() bool {
	return r.MinX == r.MaxX && r.MinY == r.MaxY
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
