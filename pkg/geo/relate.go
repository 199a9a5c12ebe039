package geo

import "math"

// Relation is the spatial relation of a first shape to a second.
type Relation int

const (
	// Disjoint shapes share no point.
	Disjoint Relation = iota
	// Intersects means the shapes overlap without either containing the other,
	// or their extents coincide.
	Intersects
	// Contains means the first shape contains the second.
	Contains
	// Within means the first shape is within the second.
	Within
)

// String implements fmt.Stringer.
func (r Relation) String() string {
	switch r {
	case Disjoint:
		return "DISJOINT"
	case Intersects:
		return "INTERSECTS"
	case Contains:
		return "CONTAINS"
	case Within:
		return "WITHIN"
	default:
		return "UNKNOWN"
	}
}

// Inverse returns the relation with the operands swapped.
func (r Relation) Inverse() Relation {
	switch r {
	case Contains:
		return Within
	case Within:
		return Contains
	default:
		return r
	}
}

// Intersects reports whether the shapes share at least one point.
func (r Relation) Intersects() bool {
	return r != Disjoint
}

// Relate returns the relation of a to b. Relate(a, b) is Contains exactly when
// Relate(b, a) is Within; shapes with coincident extents relate as Intersects.
func (c *Context) Relate(a, b Shape) Relation {
	switch a := a.(type) {
	case Point:
		switch b := b.(type) {
		case Point, Rectangle:
			return c.relateRects(a.BoundingBox(), b.BoundingBox())
		case Circle:
			return c.relateCircles(a, 0, b.center, b.radius)
		}
	case Rectangle:
		switch b := b.(type) {
		case Point, Rectangle:
			return c.relateRects(a, b.BoundingBox())
		case Circle:
			return c.relateRectCircle(a, b.center, b.radius)
		}
	case Circle:
		switch b := b.(type) {
		case Point:
			return c.relateCircles(a.center, a.radius, b, 0)
		case Rectangle:
			return c.relateRectCircle(b, a.center, a.radius).Inverse()
		case Circle:
			return c.relateCircles(a.center, a.radius, b.center, b.radius)
		}
	}
	// Shape is sealed to the three types above, so only a nil shape gets here
	return Disjoint
}

// Contains reports whether p is inside or on the edge of shape.
func (c *Context) Contains(shape Shape, p Point) bool {
	return c.Relate(shape, p).Intersects()
}

// span is a closed, non-wrapping interval.
type span struct{ lo, hi float64 }

func (s span) overlaps(o span) bool { return s.lo <= o.hi && o.lo <= s.hi }
func (s span) covers(o span) bool   { return s.lo <= o.lo && o.hi <= s.hi }

func xSpans(r Rectangle) []span {
	if r.CrossesDateLine() {
		return []span{{r.MinX, MaxLon}, {MinLon, r.MaxX}}
	}
	return []span{{r.MinX, r.MaxX}}
}

// coversAll reports whether every span of b lies inside some span of a.
func coversAll(a, b []span) bool {
	for _, sb := range b {
		covered := false
		for _, sa := range a {
			if sa.covers(sb) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

func overlapsAny(a, b []span) bool {
	for _, sa := range a {
		for _, sb := range b {
			if sa.overlaps(sb) {
				return true
			}
		}
	}
	return false
}

func (c *Context) relateRects(a, b Rectangle) Relation {
	ay, by := span{a.MinY, a.MaxY}, span{b.MinY, b.MaxY}
	if !ay.overlaps(by) {
		return Disjoint
	}
	ax, bx := xSpans(a), xSpans(b)
	if !overlapsAny(ax, bx) {
		return Disjoint
	}
	return combine(
		ay.covers(by) && coversAll(ax, bx),
		by.covers(ay) && coversAll(bx, ax),
	)
}

// combine turns containment flags into a relation.
func combine(contains, within bool) Relation {
	switch {
	case contains && within:
		return Intersects
	case contains:
		return Contains
	case within:
		return Within
	default:
		return Intersects
	}
}

func (c *Context) relateCircles(c1 Point, r1 float64, c2 Point, r2 float64) Relation {
	d := c.Distance(c1, c2)
	if d > r1+r2 {
		return Disjoint
	}
	return combine(d+r2 <= r1, d+r1 <= r2)
}

// relateRectCircle relates a rectangle to a circle.
func (c *Context) relateRectCircle(r Rectangle, center Point, radius float64) Relation {
	if c.minDistance(center, r) > radius {
		return Disjoint
	}
	box := c.CircleBoundingBox(center, radius)
	rectContains := span{r.MinY, r.MaxY}.covers(span{box.MinY, box.MaxY}) && coversAll(xSpans(r), xSpans(box))
	rectWithin := c.maxDistance(center, r) <= radius
	return combine(rectContains, rectWithin)
}

// minDistance is the smallest distance in degrees from p to any point of r.
func (c *Context) minDistance(p Point, r Rectangle) float64 {
	if !c.geo {
		dx := math.Max(0, math.Max(r.MinX-p.X, p.X-r.MaxX))
		dy := math.Max(0, math.Max(r.MinY-p.Y, p.Y-r.MaxY))
		return math.Hypot(dx, dy)
	}
	if r.ContainsPoint(Point{X: p.X, Y: clamp(p.Y, r.MinY, r.MaxY)}) {
		// same meridian: the latitude gap is a lower bound for every path
		return math.Abs(p.Y - clamp(p.Y, r.MinY, r.MaxY))
	}
	best := math.Inf(1)
	for _, s := range xSpans(r) {
		for _, edge := range []float64{s.lo, s.hi} {
			best = math.Min(best, c.meridianMinDistance(p, edge, r.MinY, r.MaxY))
		}
	}
	return best
}

// meridianMinDistance is the distance from p to the meridian segment at lon
// between minY and maxY.
func (c *Context) meridianMinDistance(p Point, lon, minY, maxY float64) float64 {
	ext := closestMeridianLat(p, lon)
	lat := clamp(clamp(ext, MinLat, MaxLat), minY, maxY)
	return haversineDeg(p.X, p.Y, lon, lat)
}

// closestMeridianLat returns the latitude of the point on the great circle
// through meridian lon closest to p. Results beyond ±90 lie on the opposite
// half of that great circle, past the pole.
func closestMeridianLat(p Point, lon float64) float64 {
	phi := p.Y * degToRad
	dLon := (p.X - lon) * degToRad
	return math.Atan2(math.Sin(phi), math.Cos(phi)*math.Cos(dLon)) * radToDeg
}

// maxDistance is the largest distance in degrees from p to any point of r.
func (c *Context) maxDistance(p Point, r Rectangle) float64 {
	if !c.geo {
		dx := math.Max(math.Abs(p.X-r.MinX), math.Abs(p.X-r.MaxX))
		dy := math.Max(math.Abs(p.Y-r.MinY), math.Abs(p.Y-r.MaxY))
		return math.Hypot(dx, dy)
	}
	antipode := Point{X: NormalizeLon(p.X + 180), Y: -p.Y}
	if antipode.X == MaxLon && r.MinX == MinLon {
		antipode.X = MinLon
	}
	if r.ContainsPoint(antipode) {
		return 180
	}

	best := 0.0
	consider := func(x, y float64) {
		best = math.Max(best, haversineDeg(p.X, p.Y, x, y))
	}
	for _, x := range []float64{r.MinX, r.MaxX} {
		consider(x, r.MinY)
		consider(x, r.MaxY)
		// the far point of the meridian circle can fall inside the edge
		ext := closestMeridianLat(p, x)
		if math.Abs(ext) > MaxLat {
			far := ext - math.Copysign(180, ext)
			if far >= r.MinY && far <= r.MaxY {
				consider(x, far)
			}
		}
	}
	// distance along a parallel grows with the longitude gap, peaking opposite p
	if r.ContainsPoint(Point{X: antipode.X, Y: r.MinY}) {
		consider(antipode.X, r.MinY)
		consider(antipode.X, r.MaxY)
	}
	return best
}
