package geo

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// DistanceToDegrees converts a great-circle distance in km to degrees of arc.
func DistanceToDegrees(km, radiusKm float64) (float64, error) {
	if !(radiusKm > 0) {
		return 0, geoerrors.InvalidArgumentError("radius %v km must be positive", radiusKm)
	}
	return (km / radiusKm) * radToDeg, nil
}

// DegreesToDistance converts degrees of arc to a great-circle distance in km.
func DegreesToDistance(deg, radiusKm float64) (float64, error) {
	if !(radiusKm > 0) {
		return 0, geoerrors.InvalidArgumentError("radius %v km must be positive", radiusKm)
	}
	return deg * degToRad * radiusKm, nil
}

// Distance returns the distance between two points in degrees.
func (c *Context) Distance(a, b Point) float64 {
	return c.distXY(a.X, a.Y, b.X, b.Y)
}

// DistanceKm returns the distance between two points in km.
func (c *Context) DistanceKm(a, b Point) float64 {
	return c.Distance(a, b) * degToRad * c.radiusKm
}

func (c *Context) distXY(x1, y1, x2, y2 float64) float64 {
	if !c.geo {
		return math.Hypot(x2-x1, y2-y1)
	}
	return haversineDeg(x1, y1, x2, y2)
}

// haversineDeg is the great-circle distance in degrees. The angle does not
// depend on the sphere, so the context radius only scales it to km.
func haversineDeg(lon1, lat1, lon2, lat2 float64) float64 {
	return s2.LatLngFromDegrees(lat1, lon1).Distance(s2.LatLngFromDegrees(lat2, lon2)).Degrees()
}

// CircleBoundingBox returns the bounding rectangle of a circle. Near a pole the
// longitude span becomes the whole world; across the antimeridian MinX > MaxX.
func (c *Context) CircleBoundingBox(center Point, radiusDeg float64) Rectangle {
	if !c.geo {
		return Rectangle{
			MinX: math.Max(center.X-radiusDeg, MinLon),
			MaxX: math.Min(center.X+radiusDeg, MaxLon),
			MinY: math.Max(center.Y-radiusDeg, MinLat),
			MaxY: math.Min(center.Y+radiusDeg, MaxLat),
		}
	}
	if radiusDeg == 0 {
		return center.BoundingBox()
	}
	if radiusDeg >= 180 {
		return WorldRect()
	}

	maxY := center.Y + radiusDeg
	minY := center.Y - radiusDeg
	var minX, maxX float64
	if maxY >= MaxLat || minY <= MinLat {
		minX, maxX = MinLon, MaxLon
		// touching a pole without passing it bounds longitude to a half world
		if maxY <= MaxLat && minY >= MinLat {
			minX = NormalizeLon(center.X - 90)
			maxX = NormalizeLon(center.X + 90)
		}
		maxY = math.Min(maxY, MaxLat)
		minY = math.Max(minY, MinLat)
	} else {
		minX, maxX = capLonBounds(center, radiusDeg)
	}
	return normRect(minX, maxX, minY, maxY)
}

// capLonBounds is the longitude span of the spherical cap around center.
// Latitude bounds stay with the caller, computed from the degree inputs.
func capLonBounds(center Point, radiusDeg float64) (float64, float64) {
	c := s2.CapFromCenterAngle(
		s2.PointFromLatLng(s2.LatLngFromDegrees(center.Y, center.X)),
		s1.Angle(radiusDeg)*s1.Degree,
	)
	lng := c.RectBound().Lng
	if lng.IsFull() {
		return MinLon, MaxLon
	}
	return NormalizeLon(lng.Lo * radToDeg), NormalizeLon(lng.Hi * radToDeg)
}

// NormalizeLon wraps a longitude into [-180, 180]. Values already in range are
// returned unchanged, so both 180 and -180 survive.
func NormalizeLon(lon float64) float64 {
	if lon >= MinLon && lon <= MaxLon {
		return lon
	}
	off := math.Mod(lon+180, 360)
	switch {
	case off < 0:
		return 180 + off
	case off == 0 && lon > 0:
		return 180
	default:
		return -180 + off
	}
}
