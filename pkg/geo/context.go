package geo

import (
	"fmt"
	"math"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
)

// EarthMeanRadiusKm is the mean radius of the Earth used for km/degree conversion.
const EarthMeanRadiusKm = 6371.0087714

// World bounds.
const (
	MinLon = -180.0
	MaxLon = 180.0
	MinLat = -90.0
	MaxLat = 90.0
)

// Context is the immutable spatial configuration shared by grids and strategies.
// It selects geodesic or planar math and acts as the shape factory.
type Context struct {
	geo      bool
	radiusKm float64
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithRadiusKm sets the sphere radius used by km conversions.
func WithRadiusKm(km float64) ContextOption {
	return func(c *Context) {
		c.radiusKm = km
	}
}

// WithEuclidean selects planar distance math. World bounds stay the same.
func WithEuclidean() ContextOption {
	return func(c *Context) {
		c.geo = false
	}
}

// NewContext creates a Context. The default is geodesic math on a sphere of
// EarthMeanRadiusKm.
func NewContext(opts ...ContextOption) (*Context, error) {
	c := &Context{
		geo:      true,
		radiusKm: EarthMeanRadiusKm,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !(c.radiusKm > 0) || math.IsInf(c.radiusKm, 0) {
		return nil, geoerrors.InvalidArgumentError("radius %v km must be positive and finite", c.radiusKm)
	}
	return c, nil
}

var defaultContext = &Context{geo: true, radiusKm: EarthMeanRadiusKm}

// DefaultContext returns the shared geodesic context.
func DefaultContext() *Context {
	return defaultContext
}

// IsGeo reports whether distances are geodesic.
func (c *Context) IsGeo() bool {
	return c.geo
}

// RadiusKm returns the sphere radius in kilometers.
func (c *Context) RadiusKm() float64 {
	return c.radiusKm
}

// String implements fmt.Stringer.
func (c *Context) String() string {
	if c.geo {
		return fmt.Sprintf("Context{geo, radius=%gkm}", c.radiusKm)
	}
	return "Context{euclidean}"
}

// MakePoint validates and returns a point.
func (c *Context) MakePoint(x, y float64) (Point, error) {
	if err := checkX(x); err != nil {
		return Point{}, err
	}
	if err := checkY(y); err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

// MakeRect validates and returns a rectangle. MinX > MaxX is a rectangle that
// crosses the ±180 meridian; MinY > MaxY is rejected.
func (c *Context) MakeRect(minX, maxX, minY, maxY float64) (Rectangle, error) {
	for _, x := range []float64{minX, maxX} {
		if err := checkX(x); err != nil {
			return Rectangle{}, err
		}
	}
	for _, y := range []float64{minY, maxY} {
		if err := checkY(y); err != nil {
			return Rectangle{}, err
		}
	}
	if minY > maxY {
		return Rectangle{}, geoerrors.ShapeValidationError("rectangle minY %v > maxY %v", minY, maxY)
	}
	if !c.geo && minX > maxX {
		return Rectangle{}, geoerrors.ShapeValidationError("rectangle minX %v > maxX %v", minX, maxX)
	}
	return normRect(minX, maxX, minY, maxY), nil
}

// MakeCircle validates and returns a circle with a radius in degrees.
func (c *Context) MakeCircle(center Point, radiusDeg float64) (Circle, error) {
	if err := checkX(center.X); err != nil {
		return Circle{}, err
	}
	if err := checkY(center.Y); err != nil {
		return Circle{}, err
	}
	if !(radiusDeg > 0) || math.IsInf(radiusDeg, 0) {
		return Circle{}, geoerrors.ShapeValidationError("circle radius %v must be positive and finite", radiusDeg)
	}
	return Circle{ctx: c, center: center, radius: radiusDeg}, nil
}

// MakeCircleKm converts km to degrees with the context radius and returns a circle.
func (c *Context) MakeCircleKm(center Point, km float64) (Circle, error) {
	deg, err := DistanceToDegrees(km, c.radiusKm)
	if err != nil {
		return Circle{}, err
	}
	return c.MakeCircle(center, deg)
}

func checkX(x float64) error {
	if math.IsNaN(x) || x < MinLon || x > MaxLon {
		return geoerrors.ShapeValidationError("longitude %v outside [-180, 180]", x)
	}
	return nil
}

func checkY(y float64) error {
	if math.IsNaN(y) || y < MinLat || y > MaxLat {
		return geoerrors.ShapeValidationError("latitude %v outside [-90, 90]", y)
	}
	return nil
}
