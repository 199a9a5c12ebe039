package query

import (
	"fmt"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
)

// DefaultDistErrPct is the default fraction of a shape's size allowed as error.
const DefaultDistErrPct = 0.025

// MaxDistErrPct is the largest accepted distance error fraction.
const MaxDistErrPct = 0.5

// SpatialArgs is an operation, a query shape and an optional precision hint.
// An explicit DistErr, in degrees, takes precedence over DistErrPct.
type SpatialArgs struct {
	Operation  Operation
	Shape      geo.Shape
	DistErrPct *float64
	DistErr    *float64
}

// NewSpatialArgs returns args with no precision hint.
func NewSpatialArgs(op Operation, shape geo.Shape) SpatialArgs {
	return SpatialArgs{Operation: op, Shape: shape}
}

// WithDistErrPct returns a copy with the error fraction set.
func (a SpatialArgs) WithDistErrPct(pct float64) SpatialArgs {
	a.DistErrPct = &pct
	return a
}

// WithDistErr returns a copy with an absolute error in degrees.
func (a SpatialArgs) WithDistErr(deg float64) SpatialArgs {
	a.DistErr = &deg
	return a
}

// Validate checks the operation, shape and precision hints.
func (a SpatialArgs) Validate() error {
	if !a.Operation.valid() {
		return geoerrors.InvalidQueryError("unknown spatial operation %d", int(a.Operation))
	}
	if a.Shape == nil {
		return geoerrors.InvalidQueryError("%s requires a query shape", a.Operation)
	}
	if a.Operation.TargetNeedsArea() && !a.Shape.HasArea() {
		return geoerrors.InvalidQueryError("%s requires a query shape with area, got %s", a.Operation, a.Shape)
	}
	if a.DistErrPct != nil {
		if err := checkPct(*a.DistErrPct); err != nil {
			return err
		}
	}
	if a.DistErr != nil && !(*a.DistErr >= 0) {
		return geoerrors.InvalidArgumentError("distErr %v must be non-negative", *a.DistErr)
	}
	return nil
}

// ResolveDistErr returns the allowed error in degrees for the query shape:
// DistErr when set, otherwise DistErrPct (or defaultPct) of the shape's size.
func (a SpatialArgs) ResolveDistErr(ctx *geo.Context, defaultPct float64) (float64, error) {
	if a.DistErr != nil {
		return *a.DistErr, nil
	}
	pct := defaultPct
	if a.DistErrPct != nil {
		pct = *a.DistErrPct
	}
	return DistanceFromErrPct(ctx, a.Shape, pct)
}

// DistanceFromErrPct scales pct by the distance from the center of the
// shape's bounding box to a corner. The corner nearer the equator is used so
// that high-latitude boxes keep their precision. Points need no error.
func DistanceFromErrPct(ctx *geo.Context, shape geo.Shape, pct float64) (float64, error) {
	if err := checkPct(pct); err != nil {
		return 0, err
	}
	if _, ok := shape.(geo.Point); ok || pct == 0 {
		return 0, nil
	}
	box := shape.BoundingBox()
	center := box.Center()
	y := box.MinY
	if center.Y >= 0 {
		y = box.MaxY
	}
	return ctx.Distance(center, geo.Point{X: box.MaxX, Y: y}) * pct, nil
}

func checkPct(pct float64) error {
	if !(pct >= 0 && pct <= MaxDistErrPct) {
		return geoerrors.InvalidArgumentError("distErrPct %v must be in [0, %v]", pct, MaxDistErrPct)
	}
	return nil
}

// String implements fmt.Stringer.
func (a SpatialArgs) String() string {
	s := fmt.Sprintf("%s(%s", a.Operation, a.Shape)
	if a.DistErr != nil {
		s += fmt.Sprintf(" distErr=%g", *a.DistErr)
	} else if a.DistErrPct != nil {
		s += fmt.Sprintf(" distErrPct=%g", *a.DistErrPct)
	}
	return s + ")"
}
