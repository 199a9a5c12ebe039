// Package geo provides the spatial context, distance math, shapes and shape
// relations used by the prefix-tree grids and strategies.
//
// # Shapes
//
// A Shape is one of three variants: Point, Rectangle or Circle. The set is
// closed; relation logic dispatches on the concrete variant.
//
//	ctx := geo.DefaultContext()
//	center, _ := ctx.MakePoint(179.8, 0)
//	circle, _ := ctx.MakeCircleKm(center, 200)
//	box := circle.BoundingBox() // wraps across the antimeridian
//
// Coordinates are degrees: X is longitude in [-180, 180], Y is latitude in
// [-90, 90]. A Rectangle with MinX > MaxX spans the ±180 meridian. Circle radii
// are degrees of arc; use MakeCircleKm or DistanceToDegrees to convert.
//
// # Thread Safety
//
// Contexts and shapes are immutable values and safe for concurrent use.
package geo
