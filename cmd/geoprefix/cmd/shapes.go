package cmd

import (
	"strconv"
	"strings"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
)

// parseFloats splits s on commas and parses exactly n numbers.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, geoerrors.InvalidArgumentError("expected %d comma-separated numbers, got %q", n, s)
	}
	return parseFields(parts)
}

func parseFields(parts []string) ([]float64, error) {
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, geoerrors.InvalidArgumentError("invalid number %q", p)
		}
		out[i] = v
	}
	return out, nil
}

// shapeFromValues builds a shape from a row of numbers:
//
//	lon,lat                     point
//	lon,lat,km                  circle
//	minX,maxX,minY,maxY         rectangle
func shapeFromValues(ctx *geo.Context, v []float64) (geo.Shape, error) {
	switch len(v) {
	case 2:
		return ctx.MakePoint(v[0], v[1])
	case 3:
		center, err := ctx.MakePoint(v[0], v[1])
		if err != nil {
			return nil, err
		}
		return ctx.MakeCircleKm(center, v[2])
	case 4:
		return ctx.MakeRect(v[0], v[1], v[2], v[3])
	default:
		return nil, geoerrors.InvalidArgumentError("expected 2, 3 or 4 coordinates, got %d", len(v))
	}
}

// queryShape resolves the mutually exclusive --circle, --bbox and --rect
// flags into one shape.
func queryShape(ctx *geo.Context, circle, bbox, rect string) (geo.Shape, error) {
	set := 0
	for _, s := range []string{circle, bbox, rect} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return nil, geoerrors.InvalidArgumentError("exactly one of --circle, --bbox or --rect is required")
	}

	switch {
	case rect != "":
		v, err := parseFloats(rect, 4)
		if err != nil {
			return nil, err
		}
		return shapeFromValues(ctx, v)
	default:
		spec := circle
		if bbox != "" {
			spec = bbox
		}
		v, err := parseFloats(spec, 3)
		if err != nil {
			return nil, err
		}
		c, err := shapeFromValues(ctx, v)
		if err != nil {
			return nil, err
		}
		if bbox != "" {
			return c.BoundingBox(), nil
		}
		return c, nil
	}
}
