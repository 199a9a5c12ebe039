package strategy

import (
	"fmt"
	"iter"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
	"github.com/Aman-CERP/geoprefix/pkg/query"
)

const (
	xSuffix = "__x"
	ySuffix = "__y"
)

// PointVector indexes points as two numeric fields and answers queries with
// range predicates plus a per-point filter that the engine applies to range
// candidates.
type PointVector struct {
	ctx    *geo.Context
	field  string
	xField string
	yField string
}

// Compile-time interface check.
var _ Strategy = (*PointVector)(nil)

// NewPointVector returns a point-vector strategy writing <field>__x and
// <field>__y.
func NewPointVector(ctx *geo.Context, field string) (*PointVector, error) {
	if ctx == nil {
		return nil, geoerrors.ConfigurationError("point vector strategy requires a context", nil)
	}
	if err := checkField(field); err != nil {
		return nil, err
	}
	return &PointVector{ctx: ctx, field: field, xField: field + xSuffix, yField: field + ySuffix}, nil
}

// FieldName implements Strategy.
func (s *PointVector) FieldName() string { return s.field }

// Context implements Strategy.
func (s *PointVector) Context() *geo.Context { return s.ctx }

// XField is the longitude field.
func (s *PointVector) XField() string { return s.xField }

// YField is the latitude field.
func (s *PointVector) YField() string { return s.yField }

func (s *PointVector) String() string {
	return fmt.Sprintf("PointVector(field:%s)", s.field)
}

// Fields implements Strategy. Only points can be indexed.
func (s *PointVector) Fields(shape geo.Shape) (iter.Seq[query.Field], error) {
	p, ok := shape.(geo.Point)
	if !ok {
		if shape == nil {
			return nil, geoerrors.ShapeValidationError("cannot index a nil shape")
		}
		return nil, geoerrors.UnsupportedShapeError("PointVector", shape.String())
	}
	return func(yield func(query.Field) bool) {
		if !yield(query.NumericField(s.xField, p.X)) {
			return
		}
		yield(query.NumericField(s.yField, p.Y))
	}, nil
}

// MakeQuery implements Strategy. Contains is not supported since points have
// no area.
func (s *PointVector) MakeQuery(args query.SpatialArgs) (*query.Query, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}
	if args.Operation == query.Contains {
		return nil, geoerrors.UnsupportedOperationError("PointVector", args.Operation.String())
	}

	var ranges query.Expression
	switch shape := args.Shape.(type) {
	case geo.Point:
		ranges = query.NewAnd(
			query.Range{Field: s.xField, Min: shape.X, Max: shape.X},
			query.Range{Field: s.yField, Min: shape.Y, Max: shape.Y},
		)
	case geo.Rectangle:
		ranges = s.rectRanges(shape)
	case geo.Circle:
		ranges = s.rectRanges(shape.BoundingBox())
	default:
		return nil, geoerrors.UnsupportedShapeError("PointVector", args.Shape.String())
	}

	// The ranges match x and y values independently, so a document with
	// several points can match on coordinates of different points. The
	// filter checks each point.
	filter := query.NewPointFilter(s.ctx, s.xField, s.yField, args.Shape, args.Operation)
	if args.Operation != query.IsDisjointTo {
		return &query.Query{Expression: ranges, Filter: filter}, nil
	}
	exists := query.Range{Field: s.xField, Min: geo.MinLon, Max: geo.MaxLon}
	return &query.Query{Expression: exists, Filter: filter}, nil
}

// rectRanges covers r with x and y range predicates. A rectangle crossing
// the antimeridian needs two x ranges; one spanning every longitude needs
// none.
func (s *PointVector) rectRanges(r geo.Rectangle) query.Expression {
	y := query.Range{Field: s.yField, Min: r.MinY, Max: r.MaxY}
	switch {
	case r.IsWorldLon():
		return y
	case r.CrossesDateLine():
		return query.NewAnd(query.NewOr(
			query.Range{Field: s.xField, Min: r.MinX, Max: geo.MaxLon},
			query.Range{Field: s.xField, Min: geo.MinLon, Max: r.MaxX},
		), y)
	}
	return query.NewAnd(query.Range{Field: s.xField, Min: r.MinX, Max: r.MaxX}, y)
}
