package query

import (
	"fmt"

	"github.com/Aman-CERP/geoprefix/pkg/geo"
)

// Query is a strategy's answer to SpatialArgs: an expression for the index
// and an optional exact filter for candidates it returns.
type Query struct {
	Expression Expression
	Filter     *PointFilter
}

func (q *Query) String() string {
	if q.Filter == nil {
		return q.Expression.String()
	}
	return fmt.Sprintf("%s FILTER %s", q.Expression, q.Filter)
}

// PointFilter checks candidate coordinates against Shape. A candidate
// passes when its points are inside Shape, or outside it with Exclude set.
// With Every set each of a candidate's points must pass; otherwise one is
// enough.
type PointFilter struct {
	ctx     *geo.Context
	XField  string
	YField  string
	Shape   geo.Shape
	Exclude bool
	Every   bool
}

// NewPointFilter returns a filter for op on shape, reading coordinates from
// xField and yField. IsDisjointTo excludes the shape and IsWithin requires
// every point inside it.
func NewPointFilter(ctx *geo.Context, xField, yField string, shape geo.Shape, op Operation) *PointFilter {
	exclude := op == IsDisjointTo
	return &PointFilter{
		ctx:     ctx,
		XField:  xField,
		YField:  yField,
		Shape:   shape,
		Exclude: exclude,
		Every:   exclude || op == IsWithin,
	}
}

// Accept reports whether a single point at (x, y) passes the filter.
func (f *PointFilter) Accept(x, y float64) bool {
	inside := f.ctx.Contains(f.Shape, geo.Point{X: x, Y: y})
	return inside != f.Exclude
}

// AcceptAll reports whether the candidate with coordinates xs[i], ys[i]
// passes. A candidate without coordinates never does.
func (f *PointFilter) AcceptAll(xs, ys []float64) bool {
	n := min(len(xs), len(ys))
	if n == 0 {
		return false
	}
	for i := range n {
		ok := f.Accept(xs[i], ys[i])
		if ok && !f.Every {
			return true
		}
		if !ok && f.Every {
			return false
		}
	}
	return f.Every
}

// Fields returns the coordinate fields a candidate must carry.
func (f *PointFilter) Fields() []string {
	return []string{f.XField, f.YField}
}

func (f *PointFilter) String() string {
	quant, rel := "any", "in"
	if f.Every {
		quant = "every"
	}
	if f.Exclude {
		rel = "not in"
	}
	return fmt.Sprintf("%s (%s,%s) %s %s", quant, f.XField, f.YField, rel, f.Shape)
}
