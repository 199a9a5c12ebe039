package strategy

import (
	"iter"
	"strconv"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
	"github.com/Aman-CERP/geoprefix/pkg/prefixtree"
	"github.com/Aman-CERP/geoprefix/pkg/query"
)

// Strategy converts shapes to index fields and spatial args to queries.
type Strategy interface {
	// FieldName is the base field the strategy writes and queries.
	FieldName() string

	// Context is the geo context used for relations and distances.
	Context() *geo.Context

	// Fields returns the indexable values for one shape.
	Fields(shape geo.Shape) (iter.Seq[query.Field], error)

	// MakeQuery builds the query for args.
	MakeQuery(args query.SpatialArgs) (*query.Query, error)
}

// TokenStrategy is a Strategy that indexes grid tokens.
type TokenStrategy interface {
	Strategy

	// Grid is the grid the tokens come from.
	Grid() *prefixtree.Grid

	// Tokens returns the cell tokens indexed for shape.
	Tokens(shape geo.Shape) iter.Seq[string]
}

// Name identifies a strategy implementation in configuration.
type Name string

const (
	// NameRecursive selects RecursivePrefixTree.
	NameRecursive Name = "recursive"
	// NameTerm selects TermQueryPrefixTree.
	NameTerm Name = "term"
	// NamePointVector selects PointVector.
	NamePointVector Name = "pointvector"
)

// Names lists the supported strategy names.
func Names() []Name {
	return []Name{NameRecursive, NameTerm, NamePointVector}
}

// Option configures a strategy.
type Option func(*options)

type options struct {
	distErrPct float64
	pointsOnly bool
	maxTerms   int
}

func defaultOptions(maxTerms int) options {
	return options{
		distErrPct: query.DefaultDistErrPct,
		maxTerms:   maxTerms,
	}
}

// WithDistErrPct sets the fraction of a shape's size allowed as error when
// indexing, and the default for queries that carry no hint.
func WithDistErrPct(pct float64) Option {
	return func(o *options) {
		o.distErrPct = pct
	}
}

// WithPointsOnly declares that only points are indexed, which lets queries
// skip clauses for coarse cells no point can occupy.
func WithPointsOnly(pointsOnly bool) Option {
	return func(o *options) {
		o.pointsOnly = pointsOnly
	}
}

// WithMaxTerms bounds the number of clauses a query may expand to. The
// recursive strategy coarsens its detail level to stay within the bound;
// the fixed-level strategy rejects the query.
func WithMaxTerms(n int) Option {
	return func(o *options) {
		o.maxTerms = n
	}
}

func buildOptions(maxTerms int, opts []Option) (options, error) {
	o := defaultOptions(maxTerms)
	for _, opt := range opts {
		opt(&o)
	}
	if !(o.distErrPct >= 0 && o.distErrPct <= query.MaxDistErrPct) {
		return o, geoerrors.ConfigurationError("distErrPct must be within [0, 0.5]", nil).
			WithDetail("distErrPct", formatFloat(o.distErrPct))
	}
	if o.maxTerms <= 0 {
		return o, geoerrors.ConfigurationError("maxTerms must be positive", nil)
	}
	return o, nil
}

// New builds the named strategy. The grid is ignored by PointVector.
func New(name Name, grid *prefixtree.Grid, ctx *geo.Context, field string, opts ...Option) (Strategy, error) {
	switch name {
	case NameRecursive:
		return NewRecursivePrefixTree(grid, field, opts...)
	case NameTerm:
		return NewTermQueryPrefixTree(grid, field, opts...)
	case NamePointVector:
		return NewPointVector(ctx, field)
	}
	return nil, geoerrors.ConfigurationError("unknown strategy "+string(name), nil).
		WithSuggestion("Use one of: recursive, term, pointvector")
}

func checkField(field string) error {
	if field == "" {
		return geoerrors.ConfigurationError("strategy field name is empty", nil)
	}
	return nil
}

func checkGrid(grid *prefixtree.Grid) error {
	if grid == nil {
		return geoerrors.ConfigurationError("grid strategy requires a grid", nil)
	}
	return nil
}

// tokenFields adapts a token sequence to fields named field.
func tokenFields(field string, tokens iter.Seq[string]) iter.Seq[query.Field] {
	return func(yield func(query.Field) bool) {
		for t := range tokens {
			if !yield(query.TokenField(field, t)) {
				return
			}
		}
	}
}

// splitShape returns the non-wrapping parts of shape.
func splitShape(shape geo.Shape) []geo.Shape {
	r, ok := shape.(geo.Rectangle)
	if !ok || !r.CrossesDateLine() {
		return []geo.Shape{shape}
	}
	parts := r.Split()
	out := make([]geo.Shape, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
