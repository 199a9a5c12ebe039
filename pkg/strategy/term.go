package strategy

import (
	"fmt"
	"iter"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
	"github.com/Aman-CERP/geoprefix/pkg/prefixtree"
	"github.com/Aman-CERP/geoprefix/pkg/query"
)

// DefaultMaxTerms bounds the exact terms of a fixed-level query.
const DefaultMaxTerms = 1 << 16

// TermQueryPrefixTree indexes and queries cells at one fixed level, the
// grid's MaxLevels. Queries are a flat OR of exact tokens.
type TermQueryPrefixTree struct {
	grid  *prefixtree.Grid
	field string
	opts  options
}

// Compile-time interface check.
var _ TokenStrategy = (*TermQueryPrefixTree)(nil)

// NewTermQueryPrefixTree returns a fixed-level strategy over grid.
func NewTermQueryPrefixTree(grid *prefixtree.Grid, field string, opts ...Option) (*TermQueryPrefixTree, error) {
	if err := checkGrid(grid); err != nil {
		return nil, err
	}
	if err := checkField(field); err != nil {
		return nil, err
	}
	o, err := buildOptions(DefaultMaxTerms, opts)
	if err != nil {
		return nil, err
	}
	return &TermQueryPrefixTree{grid: grid, field: field, opts: o}, nil
}

// FieldName implements Strategy.
func (s *TermQueryPrefixTree) FieldName() string { return s.field }

// Context implements Strategy.
func (s *TermQueryPrefixTree) Context() *geo.Context { return s.grid.Context() }

// Grid implements TokenStrategy.
func (s *TermQueryPrefixTree) Grid() *prefixtree.Grid { return s.grid }

// Level is the fixed cell level.
func (s *TermQueryPrefixTree) Level() int { return s.grid.MaxLevels() }

func (s *TermQueryPrefixTree) String() string {
	return fmt.Sprintf("TermQueryPrefixTree(field:%s, grid:%s)", s.field, s.grid)
}

// Tokens implements TokenStrategy. Every cell at the fixed level touching
// the shape is emitted.
func (s *TermQueryPrefixTree) Tokens(shape geo.Shape) iter.Seq[string] {
	return func(yield func(string) bool) {
		if shape == nil {
			return
		}
		for c := range s.grid.CellsAtLevel(shape, s.Level()) {
			if !yield(c.Token) {
				return
			}
		}
	}
}

// Fields implements Strategy.
func (s *TermQueryPrefixTree) Fields(shape geo.Shape) (iter.Seq[query.Field], error) {
	if shape == nil {
		return nil, geoerrors.ShapeValidationError("cannot index a nil shape")
	}
	return tokenFields(s.field, s.Tokens(shape)), nil
}

// MakeQuery implements Strategy. Only the intersection family is supported.
func (s *TermQueryPrefixTree) MakeQuery(args query.SpatialArgs) (*query.Query, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}
	switch args.Operation {
	case query.Intersects, query.Overlaps, query.IsDisjointTo:
	default:
		return nil, geoerrors.UnsupportedOperationError("TermQueryPrefixTree", args.Operation.String())
	}

	var terms []query.Expression
	for _, part := range splitShape(args.Shape) {
		for c := range s.grid.CellsAtLevel(part, s.Level()) {
			if len(terms) == s.opts.maxTerms {
				return nil, geoerrors.InvalidQueryError("%s covers more than %d cells at level %d",
					args.Shape, s.opts.maxTerms, s.Level())
			}
			terms = append(terms, query.TermEquals{Field: s.field, Token: c.Token})
		}
	}
	expr := query.NewOr(terms...)
	if args.Operation == query.IsDisjointTo {
		expr = query.NewAnd(query.TermPrefix{Field: s.field}, query.NewNot(expr))
	}
	return &query.Query{Expression: expr}, nil
}
