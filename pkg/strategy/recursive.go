package strategy

import (
	"fmt"
	"iter"
	"math"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
	"github.com/Aman-CERP/geoprefix/pkg/geo"
	"github.com/Aman-CERP/geoprefix/pkg/prefixtree"
	"github.com/Aman-CERP/geoprefix/pkg/query"
)

// RecursivePrefixTree indexes each shape as the grid cells covering it, at a
// precision derived from the shape's size, and builds queries by walking the
// grid from the root toward the query shape.
type RecursivePrefixTree struct {
	grid  *prefixtree.Grid
	field string
	opts  options
}

// Compile-time interface check.
var _ TokenStrategy = (*RecursivePrefixTree)(nil)

// NewRecursivePrefixTree returns a strategy over grid writing to field.
func NewRecursivePrefixTree(grid *prefixtree.Grid, field string, opts ...Option) (*RecursivePrefixTree, error) {
	if err := checkGrid(grid); err != nil {
		return nil, err
	}
	if err := checkField(field); err != nil {
		return nil, err
	}
	o, err := buildOptions(DefaultMaxClauses, opts)
	if err != nil {
		return nil, err
	}
	return &RecursivePrefixTree{grid: grid, field: field, opts: o}, nil
}

// FieldName implements Strategy.
func (s *RecursivePrefixTree) FieldName() string { return s.field }

// Context implements Strategy.
func (s *RecursivePrefixTree) Context() *geo.Context { return s.grid.Context() }

// Grid implements TokenStrategy.
func (s *RecursivePrefixTree) Grid() *prefixtree.Grid { return s.grid }

// DistErrPct is the index-time error fraction.
func (s *RecursivePrefixTree) DistErrPct() float64 { return s.opts.distErrPct }

// PointsOnly reports whether the strategy assumes point-only data.
func (s *RecursivePrefixTree) PointsOnly() bool { return s.opts.pointsOnly }

func (s *RecursivePrefixTree) String() string {
	return fmt.Sprintf("RecursivePrefixTree(field:%s, grid:%s, distErrPct:%g, pointsOnly:%t)",
		s.field, s.grid, s.opts.distErrPct, s.opts.pointsOnly)
}

// IndexLevel is the detail level used to index shape.
func (s *RecursivePrefixTree) IndexLevel(shape geo.Shape) int {
	if _, ok := shape.(geo.Point); ok {
		return s.grid.MaxLevels()
	}
	// the pct was validated at construction, so this cannot fail
	dist, _ := query.DistanceFromErrPct(s.Context(), shape, s.opts.distErrPct)
	return s.grid.LevelForDistance(dist)
}

// Tokens implements TokenStrategy.
func (s *RecursivePrefixTree) Tokens(shape geo.Shape) iter.Seq[string] {
	return func(yield func(string) bool) {
		if shape == nil {
			return
		}
		for c := range s.grid.Cells(shape, s.IndexLevel(shape)) {
			if !yield(c.Token) {
				return
			}
		}
	}
}

// Fields implements Strategy.
func (s *RecursivePrefixTree) Fields(shape geo.Shape) (iter.Seq[query.Field], error) {
	if shape == nil {
		return nil, geoerrors.ShapeValidationError("cannot index a nil shape")
	}
	return tokenFields(s.field, s.Tokens(shape)), nil
}

// DefaultMaxClauses bounds the clauses of a recursive query.
const DefaultMaxClauses = 4096

// MakeQuery implements Strategy. The detail level follows the query's
// distance error; when the walk at that level would exceed the clause bound
// the level is coarsened one step at a time.
func (s *RecursivePrefixTree) MakeQuery(args query.SpatialArgs) (*query.Query, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}
	distErr, err := args.ResolveDistErr(s.Context(), s.opts.distErrPct)
	if err != nil {
		return nil, err
	}
	for detail := s.grid.LevelForDistance(distErr); ; detail-- {
		limit := s.opts.maxTerms
		if detail == 1 {
			limit = math.MaxInt
		}
		b := &budget{left: limit}
		var expr query.Expression
		switch args.Operation {
		case query.Intersects, query.Overlaps:
			expr = s.intersects(args.Shape, detail, b)
		case query.IsWithin:
			expr = s.within(args.Shape, detail, b)
		case query.Contains:
			expr = s.coverAll(s.grid.World(), args.Shape, detail, b)
		case query.IsDisjointTo:
			expr = query.NewAnd(
				query.TermPrefix{Field: s.field},
				query.NewNot(s.intersects(args.Shape, detail, b)),
			)
		default:
			return nil, geoerrors.UnsupportedOperationError("RecursivePrefixTree", args.Operation.String())
		}
		if !b.exhausted() {
			return &query.Query{Expression: expr}, nil
		}
	}
}

// budget counts the clauses a query walk may still add.
type budget struct {
	left int
}

func (b *budget) take() bool {
	b.left--
	return b.left >= 0
}

func (b *budget) exhausted() bool { return b.left < 0 }

// cellKind is a cell's role in a query walk.
type cellKind int

const (
	// cellOutside is a disjoint cell; its subtree is not visited.
	cellOutside cellKind = iota
	// cellPartial straddles the shape edge above the detail level.
	cellPartial
	// cellInside lies within the shape or sits at the detail level.
	cellInside
)

// walk visits the cells of the grid relevant to shape, descending only
// through partial cells. It stops early when visit returns false.
func (s *RecursivePrefixTree) walk(parent prefixtree.Cell, shape geo.Shape, detail int, visit func(prefixtree.Cell, cellKind) bool) bool {
	for _, child := range s.grid.Children(parent) {
		rel := s.grid.Relate(child, shape)
		switch {
		case rel == geo.Disjoint:
			if !visit(child, cellOutside) {
				return false
			}
		case rel == geo.Within || child.Level() >= detail:
			if !visit(child, cellInside) {
				return false
			}
		default:
			if !visit(child, cellPartial) || !s.walk(child, shape, detail, visit) {
				return false
			}
		}
	}
	return true
}

// intersects matches documents with a token at or below a cell inside the
// shape, or exactly on a partial cell. The partial cells are the ancestors
// of every inside cell, so coarse documents are found too.
func (s *RecursivePrefixTree) intersects(shape geo.Shape, detail int, b *budget) query.Expression {
	var clauses []query.Expression
	for _, part := range splitShape(shape) {
		s.walk(s.grid.World(), part, detail, func(c prefixtree.Cell, kind cellKind) bool {
			switch kind {
			case cellInside:
				clauses = append(clauses, query.TermPrefix{Field: s.field, Prefix: c.Token})
			case cellPartial:
				if s.opts.pointsOnly {
					return true
				}
				clauses = append(clauses, query.TermEquals{Field: s.field, Token: c.Token})
			default:
				return true
			}
			return b.take()
		})
	}
	return query.NewOr(clauses...)
}

// within matches documents that intersect the shape and have no token in a
// cell outside it. A token on a partial cell means the document reaches past
// the shape's edge. Detail-level cells on the edge count as inside.
func (s *RecursivePrefixTree) within(shape geo.Shape, detail int, b *budget) query.Expression {
	var inside, outside []query.Expression
	s.walk(s.grid.World(), shape, detail, func(c prefixtree.Cell, kind cellKind) bool {
		switch kind {
		case cellInside:
			inside = append(inside, query.TermPrefix{Field: s.field, Prefix: c.Token})
		case cellOutside:
			outside = append(outside, query.TermPrefix{Field: s.field, Prefix: c.Token})
		case cellPartial:
			if s.opts.pointsOnly {
				return true
			}
			outside = append(outside, query.TermEquals{Field: s.field, Token: c.Token})
		}
		return b.take()
	})
	return query.NewAnd(query.NewOr(inside...), query.NewNot(query.NewOr(outside...)))
}

// coverAll matches documents whose cells cover every cell of the shape's
// covering below parent. A cell is covered by the document holding that
// token or an ancestor of it, or by covering each of its non-disjoint
// children.
func (s *RecursivePrefixTree) coverAll(parent prefixtree.Cell, shape geo.Shape, detail int, b *budget) query.Expression {
	var clauses []query.Expression
	for _, child := range s.grid.Children(parent) {
		if b.exhausted() {
			break
		}
		rel := s.grid.Relate(child, shape)
		switch {
		case rel == geo.Disjoint:
			continue
		case rel == geo.Within:
			clauses = append(clauses, query.TermEquals{Field: s.field, Token: child.Token})
		case child.Level() >= detail:
			clauses = append(clauses, query.TermPrefix{Field: s.field, Prefix: child.Token})
		default:
			clauses = append(clauses, query.NewOr(
				query.TermEquals{Field: s.field, Token: child.Token},
				s.coverAll(child, shape, detail, b),
			))
		}
		b.take()
	}
	if len(clauses) == 0 {
		return query.MatchNone{}
	}
	return query.NewAnd(clauses...)
}
