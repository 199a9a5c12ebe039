package query

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Expression is a node of a logical query tree. The set of node types is
// closed.
type Expression interface {
	String() string
	isExpression()
}

// TermEquals matches documents with exactly Token in Field.
type TermEquals struct {
	Field string
	Token string
}

// TermPrefix matches documents with any token in Field starting with Prefix.
// An empty prefix matches every document that has the field.
type TermPrefix struct {
	Field  string
	Prefix string
}

// Range matches documents whose numeric Field lies in [Min, Max].
type Range struct {
	Field string
	Min   float64
	Max   float64
}

// And matches documents matching every clause.
type And struct {
	Clauses []Expression
}

// Or matches documents matching any clause.
type Or struct {
	Clauses []Expression
}

// Not matches every document that does not match Clause.
type Not struct {
	Clause Expression
}

// MatchAll matches every document.
type MatchAll struct{}

// MatchNone matches no document.
type MatchNone struct{}

func (TermEquals) isExpression() {}
func (TermPrefix) isExpression() {}
func (Range) isExpression()      {}
func (And) isExpression()        {}
func (Or) isExpression()         {}
func (Not) isExpression()        {}
func (MatchAll) isExpression()   {}
func (MatchNone) isExpression()  {}

func (e TermEquals) String() string { return e.Field + ":" + e.Token }
func (e TermPrefix) String() string { return e.Field + ":" + e.Prefix + "*" }
func (e Range) String() string {
	return fmt.Sprintf("%s:[%s TO %s]", e.Field, fmtFloat(e.Min), fmtFloat(e.Max))
}
func (e And) String() string     { return "AND(" + joinClauses(e.Clauses) + ")" }
func (e Or) String() string      { return "OR(" + joinClauses(e.Clauses) + ")" }
func (e Not) String() string     { return "NOT(" + e.Clause.String() + ")" }
func (MatchAll) String() string  { return "MatchAll" }
func (MatchNone) String() string { return "MatchNone" }

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func joinClauses(clauses []Expression) string {
	parts := make([]string, len(clauses))
	for i, c := range clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// NewAnd builds a conjunction. Nested conjunctions are flattened, MatchAll
// clauses dropped and any MatchNone clause collapses the result.
func NewAnd(clauses ...Expression) Expression {
	var flat []Expression
	for _, c := range clauses {
		switch c := c.(type) {
		case nil, MatchAll:
		case MatchNone:
			return MatchNone{}
		case And:
			flat = append(flat, c.Clauses...)
		default:
			flat = append(flat, c)
		}
	}
	flat = dedupe(flat)
	switch len(flat) {
	case 0:
		return MatchAll{}
	case 1:
		return flat[0]
	}
	return And{Clauses: flat}
}

// NewOr builds a disjunction. Nested disjunctions are flattened, MatchNone
// clauses dropped and any MatchAll clause collapses the result.
func NewOr(clauses ...Expression) Expression {
	var flat []Expression
	for _, c := range clauses {
		switch c := c.(type) {
		case nil, MatchNone:
		case MatchAll:
			return MatchAll{}
		case Or:
			flat = append(flat, c.Clauses...)
		default:
			flat = append(flat, c)
		}
	}
	flat = dedupe(flat)
	switch len(flat) {
	case 0:
		return MatchNone{}
	case 1:
		return flat[0]
	}
	return Or{Clauses: flat}
}

// NewNot negates an expression, folding double negation and constants.
func NewNot(clause Expression) Expression {
	switch c := clause.(type) {
	case nil, MatchNone:
		return MatchAll{}
	case MatchAll:
		return MatchNone{}
	case Not:
		return c.Clause
	}
	return Not{Clause: clause}
}

// dedupe drops repeated leaf clauses, keeping first occurrences.
func dedupe(clauses []Expression) []Expression {
	if len(clauses) < 2 {
		return clauses
	}
	seen := make(map[Expression]struct{}, len(clauses))
	out := clauses[:0]
	for _, c := range clauses {
		switch c.(type) {
		case TermEquals, TermPrefix, Range:
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
		}
		out = append(out, c)
	}
	return out
}

// Walk visits e and its descendants depth-first. Returning false from fn
// skips the node's children.
func Walk(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch e := e.(type) {
	case And:
		for _, c := range e.Clauses {
			Walk(c, fn)
		}
	case Or:
		for _, c := range e.Clauses {
			Walk(c, fn)
		}
	case Not:
		Walk(e.Clause, fn)
	}
}

// Size counts the nodes of e.
func Size(e Expression) int {
	n := 0
	Walk(e, func(Expression) bool {
		n++
		return true
	})
	return n
}

// Fields returns the sorted field names referenced by e.
func Fields(e Expression) []string {
	set := map[string]struct{}{}
	Walk(e, func(x Expression) bool {
		switch x := x.(type) {
		case TermEquals:
			set[x.Field] = struct{}{}
		case TermPrefix:
			set[x.Field] = struct{}{}
		case Range:
			set[x.Field] = struct{}{}
		}
		return true
	})
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
