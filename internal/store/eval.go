package store

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/geoprefix/pkg/query"
)

// idSet is a set of document IDs.
type idSet map[string]struct{}

// postings answers the leaf lookups of an expression.
type postings interface {
	universe(ctx context.Context) (idSet, error)
	termEquals(ctx context.Context, field, token string) (idSet, error)
	termPrefix(ctx context.Context, field, prefix string) (idSet, error)
	numericRange(ctx context.Context, field string, lo, hi float64) (idSet, error)
}

// termBatcher is implemented by postings that look up many exact tokens of
// one field faster together than one by one.
type termBatcher interface {
	termsIn(ctx context.Context, field string, tokens []string) (idSet, error)
}

// evaluate computes the set of documents matching e with set algebra over
// leaf lookups. Not is taken against every indexed document.
func evaluate(ctx context.Context, p postings, e query.Expression) (idSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch e := e.(type) {
	case query.TermEquals:
		return p.termEquals(ctx, e.Field, e.Token)
	case query.TermPrefix:
		return p.termPrefix(ctx, e.Field, e.Prefix)
	case query.Range:
		if e.Min > e.Max {
			return idSet{}, nil
		}
		return p.numericRange(ctx, e.Field, e.Min, e.Max)
	case query.MatchAll:
		return p.universe(ctx)
	case query.MatchNone:
		return idSet{}, nil
	case query.And:
		return evaluateAnd(ctx, p, e.Clauses)
	case query.Or:
		return evaluateOr(ctx, p, e.Clauses)
	case query.Not:
		all, err := p.universe(ctx)
		if err != nil {
			return nil, err
		}
		excluded, err := evaluate(ctx, p, e.Clause)
		if err != nil {
			return nil, err
		}
		for id := range excluded {
			delete(all, id)
		}
		return all, nil
	case nil:
		return nil, fmt.Errorf("nil expression")
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

// evaluateOr unions clause results. Exact terms are grouped per field when
// the postings support batched lookups.
func evaluateOr(ctx context.Context, p postings, clauses []query.Expression) (idSet, error) {
	out := idSet{}
	merge := func(s idSet) {
		for id := range s {
			out[id] = struct{}{}
		}
	}

	batcher, batching := p.(termBatcher)
	var (
		fields []string
		tokens map[string][]string
	)
	for _, c := range clauses {
		if t, ok := c.(query.TermEquals); ok && batching {
			if tokens == nil {
				tokens = make(map[string][]string)
			}
			if _, seen := tokens[t.Field]; !seen {
				fields = append(fields, t.Field)
			}
			tokens[t.Field] = append(tokens[t.Field], t.Token)
			continue
		}
		s, err := evaluate(ctx, p, c)
		if err != nil {
			return nil, err
		}
		merge(s)
	}
	for _, f := range fields {
		s, err := batcher.termsIn(ctx, f, tokens[f])
		if err != nil {
			return nil, err
		}
		merge(s)
	}
	return out, nil
}

// evaluateAnd intersects clause results. Negated clauses are subtracted
// from the running result instead of being materialized.
func evaluateAnd(ctx context.Context, p postings, clauses []query.Expression) (idSet, error) {
	var (
		out     idSet
		negated []query.Expression
	)
	for _, c := range clauses {
		if n, ok := c.(query.Not); ok {
			negated = append(negated, n.Clause)
			continue
		}
		s, err := evaluate(ctx, p, c)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = s
		} else {
			for id := range out {
				if _, ok := s[id]; !ok {
					delete(out, id)
				}
			}
		}
		if len(out) == 0 {
			return idSet{}, nil
		}
	}
	if out == nil {
		all, err := p.universe(ctx)
		if err != nil {
			return nil, err
		}
		out = all
	}
	for _, c := range negated {
		if len(out) == 0 {
			break
		}
		s, err := evaluate(ctx, p, c)
		if err != nil {
			return nil, err
		}
		for id := range s {
			delete(out, id)
		}
	}
	return out, nil
}
