// Package strategy translates shapes into indexable fields and spatial
// arguments into query expressions.
//
// Three strategies are provided. RecursivePrefixTree indexes grid cells at a
// precision derived from each shape's size and builds queries by walking the
// grid from the root. TermQueryPrefixTree indexes and queries cells at one
// fixed level. PointVector stores point coordinates as two numeric fields
// and answers with range predicates plus an exact distance filter.
//
// Strategies are immutable after construction and safe for concurrent use.
package strategy
