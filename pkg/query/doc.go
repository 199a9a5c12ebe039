// Package query defines spatial operations, SpatialArgs, and the logical
// query expressions strategies emit for a search engine to evaluate.
//
// An Expression is a boolean tree over three leaf predicates: TermEquals,
// TermPrefix and Range. A Query pairs an expression with an optional
// PointFilter that the engine applies to each candidate after evaluation.
package query
