package query

import (
	"strings"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
)

// Operation is the spatial predicate between an indexed shape and the query
// shape.
type Operation int

const (
	// Intersects matches indexed shapes sharing any point with the query shape.
	Intersects Operation = iota
	// IsWithin matches indexed shapes lying inside the query shape.
	IsWithin
	// Contains matches indexed shapes that contain the query shape.
	Contains
	// IsDisjointTo matches indexed shapes sharing no point with the query shape.
	IsDisjointTo
	// Overlaps is Intersects restricted to query shapes with area.
	Overlaps
)

var operationNames = [...]string{
	Intersects:   "Intersects",
	IsWithin:     "IsWithin",
	Contains:     "Contains",
	IsDisjointTo: "IsDisjointTo",
	Overlaps:     "Overlaps",
}

// Operations lists every operation.
func Operations() []Operation {
	return []Operation{Intersects, IsWithin, Contains, IsDisjointTo, Overlaps}
}

// String implements fmt.Stringer.
func (o Operation) String() string {
	if o < 0 || int(o) >= len(operationNames) {
		return "Unknown"
	}
	return operationNames[o]
}

// ParseOperation parses an operation name case-insensitively.
func ParseOperation(name string) (Operation, error) {
	n := strings.TrimSpace(name)
	for i, candidate := range operationNames {
		if strings.EqualFold(candidate, n) {
			return Operation(i), nil
		}
	}
	return 0, geoerrors.InvalidArgumentError("unknown spatial operation %q", name)
}

// SourceNeedsArea reports whether indexed shapes must have area.
func (o Operation) SourceNeedsArea() bool {
	return o == Contains
}

// TargetNeedsArea reports whether the query shape must have area.
func (o Operation) TargetNeedsArea() bool {
	return o == IsWithin || o == Overlaps
}

func (o Operation) valid() bool {
	return o >= Intersects && o <= Overlaps
}
