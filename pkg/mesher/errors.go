package mesher

import "errors"

// Fatal error kinds. Call sites wrap them with context, so test with
// errors.Is.
var (
	// ErrInvalidCoefficient is returned when a law coefficient produces a
	// non-positive step for its node count.
	ErrInvalidCoefficient = errors.New("invalid law coefficient")

	// ErrInconsistentAssociation is returned when the curve associations of
	// an edge do not chain from one endpoint to the other.
	ErrInconsistentAssociation = errors.New("inconsistent curve association")

	// ErrGeometryResolution is returned when the kernel cannot resolve an
	// associated shape.
	ErrGeometryResolution = errors.New("geometry resolution failed")

	// ErrTopologyInvariant is returned on internal-consistency violations
	// such as a quad with more than two parent hexahedra.
	ErrTopologyInvariant = errors.New("topology invariant violated")
)

// Strategy outcomes. A strategy failing with one of these lets the next
// strategy in the chain run.
var (
	// ErrNotAssociated is returned by association-based strategies when the
	// element has no usable CAD association.
	ErrNotAssociated = errors.New("not associated")

	// ErrNotImplemented is returned by reserved strategies.
	ErrNotImplemented = errors.New("strategy not implemented")
)

// tryNext reports whether a strategy error lets the chain continue.
func tryNext(err error) bool {
	return errors.Is(err, ErrNotAssociated) || errors.Is(err, ErrNotImplemented)
}
