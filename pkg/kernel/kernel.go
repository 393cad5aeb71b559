// Package kernel defines the abstract CAD-query interface used by the mesher.
// Implementations (facet) resolve serialized shape descriptions into curves
// and surfaces that can be evaluated, measured and intersected. The kernel
// abstraction allows swapping backends without changing the mesher.
package kernel

import "github.com/unixpickle/model3d/model3d"

// Curve is a CAD curve with an arc-length aware parameterization.
type Curve interface {
	// Bounds returns the first and last parameter of the curve.
	Bounds() (first, last float64)

	// Length returns the total arc length of the curve.
	Length() float64

	// ParameterAt returns the parameter reached by walking arcLength along
	// the curve starting at parameter from.
	ParameterAt(from, arcLength float64) (float64, error)

	// Value evaluates the curve at parameter u.
	Value(u float64) model3d.Coord3D
}

// Surface is a (possibly compound) CAD surface.
type Surface interface {
	// Intersect returns every intersection between the surface and the
	// infinite line through origin along dir.
	Intersect(origin, dir model3d.Coord3D) []model3d.Coord3D
}

// Kernel is the abstract CAD-query interface.
type Kernel interface {
	// Point resolves a shape to a single location. Point shapes resolve to
	// themselves; curves and surfaces resolve to their point nearest near.
	Point(s Shape, near model3d.Coord3D) (model3d.Coord3D, error)

	// Curve resolves a curve shape.
	Curve(s Shape) (Curve, error)

	// Surface resolves the compound of all given surface shapes.
	Surface(shapes ...Shape) (Surface, error)
}

// Tessellator turns solid primitives into boundary triangles.
type Tessellator interface {
	Tessellate(d Description) ([]*model3d.Triangle, error)
}
