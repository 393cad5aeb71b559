package kernel

import (
	"encoding/json"
	"fmt"

	"github.com/unixpickle/model3d/model3d"
)

// Shape is a serialized shape description, as stored in CAD associations.
type Shape string

// ShapeType discriminates shape descriptions.
type ShapeType string

const (
	TypePoint     ShapeType = "point"
	TypeSegment   ShapeType = "segment"
	TypePolyline  ShapeType = "polyline"
	TypeArc       ShapeType = "arc"
	TypePlane     ShapeType = "plane"
	TypeTriangles ShapeType = "triangles"
	TypeSTL       ShapeType = "stl"
	TypeBox       ShapeType = "box"
	TypeSphere    ShapeType = "sphere"
	TypeCylinder  ShapeType = "cylinder"
)

// ShapeClass groups shape types by the kind of geometry they describe.
type ShapeClass int

const (
	ClassPoint   ShapeClass = iota // a single location
	ClassCurve                     // a one-dimensional curve
	ClassSurface                   // a surface or the boundary of a solid
	ClassSolid                     // a solid primitive (boundary needs tessellation)
)

func (c ShapeClass) String() string {
	switch c {
	case ClassPoint:
		return "point"
	case ClassCurve:
		return "curve"
	case ClassSurface:
		return "surface"
	case ClassSolid:
		return "solid"
	default:
		return "unknown"
	}
}

// Vec is a point or direction in a shape description.
type Vec [3]float64

// V builds a Vec from a model3d coordinate.
func V(c model3d.Coord3D) Vec {
	return Vec{c.X, c.Y, c.Z}
}

// Coord converts v to a model3d coordinate.
func (v Vec) Coord() model3d.Coord3D {
	return model3d.XYZ(v[0], v[1], v[2])
}

// Description is the decoded form of a Shape. Which fields are meaningful
// depends on Type.
type Description struct {
	Type ShapeType `json:"type"`

	At     *Vec  `json:"at,omitempty"`     // point
	From   *Vec  `json:"from,omitempty"`   // segment
	To     *Vec  `json:"to,omitempty"`     // segment
	Points []Vec `json:"points,omitempty"` // polyline

	Center *Vec `json:"center,omitempty"` // arc, sphere, cylinder
	Start  *Vec `json:"start,omitempty"`  // arc
	End    *Vec `json:"end,omitempty"`    // arc

	Origin *Vec `json:"origin,omitempty"` // plane
	Normal *Vec `json:"normal,omitempty"` // plane

	Triangles [][3]Vec `json:"triangles,omitempty"` // triangles
	Path      string   `json:"path,omitempty"`      // stl

	Min    *Vec    `json:"min,omitempty"`    // box
	Max    *Vec    `json:"max,omitempty"`    // box
	Radius float64 `json:"radius,omitempty"` // sphere, cylinder
	Height float64 `json:"height,omitempty"` // cylinder
}

// Class reports which kind of geometry the description holds.
func (d Description) Class() ShapeClass {
	switch d.Type {
	case TypePoint:
		return ClassPoint
	case TypeSegment, TypePolyline, TypeArc:
		return ClassCurve
	case TypePlane, TypeTriangles, TypeSTL:
		return ClassSurface
	default:
		return ClassSolid
	}
}

// Validate checks that the fields required by the description's type are set.
func (d Description) Validate() error {
	missing := func(field string) error {
		return fmt.Errorf("kernel: %s shape: missing %s", d.Type, field)
	}
	switch d.Type {
	case TypePoint:
		if d.At == nil {
			return missing("at")
		}
	case TypeSegment:
		if d.From == nil {
			return missing("from")
		}
		if d.To == nil {
			return missing("to")
		}
	case TypePolyline:
		if len(d.Points) < 2 {
			return fmt.Errorf("kernel: polyline shape: need at least 2 points, got %d", len(d.Points))
		}
	case TypeArc:
		if d.Center == nil {
			return missing("center")
		}
		if d.Start == nil {
			return missing("start")
		}
		if d.End == nil {
			return missing("end")
		}
	case TypePlane:
		if d.Origin == nil {
			return missing("origin")
		}
		if d.Normal == nil {
			return missing("normal")
		}
	case TypeTriangles:
		if len(d.Triangles) == 0 {
			return missing("triangles")
		}
	case TypeSTL:
		if d.Path == "" {
			return missing("path")
		}
	case TypeBox:
		if d.Min == nil {
			return missing("min")
		}
		if d.Max == nil {
			return missing("max")
		}
	case TypeSphere:
		if d.Center == nil {
			return missing("center")
		}
		if d.Radius <= 0 {
			return fmt.Errorf("kernel: sphere shape: radius %g must be positive", d.Radius)
		}
	case TypeCylinder:
		if d.Center == nil {
			return missing("center")
		}
		if d.Radius <= 0 || d.Height <= 0 {
			return fmt.Errorf("kernel: cylinder shape: radius %g and height %g must be positive", d.Radius, d.Height)
		}
	default:
		return fmt.Errorf("kernel: unknown shape type %q", d.Type)
	}
	return nil
}

// Encode serializes a description into a Shape.
func Encode(d Description) (Shape, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("kernel: encode %s shape: %w", d.Type, err)
	}
	return Shape(data), nil
}

// Decode parses and validates a serialized shape.
func (s Shape) Decode() (Description, error) {
	var d Description
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return Description{}, fmt.Errorf("kernel: decode shape: %w", err)
	}
	if err := d.Validate(); err != nil {
		return Description{}, err
	}
	return d, nil
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func vp(c model3d.Coord3D) *Vec {
	v := V(c)
	return &v
}

func mustEncode(d Description) Shape {
	s, err := Encode(d)
	if err != nil {
		panic(err)
	}
	return s
}

// NewPoint returns a point shape.
func NewPoint(at model3d.Coord3D) Shape {
	return mustEncode(Description{Type: TypePoint, At: vp(at)})
}

// NewSegment returns a straight segment shape.
func NewSegment(from, to model3d.Coord3D) Shape {
	return mustEncode(Description{Type: TypeSegment, From: vp(from), To: vp(to)})
}

// NewPolyline returns a polyline shape. It panics on fewer than 2 points.
func NewPolyline(points ...model3d.Coord3D) Shape {
	d := Description{Type: TypePolyline}
	for _, p := range points {
		d.Points = append(d.Points, V(p))
	}
	return mustEncode(d)
}

// NewArc returns a circular arc from start to end around center, taking
// the shorter way.
func NewArc(center, start, end model3d.Coord3D) Shape {
	return mustEncode(Description{Type: TypeArc, Center: vp(center), Start: vp(start), End: vp(end)})
}

// NewPlane returns an infinite plane shape.
func NewPlane(origin, normal model3d.Coord3D) Shape {
	return mustEncode(Description{Type: TypePlane, Origin: vp(origin), Normal: vp(normal)})
}

// NewTriangles returns a faceted surface shape.
func NewTriangles(tris ...*model3d.Triangle) Shape {
	d := Description{Type: TypeTriangles}
	for _, t := range tris {
		d.Triangles = append(d.Triangles, [3]Vec{V(t[0]), V(t[1]), V(t[2])})
	}
	return mustEncode(d)
}

// NewSTL returns a shape backed by an STL file.
func NewSTL(path string) Shape {
	return mustEncode(Description{Type: TypeSTL, Path: path})
}

// NewBox returns an axis-aligned box solid.
func NewBox(min, max model3d.Coord3D) Shape {
	return mustEncode(Description{Type: TypeBox, Min: vp(min), Max: vp(max)})
}

// NewSphere returns a sphere solid.
func NewSphere(center model3d.Coord3D, radius float64) Shape {
	return mustEncode(Description{Type: TypeSphere, Center: vp(center), Radius: radius})
}

// NewCylinder returns a Z-aligned cylinder solid centered at center.
func NewCylinder(center model3d.Coord3D, radius, height float64) Shape {
	return mustEncode(Description{Type: TypeCylinder, Center: vp(center), Radius: radius, Height: height})
}
