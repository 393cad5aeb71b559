// Package sdfx implements kernel.Tessellator using the
// github.com/deadsy/sdfx SDF-based CAD library. Solid primitives named in
// shape associations are built as SDFs and rendered to boundary triangles
// with marching cubes.
package sdfx

import (
	"fmt"

	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/unixpickle/model3d/model3d"
)

// Compile-time interface check.
var _ kernel.Tessellator = (*Tessellator)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 64

// Tessellator renders solid shape descriptions to triangles.
type Tessellator struct {
	cells int
}

// Option configures a Tessellator.
type Option func(*Tessellator)

// WithCells sets the marching cubes resolution along the longest axis.
func WithCells(n int) Option {
	return func(t *Tessellator) {
		if n > 0 {
			t.cells = n
		}
	}
}

// New returns a Tessellator.
func New(opts ...Option) *Tessellator {
	t := &Tessellator{cells: defaultMeshCells}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Solid builds the SDF of a solid primitive, positioned in world space.
// Boxes span min to max; spheres and cylinders are centered on Center,
// cylinders with their axis along Z.
func (t *Tessellator) Solid(d kernel.Description) (sdf.SDF3, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	var (
		s      sdf.SDF3
		center v3.Vec
		err    error
	)
	switch d.Type {
	case kernel.TypeBox:
		min, max := vec(*d.Min), vec(*d.Max)
		size := max.Sub(min)
		if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
			return nil, fmt.Errorf("sdfx: box min %v must be below max %v", *d.Min, *d.Max)
		}
		s, err = sdf.Box3D(size, 0)
		center = min.Add(max).MulScalar(0.5)
	case kernel.TypeSphere:
		s, err = sdf.Sphere3D(d.Radius)
		center = vec(*d.Center)
	case kernel.TypeCylinder:
		s, err = sdf.Cylinder3D(d.Height, d.Radius, 0)
		center = vec(*d.Center)
	default:
		return nil, fmt.Errorf("sdfx: %s shape is not a solid", d.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("sdfx: %s: %w", d.Type, err)
	}
	return sdf.Transform3D(s, sdf.Translate3d(center)), nil
}

// Tessellate converts a solid primitive to boundary triangles using
// marching cubes.
func (t *Tessellator) Tessellate(d kernel.Description) ([]*model3d.Triangle, error) {
	s, err := t.Solid(d)
	if err != nil {
		return nil, err
	}

	renderer := render.NewMarchingCubesUniform(t.cells)
	triangles := render.ToTriangles(s, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("sdfx: %s rendered no triangles", d.Type)
	}

	out := make([]*model3d.Triangle, 0, len(triangles))
	for _, tri := range triangles {
		var mt model3d.Triangle
		for j := 0; j < 3; j++ {
			v := tri[j]
			mt[j] = model3d.XYZ(v.X, v.Y, v.Z)
		}
		out = append(out, &mt)
	}
	return out, nil
}

func vec(v kernel.Vec) v3.Vec {
	return v3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
