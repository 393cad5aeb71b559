// Package facet implements kernel.Kernel over faceted and analytic
// geometry backed by github.com/unixpickle/model3d. Curves are segments,
// polylines and circular arcs; surfaces are planes, triangle sets, STL
// files and the tessellated boundaries of solid primitives.
package facet

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// Kernel resolves shape descriptions into curves and surfaces. Facets
// loaded from files or tessellated from solids are cached per shape, so
// a Kernel may be shared by concurrent computes.
type Kernel struct {
	tess    kernel.Tessellator
	baseDir string

	mu    sync.Mutex
	cache map[kernel.Shape][]*model3d.Triangle
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithTessellator sets the tessellator used for solid primitives.
func WithTessellator(t kernel.Tessellator) Option {
	return func(k *Kernel) { k.tess = t }
}

// WithBaseDir resolves relative STL paths against dir.
func WithBaseDir(dir string) Option {
	return func(k *Kernel) { k.baseDir = dir }
}

// New returns a Kernel. Without a tessellator, solid shapes fail to resolve.
func New(opts ...Option) *Kernel {
	k := &Kernel{cache: make(map[kernel.Shape][]*model3d.Triangle)}
	for _, o := range opts {
		o(k)
	}
	return k
}

// Point resolves s to a location: point shapes to themselves, other shapes
// to their point nearest near.
func (k *Kernel) Point(s kernel.Shape, near model3d.Coord3D) (model3d.Coord3D, error) {
	d, err := s.Decode()
	if err != nil {
		return model3d.Coord3D{}, err
	}
	switch d.Class() {
	case kernel.ClassPoint:
		return d.At.Coord(), nil
	case kernel.ClassCurve:
		c, err := k.curve(d)
		if err != nil {
			return model3d.Coord3D{}, err
		}
		switch c := c.(type) {
		case *polyline:
			return c.nearest(near), nil
		case *arc:
			return c.nearest(near), nil
		}
		return model3d.Coord3D{}, fmt.Errorf("facet: no nearest point for %s", d.Type)
	default:
		surf, err := k.Surface(s)
		if err != nil {
			return model3d.Coord3D{}, err
		}
		p, ok := surf.(*compound).nearest(near)
		if !ok {
			return model3d.Coord3D{}, fmt.Errorf("facet: %s shape has no points", d.Type)
		}
		return p, nil
	}
}

// Curve resolves a curve shape.
func (k *Kernel) Curve(s kernel.Shape) (kernel.Curve, error) {
	d, err := s.Decode()
	if err != nil {
		return nil, err
	}
	return k.curve(d)
}

func (k *Kernel) curve(d kernel.Description) (kernel.Curve, error) {
	switch d.Type {
	case kernel.TypeSegment:
		return newPolyline([]model3d.Coord3D{d.From.Coord(), d.To.Coord()})
	case kernel.TypePolyline:
		points := make([]model3d.Coord3D, len(d.Points))
		for i, p := range d.Points {
			points[i] = p.Coord()
		}
		return newPolyline(points)
	case kernel.TypeArc:
		return newArc(d.Center.Coord(), d.Start.Coord(), d.End.Coord())
	default:
		return nil, fmt.Errorf("facet: %s shape is not a curve", d.Type)
	}
}

// Surface resolves the compound of all given surface and solid shapes.
func (k *Kernel) Surface(shapes ...kernel.Shape) (kernel.Surface, error) {
	if len(shapes) == 0 {
		return nil, fmt.Errorf("facet: empty surface compound")
	}
	var (
		planes []plane
		tris   []*model3d.Triangle
	)
	for _, s := range shapes {
		d, err := s.Decode()
		if err != nil {
			return nil, err
		}
		if d.Type == kernel.TypePlane {
			n := d.Normal.Coord()
			if n.Norm() == 0 {
				return nil, fmt.Errorf("facet: plane has a zero normal")
			}
			planes = append(planes, plane{origin: d.Origin.Coord(), normal: n.Normalize()})
			continue
		}
		t, err := k.facets(s, d)
		if err != nil {
			return nil, err
		}
		tris = append(tris, t...)
	}
	return newCompound(planes, tris), nil
}

// facets returns the triangles of a faceted or solid shape.
func (k *Kernel) facets(s kernel.Shape, d kernel.Description) ([]*model3d.Triangle, error) {
	k.mu.Lock()
	cached, ok := k.cache[s]
	k.mu.Unlock()
	if ok {
		return cached, nil
	}

	var (
		tris []*model3d.Triangle
		err  error
	)
	switch d.Class() {
	case kernel.ClassSurface:
		switch d.Type {
		case kernel.TypeTriangles:
			for _, t := range d.Triangles {
				tris = append(tris, &model3d.Triangle{t[0].Coord(), t[1].Coord(), t[2].Coord()})
			}
		case kernel.TypeSTL:
			tris, err = k.loadSTL(d.Path)
		}
	case kernel.ClassSolid:
		if k.tess == nil {
			return nil, fmt.Errorf("facet: %s shape needs a tessellator", d.Type)
		}
		tris, err = k.tess.Tessellate(d)
	default:
		return nil, fmt.Errorf("facet: %s shape is not a surface", d.Type)
	}
	if err != nil {
		return nil, err
	}

	k.mu.Lock()
	k.cache[s] = tris
	k.mu.Unlock()
	return tris, nil
}

func (k *Kernel) loadSTL(path string) ([]*model3d.Triangle, error) {
	if !filepath.IsAbs(path) && k.baseDir != "" {
		path = filepath.Join(k.baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open stl")
	}
	defer f.Close()
	tris, err := model3d.ReadSTL(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read stl %s", path)
	}
	return tris, nil
}
