package facet

import (
	"math"

	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/unixpickle/model3d/model3d"
)

var _ kernel.Surface = (*compound)(nil)

type plane struct {
	origin model3d.Coord3D
	normal model3d.Coord3D // unit length
}

func (p plane) project(c model3d.Coord3D) model3d.Coord3D {
	return c.Sub(p.normal.Scale(c.Sub(p.origin).Dot(p.normal)))
}

// compound is the union of analytic planes and a faceted surface.
type compound struct {
	planes   []plane
	mesh     *model3d.Mesh
	collider model3d.Collider // nil when there are no facets
	sdf      model3d.PointSDF
}

func newCompound(planes []plane, tris []*model3d.Triangle) *compound {
	c := &compound{planes: planes}
	if len(tris) > 0 {
		c.mesh = model3d.NewMeshTriangles(tris)
		c.collider = model3d.MeshToCollider(c.mesh)
	}
	return c
}

// Intersect returns the intersections of the line through origin along dir
// with every member surface. Facet hits are found by casting rays both ways
// along the line; coincident hits are reported once.
func (c *compound) Intersect(origin, dir model3d.Coord3D) []model3d.Coord3D {
	if dir.Norm() == 0 {
		return nil
	}
	var hits []model3d.Coord3D
	add := func(p model3d.Coord3D) {
		for _, h := range hits {
			if h.Dist(p) <= 1e-9*math.Max(1, p.Norm()) {
				return
			}
		}
		hits = append(hits, p)
	}
	for _, p := range c.planes {
		den := dir.Dot(p.normal)
		if den == 0 {
			continue
		}
		t := p.origin.Sub(origin).Dot(p.normal) / den
		add(origin.Add(dir.Scale(t)))
	}
	if c.collider != nil {
		for _, d := range []model3d.Coord3D{dir, dir.Scale(-1)} {
			ray := &model3d.Ray{Origin: origin, Direction: d}
			c.collider.RayCollisions(ray, func(rc model3d.RayCollision) {
				add(origin.Add(d.Scale(rc.Scale)))
			})
		}
	}
	return hits
}

// nearest returns the point of the compound closest to p.
func (c *compound) nearest(p model3d.Coord3D) (model3d.Coord3D, bool) {
	best := p
	bestDist := math.Inf(1)
	for _, pl := range c.planes {
		q := pl.project(p)
		if d := q.Dist(p); d < bestDist {
			best, bestDist = q, d
		}
	}
	if c.mesh != nil {
		if c.sdf == nil {
			c.sdf = model3d.MeshToSDF(c.mesh)
		}
		q, _ := c.sdf.PointSDF(p)
		if d := q.Dist(p); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}
