package facet

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/unixpickle/model3d/model3d"
)

var (
	_ kernel.Curve = (*polyline)(nil)
	_ kernel.Curve = (*arc)(nil)
)

// polyline is a piecewise linear curve parameterized by arc length.
type polyline struct {
	points []model3d.Coord3D
	cum    []float64 // cum[i] is the arc length at points[i]
}

func newPolyline(points []model3d.Coord3D) (*polyline, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("facet: polyline needs at least 2 points")
	}
	p := &polyline{points: points, cum: make([]float64, len(points))}
	for i := 1; i < len(points); i++ {
		p.cum[i] = p.cum[i-1] + points[i].Dist(points[i-1])
	}
	if p.Length() == 0 {
		return nil, fmt.Errorf("facet: polyline has zero length")
	}
	return p, nil
}

func (p *polyline) Bounds() (float64, float64) {
	return 0, p.Length()
}

func (p *polyline) Length() float64 {
	return p.cum[len(p.cum)-1]
}

func (p *polyline) ParameterAt(from, arcLength float64) (float64, error) {
	return clampParameter(p, from+arcLength)
}

func (p *polyline) Value(u float64) model3d.Coord3D {
	u = math.Max(0, math.Min(u, p.Length()))
	i := sort.SearchFloat64s(p.cum, u)
	if i == 0 {
		return p.points[0]
	}
	seg := p.cum[i] - p.cum[i-1]
	if seg == 0 {
		return p.points[i]
	}
	t := (u - p.cum[i-1]) / seg
	return p.points[i-1].Add(p.points[i].Sub(p.points[i-1]).Scale(t))
}

// nearest returns the point of the polyline closest to c.
func (p *polyline) nearest(c model3d.Coord3D) model3d.Coord3D {
	best := p.points[0]
	bestDist := math.Inf(1)
	for i := 1; i < len(p.points); i++ {
		q := closestOnSegment(p.points[i-1], p.points[i], c)
		if d := q.Dist(c); d < bestDist {
			best, bestDist = q, d
		}
	}
	return best
}

func closestOnSegment(a, b, c model3d.Coord3D) model3d.Coord3D {
	ab := b.Sub(a)
	n := ab.Dot(ab)
	if n == 0 {
		return a
	}
	t := math.Max(0, math.Min(1, c.Sub(a).Dot(ab)/n))
	return a.Add(ab.Scale(t))
}

// arc is a circular arc parameterized by angle, from start (u = 0) to end
// (u = sweep) the shorter way around center.
type arc struct {
	center model3d.Coord3D
	radius float64
	xAxis  model3d.Coord3D
	yAxis  model3d.Coord3D
	sweep  float64
}

func newArc(center, start, end model3d.Coord3D) (*arc, error) {
	a, b := start.Sub(center), end.Sub(center)
	r := a.Norm()
	if r == 0 {
		return nil, fmt.Errorf("facet: arc start lies on its center")
	}
	if math.Abs(b.Norm()-r) > 1e-6*math.Max(1, r) {
		return nil, fmt.Errorf("facet: arc end is %g from center, start is %g", b.Norm(), r)
	}
	normal := a.Cross(b)
	if normal.Norm() < 1e-12*r*r {
		return nil, fmt.Errorf("facet: arc start and end are collinear with its center")
	}
	x := a.Normalize()
	y := normal.Normalize().Cross(x)
	return &arc{
		center: center,
		radius: r,
		xAxis:  x,
		yAxis:  y,
		sweep:  math.Atan2(normal.Norm(), a.Dot(b)),
	}, nil
}

func (a *arc) Bounds() (float64, float64) {
	return 0, a.sweep
}

func (a *arc) Length() float64 {
	return a.radius * a.sweep
}

func (a *arc) ParameterAt(from, arcLength float64) (float64, error) {
	return clampParameter(a, from+arcLength/a.radius)
}

func (a *arc) Value(u float64) model3d.Coord3D {
	return a.center.Add(a.xAxis.Scale(a.radius * math.Cos(u))).Add(a.yAxis.Scale(a.radius * math.Sin(u)))
}

func (a *arc) nearest(c model3d.Coord3D) model3d.Coord3D {
	d := c.Sub(a.center)
	u := math.Atan2(d.Dot(a.yAxis), d.Dot(a.xAxis))
	if u >= 0 && u <= a.sweep {
		return a.Value(u)
	}
	start, end := a.Value(0), a.Value(a.sweep)
	if start.Dist(c) <= end.Dist(c) {
		return start
	}
	return end
}

// clampParameter snaps u into the curve bounds, absorbing round-off, and
// rejects parameters clearly outside them.
func clampParameter(c kernel.Curve, u float64) (float64, error) {
	lo, hi := c.Bounds()
	tol := 1e-9 * math.Max(1, hi-lo)
	if u < lo-tol || u > hi+tol {
		return 0, fmt.Errorf("facet: parameter %g outside curve bounds [%g, %g]", u, lo, hi)
	}
	return math.Max(lo, math.Min(u, hi)), nil
}
