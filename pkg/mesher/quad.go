package mesher

import (
	"fmt"

	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/chazu/hexablock/pkg/mesh"
	"github.com/chazu/hexablock/pkg/topology"
	"github.com/sirupsen/logrus"
	"github.com/unixpickle/model3d/model3d"
)

// QuadStrategy identifies how a quad's interior nodes were placed.
type QuadStrategy int

const (
	QuadByAssociation QuadStrategy = iota
	QuadByFindingGeom
	QuadByLinearApproximation
)

func (s QuadStrategy) String() string {
	switch s {
	case QuadByAssociation:
		return "association"
	case QuadByFindingGeom:
		return "finding-geom"
	case QuadByLinearApproximation:
		return "linear"
	default:
		return fmt.Sprintf("QuadStrategy(%d)", int(s))
	}
}

// quadStrategy returns the surface interior nodes are projected onto, or
// nil to keep the interpolated positions.
type quadStrategy func(h *HexaBlocks, q *topology.Quad) (kernel.Surface, error)

var quadStrategies = []struct {
	kind QuadStrategy
	fn   quadStrategy
}{
	{QuadByAssociation, quadByAssociation},
	{QuadByFindingGeom, quadNotImplemented},
	{QuadByLinearApproximation, quadLinear},
}

func quadByAssociation(h *HexaBlocks, q *topology.Quad) (kernel.Surface, error) {
	if len(q.Associations) == 0 {
		return nil, fmt.Errorf("mesher: quad %d: %w", q.ID, ErrNotAssociated)
	}
	if h.kernel == nil {
		return nil, fmt.Errorf("mesher: quad %d: no kernel to resolve associations: %w", q.ID, ErrGeometryResolution)
	}
	s, err := h.kernel.Surface(q.Associations...)
	if err != nil {
		return nil, fmt.Errorf("mesher: quad %d: %v: %w", q.ID, err, ErrGeometryResolution)
	}
	return s, nil
}

func quadNotImplemented(*HexaBlocks, *topology.Quad) (kernel.Surface, error) {
	return nil, ErrNotImplemented
}

func quadLinear(*HexaBlocks, *topology.Quad) (kernel.Surface, error) {
	return nil, nil
}

// quadFrame is the boundary of a quad laid out for interpolation. Bottom
// (b) runs S1 to S2, top (t) runs S4 to S3, left (g) runs S1 to S4 and
// right (d) runs S2 to S3. xx and yy are the bottom and left parameters.
type quadFrame struct {
	b, t, g, d     []*mesh.Node
	s1, s2, s3, s4 *mesh.Node
	xx, yy         []float64
}

// frame builds the boundary of q from its discretized edges. S1 and S2 are
// the endpoints of the quad's first edge in stored order.
func (h *HexaBlocks) frame(q *topology.Quad) (*quadFrame, error) {
	var edges [4]*topology.Edge
	for i, id := range q.Edges {
		edges[i] = h.doc.Edge(id)
		if _, ok := h.nodesOnEdge[id]; !ok {
			return nil, fmt.Errorf("mesher: quad %d: edge %d not discretized: %w", q.ID, id, ErrTopologyInvariant)
		}
	}
	eb, eh := edges[0], edges[2]
	v1, v2 := eb.Vertices[0], eb.Vertices[1]

	var eg, ed *topology.Edge
	switch {
	case edges[1].Has(v1):
		eg, ed = edges[1], edges[3]
	case edges[3].Has(v1):
		eg, ed = edges[3], edges[1]
	default:
		return nil, fmt.Errorf("mesher: quad %d: no side edge at vertex %d: %w", q.ID, v1, ErrTopologyInvariant)
	}
	v4 := eg.Other(v1)
	if !eh.Has(v4) || !ed.Has(v2) {
		return nil, fmt.Errorf("mesher: quad %d: edges do not close: %w", q.ID, ErrTopologyInvariant)
	}
	v3 := eh.Other(v4)
	if !ed.Has(v3) {
		return nil, fmt.Errorf("mesher: quad %d: edges do not close: %w", q.ID, ErrTopologyInvariant)
	}

	f := &quadFrame{
		s1: h.node[v1], s2: h.node[v2], s3: h.node[v3], s4: h.node[v4],
	}
	f.b = h.orientedNodes(eb, v1)
	f.t = h.orientedNodes(eh, v4)
	f.g = h.orientedNodes(eg, v1)
	f.d = h.orientedNodes(ed, v2)
	if len(f.b) != len(f.t) || len(f.g) != len(f.d) {
		return nil, fmt.Errorf("mesher: quad %d: opposite edges have %d/%d and %d/%d nodes: %w",
			q.ID, len(f.b), len(f.t), len(f.g), len(f.d), ErrTopologyInvariant)
	}
	f.xx = h.edgeParameters(eb, v1)
	f.yy = h.edgeParameters(eg, v1)
	return f, nil
}

// orientedNodes returns the nodes of e ordered from vertex from.
func (h *HexaBlocks) orientedNodes(e *topology.Edge, from topology.VertexID) []*mesh.Node {
	nodes := h.nodesOnEdge[e.ID]
	if e.First() == from {
		return nodes
	}
	out := make([]*mesh.Node, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}

// edgeParameters returns the law positions of e's nodes measured from
// vertex from, with 0 and 1 at the endpoints.
func (h *HexaBlocks) edgeParameters(e *topology.Edge, from topology.VertexID) []float64 {
	nodes := h.orientedNodes(e, from)
	out := make([]float64, len(nodes))
	reversed := e.First() != from
	for i, n := range nodes {
		switch i {
		case 0:
			out[i] = 0
		case len(nodes) - 1:
			out[i] = 1
		default:
			u := h.nodeParameter[n.ID]
			if reversed {
				u = 1 - u
			}
			out[i] = u
		}
	}
	return out
}

// coons evaluates the Coons patch of f at grid position (i, j).
func (f *quadFrame) coons(i, j int) model3d.Coord3D {
	u, v := f.xx[i], f.yy[j]
	pb, ph := f.b[i].Coord, f.t[i].Coord
	pg, pd := f.g[j].Coord, f.d[j].Coord
	return pg.Scale(1 - u).
		Add(ph.Scale(v)).
		Add(pd.Scale(u)).
		Add(pb.Scale(1 - v)).
		Sub(f.s1.Coord.Scale((1 - u) * (1 - v))).
		Sub(f.s2.Coord.Scale(u * (1 - v))).
		Sub(f.s3.Coord.Scale(u * v)).
		Sub(f.s4.Coord.Scale((1 - u) * v))
}

// ComputeQuad fills q with nodes and faces. When way is false the faces are
// wound in reverse.
func (h *HexaBlocks) ComputeQuad(id topology.QuadID, way bool) (QuadStrategy, error) {
	q := h.doc.Quad(id)
	if q == nil {
		return 0, fmt.Errorf("mesher: quad %d does not exist: %w", id, ErrTopologyInvariant)
	}
	if _, done := h.nodesOnQuad[id]; done {
		return 0, fmt.Errorf("mesher: quad %d meshed twice: %w", id, ErrTopologyInvariant)
	}
	f, err := h.frame(q)
	if err != nil {
		return 0, err
	}

	var (
		kind QuadStrategy
		surf kernel.Surface
	)
	for _, s := range quadStrategies {
		surf, err = s.fn(h, q)
		if err == nil {
			kind = s.kind
			break
		}
		if !tryNext(err) {
			return 0, err
		}
		h.log.WithFields(logrus.Fields{
			"quad":     id,
			"strategy": s.kind,
		}).Debug("quad strategy not applicable")
	}
	if err != nil {
		return 0, fmt.Errorf("mesher: quad %d: no strategy applied: %w", id, err)
	}

	ni, nj := len(f.b), len(f.g)
	grid := make([][]*mesh.Node, ni)
	// Interpolated positions before projection, for interior nodes only.
	raw := make([][]*model3d.Coord3D, ni)
	for i := range grid {
		grid[i] = make([]*mesh.Node, nj)
		raw[i] = make([]*model3d.Coord3D, nj)
		grid[i][0] = f.b[i]
		grid[i][nj-1] = f.t[i]
	}
	for j := 0; j < nj; j++ {
		grid[0][j] = f.g[j]
		grid[ni-1][j] = f.d[j]
	}
	at := func(i, j int) model3d.Coord3D {
		if p := raw[i][j]; p != nil {
			return *p
		}
		return grid[i][j].Coord
	}

	faces := make([]*mesh.Element, 0, (ni-1)*(nj-1))
	for j := 1; j < nj; j++ {
		for i := 1; i < ni; i++ {
			if grid[i][j] == nil {
				c := f.coons(i, j)
				raw[i][j] = &c
				p := c
				if surf != nil {
					p = h.project(surf, p, at(i-1, j), at(i, j-1))
				}
				grid[i][j] = h.sink.AddNode(p)
			}
			n1, n2, n3, n4 := grid[i-1][j], grid[i-1][j-1], grid[i][j-1], grid[i][j]
			if way {
				faces = append(faces, h.sink.AddFace(n1, n2, n3, n4))
			} else {
				faces = append(faces, h.sink.AddFace(n4, n3, n2, n1))
			}
		}
	}

	h.nodesOnQuad[id] = grid
	h.facesOnQuad[id] = faces
	h.report.Quads++
	h.report.QuadStrategies[kind]++
	return kind, nil
}

// project moves p onto surf along the normal of the plane through p and
// its two already placed neighbours. The nearest hit wins; without one p
// is kept.
func (h *HexaBlocks) project(surf kernel.Surface, p, left, below model3d.Coord3D) model3d.Coord3D {
	h.report.Projections.Total++
	dir := left.Sub(p).Cross(below.Sub(p))
	if dir.Norm() == 0 {
		h.report.Projections.NotFound++
		return p
	}
	hits := surf.Intersect(p, dir)
	if len(hits) == 0 {
		h.report.Projections.NotFound++
		return p
	}
	best := hits[0]
	for _, c := range hits[1:] {
		if c.Dist(p) < best.Dist(p) {
			best = c
		}
	}
	h.report.Projections.Found++
	return best
}
