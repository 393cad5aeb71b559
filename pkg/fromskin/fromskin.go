// Package fromskin fills hexahedral blocks with volume elements from their
// already meshed skin. Each block is treated as a structured I x J x K
// lattice: its six quad grids fix the boundary nodes and the interior is
// placed by transfinite interpolation.
package fromskin

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/hexablock/pkg/mesh"
	"github.com/chazu/hexablock/pkg/topology"
	"github.com/sirupsen/logrus"
	"github.com/unixpickle/model3d/model3d"
)

// Skin is the read-only view of the surface mesh a Filler works from.
type Skin interface {
	// VertexNode returns the node placed at a topology vertex.
	VertexNode(v topology.VertexID) (*mesh.Node, bool)

	// EdgeNodes returns the nodes of an edge in traversal order, endpoints
	// included.
	EdgeNodes(e topology.EdgeID) []*mesh.Node

	// QuadNodes returns the node grid of a quad, indexed [i][j].
	QuadNodes(q topology.QuadID) [][]*mesh.Node
}

// Sink receives the nodes and volumes created by a Filler.
type Sink interface {
	AddNode(c model3d.Coord3D) *mesh.Node
	AddVolume(n [8]*mesh.Node) *mesh.Element
}

// HexaError records why one block could not be filled.
type HexaError struct {
	Hexa topology.HexaID
	Err  error
}

func (e *HexaError) Error() string {
	return fmt.Sprintf("hexa %d: %v", e.Hexa, e.Err)
}

func (e *HexaError) Unwrap() error { return e.Err }

// Errors collects the per-block failures of one Fill call.
type Errors []*HexaError

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return "fromskin: " + strings.Join(msgs, "; ")
}

// Option configures a Filler.
type Option func(*Filler)

// WithLogger sets the logger used for per-block diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(f *Filler) { f.log = l }
}

// Filler builds volume elements block by block.
type Filler struct {
	log logrus.FieldLogger
}

// New creates a Filler.
func New(opts ...Option) *Filler {
	discard := logrus.New()
	discard.Out = io.Discard
	f := &Filler{log: discard}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fill meshes every used hexahedron of doc. Blocks that cannot be filled
// are skipped and reported in the returned Errors; the others still get
// their volumes.
func (f *Filler) Fill(doc *topology.Document, skin Skin, sink Sink) (map[topology.HexaID][]*mesh.Element, error) {
	out := make(map[topology.HexaID][]*mesh.Element)
	var errs Errors
	for _, h := range doc.UsedHexas() {
		lat, err := newLattice(doc, skin, h)
		if err != nil {
			f.log.WithField("hexa", h).WithError(err).Warn("cannot fill block")
			errs = append(errs, &HexaError{Hexa: h, Err: err})
			continue
		}
		out[h] = lat.emit(sink)
		f.log.WithFields(logrus.Fields{
			"hexa":    h,
			"volumes": len(out[h]),
		}).Debug("filled block")
	}
	if len(errs) > 0 {
		return out, errs
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Lattice
// ---------------------------------------------------------------------------

type index [3]int

func (a index) add(b index) index { return index{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a index) sub(b index) index { return index{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a index) scale(k int) index { return index{a[0] * k, a[1] * k, a[2] * k} }
func (a index) div(k int) (index, bool) {
	if a[0]%k != 0 || a[1]%k != 0 || a[2]%k != 0 {
		return a, false
	}
	return index{a[0] / k, a[1] / k, a[2] / k}, true
}

// lattice is the structured node array of one block. Axis i follows the
// bottom edge c0-c1, j follows c0-c3 and k follows c0-c4.
type lattice struct {
	n       index
	nodes   []*mesh.Node
	u, v, w []float64
	flip    bool
}

func (l *lattice) at(p index) int { return (p[0]*l.n[1]+p[1])*l.n[2] + p[2] }

func newLattice(doc *topology.Document, skin Skin, h topology.HexaID) (*lattice, error) {
	corners, err := doc.HexaVertices(h)
	if err != nil {
		return nil, err
	}
	var cornerNodes [8]*mesh.Node
	for i, v := range corners {
		n, ok := skin.VertexNode(v)
		if !ok {
			return nil, fmt.Errorf("vertex %d has no node", v)
		}
		cornerNodes[i] = n
	}

	l := &lattice{}
	params := []*[]float64{&l.u, &l.v, &l.w}
	for axis, far := range [3]int{1, 3, 4} {
		nodes, err := edgeNodes(doc, skin, corners[0], corners[far])
		if err != nil {
			return nil, err
		}
		l.n[axis] = len(nodes)
		*params[axis] = chordParameters(nodes)
	}
	l.nodes = make([]*mesh.Node, l.n[0]*l.n[1]*l.n[2])

	m := l.n.sub(index{1, 1, 1})
	cornerIndex := [8]index{
		{0, 0, 0}, {m[0], 0, 0}, {m[0], m[1], 0}, {0, m[1], 0},
		{0, 0, m[2]}, {m[0], 0, m[2]}, {m[0], m[1], m[2]}, {0, m[1], m[2]},
	}
	corner := make(map[*mesh.Node]int, 8)
	for i, n := range cornerNodes {
		corner[n] = i
	}

	for _, q := range doc.Hexa(h).Quads {
		grid := skin.QuadNodes(q)
		if len(grid) < 2 || len(grid[0]) < 2 {
			return nil, fmt.Errorf("quad %d is not meshed", q)
		}
		a, b := len(grid), len(grid[0])
		c00, ok00 := corner[grid[0][0]]
		c10, ok10 := corner[grid[a-1][0]]
		c01, ok01 := corner[grid[0][b-1]]
		if !ok00 || !ok10 || !ok01 {
			return nil, fmt.Errorf("quad %d corners are not block corners", q)
		}
		di, okI := cornerIndex[c10].sub(cornerIndex[c00]).div(a - 1)
		dj, okJ := cornerIndex[c01].sub(cornerIndex[c00]).div(b - 1)
		if !okI || !okJ || !unit(di) || !unit(dj) {
			return nil, fmt.Errorf("quad %d grid is %dx%d, does not match block %v", q, a, b, l.n)
		}
		for p := 0; p < a; p++ {
			for r := 0; r < b; r++ {
				slot := l.at(cornerIndex[c00].add(di.scale(p)).add(dj.scale(r)))
				if prev := l.nodes[slot]; prev != nil && prev != grid[p][r] {
					return nil, fmt.Errorf("quad %d disagrees with a neighbouring face at node %d", q, grid[p][r].ID)
				}
				l.nodes[slot] = grid[p][r]
			}
		}
	}

	c := func(i int) model3d.Coord3D { return cornerNodes[i].Coord }
	l.flip = c(1).Sub(c(0)).Cross(c(3).Sub(c(0))).Dot(c(4).Sub(c(0))) < 0
	return l, nil
}

func unit(d index) bool {
	nonZero := 0
	for _, x := range d {
		switch x {
		case 0:
		case 1, -1:
			nonZero++
		default:
			return false
		}
	}
	return nonZero == 1
}

// edgeNodes returns the nodes of the edge joining a and b ordered from a.
func edgeNodes(doc *topology.Document, skin Skin, a, b topology.VertexID) ([]*mesh.Node, error) {
	e, ok := doc.EdgeBetween(a, b)
	if !ok {
		return nil, fmt.Errorf("no edge between vertices %d and %d", a, b)
	}
	nodes := skin.EdgeNodes(e)
	if len(nodes) < 2 {
		return nil, fmt.Errorf("edge %d is not meshed", e)
	}
	if doc.Edge(e).First() == a {
		return nodes, nil
	}
	out := make([]*mesh.Node, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out, nil
}

// chordParameters returns the normalized cumulative chord length of nodes.
func chordParameters(nodes []*mesh.Node) []float64 {
	out := make([]float64, len(nodes))
	total := 0.0
	for i := 1; i < len(nodes); i++ {
		total += nodes[i].Coord.Dist(nodes[i-1].Coord)
		out[i] = total
	}
	for i := range out {
		if total > 0 {
			out[i] /= total
		} else {
			out[i] = float64(i) / float64(len(out)-1)
		}
	}
	return out
}

// emit places the interior nodes and creates one volume per cell.
func (l *lattice) emit(sink Sink) []*mesh.Element {
	m := l.n.sub(index{1, 1, 1})
	x := func(i, j, k int) model3d.Coord3D { return l.nodes[l.at(index{i, j, k})].Coord }

	for i := 1; i < m[0]; i++ {
		for j := 1; j < m[1]; j++ {
			for k := 1; k < m[2]; k++ {
				u, v, w := l.u[i], l.v[j], l.w[k]
				l.nodes[l.at(index{i, j, k})] = sink.AddNode(transfinite(x, m, i, j, k, u, v, w))
			}
		}
	}

	vols := make([]*mesh.Element, 0, m[0]*m[1]*m[2])
	for i := 0; i < m[0]; i++ {
		for j := 0; j < m[1]; j++ {
			for k := 0; k < m[2]; k++ {
				n := func(di, dj, dk int) *mesh.Node { return l.nodes[l.at(index{i + di, j + dj, k + dk})] }
				cell := [8]*mesh.Node{
					n(0, 0, 0), n(1, 0, 0), n(1, 1, 0), n(0, 1, 0),
					n(0, 0, 1), n(1, 0, 1), n(1, 1, 1), n(0, 1, 1),
				}
				if l.flip {
					cell = [8]*mesh.Node{
						cell[0], cell[3], cell[2], cell[1],
						cell[4], cell[7], cell[6], cell[5],
					}
				}
				vols = append(vols, sink.AddVolume(cell))
			}
		}
	}
	return vols
}

// transfinite evaluates the trilinear Boolean-sum interpolation of the
// block boundary at lattice node (i, j, k).
func transfinite(x func(i, j, k int) model3d.Coord3D, m index, i, j, k int, u, v, w float64) model3d.Coord3D {
	I, J, K := m[0], m[1], m[2]
	var p model3d.Coord3D

	faces := []struct {
		wt float64
		c  model3d.Coord3D
	}{
		{1 - u, x(0, j, k)}, {u, x(I, j, k)},
		{1 - v, x(i, 0, k)}, {v, x(i, J, k)},
		{1 - w, x(i, j, 0)}, {w, x(i, j, K)},
	}
	for _, f := range faces {
		p = p.Add(f.c.Scale(f.wt))
	}

	edges := []struct {
		wt float64
		c  model3d.Coord3D
	}{
		{(1 - u) * (1 - v), x(0, 0, k)}, {u * (1 - v), x(I, 0, k)},
		{(1 - u) * v, x(0, J, k)}, {u * v, x(I, J, k)},
		{(1 - u) * (1 - w), x(0, j, 0)}, {u * (1 - w), x(I, j, 0)},
		{(1 - u) * w, x(0, j, K)}, {u * w, x(I, j, K)},
		{(1 - v) * (1 - w), x(i, 0, 0)}, {v * (1 - w), x(i, J, 0)},
		{(1 - v) * w, x(i, 0, K)}, {v * w, x(i, J, K)},
	}
	for _, e := range edges {
		p = p.Sub(e.c.Scale(e.wt))
	}

	for ci := 0; ci < 2; ci++ {
		for cj := 0; cj < 2; cj++ {
			for ck := 0; ck < 2; ck++ {
				wt := pick(u, ci) * pick(v, cj) * pick(w, ck)
				p = p.Add(x(ci*I, cj*J, ck*K).Scale(wt))
			}
		}
	}
	return p
}

func pick(t float64, side int) float64 {
	if side == 0 {
		return 1 - t
	}
	return t
}
