package mesher

import (
	"fmt"
	"math"

	"github.com/chazu/hexablock/pkg/topology"
	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// oppositeAngle is the smallest angle at which two displacements count as
// pointing in opposite directions.
const oppositeAngle = math.Pi - math.Pi/4

// directed is an edge traversal: from one vertex to the other.
type directed struct {
	from, to topology.VertexID
}

func (d directed) reverse() directed { return directed{d.to, d.from} }

// ComputeQuadWays resolves the orientation of every used quad. Quads with
// zero or two parent blocks keep their natural orientation. Skin quads
// (exactly one parent) are oriented so that their faces point out of their
// block and adjacent skin quads traverse their shared edge in opposite
// directions.
func (h *HexaBlocks) ComputeQuadWays() error {
	skin := make(map[topology.QuadID]bool)
	for _, q := range h.doc.UsedQuads() {
		switch n := len(h.doc.QuadParents(q)); n {
		case 0, 2:
			h.quadWays[q] = true
		case 1:
			skin[q] = true
		default:
			return fmt.Errorf("mesher: quad %d has %d parent hexas: %w", q, n, ErrTopologyInvariant)
		}
	}

	edgeWays := make(map[topology.EdgeID]directed)
	for len(skin) > 0 {
		seed, way, ok := h.findSeed(skin)
		if !ok {
			return fmt.Errorf("mesher: no orientable seed among %d skin quads: %w", len(skin), ErrTopologyInvariant)
		}
		edgeWays[h.doc.Quad(seed).Edges[0]] = way
		h.log.WithField("quad", seed).Debug("orientation seed")

		queue := []topology.QuadID{seed}
		queued := map[topology.QuadID]bool{seed: true}
		for len(queue) > 0 {
			q := queue[0]
			queue = queue[1:]

			local, err := h.localEdgeWays(q, edgeWays, q == seed)
			if err != nil {
				return err
			}
			quad := h.doc.Quad(q)
			for i, e := range quad.Edges {
				if _, known := edgeWays[e]; !known {
					edgeWays[e] = local[i]
				}
			}
			e0 := h.doc.Edge(quad.Edges[0])
			h.quadWays[q] = e0.Vertices[0] == local[0].from
			delete(skin, q)

			for _, e := range quad.Edges {
				for _, r := range h.doc.EdgeQuads(e) {
					if skin[r] && !queued[r] {
						queued[r] = true
						queue = append(queue, r)
					}
				}
			}
		}
	}
	return nil
}

// localEdgeWays returns how q traverses each of its edges. The traversal is
// anchored on the first edge with a known direction: a seed quad follows it,
// any other quad runs against it. The anchor fixes whether q runs with its
// corner cycle or against it; every other edge follows from that.
func (h *HexaBlocks) localEdgeWays(q topology.QuadID, edgeWays map[topology.EdgeID]directed, seed bool) ([4]directed, error) {
	var local [4]directed
	quad := h.doc.Quad(q)
	c := h.doc.QuadVertices(q)

	k := -1
	var anchor directed
	for i, e := range quad.Edges {
		if d, ok := edgeWays[e]; ok {
			k = i
			anchor = d
			if !seed {
				anchor = d.reverse()
			}
			break
		}
	}
	if k < 0 {
		return local, fmt.Errorf("mesher: quad %d has no oriented edge: %w", q, ErrTopologyInvariant)
	}

	var forward bool
	switch anchor {
	case directed{c[k], c[(k+1)%4]}:
		forward = true
	case directed{c[(k+1)%4], c[k]}:
	default:
		return local, fmt.Errorf("mesher: quad %d: edge %d does not join corners %d and %d: %w",
			q, quad.Edges[k], c[k], c[(k+1)%4], ErrTopologyInvariant)
	}
	for i := range local {
		local[i] = directed{c[i], c[(i+1)%4]}
		if !forward {
			local[i] = local[i].reverse()
		}
	}
	return local, nil
}

// findSeed returns the first skin quad, in id order, whose outward
// direction can be read off its parent block, along with the outward
// traversal of its first edge.
func (h *HexaBlocks) findSeed(skin map[topology.QuadID]bool) (topology.QuadID, directed, bool) {
	for _, q := range sortedQuads(skin) {
		if d, ok := h.seedWay(q); ok {
			return q, d, true
		}
	}
	return 0, directed{}, false
}

// seedWay orients q from the geometry of its only parent block. Each corner
// of q is joined by a block edge to a vertex off the quad; projecting those
// vertices onto the quad plane gives displacements pointing out of the
// block. The first edge runs corner 0 to corner 1 when the quad normal
// agrees with them.
func (h *HexaBlocks) seedWay(q topology.QuadID) (directed, bool) {
	corners := h.doc.QuadVertices(q)
	parents := h.doc.QuadParents(q)
	if len(parents) != 1 {
		return directed{}, false
	}

	onQuad := make(map[topology.VertexID]bool, 4)
	for _, v := range corners {
		onQuad[v] = true
	}
	opposite := make(map[topology.VertexID]topology.VertexID, 4)
	for _, id := range h.doc.HexaEdges(parents[0]) {
		e := h.doc.Edge(id)
		a, b := e.Vertices[0], e.Vertices[1]
		switch {
		case onQuad[a] && !onQuad[b]:
			opposite[a] = b
		case onQuad[b] && !onQuad[a]:
			opposite[b] = a
		}
	}

	var pts [4]model3d.Coord3D
	var disp [4]model3d.Coord3D
	for i, v := range corners {
		n, ok := h.node[v]
		if !ok {
			return directed{}, false
		}
		pts[i] = n.Coord
	}
	normal := pts[1].Sub(pts[0]).Cross(pts[2].Sub(pts[0]))
	if normal.Norm() == 0 {
		return directed{}, false
	}
	unit := normal.Normalize()
	for i, v := range corners {
		o, ok := opposite[v]
		if !ok {
			return directed{}, false
		}
		on, ok := h.node[o]
		if !ok {
			return directed{}, false
		}
		disp[i] = unit.Scale(-on.Coord.Sub(pts[0]).Dot(unit))
		if disp[i].Norm() == 0 {
			return directed{}, false
		}
	}
	for i := 0; i < 3; i++ {
		if isOpposite(disp[i], disp[i+1]) {
			return directed{}, false
		}
	}

	if isOpposite(normal, disp[0]) {
		return directed{corners[1], corners[0]}, true
	}
	return directed{corners[0], corners[1]}, true
}

func isOpposite(a, b model3d.Coord3D) bool {
	cos := a.Dot(b) / (a.Norm() * b.Norm())
	return math.Acos(math.Max(-1, math.Min(1, cos))) >= oppositeAngle
}

func sortedQuads(set map[topology.QuadID]bool) []topology.QuadID {
	out := maps.Keys(set)
	slices.Sort(out)
	return out
}
