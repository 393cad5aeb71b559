package topology

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// QuadVertices returns the four corners of q in cyclic edge order. Corner 0
// is the vertex shared by the quad's last and first edges.
func (d *Document) QuadVertices(q QuadID) [4]VertexID {
	return d.quads[q].vertices
}

// QuadParents returns the hexahedra bounded by q, in creation order.
func (d *Document) QuadParents(q QuadID) []HexaID {
	return d.quadParents[q]
}

// EdgeQuads returns the quads bounded by e, in creation order.
func (d *Document) EdgeQuads(e EdgeID) []QuadID {
	return d.edgeQuads[e]
}

// EdgeBetween returns the first edge created between a and b.
func (d *Document) EdgeBetween(a, b VertexID) (EdgeID, bool) {
	e, ok := d.edgeByVertices[vertexPair(a, b)]
	return e, ok
}

// HexaEdges returns the distinct edges of h's quads in order of first
// appearance.
func (d *Document) HexaEdges(h HexaID) []EdgeID {
	var out []EdgeID
	seen := make(map[EdgeID]bool, 12)
	for _, q := range d.hexas[h].Quads {
		for _, e := range d.quads[q].Edges {
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}

// HexaVertices returns the eight corners of h: the corners of its first
// quad (the bottom) in cyclic order, followed by the vertex joined to each
// of them by an edge leaving the bottom quad (the top). It fails when the
// quads do not close a hexahedron.
func (d *Document) HexaVertices(h HexaID) ([8]VertexID, error) {
	var out [8]VertexID
	hexa := d.Hexa(h)
	if hexa == nil {
		return out, fmt.Errorf("topology: hexa %d does not exist", h)
	}
	bottom := d.QuadVertices(hexa.Quads[0])
	inBottom := make(map[VertexID]bool, 4)
	for i, v := range bottom {
		out[i] = v
		inBottom[v] = true
	}
	edges := d.HexaEdges(h)
	for i, v := range bottom {
		found := false
		for _, e := range edges {
			edge := d.edges[e]
			if edge.Has(v) && !inBottom[edge.Other(v)] {
				out[i+4] = edge.Other(v)
				found = true
				break
			}
		}
		if !found {
			return out, fmt.Errorf("topology: hexa %d: no vertical edge at vertex %d", h, v)
		}
	}
	seen := make(map[VertexID]bool, 8)
	for _, v := range out {
		if seen[v] {
			return out, fmt.Errorf("topology: hexa %d: corners are not distinct", h)
		}
		seen[v] = true
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Used elements
// ---------------------------------------------------------------------------

// Elements are used when they bound a hexahedron or a free quad (a quad with
// no parent hexahedron). Results are in id order.

// UsedHexas returns every hexahedron.
func (d *Document) UsedHexas() []HexaID {
	out := make([]HexaID, len(d.hexas))
	for i := range d.hexas {
		out[i] = HexaID(i)
	}
	return out
}

// UsedQuads returns the quads of hexahedra plus the free quads.
func (d *Document) UsedQuads() []QuadID {
	set := make(map[QuadID]bool)
	for _, h := range d.hexas {
		for _, q := range h.Quads {
			set[q] = true
		}
	}
	for _, q := range d.quads {
		if len(d.quadParents[q.ID]) == 0 {
			set[q.ID] = true
		}
	}
	return sortedKeys(set)
}

// UsedEdges returns the edges of used quads.
func (d *Document) UsedEdges() []EdgeID {
	set := make(map[EdgeID]bool)
	for _, q := range d.UsedQuads() {
		for _, e := range d.quads[q].Edges {
			set[e] = true
		}
	}
	return sortedKeys(set)
}

// UsedVertices returns the endpoints of used edges.
func (d *Document) UsedVertices() []VertexID {
	set := make(map[VertexID]bool)
	for _, e := range d.UsedEdges() {
		for _, v := range d.edges[e].Vertices {
			set[v] = true
		}
	}
	return sortedKeys(set)
}

func sortedKeys[K ~int](set map[K]bool) []K {
	keys := maps.Keys(set)
	slices.Sort(keys)
	return keys
}
