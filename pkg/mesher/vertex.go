package mesher

import (
	"fmt"

	"github.com/chazu/hexablock/pkg/mesh"
	"github.com/chazu/hexablock/pkg/topology"
)

// ComputeVertex places the node of v: at its associated shape when it has
// one, at its own coordinates otherwise. A vertex is placed at most once.
func (h *HexaBlocks) ComputeVertex(v topology.VertexID) (*mesh.Node, error) {
	if _, done := h.node[v]; done {
		return nil, fmt.Errorf("mesher: vertex %d placed twice: %w", v, ErrTopologyInvariant)
	}
	vert := h.doc.Vertex(v)
	if vert == nil {
		return nil, fmt.Errorf("mesher: vertex %d does not exist: %w", v, ErrTopologyInvariant)
	}

	p := vert.Point
	if vert.Association != "" {
		if h.kernel == nil {
			return nil, fmt.Errorf("mesher: vertex %d: no kernel to resolve association: %w", v, ErrGeometryResolution)
		}
		at, err := h.kernel.Point(vert.Association, vert.Point)
		if err != nil {
			return nil, fmt.Errorf("mesher: vertex %d: %v: %w", v, err, ErrGeometryResolution)
		}
		p = at
	}

	n := h.sink.AddNode(p)
	h.node[v] = n
	h.vertex[n.ID] = v
	h.report.Vertices++
	return n, nil
}
