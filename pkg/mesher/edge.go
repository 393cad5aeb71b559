package mesher

import (
	"fmt"

	"github.com/chazu/hexablock/pkg/mesh"
	"github.com/chazu/hexablock/pkg/topology"
	"github.com/sirupsen/logrus"
	"github.com/unixpickle/model3d/model3d"
)

// EdgeStrategy identifies how an edge's interior nodes were placed.
type EdgeStrategy int

const (
	EdgeByAssociation EdgeStrategy = iota
	EdgeByShortestWire
	EdgeByPlanWire
	EdgeByIsoWire
	EdgeBySegment
)

func (s EdgeStrategy) String() string {
	switch s {
	case EdgeByAssociation:
		return "association"
	case EdgeByShortestWire:
		return "shortest-wire"
	case EdgeByPlanWire:
		return "plan-wire"
	case EdgeByIsoWire:
		return "iso-wire"
	case EdgeBySegment:
		return "segment"
	default:
		return fmt.Sprintf("EdgeStrategy(%d)", int(s))
	}
}

// edgeStrategy computes interior node positions for law positions us.
type edgeStrategy func(h *HexaBlocks, e *topology.Edge, first, last model3d.Coord3D, us []float64) ([]model3d.Coord3D, error)

// edgeStrategies is tried in order. The wire strategies are reserved.
var edgeStrategies = []struct {
	kind EdgeStrategy
	fn   edgeStrategy
}{
	{EdgeByAssociation, edgeByAssociation},
	{EdgeByShortestWire, edgeNotImplemented},
	{EdgeByPlanWire, edgeNotImplemented},
	{EdgeByIsoWire, edgeNotImplemented},
	{EdgeBySegment, edgeBySegment},
}

func edgeByAssociation(h *HexaBlocks, e *topology.Edge, first, last model3d.Coord3D, us []float64) ([]model3d.Coord3D, error) {
	ch, err := h.buildChain(e, first, last)
	if err != nil {
		return nil, err
	}
	w := &walker{chain: ch}
	out := make([]model3d.Coord3D, len(us))
	for i, u := range us {
		p, err := w.at(u * ch.length)
		if err != nil {
			return nil, fmt.Errorf("mesher: edge %d: %v: %w", e.ID, err, ErrGeometryResolution)
		}
		out[i] = p
	}
	return out, nil
}

func edgeNotImplemented(*HexaBlocks, *topology.Edge, model3d.Coord3D, model3d.Coord3D, []float64) ([]model3d.Coord3D, error) {
	return nil, ErrNotImplemented
}

func edgeBySegment(_ *HexaBlocks, _ *topology.Edge, first, last model3d.Coord3D, us []float64) ([]model3d.Coord3D, error) {
	out := make([]model3d.Coord3D, len(us))
	d := last.Sub(first)
	for i, u := range us {
		out[i] = first.Add(d.Scale(u))
	}
	return out, nil
}

// ComputeEdge discretizes e under law. Nodes run from the edge's First to
// its Last vertex, both of which must already be placed.
func (h *HexaBlocks) ComputeEdge(id topology.EdgeID, law *topology.Law) (EdgeStrategy, error) {
	e := h.doc.Edge(id)
	if e == nil {
		return 0, fmt.Errorf("mesher: edge %d does not exist: %w", id, ErrTopologyInvariant)
	}
	if _, done := h.nodesOnEdge[id]; done {
		return 0, fmt.Errorf("mesher: edge %d discretized twice: %w", id, ErrTopologyInvariant)
	}
	first, ok1 := h.node[e.First()]
	last, ok2 := h.node[e.Last()]
	if !ok1 || !ok2 {
		return 0, fmt.Errorf("mesher: edge %d: endpoint not placed: %w", id, ErrTopologyInvariant)
	}

	us, err := Positions(law)
	if err != nil {
		return 0, err
	}

	var (
		kind EdgeStrategy
		pts  []model3d.Coord3D
	)
	for _, s := range edgeStrategies {
		pts, err = s.fn(h, e, first.Coord, last.Coord, us)
		if err == nil {
			kind = s.kind
			break
		}
		if !tryNext(err) {
			return 0, err
		}
		h.log.WithFields(logrus.Fields{
			"edge":     id,
			"strategy": s.kind,
		}).Debug("edge strategy not applicable")
	}
	if err != nil {
		return 0, fmt.Errorf("mesher: edge %d: no strategy applied: %w", id, err)
	}

	nodes := make([]*mesh.Node, 0, len(pts)+2)
	edges := make([]*mesh.Element, 0, len(pts)+1)
	nodes = append(nodes, first)
	for i, p := range pts {
		n := h.sink.AddNode(p)
		if _, dup := h.nodeParameter[n.ID]; dup {
			return 0, fmt.Errorf("mesher: edge %d: node %d already has a parameter: %w", id, n.ID, ErrTopologyInvariant)
		}
		h.nodeParameter[n.ID] = us[i]
		edges = append(edges, h.sink.AddEdge(nodes[len(nodes)-1], n))
		nodes = append(nodes, n)
	}
	edges = append(edges, h.sink.AddEdge(nodes[len(nodes)-1], last))
	nodes = append(nodes, last)

	h.nodesOnEdge[id] = nodes
	h.edgesOnEdge[id] = edges
	h.report.Edges++
	h.report.EdgeStrategies[kind]++
	return kind, nil
}
