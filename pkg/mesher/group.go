package mesher

import (
	"fmt"

	"github.com/chazu/hexablock/pkg/mesh"
	"github.com/chazu/hexablock/pkg/topology"
)

// groupType maps a topology group kind to the mesh group it produces.
func groupType(k topology.GroupKind) (mesh.ElementType, bool) {
	switch k {
	case topology.HexaCell:
		return mesh.VolumeType, true
	case topology.QuadCell:
		return mesh.FaceType, true
	case topology.EdgeCell:
		return mesh.EdgeType, true
	case topology.HexaNode, topology.QuadNode, topology.EdgeNode, topology.VertexNode:
		return mesh.NodeType, true
	default:
		return 0, false
	}
}

// BuildGroups materializes every document group as a mesh group. Members
// that produced no mesh entities are skipped with a warning.
func (h *HexaBlocks) BuildGroups() error {
	for _, g := range h.doc.Groups() {
		t, ok := groupType(g.Kind)
		if !ok {
			return fmt.Errorf("mesher: group %q has unknown kind %d: %w", g.Name, int(g.Kind), ErrTopologyInvariant)
		}
		mg := h.sink.AddGroup(g.Name, t)
		for _, id := range g.Elements {
			if err := h.addGroupMember(mg, g, id); err != nil {
				return err
			}
		}
		h.report.Groups++
		h.log.WithField("group", g.Name).WithField("size", mg.Size()).Debug("built group")
	}
	return nil
}

func (h *HexaBlocks) addGroupMember(mg *mesh.Group, g *topology.Group, id int) error {
	var (
		elems []*mesh.Element
		nodes []*mesh.Node
		found bool
	)
	switch g.Kind {
	case topology.HexaCell:
		elems, found = h.volumesOnHexa[topology.HexaID(id)]
	case topology.QuadCell:
		elems, found = h.facesOnQuad[topology.QuadID(id)]
	case topology.EdgeCell:
		elems, found = h.edgesOnEdge[topology.EdgeID(id)]
	case topology.HexaNode:
		var vols []*mesh.Element
		vols, found = h.volumesOnHexa[topology.HexaID(id)]
		for _, v := range vols {
			nodes = append(nodes, v.Nodes...)
		}
	case topology.QuadNode:
		var grid [][]*mesh.Node
		grid, found = h.nodesOnQuad[topology.QuadID(id)]
		for _, row := range grid {
			nodes = append(nodes, row...)
		}
	case topology.EdgeNode:
		nodes, found = h.nodesOnEdge[topology.EdgeID(id)]
	case topology.VertexNode:
		var n *mesh.Node
		n, found = h.node[topology.VertexID(id)]
		if found {
			nodes = []*mesh.Node{n}
		}
	}

	if !found {
		msg := fmt.Sprintf("group %q: %s %d was not meshed", g.Name, g.Kind.ElementKind(), id)
		h.log.WithField("group", g.Name).Warn(msg)
		h.report.Warnings = append(h.report.Warnings, msg)
		return nil
	}
	if len(nodes) > 0 {
		if err := mg.AddNodes(nodes...); err != nil {
			return fmt.Errorf("mesher: group %q: %v: %w", g.Name, err, ErrTopologyInvariant)
		}
	}
	if len(elems) > 0 {
		if err := mg.AddElements(elems...); err != nil {
			return fmt.Errorf("mesher: group %q: %v: %w", g.Name, err, ErrTopologyInvariant)
		}
	}
	return nil
}
