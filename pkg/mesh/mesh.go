// Package mesh holds the generated mesh: nodes, linear edges, quadrangle
// faces and hexahedral volumes, plus named groups of them. Ids are dense
// per entity kind and start at 1.
package mesh

import (
	"fmt"

	"github.com/unixpickle/model3d/model3d"
)

// ElementType is the kind of a mesh entity.
type ElementType int

const (
	NodeType ElementType = iota
	EdgeType
	FaceType
	VolumeType
)

func (t ElementType) String() string {
	switch t {
	case NodeType:
		return "node"
	case EdgeType:
		return "edge"
	case FaceType:
		return "face"
	case VolumeType:
		return "volume"
	default:
		return "unknown"
	}
}

// Node is a mesh vertex.
type Node struct {
	ID    int
	Coord model3d.Coord3D
}

// Element is a mesh edge (2 nodes), face (4 nodes) or volume (8 nodes).
// Face winding is significant; volume nodes list the bottom face then the
// top face.
type Element struct {
	ID    int
	Type  ElementType
	Nodes []*Node
}

// Group is a named collection of nodes or elements of one type. Members
// are kept in insertion order without duplicates.
type Group struct {
	Name string
	Type ElementType

	nodes    []*Node
	elements []*Element
	seen     map[int]bool
}

// AddNodes appends nodes to a node group.
func (g *Group) AddNodes(nodes ...*Node) error {
	if g.Type != NodeType {
		return fmt.Errorf("mesh: group %q holds %ss, not nodes", g.Name, g.Type)
	}
	for _, n := range nodes {
		if !g.seen[n.ID] {
			g.seen[n.ID] = true
			g.nodes = append(g.nodes, n)
		}
	}
	return nil
}

// AddElements appends elements of the group's type.
func (g *Group) AddElements(elems ...*Element) error {
	for _, e := range elems {
		if e.Type != g.Type {
			return fmt.Errorf("mesh: group %q holds %ss, got %s %d", g.Name, g.Type, e.Type, e.ID)
		}
		if !g.seen[e.ID] {
			g.seen[e.ID] = true
			g.elements = append(g.elements, e)
		}
	}
	return nil
}

// Nodes returns the members of a node group.
func (g *Group) Nodes() []*Node { return g.nodes }

// Elements returns the members of an element group.
func (g *Group) Elements() []*Element { return g.elements }

// Size returns the number of members.
func (g *Group) Size() int {
	if g.Type == NodeType {
		return len(g.nodes)
	}
	return len(g.elements)
}

// Mesh owns every generated entity.
type Mesh struct {
	nodes   []*Node
	edges   []*Element
	faces   []*Element
	volumes []*Element
	groups  []*Group
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// AddNode creates a node at c.
func (m *Mesh) AddNode(c model3d.Coord3D) *Node {
	n := &Node{ID: len(m.nodes) + 1, Coord: c}
	m.nodes = append(m.nodes, n)
	return n
}

// AddEdge creates a linear edge from a to b.
func (m *Mesh) AddEdge(a, b *Node) *Element {
	e := &Element{ID: len(m.edges) + 1, Type: EdgeType, Nodes: []*Node{a, b}}
	m.edges = append(m.edges, e)
	return e
}

// AddFace creates a quadrangle with winding a, b, c, d.
func (m *Mesh) AddFace(a, b, c, d *Node) *Element {
	f := &Element{ID: len(m.faces) + 1, Type: FaceType, Nodes: []*Node{a, b, c, d}}
	m.faces = append(m.faces, f)
	return f
}

// AddVolume creates a hexahedron from its bottom four nodes followed by
// its top four.
func (m *Mesh) AddVolume(n [8]*Node) *Element {
	v := &Element{ID: len(m.volumes) + 1, Type: VolumeType, Nodes: n[:]}
	m.volumes = append(m.volumes, v)
	return v
}

// AddGroup creates an empty named group.
func (m *Mesh) AddGroup(name string, t ElementType) *Group {
	g := &Group{Name: name, Type: t, seen: make(map[int]bool)}
	m.groups = append(m.groups, g)
	return g
}

func (m *Mesh) Nodes() []*Node      { return m.nodes }
func (m *Mesh) Edges() []*Element   { return m.edges }
func (m *Mesh) Faces() []*Element   { return m.faces }
func (m *Mesh) Volumes() []*Element { return m.volumes }
func (m *Mesh) Groups() []*Group    { return m.groups }

func (m *Mesh) NodeCount() int   { return len(m.nodes) }
func (m *Mesh) EdgeCount() int   { return len(m.edges) }
func (m *Mesh) FaceCount() int   { return len(m.faces) }
func (m *Mesh) VolumeCount() int { return len(m.volumes) }

// Group returns the first group with the given name, or nil.
func (m *Mesh) Group(name string) *Group {
	for _, g := range m.groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Summary describes the mesh size in one line.
func (m *Mesh) Summary() string {
	return fmt.Sprintf("%d nodes, %d edges, %d faces, %d volumes, %d groups",
		len(m.nodes), len(m.edges), len(m.faces), len(m.volumes), len(m.groups))
}
