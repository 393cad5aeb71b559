package topology

import (
	"fmt"

	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/unixpickle/model3d/model3d"
)

// Vertex is a corner of the block topology.
type Vertex struct {
	ID          VertexID        `json:"id"`
	Name        string          `json:"name,omitempty"`
	Point       model3d.Coord3D `json:"point"`
	Association kernel.Shape    `json:"association,omitempty"` // empty when unassociated
}

// EdgeAssociation ties an edge to a sub-range of a CAD curve. Start and
// End are fractions of the curve arc length.
type EdgeAssociation struct {
	Shape kernel.Shape `json:"shape"`
	Start float64      `json:"start"`
	End   float64      `json:"end"`
}

// Edge joins two vertices. Way selects the traversal direction used for
// discretization: Vertices[0] to Vertices[1] when true.
type Edge struct {
	ID           EdgeID            `json:"id"`
	Name         string            `json:"name,omitempty"`
	Vertices     [2]VertexID       `json:"vertices"`
	Way          bool              `json:"way"`
	Associations []EdgeAssociation `json:"associations,omitempty"`
}

// Quad is a four-sided patch bounded by a closed cycle of edges.
type Quad struct {
	ID           QuadID         `json:"id"`
	Name         string         `json:"name,omitempty"`
	Edges        [4]EdgeID      `json:"edges"`
	Associations []kernel.Shape `json:"associations,omitempty"`

	vertices [4]VertexID
}

// Hexa is a hexahedral block bounded by six quads.
type Hexa struct {
	ID    HexaID    `json:"id"`
	Name  string    `json:"name,omitempty"`
	Quads [6]QuadID `json:"quads"`
}

// Law is a discretization directive: Nodes interior nodes per edge,
// distributed according to Kind and Coefficient.
type Law struct {
	ID          LawID   `json:"id"`
	Name        string  `json:"name"`
	Nodes       int     `json:"nodes"`
	Kind        KindLaw `json:"kind"`
	Coefficient float64 `json:"coefficient"`
}

// Propagation is a class of topologically parallel edges sharing one law.
type Propagation struct {
	ID    PropagationID `json:"id"`
	Edges []EdgeID      `json:"edges"`
	Law   LawID         `json:"law"`
}

// Group is a named collection of topology elements of one kind.
type Group struct {
	ID       GroupID   `json:"id"`
	Name     string    `json:"name"`
	Kind     GroupKind `json:"kind"`
	Elements []int     `json:"elements"`
}

// Document is a block topology with its CAD associations and
// discretization directives. Ids are dense and assigned in creation order.
type Document struct {
	Name string

	vertices     []*Vertex
	edges        []*Edge
	quads        []*Quad
	hexas        []*Hexa
	laws         []*Law
	groups       []*Group
	propagations []*Propagation

	edgeByVertices  map[[2]VertexID]EdgeID
	quadByEdges     map[[4]EdgeID]QuadID
	edgeQuads       map[EdgeID][]QuadID
	quadParents     map[QuadID][]HexaID
	edgePropagation map[EdgeID]PropagationID
	propDirty       bool
}

// New creates an empty document holding only the default law.
func New(name string) *Document {
	d := &Document{
		Name:            name,
		edgeByVertices:  make(map[[2]VertexID]EdgeID),
		quadByEdges:     make(map[[4]EdgeID]QuadID),
		edgeQuads:       make(map[EdgeID][]QuadID),
		quadParents:     make(map[QuadID][]HexaID),
		edgePropagation: make(map[EdgeID]PropagationID),
	}
	d.laws = append(d.laws, &Law{ID: DefaultLawID, Name: "default", Nodes: 3, Kind: Uniform})
	return d
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (d *Document) Vertices() []*Vertex { return d.vertices }
func (d *Document) Edges() []*Edge       { return d.edges }
func (d *Document) Quads() []*Quad       { return d.quads }
func (d *Document) Hexas() []*Hexa       { return d.hexas }
func (d *Document) Laws() []*Law         { return d.laws }
func (d *Document) Groups() []*Group     { return d.groups }

// Vertex returns the vertex with the given id, or nil.
func (d *Document) Vertex(id VertexID) *Vertex {
	if id < 0 || int(id) >= len(d.vertices) {
		return nil
	}
	return d.vertices[id]
}

// Edge returns the edge with the given id, or nil.
func (d *Document) Edge(id EdgeID) *Edge {
	if id < 0 || int(id) >= len(d.edges) {
		return nil
	}
	return d.edges[id]
}

// Quad returns the quad with the given id, or nil.
func (d *Document) Quad(id QuadID) *Quad {
	if id < 0 || int(id) >= len(d.quads) {
		return nil
	}
	return d.quads[id]
}

// Hexa returns the hexahedron with the given id, or nil.
func (d *Document) Hexa(id HexaID) *Hexa {
	if id < 0 || int(id) >= len(d.hexas) {
		return nil
	}
	return d.hexas[id]
}

// Law returns the law with the given id, or nil.
func (d *Document) Law(id LawID) *Law {
	if id < 0 || int(id) >= len(d.laws) {
		return nil
	}
	return d.laws[id]
}

// Group returns the group with the given id, or nil.
func (d *Document) Group(id GroupID) *Group {
	if id < 0 || int(id) >= len(d.groups) {
		return nil
	}
	return d.groups[id]
}

// DefaultLaw returns the law used by propagations without one.
func (d *Document) DefaultLaw() *Law {
	return d.laws[DefaultLawID]
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

// AddVertex creates a vertex at (x, y, z).
func (d *Document) AddVertex(name string, x, y, z float64) VertexID {
	id := VertexID(len(d.vertices))
	d.vertices = append(d.vertices, &Vertex{ID: id, Name: name, Point: model3d.XYZ(x, y, z)})
	return id
}

// AddEdge creates an edge from v0 to v1. Way defaults to true.
func (d *Document) AddEdge(name string, v0, v1 VertexID) (EdgeID, error) {
	for _, v := range [2]VertexID{v0, v1} {
		if d.Vertex(v) == nil {
			return 0, fmt.Errorf("topology: add edge %q: vertex %d does not exist", name, v)
		}
	}
	id := EdgeID(len(d.edges))
	d.edges = append(d.edges, &Edge{ID: id, Name: name, Vertices: [2]VertexID{v0, v1}, Way: true})
	key := vertexPair(v0, v1)
	if _, ok := d.edgeByVertices[key]; !ok {
		d.edgeByVertices[key] = id
	}
	d.propDirty = true
	return id, nil
}

// AddQuad creates a quad from four edges forming a closed cycle in the
// given order.
func (d *Document) AddQuad(name string, e0, e1, e2, e3 EdgeID) (QuadID, error) {
	edges := [4]EdgeID{e0, e1, e2, e3}
	for _, e := range edges {
		if d.Edge(e) == nil {
			return 0, fmt.Errorf("topology: add quad %q: edge %d does not exist", name, e)
		}
	}
	verts, err := d.cycleVertices(edges)
	if err != nil {
		return 0, fmt.Errorf("topology: add quad %q: %w", name, err)
	}
	id := QuadID(len(d.quads))
	d.quads = append(d.quads, &Quad{ID: id, Name: name, Edges: edges, vertices: verts})
	key := sortedEdges(edges)
	if _, ok := d.quadByEdges[key]; !ok {
		d.quadByEdges[key] = id
	}
	for _, e := range uniqueEdges(edges) {
		d.edgeQuads[e] = append(d.edgeQuads[e], id)
	}
	d.propDirty = true
	return id, nil
}

// cycleVertices returns the corner vertices of a closed edge cycle. Corner i
// is the vertex shared by edges i-1 and i.
func (d *Document) cycleVertices(edges [4]EdgeID) ([4]VertexID, error) {
	var verts [4]VertexID
	for i := 0; i < 4; i++ {
		prev := d.edges[edges[(i+3)%4]]
		cur := d.edges[edges[i]]
		v, ok := sharedVertex(prev, cur)
		if !ok {
			return verts, fmt.Errorf("edges %d and %d do not share a vertex", prev.ID, cur.ID)
		}
		verts[i] = v
	}
	seen := make(map[VertexID]bool, 4)
	for _, v := range verts {
		if seen[v] {
			return verts, fmt.Errorf("edges %v do not form a closed cycle of 4 distinct vertices", edges)
		}
		seen[v] = true
	}
	// Each edge must join the corners on either side of it.
	for i := 0; i < 4; i++ {
		e := d.edges[edges[i]]
		if vertexPair(e.Vertices[0], e.Vertices[1]) != vertexPair(verts[i], verts[(i+1)%4]) {
			return verts, fmt.Errorf("edge %d does not join vertices %d and %d", e.ID, verts[i], verts[(i+1)%4])
		}
	}
	return verts, nil
}

// AddHexa creates a hexahedron bounded by six quads. Closure is checked by
// Validate, not here.
func (d *Document) AddHexa(name string, quads [6]QuadID) (HexaID, error) {
	for _, q := range quads {
		if d.Quad(q) == nil {
			return 0, fmt.Errorf("topology: add hexa %q: quad %d does not exist", name, q)
		}
	}
	id := HexaID(len(d.hexas))
	d.hexas = append(d.hexas, &Hexa{ID: id, Name: name, Quads: quads})
	seen := make(map[QuadID]bool, 6)
	for _, q := range quads {
		if seen[q] {
			continue
		}
		seen[q] = true
		d.quadParents[q] = append(d.quadParents[q], id)
	}
	d.propDirty = true
	return id, nil
}

// AddHexaVertices creates a hexahedron from its eight corners: v0..v3 the
// bottom cycle and v4..v7 the top cycle, v4 above v0. Edges and quads
// already joining the same vertices are reused, so neighbouring blocks
// share their common face. Quads are created in the order bottom, top,
// then the sides starting on bottom edges v0v1, v1v2, v2v3, v3v0.
func (d *Document) AddHexaVertices(name string, v [8]VertexID) (HexaID, error) {
	for _, id := range v {
		if d.Vertex(id) == nil {
			return 0, fmt.Errorf("topology: add hexa %q: vertex %d does not exist", name, id)
		}
	}
	edge := func(a, b VertexID) (EdgeID, error) {
		if e, ok := d.edgeByVertices[vertexPair(a, b)]; ok {
			return e, nil
		}
		return d.AddEdge("", a, b)
	}
	pairs := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0}, // bottom
		{4, 5}, {5, 6}, {6, 7}, {7, 4}, // top
		{0, 4}, {1, 5}, {2, 6}, {3, 7}, // vertical
	}
	var e [12]EdgeID
	for i, p := range pairs {
		id, err := edge(v[p[0]], v[p[1]])
		if err != nil {
			return 0, err
		}
		e[i] = id
	}
	faces := [6][4]int{
		{0, 1, 2, 3},
		{4, 5, 6, 7},
		{0, 9, 4, 8},
		{1, 10, 5, 9},
		{2, 11, 6, 10},
		{3, 8, 7, 11},
	}
	var quads [6]QuadID
	for i, f := range faces {
		edges := [4]EdgeID{e[f[0]], e[f[1]], e[f[2]], e[f[3]]}
		if q, ok := d.quadByEdges[sortedEdges(edges)]; ok {
			quads[i] = q
			continue
		}
		q, err := d.AddQuad("", edges[0], edges[1], edges[2], edges[3])
		if err != nil {
			return 0, fmt.Errorf("topology: add hexa %q: %w", name, err)
		}
		quads[i] = q
	}
	return d.AddHexa(name, quads)
}

// AddLaw creates a discretization law.
func (d *Document) AddLaw(name string, nodes int, kind KindLaw, coefficient float64) LawID {
	id := LawID(len(d.laws))
	d.laws = append(d.laws, &Law{ID: id, Name: name, Nodes: nodes, Kind: kind, Coefficient: coefficient})
	return id
}

// AddGroup creates a named group. Element ids are interpreted according to
// kind; dangling ids are reported by Validate.
func (d *Document) AddGroup(name string, kind GroupKind, elements ...int) GroupID {
	id := GroupID(len(d.groups))
	d.groups = append(d.groups, &Group{ID: id, Name: name, Kind: kind, Elements: append([]int(nil), elements...)})
	return id
}

// AddToGroup appends elements to an existing group.
func (d *Document) AddToGroup(g GroupID, elements ...int) error {
	grp := d.Group(g)
	if grp == nil {
		return fmt.Errorf("topology: group %d does not exist", g)
	}
	grp.Elements = append(grp.Elements, elements...)
	return nil
}

// ---------------------------------------------------------------------------
// Associations
// ---------------------------------------------------------------------------

// AssociateVertex ties a vertex to a point-like shape, replacing any
// previous association.
func (d *Document) AssociateVertex(v VertexID, s kernel.Shape) error {
	vert := d.Vertex(v)
	if vert == nil {
		return fmt.Errorf("topology: associate vertex: vertex %d does not exist", v)
	}
	vert.Association = s
	return nil
}

// AssociateEdge appends a curve association covering the [start, end]
// fraction of the curve arc length.
func (d *Document) AssociateEdge(e EdgeID, s kernel.Shape, start, end float64) error {
	edge := d.Edge(e)
	if edge == nil {
		return fmt.Errorf("topology: associate edge: edge %d does not exist", e)
	}
	if start < 0 || end > 1 || start >= end {
		return fmt.Errorf("topology: associate edge %d: invalid range [%g, %g]", e, start, end)
	}
	edge.Associations = append(edge.Associations, EdgeAssociation{Shape: s, Start: start, End: end})
	return nil
}

// AssociateQuad appends a surface association.
func (d *Document) AssociateQuad(q QuadID, s kernel.Shape) error {
	quad := d.Quad(q)
	if quad == nil {
		return fmt.Errorf("topology: associate quad: quad %d does not exist", q)
	}
	quad.Associations = append(quad.Associations, s)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func vertexPair(a, b VertexID) [2]VertexID {
	if a > b {
		a, b = b, a
	}
	return [2]VertexID{a, b}
}

func sortedEdges(edges [4]EdgeID) [4]EdgeID {
	s := edges
	for i := 1; i < 4; i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
	return s
}

func uniqueEdges(edges [4]EdgeID) []EdgeID {
	var out []EdgeID
	for _, e := range edges {
		dup := false
		for _, o := range out {
			if o == e {
				dup = true
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return out
}

func sharedVertex(a, b *Edge) (VertexID, bool) {
	for _, va := range a.Vertices {
		for _, vb := range b.Vertices {
			if va == vb {
				return va, true
			}
		}
	}
	return 0, false
}

// Other returns the endpoint of e that is not v.
func (e *Edge) Other(v VertexID) VertexID {
	if e.Vertices[0] == v {
		return e.Vertices[1]
	}
	return e.Vertices[0]
}

// Has reports whether v is an endpoint of e.
func (e *Edge) Has(v VertexID) bool {
	return e.Vertices[0] == v || e.Vertices[1] == v
}

// First returns the vertex discretization starts from, according to Way.
func (e *Edge) First() VertexID {
	if e.Way {
		return e.Vertices[0]
	}
	return e.Vertices[1]
}

// Last returns the vertex discretization ends at, according to Way.
func (e *Edge) Last() VertexID {
	if e.Way {
		return e.Vertices[1]
	}
	return e.Vertices[0]
}
