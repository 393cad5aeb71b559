package topology_test

import (
	"testing"

	"github.com/chazu/hexablock/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// unitCube returns a document holding one hexahedron on the unit cube.
func unitCube(t *testing.T) *topology.Document {
	t.Helper()
	d := topology.New("cube")
	_, err := d.MakeCartesian("c", model3d.Coord3D{}, model3d.XYZ(1, 1, 1), 1, 1, 1)
	require.NoError(t, err)
	return d
}

// square returns a document with a single free quad.
func square(t *testing.T) (*topology.Document, topology.QuadID) {
	t.Helper()
	d := topology.New("square")
	a := d.AddVertex("a", 0, 0, 0)
	b := d.AddVertex("b", 1, 0, 0)
	c := d.AddVertex("c", 1, 1, 0)
	e := d.AddVertex("e", 0, 1, 0)
	ab, _ := d.AddEdge("ab", a, b)
	bc, _ := d.AddEdge("bc", b, c)
	ce, _ := d.AddEdge("ce", c, e)
	ea, _ := d.AddEdge("ea", e, a)
	q, err := d.AddQuad("q", ab, bc, ce, ea)
	require.NoError(t, err)
	return d, q
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

func TestNewHasDefaultLaw(t *testing.T) {
	d := topology.New("empty")
	law := d.DefaultLaw()
	require.NotNil(t, law)
	assert.Equal(t, topology.DefaultLawID, law.ID)
	assert.Equal(t, "default", law.Name)
	assert.Equal(t, 3, law.Nodes)
	assert.Equal(t, topology.Uniform, law.Kind)
}

func TestAddEdgeMissingVertex(t *testing.T) {
	d := topology.New("doc")
	a := d.AddVertex("a", 0, 0, 0)
	_, err := d.AddEdge("bad", a, 7)
	assert.Error(t, err)
}

func TestAddQuadCycle(t *testing.T) {
	d := topology.New("doc")
	a := d.AddVertex("a", 0, 0, 0)
	b := d.AddVertex("b", 1, 0, 0)
	c := d.AddVertex("c", 1, 1, 0)
	e := d.AddVertex("e", 0, 1, 0)
	ab, _ := d.AddEdge("ab", a, b)
	bc, _ := d.AddEdge("bc", b, c)
	ce, _ := d.AddEdge("ce", c, e)
	ea, _ := d.AddEdge("ea", e, a)
	ac, _ := d.AddEdge("ac", a, c)

	tests := []struct {
		name    string
		edges   [4]topology.EdgeID
		wantErr bool
	}{
		{"closed cycle", [4]topology.EdgeID{ab, bc, ce, ea}, false},
		{"closed cycle rotated", [4]topology.EdgeID{ce, ea, ab, bc}, false},
		{"wrong order", [4]topology.EdgeID{ab, ce, bc, ea}, true},
		{"diagonal", [4]topology.EdgeID{ab, bc, ac, ea}, true},
		{"repeated edge", [4]topology.EdgeID{ab, ab, ce, ea}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.AddQuad(tt.name, tt.edges[0], tt.edges[1], tt.edges[2], tt.edges[3])
			if (err != nil) != tt.wantErr {
				t.Errorf("AddQuad() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuadVertices(t *testing.T) {
	d, q := square(t)
	// Corner 0 is shared by the last and first edges.
	assert.Equal(t, [4]topology.VertexID{0, 1, 2, 3}, d.QuadVertices(q))
}

func TestAddHexaVerticesSharesFaces(t *testing.T) {
	d := topology.New("two")
	g, err := d.MakeCartesian("b", model3d.Coord3D{}, model3d.XYZ(1, 1, 1), 2, 1, 1)
	require.NoError(t, err)

	assert.Len(t, d.Vertices(), 12)
	assert.Len(t, d.Edges(), 20)
	assert.Len(t, d.Quads(), 11)
	assert.Len(t, d.Hexas(), 2)

	// The x = 1 face is shared by both blocks.
	var shared []topology.QuadID
	for _, q := range d.Quads() {
		if len(d.QuadParents(q.ID)) == 2 {
			shared = append(shared, q.ID)
		}
	}
	require.Len(t, shared, 1)
	assert.ElementsMatch(t, []topology.HexaID{g.Hexa(0, 0, 0), g.Hexa(1, 0, 0)}, d.QuadParents(shared[0]))
}

func TestHexaVertices(t *testing.T) {
	d := unitCube(t)
	verts, err := d.HexaVertices(0)
	require.NoError(t, err)

	want := []model3d.Coord3D{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
	}
	for i, v := range verts {
		if got := d.Vertex(v).Point; got != want[i] {
			t.Errorf("HexaVertices()[%d] = %v, want %v", i, got, want[i])
		}
	}
	assert.Len(t, d.HexaEdges(0), 12)
}

func TestUsedElements(t *testing.T) {
	d := unitCube(t)
	d.AddVertex("stray", 5, 5, 5)

	assert.Len(t, d.UsedHexas(), 1)
	assert.Len(t, d.UsedQuads(), 6)
	assert.Len(t, d.UsedEdges(), 12)
	assert.Len(t, d.UsedVertices(), 8)
}

func TestUsedFreeQuad(t *testing.T) {
	d, q := square(t)
	assert.Equal(t, []topology.QuadID{q}, d.UsedQuads())
	assert.Len(t, d.UsedVertices(), 4)
}

func TestAssociateEdgeRange(t *testing.T) {
	d, _ := square(t)
	tests := []struct {
		name       string
		start, end float64
		wantErr    bool
	}{
		{"full", 0, 1, false},
		{"part", 0.25, 0.5, false},
		{"reversed", 0.5, 0.25, true},
		{"empty", 0.5, 0.5, true},
		{"out of range", -0.1, 0.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.AssociateEdge(0, "{}", tt.start, tt.end)
			if (err != nil) != tt.wantErr {
				t.Errorf("AssociateEdge() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseGroupKind(t *testing.T) {
	tests := []struct {
		in      string
		want    topology.GroupKind
		wantErr bool
	}{
		{"hexa-cell", topology.HexaCell, false},
		{"quad_node", topology.QuadNode, false},
		{"VERTEX-NODE", topology.VertexNode, false},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := topology.ParseGroupKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGroupKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseGroupKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
