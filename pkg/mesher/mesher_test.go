package mesher

import (
	"errors"
	"fmt"
	"testing"

	"github.com/chazu/hexablock/pkg/fromskin"
	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/chazu/hexablock/pkg/kernel/facet"
	"github.com/chazu/hexablock/pkg/mesh"
	"github.com/chazu/hexablock/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
)

// blocks builds an ni x 1 x 1 row of unit blocks whose default law has the
// given node count.
func blocks(t *testing.T, ni, nodes int) (*topology.Document, *topology.Grid) {
	t.Helper()
	doc := topology.New("blocks")
	g, err := doc.MakeCartesian("", model3d.Coord3D{}, model3d.XYZ(1, 1, 1), ni, 1, 1)
	require.NoError(t, err)
	doc.DefaultLaw().Nodes = nodes
	return doc, g
}

func compute(t *testing.T, doc *topology.Document, k kernel.Kernel, opts ...Option) (*HexaBlocks, *mesh.Mesh, *Report) {
	t.Helper()
	m := mesh.New()
	h := New(doc, m, k, opts...)
	r, err := h.ComputeDoc()
	require.NoError(t, err)
	return h, m, r
}

// faceNormal is the normal of a face following its winding.
func faceNormal(f *mesh.Element) model3d.Coord3D {
	a, b, c := f.Nodes[0].Coord, f.Nodes[1].Coord, f.Nodes[2].Coord
	return b.Sub(a).Cross(c.Sub(a))
}

func faceCenter(f *mesh.Element) model3d.Coord3D {
	var c model3d.Coord3D
	for _, n := range f.Nodes {
		c = c.Add(n.Coord)
	}
	return c.Scale(0.25)
}

func TestComputeDocCube(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		t.Run(fmt.Sprintf("nodes=%d", n), func(t *testing.T) {
			doc, _ := blocks(t, 1, n)
			_, m, r := compute(t, doc, nil)

			assert.Equal(t, (n+2)*(n+2)*(n+2), m.NodeCount(), "nodes")
			assert.Equal(t, 12*(n+1), m.EdgeCount(), "edges")
			assert.Equal(t, 6*(n+1)*(n+1), m.FaceCount(), "faces")
			assert.Equal(t, (n+1)*(n+1)*(n+1), m.VolumeCount(), "volumes")

			assert.Equal(t, 8, r.Vertices)
			assert.Equal(t, 12, r.Edges)
			assert.Equal(t, 6, r.Quads)
			assert.Equal(t, 1, r.Hexas)
			assert.Equal(t, 12, r.EdgeStrategies[EdgeBySegment])
			assert.Equal(t, 6, r.QuadStrategies[QuadByLinearApproximation])
			assert.Empty(t, r.HexaErrors)
		})
	}
}

func TestEdgeNodesRunFirstToLast(t *testing.T) {
	doc, _ := blocks(t, 1, 2)
	h, _, _ := compute(t, doc, nil)

	for _, e := range doc.Edges() {
		nodes := h.EdgeNodes(e.ID)
		require.Len(t, nodes, 4, "edge %d", e.ID)
		first, _ := h.VertexNode(e.First())
		last, _ := h.VertexNode(e.Last())
		assert.Same(t, first, nodes[0])
		assert.Same(t, last, nodes[3])

		edges := h.EdgeElements(e.ID)
		require.Len(t, edges, 3)
		for i, el := range edges {
			assert.Same(t, nodes[i], el.Nodes[0])
			assert.Same(t, nodes[i+1], el.Nodes[1])
		}
	}
}

func TestQuadBordersAreEdgeNodes(t *testing.T) {
	doc, _ := blocks(t, 1, 1)
	h, _, _ := compute(t, doc, nil)

	for _, q := range doc.Quads() {
		grid := h.QuadNodes(q.ID)
		require.Len(t, grid, 3)
		border := make(map[*mesh.Node]bool)
		for i := range grid {
			require.Len(t, grid[i], 3)
			border[grid[i][0]] = true
			border[grid[i][2]] = true
			border[grid[0][i]] = true
			border[grid[2][i]] = true
		}
		for _, e := range q.Edges {
			for _, n := range h.EdgeNodes(e) {
				assert.True(t, border[n], "quad %d: node %d of edge %d not on border", q.ID, n.ID, e)
			}
		}
		assert.Len(t, border, 8)
		assert.Len(t, h.QuadFaces(q.ID), 4)
	}
}

// cartesian returns a builder for an ni x nj x nk grid of unit blocks.
func cartesian(ni, nj, nk int) func(t *testing.T) *topology.Document {
	return func(t *testing.T) *topology.Document {
		doc := topology.New("grid")
		_, err := doc.MakeCartesian("", model3d.Coord3D{}, model3d.XYZ(1, 1, 1), ni, nj, nk)
		require.NoError(t, err)
		doc.DefaultLaw().Nodes = 1
		return doc
	}
}

// cells builds unit blocks at the given lattice cells, sharing the vertices
// of neighbouring cells.
func cells(t *testing.T, at ...[3]int) *topology.Document {
	t.Helper()
	doc := topology.New("cells")
	verts := make(map[[3]int]topology.VertexID)
	vertex := func(i, j, k int) topology.VertexID {
		key := [3]int{i, j, k}
		if v, ok := verts[key]; ok {
			return v
		}
		v := doc.AddVertex("", float64(i), float64(j), float64(k))
		verts[key] = v
		return v
	}
	for _, c := range at {
		i, j, k := c[0], c[1], c[2]
		_, err := doc.AddHexaVertices("", [8]topology.VertexID{
			vertex(i, j, k), vertex(i+1, j, k), vertex(i+1, j+1, k), vertex(i, j+1, k),
			vertex(i, j, k+1), vertex(i+1, j, k+1), vertex(i+1, j+1, k+1), vertex(i, j+1, k+1),
		})
		require.NoError(t, err)
	}
	doc.DefaultLaw().Nodes = 1
	return doc
}

func hexaCenter(t *testing.T, doc *topology.Document, h topology.HexaID) model3d.Coord3D {
	t.Helper()
	corners, err := doc.HexaVertices(h)
	require.NoError(t, err)
	var c model3d.Coord3D
	for _, v := range corners {
		c = c.Add(doc.Vertex(v).Point)
	}
	return c.Scale(1.0 / 8)
}

func TestSkinIsConsistentlyOutward(t *testing.T) {
	tests := []struct {
		name   string
		build  func(t *testing.T) *topology.Document
		volume float64
	}{
		{"cube", cartesian(1, 1, 1), 1},
		{"two blocks", cartesian(2, 1, 1), 2},
		{"three blocks", cartesian(3, 1, 1), 3},
		{"column", cartesian(1, 1, 2), 2},
		{"slab", cartesian(2, 2, 1), 4},
		{"graded grid", func(t *testing.T) *topology.Document {
			doc := cartesian(2, 2, 2)(t)
			law := doc.DefaultLaw()
			law.Nodes = 2
			law.Kind = topology.Geometric
			law.Coefficient = 1.2
			return doc
		}, 8},
		{"L shape", func(t *testing.T) *topology.Document {
			return cells(t, [3]int{0, 0, 0}, [3]int{1, 0, 0}, [3]int{0, 1, 0})
		}, 3},
		{"clockwise bottom", func(t *testing.T) *topology.Document {
			doc := topology.New("clockwise")
			var v [8]topology.VertexID
			for i, p := range [4][2]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}} {
				v[i] = doc.AddVertex("", p[0], p[1], 0)
				v[i+4] = doc.AddVertex("", p[0], p[1], 1)
			}
			_, err := doc.AddHexaVertices("", v)
			require.NoError(t, err)
			doc.DefaultLaw().Nodes = 1
			return doc
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.build(t)
			h, m, _ := compute(t, doc, nil)

			var faces []*mesh.Element
			for _, q := range doc.Quads() {
				parents := doc.QuadParents(q.ID)
				if len(parents) != 1 {
					continue
				}
				center := hexaCenter(t, doc, parents[0])
				for _, f := range h.QuadFaces(q.ID) {
					if faceNormal(f).Dot(faceCenter(f).Sub(center)) <= 0 {
						t.Errorf("face %d of quad %d points into its block", f.ID, q.ID)
					}
					faces = append(faces, f)
				}
			}
			require.NotEmpty(t, faces)

			directed := make(map[[2]int]int)
			enclosed := 0.0
			for _, f := range faces {
				for i := range f.Nodes {
					a, b := f.Nodes[i], f.Nodes[(i+1)%4]
					directed[[2]int{a.ID, b.ID}]++
				}
				p := f.Nodes
				enclosed += p[0].Coord.Dot(p[1].Coord.Cross(p[2].Coord)) / 6
				enclosed += p[0].Coord.Dot(p[2].Coord.Cross(p[3].Coord)) / 6
			}
			// A closed, consistently wound surface uses every mesh edge once
			// in each direction.
			for k, n := range directed {
				if n != 1 {
					t.Errorf("edge %v traversed %d times in one direction", k, n)
				}
				if directed[[2]int{k[1], k[0]}] != 1 {
					t.Errorf("edge %v not traversed backwards", k)
				}
			}
			assert.InDelta(t, tt.volume, enclosed, 1e-9, "signed volume of the skin")

			require.NotZero(t, m.VolumeCount())
			for _, v := range m.Volumes() {
				p := v.Nodes
				d := p[1].Coord.Sub(p[0].Coord).Cross(p[3].Coord.Sub(p[0].Coord)).Dot(p[4].Coord.Sub(p[0].Coord))
				if d <= 0 {
					t.Errorf("volume %d has non-positive orientation %v", v.ID, d)
				}
			}
		})
	}
}

func TestInternalQuadKeepsNaturalWay(t *testing.T) {
	doc, _ := blocks(t, 2, 1)
	h, m, r := compute(t, doc, nil)

	internal := 0
	for _, q := range doc.Quads() {
		if len(doc.QuadParents(q.ID)) == 2 {
			internal++
			way, ok := h.QuadWay(q.ID)
			assert.True(t, ok)
			assert.True(t, way)
		}
	}
	assert.Equal(t, 1, internal)
	assert.Equal(t, 45, m.NodeCount())
	assert.Equal(t, 44, m.FaceCount())
	assert.Equal(t, 16, m.VolumeCount())
	assert.Equal(t, 2, r.Hexas)
}

func TestVolumesArePositive(t *testing.T) {
	doc, _ := blocks(t, 2, 2)
	_, m, _ := compute(t, doc, nil)
	for _, v := range m.Volumes() {
		p := v.Nodes
		d := p[1].Coord.Sub(p[0].Coord).Cross(p[3].Coord.Sub(p[0].Coord)).Dot(p[4].Coord.Sub(p[0].Coord))
		if d <= 0 {
			t.Errorf("volume %d has non-positive orientation %v", v.ID, d)
		}
	}
}

func TestDimension(t *testing.T) {
	tests := []struct {
		dim                          int
		nodes, edges, faces, volumes int
	}{
		{0, 8, 0, 0, 0},
		{1, 20, 24, 0, 0},
		{2, 26, 24, 24, 0},
		{3, 27, 24, 24, 8},
	}
	for _, tt := range tests {
		doc, _ := blocks(t, 1, 1)
		m := mesh.New()
		_, r, err := Compute(doc, m, nil, Hypothesis{Dimension: tt.dim})
		require.NoError(t, err)
		assert.Equal(t, tt.dim, r.Dimension)
		if m.NodeCount() != tt.nodes || m.EdgeCount() != tt.edges || m.FaceCount() != tt.faces || m.VolumeCount() != tt.volumes {
			t.Errorf("dimension %d: %s", tt.dim, m.Summary())
		}
	}

	_, _, err := Compute(topology.New("x"), mesh.New(), nil, Hypothesis{Dimension: 4})
	assert.Error(t, err)
}

func TestComputeSettlesEdgeWays(t *testing.T) {
	doc, _ := blocks(t, 1, 1)
	bottom := doc.Quad(doc.Hexa(0).Quads[0])
	corners := doc.QuadVertices(bottom.ID)
	near, far := doc.Edge(bottom.Edges[0]), doc.Edge(bottom.Edges[2])
	// Point the far edge against the near one.
	far.Way = (near.First() == corners[0]) != (far.Vertices[0] == corners[3])

	h, _, err := Compute(doc, mesh.New(), nil, DefaultHypothesis())
	require.NoError(t, err)
	assert.Equal(t, near.First() == corners[0], far.First() == corners[3],
		"opposite edges of a quad are discretized the same way")

	first, _ := h.VertexNode(far.First())
	assert.Same(t, first, h.EdgeNodes(far.ID)[0])
}

func TestVertexPlacedOnce(t *testing.T) {
	doc, _ := blocks(t, 1, 0)
	h := New(doc, mesh.New(), nil)
	_, err := h.ComputeVertex(0)
	require.NoError(t, err)
	_, err = h.ComputeVertex(0)
	assert.True(t, errors.Is(err, ErrTopologyInvariant), "got %v", err)

	n, _ := h.VertexNode(0)
	v, ok := h.NodeVertex(n)
	assert.True(t, ok)
	assert.Equal(t, topology.VertexID(0), v)
}

func TestVertexAssociation(t *testing.T) {
	doc, g := blocks(t, 1, 0)
	moved := model3d.XYZ(-0.1, -0.1, -0.1)
	require.NoError(t, doc.AssociateVertex(g.Vertex(0, 0, 0), kernel.NewPoint(moved)))

	h, _, _ := compute(t, doc, facet.New())
	n, ok := h.VertexNode(g.Vertex(0, 0, 0))
	require.True(t, ok)
	assert.Equal(t, moved, n.Coord)

	_, _, err := Compute(doc, mesh.New(), nil, DefaultHypothesis())
	assert.True(t, errors.Is(err, ErrGeometryResolution), "got %v", err)
}

func TestCurvedEdge(t *testing.T) {
	doc, g := blocks(t, 1, 1)
	a, b := g.Vertex(0, 0, 1), g.Vertex(1, 0, 1)
	e, ok := doc.EdgeBetween(a, b)
	require.True(t, ok)
	arc := kernel.NewArc(model3d.XYZ(0.5, 0, 0.5), model3d.XYZ(0, 0, 1), model3d.XYZ(1, 0, 1))
	require.NoError(t, doc.AssociateEdge(e, arc, 0, 1))

	h, m, r := compute(t, doc, facet.New())
	assert.Equal(t, 1, r.EdgeStrategies[EdgeByAssociation])
	assert.Equal(t, 11, r.EdgeStrategies[EdgeBySegment])

	mid := h.EdgeNodes(e)[1].Coord
	want := model3d.XYZ(0.5, 0, 0.5+0.5*1.4142135623730951)
	assert.InDelta(t, 0, mid.Dist(want), 1e-9, "got %v", mid)
	assert.Equal(t, 8, m.VolumeCount())
}

func TestQuadProjection(t *testing.T) {
	doc, _ := blocks(t, 1, 1)
	top := topology.QuadID(1)
	require.NoError(t, doc.AssociateQuad(top, kernel.NewPlane(model3d.XYZ(0, 0, 1.2), model3d.Z(1))))

	h, _, r := compute(t, doc, facet.New())
	assert.Equal(t, 1, r.QuadStrategies[QuadByAssociation])
	assert.Equal(t, ProjectionStats{Total: 1, Found: 1, NotFound: 0}, r.Projections)

	center := h.QuadNodes(top)[1][1].Coord
	assert.InDelta(t, 0, center.Dist(model3d.XYZ(0.5, 0.5, 1.2)), 1e-9, "got %v", center)
}

func TestQuadProjectionMiss(t *testing.T) {
	doc, _ := blocks(t, 1, 1)
	top := topology.QuadID(1)
	// A vertical plane is parallel to the projection line of the top quad.
	require.NoError(t, doc.AssociateQuad(top, kernel.NewPlane(model3d.XYZ(5, 0, 0), model3d.X(1))))

	h, _, r := compute(t, doc, facet.New())
	assert.Equal(t, ProjectionStats{Total: 1, Found: 0, NotFound: 1}, r.Projections)
	assert.Equal(t, model3d.XYZ(0.5, 0.5, 1), h.QuadNodes(top)[1][1].Coord)
}

func TestQuadAssociationNeedsKernel(t *testing.T) {
	doc, _ := blocks(t, 1, 1)
	require.NoError(t, doc.AssociateQuad(1, kernel.NewPlane(model3d.XYZ(0, 0, 1), model3d.Z(1))))
	_, _, err := Compute(doc, mesh.New(), nil, DefaultHypothesis())
	assert.True(t, errors.Is(err, ErrGeometryResolution), "got %v", err)
}

func TestTooManyParents(t *testing.T) {
	doc, _ := blocks(t, 1, 1)
	quads := doc.Hexa(0).Quads
	for i := 0; i < 2; i++ {
		_, err := doc.AddHexa("dup", quads)
		require.NoError(t, err)
	}
	_, _, err := Compute(doc, mesh.New(), nil, DefaultHypothesis())
	assert.True(t, errors.Is(err, ErrTopologyInvariant), "got %v", err)
}

func TestInvalidLawAborts(t *testing.T) {
	doc, _ := blocks(t, 1, 3)
	law := doc.DefaultLaw()
	law.Kind = topology.Arithmetic
	law.Coefficient = 0.5
	_, _, err := Compute(doc, mesh.New(), nil, DefaultHypothesis())
	assert.True(t, errors.Is(err, ErrInvalidCoefficient), "got %v", err)
}

// panicFiller stands in for a skin filler that crashes.
type panicFiller struct{}

func (panicFiller) Fill(*topology.Document, fromskin.Skin, fromskin.Sink) (map[topology.HexaID][]*mesh.Element, error) {
	panic("boom")
}

// failFiller fails every block.
type failFiller struct{}

func (failFiller) Fill(doc *topology.Document, _ fromskin.Skin, _ fromskin.Sink) (map[topology.HexaID][]*mesh.Element, error) {
	var errs fromskin.Errors
	for _, h := range doc.UsedHexas() {
		errs = append(errs, &fromskin.HexaError{Hexa: h, Err: errors.New("no")})
	}
	return nil, errs
}

func TestHexaFailuresAreNotFatal(t *testing.T) {
	tests := []struct {
		name   string
		filler SkinFiller
		errs   int
	}{
		{"panic", panicFiller{}, 1},
		{"per block", failFiller{}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, g := blocks(t, 2, 1)
			doc.AddGroup("cells", topology.HexaCell, int(g.Hexa(0, 0, 0)), int(g.Hexa(1, 0, 0)))
			_, m, r := compute(t, doc, nil, WithSkinFiller(tt.filler))

			assert.Len(t, r.HexaErrors, tt.errs)
			assert.Equal(t, 0, m.VolumeCount())
			assert.Equal(t, 44, m.FaceCount(), "the skin is still meshed")

			cells := m.Group("cells")
			require.NotNil(t, cells)
			assert.Equal(t, 0, cells.Size())
			assert.Len(t, r.Warnings, 2)
		})
	}
}

func TestGroups(t *testing.T) {
	doc, g := blocks(t, 1, 1)
	h0 := g.Hexa(0, 0, 0)
	v0 := g.Vertex(0, 0, 0)
	e0 := doc.Edge(0).ID
	doc.AddGroup("block", topology.HexaCell, int(h0))
	doc.AddGroup("bottom", topology.QuadCell, 0)
	doc.AddGroup("wire", topology.EdgeCell, int(e0))
	doc.AddGroup("block-nodes", topology.HexaNode, int(h0))
	doc.AddGroup("bottom-nodes", topology.QuadNode, 0, 0)
	doc.AddGroup("wire-nodes", topology.EdgeNode, int(e0))
	doc.AddGroup("origin", topology.VertexNode, int(v0))

	_, m, r := compute(t, doc, nil)
	assert.Equal(t, 7, r.Groups)
	assert.Empty(t, r.Warnings)

	tests := []struct {
		name string
		typ  mesh.ElementType
		size int
	}{
		{"block", mesh.VolumeType, 8},
		{"bottom", mesh.FaceType, 4},
		{"wire", mesh.EdgeType, 2},
		{"block-nodes", mesh.NodeType, 27},
		{"bottom-nodes", mesh.NodeType, 9},
		{"wire-nodes", mesh.NodeType, 3},
		{"origin", mesh.NodeType, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grp := m.Group(tt.name)
			require.NotNil(t, grp)
			assert.Equal(t, tt.typ, grp.Type)
			assert.Equal(t, tt.size, grp.Size())
		})
	}
}

func TestReportString(t *testing.T) {
	doc, _ := blocks(t, 1, 0)
	_, _, r := compute(t, doc, nil)
	assert.Equal(t, "dim 3: 8 vertices, 12 edges (segment 12), 6 quads (linear 6), 1 hexas, 0 groups", r.String())
}

func TestRecomputeResetsMappings(t *testing.T) {
	doc, _ := blocks(t, 1, 1)
	m := mesh.New()
	h := New(doc, m, nil)
	_, err := h.ComputeDoc()
	require.NoError(t, err)
	first := h.EdgeNodes(0)

	r, err := h.ComputeDoc()
	require.NoError(t, err)
	assert.Equal(t, 12, r.Edges)
	assert.NotSame(t, first[1], h.EdgeNodes(0)[1])
}
