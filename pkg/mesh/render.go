package mesh

// RenderMesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type RenderMesh struct {
	Vertices []float32 `json:"vertices"`  // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`   // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`   // [i0,i1,i2, ...] triangles
	Group    string    `json:"groupName"` // which face group this came from
}

// VertexCount returns the number of vertices.
func (m *RenderMesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *RenderMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *RenderMesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Render returns flat buffers for all faces, followed by one buffer per
// face group.
func (m *Mesh) Render() []*RenderMesh {
	out := []*RenderMesh{renderFaces("", m.faces)}
	for _, g := range m.groups {
		if g.Type == FaceType {
			out = append(out, renderFaces(g.Name, g.elements))
		}
	}
	return out
}

func renderFaces(name string, faces []*Element) *RenderMesh {
	tris := facesToTriangles(faces)
	numVerts := len(tris) * 3
	rm := &RenderMesh{
		Vertices: make([]float32, 0, numVerts*3),
		Normals:  make([]float32, 0, numVerts*3),
		Indices:  make([]uint32, 0, numVerts),
		Group:    name,
	}
	for i, tri := range tris {
		// Face normal; degenerate triangles get a zero normal.
		var nx, ny, nz float32
		if c := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0])); c.Norm() > 0 {
			n := c.Normalize()
			nx, ny, nz = float32(n.X), float32(n.Y), float32(n.Z)
		}
		for j := 0; j < 3; j++ {
			v := tri[j]
			rm.Vertices = append(rm.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			rm.Normals = append(rm.Normals, nx, ny, nz)
			rm.Indices = append(rm.Indices, uint32(i*3+j))
		}
	}
	return rm
}
