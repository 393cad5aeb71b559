package topology

import (
	"fmt"

	"github.com/unixpickle/model3d/model3d"
)

// Grid is a structured block of hexahedra created by MakeCartesian.
type Grid struct {
	NI, NJ, NK int
	Vertices   []VertexID // (NI+1)*(NJ+1)*(NK+1), i fastest
	Hexas      []HexaID   // NI*NJ*NK, i fastest
}

// Vertex returns the lattice vertex at (i, j, k).
func (g *Grid) Vertex(i, j, k int) VertexID {
	return g.Vertices[i+(g.NI+1)*(j+(g.NJ+1)*k)]
}

// Hexa returns the block at cell (i, j, k).
func (g *Grid) Hexa(i, j, k int) HexaID {
	return g.Hexas[i+g.NI*(j+g.NJ*k)]
}

// MakeCartesian creates an ni x nj x nk block of hexahedra starting at
// origin, each block measuring step. Adjacent blocks share their faces.
func (d *Document) MakeCartesian(name string, origin, step model3d.Coord3D, ni, nj, nk int) (*Grid, error) {
	if ni < 1 || nj < 1 || nk < 1 {
		return nil, fmt.Errorf("topology: cartesian %q: block counts must be positive, got %dx%dx%d", name, ni, nj, nk)
	}
	g := &Grid{NI: ni, NJ: nj, NK: nk}
	for k := 0; k <= nk; k++ {
		for j := 0; j <= nj; j++ {
			for i := 0; i <= ni; i++ {
				p := origin.Add(model3d.XYZ(float64(i)*step.X, float64(j)*step.Y, float64(k)*step.Z))
				vname := ""
				if name != "" {
					vname = fmt.Sprintf("%s_v%d_%d_%d", name, i, j, k)
				}
				g.Vertices = append(g.Vertices, d.AddVertex(vname, p.X, p.Y, p.Z))
			}
		}
	}
	for k := 0; k < nk; k++ {
		for j := 0; j < nj; j++ {
			for i := 0; i < ni; i++ {
				corners := [8]VertexID{
					g.Vertex(i, j, k), g.Vertex(i+1, j, k), g.Vertex(i+1, j+1, k), g.Vertex(i, j+1, k),
					g.Vertex(i, j, k+1), g.Vertex(i+1, j, k+1), g.Vertex(i+1, j+1, k+1), g.Vertex(i, j+1, k+1),
				}
				hname := ""
				if name != "" {
					hname = fmt.Sprintf("%s_h%d_%d_%d", name, i, j, k)
				}
				h, err := d.AddHexaVertices(hname, corners)
				if err != nil {
					return nil, err
				}
				g.Hexas = append(g.Hexas, h)
			}
		}
	}
	return g, nil
}
