package mesh

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// Gmsh 2.2 element type codes.
const (
	gmshLine  = 1
	gmshQuad  = 3
	gmshHexa  = 5
	gmshPoint = 15
)

// Triangles splits every face into two triangles following its winding.
func (m *Mesh) Triangles() []*model3d.Triangle {
	return facesToTriangles(m.faces)
}

func facesToTriangles(faces []*Element) []*model3d.Triangle {
	tris := make([]*model3d.Triangle, 0, 2*len(faces))
	for _, f := range faces {
		a, b, c, d := f.Nodes[0].Coord, f.Nodes[1].Coord, f.Nodes[2].Coord, f.Nodes[3].Coord
		tris = append(tris, &model3d.Triangle{a, b, c}, &model3d.Triangle{a, c, d})
	}
	return tris
}

// WriteSTL writes the faces as a binary STL.
func (m *Mesh) WriteSTL(w io.Writer) error {
	return errors.Wrap(model3d.WriteSTL(w, m.Triangles()), "write stl")
}

// WriteGmsh writes the mesh in ASCII gmsh 2.2 format. Each group becomes a
// physical group; an element takes the tag of the first group holding it.
// Node groups are written as point elements.
func (m *Mesh) WriteGmsh(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "$MeshFormat")
	fmt.Fprintln(bw, "2.2 0 8")
	fmt.Fprintln(bw, "$EndMeshFormat")

	physical := make(map[*Element]int)
	if len(m.groups) > 0 {
		fmt.Fprintln(bw, "$PhysicalNames")
		fmt.Fprintln(bw, len(m.groups))
		for i, g := range m.groups {
			fmt.Fprintf(bw, "%d %d %q\n", gmshDimension(g.Type), i+1, g.Name)
			for _, e := range g.elements {
				if _, ok := physical[e]; !ok {
					physical[e] = i + 1
				}
			}
		}
		fmt.Fprintln(bw, "$EndPhysicalNames")
	}

	fmt.Fprintln(bw, "$Nodes")
	fmt.Fprintln(bw, len(m.nodes))
	for _, n := range m.nodes {
		fmt.Fprintf(bw, "%d %.17g %.17g %.17g\n", n.ID, n.Coord.X, n.Coord.Y, n.Coord.Z)
	}
	fmt.Fprintln(bw, "$EndNodes")

	points := 0
	for _, g := range m.groups {
		points += len(g.nodes)
	}
	fmt.Fprintln(bw, "$Elements")
	fmt.Fprintln(bw, points+len(m.edges)+len(m.faces)+len(m.volumes))
	id := 0
	for i, g := range m.groups {
		for _, n := range g.nodes {
			id++
			fmt.Fprintf(bw, "%d %d 2 %d %d %d\n", id, gmshPoint, i+1, i+1, n.ID)
		}
	}
	for _, set := range []struct {
		code  int
		elems []*Element
	}{
		{gmshLine, m.edges},
		{gmshQuad, m.faces},
		{gmshHexa, m.volumes},
	} {
		for _, e := range set.elems {
			id++
			tag := physical[e]
			fmt.Fprintf(bw, "%d %d 2 %d %d", id, set.code, tag, tag)
			for _, n := range e.Nodes {
				fmt.Fprintf(bw, " %d", n.ID)
			}
			fmt.Fprintln(bw)
		}
	}
	fmt.Fprintln(bw, "$EndElements")

	return errors.Wrap(bw.Flush(), "write gmsh")
}

func gmshDimension(t ElementType) int {
	switch t {
	case EdgeType:
		return 1
	case FaceType:
		return 2
	case VolumeType:
		return 3
	default:
		return 0
	}
}
