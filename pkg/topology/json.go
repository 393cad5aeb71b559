package topology

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// documentJSON is the persisted form of a Document. Derived adjacency is
// not stored; ReadJSON rebuilds it through the builder.
type documentJSON struct {
	Name         string         `json:"name"`
	Vertices     []*Vertex      `json:"vertices"`
	Edges        []*Edge        `json:"edges"`
	Quads        []*Quad        `json:"quads"`
	Hexas        []*Hexa        `json:"hexas"`
	Laws         []*Law         `json:"laws"`
	Propagations []*Propagation `json:"propagations,omitempty"`
	Groups       []*Group       `json:"groups,omitempty"`
}

// WriteJSON writes the document as indented JSON.
func (d *Document) WriteJSON(w io.Writer) error {
	out := documentJSON{
		Name:         d.Name,
		Vertices:     d.vertices,
		Edges:        d.edges,
		Quads:        d.quads,
		Hexas:        d.hexas,
		Laws:         d.laws,
		Propagations: d.Propagations(),
		Groups:       d.groups,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(out), "write document")
}

// ReadJSON reads a document written by WriteJSON.
func ReadJSON(r io.Reader) (*Document, error) {
	var in documentJSON
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, errors.Wrap(err, "read document")
	}
	d := New(in.Name)
	for i, v := range in.Vertices {
		if int(v.ID) != i {
			return nil, fmt.Errorf("topology: read document: vertex %d stored at index %d", v.ID, i)
		}
		d.AddVertex(v.Name, v.Point.X, v.Point.Y, v.Point.Z)
		d.vertices[i].Association = v.Association
	}
	for i, e := range in.Edges {
		if int(e.ID) != i {
			return nil, fmt.Errorf("topology: read document: edge %d stored at index %d", e.ID, i)
		}
		if _, err := d.AddEdge(e.Name, e.Vertices[0], e.Vertices[1]); err != nil {
			return nil, err
		}
		d.edges[i].Associations = e.Associations
	}
	for i, q := range in.Quads {
		if int(q.ID) != i {
			return nil, fmt.Errorf("topology: read document: quad %d stored at index %d", q.ID, i)
		}
		if _, err := d.AddQuad(q.Name, q.Edges[0], q.Edges[1], q.Edges[2], q.Edges[3]); err != nil {
			return nil, err
		}
		d.quads[i].Associations = q.Associations
	}
	for i, h := range in.Hexas {
		if int(h.ID) != i {
			return nil, fmt.Errorf("topology: read document: hexa %d stored at index %d", h.ID, i)
		}
		if _, err := d.AddHexa(h.Name, h.Quads); err != nil {
			return nil, err
		}
	}
	for i, l := range in.Laws {
		if int(l.ID) != i {
			return nil, fmt.Errorf("topology: read document: law %d stored at index %d", l.ID, i)
		}
		if i == int(DefaultLawID) {
			*d.laws[0] = *l
			continue
		}
		d.AddLaw(l.Name, l.Nodes, l.Kind, l.Coefficient)
	}
	for _, g := range in.Groups {
		d.AddGroup(g.Name, g.Kind, g.Elements...)
	}

	// Restore stored propagations and edge directions as they were.
	d.ComputePropagations()
	for _, p := range in.Propagations {
		if p.Law == NoLaw {
			continue
		}
		for _, e := range p.Edges {
			if pid, ok := d.edgePropagation[e]; ok {
				d.propagations[pid].Law = p.Law
			}
		}
	}
	for i, e := range in.Edges {
		d.edges[i].Way = e.Way
	}
	return d, nil
}
