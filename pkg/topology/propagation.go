package topology

import "fmt"

// Propagations returns the classes of topologically parallel used edges,
// recomputing them when the topology changed since the last call.
func (d *Document) Propagations() []*Propagation {
	if d.propDirty {
		d.ComputePropagations()
	}
	return d.propagations
}

// PropagationOf returns the propagation holding e.
func (d *Document) PropagationOf(e EdgeID) (PropagationID, bool) {
	if d.propDirty {
		d.ComputePropagations()
	}
	p, ok := d.edgePropagation[e]
	return p, ok
}

// SetPropagationLaw assigns a law to a propagation.
func (d *Document) SetPropagationLaw(p PropagationID, law LawID) error {
	props := d.Propagations()
	if p < 0 || int(p) >= len(props) {
		return fmt.Errorf("topology: propagation %d does not exist", p)
	}
	if d.Law(law) == nil {
		return fmt.Errorf("topology: law %d does not exist", law)
	}
	props[p].Law = law
	return nil
}

// SetEdgeLaw assigns a law to the propagation holding e.
func (d *Document) SetEdgeLaw(e EdgeID, law LawID) error {
	p, ok := d.PropagationOf(e)
	if !ok {
		return fmt.Errorf("topology: edge %d is not used by any quad", e)
	}
	return d.SetPropagationLaw(p, law)
}

// ComputePropagations partitions the used edges into classes of parallel
// edges: the two pairs of opposite edges of every used quad are merged.
// Classes are ordered by their smallest edge id. A class keeps the law of
// the previous propagation that held its smallest edge with a law.
//
// Edge Way flags are oriented inside each class so that opposite edges of
// a quad are discretized in the same direction. The smallest edge of a
// class keeps its flag; an edge reached a second time keeps the first
// orientation.
func (d *Document) ComputePropagations() {
	previous := make(map[EdgeID]LawID)
	for _, p := range d.propagations {
		for _, e := range p.Edges {
			previous[e] = p.Law
		}
	}

	used := d.UsedEdges()
	parent := make(map[EdgeID]EdgeID, len(used))
	for _, e := range used {
		parent[e] = e
	}
	var find func(EdgeID) EdgeID
	find = func(e EdgeID) EdgeID {
		for parent[e] != e {
			parent[e] = parent[parent[e]]
			e = parent[e]
		}
		return e
	}
	union := func(a, b EdgeID) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra < rb {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}
	usedQuads := d.UsedQuads()
	for _, q := range usedQuads {
		edges := d.quads[q].Edges
		union(edges[0], edges[2])
		union(edges[1], edges[3])
	}

	classes := make(map[EdgeID][]EdgeID)
	var roots []EdgeID
	for _, e := range used {
		r := find(e)
		if _, ok := classes[r]; !ok {
			roots = append(roots, r)
		}
		classes[r] = append(classes[r], e)
	}

	d.propagations = d.propagations[:0]
	d.edgePropagation = make(map[EdgeID]PropagationID, len(used))
	for _, r := range roots {
		id := PropagationID(len(d.propagations))
		law := NoLaw
		for _, e := range classes[r] {
			if l, ok := previous[e]; ok && l != NoLaw {
				law = l
				break
			}
		}
		d.propagations = append(d.propagations, &Propagation{ID: id, Edges: classes[r], Law: law})
		for _, e := range classes[r] {
			d.edgePropagation[e] = id
		}
	}
	d.orientPropagations(usedQuads)
	d.propDirty = false
}

// orientPropagations walks each class breadth first from its smallest edge
// across quads, copying the traversal direction to the opposite edge.
func (d *Document) orientPropagations(usedQuads []QuadID) {
	isUsed := make(map[QuadID]bool, len(usedQuads))
	for _, q := range usedQuads {
		isUsed[q] = true
	}
	visited := make(map[EdgeID]bool)
	for _, p := range d.propagations {
		queue := []EdgeID{p.Edges[0]}
		visited[p.Edges[0]] = true
		for len(queue) > 0 {
			e := queue[0]
			queue = queue[1:]
			edge := d.edges[e]
			for _, q := range d.edgeQuads[e] {
				if !isUsed[q] {
					continue
				}
				quad := d.quads[q]
				idx := -1
				for i, qe := range quad.Edges {
					if qe == e {
						idx = i
						break
					}
				}
				opp := quad.Edges[(idx+2)%4]
				if visited[opp] {
					continue
				}
				// Edge idx joins corners idx and idx+1; the opposite edge
				// joins idx+3 and idx+2 running the same way.
				corners := quad.vertices
				from := corners[(idx+3)%4]
				if edge.First() != corners[idx] {
					from = corners[(idx+2)%4]
				}
				other := d.edges[opp]
				other.Way = other.Vertices[0] == from
				visited[opp] = true
				queue = append(queue, opp)
			}
		}
	}
}
