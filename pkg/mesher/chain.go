package mesher

import (
	"fmt"

	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/chazu/hexablock/pkg/topology"
	"github.com/unixpickle/model3d/model3d"
)

// subCurve is the portion of an associated curve lying on an edge.
type subCurve struct {
	curve      kernel.Curve
	startParam float64
	endParam   float64
	start, end model3d.Coord3D
	length     float64

	// reversed is set when the chain walks the sub-curve from end to start.
	reversed bool
}

// curveChain is an ordered run of sub-curves walked from the edge's first
// node to its last.
type curveChain struct {
	subs   []subCurve
	length float64
}

// buildChain resolves the curve associations of e and orders them so the
// chain runs from start to end.
func (h *HexaBlocks) buildChain(e *topology.Edge, start, end model3d.Coord3D) (*curveChain, error) {
	if len(e.Associations) == 0 {
		return nil, fmt.Errorf("mesher: edge %d: %w", e.ID, ErrNotAssociated)
	}
	if h.kernel == nil {
		return nil, fmt.Errorf("mesher: edge %d: no kernel to resolve associations: %w", e.ID, ErrGeometryResolution)
	}

	var subs []subCurve
	for i, assoc := range e.Associations {
		c, err := h.kernel.Curve(assoc.Shape)
		if err != nil {
			return nil, fmt.Errorf("mesher: edge %d association %d: %v: %w", e.ID, i, err, ErrGeometryResolution)
		}
		total := c.Length()
		if total <= 0 {
			continue
		}
		lo, _ := c.Bounds()
		uStart, err := c.ParameterAt(lo, total*assoc.Start)
		if err != nil {
			return nil, fmt.Errorf("mesher: edge %d association %d: %v: %w", e.ID, i, err, ErrGeometryResolution)
		}
		uEnd, err := c.ParameterAt(lo, total*assoc.End)
		if err != nil {
			return nil, fmt.Errorf("mesher: edge %d association %d: %v: %w", e.ID, i, err, ErrGeometryResolution)
		}
		length := total * (assoc.End - assoc.Start)
		if length <= 0 {
			continue
		}
		subs = append(subs, subCurve{
			curve:      c,
			startParam: uStart,
			endParam:   uEnd,
			start:      c.Value(uStart),
			end:        c.Value(uEnd),
			length:     length,
		})
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("mesher: edge %d: no curve of positive length: %w", e.ID, ErrNotAssociated)
	}

	near := func(a, b model3d.Coord3D) bool { return a.Dist(b) <= h.tol }

	// The first stored sub-curve touches one end of the edge; that end
	// decides whether storage order runs with the edge or against it.
	var backward bool
	first := &subs[0]
	switch {
	case near(first.start, start):
	case near(first.end, start):
		first.reversed = true
	case near(first.end, end):
		backward = true
	case near(first.start, end):
		backward = true
		first.reversed = true
	default:
		return nil, fmt.Errorf("mesher: edge %d: first curve touches neither endpoint: %w", e.ID, ErrInconsistentAssociation)
	}

	for i := 1; i < len(subs); i++ {
		prev, cur := &subs[i-1], &subs[i]
		if !backward {
			// Walked after prev: cur must enter where prev exits.
			exit := prev.end
			if prev.reversed {
				exit = prev.start
			}
			switch {
			case near(cur.start, exit):
			case near(cur.end, exit):
				cur.reversed = true
			default:
				return nil, fmt.Errorf("mesher: edge %d: curve %d does not continue curve %d: %w", e.ID, i, i-1, ErrInconsistentAssociation)
			}
		} else {
			// Walked before prev: cur must exit where prev enters.
			entry := prev.start
			if prev.reversed {
				entry = prev.end
			}
			switch {
			case near(cur.end, entry):
			case near(cur.start, entry):
				cur.reversed = true
			default:
				return nil, fmt.Errorf("mesher: edge %d: curve %d does not continue curve %d: %w", e.ID, i, i-1, ErrInconsistentAssociation)
			}
		}
	}

	// The chain must also reach the end it did not start from.
	last := subs[len(subs)-1]
	reach, want := last.end, end
	if last.reversed {
		reach = last.start
	}
	if backward {
		// Stored last, walked first: it enters at the edge's start.
		reach, want = last.start, start
		if last.reversed {
			reach = last.end
		}
	}
	if !near(reach, want) {
		return nil, fmt.Errorf("mesher: edge %d: curves stop short of the edge's end: %w", e.ID, ErrInconsistentAssociation)
	}

	if backward {
		for i, j := 0, len(subs)-1; i < j; i, j = i+1, j-1 {
			subs[i], subs[j] = subs[j], subs[i]
		}
	}

	ch := &curveChain{subs: subs}
	for _, s := range subs {
		ch.length += s.length
	}
	return ch, nil
}

// walker evaluates points at increasing arc lengths along a chain.
type walker struct {
	chain  *curveChain
	idx    int
	offset float64
}

// at returns the chain point at arc length s. Successive calls must not
// decrease s.
func (w *walker) at(s float64) (model3d.Coord3D, error) {
	subs := w.chain.subs
	for w.idx < len(subs)-1 && s > w.offset+subs[w.idx].length {
		w.offset += subs[w.idx].length
		w.idx++
	}
	sub := subs[w.idx]
	local := s - w.offset
	if local > sub.length {
		local = sub.length
	}
	if local < 0 {
		local = 0
	}
	if sub.reversed {
		local = sub.length - local
	}
	u, err := sub.curve.ParameterAt(sub.startParam, local)
	if err != nil {
		return model3d.Coord3D{}, err
	}
	return sub.curve.Value(u), nil
}
