package mesher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/chazu/hexablock/pkg/topology"
	"github.com/sirupsen/logrus"
)

// Hypothesis carries the meshing parameters. Dimension selects the highest
// stage run: 0 places vertices only, 1 adds edges, 2 adds quads and 3 adds
// volumes. Groups are built in every case.
type Hypothesis struct {
	Dimension int `toml:"dimension"`
}

// DefaultHypothesis meshes up to volumes.
func DefaultHypothesis() Hypothesis {
	return Hypothesis{Dimension: 3}
}

// Validate checks the hypothesis.
func (hyp Hypothesis) Validate() error {
	if hyp.Dimension < 0 || hyp.Dimension > 3 {
		return fmt.Errorf("mesher: dimension %d out of range [0, 3]", hyp.Dimension)
	}
	return nil
}

// ProjectionStats counts interior quad nodes projected onto associated
// surfaces.
type ProjectionStats struct {
	Total    int
	Found    int
	NotFound int
}

// Report summarizes one computation.
type Report struct {
	Dimension int

	Vertices int
	Edges    int
	Quads    int
	Hexas    int
	Groups   int

	EdgeStrategies map[EdgeStrategy]int
	QuadStrategies map[QuadStrategy]int
	Projections    ProjectionStats

	// SkippedQuads have no resolved orientation and were not meshed.
	SkippedQuads []topology.QuadID

	// HexaErrors are the non-fatal block failures.
	HexaErrors []error

	Warnings []string
}

func newReport() *Report {
	return &Report{
		EdgeStrategies: make(map[EdgeStrategy]int),
		QuadStrategies: make(map[QuadStrategy]int),
	}
}

// String renders a one-line summary, for example
// "dim 3: 8 vertices, 12 edges (segment 12), 6 quads (linear 6), 1 hexas, 0 groups".
func (r *Report) String() string {
	return fmt.Sprintf("dim %d: %d vertices, %d edges%s, %d quads%s, %d hexas, %d groups",
		r.Dimension, r.Vertices,
		r.Edges, strategyCounts(r.EdgeStrategies),
		r.Quads, strategyCounts(r.QuadStrategies),
		r.Hexas, r.Groups)
}

func strategyCounts[K interface {
	comparable
	fmt.Stringer
}](m map[K]int) string {
	if len(m) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m))
	for k, n := range m {
		parts = append(parts, fmt.Sprintf("%s %d", k, n))
	}
	sort.Strings(parts)
	return " (" + strings.Join(parts, ", ") + ")"
}

// ComputeDoc meshes the whole document up to volumes.
func (h *HexaBlocks) ComputeDoc() (*Report, error) {
	return h.Compute(DefaultHypothesis())
}

// Compute runs the meshing stages selected by hyp. Any previous result held
// by h is discarded first; entities already written to the sink stay there.
// Propagations of the document are settled first, which may flip edge Way
// flags.
func (h *HexaBlocks) Compute(hyp Hypothesis) (*Report, error) {
	if err := hyp.Validate(); err != nil {
		return nil, err
	}
	h.reset()
	h.report.Dimension = hyp.Dimension
	log := h.log.WithField("document", h.doc.Name)

	// Settles edge Ways before any traversal.
	h.doc.Propagations()

	for _, v := range h.doc.UsedVertices() {
		if _, err := h.ComputeVertex(v); err != nil {
			return h.report, err
		}
	}
	log.WithField("vertices", h.report.Vertices).Debug("placed vertices")

	if hyp.Dimension >= 1 {
		if err := h.computeEdges(); err != nil {
			return h.report, err
		}
		log.WithField("edges", h.report.Edges).Debug("discretized edges")
	}

	if hyp.Dimension >= 2 {
		if err := h.ComputeQuadWays(); err != nil {
			return h.report, err
		}
		for _, q := range h.doc.UsedQuads() {
			way, ok := h.quadWays[q]
			if !ok {
				log.WithField("quad", q).Warn("quad orientation not found, skipping")
				h.report.SkippedQuads = append(h.report.SkippedQuads, q)
				continue
			}
			if _, err := h.ComputeQuad(q, way); err != nil {
				return h.report, err
			}
		}
		log.WithFields(logrus.Fields{
			"quads":       h.report.Quads,
			"projections": h.report.Projections.Total,
			"missed":      h.report.Projections.NotFound,
		}).Debug("meshed quads")
	}

	if hyp.Dimension >= 3 {
		h.ComputeHexas()
		log.WithFields(logrus.Fields{
			"hexas":  h.report.Hexas,
			"failed": len(h.report.HexaErrors),
		}).Debug("meshed hexas")
	}

	if err := h.BuildGroups(); err != nil {
		return h.report, err
	}
	return h.report, nil
}

// computeEdges discretizes the edges of every propagation under its law.
func (h *HexaBlocks) computeEdges() error {
	for _, p := range h.doc.Propagations() {
		law := h.doc.Law(p.Law)
		if p.Law == topology.NoLaw || law == nil {
			law = h.doc.DefaultLaw()
		}
		for _, e := range p.Edges {
			if _, err := h.ComputeEdge(e, law); err != nil {
				return err
			}
		}
	}
	return nil
}

// Compute meshes doc into sink with a fresh HexaBlocks. Like
// HexaBlocks.Compute, it may settle the edge Way flags of doc.
func Compute(doc *topology.Document, sink Sink, k kernel.Kernel, hyp Hypothesis, opts ...Option) (*HexaBlocks, *Report, error) {
	h := New(doc, sink, k, opts...)
	r, err := h.Compute(hyp)
	return h, r, err
}
