// Package mesher turns a block topology into a structured hexahedral mesh.
//
// Vertices are placed first, then every propagation's edges are discretized
// under its law, quads are filled with Coons patches projected onto their
// associated surfaces, blocks are filled from their skin and finally user
// groups are materialized. HexaBlocks holds the mapping from each topology
// element to the mesh entities it produced.
package mesher

import (
	"io"

	"github.com/chazu/hexablock/pkg/fromskin"
	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/chazu/hexablock/pkg/mesh"
	"github.com/chazu/hexablock/pkg/topology"
	"github.com/sirupsen/logrus"
	"github.com/unixpickle/model3d/model3d"
)

// DefaultTolerance is the distance under which two curve endpoints are
// considered coincident when chaining associations.
const DefaultTolerance = 1e-3

// Sink receives the mesh entities. *mesh.Mesh is the usual implementation.
type Sink interface {
	AddNode(c model3d.Coord3D) *mesh.Node
	AddEdge(a, b *mesh.Node) *mesh.Element
	AddFace(a, b, c, d *mesh.Node) *mesh.Element
	AddVolume(n [8]*mesh.Node) *mesh.Element
	AddGroup(name string, t mesh.ElementType) *mesh.Group
}

var _ Sink = (*mesh.Mesh)(nil)

// SkinFiller builds the volume elements of every used block from the nodes
// already placed on its skin. A non-nil error may accompany a partial
// result; blocks missing from the result are treated as unmeshed.
type SkinFiller interface {
	Fill(doc *topology.Document, skin fromskin.Skin, sink fromskin.Sink) (map[topology.HexaID][]*mesh.Element, error)
}

var (
	_ SkinFiller    = (*fromskin.Filler)(nil)
	_ fromskin.Skin = (*HexaBlocks)(nil)
)

// Option configures HexaBlocks.
type Option func(*HexaBlocks)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *HexaBlocks) { h.log = l }
}

// WithSkinFiller replaces the block filler.
func WithSkinFiller(f SkinFiller) Option {
	return func(h *HexaBlocks) { h.filler = f }
}

// WithTolerance sets the endpoint coincidence tolerance used when chaining
// curve associations.
func WithTolerance(tol float64) Option {
	return func(h *HexaBlocks) { h.tol = tol }
}

// HexaBlocks meshes one document into one sink.
type HexaBlocks struct {
	doc    *topology.Document
	sink   Sink
	kernel kernel.Kernel
	filler SkinFiller
	log    logrus.FieldLogger
	tol    float64

	node          map[topology.VertexID]*mesh.Node
	vertex        map[int]topology.VertexID
	nodesOnEdge   map[topology.EdgeID][]*mesh.Node
	edgesOnEdge   map[topology.EdgeID][]*mesh.Element
	nodeParameter map[int]float64
	nodesOnQuad   map[topology.QuadID][][]*mesh.Node
	facesOnQuad   map[topology.QuadID][]*mesh.Element
	volumesOnHexa map[topology.HexaID][]*mesh.Element
	quadWays      map[topology.QuadID]bool

	report *Report
}

// New creates a mesher for doc writing into sink. k resolves associations
// and may be nil when the document has none.
func New(doc *topology.Document, sink Sink, k kernel.Kernel, opts ...Option) *HexaBlocks {
	discard := logrus.New()
	discard.Out = io.Discard
	h := &HexaBlocks{
		doc:    doc,
		sink:   sink,
		kernel: k,
		log:    discard,
		tol:    DefaultTolerance,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.filler == nil {
		h.filler = fromskin.New(fromskin.WithLogger(h.log))
	}
	h.reset()
	return h
}

func (h *HexaBlocks) reset() {
	h.node = make(map[topology.VertexID]*mesh.Node)
	h.vertex = make(map[int]topology.VertexID)
	h.nodesOnEdge = make(map[topology.EdgeID][]*mesh.Node)
	h.edgesOnEdge = make(map[topology.EdgeID][]*mesh.Element)
	h.nodeParameter = make(map[int]float64)
	h.nodesOnQuad = make(map[topology.QuadID][][]*mesh.Node)
	h.facesOnQuad = make(map[topology.QuadID][]*mesh.Element)
	h.volumesOnHexa = make(map[topology.HexaID][]*mesh.Element)
	h.quadWays = make(map[topology.QuadID]bool)
	h.report = newReport()
}

// ---------------------------------------------------------------------------
// Element mappings
// ---------------------------------------------------------------------------

// VertexNode returns the node placed for v.
func (h *HexaBlocks) VertexNode(v topology.VertexID) (*mesh.Node, bool) {
	n, ok := h.node[v]
	return n, ok
}

// NodeVertex returns the vertex a node was placed for.
func (h *HexaBlocks) NodeVertex(n *mesh.Node) (topology.VertexID, bool) {
	v, ok := h.vertex[n.ID]
	return v, ok
}

// EdgeNodes returns the nodes of e in traversal order, endpoints included.
func (h *HexaBlocks) EdgeNodes(e topology.EdgeID) []*mesh.Node {
	return h.nodesOnEdge[e]
}

// EdgeElements returns the mesh edges of e in traversal order.
func (h *HexaBlocks) EdgeElements(e topology.EdgeID) []*mesh.Element {
	return h.edgesOnEdge[e]
}

// NodeParameter returns the law position of an interior edge node.
func (h *HexaBlocks) NodeParameter(n *mesh.Node) (float64, bool) {
	u, ok := h.nodeParameter[n.ID]
	return u, ok
}

// QuadNodes returns the node grid of q indexed [i][j], where i runs along
// the quad's first edge.
func (h *HexaBlocks) QuadNodes(q topology.QuadID) [][]*mesh.Node {
	return h.nodesOnQuad[q]
}

// QuadFaces returns the faces of q.
func (h *HexaBlocks) QuadFaces(q topology.QuadID) []*mesh.Element {
	return h.facesOnQuad[q]
}

// QuadWay returns the resolved orientation of q.
func (h *HexaBlocks) QuadWay(q topology.QuadID) (way, ok bool) {
	way, ok = h.quadWays[q]
	return way, ok
}

// HexaVolumes returns the volumes of a block.
func (h *HexaBlocks) HexaVolumes(x topology.HexaID) []*mesh.Element {
	return h.volumesOnHexa[x]
}

// Report returns the statistics of the last computation.
func (h *HexaBlocks) Report() *Report {
	return h.report
}
