package topology

import (
	"fmt"
	"strings"
)

// VertexID identifies a vertex within a Document.
type VertexID int

// EdgeID identifies an edge within a Document.
type EdgeID int

// QuadID identifies a quad within a Document.
type QuadID int

// HexaID identifies a hexahedron within a Document.
type HexaID int

// LawID identifies a discretization law within a Document.
type LawID int

// PropagationID identifies a propagation within a Document.
type PropagationID int

// GroupID identifies a group within a Document.
type GroupID int

// NoLaw marks a propagation that uses the document default law.
const NoLaw LawID = -1

// DefaultLawID is the law every document is created with.
const DefaultLawID LawID = 0

// KindLaw selects the node distribution of a law.
type KindLaw int

const (
	Uniform    KindLaw = iota // evenly spaced nodes
	Arithmetic                // step grows by a constant
	Geometric                 // step grows by a constant ratio
)

func (k KindLaw) String() string {
	switch k {
	case Uniform:
		return "uniform"
	case Arithmetic:
		return "arithmetic"
	case Geometric:
		return "geometric"
	default:
		return fmt.Sprintf("KindLaw(%d)", int(k))
	}
}

// ParseKindLaw converts a law kind name to a KindLaw.
func ParseKindLaw(s string) (KindLaw, error) {
	switch strings.ToLower(s) {
	case "uniform":
		return Uniform, nil
	case "arithmetic":
		return Arithmetic, nil
	case "geometric":
		return Geometric, nil
	default:
		return 0, fmt.Errorf("topology: unknown law kind %q", s)
	}
}

// GroupKind is the element kind collected by a group.
type GroupKind int

const (
	HexaCell   GroupKind = iota // volumes of hexahedra
	QuadCell                    // faces of quads
	EdgeCell                    // mesh edges of edges
	HexaNode                    // nodes of hexahedra
	QuadNode                    // nodes of quads
	EdgeNode                    // nodes of edges
	VertexNode                  // nodes of vertices
)

func (k GroupKind) String() string {
	switch k {
	case HexaCell:
		return "hexa-cell"
	case QuadCell:
		return "quad-cell"
	case EdgeCell:
		return "edge-cell"
	case HexaNode:
		return "hexa-node"
	case QuadNode:
		return "quad-node"
	case EdgeNode:
		return "edge-node"
	case VertexNode:
		return "vertex-node"
	default:
		return fmt.Sprintf("GroupKind(%d)", int(k))
	}
}

// ParseGroupKind converts a group kind name such as "quad-cell" to a
// GroupKind. Underscores are accepted in place of dashes.
func ParseGroupKind(s string) (GroupKind, error) {
	name := strings.ReplaceAll(strings.ToLower(s), "_", "-")
	for k := HexaCell; k <= VertexNode; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("topology: unknown group kind %q", s)
}

// ElementKind returns the kind of topology element a group of this kind
// references.
func (k GroupKind) ElementKind() ElementKind {
	switch k {
	case HexaCell, HexaNode:
		return ElementHexa
	case QuadCell, QuadNode:
		return ElementQuad
	case EdgeCell, EdgeNode:
		return ElementEdge
	default:
		return ElementVertex
	}
}

// IsNode reports whether the group collects nodes rather than cells.
func (k GroupKind) IsNode() bool {
	return k >= HexaNode
}

// ElementKind enumerates the entities of a Document.
type ElementKind int

const (
	ElementDocument ElementKind = iota
	ElementVertex
	ElementEdge
	ElementQuad
	ElementHexa
	ElementLaw
	ElementPropagation
	ElementGroup
)

func (k ElementKind) String() string {
	switch k {
	case ElementDocument:
		return "document"
	case ElementVertex:
		return "vertex"
	case ElementEdge:
		return "edge"
	case ElementQuad:
		return "quad"
	case ElementHexa:
		return "hexa"
	case ElementLaw:
		return "law"
	case ElementPropagation:
		return "propagation"
	case ElementGroup:
		return "group"
	default:
		return "unknown"
	}
}

// ElementRef points at one entity of a Document.
type ElementRef struct {
	Kind ElementKind
	ID   int
}

// IsZero reports whether the reference points at the document itself.
func (r ElementRef) IsZero() bool {
	return r.Kind == ElementDocument
}

func (r ElementRef) String() string {
	if r.IsZero() {
		return "document"
	}
	return fmt.Sprintf("%s %d", r.Kind, r.ID)
}

// Ref helpers.
func VertexRef(id VertexID) ElementRef { return ElementRef{ElementVertex, int(id)} }
func EdgeRef(id EdgeID) ElementRef     { return ElementRef{ElementEdge, int(id)} }
func QuadRef(id QuadID) ElementRef     { return ElementRef{ElementQuad, int(id)} }
func HexaRef(id HexaID) ElementRef     { return ElementRef{ElementHexa, int(id)} }
func LawRef(id LawID) ElementRef       { return ElementRef{ElementLaw, int(id)} }
func GroupRef(id GroupID) ElementRef   { return ElementRef{ElementGroup, int(id)} }
