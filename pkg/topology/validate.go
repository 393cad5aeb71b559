package topology

import (
	"fmt"
	"math"

	"github.com/chazu/hexablock/pkg/kernel"
)

// ValidationSeverity indicates whether a validation finding blocks meshing
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks meshing
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Element  ElementRef         // which element has the problem (zero if document-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Element.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Element, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Element ElementRef
	Message string
}

func (w ValidationWarning) String() string {
	if w.Element.IsZero() {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Element, w.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no blocking error was found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs all Tier 1 structural checks on the document and returns
// the findings. An empty slice means the topology is sound. This function
// is read-only and never mutates the document.
func Validate(d *Document) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateEdges(d)...)
	errs = append(errs, validateHexas(d)...)
	errs = append(errs, validateParents(d)...)
	errs = append(errs, validateGroups(d)...)
	errs = append(errs, validateNames(d)...)
	return errs
}

// ValidateAll runs all validation tiers (structural, discretization, usage)
// and returns a ValidationResult with separated errors and warnings.
func ValidateAll(d *Document) ValidationResult {
	// Tier 1: structural validation.
	tier1 := Validate(d)

	// Tier 2: discretization and associations.
	tier2 := validateDiscretization(d)

	// Tier 3: usage warnings.
	tier3 := validateUsage(d)

	var result ValidationResult
	for _, e := range append(tier1, tier2...) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{Element: e.Element, Message: e.Message})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	result.Warnings = append(result.Warnings, tier3...)
	return result
}

func errorf(ref ElementRef, format string, args ...interface{}) ValidationError {
	return ValidationError{Element: ref, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func warnf(ref ElementRef, format string, args ...interface{}) ValidationError {
	return ValidationError{Element: ref, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

// ---------------------------------------------------------------------------
// Tier 1
// ---------------------------------------------------------------------------

func validateEdges(d *Document) []ValidationError {
	var errs []ValidationError
	for _, e := range d.edges {
		if e.Vertices[0] == e.Vertices[1] {
			errs = append(errs, errorf(EdgeRef(e.ID), "degenerate edge: both ends are vertex %d", e.Vertices[0]))
		}
	}
	return errs
}

// validateHexas checks that the six quads of every hexahedron close it:
// six distinct quads, twelve distinct edges each bounding exactly two of
// the quads, and eight distinct corners.
func validateHexas(d *Document) []ValidationError {
	var errs []ValidationError
	for _, h := range d.hexas {
		ref := HexaRef(h.ID)
		quads := make(map[QuadID]bool, 6)
		for _, q := range h.Quads {
			quads[q] = true
		}
		if len(quads) != 6 {
			errs = append(errs, errorf(ref, "hexa uses %d distinct quads, want 6", len(quads)))
			continue
		}
		count := make(map[EdgeID]int, 12)
		verts := make(map[VertexID]bool, 8)
		for _, q := range h.Quads {
			for _, e := range d.quads[q].Edges {
				count[e]++
			}
			for _, v := range d.quads[q].vertices {
				verts[v] = true
			}
		}
		if len(count) != 12 {
			errs = append(errs, errorf(ref, "hexa has %d distinct edges, want 12", len(count)))
			continue
		}
		for _, e := range sortedKeys(countKeys(count)) {
			if count[e] != 2 {
				errs = append(errs, errorf(ref, "edge %d bounds %d of the hexa's quads, want 2", e, count[e]))
			}
		}
		if len(verts) != 8 {
			errs = append(errs, errorf(ref, "hexa has %d distinct corners, want 8", len(verts)))
		}
	}
	return errs
}

func countKeys(m map[EdgeID]int) map[EdgeID]bool {
	out := make(map[EdgeID]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func validateParents(d *Document) []ValidationError {
	var errs []ValidationError
	for _, q := range d.quads {
		if n := len(d.quadParents[q.ID]); n > 2 {
			errs = append(errs, errorf(QuadRef(q.ID), "quad bounds %d hexas, at most 2 allowed", n))
		}
	}
	return errs
}

func validateGroups(d *Document) []ValidationError {
	var errs []ValidationError
	names := make(map[string]GroupID)
	for _, g := range d.groups {
		ref := GroupRef(g.ID)
		if g.Kind < HexaCell || g.Kind > VertexNode {
			errs = append(errs, errorf(ref, "invalid group kind %d", int(g.Kind)))
			continue
		}
		if g.Name == "" {
			errs = append(errs, errorf(ref, "group has no name"))
		} else if other, dup := names[g.Name]; dup {
			errs = append(errs, warnf(ref, "group name %q already used by group %d", g.Name, other))
		} else {
			names[g.Name] = g.ID
		}
		kind := g.Kind.ElementKind()
		for _, id := range g.Elements {
			if !d.exists(kind, id) {
				errs = append(errs, errorf(ref, "%s %d does not exist", kind, id))
			}
		}
	}
	return errs
}

func (d *Document) exists(kind ElementKind, id int) bool {
	if id < 0 {
		return false
	}
	switch kind {
	case ElementVertex:
		return id < len(d.vertices)
	case ElementEdge:
		return id < len(d.edges)
	case ElementQuad:
		return id < len(d.quads)
	case ElementHexa:
		return id < len(d.hexas)
	case ElementLaw:
		return id < len(d.laws)
	case ElementGroup:
		return id < len(d.groups)
	default:
		return false
	}
}

// validateNames warns about element names used twice within a kind, since
// scripts look elements up by name.
func validateNames(d *Document) []ValidationError {
	var errs []ValidationError
	check := func(seen map[string]int, ref ElementRef, name string) {
		if name == "" {
			return
		}
		if other, dup := seen[name]; dup {
			errs = append(errs, warnf(ref, "name %q already used by %s %d", name, ref.Kind, other))
			return
		}
		seen[name] = ref.ID
	}
	seen := make(map[string]int)
	for _, v := range d.vertices {
		check(seen, VertexRef(v.ID), v.Name)
	}
	seen = make(map[string]int)
	for _, e := range d.edges {
		check(seen, EdgeRef(e.ID), e.Name)
	}
	seen = make(map[string]int)
	for _, q := range d.quads {
		check(seen, QuadRef(q.ID), q.Name)
	}
	seen = make(map[string]int)
	for _, h := range d.hexas {
		check(seen, HexaRef(h.ID), h.Name)
	}
	return errs
}

// ---------------------------------------------------------------------------
// Tier 2
// ---------------------------------------------------------------------------

func validateDiscretization(d *Document) []ValidationError {
	var errs []ValidationError
	for _, l := range d.laws {
		if err := l.Check(); err != nil {
			errs = append(errs, errorf(LawRef(l.ID), "%v", err))
		}
	}
	for _, p := range d.Propagations() {
		if p.Law != NoLaw && d.Law(p.Law) == nil {
			errs = append(errs, errorf(ElementRef{ElementPropagation, int(p.ID)}, "law %d does not exist", p.Law))
		}
	}
	for _, v := range d.vertices {
		if v.Association == "" {
			continue
		}
		if _, err := v.Association.Decode(); err != nil {
			errs = append(errs, errorf(VertexRef(v.ID), "association: %v", err))
		}
	}
	for _, e := range d.edges {
		for i, a := range e.Associations {
			if a.Start < 0 || a.End > 1 || a.Start >= a.End {
				errs = append(errs, errorf(EdgeRef(e.ID), "association %d: invalid range [%g, %g]", i, a.Start, a.End))
			}
			desc, err := a.Shape.Decode()
			if err != nil {
				errs = append(errs, errorf(EdgeRef(e.ID), "association %d: %v", i, err))
			} else if desc.Class() != kernel.ClassCurve {
				errs = append(errs, errorf(EdgeRef(e.ID), "association %d: %s shape is not a curve", i, desc.Type))
			}
		}
	}
	for _, q := range d.quads {
		for i, s := range q.Associations {
			desc, err := s.Decode()
			if err != nil {
				errs = append(errs, errorf(QuadRef(q.ID), "association %d: %v", i, err))
			} else if c := desc.Class(); c != kernel.ClassSurface && c != kernel.ClassSolid {
				errs = append(errs, errorf(QuadRef(q.ID), "association %d: %s shape is not a surface", i, desc.Type))
			}
		}
	}
	return errs
}

// Check reports whether the law yields strictly increasing positions in
// (0, 1) for its node count.
func (l *Law) Check() error {
	if l.Nodes < 0 {
		return fmt.Errorf("node count %d is negative", l.Nodes)
	}
	n := float64(l.Nodes)
	c := l.Coefficient
	switch l.Kind {
	case Uniform:
	case Arithmetic:
		first := 1/(n+1) - c*n/2
		last := first + c*n
		if first <= 0 || last <= 0 {
			return fmt.Errorf("arithmetic coefficient %g gives a non-positive step for %d nodes", c, l.Nodes)
		}
	case Geometric:
		if c <= 0 || math.IsInf(c, 0) || math.IsNaN(c) {
			return fmt.Errorf("geometric coefficient %g must be positive", c)
		}
	default:
		return fmt.Errorf("unknown law kind %d", int(l.Kind))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Tier 3
// ---------------------------------------------------------------------------

func validateUsage(d *Document) []ValidationWarning {
	var warnings []ValidationWarning
	if len(d.hexas) == 0 {
		warnings = append(warnings, ValidationWarning{Message: "document has no hexahedra; only free quads are meshed"})
	}
	usedV := make(map[VertexID]bool)
	for _, v := range d.UsedVertices() {
		usedV[v] = true
	}
	for _, v := range d.vertices {
		if !usedV[v.ID] {
			warnings = append(warnings, ValidationWarning{Element: VertexRef(v.ID), Message: "vertex is not used by any quad"})
		}
	}
	usedE := make(map[EdgeID]bool)
	for _, e := range d.UsedEdges() {
		usedE[e] = true
	}
	for _, e := range d.edges {
		if !usedE[e.ID] {
			warnings = append(warnings, ValidationWarning{Element: EdgeRef(e.ID), Message: "edge is not used by any quad and has no propagation"})
		}
	}
	return warnings
}
