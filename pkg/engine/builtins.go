package engine

import (
	"fmt"

	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/chazu/hexablock/pkg/topology"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/unixpickle/model3d/model3d"
)

// ---------------------------------------------------------------------------
// Custom Sexp types
// ---------------------------------------------------------------------------

// sexpRef points at a document element.
type sexpRef struct {
	ref  topology.ElementRef
	name string
}

func (r *sexpRef) SexpString(ps *zygo.PrintState) string {
	if r.name != "" {
		return fmt.Sprintf("(%s %q)", r.ref.Kind, r.name)
	}
	return fmt.Sprintf("(%s %d)", r.ref.Kind, r.ref.ID)
}
func (r *sexpRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 is a coordinate triple.
type sexpVec3 struct {
	vec model3d.Coord3D
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpShape is a serialized CAD shape awaiting association.
type sexpShape struct {
	shape kernel.Shape
	desc  kernel.Description
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s)", s.desc.Type)
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

// sexpGrid is the result of cartesian.
type sexpGrid struct {
	grid *topology.Grid
}

func (g *sexpGrid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(grid %dx%dx%d)", g.grid.NI, g.grid.NJ, g.grid.NK)
}
func (g *sexpGrid) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts both :kw and "kw".
func toKeywordString(s zygo.Sexp) (string, error) {
	if name, ok := isKW(s); ok {
		return name, nil
	}
	str, err := toString(s)
	if err != nil {
		return "", fmt.Errorf("expected keyword or string: %w", err)
	}
	return str, nil
}

func toVec3(s zygo.Sexp) (model3d.Coord3D, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return model3d.Coord3D{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toShape(s zygo.Sexp) (*sexpShape, error) {
	if v, ok := s.(*sexpShape); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

func toGrid(s zygo.Sexp) (*topology.Grid, error) {
	if v, ok := s.(*sexpGrid); ok {
		return v.grid, nil
	}
	return nil, fmt.Errorf("expected grid, got %T (%s)", s, s.SexpString(nil))
}

func toRef(s zygo.Sexp) (topology.ElementRef, error) {
	if r, ok := s.(*sexpRef); ok {
		return r.ref, nil
	}
	return topology.ElementRef{}, fmt.Errorf("expected element reference, got %T (%s)", s, s.SexpString(nil))
}

// toID extracts the id of a reference of the given kind.
func toID(s zygo.Sexp, kind topology.ElementKind) (int, error) {
	ref, err := toRef(s)
	if err != nil {
		return 0, err
	}
	if ref.Kind != kind {
		return 0, fmt.Errorf("expected %s, got %s", kind, ref)
	}
	return ref.ID, nil
}

func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// nameArg returns the :name keyword, or "".
func nameArg(pa kwArgs) (string, error) {
	v, ok := pa.kw["name"]
	if !ok {
		return "", nil
	}
	return toString(v)
}

func ref(kind topology.ElementKind, id int, name string) *sexpRef {
	return &sexpRef{ref: topology.ElementRef{Kind: kind, ID: id}, name: name}
}

// builtin is the signature shared by every block-script function.
type builtin func(pa kwArgs) (zygo.Sexp, error)

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the block-script builtins. They populate doc as
// the script runs. Source must be run through preprocessSource first.
func registerBuiltins(env *zygo.Zlisp, doc *topology.Document) {
	add := func(name string, fn builtin) {
		env.AddFunction(name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
			out, err := fn(parseArgs(args))
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return out, nil
		})
	}

	// (document "name")
	add("document", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 1 {
			return nil, fmt.Errorf("requires a name")
		}
		name, err := toString(pa.positional[0])
		if err != nil {
			return nil, err
		}
		doc.Name = name
		return zygo.SexpNull, nil
	})

	// (vec3 1 2 3)
	add("vec3", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 3 {
			return nil, fmt.Errorf("requires exactly 3 arguments, got %d", len(pa.positional))
		}
		var c [3]float64
		for i, a := range pa.positional {
			f, err := toFloat64(a)
			if err != nil {
				return nil, fmt.Errorf("component %d: %w", i, err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: model3d.XYZ(c[0], c[1], c[2])}, nil
	})

	// -----------------------------------------------------------------------
	// Topology
	// -----------------------------------------------------------------------

	// (vertex 0 0 0 :name "a") or (vertex (vec3 0 0 0))
	add("vertex", func(pa kwArgs) (zygo.Sexp, error) {
		name, err := nameArg(pa)
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		var p model3d.Coord3D
		switch len(pa.positional) {
		case 1:
			if p, err = toVec3(pa.positional[0]); err != nil {
				return nil, err
			}
		case 3:
			var c [3]float64
			for i, a := range pa.positional {
				if c[i], err = toFloat64(a); err != nil {
					return nil, fmt.Errorf("coordinate %d: %w", i, err)
				}
			}
			p = model3d.XYZ(c[0], c[1], c[2])
		default:
			return nil, fmt.Errorf("requires a vec3 or 3 coordinates")
		}
		id := doc.AddVertex(name, p.X, p.Y, p.Z)
		return ref(topology.ElementVertex, int(id), name), nil
	})

	// (edge a b :name "ab")
	add("edge", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 2 {
			return nil, fmt.Errorf("requires 2 vertices")
		}
		name, err := nameArg(pa)
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		var v [2]int
		for i, a := range pa.positional {
			if v[i], err = toID(a, topology.ElementVertex); err != nil {
				return nil, fmt.Errorf("vertex %d: %w", i, err)
			}
		}
		id, err := doc.AddEdge(name, topology.VertexID(v[0]), topology.VertexID(v[1]))
		if err != nil {
			return nil, err
		}
		return ref(topology.ElementEdge, int(id), name), nil
	})

	// (quad e0 e1 e2 e3 :name "q")
	add("quad", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 4 {
			return nil, fmt.Errorf("requires 4 edges, got %d", len(pa.positional))
		}
		name, err := nameArg(pa)
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		var e [4]topology.EdgeID
		for i, a := range pa.positional {
			id, err := toID(a, topology.ElementEdge)
			if err != nil {
				return nil, fmt.Errorf("edge %d: %w", i, err)
			}
			e[i] = topology.EdgeID(id)
		}
		id, err := doc.AddQuad(name, e[0], e[1], e[2], e[3])
		if err != nil {
			return nil, err
		}
		return ref(topology.ElementQuad, int(id), name), nil
	})

	// (hexa q0 q1 q2 q3 q4 q5 :name "h")
	add("hexa", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 6 {
			return nil, fmt.Errorf("requires 6 quads, got %d", len(pa.positional))
		}
		name, err := nameArg(pa)
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		var q [6]topology.QuadID
		for i, a := range pa.positional {
			id, err := toID(a, topology.ElementQuad)
			if err != nil {
				return nil, fmt.Errorf("quad %d: %w", i, err)
			}
			q[i] = topology.QuadID(id)
		}
		id, err := doc.AddHexa(name, q)
		if err != nil {
			return nil, err
		}
		return ref(topology.ElementHexa, int(id), name), nil
	})

	// (hexa-vertices v0 ... v7 :name "h")
	add("hexa_vertices", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 8 {
			return nil, fmt.Errorf("requires 8 vertices, got %d", len(pa.positional))
		}
		name, err := nameArg(pa)
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		var v [8]topology.VertexID
		for i, a := range pa.positional {
			id, err := toID(a, topology.ElementVertex)
			if err != nil {
				return nil, fmt.Errorf("vertex %d: %w", i, err)
			}
			v[i] = topology.VertexID(id)
		}
		id, err := doc.AddHexaVertices(name, v)
		if err != nil {
			return nil, err
		}
		return ref(topology.ElementHexa, int(id), name), nil
	})

	// (cartesian :origin (vec3 0 0 0) :step (vec3 1 1 1) :size (list 2 1 1) :name "box")
	add("cartesian", func(pa kwArgs) (zygo.Sexp, error) {
		name, err := nameArg(pa)
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		var origin model3d.Coord3D
		step := model3d.XYZ(1, 1, 1)
		size := [3]int{1, 1, 1}
		if v, ok := pa.kw["origin"]; ok {
			if origin, err = toVec3(v); err != nil {
				return nil, fmt.Errorf("origin: %w", err)
			}
		}
		if v, ok := pa.kw["step"]; ok {
			if step, err = toVec3(v); err != nil {
				return nil, fmt.Errorf("step: %w", err)
			}
		}
		if v, ok := pa.kw["size"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil || len(items) != 3 {
				return nil, fmt.Errorf("size: expected a list of 3 counts")
			}
			for i, it := range items {
				if size[i], err = toInt(it); err != nil {
					return nil, fmt.Errorf("size: %w", err)
				}
			}
		}
		g, err := doc.MakeCartesian(name, origin, step, size[0], size[1], size[2])
		if err != nil {
			return nil, err
		}
		return &sexpGrid{grid: g}, nil
	})

	// (grid-vertex g i j k)
	add("grid_vertex", func(pa kwArgs) (zygo.Sexp, error) {
		g, idx, err := gridIndex(pa, 1)
		if err != nil {
			return nil, err
		}
		return ref(topology.ElementVertex, int(g.Vertex(idx[0], idx[1], idx[2])), ""), nil
	})

	// (grid-hexa g i j k)
	add("grid_hexa", func(pa kwArgs) (zygo.Sexp, error) {
		g, idx, err := gridIndex(pa, 0)
		if err != nil {
			return nil, err
		}
		return ref(topology.ElementHexa, int(g.Hexa(idx[0], idx[1], idx[2])), ""), nil
	})

	// (hexa-quad h i): quad i of a hexa, 0 bottom and 1 top for hexa-vertices.
	add("hexa_quad", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 2 {
			return nil, fmt.Errorf("requires a hexa and an index")
		}
		h, err := toID(pa.positional[0], topology.ElementHexa)
		if err != nil {
			return nil, err
		}
		i, err := toInt(pa.positional[1])
		if err != nil {
			return nil, err
		}
		if i < 0 || i > 5 {
			return nil, fmt.Errorf("index %d out of range [0, 5]", i)
		}
		q := doc.Hexa(topology.HexaID(h)).Quads[i]
		return ref(topology.ElementQuad, int(q), doc.Quad(q).Name), nil
	})

	// (edge-between a b)
	add("edge_between", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 2 {
			return nil, fmt.Errorf("requires 2 vertices")
		}
		a, err := toID(pa.positional[0], topology.ElementVertex)
		if err != nil {
			return nil, err
		}
		b, err := toID(pa.positional[1], topology.ElementVertex)
		if err != nil {
			return nil, err
		}
		e, ok := doc.EdgeBetween(topology.VertexID(a), topology.VertexID(b))
		if !ok {
			return nil, fmt.Errorf("no edge joins vertices %d and %d", a, b)
		}
		return ref(topology.ElementEdge, int(e), doc.Edge(e).Name), nil
	})

	// -----------------------------------------------------------------------
	// Discretization
	// -----------------------------------------------------------------------

	// (law "fine" :nodes 8 :kind :geometric :coefficient 1.1)
	add("law", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 1 {
			return nil, fmt.Errorf("requires a name")
		}
		name, err := toString(pa.positional[0])
		if err != nil {
			return nil, err
		}
		law := topology.Law{Kind: topology.Uniform}
		if err := lawArgs(pa, &law); err != nil {
			return nil, err
		}
		id := doc.AddLaw(name, law.Nodes, law.Kind, law.Coefficient)
		return ref(topology.ElementLaw, int(id), name), nil
	})

	// (default-law :nodes 4 :kind :uniform)
	add("default_law", func(pa kwArgs) (zygo.Sexp, error) {
		law := doc.DefaultLaw()
		next := *law
		if err := lawArgs(pa, &next); err != nil {
			return nil, err
		}
		*law = next
		return ref(topology.ElementLaw, int(law.ID), law.Name), nil
	})

	// (set-law edge law): assigns law to the propagation holding edge.
	add("set_law", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) != 2 {
			return nil, fmt.Errorf("requires an edge and a law")
		}
		e, err := toID(pa.positional[0], topology.ElementEdge)
		if err != nil {
			return nil, err
		}
		l, err := toID(pa.positional[1], topology.ElementLaw)
		if err != nil {
			return nil, err
		}
		if err := doc.SetEdgeLaw(topology.EdgeID(e), topology.LawID(l)); err != nil {
			return nil, err
		}
		return zygo.SexpNull, nil
	})

	// (group "inlet" :kind :quad-cell q0 q1 ...)
	add("group", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) < 1 {
			return nil, fmt.Errorf("requires a name")
		}
		name, err := toString(pa.positional[0])
		if err != nil {
			return nil, err
		}
		kv, ok := pa.kw["kind"]
		if !ok {
			return nil, fmt.Errorf("%q: requires :kind", name)
		}
		ks, err := toKeywordString(kv)
		if err != nil {
			return nil, err
		}
		kind, err := topology.ParseGroupKind(ks)
		if err != nil {
			return nil, err
		}
		var ids []int
		for i, a := range pa.positional[1:] {
			id, err := toID(a, kind.ElementKind())
			if err != nil {
				return nil, fmt.Errorf("%q: member %d: %w", name, i, err)
			}
			ids = append(ids, id)
		}
		id := doc.AddGroup(name, kind, ids...)
		return ref(topology.ElementGroup, int(id), name), nil
	})

	// -----------------------------------------------------------------------
	// Shapes and associations
	// -----------------------------------------------------------------------

	shape := func(name string, build func(pa kwArgs) (kernel.Description, error)) {
		add(name, func(pa kwArgs) (zygo.Sexp, error) {
			d, err := build(pa)
			if err != nil {
				return nil, err
			}
			s, err := kernel.Encode(d)
			if err != nil {
				return nil, err
			}
			return &sexpShape{shape: s, desc: d}, nil
		})
	}

	// (point (vec3 ...))
	shape("point", func(pa kwArgs) (kernel.Description, error) {
		pts, err := vecArgs(pa, 1)
		if err != nil {
			return kernel.Description{}, err
		}
		return kernel.Description{Type: kernel.TypePoint, At: vp(pts[0])}, nil
	})

	// (segment from to)
	shape("segment", func(pa kwArgs) (kernel.Description, error) {
		pts, err := vecArgs(pa, 2)
		if err != nil {
			return kernel.Description{}, err
		}
		return kernel.Description{Type: kernel.TypeSegment, From: vp(pts[0]), To: vp(pts[1])}, nil
	})

	// (polyline p0 p1 ...)
	shape("polyline", func(pa kwArgs) (kernel.Description, error) {
		pts, err := vecArgs(pa, -1)
		if err != nil {
			return kernel.Description{}, err
		}
		d := kernel.Description{Type: kernel.TypePolyline}
		for _, p := range pts {
			d.Points = append(d.Points, kernel.V(p))
		}
		return d, nil
	})

	// (arc center start end)
	shape("arc", func(pa kwArgs) (kernel.Description, error) {
		pts, err := vecArgs(pa, 3)
		if err != nil {
			return kernel.Description{}, err
		}
		return kernel.Description{Type: kernel.TypeArc, Center: vp(pts[0]), Start: vp(pts[1]), End: vp(pts[2])}, nil
	})

	// (plane origin normal)
	shape("plane", func(pa kwArgs) (kernel.Description, error) {
		pts, err := vecArgs(pa, 2)
		if err != nil {
			return kernel.Description{}, err
		}
		return kernel.Description{Type: kernel.TypePlane, Origin: vp(pts[0]), Normal: vp(pts[1])}, nil
	})

	// (box min max)
	shape("box", func(pa kwArgs) (kernel.Description, error) {
		pts, err := vecArgs(pa, 2)
		if err != nil {
			return kernel.Description{}, err
		}
		return kernel.Description{Type: kernel.TypeBox, Min: vp(pts[0]), Max: vp(pts[1])}, nil
	})

	// (sphere center :radius r)
	shape("sphere", func(pa kwArgs) (kernel.Description, error) {
		pts, err := vecArgs(pa, 1)
		if err != nil {
			return kernel.Description{}, err
		}
		r, err := floatKW(pa, "radius")
		if err != nil {
			return kernel.Description{}, err
		}
		return kernel.Description{Type: kernel.TypeSphere, Center: vp(pts[0]), Radius: r}, nil
	})

	// (cylinder center :radius r :height h)
	shape("cylinder", func(pa kwArgs) (kernel.Description, error) {
		pts, err := vecArgs(pa, 1)
		if err != nil {
			return kernel.Description{}, err
		}
		r, err := floatKW(pa, "radius")
		if err != nil {
			return kernel.Description{}, err
		}
		h, err := floatKW(pa, "height")
		if err != nil {
			return kernel.Description{}, err
		}
		return kernel.Description{Type: kernel.TypeCylinder, Center: vp(pts[0]), Radius: r, Height: h}, nil
	})

	// (stl "part.stl")
	shape("stl", func(pa kwArgs) (kernel.Description, error) {
		if len(pa.positional) != 1 {
			return kernel.Description{}, fmt.Errorf("requires a path")
		}
		path, err := toString(pa.positional[0])
		if err != nil {
			return kernel.Description{}, err
		}
		return kernel.Description{Type: kernel.TypeSTL, Path: path}, nil
	})

	// (associate element shape ...) ; edges accept :start and :end fractions
	add("associate", func(pa kwArgs) (zygo.Sexp, error) {
		if len(pa.positional) < 2 {
			return nil, fmt.Errorf("requires an element and at least one shape")
		}
		r, err := toRef(pa.positional[0])
		if err != nil {
			return nil, err
		}
		var shapes []kernel.Shape
		for _, a := range pa.positional[1:] {
			s, err := toShape(a)
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, s.shape)
		}
		switch r.Kind {
		case topology.ElementVertex:
			if len(shapes) != 1 {
				return nil, fmt.Errorf("a vertex takes exactly one shape")
			}
			err = doc.AssociateVertex(topology.VertexID(r.ID), shapes[0])
		case topology.ElementEdge:
			start, end := 0.0, 1.0
			if _, ok := pa.kw["start"]; ok {
				if start, err = floatKW(pa, "start"); err != nil {
					return nil, err
				}
			}
			if _, ok := pa.kw["end"]; ok {
				if end, err = floatKW(pa, "end"); err != nil {
					return nil, err
				}
			}
			for _, s := range shapes {
				if err = doc.AssociateEdge(topology.EdgeID(r.ID), s, start, end); err != nil {
					break
				}
			}
		case topology.ElementQuad:
			for _, s := range shapes {
				if err = doc.AssociateQuad(topology.QuadID(r.ID), s); err != nil {
					break
				}
			}
		default:
			err = fmt.Errorf("cannot associate a %s", r.Kind)
		}
		if err != nil {
			return nil, err
		}
		return zygo.SexpNull, nil
	})
}

func gridIndex(pa kwArgs, extra int) (*topology.Grid, [3]int, error) {
	var idx [3]int
	if len(pa.positional) != 4 {
		return nil, idx, fmt.Errorf("requires a grid and 3 indices")
	}
	g, err := toGrid(pa.positional[0])
	if err != nil {
		return nil, idx, err
	}
	limits := [3]int{g.NI + extra, g.NJ + extra, g.NK + extra}
	for i, a := range pa.positional[1:] {
		if idx[i], err = toInt(a); err != nil {
			return nil, idx, err
		}
		if idx[i] < 0 || idx[i] >= limits[i] {
			return nil, idx, fmt.Errorf("index %d out of range [0, %d)", idx[i], limits[i])
		}
	}
	return g, idx, nil
}

func lawArgs(pa kwArgs, law *topology.Law) error {
	if v, ok := pa.kw["nodes"]; ok {
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("nodes: %w", err)
		}
		law.Nodes = n
	}
	if v, ok := pa.kw["kind"]; ok {
		s, err := toKeywordString(v)
		if err != nil {
			return fmt.Errorf("kind: %w", err)
		}
		if law.Kind, err = topology.ParseKindLaw(s); err != nil {
			return err
		}
	}
	if _, ok := pa.kw["coefficient"]; ok {
		c, err := floatKW(pa, "coefficient")
		if err != nil {
			return err
		}
		law.Coefficient = c
	}
	return law.Check()
}

// vecArgs reads n positional vec3 arguments, or at least two when n < 0.
func vecArgs(pa kwArgs, n int) ([]model3d.Coord3D, error) {
	if (n >= 0 && len(pa.positional) != n) || (n < 0 && len(pa.positional) < 2) {
		return nil, fmt.Errorf("wrong number of points: %d", len(pa.positional))
	}
	out := make([]model3d.Coord3D, len(pa.positional))
	for i, a := range pa.positional {
		v, err := toVec3(a)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func floatKW(pa kwArgs, name string) (float64, error) {
	v, ok := pa.kw[name]
	if !ok {
		return 0, fmt.Errorf("requires :%s", name)
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

func vp(c model3d.Coord3D) *kernel.Vec {
	v := kernel.V(c)
	return &v
}
