package engine

import (
	"strings"
	"testing"

	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/chazu/hexablock/pkg/topology"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(vertex 0 0 0 :name "a")`,
			expect: `(vertex 0 0 0 "__kw_name" "a")`,
		},
		{
			name:   "multiple keywords",
			input:  `(law "fine" :nodes 4 :kind :geometric)`,
			expect: `(law "fine" "__kw_nodes" 4 "__kw_kind" "__kw_geometric")`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"a \" :b" :c`,
			expect: `"a \" :b" "__kw_c"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(hexa-vertices a b)`,
			expect: `(hexa_vertices a b)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(vec3 0 -1 x-1)`,
			expect: `(vec3 0 -1 x-1)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  "; simple comment\n(quad)",
			expect: "// simple comment\n(quad)",
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:quad-cell`,
			expect: `"__kw_quad-cell"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// evaluate runs source and fails the test on any error.
func evaluate(t *testing.T, source string) *topology.Document {
	t.Helper()
	doc, evalErrs, err := NewEngine().Evaluate(source)
	require.NoError(t, err)
	require.Empty(t, evalErrs)
	require.NotNil(t, doc)
	return doc
}

// ---------------------------------------------------------------------------
// Topology builtins
// ---------------------------------------------------------------------------

func TestSingleBlockFromVertices(t *testing.T) {
	doc := evaluate(t, `
(document "cube")
(def a (vertex 0 0 0 :name "a"))
(def b (vertex 1 0 0))
(def c (vertex 1 1 0))
(def d (vertex (vec3 0 1 0)))
(def e (vertex 0 0 1))
(def f (vertex 1 0 1))
(def g (vertex 1 1 1))
(def h (vertex 0 1 1))
(hexa-vertices a b c d e f g h :name "block")
`)
	assert.Equal(t, "cube", doc.Name)
	assert.Len(t, doc.Vertices(), 8)
	assert.Len(t, doc.Edges(), 12)
	assert.Len(t, doc.Quads(), 6)
	require.Len(t, doc.Hexas(), 1)
	assert.Equal(t, "block", doc.Hexas()[0].Name)
	assert.Equal(t, "a", doc.Vertex(0).Name)
	assert.Equal(t, 1.0, doc.Vertex(3).Point.Y)
}

func TestBlockFromEdgesAndQuads(t *testing.T) {
	doc := evaluate(t, `
(def a (vertex 0 0 0))
(def b (vertex 1 0 0))
(def c (vertex 1 1 0))
(def d (vertex 0 1 0))
(def ab (edge a b :name "ab"))
(def bc (edge b c))
(def cd (edge c d))
(def da (edge d a))
(quad ab bc cd da :name "floor")
(edge-between b a)
`)
	require.Len(t, doc.Quads(), 1)
	assert.Equal(t, "floor", doc.Quads()[0].Name)
	assert.Equal(t, "ab", doc.Edge(0).Name)
	assert.Empty(t, doc.Hexas())
}

func TestCartesian(t *testing.T) {
	doc := evaluate(t, `
(def g (cartesian :origin (vec3 1 0 0) :step (vec3 2 1 1) :size (list 2 1 1) :name "box"))
(def fine (law "fine" :nodes 4 :kind :geometric :coefficient 1.2))
(set-law (edge-between (grid-vertex g 0 0 0) (grid-vertex g 1 0 0)) fine)
(group "left" :kind :hexa-cell (grid-hexa g 0 0 0))
(group "floor" :kind :quad-cell (hexa-quad (grid-hexa g 1 0 0) 0))
`)
	assert.Len(t, doc.Hexas(), 2)
	assert.Len(t, doc.Vertices(), 12)
	assert.Equal(t, 5.0, doc.Vertex(2).Point.X)

	require.Len(t, doc.Laws(), 2)
	law := doc.Laws()[1]
	assert.Equal(t, "fine", law.Name)
	assert.Equal(t, topology.Geometric, law.Kind)
	assert.Equal(t, 4, law.Nodes)
	assert.InDelta(t, 1.2, law.Coefficient, 1e-12)

	e, ok := doc.EdgeBetween(0, 1)
	require.True(t, ok)
	p, ok := doc.PropagationOf(e)
	require.True(t, ok)
	assert.Equal(t, law.ID, doc.Propagations()[p].Law)

	require.Len(t, doc.Groups(), 2)
	assert.Equal(t, topology.HexaCell, doc.Groups()[0].Kind)
	assert.Equal(t, []int{0}, doc.Groups()[0].Elements)
	assert.Equal(t, topology.QuadCell, doc.Groups()[1].Kind)
}

func TestDefaultLaw(t *testing.T) {
	doc := evaluate(t, `(default-law :nodes 6 :kind :arithmetic :coefficient 0.01)`)
	law := doc.DefaultLaw()
	assert.Equal(t, 6, law.Nodes)
	assert.Equal(t, topology.Arithmetic, law.Kind)
}

func TestAssociations(t *testing.T) {
	doc := evaluate(t, `
(def g (cartesian :size (list 1 1 1)))
(def a (grid-vertex g 0 0 0))
(def b (grid-vertex g 1 0 0))
(associate a (point (vec3 0 0 0)))
(associate (edge-between a b) (arc (vec3 0.5 0 0.5) (vec3 0 0 0) (vec3 1 0 0)) :start 0 :end 0.5)
(associate (hexa-quad (grid-hexa g 0 0 0) 1) (plane (vec3 0 0 1) (vec3 0 0 1)) (sphere (vec3 0 0 0) :radius 2))
`)
	assert.NotEmpty(t, doc.Vertex(0).Association)

	e, _ := doc.EdgeBetween(0, 1)
	require.Len(t, doc.Edge(e).Associations, 1)
	as := doc.Edge(e).Associations[0]
	assert.Equal(t, 0.5, as.End)
	d, err := as.Shape.Decode()
	require.NoError(t, err)
	assert.Equal(t, kernel.TypeArc, d.Type)

	top := doc.Hexa(0).Quads[1]
	require.Len(t, doc.Quad(top).Associations, 2)
	d, err = doc.Quad(top).Associations[1].Decode()
	require.NoError(t, err)
	assert.Equal(t, 2.0, d.Radius)
}

func TestShapes(t *testing.T) {
	tests := []struct {
		source string
		want   kernel.ShapeType
	}{
		{`(segment (vec3 0 0 0) (vec3 1 0 0))`, kernel.TypeSegment},
		{`(polyline (vec3 0 0 0) (vec3 1 0 0) (vec3 1 1 0))`, kernel.TypePolyline},
		{`(box (vec3 0 0 0) (vec3 1 1 1))`, kernel.TypeBox},
		{`(cylinder (vec3 0 0 0) :radius 1 :height 2)`, kernel.TypeCylinder},
		{`(stl "part.stl")`, kernel.TypeSTL},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			doc := evaluate(t, `
(def q (hexa-quad (grid-hexa (cartesian :size (list 1 1 1)) 0 0 0) 0))
(associate q `+tt.source+`)`)
			q := doc.Quad(doc.Hexa(0).Quads[0])
			require.Len(t, q.Associations, 1)
			d, err := q.Associations[0].Decode()
			require.NoError(t, err)
			if d.Type != tt.want {
				t.Errorf("shape type = %v, want %v", d.Type, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Error reporting
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"vertex arity", `(vertex 1 2)`, "vertex"},
		{"edge wants vertices", `(edge 1 2)`, "expected element reference"},
		{"edge kind", `(def g (cartesian)) (edge (grid-hexa g 0 0 0) (grid-vertex g 0 0 0))`, "expected vertex"},
		{"grid bounds", `(def g (cartesian)) (grid-hexa g 1 0 0)`, "out of range"},
		{"bad law", `(law "bad" :nodes 3 :kind :geometric :coefficient -1)`, "must be positive"},
		{"unknown law kind", `(law "bad" :kind :cubic)`, "cubic"},
		{"group needs kind", `(group "g")`, "requires :kind"},
		{"sphere radius", `(sphere (vec3 0 0 0) :radius 0)`, "radius"},
		{"associate hexa", `(def g (cartesian)) (associate (grid-hexa g 0 0 0) (point (vec3 0 0 0)))`, "cannot associate"},
		{"edge range", `(def g (cartesian)) (associate (edge-between (grid-vertex g 0 0 0) (grid-vertex g 1 0 0)) (segment (vec3 0 0 0) (vec3 1 0 0)) :start 0.8 :end 0.2)`, "invalid range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, evalErrs, err := NewEngine().Evaluate(tt.source)
			require.NoError(t, err)
			require.Nil(t, doc)
			require.NotEmpty(t, evalErrs)
			if !strings.Contains(evalErrs[0].Message, tt.want) {
				t.Errorf("Evaluate(%q) error = %q, want containing %q", tt.source, evalErrs[0].Message, tt.want)
			}
		})
	}
}

func TestDefaultLawUnchangedOnError(t *testing.T) {
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	doc := topology.New("")
	registerBuiltins(env, doc)

	require.NoError(t, env.LoadString(preprocessSource(`(default-law :nodes 8 :kind :geometric)`)))
	_, err := env.Run()
	require.Error(t, err, "a geometric law needs a coefficient")
	assert.Equal(t, 3, doc.DefaultLaw().Nodes)
	assert.Equal(t, topology.Uniform, doc.DefaultLaw().Kind)
}
