package topology_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/hexablock/pkg/kernel"
	"github.com/chazu/hexablock/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
)

// hasError returns true if errs contains at least one error-severity finding
// whose message contains substr.
func hasError(errs []topology.ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == topology.SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func hasWarning(warnings []topology.ValidationWarning, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidateCube(t *testing.T) {
	d := unitCube(t)
	result := topology.ValidateAll(d)
	assert.True(t, result.OK(), "errors: %v", result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateOpenHexa(t *testing.T) {
	d := unitCube(t)
	// Replace the top face with the bottom one.
	hexa := d.Hexas()[0]
	_, err := d.AddHexa("open", [6]topology.QuadID{hexa.Quads[0], hexa.Quads[0], hexa.Quads[2], hexa.Quads[3], hexa.Quads[4], hexa.Quads[5]})
	require.NoError(t, err)

	errs := topology.Validate(d)
	assert.True(t, hasError(errs, "distinct quads"), "errs: %v", errs)
}

func TestValidateTooManyParents(t *testing.T) {
	d := unitCube(t)
	hexa := d.Hexas()[0]
	for i := 0; i < 2; i++ {
		_, err := d.AddHexa("dup", hexa.Quads)
		require.NoError(t, err)
	}
	errs := topology.Validate(d)
	assert.True(t, hasError(errs, "at most 2"), "errs: %v", errs)
}

func TestValidateDegenerateEdge(t *testing.T) {
	d := topology.New("doc")
	a := d.AddVertex("a", 0, 0, 0)
	_, err := d.AddEdge("loop", a, a)
	require.NoError(t, err)
	assert.True(t, hasError(topology.Validate(d), "degenerate"))
}

func TestValidateGroups(t *testing.T) {
	d := unitCube(t)
	d.AddGroup("ok", topology.QuadCell, 0, 1)
	d.AddGroup("dangling", topology.HexaCell, 0, 4)
	d.AddGroup("ok", topology.EdgeNode, 2)

	errs := topology.Validate(d)
	assert.True(t, hasError(errs, "hexa 4 does not exist"), "errs: %v", errs)

	result := topology.ValidateAll(d)
	assert.True(t, hasWarning(result.Warnings, `group name "ok" already used`), "warnings: %v", result.Warnings)
}

func TestValidateLaws(t *testing.T) {
	tests := []struct {
		name    string
		nodes   int
		kind    topology.KindLaw
		coeff   float64
		wantErr bool
	}{
		{"uniform", 3, topology.Uniform, 0, false},
		{"negative nodes", -1, topology.Uniform, 0, true},
		{"arithmetic ok", 3, topology.Arithmetic, 0.05, false},
		{"arithmetic first step", 3, topology.Arithmetic, 0.2, true},
		{"arithmetic last step", 3, topology.Arithmetic, -0.2, true},
		{"geometric ok", 4, topology.Geometric, 1.5, false},
		{"geometric zero", 4, topology.Geometric, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			law := topology.Law{Nodes: tt.nodes, Kind: tt.kind, Coefficient: tt.coeff}
			err := law.Check()
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAssociations(t *testing.T) {
	d := unitCube(t)
	require.NoError(t, d.AssociateEdge(0, kernel.NewPlane(model3d.Coord3D{}, model3d.XYZ(0, 0, 1)), 0, 1))
	require.NoError(t, d.AssociateQuad(0, kernel.NewSegment(model3d.Coord3D{}, model3d.XYZ(1, 0, 0))))
	require.NoError(t, d.AssociateVertex(0, "not json"))

	result := topology.ValidateAll(d)
	assert.True(t, hasError(result.Errors, "is not a curve"), "errors: %v", result.Errors)
	assert.True(t, hasError(result.Errors, "is not a surface"), "errors: %v", result.Errors)
	assert.True(t, hasError(result.Errors, "decode shape"), "errors: %v", result.Errors)
}

func TestValidateUnused(t *testing.T) {
	d := unitCube(t)
	v := d.AddVertex("stray", 3, 3, 3)
	_, err := d.AddEdge("stray", 0, v)
	require.NoError(t, err)

	result := topology.ValidateAll(d)
	assert.True(t, result.OK())
	assert.True(t, hasWarning(result.Warnings, "vertex is not used"))
	assert.True(t, hasWarning(result.Warnings, "edge is not used"))
}

func TestJSONRoundTrip(t *testing.T) {
	d := unitCube(t)
	law := d.AddLaw("graded", 4, topology.Geometric, 1.2)
	require.NoError(t, d.SetEdgeLaw(4, law))
	require.NoError(t, d.AssociateQuad(1, kernel.NewPlane(model3d.XYZ(0, 0, 1), model3d.XYZ(0, 0, 1))))
	d.AddGroup("top", topology.QuadCell, 1)
	d.Edge(3).Way = false

	var buf bytes.Buffer
	require.NoError(t, d.WriteJSON(&buf))

	got, err := topology.ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, d.Name, got.Name)
	assert.Len(t, got.Hexas(), 1)
	assert.Equal(t, d.QuadVertices(2), got.QuadVertices(2))
	assert.Equal(t, d.Quad(1).Associations, got.Quad(1).Associations)
	assert.False(t, got.Edge(3).Way)

	p, ok := got.PropagationOf(4)
	require.True(t, ok)
	assert.Equal(t, law, got.Propagations()[p].Law)
	assert.Equal(t, "top", got.Groups()[0].Name)
}
