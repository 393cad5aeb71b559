package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/hexablock/pkg/config"
	"github.com/chazu/hexablock/pkg/mesher"
	"github.com/chazu/hexablock/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOutput(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func examples(t *testing.T) []string {
	t.Helper()
	scripts, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.hexa"))
	require.NoError(t, err)
	require.NotEmpty(t, scripts)
	return scripts
}

func pipeline(t *testing.T, format string) *Pipeline {
	t.Helper()
	conf := config.Default()
	conf.Output.Dir = t.TempDir()
	conf.Output.Format = format
	conf.Kernel.Cells = 16
	return newPipeline(conf, log)
}

func TestE2EExamples(t *testing.T) {
	for _, script := range examples(t) {
		t.Run(filepath.Base(script), func(t *testing.T) {
			out := t.TempDir()
			stdout, err := run(t, "compute", script, "--out", out)
			require.NoError(t, err, stdout)
			assert.Contains(t, stdout, "wrote")

			data, err := os.ReadFile(filepath.Join(out, scriptName(script)+".msh"))
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(data), "$MeshFormat"))
		})
	}
}

func TestE2ECube(t *testing.T) {
	res, err := pipeline(t, config.FormatGmsh).Compute(filepath.Join("..", "..", "examples", "cube.hexa"))
	require.NoError(t, err)
	require.True(t, res.OK(), "errors: %v", res.Errors)

	assert.Equal(t, "cube", res.Document.Name)
	assert.Equal(t, 216, res.Mesh.NodeCount())
	assert.Equal(t, 60, res.Mesh.EdgeCount())
	assert.Equal(t, 150, res.Mesh.FaceCount())
	assert.Equal(t, 125, res.Mesh.VolumeCount())

	require.NotNil(t, res.Mesh.Group("volume"))
	assert.Equal(t, 125, res.Mesh.Group("volume").Size())
	assert.Equal(t, 25, res.Mesh.Group("floor").Size())
	assert.Equal(t, 2, res.Mesh.Group("corners").Size())
}

func TestE2ETwoBlocks(t *testing.T) {
	res, err := pipeline(t, config.FormatGmsh).Compute(filepath.Join("..", "..", "examples", "two_blocks.hexa"))
	require.NoError(t, err)
	require.True(t, res.OK(), "errors: %v", res.Errors)

	assert.Equal(t, 9*5*5, res.Mesh.NodeCount())
	assert.Equal(t, 128, res.Mesh.VolumeCount())
	assert.Equal(t, 64, res.Mesh.Group("left").Size())
	assert.Equal(t, 25, res.Mesh.Group("interface").Size())
	assert.Empty(t, res.Report.HexaErrors)
}

func TestE2ECurved(t *testing.T) {
	res, err := pipeline(t, config.FormatGmsh).Compute(filepath.Join("..", "..", "examples", "curved.hexa"))
	require.NoError(t, err)
	require.True(t, res.OK(), "errors: %v", res.Errors)

	assert.Equal(t, 1, res.Report.EdgeStrategies[mesher.EdgeByAssociation], "one edge follows its arc")
	assert.Equal(t, 125, res.Mesh.NodeCount())

	// The arc peaks above the flat top.
	top := 0.0
	for _, n := range res.Mesh.Group("arc").Nodes() {
		if n.Coord.Z > top {
			top = n.Coord.Z
		}
	}
	assert.InDelta(t, 0.5+0.5*1.4142135623730951, top, 1e-9)
}

func TestE2EFormats(t *testing.T) {
	script := filepath.Join("..", "..", "examples", "cube.hexa")
	t.Run("stl", func(t *testing.T) {
		res, err := pipeline(t, config.FormatSTL).Compute(script)
		require.NoError(t, err)
		assert.Equal(t, ".stl", filepath.Ext(res.Output))
		info, err := os.Stat(res.Output)
		require.NoError(t, err)
		// Binary STL: 80 byte header, count, 50 bytes per triangle.
		assert.Equal(t, int64(84+50*2*150), info.Size())
	})
	t.Run("json", func(t *testing.T) {
		res, err := pipeline(t, config.FormatJSON).Compute(script)
		require.NoError(t, err)
		data, err := os.ReadFile(res.Output)
		require.NoError(t, err)
		var meshes []MeshData
		require.NoError(t, json.Unmarshal(data, &meshes))
		require.Len(t, meshes, 2, "all faces plus the floor group")
		assert.Equal(t, "floor", meshes[1].Group)
		assert.Equal(t, colorPalette[1], meshes[1].Color)
		assert.Len(t, meshes[0].Indices, 3*2*150)
	})
}

func TestE2EDimension(t *testing.T) {
	out := t.TempDir()
	script := filepath.Join("..", "..", "examples", "cube.hexa")
	stdout, err := run(t, "compute", script, "--out", out, "--dimension", "2")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "dim 2:")
	assert.Contains(t, stdout, "0 hexas")
}

func TestE2ECheck(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.hexa")
	require.NoError(t, os.WriteFile(bad, []byte("(vertex 1 2)\n"), 0644))
	stray := filepath.Join(dir, "stray.hexa")
	require.NoError(t, os.WriteFile(stray, []byte("(cartesian)\n(vertex 9 9 9)\n"), 0644))

	stdout, err := run(t, "check", bad)
	require.Error(t, err)
	assert.Contains(t, stdout, "error")

	stdout, err = run(t, "check", stray)
	require.NoError(t, err)
	assert.Contains(t, stdout, "warning: vertex 8")

	_, err = run(t, "check", filepath.Join(dir, "missing.hexa"))
	require.Error(t, err)
}

func TestE2ECheckSave(t *testing.T) {
	saved := filepath.Join(t.TempDir(), "cube.json")
	_, err := run(t, "check", filepath.Join("..", "..", "examples", "cube.hexa"), "--save", saved)
	require.NoError(t, err)

	f, err := os.Open(saved)
	require.NoError(t, err)
	defer f.Close()
	doc, err := topology.ReadJSON(f)
	require.NoError(t, err)
	assert.Equal(t, "cube", doc.Name)
	assert.Len(t, doc.Hexas(), 1)
	assert.Len(t, doc.Groups(), 3)
	assert.Equal(t, 4, doc.DefaultLaw().Nodes)
}

func TestE2EBatch(t *testing.T) {
	out := t.TempDir()
	args := append([]string{"batch", "--out", out, "--format", "stl"}, examples(t)...)
	stdout, err := run(t, args...)
	require.NoError(t, err, stdout)
	for _, script := range examples(t) {
		_, err := os.Stat(filepath.Join(out, scriptName(script)+".stl"))
		assert.NoError(t, err)
	}

	bad := filepath.Join(out, "bad.hexa")
	require.NoError(t, os.WriteFile(bad, []byte("(edge 1 2)\n"), 0644))
	_, err = run(t, "batch", "--out", out, bad, examples(t)[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 scripts failed")
}

func TestE2EBadFlags(t *testing.T) {
	_, err := run(t, "compute", "--format", "vtk", filepath.Join("..", "..", "examples", "cube.hexa"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}
