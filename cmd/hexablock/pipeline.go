package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/hexablock/pkg/config"
	"github.com/chazu/hexablock/pkg/engine"
	"github.com/chazu/hexablock/pkg/kernel/facet"
	"github.com/chazu/hexablock/pkg/kernel/sdfx"
	"github.com/chazu/hexablock/pkg/mesh"
	"github.com/chazu/hexablock/pkg/mesher"
	"github.com/chazu/hexablock/pkg/topology"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// colorPalette assigns distinct colors to face groups in JSON output.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// MeshData is the JSON render format of one face group.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Group    string    `json:"group"`
	Color    string    `json:"color"`
}

// Result is the outcome of running one script through the pipeline.
type Result struct {
	Script   string
	Document *topology.Document
	Errors   []engine.EvalError
	Warnings []engine.EvalWarning

	Mesh   *mesh.Mesh
	Report *mesher.Report
	Output string
}

// OK reports whether the script evaluated and validated cleanly.
func (r *Result) OK() bool {
	return r.Document != nil && len(r.Errors) == 0
}

// Pipeline evaluates block scripts, meshes them and writes the result.
type Pipeline struct {
	conf config.Config
	log  logrus.FieldLogger
}

func newPipeline(conf config.Config, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{conf: conf, log: log}
}

// Check evaluates and validates the script at path.
func (p *Pipeline) Check(path string) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read script")
	}
	// One engine per script: an engine discards results of superseded
	// evaluations, and batch runs scripts concurrently.
	eng := engine.NewEngine(
		engine.WithTimeout(p.conf.Script.Timeout.Duration),
		engine.WithLogger(p.log),
	)
	res, err := eng.EvaluateAll(string(source))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if res.Document != nil && res.Document.Name == "" {
		res.Document.Name = scriptName(path)
	}
	return &Result{
		Script:   path,
		Document: res.Document,
		Errors:   res.Errors,
		Warnings: res.Warnings,
	}, nil
}

// Compute checks the script, meshes it and writes the mesh. Script errors
// are returned in the result; the returned error is for fatal failures.
func (p *Pipeline) Compute(path string) (*Result, error) {
	res, err := p.Check(path)
	if err != nil || !res.OK() {
		return res, err
	}
	log := p.log.WithField("script", path)

	baseDir := p.conf.Kernel.BaseDir
	if baseDir == "" {
		baseDir = filepath.Dir(path)
	}
	k := facet.New(
		facet.WithTessellator(sdfx.New(sdfx.WithCells(p.conf.Kernel.Cells))),
		facet.WithBaseDir(baseDir),
	)

	res.Mesh = mesh.New()
	_, report, err := mesher.Compute(res.Document, res.Mesh, k, p.conf.Hypothesis(),
		mesher.WithLogger(log),
		mesher.WithTolerance(p.conf.Mesher.Tolerance),
	)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	res.Report = report
	log.Info(report)

	out, err := p.write(res)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	res.Output = out
	return res, nil
}

// write stores the mesh next to the script, or in the configured output
// directory, with an extension matching the format.
func (p *Pipeline) write(res *Result) (string, error) {
	dir := p.conf.Output.Dir
	if dir == "" {
		dir = filepath.Dir(res.Script)
	}
	var (
		ext   string
		write func(io.Writer) error
	)
	switch p.conf.Output.Format {
	case config.FormatSTL:
		ext, write = ".stl", res.Mesh.WriteSTL
	case config.FormatJSON:
		ext, write = ".json", func(w io.Writer) error { return writeRender(w, res.Mesh) }
	default:
		ext, write = ".msh", res.Mesh.WriteGmsh
	}
	out := filepath.Join(dir, scriptName(res.Script)+ext)
	f, err := os.Create(out)
	if err != nil {
		return "", errors.Wrap(err, "create output")
	}
	if err := write(f); err != nil {
		f.Close()
		return "", err
	}
	return out, errors.Wrap(f.Close(), "close output")
}

// writeRender writes the face groups as colored render buffers.
func writeRender(w io.Writer, m *mesh.Mesh) error {
	meshes := []MeshData{}
	for i, rm := range m.Render() {
		if rm.IsEmpty() {
			continue
		}
		meshes = append(meshes, MeshData{
			Vertices: rm.Vertices,
			Normals:  rm.Normals,
			Indices:  rm.Indices,
			Group:    rm.Group,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return errors.Wrap(json.NewEncoder(w).Encode(meshes), "write render json")
}

func scriptName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
