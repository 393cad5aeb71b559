// Package config reads the hexablock configuration file and sets up logging.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/chazu/hexablock/pkg/mesher"
	"github.com/pkg/errors"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "hexablock.toml"

// Config is the full hexablock configuration.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Script ScriptConfig `toml:"script"`
	Mesher MesherConfig `toml:"mesher"`
	Kernel KernelConfig `toml:"kernel"`
	Output OutputConfig `toml:"output"`
}

// LogConfig selects the logging level.
type LogConfig struct {
	Level string `toml:"level"`
}

// ScriptConfig controls script evaluation.
type ScriptConfig struct {
	Timeout Duration `toml:"timeout"`
}

// MesherConfig holds the meshing hypothesis and geometric tolerance.
type MesherConfig struct {
	Dimension int     `toml:"dimension"`
	Tolerance float64 `toml:"tolerance"`
}

// KernelConfig configures the CAD-query kernel.
type KernelConfig struct {
	Cells   int    `toml:"cells"`    // marching cubes resolution for solid shapes
	BaseDir string `toml:"base_dir"` // relative STL paths resolve here; empty means the script directory
}

// OutputConfig selects where and how meshes are written.
type OutputConfig struct {
	Format string `toml:"format"`
	Dir    string `toml:"dir"`
}

// Duration is a time.Duration written as a string ("5s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Output formats.
const (
	FormatSTL  = "stl"
	FormatGmsh = "gmsh"
	FormatJSON = "json"
)

var availableFormats = []string{FormatSTL, FormatGmsh, FormatJSON}

var availableLoggingLevels = []string{"panic", "fatal", "error", "warn", "info", "debug"}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info"},
		Script: ScriptConfig{Timeout: Duration{5 * time.Second}},
		Mesher: MesherConfig{Dimension: mesher.DefaultHypothesis().Dimension, Tolerance: mesher.DefaultTolerance},
		Kernel: KernelConfig{Cells: 64},
		Output: OutputConfig{Format: FormatGmsh},
	}
}

// Load reads path over the defaults. Keys the configuration does not know
// are rejected.
func Load(path string) (Config, error) {
	conf := Default()
	md, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config: %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := conf.Check(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return conf, nil
}

// Hypothesis returns the meshing hypothesis.
func (c Config) Hypothesis() mesher.Hypothesis {
	return mesher.Hypothesis{Dimension: c.Mesher.Dimension}
}

type checkFunc func(conf *Config) error

// Check validates every field.
func (c *Config) Check() error {
	checkFuncs := []checkFunc{
		checkLoggingLevel,
		checkTimeout,
		checkMesher,
		checkKernel,
		checkOutput,
	}
	for _, f := range checkFuncs {
		if err := f(c); err != nil {
			return err
		}
	}
	return nil
}

func checkLoggingLevel(conf *Config) error {
	conf.Log.Level = strings.ToLower(conf.Log.Level)
	if !contains(availableLoggingLevels, conf.Log.Level) {
		return fmt.Errorf("invalid logging level %q, one of: %s", conf.Log.Level, strings.Join(availableLoggingLevels, ", "))
	}
	return nil
}

func checkTimeout(conf *Config) error {
	if conf.Script.Timeout.Duration <= 0 {
		return fmt.Errorf("script timeout %s must be positive", conf.Script.Timeout)
	}
	return nil
}

func checkMesher(conf *Config) error {
	if err := conf.Hypothesis().Validate(); err != nil {
		return err
	}
	if conf.Mesher.Tolerance <= 0 {
		return fmt.Errorf("mesher tolerance %g must be positive", conf.Mesher.Tolerance)
	}
	return nil
}

func checkKernel(conf *Config) error {
	if conf.Kernel.Cells < 8 {
		return fmt.Errorf("kernel cells %d must be at least 8", conf.Kernel.Cells)
	}
	return nil
}

func checkOutput(conf *Config) error {
	conf.Output.Format = strings.ToLower(conf.Output.Format)
	if !contains(availableFormats, conf.Output.Format) {
		return fmt.Errorf("invalid output format %q, one of: %s", conf.Output.Format, strings.Join(availableFormats, ", "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}
