// Package config provides configuration loading and access for the pitch
// control model.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/pitchcontrol/influence"
	"github.com/pthm-cable/pitchcontrol/pitch"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Environment variables that override loaded values.
const (
	EnvWorkers   = "PITCHCONTROL_WORKERS"
	EnvLogLevel  = "PITCHCONTROL_LOG_LEVEL"
	EnvOutputDir = "PITCHCONTROL_OUTPUT_DIR"
)

// Config holds all model and runtime configuration.
type Config struct {
	Pitch     PitchConfig     `yaml:"pitch"`
	Grid      GridConfig      `yaml:"grid"`
	Model     ModelConfig     `yaml:"model"`
	Parallel  ParallelConfig  `yaml:"parallel"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Output    OutputConfig    `yaml:"output"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PitchConfig holds the field dimensions. The pitch is centred on the origin.
type PitchConfig struct {
	Length float64 `yaml:"length"` // metres along x
	Width  float64 `yaml:"width"`  // metres along y
}

// GridConfig holds the sampling lattice resolution.
type GridConfig struct {
	Cols int `yaml:"cols"` // samples along x, edges included
	Rows int `yaml:"rows"` // samples along y, edges included
}

// ModelConfig holds the reach distribution constants.
type ModelConfig struct {
	MaxSpeed        float64 `yaml:"max_speed"`        // m/s at which the ellipse fully stretches
	BaseRadius      float64 `yaml:"base_radius"`      // radius for a player on the ball
	FarRadius       float64 `yaml:"far_radius"`       // radius at or past radius_threshold
	RadiusThreshold float64 `yaml:"radius_threshold"` // ball distance where radius snaps
	RadiusDivisor   float64 `yaml:"radius_divisor"`   // cubic growth divisor
	Lookahead       float64 `yaml:"lookahead"`        // fraction of velocity added to the mean
	Decimals        int     `yaml:"decimals"`         // influence rounding (-1 disables)
}

// ParallelConfig holds worker settings.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold"` // min grid cells before a surface is chunked
}

// TelemetryConfig holds logging and perf parameters.
type TelemetryConfig struct {
	LogLevel   string `yaml:"log_level"`
	PerfWindow int    `yaml:"perf_window"` // evaluations averaged in perf stats
}

// OutputConfig holds CSV export settings.
type OutputConfig struct {
	Dir               string `yaml:"dir"`                 // empty = no files written
	WriteTeamSurfaces bool   `yaml:"write_team_surfaces"` // include offense/defense columns
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Pitch    pitch.Pitch
	Workers  int        // effective worker count
	CellSize [2]float64 // grid spacing in metres (x, y)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. Environment overrides
// are applied last.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Parallel.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Telemetry.LogLevel = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Output.Dir = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.Pitch.Length <= 0 || c.Pitch.Width <= 0 {
		return fmt.Errorf("pitch dimensions must be positive, got %vx%v", c.Pitch.Length, c.Pitch.Width)
	}
	if c.Grid.Cols < 2 || c.Grid.Rows < 2 {
		return fmt.Errorf("grid needs at least 2x2 samples, got %dx%d", c.Grid.Cols, c.Grid.Rows)
	}
	if c.Parallel.Workers < 0 {
		return fmt.Errorf("parallel.workers must not be negative, got %d", c.Parallel.Workers)
	}
	if err := c.InfluenceModel().Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Pitch = pitch.Pitch{Length: c.Pitch.Length, Width: c.Pitch.Width}

	c.Derived.Workers = c.Parallel.Workers
	if c.Derived.Workers == 0 {
		c.Derived.Workers = runtime.GOMAXPROCS(0)
	}

	c.Derived.CellSize = [2]float64{
		c.Pitch.Length / float64(c.Grid.Cols-1),
		c.Pitch.Width / float64(c.Grid.Rows-1),
	}
}

// InfluenceModel converts the model section into influence constants.
func (c *Config) InfluenceModel() influence.Model {
	return influence.Model{
		MaxSpeed:        c.Model.MaxSpeed,
		BaseRadius:      c.Model.BaseRadius,
		FarRadius:       c.Model.FarRadius,
		RadiusThreshold: c.Model.RadiusThreshold,
		RadiusDivisor:   c.Model.RadiusDivisor,
		Lookahead:       c.Model.Lookahead,
		Decimals:        c.Model.Decimals,
	}
}

// PitchGrid builds the configured sampling lattice over the pitch.
func (c *Config) PitchGrid() (pitch.Grid, error) {
	return pitch.NewPitchGrid(c.Derived.Pitch, c.Grid.Cols, c.Grid.Rows)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
