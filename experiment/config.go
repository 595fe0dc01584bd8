package experiment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StalePolicy decides what happens to a result file left over from a previous run.
type StalePolicy string

const (
	// StaleAbort refuses to start while a stale result file exists.
	StaleAbort StalePolicy = "abort"
	// StaleOverwrite removes the stale file without asking.
	StaleOverwrite StalePolicy = "overwrite"
	// StalePrompt asks an injected confirmation callback.
	StalePrompt StalePolicy = "prompt"
)

var validStalePolicies = map[StalePolicy]bool{
	StaleAbort:     true,
	StaleOverwrite: true,
	StalePrompt:    true,
}

// IsValidStalePolicy reports whether name is a recognized stale-file policy.
func IsValidStalePolicy(name string) bool {
	return validStalePolicies[StalePolicy(name)]
}

// LoadRange is the closed interval of aggregate offered load swept by an experiment.
type LoadRange struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Paths locates the external collaborators. Relative entries are resolved once by
// ResolvePaths; the pipeline only ever sees absolute paths.
type Paths struct {
	SimulatorBinary  string `yaml:"simulator_binary"`
	SimulatorWorkDir string `yaml:"simulator_workdir,omitempty"` // empty = directory of SimulatorBinary
	ResultFile       string `yaml:"result_file"`                 // relative to SimulatorWorkDir
	ArtifactRoot     string `yaml:"artifact_root"`
}

// Config describes one experiment. Loaded from YAML via LoadConfig(path) on top of
// DefaultConfig().
type Config struct {
	ExperimentID   string      `yaml:"experiment_id"`
	Program        string      `yaml:"program"`         // ns-3 program passed to "<binary> run"
	StationCount   int         `yaml:"station_count"`   // number of MLD stations
	SimulationTime float64     `yaml:"simulation_time"` // seconds of simulated time per run
	PayloadSize    int         `yaml:"payload_size"`    // bytes
	RngSeed        int64       `yaml:"rng_seed"`
	LoadSamples    int         `yaml:"load_samples"`
	LoadRange      LoadRange   `yaml:"load_range"`
	CWMin          int         `yaml:"cwmin"` // contention-window variant; selects reference curves
	OnStaleFile    StalePolicy `yaml:"on_stale_file"`
	Paths          Paths       `yaml:"paths"`
}

// DefaultConfig returns the 11be MLO latency experiment: 20 stations, 60 s runs, 1500 B
// payload, 20 load samples over [0.003, 0.06], CWmin 16.
func DefaultConfig() Config {
	return Config{
		ExperimentID:   "11be-mlo",
		Program:        "single-bss-mld",
		StationCount:   20,
		SimulationTime: 60,
		PayloadSize:    1500,
		RngSeed:        1,
		LoadSamples:    20,
		LoadRange:      LoadRange{Low: 0.003, High: 0.06},
		CWMin:          16,
		OnStaleFile:    StalePrompt,
		Paths: Paths{
			SimulatorBinary: "../../../../ns3",
			ResultFile:      "wifi-mld.dat",
			ArtifactRoot:    "results",
		},
	}
}

// LoadConfig reads an experiment YAML file over the defaults.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading experiment config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML experiment config bytes over DefaultConfig().
// An empty document yields the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing experiment config: %w", err)
	}
	return cfg, nil
}

// Validate checks that all fields are usable. A zero StationCount is left to
// GenerateSweep, which reports it as ErrDivisionByZero.
func (c *Config) Validate() error {
	if c.ExperimentID == "" {
		return fmt.Errorf("%w: experiment_id must not be empty", ErrInvalidConfig)
	}
	if c.Program == "" {
		return fmt.Errorf("%w: program must not be empty", ErrInvalidConfig)
	}
	if c.StationCount < 0 {
		return fmt.Errorf("%w: station_count must be non-negative, got %d", ErrInvalidConfig, c.StationCount)
	}
	if err := validateFinitePositive("simulation_time", c.SimulationTime); err != nil {
		return err
	}
	if c.PayloadSize <= 0 {
		return fmt.Errorf("%w: payload_size must be positive, got %d", ErrInvalidConfig, c.PayloadSize)
	}
	if c.LoadSamples < 1 {
		return fmt.Errorf("%w: load_samples must be at least 1, got %d", ErrInvalidConfig, c.LoadSamples)
	}
	if err := validateFinitePositive("load_range.low", c.LoadRange.Low); err != nil {
		return err
	}
	if err := validateFinitePositive("load_range.high", c.LoadRange.High); err != nil {
		return err
	}
	if c.LoadRange.Low > c.LoadRange.High {
		return fmt.Errorf("%w: load_range.low (%g) exceeds load_range.high (%g)", ErrInvalidConfig, c.LoadRange.Low, c.LoadRange.High)
	}
	if c.CWMin <= 0 {
		return fmt.Errorf("%w: cwmin must be positive, got %d", ErrInvalidConfig, c.CWMin)
	}
	if !IsValidStalePolicy(string(c.OnStaleFile)) {
		return fmt.Errorf("%w: unknown on_stale_file %q; valid: abort, overwrite, prompt", ErrInvalidConfig, c.OnStaleFile)
	}
	if c.Paths.SimulatorBinary == "" || c.Paths.ResultFile == "" || c.Paths.ArtifactRoot == "" {
		return fmt.Errorf("%w: paths.simulator_binary, paths.result_file and paths.artifact_root are required", ErrInvalidConfig)
	}
	return nil
}

// ResolvePaths returns Paths with every entry made absolute. Relative simulator, work
// directory and artifact paths are taken relative to baseDir; a relative result file is
// taken relative to the simulator work directory, which is where ns-3 writes it.
func (c *Config) ResolvePaths(baseDir string) (Paths, error) {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return Paths{}, fmt.Errorf("resolving base directory: %w", err)
	}
	abs := func(dir, p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(dir, p)
	}

	resolved := Paths{
		SimulatorBinary: abs(base, c.Paths.SimulatorBinary),
		ArtifactRoot:    abs(base, c.Paths.ArtifactRoot),
	}
	if c.Paths.SimulatorWorkDir == "" {
		resolved.SimulatorWorkDir = filepath.Dir(resolved.SimulatorBinary)
	} else {
		resolved.SimulatorWorkDir = abs(base, c.Paths.SimulatorWorkDir)
	}
	resolved.ResultFile = abs(resolved.SimulatorWorkDir, c.Paths.ResultFile)
	return resolved, nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%w: %s must be a finite number, got %f", ErrInvalidConfig, name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %f", ErrInvalidConfig, name, val)
	}
	return nil
}
