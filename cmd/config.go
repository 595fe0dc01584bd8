package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mlo-sweep/mlo-sweep/experiment"
	"github.com/mlo-sweep/mlo-sweep/experiment/reference"
)

var (
	// Experiment config file and overrides. Flags win over the file only when set explicitly.
	configPath     string  // YAML experiment config
	experimentID   string  // Prefix of the artifact directory name
	stationCount   int     // Number of MLD stations
	simulationTime float64 // Simulated seconds per run
	payloadSize    int     // Application payload in bytes
	rngSeed        int64   // ns-3 RngRun
	loadSamples    int     // Number of sweep points
	loadLow        float64 // Lowest aggregate offered load
	loadHigh       float64 // Highest aggregate offered load
	cwMin          int     // Contention-window variant
	onStaleFile    string  // abort, overwrite or prompt

	// Paths
	simulatorBinary string // ns-3 launcher
	simulatorDir    string // Directory the simulator runs in
	resultFile      string // Shared result file the simulator appends to
	artifactRoot    string // Parent of experiment directories
	referenceFile   string // Optional reference-curve table replacing the built-in one
)

// registerConfigFlags binds the experiment config flags to cmd. Defaults mirror
// experiment.DefaultConfig so that help text shows the effective values.
func registerConfigFlags(cmd *cobra.Command) {
	d := experiment.DefaultConfig()
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML experiment config")
	cmd.Flags().StringVar(&experimentID, "experiment-id", d.ExperimentID, "Experiment identifier used in the artifact directory name")
	cmd.Flags().IntVar(&stationCount, "stations", d.StationCount, "Number of MLD stations")
	cmd.Flags().Float64Var(&simulationTime, "simulation-time", d.SimulationTime, "Simulated time per run (seconds)")
	cmd.Flags().IntVar(&payloadSize, "payload-size", d.PayloadSize, "Application payload size (bytes)")
	cmd.Flags().Int64Var(&rngSeed, "seed", d.RngSeed, "Simulator RNG run number")
	cmd.Flags().IntVar(&loadSamples, "samples", d.LoadSamples, "Number of offered-load samples")
	cmd.Flags().Float64Var(&loadLow, "load-low", d.LoadRange.Low, "Lowest aggregate offered load")
	cmd.Flags().Float64Var(&loadHigh, "load-high", d.LoadRange.High, "Highest aggregate offered load")
	cmd.Flags().IntVar(&cwMin, "cwmin", d.CWMin, "Contention window minimum (selects reference curves and simulator flags)")
	cmd.Flags().StringVar(&onStaleFile, "on-stale-file", string(d.OnStaleFile), "Existing result file policy: abort, overwrite, prompt")
	cmd.Flags().StringVar(&simulatorBinary, "simulator", d.Paths.SimulatorBinary, "Path to the ns3 launcher")
	cmd.Flags().StringVar(&simulatorDir, "simulator-dir", d.Paths.SimulatorWorkDir, "Simulator working directory (default: directory of --simulator)")
	cmd.Flags().StringVar(&resultFile, "result-file", d.Paths.ResultFile, "Result file the simulator appends to")
	cmd.Flags().StringVar(&artifactRoot, "artifact-root", d.Paths.ArtifactRoot, "Directory that receives experiment directories")
	cmd.Flags().StringVar(&referenceFile, "reference-file", "", "YAML reference-curve table (default: built-in CWmin 16/128 curves)")
}

// loadExperimentConfig builds the effective config: defaults, then the --config file,
// then explicitly set flags. The returned base directory anchors relative paths: the
// config file's directory when one is given, the working directory otherwise.
func loadExperimentConfig(cmd *cobra.Command) (experiment.Config, string, error) {
	cfg := experiment.DefaultConfig()
	baseDir, err := os.Getwd()
	if err != nil {
		return experiment.Config{}, "", fmt.Errorf("resolving working directory: %w", err)
	}
	if configPath != "" {
		cfg, err = experiment.LoadConfig(configPath)
		if err != nil {
			return experiment.Config{}, "", err
		}
		baseDir = filepath.Dir(configPath)
	}
	applyFlagOverrides(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return experiment.Config{}, "", err
	}
	return cfg, baseDir, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *experiment.Config) {
	flags := cmd.Flags()
	if flags.Changed("experiment-id") {
		cfg.ExperimentID = experimentID
	}
	if flags.Changed("stations") {
		cfg.StationCount = stationCount
	}
	if flags.Changed("simulation-time") {
		cfg.SimulationTime = simulationTime
	}
	if flags.Changed("payload-size") {
		cfg.PayloadSize = payloadSize
	}
	if flags.Changed("seed") {
		cfg.RngSeed = rngSeed
	}
	if flags.Changed("samples") {
		cfg.LoadSamples = loadSamples
	}
	if flags.Changed("load-low") {
		cfg.LoadRange.Low = loadLow
	}
	if flags.Changed("load-high") {
		cfg.LoadRange.High = loadHigh
	}
	if flags.Changed("cwmin") {
		cfg.CWMin = cwMin
	}
	if flags.Changed("on-stale-file") {
		cfg.OnStaleFile = experiment.StalePolicy(onStaleFile)
	}
	if flags.Changed("simulator") {
		cfg.Paths.SimulatorBinary = simulatorBinary
	}
	if flags.Changed("simulator-dir") {
		cfg.Paths.SimulatorWorkDir = simulatorDir
	}
	if flags.Changed("result-file") {
		cfg.Paths.ResultFile = resultFile
	}
	if flags.Changed("artifact-root") {
		cfg.Paths.ArtifactRoot = artifactRoot
	}
}

// loadReferenceTable returns the --reference-file table, or the built-in one.
func loadReferenceTable() (*reference.Table, error) {
	if referenceFile == "" {
		return reference.Default()
	}
	return reference.Load(referenceFile)
}
