package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mlo-sweep/mlo-sweep/experiment"
	"github.com/mlo-sweep/mlo-sweep/experiment/artifacts"
	"github.com/mlo-sweep/mlo-sweep/experiment/pipeline"
)

var artifactDir string // Existing experiment directory to re-plot in place

// replotCmd rebuilds the plots from an existing result file without running the simulator
var replotCmd = &cobra.Command{
	Use:   "replot",
	Short: "Re-parse an existing result file and rebuild the comparison plots",
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := replotOptions(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), interruptSignals()...)
		defer stop()

		p, err := pipeline.New(opts)
		if err != nil {
			logrus.Fatalf("Invalid experiment: %v", err)
		}
		if err := p.Analyze(ctx); err != nil {
			stop()
			logrus.Fatalf("Replot failed: %v", err)
		}
		logrus.Infof("Plots written to %s", p.Store().Dir)
	},
}

// replotOptions prepares an analysis-only pipeline. With --artifact-dir the config and
// result file recorded in that directory are reused and the plots are rewritten there;
// otherwise --result-file names the file and a new experiment directory is created.
func replotOptions(cmd *cobra.Command) (pipeline.Options, error) {
	table, err := loadReferenceTable()
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("could not load reference curves: %w", err)
	}

	if artifactDir != "" {
		store, err := artifacts.Open(artifactDir)
		if err != nil {
			return pipeline.Options{}, err
		}
		md, err := artifacts.LoadMetadata(store.Dir)
		if err != nil {
			return pipeline.Options{}, err
		}
		if md.ResultFile == "" {
			return pipeline.Options{}, fmt.Errorf("%s records no result file", store.Path(artifacts.MetadataFile))
		}
		cfg := md.Config
		if cmd.Flags().Changed("cwmin") {
			cfg.CWMin = cwMin
		}
		paths := experiment.Paths{
			SimulatorWorkDir: store.Dir,
			ResultFile:       store.Path(md.ResultFile),
			ArtifactRoot:     filepath.Dir(store.Dir),
		}
		return pipeline.Options{Config: cfg, Paths: paths, Reference: table, Store: store}, nil
	}

	if !cmd.Flags().Changed("result-file") {
		return pipeline.Options{}, fmt.Errorf("replot needs --result-file or --artifact-dir")
	}
	cfg, baseDir, err := loadExperimentConfig(cmd)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("invalid experiment config: %w", err)
	}
	paths, err := cfg.ResolvePaths(baseDir)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("could not resolve paths: %w", err)
	}
	// The file named on the command line is relative to where the user is, not to
	// the simulator directory.
	if paths.ResultFile, err = filepath.Abs(resultFile); err != nil {
		return pipeline.Options{}, fmt.Errorf("could not resolve result file: %w", err)
	}
	paths.SimulatorWorkDir = filepath.Dir(paths.ResultFile)
	return pipeline.Options{Config: cfg, Paths: paths, Reference: table}, nil
}

func init() {
	registerConfigFlags(replotCmd)
	replotCmd.Flags().StringVar(&artifactDir, "artifact-dir", "", "Existing experiment directory to re-plot in place")
	rootCmd.AddCommand(replotCmd)
}
