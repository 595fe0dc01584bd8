package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mlo-sweep/mlo-sweep/experiment/pipeline"
)

// runCmd sweeps the offered load, runs ns-3 once per point and stores the comparison plots
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full sweep against the simulator and plot it against the model",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, baseDir, err := loadExperimentConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid experiment config: %v", err)
		}
		paths, err := cfg.ResolvePaths(baseDir)
		if err != nil {
			logrus.Fatalf("Could not resolve paths: %v", err)
		}
		table, err := loadReferenceTable()
		if err != nil {
			logrus.Fatalf("Could not load reference curves: %v", err)
		}

		logrus.Infof("Starting experiment %s: %d stations, %gs per run, cwmin=%d, simulator=%s",
			cfg.ExperimentID, cfg.StationCount, cfg.SimulationTime, cfg.CWMin, paths.SimulatorBinary)

		ctx, stop := signal.NotifyContext(context.Background(), interruptSignals()...)
		defer stop()

		p, err := pipeline.New(pipeline.Options{
			Config:    cfg,
			Paths:     paths,
			Reference: table,
			Confirm:   confirmRemoval(os.Stdin, os.Stdout),
		})
		if err != nil {
			logrus.Fatalf("Invalid experiment: %v", err)
		}
		if err := p.Run(ctx); err != nil {
			stop()
			logrus.Fatalf("Experiment failed: %v", err)
		}
		logrus.Info("Experiment complete.")
	},
}

// confirmRemoval asks on out and reads the answer from in. Only "yes", in any case,
// allows removal.
func confirmRemoval(in io.Reader, out io.Writer) pipeline.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(path string) (bool, error) {
		if _, err := fmt.Fprintf(out, "Remove existing file %s? [Yes/No]: ", path); err != nil {
			return false, err
		}
		answer, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || answer == "") {
			return false, fmt.Errorf("reading answer: %w", err)
		}
		return strings.EqualFold(strings.TrimSpace(answer), "yes"), nil
	}
}

func init() {
	registerConfigFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
