package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mlo-sweep/mlo-sweep/experiment"
	"github.com/mlo-sweep/mlo-sweep/experiment/reference"
)

// sweepCmd prints the sweep points without running anything
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Print the offered-load sweep (aggregate and per-station load)",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, _, err := loadExperimentConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid experiment config: %v", err)
		}
		sweep, err := experiment.GenerateSweep(cfg)
		if err != nil {
			logrus.Fatalf("Could not generate sweep: %v", err)
		}
		if err := writeSweep(os.Stdout, sweep); err != nil {
			logrus.Fatalf("Could not write sweep: %v", err)
		}
	},
}

// referenceCmd prints the model curves of one CWmin variant
var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Print the analytical-model reference curves for a CWmin variant",
	Run: func(cmd *cobra.Command, args []string) {
		table, err := loadReferenceTable()
		if err != nil {
			logrus.Fatalf("Could not load reference curves: %v", err)
		}
		variant, err := table.Lookup(cwMin)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := writeVariant(os.Stdout, variant); err != nil {
			logrus.Fatalf("Could not write reference curves: %v", err)
		}
	},
}

// writeSweep writes one "aggregate,per_station" line per point after a header.
func writeSweep(w io.Writer, sweep []experiment.SweepPoint) error {
	if _, err := fmt.Fprintln(w, "aggregate_load,per_station_load"); err != nil {
		return err
	}
	for _, p := range sweep {
		line := strconv.FormatFloat(p.AggregateLoad, 'f', -1, 64) + "," + strconv.FormatFloat(p.PerStationLoad, 'f', -1, 64)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// writeVariant writes v as YAML in the reference-table layout.
func writeVariant(w io.Writer, v reference.Variant) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&reference.Table{Entries: []reference.Variant{v}}); err != nil {
		return fmt.Errorf("encoding reference variant: %w", err)
	}
	return enc.Close()
}

func init() {
	registerConfigFlags(sweepCmd)
	rootCmd.AddCommand(sweepCmd)

	referenceCmd.Flags().IntVar(&cwMin, "cwmin", experiment.DefaultConfig().CWMin, "Contention window minimum")
	referenceCmd.Flags().StringVar(&referenceFile, "reference-file", "", "YAML reference-curve table (default: built-in CWmin 16/128 curves)")
	rootCmd.AddCommand(referenceCmd)
}
