// Package pipeline runs one experiment end to end as a linear state machine:
//
//	Init → SweepGenerated → RunsSubmitted → ResultsParsed → PlotsBuilt → ArtifactsStored → Done
//
// Any stage may instead move the pipeline to Failed. There are no retries and no partial
// salvage: every failure is fatal, and the COMPLETE marker is written only from Done.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mlo-sweep/mlo-sweep/experiment"
	"github.com/mlo-sweep/mlo-sweep/experiment/artifacts"
	"github.com/mlo-sweep/mlo-sweep/experiment/comparison"
	"github.com/mlo-sweep/mlo-sweep/experiment/reference"
	"github.com/mlo-sweep/mlo-sweep/experiment/results"
	"github.com/mlo-sweep/mlo-sweep/experiment/runlog"
	"github.com/mlo-sweep/mlo-sweep/experiment/simulator"
)

// State is a pipeline stage.
type State string

const (
	StateInit            State = "init"
	StateSweepGenerated  State = "sweep_generated"
	StateRunsSubmitted   State = "runs_submitted"
	StateResultsParsed   State = "results_parsed"
	StatePlotsBuilt      State = "plots_built"
	StateArtifactsStored State = "artifacts_stored"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// ConfirmFunc asks whether the stale result file at path may be removed.
type ConfirmFunc func(path string) (bool, error)

// Options configures a Pipeline.
type Options struct {
	Config    experiment.Config
	Paths     experiment.Paths // already resolved; see Config.ResolvePaths
	Reference *reference.Table // nil = built-in table
	Runner    simulator.Runner // nil = ExecRunner on Paths.SimulatorBinary
	Confirm   ConfirmFunc      // consulted when Config.OnStaleFile is "prompt"
	Store     *artifacts.Store // nil = new timestamped directory under Paths.ArtifactRoot
	Now       func() time.Time // nil = time.Now
}

// Pipeline is a single-use experiment run.
type Pipeline struct {
	opts    Options
	state   State
	history []State
	err     error

	variant reference.Variant
	sweep   []experiment.SweepPoint
	runs    *runlog.Log
	series  *results.Series
	plots   []comparison.PlotSpec
	store   *artifacts.Store
}

// New validates opts and returns a pipeline in StateInit.
func New(opts Options) (*Pipeline, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Reference == nil {
		table, err := reference.Default()
		if err != nil {
			return nil, err
		}
		opts.Reference = table
	}
	if opts.Runner == nil {
		opts.Runner = simulator.NewExecRunner(opts.Paths.SimulatorBinary, opts.Paths.SimulatorWorkDir)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		opts:    opts,
		state:   StateInit,
		history: []State{StateInit},
		runs:    runlog.NewLog(),
	}, nil
}

// State returns the current state.
func (p *Pipeline) State() State { return p.state }

// History returns every state visited, in order.
func (p *Pipeline) History() []State { return slices.Clone(p.history) }

// Err returns the error that moved the pipeline to StateFailed.
func (p *Pipeline) Err() error { return p.err }

// Sweep returns the generated sweep points.
func (p *Pipeline) Sweep() []experiment.SweepPoint { return p.sweep }

// Series returns the parsed metric series.
func (p *Pipeline) Series() *results.Series { return p.series }

// Plots returns the built plot specifications.
func (p *Pipeline) Plots() []comparison.PlotSpec { return p.plots }

// Runs returns the per-run status log.
func (p *Pipeline) Runs() *runlog.Log { return p.runs }

// Store returns the artifact directory, or nil if it was never created.
func (p *Pipeline) Store() *artifacts.Store { return p.store }

// Run executes the full experiment: simulate every sweep point, then analyze.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.execute(ctx, true)
}

// Analyze skips the simulator and processes the result file already at
// Paths.ResultFile. The file is copied, not moved, into the artifact directory.
func (p *Pipeline) Analyze(ctx context.Context) error {
	return p.execute(ctx, false)
}

func (p *Pipeline) execute(ctx context.Context, simulate bool) error {
	if p.state != StateInit {
		return fmt.Errorf("pipeline already used (state %s)", p.state)
	}

	if err := p.prepare(ctx, simulate); err != nil {
		return p.fail(err)
	}
	p.enter(StateSweepGenerated)
	logrus.Infof("sweep: %d points, aggregate load %v", len(p.sweep), experiment.AggregateLoads(p.sweep))

	if simulate {
		if err := p.submitRuns(ctx); err != nil {
			return p.fail(err)
		}
		p.enter(StateRunsSubmitted)
	}

	if err := checkCtx(ctx); err != nil {
		return p.fail(err)
	}
	series, err := results.ParseFile(p.opts.Paths.ResultFile)
	if err != nil {
		return p.fail(err)
	}
	if err := series.CheckAligned(len(p.sweep)); err != nil {
		if s := runlog.Summarize(p.runs); len(s.SuspectIndexes) > 0 {
			err = fmt.Errorf("%w (suspect runs: %v)", err, s.SuspectIndexes)
		}
		return p.fail(err)
	}
	p.series = series
	p.enter(StateResultsParsed)

	plots, err := comparison.Build(p.sweep, p.series, p.variant)
	if err != nil {
		return p.fail(err)
	}
	p.plots = plots
	p.enter(StatePlotsBuilt)

	if err := p.storeArtifacts(ctx, simulate); err != nil {
		return p.fail(err)
	}
	p.enter(StateArtifactsStored)

	if err := p.store.MarkComplete(p.opts.Now()); err != nil {
		return p.fail(err)
	}
	p.enter(StateDone)
	logrus.Infof("experiment complete: %s", p.store.Dir)
	return nil
}

// prepare performs the Init-state checks and derives the sweep before anything on disk
// is removed or created.
func (p *Pipeline) prepare(ctx context.Context, simulate bool) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	variant, err := p.opts.Reference.Lookup(p.opts.Config.CWMin)
	if err != nil {
		return err
	}
	p.variant = variant
	logDivergence(variant)

	sweep, err := experiment.GenerateSweep(p.opts.Config)
	if err != nil {
		return err
	}

	if simulate {
		if err := simulator.CheckBinary(p.opts.Paths.SimulatorBinary); err != nil {
			return err
		}
		if err := p.guardStaleFile(); err != nil {
			return err
		}
	}

	if p.opts.Store != nil {
		// Re-processing an existing directory: it is not complete until this pass is.
		if p.opts.Store.IsComplete() {
			if err := p.opts.Store.ClearComplete(); err != nil {
				return err
			}
		}
		p.store = p.opts.Store
	} else {
		store, err := artifacts.Create(p.opts.Paths.ArtifactRoot, p.opts.Config.ExperimentID, p.opts.Now())
		if err != nil {
			return err
		}
		p.store = store
	}
	p.sweep = sweep
	return nil
}

func logDivergence(v reference.Variant) {
	curves := []struct {
		name  string
		curve reference.Curve
	}{
		{"queuing", v.Queuing},
		{"access", v.Access},
		{"e2e", v.E2E},
	}
	for _, c := range curves {
		if load, ok := c.curve.DivergesAt(); ok {
			logrus.Infof("cwmin %d: %s model diverges from load %g", v.CWMin, c.name, load)
		}
	}
}

// guardStaleFile clears a result file left by a previous experiment, or refuses to
// start: appending to it would misalign every record with the sweep.
func (p *Pipeline) guardStaleFile() error {
	path := p.opts.Paths.ResultFile
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking result file: %w", err)
	}

	remove := false
	switch p.opts.Config.OnStaleFile {
	case experiment.StaleOverwrite:
		remove = true
	case experiment.StalePrompt:
		if p.opts.Confirm == nil {
			return fmt.Errorf("%w: %s exists and no confirmation is available", experiment.ErrStaleState, path)
		}
		ok, err := p.opts.Confirm(path)
		if err != nil {
			return fmt.Errorf("%w: confirming removal of %s: %v", experiment.ErrStaleState, path, err)
		}
		remove = ok
	}
	if !remove {
		return fmt.Errorf("%w: %s exists from a previous run and was not removed", experiment.ErrStaleState, path)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: removing %s: %v", experiment.ErrStaleState, path, err)
	}
	logrus.Infof("removed %s", path)
	return nil
}

// submitRuns invokes the simulator once per sweep point, strictly in order.
func (p *Pipeline) submitRuns(ctx context.Context) error {
	invs := simulator.BuildInvocations(p.opts.Config, p.sweep, p.variant.SimulatorArgs)
	resultFile := p.opts.Paths.ResultFile

	for _, inv := range invs {
		if err := checkCtx(ctx); err != nil {
			return err
		}
		before, err := results.CountLines(resultFile)
		if err != nil {
			return err
		}

		logrus.Infof("running simulation %d/%d for lambda = %v", inv.Index+1, len(invs), inv.Point.PerStationLoad)
		start := time.Now()
		runErr := p.opts.Runner.Run(ctx, inv)
		elapsed := time.Since(start)

		if err := checkCtx(ctx); err != nil {
			return err
		}
		after, err := results.CountLines(resultFile)
		if err != nil {
			return err
		}

		status := runlog.RunStatus{
			Index:           inv.Index,
			AggregateLoad:   inv.Point.AggregateLoad,
			PerStationLoad:  inv.Point.PerStationLoad,
			Command:         inv.CommandLine(p.opts.Paths.SimulatorBinary),
			LinesAppended:   after - before,
			DurationSeconds: elapsed.Seconds(),
		}
		if runErr != nil {
			status.ExitError = runErr.Error()
			logrus.Warnf("run %d: %v", inv.Index, runErr)
		}
		if status.LinesAppended != 1 {
			logrus.Warnf("run %d appended %d result lines, expected 1", inv.Index, status.LinesAppended)
		}
		p.runs.Record(status)
	}

	s := runlog.Summarize(p.runs)
	logrus.Infof("runs: %d total, %d clean, %.1fs", s.TotalRuns, s.Succeeded, s.TotalDurationS)
	return nil
}

func (p *Pipeline) storeArtifacts(ctx context.Context, simulate bool) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	if _, err := p.store.SavePlots(p.plots); err != nil {
		return err
	}
	if err := p.store.SaveSeries(p.sweep, p.series); err != nil {
		return err
	}

	var resultPath string
	var err error
	if simulate {
		resultPath, err = p.store.MoveResultFile(p.opts.Paths.ResultFile)
	} else {
		resultPath, err = p.store.CopyResultFile(p.opts.Paths.ResultFile)
	}
	if err != nil {
		return err
	}

	// A re-plotted directory keeps the provenance of the runs that produced its data.
	if _, err := os.Stat(p.store.Path(artifacts.ProvenanceFile)); simulate || err != nil {
		if err := p.store.SaveProvenance(ctx, p.opts.Paths.SimulatorWorkDir); err != nil {
			return err
		}
	}
	return p.saveMetadata(resultPath)
}

// saveMetadata writes experiment.yaml. For an existing directory, the run statuses and
// result file recorded earlier are kept when this pass has none of its own.
func (p *Pipeline) saveMetadata(resultPath string) error {
	runs := p.runs
	resultFile := ""
	if resultPath != "" {
		resultFile = filepath.Base(resultPath)
	}
	if p.opts.Store != nil {
		if prev, err := artifacts.LoadMetadata(p.store.Dir); err == nil {
			if len(runs.Runs) == 0 {
				runs = &runlog.Log{Runs: prev.Runs}
			}
			if resultFile == "" {
				resultFile = prev.ResultFile
			}
		}
	}
	md := artifacts.Metadata{
		ExperimentID: p.opts.Config.ExperimentID,
		CreatedAt:    p.opts.Now().Format(time.RFC3339),
		Config:       p.opts.Config,
		Sweep:        p.sweep,
		Runs:         runs.Runs,
		ResultFile:   resultFile,
		RunSummary:   runlog.Summarize(runs),
	}
	return p.store.SaveMetadata(md)
}

func (p *Pipeline) enter(s State) {
	logrus.Debugf("pipeline: %s -> %s", p.state, s)
	p.state = s
	p.history = append(p.history, s)
}

// fail records err, moves to StateFailed and leaves whatever partial output exists
// without a success marker.
func (p *Pipeline) fail(err error) error {
	p.err = err
	failedIn := p.state
	p.enter(StateFailed)
	logrus.Errorf("experiment failed in %s: %v", failedIn, err)
	if p.store != nil {
		if merr := p.saveMetadata(""); merr != nil {
			logrus.Warnf("writing partial metadata: %v", merr)
		}
	}
	return err
}

func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", experiment.ErrInterrupted, err)
	}
	return nil
}
