// Package simulator invokes the external ns-3 program once per sweep point. The program
// appends its metrics to the shared result file; nothing here reads its output.
package simulator

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mlo-sweep/mlo-sweep/experiment"
)

// Invocation is one simulator run.
type Invocation struct {
	Index int                   // position in the sweep
	Point experiment.SweepPoint // load applied by the run
	Args  []string              // arguments after the simulator binary
}

// CommandLine renders the invocation for logs and provenance.
func (inv Invocation) CommandLine(binary string) string {
	quoted := make([]string, len(inv.Args))
	for i, a := range inv.Args {
		if strings.ContainsAny(a, " \t") {
			a = "'" + a + "'"
		}
		quoted[i] = a
	}
	return binary + " " + strings.Join(quoted, " ")
}

// Runner executes one invocation and blocks until the simulator exits.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// ProgramLine builds the ns-3 program string for one sweep point, e.g.
// "single-bss-mld --rngRun=1 --payloadSize=1500 --mldPerNodeLambda=0.00015 --nMldSta=20 --simulationTime=60".
// variantArgs are appended verbatim.
func ProgramLine(cfg experiment.Config, point experiment.SweepPoint, variantArgs []string) string {
	parts := []string{
		cfg.Program,
		"--rngRun=" + strconv.FormatInt(cfg.RngSeed, 10),
		"--payloadSize=" + strconv.Itoa(cfg.PayloadSize),
		"--mldPerNodeLambda=" + strconv.FormatFloat(point.PerStationLoad, 'f', -1, 64),
		"--nMldSta=" + strconv.Itoa(cfg.StationCount),
		"--simulationTime=" + strconv.FormatFloat(cfg.SimulationTime, 'f', -1, 64),
	}
	parts = append(parts, variantArgs...)
	return strings.Join(parts, " ")
}

// BuildInvocations returns one "run '<program line>'" invocation per sweep point, in
// sweep order.
func BuildInvocations(cfg experiment.Config, sweep []experiment.SweepPoint, variantArgs []string) []Invocation {
	invs := make([]Invocation, len(sweep))
	for i, p := range sweep {
		invs[i] = Invocation{
			Index: i,
			Point: p,
			Args:  []string{"run", ProgramLine(cfg, p, variantArgs)},
		}
	}
	return invs
}

// CheckBinary reports ErrMissingCollaborator unless path names an existing file.
func CheckBinary(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: simulator binary %s: %v", experiment.ErrMissingCollaborator, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: simulator binary %s is a directory", experiment.ErrMissingCollaborator, path)
	}
	return nil
}

// ExecRunner runs the simulator as a child process in its work directory.
type ExecRunner struct {
	Binary  string
	WorkDir string
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewExecRunner creates a runner that passes the simulator's output through to ours.
func NewExecRunner(binary, workDir string) *ExecRunner {
	return &ExecRunner{
		Binary:  binary,
		WorkDir: workDir,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run executes inv. Cancelling ctx kills the child process.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	cmd := exec.CommandContext(ctx, r.Binary, inv.Args...)
	cmd.Dir = r.WorkDir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	logrus.Debugf("exec: %s (dir %s)", inv.CommandLine(r.Binary), r.WorkDir)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("simulator run %d (lambda=%g): %w", inv.Index, inv.Point.PerStationLoad, err)
	}
	return nil
}
