// Package artifacts owns the per-experiment output directory: rendered plots, the
// relocated result file, the aligned series, provenance and run metadata. A COMPLETE
// marker is written last and only for a fully successful experiment.
package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mlo-sweep/mlo-sweep/experiment"
	"github.com/mlo-sweep/mlo-sweep/experiment/comparison"
	"github.com/mlo-sweep/mlo-sweep/experiment/results"
	"github.com/mlo-sweep/mlo-sweep/experiment/runlog"
)

// Fixed file names inside an experiment directory.
const (
	ProvenanceFile = "git-commit.txt"
	MetadataFile   = "experiment.yaml"
	SeriesFile     = "series.csv"
	SuccessMarker  = "COMPLETE"
	PlotExt        = "png"
)

const timestampLayout = "20060102-150405"

// Metadata is written to experiment.yaml.
type Metadata struct {
	ExperimentID string                  `yaml:"experiment_id"`
	CreatedAt    string                  `yaml:"created_at"`
	Config       experiment.Config       `yaml:"config"`
	Sweep        []experiment.SweepPoint `yaml:"sweep"`
	ResultFile   string                  `yaml:"result_file,omitempty"` // name inside the directory
	Runs         []runlog.RunStatus      `yaml:"runs,omitempty"`
	RunSummary   *runlog.Summary         `yaml:"run_summary,omitempty"`
}

// Store is one experiment directory.
type Store struct {
	Dir string
}

// DirName returns "<experimentID>-<YYYYmmdd-HHMMSS>".
func DirName(experimentID string, t time.Time) string {
	return fmt.Sprintf("%s-%s", experimentID, t.Format(timestampLayout))
}

// Create makes the experiment directory under root.
func Create(root, experimentID string, now time.Time) (*Store, error) {
	dir := filepath.Join(root, DirName(experimentID, now))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	logrus.Infof("artifacts: %s", dir)
	return &Store{Dir: dir}, nil
}

// Open uses an existing directory as a store.
func Open(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening artifact directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifact path %s is not a directory", dir)
	}
	return &Store{Dir: dir}, nil
}

// Path returns the path of name inside the store.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// SavePlots renders every plot as <name>.png.
func (s *Store) SavePlots(specs []comparison.PlotSpec) ([]string, error) {
	return comparison.RenderAll(specs, s.Dir, PlotExt)
}

// SaveSeries writes the aligned series as series.csv.
func (s *Store) SaveSeries(sweep []experiment.SweepPoint, series *results.Series) error {
	return results.ExportCSV(s.Path(SeriesFile), sweep, series)
}

// MoveResultFile relocates the shared result file into the store and returns its new
// path. A missing source is not an error; the returned path is then empty.
func (s *Store) MoveResultFile(src string) (string, error) {
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("result file %s not found; nothing to relocate", src)
		return "", nil
	}
	dst := s.Path(filepath.Base(src))
	if filepath.Clean(src) == filepath.Clean(dst) {
		return dst, nil
	}
	if err := os.Rename(src, dst); err != nil {
		// Rename fails across filesystems; fall back to copy and remove.
		if cerr := copyFile(src, dst); cerr != nil {
			return "", fmt.Errorf("relocating result file: %w", errors.Join(err, cerr))
		}
		if rerr := os.Remove(src); rerr != nil {
			return "", fmt.Errorf("removing relocated result file: %w", rerr)
		}
	}
	return dst, nil
}

// CopyResultFile copies src into the store, leaving the original in place. A missing
// source is an error.
func (s *Store) CopyResultFile(src string) (string, error) {
	dst := s.Path(filepath.Base(src))
	if filepath.Clean(src) == filepath.Clean(dst) {
		return dst, nil
	}
	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("copying result file: %w", err)
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// SaveProvenance records `git show --name-only` of repoDir in git-commit.txt. When git
// is unavailable the failure is written instead so the file always exists.
func (s *Store) SaveProvenance(ctx context.Context, repoDir string) error {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "show", "--name-only")
	cmd.Dir = repoDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	var content []byte
	if err := cmd.Run(); err != nil {
		logrus.Warnf("provenance unavailable for %s: %v", repoDir, err)
		content = []byte(fmt.Sprintf("git show --name-only failed in %s: %v\n%s", repoDir, err, stderr.String()))
	} else {
		content = stdout.Bytes()
	}
	if err := os.WriteFile(s.Path(ProvenanceFile), content, 0644); err != nil {
		return fmt.Errorf("writing provenance: %w", err)
	}
	return nil
}

// SaveMetadata writes md as experiment.yaml.
func (s *Store) SaveMetadata(md Metadata) error {
	data, err := yaml.Marshal(&md)
	if err != nil {
		return fmt.Errorf("marshaling experiment metadata: %w", err)
	}
	if err := os.WriteFile(s.Path(MetadataFile), data, 0644); err != nil {
		return fmt.Errorf("writing experiment metadata: %w", err)
	}
	return nil
}

// LoadMetadata reads experiment.yaml from dir.
func LoadMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("reading experiment metadata: %w", err)
	}
	var md Metadata
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&md); err != nil {
		return nil, fmt.Errorf("parsing experiment metadata: %w", err)
	}
	return &md, nil
}

// MarkComplete writes the success marker.
func (s *Store) MarkComplete(now time.Time) error {
	if err := os.WriteFile(s.Path(SuccessMarker), []byte(now.Format(time.RFC3339)+"\n"), 0644); err != nil {
		return fmt.Errorf("writing success marker: %w", err)
	}
	return nil
}

// ClearComplete removes the success marker. A missing marker is not an error.
func (s *Store) ClearComplete() error {
	if err := os.Remove(s.Path(SuccessMarker)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing success marker: %w", err)
	}
	return nil
}

// IsComplete reports whether the success marker exists.
func (s *Store) IsComplete() bool {
	_, err := os.Stat(s.Path(SuccessMarker))
	return err == nil
}
