package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlo-sweep/mlo-sweep/experiment"
	"github.com/mlo-sweep/mlo-sweep/experiment/artifacts"
	"github.com/mlo-sweep/mlo-sweep/experiment/reference"
)

func fixedTime() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

// newConfigCommand returns a throwaway command with the experiment flags registered,
// parsed from args.
func newConfigCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	configPath, referenceFile, artifactDir = "", "", ""
	c := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	registerConfigFlags(c)
	c.Flags().StringVar(&artifactDir, "artifact-dir", "", "")
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestConfirmRemoval(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"YES\n", true},
		{"  Yes  \n", true},
		{"yes", true}, // no trailing newline at EOF
		{"y\n", false},
		{"no\n", false},
		{"\n", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			confirm := confirmRemoval(strings.NewReader(tt.input), &out)

			got, err := confirm("/tmp/wifi-mld.dat")

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Remove existing file /tmp/wifi-mld.dat? [Yes/No]: ", out.String())
		})
	}
}

func TestConfirmRemoval_ClosedInput_Error(t *testing.T) {
	confirm := confirmRemoval(strings.NewReader(""), &bytes.Buffer{})

	ok, err := confirm("wifi-mld.dat")

	assert.Error(t, err)
	assert.False(t, ok)
}

func TestLoadExperimentConfig_DefaultsWithoutFlags(t *testing.T) {
	c := newConfigCommand(t)

	cfg, baseDir, err := loadExperimentConfig(c)

	require.NoError(t, err)
	assert.Equal(t, experiment.DefaultConfig(), cfg)
	wd, _ := os.Getwd()
	assert.Equal(t, wd, baseDir)
}

func TestLoadExperimentConfig_FlagsOverrideFileOnlyWhenSet(t *testing.T) {
	// GIVEN a config file selecting CWmin 128 and 10 stations
	dir := t.TempDir()
	path := filepath.Join(dir, "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cwmin: 128\nstation_count: 10\non_stale_file: abort\n"), 0644))

	// WHEN only --stations is given on the command line
	c := newConfigCommand(t, "--config", path, "--stations", "40")
	cfg, baseDir, err := loadExperimentConfig(c)

	// THEN the flag wins for stations and the file wins everywhere else
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.StationCount)
	assert.Equal(t, 128, cfg.CWMin, "unset --cwmin must not clobber the file value")
	assert.Equal(t, experiment.StaleAbort, cfg.OnStaleFile)
	assert.Equal(t, dir, baseDir, "relative paths resolve against the config file's directory")
}

func TestLoadExperimentConfig_InvalidOverrideRejected(t *testing.T) {
	c := newConfigCommand(t, "--on-stale-file", "ask")

	_, _, err := loadExperimentConfig(c)

	assert.ErrorIs(t, err, experiment.ErrInvalidConfig)
}

func TestLoadExperimentConfig_UnknownFileKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("station_cout: 10\n"), 0644))
	c := newConfigCommand(t, "--config", path)

	_, _, err := loadExperimentConfig(c)

	assert.Error(t, err)
}

func TestWriteSweep(t *testing.T) {
	cfg := experiment.DefaultConfig()
	sweep, err := experiment.GenerateSweep(cfg)
	require.NoError(t, err)
	var buf bytes.Buffer

	require.NoError(t, writeSweep(&buf, sweep))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 21)
	assert.Equal(t, "aggregate_load,per_station_load", lines[0])
	assert.Equal(t, "0.003,0.00015", lines[1])
	assert.Equal(t, "0.06,0.003", lines[20])
}

func TestWriteVariant_ParsesBackAsTable(t *testing.T) {
	// GIVEN the built-in CWmin 128 variant
	table, err := reference.Default()
	require.NoError(t, err)
	v, err := table.Lookup(128)
	require.NoError(t, err)
	var buf bytes.Buffer

	// WHEN it is printed
	require.NoError(t, writeVariant(&buf, v))

	// THEN the output is itself a valid reference table holding the same variant
	parsed, err := reference.Parse(buf.Bytes())
	require.NoError(t, err)
	got, err := parsed.Lookup(128)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestReplotOptions_RequiresSource(t *testing.T) {
	c := newConfigCommand(t)

	_, err := replotOptions(c)

	assert.Error(t, err)
}

func TestReplotOptions_ResultFileRelativeToWorkingDir(t *testing.T) {
	c := newConfigCommand(t, "--result-file", "some/wifi-mld.dat")

	opts, err := replotOptions(c)

	require.NoError(t, err)
	want, _ := filepath.Abs("some/wifi-mld.dat")
	assert.Equal(t, want, opts.Paths.ResultFile)
	assert.Nil(t, opts.Store)
}

func TestReplotOptions_ArtifactDirReusesRecordedConfig(t *testing.T) {
	// GIVEN an experiment directory whose metadata records a CWmin 128 run
	store, err := artifacts.Create(t.TempDir(), "11be-mlo", fixedTime())
	require.NoError(t, err)
	cfg := experiment.DefaultConfig()
	cfg.CWMin = 128
	require.NoError(t, store.SaveMetadata(artifacts.Metadata{
		ExperimentID: cfg.ExperimentID,
		Config:       cfg,
		ResultFile:   "wifi-mld.dat",
	}))

	// WHEN replot targets that directory
	c := newConfigCommand(t, "--artifact-dir", store.Dir)
	opts, err := replotOptions(c)

	// THEN the recorded config and file are used and output stays in place
	require.NoError(t, err)
	assert.Equal(t, 128, opts.Config.CWMin)
	assert.Equal(t, store.Path("wifi-mld.dat"), opts.Paths.ResultFile)
	require.NotNil(t, opts.Store)
	assert.Equal(t, store.Dir, opts.Store.Dir)
}

func TestReplotOptions_ArtifactDirWithoutResultFile(t *testing.T) {
	store, err := artifacts.Create(t.TempDir(), "11be-mlo", fixedTime())
	require.NoError(t, err)
	require.NoError(t, store.SaveMetadata(artifacts.Metadata{Config: experiment.DefaultConfig()}))
	c := newConfigCommand(t, "--artifact-dir", store.Dir)

	_, err = replotOptions(c)

	assert.Error(t, err)
}

func TestReplotOptions_MissingArtifactDir(t *testing.T) {
	c := newConfigCommand(t, "--artifact-dir", filepath.Join(t.TempDir(), "nope"))

	_, err := replotOptions(c)

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
