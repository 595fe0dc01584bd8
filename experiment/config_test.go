package experiment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestParseConfig_OverridesDefaults(t *testing.T) {
	// GIVEN a YAML document setting only some fields
	data := []byte(`
experiment_id: cw128
cwmin: 128
load_range:
  low: 0.01
  high: 0.05
paths:
  simulator_binary: /opt/ns3/ns3
  result_file: out.dat
  artifact_root: /tmp/results
`)

	// WHEN parsed
	cfg, err := ParseConfig(data)
	require.NoError(t, err)

	// THEN set fields override and the rest keep defaults
	assert.Equal(t, "cw128", cfg.ExperimentID)
	assert.Equal(t, 128, cfg.CWMin)
	assert.Equal(t, LoadRange{Low: 0.01, High: 0.05}, cfg.LoadRange)
	assert.Equal(t, 20, cfg.StationCount)
	assert.Equal(t, 1500, cfg.PayloadSize)
	assert.Equal(t, "/opt/ns3/ns3", cfg.Paths.SimulatorBinary)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfig_UnknownField_Rejected(t *testing.T) {
	_, err := ParseConfig([]byte("station_cuont: 10\n"))
	assert.Error(t, err, "typos must cause errors")
}

func TestParseConfig_EmptyDocument_Defaults(t *testing.T) {
	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("station_count: 8\non_stale_file: overwrite\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.StationCount)
	assert.Equal(t, StaleOverwrite, cfg.OnStaleFile)
}

func TestConfig_Validate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty id", func(c *Config) { c.ExperimentID = "" }},
		{"empty program", func(c *Config) { c.Program = "" }},
		{"negative stations", func(c *Config) { c.StationCount = -1 }},
		{"zero time", func(c *Config) { c.SimulationTime = 0 }},
		{"zero payload", func(c *Config) { c.PayloadSize = 0 }},
		{"zero samples", func(c *Config) { c.LoadSamples = 0 }},
		{"inverted range", func(c *Config) { c.LoadRange = LoadRange{Low: 0.5, High: 0.1} }},
		{"negative low", func(c *Config) { c.LoadRange.Low = -0.1 }},
		{"zero cwmin", func(c *Config) { c.CWMin = 0 }},
		{"bad stale policy", func(c *Config) { c.OnStaleFile = "ask" }},
		{"missing result file", func(c *Config) { c.Paths.ResultFile = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_Validate_ZeroStationsLeftToSweep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StationCount = 0
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ResolvePaths(t *testing.T) {
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.Paths = Paths{
		SimulatorBinary: "ns3/ns3",
		ResultFile:      "wifi-mld.dat",
		ArtifactRoot:    "results",
	}

	paths, err := cfg.ResolvePaths(base)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "ns3", "ns3"), paths.SimulatorBinary)
	assert.Equal(t, filepath.Join(base, "ns3"), paths.SimulatorWorkDir)
	assert.Equal(t, filepath.Join(base, "ns3", "wifi-mld.dat"), paths.ResultFile)
	assert.Equal(t, filepath.Join(base, "results"), paths.ArtifactRoot)
}

func TestConfig_ResolvePaths_ExplicitWorkDirAndAbsoluteResult(t *testing.T) {
	base := t.TempDir()
	cfg := DefaultConfig()
	cfg.Paths = Paths{
		SimulatorBinary:  "/opt/ns3/ns3",
		SimulatorWorkDir: "work",
		ResultFile:       "/data/wifi-mld.dat",
		ArtifactRoot:     "/data/results",
	}

	paths, err := cfg.ResolvePaths(base)
	require.NoError(t, err)

	assert.Equal(t, "/opt/ns3/ns3", paths.SimulatorBinary)
	assert.Equal(t, filepath.Join(base, "work"), paths.SimulatorWorkDir)
	assert.Equal(t, "/data/wifi-mld.dat", paths.ResultFile)
	assert.Equal(t, "/data/results", paths.ArtifactRoot)
}

func TestIsValidStalePolicy(t *testing.T) {
	assert.True(t, IsValidStalePolicy("abort"))
	assert.True(t, IsValidStalePolicy("overwrite"))
	assert.True(t, IsValidStalePolicy("prompt"))
	assert.False(t, IsValidStalePolicy(""))
}

func TestShippedConfigs_LoadAndValidate(t *testing.T) {
	for _, tc := range []struct {
		file  string
		cwmin int
	}{
		{"cwmin16.yaml", 16},
		{"cwmin128.yaml", 128},
	} {
		t.Run(tc.file, func(t *testing.T) {
			cfg, err := LoadConfig(filepath.Join("..", "configs", tc.file))
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			assert.Equal(t, tc.cwmin, cfg.CWMin)
			assert.Equal(t, 20, cfg.LoadSamples)
		})
	}
}
