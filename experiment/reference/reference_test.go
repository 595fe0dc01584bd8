package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlo-sweep/mlo-sweep/experiment"
)

func TestDefault_KnownVariants(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	assert.Equal(t, []int{16, 128}, table.CWMins())
}

func TestLookup_VariantsAreDistinct(t *testing.T) {
	// GIVEN the built-in table
	table, err := Default()
	require.NoError(t, err)

	// WHEN both variants are looked up
	cw16, err := table.Lookup(16)
	require.NoError(t, err)
	cw128, err := table.Lookup(128)
	require.NoError(t, err)

	// THEN point counts differ
	assert.Equal(t, 15, cw16.Queuing.Len())
	assert.Equal(t, 16, cw16.Access.Len())
	assert.Equal(t, 15, cw16.E2E.Len())
	assert.Equal(t, 17, cw128.Queuing.Len())
	assert.Equal(t, 18, cw128.Access.Len())
	assert.Equal(t, 17, cw128.E2E.Len())

	// AND the model diverges at a different load
	d16, ok := cw16.Queuing.DivergesAt()
	require.True(t, ok)
	d128, ok := cw128.Queuing.DivergesAt()
	require.True(t, ok)
	assert.Equal(t, 0.0418826902931823, d16)
	assert.Equal(t, 0.0476743567683261, d128)

	// AND only CWmin 128 needs extra simulator flags
	assert.Empty(t, cw16.SimulatorArgs)
	assert.Len(t, cw128.SimulatorArgs, 8)
	assert.Contains(t, cw128.SimulatorArgs, "--acBECwminLink1=128")
}

func TestLookup_PreservesSentinelAndLiteralValues(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	cw128, err := table.Lookup(128)
	require.NoError(t, err)

	assert.Equal(t, 0.00378053234045909, cw128.Queuing.Y[0])
	assert.Equal(t, 152.389941252501, cw128.Queuing.Y[15])
	assert.Equal(t, DivergenceSentinel, cw128.Queuing.Y[16])
	assert.Equal(t, 0.06, cw128.Access.X[17])
}

func TestLookup_UnknownVariant(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	_, err = table.Lookup(32)

	assert.ErrorIs(t, err, experiment.ErrUnknownVariant)
}

func TestLookup_ReturnsCopy(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	v, err := table.Lookup(16)
	require.NoError(t, err)
	v.Queuing.Y[0] = -1
	v.SimulatorArgs = append(v.SimulatorArgs, "--x")

	again, err := table.Lookup(16)
	require.NoError(t, err)
	assert.Equal(t, 0.000578344525983311, again.Queuing.Y[0], "table must not be mutated through a lookup")
	assert.Empty(t, again.SimulatorArgs)
}

func TestCurve_DivergesAt_NoSentinel(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	v, err := table.Lookup(16)
	require.NoError(t, err)

	_, ok := v.Access.DivergesAt()
	assert.False(t, ok, "access curve saturates without the sentinel")
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"length mismatch", "variants:\n  - cwmin: 8\n    queuing: {x: [1, 2], y: [1]}\n"},
		{"duplicate", "variants:\n  - cwmin: 8\n  - cwmin: 8\n"},
		{"non-positive", "variants:\n  - cwmin: 0\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			assert.ErrorIs(t, err, experiment.ErrInvalidConfig)
		})
	}
}

func TestParse_UnknownField_Rejected(t *testing.T) {
	_, err := Parse([]byte("variants:\n  - cwmin: 8\n    queueing: {x: [], y: []}\n"))
	assert.Error(t, err)
}

func TestLoad_OverrideTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curves.yaml")
	doc := "variants:\n  - cwmin: 32\n    label: model\n    simulator_args: [--acBECwminLink1=32]\n    queuing: {x: [0.01], y: [0.5]}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	table, err := Load(path)
	require.NoError(t, err)

	v, err := table.Lookup(32)
	require.NoError(t, err)
	assert.Equal(t, []string{"--acBECwminLink1=32"}, v.SimulatorArgs)
	assert.Equal(t, Curve{X: []float64{0.01}, Y: []float64{0.5}}, v.Queuing)
	assert.Equal(t, 0, v.E2E.Len())
}
