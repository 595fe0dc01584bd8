// Package testutil provides shared test infrastructure for the experiment packages:
// synthetic result lines shaped like the simulator's output and float assertions.
package testutil

import (
	"fmt"
	"math"
	"os"
	"strings"
	"testing"
)

// ResultLine builds one simulator-style result line with the four metrics at positions
// 5, 8, 11 and 14 and plausible filler values elsewhere.
func ResultLine(throughput, queuing, access, e2e float64) string {
	tokens := []string{
		"1", "20", "1500", "0.00015", "60", // run id, stations, payload, lambda, sim time
		fmt.Sprintf("%v", throughput),
		"0.5", "0.5", // per-link throughput
		fmt.Sprintf("%v", queuing),
		"0.1", "0.1", // per-link queuing
		fmt.Sprintf("%v", access),
		"0.2", "0.2", // per-link access
		fmt.Sprintf("%v", e2e),
		"0", "0", // trailing reserved fields
	}
	return strings.Join(tokens, ",")
}

// SyntheticMetrics returns n rows of distinct metrics: throughput, queuing, access, e2e.
func SyntheticMetrics(n int) [][4]float64 {
	rows := make([][4]float64, n)
	for i := range rows {
		f := float64(i + 1)
		rows[i] = [4]float64{f * 1.25, f * 0.0125, 0.9 + f*0.03, 0.91 + f*0.0425}
	}
	return rows
}

// WriteResultFile writes one ResultLine per row to path.
func WriteResultFile(t *testing.T, path string, rows [][4]float64) {
	t.Helper()
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(ResultLine(r[0], r[1], r[2], r[3]))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("writing result file: %v", err)
	}
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
