// Package reference supplies the analytical-model curves that simulated results are
// compared against. It is the single home of contention-window-specific data: each
// variant carries its curves and the simulator arguments that select it.
package reference

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mlo-sweep/mlo-sweep/experiment"
)

// DivergenceSentinel is the y value the model emits once it no longer converges.
const DivergenceSentinel = 100000.0

//go:embed curves.yaml
var builtinCurves []byte

// Curve is one model prediction: Y[i] at load X[i].
type Curve struct {
	X []float64 `yaml:"x"`
	Y []float64 `yaml:"y"`
}

// Len returns the number of points on the curve.
func (c Curve) Len() int {
	return len(c.X)
}

// DivergesAt returns the first load whose prediction is the divergence sentinel.
func (c Curve) DivergesAt() (float64, bool) {
	for i, y := range c.Y {
		if y >= DivergenceSentinel {
			return c.X[i], true
		}
	}
	return 0, false
}

func (c Curve) clone() Curve {
	return Curve{X: slices.Clone(c.X), Y: slices.Clone(c.Y)}
}

// Variant is the reference data for one CWmin setting.
type Variant struct {
	CWMin         int      `yaml:"cwmin"`
	Label         string   `yaml:"label"`          // legend label of the model curves
	SimulatorArgs []string `yaml:"simulator_args"` // extra program arguments selecting this CWmin
	Queuing       Curve    `yaml:"queuing"`
	Access        Curve    `yaml:"access"`
	E2E           Curve    `yaml:"e2e"`
}

func (v Variant) clone() Variant {
	return Variant{
		CWMin:         v.CWMin,
		Label:         v.Label,
		SimulatorArgs: slices.Clone(v.SimulatorArgs),
		Queuing:       v.Queuing.clone(),
		Access:        v.Access.clone(),
		E2E:           v.E2E.clone(),
	}
}

// Table is a lookup table of variants keyed by CWmin.
type Table struct {
	Entries []Variant `yaml:"variants"`
}

var builtin = sync.OnceValues(func() (*Table, error) {
	return Parse(builtinCurves)
})

// Default returns the built-in table for CWmin 16 and 128.
func Default() (*Table, error) {
	return builtin()
}

// Load reads a reference table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference table: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a reference table.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func Parse(data []byte) (*Table, error) {
	var t Table
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&t); err != nil {
		return nil, fmt.Errorf("parsing reference table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that every curve has matching X and Y lengths and that CWmin values
// are positive and unique.
func (t *Table) Validate() error {
	seen := make(map[int]bool, len(t.Entries))
	for i, v := range t.Entries {
		prefix := fmt.Sprintf("variants[%d]", i)
		if v.CWMin <= 0 {
			return fmt.Errorf("%w: %s: cwmin must be positive, got %d", experiment.ErrInvalidConfig, prefix, v.CWMin)
		}
		if seen[v.CWMin] {
			return fmt.Errorf("%w: %s: duplicate cwmin %d", experiment.ErrInvalidConfig, prefix, v.CWMin)
		}
		seen[v.CWMin] = true
		for name, c := range map[string]Curve{"queuing": v.Queuing, "access": v.Access, "e2e": v.E2E} {
			if len(c.X) != len(c.Y) {
				return fmt.Errorf("%w: %s.%s: x has %d points, y has %d", experiment.ErrInvalidConfig, prefix, name, len(c.X), len(c.Y))
			}
		}
	}
	return nil
}

// Lookup returns a copy of the variant for cwmin.
func (t *Table) Lookup(cwmin int) (Variant, error) {
	for _, v := range t.Entries {
		if v.CWMin == cwmin {
			return v.clone(), nil
		}
	}
	return Variant{}, fmt.Errorf("%w: no reference curves for cwmin %d; known: %v", experiment.ErrUnknownVariant, cwmin, t.CWMins())
}

// CWMins lists the known variants in ascending order.
func (t *Table) CWMins() []int {
	out := make([]int, 0, len(t.Entries))
	for _, v := range t.Entries {
		out = append(out, v.CWMin)
	}
	sort.Ints(out)
	return out
}
