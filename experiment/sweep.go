package experiment

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	aggregateLoadDecimals  = 3
	perStationLoadDecimals = 5
)

// SweepPoint is the load applied by one simulation run.
type SweepPoint struct {
	AggregateLoad  float64 `yaml:"aggregate_load"`   // offered load across all stations
	PerStationLoad float64 `yaml:"per_station_load"` // value passed to the simulator
}

// GenerateSweep derives the ordered sweep from cfg: LoadSamples evenly spaced aggregate
// loads over the closed LoadRange, each rounded to 3 decimals, and per-station loads of
// aggregate/StationCount rounded to 5 decimals. Points are strictly increasing.
func GenerateSweep(cfg Config) ([]SweepPoint, error) {
	if cfg.StationCount == 0 {
		return nil, fmt.Errorf("%w: per-station load needs station_count > 0", ErrDivisionByZero)
	}
	if cfg.LoadSamples < 0 {
		return nil, fmt.Errorf("%w: load_samples must be non-negative, got %d", ErrInvalidConfig, cfg.LoadSamples)
	}

	loads := evenlySpaced(cfg.LoadRange.Low, cfg.LoadRange.High, cfg.LoadSamples)
	points := make([]SweepPoint, len(loads))
	for i, load := range loads {
		aggregate := scalar.Round(load, aggregateLoadDecimals)
		if i > 0 && aggregate <= points[i-1].AggregateLoad {
			return nil, fmt.Errorf("%w: %d samples over [%g, %g] collapse to %g after rounding to %d decimals",
				ErrInvalidConfig, cfg.LoadSamples, cfg.LoadRange.Low, cfg.LoadRange.High, aggregate, aggregateLoadDecimals)
		}
		points[i] = SweepPoint{
			AggregateLoad:  aggregate,
			PerStationLoad: scalar.Round(aggregate/float64(cfg.StationCount), perStationLoadDecimals),
		}
	}
	return points, nil
}

// AggregateLoads returns the x-axis of the simulated series.
func AggregateLoads(points []SweepPoint) []float64 {
	xs := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.AggregateLoad
	}
	return xs
}

// evenlySpaced matches linspace: n values from low to high inclusive.
func evenlySpaced(low, high float64, n int) []float64 {
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{low}
	}
	return floats.Span(make([]float64, n), low, high)
}
