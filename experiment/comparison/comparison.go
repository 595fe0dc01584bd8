// Package comparison assembles the four comparison plots of an experiment: simulated
// metrics as discrete markers over the sweep's aggregate loads and, for the delay
// metrics, the analytical model as a dashed line over its own points.
//
// Builders never transform values. A model curve keeps its own length and domain and
// its divergence sentinel; clipping to the fixed y-range happens only when drawing.
package comparison

import (
	"slices"

	"github.com/mlo-sweep/mlo-sweep/experiment"
	"github.com/mlo-sweep/mlo-sweep/experiment/reference"
	"github.com/mlo-sweep/mlo-sweep/experiment/results"
)

// Plot names; also the artifact file stems.
const (
	PlotThroughput   = "throughput"
	PlotQueuingDelay = "queuing_delay"
	PlotAccessDelay  = "access_delay"
	PlotE2ELatency   = "e2e_latency"
)

// PlotNames lists the plots in the order Build returns them.
var PlotNames = []string{PlotThroughput, PlotQueuingDelay, PlotAccessDelay, PlotE2ELatency}

const (
	offeredLoadLabel = "Offered Load"
	lambdaLoadLabel  = "Offered Load λ"
)

// Style selects how a series is drawn.
type Style int

const (
	// Markers draws one glyph per point with no connecting line.
	Markers Style = iota
	// DashedLine connects the points with a dashed line.
	DashedLine
)

func (s Style) String() string {
	switch s {
	case Markers:
		return "markers"
	case DashedLine:
		return "dashed"
	default:
		return "unknown"
	}
}

// Range is a fixed axis range.
type Range struct {
	Min, Max float64
}

// SeriesSpec is one data series of a plot.
type SeriesSpec struct {
	Label string
	Style Style
	X     []float64
	Y     []float64
}

// Len returns the number of points in the series.
func (s SeriesSpec) Len() int {
	return len(s.X)
}

// PlotSpec fully describes one plot.
type PlotSpec struct {
	Name   string
	Title  string
	XLabel string
	YLabel string
	YRange *Range // nil = fit to data
	Series []SeriesSpec
}

// Build returns the throughput, queuing delay, access delay and e2e latency plots.
// The simulated series must already be aligned with the sweep.
func Build(sweep []experiment.SweepPoint, series *results.Series, model reference.Variant) ([]PlotSpec, error) {
	if err := series.CheckAligned(len(sweep)); err != nil {
		return nil, err
	}
	loads := experiment.AggregateLoads(sweep)

	return []PlotSpec{
		{
			Name:   PlotThroughput,
			Title:  "Throughput vs. Offered Load",
			XLabel: offeredLoadLabel,
			YLabel: "Throughput (Mbps)",
			Series: []SeriesSpec{simulated("ns-3 Total Throughput", loads, series.Throughput)},
		},
		delayPlot(PlotQueuingDelay, "Queuing Delay", offeredLoadLabel, "Queuing Delay (ms)", Range{0, 1},
			simulated("ns-3 Queuing Delay", loads, series.QueuingDelay), modelSeries(model, model.Queuing)),
		delayPlot(PlotAccessDelay, "Access Delay", offeredLoadLabel, "Access Delay (ms)", Range{0, 10},
			simulated("ns-3 Access Delay", loads, series.AccessDelay), modelSeries(model, model.Access)),
		delayPlot(PlotE2ELatency, "E2E Latency", lambdaLoadLabel, "E2E Latency (ms)", Range{0, 10},
			simulated("ns-3 E2E Latency", loads, series.E2ELatency), modelSeries(model, model.E2E)),
	}, nil
}

func delayPlot(name, metric, xLabel, yLabel string, yRange Range, sim, model SeriesSpec) PlotSpec {
	return PlotSpec{
		Name:   name,
		Title:  metric + " vs. " + offeredLoadLabel,
		XLabel: xLabel,
		YLabel: yLabel,
		YRange: &yRange,
		Series: []SeriesSpec{sim, model},
	}
}

func simulated(label string, loads, values []float64) SeriesSpec {
	return SeriesSpec{Label: label, Style: Markers, X: slices.Clone(loads), Y: slices.Clone(values)}
}

func modelSeries(v reference.Variant, c reference.Curve) SeriesSpec {
	label := v.Label
	if label == "" {
		label = "model"
	}
	return SeriesSpec{Label: label, Style: DashedLine, X: slices.Clone(c.X), Y: slices.Clone(c.Y)}
}
