package comparison

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Image size of a rendered plot.
const (
	plotWidth  = 6.4 * vg.Inch
	plotHeight = 4.8 * vg.Inch
)

// Render draws spec to path. The image format follows the file extension (png, svg, pdf).
func Render(spec PlotSpec, path string) error {
	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, s := range spec.Series {
		if len(s.X) != len(s.Y) {
			return fmt.Errorf("plot %s: series %q has %d x values and %d y values", spec.Name, s.Label, len(s.X), len(s.Y))
		}
		xys := make(plotter.XYs, len(s.X))
		for j := range s.X {
			xys[j].X, xys[j].Y = s.X[j], s.Y[j]
		}

		switch s.Style {
		case Markers:
			sc, err := plotter.NewScatter(xys)
			if err != nil {
				return fmt.Errorf("plot %s: series %q: %w", spec.Name, s.Label, err)
			}
			sc.GlyphStyle.Shape = draw.CircleGlyph{}
			sc.GlyphStyle.Radius = vg.Points(3)
			sc.GlyphStyle.Color = plotutil.Color(i)
			p.Add(sc)
			p.Legend.Add(s.Label, sc)
		case DashedLine:
			l, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("plot %s: series %q: %w", spec.Name, s.Label, err)
			}
			l.LineStyle.Width = vg.Points(1.5)
			l.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
			l.LineStyle.Color = plotutil.Color(i)
			p.Add(l)
			p.Legend.Add(s.Label, l)
		default:
			return fmt.Errorf("plot %s: series %q has unknown style %v", spec.Name, s.Label, s.Style)
		}
	}

	// Empty series leave the data range at ±Inf.
	if math.IsInf(p.X.Min, 0) || math.IsInf(p.X.Max, 0) {
		p.X.Min, p.X.Max = 0, 1
	}
	if spec.YRange != nil {
		p.Y.Min, p.Y.Max = spec.YRange.Min, spec.YRange.Max
	} else if math.IsInf(p.Y.Min, 0) || math.IsInf(p.Y.Max, 0) {
		p.Y.Min, p.Y.Max = 0, 1
	}

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", spec.Name, err)
	}
	return nil
}

// RenderAll draws every spec into dir as <name>.<ext> and returns the written paths in
// spec order.
func RenderAll(specs []PlotSpec, dir, ext string) ([]string, error) {
	paths := make([]string, 0, len(specs))
	for _, spec := range specs {
		path := filepath.Join(dir, spec.Name+"."+ext)
		if err := Render(spec, path); err != nil {
			return paths, err
		}
		logrus.Debugf("rendered %s (%d series)", path, len(spec.Series))
		paths = append(paths, path)
	}
	return paths, nil
}
