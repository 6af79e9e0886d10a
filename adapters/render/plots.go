package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gosurv/domain/comparison"
	"gosurv/domain/survival"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Supported plot formats
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

// PlotRenderer draws the survival and cumulative-hazard overlays
type PlotRenderer struct {
	Format string
	Width  vg.Length
	Height vg.Length
}

// NewPlotRenderer creates a renderer for the given format and size in inches
func NewPlotRenderer(format string, widthIn, heightIn float64) (*PlotRenderer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatPNG && format != FormatSVG {
		return nil, fmt.Errorf("unsupported plot format %q", format)
	}
	if !(widthIn > 0 && heightIn > 0) {
		return nil, fmt.Errorf("plot size must be positive, got %gx%g", widthIn, heightIn)
	}
	return &PlotRenderer{
		Format: format,
		Width:  vg.Length(widthIn) * vg.Inch,
		Height: vg.Length(heightIn) * vg.Inch,
	}, nil
}

// SurvivalPlot overlays S(t) for every method
func (r *PlotRenderer) SurvivalPlot(report *comparison.Report) (*plot.Plot, error) {
	p, err := overlay(report.Grid, report.Survival, "Survival function", "S(t)")
	if err != nil {
		return nil, err
	}
	p.Y.Min, p.Y.Max = 0, 1.05
	p.Legend.Top = true
	return p, nil
}

// HazardPlot overlays H(t) for every method
func (r *PlotRenderer) HazardPlot(report *comparison.Report) (*plot.Plot, error) {
	p, err := overlay(report.Grid, report.CumulativeHazard, "Cumulative hazard", "H(t)")
	if err != nil {
		return nil, err
	}
	p.Y.Min = 0
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// Write encodes a plot in the renderer's format
func (r *PlotRenderer) Write(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(r.Width, r.Height, r.Format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// overlay builds one line per series; step estimates are drawn as post-steps
func overlay(grid []float64, series []comparison.Series, title, yLabel string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	for i, s := range series {
		line, err := plotter.NewLine(finitePoints(grid, s.Values))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Method.Label(), err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		if s.Method.IsStep() {
			line.StepStyle = plotter.PostStep
		}
		if s.Method == survival.MethodTrueWeibull {
			line.Dashes = plotutil.Dashes(1)
		}
		p.Add(line)
		p.Legend.Add(s.Method.Label(), line)
	}
	return p, nil
}

// finitePoints drops grid points where the curve is undefined
func finitePoints(grid, values []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(grid))
	for i, x := range grid {
		y := values[i]
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	return pts
}
