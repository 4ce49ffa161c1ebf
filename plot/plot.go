// Package plot renders thermo time series to image files.
package plot

import (
	"fmt"
	"image/color"
	"math"

	"github.com/aiidaplugins/aiida-lammps/parse/logfile"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func basicPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

// points pairs the step column with one quantity, skipping rows where the
// quantity was never printed.
func points(series *logfile.Series, column string) (plotter.XYs, error) {
	steps := series.Steps()
	values := series.Column(column)
	if values == nil {
		return nil, fmt.Errorf("plot: no column %q in the series", column)
	}
	pts := make(plotter.XYs, 0, len(values))
	for i, value := range values {
		if math.IsNaN(value) || i >= len(steps) {
			continue
		}
		pts = append(pts, plotter.XY{X: steps[i], Y: value})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("plot: column %q holds no values", column)
	}
	return pts, nil
}

var palette = []color.RGBA{
	{R: 0xd6, G: 0x28, B: 0x28, A: 0xff},
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
}

// Column plots one thermo quantity against the simulation step and saves
// the result; the format follows the filename extension (png, svg, pdf).
func Column(series *logfile.Series, column, title, filename string) error {
	p := basicPlot(title, "Step", column)
	pts, err := points(series, column)
	if err != nil {
		return err
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = palette[0]
	p.Add(line)
	return p.Save(15*vg.Centimeter, 10*vg.Centimeter, filename)
}

// Columns plots several thermo quantities in one frame with a legend.
func Columns(series *logfile.Series, columns []string, title, filename string) error {
	if len(columns) == 0 {
		return fmt.Errorf("plot: no columns given")
	}
	p := basicPlot(title, "Step", "")
	for i, column := range columns {
		pts, err := points(series, column)
		if err != nil {
			return err
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = palette[i%len(palette)]
		p.Add(line)
		p.Legend.Add(column, line)
	}
	p.Legend.Top = true
	return p.Save(15*vg.Centimeter, 10*vg.Centimeter, filename)
}
