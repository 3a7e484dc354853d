package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// Profile returns a chart of the bus voltage magnitudes in bus id order.
func Profile(r *Report) (*plot.Plot, error) {
	if len(r.Buses) == 0 {
		return nil, errors.New("report has no bus voltages")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s voltage profile (%s)", r.Case, r.Backend)
	p.X.Label.Text = "bus"
	p.Y.Label.Text = "|V| (p.u.)"

	pts := make(plotter.XYs, len(r.Buses))
	names := make([]string, len(r.Buses))
	for k, b := range r.Buses {
		pts[k].X = float64(k)
		pts[k].Y = b.Magnitude
		names[k] = strconv.Itoa(b.ID)
	}

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	p.Add(plotter.NewGrid(), line, points)
	p.NominalX(names...)

	return p, nil
}

// WriteProfile renders the profile chart in format ("png", "svg", "pdf", ...).
func WriteProfile(w io.Writer, r *Report, format string) error {
	p, err := Profile(r)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveProfile writes the chart to path; the extension selects the format.
func SaveProfile(path string, r *Report) error {
	p, err := Profile(r)
	if err != nil {
		return err
	}
	return p.Save(plotWidth, plotHeight, path)
}
