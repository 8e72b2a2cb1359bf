// Package chart renders the report's PNG figures with gonum/plot:
// error-bar lines for ordered groups, annotated bars for categorical
// groups, and box-and-whisker plots for score distributions.
package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Palette used across the figures; gender series keep the survey
// report's conventional pink/skyblue pairing.
var (
	Pink     = color.RGBA{R: 255, G: 192, B: 203, A: 255}
	SkyBlue  = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	SeaGreen = color.RGBA{R: 60, G: 179, B: 113, A: 255}
	Teal     = color.RGBA{R: 0, G: 128, B: 128, A: 255}
	Gray     = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// Series is one named line in a multi-series figure. A NaN mean skips
// that category's point.
type Series struct {
	Name  string
	Means []float64
	Color color.Color
}

// errPoints adapts means and symmetric errors to the plotter
// XYer/YErrorer pair needed by NewYErrorBars.
type errPoints struct {
	plotter.XYs
	plotter.YErrors
}

func newErrPoints(means, errs []float64) errPoints {
	pts := errPoints{
		XYs:     make(plotter.XYs, len(means)),
		YErrors: make(plotter.YErrors, len(means)),
	}
	for i, m := range means {
		pts.XYs[i].X = float64(i)
		pts.XYs[i].Y = m
		pts.YErrors[i].Low = errs[i]
		pts.YErrors[i].High = errs[i]
	}
	return pts
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func save(p *plot.Plot, width, height vg.Length, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "chart: mkdir %s", dir)
		}
	}
	if err := p.Save(width, height, path); err != nil {
		return eris.Wrapf(err, "chart: save %s", path)
	}
	return nil
}

// LineWithErrorBars renders an ordered-category line with symmetric
// error bars, one point per category.
func LineWithErrorBars(title, xLabel, yLabel string, cats []string, means, errs []float64, path string) error {
	if len(cats) != len(means) || len(cats) != len(errs) {
		return eris.Errorf("chart: %d categories, %d means, %d errors", len(cats), len(means), len(errs))
	}

	p := newPlot(title, xLabel, yLabel)
	pts := newErrPoints(means, errs)

	line, scatter, err := plotter.NewLinePoints(pts.XYs)
	if err != nil {
		return eris.Wrap(err, "chart: line points")
	}
	line.Width = vg.Points(2)
	line.Color = Teal
	scatter.GlyphStyle.Radius = vg.Points(3)
	scatter.GlyphStyle.Color = Teal

	bars, err := plotter.NewYErrorBars(pts)
	if err != nil {
		return eris.Wrap(err, "chart: error bars")
	}
	bars.CapWidth = vg.Points(4)

	p.Add(line, scatter, bars)
	p.NominalX(cats...)

	return save(p, 8*vg.Inch, 6*vg.Inch, path)
}

// MultiLine renders one line per series over shared categories, with a
// legend naming each series.
func MultiLine(title, xLabel, yLabel string, cats []string, series []Series, path string) error {
	p := newPlot(title, xLabel, yLabel)

	for _, s := range series {
		if len(s.Means) != len(cats) {
			return eris.Errorf("chart: series %s has %d means for %d categories", s.Name, len(s.Means), len(cats))
		}

		var pts plotter.XYs
		for i, m := range s.Means {
			if math.IsNaN(m) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(i), Y: m})
		}
		if len(pts) == 0 {
			continue
		}

		line, scatter, err := plotter.NewLinePoints(pts)
		if err != nil {
			return eris.Wrapf(err, "chart: series %s", s.Name)
		}
		c := s.Color
		if c == nil {
			c = Gray
		}
		line.Width = vg.Points(2)
		line.Color = c
		scatter.GlyphStyle.Radius = vg.Points(3)
		scatter.GlyphStyle.Color = c

		p.Add(line, scatter)
		p.Legend.Add(s.Name, line)
	}

	p.Legend.Top = true
	p.NominalX(cats...)

	return save(p, 9*vg.Inch, 6*vg.Inch, path)
}

// Bar renders a bar chart with error bars. colors supplies one color per
// bar; a single-element slice colors every bar. With annotate set, each
// bar's value prints above it.
func Bar(title, xLabel, yLabel string, cats []string, means, errs []float64, colors []color.Color, annotate bool, path string) error {
	if len(cats) != len(means) || len(cats) != len(errs) {
		return eris.Errorf("chart: %d categories, %d means, %d errors", len(cats), len(means), len(errs))
	}
	if len(colors) == 0 {
		colors = []color.Color{Teal}
	}

	p := newPlot(title, xLabel, yLabel)
	p.Y.Min = 0

	// One BarChart per bar so each can carry its own color; the other
	// positions hold zero-height bars.
	for i := range means {
		values := make(plotter.Values, len(means))
		values[i] = means[i]

		bars, err := plotter.NewBarChart(values, vg.Points(28))
		if err != nil {
			return eris.Wrap(err, "chart: bars")
		}
		bars.Color = colors[i%len(colors)]
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
	}

	errBars, err := plotter.NewYErrorBars(newErrPoints(means, errs))
	if err != nil {
		return eris.Wrap(err, "chart: error bars")
	}
	errBars.CapWidth = vg.Points(4)
	p.Add(errBars)

	if annotate {
		labels, err := barLabels(means, errs)
		if err != nil {
			return err
		}
		p.Add(labels)
	}

	p.NominalX(cats...)

	width := 9 * vg.Inch
	if len(cats) > 6 {
		width = 12 * vg.Inch
	}
	return save(p, width, 6*vg.Inch, path)
}

// barLabels places each bar's value just above its error bar.
func barLabels(means, errs []float64) (*plotter.Labels, error) {
	xyl := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(means)),
		Labels: make([]string, len(means)),
	}
	for i, m := range means {
		xyl.XYs[i].X = float64(i)
		xyl.XYs[i].Y = m + errs[i] + 0.08
		xyl.Labels[i] = fmt.Sprintf("%.2f", m)
	}
	labels, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, eris.Wrap(err, "chart: bar labels")
	}
	return labels, nil
}

// Box renders a box-and-whisker plot per category from the full
// per-respondent values, not just the group means. Empty groups are
// skipped.
func Box(title, xLabel, yLabel string, cats []string, groups [][]float64, path string) error {
	if len(cats) != len(groups) {
		return eris.Errorf("chart: %d categories, %d groups", len(cats), len(groups))
	}

	p := newPlot(title, xLabel, yLabel)

	for i, values := range groups {
		if len(values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(24), float64(i), plotter.Values(values))
		if err != nil {
			return eris.Wrapf(err, "chart: box %s", cats[i])
		}
		p.Add(box)
	}

	p.NominalX(cats...)

	width := 8 * vg.Inch
	if len(cats) > 6 {
		width = 11 * vg.Inch
	}
	return save(p, width, 6*vg.Inch, path)
}
