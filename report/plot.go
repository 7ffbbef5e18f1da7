// Package report draws the evaluation charts written by a training run.
package report

import (
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	medErrors "github.com/ezoic/medcost/pkg/errors"
)

// Chart size used for every saved figure.
const (
	Width  = 8 * vg.Inch
	Height = 6 * vg.Inch
)

// PredictionScatter plots predicted against actual charges with the identity line
// and saves it to path. The image format follows the extension (.png, .svg, .pdf).
func PredictionScatter(yTrue, yPred []float64, title, path string) error {
	if len(yTrue) == 0 {
		return medErrors.NewModelError("PredictionScatter", "no points", medErrors.ErrEmptyData)
	}
	if len(yPred) != len(yTrue) {
		return medErrors.NewDimensionError("PredictionScatter", len(yTrue), len(yPred), 0)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Actual charges ($)"
	p.Y.Label.Text = "Predicted charges ($)"

	pts := make(plotter.XYs, len(yTrue))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range yTrue {
		pts[i].X = yTrue[i]
		pts[i].Y = yPred[i]
		lo = math.Min(lo, math.Min(yTrue[i], yPred[i]))
		hi = math.Max(hi, math.Max(yTrue[i], yPred[i]))
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return medErrors.Wrap(err, "scatter")
	}
	scatter.Color = plotter.DefaultLineStyle.Color
	p.Add(scatter)
	p.Legend.Add("Test samples", scatter)

	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return medErrors.Wrap(err, "identity line")
	}
	identity.Width = vg.Points(1.5)
	identity.Color = color.RGBA{R: 200, A: 255}
	identity.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(identity)
	p.Legend.Add("Perfect prediction", identity)
	p.Legend.Top = true
	p.Legend.Left = true

	return save(p, path)
}

// ResidualHistogram plots the distribution of yTrue - yPred.
func ResidualHistogram(yTrue, yPred []float64, title, path string) error {
	if len(yTrue) == 0 {
		return medErrors.NewModelError("ResidualHistogram", "no points", medErrors.ErrEmptyData)
	}
	if len(yPred) != len(yTrue) {
		return medErrors.NewDimensionError("ResidualHistogram", len(yTrue), len(yPred), 0)
	}

	residuals := make(plotter.Values, len(yTrue))
	for i := range yTrue {
		residuals[i] = yTrue[i] - yPred[i]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Residual ($)"
	p.Y.Label.Text = "Count"

	bins := int(math.Max(5, math.Sqrt(float64(len(residuals)))))
	hist, err := plotter.NewHist(residuals, bins)
	if err != nil {
		return medErrors.Wrap(err, "histogram")
	}
	p.Add(hist)

	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return medErrors.Wrapf(err, "create %s", dir)
		}
	}
	if err := p.Save(Width, Height, path); err != nil {
		return medErrors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
