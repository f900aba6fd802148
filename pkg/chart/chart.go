// Package chart renders the diagnostic log-log figure of a power-law fit:
// observations, the fitted curve, extrapolated predictions and the
// energy-offset marker. Output format follows the file extension
// (.png, .svg, .pdf, .eps, .jpg, .tif).
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	// ErrNoData indicates the figure has no point drawable on log axes.
	ErrNoData = errors.New("chart: no positive data to plot")

	// ErrRender wraps panics raised by the plotting backend.
	ErrRender = errors.New("chart: render failed")
)

var (
	dataColor   = color.RGBA{B: 255, A: 255}
	fitColor    = color.RGBA{R: 255, A: 255}
	offsetColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// offsetLabelLift places the "Energy offset" label above the lower y limit.
const offsetLabelLift = 3

// Figure is everything drawn on the diagnostic plot.
type Figure struct {
	// Observations (all of them, including those below the fit threshold).
	Energy []float64
	TAM    []float64
	// Fitted model sampled over the observed energy range.
	CurveX []float64
	CurveY []float64
	// Predictions at the shifted grid energies.
	PredX []float64
	PredY []float64
	// Offset draws a dashed vertical marker when > 0.
	Offset   float64
	FitLabel string
}

// Renderer draws a Figure somewhere.
type Renderer interface {
	Render(fig *Figure) error
}

// File renders figures into an image file.
type File struct {
	Path   string
	Width  vg.Length
	Height vg.Length
}

// NewFile returns a 10x8 inch file renderer.
func NewFile(path string) *File {
	return &File{Path: path, Width: 10 * vg.Inch, Height: 8 * vg.Inch}
}

// Render builds the plot and saves it to f.Path.
func (f *File) Render(fig *Figure) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRender, r)
		}
	}()

	p, err := Build(fig)
	if err != nil {
		return err
	}
	if err := p.Save(f.Width, f.Height, f.Path); err != nil {
		return fmt.Errorf("chart: save %s: %w", f.Path, err)
	}
	return nil
}

type layer struct {
	plotter plot.Plotter
	legend  string
}

// Build assembles the log-log plot without drawing it.
func Build(fig *Figure) (*plot.Plot, error) {
	layers, err := buildLayers(fig)
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = "TAM_max vs energy"
	p.X.Label.Text = "Energy (cm⁻¹)"
	p.Y.Label.Text = "TAM_max"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true
	p.Legend.Left = true

	for _, l := range layers {
		p.Add(l.plotter)
		if l.legend != "" {
			if th, ok := l.plotter.(plot.Thumbnailer); ok {
				p.Legend.Add(l.legend, th)
			}
		}
	}
	return p, nil
}

func buildLayers(fig *Figure) ([]layer, error) {
	data := positive(fig.Energy, fig.TAM)
	if len(data) == 0 {
		return nil, ErrNoData
	}

	var layers []layer

	sc, err := plotter.NewScatter(data)
	if err != nil {
		return nil, fmt.Errorf("chart: data: %w", err)
	}
	sc.GlyphStyle.Color = dataColor
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(3)
	layers = append(layers, layer{sc, "Data"})

	ys := yValues(data)

	if curve := positive(fig.CurveX, fig.CurveY); len(curve) >= 2 {
		line, err := plotter.NewLine(curve)
		if err != nil {
			return nil, fmt.Errorf("chart: fit curve: %w", err)
		}
		line.LineStyle.Color = fitColor
		line.LineStyle.Width = vg.Points(1.5)
		layers = append(layers, layer{line, fig.FitLabel})
		ys = append(ys, yValues(curve)...)
	}

	if pred := positive(fig.PredX, fig.PredY); len(pred) > 0 {
		ps, err := plotter.NewScatter(pred)
		if err != nil {
			return nil, fmt.Errorf("chart: predictions: %w", err)
		}
		ps.GlyphStyle.Color = fitColor
		ps.GlyphStyle.Shape = draw.RingGlyph{}
		ps.GlyphStyle.Radius = vg.Points(3)
		layers = append(layers, layer{ps, "Predicted by a E^b"})
		ys = append(ys, yValues(pred)...)
	}

	if fig.Offset > 0 && !math.IsInf(fig.Offset, 1) {
		lo, hi := minMax(ys)
		vl, err := plotter.NewLine(plotter.XYs{{X: fig.Offset, Y: lo}, {X: fig.Offset, Y: hi}})
		if err != nil {
			return nil, fmt.Errorf("chart: offset line: %w", err)
		}
		vl.LineStyle.Color = offsetColor
		vl.LineStyle.Width = vg.Points(1)
		vl.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}

		lbl, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    plotter.XYs{{X: fig.Offset, Y: lo * offsetLabelLift}},
			Labels: []string{"Energy offset"},
		})
		if err != nil {
			return nil, fmt.Errorf("chart: offset label: %w", err)
		}
		for i := range lbl.TextStyle {
			lbl.TextStyle[i].Color = offsetColor
			lbl.TextStyle[i].Rotation = math.Pi / 2
		}
		layers = append(layers, layer{vl, ""}, layer{lbl, ""})
	}

	return layers, nil
}

// positive keeps the points drawable on log axes.
func positive(xs, ys []float64) plotter.XYs {
	n := min(len(xs), len(ys))
	out := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		x, y := xs[i], ys[i]
		if x > 0 && y > 0 && !math.IsInf(x, 1) && !math.IsInf(y, 1) {
			out = append(out, plotter.XY{X: x, Y: y})
		}
	}
	return out
}

func yValues(xys plotter.XYs) []float64 {
	out := make([]float64, len(xys))
	for i := range xys {
		out[i] = xys[i].Y
	}
	return out
}

func minMax(v []float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}
