package tam

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/tamtrack/pkg/chart"
	"github.com/ja7ad/tamtrack/pkg/fit"
	"github.com/ja7ad/tamtrack/pkg/grid"
)

type recordingRenderer struct {
	fig *chart.Figure
	err error
}

func (r *recordingRenderer) Render(fig *chart.Figure) error {
	r.fig = fig
	return r.err
}

// dataFile writes a tab-delimited table with y = a*x^b for x > 60 and a few
// low-energy rows that do not follow the law.
func dataFile(t *testing.T, a, b float64, xs ...float64) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("5\t40\n20\t3\n")
	for _, x := range xs {
		fmt.Fprintf(&sb, "%g\t%.12g\n", x, a*math.Pow(x, b))
	}
	return writeFile(t, "TAM_max.dat", sb.String())
}

func TestPredict_WorkedExample(t *testing.T) {
	in := dataFile(t, 0.5, 1, 70, 80, 90, 100, 120, 150)
	out := filepath.Join(t.TempDir(), "out.txt")

	a, b, err := PredictTAM(in, 60, 5, []float64{10}, out, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, a, 1e-6)
	assert.InDelta(t, 1.0, b, 1e-6)

	rows, err := ReadPredictions(out)
	require.NoError(t, err)
	require.Equal(t, []Row{{Energy: 10, TAMMax: 8}}, rows, "15*0.5 = 7.5 rounds up to 8")
}

func TestPredict_DefaultGridProperties(t *testing.T) {
	in := dataFile(t, 3.2, 0.48, 61, 80, 100, 150, 200, 300, 450, 600, 800, 1000)
	out := filepath.Join(t.TempDir(), "TAM_prediction.txt")
	g, err := grid.Build(grid.Default())
	require.NoError(t, err)

	res, err := Predict(Config{
		FilePath:            in,
		MinEnergyForFitting: 60,
		EnergyOffset:        221.9215,
		EnergyGrid:          g,
		OutputFile:          out,
	})
	require.NoError(t, err)
	t.Logf("a=%.6f b=%.6f %s", res.A, res.B, res.Fit)

	assert.Greater(t, res.A, 0.0)
	assert.Len(t, res.Fitted, 10)
	assert.Len(t, res.Observations, 12)
	require.Len(t, res.Predictions, len(g))

	for i, p := range res.Predictions {
		raw := res.A * math.Pow(g[i]+221.9215, res.B)
		assert.Equal(t, g[i], p.Energy, "order kept at %d", i)
		assert.GreaterOrEqual(t, float64(p.TAMMax), raw, "ceiling at %d", i)
		assert.Less(t, float64(p.TAMMax-1), raw, "ceiling at %d", i)
		if i > 0 && g[i] >= g[i-1] {
			assert.GreaterOrEqual(t, p.TAMMax, res.Predictions[i-1].TAMMax, "monotone at %d", i)
		}
	}

	rows, err := ReadPredictions(out)
	require.NoError(t, err)
	require.Len(t, rows, len(g))
	for i := range rows {
		assert.Equal(t, res.Predictions[i].TAMMax, rows[i].TAMMax)
		assert.InDelta(t, g[i], rows[i].Energy, 0.5e-4)
	}
}

func TestPredict_UnsortedGridKeepsOrder(t *testing.T) {
	in := dataFile(t, 2, 0.5, 64, 100, 144, 196, 256)
	out := filepath.Join(t.TempDir(), "out.txt")

	res, err := Predict(Config{
		FilePath:            in,
		MinEnergyForFitting: 60,
		EnergyGrid:          []float64{410, 0, 90},
		OutputFile:          out,
	})
	require.NoError(t, err)

	rows, err := ReadPredictions(out)
	require.NoError(t, err)
	// 2*sqrt(410) = 40.50, 2*sqrt(90) = 18.97
	assert.Equal(t, []Row{{410, 41}, {0, 0}, {90, 19}}, rows)
	assert.Equal(t, 41, res.Predictions[0].TAMMax)
}

func TestPredict_TooFewPointsAboveThreshold(t *testing.T) {
	in := dataFile(t, 0.5, 1, 70, 80, 90)
	out := filepath.Join(t.TempDir(), "out.txt")

	_, _, err := PredictTAM(in, 85, 0, []float64{10}, out, false)
	require.ErrorIs(t, err, ErrFitting)
	assert.NoFileExists(t, out)

	_, _, err = PredictTAM(in, 1e6, 0, []float64{10}, out, false)
	require.ErrorIs(t, err, ErrFitting)
}

func TestPredict_NegativeBaseFractionalExponent(t *testing.T) {
	in := dataFile(t, 2, 1.5, 64, 100, 144, 196)
	out := filepath.Join(t.TempDir(), "out.txt")

	_, _, err := PredictTAM(in, 60, -500, []float64{10, 100}, out, false)
	require.ErrorIs(t, err, ErrDomain)
	assert.NoFileExists(t, out, "no partial output")
}

func TestPredict_FileErrors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")

	_, _, err := PredictTAM(filepath.Join(t.TempDir(), "nope.dat"), 60, 0, []float64{1}, out, false)
	require.ErrorIs(t, err, ErrFile)

	bad := writeFile(t, "bad.dat", "70\t35\n80\tx\n")
	_, _, err = PredictTAM(bad, 60, 0, []float64{1}, out, false)
	require.ErrorIs(t, err, ErrFile)

	_, _, err = PredictTAM("", 60, 0, []float64{1}, out, false)
	require.ErrorIs(t, err, ErrFile)
}

func TestPredict_EmptyGrid(t *testing.T) {
	in := dataFile(t, 0.5, 1, 70, 80)
	_, err := Predict(Config{FilePath: in, MinEnergyForFitting: 60})
	require.ErrorIs(t, err, ErrEmptyGrid)
}

func TestPredict_ConvergenceFailure(t *testing.T) {
	// all fitted energies identical: b is not identifiable
	in := writeFile(t, "flat.dat", "100\t5\n100\t6\n100\t7\n")
	_, _, err := PredictTAM(in, 60, 0, []float64{1}, filepath.Join(t.TempDir(), "out.txt"), false)
	require.ErrorIs(t, err, ErrConvergence)
}

func TestPredict_OutputUnwritable(t *testing.T) {
	in := dataFile(t, 0.5, 1, 70, 80, 90)
	out := filepath.Join(t.TempDir(), "missing", "out.txt")
	_, _, err := PredictTAM(in, 60, 0, []float64{1}, out, false)
	require.ErrorIs(t, err, ErrOutput)
}

func TestPredict_PlotFigure(t *testing.T) {
	in := dataFile(t, 0.5, 1, 70, 80, 90, 100)
	r := &recordingRenderer{}

	res, err := Predict(Config{
		FilePath:            in,
		MinEnergyForFitting: 60,
		EnergyOffset:        221.9215,
		EnergyGrid:          []float64{1, 10, 100},
		OutputFile:          filepath.Join(t.TempDir(), "out.txt"),
		EnablePlotting:      true,
		Renderer:            r,
	})
	require.NoError(t, err)
	require.NoError(t, res.PlotErr)
	require.NotNil(t, r.fig)

	assert.Len(t, r.fig.Energy, 6, "all observations are shown, not only fitted ones")
	assert.Equal(t, 221.9215, r.fig.Offset)
	assert.InDeltaSlice(t, []float64{222.9215, 231.9215, 321.9215}, r.fig.PredX, 1e-9)
	assert.Len(t, r.fig.CurveX, curveSamples)
	assert.Equal(t, "a E^b, a=0.50, b=1.00", r.fig.FitLabel)
}

func TestPredict_PlotFailureIsNotFatal(t *testing.T) {
	in := dataFile(t, 0.5, 1, 70, 80, 90, 100)
	out := filepath.Join(t.TempDir(), "out.txt")
	boom := errors.New("no display")

	res, err := Predict(Config{
		FilePath:            in,
		MinEnergyForFitting: 60,
		EnergyGrid:          []float64{10},
		OutputFile:          out,
		EnablePlotting:      true,
		Renderer:            &recordingRenderer{err: boom},
	})
	require.NoError(t, err)
	require.ErrorIs(t, res.PlotErr, boom)
	assert.FileExists(t, out)
}

func TestPredict_PlotToFile(t *testing.T) {
	in := dataFile(t, 0.5, 1, 70, 80, 90, 100)
	dir := t.TempDir()
	plotPath := filepath.Join(dir, "fit.png")

	res, err := Predict(Config{
		FilePath:            in,
		MinEnergyForFitting: 60,
		EnergyOffset:        100,
		EnergyGrid:          []float64{10, 50},
		OutputFile:          filepath.Join(dir, "out.txt"),
		EnablePlotting:      true,
		Renderer:            chart.NewFile(plotPath),
	})
	require.NoError(t, err)
	require.NoError(t, res.PlotErr)
	assert.FileExists(t, plotPath)
}

func TestPredict_Solvers(t *testing.T) {
	in := dataFile(t, 2, 0.5, 64, 100, 144, 196, 256, 400)

	for _, name := range []string{fit.SolverLM, fit.SolverBFGS, fit.SolverLogLog} {
		t.Run(name, func(t *testing.T) {
			s, err := fit.NewSolver(name, 0)
			require.NoError(t, err)

			res, err := Predict(Config{
				FilePath:            in,
				MinEnergyForFitting: 60,
				EnergyGrid:          []float64{410},
				OutputFile:          filepath.Join(t.TempDir(), "out.txt"),
				Solver:              s,
			})
			require.NoError(t, err)
			assert.Equal(t, name, res.Fit.Solver)
			assert.InDelta(t, 2.0, res.A, 1e-3)
			assert.InDelta(t, 0.5, res.B, 1e-4)
		})
	}
}

func TestEvaluate(t *testing.T) {
	preds, err := Evaluate([]float64{0.5, 1}, []float64{10, 0, 2.5}, 5)
	require.NoError(t, err)
	require.Len(t, preds, 3)
	assert.Equal(t, Prediction{Energy: 10, HighEnergy: 15, Raw: 7.5, TAMMax: 8}, preds[0])
	assert.Equal(t, 3, preds[1].TAMMax)
	assert.Equal(t, 4, preds[2].TAMMax) // 0.5*7.5 = 3.75

	_, err = Evaluate([]float64{1, 1.5}, []float64{-10}, 0)
	require.ErrorIs(t, err, ErrDomain)

	_, err = Evaluate([]float64{1, -1}, []float64{0}, 0)
	require.ErrorIs(t, err, ErrDomain, "0^-1 is infinite")
}

func ExampleEvaluate() {
	preds, err := Evaluate([]float64{0.5, 1}, []float64{10, 20}, 5)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, p := range preds {
		fmt.Printf("%.4f -> %.1f -> %d\n", p.Energy, p.Raw, p.TAMMax)
	}
	// Output:
	// 10.0000 -> 7.5 -> 8
	// 20.0000 -> 12.5 -> 13
}
