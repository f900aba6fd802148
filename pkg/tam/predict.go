package tam

import (
	"fmt"
	"log/slog"

	"github.com/ja7ad/tamtrack/pkg/chart"
	"github.com/ja7ad/tamtrack/pkg/fit"
	"github.com/ja7ad/tamtrack/pkg/util"
)

const (
	// DefaultOutputFile is where predictions go when Config.OutputFile is empty.
	DefaultOutputFile = "TAM_prediction.txt"

	// DefaultPlotFile is where the diagnostic figure goes when no Renderer is set.
	DefaultPlotFile = "TAM_fit.png"

	curveSamples = 200
)

// InitialGuess is the starting point (a, b) for the power-law fit.
var InitialGuess = []float64{1, 1}

// Config describes one prediction run.
type Config struct {
	FilePath            string
	MinEnergyForFitting float64
	EnergyOffset        float64
	EnergyGrid          []float64
	OutputFile          string
	EnablePlotting      bool

	// Solver defaults to Levenberg–Marquardt.
	Solver fit.Solver
	// Renderer defaults to a PNG file at DefaultPlotFile.
	Renderer chart.Renderer
	Logger   *slog.Logger
}

// Prediction is the extrapolated TAM_max at one grid point.
type Prediction struct {
	Energy     float64 // grid value as given
	HighEnergy float64 // Energy + offset
	Raw        float64 // a * HighEnergy^b
	TAMMax     int     // ceil(Raw)
}

// Result is everything a run produced.
type Result struct {
	A, B         float64
	Fit          *fit.Result
	Observations []Observation
	Fitted       []Observation
	Predictions  []Prediction
	// PlotErr records a rendering failure; it never fails the run.
	PlotErr error
}

// PredictTAM fits TAM_max(E) = a*E^b to the observations in filePath above
// minEnergyForFitting, writes ceil(a*(E+energyOffset)^b) for every grid
// energy to outputFile and returns (a, b).
func PredictTAM(filePath string, minEnergyForFitting, energyOffset float64, energyGrid []float64, outputFile string, enablePlotting bool) (a, b float64, err error) {
	res, err := Predict(Config{
		FilePath:            filePath,
		MinEnergyForFitting: minEnergyForFitting,
		EnergyOffset:        energyOffset,
		EnergyGrid:          energyGrid,
		OutputFile:          outputFile,
		EnablePlotting:      enablePlotting,
	})
	if err != nil {
		return 0, 0, err
	}
	return res.A, res.B, nil
}

// Predict runs load → filter → fit → evaluate → plot → write.
func Predict(cfg Config) (*Result, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("%w: no input path", ErrFile)
	}
	if len(cfg.EnergyGrid) == 0 {
		return nil, ErrEmptyGrid
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = DefaultOutputFile
	}
	solver := cfg.Solver
	if solver == nil {
		solver = &fit.LM{}
	}

	obs, err := ReadObservations(cfg.FilePath)
	if err != nil {
		return nil, err
	}
	fitted := Filter(obs, cfg.MinEnergyForFitting)
	log.Debug("observations loaded", "file", cfg.FilePath, "rows", len(obs), "above_threshold", len(fitted))

	model := fit.PowerLaw{}
	if len(fitted) < model.NumParams() {
		return nil, fmt.Errorf("%w: %d of %d observations above %g",
			ErrFitting, len(fitted), len(obs), cfg.MinEnergyForFitting)
	}

	x, y := columns(fitted)
	fr, err := solver.Fit(model, x, y, InitialGuess)
	if err != nil {
		return nil, fmt.Errorf("power-law fit (%s): %w", solver.Name(), err)
	}
	res := &Result{
		A:            fr.Params[0],
		B:            fr.Params[1],
		Fit:          fr,
		Observations: obs,
		Fitted:       fitted,
	}
	log.Info("power law fitted", "solver", fr.Solver, "a", res.A, "b", res.B,
		"r2", fr.RSquared, "iterations", fr.Iterations)

	res.Predictions, err = Evaluate(fr.Params, cfg.EnergyGrid, cfg.EnergyOffset)
	if err != nil {
		return nil, err
	}

	if cfg.EnablePlotting {
		r := cfg.Renderer
		if r == nil {
			r = chart.NewFile(DefaultPlotFile)
		}
		if err := r.Render(figure(res, cfg.EnergyOffset)); err != nil {
			res.PlotErr = err
			log.Warn("plot skipped", "err", err)
		}
	}

	if err := WritePredictions(cfg.OutputFile, res.Predictions); err != nil {
		return nil, err
	}
	log.Info("predictions written", "file", cfg.OutputFile, "rows", len(res.Predictions))
	return res, nil
}

// Evaluate shifts every grid energy by offset and rounds the fitted power
// law up to the next integer. Output order matches grid order.
func Evaluate(params, grid []float64, offset float64) ([]Prediction, error) {
	model := fit.PowerLaw{}
	out := make([]Prediction, len(grid))
	for i, e := range grid {
		he := e + offset
		raw, err := model.Predict(he, params)
		if err != nil {
			return nil, fmt.Errorf("grid[%d]=%g (shifted %g): %w", i, e, he, err)
		}
		n, err := fit.Ceil(raw)
		if err != nil {
			return nil, fmt.Errorf("grid[%d]=%g: %w", i, e, err)
		}
		out[i] = Prediction{Energy: e, HighEnergy: he, Raw: raw, TAMMax: n}
	}
	return out, nil
}

func figure(res *Result, offset float64) *chart.Figure {
	fig := &chart.Figure{
		Offset:   offset,
		FitLabel: fit.PowerLaw{}.Formula(res.Fit.Params),
	}
	fig.Energy, fig.TAM = columns(res.Observations)

	if lo, hi, ok := util.MinMaxPositive(fig.Energy); ok {
		for _, e := range util.Logspace(lo, hi, curveSamples) {
			if v, err := (fit.PowerLaw{}).Predict(e, res.Fit.Params); err == nil {
				fig.CurveX = append(fig.CurveX, e)
				fig.CurveY = append(fig.CurveY, v)
			}
		}
	}

	for _, p := range res.Predictions {
		fig.PredX = append(fig.PredX, p.HighEnergy)
		fig.PredY = append(fig.PredY, float64(p.TAMMax))
	}
	return fig
}
