package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

const (
	defaultGradTol = 1e-10
	// stationaryTol accepts a stalled line search whose point already
	// satisfies ||∇f||∞ <= stationaryTol * (1 + f) on the scaled objective.
	stationaryTol = 1e-9
)

// BFGS minimises SSR/Σy² with gonum's quasi-Newton BFGS method and an
// analytic gradient. For PowerLaw with a positive initial amplitude the
// search runs over (ln a, b), which keeps both coordinates on one scale.
type BFGS struct {
	MaxIter int
	// GradTol is the gradient norm threshold on the scaled objective
	// (default 1e-10).
	GradTol float64
}

func (s *BFGS) Name() string { return SolverBFGS }

func (s *BFGS) Fit(m Model, x, y, init []float64) (*Result, error) {
	if err := checkData(m, x, y, init); err != nil {
		return nil, err
	}
	n, np := len(x), m.NumParams()

	_, isPower := m.(PowerLaw)
	logA := isPower && init[0] > 0

	scale := 0.5 * floats.Dot(y, y)
	if scale == 0 {
		scale = 1
	}

	p := make([]float64, np)
	toParams := func(dst, q []float64) {
		copy(dst, q)
		if logA {
			dst[0] = math.Exp(q[0])
		}
	}
	q0 := append([]float64(nil), init...)
	if logA {
		q0[0] = math.Log(init[0])
	}

	r := make([]float64, n)
	row := make([]float64, np)
	if !residuals(r, m, x, y, init) {
		return nil, fmt.Errorf("%w: model not finite at initial guess %v", ErrConvergence, init)
	}

	problem := optimize.Problem{
		Func: func(q []float64) float64 {
			toParams(p, q)
			if !residuals(r, m, x, y, p) {
				return math.Inf(1)
			}
			return 0.5 * floats.Dot(r, r) / scale
		},
		Grad: func(grad, q []float64) {
			toParams(p, q)
			for j := range grad {
				grad[j] = 0
			}
			if !residuals(r, m, x, y, p) {
				for j := range grad {
					grad[j] = math.NaN()
				}
				return
			}
			for i := range x {
				m.Grad(row, x[i], p)
				floats.AddScaled(grad, r[i], row)
			}
			if logA {
				grad[0] *= p[0]
			}
			floats.Scale(1/scale, grad)
		},
	}

	maxIter := s.MaxIter
	if maxIter <= 0 {
		maxIter = defaultMaxIter
	}
	gradTol := s.GradTol
	if gradTol <= 0 {
		gradTol = defaultGradTol
	}
	settings := &optimize.Settings{
		GradientThreshold: gradTol,
		MajorIterations:   maxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-16,
			Relative:   1e-14,
			Iterations: 50,
		},
	}

	res, err := optimize.Minimize(problem, q0, settings, &optimize.BFGS{})
	if res == nil {
		return nil, fmt.Errorf("%w: %w", ErrConvergence, err)
	}
	if !converged(res.Status) && !stationary(problem, res.X) {
		if err == nil {
			err = fmt.Errorf("stopped with status %s", res.Status)
		}
		return nil, fmt.Errorf("%w: bfgs: %w", ErrConvergence, err)
	}

	best := make([]float64, np)
	toParams(best, res.X)
	return finish(s.Name(), m, x, y, best, res.Stats.MajorIterations)
}

func converged(st optimize.Status) bool {
	switch st {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence,
		optimize.FunctionThreshold, optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}

// stationary reports whether q is a minimum up to roundoff, which is where
// line searches on ceiled data tend to give up.
func stationary(problem optimize.Problem, q []float64) bool {
	f := problem.Func(q)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	g := make([]float64, len(q))
	problem.Grad(g, q)
	return !floats.HasNaN(g) && floats.Norm(g, math.Inf(1)) <= stationaryTol*(1+f)
}
