package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ja7ad/tamtrack/pkg/util"
)

// condLimit bounds the condition number of JᵀJ at the solution. Beyond it
// the parameters are not identifiable from the data.
const condLimit = 1e14

// Result is the outcome of a least-squares fit.
type Result struct {
	Solver string
	// Params holds the fitted parameters in model order.
	Params []float64
	// StdErr is sqrt(diag(s²(JᵀJ)⁻¹)). It is nil when there are no
	// degrees of freedom left (n <= p).
	StdErr     []float64
	SSR        float64 // sum of squared residuals
	RMSE       float64
	RSquared   float64
	Iterations int
}

func (r *Result) String() string {
	return fmt.Sprintf("Result{Solver: %s, Params: %v, SSR: %.6g, R²: %.6f, Iter: %d}",
		r.Solver, r.Params, r.SSR, r.RSquared, r.Iterations)
}

func checkData(m Model, x, y, init []float64) error {
	p := m.NumParams()
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d x values, %d y values", ErrShape, len(x), len(y))
	}
	if init != nil && len(init) != p {
		return fmt.Errorf("%w: initial guess has %d values, model has %d parameters", ErrShape, len(init), p)
	}
	if len(x) < p {
		return fmt.Errorf("%w: need at least %d, got %d", ErrFitting, p, len(x))
	}
	if !util.Finite(x...) || !util.Finite(y...) {
		return fmt.Errorf("%w: non-finite data", ErrConvergence)
	}
	return nil
}

// residuals fills r[i] = f(x[i]; p) - y[i] and reports whether all are finite.
func residuals(r []float64, m Model, x, y, p []float64) bool {
	for i := range x {
		r[i] = m.Eval(x[i], p) - y[i]
	}
	return util.Finite(r...)
}

// jacobian fills J[i][j] = ∂f(x[i])/∂p[j] and reports whether all are finite.
func jacobian(J *mat.Dense, m Model, x, p []float64) bool {
	row := make([]float64, m.NumParams())
	for i := range x {
		m.Grad(row, x[i], p)
		if !util.Finite(row...) {
			return false
		}
		J.SetRow(i, row)
	}
	return true
}

// finish computes goodness-of-fit statistics and parameter standard errors
// at p. It fails with ErrConvergence when JᵀJ is singular at the solution.
func finish(name string, m Model, x, y, p []float64, iters int) (*Result, error) {
	n, np := len(x), m.NumParams()
	r := make([]float64, n)
	J := mat.NewDense(n, np, nil)
	if !residuals(r, m, x, y, p) || !jacobian(J, m, x, p) {
		return nil, fmt.Errorf("%w: model not finite at solution %v", ErrConvergence, p)
	}

	var jtj mat.SymDense
	jtj.SymOuterK(1, J.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&jtj); !ok || chol.Cond() > condLimit {
		return nil, fmt.Errorf("%w: singular Jacobian at solution %v", ErrConvergence, p)
	}

	var ssr float64
	est := make([]float64, n)
	for i := range r {
		ssr += r[i] * r[i]
		est[i] = r[i] + y[i]
	}

	res := &Result{
		Solver:     name,
		Params:     append([]float64(nil), p...),
		SSR:        ssr,
		RMSE:       math.Sqrt(ssr / float64(n)),
		RSquared:   stat.RSquaredFrom(est, y, nil),
		Iterations: iters,
	}

	if n > np {
		var cov mat.SymDense
		if err := chol.InverseTo(&cov); err == nil {
			s2 := ssr / float64(n-np)
			res.StdErr = make([]float64, np)
			for i := range res.StdErr {
				res.StdErr[i] = math.Sqrt(s2 * cov.At(i, i))
			}
		}
	}
	return res, nil
}
