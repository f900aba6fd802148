package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// LogLog fits y = a*x^b by ordinary least squares on (ln x, ln y). It is
// closed-form and ignores the initial guess, but it minimises the error in
// log space, not the SSR of y. It only supports PowerLaw.
type LogLog struct{}

func (LogLog) Name() string { return SolverLogLog }

func (l LogLog) Fit(m Model, x, y, init []float64) (*Result, error) {
	if _, ok := m.(PowerLaw); !ok {
		return nil, fmt.Errorf("fit: %s solver supports only the power law model", l.Name())
	}
	if err := checkData(m, x, y, init); err != nil {
		return nil, err
	}

	lx := make([]float64, len(x))
	ly := make([]float64, len(y))
	for i := range x {
		if x[i] <= 0 || y[i] <= 0 {
			return nil, fmt.Errorf("%w: log-log fit needs positive data, got (%g, %g)", ErrConvergence, x[i], y[i])
		}
		lx[i], ly[i] = math.Log(x[i]), math.Log(y[i])
	}

	alpha, beta := stat.LinearRegression(lx, ly, nil, false)
	return finish(l.Name(), m, x, y, []float64{math.Exp(alpha), beta}, 0)
}
