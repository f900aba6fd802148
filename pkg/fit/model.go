package fit

import (
	"fmt"
	"math"

	"github.com/ja7ad/tamtrack/pkg/util"
)

// Model is a parametric curve y = f(x; p) with analytic parameter derivatives.
type Model interface {
	// NumParams returns len(p).
	NumParams() int
	// Eval returns f(x; p). It may return NaN/Inf outside the model domain.
	Eval(x float64, p []float64) float64
	// Grad writes ∂f/∂p at x into dst (len(dst) == NumParams()).
	Grad(dst []float64, x float64, p []float64)
}

// PowerLaw is y = a * x^b with p = [a, b].
type PowerLaw struct{}

func (PowerLaw) NumParams() int { return 2 }

func (PowerLaw) Eval(x float64, p []float64) float64 {
	return p[0] * math.Pow(x, p[1])
}

func (PowerLaw) Grad(dst []float64, x float64, p []float64) {
	xb := math.Pow(x, p[1])
	dst[0] = xb
	dst[1] = p[0] * xb * math.Log(x)
}

// Predict evaluates a*x^b and returns ErrDomain instead of a non-finite value.
func (PowerLaw) Predict(x float64, p []float64) (float64, error) {
	xb, err := util.Pow(x, p[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %g^%g: %w", ErrDomain, x, p[1], err)
	}
	v := p[0] * xb
	if !util.Finite(v) {
		return 0, fmt.Errorf("%w: %g*%g^%g", ErrDomain, p[0], x, p[1])
	}
	return v, nil
}

// Formula renders the fitted power law with two decimals per parameter.
func (PowerLaw) Formula(p []float64) string {
	return fmt.Sprintf("a E^b, a=%.2f, b=%.2f", p[0], p[1])
}

// Ceil rounds raw toward +Inf and converts it to int. Under-predicting a
// cutoff is never acceptable, so truncation and round-half rules are not used.
func Ceil(raw float64) (int, error) {
	if !util.Finite(raw) {
		return 0, fmt.Errorf("%w: cannot round %g", ErrDomain, raw)
	}
	c := math.Ceil(raw)
	if c >= math.MaxInt64 || c < math.MinInt64 {
		return 0, fmt.Errorf("%w: %g overflows int", ErrDomain, c)
	}
	return int(c), nil
}
