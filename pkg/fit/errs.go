package fit

import "errors"

var (
	// ErrFitting indicates there are fewer data points than model parameters.
	ErrFitting = errors.New("fit: not enough data points")

	// ErrConvergence indicates the solver did not reach a usable minimum
	// (non-finite model values, singular normal equations, exhausted iterations).
	ErrConvergence = errors.New("fit: solver did not converge")

	// ErrDomain indicates a model evaluation produced NaN or ±Inf.
	ErrDomain = errors.New("fit: value outside real domain")

	// ErrShape indicates mismatched x/y or initial-guess lengths.
	ErrShape = errors.New("fit: mismatched input lengths")
)
