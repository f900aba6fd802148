package tam

import (
	"errors"

	"github.com/ja7ad/tamtrack/pkg/fit"
)

var (
	// ErrFile indicates the observation file is missing, unreadable or not a
	// numeric table with at least two columns.
	ErrFile = errors.New("tam: bad observation file")

	// ErrOutput indicates the prediction file could not be written.
	ErrOutput = errors.New("tam: cannot write predictions")

	// ErrEmptyGrid indicates an energy grid with no points.
	ErrEmptyGrid = errors.New("tam: empty energy grid")

	// ErrFitting indicates fewer observations above the threshold than fit
	// parameters.
	ErrFitting = fit.ErrFitting

	// ErrConvergence indicates the least-squares solver failed.
	ErrConvergence = fit.ErrConvergence

	// ErrDomain indicates a prediction that is not a finite real number,
	// e.g. a negative shifted energy raised to a fractional exponent.
	ErrDomain = fit.ErrDomain
)
