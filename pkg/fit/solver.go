package fit

import (
	"fmt"
	"strings"
)

// Solver fits a Model to (x, y) starting from init.
type Solver interface {
	Name() string
	Fit(m Model, x, y, init []float64) (*Result, error)
}

// Solver names accepted by NewSolver.
const (
	SolverLM     = "lm"
	SolverBFGS   = "bfgs"
	SolverLogLog = "loglog"
)

// NewSolver returns the solver registered under name (case-insensitive).
// maxIter <= 0 keeps the solver default.
func NewSolver(name string, maxIter int) (Solver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SolverLM:
		return &LM{MaxIter: maxIter}, nil
	case SolverBFGS:
		return &BFGS{MaxIter: maxIter}, nil
	case SolverLogLog:
		return LogLog{}, nil
	default:
		return nil, fmt.Errorf("fit: unknown solver %q (want %s, %s or %s)", name, SolverLM, SolverBFGS, SolverLogLog)
	}
}
