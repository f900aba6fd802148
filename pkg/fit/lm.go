package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LM is a Levenberg–Marquardt least-squares solver with Nielsen damping
// updates. Zero fields take the defaults below.
//
//   - Tau scales the initial damping: mu0 = Tau * max(diag(JᵀJ)).
//   - Eps1 stops on the gradient: ||Jᵀr||∞ <= Eps1.
//   - Eps2 stops on the step: ||h|| <= Eps2 * (||p|| + Eps2).
//   - FTol stops when both actual and predicted relative reductions of
//     the cost fall below it.
type LM struct {
	Tau     float64
	Eps1    float64
	Eps2    float64
	FTol    float64
	MaxIter int
}

const (
	defaultTau     = 1e-3
	defaultEps1    = 1e-12
	defaultEps2    = 1.49012e-8
	defaultFTol    = 1.49012e-8
	defaultMaxIter = 500
)

func (s *LM) Name() string { return SolverLM }

func (s *LM) withDefaults() LM {
	c := *s
	if c.Tau <= 0 {
		c.Tau = defaultTau
	}
	if c.Eps1 <= 0 {
		c.Eps1 = defaultEps1
	}
	if c.Eps2 <= 0 {
		c.Eps2 = defaultEps2
	}
	if c.FTol <= 0 {
		c.FTol = defaultFTol
	}
	if c.MaxIter <= 0 {
		c.MaxIter = defaultMaxIter
	}
	return c
}

// Fit minimises Σ(f(x[i]; p) - y[i])² starting from init.
func (s *LM) Fit(m Model, x, y, init []float64) (*Result, error) {
	if err := checkData(m, x, y, init); err != nil {
		return nil, err
	}
	cfg := s.withDefaults()
	n, np := len(x), m.NumParams()

	p := append([]float64(nil), init...)
	r := make([]float64, n)
	J := mat.NewDense(n, np, nil)
	if !residuals(r, m, x, y, p) || !jacobian(J, m, x, p) {
		return nil, fmt.Errorf("%w: model not finite at initial guess %v", ErrConvergence, p)
	}

	var (
		A    mat.SymDense
		chol mat.Cholesky
	)
	g := mat.NewVecDense(np, nil)
	negG := mat.NewVecDense(np, nil)
	h := mat.NewVecDense(np, nil)
	aug := mat.NewSymDense(np, nil)
	pNew := make([]float64, np)
	rNew := make([]float64, n)

	normal := func() {
		A.SymOuterK(1, J.T())
		g.MulVec(J.T(), mat.NewVecDense(n, r))
	}
	normal()

	cost := 0.5 * floats.Dot(r, r)
	maxDiag := 0.0
	for i := 0; i < np; i++ {
		maxDiag = math.Max(maxDiag, A.At(i, i))
	}
	mu, nu := cfg.Tau*maxDiag, 2.0

	found := cost == 0 || mat.Norm(g, math.Inf(1)) <= cfg.Eps1
	iter := 0
	for ; !found && iter < cfg.MaxIter; iter++ {
		aug.CopySym(&A)
		for i := 0; i < np; i++ {
			aug.SetSym(i, i, aug.At(i, i)+mu)
		}
		negG.ScaleVec(-1, g)
		if ok := chol.Factorize(aug); !ok {
			mu, nu = mu*nu, nu*2
			continue
		}
		if err := chol.SolveVecTo(h, negG); err != nil {
			mu, nu = mu*nu, nu*2
			continue
		}

		if mat.Norm(h, 2) <= cfg.Eps2*(floats.Norm(p, 2)+cfg.Eps2) {
			found = true
			break
		}

		floats.AddTo(pNew, p, h.RawVector().Data)
		if !residuals(rNew, m, x, y, pNew) {
			// outside the model domain: treat as a rejected step
			mu, nu = mu*nu, nu*2
			continue
		}
		costNew := 0.5 * floats.Dot(rNew, rNew)

		// predicted reduction L(0) - L(h) = ½ hᵀ(mu h - g)
		predicted := 0.5 * (mu*mat.Dot(h, h) - mat.Dot(h, g))
		actual := cost - costNew
		rho := actual / predicted

		if predicted > 0 && rho > 0 {
			copy(p, pNew)
			copy(r, rNew)
			if !jacobian(J, m, x, p) {
				return nil, fmt.Errorf("%w: jacobian not finite at %v", ErrConvergence, p)
			}
			normal()
			small := actual <= cfg.FTol*cost && predicted <= cfg.FTol*cost
			cost = costNew
			found = cost == 0 || small || mat.Norm(g, math.Inf(1)) <= cfg.Eps1
			mu *= math.Max(1.0/3.0, 1-math.Pow(2*rho-1, 3))
			nu = 2
		} else {
			mu, nu = mu*nu, nu*2
		}

		if math.IsInf(mu, 1) || math.IsNaN(mu) {
			return nil, fmt.Errorf("%w: damping diverged after %d iterations", ErrConvergence, iter+1)
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: no convergence in %d iterations (p=%v)", ErrConvergence, cfg.MaxIter, p)
	}
	return finish(cfg.Name(), m, x, y, p, iter)
}
