// Package fit provides nonlinear least-squares fitting of small parametric
// models, primarily the power law y = a*x^b.
//
// Solvers
//
//   - LM (default): Levenberg–Marquardt on the normal equations (gonum/mat
//     Cholesky). Damping starts at Tau*max(diag(JᵀJ)) and is updated with
//     Nielsen's rule after every accepted step.
//   - BFGS: gonum/optimize quasi-Newton minimisation of ½·SSR.
//   - LogLog: closed-form OLS on (ln x, ln y); a cheap cross-check.
//
// Every solver finishes with the same statistics (SSR, RMSE, R², parameter
// standard errors) and fails with ErrConvergence when JᵀJ is singular at the
// solution, i.e. when the data cannot pin down the parameters.
//
// Errors (errs.go):
//
//	ErrFitting     : fewer points than parameters
//	ErrConvergence : solver failure, non-finite model, singular system
//	ErrDomain      : non-finite evaluation (negative base, fractional exponent)
//	ErrShape       : mismatched slice lengths
package fit
