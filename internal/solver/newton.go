package solver

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// RootFinder solves F(x) = 0 for a multivariate residual. The residual
// writes F(x) into dst. Implementations must be deterministic for a
// fixed residual and starting point, and must terminate within a
// bounded iteration budget; non-convergence is reported through the
// returned flag, never by hanging.
type RootFinder interface {
	Solve(residual func(dst, x []float64), x0 []float64) (x []float64, converged bool, err error)
}

// Newton is a damped Newton-Raphson root finder. The Jacobian is
// estimated by central finite differences, the linear step is solved by
// LU factorization, and the step is halved until the residual norm
// improves or the damping floor is reached.
type Newton struct {
	// Tol is the convergence target on the infinity norm of the
	// residual (amperes, for KCL systems).
	Tol float64

	// MaxIter bounds the outer Newton iterations.
	MaxIter int

	// MinDamping is the floor of the backtracking step factor. At the
	// floor the step is taken even without improvement, so the
	// iteration cannot stall on a flat line search.
	MinDamping float64
}

// NewNewton returns a Newton finder with the tolerances used throughout
// the equilibrium solver.
func NewNewton() *Newton {
	return &Newton{
		Tol:        1e-12,
		MaxIter:    100,
		MinDamping: 1.0 / 1024.0,
	}
}

// Solve runs the damped Newton iteration from x0. The last iterate is
// always returned; converged reports whether the residual tolerance was
// met within the iteration budget. A non-nil error means the iteration
// could not proceed at all (singular Jacobian), not mere slow progress.
func (n *Newton) Solve(residual func(dst, x []float64), x0 []float64) ([]float64, bool, error) {
	dim := len(x0)
	x := append([]float64(nil), x0...)

	fx := make([]float64, dim)
	residual(fx, x)
	norm := infNorm(fx)

	jac := mat.NewDense(dim, dim, nil)
	rhs := mat.NewVecDense(dim, nil)
	step := mat.NewVecDense(dim, nil)
	xTrial := make([]float64, dim)
	fTrial := make([]float64, dim)
	var lu mat.LU

	settings := &fd.JacobianSettings{Formula: fd.Central}

	for iter := 0; iter < n.MaxIter; iter++ {
		if norm <= n.Tol {
			return x, true, nil
		}

		fd.Jacobian(jac, residual, x, settings)
		lu.Factorize(jac)
		for i := range fx {
			rhs.SetVec(i, -fx[i])
		}
		if err := lu.SolveVecTo(step, false, rhs); err != nil {
			// An ill-conditioned (but factorizable) Jacobian still
			// yields a usable step; only a truly singular system stops
			// the iteration.
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return x, false, fmt.Errorf("newton step at iteration %d: %w", iter, err)
			}
		}

		// Backtracking damping, simplified from the adaptive damping
		// ladder used in transient circuit solvers: halve until the
		// residual improves or the floor forces the step through.
		t := 1.0
		for {
			for i := range x {
				xTrial[i] = x[i] + t*step.AtVec(i)
			}
			residual(fTrial, xTrial)
			trialNorm := infNorm(fTrial)
			if trialNorm < norm || t <= n.MinDamping {
				copy(x, xTrial)
				copy(fx, fTrial)
				norm = trialNorm
				break
			}
			t *= 0.5
		}
	}

	return x, norm <= n.Tol, nil
}

func infNorm(v []float64) float64 {
	max := 0.0
	for _, x := range v {
		if x < 0 {
			x = -x
		}
		if x > max {
			max = x
		}
	}
	return max
}
