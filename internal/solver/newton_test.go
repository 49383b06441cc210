package solver

import (
	"math"
	"testing"
)

func TestNewton_LinearSystem(t *testing.T) {
	// F(x) = A*x - b with A = [[2,1],[1,3]], b = [3,5].
	residual := func(dst, x []float64) {
		dst[0] = 2*x[0] + x[1] - 3
		dst[1] = x[0] + 3*x[1] - 5
	}

	x, converged, err := NewNewton().Solve(residual, []float64{0, 0})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if !converged {
		t.Fatal("Solve() did not converge on a linear system")
	}
	// Exact solution: x = (4/5, 7/5).
	if math.Abs(x[0]-0.8) > 1e-9 || math.Abs(x[1]-1.4) > 1e-9 {
		t.Errorf("Solve() = %v, want [0.8 1.4]", x)
	}
}

func TestNewton_NonlinearSystem(t *testing.T) {
	// x^2 + y^2 = 4, y = x  =>  x = y = sqrt(2) from a positive start.
	residual := func(dst, x []float64) {
		dst[0] = x[0]*x[0] + x[1]*x[1] - 4
		dst[1] = x[1] - x[0]
	}

	finder := NewNewton()
	finder.Tol = 1e-10
	x, converged, err := finder.Solve(residual, []float64{1, 1})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if !converged {
		t.Fatal("Solve() did not converge")
	}
	want := math.Sqrt2
	if math.Abs(x[0]-want) > 1e-8 || math.Abs(x[1]-want) > 1e-8 {
		t.Errorf("Solve() = %v, want [%g %g]", x, want, want)
	}
}

func TestNewton_BudgetExhausted(t *testing.T) {
	residual := func(dst, x []float64) {
		dst[0] = math.Exp(x[0]) // no root anywhere
	}

	finder := NewNewton()
	finder.MaxIter = 5
	x, converged, err := finder.Solve(residual, []float64{0})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if converged {
		t.Error("Solve() reported convergence on a rootless residual")
	}
	if len(x) != 1 || math.IsNaN(x[0]) {
		t.Errorf("Solve() last iterate = %v, want a finite value", x)
	}
}

func TestNewton_DoesNotMutateStart(t *testing.T) {
	residual := func(dst, x []float64) {
		dst[0] = x[0] - 1
	}

	x0 := []float64{5}
	if _, _, err := NewNewton().Solve(residual, x0); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if x0[0] != 5 {
		t.Errorf("starting point mutated to %g", x0[0])
	}
}
