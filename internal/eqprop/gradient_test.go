package eqprop_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/nvandessel/eqprop/internal/eqprop"
	"github.com/nvandessel/eqprop/internal/network"
	"github.com/nvandessel/eqprop/internal/solver"
	"github.com/nvandessel/eqprop/internal/xor"
)

// initWeights reproduces the training loop's seeded initialization.
func initWeights(net *network.Network, seed int64) []float64 {
	wp := net.Weights
	rng := rand.New(rand.NewSource(seed))
	weights := make([]float64, net.NWeights())
	for i := range weights {
		g := wp.GMin() + rng.Float64()*(wp.GMax()-wp.GMin())
		weights[i] = 1.0 / g
	}
	return weights
}

// numericalGradient computes dC/dG per weight by central finite
// differences in conductance space, re-solving the equilibrium for
// each perturbation.
func numericalGradient(t *testing.T, net *network.Network, inputs, weights []float64, target, eps float64) []float64 {
	t.Helper()
	grad := make([]float64, net.NWeights())
	for k := range weights {
		g := 1.0 / weights[k]
		var losses [2]float64
		for s, sign := range []float64{+1, -1} {
			perturbed := append([]float64(nil), weights...)
			perturbed[k] = 1.0 / (g + sign*eps)
			res, err := solver.Solve(net, inputs, perturbed, solver.Options{})
			if err != nil {
				t.Fatalf("perturbed solve: %v", err)
			}
			pred := net.Prediction(res.Voltages)
			diff := target - pred
			losses[s] = 0.5 * diff * diff
		}
		grad[k] = (losses[0] - losses[1]) / (2 * eps)
	}
	return grad
}

func TestGradientMatchesFiniteDifference(t *testing.T) {
	net := xor.MakeNetwork()
	weights := initWeights(net, 42)
	const beta = 1e-5

	tests := []struct {
		name   string
		inputs []float64
		target float64
	}{
		{"(0,0)", xor.MakeInputs(1, 1), 0.0},
		{"(0,1)", xor.MakeInputs(1, 4), 0.3},
		{"(1,1)", xor.MakeInputs(4, 4), 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grad, _, _, err := eqprop.Gradient(net, tt.inputs, weights, tt.target, beta, nil)
			if err != nil {
				t.Fatalf("Gradient() error = %v", err)
			}
			num := numericalGradient(t, net, tt.inputs, weights, tt.target, 1e-5)

			for k := range grad {
				eq, nm := grad[k], num[k]
				if math.Abs(eq) < 1e-10 && math.Abs(nm) < 1e-10 {
					continue
				}
				if math.Abs(nm) > 1e-10 {
					relErr := math.Abs(eq-nm) / math.Abs(nm)
					if relErr >= 0.5 {
						t.Errorf("W%d: eqprop=%+.6g numerical=%+.6g relErr=%.2f", k+1, eq, nm, relErr)
					}
				}
			}
		})
	}
}

func TestGradientReturnsFreeEquilibrium(t *testing.T) {
	net := xor.MakeNetwork()
	weights := initWeights(net, 42)
	inputs := xor.MakeInputs(1, 4)

	_, pred, freeEq, err := eqprop.Gradient(net, inputs, weights, 0.3, 1e-5, nil)
	if err != nil {
		t.Fatalf("Gradient() error = %v", err)
	}
	if len(freeEq) != net.NFree {
		t.Fatalf("freeEq length = %d, want %d", len(freeEq), net.NFree)
	}
	if got := net.Prediction(freeEq); got != pred {
		t.Errorf("prediction %g inconsistent with returned equilibrium (%g)", pred, got)
	}

	// A precomputed equilibrium must short-circuit the free phase and
	// give the identical gradient.
	grad1, _, _, err := eqprop.Gradient(net, inputs, weights, 0.3, 1e-5, nil)
	if err != nil {
		t.Fatalf("Gradient() error = %v", err)
	}
	grad2, _, _, err := eqprop.Gradient(net, inputs, weights, 0.3, 1e-5, freeEq)
	if err != nil {
		t.Fatalf("Gradient() with freeEq error = %v", err)
	}
	for k := range grad1 {
		if grad1[k] != grad2[k] {
			t.Errorf("W%d: gradient differs with precomputed equilibrium: %g vs %g", k+1, grad1[k], grad2[k])
		}
	}
}

func TestGradientRejectsBadBeta(t *testing.T) {
	net := xor.MakeNetwork()
	weights := initWeights(net, 42)

	for _, beta := range []float64{0, -1e-5} {
		_, _, _, err := eqprop.Gradient(net, xor.MakeInputs(1, 1), weights, 0, beta, nil)
		if !errors.Is(err, eqprop.ErrBadHyperparam) {
			t.Errorf("beta=%g: error = %v, want ErrBadHyperparam", beta, err)
		}
	}
}
