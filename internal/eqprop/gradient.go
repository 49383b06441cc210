// Package eqprop implements equilibrium propagation: a learning rule
// that estimates weight gradients from the difference between two
// physically perturbed equilibria instead of backpropagating through
// the network.
package eqprop

import (
	"errors"
	"fmt"

	"github.com/nvandessel/eqprop/internal/network"
	"github.com/nvandessel/eqprop/internal/solver"
)

// ErrBadHyperparam reports a hyperparameter the gradient or training
// loop cannot work with, such as a non-positive nudge strength.
var ErrBadHyperparam = errors.New("invalid hyperparameter")

// Gradient computes the EqProp gradient for one pattern using a
// symmetric nudge.
//
// The free-phase equilibrium is solved (or taken from freeEq when the
// caller already has it), the prediction error determines an
// error-proportional current injected at the nudge nodes with strength
// +beta and -beta, and both nudged equilibria are solved warm-started
// from the free phase. The gradient of the cost with respect to each
// weight's conductance is then
//
//	dC/dG_k = (dvPos_k^2 - dvNeg_k^2) / (4*beta)
//
// where dv is the voltage drop across weight k in each nudged state.
// The centered form halves the linear-response bias of a one-sided
// nudge at the cost of one extra solve.
//
// It returns the per-connection gradient, the free-phase prediction,
// and the free-phase equilibrium for reuse by the caller.
func Gradient(net *network.Network, inputs, weights []float64, target, beta float64, freeEq []float64) ([]float64, float64, []float64, error) {
	if !(beta > 0) {
		return nil, 0, nil, fmt.Errorf("%w: beta = %g, must be positive", ErrBadHyperparam, beta)
	}

	if freeEq == nil {
		res, err := solver.Solve(net, inputs, weights, solver.Options{})
		if err != nil {
			return nil, 0, nil, fmt.Errorf("free phase: %w", err)
		}
		if !res.Converged {
			return nil, 0, nil, fmt.Errorf("free phase: %w", solver.ErrNotConverged)
		}
		freeEq = res.Voltages
	}

	pred := net.Prediction(freeEq)
	errV := target - pred

	vPos, err := nudgedEquilibrium(net, inputs, weights, freeEq, net.NudgeCurrents(beta, errV))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("positive nudge: %w", err)
	}
	vNeg, err := nudgedEquilibrium(net, inputs, weights, freeEq, net.NudgeCurrents(-beta, errV))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("negative nudge: %w", err)
	}

	grad := make([]float64, net.NWeights())
	for k, c := range net.Connections {
		dvPos := globalVoltage(inputs, vPos, net.NFixed, c.Src) - globalVoltage(inputs, vPos, net.NFixed, c.Dst)
		dvNeg := globalVoltage(inputs, vNeg, net.NFixed, c.Src) - globalVoltage(inputs, vNeg, net.NFixed, c.Dst)
		grad[k] = (dvPos*dvPos - dvNeg*dvNeg) / (4 * beta)
	}

	return grad, pred, freeEq, nil
}

// nudgedEquilibrium solves one nudged phase. The free equilibrium is an
// excellent warm start: the nudge perturbation is small by design.
func nudgedEquilibrium(net *network.Network, inputs, weights, freeEq, nudge []float64) ([]float64, error) {
	res, err := solver.Solve(net, inputs, weights, solver.Options{
		Nudge:        nudge,
		InitialGuess: freeEq,
	})
	if err != nil {
		return nil, err
	}
	if !res.Converged {
		return nil, solver.ErrNotConverged
	}
	return res.Voltages, nil
}

func globalVoltage(inputs, free []float64, nFixed, global int) float64 {
	if global < nFixed {
		return inputs[global]
	}
	return free[global-nFixed]
}
