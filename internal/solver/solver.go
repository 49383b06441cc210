// Package solver computes the steady-state free-node voltages of a
// resistive analog network: the point where Kirchhoff's Current Law
// holds at every free node under fixed input voltages, diode activation
// currents, and optional external current injection.
//
// The solve runs in two stages. A linear pre-solve ignores the diodes
// and solves the purely resistive nodal system exactly; it exists
// because the full nonlinear system has a near-singular Jacobian at the
// diode pair's symmetric zero-current point, which stalls Newton
// iteration from an arbitrary start. The resistive solution is always
// well posed when every free node has a resistive path to a fixed node,
// and lands close enough to the true equilibrium to seed the damped
// Newton stage reliably.
package solver

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/nvandessel/eqprop/internal/device"
	"github.com/nvandessel/eqprop/internal/network"
)

var (
	// ErrSingular reports a singular resistive conductance matrix: some
	// free node has no resistive path to a fixed node.
	ErrSingular = errors.New("singular conductance matrix")

	// ErrBadInput reports malformed solver arguments: length mismatches
	// or non-positive resistances.
	ErrBadInput = errors.New("invalid solver input")

	// ErrNotConverged marks a solve whose last iterate missed the
	// residual tolerance. The voltages are still returned for callers
	// that accept best-effort results; strict callers promote the flag
	// to this error.
	ErrNotConverged = errors.New("equilibrium solve did not converge")
)

// Options carries the optional arguments of Solve.
type Options struct {
	// Nudge is an external current injection per free node (amperes,
	// positive into the node). Nil means no injection.
	Nudge []float64

	// InitialGuess seeds the Newton iteration, typically with a nearby
	// equilibrium. It is a performance hint only; when nil the linear
	// pre-solve provides the seed.
	InitialGuess []float64

	// Finder overrides the root-finding method. Nil selects the
	// default damped Newton iteration.
	Finder RootFinder
}

// Result is the outcome of an equilibrium solve.
type Result struct {
	// Voltages holds the free-node voltages of the last iterate. Fresh
	// on every call; never aliased to caller data.
	Voltages []float64

	// Converged reports whether the KCL residual met tolerance. A
	// false value means Voltages is the solver's best effort.
	Converged bool
}

// Solve computes the equilibrium free-node voltages for net under the
// given fixed-node inputs and connection resistances. For fixed
// arguments the result is deterministic.
func Solve(net *network.Network, inputs, weights []float64, opts Options) (Result, error) {
	if err := validate(net, inputs, weights, opts); err != nil {
		return Result{}, err
	}

	nudge := opts.Nudge
	if nudge == nil {
		nudge = make([]float64, net.NFree)
	}

	residual := kclResidual(net, inputs, weights, nudge)

	x0 := opts.InitialGuess
	if x0 == nil {
		guess, err := ResistiveInitialGuess(net, inputs, weights)
		if err != nil {
			return Result{}, err
		}
		x0 = guess
	}

	finder := opts.Finder
	if finder == nil {
		finder = NewNewton()
	}

	x, converged, err := finder.Solve(residual, x0)
	if err != nil {
		return Result{}, fmt.Errorf("equilibrium solve: %w", err)
	}
	return Result{Voltages: x, Converged: converged}, nil
}

// ResistiveInitialGuess solves the network with diodes ignored: the
// standard nodal-analysis linear system G*x = I built from the weight
// conductances alone. The result seeds the nonlinear stage.
func ResistiveInitialGuess(net *network.Network, inputs, weights []float64) ([]float64, error) {
	nFree := net.NFree
	g := mat.NewDense(nFree, nFree, nil)
	b := mat.NewVecDense(nFree, nil)

	for k, c := range net.Connections {
		gk := 1.0 / weights[k]
		iFree := c.Src - net.NFixed
		jFree := c.Dst - net.NFixed

		switch {
		case iFree >= 0 && jFree >= 0:
			g.Set(iFree, iFree, g.At(iFree, iFree)+gk)
			g.Set(jFree, jFree, g.At(jFree, jFree)+gk)
			g.Set(iFree, jFree, g.At(iFree, jFree)-gk)
			g.Set(jFree, iFree, g.At(jFree, iFree)-gk)
		case iFree >= 0:
			g.Set(iFree, iFree, g.At(iFree, iFree)+gk)
			b.SetVec(iFree, b.AtVec(iFree)+gk*inputs[c.Dst])
		case jFree >= 0:
			g.Set(jFree, jFree, g.At(jFree, jFree)+gk)
			b.SetVec(jFree, b.AtVec(jFree)+gk*inputs[c.Src])
		}
	}

	var lu mat.LU
	lu.Factorize(g)
	x := mat.NewVecDense(nFree, nil)
	if err := lu.SolveVecTo(x, false, b); err != nil {
		return nil, fmt.Errorf("%w: resistive pre-solve: %v", ErrSingular, err)
	}

	out := make([]float64, nFree)
	copy(out, x.RawVector().Data)
	return out, nil
}

// kclResidual builds the residual F(state): the net current imbalance
// at each free node for a candidate free-voltage vector. Equilibrium is
// F(state) = 0 everywhere.
func kclResidual(net *network.Network, inputs, weights, nudge []float64) func(dst, state []float64) {
	nFixed := net.NFixed
	return func(dst, state []float64) {
		for i := range dst {
			dst[i] = nudge[i]
		}

		// Resistive currents. Current flows from Src to Dst: it leaves
		// the source node and enters the destination node.
		for k, c := range net.Connections {
			vi := nodeVoltage(inputs, state, nFixed, c.Src)
			vj := nodeVoltage(inputs, state, nFixed, c.Dst)
			cur := (vi - vj) / weights[k]
			if c.Dst >= nFixed {
				dst[c.Dst-nFixed] += cur
			}
			if c.Src >= nFixed {
				dst[c.Src-nFixed] -= cur
			}
		}

		// Diode activation currents.
		for idx, vRef := range net.DiodeNodes {
			dst[idx] += device.DiodeCurrentInto(state[idx], vRef, net.Diode)
		}
	}
}

func nodeVoltage(inputs, state []float64, nFixed, global int) float64 {
	if global < nFixed {
		return inputs[global]
	}
	return state[global-nFixed]
}

func validate(net *network.Network, inputs, weights []float64, opts Options) error {
	if err := net.Validate(); err != nil {
		return err
	}
	if len(inputs) != net.NFixed {
		return fmt.Errorf("%w: %d inputs for %d fixed nodes", ErrBadInput, len(inputs), net.NFixed)
	}
	if len(weights) != net.NWeights() {
		return fmt.Errorf("%w: %d weights for %d connections", ErrBadInput, len(weights), net.NWeights())
	}
	for k, w := range weights {
		if !(w > 0) {
			return fmt.Errorf("%w: weight %d has non-positive resistance %g", ErrBadInput, k, w)
		}
	}
	if opts.Nudge != nil && len(opts.Nudge) != net.NFree {
		return fmt.Errorf("%w: nudge length %d for %d free nodes", ErrBadInput, len(opts.Nudge), net.NFree)
	}
	if opts.InitialGuess != nil && len(opts.InitialGuess) != net.NFree {
		return fmt.Errorf("%w: initial guess length %d for %d free nodes", ErrBadInput, len(opts.InitialGuess), net.NFree)
	}
	return nil
}
