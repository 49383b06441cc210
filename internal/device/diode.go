// Package device models the physical components of the analog network:
// the antiparallel Schottky diode pairs used as activations and the
// digital-pot weight resistors.
package device

import "math"

// DiodeParams holds the diode model parameters for an antiparallel
// activation pair.
type DiodeParams struct {
	Is float64 // saturation current (A)
	N  float64 // ideality factor
	VT float64 // thermal voltage (V)
}

// BAT42 returns the BAT42 Schottky parameters (datasheet values, VT at
// 27C) used for every activation pair on the reference board.
func BAT42() DiodeParams {
	return DiodeParams{Is: 1e-7, N: 1.1, VT: 0.02585}
}

// sinhArgLimit bounds the argument passed to sinh. Beyond roughly 710
// the exponential overflows float64; Newton iterations can probe node
// voltages far outside the equilibrium band, so the clamp is a
// correctness requirement, not an optimization.
const sinhArgLimit = 500.0

// DiodeCurrentInto returns the net current flowing into vNode from an
// antiparallel diode pair referenced to vRef:
//
//	I = -2 * Is * sinh((vNode - vRef) / (N * VT))
//
// Positive current flows into the node: the pair sinks current toward
// vRef when vNode rises above it, clamping the node near the reference.
func DiodeCurrentInto(vNode, vRef float64, p DiodeParams) float64 {
	x := (vNode - vRef) / (p.N * p.VT)
	if x > sinhArgLimit {
		x = sinhArgLimit
	} else if x < -sinhArgLimit {
		x = -sinhArgLimit
	}
	return -2 * p.Is * math.Sinh(x)
}
