package device

import "math"

// WeightParams describes the physical constraints of a weight resistor:
// a digitally controlled potentiometer in series with a protection
// resistor. Tap 1 is full-scale resistance, tap NTaps is the wiper
// minimum.
type WeightParams struct {
	RSeries  float64 // series protection resistor (ohm)
	RMin     float64 // minimum total resistance (ohm)
	RMax     float64 // maximum total resistance (ohm)
	NTaps    int     // discrete tap positions
	RPotFull float64 // full-scale pot resistance (ohm)
}

// MCP4251 returns the parameters of the MCP4251-104 digital pot with a
// 1.2k series protection resistor, the weight element on the reference
// board.
func MCP4251() WeightParams {
	return WeightParams{
		RSeries:  1200.0,
		RMin:     1590.0,   // tap 256: 390 wiper + 1200 series
		RMax:     101200.0, // tap 1: 100k + 1200 series
		NTaps:    256,
		RPotFull: 100000.0,
	}
}

// GMin returns the smallest reachable conductance (at RMax).
func (wp WeightParams) GMin() float64 { return 1.0 / wp.RMax }

// GMax returns the largest reachable conductance (at RMin).
func (wp WeightParams) GMax() float64 { return 1.0 / wp.RMin }

// ResistanceToTap maps a continuous resistance to the nearest tap
// position, clamped to [1, NTaps].
func (wp WeightParams) ResistanceToTap(r float64) int {
	rPot := r - wp.RSeries
	tap := int(math.Round((wp.RPotFull - rPot) * float64(wp.NTaps) / wp.RPotFull))
	if tap < 1 {
		tap = 1
	} else if tap > wp.NTaps {
		tap = wp.NTaps
	}
	return tap
}

// TapToResistance maps a tap position to its exact resistance. It is
// the deterministic inverse of ResistanceToTap: the returned resistance
// always rounds back to the same tap.
func (wp WeightParams) TapToResistance(tap int) float64 {
	rPot := wp.RPotFull * (1.0 - float64(tap)/float64(wp.NTaps))
	return rPot + wp.RSeries
}

// QuantizeWeights rounds each weight to its nearest hardware tap and
// back. Applying QuantizeWeights to its own output is a no-op: every
// produced resistance sits exactly on a tap.
func (wp WeightParams) QuantizeWeights(weights []float64) ([]float64, []int) {
	quantized := make([]float64, len(weights))
	taps := make([]int, len(weights))
	for i, r := range weights {
		taps[i] = wp.ResistanceToTap(r)
		quantized[i] = wp.TapToResistance(taps[i])
	}
	return quantized, taps
}
