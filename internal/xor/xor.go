// Package xor defines the reference 16-weight complementary-input XOR
// topology, its dataset, and a verification check for trained weights.
//
// Complementary inputs enable effective negative weights: the effective
// conductance of an input into a hidden node is
// g(X->H) - g(Xcomp->H).
package xor

import (
	"fmt"

	"github.com/nvandessel/eqprop/internal/device"
	"github.com/nvandessel/eqprop/internal/eqprop"
	"github.com/nvandessel/eqprop/internal/network"
	"github.com/nvandessel/eqprop/internal/solver"
)

// Voltage rails of the reference board.
const (
	VMid  = 2.5 // diode return rail (V)
	VLow  = 1.0 // low bias input (V)
	VHigh = 4.0 // high bias input (V)

	// VSupply is the rail complementary inputs are mirrored around.
	VSupply = 5.0
)

// Target is the output differential a logic-high pattern trains toward.
// 0.3V is what the diode clamping leaves achievable: hidden nodes sit
// in roughly 2.2-2.8V, bounding the output differential near 0.4V.
const Target = 0.3

// MakeNetwork creates the 16-weight complementary-input XOR network.
//
// Global node numbering:
//
//	0=X1, 1=X1c, 2=X2, 3=X2c, 4=VLOW, 5=VHIGH, 6=H1, 7=H2, 8=YP, 9=YN
//
// Free-node indexing: 0=H1, 1=H2, 2=YP, 3=YN.
func MakeNetwork() *network.Network {
	connections := []network.Connection{
		{Src: 0, Dst: 6}, // W1:  X1 -> H1
		{Src: 0, Dst: 7}, // W2:  X1 -> H2
		{Src: 1, Dst: 6}, // W3:  X1c -> H1
		{Src: 1, Dst: 7}, // W4:  X1c -> H2
		{Src: 2, Dst: 6}, // W5:  X2 -> H1
		{Src: 2, Dst: 7}, // W6:  X2 -> H2
		{Src: 3, Dst: 6}, // W7:  X2c -> H1
		{Src: 3, Dst: 7}, // W8:  X2c -> H2
		{Src: 4, Dst: 6}, // W9:  VLOW -> H1
		{Src: 4, Dst: 7}, // W10: VLOW -> H2
		{Src: 5, Dst: 6}, // W11: VHIGH -> H1
		{Src: 5, Dst: 7}, // W12: VHIGH -> H2
		{Src: 6, Dst: 8}, // W13: H1 -> YP
		{Src: 6, Dst: 9}, // W14: H1 -> YN
		{Src: 7, Dst: 8}, // W15: H2 -> YP
		{Src: 7, Dst: 9}, // W16: H2 -> YN
	}

	return &network.Network{
		NFixed:      6,
		NFree:       4,
		Connections: connections,
		DiodeNodes:  map[int]float64{0: VMid, 1: VMid}, // H1, H2
		OutputPos:   2,                                 // YP
		OutputNeg:   3,                                 // YN
		NudgeSigns:  map[int]float64{2: +1, 3: -1},     // into YP, out of YN
		NodeNames: []string{
			"x1", "x1c", "x2", "x2c", "vlow", "vhigh",
			"h1", "h2", "yp", "yn",
		},
		Diode:   device.BAT42(),
		Weights: device.MCP4251(),
	}
}

// MakeInputs builds the 6-element fixed-node voltage vector for the two
// logical inputs.
func MakeInputs(vX1, vX2 float64) []float64 {
	return []float64{vX1, VSupply - vX1, vX2, VSupply - vX2, VLow, VHigh}
}

// Dataset returns the four XOR patterns. Logic 0 is 1.0V, logic 1 is
// 4.0V; XOR-true patterns target a +0.3V differential.
func Dataset() []eqprop.Pattern {
	return []eqprop.Pattern{
		{Inputs: MakeInputs(1.0, 1.0), Target: 0.0},    // (0,0) -> 0
		{Inputs: MakeInputs(1.0, 4.0), Target: Target}, // (0,1) -> 1
		{Inputs: MakeInputs(4.0, 1.0), Target: Target}, // (1,0) -> 1
		{Inputs: MakeInputs(4.0, 4.0), Target: 0.0},    // (1,1) -> 0
	}
}

// Labels names the dataset patterns in order.
func Labels() []string {
	return []string{"(0,0)", "(0,1)", "(1,0)", "(1,1)"}
}

// PatternResult reports the verification of one pattern.
type PatternResult struct {
	Label      string
	Target     float64
	Prediction float64
	Correct    bool
}

// Verify solves every pattern at the given weights and checks the
// classification: XOR-true patterns must predict above threshold,
// XOR-false patterns within threshold of zero.
func Verify(net *network.Network, weights []float64, threshold float64) (bool, []PatternResult, error) {
	dataset := Dataset()
	labels := Labels()

	ok := true
	results := make([]PatternResult, len(dataset))
	for i, pat := range dataset {
		res, err := solver.Solve(net, pat.Inputs, weights, solver.Options{})
		if err != nil {
			return false, nil, fmt.Errorf("pattern %s: %w", labels[i], err)
		}
		pred := net.Prediction(res.Voltages)

		var correct bool
		if pat.Target > threshold {
			correct = pred > threshold
		} else {
			correct = pred < threshold && pred > -threshold
		}
		if !correct {
			ok = false
		}
		results[i] = PatternResult{
			Label:      labels[i],
			Target:     pat.Target,
			Prediction: pred,
			Correct:    correct,
		}
	}
	return ok, results, nil
}
