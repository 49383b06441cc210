// Package network defines the immutable topology of a resistive analog
// network: node counts, weight-resistor connections, diode placements,
// and output/nudge wiring.
//
// Nodes are numbered globally: fixed (clamped) nodes first, occupying
// [0, NFixed), then free (solved) nodes in [NFixed, NFixed+NFree). The
// solver works on free-node voltages only; fixed-node voltages are
// inputs.
package network

import (
	"errors"
	"fmt"

	"github.com/nvandessel/eqprop/internal/device"
)

// ErrTopology reports malformed network data: dangling connection
// endpoints or out-of-range free-node references.
var ErrTopology = errors.New("invalid network topology")

// Connection is one weight resistor between two global node indices.
// Current sign convention: positive current flows from Src to Dst.
type Connection struct {
	Src int
	Dst int
}

// Network describes a resistive analog network. It is treated as
// immutable after construction; all methods are pure queries.
type Network struct {
	// NFixed is the number of clamped (input/bias) nodes.
	NFixed int

	// NFree is the number of free (solved) nodes.
	NFree int

	// Connections lists one entry per weight resistor. The order
	// defines the indexing of every weight vector handed to the
	// solver and the gradient, and must not change between calls.
	Connections []Connection

	// DiodeNodes maps a free-node index (0-based into the free array)
	// to the reference voltage of that node's antiparallel diode pair.
	DiodeNodes map[int]float64

	// OutputPos and OutputNeg are the free-node indices whose voltage
	// difference is the network's scalar prediction.
	OutputPos int
	OutputNeg int

	// NudgeSigns maps a free-node index to the sign (+1 or -1) of the
	// error-proportional current injected there during the nudge phase.
	NudgeSigns map[int]float64

	// NodeNames optionally names each global node for reporting and
	// for cross-validation against an external reference solver.
	NodeNames []string

	// Diode and Weights hold the shared physical constants.
	Diode   device.DiodeParams
	Weights device.WeightParams
}

// NWeights returns the number of weight resistors.
func (n *Network) NWeights() int { return len(n.Connections) }

// NNodes returns the total global node count.
func (n *Network) NNodes() int { return n.NFixed + n.NFree }

// Validate checks the topology invariants: every connection endpoint is
// a valid global index and every free-node reference is in [0, NFree).
// Malformed data is reported here rather than surfacing later as an
// index panic inside the solver.
func (n *Network) Validate() error {
	if n.NFixed < 0 || n.NFree <= 0 {
		return fmt.Errorf("%w: %d fixed / %d free nodes", ErrTopology, n.NFixed, n.NFree)
	}
	total := n.NNodes()
	for k, c := range n.Connections {
		if c.Src < 0 || c.Src >= total || c.Dst < 0 || c.Dst >= total {
			return fmt.Errorf("%w: connection %d (%d,%d) outside [0,%d)", ErrTopology, k, c.Src, c.Dst, total)
		}
		if c.Src == c.Dst {
			return fmt.Errorf("%w: connection %d is a self-loop on node %d", ErrTopology, k, c.Src)
		}
	}
	for idx := range n.DiodeNodes {
		if idx < 0 || idx >= n.NFree {
			return fmt.Errorf("%w: diode on free node %d outside [0,%d)", ErrTopology, idx, n.NFree)
		}
	}
	for idx := range n.NudgeSigns {
		if idx < 0 || idx >= n.NFree {
			return fmt.Errorf("%w: nudge sign on free node %d outside [0,%d)", ErrTopology, idx, n.NFree)
		}
	}
	if n.OutputPos < 0 || n.OutputPos >= n.NFree || n.OutputNeg < 0 || n.OutputNeg >= n.NFree {
		return fmt.Errorf("%w: output nodes (%d,%d) outside [0,%d)", ErrTopology, n.OutputPos, n.OutputNeg, n.NFree)
	}
	if n.NodeNames != nil && len(n.NodeNames) != total {
		return fmt.Errorf("%w: %d node names for %d nodes", ErrTopology, len(n.NodeNames), total)
	}
	return nil
}

// Prediction returns the output differential for a set of free-node
// voltages.
func (n *Network) Prediction(free []float64) float64 {
	return free[n.OutputPos] - free[n.OutputNeg]
}

// NudgeCurrents builds the external current vector for the nudge phase:
// sign * beta * err at each nudge node, zero elsewhere.
func (n *Network) NudgeCurrents(beta, err float64) []float64 {
	nudge := make([]float64, n.NFree)
	for idx, sign := range n.NudgeSigns {
		nudge[idx] = sign * beta * err
	}
	return nudge
}
