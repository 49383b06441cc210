// Package oracle defines the interface to an external reference solver
// (typically a SPICE harness) and a comparison helper that validates
// the internal equilibrium solver against it. Netlist generation and
// simulator invocation live behind the interface; this package only
// consumes named node voltages.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/nvandessel/eqprop/internal/network"
	"github.com/nvandessel/eqprop/internal/solver"
)

// ErrUnavailable reports that the external solver cannot run, for
// example because the simulator binary is not installed.
var ErrUnavailable = errors.New("reference solver unavailable")

// Oracle solves the same equilibrium problem as the internal solver
// through an external tool and reports voltages by node name.
type Oracle interface {
	Solve(ctx context.Context, net *network.Network, inputs, weights, nudge []float64) (map[string]float64, error)
}

// NodeDelta is the per-node outcome of a cross-validation.
type NodeDelta struct {
	Node      string
	Internal  float64
	Reference float64
	Delta     float64
}

// Comparison summarizes a cross-validation run over the free nodes.
type Comparison struct {
	Deltas   []NodeDelta
	MaxDelta float64
}

// Agrees reports whether every compared node is within tol.
func (c *Comparison) Agrees(tol float64) bool {
	return c.MaxDelta <= tol
}

// Compare solves the equilibrium internally and through the oracle and
// diffs the free-node voltages by name. Nodes the oracle does not
// report are skipped; the network must carry node names.
func Compare(ctx context.Context, o Oracle, net *network.Network, inputs, weights, nudge []float64) (*Comparison, error) {
	if net.NodeNames == nil {
		return nil, fmt.Errorf("network has no node names to compare by")
	}

	res, err := solver.Solve(net, inputs, weights, solver.Options{Nudge: nudge})
	if err != nil {
		return nil, fmt.Errorf("internal solve: %w", err)
	}
	if !res.Converged {
		return nil, fmt.Errorf("internal solve: %w", solver.ErrNotConverged)
	}

	ref, err := o.Solve(ctx, net, inputs, weights, nudge)
	if err != nil {
		return nil, fmt.Errorf("reference solve: %w", err)
	}

	cmp := &Comparison{}
	for i := 0; i < net.NFree; i++ {
		name := net.NodeNames[net.NFixed+i]
		refV, ok := ref[name]
		if !ok {
			continue
		}
		delta := math.Abs(res.Voltages[i] - refV)
		cmp.Deltas = append(cmp.Deltas, NodeDelta{
			Node:      name,
			Internal:  res.Voltages[i],
			Reference: refV,
			Delta:     delta,
		})
		if delta > cmp.MaxDelta {
			cmp.MaxDelta = delta
		}
	}
	if len(cmp.Deltas) == 0 {
		return nil, fmt.Errorf("reference solver reported none of the free nodes")
	}
	return cmp, nil
}
