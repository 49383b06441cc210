package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/nvandessel/eqprop/internal/network"
	"github.com/nvandessel/eqprop/internal/solver"
	"github.com/nvandessel/eqprop/internal/xor"
)

// fakeOracle replays canned voltages or an error.
type fakeOracle struct {
	voltages map[string]float64
	err      error
}

func (f *fakeOracle) Solve(ctx context.Context, net *network.Network, inputs, weights, nudge []float64) (map[string]float64, error) {
	return f.voltages, f.err
}

// selfOracle answers with the internal solver's own result, shifted by
// a fixed offset.
type selfOracle struct {
	offset float64
}

func (s *selfOracle) Solve(ctx context.Context, net *network.Network, inputs, weights, nudge []float64) (map[string]float64, error) {
	res, err := solver.Solve(net, inputs, weights, solver.Options{Nudge: nudge})
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, net.NFree)
	for i := 0; i < net.NFree; i++ {
		out[net.NodeNames[net.NFixed+i]] = res.Voltages[i] + s.offset
	}
	return out, nil
}

func uniformWeights() []float64 {
	w := make([]float64, 16)
	for i := range w {
		w[i] = 21200
	}
	return w
}

func TestCompareAgreement(t *testing.T) {
	net := xor.MakeNetwork()
	cmp, err := Compare(context.Background(), &selfOracle{}, net, xor.MakeInputs(1, 4), uniformWeights(), nil)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(cmp.Deltas) != net.NFree {
		t.Errorf("compared %d nodes, want %d", len(cmp.Deltas), net.NFree)
	}
	if !cmp.Agrees(1e-9) {
		t.Errorf("MaxDelta = %g against an identical oracle, want ~0", cmp.MaxDelta)
	}
}

func TestCompareDisagreement(t *testing.T) {
	net := xor.MakeNetwork()
	cmp, err := Compare(context.Background(), &selfOracle{offset: 0.05}, net, xor.MakeInputs(1, 4), uniformWeights(), nil)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if cmp.Agrees(0.01) {
		t.Error("Agrees(0.01) = true with a 50mV offset oracle")
	}
	if !cmp.Agrees(0.1) {
		t.Errorf("Agrees(0.1) = false, MaxDelta = %g", cmp.MaxDelta)
	}
}

func TestCompareOracleFailure(t *testing.T) {
	net := xor.MakeNetwork()
	fake := &fakeOracle{err: ErrUnavailable}

	_, err := Compare(context.Background(), fake, net, xor.MakeInputs(1, 1), uniformWeights(), nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Compare() error = %v, want ErrUnavailable", err)
	}
}

func TestCompareNoSharedNodes(t *testing.T) {
	net := xor.MakeNetwork()
	fake := &fakeOracle{voltages: map[string]float64{"unrelated": 1.0}}

	if _, err := Compare(context.Background(), fake, net, xor.MakeInputs(1, 1), uniformWeights(), nil); err == nil {
		t.Fatal("Compare() = nil error when the oracle reports no free nodes")
	}
}

func TestCompareRequiresNodeNames(t *testing.T) {
	net := xor.MakeNetwork()
	net.NodeNames = nil

	if _, err := Compare(context.Background(), &selfOracle{}, net, xor.MakeInputs(1, 1), uniformWeights(), nil); err == nil {
		t.Fatal("Compare() = nil error for a network without node names")
	}
}
