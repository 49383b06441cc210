package device

import (
	"math"
	"testing"
)

func TestResistanceToTap_Clamping(t *testing.T) {
	wp := MCP4251()

	tests := []struct {
		name string
		r    float64
		want int
	}{
		{"below minimum", 0.0, wp.NTaps},
		{"at minimum", wp.RMin, wp.NTaps},
		{"at maximum", wp.RMax, 1},
		{"above maximum", 1e9, 1},
		{"mid range", wp.RSeries + wp.RPotFull/2, wp.NTaps / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wp.ResistanceToTap(tt.r); got != tt.want {
				t.Errorf("ResistanceToTap(%g) = %d, want %d", tt.r, got, tt.want)
			}
		})
	}
}

func TestTapToResistance_RoundTripsToSameTap(t *testing.T) {
	wp := MCP4251()
	for tap := 1; tap <= wp.NTaps; tap++ {
		r := wp.TapToResistance(tap)
		if got := wp.ResistanceToTap(r); got != tap {
			t.Fatalf("tap %d -> R=%g -> tap %d, want %d", tap, r, got, tap)
		}
	}
}

func TestQuantizeWeights_Idempotent(t *testing.T) {
	wp := MCP4251()

	// Sweep the full range, including values off the tap grid.
	var weights []float64
	for r := wp.RMin; r <= wp.RMax; r += 137.3 {
		weights = append(weights, r)
	}

	q1, taps1 := wp.QuantizeWeights(weights)
	q2, taps2 := wp.QuantizeWeights(q1)

	for i := range weights {
		if q1[i] != q2[i] {
			t.Errorf("weight %d: quantize(quantize(w))=%g != quantize(w)=%g", i, q2[i], q1[i])
		}
		if taps1[i] != taps2[i] {
			t.Errorf("weight %d: tap changed on requantize: %d -> %d", i, taps1[i], taps2[i])
		}
	}
}

func TestQuantizeWeights_ErrorBound(t *testing.T) {
	wp := MCP4251()

	// For weights strictly inside (RMin, RMax) the quantization error
	// is at most half a tap step.
	halfStep := wp.RPotFull / float64(wp.NTaps) / 2
	for r := wp.RMin + 100; r < wp.RMax-100; r += 211.7 {
		q, _ := wp.QuantizeWeights([]float64{r})
		if err := math.Abs(r - q[0]); err > halfStep+1e-9 {
			t.Fatalf("quantization error for R=%g is %g, want <= %g", r, err, halfStep)
		}
	}
}

func TestConductanceBounds(t *testing.T) {
	wp := MCP4251()
	if got, want := wp.GMin(), 1.0/wp.RMax; got != want {
		t.Errorf("GMin() = %g, want %g", got, want)
	}
	if got, want := wp.GMax(), 1.0/wp.RMin; got != want {
		t.Errorf("GMax() = %g, want %g", got, want)
	}
	if wp.GMin() >= wp.GMax() {
		t.Errorf("GMin() = %g not below GMax() = %g", wp.GMin(), wp.GMax())
	}
}
