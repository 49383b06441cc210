package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteRunStore {
	t.Helper()
	s, err := NewSQLiteRunStore(filepath.Join(t.TempDir(), "eqprop.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() *Run {
	return &Run{
		Topology:     "xor16",
		Seed:         42,
		Beta:         1e-5,
		LearningRate: 5e-9,
		Epochs:       3120,
		FinalLoss:    0.00421,
		Converged:    true,
		Outcome:      "converged",
		Weights:      []float64{21200, 18400.5, 99812.25},
		Taps:         []int{203, 210, 4},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun()
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if run.ID == 0 {
		t.Fatal("SaveRun() did not assign an ID")
	}
	if run.CreatedAt.IsZero() {
		t.Fatal("SaveRun() did not set CreatedAt")
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Topology != run.Topology || got.Seed != run.Seed || got.Outcome != run.Outcome {
		t.Errorf("GetRun() = %+v, want %+v", got, run)
	}
	if got.FinalLoss != run.FinalLoss || got.Converged != run.Converged {
		t.Errorf("GetRun() loss/converged = %v/%v, want %v/%v", got.FinalLoss, got.Converged, run.FinalLoss, run.Converged)
	}
	if len(got.Weights) != len(run.Weights) {
		t.Fatalf("GetRun() %d weights, want %d", len(got.Weights), len(run.Weights))
	}
	for i := range run.Weights {
		if got.Weights[i] != run.Weights[i] {
			t.Errorf("weight %d = %v, want %v", i, got.Weights[i], run.Weights[i])
		}
		if got.Taps[i] != run.Taps[i] {
			t.Errorf("tap %d = %v, want %v", i, got.Taps[i], run.Taps[i])
		}
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun(context.Background(), 12345)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetRun() error = %v, want ErrNotFound", err)
	}
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		run := sampleRun()
		run.Epochs = 1000 + i
		if err := s.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns(2) returned %d runs", len(runs))
	}
	// Newest first.
	if runs[0].Epochs != 1002 || runs[1].Epochs != 1001 {
		t.Errorf("ListRuns() order = [%d, %d], want [1002, 1001]", runs[0].Epochs, runs[1].Epochs)
	}
}

func TestStoreReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eqprop.db")
	ctx := context.Background()

	s1, err := NewSQLiteRunStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	run := sampleRun()
	if err := s1.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	s1.Close()

	s2, err := NewSQLiteRunStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()

	got, err := s2.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() after reopen error = %v", err)
	}
	if got.Topology != "xor16" {
		t.Errorf("Topology = %q, want xor16", got.Topology)
	}
}
