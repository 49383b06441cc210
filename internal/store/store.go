// Package store persists training-run artifacts: the trained weights,
// their tap positions, and the run's hyperparameters and outcome.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports a run ID that does not exist in the store.
var ErrNotFound = errors.New("run not found")

// Run is one stored training run.
type Run struct {
	ID        int64
	CreatedAt time.Time

	// Topology names the network the run trained (e.g. "xor16").
	Topology string

	// Hyperparameters of the run.
	Seed         int64
	Beta         float64
	LearningRate float64

	// Outcome of the run.
	Epochs    int
	FinalLoss float64
	Converged bool
	Outcome   string

	// Weights is the final resistance vector; Taps the quantized tap
	// positions.
	Weights []float64
	Taps    []int
}

// RunStore stores and retrieves training runs.
type RunStore interface {
	// SaveRun persists a run and fills in its ID and CreatedAt.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by ID.
	GetRun(ctx context.Context, id int64) (*Run, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// Close releases the underlying resources.
	Close() error
}
