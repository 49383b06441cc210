package eqprop

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/nvandessel/eqprop/internal/network"
	"github.com/nvandessel/eqprop/internal/solver"
)

// convergenceLoss is the summed epoch loss below which training stops
// and reports success.
const convergenceLoss = 0.005

// Outcome is the terminal state of a training run.
type Outcome string

const (
	// OutcomeConverged means the epoch loss dropped below the
	// convergence threshold.
	OutcomeConverged Outcome = "converged"

	// OutcomePlateaued means the loss stopped improving for Patience
	// consecutive epochs.
	OutcomePlateaued Outcome = "plateaued"

	// OutcomeExhausted means the epoch budget ran out first.
	OutcomeExhausted Outcome = "exhausted"
)

// Pattern is one training example: clamped input voltages and the
// target output differential.
type Pattern struct {
	Inputs []float64
	Target float64
}

// LogFunc receives periodic training progress: the epoch index, the
// summed epoch loss, and per-pattern predictions recomputed at the
// current weights.
type LogFunc func(epoch int, loss float64, predictions []float64)

// Config holds the training hyperparameters.
type Config struct {
	// Epochs is the maximum number of training epochs.
	Epochs int

	// LearningRate scales the conductance update. Gradients are summed
	// (not averaged) across patterns, so the effective rate depends on
	// dataset size; this matches the hyperparameters the reference
	// hardware was tuned with.
	LearningRate float64

	// Beta is the nudge strength. It must be small enough for
	// linear-response validity but large enough to avoid catastrophic
	// cancellation in the squared-difference gradient.
	Beta float64

	// Seed drives the weight initialization. Training is deterministic
	// given the seed.
	Seed int64

	// Patience is the number of epochs without a MinDelta improvement
	// before training stops on a plateau.
	Patience int

	// MinDelta is the minimum loss improvement that resets Patience.
	MinDelta float64

	// LogInterval is the number of epochs between progress reports.
	LogInterval int

	// LogFn receives progress reports. When nil, reports go to Logger.
	LogFn LogFunc

	// Logger is the fallback progress sink. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the hyperparameters the reference XOR network
// trains with.
func DefaultConfig() Config {
	return Config{
		Epochs:       50000,
		LearningRate: 5e-9,
		Beta:         1e-5,
		Seed:         42,
		Patience:     500,
		MinDelta:     1e-6,
		LogInterval:  5000,
	}
}

// TrainResult is the immutable outcome of a training run.
type TrainResult struct {
	// Weights is the final resistance vector, one entry per connection.
	Weights []float64

	// FinalLoss is the summed loss of the last completed epoch.
	FinalLoss float64

	// Converged reports whether the loss crossed the convergence
	// threshold.
	Converged bool

	// EpochsRun is the number of the epoch training stopped in.
	EpochsRun int

	// Outcome names the terminal state.
	Outcome Outcome
}

// Train runs gradient descent on the network's conductances via the
// EqProp gradient. Weights are initialized by sampling conductances
// uniformly in [GMin, GMax] from a generator seeded with cfg.Seed.
// Updates happen in conductance space, the physically linear quantity,
// and are clipped to the hardware bounds there; the clip is the only
// mechanism keeping resistances realizable during training.
//
// A solver failure in any pattern aborts the run with an error rather
// than skipping the pattern, which would corrupt the loss and gradient
// accounting.
func Train(net *network.Network, dataset []Pattern, cfg Config) (*TrainResult, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}
	if len(dataset) == 0 {
		return nil, fmt.Errorf("%w: empty dataset", ErrBadHyperparam)
	}
	if !(cfg.Beta > 0) {
		return nil, fmt.Errorf("%w: beta = %g, must be positive", ErrBadHyperparam, cfg.Beta)
	}
	if cfg.Epochs <= 0 {
		return nil, fmt.Errorf("%w: epochs = %d, must be positive", ErrBadHyperparam, cfg.Epochs)
	}
	if cfg.LogInterval <= 0 {
		cfg.LogInterval = DefaultConfig().LogInterval
	}

	logFn := cfg.LogFn
	if logFn == nil {
		logger := cfg.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logFn = func(epoch int, loss float64, preds []float64) {
			logger.Info("training progress", "epoch", epoch, "loss", loss, "predictions", preds)
		}
	}

	wp := net.Weights
	nWeights := net.NWeights()

	// Seeded initialization: uniform in conductance, converted to
	// resistance. An explicit generator keeps parallel runs isolated.
	rng := rand.New(rand.NewSource(cfg.Seed))
	weights := make([]float64, nWeights)
	for i := range weights {
		g := wp.GMin() + rng.Float64()*(wp.GMax()-wp.GMin())
		weights[i] = 1.0 / g
	}

	bestLoss := math.Inf(1)
	stall := 0
	epochLoss := 0.0
	gradAcc := make([]float64, nWeights)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		epochLoss = 0
		for i := range gradAcc {
			gradAcc[i] = 0
		}

		for p, pat := range dataset {
			grad, pred, _, err := Gradient(net, pat.Inputs, weights, pat.Target, cfg.Beta, nil)
			if err != nil {
				return nil, fmt.Errorf("epoch %d pattern %d: %w", epoch, p, err)
			}
			for i := range gradAcc {
				gradAcc[i] += grad[i]
			}
			diff := pat.Target - pred
			epochLoss += 0.5 * diff * diff
		}

		// Batch update in conductance space, clipped to the hardware
		// bounds.
		for i := range weights {
			g := 1.0/weights[i] - cfg.LearningRate*gradAcc[i]
			if g < wp.GMin() {
				g = wp.GMin()
			} else if g > wp.GMax() {
				g = wp.GMax()
			}
			weights[i] = 1.0 / g
		}

		if epochLoss < bestLoss-cfg.MinDelta {
			bestLoss = epochLoss
			stall = 0
		} else {
			stall++
		}

		if epoch%cfg.LogInterval == 0 || epoch == cfg.Epochs-1 {
			if err := report(net, dataset, weights, logFn, epoch, epochLoss); err != nil {
				return nil, err
			}
		}

		if epochLoss < convergenceLoss {
			if err := report(net, dataset, weights, logFn, epoch, epochLoss); err != nil {
				return nil, err
			}
			return &TrainResult{
				Weights:   weights,
				FinalLoss: epochLoss,
				Converged: true,
				EpochsRun: epoch,
				Outcome:   OutcomeConverged,
			}, nil
		}

		if stall >= cfg.Patience {
			if err := report(net, dataset, weights, logFn, epoch, epochLoss); err != nil {
				return nil, err
			}
			return &TrainResult{
				Weights:   weights,
				FinalLoss: epochLoss,
				Converged: false,
				EpochsRun: epoch,
				Outcome:   OutcomePlateaued,
			}, nil
		}
	}

	return &TrainResult{
		Weights:   weights,
		FinalLoss: epochLoss,
		Converged: false,
		EpochsRun: cfg.Epochs,
		Outcome:   OutcomeExhausted,
	}, nil
}

// Predictions solves every pattern fresh at the given weights and
// returns the output differentials in dataset order.
func Predictions(net *network.Network, dataset []Pattern, weights []float64) ([]float64, error) {
	preds := make([]float64, len(dataset))
	for i, pat := range dataset {
		res, err := solver.Solve(net, pat.Inputs, weights, solver.Options{})
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		if !res.Converged {
			return nil, fmt.Errorf("pattern %d: %w", i, solver.ErrNotConverged)
		}
		preds[i] = net.Prediction(res.Voltages)
	}
	return preds, nil
}

func report(net *network.Network, dataset []Pattern, weights []float64, logFn LogFunc, epoch int, loss float64) error {
	preds, err := Predictions(net, dataset, weights)
	if err != nil {
		return fmt.Errorf("epoch %d report: %w", epoch, err)
	}
	logFn(epoch, loss, preds)
	return nil
}
