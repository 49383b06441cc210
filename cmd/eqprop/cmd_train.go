package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/eqprop/internal/config"
	"github.com/nvandessel/eqprop/internal/eqprop"
	"github.com/nvandessel/eqprop/internal/logging"
	"github.com/nvandessel/eqprop/internal/report"
	"github.com/nvandessel/eqprop/internal/store"
	"github.com/nvandessel/eqprop/internal/xor"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the XOR network via equilibrium propagation",
		Long: `Train the 16-weight complementary-input XOR network.

Weights are initialized from the configured seed, updated in
conductance space, and clipped to the hardware resistance bounds.
Training stops on convergence (loss < 0.005), on a loss plateau, or
when the epoch budget runs out. The trained weights are stored as a
run artifact in the configured database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")
			reportPath, _ := cmd.Flags().GetString("report")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyTrainFlags(cmd, &cfg)

			logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
			trainCfg := cfg.TrainingConfigFor()
			trainCfg.Logger = logger

			// Sample the loss curve for the report as training logs it.
			var curve report.Data
			trainCfg.LogFn = func(epoch int, loss float64, preds []float64) {
				curve.Epochs = append(curve.Epochs, epoch)
				curve.Losses = append(curve.Losses, loss)
				logger.Info("training progress", "epoch", epoch, "loss", loss, "predictions", preds)
			}

			net := xor.MakeNetwork()
			dataset := xor.Dataset()

			logger.Info("training started",
				"topology", "xor16",
				"epochs", trainCfg.Epochs,
				"lr", trainCfg.LearningRate,
				"beta", trainCfg.Beta,
				"seed", trainCfg.Seed)

			result, err := eqprop.Train(net, dataset, trainCfg)
			if err != nil {
				return fmt.Errorf("training failed: %w", err)
			}

			ok, patterns, err := xor.Verify(net, result.Weights, 0.1)
			if err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}

			quantized, taps := net.Weights.QuantizeWeights(result.Weights)

			var runID int64
			if cfg.Store.Path != "" {
				runID, err = saveRun(cfg, trainCfg, result, taps)
				if err != nil {
					return err
				}
			}

			if reportPath != "" {
				if err := writeReport(reportPath, curve, patterns); err != nil {
					return err
				}
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"outcome":    result.Outcome,
					"converged":  result.Converged,
					"final_loss": result.FinalLoss,
					"epochs_run": result.EpochsRun,
					"xor_pass":   ok,
					"weights":    result.Weights,
					"quantized":  quantized,
					"taps":       taps,
					"run_id":     runID,
				})
			}

			fmt.Printf("Outcome: %s (loss=%.6f after %d epochs)\n", result.Outcome, result.FinalLoss, result.EpochsRun)
			printPatterns(patterns)
			fmt.Printf("XOR test: %s\n", passFail(ok))
			if runID != 0 {
				fmt.Printf("Saved as run %d in %s\n", runID, cfg.Store.Path)
			}
			return nil
		},
	}

	cmd.Flags().Int("epochs", 0, "Override max epochs")
	cmd.Flags().Float64("lr", 0, "Override learning rate")
	cmd.Flags().Float64("beta", 0, "Override nudge strength")
	cmd.Flags().Int64("seed", -1, "Override init seed")
	cmd.Flags().String("report", "", "Write an HTML training report to this path")
	return cmd
}

func applyTrainFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetInt("epochs"); v > 0 {
		cfg.Training.Epochs = v
	}
	if v, _ := cmd.Flags().GetFloat64("lr"); v > 0 {
		cfg.Training.LearningRate = v
	}
	if v, _ := cmd.Flags().GetFloat64("beta"); v > 0 {
		cfg.Training.Beta = v
	}
	if v, _ := cmd.Flags().GetInt64("seed"); v >= 0 {
		cfg.Training.Seed = v
	}
}

func saveRun(cfg config.Config, trainCfg eqprop.Config, result *eqprop.TrainResult, taps []int) (int64, error) {
	s, err := store.NewSQLiteRunStore(cfg.Store.Path)
	if err != nil {
		return 0, fmt.Errorf("open run store: %w", err)
	}
	defer s.Close()

	run := &store.Run{
		Topology:     "xor16",
		Seed:         trainCfg.Seed,
		Beta:         trainCfg.Beta,
		LearningRate: trainCfg.LearningRate,
		Epochs:       result.EpochsRun,
		FinalLoss:    result.FinalLoss,
		Converged:    result.Converged,
		Outcome:      string(result.Outcome),
		Weights:      result.Weights,
		Taps:         taps,
	}
	if err := s.SaveRun(context.Background(), run); err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	return run.ID, nil
}

func writeReport(path string, curve report.Data, patterns []xor.PatternResult) error {
	for _, p := range patterns {
		curve.Labels = append(curve.Labels, p.Label)
		curve.Predictions = append(curve.Predictions, p.Prediction)
		curve.Targets = append(curve.Targets, p.Target)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()
	if err := report.Render(f, curve); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func printPatterns(patterns []xor.PatternResult) {
	for _, p := range patterns {
		fmt.Printf("  %s: pred=%+.4fV target=%.1fV [%s]\n", p.Label, p.Prediction, p.Target, passFail(p.Correct))
	}
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
