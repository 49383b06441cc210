package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/eqprop/internal/config"
	"github.com/nvandessel/eqprop/internal/solver"
	"github.com/nvandessel/eqprop/internal/store"
	"github.com/nvandessel/eqprop/internal/xor"
)

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve the XOR network equilibrium for one input pattern",
		Long: `Solve the KCL equilibrium of the XOR network for a single input
pattern and print the free-node voltages.

Weights come from a stored run (--run) or are uniform (--r).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			x1, _ := cmd.Flags().GetFloat64("x1")
			x2, _ := cmd.Flags().GetFloat64("x2")

			net := xor.MakeNetwork()
			weights, err := weightsFromFlags(cmd, net.NWeights())
			if err != nil {
				return err
			}

			res, err := solver.Solve(net, xor.MakeInputs(x1, x2), weights, solver.Options{})
			if err != nil {
				return err
			}

			if jsonOut {
				voltages := make(map[string]float64, net.NFree)
				for i := 0; i < net.NFree; i++ {
					voltages[net.NodeNames[net.NFixed+i]] = res.Voltages[i]
				}
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"voltages":   voltages,
					"prediction": net.Prediction(res.Voltages),
					"converged":  res.Converged,
				})
			}

			for i := 0; i < net.NFree; i++ {
				fmt.Printf("  V(%s) = %.6fV\n", net.NodeNames[net.NFixed+i], res.Voltages[i])
			}
			fmt.Printf("  prediction = %+.4fV\n", net.Prediction(res.Voltages))
			if !res.Converged {
				fmt.Println("  warning: solver did not converge; voltages are best-effort")
			}
			return nil
		},
	}

	cmd.Flags().Float64("x1", 1.0, "X1 input voltage")
	cmd.Flags().Float64("x2", 1.0, "X2 input voltage")
	cmd.Flags().Int64("run", 0, "Load weights from this stored run")
	cmd.Flags().Float64("r", 21200, "Uniform weight resistance (ohm) when no run is given")
	return cmd
}

// weightsFromFlags resolves the weight vector for solve-like commands:
// a stored run when --run is set, otherwise uniform --r.
func weightsFromFlags(cmd *cobra.Command, n int) ([]float64, error) {
	runID, _ := cmd.Flags().GetInt64("run")
	if runID > 0 {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		s, err := store.NewSQLiteRunStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open run store: %w", err)
		}
		defer s.Close()

		run, err := s.GetRun(context.Background(), runID)
		if err != nil {
			return nil, err
		}
		if len(run.Weights) != n {
			return nil, fmt.Errorf("run %d has %d weights, topology needs %d", runID, len(run.Weights), n)
		}
		return run.Weights, nil
	}

	r, _ := cmd.Flags().GetFloat64("r")
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = r
	}
	return weights, nil
}
