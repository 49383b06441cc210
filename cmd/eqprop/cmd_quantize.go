package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/eqprop/internal/xor"
)

func newQuantizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quantize",
		Short: "Quantize stored weights to hardware tap positions",
		Long: `Round each weight of a stored run to its nearest digital-pot tap
and print the tap positions alongside the exact quantized resistances.
These are the values to program into the hardware.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			net := xor.MakeNetwork()
			weights, err := weightsFromFlags(cmd, net.NWeights())
			if err != nil {
				return err
			}

			quantized, taps := net.Weights.QuantizeWeights(weights)

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"weights":   weights,
					"quantized": quantized,
					"taps":      taps,
				})
			}

			for i := range weights {
				fmt.Printf("  W%-2d: R=%8.0f ohm -> tap %3d (R=%8.0f ohm)\n", i+1, weights[i], taps[i], quantized[i])
			}
			return nil
		},
	}

	cmd.Flags().Int64("run", 0, "Load weights from this stored run")
	cmd.Flags().Float64("r", 21200, "Uniform weight resistance (ohm) when no run is given")
	return cmd
}
