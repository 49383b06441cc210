package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/eqprop/internal/xor"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify stored weights against the XOR truth table",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			threshold, _ := cmd.Flags().GetFloat64("threshold")

			net := xor.MakeNetwork()
			weights, err := weightsFromFlags(cmd, net.NWeights())
			if err != nil {
				return err
			}

			ok, patterns, err := xor.Verify(net, weights, threshold)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"pass":     ok,
					"patterns": patterns,
				})
			}

			printPatterns(patterns)
			fmt.Printf("XOR test: %s\n", passFail(ok))
			if !ok {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().Int64("run", 0, "Load weights from this stored run")
	cmd.Flags().Float64("r", 21200, "Uniform weight resistance (ohm) when no run is given")
	cmd.Flags().Float64("threshold", 0.1, "Classification threshold (V)")
	return cmd
}
