// Command eqprop simulates and trains analog resistive networks that
// learn via equilibrium propagation.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "eqprop",
		Short: "Equilibrium propagation on analog resistive hardware",
		Long: `eqprop simulates a small analog resistive network (digital-pot
weights, antiparallel diode activations) and trains it with equilibrium
propagation: weight gradients estimated from two nudged physical
equilibria, no backpropagation.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "eqprop.yaml", "Config file path")

	rootCmd.AddCommand(
		newVersionCmd(),
		newTrainCmd(),
		newSolveCmd(),
		newVerifyCmd(),
		newQuantizeCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("eqprop version %s\n", version)
			}
		},
	}
}
