package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/eqprop/internal/config"
	"github.com/nvandessel/eqprop/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored training runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			s, err := store.NewSQLiteRunStore(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open run store: %w", err)
			}
			defer s.Close()

			runs, err := s.ListRuns(context.Background(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Println("No stored runs.")
				return nil
			}
			fmt.Printf("%-5s %-25s %-10s %-6s %-10s %-8s %s\n",
				"ID", "CREATED", "OUTCOME", "SEED", "LOSS", "EPOCHS", "TOPOLOGY")
			for _, r := range runs {
				fmt.Printf("%-5d %-25s %-10s %-6d %-10.6f %-8d %s\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Outcome, r.Seed, r.FinalLoss, r.Epochs, r.Topology)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum runs to list")
	return cmd
}
