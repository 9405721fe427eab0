package main

import (
	"context"
	"fmt"

	"github.com/cuemby/raftsim/pkg/config"
	"github.com/cuemby/raftsim/pkg/fault"
	"github.com/cuemby/raftsim/pkg/sim"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <config.yaml>",
	Short: "Run a simulation to completion and print the final status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}
		_, status, err := runOnce(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		printStatus(status)
		return nil
	},
}

// runOnce builds a Simulator, optionally walks its configured chaos
// Scenario, and runs it to completion. It returns the Simulator itself
// so callers (replayCmd) can also inspect its recorded Trace.
func runOnce(ctx context.Context, cfg config.Config) (*sim.Simulator, sim.StatusSnapshot, error) {
	s, err := sim.New(cfg)
	if err != nil {
		return nil, sim.StatusSnapshot{}, err
	}
	s.Start()

	if cfg.Chaos {
		scenario, ok := fault.ByName(cfg.ChaosScenario)
		if !ok {
			return nil, sim.StatusSnapshot{}, fmt.Errorf("simulator: unknown chaos_scenario %q", cfg.ChaosScenario)
		}
		result, err := s.RunScenario(ctx, scenario)
		if err != nil {
			return nil, sim.StatusSnapshot{}, err
		}
		return s, result.Status, nil
	}

	result, err := s.Run(ctx)
	if err != nil {
		return nil, sim.StatusSnapshot{}, err
	}
	return s, result.Status, nil
}

func printStatus(status sim.StatusSnapshot) {
	fmt.Printf("now=%.3f events_processed=%d leader=%s term=%d\n",
		status.Now, status.EventsProcessed, status.LeaderID, status.Term)
	for _, n := range status.Nodes {
		fmt.Printf("  %-10s role=%-10s term=%-4d commit=%-4d applied=%-4d log_len=%-4d alive=%v\n",
			n.ID, n.Role, n.Term, n.CommitIndex, n.LastApplied, n.LogLen, n.Alive)
	}
}
