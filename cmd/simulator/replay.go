package main

import (
	"fmt"

	"github.com/cuemby/raftsim/pkg/config"
	"github.com/cuemby/raftsim/pkg/events"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <config.yaml>",
	Short: "Run a config twice and report whether the two event traces are bit-identical",
	Long: `replay re-runs the same config and seed twice and diffs the
resulting event traces, verifying that an identical seed and config
produce an identical trace.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}

		first, firstStatus, err := runOnce(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		second, secondStatus, err := runOnce(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		fmt.Println("run 1:")
		printStatus(firstStatus)
		fmt.Println("run 2:")
		printStatus(secondStatus)

		diffAt := firstDivergence(first.Trace(), second.Trace())
		if diffAt < 0 {
			fmt.Println("traces are bit-identical")
			return nil
		}
		return fmt.Errorf("simulator: traces diverged at entry %d", diffAt)
	},
}

// firstDivergence returns the index of the first entry at which a and b
// differ, or -1 if they are identical (including both being empty).
// events.Trace carries a map field, so it is compared field-by-field
// rather than with ==.
func firstDivergence(a, b []events.Trace) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if !sameTrace(a[i], b[i]) {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

func sameTrace(x, y events.Trace) bool {
	return x.Time == y.Time && x.Kind == y.Kind && x.Node == y.Node &&
		x.Term == y.Term && x.Message == y.Message
}
