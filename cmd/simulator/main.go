// Command simulator is the thin CLI driver for the raftsim core: it
// loads a YAML config, runs a simulation to its configured max_time, and
// prints the final status. It opens no sockets and serves no HTTP
// endpoints — those remain explicitly out of scope for this core.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information, set via ldflags during build.
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "simulator",
	Short: "raftsim - a deterministic, event-driven Raft protocol simulator",
	Long: `raftsim runs a cluster of Raft nodes over a virtual, lossy
network driven entirely by a discrete-event scheduler. Every run is
fully determined by its seed: two runs with the same config and seed
produce bit-identical event traces.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("simulator version %s\ncommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")

	initLoggerFromFlags(level, jsonOut)
}
