package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the simulator version and commit",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("simulator version %s\ncommit: %s\n", Version, Commit)
		return nil
	},
}
