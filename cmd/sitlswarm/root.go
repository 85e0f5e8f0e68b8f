package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sitlswarm",
	Short: "SITL swarm launcher",
	Long:  "sitlswarm launches and supervises a swarm of ArduPilot SITL simulator processes.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(validateCmd)
}
