// Package main is the entry point of the battle engine process
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "rpg-battle",
	Short: "RPG battle engine",
	Long:  `rpg-battle runs the turn based duel engine: timeout sweeps, health checks and metrics.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(sweepCmd)
}
