package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-battle/internal/scheduler"
)

var recoverFirst bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one timeout sweep and exit",
	Long:  `Time out stalled turns and expire stale challenges once, then exit.`,
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&recoverFirst, "recover", false, "abort abandoned battles before sweeping")
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if recoverFirst {
		results, err := a.sweeper.Recover(ctx)
		if err != nil {
			return err
		}
		logResults(cmd, results...)
	}

	results, err := a.sweeper.Sweep(ctx)
	logResults(cmd, results...)
	return err
}

func logResults(cmd *cobra.Command, results ...*scheduler.Result) {
	for _, r := range results {
		slog.InfoContext(cmd.Context(), "sweep result",
			"sweep", r.Name,
			"candidates", r.Candidates,
			"processed", r.Processed,
			"skipped", r.Skipped,
			"failed", r.Failed,
			"duration", r.Duration)
	}
}
