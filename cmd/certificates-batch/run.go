package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/certificates-processor/internal/app"
	"github.com/joseph-ayodele/certificates-processor/internal/batch"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the certificates root once and print a summary",
	Args:  cobra.NoArgs,
	RunE:  runOnce,
}

func runOnce(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sum, err := a.Runner.Run(ctx, cfg.Batch.Root)
	printSummary(sum)
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func printSummary(sum batch.RunSummary) {
	t := sum.Totals
	fmt.Printf("Certificate processing complete!\n")
	fmt.Printf("- Run: %s\n", sum.RunID)
	fmt.Printf("- Root: %s\n", sum.Root)
	fmt.Printf("- Folders: %d (skipped %d)\n", sum.Folders, sum.Skipped)
	fmt.Printf("- Total files: %d\n", t.TotalFiles)
	fmt.Printf("- Processed: %d (%.1f%%)\n", t.Processed, t.Percent(t.Processed))
	fmt.Printf("- Duplicates: %d (%.1f%%)\n", t.Duplicates, t.Percent(t.Duplicates))
	fmt.Printf("- Errors: %d (%.1f%%)\n", t.Errors, t.Percent(t.Errors))
	fmt.Printf("- Already processed: %d (%.1f%%)\n", t.AlreadyProcessed, t.Percent(t.AlreadyProcessed))
	fmt.Printf("- Elapsed: %s\n", sum.Elapsed.Round(time.Millisecond))
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process the root once, then reprocess folders as new files arrive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := a.Runner.Run(ctx, cfg.Batch.Root)
		printSummary(sum)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		return a.Watch(ctx)
	},
}
