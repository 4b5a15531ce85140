package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-video-composer/internal/sweep"
	"github.com/kartoza/kartoza-video-composer/internal/tui"
)

var (
	sweepMaxAge time.Duration
	sweepDryRun bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove orphaned work directories",
	Long:  `Remove per-request work directories left behind by compositions that timed out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}

		maxAge := sweepMaxAge
		if maxAge <= 0 {
			maxAge = cfg.SweepMaxAge()
		}

		if sweepDryRun {
			dirs, err := sweep.List(cfg.TempDir)
			if err != nil {
				return err
			}
			cutoff := time.Now().Add(-maxAge)
			for _, d := range dirs {
				state := tui.LabelStyle.Render("keep ")
				if d.ModTime.Before(cutoff) {
					state = tui.WarnStyle.Render("stale")
				}
				fmt.Printf("  %s %s %s\n", state, d.Name, tui.LabelStyle.Render(fmt.Sprintf("(%d bytes, %s old)", d.Size, time.Since(d.ModTime).Round(time.Second))))
			}
			return nil
		}

		res := sweep.CleanStale(context.Background(), cfg.TempDir, maxAge, logger)
		if res.Skipped {
			fmt.Println(tui.WarnStyle.Render("Another sweep is running, nothing done."))
			return nil
		}
		fmt.Printf("%s %d\n", tui.LabelStyle.Render("Removed:"), len(res.Removed))
		for _, e := range res.Errors {
			fmt.Printf("  %s %s: %v\n", tui.ErrorStyle.Render("✗"), e.Path, e.Error)
		}
		if len(res.Errors) > 0 {
			return fmt.Errorf("%d directories could not be removed", len(res.Errors))
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepMaxAge, "max-age", 0, "Remove directories older than this (default: from config)")
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "List work directories without removing anything")
}
