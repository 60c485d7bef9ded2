package main

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curate/internal/models"
)

// RunsList prints the most recent processing runs.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	runs, err := r.runs.List(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if runs == nil {
			runs = []models.Run{}
		}
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet.\n")
	}

	r.writePlainHeader("Recent Runs")
	for _, run := range runs {
		status := run.Status()
		if status == "failed" {
			status = humanize.Comma(int64(run.Failed)) + " failed"
		}
		r.writePlain("%-14s %-8s %-9s %6s fetched %6s cached %4s skipped  %s\n",
			humanize.Time(run.StartedAt),
			run.Kind,
			status,
			humanize.Comma(int64(run.Fetched)),
			humanize.Comma(int64(run.Cached)),
			humanize.Comma(int64(run.Skipped)),
			run.Duration().Round(time.Second),
		)
	}
	return nil
}
