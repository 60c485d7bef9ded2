package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/shared"
	"github.com/desertthunder/curate/internal/tasks"
)

func labelArg(cmd *cli.Command) (string, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return "", fmt.Errorf("%w: label id", shared.ErrMissingArgument)
	}
	id, err := models.ParseLabelID(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	return id, nil
}

// LabelShow prints a label's catalog profile.
func (r *Runner) LabelShow(ctx context.Context, cmd *cli.Command) error {
	id, err := labelArg(cmd)
	if err != nil {
		return err
	}

	details, err := r.catalog.LabelDetails(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch label %s: %w", id, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(details, true)
	}

	r.writePlainHeader(details.Name)
	r.writePlain("ID:      %d\n", details.ID)
	if details.URI != "" {
		r.writePlain("URL:     %s\n", details.URI)
	}
	if details.Profile != "" {
		r.writePlainln("%s", details.Profile)
	}
	return nil
}

// QueueAdd verifies a label with the catalog and appends it to the queue under the catalog's name.
func (r *Runner) QueueAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := labelArg(cmd)
	if err != nil {
		return err
	}

	details, err := r.catalog.LabelDetails(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to verify label %s: %w", id, err)
	}

	label, err := r.labels.Enqueue(ctx, details.Label())
	if err != nil {
		return err
	}
	r.logger.Info("label queued", "label", label.ID, "name", label.Name)
	return r.writePlain("✓ Queued %s (#%s)\n", label.Name, label.ID)
}

// QueueList prints the queued labels.
func (r *Runner) QueueList(ctx context.Context, cmd *cli.Command) error {
	queue, err := r.labels.Queue(ctx)
	if err != nil {
		return fmt.Errorf("failed to load queue: %w", err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(nonNil(queue), true)
	}
	return r.writeLabels("Label Queue", queue, "The queue is empty.")
}

// QueueRemove drops a label from the queue.
func (r *Runner) QueueRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := labelArg(cmd)
	if err != nil {
		return err
	}

	removed, err := r.labels.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to remove label: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: %s is not queued", shared.ErrLabelNotFound, id)
	}
	return r.writePlain("✓ Removed #%s\n", id)
}

// QueueClear empties the queue.
func (r *Runner) QueueClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.labels.ClearQueue(ctx); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return r.writePlain("✓ Queue cleared\n")
}

// QueueProcess runs the queue to completion, drawing overall progress.
func (r *Runner) QueueProcess(ctx context.Context, cmd *cli.Command) error {
	queue, err := r.labels.Queue(ctx)
	if err != nil {
		return fmt.Errorf("failed to load queue: %w", err)
	}
	if len(queue) == 0 {
		return r.writePlain("The queue is empty.\n")
	}

	reporter := newProgressReporter(r.output, r.logger, "Processing labels", !cmd.Bool("no-progress"))
	result, err := r.processor.Run(ctx, queue, reporter)
	reporter.done()
	if result != nil {
		r.writeRunSummary(result, reporter.errors)
	}
	return err
}

// LabelsImported prints the labels whose releases are in the cache.
func (r *Runner) LabelsImported(ctx context.Context, cmd *cli.Command) error {
	completed, err := r.labels.Completed(ctx)
	if err != nil {
		return fmt.Errorf("failed to load imported labels: %w", err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(nonNil(completed), true)
	}
	return r.writeLabels("Imported Labels", completed, "No labels imported yet.")
}

func (r *Runner) writeLabels(title string, labels []models.Label, empty string) error {
	if len(labels) == 0 {
		return r.writePlain("%s\n", empty)
	}
	r.writePlainHeader(fmt.Sprintf("%s (%s)", title, humanize.Comma(int64(len(labels)))))
	for i, l := range labels {
		r.writePlain("%3d. %-40s #%s\n", i+1, l.Name, l.ID)
	}
	return nil
}

func (r *Runner) writeRunSummary(result *tasks.RunResult, failures []string) {
	status := "complete"
	switch {
	case result.Aborted:
		status = "aborted"
	case result.Cancelled:
		status = "cancelled"
	}
	r.writePlainln("Run %s in %s", status, result.Duration().Round(time.Second))
	if result.Kind == models.RunKindLabels {
		r.writePlain("  Labels:  %s\n", humanize.Comma(int64(result.Labels)))
	}
	r.writePlain("  Fetched: %s\n", humanize.Comma(int64(result.Fetched)))
	r.writePlain("  Cached:  %s\n", humanize.Comma(int64(result.Cached)))
	r.writePlain("  Skipped: %s\n", humanize.Comma(int64(result.Skipped)))
	r.writePlain("  Pauses:  %s\n", humanize.Comma(int64(result.Pauses)))
	for _, msg := range failures {
		r.writePlain("  ✗ %s\n", msg)
	}
}

func nonNil(labels []models.Label) []models.Label {
	if labels == nil {
		return []models.Label{}
	}
	return labels
}
