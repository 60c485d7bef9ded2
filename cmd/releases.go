package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curate/internal/formatter"
	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/shared"
)

func releaseArg(cmd *cli.Command) (int64, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: release id", shared.ErrMissingArgument)
	}
	id, err := models.ParseReleaseID(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	return id, nil
}

// ReleasesList prints one page of the cached releases.
func (r *Runner) ReleasesList(ctx context.Context, cmd *cli.Command) error {
	key, err := formatter.ParseSortKey(cmd.String("sort"))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
	}

	dir := formatter.Direction(cmd.String("dir"))
	switch dir {
	case "", formatter.Asc, formatter.Desc:
	default:
		return fmt.Errorf("%w: --dir must be asc or desc, got %q", shared.ErrInvalidFlag, dir)
	}

	releases, err := r.cache.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}

	page := formatter.Browse(releases, formatter.Query{
		Filter:    cmd.String("query"),
		Sort:      key,
		Direction: dir,
		Page:      cmd.Int("page"),
	})

	if cmd.Bool("json") {
		return r.writeJSON(page, true)
	}

	if len(page.Items) == 0 {
		return r.writePlain("No matching releases found.\n")
	}
	for _, item := range page.Items {
		r.writePlain("%s\n", formatter.NewRow(item))
	}
	return r.writePlainln("%s", page.Info())
}

// ReleasesOpen opens a cached release's page in the browser.
func (r *Runner) ReleasesOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := releaseArg(cmd)
	if err != nil {
		return err
	}

	release, ok, err := r.cache.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrReleaseNotFound, id)
	}

	url := release.WebURL()
	r.logger.Info("opening release", "release", id, "url", url)
	if err := shared.OpenBrowser(url); err != nil {
		r.writePlain("Open %s in your browser\n", url)
		return err
	}
	return nil
}
