package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curate/internal/formatter"
	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/repositories"
	"github.com/desertthunder/curate/internal/shared"
)

// CacheMissing re-fetches every cached release without a tracklist, keeping its status.
func (r *Runner) CacheMissing(ctx context.Context, cmd *cli.Command) error {
	incomplete, err := r.cache.Incomplete(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}
	if len(incomplete) == 0 {
		return r.writePlain("✓ No releases with missing data\n")
	}

	if cmd.Bool("list") {
		for _, rel := range incomplete {
			r.writePlain("%s\n", formatter.NewRow(rel))
		}
		return r.writePlainln("%s releases with missing data", humanize.Comma(int64(len(incomplete))))
	}

	ids := make([]int64, len(incomplete))
	for i, rel := range incomplete {
		ids[i] = rel.ID
	}

	reporter := newProgressReporter(r.output, r.logger, "Re-fetching releases", !cmd.Bool("no-progress"))
	result, err := r.processor.RefreshReleases(ctx, ids, reporter)
	reporter.done()
	if result != nil {
		r.writeRunSummary(result, reporter.errors)
	}
	return err
}

// CacheImport merges the releases of a JSON file into the cache in one write.
//
// The file may be an id-keyed object, as written by `cache export`, or an array of releases.
func (r *Runner) CacheImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	releases, err := decodeReleases(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", shared.ErrInvalidInput, path, err)
	}

	added, err := r.cache.MergeAll(ctx, releases, !cmd.Bool("overwrite-status"))
	if err != nil {
		return fmt.Errorf("failed to merge releases: %w", err)
	}

	r.logger.Info("cache imported", "path", path, "releases", len(releases), "added", added)
	return r.writePlain("✓ Imported %s releases (%s new)\n", humanize.Comma(int64(len(releases))), humanize.Comma(int64(added)))
}

func decodeReleases(data []byte) ([]models.Release, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var releases []models.Release
		if err := json.Unmarshal(data, &releases); err != nil {
			return nil, err
		}
		return validReleases(releases)
	}

	var byID map[string]models.Release
	if err := json.Unmarshal(data, &byID); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(byID))
	for k := range byID {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	releases := make([]models.Release, 0, len(byID))
	for _, k := range keys {
		rel := byID[k]
		if rel.ID == 0 {
			id, err := models.ParseReleaseID(k)
			if err != nil {
				return nil, err
			}
			rel.ID = id
		}
		releases = append(releases, rel)
	}
	return validReleases(releases)
}

func validReleases(releases []models.Release) ([]models.Release, error) {
	for i, rel := range releases {
		if rel.ID <= 0 {
			return nil, fmt.Errorf("release %d has no id", i)
		}
	}
	return releases, nil
}

// CacheExport writes the whole cache in the format named by the output extension.
func (r *Runner) CacheExport(ctx context.Context, cmd *cli.Command) error {
	releases, err := r.cache.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}

	path, err := formatter.WriteExport(releases, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("cache exported", "path", path, "releases", len(releases))
	return r.writePlain("✓ Exported %s releases to %s\n", humanize.Comma(int64(len(releases))), path)
}

// CacheStats summarizes the cache by completeness and status.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	stats, err := r.cache.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}
	completed, err := r.labels.Completed(ctx)
	if err != nil {
		return fmt.Errorf("failed to load imported labels: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			repositories.CacheStats
			Labels int `json:"labels"`
		}{stats, len(completed)}, true)
	}

	r.writePlainHeader("Release Cache")
	r.writePlain("Releases:   %s\n", humanize.Comma(int64(stats.Total)))
	r.writePlain("Incomplete: %s\n", humanize.Comma(int64(stats.Incomplete)))
	r.writePlain("Labels:     %s\n", humanize.Comma(int64(len(completed))))

	statuses := make([]string, 0, len(stats.ByStatus))
	for s := range stats.ByStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		r.writePlain("  %-12s %s\n", s+":", humanize.Comma(int64(stats.ByStatus[s])))
	}
	return nil
}
