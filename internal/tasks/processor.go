package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/repositories"
	"github.com/desertthunder/curate/internal/shared"
)

// Catalog is the part of the catalog client a run needs.
type Catalog interface {
	LabelReleases(ctx context.Context, labelID string) ([]int64, error)
	ReleaseDetails(ctx context.Context, releaseID int64) (*models.Release, error)
}

// LabelFailure records a label whose enumeration failed.
type LabelFailure struct {
	Label models.Label `json:"label"`
	Error string       `json:"error"`
}

// RunResult summarizes a finished, failed or cancelled run.
type RunResult struct {
	models.Run
	Failures []LabelFailure `json:"failures,omitempty"`
}

// ProcessorOpts configures a [Processor].
type ProcessorOpts struct {
	Catalog Catalog
	Cache   *repositories.ReleaseCache
	Labels  *repositories.LabelRepository
	Runs    *repositories.RunRepository
	Policy  RetryPolicy
	Logger  *log.Logger
}

// Processor walks a label queue: it enumerates each label's releases and resolves
// every release through the cache, pausing and retrying on 429.
//
// A Processor runs one queue at a time; callers serialize Run calls.
type Processor struct {
	catalog Catalog
	cache   *repositories.ReleaseCache
	labels  *repositories.LabelRepository
	runs    *repositories.RunRepository
	policy  RetryPolicy
	logger  *log.Logger
	now     func() time.Time
}

// NewProcessor creates a Processor. Runs may be nil to skip run history.
func NewProcessor(opts ProcessorOpts) *Processor {
	p := &Processor{
		catalog: opts.Catalog,
		cache:   opts.Cache,
		labels:  opts.Labels,
		runs:    opts.Runs,
		policy:  opts.Policy,
		logger:  opts.Logger,
		now:     time.Now,
	}
	if p.policy.Delay == nil {
		p.policy.Delay = FixedDelay(DefaultPause)
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// resolver resolves one release and reports whether it came from the cache.
type resolver func(ctx context.Context, id int64) (fromCache bool, err error)

// Run processes queue in order and reports events to notify.
//
// The persisted queue is cleared before the first event. Label-level failures are
// reported and skipped; storage failures abort the run. On cancellation the labels
// completed so far are saved and the context error is returned.
func (p *Processor) Run(ctx context.Context, queue []models.Label, notify Notifier) (*RunResult, error) {
	if notify == nil {
		notify = discard{}
	}
	result := &RunResult{Run: models.Run{Kind: models.RunKindLabels, StartedAt: p.now()}}
	logger := p.logger.With("run", "labels")

	if err := p.labels.ClearQueue(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear queue: %w", err)
	}
	completed, err := p.labels.Completed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed labels: %w", err)
	}

	n := len(queue)
	resolve := func(ctx context.Context, id int64) (bool, error) {
		_, fromCache, err := p.cache.GetOrFetch(ctx, id, p.catalog.ReleaseDetails)
		return fromCache, err
	}

	for i, label := range queue {
		if ctx.Err() != nil {
			return p.cancelled(ctx, result, completed, n, notify)
		}

		notify.Notify(labelStartedEvent(i, n, label))
		logger.Info("processing label", "label", label.ID, "name", label.Name, "index", i+1, "of", n)

		ids, err := p.catalog.LabelReleases(ctx, label.ID)
		if err != nil {
			if ctx.Err() != nil {
				return p.cancelled(ctx, result, completed, n, notify)
			}
			logger.Error("failed to enumerate label", "label", label.ID, "err", err)
			notify.Notify(labelFailedEvent(label, err))
			result.Failures = append(result.Failures, LabelFailure{Label: label, Error: err.Error()})
			result.Failed++
			continue
		}

		err = p.resolveAll(ctx, ids, resolve, result, notify, func(j int, id int64, fromCache bool) Event {
			return releaseFetchedEvent(label, id, fromCache, j, len(ids), i, n)
		})
		if err != nil {
			if ctx.Err() != nil {
				return p.cancelled(ctx, result, completed, n, notify)
			}
			p.abort(ctx, result, err, notify)
			return result, err
		}

		completed = models.AppendLabel(completed, label)
		result.Labels++
	}

	if ctx.Err() != nil {
		return p.cancelled(ctx, result, completed, n, notify)
	}

	if err := p.labels.SaveCompleted(ctx, completed); err != nil {
		err = fmt.Errorf("failed to save completed labels: %w", err)
		p.abort(ctx, result, err, notify)
		return result, err
	}

	notify.Notify(completeEvent(n))
	p.finish(ctx, result)
	logger.Info("queue finished", "labels", result.Labels, "fetched", result.Fetched, "cached", result.Cached, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

// RefreshReleases re-fetches ids from the catalog, bypassing the cache, and merges
// each result into the cache keeping its status. It follows the same pause policy as [Processor.Run].
func (p *Processor) RefreshReleases(ctx context.Context, ids []int64, notify Notifier) (*RunResult, error) {
	if notify == nil {
		notify = discard{}
	}
	result := &RunResult{Run: models.Run{Kind: models.RunKindReleases, StartedAt: p.now()}}

	resolve := func(ctx context.Context, id int64) (bool, error) {
		rel, err := p.catalog.ReleaseDetails(ctx, id)
		if err != nil {
			return false, err
		}
		rel.ID = id
		_, err = p.cache.Merge(ctx, *rel, true)
		return false, err
	}

	notify.Notify(refreshStartedEvent(len(ids)))
	err := p.resolveAll(ctx, ids, resolve, result, notify, func(j int, id int64, _ bool) Event {
		return releaseRefreshedEvent(id, j, len(ids))
	})
	switch {
	case err != nil && ctx.Err() != nil:
		result.Cancelled = true
		notify.Notify(Event{Kind: BuildCancelled, Data: &EventData{Message: fmt.Sprintf("Cancelled after re-fetching %d of %d releases.", result.Fetched, len(ids))}})
		p.finish(ctx, result)
		return result, ctx.Err()
	case err != nil:
		p.abort(ctx, result, err, notify)
		return result, err
	}

	notify.Notify(refreshCompleteEvent(len(ids)))
	p.finish(ctx, result)
	return result, nil
}

// resolveAll resolves ids in order. A rate-limited release is retried in place
// after the policy delay; other release errors are logged and skipped.
// Only context and storage errors are returned.
func (p *Processor) resolveAll(ctx context.Context, ids []int64, resolve resolver, result *RunResult, notify Notifier, progress func(j int, id int64, fromCache bool) Event) error {
	attempt := 0
	for j := 0; j < len(ids); j++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		id := ids[j]
		fromCache, err := resolve(ctx, id)
		switch {
		case err == nil:
			attempt = 0
			if fromCache {
				result.Cached++
			} else {
				result.Fetched++
			}
			notify.Notify(progress(j, id, fromCache))

		case ctx.Err() != nil:
			return ctx.Err()

		case errors.Is(err, shared.ErrStorageFailure):
			return err

		case shared.IsRateLimited(err) && p.policy.Allows(attempt+1):
			attempt++
			result.Pauses++
			delay := p.policy.delay(attempt)
			p.logger.Warn("rate limited, pausing", "release", id, "attempt", attempt, "delay", delay)
			notify.Notify(pausedEvent(id, attempt, delay))
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			j--

		default:
			attempt = 0
			result.Skipped++
			p.logger.Error("failed on release", "release", id, "err", err)
		}
	}
	return nil
}

func (p *Processor) cancelled(ctx context.Context, result *RunResult, completed []models.Label, n int, notify Notifier) (*RunResult, error) {
	result.Cancelled = true
	if err := p.labels.SaveCompleted(context.WithoutCancel(ctx), completed); err != nil {
		p.logger.Error("failed to save completed labels after cancel", "err", err)
	}
	notify.Notify(cancelledEvent(result.Labels, n))
	p.finish(ctx, result)
	return result, ctx.Err()
}

// abort ends a run on a storage failure.
func (p *Processor) abort(ctx context.Context, result *RunResult, err error, notify Notifier) {
	result.Aborted = true
	result.Error = err.Error()
	notify.Notify(abortedEvent(err))
	p.finish(ctx, result)
}

// finish stamps the result and records it in run history.
func (p *Processor) finish(ctx context.Context, result *RunResult) {
	result.FinishedAt = p.now()
	if p.runs == nil {
		return
	}
	if err := p.runs.Create(context.WithoutCancel(ctx), &result.Run); err != nil {
		p.logger.Warn("failed to record run", "err", err)
	}
}
