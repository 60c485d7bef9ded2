package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/repositories"
	"github.com/desertthunder/curate/internal/services"
	"github.com/desertthunder/curate/internal/shared"
)

// RequestType names an inbound request.
type RequestType string

const (
	ProcessLabelQueue    RequestType = "PROCESS_LABEL_QUEUE"
	GetLabelDetails      RequestType = "GET_LABEL_DETAILS"
	AddLabelToQueue      RequestType = "ADD_LABEL_TO_QUEUE"
	ProcessReleasesQueue RequestType = "PROCESS_RELEASES_QUEUE"
	CreateTodoistTask    RequestType = "CREATE_TODOIST_TASK"
	CancelRun            RequestType = "CANCEL_RUN"
)

// Request is an inbound message. Only the fields its Type uses are read.
type Request struct {
	Type     RequestType     `json:"type"`
	Queue    []models.Label  `json:"queue,omitempty"`
	LabelID  string          `json:"labelId,omitempty"`
	Label    *models.Label   `json:"label,omitempty"`
	Releases []int64         `json:"releases,omitempty"`
	Release  *models.Release `json:"release,omitempty"`
}

// Response answers a [Request]. Error is set exactly when Success is false.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(data any) Response { return Response{Success: true, Data: data} }

func fail(err error) Response { return Response{Success: false, Error: err.Error()} }

// LabelCatalog looks up label profiles.
type LabelCatalog interface {
	LabelDetails(ctx context.Context, labelID string) (*models.LabelDetails, error)
}

// TaskCreator files a release as a to-do item.
type TaskCreator interface {
	CreateTask(ctx context.Context, r models.Release) (*services.TodoistTask, error)
}

// DispatcherOpts configures a [Dispatcher].
type DispatcherOpts struct {
	Processor *Processor
	Catalog   LabelCatalog
	Labels    *repositories.LabelRepository
	Cache     *repositories.ReleaseCache
	Tasks     TaskCreator
	Channel   *Channel
	Logger    *log.Logger
}

// Dispatcher answers inbound requests and runs queue processing in the background,
// one run at a time, reporting to the requesting session.
type Dispatcher struct {
	processor *Processor
	catalog   LabelCatalog
	labels    *repositories.LabelRepository
	cache     *repositories.ReleaseCache
	tasks     TaskCreator
	channel   *Channel
	logger    *log.Logger

	base   context.Context
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. Background runs are children of ctx.
func NewDispatcher(ctx context.Context, opts DispatcherOpts) *Dispatcher {
	d := &Dispatcher{
		processor: opts.Processor,
		catalog:   opts.Catalog,
		labels:    opts.Labels,
		cache:     opts.Cache,
		tasks:     opts.Tasks,
		channel:   opts.Channel,
		logger:    opts.Logger,
		base:      ctx,
	}
	if d.channel == nil {
		d.channel = NewChannel(DefaultBuffer)
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}
	return d
}

// Channel returns the event hub runs publish to.
func (d *Dispatcher) Channel() *Channel { return d.channel }

// Handle answers req on behalf of session.
func (d *Dispatcher) Handle(ctx context.Context, session string, req Request) Response {
	logger := d.logger.With("session", session, "type", req.Type)
	logger.Debug("handling request")

	var resp Response
	switch req.Type {
	case ProcessLabelQueue:
		resp = d.processQueue(ctx, session, req.Queue)
	case GetLabelDetails:
		resp = d.labelDetails(ctx, req.LabelID)
	case AddLabelToQueue:
		resp = d.addLabel(ctx, req.Label)
	case ProcessReleasesQueue:
		resp = d.processReleases(ctx, session, req.Releases)
	case CreateTodoistTask:
		resp = d.createTask(ctx, req.Release)
	case CancelRun:
		resp = ok(map[string]bool{"cancelled": d.Cancel()})
	default:
		resp = fail(fmt.Errorf("%w: %q", shared.ErrUnknownRequest, req.Type))
	}

	if !resp.Success {
		logger.Warn("request failed", "err", resp.Error)
	}
	return resp
}

func (d *Dispatcher) processQueue(ctx context.Context, session string, queue []models.Label) Response {
	if queue == nil {
		var err error
		if queue, err = d.labels.Queue(ctx); err != nil {
			return fail(err)
		}
	}

	err := d.start(session, func(ctx context.Context, notify Notifier) error {
		_, err := d.processor.Run(ctx, queue, notify)
		return err
	})
	if err != nil {
		return fail(err)
	}
	return ok(map[string]int{"labels": len(queue)})
}

func (d *Dispatcher) processReleases(ctx context.Context, session string, ids []int64) Response {
	if ids == nil {
		incomplete, err := d.cache.Incomplete(ctx)
		if err != nil {
			return fail(err)
		}
		for _, r := range incomplete {
			ids = append(ids, r.ID)
		}
	}

	err := d.start(session, func(ctx context.Context, notify Notifier) error {
		_, err := d.processor.RefreshReleases(ctx, ids, notify)
		return err
	})
	if err != nil {
		return fail(err)
	}
	return ok(map[string]int{"releases": len(ids)})
}

func (d *Dispatcher) labelDetails(ctx context.Context, labelID string) Response {
	id, err := models.ParseLabelID(labelID)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err))
	}
	details, err := d.catalog.LabelDetails(ctx, id)
	if err != nil {
		return fail(err)
	}
	return ok(details)
}

// addLabel verifies the label with the catalog, taking its name from the response, and queues it.
func (d *Dispatcher) addLabel(ctx context.Context, label *models.Label) Response {
	if label == nil {
		return fail(fmt.Errorf("%w: label", shared.ErrMissingArgument))
	}
	id, err := models.ParseLabelID(label.ID)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err))
	}

	details, err := d.catalog.LabelDetails(ctx, id)
	if err != nil {
		return fail(err)
	}

	queued, err := d.labels.Enqueue(ctx, details.Label())
	if err != nil {
		return fail(err)
	}
	return ok(queued)
}

// createTask files the release and marks the cached copy "to listen".
func (d *Dispatcher) createTask(ctx context.Context, release *models.Release) Response {
	if release == nil {
		return fail(fmt.Errorf("%w: release", shared.ErrMissingArgument))
	}
	if d.tasks == nil {
		return fail(fmt.Errorf("%w: task creation", shared.ErrNotImplemented))
	}

	task, err := d.tasks.CreateTask(ctx, *release)
	if err != nil {
		return fail(err)
	}

	err = d.cache.SetStatus(ctx, release.ID, models.StatusToListen)
	if err != nil && !errors.Is(err, shared.ErrReleaseNotFound) {
		return fail(err)
	}
	return ok(task)
}

// start launches fn in the background unless a run is already active.
func (d *Dispatcher) start(session string, fn func(ctx context.Context, notify Notifier) error) error {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return shared.ErrRunInProgress
	}
	ctx, cancel := context.WithCancel(d.base)
	d.cancel = cancel
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			d.mu.Lock()
			d.cancel = nil
			d.mu.Unlock()
			cancel()
		}()

		if err := fn(ctx, d.channel.Notifier(session)); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("run failed", "session", session, "err", err)
		}
	}()
	return nil
}

// Running reports whether a background run is active.
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancel != nil
}

// Cancel stops the active run and reports whether there was one.
func (d *Dispatcher) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel == nil {
		return false
	}
	d.cancel()
	return true
}

// Wait blocks until the active run, if any, has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
