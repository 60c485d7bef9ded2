package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/repositories"
	"github.com/desertthunder/curate/internal/services"
	"github.com/desertthunder/curate/internal/shared"
	"github.com/desertthunder/curate/internal/tasks"
)

// Catalog is everything the commands ask of the catalog client.
type Catalog interface {
	tasks.Catalog
	tasks.LabelCatalog
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Storage and services are opened on first use so that commands like `setup` work
// before a database exists.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db        *sql.DB
	store     models.Store
	cache     *repositories.ReleaseCache
	labels    *repositories.LabelRepository
	runs      *repositories.RunRepository
	creds     *repositories.StoreCredentials
	catalog   Catalog
	todoist   tasks.TaskCreator
	processor *tasks.Processor
	ready     bool
}

// RunnerOpts contains configuration options for creating a Runner.
//
// DB, Store, Catalog and Tasks are optional; missing ones are built from Config.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB
	Store      models.Store
	Catalog    Catalog
	Tasks      tasks.TaskCreator
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = defaultConfigPath
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Catalog.Timeout()}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
		store:      opts.Store,
		catalog:    opts.Catalog,
		todoist:    opts.Tasks,
	}
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// open builds storage, repositories and services once.
func (r *Runner) open(ctx context.Context) error {
	if r.ready {
		return nil
	}

	if r.db == nil {
		db, err := shared.OpenDatabase(ctx, r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.db = db
	}

	if r.store == nil {
		store, err := repositories.NewStore(r.config.Storage, r.db)
		if err != nil {
			return err
		}
		if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
			if err := pinger.Ping(ctx); err != nil {
				return fmt.Errorf("%w: %s store unreachable: %w", shared.ErrStorageFailure, r.config.Storage.Driver, err)
			}
		}
		r.store = store
	}

	r.cache = repositories.NewReleaseCache(r.store)
	r.labels = repositories.NewLabelRepository(r.store)
	r.runs = repositories.NewRunRepository(r.db)
	r.creds = repositories.NewStoreCredentials(r.store)
	creds := repositories.ChainCredentials{repositories.ConfigCredentials(r.config), r.creds}

	if r.catalog == nil {
		r.catalog = services.NewDiscogsService(services.DiscogsOpts{
			BaseURL:     r.config.Catalog.BaseURL,
			UserAgent:   r.config.Credentials.Discogs.UserAgent,
			PerPage:     r.config.Catalog.PerPage,
			HTTPClient:  r.httpClient,
			Credentials: creds,
			Limiter:     services.NewRateLimiter(r.config.Catalog.MinInterval()),
			Logger:      shared.WithLogger(r.logger, "service", "discogs"),
		})
	}
	if r.todoist == nil {
		r.todoist = services.NewTodoistService(services.TodoistOpts{
			Project:     r.config.Credentials.Todoist.Project,
			Section:     r.config.Credentials.Todoist.Section,
			HTTPClient:  r.httpClient,
			Credentials: creds,
			Store:       r.store,
			Logger:      shared.WithLogger(r.logger, "service", "todoist"),
		})
	}

	r.processor = tasks.NewProcessor(tasks.ProcessorOpts{
		Catalog: r.catalog,
		Cache:   r.cache,
		Labels:  r.labels,
		Runs:    r.runs,
		Policy: tasks.RetryPolicy{
			MaxAttempts: r.config.Catalog.MaxAttempts,
			Delay:       tasks.FixedDelay(r.config.Catalog.Pause()),
		},
		Logger: shared.WithLogger(r.logger, "component", "processor"),
	})

	r.ready = true
	return nil
}

// Close releases the database and any store connection.
func (r *Runner) Close() error {
	if closer, ok := r.store.(io.Closer); ok {
		closer.Close()
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withDeps wraps a command action so that it runs after [Runner.open].
func (r *Runner) withDeps(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.open(ctx); err != nil {
			return err
		}
		return action(ctx, cmd)
	}
}

// dispatcher builds a request dispatcher over the runner's dependencies.
func (r *Runner) dispatcher(ctx context.Context) *tasks.Dispatcher {
	return tasks.NewDispatcher(ctx, tasks.DispatcherOpts{
		Processor: r.processor,
		Catalog:   r.catalog,
		Labels:    r.labels,
		Cache:     r.cache,
		Tasks:     r.todoist,
		Logger:    shared.WithLogger(r.logger, "component", "dispatcher"),
	})
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, labelCommand, queueCommand, labelsCommand, releasesCommand,
		cacheCommand, todoistCommand, runsCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
