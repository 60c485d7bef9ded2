package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/curate/internal/formatter"
	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/repositories"
	"github.com/desertthunder/curate/internal/shared"
	"github.com/desertthunder/curate/internal/tasks"
)

// maxBodySize bounds a POST /api/messages body.
const maxBodySize = 1 << 20

// APIOpts configures an [API].
type APIOpts struct {
	Dispatcher *tasks.Dispatcher
	Cache      *repositories.ReleaseCache
	Labels     *repositories.LabelRepository
	Logger     *log.Logger
}

// API serves the message endpoint, the event streams and the browse endpoints.
type API struct {
	dispatcher *tasks.Dispatcher
	cache      *repositories.ReleaseCache
	labels     *repositories.LabelRepository
	logger     *log.Logger
}

// NewAPI creates an API.
func NewAPI(opts APIOpts) *API {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &API{
		dispatcher: opts.Dispatcher,
		cache:      opts.Cache,
		labels:     opts.Labels,
		logger:     logger,
	}
}

// Register adds the API routes to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodPost, "/api/messages", http.HandlerFunc(a.messages))
	r.Handle(http.MethodGet, "/api/events", http.HandlerFunc(a.events))
	r.Handle(http.MethodGet, "/api/ws", http.HandlerFunc(a.socket))
	r.Handle(http.MethodGet, "/api/releases", http.HandlerFunc(a.releases))
	r.Handle(http.MethodGet, "/api/labels", http.HandlerFunc(a.labelLists))
}

// WatchStore broadcasts a STORAGE_CHANGED event to every session whenever store writes a key.
func (a *API) WatchStore(store models.Store) {
	channel := a.dispatcher.Channel()
	store.OnChange(func(key string) {
		channel.Broadcast(tasks.StorageChangedEvent(key))
	})
}

// NewRouter returns a [BasicRouter] with the standard middleware stack and the API routes.
func NewRouter(api *API, logger *log.Logger) *BasicRouter {
	r := NewBasicRouter()
	r.Use(RecoverMiddleware(logger), SessionMiddleware(), LoggingMiddleware(logger))
	api.Register(r)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, tasks.Response{Success: false, Error: err.Error()})
}

// messages answers one JSON [tasks.Request] for the caller's session.
func (a *API) messages(w http.ResponseWriter, r *http.Request) {
	var req tasks.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err))
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: type", shared.ErrMissingArgument))
		return
	}

	writeJSON(w, http.StatusOK, a.dispatcher.Handle(r.Context(), Session(r.Context()), req))
}

type browseResponse struct {
	formatter.Page
	Info string          `json:"info"`
	Rows []formatter.Row `json:"rows"`
}

// releases serves one page of the cached releases.
//
// Query parameters: q (filter), sort, dir (asc|desc) and page.
func (a *API) releases(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	all, err := a.cache.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	page := formatter.Browse(all, q)
	rows := make([]formatter.Row, len(page.Items))
	for i, item := range page.Items {
		rows[i] = formatter.NewRow(item)
	}
	writeJSON(w, http.StatusOK, browseResponse{Page: page, Info: page.Info(), Rows: rows})
}

func parseQuery(r *http.Request) (formatter.Query, error) {
	values := r.URL.Query()
	q := formatter.Query{Filter: values.Get("q"), Page: 1}

	key, err := formatter.ParseSortKey(values.Get("sort"))
	if err != nil {
		return q, fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	q.Sort = key

	switch dir := formatter.Direction(values.Get("dir")); dir {
	case "", formatter.Asc, formatter.Desc:
		q.Direction = dir
	default:
		return q, fmt.Errorf("%w: dir must be asc or desc, got %q", shared.ErrInvalidArgument, dir)
	}

	if p := values.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return q, fmt.Errorf("%w: page must be a number, got %q", shared.ErrInvalidArgument, p)
		}
		q.Page = n
	}
	return q, nil
}

type labelsResponse struct {
	Queue     []models.Label `json:"queue"`
	Completed []models.Label `json:"completed"`
}

// labelLists serves the persisted queue and the completed labels.
func (a *API) labelLists(w http.ResponseWriter, r *http.Request) {
	queue, err := a.labels.Queue(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	completed, err := a.labels.Completed(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, labelsResponse{Queue: nonNil(queue), Completed: nonNil(completed)})
}

func nonNil(labels []models.Label) []models.Label {
	if labels == nil {
		return []models.Label{}
	}
	return labels
}
