package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/shared"
)

const (
	TodoistBaseURL = "https://api.todoist.com/rest/v2"
	DefaultProject = "02 | curate"
	DefaultSection = "listen"
	todoistIDsTTL  = time.Hour
)

// TodoistProject is a Todoist project.
type TodoistProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TodoistSection is a section inside a project.
type TodoistSection struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
}

// TodoistTask is the created task as returned by POST /tasks.
type TodoistTask struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	ProjectID string `json:"project_id"`
	SectionID string `json:"section_id"`
	URL       string `json:"url"`
}

// TodoistIDs is the cached project/section pair.
type TodoistIDs struct {
	ProjectID string    `json:"projectId"`
	SectionID string    `json:"sectionId"`
	FetchedAt time.Time `json:"timestamp"`
}

// TodoistOpts configures a [TodoistService]. Zero values take the package defaults.
type TodoistOpts struct {
	BaseURL     string
	Project     string
	Section     string
	HTTPClient  *http.Client
	Credentials models.CredentialStore
	Store       models.Store
	Logger      *log.Logger
	Now         func() time.Time
}

// TodoistService files releases as Todoist tasks.
type TodoistService struct {
	baseURL    string
	project    string
	section    string
	httpClient *http.Client
	creds      models.CredentialStore
	store      models.Store
	logger     *log.Logger
	now        func() time.Time
}

func NewTodoistService(opts TodoistOpts) *TodoistService {
	s := &TodoistService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		project:    opts.Project,
		section:    opts.Section,
		httpClient: opts.HTTPClient,
		creds:      opts.Credentials,
		store:      opts.Store,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if s.baseURL == "" {
		s.baseURL = TodoistBaseURL
	}
	if s.project == "" {
		s.project = DefaultProject
	}
	if s.section == "" {
		s.section = DefaultSection
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	if s.creds == nil {
		s.creds = noCredentials{}
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *TodoistService) Name() string { return "Todoist" }

// TaskContent renders the task line for r: "<title> - <artists> @p-curate @spotify", lowercased.
func TaskContent(r models.Release) string {
	return strings.ToLower(fmt.Sprintf("%s - %s @p-curate @spotify", r.Title, r.ArtistLine()))
}

// client returns an HTTP client that sends the bearer token.
func (s *TodoistService) client(ctx context.Context) (*http.Client, error) {
	tok, ok, err := s.creds.Credential(ctx, models.TodoistTokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read todoist token: %w", err)
	}
	if !ok {
		return nil, &shared.ConfigError{Key: models.TodoistTokenKey, Message: "Todoist API Token is not set."}
	}

	base := context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	return oauth2.NewClient(base, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"})), nil
}

func (s *TodoistService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	client, err := s.client(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-Id", shared.GenerateID())
	}

	resp, err := client.Do(req)
	if err != nil {
		return wrapTransport(ctx, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, endpoint); err != nil {
		s.logger.Error("todoist request failed", "endpoint", endpoint, "err", err)
		return err
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ResolveIDs finds the configured project and section, reusing ids cached less than an hour ago.
func (s *TodoistService) ResolveIDs(ctx context.Context) (TodoistIDs, error) {
	var cached TodoistIDs
	if s.store != nil {
		ok, err := s.store.Get(ctx, models.TodoistIDsKey, &cached)
		if err != nil {
			s.logger.Warn("ignoring unreadable todoist id cache", "err", err)
		} else if ok && cached.ProjectID != "" && s.now().Sub(cached.FetchedAt) < todoistIDsTTL {
			return cached, nil
		}
	}

	var projects []TodoistProject
	if err := s.doRequest(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return TodoistIDs{}, err
	}

	var project *TodoistProject
	for i := range projects {
		if projects[i].Name == s.project {
			project = &projects[i]
			break
		}
	}
	if project == nil {
		return TodoistIDs{}, fmt.Errorf("%w: could not find Todoist project named '%s'", shared.ErrProjectNotFound, s.project)
	}

	var sections []TodoistSection
	if err := s.doRequest(ctx, http.MethodGet, "/sections?project_id="+url.QueryEscape(project.ID), nil, &sections); err != nil {
		return TodoistIDs{}, err
	}

	ids := TodoistIDs{ProjectID: project.ID, FetchedAt: s.now()}
	for _, sec := range sections {
		if sec.Name == s.section && sec.ProjectID == project.ID {
			ids.SectionID = sec.ID
			break
		}
	}
	if ids.SectionID == "" {
		return TodoistIDs{}, fmt.Errorf("%w: could not find section named '%s' in project '%s'", shared.ErrSectionNotFound, s.section, s.project)
	}

	if s.store != nil {
		if err := s.store.Set(ctx, models.TodoistIDsKey, ids); err != nil {
			s.logger.Warn("failed to cache todoist ids", "err", err)
		}
	}
	return ids, nil
}

// CreateTask files r in the configured project and section.
func (s *TodoistService) CreateTask(ctx context.Context, r models.Release) (*TodoistTask, error) {
	ids, err := s.ResolveIDs(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]string{
		"content":    TaskContent(r),
		"project_id": ids.ProjectID,
		"section_id": ids.SectionID,
	}

	var task TodoistTask
	if err := s.doRequest(ctx, http.MethodPost, "/tasks", body, &task); err != nil {
		return nil, fmt.Errorf("failed to create Todoist task: %w", err)
	}
	s.logger.Info("created todoist task", "release", r.ID, "task", task.ID)
	return &task, nil
}
