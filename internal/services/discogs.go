package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/shared"
)

const (
	DiscogsBaseURL   = "https://api.discogs.com"
	DefaultUserAgent = "CurateWatchlist/1.0 +https://github.com/desertthunder/curate"
	DefaultPerPage   = 100
)

// DiscogsPagination is the pagination block of a paged Discogs response.
type DiscogsPagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}

// DiscogsLabelRelease is one row of GET /labels/{id}/releases.
type DiscogsLabelRelease struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Catno  string `json:"catno"`
	Year   int    `json:"year"`
	Status string `json:"status"`
}

// DiscogsLabelReleasesPage is a page of GET /labels/{id}/releases.
type DiscogsLabelReleasesPage struct {
	Pagination *DiscogsPagination    `json:"pagination"`
	Releases   []DiscogsLabelRelease `json:"releases"`
}

// DiscogsOpts configures a [DiscogsService]. Zero values take the package defaults.
type DiscogsOpts struct {
	BaseURL     string
	UserAgent   string
	PerPage     int
	HTTPClient  *http.Client
	Credentials models.CredentialStore
	Limiter     RateLimiter
	Logger      *log.Logger
}

// DiscogsService is the catalog client for the Discogs REST API.
type DiscogsService struct {
	baseURL    string
	userAgent  string
	perPage    int
	httpClient *http.Client
	creds      models.CredentialStore
	limiter    RateLimiter
	logger     *log.Logger
}

// NewDiscogsService creates a DiscogsService.
//
// Without a limiter requests are spaced 1.1 s apart.
func NewDiscogsService(opts DiscogsOpts) *DiscogsService {
	s := &DiscogsService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		perPage:    opts.PerPage,
		httpClient: opts.HTTPClient,
		creds:      opts.Credentials,
		limiter:    opts.Limiter,
		logger:     opts.Logger,
	}

	if s.baseURL == "" {
		s.baseURL = DiscogsBaseURL
	}
	if s.userAgent == "" {
		s.userAgent = DefaultUserAgent
	}
	if s.perPage <= 0 || s.perPage > DefaultPerPage {
		s.perPage = DefaultPerPage
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	if s.limiter == nil {
		s.limiter = NewRateLimiter(defaultInterval)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.creds == nil {
		s.creds = noCredentials{}
	}
	return s
}

func (s *DiscogsService) Name() string { return "Discogs" }

// token reads the personal access token on every call.
func (s *DiscogsService) token(ctx context.Context) (string, error) {
	tok, ok, err := s.creds.Credential(ctx, models.DiscogsTokenKey)
	if err != nil {
		return "", fmt.Errorf("failed to read discogs token: %w", err)
	}
	if !ok {
		return "", &shared.ConfigError{Key: models.DiscogsTokenKey, Message: "Discogs Personal Access Token is not set."}
	}
	return tok, nil
}

// doRequest performs one rate-limited, authenticated GET and decodes the JSON body into result.
func (s *DiscogsService) doRequest(ctx context.Context, endpoint string, result any) error {
	tok, err := s.token(ctx)
	if err != nil {
		return err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Discogs token="+tok)
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return wrapTransport(ctx, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, endpoint); err != nil {
		s.logger.Debug("discogs request failed", "endpoint", endpoint, "status", resp.StatusCode)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// LabelDetails retrieves the label profile.
func (s *DiscogsService) LabelDetails(ctx context.Context, labelID string) (*models.LabelDetails, error) {
	var details models.LabelDetails
	if err := s.doRequest(ctx, "/labels/"+url.PathEscape(labelID), &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// LabelReleasesPage fetches one page of a label's releases, newest first.
func (s *DiscogsService) LabelReleasesPage(ctx context.Context, labelID string, page int) (*DiscogsLabelReleasesPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(s.perPage))
	q.Set("sort", "year")
	q.Set("sort_order", "desc")

	var result DiscogsLabelReleasesPage
	endpoint := "/labels/" + url.PathEscape(labelID) + "/releases?" + q.Encode()
	if err := s.doRequest(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LabelReleases enumerates every release id of a label across all pages.
//
// One rate-limited request is made per page; any error aborts the enumeration.
func (s *DiscogsService) LabelReleases(ctx context.Context, labelID string) ([]int64, error) {
	var ids []int64
	for page := 1; ; page++ {
		result, err := s.LabelReleasesPage(ctx, labelID, page)
		if err != nil {
			return nil, fmt.Errorf("label %s page %d: %w", labelID, page, err)
		}

		for _, r := range result.Releases {
			ids = append(ids, r.ID)
		}

		if result.Pagination == nil || result.Pagination.Page >= result.Pagination.Pages {
			break
		}
	}

	s.logger.Debug("enumerated label releases", "label", labelID, "count", len(ids))
	return ids, nil
}

// ReleaseDetails retrieves full release metadata.
func (s *DiscogsService) ReleaseDetails(ctx context.Context, releaseID int64) (*models.Release, error) {
	var release models.Release
	if err := s.doRequest(ctx, "/releases/"+strconv.FormatInt(releaseID, 10), &release); err != nil {
		return nil, err
	}
	return &release, nil
}

type noCredentials struct{}

func (noCredentials) Credential(context.Context, string) (string, bool, error) { return "", false, nil }
