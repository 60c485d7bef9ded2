package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/repositories"
	"github.com/desertthunder/curate/internal/shared"
	tu "github.com/desertthunder/curate/internal/testing"
)

// countingLimiter counts Wait calls.
type countingLimiter struct{ calls atomic.Int32 }

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.calls.Add(1)
	return ctx.Err()
}

func newTestDiscogs(t *testing.T, handler http.HandlerFunc) (*DiscogsService, *countingLimiter) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	limiter := &countingLimiter{}
	svc := NewDiscogsService(DiscogsOpts{
		BaseURL:     server.URL,
		HTTPClient:  server.Client(),
		Credentials: repositories.StaticCredentials{models.DiscogsTokenKey: "tok"},
		Limiter:     limiter,
	})
	return svc, limiter
}

func TestDiscogsService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewDiscogsService defaults", func(t *testing.T) {
		svc := NewDiscogsService(DiscogsOpts{PerPage: 500})
		if svc.baseURL != DiscogsBaseURL {
			t.Errorf("expected baseURL %s, got %s", DiscogsBaseURL, svc.baseURL)
		}
		if svc.perPage != DefaultPerPage {
			t.Errorf("expected per page clamped to %d, got %d", DefaultPerPage, svc.perPage)
		}
		if svc.Name() != "Discogs" {
			t.Errorf("unexpected name %s", svc.Name())
		}
	})

	t.Run("sends auth and user agent", func(t *testing.T) {
		svc, limiter := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Discogs token=tok" {
				t.Errorf("unexpected Authorization %q", got)
			}
			if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
				t.Errorf("unexpected User-Agent %q", got)
			}
			if r.URL.Path != "/labels/1" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 1, "name": "Acme", "profile": "Bass"})
		})

		details, err := svc.LabelDetails(ctx, "1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if details.Name != "Acme" || details.Label().ID != "1" {
			t.Errorf("unexpected details %+v", details)
		}
		if limiter.calls.Load() != 1 {
			t.Errorf("expected one limiter wait, got %d", limiter.calls.Load())
		}
	})

	t.Run("missing token", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
		defer server.Close()

		svc := NewDiscogsService(DiscogsOpts{BaseURL: server.URL, Limiter: NoopLimiter{}})
		_, err := svc.ReleaseDetails(ctx, 1)

		var cfgErr *shared.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
		if cfgErr.Error() != "Discogs Personal Access Token is not set." {
			t.Errorf("unexpected message %q", cfgErr.Error())
		}
		if called {
			t.Error("no request should be sent without a token")
		}
	})

	t.Run("429 becomes RateLimitError", func(t *testing.T) {
		svc, _ := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := svc.ReleaseDetails(ctx, 42)
		var rl *shared.RateLimitError
		if !errors.As(err, &rl) {
			t.Fatalf("expected RateLimitError, got %v", err)
		}
		if rl.RetryAfter != 30*time.Second || rl.Endpoint != "/releases/42" {
			t.Errorf("unexpected rate limit error %+v", rl)
		}
	})

	t.Run("other status becomes APIError", func(t *testing.T) {
		svc, _ := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})

		_, err := svc.LabelDetails(ctx, "2")
		var apiErr *shared.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Status != 500 || !strings.Contains(apiErr.Body, "boom") {
			t.Errorf("unexpected api error %+v", apiErr)
		}
	})

	t.Run("LabelReleases paginates", func(t *testing.T) {
		var pages []string
		svc, limiter := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			pages = append(pages, q.Get("page"))
			if q.Get("per_page") != "100" || q.Get("sort") != "year" || q.Get("sort_order") != "desc" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}

			page, _ := strconv.Atoi(q.Get("page"))
			ids := map[int][]int64{1: {100, 101}, 2: {102}, 3: {103}}[page]
			releases := make([]map[string]any, 0, len(ids))
			for _, id := range ids {
				releases = append(releases, map[string]any{"id": id, "title": "r"})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"pagination": map[string]int{"page": page, "pages": 3, "per_page": 100, "items": 4},
				"releases":   releases,
			})
		})

		ids, err := svc.LabelReleases(ctx, "1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []int64{100, 101, 102, 103}
		if len(ids) != len(want) {
			t.Fatalf("expected %v, got %v", want, ids)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("id %d: expected %d, got %d", i, want[i], ids[i])
			}
		}
		if strings.Join(pages, ",") != "1,2,3" {
			t.Errorf("expected pages 1,2,3, got %v", pages)
		}
		if limiter.calls.Load() != 3 {
			t.Errorf("expected one limiter wait per page, got %d", limiter.calls.Load())
		}
	})

	t.Run("LabelReleases without pagination block stops", func(t *testing.T) {
		requests := 0
		svc, _ := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			_, _ = w.Write([]byte(`{"releases":[]}`))
		})

		ids, err := svc.LabelReleases(ctx, "9")
		if err != nil || len(ids) != 0 || requests != 1 {
			t.Errorf("expected a single empty page, got ids=%v requests=%d err=%v", ids, requests, err)
		}
	})

	t.Run("LabelReleases propagates 429 without retry", func(t *testing.T) {
		requests := 0
		svc, _ := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := svc.LabelReleases(ctx, "1")
		if !shared.IsRateLimited(err) {
			t.Errorf("expected rate limit, got %v", err)
		}
		if requests != 1 {
			t.Errorf("expected exactly one request, got %d", requests)
		}
	})

	t.Run("ReleaseDetails decodes tracklist", func(t *testing.T) {
		svc, _ := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":100,"title":"Shadows","artists":[{"name":"Calibre (2)"}],"tracklist":[{"position":"A","title":"Intro","duration":"5:01"}],"formats":[{"name":"Vinyl","descriptions":["12\"","EP"]}]}`))
		})

		r, err := svc.ReleaseDetails(ctx, 100)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !r.Complete() || r.Type() != "EP" || r.ArtistLine() != "Calibre" {
			t.Errorf("unexpected release %+v", r)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		svc, _ := newTestDiscogs(t, func(w http.ResponseWriter, r *http.Request) {})
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := svc.ReleaseDetails(cctx, 1); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		svc := NewDiscogsService(DiscogsOpts{
			HTTPClient:  &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
			Credentials: repositories.StaticCredentials{models.DiscogsTokenKey: "tok"},
			Limiter:     NoopLimiter{},
		})

		_, err := svc.ReleaseDetails(ctx, 1)
		if err == nil || !strings.Contains(err.Error(), "connection refused") {
			t.Errorf("expected transport error, got %v", err)
		}
		if shared.IsRateLimited(err) {
			t.Error("transport error must not look rate limited")
		}
	})

	t.Run("body read failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		svc := NewDiscogsService(DiscogsOpts{
			HTTPClient:  &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)},
			Credentials: repositories.StaticCredentials{models.DiscogsTokenKey: "tok"},
			Limiter:     NoopLimiter{},
		})

		_, err := svc.LabelDetails(ctx, "1")
		if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
			t.Errorf("expected decode error, got %v", err)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("spaces calls", func(t *testing.T) {
		limiter := NewRateLimiter(40 * time.Millisecond)
		ctx := context.Background()

		start := time.Now()
		for range 3 {
			if err := limiter.Wait(ctx); err != nil {
				t.Fatalf("wait failed: %v", err)
			}
		}
		if elapsed := time.Since(start); elapsed < 75*time.Millisecond {
			t.Errorf("three calls should take at least two intervals, took %v", elapsed)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		limiter := NewRateLimiter(0)
		start := time.Now()
		for range 10 {
			_ = limiter.Wait(context.Background())
		}
		if time.Since(start) > 50*time.Millisecond {
			t.Error("disabled limiter should not wait")
		}
	})

	t.Run("cancellation", func(t *testing.T) {
		limiter := NewRateLimiter(time.Hour)
		_ = limiter.Wait(context.Background())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if err := limiter.Wait(ctx); err == nil {
			t.Error("expected wait to fail once the context is done")
		}
	})
}
