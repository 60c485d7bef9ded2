// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/curate/internal/models"
)

// MockCatalog is a test double for the catalog client.
//
// Labels maps a label id to its release ids; Releases holds the release details.
// Unknown labels and releases answer with Err, or a not-found error when Err is nil.
type MockCatalog struct {
	Labels   map[string][]int64
	Details  map[string]models.LabelDetails
	Releases map[int64]models.Release
	Err      error

	mu    sync.Mutex
	calls int
}

// NewMockCatalog creates an empty MockCatalog.
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		Labels:   map[string][]int64{},
		Details:  map[string]models.LabelDetails{},
		Releases: map[int64]models.Release{},
	}
}

func (m *MockCatalog) notFound(what string) error {
	if m.Err != nil {
		return m.Err
	}
	return fmt.Errorf("%s not found", what)
}

func (m *MockCatalog) LabelDetails(ctx context.Context, labelID string) (*models.LabelDetails, error) {
	d, ok := m.Details[labelID]
	if !ok {
		return nil, m.notFound("label " + labelID)
	}
	return &d, nil
}

func (m *MockCatalog) LabelReleases(ctx context.Context, labelID string) ([]int64, error) {
	ids, ok := m.Labels[labelID]
	if !ok {
		return nil, m.notFound("label " + labelID)
	}
	return ids, nil
}

func (m *MockCatalog) ReleaseDetails(ctx context.Context, releaseID int64) (*models.Release, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	r, ok := m.Releases[releaseID]
	if !ok {
		return nil, m.notFound(fmt.Sprintf("release %d", releaseID))
	}
	return &r, nil
}

// ReleaseCalls returns how many times ReleaseDetails was called.
func (m *MockCatalog) ReleaseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// NewRelease builds a complete release credited to artist on label.
func NewRelease(id int64, title, artist, label string) models.Release {
	return models.Release{
		ID:        id,
		Title:     title,
		Artists:   []models.Artist{{Name: artist}},
		Labels:    []models.ReleaseLabel{{Name: label, Catno: fmt.Sprintf("CAT%03d", id)}},
		Tracklist: []models.Track{{Position: "A1", Title: title}},
		Year:      2000,
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
