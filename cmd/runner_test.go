package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/services"
	"github.com/desertthunder/curate/internal/shared"
	tu "github.com/desertthunder/curate/internal/testing"
)

type mockTasks struct {
	created []models.Release
	err     error
}

func (m *mockTasks) CreateTask(ctx context.Context, r models.Release) (*services.TodoistTask, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, r)
	return &services.TodoistTask{ID: "t1", Content: services.TaskContent(r), URL: "https://todoist.com/showTask?id=t1"}, nil
}

type testRunner struct {
	*Runner
	out     *bytes.Buffer
	catalog *tu.MockCatalog
	tasks   *mockTasks
}

func newTestRunner(t *testing.T) *testRunner {
	t.Helper()

	config := shared.DefaultConfig()
	config.Storage.Driver = "memory"
	config.Database.Path = ":memory:"
	config.Catalog.PauseMS = 1

	catalog := tu.NewMockCatalog()
	catalog.Details["1"] = models.LabelDetails{ID: 1, Name: "Acme", Profile: "Test label"}
	catalog.Labels["1"] = []int64{100, 200}
	catalog.Releases[100] = tu.NewRelease(100, "First", "Artist A", "Acme")
	catalog.Releases[200] = tu.NewRelease(200, "Second", "Artist B", "Acme")

	out := &bytes.Buffer{}
	mt := &mockTasks{}
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: catalog,
		Tasks:   mt,
		Logger:  log.New(io.Discard),
		Output:  out,
	})
	t.Cleanup(func() { runner.Close() })

	return &testRunner{Runner: runner, out: out, catalog: catalog, tasks: mt}
}

func (tr *testRunner) run(args ...string) error {
	tr.out.Reset()
	app := &cli.Command{
		Name:      "curate",
		Writer:    io.Discard,
		ErrWriter: io.Discard,
		Commands:  tr.register(),
	}
	return app.Run(context.Background(), append([]string{"curate"}, args...))
}

func (tr *testRunner) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if err := tr.run(args...); err != nil {
		t.Fatalf("%s: unexpected error: %v", strings.Join(args, " "), err)
	}
	return tr.out.String()
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			catalog := tu.NewMockCatalog()
			mt := &mockTasks{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Catalog:    catalog,
				Tasks:      mt,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.todoist != mt {
				t.Error("expected tasks to be set")
			}
			if runner.ready {
				t.Error("expected storage to open lazily")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses the catalog timeout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient == nil {
				t.Fatal("expected httpClient to be set")
			}
			if runner.httpClient.Timeout != 30*time.Second {
				t.Errorf("expected 30s timeout, got %v", runner.httpClient.Timeout)
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with empty configPath uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: ""})

			if runner.configPath != defaultConfigPath {
				t.Errorf("expected %s, got %s", defaultConfigPath, runner.configPath)
			}
		})
	})

	t.Run("open", func(t *testing.T) {
		tr := newTestRunner(t)

		if err := tr.open(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tr.store == nil || tr.cache == nil || tr.labels == nil || tr.runs == nil || tr.processor == nil {
			t.Fatal("expected dependencies to be built")
		}

		store := tr.store
		if err := tr.open(context.Background()); err != nil {
			t.Fatalf("expected no error on second open, got %v", err)
		}
		if tr.store != store {
			t.Error("expected open to run once")
		}
	})

	t.Run("open rejects unknown storage driver", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.config.Storage.Driver = "etcd"

		err := tr.open(context.Background())
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		seen := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if seen[cmd.Name] {
				t.Errorf("duplicate command %q", cmd.Name)
			}
			seen[cmd.Name] = true
		}
		for _, name := range []string{"setup", "queue", "releases", "cache", "serve", "tui"} {
			if !seen[name] {
				t.Errorf("expected %q command", name)
			}
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("database creates config and migrates", func(t *testing.T) {
		dir := t.TempDir()
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "curate.db")
		out := &bytes.Buffer{}

		runner := NewRunner(RunnerOpts{
			Config:     config,
			ConfigPath: filepath.Join(dir, "config.toml"),
			Logger:     log.New(io.Discard),
			Output:     out,
		})
		tr := &testRunner{Runner: runner, out: out}

		result := tr.mustRun(t, "setup", "database")

		tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
		tu.AssertFileExists(t, config.Database.Path)
		if !strings.Contains(result, "Database ready") {
			t.Errorf("expected ready message, got %q", result)
		}
		if !strings.Contains(result, "migrations applied") {
			t.Errorf("expected migration count, got %q", result)
		}
	})

	t.Run("tokens are saved to the store", func(t *testing.T) {
		tr := newTestRunner(t)

		result := tr.mustRun(t, "setup", "tokens", "--discogs", "abc", "--todoist", "xyz")

		if !strings.Contains(result, "Saved 2 token(s)") {
			t.Errorf("unexpected output %q", result)
		}
		for key, want := range map[string]string{models.DiscogsTokenKey: "abc", models.TodoistTokenKey: "xyz"} {
			got, ok, err := tr.creds.Credential(context.Background(), key)
			if err != nil || !ok || got != want {
				t.Errorf("%s: got %q, %v, %v", key, got, ok, err)
			}
		}
	})

	t.Run("tokens without flags", func(t *testing.T) {
		tr := newTestRunner(t)

		err := tr.run("setup", "tokens")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestQueueCommands(t *testing.T) {
	t.Run("label show", func(t *testing.T) {
		tr := newTestRunner(t)

		result := tr.mustRun(t, "label", "show", "--json", "1")

		var details models.LabelDetails
		if err := json.Unmarshal([]byte(result), &details); err != nil {
			t.Fatalf("invalid JSON %q: %v", result, err)
		}
		if details.Name != "Acme" {
			t.Errorf("expected Acme, got %q", details.Name)
		}
	})

	t.Run("add then list", func(t *testing.T) {
		tr := newTestRunner(t)

		result := tr.mustRun(t, "queue", "add", "1")
		if !strings.Contains(result, "Queued Acme (#1)") {
			t.Errorf("unexpected output %q", result)
		}

		result = tr.mustRun(t, "queue", "list", "--json")
		var queue []models.Label
		if err := json.Unmarshal([]byte(result), &queue); err != nil {
			t.Fatalf("invalid JSON %q: %v", result, err)
		}
		if len(queue) != 1 || queue[0].ID != "1" || queue[0].Name != "Acme" {
			t.Errorf("unexpected queue %+v", queue)
		}
	})

	t.Run("add rejects invalid and duplicate ids", func(t *testing.T) {
		tr := newTestRunner(t)

		if err := tr.run("queue", "add", "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := tr.run("queue", "add"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}

		tr.mustRun(t, "queue", "add", "1")
		if err := tr.run("queue", "add", "1"); !errors.Is(err, shared.ErrAlreadyQueued) {
			t.Errorf("expected ErrAlreadyQueued, got %v", err)
		}
	})

	t.Run("add unknown label", func(t *testing.T) {
		tr := newTestRunner(t)

		if err := tr.run("queue", "add", "99"); err == nil {
			t.Error("expected error for unknown label")
		}
		result := tr.mustRun(t, "queue", "list")
		if !strings.Contains(result, "The queue is empty.") {
			t.Errorf("expected empty queue, got %q", result)
		}
	})

	t.Run("remove and clear", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.catalog.Details["2"] = models.LabelDetails{ID: 2, Name: "Beta"}
		tr.mustRun(t, "queue", "add", "1")
		tr.mustRun(t, "queue", "add", "2")

		tr.mustRun(t, "queue", "remove", "1")
		if err := tr.run("queue", "remove", "1"); !errors.Is(err, shared.ErrLabelNotFound) {
			t.Errorf("expected ErrLabelNotFound, got %v", err)
		}

		result := tr.mustRun(t, "queue", "list")
		if strings.Contains(result, "Acme") || !strings.Contains(result, "Beta") {
			t.Errorf("unexpected queue %q", result)
		}

		tr.mustRun(t, "queue", "clear")
		result = tr.mustRun(t, "queue", "list")
		if !strings.Contains(result, "The queue is empty.") {
			t.Errorf("expected empty queue, got %q", result)
		}
	})

	t.Run("process imports the queue", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.mustRun(t, "queue", "add", "1")

		result := tr.mustRun(t, "queue", "process", "--no-progress")
		if !strings.Contains(result, "Run complete") {
			t.Errorf("expected run summary, got %q", result)
		}
		if !strings.Contains(result, "Fetched: 2") {
			t.Errorf("expected 2 fetched, got %q", result)
		}

		result = tr.mustRun(t, "labels", "imported", "--json")
		var completed []models.Label
		if err := json.Unmarshal([]byte(result), &completed); err != nil {
			t.Fatalf("invalid JSON %q: %v", result, err)
		}
		if len(completed) != 1 || completed[0].ID != "1" {
			t.Errorf("unexpected completed labels %+v", completed)
		}

		result = tr.mustRun(t, "queue", "list")
		if !strings.Contains(result, "The queue is empty.") {
			t.Errorf("expected queue cleared, got %q", result)
		}

		result = tr.mustRun(t, "runs", "list", "--json")
		var runs []models.Run
		if err := json.Unmarshal([]byte(result), &runs); err != nil {
			t.Fatalf("invalid JSON %q: %v", result, err)
		}
		if len(runs) != 1 || runs[0].Kind != models.RunKindLabels || runs[0].Fetched != 2 {
			t.Errorf("unexpected runs %+v", runs)
		}

		now := time.Now()
		for _, run := range []*models.Run{
			{Kind: models.RunKindLabels, Aborted: true, Error: "storage failure", StartedAt: now, FinishedAt: now},
			{Kind: models.RunKindLabels, Failed: 2, StartedAt: now.Add(-time.Minute), FinishedAt: now.Add(-time.Minute)},
		} {
			if err := tr.runs.Create(context.Background(), run); err != nil {
				t.Fatalf("failed to record run: %v", err)
			}
		}
		result = tr.mustRun(t, "runs", "list")
		for _, want := range []string{"aborted", "2 failed", "ok"} {
			if !strings.Contains(result, want) {
				t.Errorf("expected %q in runs list, got %q", want, result)
			}
		}

		if err := tr.run("queue", "add", "1"); !errors.Is(err, shared.ErrAlreadyImported) {
			t.Errorf("expected ErrAlreadyImported, got %v", err)
		}
	})

	t.Run("process empty queue", func(t *testing.T) {
		tr := newTestRunner(t)

		result := tr.mustRun(t, "queue", "process", "--no-progress")
		if !strings.Contains(result, "The queue is empty.") {
			t.Errorf("unexpected output %q", result)
		}
	})
}

func TestReleaseCommands(t *testing.T) {
	seed := func(t *testing.T, tr *testRunner) {
		t.Helper()
		tr.mustRun(t, "queue", "add", "1")
		tr.mustRun(t, "queue", "process", "--no-progress")
	}

	t.Run("list", func(t *testing.T) {
		tr := newTestRunner(t)
		seed(t, tr)

		result := tr.mustRun(t, "releases", "list", "--sort", "title", "--dir", "asc")
		first, second := strings.Index(result, "First"), strings.Index(result, "Second")
		if first < 0 || second < 0 || first > second {
			t.Errorf("expected First before Second, got %q", result)
		}
		if !strings.Contains(result, "2 releases found.") {
			t.Errorf("expected page info, got %q", result)
		}
	})

	t.Run("list filters", func(t *testing.T) {
		tr := newTestRunner(t)
		seed(t, tr)

		result := tr.mustRun(t, "releases", "list", "--json", "--query", "artist b")
		var page struct {
			Items []models.Release `json:"items"`
			Total int              `json:"total"`
		}
		if err := json.Unmarshal([]byte(result), &page); err != nil {
			t.Fatalf("invalid JSON %q: %v", result, err)
		}
		if page.Total != 1 || page.Items[0].ID != 200 {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("list rejects bad flags", func(t *testing.T) {
		tr := newTestRunner(t)

		if err := tr.run("releases", "list", "--sort", "color"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag for sort, got %v", err)
		}
		if err := tr.run("releases", "list", "--dir", "up"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag for dir, got %v", err)
		}
	})

	t.Run("open unknown release", func(t *testing.T) {
		tr := newTestRunner(t)

		if err := tr.run("releases", "open", "12345"); !errors.Is(err, shared.ErrReleaseNotFound) {
			t.Errorf("expected ErrReleaseNotFound, got %v", err)
		}
	})

	t.Run("todoist add marks the release", func(t *testing.T) {
		tr := newTestRunner(t)
		seed(t, tr)

		result := tr.mustRun(t, "todoist", "add", "100")
		if !strings.Contains(result, "Task created") || !strings.Contains(result, "showTask?id=t1") {
			t.Errorf("unexpected output %q", result)
		}
		if len(tr.tasks.created) != 1 || tr.tasks.created[0].ID != 100 {
			t.Errorf("unexpected tasks %+v", tr.tasks.created)
		}

		rel, ok, err := tr.cache.Get(context.Background(), 100)
		if err != nil || !ok {
			t.Fatalf("expected cached release, got %v, %v", ok, err)
		}
		if rel.Status != models.StatusToListen {
			t.Errorf("expected status %q, got %q", models.StatusToListen, rel.Status)
		}
	})

	t.Run("todoist add failure", func(t *testing.T) {
		tr := newTestRunner(t)
		seed(t, tr)
		tr.tasks.err = errors.New("todoist down")

		err := tr.run("todoist", "add", "100")
		if err == nil || !strings.Contains(err.Error(), "todoist down") {
			t.Errorf("expected todoist error, got %v", err)
		}
	})
}

func TestCacheCommands(t *testing.T) {
	writeFile := func(t *testing.T, name, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
		return path
	}

	t.Run("import array and stats", func(t *testing.T) {
		tr := newTestRunner(t)
		path := writeFile(t, "releases.json", `[
			{"id": 1, "title": "One", "tracklist": [{"position": "A1", "title": "x"}]},
			{"id": 2, "title": "Two", "status": "to listen"}
		]`)

		result := tr.mustRun(t, "cache", "import", path)
		if !strings.Contains(result, "Imported 2 releases (2 new)") {
			t.Errorf("unexpected output %q", result)
		}

		result = tr.mustRun(t, "cache", "stats", "--json")
		var stats struct {
			Total      int            `json:"total"`
			Incomplete int            `json:"incomplete"`
			ByStatus   map[string]int `json:"by_status"`
			Labels     int            `json:"labels"`
		}
		if err := json.Unmarshal([]byte(result), &stats); err != nil {
			t.Fatalf("invalid JSON %q: %v", result, err)
		}
		if stats.Total != 2 || stats.Incomplete != 1 || stats.ByStatus[models.StatusToListen] != 1 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("import keyed export keeps status", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.mustRun(t, "cache", "import", writeFile(t, "a.json", `[{"id": 7, "title": "Seven", "status": "to listen"}]`))

		result := tr.mustRun(t, "cache", "import", writeFile(t, "b.json", `{"7": {"title": "Seven (Remaster)"}}`))
		if !strings.Contains(result, "(0 new)") {
			t.Errorf("unexpected output %q", result)
		}

		rel, _, err := tr.cache.Get(context.Background(), 7)
		if err != nil {
			t.Fatal(err)
		}
		if rel.Title != "Seven (Remaster)" || rel.Status != models.StatusToListen {
			t.Errorf("unexpected merge %+v", rel)
		}
	})

	t.Run("import rejects bad input", func(t *testing.T) {
		tr := newTestRunner(t)

		if err := tr.run("cache", "import", writeFile(t, "bad.json", `{"abc": {}}`)); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := tr.run("cache", "import", writeFile(t, "noid.json", `[{"title": "x"}]`)); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := tr.run("cache", "import"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("export csv", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.mustRun(t, "queue", "add", "1")
		tr.mustRun(t, "queue", "process", "--no-progress")
		path := filepath.Join(t.TempDir(), "out.csv")

		result := tr.mustRun(t, "cache", "export", "-o", path)
		if !strings.Contains(result, "Exported 2 releases") {
			t.Errorf("unexpected output %q", result)
		}

		content := tu.MustReadFile(t, path)
		if !strings.HasPrefix(content, "ID,Date,Title") || !strings.Contains(content, "Second") {
			t.Errorf("unexpected CSV %q", content)
		}
	})

	t.Run("missing lists and refetches", func(t *testing.T) {
		tr := newTestRunner(t)
		tr.mustRun(t, "cache", "import", writeFile(t, "r.json", `[{"id": 100, "title": "First", "status": "to listen"}]`))

		result := tr.mustRun(t, "cache", "missing", "--list")
		if !strings.Contains(result, "1 releases with missing data") {
			t.Errorf("unexpected output %q", result)
		}

		tr.mustRun(t, "cache", "missing", "--no-progress")

		rel, _, err := tr.cache.Get(context.Background(), 100)
		if err != nil {
			t.Fatal(err)
		}
		if !rel.Complete() || rel.Status != models.StatusToListen {
			t.Errorf("expected complete release keeping status, got %+v", rel)
		}

		result = tr.mustRun(t, "cache", "missing")
		if !strings.Contains(result, "No releases with missing data") {
			t.Errorf("unexpected output %q", result)
		}
	})
}

func TestDecodeReleases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int64
		wantErr bool
	}{
		{name: "array", input: `[{"id": 2}, {"id": 1}]`, want: []int64{2, 1}},
		{name: "keyed object sorted by key", input: `{"20": {"title": "b"}, "10": {"id": 10}}`, want: []int64{10, 20}},
		{name: "empty object", input: `{}`, want: []int64{}},
		{name: "leading whitespace", input: "\n  [{\"id\": 5}]", want: []int64{5}},
		{name: "bad key", input: `{"x": {}}`, wantErr: true},
		{name: "missing id", input: `[{"title": "x"}]`, wantErr: true},
		{name: "not json", input: `nope`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			releases, err := decodeReleases([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(releases) != len(tt.want) {
				t.Fatalf("expected %d releases, got %d", len(tt.want), len(releases))
			}
			for i, id := range tt.want {
				if releases[i].ID != id {
					t.Errorf("release %d: expected id %d, got %d", i, id, releases[i].ID)
				}
			}
		})
	}
}
