package tasks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/services"
	"github.com/desertthunder/curate/internal/shared"
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
	return &services.TodoistTask{ID: "1", Content: services.TaskContent(r)}, nil
}

func newDispatcher(t *testing.T, f *fixture, tasks TaskCreator) *Dispatcher {
	t.Helper()
	d := NewDispatcher(context.Background(), DispatcherOpts{
		Processor: f.proc,
		Catalog:   f.catalog,
		Labels:    f.labels,
		Cache:     f.cache,
		Tasks:     tasks,
	})
	t.Cleanup(func() {
		d.Cancel()
		d.Wait()
	})
	return d
}

// collect reads events until a terminal one arrives.
func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-events:
			got = append(got, e)
			if e.Kind.Terminal() {
				return got
			}
		case <-timeout:
			t.Fatalf("timed out waiting for a terminal event, got %d events", len(got))
		}
	}
}

func TestDispatcherHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown request", func(t *testing.T) {
		d := newDispatcher(t, newFixture(t, noPause()), nil)
		resp := d.Handle(ctx, "s", Request{Type: "NOPE"})
		if resp.Success || !strings.Contains(resp.Error, "NOPE") {
			t.Errorf("expected failure naming the type, got %+v", resp)
		}
	})

	t.Run("label details", func(t *testing.T) {
		f := newFixture(t, noPause())
		f.catalog.details["23528"] = &models.LabelDetails{ID: 23528, Name: "Warp Records"}
		d := newDispatcher(t, f, nil)

		resp := d.Handle(ctx, "s", Request{Type: GetLabelDetails, LabelID: " 23528 "})
		if !resp.Success {
			t.Fatalf("expected success, got %q", resp.Error)
		}
		if details := resp.Data.(*models.LabelDetails); details.Name != "Warp Records" {
			t.Errorf("unexpected details %+v", details)
		}

		resp = d.Handle(ctx, "s", Request{Type: GetLabelDetails, LabelID: "abc"})
		if resp.Success {
			t.Error("non-numeric id should fail")
		}
	})

	t.Run("add label", func(t *testing.T) {
		f := newFixture(t, noPause())
		f.catalog.details["1"] = &models.LabelDetails{ID: 1, Name: "Acme"}
		d := newDispatcher(t, f, nil)

		resp := d.Handle(ctx, "s", Request{Type: AddLabelToQueue, Label: &models.Label{ID: "1", Name: "typed"}})
		if !resp.Success {
			t.Fatalf("expected success, got %q", resp.Error)
		}

		queue, _ := f.labels.Queue(ctx)
		if len(queue) != 1 || queue[0].Name != "Acme" {
			t.Errorf("expected the catalog name to be queued, got %+v", queue)
		}

		resp = d.Handle(ctx, "s", Request{Type: AddLabelToQueue, Label: &models.Label{ID: "1"}})
		if resp.Success {
			t.Error("duplicate label should fail")
		}

		resp = d.Handle(ctx, "s", Request{Type: AddLabelToQueue, Label: &models.Label{ID: "404"}})
		if resp.Success || !strings.Contains(resp.Error, "404") {
			t.Errorf("unknown label should fail with the catalog error, got %+v", resp)
		}

		resp = d.Handle(ctx, "s", Request{Type: AddLabelToQueue})
		if resp.Success {
			t.Error("missing label should fail")
		}
	})

	t.Run("create task", func(t *testing.T) {
		f := newFixture(t, noPause())
		_ = f.cache.Put(ctx, models.Release{ID: 100, Title: "Selected Ambient Works"})
		tasks := &mockTasks{}
		d := newDispatcher(t, f, tasks)

		resp := d.Handle(ctx, "s", Request{Type: CreateTodoistTask, Release: &models.Release{ID: 100, Title: "Selected Ambient Works"}})
		if !resp.Success {
			t.Fatalf("expected success, got %q", resp.Error)
		}
		if len(tasks.created) != 1 {
			t.Fatalf("expected one task, got %d", len(tasks.created))
		}

		r, _, _ := f.cache.Get(ctx, 100)
		if r.Status != models.StatusToListen {
			t.Errorf("expected status %q, got %q", models.StatusToListen, r.Status)
		}

		resp = d.Handle(ctx, "s", Request{Type: CreateTodoistTask, Release: &models.Release{ID: 999}})
		if !resp.Success {
			t.Errorf("uncached release should still succeed, got %q", resp.Error)
		}
	})

	t.Run("create task failure leaves status", func(t *testing.T) {
		f := newFixture(t, noPause())
		_ = f.cache.Put(ctx, models.Release{ID: 100})
		d := newDispatcher(t, f, &mockTasks{err: &shared.APIError{Status: 403, Body: "forbidden"}})

		resp := d.Handle(ctx, "s", Request{Type: CreateTodoistTask, Release: &models.Release{ID: 100}})
		if resp.Success || !strings.Contains(resp.Error, "403") {
			t.Errorf("expected the API error, got %+v", resp)
		}

		r, _, _ := f.cache.Get(ctx, 100)
		if r.Status != "" {
			t.Errorf("status should be unchanged, got %q", r.Status)
		}
	})

	t.Run("create task without a task service", func(t *testing.T) {
		d := newDispatcher(t, newFixture(t, noPause()), nil)
		resp := d.Handle(ctx, "s", Request{Type: CreateTodoistTask, Release: &models.Release{ID: 1}})
		if resp.Success {
			t.Error("expected failure")
		}
	})
}

func TestDispatcherProcessQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("acknowledges then streams to the session", func(t *testing.T) {
		f := newFixture(t, noPause())
		f.catalog.labels["1"] = []int64{100, 200}
		d := newDispatcher(t, f, nil)

		events, cancel := d.Channel().Subscribe("s")
		defer cancel()
		other, cancelOther := d.Channel().Subscribe("other")
		defer cancelOther()

		resp := d.Handle(ctx, "s", Request{Type: ProcessLabelQueue, Queue: []models.Label{{ID: "1", Name: "Acme"}}})
		if !resp.Success {
			t.Fatalf("expected success, got %q", resp.Error)
		}

		got := collect(t, events)
		if len(got) != 4 || got[3].Kind != BuildComplete {
			t.Errorf("unexpected events %+v", got)
		}

		d.Wait()
		if len(other) != 0 {
			t.Errorf("other session should see nothing, got %d events", len(other))
		}
	})

	t.Run("uses the persisted queue", func(t *testing.T) {
		f := newFixture(t, noPause())
		_ = f.labels.SetQueue(ctx, []models.Label{{ID: "7", Name: "Stored"}})
		d := newDispatcher(t, f, nil)

		events, cancel := d.Channel().Subscribe("s")
		defer cancel()

		resp := d.Handle(ctx, "s", Request{Type: ProcessLabelQueue})
		if !resp.Success {
			t.Fatalf("expected success, got %q", resp.Error)
		}

		got := collect(t, events)
		if got[0].Message() != "Processing label 1 of 1: Stored" {
			t.Errorf("unexpected first message %q", got[0].Message())
		}
	})

	t.Run("one run at a time", func(t *testing.T) {
		f := newFixture(t, noPause())
		f.catalog.block = make(chan struct{})
		d := newDispatcher(t, f, nil)

		events, cancel := d.Channel().Subscribe("s")
		defer cancel()

		queue := []models.Label{{ID: "1", Name: "Acme"}}
		if resp := d.Handle(ctx, "s", Request{Type: ProcessLabelQueue, Queue: queue}); !resp.Success {
			t.Fatalf("expected success, got %q", resp.Error)
		}
		if !d.Running() {
			t.Fatal("expected an active run")
		}

		resp := d.Handle(ctx, "s", Request{Type: ProcessLabelQueue, Queue: queue})
		if resp.Success || !strings.Contains(resp.Error, shared.ErrRunInProgress.Error()) {
			t.Errorf("expected ErrRunInProgress, got %+v", resp)
		}

		close(f.catalog.block)
		collect(t, events)
		d.Wait()
		if d.Running() {
			t.Error("run should be finished")
		}
	})

	t.Run("cancel run", func(t *testing.T) {
		f := newFixture(t, noPause())
		f.catalog.block = make(chan struct{})
		d := newDispatcher(t, f, nil)

		events, cancel := d.Channel().Subscribe("s")
		defer cancel()

		resp := d.Handle(ctx, "s", Request{Type: ProcessLabelQueue, Queue: []models.Label{{ID: "1", Name: "Acme"}}})
		if !resp.Success {
			t.Fatalf("expected success, got %q", resp.Error)
		}

		resp = d.Handle(ctx, "s", Request{Type: CancelRun})
		if !resp.Success || !resp.Data.(map[string]bool)["cancelled"] {
			t.Errorf("expected a cancelled run, got %+v", resp)
		}

		got := collect(t, events)
		if got[len(got)-1].Kind != BuildCancelled {
			t.Errorf("expected BUILD_CANCELLED, got %+v", got)
		}

		d.Wait()
		if d.Cancel() {
			t.Error("nothing left to cancel")
		}
	})
}

func TestDispatcherProcessReleases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, noPause())
	_ = f.cache.Put(ctx, models.Release{ID: 100, Title: "Partial"})
	_ = f.cache.Put(ctx, models.Release{ID: 200, Title: "Full", Tracklist: []models.Track{{Title: "A1"}}})
	d := newDispatcher(t, f, nil)

	events, cancel := d.Channel().Subscribe("s")
	defer cancel()

	resp := d.Handle(ctx, "s", Request{Type: ProcessReleasesQueue})
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}
	if resp.Data.(map[string]int)["releases"] != 1 {
		t.Errorf("only the incomplete release should be queued, got %+v", resp.Data)
	}

	got := collect(t, events)
	if got[len(got)-1].Kind != BuildComplete {
		t.Errorf("expected BUILD_COMPLETE, got %+v", got)
	}
	d.Wait()

	if f.catalog.calls(100) != 1 || f.catalog.calls(200) != 0 {
		t.Errorf("unexpected fetches: 100=%d 200=%d", f.catalog.calls(100), f.catalog.calls(200))
	}
	incomplete, _ := f.cache.Incomplete(ctx)
	if len(incomplete) != 0 {
		t.Errorf("expected no incomplete releases, got %+v", incomplete)
	}
}
