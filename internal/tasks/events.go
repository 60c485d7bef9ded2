package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/curate/internal/models"
)

// EventKind names an outbound event.
type EventKind string

const (
	BuildProgress  EventKind = "BUILD_PROGRESS"
	BuildPaused    EventKind = "BUILD_PAUSED"
	BuildError     EventKind = "BUILD_ERROR"
	BuildComplete  EventKind = "BUILD_COMPLETE"
	BuildCancelled EventKind = "BUILD_CANCELLED"
	StorageChanged EventKind = "STORAGE_CHANGED"
)

// Terminal reports whether no further events follow for the run.
func (k EventKind) Terminal() bool {
	return k == BuildComplete || k == BuildCancelled
}

// Progress is a current/total pair. Current may be fractional for overall progress.
type Progress struct {
	Current float64 `json:"current"`
	Total   int     `json:"total"`
}

// Ratio returns Current/Total clamped to [0, 1].
func (p Progress) Ratio() float64 {
	if p.Total <= 0 {
		return 0
	}
	r := p.Current / float64(p.Total)
	return min(max(r, 0), 1)
}

// Event is one message pushed to an observer. Data is nil for a bare BUILD_PAUSED.
type Event struct {
	Kind EventKind  `json:"type"`
	Data *EventData `json:"data,omitempty"`
}

// EventData carries the payload of an [Event].
type EventData struct {
	Message   string        `json:"message,omitempty"`
	Label     *models.Label `json:"label,omitempty"`
	ReleaseID int64         `json:"releaseId,omitempty"`
	FromCache bool          `json:"fromCache,omitempty"`
	Progress  *Progress     `json:"progress,omitempty"`
	Overall   *Progress     `json:"overallProgress,omitempty"`
	Attempt   int           `json:"attempt,omitempty"`
	RetryInMS int64         `json:"retryInMs,omitempty"`
	Key       string        `json:"key,omitempty"`
}

// Message returns the event message or "".
func (e Event) Message() string {
	if e.Data == nil {
		return ""
	}
	return e.Data.Message
}

func labelStartedEvent(i, n int, label models.Label) Event {
	return Event{Kind: BuildProgress, Data: &EventData{
		Message: fmt.Sprintf("Processing label %d of %d: %s", i+1, n, label.Name),
		Label:   &label,
		Overall: &Progress{Current: float64(i), Total: n},
	}}
}

func releaseFetchedEvent(label models.Label, id int64, fromCache bool, j, total, i, n int) Event {
	return Event{Kind: BuildProgress, Data: &EventData{
		Message:   fmt.Sprintf("[%s] Fetching details for release...", label.Name),
		ReleaseID: id,
		FromCache: fromCache,
		Progress:  &Progress{Current: float64(j + 1), Total: total},
		Overall:   &Progress{Current: float64(i) + float64(j+1)/float64(total), Total: n},
	}}
}

func pausedEvent(id int64, attempt int, delay time.Duration) Event {
	return Event{Kind: BuildPaused, Data: &EventData{
		Message:   fmt.Sprintf("Rate limited by the catalog, pausing for %s...", delay.Round(time.Second)),
		ReleaseID: id,
		Attempt:   attempt,
		RetryInMS: delay.Milliseconds(),
	}}
}

func labelFailedEvent(label models.Label, err error) Event {
	return Event{Kind: BuildError, Data: &EventData{
		Message: fmt.Sprintf("Failed on label %s (#%s): %v", label.Name, label.ID, err),
		Label:   &label,
	}}
}

func abortedEvent(err error) Event {
	return Event{Kind: BuildError, Data: &EventData{Message: fmt.Sprintf("Run aborted: %v", err)}}
}

func completeEvent(n int) Event {
	return Event{Kind: BuildComplete, Data: &EventData{
		Message: fmt.Sprintf("Finished processing all %d labels in the queue.", n),
	}}
}

func cancelledEvent(done, n int) Event {
	return Event{Kind: BuildCancelled, Data: &EventData{
		Message: fmt.Sprintf("Cancelled after processing %d of %d labels.", done, n),
	}}
}

func refreshStartedEvent(n int) Event {
	return Event{Kind: BuildProgress, Data: &EventData{
		Message: fmt.Sprintf("Re-fetching %d releases with missing data", n),
		Overall: &Progress{Current: 0, Total: 1},
	}}
}

func releaseRefreshedEvent(id int64, j, total int) Event {
	return Event{Kind: BuildProgress, Data: &EventData{
		Message:   fmt.Sprintf("[missing data] Fetching details for release %d...", id),
		ReleaseID: id,
		Progress:  &Progress{Current: float64(j + 1), Total: total},
		Overall:   &Progress{Current: float64(j+1) / float64(total), Total: 1},
	}}
}

func refreshCompleteEvent(n int) Event {
	return Event{Kind: BuildComplete, Data: &EventData{
		Message: fmt.Sprintf("Finished re-fetching %d releases.", n),
	}}
}

// StorageChangedEvent announces that key was written in the store.
func StorageChangedEvent(key string) Event {
	return Event{Kind: StorageChanged, Data: &EventData{Key: key}}
}
