package models

import (
	"context"
	"time"
)

// Store keys. Each names one JSON document.
const (
	ReleaseCacheKey   = "discogs_release_cache_v1"
	CompletedLabelKey = "discogs_labels_v1"
	QueueKey          = "discogs_label_queue_v1"
	TodoistIDsKey     = "todoist_ids_cache_v1"
)

// Credential keys understood by a [CredentialStore].
const (
	DiscogsTokenKey = "discogsToken"
	TodoistTokenKey = "todoistToken"
)

// Store is a persistent key-value store of JSON documents.
//
// Writes to a single key are atomic. Nothing is guaranteed across keys.
type Store interface {
	// Get decodes the value stored under key into dst and reports whether the key exists.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set encodes value and stores it under key, replacing any previous value.
	Set(ctx context.Context, key string, value any) error
	// OnChange registers fn to be called after every successful Set.
	OnChange(fn func(key string))
}

// CredentialStore returns secrets by key. A missing secret is reported with ok=false, not an error.
type CredentialStore interface {
	Credential(ctx context.Context, key string) (secret string, ok bool, err error)
}

// RunKind distinguishes queue runs from missing-data passes.
type RunKind string

const (
	RunKindLabels   RunKind = "labels"
	RunKindReleases RunKind = "releases"
)

// Run is the summary of one processing run as recorded in run_history.
type Run struct {
	ID         string    `json:"id"`
	Kind       RunKind   `json:"kind"`
	Labels     int       `json:"labels"`
	Fetched    int       `json:"fetched"`
	Cached     int       `json:"cached"`
	Skipped    int       `json:"skipped"`
	Pauses     int       `json:"pauses"`
	Failed     int       `json:"failed"`
	Cancelled  bool      `json:"cancelled"`
	Aborted    bool      `json:"aborted"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Status is a one-word outcome: cancelled, aborted, failed or ok.
func (r Run) Status() string {
	switch {
	case r.Aborted:
		return "aborted"
	case r.Cancelled:
		return "cancelled"
	case r.Failed > 0:
		return "failed"
	}
	return "ok"
}

// Duration is how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
