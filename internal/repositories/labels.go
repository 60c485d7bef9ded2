package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/shared"
)

// LabelRepository persists the pending label queue and the completed-labels list.
type LabelRepository struct {
	store models.Store
	mu    sync.Mutex
}

// NewLabelRepository creates a LabelRepository over store.
func NewLabelRepository(store models.Store) *LabelRepository {
	return &LabelRepository{store: store}
}

func (r *LabelRepository) list(ctx context.Context, key string) ([]models.Label, error) {
	labels := []models.Label{}
	if _, err := r.store.Get(ctx, key, &labels); err != nil {
		return nil, err
	}
	if labels == nil {
		labels = []models.Label{}
	}
	return labels, nil
}

// Queue returns the pending labels in FIFO order.
func (r *LabelRepository) Queue(ctx context.Context) ([]models.Label, error) {
	return r.list(ctx, models.QueueKey)
}

// SetQueue replaces the pending queue.
func (r *LabelRepository) SetQueue(ctx context.Context, queue []models.Label) error {
	if queue == nil {
		queue = []models.Label{}
	}
	return r.store.Set(ctx, models.QueueKey, queue)
}

// ClearQueue empties the pending queue.
func (r *LabelRepository) ClearQueue(ctx context.Context) error {
	return r.SetQueue(ctx, nil)
}

// Enqueue appends label to the queue.
//
// The id must be numeric and must not already be queued or completed.
func (r *LabelRepository) Enqueue(ctx context.Context, label models.Label) (models.Label, error) {
	id, err := models.ParseLabelID(label.ID)
	if err != nil {
		return label, fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}
	label.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()

	queue, err := r.Queue(ctx)
	if err != nil {
		return label, err
	}
	if models.ContainsLabel(queue, id) {
		return label, fmt.Errorf("%w: %s", shared.ErrAlreadyQueued, id)
	}

	completed, err := r.Completed(ctx)
	if err != nil {
		return label, err
	}
	if models.ContainsLabel(completed, id) {
		return label, fmt.Errorf("%w: %s", shared.ErrAlreadyImported, id)
	}

	return label, r.SetQueue(ctx, append(queue, label))
}

// Remove drops the label with id from the queue and reports whether it was there.
func (r *LabelRepository) Remove(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue, err := r.Queue(ctx)
	if err != nil {
		return false, err
	}

	kept := queue[:0]
	for _, l := range queue {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(queue) {
		return false, nil
	}
	return true, r.SetQueue(ctx, kept)
}

// Completed returns the labels whose releases have been imported.
func (r *LabelRepository) Completed(ctx context.Context) ([]models.Label, error) {
	return r.list(ctx, models.CompletedLabelKey)
}

// SaveCompleted replaces the completed-labels list, keeping the first entry per id.
func (r *LabelRepository) SaveCompleted(ctx context.Context, labels []models.Label) error {
	deduped := make([]models.Label, 0, len(labels))
	for _, l := range labels {
		deduped = models.AppendLabel(deduped, l)
	}
	return r.store.Set(ctx, models.CompletedLabelKey, deduped)
}
