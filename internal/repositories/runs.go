package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/shared"
)

// RunRepository records run summaries in the run_history table.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts run, generating an id when it has none.
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.Kind == "" {
		return fmt.Errorf("%w: run kind is required", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO run_history (
			id, kind, labels, fetched, cached, skipped, pauses, failed,
			cancelled, aborted, error, started_at, finished_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		string(run.Kind),
		run.Labels,
		run.Fetched,
		run.Cached,
		run.Skipped,
		run.Pauses,
		run.Failed,
		run.Cancelled,
		run.Aborted,
		run.Error,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// List returns the most recent runs first, at most limit of them.
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, kind, labels, fetched, cached, skipped, pauses, failed,
			cancelled, aborted, error, started_at, finished_at
		FROM run_history
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		var kind string
		if err := rows.Scan(
			&run.ID, &kind, &run.Labels, &run.Fetched, &run.Cached, &run.Skipped,
			&run.Pauses, &run.Failed, &run.Cancelled, &run.Aborted, &run.Error,
			&run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Kind = models.RunKind(kind)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
