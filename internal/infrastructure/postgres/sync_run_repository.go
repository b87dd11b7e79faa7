package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ledgerlink/internal/domain/syncrun"
)

// SyncRunRepository implements the syncrun.Repository interface for PostgreSQL
type SyncRunRepository struct {
	db *DB
}

// NewSyncRunRepository creates a new PostgreSQL sync run repository
func NewSyncRunRepository(db *DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

const runColumns = `id, connection_id, status, stats, error, status_text, created_at, completed_at`

func scanRun(scanner interface{ Scan(...any) error }) (*syncrun.Run, error) {
	var run syncrun.Run
	var stats []byte
	var errText, statusText sql.NullString
	var completedAt sql.NullTime

	err := scanner.Scan(
		&run.ID, &run.ConnectionID, &run.Status, &stats,
		&errText, &statusText, &run.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(stats) > 0 {
		// Hand the blob to consumers as-is; syncrun.ParseStats owns the
		// tolerant decode.
		run.Stats = string(stats)
	}
	run.Error = errText.String
	run.StatusText = statusText.String
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return &run, nil
}

// Create inserts a new sync run
func (r *SyncRunRepository) Create(ctx context.Context, run *syncrun.Run) error {
	query := `
		INSERT INTO sync_runs (id, connection_id, status, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, run.ID, run.ConnectionID, run.Status, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}
	return nil
}

// LatestByConnectionID returns the most recent run for a connection, or nil
// if the connection has never synced
func (r *SyncRunRepository) LatestByConnectionID(ctx context.Context, connectionID string) (*syncrun.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM sync_runs
		WHERE connection_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, connectionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest sync run: %w", err)
	}
	return run, nil
}

// ListByConnectionID returns runs for a connection, newest first
func (r *SyncRunRepository) ListByConnectionID(ctx context.Context, connectionID string, limit int) ([]*syncrun.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ` + runColumns + `
		FROM sync_runs
		WHERE connection_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, connectionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*syncrun.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync runs: %w", err)
	}

	return runs, nil
}

// UpdateStats replaces the run's stats blob
func (r *SyncRunRepository) UpdateStats(ctx context.Context, runID string, stats syncrun.Stats) error {
	encoded, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE sync_runs SET stats = $2 WHERE id = $1`, runID, encoded)
	if err != nil {
		return fmt.Errorf("failed to update sync run stats: %w", err)
	}
	return nil
}

// Complete marks the run's terminal status and error/status text
func (r *SyncRunRepository) Complete(ctx context.Context, runID string, status string, errText string, statusText string) error {
	query := `
		UPDATE sync_runs
		SET status = $2, error = $3, status_text = $4, completed_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, runID, status, nullString(errText), nullString(statusText))
	if err != nil {
		return fmt.Errorf("failed to complete sync run: %w", err)
	}
	return nil
}
