package syncrun

import "context"

// Repository defines data access for sync runs.
type Repository interface {
	Create(ctx context.Context, run *Run) error
	// LatestByConnectionID returns the most recent run for a connection,
	// or nil if the connection has never synced.
	LatestByConnectionID(ctx context.Context, connectionID string) (*Run, error)
	ListByConnectionID(ctx context.Context, connectionID string, limit int) ([]*Run, error)
	// UpdateStats replaces the run's stats blob.
	UpdateStats(ctx context.Context, runID string, stats Stats) error
	// Complete marks the run's terminal status and error/status text.
	Complete(ctx context.Context, runID string, status string, errText string, statusText string) error
}
