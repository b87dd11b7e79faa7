package scheduler

import "context"

// Job represents a unit of work that can be executed by the worker pool.
// This interface allows for extensibility - different types of jobs can be
// implemented (e.g., connection syncs, per-account syncs, cleanup jobs).
type Job interface {
	// Execute runs the job with the given context.
	// Context should be respected for cancellation and timeouts.
	Execute(ctx context.Context) error

	// Ref returns an identifier for the entity this job operates on.
	// This is useful for logging and tracking which connection or account
	// is being processed.
	Ref() string

	// Description returns a human-readable description of the job.
	// Used for logging purposes.
	Description() string
}
