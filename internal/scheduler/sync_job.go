package scheduler

import (
	"context"
	"fmt"
	"log"

	"ledgerlink/internal/domain/sync"
)

// ConnectionSyncJob implements the Job interface for syncing one connection.
type ConnectionSyncJob struct {
	connectionID string
	orchestrator *sync.Orchestrator
	opts         sync.Options
}

// NewConnectionSyncJob creates a new sync job for a connection
func NewConnectionSyncJob(connectionID string, orchestrator *sync.Orchestrator, opts sync.Options) *ConnectionSyncJob {
	return &ConnectionSyncJob{
		connectionID: connectionID,
		orchestrator: orchestrator,
		opts:         opts,
	}
}

// Execute runs the connection sync job
func (j *ConnectionSyncJob) Execute(ctx context.Context) error {
	log.Printf("Starting sync for connection %s", j.connectionID)

	run, err := j.orchestrator.Sync(ctx, j.connectionID, j.opts)
	if err != nil {
		log.Printf("Sync failed for connection %s: %v", j.connectionID, err)
		return fmt.Errorf("sync failed: %w", err)
	}

	log.Printf("Sync completed for connection %s (run %s, status %s)", j.connectionID, run.ID, run.Status)
	return nil
}

// Ref returns the connection ID associated with this job
func (j *ConnectionSyncJob) Ref() string {
	return j.connectionID
}

// Description returns a human-readable description of the job
func (j *ConnectionSyncJob) Description() string {
	return fmt.Sprintf("Sync for connection %s", j.connectionID)
}

// AccountSyncJob implements the Job interface for the per-account work a
// connection sync fans out.
type AccountSyncJob struct {
	req    sync.AccountSyncRequest
	syncer sync.AccountSyncer
}

// NewAccountSyncJob creates a new per-account sync job
func NewAccountSyncJob(req sync.AccountSyncRequest, syncer sync.AccountSyncer) *AccountSyncJob {
	return &AccountSyncJob{req: req, syncer: syncer}
}

// Execute runs the account sync job
func (j *AccountSyncJob) Execute(ctx context.Context) error {
	log.Printf("Starting account sync for account %s (parent run %s)", j.req.AccountID, j.req.ParentRunID)

	if err := j.syncer.SyncAccount(ctx, j.req); err != nil {
		log.Printf("Account sync failed for account %s: %v", j.req.AccountID, err)
		return fmt.Errorf("account sync failed: %w", err)
	}

	log.Printf("Account sync completed for account %s", j.req.AccountID)
	return nil
}

// Ref returns the account ID associated with this job
func (j *AccountSyncJob) Ref() string {
	return j.req.AccountID
}

// Description returns a human-readable description of the job
func (j *AccountSyncJob) Description() string {
	return fmt.Sprintf("Account sync for account %s", j.req.AccountID)
}

// Queue adapts the worker pool to the orchestrator's job queue. The
// orchestrator hands over per-account requests without knowing about
// workers or channels.
type Queue struct {
	pool   *WorkerPool
	syncer sync.AccountSyncer
}

// NewQueue creates a job queue backed by the worker pool
func NewQueue(pool *WorkerPool, syncer sync.AccountSyncer) *Queue {
	return &Queue{pool: pool, syncer: syncer}
}

var _ sync.JobQueue = (*Queue)(nil)

// EnqueueAccountSync submits a per-account sync request to the worker pool.
func (q *Queue) EnqueueAccountSync(req sync.AccountSyncRequest) error {
	return q.pool.Submit(NewAccountSyncJob(req, q.syncer))
}
