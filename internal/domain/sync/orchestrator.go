package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ledgerlink/internal/domain/connection"
	"ledgerlink/internal/domain/syncrun"
	"ledgerlink/internal/infrastructure/bridge"
)

// AccountSyncRequest is the unit of per-account work handed to the
// account-sync subsystem. ParentRunID correlates the child work with the run
// that scheduled it; child tasks never block the parent run's completion.
type AccountSyncRequest struct {
	AccountID       string
	ParentRunID     string
	WindowStartDate *time.Time
	WindowEndDate   *time.Time
}

// JobQueue schedules asynchronous per-account sync work. Implemented by the
// scheduler's worker pool adapter.
type JobQueue interface {
	EnqueueAccountSync(req AccountSyncRequest) error
}

// AccountSyncer is the account-sync subsystem that executes one scheduled
// per-account request.
type AccountSyncer interface {
	SyncAccount(ctx context.Context, req AccountSyncRequest) error
}

// SecretOpener decrypts a stored access credential.
type SecretOpener interface {
	Decrypt(ciphertext string) (string, error)
}

// Options bound the transaction window for a sync.
type Options struct {
	WindowStartDate *time.Time
	WindowEndDate   *time.Time
}

// Orchestrator sequences one connection's sync pipeline: import the
// snapshot, normalize each linked account, fan out per-account async work,
// and fire the completion event. The pipeline steps are strictly sequential
// for one connection; pipelines for different connections run independently.
type Orchestrator struct {
	client      bridge.ClientInterface
	secrets     SecretOpener
	connections connection.Repository
	linked      connection.LinkedAccountRepository
	importer    *connection.Importer
	processor   *connection.Processor
	runs        syncrun.Repository
	queue       JobQueue
	complete    *CompleteEvent
	now         func() time.Time
}

// NewOrchestrator creates a new sync orchestrator
func NewOrchestrator(
	client bridge.ClientInterface,
	secrets SecretOpener,
	connections connection.Repository,
	linked connection.LinkedAccountRepository,
	importer *connection.Importer,
	processor *connection.Processor,
	runs syncrun.Repository,
	queue JobQueue,
	complete *CompleteEvent,
) *Orchestrator {
	return &Orchestrator{
		client:      client,
		secrets:     secrets,
		connections: connections,
		linked:      linked,
		importer:    importer,
		processor:   processor,
		runs:        runs,
		queue:       queue,
		complete:    complete,
		now:         time.Now,
	}
}

// Sync fetches the latest snapshot from the bridge and runs the full
// pipeline for one connection. Bridge errors are recorded on the run so the
// health classifier can surface them (rate limits in particular).
func (o *Orchestrator) Sync(ctx context.Context, connectionID string, opts Options) (*syncrun.Run, error) {
	conn, err := o.connections.GetByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load connection %s: %w", connectionID, err)
	}

	run, err := o.createRun(ctx, conn)
	if err != nil {
		return nil, err
	}

	accessURL, err := o.secrets.Decrypt(conn.AccessURL)
	if err != nil {
		o.failRun(ctx, run, fmt.Sprintf("failed to open access credential: %v", err))
		return run, fmt.Errorf("failed to decrypt access URL for connection %s: %w", conn.ID, err)
	}

	snapshot, err := o.client.GetSnapshot(ctx, accessURL, opts.WindowStartDate, opts.WindowEndDate)
	if err != nil {
		// The error text is kept on the run; rate-limit detection reads it.
		o.failRun(ctx, run, err.Error())
		return run, fmt.Errorf("failed to fetch snapshot for connection %s: %w", conn.ID, err)
	}

	if err := o.runPipeline(ctx, conn, run, snapshot, opts); err != nil {
		return run, err
	}
	return run, nil
}

// SyncSnapshot runs the pipeline against a snapshot the caller already
// holds. Passing a nil snapshot is a caller error, not a retriable
// condition.
func (o *Orchestrator) SyncSnapshot(ctx context.Context, conn *connection.Connection, snapshot *bridge.Snapshot, opts Options) (*syncrun.Run, error) {
	if snapshot == nil {
		return nil, connection.ErrNoSnapshot
	}

	run, err := o.createRun(ctx, conn)
	if err != nil {
		return nil, err
	}

	if err := o.runPipeline(ctx, conn, run, snapshot, opts); err != nil {
		return run, err
	}
	return run, nil
}

func (o *Orchestrator) createRun(ctx context.Context, conn *connection.Connection) (*syncrun.Run, error) {
	run := &syncrun.Run{
		ID:           uuid.NewString(),
		ConnectionID: conn.ID,
		Status:       syncrun.StatusRunning,
		CreatedAt:    o.now(),
	}
	if err := o.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create sync run for connection %s: %w", conn.ID, err)
	}
	return run, nil
}

func (o *Orchestrator) failRun(ctx context.Context, run *syncrun.Run, errText string) {
	if err := o.runs.Complete(ctx, run.ID, syncrun.StatusFailed, errText, ""); err != nil {
		log.Printf("Warning: failed to mark run %s as failed: %v", run.ID, err)
	}
	run.Status = syncrun.StatusFailed
	run.Error = errText
}

// runPipeline executes the sequential steps of one sync. Step order
// matters: per-account processing needs the import's persisted data, and
// scheduling needs the processed accounts.
func (o *Orchestrator) runPipeline(ctx context.Context, conn *connection.Connection, run *syncrun.Run, snapshot *bridge.Snapshot, opts Options) error {
	// Step 1: import, with the aggregate institution assigned in the same write.
	if org := snapshot.PrimaryOrg(); org != nil {
		o.importer.ApplyInstitutionData(conn, org)
	}
	if err := o.importer.ImportSnapshot(ctx, conn, snapshot, run); err != nil {
		o.failRun(ctx, run, err.Error())
		return fmt.Errorf("import failed for connection %s: %w", conn.ID, err)
	}

	// Step 2: per-account normalization.
	linked, err := o.linked.ListByConnectionID(ctx, conn.ID)
	if err != nil {
		o.failRun(ctx, run, err.Error())
		return fmt.Errorf("failed to list linked accounts for connection %s: %w", conn.ID, err)
	}
	for _, la := range linked {
		if err := o.processor.Process(ctx, la); err != nil {
			// One account's failure does not stop the others.
			log.Printf("Warning: processing linked account %s failed: %v", la.ID, err)
		}
	}

	// Step 3: fan out per-account async syncs, unless the connection was
	// scheduled for deletion since the pipeline started.
	if o.scheduledForDeletion(ctx, conn) {
		log.Printf("Connection %s is scheduled for deletion, skipping account sync scheduling", conn.ID)
	} else {
		o.scheduleAccountSyncs(linked, run, opts)
	}

	// Step 4: complete the run and notify collaborators.
	syncedAt := o.now()
	conn.LastSyncedAt = &syncedAt
	if err := o.connections.Update(ctx, conn); err != nil {
		o.failRun(ctx, run, err.Error())
		return fmt.Errorf("failed to record sync completion for connection %s: %w", conn.ID, err)
	}
	if err := o.runs.Complete(ctx, run.ID, syncrun.StatusCompleted, "", ""); err != nil {
		log.Printf("Warning: failed to mark run %s as completed: %v", run.ID, err)
	}
	run.Status = syncrun.StatusCompleted
	run.CompletedAt = &syncedAt

	o.complete.Broadcast(ctx, conn)

	return nil
}

// scheduledForDeletion re-reads the deletion flag so a deletion requested
// mid-pipeline still suppresses scheduling.
func (o *Orchestrator) scheduledForDeletion(ctx context.Context, conn *connection.Connection) bool {
	fresh, err := o.connections.GetByID(ctx, conn.ID)
	if err != nil {
		log.Printf("Warning: failed to re-check deletion flag for connection %s: %v", conn.ID, err)
		return conn.ScheduledForDeletion
	}
	return fresh.ScheduledForDeletion
}

func (o *Orchestrator) scheduleAccountSyncs(linked []*connection.LinkedAccount, run *syncrun.Run, opts Options) {
	seen := make(map[string]struct{})
	for _, la := range linked {
		accountID, ok := la.CurrentAccountID()
		if !ok {
			continue
		}
		if _, dup := seen[accountID]; dup {
			continue
		}
		seen[accountID] = struct{}{}

		req := AccountSyncRequest{
			AccountID:       accountID,
			ParentRunID:     run.ID,
			WindowStartDate: opts.WindowStartDate,
			WindowEndDate:   opts.WindowEndDate,
		}
		if err := o.queue.EnqueueAccountSync(req); err != nil {
			// Fire-and-forget: a full queue is logged, not fatal.
			log.Printf("Warning: failed to enqueue account sync for account %s (run %s): %v", accountID, run.ID, err)
		}
	}
}
