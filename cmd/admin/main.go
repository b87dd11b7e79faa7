package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"ledgerlink/internal/domain/connection"
	"ledgerlink/internal/domain/sync"
	"ledgerlink/internal/infrastructure/bridge"
	"ledgerlink/internal/infrastructure/crypto"
	"ledgerlink/internal/infrastructure/postgres"
	"ledgerlink/internal/shared/config"
)

const usage = `LedgerLink Admin CLI - Management commands for the LedgerLink API

Usage:
  admin <command> [options]

Commands:
  sync     Run the sync pipeline for one or all connections
  status   Print the health report for a connection
  destroy  Schedule a connection for deletion

Examples:
  # Sync a specific connection
  admin sync --connection-id=abc123

  # Sync all active connections
  admin sync --all

  # Sync with a timeout
  admin sync --all --timeout=30m

  # Print the health report for a connection
  admin status --connection-id=abc123

  # Schedule a connection for deletion
  admin destroy --connection-id=abc123
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "sync":
		runSync(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "destroy":
		runDestroy(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

// env holds the shared wiring every admin command needs.
type env struct {
	db           *postgres.DB
	connections  *postgres.ConnectionRepository
	service      *connection.Service
	orchestrator *sync.Orchestrator
}

// inlineQueue runs per-account work synchronously. The CLI has no worker
// pool; fan-out degrades to in-order execution.
type inlineQueue struct {
	syncer sync.AccountSyncer
	ctx    context.Context
}

func (q *inlineQueue) EnqueueAccountSync(req sync.AccountSyncRequest) error {
	return q.syncer.SyncAccount(q.ctx, req)
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Connected to database")

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		db.Close()
		return nil, err
	}

	connectionRepo := postgres.NewConnectionRepository(db)
	linkedRepo := postgres.NewLinkedAccountRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	entryRepo := postgres.NewEntryRepository(db)
	runRepo := postgres.NewSyncRunRepository(db)

	importer := connection.NewImporter(connectionRepo, linkedRepo, runRepo)
	processor := connection.NewProcessor(accountRepo)
	service := connection.NewService(connectionRepo, linkedRepo, accountRepo, entryRepo, runRepo, connection.ServiceConfig{
		Thresholds: connection.Thresholds{
			ConnectionStaleDays:  cfg.Health.ConnectionStaleDays,
			TransactionStaleDays: cfg.Health.TransactionStaleDays,
			PendingStaleDays:     cfg.Health.PendingStaleDays,
		},
	})

	accountSync := sync.NewAccountSyncService(accountRepo, entryRepo, nil)
	orchestrator := sync.NewOrchestrator(
		bridge.NewClient(cfg.Bridge.Timeout),
		encryptor,
		connectionRepo,
		linkedRepo,
		importer,
		processor,
		runRepo,
		&inlineQueue{syncer: accountSync, ctx: ctx},
		sync.NewCompleteEvent(),
	)

	return &env{
		db:           db,
		connections:  connectionRepo,
		service:      service,
		orchestrator: orchestrator,
	}, nil
}

func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	connectionID := fs.String("connection-id", "", "Connection ID(s) to sync (comma-separated for multiple)")
	all := fs.Bool("all", false, "Sync all active connections")
	timeoutStr := fs.String("timeout", "30m", "Timeout for the operation (e.g., 5m, 1h)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *connectionID == "" && !*all {
		fmt.Println("Error: must specify --connection-id or --all")
		fs.Usage()
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	e, err := setup(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer e.db.Close()

	var ids []string
	if *all {
		conns, err := e.connections.ListActive(ctx)
		if err != nil {
			log.Fatalf("Failed to list active connections: %v", err)
		}
		for _, conn := range conns {
			ids = append(ids, conn.ID)
		}
		log.Printf("Syncing %d active connections", len(ids))
	} else {
		ids = strings.Split(*connectionID, ",")
	}

	failures := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		run, err := e.orchestrator.Sync(ctx, id, sync.Options{})
		if err != nil {
			log.Printf("Sync failed for connection %s: %v", id, err)
			failures++
			continue
		}
		log.Printf("Sync completed for connection %s (run %s, status %s)", id, run.ID, run.Status)
	}

	if failures > 0 {
		log.Fatalf("%d of %d syncs failed", failures, len(ids))
	}
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	connectionID := fs.String("connection-id", "", "Connection ID to report on")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *connectionID == "" {
		fmt.Println("Error: must specify --connection-id")
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	e, err := setup(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer e.db.Close()

	conn, err := e.service.GetConnection(ctx, *connectionID)
	if err != nil {
		log.Fatalf("Failed to load connection: %v", err)
	}

	stale := e.service.StaleSyncStatus(ctx, conn)
	reconciled := e.service.LastSyncReconciledStatus(ctx, conn)
	stalePending := e.service.StalePending(ctx, conn, 0)

	fmt.Printf("Connection:     %s (%s)\n", conn.InstitutionDisplayName(), conn.ID)
	fmt.Printf("Status:         %s\n", conn.Status)
	fmt.Printf("Institutions:   %s\n", e.service.InstitutionSummary(ctx, conn))
	fmt.Printf("Accounts:       %s\n", e.service.SyncStatusSummary(ctx, conn))
	if conn.LastSyncedAt != nil {
		fmt.Printf("Last synced:    %s\n", conn.LastSyncedAt.Format(time.RFC3339))
	} else {
		fmt.Printf("Last synced:    never\n")
	}
	fmt.Printf("Needs attention: %v\n", e.service.NeedsAttention(ctx, conn))
	for _, issue := range e.service.AttentionSummary(ctx, conn) {
		fmt.Printf("  - %s\n", issue)
	}
	if stale.Stale {
		fmt.Printf("Stale (%s):     %s\n", stale.Reason, stale.Message)
	}
	if msg := e.service.RateLimitedMessage(ctx, conn); msg != "" {
		fmt.Printf("Rate limited:   %s\n", msg)
	}
	if reconciled.Count > 0 {
		fmt.Printf("Reconciled:     %s\n", reconciled.Message)
	}
	if stalePending.Count > 0 {
		fmt.Printf("Stale pending:  %s (%s)\n", stalePending.Message, strings.Join(stalePending.Accounts, ", "))
	}
}

func runDestroy(args []string) {
	fs := flag.NewFlagSet("destroy", flag.ExitOnError)

	connectionID := fs.String("connection-id", "", "Connection ID to schedule for deletion")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *connectionID == "" {
		fmt.Println("Error: must specify --connection-id")
		fs.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	e, err := setup(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer e.db.Close()

	if err := e.service.DestroyLater(ctx, *connectionID); err != nil {
		log.Fatalf("Failed to schedule deletion: %v", err)
	}
	fmt.Printf("Connection %s scheduled for deletion\n", *connectionID)
}
