package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ledgerlink/internal/domain/connection"
	"ledgerlink/internal/domain/notification"
	"ledgerlink/internal/domain/sync"
	"ledgerlink/internal/infrastructure/bridge"
	"ledgerlink/internal/infrastructure/crypto"
	"ledgerlink/internal/infrastructure/firebase"
	"ledgerlink/internal/infrastructure/postgres"
	httphandlers "ledgerlink/internal/interfaces/http"
	"ledgerlink/internal/provider/ai"
	"ledgerlink/internal/scheduler"
	"ledgerlink/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Handlers
	ConnectionHandler   *httphandlers.ConnectionHandler
	NotificationHandler *httphandlers.NotificationHandler

	// Sync pipeline
	Orchestrator *sync.Orchestrator
	Scheduler    *scheduler.Scheduler

	// Repositories (for the scheduler job provider)
	ConnectionRepo connection.Repository

	syncOptions sync.Options
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize encryptor for stored access credentials
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	connectionRepo := postgres.NewConnectionRepository(db)
	linkedRepo := postgres.NewLinkedAccountRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	entryRepo := postgres.NewEntryRepository(db)
	runRepo := postgres.NewSyncRunRepository(db)
	deviceTokenRepo := postgres.NewDeviceTokenRepository(db)

	// Initialize domain services
	importer := connection.NewImporter(connectionRepo, linkedRepo, runRepo)
	processor := connection.NewProcessor(accountRepo)
	connectionService := connection.NewService(connectionRepo, linkedRepo, accountRepo, entryRepo, runRepo, connection.ServiceConfig{
		Thresholds: connection.Thresholds{
			ConnectionStaleDays:  cfg.Health.ConnectionStaleDays,
			TransactionStaleDays: cfg.Health.TransactionStaleDays,
			PendingStaleDays:     cfg.Health.PendingStaleDays,
		},
	})

	// Optional AI provider for entry categorization
	var aiClient ai.ClientInterface
	if cfg.AI.APIKey != "" {
		aiClient = ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, 0)
		log.Println("AI categorization enabled")
	}
	accountSyncService := sync.NewAccountSyncService(accountRepo, entryRepo, aiClient)

	// Completion event listeners
	complete := sync.NewCompleteEvent()
	if cfg.Firebase.CredentialsFile != "" {
		fcmClient, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile, deviceTokenRepo.DeactivateToken)
		if err != nil {
			log.Printf("Warning: Failed to initialize Firebase client: %v", err)
		} else {
			notificationService := notification.NewService(deviceTokenRepo, fcmClient)
			complete.Register(sync.ListenerFunc{
				ListenerName: "push-notifications",
				Fn:           notificationService.SyncCompleted,
			})
			deps.NotificationHandler = httphandlers.NewNotificationHandler(notificationService)
			log.Println("Push notifications enabled")
		}
	}

	// Scheduler and worker pool; the job provider closes over deps so the
	// orchestrator can be wired after the pool exists.
	sched, err := scheduler.New(scheduler.Config{
		ScheduleTimes: cfg.Scheduler.ScheduleTimes,
		WorkerCount:   cfg.Scheduler.WorkerCount,
		JobDelay:      cfg.Scheduler.JobDelay,
		QueueSize:     cfg.Scheduler.QueueSize,
		RunOnStartup:  cfg.Scheduler.RunOnStartup,
		JobProvider:   deps.connectionSyncJobs,
	})
	if err != nil {
		return nil, err
	}

	queue := scheduler.NewQueue(sched.WorkerPool(), accountSyncService)

	bridgeClient := bridge.NewClient(cfg.Bridge.Timeout)
	orchestrator := sync.NewOrchestrator(
		bridgeClient,
		encryptor,
		connectionRepo,
		linkedRepo,
		importer,
		processor,
		runRepo,
		queue,
		complete,
	)

	syncOptions, err := syncOptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	deps.DB = db
	deps.ConnectionRepo = connectionRepo
	deps.Orchestrator = orchestrator
	deps.Scheduler = sched
	deps.syncOptions = syncOptions
	deps.ConnectionHandler = httphandlers.NewConnectionHandler(connectionService, orchestrator, deps)

	return deps, nil
}

// SubmitConnectionSync queues a full pipeline run for one connection.
func (d *Dependencies) SubmitConnectionSync(connectionID string) error {
	job := scheduler.NewConnectionSyncJob(connectionID, d.Orchestrator, d.syncOptions)
	return d.Scheduler.WorkerPool().Submit(job)
}

// connectionSyncJobs builds the scheduled batch: one pipeline job per
// active connection.
func (d *Dependencies) connectionSyncJobs(ctx context.Context) ([]scheduler.Job, error) {
	conns, err := d.ConnectionRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active connections: %w", err)
	}

	jobs := make([]scheduler.Job, 0, len(conns))
	for _, conn := range conns {
		jobs = append(jobs, scheduler.NewConnectionSyncJob(conn.ID, d.Orchestrator, d.syncOptions))
	}
	return jobs, nil
}

func syncOptionsFromConfig(cfg *config.Config) (sync.Options, error) {
	var opts sync.Options
	if cfg.Bridge.WindowStartDate != "" {
		start, err := time.Parse("2006-01-02", cfg.Bridge.WindowStartDate)
		if err != nil {
			return opts, fmt.Errorf("invalid BRIDGE_WINDOW_START_DATE: %w", err)
		}
		opts.WindowStartDate = &start
	}
	return opts, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
