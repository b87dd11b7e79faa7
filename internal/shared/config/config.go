package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Bridge     BridgeConfig
	Encryption EncryptionConfig
	Scheduler  SchedulerConfig
	Health     HealthConfig
	Firebase   FirebaseConfig
	Telemetry  TelemetryConfig
	AI         AIConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type BridgeConfig struct {
	Timeout time.Duration
	// WindowStartDate bounds the oldest transactions requested on a sync.
	WindowStartDate string
}

type EncryptionConfig struct {
	Key string
}

type SchedulerConfig struct {
	Enabled       bool
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	QueueSize     int
	RunOnStartup  bool
}

// HealthConfig carries the staleness thresholds, in days. The three values
// are independent; none is derived from another.
type HealthConfig struct {
	ConnectionStaleDays  int
	TransactionStaleDays int
	PendingStaleDays     int
}

type FirebaseConfig struct {
	CredentialsFile string
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
}

type AIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

func Load() (*Config, error) {

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	bridgeTimeout, err := time.ParseDuration(getEnv("BRIDGE_TIMEOUT", "120s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BRIDGE_TIMEOUT: %w", err)
	}

	// Parse scheduler configuration
	schedulerEnabled := getBoolEnv("SCHEDULER_ENABLED", true)
	schedulerTimes := strings.Split(getEnv("SCHEDULER_TIMES", "05:00,10:00,14:00,20:00"), ",")
	schedulerWorkers, err := strconv.Atoi(getEnv("SCHEDULER_WORKERS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_WORKERS: %w", err)
	}
	schedulerJobDelay, err := time.ParseDuration(getEnv("SCHEDULER_JOB_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_JOB_DELAY: %w", err)
	}
	schedulerQueueSize, err := strconv.Atoi(getEnv("SCHEDULER_QUEUE_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_QUEUE_SIZE: %w", err)
	}
	schedulerRunOnStartup := getBoolEnv("SCHEDULER_RUN_ON_STARTUP", false)

	// Parse health thresholds
	connectionStaleDays, err := strconv.Atoi(getEnv("HEALTH_CONNECTION_STALE_DAYS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEALTH_CONNECTION_STALE_DAYS: %w", err)
	}
	transactionStaleDays, err := strconv.Atoi(getEnv("HEALTH_TRANSACTION_STALE_DAYS", "14"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEALTH_TRANSACTION_STALE_DAYS: %w", err)
	}
	pendingStaleDays, err := strconv.Atoi(getEnv("HEALTH_PENDING_STALE_DAYS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid HEALTH_PENDING_STALE_DAYS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "ledgerlink"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "ledgerlink"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Bridge: BridgeConfig{
			Timeout:         bridgeTimeout,
			WindowStartDate: getEnv("BRIDGE_WINDOW_START_DATE", ""),
		},
		Encryption: EncryptionConfig{
			Key: getEnv("ENCRYPTION_KEY", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled:       schedulerEnabled,
			ScheduleTimes: schedulerTimes,
			WorkerCount:   schedulerWorkers,
			JobDelay:      schedulerJobDelay,
			QueueSize:     schedulerQueueSize,
			RunOnStartup:  schedulerRunOnStartup,
		},
		Health: HealthConfig{
			ConnectionStaleDays:  connectionStaleDays,
			TransactionStaleDays: transactionStaleDays,
			PendingStaleDays:     pendingStaleDays,
		},
		Firebase: FirebaseConfig{
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "ledgerlink-api"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4318"),
		},
		AI: AIConfig{
			BaseURL: getEnv("AI_BASE_URL", ""),
			APIKey:  getEnv("AI_API_KEY", ""),
			Model:   getEnv("AI_MODEL", ""),
		},
	}

	// Validate required fields
	if cfg.Encryption.Key == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if len(cfg.Encryption.Key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	if cfg.Health.ConnectionStaleDays <= 0 || cfg.Health.TransactionStaleDays <= 0 || cfg.Health.PendingStaleDays <= 0 {
		return nil, fmt.Errorf("health thresholds must be positive")
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
