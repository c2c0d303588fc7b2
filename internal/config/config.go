package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration, read from the environment.
type Config struct {
	// Server
	Port     string
	LogLevel string
	Version  string
	Location *time.Location

	// Transaction store: "azure" or "sqlite"
	StoreProvider     string
	TableServiceURL   string
	AccountsTable     string
	TransactionsTable string
	SQLitePath        string

	// Backups: "azure", "gcs" or "local"
	BackupProvider   string
	BlobServiceURL   string
	BackupContainer  string
	UploadsContainer string
	GCSBucket        string
	BackupDir        string

	// Jobs
	QueueServiceURL string
	JobsQueue       string

	// Email
	CommunicationEndpoint string
	SenderEmail           string
	UserEmail             string

	// Tracker
	TrackerProxyURL string
	TrackerPageSize int
	HTTPTimeout     time.Duration
	MaxRetries      int
	InitialBackoff  time.Duration
	MaxConcurrency  int
	CacheTTL        time.Duration

	// Observability
	OTLPEndpoint string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg := &Config{
		Port:     getEnv("FUNCTIONS_CUSTOMHANDLER_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Version:  getEnv("APP_VERSION", "dev"),
		Location: loc,

		StoreProvider:     getEnv("STORE_PROVIDER", "azure"),
		TableServiceURL:   getEnv("TABLE_SERVICE_URL", ""),
		AccountsTable:     getEnv("ACCOUNTS_TABLE", "accounts"),
		TransactionsTable: getEnv("TRANSACTIONS_TABLE", "transactions"),
		SQLitePath:        getEnv("SQLITE_PATH", "./earn.db"),

		BackupProvider:   getEnv("BACKUP_PROVIDER", "azure"),
		BlobServiceURL:   getEnv("BLOB_SERVICE_URL", ""),
		BackupContainer:  getEnv("BACKUP_CONTAINER", "backups"),
		UploadsContainer: getEnv("UPLOADS_CONTAINER", "uploads"),
		GCSBucket:        getEnv("GCS_BUCKET", ""),
		BackupDir:        getEnv("BACKUP_DIR", "./backups"),

		QueueServiceURL: getEnv("QUEUE_SERVICE_URL", ""),
		JobsQueue:       getEnv("JOBS_QUEUE", "jobs"),

		CommunicationEndpoint: getEnv("COMMUNICATION_SERVICES_ENDPOINT", ""),
		SenderEmail:           getEnv("SENDER_EMAIL", ""),
		UserEmail:             getEnv("USER_EMAIL", ""),

		TrackerProxyURL: getEnv("TRACKER_PROXY_URL", ""),
		TrackerPageSize: getEnvInt("TRACKER_PAGE_SIZE", 50),
		HTTPTimeout:     getEnvDuration("HTTP_TIMEOUT", 15*time.Second),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		InitialBackoff:  getEnvDuration("INITIAL_BACKOFF", 200*time.Millisecond),
		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 4),
		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected providers have what they need.
func (c *Config) Validate() error {
	switch c.StoreProvider {
	case "azure":
		if c.TableServiceURL == "" {
			return fmt.Errorf("TABLE_SERVICE_URL is required when STORE_PROVIDER is azure")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_PROVIDER is sqlite")
		}
	default:
		return fmt.Errorf("unknown STORE_PROVIDER %q", c.StoreProvider)
	}

	switch c.BackupProvider {
	case "azure":
		if c.BlobServiceURL == "" {
			return fmt.Errorf("BLOB_SERVICE_URL is required when BACKUP_PROVIDER is azure")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when BACKUP_PROVIDER is gcs")
		}
	case "local":
	default:
		return fmt.Errorf("unknown BACKUP_PROVIDER %q", c.BackupProvider)
	}

	if c.TrackerPageSize <= 0 {
		return fmt.Errorf("TRACKER_PAGE_SIZE must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
