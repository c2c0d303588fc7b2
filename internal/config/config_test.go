package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TABLE_SERVICE_URL", "https://acct.table.core.windows.net")
	t.Setenv("BLOB_SERVICE_URL", "https://acct.blob.core.windows.net")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "azure", cfg.StoreProvider)
	assert.Equal(t, "transactions", cfg.TransactionsTable)
	assert.Equal(t, 50, cfg.TrackerPageSize)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_PROVIDER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/earn.db")
	t.Setenv("BACKUP_PROVIDER", "local")
	t.Setenv("TRACKER_PAGE_SIZE", "10")
	t.Setenv("HTTP_TIMEOUT", "2s")
	t.Setenv("MAX_RETRIES", "not-a-number")
	t.Setenv("TIMEZONE", "Africa/Lagos")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.StoreProvider)
	assert.Equal(t, "/tmp/earn.db", cfg.SQLitePath)
	assert.Equal(t, 10, cfg.TrackerPageSize)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "Africa/Lagos", cfg.Location.String())
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("STORE_PROVIDER", "mongo")
	_, err := Load()
	assert.ErrorContains(t, err, "unknown STORE_PROVIDER")

	t.Setenv("STORE_PROVIDER", "sqlite")
	t.Setenv("BACKUP_PROVIDER", "gcs")
	t.Setenv("GCS_BUCKET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "GCS_BUCKET")

	t.Setenv("BACKUP_PROVIDER", "local")
	t.Setenv("TIMEZONE", "Nowhere/Special")
	_, err = Load()
	assert.ErrorContains(t, err, "TIMEZONE")
}
