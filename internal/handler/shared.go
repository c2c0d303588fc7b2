package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
	"github.com/pwabucket/pwa-ai-earn/internal/observability"
)

// Settings carries the names of the storage resources handlers write to.
type Settings struct {
	UploadsContainer string
	BackupContainer  string
	JobsQueue        string
	UserEmail        string
	Version          string
}

// Dependencies holds the services required by the handlers.
// Queue and Email are optional: without a queue jobs run inline, without email notifications are skipped.
type Dependencies struct {
	Database   DatabaseClient
	Blob       BlobClient
	Queue      QueueClient
	Email      EmailClient
	Source     TransactionSource
	Calculator Calculator
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Location   *time.Location
	Now        func() time.Time
	Settings   Settings
}

func (d *Dependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// today is the current calendar day in the configured location.
func (d *Dependencies) today() civil.Date {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return civil.DateOf(now().In(loc))
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zap.L().Error("failed to encode JSON response", zap.Error(err))
		}
	}
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps store errors to 404 or 500.
func (d *Dependencies) writeStoreError(w http.ResponseWriter, err error, action string) {
	if errors.Is(err, models.ErrNotFound) {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	d.logger().Error("store operation failed", zap.String("action", action), zap.Error(err))
	WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s", action))
}

// dateParam parses an optional YYYY-MM-DD query parameter, falling back to today.
func (d *Dependencies) dateParam(r *http.Request, name string) (civil.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return d.today(), nil
	}
	date, err := civil.ParseDate(v)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", name, v)
	}
	return date, nil
}

// decodeJSON reads a JSON request body of at most 1MB.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}
