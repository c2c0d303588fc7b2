package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
	"github.com/pwabucket/pwa-ai-earn/internal/observability"
	"github.com/pwabucket/pwa-ai-earn/internal/portfolio"
)

// 2024-01-05 at noon UTC.
var testNow = time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	deps    *Dependencies
	db      *MockDatabaseClient
	blob    *MockBlobClient
	queue   *MockQueueClient
	email   *MockEmailClient
	source  *MockTransactionSource
	metrics *observability.Metrics
	router  http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		db:      &MockDatabaseClient{},
		blob:    &MockBlobClient{},
		queue:   &MockQueueClient{},
		email:   &MockEmailClient{},
		source:  &MockTransactionSource{},
		metrics: observability.NewMetrics(),
	}
	e.deps = &Dependencies{
		Database:   e.db,
		Blob:       e.blob,
		Queue:      e.queue,
		Email:      e.email,
		Source:     e.source,
		Calculator: portfolio.NewCalculator(time.Minute, e.metrics),
		Metrics:    e.metrics,
		Location:   time.UTC,
		Now:        func() time.Time { return testNow },
		Settings: Settings{
			UploadsContainer: "uploads",
			BackupContainer:  "backups",
			JobsQueue:        "jobs",
			UserEmail:        "me@example.com",
			Version:          "test",
		},
	}
	e.router = NewRouter(e.deps)
	return e
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func txn(id, day, amount string, txType models.TransactionType) models.Transaction {
	return models.Transaction{
		ID:     id,
		Date:   date(day),
		Amount: decimal.RequireFromString(amount),
		Type:   txType,
	}
}
