package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwabucket/pwa-ai-earn/internal/backup"
	"github.com/pwabucket/pwa-ai-earn/internal/models"
	"github.com/pwabucket/pwa-ai-earn/internal/tracker"
)

func TestBackupAndRestore(t *testing.T) {
	env := newTestEnv(t)
	env.db.ListAccountsFunc = func(ctx context.Context) ([]models.Account, error) {
		return []models.Account{{ID: "a1", Name: "Main", URL: trackerLink}}, nil
	}
	env.db.GetTransactionsFunc = func(ctx context.Context, accountID string) ([]models.Transaction, error) {
		return []models.Transaction{
			txn("t1", "2024-01-01", "100.125", models.TypeInvestment),
			txn("t2", "2024-01-03", "5", models.TypeWithdrawal),
		}, nil
	}
	stored := map[string]string{}
	env.blob.UploadTextFunc = func(ctx context.Context, containerName, blobName, content string) error {
		assert.Equal(t, "backups", containerName)
		stored[blobName] = content
		return nil
	}
	env.blob.DownloadTextFunc = func(ctx context.Context, containerName, blobName string) (string, error) {
		content, ok := stored[blobName]
		if !ok {
			return "", fmt.Errorf("blob %s: %w", blobName, models.ErrNotFound)
		}
		return content, nil
	}

	w := env.do(http.MethodPost, "/api/backup", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]any
	decodeBody(t, w, &created)
	assert.Equal(t, backup.FileName(testNow), created["blobName"])
	assert.EqualValues(t, 1, created["accounts"])
	require.Len(t, stored, 2)
	assert.Equal(t, stored[backup.FileName(testNow)], stored[latestBackup])

	w = env.do(http.MethodGet, "/api/backup", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), latestBackup)
	assert.Equal(t, stored[latestBackup], w.Body.String())

	var saved []models.Account
	var replaced []models.Transaction
	env.db.SaveAccountFunc = func(ctx context.Context, account models.Account) error {
		saved = append(saved, account)
		return nil
	}
	env.db.ReplaceTransactionsFunc = func(ctx context.Context, accountID string, transactions []models.Transaction) error {
		assert.Equal(t, "a1", accountID)
		replaced = transactions
		return nil
	}

	// An empty body restores the latest stored backup.
	w = env.do(http.MethodPost, "/api/restore", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var restored map[string]int
	decodeBody(t, w, &restored)
	assert.Equal(t, map[string]int{"accounts": 1, "transactions": 2}, restored)

	require.Len(t, saved, 1)
	assert.Equal(t, models.Account{ID: "a1", Name: "Main", URL: trackerLink}, saved[0])
	require.Len(t, replaced, 2)
	assert.Equal(t, date("2024-01-01"), replaced[0].Date)
	assert.True(t, replaced[0].Amount.Equal(decimal.RequireFromString("100.125")))
	assert.Equal(t, models.TypeWithdrawal, replaced[1].Type)
}

func TestHandleRestore_RejectsInvalidDocument(t *testing.T) {
	env := newTestEnv(t)
	env.db.SaveAccountFunc = func(ctx context.Context, account models.Account) error {
		t.Fatal("nothing must be stored from an invalid document")
		return nil
	}

	w := env.do(http.MethodPost, "/api/restore", `{"version":"1","data":{"accounts":[{"id":"a1","transactions":[{"id":"x","date":"nope","amount":"1","type":"investment"}]}]}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDownloadBackup_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.blob.DownloadTextFunc = func(ctx context.Context, containerName, blobName string) (string, error) {
		return "", fmt.Errorf("blob %s: %w", blobName, models.ErrNotFound)
	}

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/backup?name=old.json", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/backup?name=../secret.json", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/backup?name=backup.txt", "").Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	env.metrics.IncrSync("success")
	w = env.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "earn_tracker_syncs_total")

	w = env.do(http.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleHttpTrigger_WrapsRouter(t *testing.T) {
	env := newTestEnv(t)

	payload := `{"Data":{"req":{"Url":"http://localhost/api/health","Method":"GET"}},"Metadata":{}}`
	w := env.do(http.MethodPost, "/HttpTrigger", payload)

	require.Equal(t, http.StatusOK, w.Code)
	var resp HTTPTriggerResponse
	require.NoError(t, json.NewDecoder(strings.NewReader(w.Body.String())).Decode(&resp))
	assert.Equal(t, http.StatusOK, resp.Outputs.Res.StatusCode)
	assert.Equal(t, "OK", resp.Outputs.Res.Body)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/HttpTrigger", "not json").Code)
}

func TestHandleInterests(t *testing.T) {
	env := newTestEnv(t)
	env.db.GetAccountFunc = func(ctx context.Context, accountID string) (*models.Account, error) {
		return &models.Account{ID: accountID, Name: "Main", URL: trackerLink}, nil
	}
	env.source.FetchInterestsFunc = func(ctx context.Context, rawURL string) ([]tracker.InterestRecord, error) {
		return []tracker.InterestRecord{{ID: "7", TP: "1.5", CreateTime: "2024-01-04 10:00:00", Day: 3, Period: 20}}, nil
	}

	w := env.do(http.MethodGet, "/api/accounts/a1/interests", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var records []map[string]any
	decodeBody(t, w, &records)
	require.Len(t, records, 1)
	assert.Equal(t, "1.5", records[0]["tp"])

	env.source.FetchInterestsFunc = func(ctx context.Context, rawURL string) ([]tracker.InterestRecord, error) {
		return nil, assert.AnError
	}
	assert.Equal(t, http.StatusBadGateway, env.do(http.MethodGet, "/api/accounts/a1/interests", "").Code)
}

func TestHandleHttpTrigger_RoutesByWrappedMethod(t *testing.T) {
	env := newTestEnv(t)
	env.db.ListAccountsFunc = func(ctx context.Context) ([]models.Account, error) {
		return []models.Account{{ID: "a1", Name: "Main"}}, nil
	}
	var saved []models.Account
	env.db.SaveAccountFunc = func(ctx context.Context, account models.Account) error {
		saved = append(saved, account)
		return nil
	}

	trigger := func(method, body string) HTTPTriggerResponse {
		t.Helper()
		req := map[string]any{"Data": map[string]any{"req": map[string]any{
			"Url":     "http://localhost/api/accounts",
			"Method":  method,
			"Headers": map[string][]string{"Content-Type": {"application/json"}},
			"Body":    body,
		}}}
		payload, err := json.Marshal(req)
		require.NoError(t, err)

		w := env.do(http.MethodPost, "/HttpTrigger", string(payload))
		require.Equal(t, http.StatusOK, w.Code)
		var resp HTTPTriggerResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	list := trigger(http.MethodGet, "")
	assert.Equal(t, http.StatusOK, list.Outputs.Res.StatusCode, list.Outputs.Res.Body)
	assert.Contains(t, list.Outputs.Res.Body, `"id":"a1"`)
	assert.Empty(t, saved)

	created := trigger(http.MethodPost, `{"id":"a2","name":"Second"}`)
	assert.Equal(t, http.StatusCreated, created.Outputs.Res.StatusCode, created.Outputs.Res.Body)
	require.Len(t, saved, 1)
	assert.Equal(t, "a2", saved[0].ID)
}
