package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

const trackerLink = "https://tracker.example/app#tgWebAppData=user%3D%257B%2522id%2522%253A42%257D"

func TestHandleSaveAccount_GeneratesID(t *testing.T) {
	env := newTestEnv(t)
	var saved models.Account
	env.db.SaveAccountFunc = func(ctx context.Context, account models.Account) error {
		saved = account
		return nil
	}

	w := env.do(http.MethodPost, "/api/accounts", `{"name":"  Main  ","url":"`+trackerLink+`"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, saved.ID, 36)
	assert.Equal(t, "Main", saved.Name)
	assert.Equal(t, trackerLink, saved.URL)
}

func TestHandleSaveAccount_Validation(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/accounts", `{"name":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/accounts", `{"name":"x","url":"https://tracker.example/"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/api/accounts", `not json`).Code)
}

func TestHandleGetAccount(t *testing.T) {
	env := newTestEnv(t)
	env.db.GetTransactionsFunc = func(ctx context.Context, accountID string) ([]models.Transaction, error) {
		return []models.Transaction{txn("t1", "2024-01-01", "100", models.TypeInvestment)}, nil
	}

	w := env.do(http.MethodGet, "/api/accounts/a1", "")

	require.Equal(t, http.StatusOK, w.Code)
	var got models.Account
	decodeBody(t, w, &got)
	assert.Equal(t, "a1", got.ID)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, date("2024-01-01"), got.Transactions[0].Date)
}

func TestHandleGetAccount_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.db.GetAccountFunc = func(ctx context.Context, accountID string) (*models.Account, error) {
		return nil, fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
	}

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/accounts/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/accounts/missing/portfolio", "").Code)
}

func TestHandleListAndDeleteAccounts(t *testing.T) {
	env := newTestEnv(t)
	env.db.ListAccountsFunc = func(ctx context.Context) ([]models.Account, error) {
		return []models.Account{{ID: "a1", Name: "Main"}, {ID: "a2", Name: "Side"}}, nil
	}
	var deleted string
	env.db.DeleteAccountFunc = func(ctx context.Context, accountID string) error {
		deleted = accountID
		return nil
	}

	w := env.do(http.MethodGet, "/api/accounts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got []models.Account
	decodeBody(t, w, &got)
	assert.Len(t, got, 2)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/accounts/a2", "").Code)
	assert.Equal(t, "a2", deleted)
}

func TestHandleListAccounts_StoreError(t *testing.T) {
	env := newTestEnv(t)
	env.db.ListAccountsFunc = func(ctx context.Context) ([]models.Account, error) {
		return nil, assert.AnError
	}

	assert.Equal(t, http.StatusInternalServerError, env.do(http.MethodGet, "/api/accounts", "").Code)
}
