package handler

import (
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

type transactionRequest struct {
	ID     string                 `json:"id"`
	Date   civil.Date             `json:"date"`
	Amount decimal.Decimal        `json:"amount"`
	Type   models.TransactionType `json:"type"`
}

type pinRequest struct {
	Pinned bool `json:"pinned"`
}

// HandleListTransactions returns the account's stored transactions.
func (d *Dependencies) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	account, ok := d.account(w, r)
	if !ok {
		return
	}
	transactions, err := d.Database.GetTransactions(r.Context(), account.ID)
	if err != nil {
		d.writeStoreError(w, err, "get transactions")
		return
	}
	WriteJSON(w, http.StatusOK, transactions)
}

// HandleCreateTransaction stores a manually entered transaction.
func (d *Dependencies) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	account, ok := d.account(w, r)
	if !ok {
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Type == models.TypeEarnings {
		WriteError(w, http.StatusBadRequest, "Earnings lines are derived and cannot be stored")
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	t, err := models.NewTransaction(req.ID, req.Date, req.Amount, req.Type)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := d.Database.SaveTransactions(r.Context(), account.ID, []models.Transaction{t}); err != nil {
		d.writeStoreError(w, err, "save transaction")
		return
	}
	d.logger().Info("created transaction",
		zap.String("account_id", account.ID),
		zap.String("transaction_id", t.ID),
		zap.String("type", string(t.Type)),
	)
	WriteJSON(w, http.StatusCreated, t)
}

// HandleDeleteTransaction removes one transaction.
func (d *Dependencies) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	txID := chi.URLParam(r, "txID")
	if err := d.Database.DeleteTransaction(r.Context(), accountID, txID); err != nil {
		d.writeStoreError(w, err, "delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePinTransaction marks a transaction so tracker syncs keep it as is.
func (d *Dependencies) HandlePinTransaction(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	txID := chi.URLParam(r, "txID")

	var req pinRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := d.Database.SetTransactionPinned(r.Context(), accountID, txID, req.Pinned); err != nil {
		d.writeStoreError(w, err, "pin transaction")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"id": txID, "pinned": req.Pinned})
}
