package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
	"github.com/pwabucket/pwa-ai-earn/internal/tracker"
)

type accountRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// HandleListAccounts returns every account without transactions.
func (d *Dependencies) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := d.Database.ListAccounts(r.Context())
	if err != nil {
		d.writeStoreError(w, err, "list accounts")
		return
	}
	WriteJSON(w, http.StatusOK, accounts)
}

// HandleSaveAccount creates an account, or updates it when the id already exists.
func (d *Dependencies) HandleSaveAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "Missing account name")
		return
	}
	if req.URL != "" {
		if _, err := tracker.NewClient(req.URL, tracker.Options{}); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	account := models.Account{ID: req.ID, Name: req.Name, URL: req.URL}
	if err := d.Database.SaveAccount(r.Context(), account); err != nil {
		d.writeStoreError(w, err, "save account")
		return
	}
	d.logger().Info("saved account", zap.String("account_id", account.ID))
	WriteJSON(w, http.StatusCreated, account)
}

// HandleGetAccount returns one account with its transactions.
func (d *Dependencies) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := d.account(w, r)
	if !ok {
		return
	}
	transactions, err := d.Database.GetTransactions(r.Context(), account.ID)
	if err != nil {
		d.writeStoreError(w, err, "get transactions")
		return
	}
	account.Transactions = transactions
	WriteJSON(w, http.StatusOK, account)
}

// HandleDeleteAccount removes an account and its transactions.
func (d *Dependencies) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	if err := d.Database.DeleteAccount(r.Context(), accountID); err != nil {
		d.writeStoreError(w, err, "delete account")
		return
	}
	d.logger().Info("deleted account", zap.String("account_id", accountID))
	w.WriteHeader(http.StatusNoContent)
}

// account loads the account named in the route, writing the error response when it cannot.
func (d *Dependencies) account(w http.ResponseWriter, r *http.Request) (*models.Account, bool) {
	accountID := chi.URLParam(r, "accountID")
	if accountID == "" {
		WriteError(w, http.StatusBadRequest, "Missing account id")
		return nil, false
	}
	return d.loadAccount(w, r, accountID)
}

func (d *Dependencies) loadAccount(w http.ResponseWriter, r *http.Request, accountID string) (*models.Account, bool) {
	account, err := d.Database.GetAccount(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Account not found")
			return nil, false
		}
		d.writeStoreError(w, err, "get account")
		return nil, false
	}
	return account, true
}
