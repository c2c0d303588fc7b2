package handler

import (
	"net/http"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/engine"
	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// HandleNightlyTrigger emails a summary of every account: balance ready to reinvest and positions about to finish.
func (d *Dependencies) HandleNightlyTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := d.logger()
	logger.Info("starting nightly trigger processing")

	userEmail := d.Settings.UserEmail
	if userEmail == "" || d.Email == nil {
		logger.Warn("USER_EMAIL or email service not configured; skipping nightly summary")
		w.WriteHeader(http.StatusOK)
		return
	}

	accounts, err := d.Database.ListAccounts(ctx)
	if err != nil {
		logger.Error("failed to list accounts", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	today := d.today()
	summaries := make([]models.AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		transactions, err := d.Database.GetTransactions(ctx, account.ID)
		if err != nil {
			logger.Error("failed to get transactions", zap.String("account_id", account.ID), zap.Error(err))
			WriteError(w, http.StatusInternalServerError, "Failed to get transactions")
			return
		}
		summaries = append(summaries, d.summarize(today, account, transactions))
	}

	if err := d.Email.SendSummaryEmail(ctx, []string{userEmail}, summaries); err != nil {
		d.Metrics.IncrExternalError("email")
		logger.Error("failed to send summary email", zap.String("email", userEmail), zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to send summary email")
		return
	}

	logger.Info("nightly trigger processing complete", zap.Int("accounts", len(summaries)))
	w.WriteHeader(http.StatusOK)
}

// summarize reports the account as of today. Positions finishing today or tomorrow are listed as expiring.
func (d *Dependencies) summarize(today civil.Date, account models.Account, transactions []models.Transaction) models.AccountSummary {
	state := d.Calculator.Calculate(today, transactions).CurrentState

	horizon := today.AddDays(1)
	expiring := []models.Transaction{}
	for _, t := range state.CurrentActiveInvestments {
		if !engine.InvestmentEndDate(t.Date).After(horizon) {
			expiring = append(expiring, t)
		}
	}

	return models.AccountSummary{
		AccountID:        account.ID,
		AccountName:      account.Name,
		Date:             today,
		AvailableBalance: state.TotalBalance,
		TodaysProfit:     state.TodaysProfit,
		ActiveAmount:     state.ActiveInvestments,
		Expiring:         expiring,
	}
}
