package handler

import (
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/engine"
	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

type portfolioResponse struct {
	Date civil.Date `json:"date"`
	models.InvestmentsResult
	// Transactions is the day's display list, headed by the earnings line.
	Transactions []models.Transaction `json:"transactions"`
}

type fillRequest struct {
	Date   *civil.Date `json:"date"`
	Target civil.Date  `json:"target"`
}

// HandlePortfolio returns the computed state of an account as of ?date (default today).
func (d *Dependencies) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	date, err := d.dateParam(r, "date")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	transactions, ok := d.accountTransactions(w, r)
	if !ok {
		return
	}

	result := d.Calculator.Calculate(date, transactions)
	WriteJSON(w, http.StatusOK, portfolioResponse{
		Date:              date,
		InvestmentsResult: result,
		Transactions:      engine.DayTransactions(date, transactions, result.CurrentState.TodaysProfit),
	})
}

// HandleActivity returns per-day totals for ?month=YYYY-MM (default current month).
func (d *Dependencies) HandleActivity(w http.ResponseWriter, r *http.Request) {
	today := d.today()
	year, month := today.Year, today.Month
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := time.Parse("2006-01", v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid month, expected YYYY-MM")
			return
		}
		year, month = parsed.Year(), parsed.Month()
	}

	transactions, ok := d.accountTransactions(w, r)
	if !ok {
		return
	}

	activity := make(map[string]models.DayActivity)
	for date, a := range engine.ActivityByDate(transactions) {
		if date.Year == year && date.Month == month {
			activity[date.String()] = a
		}
	}
	WriteJSON(w, http.StatusOK, activity)
}

// HandleSimulation projects compounding from ?date (default today) to ?target.
func (d *Dependencies) HandleSimulation(w http.ResponseWriter, r *http.Request) {
	start, err := d.dateParam(r, "date")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if r.URL.Query().Get("target") == "" {
		WriteError(w, http.StatusBadRequest, "Missing target date")
		return
	}
	target, err := d.dateParam(r, "target")
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, ok := d.accountTransactions(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, d.Calculator.Simulate(start, target, transactions))
}

// HandleFillSimulation stores the exchanges a simulation would make.
func (d *Dependencies) HandleFillSimulation(w http.ResponseWriter, r *http.Request) {
	var req fillRequest
	if err := decodeJSON(r, &req); err != nil || !req.Target.IsValid() {
		WriteError(w, http.StatusBadRequest, "Invalid request body, target is required")
		return
	}
	start := d.today()
	if req.Date != nil {
		start = *req.Date
	}

	account, ok := d.account(w, r)
	if !ok {
		return
	}
	transactions, err := d.Database.GetTransactions(r.Context(), account.ID)
	if err != nil {
		d.writeStoreError(w, err, "get transactions")
		return
	}

	result := d.Calculator.Simulate(start, req.Target, transactions)
	added, err := d.Database.SaveTransactions(r.Context(), account.ID, result.SimulatedTransactions)
	if err != nil {
		d.writeStoreError(w, err, "save simulated transactions")
		return
	}
	d.logger().Info("filled simulated transactions",
		zap.String("account_id", account.ID),
		zap.Int("simulated", len(result.SimulatedTransactions)),
		zap.Int("new", len(added)),
	)
	WriteJSON(w, http.StatusOK, map[string]any{
		"added":        len(added),
		"transactions": result.SimulatedTransactions,
	})
}

func (d *Dependencies) accountTransactions(w http.ResponseWriter, r *http.Request) ([]models.Transaction, bool) {
	account, ok := d.account(w, r)
	if !ok {
		return nil, false
	}
	transactions, err := d.Database.GetTransactions(r.Context(), account.ID)
	if err != nil {
		d.writeStoreError(w, err, "get transactions")
		return nil, false
	}
	return transactions, true
}
