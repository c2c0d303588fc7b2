package engine

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// EarningsID is the id of the display-only earnings line for date.
func EarningsID(date civil.Date) string {
	return "earnings_" + date.String()
}

// DayTransactions lists what happened on date for display: an earnings line
// with todaysProfit first, then withdrawals, exchanges and investments.
func DayTransactions(date civil.Date, transactions []models.Transaction, todaysProfit decimal.Decimal) []models.Transaction {
	list := []models.Transaction{{
		ID:     EarningsID(date),
		Date:   date,
		Amount: todaysProfit,
		Type:   models.TypeEarnings,
	}}
	for _, txType := range []models.TransactionType{models.TypeWithdrawal, models.TypeExchange, models.TypeInvestment} {
		for _, tx := range transactions {
			if tx.Date == date && tx.Type == txType {
				list = append(list, tx)
			}
		}
	}
	return list
}

// ActivityByDate sums transaction amounts per calendar day and type.
func ActivityByDate(transactions []models.Transaction) map[civil.Date]models.DayActivity {
	activity := make(map[civil.Date]models.DayActivity)
	for date, b := range bucketByDay(transactions) {
		activity[date] = models.DayActivity{
			Investments: b.investments,
			Withdrawals: b.withdrawals,
			Exchanges:   b.exchanges,
		}
	}
	return activity
}
