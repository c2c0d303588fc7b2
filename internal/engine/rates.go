// Package engine computes portfolio state from a flat list of transactions.
// Every function is pure: no I/O, no logging, no shared state.
package engine

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// InvestmentDuration is the number of days a position keeps earning after its deposit day.
const InvestmentDuration = 20

// AmountScale is the number of decimal places computed profits are rounded to.
const AmountScale = 16

var (
	// MinimumReinvest is the smallest balance the simulation exchanges back into a position.
	MinimumReinvest = decimal.NewFromInt(1)

	tierHighThreshold = decimal.NewFromInt(300)
	tierMidThreshold  = decimal.NewFromInt(20)

	rateHigh = decimal.RequireFromString("0.065")
	rateMid  = decimal.RequireFromString("0.06")
	rateLow  = decimal.RequireFromString("0.055")
)

// GetPercentage returns the daily rate for the aggregate amount earning profit.
func GetPercentage(amount decimal.Decimal) decimal.Decimal {
	switch {
	case amount.GreaterThanOrEqual(tierHighThreshold):
		return rateHigh
	case amount.GreaterThanOrEqual(tierMidThreshold):
		return rateMid
	default:
		return rateLow
	}
}

// DaysBetween returns the number of calendar days from start to end.
func DaysBetween(start, end civil.Date) int {
	return end.DaysSince(start)
}

// InvestmentEndDate is the last day a position opened on date earns profit.
func InvestmentEndDate(date civil.Date) civil.Date {
	return date.AddDays(InvestmentDuration)
}

// IsInvestmentActive reports whether tx is a position still maturing on date.
// With profitOnly the deposit day itself is excluded.
func IsInvestmentActive(tx models.Transaction, date civil.Date, profitOnly bool) bool {
	if !tx.Type.IsPosition() {
		return false
	}
	days := DaysBetween(tx.Date, date)
	first := 0
	if profitOnly {
		first = 1
	}
	return days >= first && days <= InvestmentDuration
}

// GetActiveInvestments filters transactions down to the positions active on date.
func GetActiveInvestments(transactions []models.Transaction, date civil.Date, profitOnly bool) []models.Transaction {
	active := []models.Transaction{}
	for _, tx := range transactions {
		if IsInvestmentActive(tx, date, profitOnly) {
			active = append(active, tx)
		}
	}
	return active
}

// dailyProfit returns the rate and profit earned by a pool of the given size.
func dailyProfit(pool decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if !pool.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	rate := GetPercentage(pool)
	return rate, pool.Mul(rate).Round(AmountScale)
}

func positionPool(transactions []models.Transaction, date civil.Date, profitOnly bool) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		if IsInvestmentActive(tx, date, profitOnly) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}
