package engine

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

type dayTotals struct {
	investments decimal.Decimal
	withdrawals decimal.Decimal
	exchanges   decimal.Decimal
}

func bucketByDay(transactions []models.Transaction) map[civil.Date]*dayTotals {
	buckets := make(map[civil.Date]*dayTotals)
	for _, tx := range transactions {
		b, ok := buckets[tx.Date]
		if !ok {
			b = &dayTotals{investments: decimal.Zero, withdrawals: decimal.Zero, exchanges: decimal.Zero}
			buckets[tx.Date] = b
		}
		switch tx.Type {
		case models.TypeInvestment:
			b.investments = b.investments.Add(tx.Amount)
		case models.TypeWithdrawal:
			b.withdrawals = b.withdrawals.Add(tx.Amount)
		case models.TypeExchange:
			b.exchanges = b.exchanges.Add(tx.Amount)
		}
	}
	return buckets
}

// onOrBefore keeps the transactions dated no later than date.
func onOrBefore(transactions []models.Transaction, date civil.Date) []models.Transaction {
	prior := make([]models.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if !tx.Date.After(date) {
			prior = append(prior, tx)
		}
	}
	return prior
}

// CalculateTp replays every day from the earliest transaction through date and
// returns the resulting snapshot.
func CalculateTp(date civil.Date, transactions []models.Transaction) models.PortfolioSnapshot {
	prior := onOrBefore(transactions, date)

	hasPosition := false
	earliest := date
	for _, tx := range prior {
		if tx.Type.IsPosition() {
			hasPosition = true
		}
		if tx.Date.Before(earliest) {
			earliest = tx.Date
		}
	}
	if !hasPosition {
		return models.EmptySnapshot()
	}

	snapshot := models.EmptySnapshot()
	for _, tx := range prior {
		switch tx.Type {
		case models.TypeInvestment:
			snapshot.TotalInvested = snapshot.TotalInvested.Add(tx.Amount)
		case models.TypeExchange:
			snapshot.TotalInvested = snapshot.TotalInvested.Add(tx.Amount)
			snapshot.TotalExchanged = snapshot.TotalExchanged.Add(tx.Amount)
		case models.TypeWithdrawal:
			snapshot.TotalWithdrawn = snapshot.TotalWithdrawn.Add(tx.Amount)
		}
	}

	buckets := bucketByDay(prior)
	balance := decimal.Zero
	for day := earliest; !day.After(date); day = day.AddDays(1) {
		_, profit := dailyProfit(positionPool(prior, day, true))
		snapshot.TotalProfits = snapshot.TotalProfits.Add(profit)
		balance = balance.Add(profit)

		b, ok := buckets[day]
		if !ok {
			continue
		}
		balance = balance.Sub(b.withdrawals).Sub(b.exchanges)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		if kept := b.withdrawals.Sub(b.investments); kept.IsPositive() {
			snapshot.TotalKept = snapshot.TotalKept.Add(kept)
		}
	}
	snapshot.TotalBalance = balance

	snapshot.CurrentActiveInvestments = GetActiveInvestments(prior, date, false)
	snapshot.ActiveInvestments = models.SumAmounts(snapshot.CurrentActiveInvestments)
	snapshot.CurrentDailyRate, snapshot.CurrentDailyProfit = dailyProfit(snapshot.ActiveInvestments)
	_, snapshot.TodaysProfit = dailyProfit(positionPool(prior, date, true))

	return snapshot
}

// latestPositionDate returns the newest position date, or fallback when there is none.
func latestPositionDate(transactions []models.Transaction, fallback civil.Date) civil.Date {
	latest := fallback
	found := false
	for _, tx := range transactions {
		if !tx.Type.IsPosition() {
			continue
		}
		if !found || tx.Date.After(latest) {
			latest = tx.Date
			found = true
		}
	}
	return latest
}

// CalculateExpiredState computes the snapshot on the day every position has matured.
// With onlyTarget the anchor is targetDate and nothing after it is considered.
func CalculateExpiredState(targetDate civil.Date, transactions []models.Transaction, onlyTarget bool) models.ExpiredState {
	anchor := targetDate
	considered := transactions
	if onlyTarget {
		considered = onOrBefore(transactions, targetDate)
	} else {
		anchor = latestPositionDate(transactions, targetDate)
	}

	expires := anchor.AddDays(InvestmentDuration)
	return models.ExpiredState{
		Date:   expires,
		Result: CalculateTp(expires, considered),
	}
}

// CalculateInvestments bundles the state on selectedDate with both maturity projections.
func CalculateInvestments(selectedDate civil.Date, transactions []models.Transaction) models.InvestmentsResult {
	all := CalculateExpiredState(selectedDate, transactions, false)
	selected := CalculateExpiredState(selectedDate, transactions, true)

	return models.InvestmentsResult{
		CurrentState:                  CalculateTp(selectedDate, transactions),
		ExpiredState:                  all.Result,
		AllInvestmentsExpireDate:      all.Date,
		SelectedInvestmentsExpireDate: selected.Date,
		SelectedExpiredState:          selected.Result,
	}
}
