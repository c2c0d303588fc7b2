package engine

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// SimulatedExchangeID is the id given to the exchange the simulation creates on date.
func SimulatedExchangeID(date civil.Date) string {
	return fmt.Sprintf("sim_exchange_%s", date.String())
}

type simulation struct {
	transactions  []models.Transaction
	synthetic     []models.Transaction
	balance       decimal.Decimal
	totalInvested decimal.Decimal
}

func (s *simulation) exchange(date civil.Date) decimal.Decimal {
	amount := s.balance.Round(AmountScale)
	tx := models.Transaction{
		ID:          SimulatedExchangeID(date),
		Date:        date,
		Amount:      amount,
		Type:        models.TypeExchange,
		IsSimulated: true,
	}
	s.transactions = append(s.transactions, tx)
	s.synthetic = append(s.synthetic, tx)
	s.totalInvested = s.totalInvested.Add(amount)
	s.balance = decimal.Zero
	return amount
}

func (s *simulation) entry(index int, date civil.Date, compound bool, exchanged, profit decimal.Decimal) models.TimelineEntry {
	return models.TimelineEntry{
		Index:             index,
		Date:              date,
		Compound:          compound,
		AmountExchanged:   exchanged,
		TotalInvested:     s.totalInvested,
		ActiveInvestments: positionPool(s.transactions, date, false),
		AvailableBalance:  s.balance,
		DailyProfit:       profit,
	}
}

// SimulateInvestments projects the portfolio when the whole available balance is
// exchanged every day from selectedDate through targetDate, then lets the
// remaining positions mature without new money.
func SimulateInvestments(selectedDate, targetDate civil.Date, transactions []models.Transaction) models.SimulationResult {
	if targetDate.Before(selectedDate) {
		targetDate = selectedDate
	}

	s := &simulation{
		transactions: append([]models.Transaction(nil), transactions...),
		synthetic:    []models.Transaction{},
	}

	initial := CalculateTp(selectedDate, s.transactions)
	s.balance = initial.TotalBalance
	s.totalInvested = initial.TotalInvested

	exchanged := decimal.Zero
	if s.balance.GreaterThanOrEqual(MinimumReinvest) {
		exchanged = s.exchange(selectedDate)
	}
	timeline := []models.TimelineEntry{
		s.entry(0, selectedDate, true, exchanged, initial.TodaysProfit),
	}

	index := 0
	day := selectedDate.AddDays(1)
	for ; !day.After(targetDate); day = day.AddDays(1) {
		_, profit := dailyProfit(positionPool(s.transactions, day, true))
		s.balance = s.balance.Add(profit)

		exchanged := decimal.Zero
		if s.balance.GreaterThanOrEqual(MinimumReinvest) {
			exchanged = s.exchange(day)
		}
		index++
		timeline = append(timeline, s.entry(index, day, true, exchanged, profit))
	}

	for profitDay := 1; ; profitDay++ {
		earning := GetActiveInvestments(s.transactions, day, true)
		if len(earning) == 0 {
			break
		}
		_, profit := dailyProfit(models.SumAmounts(earning))
		s.balance = s.balance.Add(profit)

		index++
		entry := s.entry(index, day, false, decimal.Zero, profit)
		entry.ProfitDayIndex = profitDay
		timeline = append(timeline, entry)
		day = day.AddDays(1)
	}

	final := CalculateTp(targetDate, s.transactions)
	expired := CalculateExpiredState(targetDate, s.transactions, false)

	return models.SimulationResult{
		InitialState:                 initial,
		FinalState:                   final,
		Timeline:                     timeline,
		SimulationDays:               DaysBetween(selectedDate, targetDate),
		TotalGrowth:                  final.TotalInvested.Sub(initial.TotalInvested),
		AllInvestmentsExpireDate:     expired.Date,
		ExpiredState:                 expired.Result,
		TotalWithdrawableAfterExpiry: expired.Result.TotalBalance,
		FinalTotalProfits:            expired.Result.TotalProfits,
		TotalReturn:                  expired.Result.TotalBalance.Add(expired.Result.TotalWithdrawn),
		SimulatedTransactions:        s.synthetic,
	}
}
