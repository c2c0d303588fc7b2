package models

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// PortfolioSnapshot is the computed state of an account as of one day.
type PortfolioSnapshot struct {
	TotalBalance             decimal.Decimal `json:"totalBalance"`
	TotalProfits             decimal.Decimal `json:"totalProfits"`
	TotalInvested            decimal.Decimal `json:"totalInvested"`
	TotalWithdrawn           decimal.Decimal `json:"totalWithdrawn"`
	TotalExchanged           decimal.Decimal `json:"totalExchanged"`
	ActiveInvestments        decimal.Decimal `json:"activeInvestments"`
	CurrentDailyProfit       decimal.Decimal `json:"currentDailyProfit"`
	CurrentDailyRate         decimal.Decimal `json:"currentDailyRate"`
	TodaysProfit             decimal.Decimal `json:"todaysProfit"`
	TotalKept                decimal.Decimal `json:"totalKept"`
	CurrentActiveInvestments []Transaction   `json:"currentActiveInvestments"`
}

// EmptySnapshot returns the all-zero snapshot of an account without positions.
func EmptySnapshot() PortfolioSnapshot {
	return PortfolioSnapshot{
		TotalBalance:             decimal.Zero,
		TotalProfits:             decimal.Zero,
		TotalInvested:            decimal.Zero,
		TotalWithdrawn:           decimal.Zero,
		TotalExchanged:           decimal.Zero,
		ActiveInvestments:        decimal.Zero,
		CurrentDailyProfit:       decimal.Zero,
		CurrentDailyRate:         decimal.Zero,
		TodaysProfit:             decimal.Zero,
		TotalKept:                decimal.Zero,
		CurrentActiveInvestments: []Transaction{},
	}
}

// ExpiredState is a snapshot taken on the day every considered position has matured.
type ExpiredState struct {
	Date   civil.Date        `json:"date"`
	Result PortfolioSnapshot `json:"result"`
}

// InvestmentsResult bundles the current state with both maturity projections.
type InvestmentsResult struct {
	CurrentState                  PortfolioSnapshot `json:"currentState"`
	ExpiredState                  PortfolioSnapshot `json:"expiredState"`
	AllInvestmentsExpireDate      civil.Date        `json:"allInvestmentsExpireDate"`
	SelectedInvestmentsExpireDate civil.Date        `json:"selectedInvestmentsExpireDate"`
	SelectedExpiredState          PortfolioSnapshot `json:"selectedExpiredState"`
}

// TimelineEntry is one simulated day.
type TimelineEntry struct {
	Index int `json:"index"`
	// ProfitDayIndex counts the days after the target date; zero while compounding.
	ProfitDayIndex    int             `json:"profitDayIndex,omitempty"`
	Date              civil.Date      `json:"date"`
	Compound          bool            `json:"compound"`
	AmountExchanged   decimal.Decimal `json:"balanceReinvested"`
	TotalInvested     decimal.Decimal `json:"totalInvested"`
	ActiveInvestments decimal.Decimal `json:"activeInvestments"`
	AvailableBalance  decimal.Decimal `json:"availableBalance"`
	DailyProfit       decimal.Decimal `json:"currentDailyProfit"`
}

// SimulationResult is the outcome of a forward compounding simulation.
type SimulationResult struct {
	InitialState                 PortfolioSnapshot `json:"initialState"`
	FinalState                   PortfolioSnapshot `json:"finalState"`
	Timeline                     []TimelineEntry   `json:"timeline"`
	SimulationDays               int               `json:"simulationDays"`
	TotalGrowth                  decimal.Decimal   `json:"totalGrowth"`
	AllInvestmentsExpireDate     civil.Date        `json:"allInvestmentsExpireDate"`
	ExpiredState                 PortfolioSnapshot `json:"expiredState"`
	TotalWithdrawableAfterExpiry decimal.Decimal   `json:"totalWithdrawableAfterExpiry"`
	FinalTotalProfits            decimal.Decimal   `json:"finalTotalProfits"`
	TotalReturn                  decimal.Decimal   `json:"totalReturn"`
	SimulatedTransactions        []Transaction     `json:"simulatedTransactions"`
}

// DayActivity sums what happened on a single calendar day.
type DayActivity struct {
	Investments decimal.Decimal `json:"investments"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
	Exchanges   decimal.Decimal `json:"exchanges"`
}

// AccountSummary is the per-account digest sent in the nightly email.
type AccountSummary struct {
	AccountID        string          `json:"accountId"`
	AccountName      string          `json:"accountName"`
	Date             civil.Date      `json:"date"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	TodaysProfit     decimal.Decimal `json:"todaysProfit"`
	ActiveAmount     decimal.Decimal `json:"activeAmount"`
	Expiring         []Transaction   `json:"expiring"`
}
