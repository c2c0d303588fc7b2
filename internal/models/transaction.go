package models

import (
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ErrInvalidTransaction is returned when a transaction is built from invalid fields.
var ErrInvalidTransaction = errors.New("invalid transaction")

// TransactionType tags what a ledger line does to the portfolio.
type TransactionType string

const (
	TypeInvestment TransactionType = "investment"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeExchange   TransactionType = "exchange"
	// TypeEarnings is a display-only line for the profit recognised on a day. It is never stored.
	TypeEarnings TransactionType = "earnings"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeInvestment, TypeWithdrawal, TypeExchange, TypeEarnings:
		return true
	}
	return false
}

// IsPosition reports whether transactions of this type open a maturing position.
func (t TransactionType) IsPosition() bool {
	return t == TypeInvestment || t == TypeExchange
}

// ReducesBalance reports whether transactions of this type take money out of the available balance.
func (t TransactionType) ReducesBalance() bool {
	return t == TypeWithdrawal || t == TypeExchange
}

// Transaction represents a single ledger line of an account.
type Transaction struct {
	ID          string          `json:"id"`
	Date        civil.Date      `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Pinned      bool            `json:"pinned,omitempty"`
	IsSimulated bool            `json:"isSimulated,omitempty"`
}

// NewTransaction builds a transaction and rejects malformed input up front.
func NewTransaction(id string, date civil.Date, amount decimal.Decimal, txType TransactionType) (Transaction, error) {
	t := Transaction{
		ID:     id,
		Date:   date,
		Amount: amount,
		Type:   txType,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Validate checks the fields the engine relies on.
func (t Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidTransaction)
	}
	if !t.Date.IsValid() {
		return fmt.Errorf("%w: invalid date %q for %s", ErrInvalidTransaction, t.Date.String(), t.ID)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount %s for %s", ErrInvalidTransaction, t.Amount.String(), t.ID)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q for %s", ErrInvalidTransaction, t.Type, t.ID)
	}
	return nil
}

// SumAmounts adds up the amounts of the given transactions.
func SumAmounts(transactions []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		total = total.Add(t.Amount)
	}
	return total
}

// SortTransactions orders transactions by date, then id.
func SortTransactions(transactions []Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		a, b := transactions[i], transactions[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return a.ID < b.ID
	})
}
