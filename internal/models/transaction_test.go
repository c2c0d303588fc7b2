package models

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction_Validates(t *testing.T) {
	date := civil.Date{Year: 2024, Month: 1, Day: 1}

	tx, err := NewTransaction("a", date, decimal.NewFromInt(5), TypeInvestment)
	require.NoError(t, err)
	assert.Equal(t, "a", tx.ID)

	cases := []struct {
		name   string
		id     string
		date   civil.Date
		amount decimal.Decimal
		typ    TransactionType
	}{
		{"empty id", "", date, decimal.NewFromInt(1), TypeInvestment},
		{"invalid date", "a", civil.Date{Year: 2024, Month: 2, Day: 30}, decimal.NewFromInt(1), TypeInvestment},
		{"negative amount", "a", date, decimal.NewFromInt(-1), TypeWithdrawal},
		{"unknown type", "a", date, decimal.NewFromInt(1), TransactionType("gift")},
	}
	for _, c := range cases {
		_, err := NewTransaction(c.id, c.date, c.amount, c.typ)
		assert.ErrorIs(t, err, ErrInvalidTransaction, c.name)
	}
}

func TestTransactionType_Rules(t *testing.T) {
	assert.True(t, TypeInvestment.IsPosition())
	assert.True(t, TypeExchange.IsPosition())
	assert.False(t, TypeWithdrawal.IsPosition())
	assert.False(t, TypeEarnings.IsPosition())

	assert.True(t, TypeWithdrawal.ReducesBalance())
	assert.True(t, TypeExchange.ReducesBalance())
	assert.False(t, TypeInvestment.ReducesBalance())
}

func TestTransaction_JSONDate(t *testing.T) {
	tx := Transaction{ID: "a", Date: civil.Date{Year: 2024, Month: 3, Day: 9}, Amount: decimal.RequireFromString("1.5"), Type: TypeExchange}

	raw, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"date":"2024-03-09"`)

	var back Transaction
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, tx.Date, back.Date)
	assert.True(t, tx.Amount.Equal(back.Amount))
}

func TestSortTransactions(t *testing.T) {
	txs := []Transaction{
		{ID: "b", Date: civil.Date{Year: 2024, Month: 1, Day: 3}},
		{ID: "a", Date: civil.Date{Year: 2024, Month: 1, Day: 1}},
		{ID: "0", Date: civil.Date{Year: 2024, Month: 1, Day: 3}},
	}

	SortTransactions(txs)

	assert.Equal(t, []string{"a", "0", "b"}, []string{txs[0].ID, txs[1].ID, txs[2].ID})
}

func TestSumAmounts(t *testing.T) {
	assert.True(t, SumAmounts(nil).IsZero())
	assert.Equal(t, "3.3", SumAmounts([]Transaction{
		{Amount: decimal.RequireFromString("1.1")},
		{Amount: decimal.RequireFromString("2.2")},
	}).String())
}
