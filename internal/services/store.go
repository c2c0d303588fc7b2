package services

import (
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// transactionRecord is the storage shape of a transaction, shared by every store.
type transactionRecord struct {
	ID          string
	Date        string
	Amount      string
	Type        string
	Pinned      bool
	IsSimulated bool
}

func toRecord(t models.Transaction) transactionRecord {
	return transactionRecord{
		ID:          t.ID,
		Date:        t.Date.String(),
		Amount:      t.Amount.String(),
		Type:        string(t.Type),
		Pinned:      t.Pinned,
		IsSimulated: t.IsSimulated,
	}
}

func (r transactionRecord) toTransaction() (models.Transaction, error) {
	date, err := civil.ParseDate(r.Date)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("stored transaction %s has invalid date %q: %w", r.ID, r.Date, err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("stored transaction %s has invalid amount %q: %w", r.ID, r.Amount, err)
	}
	t, err := models.NewTransaction(r.ID, date, amount, models.TransactionType(r.Type))
	if err != nil {
		return models.Transaction{}, err
	}
	t.Pinned = r.Pinned
	t.IsSimulated = r.IsSimulated
	return t, nil
}

// tableKey escapes the characters Azure Tables forbids in PartitionKey and RowKey.
func tableKey(id string) string {
	return url.PathEscape(id)
}

func fromTableKey(key string) string {
	id, err := url.PathUnescape(key)
	if err != nil {
		return key
	}
	return id
}

// odataString quotes s for an OData filter literal.
func odataString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
