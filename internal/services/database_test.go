package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

func TestTransactionEntity_RoundTrip(t *testing.T) {
	tx := storedTx("csv_ab/cd?1", 9, "12.3456789", models.TypeExchange)
	tx.Pinned = true

	raw, err := marshalTransaction("acc#1", tx)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, "acc%231", parsed["PartitionKey"])
	assert.Equal(t, "csv_ab%2Fcd%3F1", parsed["RowKey"])
	assert.Equal(t, "2024-01-09", parsed["Date"])
	assert.Equal(t, "12.3456789", parsed["Amount"])

	got, err := unmarshalTransaction(raw)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, tx.Date, got.Date)
	assert.True(t, tx.Amount.Equal(got.Amount))
	assert.True(t, got.Pinned)
}

func TestTransactionEntity_RejectsInvalidStoredValues(t *testing.T) {
	_, err := unmarshalTransaction([]byte(`{"RowKey":"t1","Date":"2024-01-01","Amount":"-1","Type":"investment"}`))
	assert.ErrorIs(t, err, models.ErrInvalidTransaction)

	_, err = unmarshalTransaction([]byte(`{"RowKey":"t1","Date":"yesterday","Amount":"1","Type":"investment"}`))
	assert.Error(t, err)
}

func TestAccountEntity_RoundTrip(t *testing.T) {
	raw, err := marshalAccount(models.Account{ID: "main", Name: "Main", URL: "https://t.example"})
	require.NoError(t, err)

	got, err := unmarshalAccount(raw)
	require.NoError(t, err)
	assert.Equal(t, models.Account{ID: "main", Name: "Main", URL: "https://t.example"}, got)
}

func TestODataString(t *testing.T) {
	assert.Equal(t, "'o''brien'", odataString("o'brien"))
}

func TestIsLocal(t *testing.T) {
	assert.True(t, isLocal("http://127.0.0.1:10002/devstoreaccount1"))
	assert.False(t, isLocal("https://acct.table.core.windows.net"))
}
