package backup

import (
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

func TestEncodeDecode_PreservesDatesAndPrecision(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	data := New("1.2.0", now, []models.Account{{
		ID:   "acc-1",
		Name: "Main",
		URL:  "https://tracker.example/#tgWebAppData=x",
		Transactions: []models.Transaction{
			{ID: "t1", Date: civil.Date{Year: 2024, Month: 2, Day: 29}, Amount: decimal.RequireFromString("123.4567"), Type: models.TypeInvestment, Pinned: true},
			{ID: "t2", Date: civil.Date{Year: 2024, Month: 3, Day: 1}, Amount: decimal.RequireFromString("0.0001"), Type: models.TypeWithdrawal},
		},
	}})

	raw, err := Encode(data)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"date": "2024-02-29"`)
	assert.Contains(t, string(raw), `"amount": "123.4567"`)

	decoded, err := Decode(raw, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "1.2.0", decoded.Version)
	assert.Equal(t, "2024-03-01T10:30:00Z", decoded.Timestamp)
	require.Len(t, decoded.Data.Accounts, 1)
	acc := decoded.Data.Accounts[0]
	assert.Equal(t, "Main", acc.Name)
	require.Len(t, acc.Transactions, 2)
	assert.Equal(t, civil.Date{Year: 2024, Month: 2, Day: 29}, acc.Transactions[0].Date)
	assert.Equal(t, "123.4567", acc.Transactions[0].Amount.String())
	assert.True(t, acc.Transactions[0].Pinned)
	assert.Equal(t, "0.0001", acc.Transactions[1].Amount.String())
}

func TestDecode_LegacyShapes(t *testing.T) {
	raw := []byte(`{
		"version": "unknown",
		"timestamp": "2024-01-01T00:00:00.000Z",
		"data": {"accounts": [{"id": "a", "name": "Old", "transactions": [
			{"id": "x", "date": "2024-01-04T23:00:00.000Z", "amount": 12.5, "type": "exchange"}
		]}]}
	}`)

	lagos, err := time.LoadLocation("Africa/Lagos")
	require.NoError(t, err)

	decoded, err := Decode(raw, lagos)
	require.NoError(t, err)

	tx := decoded.Data.Accounts[0].Transactions[0]
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 5}, tx.Date)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, models.TypeExchange, tx.Type)
}

func TestDecode_RejectsInvalidTransactions(t *testing.T) {
	cases := map[string]string{
		"bad date":   `{"data":{"accounts":[{"id":"a","transactions":[{"id":"x","date":"yesterday","amount":"1","type":"investment"}]}]}}`,
		"bad type":   `{"data":{"accounts":[{"id":"a","transactions":[{"id":"x","date":"2024-01-01","amount":"1","type":"gift"}]}]}}`,
		"negative":   `{"data":{"accounts":[{"id":"a","transactions":[{"id":"x","date":"2024-01-01","amount":"-1","type":"investment"}]}]}}`,
		"missing id": `{"data":{"accounts":[{"id":"a","transactions":[{"date":"2024-01-01","amount":"1","type":"investment"}]}]}}`,
		"earnings":   `{"data":{"accounts":[{"id":"a","transactions":[{"id":"earnings_2024-01-01","date":"2024-01-01","amount":"6","type":"earnings"}]}]}}`,
	}
	for name, raw := range cases {
		_, err := Decode([]byte(raw), time.UTC)
		assert.ErrorIs(t, err, models.ErrInvalidTransaction, name)
	}

	_, err := Decode([]byte(`{"data":{"accounts":[{"name":"x"}]}}`), time.UTC)
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`), time.UTC)
	assert.Error(t, err)
}

func TestEncode_EmptyAccountsIsArray(t *testing.T) {
	raw, err := Encode(New("v", time.Now(), nil))
	require.NoError(t, err)

	var generic map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "[]", string(generic["data"]["accounts"]))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "tracker-backup-data-2024-03-01_10-30-05.json",
		FileName(time.Date(2024, 3, 1, 10, 30, 5, 0, time.UTC)))
}
