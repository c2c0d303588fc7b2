// Package backup encodes the full account store as a portable JSON document.
package backup

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

type wireTransaction struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Pinned      bool            `json:"pinned,omitempty"`
	IsSimulated bool            `json:"isSimulated,omitempty"`
}

// MarshalJSON always writes the amount as a string so no precision is lost
// to readers that parse numbers as floats.
func (w wireTransaction) MarshalJSON() ([]byte, error) {
	type alias wireTransaction
	return json.Marshal(struct {
		alias
		Amount string `json:"amount"`
	}{alias: alias(w), Amount: w.Amount.String()})
}

type wireAccount struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	URL          string            `json:"url,omitempty"`
	Transactions []wireTransaction `json:"transactions"`
}

type wireBackup struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		Accounts []wireAccount `json:"accounts"`
	} `json:"data"`
}

// New builds a backup document of accounts stamped with now.
func New(version string, now time.Time, accounts []models.Account) models.BackupData {
	var data models.BackupData
	data.Version = version
	data.Timestamp = now.UTC().Format(time.RFC3339)
	data.Data.Accounts = accounts
	return data
}

// FileName is the name a backup taken at now is stored under.
func FileName(now time.Time) string {
	return fmt.Sprintf("tracker-backup-data-%s.json", now.Format("2006-01-02_15-04-05"))
}

// Encode writes data as indented JSON with YYYY-MM-DD dates and string amounts.
func Encode(data models.BackupData) ([]byte, error) {
	var w wireBackup
	w.Version = data.Version
	w.Timestamp = data.Timestamp
	w.Data.Accounts = make([]wireAccount, 0, len(data.Data.Accounts))

	for _, acc := range data.Data.Accounts {
		wa := wireAccount{
			ID:           acc.ID,
			Name:         acc.Name,
			URL:          acc.URL,
			Transactions: make([]wireTransaction, 0, len(acc.Transactions)),
		}
		for _, t := range acc.Transactions {
			wa.Transactions = append(wa.Transactions, wireTransaction{
				ID:          t.ID,
				Date:        t.Date.String(),
				Amount:      t.Amount,
				Type:        string(t.Type),
				Pinned:      t.Pinned,
				IsSimulated: t.IsSimulated,
			})
		}
		w.Data.Accounts = append(w.Data.Accounts, wa)
	}

	b, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return b, nil
}

// Decode parses a backup document. Amounts may be strings or numbers; dates may be
// plain calendar dates or RFC3339 instants, which are read as a day in loc.
// Every transaction is validated.
func Decode(raw []byte, loc *time.Location) (*models.BackupData, error) {
	var w wireBackup
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}

	data := &models.BackupData{Version: w.Version, Timestamp: w.Timestamp}
	data.Data.Accounts = make([]models.Account, 0, len(w.Data.Accounts))

	for _, wa := range w.Data.Accounts {
		if wa.ID == "" {
			return nil, fmt.Errorf("failed to decode backup: account without id")
		}
		acc := models.Account{
			ID:           wa.ID,
			Name:         wa.Name,
			URL:          wa.URL,
			Transactions: make([]models.Transaction, 0, len(wa.Transactions)),
		}
		for _, wt := range wa.Transactions {
			if models.TransactionType(wt.Type) == models.TypeEarnings {
				return nil, fmt.Errorf("account %s: %w: earnings line %s cannot be stored", wa.ID, models.ErrInvalidTransaction, wt.ID)
			}
			date, err := ParseDate(wt.Date, loc)
			if err != nil {
				return nil, fmt.Errorf("account %s transaction %s: %w", wa.ID, wt.ID, err)
			}
			t, err := models.NewTransaction(wt.ID, date, wt.Amount, models.TransactionType(wt.Type))
			if err != nil {
				return nil, fmt.Errorf("account %s: %w", wa.ID, err)
			}
			t.Pinned = wt.Pinned
			t.IsSimulated = wt.IsSimulated
			acc.Transactions = append(acc.Transactions, t)
		}
		data.Data.Accounts = append(data.Data.Accounts, acc)
	}
	return data, nil
}

// ParseDate reads a calendar date, falling back to an RFC3339 instant converted to loc.
func ParseDate(s string, loc *time.Location) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: invalid date %q", models.ErrInvalidTransaction, s)
	}
	if loc == nil {
		loc = time.Local
	}
	return civil.DateOf(ts.In(loc)), nil
}
