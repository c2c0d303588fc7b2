package tracker

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// Value holds a JSON string or number as text.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = Value(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = Value(n.String())
	return nil
}

func (v Value) String() string { return string(v) }

// Record is one line of the tracker's transaction history.
type Record struct {
	ID         Value  `json:"id"`
	TG         Value  `json:"tg"`
	TP         Value  `json:"tp"`
	Type       string `json:"type"`
	CreateTime string `json:"create_time"`
	Status     Value  `json:"status"`
	HashID     string `json:"hashId"`
}

// InterestRecord is one line of the tracker's daily interest history.
type InterestRecord struct {
	ID         Value  `json:"id"`
	TP         Value  `json:"tp"`
	Type       Value  `json:"type"`
	CreateTime string `json:"create_time"`
	Status     Value  `json:"status"`
	HashID     string `json:"hashId"`
	Day        int    `json:"day"`
	Period     int    `json:"period"`
}

var recordTypes = map[string]models.TransactionType{
	"Purchased TP": models.TypeInvestment,
	"Withdrawals":  models.TypeWithdrawal,
	"Exchange":     models.TypeExchange,
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// MapRecords converts tracker records into transactions. Records of other kinds are
// skipped silently; malformed ones are reported and skipped.
func MapRecords(records []Record, loc *time.Location) ([]models.Transaction, []string) {
	transactions := []models.Transaction{}
	var errs []string

	for _, r := range records {
		txType, ok := recordTypes[r.Type]
		if !ok {
			continue
		}

		date, err := ParseCreateTime(r.CreateTime, loc)
		if err != nil {
			errs = append(errs, fmt.Sprintf("record %s: %v", r.ID, err))
			continue
		}
		amount, err := decimal.NewFromString(r.TP.String())
		if err != nil {
			errs = append(errs, fmt.Sprintf("record %s: invalid tp %q", r.ID, r.TP))
			continue
		}

		t, err := models.NewTransaction(r.ID.String(), date, amount, txType)
		if err != nil {
			errs = append(errs, fmt.Sprintf("record %s: %v", r.ID, err))
			continue
		}
		transactions = append(transactions, t)
	}
	return transactions, errs
}

// ParseCreateTime returns the calendar day of a tracker timestamp in loc.
// Timestamps without a zone are read as loc wall time.
func ParseCreateTime(s string, loc *time.Location) (civil.Date, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return civil.DateOf(ts.In(loc)), nil
		}
	}
	return civil.Date{}, fmt.Errorf("invalid create_time %q", s)
}
