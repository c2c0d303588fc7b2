package csvparse

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
	"github.com/pwabucket/pwa-ai-earn/internal/utils"
)

// Header lists the columns written by Format. ID and Pinned are optional on input.
var Header = []string{"Date", "Type", "Amount", "ID", "Pinned"}

// ParseCSV parses transactions from a CSV string.
// It returns a list of transactions and a list of error messages for invalid rows.
func ParseCSV(content string) ([]models.Transaction, []string) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, []string{fmt.Sprintf("Failed to read CSV: %v", err)}
	}

	if len(records) < 2 {
		return []models.Transaction{}, nil // Empty or header-only
	}

	headers := parseHeaders(records[0])
	for _, required := range []string{"Date", "Type", "Amount"} {
		if !contains(headers, required) {
			return nil, []string{fmt.Sprintf("Missing column: %s", required)}
		}
	}

	transactions := []models.Transaction{}
	var errors []string

	for i, record := range records[1:] {
		rowNum := i + 2
		if len(record) < len(headers) {
			errors = append(errors, fmt.Sprintf("Row %d: Not enough fields", rowNum))
			continue
		}

		rowMap := make(map[string]string)
		for j, header := range headers {
			rowMap[header] = strings.TrimSpace(record[j])
		}

		t, err := mapToTransaction(rowMap, record)
		if err != nil {
			errors = append(errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		transactions = append(transactions, t)
	}

	return transactions, errors
}

func parseHeaders(row []string) []string {
	headers := make([]string, len(row))
	for i, h := range row {
		headers[i] = strings.TrimSpace(h)
		for _, known := range Header {
			if strings.EqualFold(headers[i], known) {
				headers[i] = known
			}
		}
	}
	return headers
}

func contains(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}

func mapToTransaction(row map[string]string, record []string) (models.Transaction, error) {
	dateStr := row["Date"]
	if dateStr == "" {
		return models.Transaction{}, fmt.Errorf("missing Date")
	}
	date, err := civil.ParseDate(dateStr)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid Date format: %s", dateStr)
	}

	txType := models.TransactionType(strings.ToLower(row["Type"]))
	if !txType.IsPosition() && txType != models.TypeWithdrawal {
		return models.Transaction{}, fmt.Errorf("invalid Type: %s", row["Type"])
	}

	amountStr := row["Amount"]
	if amountStr == "" {
		return models.Transaction{}, fmt.Errorf("missing Amount")
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid Amount: %s", amountStr)
	}

	id := row["ID"]
	if id == "" {
		id = rowID(record)
	}

	t, err := models.NewTransaction(id, date, amount, txType)
	if err != nil {
		return models.Transaction{}, err
	}

	if pinned := row["Pinned"]; pinned != "" {
		if t.Pinned, err = strconv.ParseBool(pinned); err != nil {
			return models.Transaction{}, fmt.Errorf("invalid Pinned: %s", pinned)
		}
	}
	return t, nil
}

// rowID derives a stable id so re-importing the same file does not duplicate rows.
func rowID(record []string) string {
	trimmed := make([]string, len(record))
	for i, f := range record {
		trimmed[i] = strings.TrimSpace(f)
	}
	return "csv_" + utils.GenerateSHA256Hash(strings.Join(trimmed, ","))[:16]
}

// Format writes transactions in the layout ParseCSV reads.
func Format(transactions []models.Transaction) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(Header); err != nil {
		return "", err
	}
	for _, t := range transactions {
		if err := w.Write([]string{
			t.Date.String(),
			string(t.Type),
			t.Amount.String(),
			t.ID,
			strconv.FormatBool(t.Pinned),
		}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}
	return b.String(), nil
}
