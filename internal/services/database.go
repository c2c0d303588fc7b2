package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

const accountsPartition = "ACCOUNTS"

// DatabaseService stores accounts and their transactions in Azure Table Storage.
// Accounts live in one partition; each account's transactions form their own partition.
type DatabaseService struct {
	serviceClient     *aztables.ServiceClient
	accountsTable     string
	transactionsTable string
	logger            *zap.Logger
}

// NewDatabaseService creates a new DatabaseService instance.
func NewDatabaseService(ctx context.Context, tableURL, accountsTable, transactionsTable string, logger *zap.Logger) (*DatabaseService, error) {
	if tableURL == "" {
		return nil, fmt.Errorf("TABLE_SERVICE_URL environment variable is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var client *aztables.ServiceClient

	// Check if running locally with Azurite (http endpoint)
	if isLocal(tableURL) {
		logger.Info("using Azurite credentials for database service")
		name, key := getAzuriteCredentials()
		cred, err := aztables.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = aztables.NewServiceClientWithSharedKey(tableURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client with shared key: %w", err)
		}
	} else {
		logger.Info("using default Azure credentials for database service")
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = aztables.NewServiceClient(tableURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create table service client: %w", err)
		}
	}

	svc := &DatabaseService{
		serviceClient:     client,
		accountsTable:     accountsTable,
		transactionsTable: transactionsTable,
		logger:            logger,
	}

	if err := svc.CreateTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info("database service initialized successfully",
		zap.String("table_url", tableURL),
		zap.String("accounts_table", accountsTable),
		zap.String("transactions_table", transactionsTable),
	)
	return svc, nil
}

// CreateTables ensures all required tables exist in Azure Table Storage.
func (s *DatabaseService) CreateTables(ctx context.Context) error {
	for _, tableName := range []string{s.accountsTable, s.transactionsTable} {
		_, err := s.serviceClient.CreateTable(ctx, tableName, nil)
		if err != nil {
			var azErr *azcore.ResponseError
			if errors.As(err, &azErr) && azErr.ErrorCode == "TableAlreadyExists" {
				continue
			}
			return fmt.Errorf("failed to create table %s: %w", tableName, err)
		}
	}
	return nil
}

func (s *DatabaseService) getClient(tableName string) *aztables.Client {
	return s.serviceClient.NewClient(tableName)
}

func isNotFound(err error) bool {
	var azErr *azcore.ResponseError
	return errors.As(err, &azErr) && azErr.StatusCode == http.StatusNotFound
}

type accountEntity struct {
	PartitionKey string
	RowKey       string
	Name         string
	URL          string
}

type transactionEntity struct {
	PartitionKey string
	RowKey       string
	Date         string
	Amount       string
	Type         string
	Pinned       bool
	IsSimulated  bool
}

func marshalAccount(a models.Account) ([]byte, error) {
	return json.Marshal(accountEntity{
		PartitionKey: accountsPartition,
		RowKey:       tableKey(a.ID),
		Name:         a.Name,
		URL:          a.URL,
	})
}

func unmarshalAccount(raw []byte) (models.Account, error) {
	var e accountEntity
	if err := json.Unmarshal(raw, &e); err != nil {
		return models.Account{}, fmt.Errorf("failed to decode account entity: %w", err)
	}
	return models.Account{ID: fromTableKey(e.RowKey), Name: e.Name, URL: e.URL}, nil
}

func marshalTransaction(accountID string, t models.Transaction) ([]byte, error) {
	r := toRecord(t)
	return json.Marshal(transactionEntity{
		PartitionKey: tableKey(accountID),
		RowKey:       tableKey(r.ID),
		Date:         r.Date,
		Amount:       r.Amount,
		Type:         r.Type,
		Pinned:       r.Pinned,
		IsSimulated:  r.IsSimulated,
	})
}

func unmarshalTransaction(raw []byte) (models.Transaction, error) {
	var e transactionEntity
	if err := json.Unmarshal(raw, &e); err != nil {
		return models.Transaction{}, fmt.Errorf("failed to decode transaction entity: %w", err)
	}
	return transactionRecord{
		ID:          fromTableKey(e.RowKey),
		Date:        e.Date,
		Amount:      e.Amount,
		Type:        e.Type,
		Pinned:      e.Pinned,
		IsSimulated: e.IsSimulated,
	}.toTransaction()
}

func keyEntity(partitionKey, rowKey string) []byte {
	b, _ := json.Marshal(map[string]string{"PartitionKey": partitionKey, "RowKey": rowKey})
	return b
}

// ListAccounts returns every account without its transactions.
func (s *DatabaseService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	client := s.getClient(s.accountsTable)

	filter := "PartitionKey eq " + odataString(accountsPartition)
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
	})

	accounts := []models.Account{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list accounts: %w", err)
		}
		for _, entity := range resp.Entities {
			a, err := unmarshalAccount(entity)
			if err != nil {
				s.logger.Warn("skipping unreadable account entity", zap.Error(err))
				continue
			}
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

// GetAccount returns the account metadata or models.ErrNotFound.
func (s *DatabaseService) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	client := s.getClient(s.accountsTable)
	resp, err := client.GetEntity(ctx, accountsPartition, tableKey(accountID), nil)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	a, err := unmarshalAccount(resp.Value)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAccount creates or replaces the account metadata.
func (s *DatabaseService) SaveAccount(ctx context.Context, account models.Account) error {
	entity, err := marshalAccount(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	client := s.getClient(s.accountsTable)
	if _, err := client.UpsertEntity(ctx, entity, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace}); err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	s.logger.Info("saved account", zap.String("account_id", account.ID))
	return nil
}

// DeleteAccount removes the account and all of its transactions.
func (s *DatabaseService) DeleteAccount(ctx context.Context, accountID string) error {
	keys, err := s.transactionKeys(ctx, accountID)
	if err != nil {
		return err
	}
	var batch []aztables.TransactionAction
	for rk := range keys {
		batch = append(batch, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeDelete,
			Entity:     keyEntity(tableKey(accountID), rk),
		})
	}
	if err := s.submit(ctx, batch); err != nil {
		return err
	}

	client := s.getClient(s.accountsTable)
	if _, err := client.DeleteEntity(ctx, accountsPartition, tableKey(accountID), nil); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to delete account %s: %w", accountID, err)
	}
	s.logger.Info("deleted account", zap.String("account_id", accountID), zap.Int("transactions", len(batch)))
	return nil
}

// GetTransactions returns the account's transactions sorted by date, then id.
func (s *DatabaseService) GetTransactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	client := s.getClient(s.transactionsTable)

	filter := "PartitionKey eq " + odataString(tableKey(accountID))
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
	})

	transactions := []models.Transaction{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}
		for _, entity := range resp.Entities {
			t, err := unmarshalTransaction(entity)
			if err != nil {
				s.logger.Warn("skipping unreadable transaction entity",
					zap.String("account_id", accountID), zap.Error(err))
				continue
			}
			transactions = append(transactions, t)
		}
	}
	models.SortTransactions(transactions)
	return transactions, nil
}

// transactionKeys returns the set of row keys stored for the account.
func (s *DatabaseService) transactionKeys(ctx context.Context, accountID string) (map[string]bool, error) {
	client := s.getClient(s.transactionsTable)

	filter := "PartitionKey eq " + odataString(tableKey(accountID))
	selectFields := "RowKey"
	pager := client.NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
		Select: &selectFields,
	})

	keys := make(map[string]bool)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list existing transactions: %w", err)
		}
		for _, entity := range resp.Entities {
			var parsed map[string]any
			if err := json.Unmarshal(entity, &parsed); err != nil {
				continue
			}
			if rk, ok := parsed["RowKey"].(string); ok {
				keys[rk] = true
			}
		}
	}
	return keys, nil
}

// SaveTransactions upserts the given transactions and returns the ones that were not stored before.
func (s *DatabaseService) SaveTransactions(ctx context.Context, accountID string, transactions []models.Transaction) ([]models.Transaction, error) {
	existing, err := s.transactionKeys(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var batch []aztables.TransactionAction
	var added []models.Transaction
	for _, t := range transactions {
		entity, err := marshalTransaction(accountID, t)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal transaction %s: %w", t.ID, err)
		}
		if !existing[tableKey(t.ID)] {
			added = append(added, t)
		}
		batch = append(batch, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeInsertReplace,
			Entity:     entity,
		})
	}

	if err := s.submit(ctx, batch); err != nil {
		return nil, err
	}
	s.logger.Info("saved transactions",
		zap.String("account_id", accountID),
		zap.Int("total", len(transactions)),
		zap.Int("new", len(added)),
	)
	return added, nil
}

// ReplaceTransactions makes the stored set exactly equal to transactions.
func (s *DatabaseService) ReplaceTransactions(ctx context.Context, accountID string, transactions []models.Transaction) error {
	existing, err := s.transactionKeys(ctx, accountID)
	if err != nil {
		return err
	}

	var batch []aztables.TransactionAction
	keep := make(map[string]bool, len(transactions))
	for _, t := range transactions {
		entity, err := marshalTransaction(accountID, t)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction %s: %w", t.ID, err)
		}
		keep[tableKey(t.ID)] = true
		batch = append(batch, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeInsertReplace,
			Entity:     entity,
		})
	}
	for rk := range existing {
		if !keep[rk] {
			batch = append(batch, aztables.TransactionAction{
				ActionType: aztables.TransactionTypeDelete,
				Entity:     keyEntity(tableKey(accountID), rk),
			})
		}
	}
	return s.submit(ctx, batch)
}

// DeleteTransaction removes one transaction or returns models.ErrNotFound.
func (s *DatabaseService) DeleteTransaction(ctx context.Context, accountID, transactionID string) error {
	client := s.getClient(s.transactionsTable)
	if _, err := client.DeleteEntity(ctx, tableKey(accountID), tableKey(transactionID), nil); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("transaction %s: %w", transactionID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, err)
	}
	return nil
}

// SetTransactionPinned flips the pinned flag of one stored transaction.
func (s *DatabaseService) SetTransactionPinned(ctx context.Context, accountID, transactionID string, pinned bool) error {
	entity, err := json.Marshal(map[string]any{
		"PartitionKey": tableKey(accountID),
		"RowKey":       tableKey(transactionID),
		"Pinned":       pinned,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal pin update: %w", err)
	}
	client := s.getClient(s.transactionsTable)
	if _, err := client.UpdateEntity(ctx, entity, &aztables.UpdateEntityOptions{UpdateMode: aztables.UpdateModeMerge}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("transaction %s: %w", transactionID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to update transaction %s: %w", transactionID, err)
	}
	return nil
}

// submit sends the actions in chunks of 100, the entity group transaction limit.
func (s *DatabaseService) submit(ctx context.Context, batch []aztables.TransactionAction) error {
	client := s.getClient(s.transactionsTable)
	const batchSize = 100
	for i := 0; i < len(batch); i += batchSize {
		end := min(i+batchSize, len(batch))
		if _, err := client.SubmitTransaction(ctx, batch[i:end], nil); err != nil {
			return fmt.Errorf("failed to submit transaction batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}
