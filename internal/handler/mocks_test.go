package handler

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
	"github.com/pwabucket/pwa-ai-earn/internal/tracker"
)

// MockDatabaseClient is a mock implementation of DatabaseClient
type MockDatabaseClient struct {
	ListAccountsFunc         func(ctx context.Context) ([]models.Account, error)
	GetAccountFunc           func(ctx context.Context, accountID string) (*models.Account, error)
	SaveAccountFunc          func(ctx context.Context, account models.Account) error
	DeleteAccountFunc        func(ctx context.Context, accountID string) error
	GetTransactionsFunc      func(ctx context.Context, accountID string) ([]models.Transaction, error)
	SaveTransactionsFunc     func(ctx context.Context, accountID string, transactions []models.Transaction) ([]models.Transaction, error)
	ReplaceTransactionsFunc  func(ctx context.Context, accountID string, transactions []models.Transaction) error
	DeleteTransactionFunc    func(ctx context.Context, accountID, transactionID string) error
	SetTransactionPinnedFunc func(ctx context.Context, accountID, transactionID string, pinned bool) error
}

func (m *MockDatabaseClient) ListAccounts(ctx context.Context) ([]models.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx)
	}
	return []models.Account{}, nil
}

func (m *MockDatabaseClient) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, accountID)
	}
	return &models.Account{ID: accountID, Name: "Main"}, nil
}

func (m *MockDatabaseClient) SaveAccount(ctx context.Context, account models.Account) error {
	if m.SaveAccountFunc != nil {
		return m.SaveAccountFunc(ctx, account)
	}
	return nil
}

func (m *MockDatabaseClient) DeleteAccount(ctx context.Context, accountID string) error {
	if m.DeleteAccountFunc != nil {
		return m.DeleteAccountFunc(ctx, accountID)
	}
	return nil
}

func (m *MockDatabaseClient) GetTransactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	if m.GetTransactionsFunc != nil {
		return m.GetTransactionsFunc(ctx, accountID)
	}
	return []models.Transaction{}, nil
}

func (m *MockDatabaseClient) SaveTransactions(ctx context.Context, accountID string, transactions []models.Transaction) ([]models.Transaction, error) {
	if m.SaveTransactionsFunc != nil {
		return m.SaveTransactionsFunc(ctx, accountID, transactions)
	}
	return transactions, nil
}

func (m *MockDatabaseClient) ReplaceTransactions(ctx context.Context, accountID string, transactions []models.Transaction) error {
	if m.ReplaceTransactionsFunc != nil {
		return m.ReplaceTransactionsFunc(ctx, accountID, transactions)
	}
	return nil
}

func (m *MockDatabaseClient) DeleteTransaction(ctx context.Context, accountID, transactionID string) error {
	if m.DeleteTransactionFunc != nil {
		return m.DeleteTransactionFunc(ctx, accountID, transactionID)
	}
	return nil
}

func (m *MockDatabaseClient) SetTransactionPinned(ctx context.Context, accountID, transactionID string, pinned bool) error {
	if m.SetTransactionPinnedFunc != nil {
		return m.SetTransactionPinnedFunc(ctx, accountID, transactionID, pinned)
	}
	return nil
}

// MockBlobClient is a mock implementation of BlobClient
type MockBlobClient struct {
	UploadTextFunc   func(ctx context.Context, containerName, blobName, content string) error
	DownloadTextFunc func(ctx context.Context, containerName, blobName string) (string, error)
}

func (m *MockBlobClient) UploadText(ctx context.Context, containerName, blobName, content string) error {
	if m.UploadTextFunc != nil {
		return m.UploadTextFunc(ctx, containerName, blobName, content)
	}
	return nil
}

func (m *MockBlobClient) DownloadText(ctx context.Context, containerName, blobName string) (string, error) {
	if m.DownloadTextFunc != nil {
		return m.DownloadTextFunc(ctx, containerName, blobName)
	}
	return "", nil
}

// MockQueueClient is a mock implementation of QueueClient
type MockQueueClient struct {
	EnqueueMessageFunc func(ctx context.Context, queueName string, message any) error
}

func (m *MockQueueClient) EnqueueMessage(ctx context.Context, queueName string, message any) error {
	if m.EnqueueMessageFunc != nil {
		return m.EnqueueMessageFunc(ctx, queueName, message)
	}
	return nil
}

// MockEmailClient is a mock implementation of EmailClient
type MockEmailClient struct {
	SendErrorEmailFunc   func(ctx context.Context, recipients []string, errors []string) error
	SendSummaryEmailFunc func(ctx context.Context, recipients []string, summaries []models.AccountSummary) error
}

func (m *MockEmailClient) SendErrorEmail(ctx context.Context, recipients []string, errors []string) error {
	if m.SendErrorEmailFunc != nil {
		return m.SendErrorEmailFunc(ctx, recipients, errors)
	}
	return nil
}

func (m *MockEmailClient) SendSummaryEmail(ctx context.Context, recipients []string, summaries []models.AccountSummary) error {
	if m.SendSummaryEmailFunc != nil {
		return m.SendSummaryEmailFunc(ctx, recipients, summaries)
	}
	return nil
}

// MockTransactionSource is a mock implementation of TransactionSource
type MockTransactionSource struct {
	FetchTransactionsFunc func(ctx context.Context, rawURL string) ([]models.Transaction, error)
	FetchInterestsFunc    func(ctx context.Context, rawURL string) ([]tracker.InterestRecord, error)
}

func (m *MockTransactionSource) FetchTransactions(ctx context.Context, rawURL string) ([]models.Transaction, error) {
	if m.FetchTransactionsFunc != nil {
		return m.FetchTransactionsFunc(ctx, rawURL)
	}
	return nil, nil
}

func (m *MockTransactionSource) FetchInterests(ctx context.Context, rawURL string) ([]tracker.InterestRecord, error) {
	if m.FetchInterestsFunc != nil {
		return m.FetchInterestsFunc(ctx, rawURL)
	}
	return nil, nil
}

// MockCalculator is a mock implementation of Calculator
type MockCalculator struct {
	CalculateFunc func(date civil.Date, transactions []models.Transaction) models.InvestmentsResult
	SimulateFunc  func(start, target civil.Date, transactions []models.Transaction) models.SimulationResult
}

func (m *MockCalculator) Calculate(date civil.Date, transactions []models.Transaction) models.InvestmentsResult {
	if m.CalculateFunc != nil {
		return m.CalculateFunc(date, transactions)
	}
	return models.InvestmentsResult{}
}

func (m *MockCalculator) Simulate(start, target civil.Date, transactions []models.Transaction) models.SimulationResult {
	if m.SimulateFunc != nil {
		return m.SimulateFunc(start, target, transactions)
	}
	return models.SimulationResult{}
}
