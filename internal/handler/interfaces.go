package handler

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
	"github.com/pwabucket/pwa-ai-earn/internal/tracker"
)

// DatabaseClient defines the interface for database operations used by handlers.
type DatabaseClient interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)
	SaveAccount(ctx context.Context, account models.Account) error
	DeleteAccount(ctx context.Context, accountID string) error

	GetTransactions(ctx context.Context, accountID string) ([]models.Transaction, error)
	SaveTransactions(ctx context.Context, accountID string, transactions []models.Transaction) ([]models.Transaction, error)
	ReplaceTransactions(ctx context.Context, accountID string, transactions []models.Transaction) error
	DeleteTransaction(ctx context.Context, accountID, transactionID string) error
	SetTransactionPinned(ctx context.Context, accountID, transactionID string, pinned bool) error
}

// BlobClient defines the interface for blob storage operations used by handlers.
type BlobClient interface {
	UploadText(ctx context.Context, containerName, blobName, content string) error
	DownloadText(ctx context.Context, containerName, blobName string) (string, error)
}

// QueueClient defines the interface for queue operations used by handlers.
type QueueClient interface {
	EnqueueMessage(ctx context.Context, queueName string, message any) error
}

// EmailClient defines the interface for email operations used by handlers.
type EmailClient interface {
	SendErrorEmail(ctx context.Context, recipients []string, errors []string) error
	SendSummaryEmail(ctx context.Context, recipients []string, summaries []models.AccountSummary) error
}

// TransactionSource fetches an account's history from its remote tracker.
type TransactionSource interface {
	FetchTransactions(ctx context.Context, rawURL string) ([]models.Transaction, error)
	FetchInterests(ctx context.Context, rawURL string) ([]tracker.InterestRecord, error)
}

// Calculator runs the investment engine, possibly memoised.
type Calculator interface {
	Calculate(date civil.Date, transactions []models.Transaction) models.InvestmentsResult
	Simulate(start, target civil.Date, transactions []models.Transaction) models.SimulationResult
}
