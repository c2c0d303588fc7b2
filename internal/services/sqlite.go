package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// SQLiteStore keeps accounts and transactions in a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path and applies the schema.
func NewSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("sqlite store initialized successfully", zap.String("path", path))
	return s, nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			account_id TEXT NOT NULL,
			id TEXT NOT NULL,
			date TEXT NOT NULL,
			amount TEXT NOT NULL,
			type TEXT NOT NULL,
			pinned INTEGER NOT NULL DEFAULT 0,
			is_simulated INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (account_id, id),
			FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions (account_id, date);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// ListAccounts returns every account without its transactions.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, url FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.URL); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetAccount returns the account metadata or models.ErrNotFound.
func (s *SQLiteStore) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	var a models.Account
	err := s.db.QueryRowContext(ctx, `SELECT id, name, url FROM accounts WHERE id = ?`, accountID).
		Scan(&a.ID, &a.Name, &a.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return &a, nil
}

// SaveAccount creates or replaces the account metadata.
func (s *SQLiteStore) SaveAccount(ctx context.Context, account models.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, url) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, url = excluded.url`,
		account.ID, account.Name, account.URL)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	return nil
}

// DeleteAccount removes the account and, by cascade, its transactions.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, accountID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", accountID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %s: %w", accountID, models.ErrNotFound)
	}
	return nil
}

// GetTransactions returns the account's transactions sorted by date, then id.
func (s *SQLiteStore) GetTransactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, amount, type, pinned, is_simulated FROM transactions
		 WHERE account_id = ? ORDER BY date, id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var r transactionRecord
		if err := rows.Scan(&r.ID, &r.Date, &r.Amount, &r.Type, &r.Pinned, &r.IsSimulated); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t, err := r.toTransaction()
		if err != nil {
			s.logger.Warn("skipping unreadable transaction row",
				zap.String("account_id", accountID), zap.Error(err))
			continue
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

const upsertTransaction = `INSERT INTO transactions (account_id, id, date, amount, type, pinned, is_simulated)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(account_id, id) DO UPDATE SET
		date = excluded.date, amount = excluded.amount, type = excluded.type,
		pinned = excluded.pinned, is_simulated = excluded.is_simulated`

// SaveTransactions upserts the given transactions and returns the ones that were not stored before.
func (s *SQLiteStore) SaveTransactions(ctx context.Context, accountID string, transactions []models.Transaction) ([]models.Transaction, error) {
	var added []models.Transaction
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		added, err = s.upsert(ctx, tx, accountID, transactions)
		return err
	})
	if err != nil {
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
func (s *SQLiteStore) ReplaceTransactions(ctx context.Context, accountID string, transactions []models.Transaction) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE account_id = ?`, accountID); err != nil {
			return fmt.Errorf("failed to clear transactions: %w", err)
		}
		_, err := s.upsert(ctx, tx, accountID, transactions)
		return err
	})
}

func (s *SQLiteStore) upsert(ctx context.Context, tx *sql.Tx, accountID string, transactions []models.Transaction) ([]models.Transaction, error) {
	exists, err := tx.PrepareContext(ctx, `SELECT 1 FROM transactions WHERE account_id = ? AND id = ?`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare lookup: %w", err)
	}
	defer exists.Close()
	stmt, err := tx.PrepareContext(ctx, upsertTransaction)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	var added []models.Transaction
	for _, t := range transactions {
		var one int
		err := exists.QueryRowContext(ctx, accountID, t.ID).Scan(&one)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			added = append(added, t)
		case err != nil:
			return nil, fmt.Errorf("failed to look up transaction %s: %w", t.ID, err)
		}

		r := toRecord(t)
		if _, err := stmt.ExecContext(ctx, accountID, r.ID, r.Date, r.Amount, r.Type, r.Pinned, r.IsSimulated); err != nil {
			return nil, fmt.Errorf("failed to save transaction %s: %w", t.ID, err)
		}
	}
	return added, nil
}

// DeleteTransaction removes one transaction or returns models.ErrNotFound.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, accountID, transactionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE account_id = ? AND id = ?`, accountID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", transactionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", transactionID, models.ErrNotFound)
	}
	return nil
}

// SetTransactionPinned flips the pinned flag of one stored transaction.
func (s *SQLiteStore) SetTransactionPinned(ctx context.Context, accountID, transactionID string, pinned bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE transactions SET pinned = ? WHERE account_id = ? AND id = ?`, pinned, accountID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", transactionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", transactionID, models.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
