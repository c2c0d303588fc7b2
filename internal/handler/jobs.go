package handler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/csvparse"
	"github.com/pwabucket/pwa-ai-earn/internal/models"
	"github.com/pwabucket/pwa-ai-earn/internal/tracker"
)

// errJobRejected marks jobs that can never succeed; the queue message is consumed instead of retried.
var errJobRejected = errors.New("job rejected")

// dispatch enqueues the job, or runs it inline when no queue is configured.
func (d *Dependencies) dispatch(ctx context.Context, job models.Job) error {
	if d.Queue == nil {
		return d.runJob(ctx, job)
	}
	if err := d.Queue.EnqueueMessage(ctx, d.Settings.JobsQueue, job); err != nil {
		d.Metrics.IncrExternalError("queue")
		return err
	}
	d.logger().Info("enqueued job",
		zap.String("kind", string(job.Kind)),
		zap.String("account_id", job.AccountID),
		zap.String("queue", d.Settings.JobsQueue),
	)
	return nil
}

func (d *Dependencies) runJob(ctx context.Context, job models.Job) error {
	if job.AccountID == "" {
		return fmt.Errorf("%w: missing account_id", errJobRejected)
	}
	account, err := d.Database.GetAccount(ctx, job.AccountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: %v", errJobRejected, err)
		}
		return err
	}

	switch job.Kind {
	case models.JobImport:
		return d.runImport(ctx, account, job.BlobName)
	case models.JobSync:
		return d.runSync(ctx, account)
	default:
		return fmt.Errorf("%w: unknown kind %q", errJobRejected, job.Kind)
	}
}

// runImport stores the transactions of an uploaded CSV and mails any row errors.
func (d *Dependencies) runImport(ctx context.Context, account *models.Account, blobName string) error {
	if blobName == "" {
		return fmt.Errorf("%w: missing blob_name", errJobRejected)
	}
	logger := d.logger().With(zap.String("account_id", account.ID), zap.String("blob_name", blobName))

	csvContent, err := d.Blob.DownloadText(ctx, d.Settings.UploadsContainer, blobName)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: %v", errJobRejected, err)
		}
		d.Metrics.IncrExternalError("blob")
		return fmt.Errorf("failed to download CSV: %w", err)
	}

	transactions, rowErrors := csvparse.ParseCSV(csvContent)
	logger.Info("parsed CSV content",
		zap.Int("transactions_count", len(transactions)),
		zap.Int("errors_count", len(rowErrors)),
	)

	if len(rowErrors) > 0 {
		d.notifyErrors(ctx, rowErrors)
	}
	if len(transactions) == 0 {
		logger.Warn("CSV contained no valid transactions")
		return nil
	}

	added, err := d.Database.SaveTransactions(ctx, account.ID, transactions)
	if err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}
	logger.Info("import complete", zap.Int("new_transactions_count", len(added)))
	return nil
}

// runSync replaces the account's transactions with the tracker history, keeping pinned lines.
func (d *Dependencies) runSync(ctx context.Context, account *models.Account) error {
	if account.URL == "" {
		return fmt.Errorf("%w: account %s has no tracker url", errJobRejected, account.ID)
	}
	logger := d.logger().With(zap.String("account_id", account.ID))

	remote, err := d.Source.FetchTransactions(ctx, account.URL)
	if err != nil {
		d.Metrics.IncrSync("error")
		d.Metrics.IncrExternalError("tracker")
		if errors.Is(err, tracker.ErrInvalidURL) {
			return fmt.Errorf("%w: %v", errJobRejected, err)
		}
		return fmt.Errorf("failed to fetch tracker history: %w", err)
	}

	existing, err := d.Database.GetTransactions(ctx, account.ID)
	if err != nil {
		d.Metrics.IncrSync("error")
		return fmt.Errorf("failed to get transactions: %w", err)
	}

	merged := tracker.Reconcile(existing, remote)
	if err := d.Database.ReplaceTransactions(ctx, account.ID, merged); err != nil {
		d.Metrics.IncrSync("error")
		return fmt.Errorf("failed to replace transactions: %w", err)
	}

	d.Metrics.IncrSync("success")
	logger.Info("sync complete",
		zap.Int("remote_count", len(remote)),
		zap.Int("existing_count", len(existing)),
		zap.Int("stored_count", len(merged)),
	)
	return nil
}

func (d *Dependencies) notifyErrors(ctx context.Context, rowErrors []string) {
	if d.Email == nil || d.Settings.UserEmail == "" {
		return
	}
	if err := d.Email.SendErrorEmail(ctx, []string{d.Settings.UserEmail}, rowErrors); err != nil {
		d.Metrics.IncrExternalError("email")
		d.logger().Error("failed to send import error email", zap.Error(err))
	}
}
