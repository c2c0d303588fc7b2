package handler

import (
	"errors"
	"io"
	"net/http"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/backup"
	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// latestBackup is overwritten by every backup so restores have a stable name to read.
const latestBackup = "latest.json"

// HandleBackup writes every account and its transactions to backup storage.
func (d *Dependencies) HandleBackup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := d.logger()

	accounts, err := d.Database.ListAccounts(ctx)
	if err != nil {
		d.writeStoreError(w, err, "list accounts")
		return
	}
	for i := range accounts {
		transactions, err := d.Database.GetTransactions(ctx, accounts[i].ID)
		if err != nil {
			d.writeStoreError(w, err, "get transactions")
			return
		}
		accounts[i].Transactions = transactions
	}

	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	raw, err := backup.Encode(backup.New(d.Settings.Version, now, accounts))
	if err != nil {
		logger.Error("failed to encode backup", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to encode backup")
		return
	}

	name := backup.FileName(now)
	for _, blobName := range []string{name, latestBackup} {
		if err := d.Blob.UploadText(ctx, d.Settings.BackupContainer, blobName, string(raw)); err != nil {
			d.Metrics.IncrExternalError("backup")
			logger.Error("failed to upload backup", zap.String("blob_name", blobName), zap.Error(err))
			WriteError(w, http.StatusInternalServerError, "Failed to upload backup")
			return
		}
	}

	logger.Info("backup written", zap.String("blob_name", name), zap.Int("accounts", len(accounts)))
	WriteJSON(w, http.StatusCreated, map[string]any{
		"blobName": name,
		"accounts": len(accounts),
	})
}

// HandleDownloadBackup returns a stored backup document, ?name or the latest one.
func (d *Dependencies) HandleDownloadBackup(w http.ResponseWriter, r *http.Request) {
	name, ok := backupName(w, r)
	if !ok {
		return
	}

	content, err := d.Blob.DownloadText(r.Context(), d.Settings.BackupContainer, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "Backup not found")
			return
		}
		d.Metrics.IncrExternalError("backup")
		d.logger().Error("failed to download backup", zap.String("blob_name", name), zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to download backup")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, content)
}

// HandleRestore replaces stored accounts with a backup document.
// The document is the request body, or the stored backup named by ?name when the body is empty.
func (d *Dependencies) HandleRestore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := d.logger()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 32<<20))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(raw) == 0 {
		name, ok := backupName(w, r)
		if !ok {
			return
		}
		content, err := d.Blob.DownloadText(ctx, d.Settings.BackupContainer, name)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "Backup not found")
				return
			}
			logger.Error("failed to download backup", zap.String("blob_name", name), zap.Error(err))
			WriteError(w, http.StatusInternalServerError, "Failed to download backup")
			return
		}
		raw = []byte(content)
	}

	data, err := backup.Decode(raw, d.Location)
	if err != nil {
		logger.Warn("rejected backup document", zap.Error(err))
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	restored := 0
	for _, account := range data.Data.Accounts {
		meta := models.Account{ID: account.ID, Name: account.Name, URL: account.URL}
		if err := d.Database.SaveAccount(ctx, meta); err != nil {
			d.writeStoreError(w, err, "restore account")
			return
		}
		if err := d.Database.ReplaceTransactions(ctx, account.ID, account.Transactions); err != nil {
			d.writeStoreError(w, err, "restore transactions")
			return
		}
		restored += len(account.Transactions)
	}

	logger.Info("backup restored",
		zap.String("version", data.Version),
		zap.Int("accounts", len(data.Data.Accounts)),
		zap.Int("transactions", restored),
	)
	WriteJSON(w, http.StatusOK, map[string]any{
		"accounts":     len(data.Data.Accounts),
		"transactions": restored,
	})
}

func backupName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.URL.Query().Get("name")
	if name == "" {
		return latestBackup, true
	}
	if path.Base(name) != name || path.Ext(name) != ".json" {
		WriteError(w, http.StatusBadRequest, "Invalid backup name")
		return "", false
	}
	return name, true
}
