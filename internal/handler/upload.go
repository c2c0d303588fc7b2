package handler

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// HandleUpload stores an uploaded CSV and schedules its import into ?account.
func (d *Dependencies) HandleUpload(w http.ResponseWriter, r *http.Request) {
	logger := d.logger()

	accountID := r.URL.Query().Get("account")
	if accountID == "" {
		WriteError(w, http.StatusBadRequest, "Missing account")
		return
	}

	// 10MB limit
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		logger.Warn("failed to parse multipart form", zap.Error(err), zap.Int("max_size_mb", 10))
		WriteError(w, http.StatusBadRequest, "File too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.Warn("failed to get file from form", zap.Error(err))
		WriteError(w, http.StatusBadRequest, "Failed to get file")
		return
	}
	defer file.Close()

	account, ok := d.loadAccount(w, r, accountID)
	if !ok {
		return
	}

	bytes, err := io.ReadAll(file)
	if err != nil {
		logger.Error("failed to read uploaded file", zap.String("filename", header.Filename), zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	logger.Info("received file upload", zap.String("filename", header.Filename), zap.Int("size_bytes", len(bytes)))

	blobName := uuid.New().String() + ".csv"
	if err := d.Blob.UploadText(r.Context(), d.Settings.UploadsContainer, blobName, string(bytes)); err != nil {
		d.Metrics.IncrExternalError("blob")
		logger.Error("failed to upload blob", zap.String("blob_name", blobName), zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to upload blob")
		return
	}

	job := models.Job{Kind: models.JobImport, AccountID: account.ID, BlobName: blobName}
	if err := d.dispatch(r.Context(), job); err != nil {
		logger.Error("failed to dispatch import job", zap.String("blob_name", blobName), zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "Failed to schedule import")
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":   "accepted",
		"blobName": blobName,
	})
}

// HandleSync schedules a tracker sync for the account.
func (d *Dependencies) HandleSync(w http.ResponseWriter, r *http.Request) {
	account, ok := d.account(w, r)
	if !ok {
		return
	}
	if account.URL == "" {
		WriteError(w, http.StatusBadRequest, "Account has no tracker url")
		return
	}

	if err := d.dispatch(r.Context(), models.Job{Kind: models.JobSync, AccountID: account.ID}); err != nil {
		d.logger().Error("failed to dispatch sync job", zap.String("account_id", account.ID), zap.Error(err))
		WriteError(w, http.StatusBadGateway, "Failed to sync account")
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleInterests returns the tracker's recent interest records for the account.
func (d *Dependencies) HandleInterests(w http.ResponseWriter, r *http.Request) {
	account, ok := d.account(w, r)
	if !ok {
		return
	}
	if account.URL == "" {
		WriteError(w, http.StatusBadRequest, "Account has no tracker url")
		return
	}

	records, err := d.Source.FetchInterests(r.Context(), account.URL)
	if err != nil {
		d.Metrics.IncrExternalError("tracker")
		d.logger().Error("failed to fetch interests", zap.String("account_id", account.ID), zap.Error(err))
		WriteError(w, http.StatusBadGateway, "Failed to fetch interests")
		return
	}
	WriteJSON(w, http.StatusOK, records)
}
