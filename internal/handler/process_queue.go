package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// invokeRequest represents the payload from Azure Functions Custom Handler.
type invokeRequest struct {
	Data     map[string]any `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// ProcessQueue handles the queue trigger carrying import and sync jobs.
// Malformed or impossible jobs are consumed; transient failures return 500 so the host retries.
func (d *Dependencies) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	logger := d.logger()

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("failed to read queue request body", zap.Error(err))
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var invokeReq invokeRequest
	if err := json.Unmarshal(bodyBytes, &invokeReq); err != nil {
		logger.Error("failed to unmarshal queue request", zap.Error(err))
		WriteError(w, http.StatusBadRequest, "Failed to unmarshal request")
		return
	}

	queueItemVal, ok := invokeReq.Data["queueItem"]
	if !ok {
		queueItemVal, ok = invokeReq.Data["queueitem"]
		if !ok {
			WriteError(w, http.StatusBadRequest, "Missing queueItem in Data")
			return
		}
	}

	job, err := decodeJob(queueItemVal)
	if err != nil {
		logger.Error("failed to decode queue item", zap.Error(err))
		WriteError(w, http.StatusBadRequest, "Invalid queueItem: "+err.Error())
		return
	}

	logger.Info("processing queue item", zap.String("kind", string(job.Kind)), zap.String("account_id", job.AccountID))

	if err := d.runJob(r.Context(), job); err != nil {
		if errors.Is(err, errJobRejected) {
			logger.Warn("discarding job", zap.String("kind", string(job.Kind)), zap.Error(err))
			w.WriteHeader(http.StatusOK)
			return
		}
		logger.Error("job failed", zap.String("kind", string(job.Kind)), zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "Job failed: "+err.Error())
		return
	}

	logger.Info("queue processing complete", zap.String("kind", string(job.Kind)), zap.String("account_id", job.AccountID))
	w.WriteHeader(http.StatusOK)
}

// decodeJob accepts the queue item either as a JSON string or as an already decoded object.
func decodeJob(item any) (models.Job, error) {
	var raw []byte
	switch v := item.(type) {
	case string:
		raw = []byte(v)
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return models.Job{}, err
		}
		raw = b
	default:
		return models.Job{}, errors.New("queueItem is neither a string nor an object")
	}

	var job models.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return models.Job{}, err
	}
	return job, nil
}
