package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// GCSService stores text objects in a Google Cloud Storage bucket.
// Containers become object name prefixes inside the bucket.
type GCSService struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

// NewGCSService uses Application Default Credentials.
func NewGCSService(ctx context.Context, bucket string, logger *zap.Logger) (*GCSService, error) {
	if bucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET environment variable is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	logger.Info("gcs service initialized successfully", zap.String("bucket", bucket))
	return &GCSService{client: client, bucket: bucket, logger: logger}, nil
}

// Close releases the storage client.
func (s *GCSService) Close() error {
	return s.client.Close()
}

// UploadText writes text to <container>/<name>.
func (s *GCSService) UploadText(ctx context.Context, containerName, blobName, text string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	objectName := path.Join(containerName, blobName)
	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := io.WriteString(w, text); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload of %s: %w", objectName, err)
	}
	s.logger.Info("uploaded object", zap.String("bucket", s.bucket), zap.String("object", objectName), zap.Int("size_bytes", len(text)))
	return nil
}

// DownloadText reads <container>/<name>.
func (s *GCSService) DownloadText(ctx context.Context, containerName, blobName string) (string, error) {
	objectName := path.Join(containerName, blobName)
	r, err := s.client.Bucket(s.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", fmt.Errorf("object %s: %w", objectName, models.ErrNotFound)
		}
		return "", fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read GCS object: %w", err)
	}
	return string(data), nil
}
