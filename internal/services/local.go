package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// LocalFileStore keeps text objects as files under a base directory, one sub-directory per container.
type LocalFileStore struct {
	dir    string
	logger *zap.Logger
}

// NewLocalFileStore creates the base directory if it does not exist.
func NewLocalFileStore(dir string, logger *zap.Logger) (*LocalFileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory %s: %w", dir, err)
	}
	return &LocalFileStore{dir: dir, logger: logger}, nil
}

func (s *LocalFileStore) path(containerName, blobName string) (string, error) {
	if filepath.Base(blobName) != blobName || blobName == "." || blobName == ".." {
		return "", fmt.Errorf("invalid object name %q", blobName)
	}
	return filepath.Join(s.dir, filepath.Base(containerName), blobName), nil
}

// UploadText writes text to <dir>/<container>/<name>.
func (s *LocalFileStore) UploadText(_ context.Context, containerName, blobName, text string) error {
	p, err := s.path(containerName, blobName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create container directory: %w", err)
	}
	if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	s.logger.Info("wrote file", zap.String("path", p), zap.Int("size_bytes", len(text)))
	return nil
}

// DownloadText reads <dir>/<container>/<name>.
func (s *LocalFileStore) DownloadText(_ context.Context, containerName, blobName string) (string, error) {
	p, err := s.path(containerName, blobName)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file %s: %w", p, models.ErrNotFound)
		}
		return "", fmt.Errorf("failed to read %s: %w", p, err)
	}
	return string(data), nil
}
