package services

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// BlobService handles interactions with Azure Blob Storage.
type BlobService struct {
	client *azblob.Client
	logger *zap.Logger
}

// NewBlobService creates a new BlobService instance.
func NewBlobService(blobURL string, logger *zap.Logger) (*BlobService, error) {
	if blobURL == "" {
		return nil, fmt.Errorf("BLOB_SERVICE_URL environment variable is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("initializing blob service", zap.String("blob_url", blobURL))
	var client *azblob.Client

	// Check if running locally with Azurite (http endpoint)
	if isLocal(blobURL) {
		logger.Info("using Azurite shared key credentials for blob service")
		name, key := getAzuriteCredentials()
		cred, err := azblob.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client with shared key: %w", err)
		}
	} else {
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azblob.NewClient(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
	}

	logger.Info("blob service initialized successfully")
	return &BlobService{client: client, logger: logger}, nil
}

// UploadText uploads a string to a blob, creating the container on first use.
func (s *BlobService) UploadText(ctx context.Context, containerName, blobName, text string) error {
	s.logger.Info("uploading blob",
		zap.String("container", containerName),
		zap.String("blob_name", blobName),
		zap.Int("size_bytes", len(text)),
	)
	_, err := s.client.CreateContainer(ctx, containerName, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		s.logger.Warn("failed to create container", zap.String("container", containerName), zap.Error(err))
	}

	if _, err := s.client.UploadBuffer(ctx, containerName, blobName, []byte(text), nil); err != nil {
		s.logger.Error("failed to upload blob", zap.String("container", containerName), zap.String("blob_name", blobName), zap.Error(err))
		return fmt.Errorf("failed to upload blob %s/%s: %w", containerName, blobName, err)
	}
	return nil
}

// DownloadText downloads a blob and returns its content as a string.
func (s *BlobService) DownloadText(ctx context.Context, containerName, blobName string) (string, error) {
	s.logger.Info("downloading blob", zap.String("container", containerName), zap.String("blob_name", blobName))
	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return "", fmt.Errorf("blob %s/%s: %w", containerName, blobName, models.ErrNotFound)
		}
		return "", fmt.Errorf("failed to download blob %s/%s: %w", containerName, blobName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read blob content: %w", err)
	}
	return string(data), nil
}
