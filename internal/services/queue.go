package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue/queueerror"
	"go.uber.org/zap"
)

// QueueService handles interactions with Azure Queue Storage.
type QueueService struct {
	serviceClient *azqueue.ServiceClient
	logger        *zap.Logger
}

// NewQueueService creates a new QueueService instance.
func NewQueueService(queueURL string, logger *zap.Logger) (*QueueService, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("QUEUE_SERVICE_URL environment variable is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("initializing queue service", zap.String("queue_url", queueURL))
	var client *azqueue.ServiceClient

	if isLocal(queueURL) {
		logger.Info("using Azurite shared key credentials for queue service")
		name, key := getAzuriteCredentials()
		cred, err := azqueue.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azqueue.NewServiceClientWithSharedKeyCredential(queueURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue service client with shared key: %w", err)
		}
	} else {
		logger.Info("using default Azure credentials for queue service")
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azqueue.NewServiceClient(queueURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue service client: %w", err)
		}
	}

	logger.Info("queue service initialized successfully")
	return &QueueService{serviceClient: client, logger: logger}, nil
}

// EncodeMessage serialises message the way the Functions host expects queue payloads: base64 JSON.
func EncodeMessage(message any) (string, error) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}
	return base64.StdEncoding.EncodeToString(msgBytes), nil
}

// EnqueueMessage adds a message to a queue, creating the queue on first use.
func (s *QueueService) EnqueueMessage(ctx context.Context, queueName string, message any) error {
	queueClient := s.serviceClient.NewQueueClient(queueName)

	_, err := queueClient.Create(ctx, nil)
	if err != nil && !queueerror.HasCode(err, queueerror.QueueAlreadyExists) {
		s.logger.Warn("failed to create queue", zap.String("queue", queueName), zap.Error(err))
	}

	encodedMsg, err := EncodeMessage(message)
	if err != nil {
		return err
	}

	if _, err := queueClient.EnqueueMessage(ctx, encodedMsg, nil); err != nil {
		s.logger.Error("failed to enqueue message", zap.String("queue", queueName), zap.Error(err))
		return fmt.Errorf("failed to enqueue message to %s: %w", queueName, err)
	}

	s.logger.Info("enqueued message", zap.String("queue", queueName))
	return nil
}
