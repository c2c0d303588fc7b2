package tracker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/models"
	"github.com/pwabucket/pwa-ai-earn/internal/resilience"
)

// Source fetches and maps tracker histories for any number of accounts.
type Source struct {
	opts     Options
	codes    *CodeCache
	bulkhead *resilience.Bulkhead
	pageSize int
	loc      *time.Location
	logger   *zap.Logger
}

// NewSource creates a source. At most Resilience.MaxConcurrency fetches run at once.
func NewSource(opts Options, pageSize int, loc *time.Location, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		opts:     opts,
		codes:    NewCodeCache(),
		bulkhead: resilience.NewBulkhead(opts.Resilience.MaxConcurrency),
		pageSize: pageSize,
		loc:      loc,
		logger:   logger,
	}
}

func (s *Source) client(ctx context.Context, rawURL string) (*Client, error) {
	c, err := NewClient(rawURL, s.opts)
	if err != nil {
		return nil, err
	}
	if err := s.codes.Initialize(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// FetchTransactions returns the tracker history behind rawURL as transactions.
// Malformed records are logged and dropped.
func (s *Source) FetchTransactions(ctx context.Context, rawURL string) ([]models.Transaction, error) {
	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.bulkhead.Release()

	c, err := s.client(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	records, err := c.FetchRecords(ctx, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracker transactions: %w", err)
	}

	transactions, errs := MapRecords(records, s.loc)
	for _, e := range errs {
		s.logger.Warn("skipping tracker record", zap.String("origin", c.Origin()), zap.String("error", e))
	}
	s.logger.Debug("fetched tracker transactions",
		zap.String("origin", c.Origin()),
		zap.Int("records", len(records)),
		zap.Int("transactions", len(transactions)),
	)
	return transactions, nil
}

// FetchInterests returns the daily interest history behind rawURL.
func (s *Source) FetchInterests(ctx context.Context, rawURL string) ([]InterestRecord, error) {
	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.bulkhead.Release()

	c, err := s.client(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	records, err := c.FetchInterests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracker interests: %w", err)
	}
	return records, nil
}
