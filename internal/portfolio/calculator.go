// Package portfolio memoises engine results per transaction snapshot.
package portfolio

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/patrickmn/go-cache"

	"github.com/pwabucket/pwa-ai-earn/internal/engine"
	"github.com/pwabucket/pwa-ai-earn/internal/models"
	"github.com/pwabucket/pwa-ai-earn/internal/observability"
	"github.com/pwabucket/pwa-ai-earn/internal/utils"
)

const cacheName = "portfolio"

// Calculator runs the engine and keeps recent results keyed by their inputs.
type Calculator struct {
	cache   *cache.Cache
	metrics *observability.Metrics
}

// NewCalculator creates a calculator whose results expire after ttl.
func NewCalculator(ttl time.Duration, metrics *observability.Metrics) *Calculator {
	return &Calculator{
		cache:   cache.New(ttl, 2*ttl),
		metrics: metrics,
	}
}

// Calculate returns the current state and maturity projections as of date.
func (c *Calculator) Calculate(date civil.Date, transactions []models.Transaction) models.InvestmentsResult {
	key := cacheKey("calculate", transactions, date)
	if v, ok := c.lookup(key); ok {
		return v.(models.InvestmentsResult)
	}

	start := time.Now()
	result := engine.CalculateInvestments(date, transactions)
	c.metrics.RecordComputeDuration("calculate", time.Since(start))

	c.cache.SetDefault(key, result)
	return result
}

// Simulate returns the compounding projection from start to target.
func (c *Calculator) Simulate(start, target civil.Date, transactions []models.Transaction) models.SimulationResult {
	key := cacheKey("simulate", transactions, start, target)
	if v, ok := c.lookup(key); ok {
		return v.(models.SimulationResult)
	}

	began := time.Now()
	result := engine.SimulateInvestments(start, target, transactions)
	c.metrics.RecordComputeDuration("simulate", time.Since(began))

	c.cache.SetDefault(key, result)
	return result
}

func (c *Calculator) lookup(key string) (interface{}, bool) {
	v, ok := c.cache.Get(key)
	if ok {
		c.metrics.IncrCacheHit(cacheName)
	} else {
		c.metrics.IncrCacheMiss(cacheName)
	}
	return v, ok
}

// cacheKey hashes the operation, its dates and the transactions in a stable order.
func cacheKey(op string, transactions []models.Transaction, dates ...civil.Date) string {
	sorted := append([]models.Transaction(nil), transactions...)
	models.SortTransactions(sorted)

	var b strings.Builder
	b.WriteString(op)
	for _, d := range dates {
		b.WriteString("|")
		b.WriteString(d.String())
	}
	for _, tx := range sorted {
		b.WriteString("\n")
		b.WriteString(tx.ID)
		b.WriteString("|")
		b.WriteString(tx.Date.String())
		b.WriteString("|")
		b.WriteString(string(tx.Type))
		b.WriteString("|")
		b.WriteString(tx.Amount.String())
		b.WriteString("|")
		b.WriteString(strconv.FormatBool(tx.Pinned))
		b.WriteString("|")
		b.WriteString(strconv.FormatBool(tx.IsSimulated))
	}
	return utils.GenerateSHA256Hash(b.String())
}
