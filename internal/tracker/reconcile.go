package tracker

import (
	"github.com/pwabucket/pwa-ai-earn/internal/models"
)

// Reconcile merges a fresh remote history into the stored one. The remote list wins,
// except that pinned stored transactions are kept exactly as they are.
func Reconcile(existing, remote []models.Transaction) []models.Transaction {
	pinned := make(map[string]models.Transaction)
	for _, t := range existing {
		if t.Pinned {
			pinned[t.ID] = t
		}
	}

	merged := make([]models.Transaction, 0, len(remote)+len(pinned))
	for _, t := range remote {
		if p, ok := pinned[t.ID]; ok {
			merged = append(merged, p)
			delete(pinned, t.ID)
			continue
		}
		merged = append(merged, t)
	}
	for _, t := range existing {
		if _, ok := pinned[t.ID]; ok {
			merged = append(merged, t)
		}
	}

	models.SortTransactions(merged)
	return merged
}
