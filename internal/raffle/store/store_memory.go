// Package store persists concluded round records. The ledger holds only the
// live round; everything a draw concludes lands here for history queries.
package store

import (
	"context"
	"sort"
	"sync"

	"tombola/internal/raffle/models"
	"tombola/pkg/platform/sentinel"
)

type InMemoryArchive struct {
	mu     sync.RWMutex
	rounds map[uint64]models.RoundRecord
}

func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{rounds: make(map[uint64]models.RoundRecord)}
}

// Save records a concluded round. Saving an epoch that is already archived
// is a no-op, mirroring the conflict behavior of the Postgres archive.
func (a *InMemoryArchive) Save(_ context.Context, record models.RoundRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.rounds[record.Epoch]; exists {
		return nil
	}
	a.rounds[record.Epoch] = record
	return nil
}

func (a *InMemoryArchive) FindByEpoch(_ context.Context, epoch uint64) (*models.RoundRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	record, ok := a.rounds[epoch]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &record, nil
}

func (a *InMemoryArchive) ListRecent(_ context.Context, limit int) ([]models.RoundRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	records := make([]models.RoundRecord, 0, len(a.rounds))
	for _, record := range a.rounds {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Epoch > records[j].Epoch })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
