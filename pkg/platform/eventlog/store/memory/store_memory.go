package memory

import (
	"context"
	"sync"

	"tombola/pkg/platform/eventlog"
)

// InMemoryStore keeps events in process memory, indexed by epoch. Used in
// tests and single-node deployments without a database.
type InMemoryStore struct {
	mu      sync.RWMutex
	all     []eventlog.Event
	byEpoch map[uint64][]eventlog.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byEpoch: make(map[uint64][]eventlog.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = nil
	s.byEpoch = make(map[uint64][]eventlog.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event eventlog.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all = append(s.all, event)
	s.byEpoch[event.Epoch] = append(s.byEpoch[event.Epoch], event)
	return nil
}

func (s *InMemoryStore) ListByEpoch(_ context.Context, epoch uint64) ([]eventlog.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]eventlog.Event{}, s.byEpoch[epoch]...), nil
}

// ListRecent returns the most recent N events in emission order.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]eventlog.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.all) - limit
	if start < 0 {
		start = 0
	}
	return append([]eventlog.Event{}, s.all[start:]...), nil
}
