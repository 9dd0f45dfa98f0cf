package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/get-eventually/booking/event"
)

var _ Store = &InMemoryStore{}

// InMemoryStore is a map-based, thread-safe inmemory Snapshot store.
//
// Snapshots are keyed by the Aggregate id alone, like the snapshots table
// of the durable stores, so at most one Snapshot exists per Aggregate id.
//
// Since there is no entry eviction, it is suggested to use this store
// only for test scenarios.
type InMemoryStore struct {
	mx                     sync.RWMutex
	snapshotsByAggregateID map[string]Snapshot
}

// NewInMemoryStore returns a fresh new instance of an the InMemoryStore snapshot store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		snapshotsByAggregateID: make(map[string]Snapshot),
	}
}

// Record adds or overwrites the previous Aggregate Root state in the store internal state.
func (s *InMemoryStore) Record(ctx context.Context, snapshot Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("snapshot.InMemoryStore: context error, %w", err)
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	snapshot.State = append([]byte(nil), snapshot.State...)
	s.snapshotsByAggregateID[snapshot.StreamID.Name] = snapshot

	return nil
}

// Get returns the latest Snapshot recorded for the Aggregate.
// ErrNotFound is returned if no Aggregate Root state has been committed to the store.
func (s *InMemoryStore) Get(ctx context.Context, id event.StreamID) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot.InMemoryStore: context error, %w", err)
	}

	s.mx.RLock()
	defer s.mx.RUnlock()

	if snap, ok := s.snapshotsByAggregateID[id.Name]; ok {
		return snap, nil
	}

	return Snapshot{}, ErrNotFound
}

// MarshalJSON serializes the internal state of the store for debugging purposes.
func (s *InMemoryStore) MarshalJSON() ([]byte, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	byt, err := json.Marshal(s.snapshotsByAggregateID)
	if err != nil {
		return nil, fmt.Errorf("snapshot.InMemoryStore: failed to marshal internal state to json: %w", err)
	}

	return byt, nil
}
