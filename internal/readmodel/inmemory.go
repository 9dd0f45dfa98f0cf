package readmodel

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore is a thread-safe, in-memory Read Model store.
//
// Upsert keeps the stored Read Model when it has been built from a newer
// version of the Aggregate than the one being upserted.
type InMemoryStore[M Model] struct {
	mx     sync.RWMutex
	models map[string]M
}

// NewInMemoryStore returns an empty InMemoryStore.
func NewInMemoryStore[M Model]() *InMemoryStore[M] {
	return &InMemoryStore[M]{models: make(map[string]M)}
}

// Upsert implements the projection.Store interface.
func (s *InMemoryStore[M]) Upsert(ctx context.Context, model M) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	if current, ok := s.models[model.Key()]; ok && current.AppliedVersion() > model.AppliedVersion() {
		return nil
	}

	s.models[model.Key()] = model

	return nil
}

// Get returns the Read Model with the specified key, if any.
func (s *InMemoryStore[M]) Get(_ context.Context, key string) (M, bool, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	model, ok := s.models[key]

	return model, ok, nil
}

// All returns all the Read Models matching the predicate, sorted by key.
// A nil predicate matches all the Read Models.
func (s *InMemoryStore[M]) All(_ context.Context, match func(M) bool) []M {
	s.mx.RLock()
	defer s.mx.RUnlock()

	result := make([]M, 0, len(s.models))

	for _, model := range s.models {
		if match == nil || match(model) {
			result = append(result, model)
		}
	}

	slices.SortFunc(result, func(a, b M) int { return cmp.Compare(a.Key(), b.Key()) })

	return result
}

// InMemoryBookingStore is an InMemoryStore for Booking Read Models,
// supporting BookingFilter queries.
type InMemoryBookingStore struct {
	*InMemoryStore[Booking]
}

// NewInMemoryBookingStore returns an empty InMemoryBookingStore.
func NewInMemoryBookingStore() InMemoryBookingStore {
	return InMemoryBookingStore{InMemoryStore: NewInMemoryStore[Booking]()}
}

// Get returns the Booking with the specified id, if any.
func (s InMemoryBookingStore) Get(ctx context.Context, id uuid.UUID) (Booking, bool, error) {
	return s.InMemoryStore.Get(ctx, id.String())
}

// List returns the Bookings matching the filter, ordered by start date.
func (s InMemoryBookingStore) List(ctx context.Context, filter BookingFilter) ([]Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := s.All(ctx, filter.Matches)
	sortBookings(result)

	return result, nil
}

func sortBookings(bookings []Booking) {
	slices.SortStableFunc(bookings, func(a, b Booking) int {
		return a.StartDate.Compare(b.StartDate)
	})
}

// InMemoryAccommodationStore is an InMemoryStore for Sleeping Accommodation Read Models.
type InMemoryAccommodationStore struct {
	*InMemoryStore[Accommodation]
}

// NewInMemoryAccommodationStore returns an empty InMemoryAccommodationStore.
func NewInMemoryAccommodationStore() InMemoryAccommodationStore {
	return InMemoryAccommodationStore{InMemoryStore: NewInMemoryStore[Accommodation]()}
}

// List returns the Sleeping Accommodations ordered by name,
// optionally including only the active ones.
func (s InMemoryAccommodationStore) List(ctx context.Context, activeOnly bool) ([]Accommodation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := s.All(ctx, func(a Accommodation) bool { return !activeOnly || a.IsActive })
	slices.SortStableFunc(result, func(a, b Accommodation) int { return cmp.Compare(a.Name, b.Name) })

	return result, nil
}
