package projection_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/logger"
	"github.com/get-eventually/booking/projection"
	"github.com/get-eventually/booking/version"
)

var (
	now   = time.Now().UTC()
	today = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
)

type summary struct {
	ID      string
	Status  booking.Status
	Version version.Version
}

var summarize = projection.MapperFunc[*booking.Booking, summary](
	func(_ context.Context, b *booking.Booking) (summary, error) {
		return summary{ID: b.AggregateID().String(), Status: b.Status(), Version: b.Version()}, nil
	},
)

type flakyStore struct {
	mx       sync.Mutex
	failures int
	attempts int
	rows     map[string]summary
}

func (s *flakyStore) Upsert(_ context.Context, model summary) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.attempts++
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}

	if s.rows == nil {
		s.rows = make(map[string]summary)
	}

	if current, ok := s.rows[model.ID]; ok && current.Version > model.Version {
		return nil
	}

	s.rows[model.ID] = model

	return nil
}

var fastRetry = projection.RetryConfig{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	Multiplier:   2,
	MaxDelay:     5 * time.Millisecond,
}

func newBooking(t *testing.T) *booking.Booking {
	t.Helper()

	items := []booking.Item{{AccommodationID: uuid.New(), PersonCount: 2}}

	b, err := booking.Create(booking.ID(uuid.New()), 1, today.AddDate(0, 0, 1), today.AddDate(0, 0, 3), items, nil, now)
	require.NoError(t, err)

	return b
}

func newService(
	t *testing.T,
	eventStore *event.InMemoryStore,
	store projection.Store[summary],
	opts ...projection.Option,
) *projection.Service[booking.ID, *booking.Booking, summary] {
	t.Helper()

	opts = append(opts, projection.WithLogger(logger.NewTest(t)))

	return projection.NewService(
		booking.Type,
		aggregate.NewEventSourcedRepository(eventStore, booking.Type),
		eventStore,
		booking.ParseID,
		summarize,
		store,
		opts...,
	)
}

func TestService_Project(t *testing.T) {
	ctx := context.Background()

	t.Run("saving through the repository updates the read model", func(t *testing.T) {
		eventStore := event.NewInMemoryStore()
		store := new(flakyStore)
		service := newService(t, eventStore, store)

		repo := aggregate.NewEventSourcedRepository(eventStore, booking.Type,
			aggregate.WithProjector[booking.ID, *booking.Booking](service))

		b := newBooking(t)
		require.NoError(t, repo.Save(ctx, b))
		require.NoError(t, b.Confirm(now))
		require.NoError(t, repo.Save(ctx, b))

		assert.Equal(t, summary{
			ID:      b.AggregateID().String(),
			Status:  booking.StatusConfirmed,
			Version: 1,
		}, store.rows[b.AggregateID().String()])
	})

	t.Run("transient store failures are retried", func(t *testing.T) {
		store := &flakyStore{failures: 2}
		service := newService(t, event.NewInMemoryStore(), store, projection.WithRetry(fastRetry))

		require.NoError(t, service.Project(ctx, newBooking(t)))
		assert.Equal(t, 3, store.attempts)
		assert.Len(t, store.rows, 1)
	})

	t.Run("failures are propagated after the last attempt", func(t *testing.T) {
		store := &flakyStore{failures: 5}
		service := newService(t, event.NewInMemoryStore(), store, projection.WithRetry(fastRetry))

		err := service.Project(ctx, newBooking(t))
		assert.ErrorContains(t, err, "connection reset")
		assert.Equal(t, 3, store.attempts)
		assert.Empty(t, store.rows)
	})

	t.Run("retries can be disabled", func(t *testing.T) {
		store := &flakyStore{failures: 1}
		service := newService(t, event.NewInMemoryStore(), store, projection.WithRetry(projection.RetryConfig{MaxAttempts: 1}))

		assert.Error(t, service.Project(ctx, newBooking(t)))
		assert.Equal(t, 1, store.attempts)
	})

	t.Run("projecting an unknown aggregate fails with not found", func(t *testing.T) {
		service := newService(t, event.NewInMemoryStore(), new(flakyStore))

		err := service.ProjectByID(ctx, booking.ID(uuid.New()))
		assert.ErrorIs(t, err, projection.ErrNotFound)
	})
}

func TestService_RebuildAll(t *testing.T) {
	ctx := context.Background()
	eventStore := event.NewInMemoryStore()
	repo := aggregate.NewEventSourcedRepository(eventStore, booking.Type)

	expected := make(map[string]summary)

	for i := range 10 {
		b := newBooking(t)
		if i%2 == 0 {
			require.NoError(t, b.Cancel(now))
		}

		require.NoError(t, repo.Save(ctx, b))

		expected[b.AggregateID().String()] = summary{
			ID:      b.AggregateID().String(),
			Status:  b.Status(),
			Version: b.Version(),
		}
	}

	store := new(flakyStore)
	service := newService(t, eventStore, store, projection.WithRebuildConcurrency(3))

	n, err := service.RebuildAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, expected, store.rows)

	t.Run("rebuilding twice yields the same rows", func(t *testing.T) {
		n, err := service.RebuildAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, n)
		assert.Equal(t, expected, store.rows)
	})

	t.Run("invalid stream names fail the rebuild", func(t *testing.T) {
		err := service.Rebuild(ctx, "not-a-uuid")
		assert.Error(t, err)
	})
}
