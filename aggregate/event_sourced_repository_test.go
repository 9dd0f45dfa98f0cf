package aggregate_test

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
	"github.com/get-eventually/booking/aggregate/snapshot"
	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/logger"
	"github.com/get-eventually/booking/version"
)

var (
	now   = time.Now().UTC()
	today = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	items = []booking.Item{{AccommodationID: uuid.New(), PersonCount: 2}}
)

func newBooking(t *testing.T) *booking.Booking {
	t.Helper()

	b, err := booking.Create(booking.ID(uuid.New()), 7, today.AddDate(0, 0, 1), today.AddDate(0, 0, 3), items, nil, now)
	require.NoError(t, err)

	return b
}

func TestEventSourcedRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown aggregate is not found", func(t *testing.T) {
		repo := aggregate.NewEventSourcedRepository(event.NewInMemoryStore(), booking.Type)

		root, found, err := repo.Get(ctx, booking.ID(uuid.New()))
		assert.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, root)
	})

	t.Run("saved aggregate can be loaded back", func(t *testing.T) {
		store := event.NewInMemoryStore()
		repo := aggregate.NewEventSourcedRepository(store, booking.Type, aggregate.WithLogger[booking.ID, *booking.Booking](logger.NewTest(t)))

		b := newBooking(t)
		require.NoError(t, b.Confirm(now))
		require.NoError(t, repo.Save(ctx, b))

		assert.Equal(t, version.Version(1), b.Version())
		assert.Empty(t, b.UncommittedEvents())

		loaded, found, err := repo.Get(ctx, b.AggregateID())
		require.NoError(t, err)
		require.True(t, found)

		assert.Equal(t, version.Version(1), loaded.Version())
		assert.Equal(t, booking.StatusConfirmed, loaded.Status())
		assert.Empty(t, loaded.UncommittedEvents())

		events, err := event.GetEvents(ctx, store, booking.Type.StreamID(b.AggregateID()), 0)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, booking.AggregateType, events[0].StreamID.Type)
	})

	t.Run("saving without uncommitted events is a no-op", func(t *testing.T) {
		inner := event.NewInMemoryStore()
		store := event.NewTrackingStore(inner)
		repo := aggregate.NewEventSourcedRepository(event.FusedStore{Appender: store, Streamer: inner}, booking.Type)

		b := newBooking(t)
		b.ClearUncommittedEvents()

		require.NoError(t, repo.Save(ctx, b))
		assert.Empty(t, store.Recorded())
	})

	t.Run("concurrent saves from the same version conflict", func(t *testing.T) {
		store := event.NewInMemoryStore()
		repo := aggregate.NewEventSourcedRepository(store, booking.Type)

		b := newBooking(t)
		require.NoError(t, repo.Save(ctx, b))

		first, _, err := repo.Get(ctx, b.AggregateID())
		require.NoError(t, err)

		second, _, err := repo.Get(ctx, b.AggregateID())
		require.NoError(t, err)

		require.NoError(t, first.Confirm(now))
		require.NoError(t, second.Cancel(now))

		var (
			wg   sync.WaitGroup
			errs = make([]error, 2)
		)

		for i, root := range []*booking.Booking{first, second} {
			wg.Add(1)

			go func() {
				defer wg.Done()
				errs[i] = repo.Save(ctx, root)
			}()
		}

		wg.Wait()

		failed := 0

		for i, err := range errs {
			if err == nil {
				continue
			}

			failed++

			conflict, ok := version.IsConflict(err)
			require.True(t, ok)
			assert.Equal(t, version.Version(0), conflict.Expected)
			assert.Equal(t, version.Version(1), conflict.Actual)

			loser := []*booking.Booking{first, second}[i]
			assert.Len(t, loser.UncommittedEvents(), 1, "uncommitted events must be kept on conflict")
			assert.Equal(t, version.Version(0), loser.Version())
		}

		assert.Equal(t, 1, failed)

		events, err := event.GetEvents(ctx, store, booking.Type.StreamID(b.AggregateID()), 0)
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})

	t.Run("projection failures are returned after commit", func(t *testing.T) {
		store := event.NewInMemoryStore()
		projectionErr := errors.New("read model unavailable")

		repo := aggregate.NewEventSourcedRepository(store, booking.Type,
			aggregate.WithProjector[booking.ID, *booking.Booking](aggregate.ProjectorFunc[booking.ID, *booking.Booking](
				func(context.Context, *booking.Booking) error { return projectionErr },
			)),
		)

		b := newBooking(t)
		err := repo.Save(ctx, b)

		assert.ErrorIs(t, err, aggregate.ErrProjectionFailed)
		assert.ErrorIs(t, err, projectionErr)
		assert.Equal(t, version.Version(0), b.Version())

		_, found, err := repo.Get(ctx, b.AggregateID())
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("projector receives the saved aggregate", func(t *testing.T) {
		var projected []version.Version

		repo := aggregate.NewEventSourcedRepository(event.NewInMemoryStore(), booking.Type,
			aggregate.WithProjector[booking.ID, *booking.Booking](aggregate.ProjectorFunc[booking.ID, *booking.Booking](
				func(_ context.Context, b *booking.Booking) error {
					projected = append(projected, b.Version())
					return nil
				},
			)),
		)

		b := newBooking(t)
		require.NoError(t, repo.Save(ctx, b))
		require.NoError(t, b.Accept(now))
		require.NoError(t, repo.Save(ctx, b))

		assert.Equal(t, []version.Version{0, 1}, projected)
	})
}

func TestEventSourcedRepository_Snapshots(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots are recorded as advised by the policy", func(t *testing.T) {
		snapshots := snapshot.NewInMemoryStore()
		repo := aggregate.NewEventSourcedRepository(event.NewInMemoryStore(), booking.Type,
			aggregate.WithSnapshots[booking.ID, *booking.Booking](snapshots, booking.SnapshotSerde, snapshot.EveryVersionIncrementPolicy(2)),
		)

		b := newBooking(t)
		require.NoError(t, repo.Save(ctx, b))

		_, err := snapshots.Get(ctx, booking.Type.StreamID(b.AggregateID()))
		assert.ErrorIs(t, err, snapshot.ErrNotFound)

		require.NoError(t, b.Confirm(now))
		require.NoError(t, repo.Save(ctx, b))

		snap, err := snapshots.Get(ctx, booking.Type.StreamID(b.AggregateID()))
		require.NoError(t, err)
		assert.Equal(t, version.Version(1), snap.Version)
	})

	t.Run("aggregate is loaded from snapshot and later events", func(t *testing.T) {
		store := event.NewInMemoryStore()
		snapshots := snapshot.NewInMemoryStore()
		repo := aggregate.NewEventSourcedRepository(store, booking.Type,
			aggregate.WithSnapshots[booking.ID, *booking.Booking](snapshots, booking.SnapshotSerde, snapshot.AlwaysPolicy{}),
		)

		b := newBooking(t)
		require.NoError(t, repo.Save(ctx, b))

		// Append without going through the repository, so that no snapshot is taken.
		_, err := store.Append(ctx, booking.Type.StreamID(b.AggregateID()), version.CheckExact(0),
			event.ToEnvelope(booking.WasConfirmed{BookingID: b.AggregateID()}).WithOccurredAt(now))
		require.NoError(t, err)

		loaded, found, err := repo.Get(ctx, b.AggregateID())
		require.NoError(t, err)
		require.True(t, found)

		assert.Equal(t, version.Version(1), loaded.Version())
		assert.Equal(t, booking.StatusConfirmed, loaded.Status())
	})

	t.Run("corrupted snapshot falls back to full replay", func(t *testing.T) {
		store := event.NewInMemoryStore()
		snapshots := snapshot.NewInMemoryStore()
		repo := aggregate.NewEventSourcedRepository(store, booking.Type,
			aggregate.WithSnapshots[booking.ID, *booking.Booking](snapshots, booking.SnapshotSerde, snapshot.NeverPolicy{}),
			aggregate.WithLogger[booking.ID, *booking.Booking](logger.NewTest(t)),
		)

		b := newBooking(t)
		require.NoError(t, repo.Save(ctx, b))

		require.NoError(t, snapshots.Record(ctx, snapshot.Snapshot{
			StreamID:   booking.Type.StreamID(b.AggregateID()),
			Version:    0,
			State:      []byte("{not json"),
			RecordedAt: now,
		}))

		loaded, found, err := repo.Get(ctx, b.AggregateID())
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, version.Version(0), loaded.Version())
		assert.Equal(t, booking.StatusPending, loaded.Status())
	})
}
