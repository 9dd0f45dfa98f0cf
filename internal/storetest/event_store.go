package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/internal/domain/accommodation"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/version"
)

// EventStore is the set of interfaces an Event Store implementation
// must satisfy to run the EventStoreSuite.
type EventStore interface {
	event.Store
	event.StreamLister
}

// Registry returns an event.Registry with all the Booking and Sleeping
// Accommodation Domain Events registered.
func Registry(t testing.TB) *event.Registry {
	t.Helper()

	registry := event.NewRegistry()
	require.NoError(t, booking.RegisterEvents(registry))
	require.NoError(t, accommodation.RegisterEvents(registry))

	return registry
}

// Now returns the current time, with a precision every backend can store.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// NewBooking returns a new Booking with a single uncommitted creation event.
func NewBooking(t testing.TB) *booking.Booking {
	t.Helper()

	b, err := booking.Create(
		booking.ID(uuid.New()),
		42,
		today().AddDate(0, 0, 1),
		today().AddDate(0, 0, 4),
		[]booking.Item{{AccommodationID: uuid.New(), PersonCount: 2}},
		nil,
		Now(),
	)
	require.NoError(t, err)

	return b
}

// Normalize makes persisted events comparable across backends,
// dropping location and empty metadata differences.
func Normalize(events []event.Persisted) []event.Persisted {
	result := make([]event.Persisted, 0, len(events))

	for _, evt := range events {
		evt.OccurredAt = evt.OccurredAt.UTC()
		if len(evt.Metadata) == 0 {
			evt.Metadata = nil
		}

		result = append(result, evt)
	}

	return result
}

func toPersisted(id event.StreamID, from version.Version, envelopes []event.Envelope) []event.Persisted {
	result := make([]event.Persisted, 0, len(envelopes))

	for i, envelope := range envelopes {
		result = append(result, event.Persisted{
			StreamID: id,
			Version:  from + version.Version(i),
			Envelope: envelope,
		})
	}

	return Normalize(result)
}

// EventStoreSuite returns an executable testing suite running on the Event Store
// value provided in input.
func EventStoreSuite(store EventStore) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()

		t.Run("appended events are streamed back in order", func(t *testing.T) {
			b := NewBooking(t)
			require.NoError(t, b.Confirm(Now()))

			streamID := booking.Type.StreamID(b.AggregateID())
			envelopes := b.UncommittedEvents()
			envelopes[0] = envelopes[0].WithMetadata("correlation_id", "abc")

			newVersion, err := store.Append(ctx, streamID, version.CheckExact(version.Empty), envelopes...)
			require.NoError(t, err)
			assert.Equal(t, version.Version(1), newVersion)

			events, err := event.GetEvents(ctx, store, streamID, 0)
			require.NoError(t, err)
			assert.Equal(t, toPersisted(streamID, 0, envelopes), Normalize(events))

			events, err = event.GetEvents(ctx, store, streamID, 1)
			require.NoError(t, err)
			assert.Equal(t, toPersisted(streamID, 1, envelopes[1:]), Normalize(events))
		})

		t.Run("unknown streams have no events", func(t *testing.T) {
			events, err := event.GetEvents(ctx, store, booking.Type.StreamID(booking.ID(uuid.New())), 0)
			require.NoError(t, err)
			assert.Empty(t, events)
		})

		t.Run("append with a stale expected version conflicts", func(t *testing.T) {
			b := NewBooking(t)
			streamID := booking.Type.StreamID(b.AggregateID())

			require.NoError(t, b.ChangeNotes(ptr("one"), nil, Now()))
			require.NoError(t, b.ChangeNotes(ptr("two"), nil, Now()))
			require.NoError(t, b.ChangeNotes(ptr("three"), nil, Now()))

			_, err := store.Append(ctx, streamID, version.CheckExact(version.Empty), b.UncommittedEvents()...)
			require.NoError(t, err)

			_, err = store.Append(ctx, streamID, version.CheckExact(2),
				event.ToEnvelope(booking.WasConfirmed{BookingID: b.AggregateID()}).WithOccurredAt(Now()))

			conflict, ok := version.IsConflict(err)
			require.True(t, ok, "expected a conflict error, got: %v", err)
			assert.Equal(t, version.Version(2), conflict.Expected)
			assert.Equal(t, version.Version(3), conflict.Actual)

			events, err := event.GetEvents(ctx, store, streamID, 0)
			require.NoError(t, err)
			assert.Len(t, events, 4)
		})

		t.Run("append with version.Any skips the check", func(t *testing.T) {
			b := NewBooking(t)
			streamID := booking.Type.StreamID(b.AggregateID())

			v, err := store.Append(ctx, streamID, version.Any, b.UncommittedEvents()...)
			require.NoError(t, err)
			assert.Equal(t, version.Version(0), v)

			v, err = store.Append(ctx, streamID, version.Any,
				event.ToEnvelope(booking.WasAccepted{BookingID: b.AggregateID()}).WithOccurredAt(Now()))
			require.NoError(t, err)
			assert.Equal(t, version.Version(1), v)
		})

		t.Run("only one of many concurrent appends wins", func(t *testing.T) {
			b := NewBooking(t)
			streamID := booking.Type.StreamID(b.AggregateID())

			_, err := store.Append(ctx, streamID, version.CheckExact(version.Empty), b.UncommittedEvents()...)
			require.NoError(t, err)

			const writers = 5

			var (
				wg        sync.WaitGroup
				mx        sync.Mutex
				succeeded int
				conflicts int
			)

			for range writers {
				wg.Add(1)

				go func() {
					defer wg.Done()

					_, err := store.Append(ctx, streamID, version.CheckExact(0),
						event.ToEnvelope(booking.WasCancelled{BookingID: b.AggregateID()}).WithOccurredAt(Now()),
						event.ToEnvelope(booking.NotesWereChanged{BookingID: b.AggregateID(), NewNotes: ptr("late")}).WithOccurredAt(Now()),
					)

					mx.Lock()
					defer mx.Unlock()

					if _, ok := version.IsConflict(err); ok {
						conflicts++
					} else if err == nil {
						succeeded++
					}
				}()
			}

			wg.Wait()

			assert.Equal(t, 1, succeeded)
			assert.Equal(t, writers-1, conflicts)

			events, err := event.GetEvents(ctx, store, streamID, 0)
			require.NoError(t, err)
			assert.Len(t, events, 3)
		})

		t.Run("stream ids are listed per aggregate type", func(t *testing.T) {
			a, err := accommodation.Create(accommodation.ID(uuid.New()), "Green tent", accommodation.Tent, 3, Now())
			require.NoError(t, err)

			accommodationStream := accommodation.Type.StreamID(a.AggregateID())
			_, err = store.Append(ctx, accommodationStream, version.CheckExact(version.Empty), a.UncommittedEvents()...)
			require.NoError(t, err)

			ids, err := store.StreamIDs(ctx, accommodation.AggregateType)
			require.NoError(t, err)
			assert.Contains(t, ids, a.AggregateID().String())

			bookingIDs, err := store.StreamIDs(ctx, booking.AggregateType)
			require.NoError(t, err)
			assert.NotContains(t, bookingIDs, a.AggregateID().String())
			assert.NotEmpty(t, bookingIDs)
		})

		t.Run("event-sourced repository works on the store", func(t *testing.T) {
			repo := aggregate.NewEventSourcedRepository(store, booking.Type)

			b := NewBooking(t)
			require.NoError(t, repo.Save(ctx, b))
			require.NoError(t, b.Accept(Now()))
			require.NoError(t, repo.Save(ctx, b))

			loaded, found, err := repo.Get(ctx, b.AggregateID())
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, version.Version(1), loaded.Version())
			assert.Equal(t, booking.StatusAccepted, loaded.Status())
		})
	}
}

func ptr[T any](v T) *T { return &v }
