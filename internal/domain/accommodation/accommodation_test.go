package accommodation_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/internal/domain/accommodation"
	"github.com/get-eventually/booking/version"
)

var (
	now = time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)
	id  = accommodation.ID(uuid.MustParse("1c6f4d3e-8b2a-4f0e-9d7c-5a4b3c2d1e0f"))
)

func persisted(v version.Version, evt event.Event) event.Persisted {
	return event.Persisted{
		StreamID: accommodation.Type.StreamID(id),
		Version:  v,
		Envelope: event.ToEnvelope(evt).WithOccurredAt(now),
	}
}

var wasCreated = persisted(0, accommodation.WasCreated{
	AccommodationID: id,
	Name:            "Blue room",
	Type:            accommodation.Room,
	MaxCapacity:     4,
	IsActive:        true,
})

func TestCreate(t *testing.T) {
	t.Run("new accommodations are active", func(t *testing.T) {
		aggregate.
			Scenario(accommodation.Type).
			When(func() (*accommodation.Accommodation, error) {
				return accommodation.Create(id, "Blue room", accommodation.Room, 4, now)
			}).
			Then(version.Empty, event.ToEnvelope(accommodation.WasCreated{
				AccommodationID: id,
				Name:            "Blue room",
				Type:            accommodation.Room,
				MaxCapacity:     4,
				IsActive:        true,
			}).WithOccurredAt(now)).
			AssertOn(t)
	})

	t.Run("whitespace name fails", func(t *testing.T) {
		aggregate.
			Scenario(accommodation.Type).
			When(func() (*accommodation.Accommodation, error) {
				return accommodation.Create(id, "   ", accommodation.Room, 4, now)
			}).
			ThenError(accommodation.ErrEmptyName).
			AssertOn(t)
	})

	t.Run("zero capacity fails with the offending value", func(t *testing.T) {
		_, err := accommodation.Create(id, "Blue room", accommodation.Tent, 0, now)

		var capacityErr *accommodation.InvalidCapacityError
		require.ErrorAs(t, err, &capacityErr)
		assert.Equal(t, 0, capacityErr.Capacity)
		assert.ErrorContains(t, err, "Provided: 0")
	})

	t.Run("unknown type fails", func(t *testing.T) {
		_, err := accommodation.Create(id, "Blue room", accommodation.Kind("Castle"), 2, now)

		var kindErr *accommodation.InvalidKindError
		assert.ErrorAs(t, err, &kindErr)
	})
}

func TestUpdateDetails(t *testing.T) {
	t.Run("changed details are recorded", func(t *testing.T) {
		aggregate.
			Scenario(accommodation.Type).
			Given(id, wasCreated).
			When(func(a *accommodation.Accommodation) error {
				return a.UpdateDetails("Blue room", accommodation.Room, 6, now)
			}).
			Then(0, event.ToEnvelope(accommodation.WasUpdated{
				AccommodationID: id,
				Name:            "Blue room",
				Type:            accommodation.Room,
				MaxCapacity:     6,
			}).WithOccurredAt(now)).
			AssertOn(t)
	})

	t.Run("unchanged details record nothing", func(t *testing.T) {
		aggregate.
			Scenario(accommodation.Type).
			Given(id, wasCreated).
			When(func(a *accommodation.Accommodation) error {
				return a.UpdateDetails("Blue room", accommodation.Room, 4, now)
			}).
			Then(0).
			AssertOn(t)
	})
}

func TestChangedAt(t *testing.T) {
	a := accommodation.Type.Factory()
	require.NoError(t, aggregate.LoadFromHistory(a, id, event.SliceToStream([]event.Persisted{
		wasCreated,
		persisted(1, accommodation.WasDeactivated{AccommodationID: id}),
	})))

	changedAt := a.ChangedAt()
	require.NotNil(t, changedAt)
	assert.Equal(t, now, *changedAt)

	*changedAt = changedAt.Add(time.Hour)
	assert.Equal(t, now, *a.ChangedAt())
}

func TestActivation(t *testing.T) {
	t.Run("active accommodation can be deactivated", func(t *testing.T) {
		aggregate.
			Scenario(accommodation.Type).
			Given(id, wasCreated).
			When(func(a *accommodation.Accommodation) error { return a.Deactivate(now) }).
			Then(0, event.ToEnvelope(accommodation.WasDeactivated{AccommodationID: id}).WithOccurredAt(now)).
			AssertOn(t)
	})

	t.Run("active accommodation cannot be reactivated", func(t *testing.T) {
		a := accommodation.Type.Factory()
		require.NoError(t, aggregate.LoadFromHistory(a, id, event.SliceToStream([]event.Persisted{wasCreated})))

		err := a.Reactivate(now)
		assert.ErrorContains(t, err, "is already active")
	})

	t.Run("deactivated accommodation cannot be deactivated again", func(t *testing.T) {
		a := accommodation.Type.Factory()
		require.NoError(t, aggregate.LoadFromHistory(a, id, event.SliceToStream([]event.Persisted{
			wasCreated,
			persisted(1, accommodation.WasDeactivated{AccommodationID: id}),
		})))

		err := a.Deactivate(now)

		var stateErr *accommodation.StateError
		require.ErrorAs(t, err, &stateErr)
		assert.False(t, stateErr.Active)
		assert.Empty(t, a.UncommittedEvents())

		require.NoError(t, a.Reactivate(now))
		assert.True(t, a.IsActive())
		assert.Equal(t, version.Version(1), a.Version())
	})
}

func TestSnapshotSerde(t *testing.T) {
	a, err := accommodation.Create(id, "Camper spot", accommodation.Camper, 2, now)
	require.NoError(t, err)

	data, err := accommodation.SnapshotSerde.Serialize(a)
	require.NoError(t, err)

	restored, err := accommodation.SnapshotSerde.Deserialize(data)
	require.NoError(t, err)

	assert.Equal(t, a.AggregateID(), restored.AggregateID())
	assert.Equal(t, a.Name(), restored.Name())
	assert.Equal(t, a.Kind(), restored.Kind())
	assert.Equal(t, a.MaxCapacity(), restored.MaxCapacity())
	assert.True(t, restored.IsActive())
}
