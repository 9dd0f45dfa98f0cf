package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/booking/aggregate/snapshot"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/version"
)

// SnapshotStoreSuite returns an executable testing suite running on the
// Snapshot Store value provided in input.
func SnapshotStoreSuite(store snapshot.Store) func(t *testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()

		t.Run("missing snapshot returns snapshot.ErrNotFound", func(t *testing.T) {
			_, err := store.Get(ctx, booking.Type.StreamID(booking.ID(uuid.New())))
			assert.ErrorIs(t, err, snapshot.ErrNotFound)
		})

		t.Run("latest snapshot replaces the previous one", func(t *testing.T) {
			b := NewBooking(t)
			streamID := booking.Type.StreamID(b.AggregateID())

			state, err := booking.SnapshotSerde.Serialize(b)
			require.NoError(t, err)

			first := snapshot.Snapshot{StreamID: streamID, Version: 9, State: state, RecordedAt: Now()}
			require.NoError(t, store.Record(ctx, first))

			got, err := store.Get(ctx, streamID)
			require.NoError(t, err)
			assert.Equal(t, version.Version(9), got.Version)
			assert.JSONEq(t, string(state), string(got.State))

			require.NoError(t, b.Confirm(Now()))

			state, err = booking.SnapshotSerde.Serialize(b)
			require.NoError(t, err)

			second := snapshot.Snapshot{StreamID: streamID, Version: 19, State: state, RecordedAt: Now()}
			require.NoError(t, store.Record(ctx, second))

			got, err = store.Get(ctx, streamID)
			require.NoError(t, err)
			assert.Equal(t, version.Version(19), got.Version)
			assert.Equal(t, streamID, got.StreamID)
			assert.True(t, second.RecordedAt.Equal(got.RecordedAt))

			restored, err := booking.SnapshotSerde.Deserialize(got.State)
			require.NoError(t, err)
			assert.Equal(t, booking.StatusConfirmed, restored.Status())
		})
	}
}
