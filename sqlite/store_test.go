package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/aggregate/snapshot"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/internal/storetest"
	"github.com/get-eventually/booking/sqlite"
	"github.com/get-eventually/booking/version"
)

func TestStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "booking.db")

	db, err := sqlite.Open(path)
	require.NoError(t, err)

	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	eventStore := sqlite.NewEventStore(db, storetest.Registry(t))
	snapshotStore := sqlite.NewSnapshotStore(db)

	t.Run("event store", storetest.EventStoreSuite(eventStore))
	t.Run("snapshot store", storetest.SnapshotStoreSuite(snapshotStore))

	t.Run("migrations can be applied again", func(t *testing.T) {
		assert.NoError(t, sqlite.RunMigrations(db))
	})

	t.Run("events survive reopening the database", func(t *testing.T) {
		ctx := context.Background()
		repo := aggregate.NewEventSourcedRepository(eventStore, booking.Type,
			aggregate.WithSnapshots[booking.ID, *booking.Booking](snapshotStore, booking.SnapshotSerde, snapshot.AlwaysPolicy{}))

		b := storetest.NewBooking(t)
		require.NoError(t, repo.Save(ctx, b))
		require.NoError(t, b.Confirm(storetest.Now()))
		require.NoError(t, repo.Save(ctx, b))

		other, err := sqlite.Open(path)
		require.NoError(t, err)

		defer other.Close()

		reopened := aggregate.NewEventSourcedRepository(sqlite.NewEventStore(other, storetest.Registry(t)), booking.Type,
			aggregate.WithSnapshots[booking.ID, *booking.Booking](sqlite.NewSnapshotStore(other), booking.SnapshotSerde, snapshot.NeverPolicy{}))

		loaded, found, err := reopened.Get(ctx, b.AggregateID())
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, version.Version(1), loaded.Version())
		assert.Equal(t, booking.StatusConfirmed, loaded.Status())
	})
}
