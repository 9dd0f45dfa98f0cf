package postgres_test

import (
	"testing"

	internalpg "github.com/get-eventually/booking/internal/postgres"
	"github.com/get-eventually/booking/internal/storetest"
	"github.com/get-eventually/booking/postgres"
)

func TestStores(t *testing.T) {
	conn := internalpg.StartTestContainer(t, postgres.RunMigrations)

	t.Run("event store", storetest.EventStoreSuite(postgres.EventStore{
		Conn:  conn,
		Serde: storetest.Registry(t),
	}))

	t.Run("snapshot store", storetest.SnapshotStoreSuite(postgres.SnapshotStore{Conn: conn}))
}
