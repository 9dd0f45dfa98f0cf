package snapshot_test

import (
	"testing"

	"github.com/get-eventually/booking/aggregate/snapshot"
	"github.com/get-eventually/booking/internal/storetest"
)

func TestInMemoryStore(t *testing.T) {
	storetest.SnapshotStoreSuite(snapshot.NewInMemoryStore())(t)
}
