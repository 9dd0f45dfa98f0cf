package event_test

import (
	"testing"

	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/internal/storetest"
)

func TestInMemoryStore(t *testing.T) {
	storetest.EventStoreSuite(event.NewInMemoryStore())(t)
}
