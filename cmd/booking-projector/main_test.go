package main

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/extension/correlation"
	bookingprometheus "github.com/get-eventually/booking/extension/prometheus"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/internal/storetest"
)

func TestInstrumentedRepository(t *testing.T) {
	ctx := correlation.WithCorrelationID(context.Background(), "rebuild-1")
	metrics := bookingprometheus.NewMetrics(prometheus.NewRegistry())
	memory := event.NewInMemoryStore()

	store, err := instrument(memory, metrics)
	require.NoError(t, err)

	bookings, err := instrumentRepository[booking.ID, *booking.Booking](
		booking.Type,
		aggregate.NewEventSourcedRepository(store, booking.Type),
		metrics,
	)
	require.NoError(t, err)

	b := storetest.NewBooking(t)
	require.NoError(t, bookings.Save(ctx, b))

	got, found, err := bookings.Get(ctx, b.AggregateID())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, b.AggregateID(), got.AggregateID())

	events, err := event.GetEvents(ctx, memory, booking.Type.StreamID(b.AggregateID()), 0)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "rebuild-1", events[0].Metadata[correlation.CorrelationIDKey])
	assert.NotEmpty(t, events[0].Metadata[correlation.CausationIDKey])
}
