package prometheus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/event"
	bookingprometheus "github.com/get-eventually/booking/extension/prometheus"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/internal/storetest"
	"github.com/get-eventually/booking/version"
)

// counterValue returns the value of the counter with the specified name
// and label values, ordered by label name.
func counterValue(t *testing.T, reg prometheus.Gatherer, name string, labelValues ...string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}

		for _, m := range family.GetMetric() {
			labels := m.GetLabel()
			if len(labels) != len(labelValues) {
				continue
			}

			matches := true

			for i, label := range labels {
				if label.GetValue() != labelValues[i] {
					matches = false
					break
				}
			}

			if matches {
				return m.GetCounter().GetValue()
			}
		}
	}

	t.Fatalf("counter %s%v not found", name, labelValues)

	return 0
}

func TestInstrumentation(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := bookingprometheus.NewMetrics(reg)

	store := bookingprometheus.EventStore{Store: event.NewInMemoryStore(), Metrics: metrics}

	var projectionErr error

	projector := bookingprometheus.Projector[booking.ID, *booking.Booking]{
		Type: booking.Type,
		Projector: aggregate.ProjectorFunc[booking.ID, *booking.Booking](func(context.Context, *booking.Booking) error {
			return projectionErr
		}),
		Metrics: metrics,
	}

	repository := bookingprometheus.Repository[booking.ID, *booking.Booking]{
		Type: booking.Type,
		Repository: aggregate.NewEventSourcedRepository(store, booking.Type,
			aggregate.WithProjector[booking.ID, *booking.Booking](projector),
		),
		Metrics: metrics,
	}

	t.Run("saved events are counted", func(t *testing.T) {
		b := storetest.NewBooking(t)
		require.NoError(t, repository.Save(ctx, b))

		_, found, err := repository.Get(ctx, b.AggregateID())
		require.NoError(t, err)
		assert.True(t, found)

		_, found, err = repository.Get(ctx, booking.ID(uuid.New()))
		require.NoError(t, err)
		assert.False(t, found)

		assert.Equal(t, 1.0, counterValue(t, reg, "booking_event_store_events_appended_total", booking.AggregateType))
		assert.Equal(t, 1.0, counterValue(t, reg, "booking_projections_total", booking.AggregateType, "true"))
	})

	t.Run("conflicts are counted", func(t *testing.T) {
		b := storetest.NewBooking(t)
		id := booking.Type.StreamID(b.AggregateID())

		_, err := store.Append(ctx, id, version.Expect(3), b.UncommittedEvents()...)
		_, ok := version.IsConflict(err)
		require.True(t, ok)

		assert.Equal(t, 1.0, counterValue(t, reg, "booking_event_store_conflicts_total", booking.AggregateType))
	})

	t.Run("failed projections are counted", func(t *testing.T) {
		projectionErr = errors.New("read model unavailable")
		defer func() { projectionErr = nil }()

		err := repository.Save(ctx, storetest.NewBooking(t))
		require.ErrorIs(t, err, aggregate.ErrProjectionFailed)

		assert.Equal(t, 1.0, counterValue(t, reg, "booking_projections_total", booking.AggregateType, "false"))
	})

	t.Run("latency histograms are registered", func(t *testing.T) {
		count, err := testutil.GatherAndCount(reg,
			"booking_event_store_stream_duration_seconds",
			"booking_event_store_append_duration_seconds",
			"booking_repository_get_duration_seconds",
			"booking_repository_save_duration_seconds",
		)
		require.NoError(t, err)
		assert.Positive(t, count)
	})
}
