package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/command"
	"github.com/get-eventually/booking/event"
	appcommand "github.com/get-eventually/booking/internal/command"
	"github.com/get-eventually/booking/internal/domain/accommodation"
	"github.com/get-eventually/booking/internal/domain/booking"
	appquery "github.com/get-eventually/booking/internal/query"
	"github.com/get-eventually/booking/internal/readmodel"
	"github.com/get-eventually/booking/logger"
	"github.com/get-eventually/booking/projection"
	"github.com/get-eventually/booking/query"
)

func ptr[T any](v T) *T { return &v }

func TestQueries(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	eventStore := event.NewInMemoryStore()
	bookingStore := readmodel.NewInMemoryBookingStore()
	accommodationStore := readmodel.NewInMemoryAccommodationStore()

	users := readmodel.NewInMemoryUserDirectory(readmodel.User{
		ID: 7, FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com",
	})

	bookingProjection := projection.NewService(
		booking.Type,
		aggregate.NewEventSourcedRepository(eventStore, booking.Type),
		eventStore,
		booking.ParseID,
		readmodel.NewBookingMapper(users, logger.NewTest(t)),
		bookingStore,
	)

	accommodationProjection := projection.NewService(
		accommodation.Type,
		aggregate.NewEventSourcedRepository(eventStore, accommodation.Type),
		eventStore,
		accommodation.ParseID,
		projection.MapperFunc[*accommodation.Accommodation, readmodel.Accommodation](readmodel.MapAccommodation),
		accommodationStore,
	)

	bookings := aggregate.NewEventSourcedRepository(eventStore, booking.Type,
		aggregate.WithProjector[booking.ID, *booking.Booking](bookingProjection),
	)

	accommodations := aggregate.NewEventSourcedRepository(eventStore, accommodation.Type,
		aggregate.WithProjector[accommodation.ID, *accommodation.Accommodation](accommodationProjection),
	)

	tentID := accommodation.ID(uuid.New())
	roomID := accommodation.ID(uuid.New())
	accommodationHandler := appcommand.AccommodationHandler{Clock: clock, Repository: accommodations}

	for _, cmd := range []appcommand.CreateAccommodation{
		{ID: tentID, DisplayName: "Meadow tent", Type: accommodation.Tent, MaxCapacity: 4},
		{ID: roomID, DisplayName: "Attic room", Type: accommodation.Room, MaxCapacity: 2},
	} {
		require.NoError(t, accommodationHandler.Create().Handle(ctx, command.ToEnvelope(cmd)))
	}

	require.NoError(t, accommodationHandler.Deactivate().Handle(ctx, command.ToEnvelope(
		appcommand.DeactivateAccommodation{ID: roomID},
	)))

	firstID, secondID := booking.ID(uuid.New()), booking.ID(uuid.New())
	createBooking := appcommand.CreateBookingHandler{Clock: clock, Repository: bookings}

	for _, cmd := range []appcommand.CreateBooking{
		{
			ID:        firstID,
			UserID:    7,
			StartDate: today.AddDate(0, 0, 2),
			EndDate:   today.AddDate(0, 0, 5),
			Items:     []booking.Item{{AccommodationID: uuid.UUID(tentID), PersonCount: 3}},
		},
		{
			ID:        secondID,
			UserID:    8,
			StartDate: today.AddDate(0, 0, 10),
			EndDate:   today.AddDate(0, 0, 12),
			Items:     []booking.Item{{AccommodationID: uuid.UUID(tentID), PersonCount: 1}},
		},
	} {
		require.NoError(t, createBooking.Handle(ctx, command.ToEnvelope(cmd)))
	}

	confirm := appcommand.ConfirmBookingHandler{Clock: clock, Repository: bookings}
	require.NoError(t, confirm.Handle(ctx, command.ToEnvelope(appcommand.ConfirmBooking{ID: firstID})))

	t.Run("get booking returns the projected read model", func(t *testing.T) {
		handler := appquery.GetBookingHandler{Bookings: bookingStore}

		got, err := handler.Handle(ctx, query.ToEnvelope(appquery.GetBooking{ID: firstID}))
		require.NoError(t, err)

		assert.Equal(t, booking.StatusConfirmed, got.Status)
		assert.Equal(t, "Grace Hopper", got.UserName)
		assert.Equal(t, 3, got.NumberOfNights)
		assert.Equal(t, 3, got.TotalPersons)
	})

	t.Run("get unknown booking fails", func(t *testing.T) {
		handler := query.Logged[appquery.GetBooking, readmodel.Booking]{
			Handler: appquery.GetBookingHandler{Bookings: bookingStore},
			Logger:  logger.NewTest(t),
		}

		_, err := handler.Handle(ctx, query.ToEnvelope(appquery.GetBooking{ID: booking.ID(uuid.New())}))
		assert.ErrorIs(t, err, appquery.ErrNotFound)
		assert.ErrorContains(t, err, "query.GetBooking")
	})

	t.Run("list bookings applies the criteria", func(t *testing.T) {
		handler := appquery.ListBookingsHandler{Bookings: bookingStore}

		all, err := handler.Handle(ctx, query.ToEnvelope(appquery.ListBookings{}))
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, uuid.UUID(firstID), all[0].ID)
		assert.Equal(t, uuid.UUID(secondID), all[1].ID)

		pending, err := handler.Handle(ctx, query.ToEnvelope(appquery.ListBookings{Status: ptr(booking.StatusPending)}))
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, uuid.UUID(secondID), pending[0].ID)
		assert.Equal(t, readmodel.UnknownUserName, pending[0].UserName)

		overlapping, err := handler.Handle(ctx, query.ToEnvelope(appquery.ListBookings{
			From: ptr(today.AddDate(0, 0, 4)),
			To:   ptr(today.AddDate(0, 0, 6)),
		}))
		require.NoError(t, err)
		require.Len(t, overlapping, 1)
		assert.Equal(t, uuid.UUID(firstID), overlapping[0].ID)
	})

	t.Run("list bookings rejects an empty date range", func(t *testing.T) {
		handler := appquery.ListBookingsHandler{Bookings: bookingStore}

		_, err := handler.Handle(ctx, query.ToEnvelope(appquery.ListBookings{
			From: ptr(today.AddDate(0, 0, 4)),
			To:   ptr(today.AddDate(0, 0, 4)),
		}))

		var validationErr *booking.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("list accommodations", func(t *testing.T) {
		handler := appquery.ListAccommodationsHandler{Accommodations: accommodationStore}

		all, err := handler.Handle(ctx, query.ToEnvelope(appquery.ListAccommodations{}))
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Attic room", all[0].Name)
		assert.False(t, all[0].IsActive)

		active, err := handler.Handle(ctx, query.ToEnvelope(appquery.ListAccommodations{ActiveOnly: true}))
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "Meadow tent", active[0].Name)
		assert.Equal(t, accommodation.Tent, active[0].Type)
	})
}
