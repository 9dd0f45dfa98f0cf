package command_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/command"
	"github.com/get-eventually/booking/event"
	appcommand "github.com/get-eventually/booking/internal/command"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/version"
)

func TestCreateBookingHandler(t *testing.T) {
	id := booking.ID(uuid.New())
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	items := []booking.Item{{AccommodationID: uuid.New(), PersonCount: 2}}

	commandHandlerFactory := func(s event.Store) appcommand.CreateBookingHandler {
		return appcommand.CreateBookingHandler{
			Clock:      func() time.Time { return now },
			Repository: aggregate.NewEventSourcedRepository(s, booking.Type),
		}
	}

	t.Run("it fails when no items are provided", func(t *testing.T) {
		command.Scenario[appcommand.CreateBooking, appcommand.CreateBookingHandler]().
			When(command.ToEnvelope(appcommand.CreateBooking{
				ID:        id,
				UserID:    1,
				StartDate: today.AddDate(0, 0, 1),
				EndDate:   today.AddDate(0, 0, 2),
			})).
			ThenError(booking.ErrNoItems).
			AssertOn(t, commandHandlerFactory)
	})

	t.Run("it works", func(t *testing.T) {
		command.Scenario[appcommand.CreateBooking, appcommand.CreateBookingHandler]().
			When(command.ToEnvelope(appcommand.CreateBooking{
				ID:        id,
				UserID:    1,
				StartDate: today.AddDate(0, 0, 1),
				EndDate:   today.AddDate(0, 0, 2),
				Items:     items,
			})).
			Then(event.Persisted{
				StreamID: booking.Type.StreamID(id),
				Version:  0,
				Envelope: event.ToEnvelope(booking.WasCreated{
					BookingID: id,
					UserID:    1,
					StartDate: today.AddDate(0, 0, 1),
					EndDate:   today.AddDate(0, 0, 2),
					Status:    booking.StatusPending,
					Items:     items,
				}).WithOccurredAt(now),
			}).
			AssertOn(t, commandHandlerFactory)
	})

	t.Run("it fails when the booking already exists", func(t *testing.T) {
		command.Scenario[appcommand.CreateBooking, appcommand.CreateBookingHandler]().
			Given(event.Persisted{
				StreamID: booking.Type.StreamID(id),
				Version:  0,
				Envelope: event.ToEnvelope(booking.WasCreated{
					BookingID: id,
					UserID:    1,
					StartDate: today.AddDate(0, 0, 1),
					EndDate:   today.AddDate(0, 0, 2),
					Status:    booking.StatusPending,
					Items:     items,
				}),
			}).
			When(command.ToEnvelope(appcommand.CreateBooking{
				ID:        id,
				UserID:    1,
				StartDate: today.AddDate(0, 0, 1),
				EndDate:   today.AddDate(0, 0, 2),
				Items:     items,
			})).
			ThenError(version.ConflictError{Expected: version.Empty, Actual: 0}).
			AssertOn(t, commandHandlerFactory)
	})
}

func TestConfirmBookingHandler(t *testing.T) {
	id := booking.ID(uuid.New())
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	commandHandlerFactory := func(s event.Store) appcommand.ConfirmBookingHandler {
		return appcommand.ConfirmBookingHandler{
			Clock:      func() time.Time { return now },
			Repository: aggregate.NewEventSourcedRepository(s, booking.Type),
		}
	}

	created := event.Persisted{
		StreamID: booking.Type.StreamID(id),
		Version:  0,
		Envelope: event.ToEnvelope(booking.WasCreated{
			BookingID: id,
			UserID:    1,
			StartDate: today.AddDate(0, 0, 1),
			EndDate:   today.AddDate(0, 0, 2),
			Status:    booking.StatusPending,
			Items:     []booking.Item{{AccommodationID: uuid.New(), PersonCount: 1}},
		}),
	}

	t.Run("it fails when the booking does not exist", func(t *testing.T) {
		command.Scenario[appcommand.ConfirmBooking, appcommand.ConfirmBookingHandler]().
			When(command.ToEnvelope(appcommand.ConfirmBooking{ID: id})).
			ThenError(appcommand.ErrNotFound).
			AssertOn(t, commandHandlerFactory)
	})

	t.Run("it works", func(t *testing.T) {
		command.Scenario[appcommand.ConfirmBooking, appcommand.ConfirmBookingHandler]().
			Given(created).
			When(command.ToEnvelope(appcommand.ConfirmBooking{ID: id})).
			Then(event.Persisted{
				StreamID: booking.Type.StreamID(id),
				Version:  1,
				Envelope: event.ToEnvelope(booking.WasConfirmed{BookingID: id}).WithOccurredAt(now),
			}).
			AssertOn(t, commandHandlerFactory)
	})

	t.Run("it fails when the booking was cancelled", func(t *testing.T) {
		command.Scenario[appcommand.ConfirmBooking, appcommand.ConfirmBookingHandler]().
			Given(created, event.Persisted{
				StreamID: booking.Type.StreamID(id),
				Version:  1,
				Envelope: event.ToEnvelope(booking.WasCancelled{BookingID: id}),
			}).
			When(command.ToEnvelope(appcommand.ConfirmBooking{ID: id})).
			ThenFails().
			AssertOn(t, commandHandlerFactory)
	})
}
