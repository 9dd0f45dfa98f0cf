// Package query contains the Query Handlers reading the booking
// and sleeping accommodation Read Models.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/internal/readmodel"
	"github.com/get-eventually/booking/query"
)

// ErrNotFound is returned when the requested Read Model does not exist.
var ErrNotFound = errors.New("query: read model not found")

// BookingReader is the read side of a Booking Read Model store.
type BookingReader interface {
	Get(ctx context.Context, id uuid.UUID) (readmodel.Booking, bool, error)
	List(ctx context.Context, filter readmodel.BookingFilter) ([]readmodel.Booking, error)
}

// AccommodationReader is the read side of a Sleeping Accommodation Read Model store.
type AccommodationReader interface {
	List(ctx context.Context, activeOnly bool) ([]readmodel.Accommodation, error)
}

var (
	_ BookingReader       = readmodel.InMemoryBookingStore{}
	_ BookingReader       = readmodel.PostgresBookingStore{}
	_ AccommodationReader = readmodel.InMemoryAccommodationStore{}
	_ AccommodationReader = readmodel.PostgresAccommodationStore{}
)

// GetBooking returns a single Booking.
type GetBooking struct{ ID booking.ID }

// ListBookings returns the Bookings matching all the specified criteria.
type ListBookings struct {
	Status *booking.Status
	UserID *int
	From   *time.Time
	To     *time.Time
}

// ListAccommodations returns the Sleeping Accommodations.
type ListAccommodations struct{ ActiveOnly bool }

func (GetBooking) Name() string         { return "GetBooking" }
func (ListBookings) Name() string       { return "ListBookings" }
func (ListAccommodations) Name() string { return "ListAccommodations" }

var (
	_ query.Handler[GetBooking, readmodel.Booking]                 = GetBookingHandler{}
	_ query.Handler[ListBookings, []readmodel.Booking]             = ListBookingsHandler{}
	_ query.Handler[ListAccommodations, []readmodel.Accommodation] = ListAccommodationsHandler{}
)

// GetBookingHandler is the Query Handler for GetBooking queries.
type GetBookingHandler struct {
	Bookings BookingReader
}

// Handle implements query.Handler.
func (h GetBookingHandler) Handle(ctx context.Context, q query.Envelope[GetBooking]) (readmodel.Booking, error) {
	model, found, err := h.Bookings.Get(ctx, uuid.UUID(q.Message.ID))
	if err != nil {
		return readmodel.Booking{}, fmt.Errorf("query.GetBooking: failed to get booking, %w", err)
	}

	if !found {
		return readmodel.Booking{}, fmt.Errorf("query.GetBooking: booking '%s', %w", q.Message.ID, ErrNotFound)
	}

	return model, nil
}

// ListBookingsHandler is the Query Handler for ListBookings queries.
type ListBookingsHandler struct {
	Bookings BookingReader
}

// Handle implements query.Handler.
func (h ListBookingsHandler) Handle(ctx context.Context, q query.Envelope[ListBookings]) ([]readmodel.Booking, error) {
	if q.Message.From != nil && q.Message.To != nil && !q.Message.From.Before(*q.Message.To) {
		return nil, fmt.Errorf("query.ListBookings: invalid date range, %w", &booking.ValidationError{
			Field:  "dateRange",
			Value:  fmt.Sprintf("%s..%s", q.Message.From.Format(time.DateOnly), q.Message.To.Format(time.DateOnly)),
			Reason: "from must be before to",
		})
	}

	bookings, err := h.Bookings.List(ctx, readmodel.BookingFilter{
		Status: q.Message.Status,
		UserID: q.Message.UserID,
		From:   q.Message.From,
		To:     q.Message.To,
	})
	if err != nil {
		return nil, fmt.Errorf("query.ListBookings: failed to list bookings, %w", err)
	}

	return bookings, nil
}

// ListAccommodationsHandler is the Query Handler for ListAccommodations queries.
type ListAccommodationsHandler struct {
	Accommodations AccommodationReader
}

// Handle implements query.Handler.
func (h ListAccommodationsHandler) Handle(
	ctx context.Context,
	q query.Envelope[ListAccommodations],
) ([]readmodel.Accommodation, error) {
	accommodations, err := h.Accommodations.List(ctx, q.Message.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("query.ListAccommodations: failed to list accommodations, %w", err)
	}

	return accommodations, nil
}
