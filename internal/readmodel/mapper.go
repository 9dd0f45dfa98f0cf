package readmodel

import (
	"context"

	"github.com/google/uuid"

	"github.com/get-eventually/booking/internal/domain/accommodation"
	"github.com/get-eventually/booking/internal/domain/booking"
	"github.com/get-eventually/booking/logger"
	"github.com/get-eventually/booking/projection"
)

// NewBookingMapper returns the projection.Mapper building Booking Read Models.
//
// The owner display data is resolved through the UserDirectory: lookup
// failures never fail the projection, the Read Model gets the
// UnknownUserName and UnknownUserEmail values instead.
func NewBookingMapper(users UserDirectory, l logger.Logger) projection.MapperFunc[*booking.Booking, Booking] {
	return func(ctx context.Context, b *booking.Booking) (Booking, error) {
		userName, userEmail := UnknownUserName, UnknownUserEmail

		user, err := users.LookupUser(ctx, b.UserID())
		if err != nil {
			logger.Warn(l, "Failed to resolve booking owner, using fallback display data",
				logger.With("bookingId", b.AggregateID().String()),
				logger.With("userId", b.UserID()),
				logger.Err(err),
			)
		} else {
			userName, userEmail = user.DisplayName(), user.Email
		}

		items := b.Items()
		if items == nil {
			items = []booking.Item{}
		}

		return Booking{
			ID:               uuid.UUID(b.AggregateID()),
			UserID:           b.UserID(),
			UserName:         userName,
			UserEmail:        userEmail,
			StartDate:        b.StartDate(),
			EndDate:          b.EndDate(),
			Status:           b.Status(),
			Notes:            b.Notes(),
			Items:            items,
			TotalPersons:     b.TotalPersons(),
			NumberOfNights:   b.Nights(),
			CreatedAt:        b.CreatedAt(),
			ChangedAt:        b.ChangedAt(),
			LastEventVersion: b.Version(),
		}, nil
	}
}

// MapAccommodation builds the Read Model of a Sleeping Accommodation.
func MapAccommodation(_ context.Context, a *accommodation.Accommodation) (Accommodation, error) {
	return Accommodation{
		ID:               uuid.UUID(a.AggregateID()),
		Name:             a.Name(),
		Type:             a.Kind(),
		MaxCapacity:      a.MaxCapacity(),
		IsActive:         a.IsActive(),
		CreatedAt:        a.CreatedAt(),
		ChangedAt:        a.ChangedAt(),
		LastEventVersion: a.Version(),
	}, nil
}
