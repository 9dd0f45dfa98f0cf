package readmodel

import (
	"time"

	"github.com/get-eventually/booking/internal/domain/booking"
)

// BookingFilter selects Booking Read Models. Zero-valued fields match everything.
type BookingFilter struct {
	Status *booking.Status
	UserID *int

	// From and To select the Bookings whose stay overlaps the [From, To) range.
	From *time.Time
	To   *time.Time
}

// Matches reports whether the Booking Read Model is selected by the filter.
func (f BookingFilter) Matches(b Booking) bool {
	if f.Status != nil && b.Status != *f.Status {
		return false
	}

	if f.UserID != nil && b.UserID != *f.UserID {
		return false
	}

	if f.From != nil && !b.EndDate.After(*f.From) {
		return false
	}

	if f.To != nil && !b.StartDate.Before(*f.To) {
		return false
	}

	return true
}
