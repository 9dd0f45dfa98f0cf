package booking

import "time"

// AggregateType is the stable label of the Booking Aggregate,
// used as Event Stream type.
const AggregateType = "BookingAggregate"

// WasCreated is the Domain Event recorded when a new Booking is requested.
type WasCreated struct {
	BookingID ID        `json:"bookingId"`
	UserID    int       `json:"userId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Status    Status    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
	Items     []Item    `json:"bookingItems"`
}

// WasUpdated is the combined Domain Event recorded by UpdateBooking,
// carrying the full new editable state of the Booking.
type WasUpdated struct {
	BookingID ID        `json:"bookingId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Notes     *string   `json:"notes,omitempty"`
	Items     []Item    `json:"bookingItems"`
}

// DateRangeWasChanged is recorded when the stay dates of a Booking change.
type DateRangeWasChanged struct {
	BookingID         ID        `json:"bookingId"`
	PreviousStartDate time.Time `json:"previousStartDate"`
	PreviousEndDate   time.Time `json:"previousEndDate"`
	NewStartDate      time.Time `json:"newStartDate"`
	NewEndDate        time.Time `json:"newEndDate"`
	PreviousNights    int       `json:"previousNights"`
	NewNights         int       `json:"newNights"`
	ChangeReason      *string   `json:"changeReason,omitempty"`
}

// AccommodationsWereChanged is recorded when the booked accommodations,
// or the number of persons per accommodation, change.
type AccommodationsWereChanged struct {
	BookingID            ID                    `json:"bookingId"`
	Changes              []AccommodationChange `json:"accommodationChanges"`
	PreviousTotalPersons int                   `json:"previousTotalPersons"`
	NewTotalPersons      int                   `json:"newTotalPersons"`
}

// NotesWereChanged is recorded when the free-text notes of a Booking change.
type NotesWereChanged struct {
	BookingID     ID      `json:"bookingId"`
	PreviousNotes *string `json:"previousNotes,omitempty"`
	NewNotes      *string `json:"newNotes,omitempty"`
	ChangeReason  *string `json:"changeReason,omitempty"`
}

// WasConfirmed is recorded when a pending Booking is confirmed.
type WasConfirmed struct {
	BookingID ID `json:"bookingId"`
}

// WasAccepted is recorded when a pending Booking is accepted.
type WasAccepted struct {
	BookingID ID `json:"bookingId"`
}

// WasRejected is recorded when a pending Booking is rejected.
type WasRejected struct {
	BookingID ID `json:"bookingId"`
}

// WasCancelled is recorded when a Booking is cancelled.
type WasCancelled struct {
	BookingID ID `json:"bookingId"`
}

func (WasCreated) Name() string                { return "BookingCreated" }
func (WasUpdated) Name() string                { return "BookingUpdated" }
func (DateRangeWasChanged) Name() string       { return "BookingDateRangeChanged" }
func (AccommodationsWereChanged) Name() string { return "BookingAccommodationsChanged" }
func (NotesWereChanged) Name() string          { return "BookingNotesChanged" }
func (WasConfirmed) Name() string              { return "BookingConfirmed" }
func (WasAccepted) Name() string               { return "BookingAccepted" }
func (WasRejected) Name() string               { return "BookingRejected" }
func (WasCancelled) Name() string              { return "BookingCancelled" }

func (evt WasCreated) AggregateID() string                { return evt.BookingID.String() }
func (evt WasUpdated) AggregateID() string                { return evt.BookingID.String() }
func (evt DateRangeWasChanged) AggregateID() string       { return evt.BookingID.String() }
func (evt AccommodationsWereChanged) AggregateID() string { return evt.BookingID.String() }
func (evt NotesWereChanged) AggregateID() string          { return evt.BookingID.String() }
func (evt WasConfirmed) AggregateID() string              { return evt.BookingID.String() }
func (evt WasAccepted) AggregateID() string               { return evt.BookingID.String() }
func (evt WasRejected) AggregateID() string               { return evt.BookingID.String() }
func (evt WasCancelled) AggregateID() string              { return evt.BookingID.String() }

func (WasCreated) AggregateType() string                { return AggregateType }
func (WasUpdated) AggregateType() string                { return AggregateType }
func (DateRangeWasChanged) AggregateType() string       { return AggregateType }
func (AccommodationsWereChanged) AggregateType() string { return AggregateType }
func (NotesWereChanged) AggregateType() string          { return AggregateType }
func (WasConfirmed) AggregateType() string              { return AggregateType }
func (WasAccepted) AggregateType() string               { return AggregateType }
func (WasRejected) AggregateType() string               { return AggregateType }
func (WasCancelled) AggregateType() string              { return AggregateType }
