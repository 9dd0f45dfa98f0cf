// Package booking contains the Booking Aggregate: a reservation of one or more
// sleeping accommodations for a date range, owned by a user, moving through
// the Pending, Confirmed, Accepted, Rejected and Cancelled statuses.
package booking

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/event"
)

// MaxNights is the longest stay a single Booking can cover.
const MaxNights = 30

// ID is the unique identifier of a Booking.
type ID uuid.UUID

func (id ID) String() string { return uuid.UUID(id).String() }

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(data []byte) error { return (*uuid.UUID)(id).UnmarshalText(data) }

// ParseID parses the string representation of a Booking id.
func ParseID(s string) (ID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("booking.ParseID: invalid id, %w", err)
	}

	return ID(id), nil
}

// Type is the aggregate.Type of the Booking Aggregate.
var Type = aggregate.Type[ID, *Booking]{
	Name:    AggregateType,
	Factory: func() *Booking { return new(Booking) },
}

var _ aggregate.Root[ID] = new(Booking)

// Booking is the Aggregate Root of a reservation.
type Booking struct {
	aggregate.BaseRoot

	id        ID
	userID    int
	startDate time.Time
	endDate   time.Time
	items     []Item
	notes     *string
	status    Status
	createdAt time.Time
	changedAt *time.Time
}

// AggregateID implements aggregate.Root.
func (b *Booking) AggregateID() ID { return b.id }

// UserID returns the id of the user that owns the Booking.
func (b *Booking) UserID() int { return b.userID }

// StartDate returns the arrival date.
func (b *Booking) StartDate() time.Time { return b.startDate }

// EndDate returns the departure date.
func (b *Booking) EndDate() time.Time { return b.endDate }

// Items returns a copy of the booked accommodations.
func (b *Booking) Items() []Item { return slices.Clone(b.items) }

// Notes returns the free-text notes, or nil if there are none.
func (b *Booking) Notes() *string { return clonePtr(b.notes) }

// Status returns the current lifecycle status.
func (b *Booking) Status() Status { return b.status }

// CreatedAt returns the time the Booking was created.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// ChangedAt returns the time of the last change, or nil if the Booking
// never changed since creation.
func (b *Booking) ChangedAt() *time.Time { return clonePtr(b.changedAt) }

// Nights returns the number of nights of the stay.
func (b *Booking) Nights() int { return nights(b.startDate, b.endDate) }

// TotalPersons returns the number of persons over all the booked accommodations.
func (b *Booking) TotalPersons() int { return TotalPersons(b.items) }

// Apply implements aggregate.Aggregate.
func (b *Booking) Apply(evt event.Envelope) error {
	occurredAt := evt.OccurredAt

	switch msg := evt.Message.(type) {
	case WasCreated:
		b.id = msg.BookingID
		b.userID = msg.UserID
		b.startDate = msg.StartDate
		b.endDate = msg.EndDate
		b.status = msg.Status
		b.notes = clonePtr(msg.Notes)
		b.items = slices.Clone(msg.Items)
		b.createdAt = occurredAt

		return nil

	case WasUpdated:
		b.startDate = msg.StartDate
		b.endDate = msg.EndDate
		b.notes = clonePtr(msg.Notes)
		b.items = slices.Clone(msg.Items)

	case DateRangeWasChanged:
		b.startDate = msg.NewStartDate
		b.endDate = msg.NewEndDate

	case AccommodationsWereChanged:
		b.items = applyChanges(b.items, msg.Changes)

	case NotesWereChanged:
		b.notes = clonePtr(msg.NewNotes)

	case WasConfirmed:
		b.status = StatusConfirmed

	case WasAccepted:
		b.status = StatusAccepted

	case WasRejected:
		b.status = StatusRejected

	case WasCancelled:
		b.status = StatusCancelled

	default:
		return fmt.Errorf("booking.Booking.Apply: %w, %T", aggregate.ErrUnknownEvent, msg)
	}

	b.changedAt = &occurredAt

	return nil
}

// Create requests a new Booking, in Pending status.
//
// The stay must start today or later (with respect to now), end after
// the start date and last at most MaxNights nights. At least one accommodation
// is required, each listed once and with a positive number of persons.
//
// Dates are truncated to the day, in UTC.
func Create(
	id ID,
	userID int,
	startDate, endDate time.Time,
	items []Item,
	notes *string,
	now time.Time,
) (*Booking, error) {
	wrapErr := func(err error) error {
		return fmt.Errorf("booking.Create: failed to create new Booking, %w", err)
	}

	if uuid.UUID(id) == uuid.Nil {
		return nil, wrapErr(ErrEmptyID)
	}

	startDate, endDate = dateOf(startDate), dateOf(endDate)

	if err := validateDateRange(startDate, endDate, now); err != nil {
		return nil, wrapErr(err)
	}

	if err := validateItems(items); err != nil {
		return nil, wrapErr(err)
	}

	var booking Booking

	if err := aggregate.RecordThat[ID](&booking, event.ToEnvelope(WasCreated{
		BookingID: id,
		UserID:    userID,
		StartDate: startDate,
		EndDate:   endDate,
		Status:    StatusPending,
		Notes:     clonePtr(notes),
		Items:     slices.Clone(items),
	}).WithOccurredAt(now)); err != nil {
		return nil, fmt.Errorf("booking.Create: failed to apply domain event, %w", err)
	}

	return &booking, nil
}

func (b *Booking) ensureModifiable() error {
	if !b.status.IsModifiable() {
		return &InvalidStatusError{Operation: "modify", Status: b.status}
	}

	return nil
}

// ChangeDateRange moves the stay to new dates, validated like in Create.
//
// Nothing is recorded if the dates do not change.
func (b *Booking) ChangeDateRange(startDate, endDate time.Time, reason *string, now time.Time) error {
	wrapErr := func(err error) error {
		return fmt.Errorf("booking.ChangeDateRange: failed to change date range, %w", err)
	}

	if err := b.ensureModifiable(); err != nil {
		return wrapErr(err)
	}

	startDate, endDate = dateOf(startDate), dateOf(endDate)

	if err := validateDateRange(startDate, endDate, now); err != nil {
		return wrapErr(err)
	}

	if startDate.Equal(b.startDate) && endDate.Equal(b.endDate) {
		return nil
	}

	if err := aggregate.RecordThat[ID](b, event.ToEnvelope(DateRangeWasChanged{
		BookingID:         b.id,
		PreviousStartDate: b.startDate,
		PreviousEndDate:   b.endDate,
		NewStartDate:      startDate,
		NewEndDate:        endDate,
		PreviousNights:    b.Nights(),
		NewNights:         nights(startDate, endDate),
		ChangeReason:      clonePtr(reason),
	}).WithOccurredAt(now)); err != nil {
		return fmt.Errorf("booking.ChangeDateRange: failed to apply domain event, %w", err)
	}

	return nil
}

// ChangeAccommodations replaces the booked accommodations.
//
// Nothing is recorded if the accommodations and their person counts
// do not change.
func (b *Booking) ChangeAccommodations(items []Item, now time.Time) error {
	wrapErr := func(err error) error {
		return fmt.Errorf("booking.ChangeAccommodations: failed to change accommodations, %w", err)
	}

	if err := b.ensureModifiable(); err != nil {
		return wrapErr(err)
	}

	if err := validateItems(items); err != nil {
		return wrapErr(err)
	}

	changes := diffItems(b.items, items)
	if len(changes) == 0 {
		return nil
	}

	if err := aggregate.RecordThat[ID](b, event.ToEnvelope(AccommodationsWereChanged{
		BookingID:            b.id,
		Changes:              changes,
		PreviousTotalPersons: TotalPersons(b.items),
		NewTotalPersons:      TotalPersons(items),
	}).WithOccurredAt(now)); err != nil {
		return fmt.Errorf("booking.ChangeAccommodations: failed to apply domain event, %w", err)
	}

	return nil
}

// ChangeNotes replaces the free-text notes. A nil value clears them.
//
// Nothing is recorded if the notes do not change.
func (b *Booking) ChangeNotes(notes, reason *string, now time.Time) error {
	if err := b.ensureModifiable(); err != nil {
		return fmt.Errorf("booking.ChangeNotes: failed to change notes, %w", err)
	}

	if equalPtr(b.notes, notes) {
		return nil
	}

	if err := aggregate.RecordThat[ID](b, event.ToEnvelope(NotesWereChanged{
		BookingID:     b.id,
		PreviousNotes: clonePtr(b.notes),
		NewNotes:      clonePtr(notes),
		ChangeReason:  clonePtr(reason),
	}).WithOccurredAt(now)); err != nil {
		return fmt.Errorf("booking.ChangeNotes: failed to apply domain event, %w", err)
	}

	return nil
}

// UpdateBooking changes dates, accommodations and notes at once.
//
// All the inputs are validated before anything is recorded. The granular
// change events are recorded for what actually changed, followed by
// a WasUpdated event carrying the full new state.
func (b *Booking) UpdateBooking(
	startDate, endDate time.Time,
	items []Item,
	notes, reason *string,
	now time.Time,
) error {
	wrapErr := func(err error) error {
		return fmt.Errorf("booking.UpdateBooking: failed to update booking, %w", err)
	}

	if err := b.ensureModifiable(); err != nil {
		return wrapErr(err)
	}

	startDate, endDate = dateOf(startDate), dateOf(endDate)

	if err := validateDateRange(startDate, endDate, now); err != nil {
		return wrapErr(err)
	}

	if err := validateItems(items); err != nil {
		return wrapErr(err)
	}

	if err := b.ChangeDateRange(startDate, endDate, reason, now); err != nil {
		return wrapErr(err)
	}

	if err := b.ChangeAccommodations(items, now); err != nil {
		return wrapErr(err)
	}

	if err := b.ChangeNotes(notes, nil, now); err != nil {
		return wrapErr(err)
	}

	if err := aggregate.RecordThat[ID](b, event.ToEnvelope(WasUpdated{
		BookingID: b.id,
		StartDate: startDate,
		EndDate:   endDate,
		Notes:     clonePtr(notes),
		Items:     slices.Clone(items),
	}).WithOccurredAt(now)); err != nil {
		return fmt.Errorf("booking.UpdateBooking: failed to apply domain event, %w", err)
	}

	return nil
}

func (b *Booking) transition(operation string, from Status, evt event.Event, now time.Time) error {
	if b.status != from {
		return fmt.Errorf("booking.%s: %w", operation, &InvalidStatusError{
			Operation: operation,
			Status:    b.status,
		})
	}

	if err := aggregate.RecordThat[ID](b, event.ToEnvelope(evt).WithOccurredAt(now)); err != nil {
		return fmt.Errorf("booking.%s: failed to apply domain event, %w", operation, err)
	}

	return nil
}

// Confirm confirms a Pending Booking.
func (b *Booking) Confirm(now time.Time) error {
	return b.transition("confirm", StatusPending, WasConfirmed{BookingID: b.id}, now)
}

// Accept accepts a Pending Booking.
func (b *Booking) Accept(now time.Time) error {
	return b.transition("accept", StatusPending, WasAccepted{BookingID: b.id}, now)
}

// Reject rejects a Pending Booking.
func (b *Booking) Reject(now time.Time) error {
	return b.transition("reject", StatusPending, WasRejected{BookingID: b.id}, now)
}

// Cancel cancels a Pending, Confirmed or Accepted Booking.
func (b *Booking) Cancel(now time.Time) error {
	switch b.status {
	case StatusCancelled:
		return fmt.Errorf("booking.Cancel: %w", &InvalidStatusError{
			Operation: "cancel",
			Status:    b.status,
			Err:       ErrAlreadyCancelled,
		})
	case StatusRejected:
		return fmt.Errorf("booking.Cancel: %w", &InvalidStatusError{Operation: "cancel", Status: b.status})
	}

	if err := aggregate.RecordThat[ID](b, event.ToEnvelope(WasCancelled{BookingID: b.id}).WithOccurredAt(now)); err != nil {
		return fmt.Errorf("booking.Cancel: failed to apply domain event, %w", err)
	}

	return nil
}

func validateDateRange(startDate, endDate, now time.Time) error {
	if startDate.Before(dateOf(now)) {
		return &ValidationError{Field: "startDate", Value: startDate.Format(time.DateOnly), Reason: "cannot be before today"}
	}

	if !endDate.After(startDate) {
		return &ValidationError{Field: "endDate", Value: endDate.Format(time.DateOnly), Reason: "must be after the start date"}
	}

	if n := nights(startDate, endDate); n > MaxNights {
		return &ValidationError{
			Field:  "endDate",
			Value:  endDate.Format(time.DateOnly),
			Reason: fmt.Sprintf("a booking can last at most %d nights", MaxNights),
		}
	}

	return nil
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return &ValidationError{Field: "items", Value: len(items), Reason: ErrNoItems.Error(), Err: ErrNoItems}
	}

	seen := make(map[uuid.UUID]struct{}, len(items))

	for _, item := range items {
		if _, ok := seen[item.AccommodationID]; ok {
			return &ValidationError{Field: "items", Value: item.AccommodationID, Reason: "accommodation listed more than once"}
		}

		seen[item.AccommodationID] = struct{}{}

		if item.PersonCount <= 0 {
			return &ValidationError{Field: "personCount", Value: item.PersonCount, Reason: "must be greater than 0"}
		}
	}

	return nil
}

func dateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func nights(startDate, endDate time.Time) int {
	return int(dateOf(endDate).Sub(dateOf(startDate)).Hours() / 24)
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}

	c := *v

	return &c
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
