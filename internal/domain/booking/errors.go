package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyID is returned when creating a Booking with a nil id.
	ErrEmptyID = errors.New("booking: empty id provided")

	// ErrNoItems is wrapped by the ValidationError returned when a Booking
	// would be left without accommodations.
	ErrNoItems = errors.New("at least one item required")

	// ErrAlreadyCancelled is wrapped by the InvalidStatusError returned
	// when cancelling a cancelled Booking.
	ErrAlreadyCancelled = errors.New("Booking is already cancelled") //nolint:stylecheck // User-facing message.
)

// InvalidStatusError is returned when an operation is not allowed
// for the current Booking status.
type InvalidStatusError struct {
	Operation string
	Status    Status

	// Err, when set, replaces the generic message.
	Err error
}

func (err *InvalidStatusError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}

	return fmt.Sprintf("Cannot %s booking with status %s", err.Operation, err.Status)
}

func (err *InvalidStatusError) Unwrap() error { return err.Err }

// ValidationError is returned when the input of a Booking operation
// breaks one of the Booking rules.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
	Err    error
}

func (err *ValidationError) Error() string {
	return fmt.Sprintf("booking: invalid %s (%v): %s", err.Field, err.Value, err.Reason)
}

func (err *ValidationError) Unwrap() error { return err.Err }
