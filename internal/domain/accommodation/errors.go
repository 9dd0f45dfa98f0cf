package accommodation

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyID   = errors.New("accommodation: empty id provided")
	ErrEmptyName = errors.New("Sleeping accommodation name cannot be empty or whitespace") //nolint:stylecheck // User-facing message.
)

// InvalidCapacityError is returned when the maximum capacity is not positive.
type InvalidCapacityError struct {
	Capacity int
}

func (err *InvalidCapacityError) Error() string {
	return fmt.Sprintf("Sleeping accommodation capacity must be greater than 0. Provided: %d", err.Capacity)
}

// InvalidKindError is returned for an unknown accommodation type.
type InvalidKindError struct {
	Kind Kind
}

func (err *InvalidKindError) Error() string {
	return fmt.Sprintf("accommodation: unknown type '%s'", err.Kind)
}

// StateError is returned when deactivating an inactive Sleeping Accommodation,
// or reactivating an active one.
type StateError struct {
	ID     ID
	Active bool
}

func (err *StateError) Error() string {
	if err.Active {
		return fmt.Sprintf("Sleeping accommodation %s is already active", err.ID)
	}

	return fmt.Sprintf("Sleeping accommodation %s is already deactivated", err.ID)
}
