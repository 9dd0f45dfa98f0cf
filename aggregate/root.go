// Package aggregate contains the Aggregate Root base mechanism, used to
// turn Domain Events into state (replay) and business operations into new
// Domain Events (record), plus the Event-sourced Repository to load and save
// Aggregate Roots.
package aggregate

import (
	"errors"
	"fmt"

	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/version"
)

// ID represents an Aggregate ID type.
//
// Aggregate IDs should be able to be marshaled into a string format,
// in order to be saved onto a named Event Stream.
type ID interface {
	fmt.Stringer
}

var (
	// ErrAggregateIDMismatch is returned by LoadFromHistory when a Domain Event
	// targets a different Aggregate than the one being loaded.
	ErrAggregateIDMismatch = errors.New("aggregate: event targets a different aggregate")

	// ErrVersionGap is returned by LoadFromHistory when the Domain Events
	// are not consecutive with respect to the Aggregate Root version.
	ErrVersionGap = errors.New("aggregate: event version is not consecutive")

	// ErrUnknownEvent should be returned (wrapped) by Apply implementations
	// when receiving a Domain Event type they do not recognize.
	ErrUnknownEvent = errors.New("aggregate: unknown event type")
)

// Aggregate is the segregated interface, part of the Aggregate Root interface,
// that describes the left-folding behavior of Domain Events to update the
// Aggregate Root state.
type Aggregate interface {
	// Apply applies the specified Event to the Aggregate Root,
	// by causing a state change in the Aggregate Root instance.
	//
	// Since this method cause a state change, implementors should make sure
	// to use pointer semantics on their Aggregate Root method receivers.
	//
	// Implementations should switch exhaustively on the Domain Event types
	// they own, and return an error wrapping ErrUnknownEvent otherwise.
	Apply(event.Envelope) error
}

// Root is the interface describing an Aggregate Root instance.
//
// This interface should be implemented by your Aggregate Root types.
// Make sure your Aggregate Root types embed the aggregate.BaseRoot type
// to complete the implementation of this interface.
type Root[I ID] interface {
	Aggregate

	// AggregateID returns the Aggregate Root identifier.
	AggregateID() I

	// Version returns the version of the last Domain Event of the Aggregate
	// that has been persisted, or version.Empty for a new Aggregate.
	Version() version.Version

	// UncommittedEvents returns the Domain Events recorded since the last
	// time the Aggregate was loaded or saved.
	UncommittedEvents() []event.Envelope

	// ClearUncommittedEvents empties the uncommitted events buffer,
	// leaving state and version untouched.
	ClearUncommittedEvents()

	setVersion(version.Version)
	recordThat(Aggregate, ...event.Envelope) error
}

// RecordThat records the Domain Events for the specified Aggregate Root:
// each event is applied to the Aggregate Root state and buffered
// as uncommitted.
//
// An error is returned if applying a Domain Event on the Aggregate Root
// instance fails: events recorded before the failing one stay buffered.
func RecordThat[I ID](root Root[I], events ...event.Envelope) error {
	return root.recordThat(root, events...)
}

// LoadFromHistory rehydrates the Aggregate Root identified by id,
// applying the persisted Domain Events in order.
//
// The version of the Aggregate Root is advanced once per Domain Event,
// and the uncommitted events buffer is left untouched.
func LoadFromHistory[I ID](root Root[I], id I, events event.StreamRead) error {
	for evt := range events {
		if evt.Message == nil {
			return fmt.Errorf("aggregate.LoadFromHistory: nil event at version %d", evt.Version)
		}

		if target := evt.Message.AggregateID(); target != id.String() {
			return fmt.Errorf("aggregate.LoadFromHistory: %w, expected '%s', got '%s'",
				ErrAggregateIDMismatch, id, target)
		}

		if expected := root.Version().Next(); evt.Version != expected {
			return fmt.Errorf("aggregate.LoadFromHistory: %w, expected %d, got %d",
				ErrVersionGap, expected, evt.Version)
		}

		if err := root.Apply(evt.Envelope); err != nil {
			return fmt.Errorf("aggregate.LoadFromHistory: failed to apply event '%s', %w", evt.Message.Name(), err)
		}

		root.setVersion(evt.Version)
	}

	return nil
}

// BaseRoot segregates and completes the aggregate.Root interface implementation
// when embedded to a user-defined Aggregate Root type.
//
// BaseRoot provides some common traits, such as tracking the current Aggregate
// Root version, and the recorded-but-uncommitted Domain Events, through
// the aggregate.RecordThat function.
type BaseRoot struct {
	// Number of persisted events, so that the zero value reports version.Empty.
	persisted      int64
	recordedEvents []event.Envelope
}

// Version returns the current version of the Aggregate Root instance.
func (br BaseRoot) Version() version.Version {
	return version.Version(br.persisted) - 1
}

// UncommittedEvents returns a copy of the uncommitted events buffer.
func (br BaseRoot) UncommittedEvents() []event.Envelope {
	if len(br.recordedEvents) == 0 {
		return nil
	}

	return append([]event.Envelope(nil), br.recordedEvents...)
}

// ClearUncommittedEvents empties the uncommitted events buffer.
func (br *BaseRoot) ClearUncommittedEvents() {
	br.recordedEvents = nil
}

func (br *BaseRoot) setVersion(v version.Version) {
	br.persisted = int64(v) + 1
}

func (br *BaseRoot) recordThat(aggregate Aggregate, events ...event.Envelope) error {
	for _, evt := range events {
		if err := aggregate.Apply(evt); err != nil {
			return fmt.Errorf("aggregate.RecordThat: failed to record event, %w", err)
		}

		br.recordedEvents = append(br.recordedEvents, evt)
	}

	return nil
}

// Type represents the type of an Aggregate, which will expose the
// name of the Aggregate (used as Event Stream type) and a factory method
// to create new zero-valued instances of the type.
type Type[I ID, T Root[I]] struct {
	Name    string
	Factory func() T
}

// StreamID returns the Event Stream id used to store the Aggregate Root with the given id.
func (t Type[I, T]) StreamID(id I) event.StreamID {
	return event.StreamID{Type: t.Name, Name: id.String()}
}
