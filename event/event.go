// Package event contains the Domain Event types, the Event Store interfaces
// and an in-memory Event Store implementation.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/get-eventually/booking/message"
	"github.com/get-eventually/booking/version"
)

// Event is a Message representing some Domain information that has happened
// in the past, which is of vital information to the Domain itself.
//
// Event type names should be phrased in the past tense, to enforce the notion
// of "information happened in the past".
//
// Every Event declares the Aggregate it targets: AggregateID is the string
// representation of the Aggregate id, AggregateType is the stable
// Aggregate type label (e.g. "BookingAggregate").
type Event interface {
	message.Message

	AggregateID() string
	AggregateType() string
}

// Envelope carries a Domain Event together with its identity (a unique id and
// the time the event occurred) and optional Metadata.
//
// Envelopes are values: once created through ToEnvelope they are never
// mutated, the With* methods return modified copies.
type Envelope struct {
	ID         uuid.UUID
	OccurredAt time.Time
	Message    Event
	Metadata   message.Metadata
}

// ToEnvelope wraps a Domain Event into an Envelope, assigning it a new
// unique id and the current time as occurrence timestamp.
func ToEnvelope(evt Event) Envelope {
	return Envelope{
		ID:         uuid.New(),
		OccurredAt: time.Now().UTC(),
		Message:    evt,
		Metadata:   nil,
	}
}

// WithOccurredAt returns a copy of the Envelope with the specified occurrence timestamp.
func (e Envelope) WithOccurredAt(t time.Time) Envelope {
	e.OccurredAt = t.UTC()
	return e
}

// WithID returns a copy of the Envelope with the specified event id.
func (e Envelope) WithID(id uuid.UUID) Envelope {
	e.ID = id
	return e
}

// WithMetadata returns a copy of the Envelope with an additional Metadata entry.
func (e Envelope) WithMetadata(key, value string) Envelope {
	metadata := make(message.Metadata, len(e.Metadata)+1)
	metadata.Merge(e.Metadata)

	e.Metadata = metadata.With(key, value)

	return e
}

// StreamID represents the unique identifier for an Event Stream.
type StreamID struct {
	// Type is the type, or category, of the Event Stream to which this
	// Event belong. Usually, this is the name of the Aggregate type.
	Type string

	// Name is the name of the Event Stream to which this Event belong.
	// Usually, this is the string representation of the Aggregate id.
	Name string
}

func (id StreamID) String() string { return id.Type + "/" + id.Name }

// Persisted represents an Domain Event that has been persisted into the Event Store.
type Persisted struct {
	StreamID
	version.Version
	Envelope
}
