package correlation

import (
	"context"

	"github.com/google/uuid"

	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/version"
)

var _ event.Appender = EventStoreWrapper{}

// Generator is a function that returns new identifiers,
// used when the context carries no correlation or causation id.
type Generator func() string

// EventStoreWrapper is an event.Appender that stamps the correlation
// and causation ids on the Metadata of every Domain Event before appending it.
//
// The ids are taken from the context, when present. Otherwise a single id
// is generated per Append call and used for both.
type EventStoreWrapper struct {
	event.Appender
	Generator Generator
}

// WrapEventStore returns an event.Store that appends correlated Domain Events
// through the specified Store, and streams them back unchanged.
func WrapEventStore(store event.Store) event.FusedStore {
	return event.FusedStore{
		Appender: EventStoreWrapper{Appender: store, Generator: uuid.NewString},
		Streamer: store,
	}
}

// Append stamps the correlation data on the Domain Events and appends them
// using the wrapped event.Appender.
func (es EventStoreWrapper) Append(
	ctx context.Context,
	id event.StreamID,
	expected version.Check,
	events ...event.Envelope,
) (version.Version, error) {
	generate := es.Generator
	if generate == nil {
		generate = uuid.NewString
	}

	causeID := generate()

	correlationID, ok := CorrelationID(ctx)
	if !ok {
		correlationID = causeID
	}

	causationID, ok := CausationID(ctx)
	if !ok {
		causationID = causeID
	}

	correlated := make([]event.Envelope, 0, len(events))

	for _, evt := range events {
		correlated = append(correlated, evt.
			WithMetadata(CorrelationIDKey, correlationID).
			WithMetadata(CausationIDKey, causationID))
	}

	return es.Appender.Append(ctx, id, expected, correlated...)
}
