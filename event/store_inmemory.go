package event

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/get-eventually/booking/version"
)

// Interface implementation assertion.
var (
	_ Store        = new(InMemoryStore)
	_ StreamLister = new(InMemoryStore)
)

type inMemoryStream struct {
	streamType string
	events     []Envelope
}

// InMemoryStore is a thread-safe, in-memory event.Store implementation.
//
// Event Streams are keyed by their name (the Aggregate id), so that the
// same (aggregate id, version) pair can never be stored twice.
type InMemoryStore struct {
	mx      sync.RWMutex
	streams map[string]*inMemoryStream
}

// NewInMemoryStore creates a new event.InMemoryStore instance.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		mx:      sync.RWMutex{},
		streams: make(map[string]*inMemoryStream),
	}
}

func contextErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("event.InMemoryStore: context error, %w", err)
	}

	return nil
}

func (es *InMemoryStore) currentVersion(name string) version.Version {
	stream, ok := es.streams[name]
	if !ok {
		return version.Empty
	}

	return version.Version(len(stream.events)) - 1
}

// Stream streams committed events in the Event Store onto the provided EventStream,
// from the version specified in the selector.
//
// Note: this call is synchronous, and will return when all the Events
// have been successfully written to the provided EventStream, or when
// the context has been canceled.
//
// This method fails only when the context is canceled.
func (es *InMemoryStore) Stream(
	ctx context.Context,
	eventStream StreamWrite,
	id StreamID,
	selector version.Selector,
) error {
	defer close(eventStream)

	var (
		streamType string
		events     []Envelope
	)

	es.mx.RLock()
	if stream, ok := es.streams[id.Name]; ok {
		streamType = stream.streamType
		events = append(events, stream.events...)
	}
	es.mx.RUnlock()

	for i, evt := range events {
		eventVersion := version.Version(i)
		if eventVersion < selector.From {
			continue
		}

		persistedEvent := Persisted{
			StreamID: StreamID{Type: streamType, Name: id.Name},
			Version:  eventVersion,
			Envelope: evt,
		}

		select {
		case eventStream <- persistedEvent:
		case <-ctx.Done():
			return contextErr(ctx)
		}
	}

	return nil
}

// Append inserts the specified Domain Events into the Event Stream specified
// by the current instance, returning the new version of the Event Stream.
//
// `version.CheckExact` can be specified to enable an Optimistic Concurrency check
// on append, by using the expected version of the Event Stream prior
// to appending the new Events.
//
// Alternatively, `version.Any` can be used if no Optimistic Concurrency check
// should be carried out.
//
// An instance of `version.ConflictError` will be returned if the optimistic locking
// version check fails against the current version of the Event Stream.
func (es *InMemoryStore) Append(
	ctx context.Context,
	id StreamID,
	expected version.Check,
	events ...Envelope,
) (version.Version, error) {
	if err := contextErr(ctx); err != nil {
		return 0, err
	}

	es.mx.Lock()
	defer es.mx.Unlock()

	currentVersion := es.currentVersion(id.Name)

	if v, ok := expected.(version.CheckExact); ok && version.Version(v) != currentVersion {
		return 0, fmt.Errorf("event.InMemoryStore: failed to append events, %w", version.ConflictError{
			Expected: version.Version(v),
			Actual:   currentVersion,
		})
	}

	if len(events) == 0 {
		return currentVersion, nil
	}

	stream, ok := es.streams[id.Name]
	if !ok {
		stream = &inMemoryStream{streamType: id.Type}
		es.streams[id.Name] = stream
	}

	stream.events = append(stream.events, events...)

	return es.currentVersion(id.Name), nil
}

// StreamIDs returns the names of all the Event Streams of the specified type,
// sorted in lexicographical order.
func (es *InMemoryStore) StreamIDs(ctx context.Context, streamType string) ([]string, error) {
	if err := contextErr(ctx); err != nil {
		return nil, err
	}

	es.mx.RLock()
	defer es.mx.RUnlock()

	var names []string

	for name, stream := range es.streams {
		if stream.streamType == streamType {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return names, nil
}
