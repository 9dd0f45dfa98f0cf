package event

import (
	"context"
	"sync"

	"github.com/get-eventually/booking/version"
)

// TrackingStore is an Event Store wrapper to track the Events
// committed to the inner Event Store.
//
// Useful for tests assertion.
type TrackingStore struct {
	Appender

	mx       sync.RWMutex
	recorded []Persisted
}

// NewTrackingStore wraps an Event Store to capture events that get
// appended to it.
func NewTrackingStore(appender Appender) *TrackingStore {
	return &TrackingStore{Appender: appender}
}

// Recorded returns the list of Events that have been appended
// to the Event Store, in append order.
func (es *TrackingStore) Recorded() []Persisted {
	es.mx.RLock()
	defer es.mx.RUnlock()

	return append([]Persisted(nil), es.recorded...)
}

// Append forwards the call to the wrapped Event Store instance and,
// if the operation concludes successfully, records these events internally.
func (es *TrackingStore) Append(
	ctx context.Context,
	id StreamID,
	expected version.Check,
	events ...Envelope,
) (version.Version, error) {
	es.mx.Lock()
	defer es.mx.Unlock()

	v, err := es.Appender.Append(ctx, id, expected, events...)
	if err != nil {
		return v, err
	}

	firstVersion := v - version.Version(len(events)) + 1

	for i, evt := range events {
		es.recorded = append(es.recorded, Persisted{
			StreamID: id,
			Version:  firstVersion + version.Version(i),
			Envelope: evt,
		})
	}

	return v, nil
}
