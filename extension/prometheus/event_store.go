package prometheus

import (
	"context"
	"time"

	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/version"
)

var _ event.Store = EventStore{}

// EventStore is an event.Store wrapper that records latency, appended events
// and version conflicts for every operation, labeled by aggregate type.
type EventStore struct {
	Store   event.Store
	Metrics *Metrics
}

// Stream implements the event.Streamer interface.
func (es EventStore) Stream(
	ctx context.Context,
	stream event.StreamWrite,
	id event.StreamID,
	selector version.Selector,
) error {
	start := time.Now()
	err := es.Store.Stream(ctx, stream, id, selector)

	observeSince(es.Metrics.storeStreamDuration.WithLabelValues(id.Type, boolToStr(err == nil)), start)

	return err
}

// Append implements the event.Appender interface.
func (es EventStore) Append(
	ctx context.Context,
	id event.StreamID,
	expected version.Check,
	events ...event.Envelope,
) (version.Version, error) {
	start := time.Now()
	newVersion, err := es.Store.Append(ctx, id, expected, events...)

	observeSince(es.Metrics.storeAppendDuration.WithLabelValues(id.Type, boolToStr(err == nil)), start)

	switch _, conflict := version.IsConflict(err); {
	case err == nil:
		es.Metrics.eventsAppended.WithLabelValues(id.Type).Add(float64(len(events)))
	case conflict:
		es.Metrics.appendConflicts.WithLabelValues(id.Type).Inc()
	}

	return newVersion, err
}
