// Package oteleventually provides OpenTelemetry instrumentation, in the form
// of metrics and traces, for Event Stores and Aggregate Repositories.
package oteleventually

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/version"
)

// Attribute keys used by the InstrumentedEventStore instrumentation.
const (
	EventStreamTypeKey            attribute.Key = "event_stream.type"
	EventStreamIDKey              attribute.Key = "event_stream.id"
	EventStreamVersionSelectorKey attribute.Key = "event_stream.select_from_version"
	EventStreamExpectedVersionKey attribute.Key = "event_stream.expected_version"
	EventStoreNumEventsKey        attribute.Key = "event_store.num_events"
	ConflictAttribute             attribute.Key = "conflict"
)

var _ event.Store = new(InstrumentedEventStore)

// InstrumentedEventStore is a wrapper type over an event.Store
// instance to provide instrumentation, in the form of metrics and traces
// using OpenTelemetry.
//
// Use NewInstrumentedEventStore for constructing a new instance of this type.
type InstrumentedEventStore struct {
	eventStore event.Store

	tracer         trace.Tracer
	streamDuration metric.Int64Histogram
	appendDuration metric.Int64Histogram
	conflicts      metric.Int64Counter
}

func (ies *InstrumentedEventStore) registerMetrics(meter metric.Meter) error {
	var err error

	if ies.streamDuration, err = meter.Int64Histogram(
		"booking.event_store.stream.duration.milliseconds",
		metric.WithUnit("ms"),
		metric.WithDescription("Duration in milliseconds of event.Store.Stream operations performed."),
	); err != nil {
		return fmt.Errorf("oteleventually.InstrumentedEventStore: failed to register metric: %w", err)
	}

	if ies.appendDuration, err = meter.Int64Histogram(
		"booking.event_store.append.duration.milliseconds",
		metric.WithUnit("ms"),
		metric.WithDescription("Duration in milliseconds of event.Store.Append operations performed."),
	); err != nil {
		return fmt.Errorf("oteleventually.InstrumentedEventStore: failed to register metric: %w", err)
	}

	if ies.conflicts, err = meter.Int64Counter(
		"booking.event_store.append.conflicts",
		metric.WithDescription("Number of event.Store.Append operations failed with a version conflict."),
	); err != nil {
		return fmt.Errorf("oteleventually.InstrumentedEventStore: failed to register metric: %w", err)
	}

	return nil
}

// NewInstrumentedEventStore returns a wrapper type to provide OpenTelemetry
// instrumentation (metrics and traces) around an event.Store.
//
// An error is returned if metrics could not be registered.
func NewInstrumentedEventStore(eventStore event.Store, options ...Option) (*InstrumentedEventStore, error) {
	cfg := newConfig(options...)

	ies := &InstrumentedEventStore{
		eventStore: eventStore,
		tracer:     cfg.tracer(),
	}

	if err := ies.registerMetrics(cfg.meter()); err != nil {
		return nil, err
	}

	return ies, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

// Stream calls the wrapped event.Store.Stream method and records metrics and traces around it.
func (ies *InstrumentedEventStore) Stream(
	ctx context.Context,
	stream event.StreamWrite,
	id event.StreamID,
	selector version.Selector,
) (err error) {
	ctx, span := ies.tracer.Start(ctx, "event.Store.Stream", trace.WithAttributes(
		EventStreamTypeKey.String(id.Type),
		EventStreamIDKey.String(id.Name),
		EventStreamVersionSelectorKey.Int64(int64(selector.From)),
	))
	start := time.Now()

	defer func() {
		ies.streamDuration.Record(ctx, time.Since(start).Milliseconds(), metric.WithAttributes(
			EventStreamTypeKey.String(id.Type),
			ErrorAttribute.Bool(err != nil),
		))

		endSpan(span, err)
	}()

	err = ies.eventStore.Stream(ctx, stream, id, selector)

	return
}

// Append calls the wrapped event.Store.Append method and records metrics and traces around it.
func (ies *InstrumentedEventStore) Append(
	ctx context.Context,
	id event.StreamID,
	expected version.Check,
	events ...event.Envelope,
) (newVersion version.Version, err error) {
	expectedVersion := int64(version.Empty)
	if v, ok := expected.(version.CheckExact); ok {
		expectedVersion = int64(v)
	}

	ctx, span := ies.tracer.Start(ctx, "event.Store.Append", trace.WithAttributes(
		EventStreamTypeKey.String(id.Type),
		EventStreamIDKey.String(id.Name),
		EventStreamExpectedVersionKey.Int64(expectedVersion),
		EventStoreNumEventsKey.Int(len(events)),
	))
	start := time.Now()

	defer func() {
		_, conflict := version.IsConflict(err)

		attributes := metric.WithAttributes(
			EventStreamTypeKey.String(id.Type),
			ErrorAttribute.Bool(err != nil),
			ConflictAttribute.Bool(conflict),
		)

		ies.appendDuration.Record(ctx, time.Since(start).Milliseconds(), attributes)

		if conflict {
			ies.conflicts.Add(ctx, 1, metric.WithAttributes(EventStreamTypeKey.String(id.Type)))
		}

		endSpan(span, err)
	}()

	newVersion, err = ies.eventStore.Append(ctx, id, expected, events...)

	return
}
