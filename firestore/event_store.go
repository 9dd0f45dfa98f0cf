// Package eventuallyfirestore contains the Event Store and Snapshot Store
// implementations for Google Cloud Firestore.
package eventuallyfirestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/version"
)

// Collection names used by the Firestore stores.
const (
	EventsCollection       = "Events"
	EventStreamsCollection = "EventStreams"
	SnapshotsCollection    = "Snapshots"
)

//nolint:exhaustruct // Only used for interface assertion.
var (
	_ event.Store        = EventStore{}
	_ event.StreamLister = EventStore{}
)

type eventDocument struct {
	ID            string            `firestore:"id"`
	AggregateID   string            `firestore:"aggregate_id"`
	AggregateType string            `firestore:"aggregate_type"`
	EventType     string            `firestore:"event_type"`
	Payload       []byte            `firestore:"payload"`
	Metadata      map[string]string `firestore:"metadata,omitempty"`
	Version       int64             `firestore:"version"`
	OccurredAt    time.Time         `firestore:"occurred_at"`
	RecordedAt    time.Time         `firestore:"recorded_at,serverTimestamp"`
}

type streamDocument struct {
	Type        string `firestore:"type"`
	LastVersion int64  `firestore:"last_version"`
}

// EventStore is an event.Store implementation for Firestore.
//
// Every Event Stream has a document in the EventStreams collection, tracking
// the last version appended. Events are created in the Events collection
// with a document id derived from the stream name and the event version,
// so that the same version can never be created twice.
type EventStore struct {
	Client *firestore.Client
	Serde  event.Serde
}

func (es EventStore) eventsCollection() *firestore.CollectionRef {
	return es.Client.Collection(EventsCollection)
}

func (es EventStore) streamsCollection() *firestore.CollectionRef {
	return es.Client.Collection(EventStreamsCollection)
}

// Stream implements the event.Streamer interface.
func (es EventStore) Stream(
	ctx context.Context,
	stream event.StreamWrite,
	id event.StreamID,
	selector version.Selector,
) error {
	defer close(stream)

	iter := es.eventsCollection().
		Where("aggregate_id", "==", id.Name).
		Where("version", ">=", int64(selector.From)).
		OrderBy("version", firestore.Asc).
		Documents(ctx)

	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return fmt.Errorf("eventuallyfirestore.EventStore.Stream: failed while reading iterator, %w", err)
		}

		evt, err := es.toPersisted(doc)
		if err != nil {
			return err
		}

		select {
		case stream <- evt:
		case <-ctx.Done():
			return fmt.Errorf("eventuallyfirestore.EventStore.Stream: context error, %w", ctx.Err())
		}
	}

	return nil
}

func (es EventStore) toPersisted(doc *firestore.DocumentSnapshot) (event.Persisted, error) {
	var data eventDocument
	if err := doc.DataTo(&data); err != nil {
		return event.Persisted{}, fmt.Errorf("eventuallyfirestore.EventStore.Stream: failed to decode document, %w", err)
	}

	eventID, err := uuid.Parse(data.ID)
	if err != nil {
		return event.Persisted{}, fmt.Errorf("eventuallyfirestore.EventStore.Stream: invalid event id, %w", err)
	}

	msg, err := es.Serde.Deserialize(data.EventType, data.Payload)
	if err != nil {
		return event.Persisted{}, fmt.Errorf("eventuallyfirestore.EventStore.Stream: failed to deserialize message payload, %w", err)
	}

	return event.Persisted{
		StreamID: event.StreamID{Type: data.AggregateType, Name: data.AggregateID},
		Version:  version.Version(data.Version),
		Envelope: event.Envelope{
			ID:         eventID,
			OccurredAt: data.OccurredAt.UTC(),
			Message:    msg,
			Metadata:   data.Metadata,
		},
	}, nil
}

func (es EventStore) checkAndUpsertEventStream(
	tx *firestore.Transaction,
	id event.StreamID,
	expected version.Check,
	newEventsLength int,
) (version.Version, error) {
	docRef := es.streamsCollection().Doc(id.Name)

	doc, err := tx.Get(docRef)
	if err != nil && status.Code(err) != codes.NotFound {
		return 0, fmt.Errorf("eventuallyfirestore.EventStore.Append: failed to get stream, %w", err)
	}

	currentVersion := version.Empty

	if err == nil {
		var stream streamDocument
		if err := doc.DataTo(&stream); err != nil {
			return 0, fmt.Errorf("eventuallyfirestore.EventStore.Append: failed to decode stream, %w", err)
		}

		currentVersion = version.Version(stream.LastVersion)
	}

	if v, ok := expected.(version.CheckExact); ok && version.Version(v) != currentVersion {
		return 0, fmt.Errorf("eventuallyfirestore.EventStore.Append: version check failed, %w", version.ConflictError{
			Expected: version.Version(v),
			Actual:   currentVersion,
		})
	}

	newVersion := currentVersion + version.Version(newEventsLength)

	if err := tx.Set(docRef, streamDocument{
		Type:        id.Type,
		LastVersion: int64(newVersion),
	}); err != nil {
		return 0, fmt.Errorf("eventuallyfirestore.EventStore.Append: failed to update event stream, %w", err)
	}

	return currentVersion, nil
}

func (es EventStore) appendEvent(tx *firestore.Transaction, evt event.Persisted) error {
	docRef := es.eventsCollection().Doc(fmt.Sprintf("%s@%d", evt.StreamID.Name, evt.Version))

	payload, err := es.Serde.Serialize(evt.Message)
	if err != nil {
		return fmt.Errorf("eventuallyfirestore.EventStore.appendEvent: failed to serialize message, %w", err)
	}

	if err := tx.Create(docRef, eventDocument{
		ID:            evt.ID.String(),
		AggregateID:   evt.StreamID.Name,
		AggregateType: evt.StreamID.Type,
		EventType:     evt.Message.Name(),
		Payload:       payload,
		Metadata:      evt.Metadata,
		Version:       int64(evt.Version),
		OccurredAt:    evt.OccurredAt,
		RecordedAt:    time.Time{},
	}); err != nil {
		return fmt.Errorf("eventuallyfirestore.EventStore.appendEvent: failed to append event, %w", err)
	}

	return nil
}

// Append implements the event.Appender interface.
//
// A lost transaction race (AlreadyExists, or Aborted once the transaction
// attempts are exhausted) is reported as a version.ConflictError.
func (es EventStore) Append(
	ctx context.Context,
	id event.StreamID,
	expected version.Check,
	events ...event.Envelope,
) (version.Version, error) {
	var currentVersion version.Version

	err := es.Client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		var err error

		currentVersion, err = es.checkAndUpsertEventStream(tx, id, expected, len(events))
		if err != nil {
			return err
		}

		for i, evt := range events {
			if err := es.appendEvent(tx, event.Persisted{
				StreamID: id,
				Version:  currentVersion + version.Version(i) + 1,
				Envelope: evt,
			}); err != nil {
				return err
			}
		}

		return nil
	})

	if code := status.Code(err); code == codes.AlreadyExists || code == codes.Aborted {
		return 0, fmt.Errorf("eventuallyfirestore.EventStore.Append: concurrent append lost, %w", es.conflict(ctx, id, expected))
	}

	if err != nil {
		return 0, fmt.Errorf("eventuallyfirestore.EventStore.Append: failed to commit transaction, %w", err)
	}

	return currentVersion + version.Version(len(events)), nil
}

func (es EventStore) conflict(ctx context.Context, id event.StreamID, expected version.Check) version.ConflictError {
	actual := version.Empty

	if doc, err := es.streamsCollection().Doc(id.Name).Get(ctx); err == nil {
		var stream streamDocument
		if err := doc.DataTo(&stream); err == nil {
			actual = version.Version(stream.LastVersion)
		}
	}

	expectedVersion := actual
	if v, ok := expected.(version.CheckExact); ok {
		expectedVersion = version.Version(v)
	}

	return version.ConflictError{Expected: expectedVersion, Actual: actual}
}

// StreamIDs implements the event.StreamLister interface.
func (es EventStore) StreamIDs(ctx context.Context, streamType string) ([]string, error) {
	docs, err := es.streamsCollection().Where("type", "==", streamType).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("eventuallyfirestore.EventStore.StreamIDs: failed to query streams, %w", err)
	}

	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.Ref.ID)
	}

	slices.Sort(names)

	return names, nil
}
