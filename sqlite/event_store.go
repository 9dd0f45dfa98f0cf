package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/message"
	"github.com/get-eventually/booking/version"
)

var (
	_ event.Store        = new(EventStore)
	_ event.StreamLister = new(EventStore)
)

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EventStore is an event.Store implementation using the "events" table
// of a SQLite database opened through Open.
type EventStore struct {
	db    *sql.DB
	serde event.Serde
	now   func() time.Time
}

// NewEventStore returns a new EventStore on the provided database.
func NewEventStore(db *sql.DB, serde event.Serde) *EventStore {
	return &EventStore{
		db:    db,
		serde: serde,
		now:   time.Now,
	}
}

func currentVersion(ctx context.Context, q queryer, name string) (version.Version, error) {
	var v int64

	row := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), -1) FROM events WHERE aggregate_id = ?`, name)
	if err := row.Scan(&v); err != nil {
		return 0, fmt.Errorf("sqlite.EventStore: failed to scan event stream version, %w", err)
	}

	return version.Version(v), nil
}

type eventRow struct {
	id            string
	aggregateType string
	eventType     string
	data          []byte
	metadata      []byte
	version       int64
	occurredAt    int64
}

// Stream implements the event.Streamer interface.
//
// Rows are read before being sent on the stream, so that the database
// connection is released while the consumer is processing the events.
func (es *EventStore) Stream(
	ctx context.Context,
	stream event.StreamWrite,
	id event.StreamID,
	selector version.Selector,
) error {
	defer close(stream)

	rows, err := es.readEvents(ctx, id.Name, selector.From)
	if err != nil {
		return err
	}

	for _, row := range rows {
		evt, err := es.toPersisted(id.Name, row)
		if err != nil {
			return err
		}

		select {
		case stream <- evt:
		case <-ctx.Done():
			return fmt.Errorf("sqlite.EventStore: context error, %w", ctx.Err())
		}
	}

	return nil
}

func (es *EventStore) readEvents(ctx context.Context, name string, from version.Version) ([]eventRow, error) {
	rows, err := es.db.QueryContext(
		ctx,
		`SELECT id, aggregate_type, event_type, event_data, metadata, version, occurred_at
		FROM events
		WHERE aggregate_id = ? AND version >= ?
		ORDER BY version`,
		name, int64(from),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite.EventStore: failed to query events table, %w", err)
	}

	defer rows.Close()

	var result []eventRow

	for rows.Next() {
		var row eventRow
		if err := rows.Scan(
			&row.id, &row.aggregateType, &row.eventType, &row.data, &row.metadata, &row.version, &row.occurredAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite.EventStore: failed to scan next row, %w", err)
		}

		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.EventStore: failed to read events, %w", err)
	}

	return result, nil
}

func (es *EventStore) toPersisted(name string, row eventRow) (event.Persisted, error) {
	eventID, err := uuid.Parse(row.id)
	if err != nil {
		return event.Persisted{}, fmt.Errorf("sqlite.EventStore: invalid event id '%s', %w", row.id, err)
	}

	msg, err := es.serde.Deserialize(row.eventType, row.data)
	if err != nil {
		return event.Persisted{}, fmt.Errorf("sqlite.EventStore: failed to deserialize event, %w", err)
	}

	var metadata message.Metadata
	if len(row.metadata) > 0 {
		if err := json.Unmarshal(row.metadata, &metadata); err != nil {
			return event.Persisted{}, fmt.Errorf("sqlite.EventStore: failed to deserialize metadata, %w", err)
		}
	}

	return event.Persisted{
		StreamID: event.StreamID{Type: row.aggregateType, Name: name},
		Version:  version.Version(row.version),
		Envelope: event.Envelope{
			ID:         eventID,
			OccurredAt: fromNanos(row.occurredAt),
			Message:    msg,
			Metadata:   metadata,
		},
	}, nil
}

// Append implements the event.Appender interface.
func (es *EventStore) Append(
	ctx context.Context,
	id event.StreamID,
	expected version.Check,
	events ...event.Envelope,
) (version.Version, error) {
	tx, err := es.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite.EventStore: failed to open database transaction, %w", err)
	}

	defer func() {
		// NOTE: should not have effect if the transaction has been committed.
		_ = tx.Rollback()
	}()

	current, err := currentVersion(ctx, tx, id.Name)
	if err != nil {
		return 0, err
	}

	if v, ok := expected.(version.CheckExact); ok && current != version.Version(v) {
		return 0, fmt.Errorf("sqlite.EventStore: failed to append events, %w",
			version.ConflictError{Expected: version.Version(v), Actual: current})
	}

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO events (id, aggregate_id, aggregate_type, event_type, event_data, metadata, version, occurred_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite.EventStore: failed to prepare insert statement, %w", err)
	}

	defer stmt.Close()

	recordedAt := toNanos(es.now())

	for i, evt := range events {
		data, err := es.serde.Serialize(evt.Message)
		if err != nil {
			return 0, fmt.Errorf("sqlite.EventStore: failed to serialize domain event, %w", err)
		}

		var metadata []byte
		if len(evt.Metadata) > 0 {
			if metadata, err = json.Marshal(evt.Metadata); err != nil {
				return 0, fmt.Errorf("sqlite.EventStore: failed to serialize metadata, %w", err)
			}
		}

		eventVersion := current + version.Version(i) + 1

		if _, err := stmt.ExecContext(
			ctx,
			evt.ID.String(), id.Name, id.Type, evt.Message.Name(), data, metadata,
			int64(eventVersion), toNanos(evt.OccurredAt), recordedAt,
		); isConstraintError(err) {
			return 0, fmt.Errorf("sqlite.EventStore: failed to append events, %w",
				version.ConflictError{Expected: current, Actual: eventVersion})
		} else if err != nil {
			return 0, fmt.Errorf("sqlite.EventStore: failed to insert event, %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite.EventStore: failed to commit transaction, %w", err)
	}

	return current + version.Version(len(events)), nil
}

// StreamIDs implements the event.StreamLister interface.
func (es *EventStore) StreamIDs(ctx context.Context, streamType string) ([]string, error) {
	rows, err := es.db.QueryContext(
		ctx,
		`SELECT DISTINCT aggregate_id FROM events WHERE aggregate_type = ? ORDER BY aggregate_id`,
		streamType,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite.EventStore: failed to query stream ids, %w", err)
	}

	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite.EventStore: failed to scan stream id, %w", err)
		}

		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite.EventStore: failed to read stream ids, %w", err)
	}

	return names, nil
}
