// Package postgres contains the PostgreSQL implementations of the Event Store
// and the Snapshot Store, built on pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/get-eventually/booking/event"
	internalpg "github.com/get-eventually/booking/internal/postgres"
	"github.com/get-eventually/booking/message"
	"github.com/get-eventually/booking/version"
)

const versionConstraint = "events_aggregate_id_version_key"

var (
	_ event.Store        = EventStore{}
	_ event.StreamLister = EventStore{}
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EventStore is an event.Store implementation targeted to PostgreSQL databases.
//
// The implementation uses the "events" table, where the pair
// (aggregate_id, version) is unique: concurrent appends on the same
// Event Stream fail with a version.ConflictError.
type EventStore struct {
	Conn  *pgxpool.Pool
	Serde event.Serde
}

func currentVersion(ctx context.Context, q querier, name string) (version.Version, error) {
	var v int64

	row := q.QueryRow(ctx, `SELECT COALESCE(MAX("version"), -1) FROM events WHERE aggregate_id = $1`, name)
	if err := row.Scan(&v); err != nil {
		return 0, fmt.Errorf("postgres.EventStore: failed to scan event stream version, %w", err)
	}

	return version.Version(v), nil
}

// Stream implements the event.Streamer interface.
func (es EventStore) Stream(
	ctx context.Context,
	stream event.StreamWrite,
	id event.StreamID,
	selector version.Selector,
) error {
	defer close(stream)

	rows, err := es.Conn.Query(
		ctx,
		`SELECT id, aggregate_type, event_type, event_data, metadata, "version", occurred_at
		FROM events
		WHERE aggregate_id = $1 AND "version" >= $2
		ORDER BY "version"`,
		id.Name, int64(selector.From),
	)
	if err != nil {
		return fmt.Errorf("postgres.EventStore: failed to query events table, %w", err)
	}

	defer rows.Close()

	for rows.Next() {
		var (
			eventID       uuid.UUID
			aggregateType string
			eventType     string
			data          []byte
			rawMetadata   []byte
			eventVersion  int64
			occurredAt    time.Time
		)

		if err := rows.Scan(
			&eventID, &aggregateType, &eventType, &data, &rawMetadata, &eventVersion, &occurredAt,
		); err != nil {
			return fmt.Errorf("postgres.EventStore: failed to scan next row, %w", err)
		}

		msg, err := es.Serde.Deserialize(eventType, data)
		if err != nil {
			return fmt.Errorf("postgres.EventStore: failed to deserialize event, %w", err)
		}

		metadata, err := deserializeMetadata(rawMetadata)
		if err != nil {
			return err
		}

		evt := event.Persisted{
			StreamID: event.StreamID{Type: aggregateType, Name: id.Name},
			Version:  version.Version(eventVersion),
			Envelope: event.Envelope{
				ID:         eventID,
				OccurredAt: occurredAt.UTC(),
				Message:    msg,
				Metadata:   metadata,
			},
		}

		select {
		case stream <- evt:
		case <-ctx.Done():
			return fmt.Errorf("postgres.EventStore: context error, %w", ctx.Err())
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres.EventStore: failed to read events, %w", err)
	}

	return nil
}

// Append implements event.Store.
//
// The expected version is checked inside the transaction; the unique
// (aggregate_id, version) constraint catches the appends racing past the check.
func (es EventStore) Append(
	ctx context.Context,
	id event.StreamID,
	expected version.Check,
	events ...event.Envelope,
) (version.Version, error) {
	var newVersion version.Version

	err := internalpg.RunTransaction(ctx, es.Conn, internalpg.ReadWrite, func(ctx context.Context, tx pgx.Tx) error {
		current, err := currentVersion(ctx, tx, id.Name)
		if err != nil {
			return err
		}

		if v, ok := expected.(version.CheckExact); ok && current != version.Version(v) {
			return version.ConflictError{Expected: version.Version(v), Actual: current}
		}

		batch := new(pgx.Batch)

		for i, evt := range events {
			if err := es.queueEvent(batch, id, current+version.Version(i)+1, evt); err != nil {
				return err
			}
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}

		newVersion = current + version.Version(len(events))

		return nil
	})

	if err == nil {
		return newVersion, nil
	}

	if isVersionConflict(err) {
		actual, vErr := currentVersion(ctx, es.Conn, id.Name)
		if vErr != nil {
			return 0, fmt.Errorf("postgres.EventStore: version conflict, %w", vErr)
		}

		expectedVersion := actual
		if v, ok := expected.(version.CheckExact); ok {
			expectedVersion = version.Version(v)
		}

		return 0, fmt.Errorf("postgres.EventStore: failed to append events, %w",
			version.ConflictError{Expected: expectedVersion, Actual: actual})
	}

	return 0, fmt.Errorf("postgres.EventStore: failed to append events, %w", err)
}

func (es EventStore) queueEvent(batch *pgx.Batch, id event.StreamID, v version.Version, evt event.Envelope) error {
	data, err := es.Serde.Serialize(evt.Message)
	if err != nil {
		return fmt.Errorf("postgres.EventStore: failed to serialize domain event, %w", err)
	}

	metadata, err := serializeMetadata(evt.Metadata)
	if err != nil {
		return err
	}

	batch.Queue(
		`INSERT INTO events (id, aggregate_id, aggregate_type, event_type, event_data, metadata, "version", occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		evt.ID, id.Name, id.Type, evt.Message.Name(), data, metadata, int64(v), evt.OccurredAt,
	)

	return nil
}

// StreamIDs implements the event.StreamLister interface.
func (es EventStore) StreamIDs(ctx context.Context, streamType string) ([]string, error) {
	rows, err := es.Conn.Query(
		ctx,
		`SELECT DISTINCT aggregate_id FROM events WHERE aggregate_type = $1 ORDER BY aggregate_id`,
		streamType,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres.EventStore: failed to query stream ids, %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres.EventStore: failed to collect stream ids, %w", err)
	}

	return names, nil
}

func isVersionConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == versionConstraint
}

func serializeMetadata(metadata message.Metadata) ([]byte, error) {
	if len(metadata) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("postgres.serializeMetadata: failed to marshal to json, %w", err)
	}

	return data, nil
}

func deserializeMetadata(data []byte) (message.Metadata, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var metadata message.Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("postgres.deserializeMetadata: failed to unmarshal from json, %w", err)
	}

	return metadata, nil
}
