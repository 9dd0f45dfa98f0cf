package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/get-eventually/booking/aggregate/snapshot"
	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/version"
)

var _ snapshot.Store = SnapshotStore{}

// SnapshotStore is a snapshot.Store implementation using the "snapshots" table,
// holding at most one Snapshot per Aggregate.
type SnapshotStore struct {
	Conn *pgxpool.Pool
}

// Get implements the snapshot.Getter interface.
func (ss SnapshotStore) Get(ctx context.Context, id event.StreamID) (snapshot.Snapshot, error) {
	var (
		aggregateType string
		state         []byte
		v             int64
		recordedAt    time.Time
	)

	row := ss.Conn.QueryRow(
		ctx,
		`SELECT aggregate_type, state, "version", recorded_at FROM snapshots WHERE aggregate_id = $1`,
		id.Name,
	)

	err := row.Scan(&aggregateType, &state, &v, &recordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return snapshot.Snapshot{}, fmt.Errorf("postgres.SnapshotStore: '%s', %w", id, snapshot.ErrNotFound)
	}

	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("postgres.SnapshotStore: failed to scan snapshot, %w", err)
	}

	return snapshot.Snapshot{
		StreamID:   event.StreamID{Type: aggregateType, Name: id.Name},
		Version:    version.Version(v),
		State:      state,
		RecordedAt: recordedAt.UTC(),
	}, nil
}

// Record implements the snapshot.Recorder interface.
func (ss SnapshotStore) Record(ctx context.Context, snap snapshot.Snapshot) error {
	if _, err := ss.Conn.Exec(
		ctx,
		`INSERT INTO snapshots (aggregate_id, aggregate_type, state, "version", recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (aggregate_id) DO UPDATE SET
			aggregate_type = EXCLUDED.aggregate_type,
			state = EXCLUDED.state,
			"version" = EXCLUDED."version",
			recorded_at = EXCLUDED.recorded_at`,
		snap.StreamID.Name, snap.StreamID.Type, snap.State, int64(snap.Version), snap.RecordedAt,
	); err != nil {
		return fmt.Errorf("postgres.SnapshotStore: failed to record snapshot, %w", err)
	}

	return nil
}
