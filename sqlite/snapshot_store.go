package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/get-eventually/booking/aggregate/snapshot"
	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/version"
)

var _ snapshot.Store = new(SnapshotStore)

// SnapshotStore is a snapshot.Store implementation using the "snapshots"
// table of a SQLite database opened through Open.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore returns a new SnapshotStore on the provided database.
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Get implements the snapshot.Getter interface.
func (ss *SnapshotStore) Get(ctx context.Context, id event.StreamID) (snapshot.Snapshot, error) {
	var (
		aggregateType string
		state         []byte
		v             int64
		recordedAt    int64
	)

	err := ss.db.QueryRowContext(
		ctx,
		`SELECT aggregate_type, state, version, recorded_at FROM snapshots WHERE aggregate_id = ?`,
		id.Name,
	).Scan(&aggregateType, &state, &v, &recordedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return snapshot.Snapshot{}, fmt.Errorf("sqlite.SnapshotStore: '%s', %w", id, snapshot.ErrNotFound)
	}

	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("sqlite.SnapshotStore: failed to scan snapshot, %w", err)
	}

	return snapshot.Snapshot{
		StreamID:   event.StreamID{Type: aggregateType, Name: id.Name},
		Version:    version.Version(v),
		State:      state,
		RecordedAt: fromNanos(recordedAt),
	}, nil
}

// Record implements the snapshot.Recorder interface.
func (ss *SnapshotStore) Record(ctx context.Context, snap snapshot.Snapshot) error {
	if _, err := ss.db.ExecContext(
		ctx,
		`INSERT INTO snapshots (aggregate_id, aggregate_type, state, version, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (aggregate_id) DO UPDATE SET
			aggregate_type = excluded.aggregate_type,
			state = excluded.state,
			version = excluded.version,
			recorded_at = excluded.recorded_at`,
		snap.StreamID.Name, snap.StreamID.Type, snap.State, int64(snap.Version), toNanos(snap.RecordedAt),
	); err != nil {
		return fmt.Errorf("sqlite.SnapshotStore: failed to record snapshot, %w", err)
	}

	return nil
}
