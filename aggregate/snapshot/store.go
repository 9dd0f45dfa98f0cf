package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/version"
)

// ErrNotFound is returned by a snapshot.Getter when no snapshot
// has been found in the store for the requested Aggregate.
var ErrNotFound = errors.New("snapshot: entry not found")

// Snapshot is the serialized state of an Aggregate Root at a specific version.
type Snapshot struct {
	StreamID   event.StreamID  `json:"stream_id"`
	Version    version.Version `json:"version"`
	State      []byte          `json:"state"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// Recorder is used to record Snapshots to a durable store.
//
// Stores keep at most one Snapshot per Aggregate: recording a new Snapshot
// replaces the previous one.
type Recorder interface {
	Record(ctx context.Context, snapshot Snapshot) error
}

// Getter is used to retrieve the most-recent Snapshot from a durable store.
type Getter interface {
	Get(ctx context.Context, id event.StreamID) (Snapshot, error)
}

// Store is a durable store for Aggregate Root snapshots.
type Store interface {
	Recorder
	Getter
}
