package eventuallyfirestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/get-eventually/booking/aggregate/snapshot"
	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/version"
)

//nolint:exhaustruct // Only used for interface assertion.
var _ snapshot.Store = SnapshotStore{}

type snapshotDocument struct {
	AggregateType string    `firestore:"aggregate_type"`
	State         []byte    `firestore:"state"`
	Version       int64     `firestore:"version"`
	RecordedAt    time.Time `firestore:"recorded_at"`
}

// SnapshotStore is a snapshot.Store implementation for Firestore,
// keeping one document per Aggregate in the Snapshots collection.
type SnapshotStore struct {
	Client *firestore.Client
}

// Get implements the snapshot.Getter interface.
func (ss SnapshotStore) Get(ctx context.Context, id event.StreamID) (snapshot.Snapshot, error) {
	doc, err := ss.Client.Collection(SnapshotsCollection).Doc(id.Name).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return snapshot.Snapshot{}, fmt.Errorf("eventuallyfirestore.SnapshotStore: '%s', %w", id, snapshot.ErrNotFound)
	}

	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("eventuallyfirestore.SnapshotStore: failed to get snapshot, %w", err)
	}

	var data snapshotDocument
	if err := doc.DataTo(&data); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("eventuallyfirestore.SnapshotStore: failed to decode snapshot, %w", err)
	}

	return snapshot.Snapshot{
		StreamID:   event.StreamID{Type: data.AggregateType, Name: id.Name},
		Version:    version.Version(data.Version),
		State:      data.State,
		RecordedAt: data.RecordedAt.UTC(),
	}, nil
}

// Record implements the snapshot.Recorder interface.
func (ss SnapshotStore) Record(ctx context.Context, snap snapshot.Snapshot) error {
	if _, err := ss.Client.Collection(SnapshotsCollection).Doc(snap.StreamID.Name).Set(ctx, snapshotDocument{
		AggregateType: snap.StreamID.Type,
		State:         snap.State,
		Version:       int64(snap.Version),
		RecordedAt:    snap.RecordedAt,
	}); err != nil {
		return fmt.Errorf("eventuallyfirestore.SnapshotStore: failed to record snapshot, %w", err)
	}

	return nil
}
