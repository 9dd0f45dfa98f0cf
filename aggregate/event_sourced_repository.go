package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/get-eventually/booking/aggregate/snapshot"
	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/logger"
	"github.com/get-eventually/booking/serde"
	"github.com/get-eventually/booking/version"
)

// RehydrateFromSnapshot rehydrates an Aggregate Root from a Snapshot, using the
// provided Serde to decode the Aggregate state.
//
// The returned Aggregate Root reports the Snapshot version, and has
// no uncommitted events.
func RehydrateFromSnapshot[I ID, T Root[I]](snap snapshot.Snapshot, deserializer serde.Deserializer[T, []byte]) (T, error) {
	var zeroValue T

	root, err := deserializer.Deserialize(snap.State)
	if err != nil {
		return zeroValue, fmt.Errorf("aggregate.RehydrateFromSnapshot: failed to deserialize state, %w", err)
	}

	root.ClearUncommittedEvents()
	root.setVersion(snap.Version)

	return root, nil
}

// EventSourcedRepository provides an aggregate.Repository interface implementation
// that uses an event.Store to store and load the state of the Aggregate Root.
//
// Optionally, a snapshot.Store can be used to speed up loading, and a Projector
// can be used to update Read Models synchronously after each save.
type EventSourcedRepository[I ID, T Root[I]] struct {
	eventStore event.Store
	typ        Type[I, T]

	snapshots      snapshot.Store
	snapshotSerde  serde.Bytes[T]
	snapshotPolicy snapshot.Policy

	projector Projector[I, T]
	logger    logger.Logger
	now       func() time.Time
}

// NewEventSourcedRepository returns a new EventSourcedRepository implementation
// to store and load Aggregate Roots, specified by the aggregate.Type,
// using the provided event.Store implementation.
func NewEventSourcedRepository[I ID, T Root[I]](
	eventStore event.Store,
	typ Type[I, T],
	options ...Option[I, T],
) *EventSourcedRepository[I, T] {
	repo := &EventSourcedRepository[I, T]{
		eventStore:     eventStore,
		typ:            typ,
		snapshotPolicy: snapshot.NeverPolicy{},
		now:            time.Now,
	}

	for _, opt := range options {
		opt.apply(repo)
	}

	return repo
}

// Get returns the Aggregate Root with the specified id.
//
// found is false if neither Domain Events nor a Snapshot exist for the id.
//
// If a Snapshot exists, only the Domain Events following the Snapshot version
// are replayed. A Snapshot that cannot be read or decoded is logged
// and ignored, and the Aggregate Root is rebuilt from the full Event Stream.
//
// An error is returned if the underlying Event Store fails, or if an error
// occurs while trying to rehydrate the Aggregate Root state from its Event Stream.
func (repo *EventSourcedRepository[I, T]) Get(ctx context.Context, id I) (T, bool, error) {
	var zeroValue T

	streamID := repo.typ.StreamID(id)
	root, fromSnapshot := repo.loadSnapshot(ctx, streamID)

	from := version.SelectFromBeginning
	if fromSnapshot {
		from = version.Selector{From: root.Version().Next()}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eventStream := make(event.Stream, 1)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := repo.eventStore.Stream(ctx, eventStream, streamID, from); err != nil {
			return fmt.Errorf("aggregate.EventSourcedRepository: failed while reading event from stream, %w", err)
		}

		return nil
	})

	if err := LoadFromHistory(root, id, event.StreamRead(eventStream)); err != nil {
		cancel()
		for range eventStream { //nolint:revive // Drain, so that the producer can terminate.
		}

		_ = group.Wait()

		return zeroValue, false, fmt.Errorf("aggregate.EventSourcedRepository: failed to rehydrate aggregate root, %w", err)
	}

	if err := group.Wait(); err != nil {
		return zeroValue, false, err
	}

	if root.Version() == version.Empty {
		return zeroValue, false, nil
	}

	return root, true, nil
}

func (repo *EventSourcedRepository[I, T]) loadSnapshot(ctx context.Context, id event.StreamID) (T, bool) {
	if repo.snapshots == nil || repo.snapshotSerde == nil {
		return repo.typ.Factory(), false
	}

	snap, err := repo.snapshots.Get(ctx, id)
	if errors.Is(err, snapshot.ErrNotFound) {
		return repo.typ.Factory(), false
	}

	if err != nil {
		logger.Error(repo.logger, "Failed to read snapshot, falling back to full replay",
			logger.With("stream", id.String()),
			logger.Err(err))

		return repo.typ.Factory(), false
	}

	root, err := RehydrateFromSnapshot[I, T](snap, repo.snapshotSerde)
	if err != nil {
		logger.Error(repo.logger, "Failed to decode snapshot, falling back to full replay",
			logger.With("stream", id.String()),
			logger.With("version", snap.Version),
			logger.Err(err))

		return repo.typ.Factory(), false
	}

	return root, true
}

// Save stores the Aggregate Root to the Event Store, by adding the
// new, uncommitted Domain Events recorded through the Root, if any.
//
// The append is conditioned on the Event Stream still being at the version
// the Aggregate Root was loaded at: if another writer got there first,
// the returned error wraps a version.ConflictError and the Aggregate Root
// keeps its uncommitted events.
//
// After a successful append, a Snapshot is recorded if the Policy advises so,
// and the Projector is called. A failing Snapshot is only logged, while
// a failing Projector returns an error wrapping ErrProjectionFailed.
func (repo *EventSourcedRepository[I, T]) Save(ctx context.Context, root T) error {
	events := root.UncommittedEvents()
	if len(events) == 0 {
		return nil
	}

	streamID := repo.typ.StreamID(root.AggregateID())
	previous := root.Version()

	newVersion, err := repo.eventStore.Append(ctx, streamID, version.CheckExact(previous), events...)
	if err != nil {
		return fmt.Errorf("aggregate.EventSourcedRepository: failed to commit recorded events, %w", err)
	}

	root.setVersion(newVersion)
	root.ClearUncommittedEvents()

	logger.Debug(repo.logger, "Committed recorded events",
		logger.With("stream", streamID.String()),
		logger.With("events", len(events)),
		logger.With("version", newVersion))

	repo.recordSnapshot(ctx, streamID, root, previous, newVersion)

	if repo.projector == nil {
		return nil
	}

	if err := repo.projector.Project(ctx, root); err != nil {
		return fmt.Errorf("aggregate.EventSourcedRepository: %w, %w", ErrProjectionFailed, err)
	}

	return nil
}

func (repo *EventSourcedRepository[I, T]) recordSnapshot(
	ctx context.Context,
	id event.StreamID,
	root T,
	from, to version.Version,
) {
	if repo.snapshots == nil || repo.snapshotSerde == nil || !repo.snapshotPolicy.ShouldRecord(from, to) {
		return
	}

	state, err := repo.snapshotSerde.Serialize(root)
	if err != nil {
		logger.Error(repo.logger, "Failed to serialize snapshot",
			logger.With("stream", id.String()),
			logger.Err(err))

		return
	}

	snap := snapshot.Snapshot{
		StreamID:   id,
		Version:    to,
		State:      state,
		RecordedAt: repo.now().UTC(),
	}

	if err := repo.snapshots.Record(ctx, snap); err != nil {
		logger.Error(repo.logger, "Failed to record snapshot",
			logger.With("stream", id.String()),
			logger.With("version", to),
			logger.Err(err))

		return
	}

	repo.snapshotPolicy.Record(to)
}
