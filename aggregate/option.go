package aggregate

import (
	"github.com/get-eventually/booking/aggregate/snapshot"
	"github.com/get-eventually/booking/logger"
	"github.com/get-eventually/booking/serde"
)

// Option can be used to change the configuration of an EventSourcedRepository.
type Option[I ID, T Root[I]] interface {
	apply(*EventSourcedRepository[I, T])
}

type option[I ID, T Root[I]] func(*EventSourcedRepository[I, T])

func (apply option[I, T]) apply(repo *EventSourcedRepository[I, T]) { apply(repo) }

// WithSnapshots enables snapshots for the Repository: Aggregate Roots are
// loaded from their latest Snapshot, and new Snapshots are recorded after
// a save, as advised by the Policy.
//
// The Serde must be able to round-trip the full Aggregate Root state.
func WithSnapshots[I ID, T Root[I]](
	store snapshot.Store,
	stateSerde serde.Bytes[T],
	policy snapshot.Policy,
) Option[I, T] {
	return option[I, T](func(repo *EventSourcedRepository[I, T]) {
		repo.snapshots = store
		repo.snapshotSerde = stateSerde
		repo.snapshotPolicy = policy
	})
}

// WithProjector sets a Projector to call synchronously after every
// successful save.
func WithProjector[I ID, T Root[I]](projector Projector[I, T]) Option[I, T] {
	return option[I, T](func(repo *EventSourcedRepository[I, T]) {
		repo.projector = projector
	})
}

// WithLogger sets the logger.Logger used by the Repository.
func WithLogger[I ID, T Root[I]](l logger.Logger) Option[I, T] {
	return option[I, T](func(repo *EventSourcedRepository[I, T]) {
		repo.logger = l
	})
}
