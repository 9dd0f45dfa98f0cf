package aggregate

import (
	"context"
	"errors"
)

// ErrProjectionFailed is returned by the Repository when the Domain Events have
// been committed to the Event Store, but the synchronous projection that follows failed.
//
// The Event Store remains authoritative: the Read Models can be recovered
// by rebuilding them.
var ErrProjectionFailed = errors.New("aggregate.Repository: events committed but projection failed")

// Getter is an Aggregate Repository interface component,
// that can be used for retrieving Aggregate Roots from some storage.
type Getter[I ID, T Root[I]] interface {
	// Get returns the Aggregate Root with the specified id.
	//
	// When no Aggregate Root exists with that id, found is false and
	// err is nil.
	Get(ctx context.Context, id I) (root T, found bool, err error)
}

// Saver is an Aggregate Repository interface component,
// that can be used for storing Aggregate Roots in some storage.
type Saver[I ID, T Root[I]] interface {
	Save(ctx context.Context, root T) error
}

// Repository is an interface used to get Aggregate Roots from and save them to
// some kind of storage, which implementation details are abstracted away.
type Repository[I ID, T Root[I]] interface {
	Getter[I, T]
	Saver[I, T]
}

// Projector receives the Aggregate Roots that have just been saved,
// to keep the Read Models up to date.
type Projector[I ID, T Root[I]] interface {
	Project(ctx context.Context, root T) error
}

// ProjectorFunc is a functional implementation of the Projector interface.
type ProjectorFunc[I ID, T Root[I]] func(ctx context.Context, root T) error

// Project implements the aggregate.Projector interface.
func (fn ProjectorFunc[I, T]) Project(ctx context.Context, root T) error { return fn(ctx, root) }
