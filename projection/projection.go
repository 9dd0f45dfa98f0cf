// Package projection keeps denormalized Read Models up to date with the
// state of Aggregate Roots, both synchronously after each save and through
// full rebuilds from the Event Store.
package projection

import (
	"context"
	"errors"
)

// ErrNotFound is returned when projecting an Aggregate Root that has
// no Domain Events in the Event Store.
var ErrNotFound = errors.New("projection: aggregate not found")

// Store is the persistence port for a Read Model type.
//
// Upsert creates or overwrites the Read Model row keyed by its Aggregate id.
// Implementations must not let an older Read Model (one with a lower
// last applied event version) overwrite a newer one.
type Store[M any] interface {
	Upsert(ctx context.Context, model M) error
}

// StoreFunc is a functional implementation of the Store interface.
type StoreFunc[M any] func(ctx context.Context, model M) error

// Upsert implements the projection.Store interface.
func (fn StoreFunc[M]) Upsert(ctx context.Context, model M) error { return fn(ctx, model) }

// Mapper maps the current state of an Aggregate Root into its Read Model,
// resolving any external data needed on the way.
type Mapper[T, M any] interface {
	Map(ctx context.Context, root T) (M, error)
}

// MapperFunc is a functional implementation of the Mapper interface.
type MapperFunc[T, M any] func(ctx context.Context, root T) (M, error)

// Map implements the projection.Mapper interface.
func (fn MapperFunc[T, M]) Map(ctx context.Context, root T) (M, error) { return fn(ctx, root) }
