package projection

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/get-eventually/booking/aggregate"
	"github.com/get-eventually/booking/event"
	"github.com/get-eventually/booking/logger"
)

// Service projects Aggregate Roots of a single type into their Read Model.
//
// Service implements aggregate.Projector, so it can be plugged into an
// aggregate.EventSourcedRepository to update the Read Model right after
// each successful save. The same Service is used to rebuild Read Models
// from scratch, by replaying the Event Streams listed in the Event Store.
type Service[I aggregate.ID, T aggregate.Root[I], M any] struct {
	typ     aggregate.Type[I, T]
	getter  aggregate.Getter[I, T]
	lister  event.StreamLister
	parseID func(string) (I, error)
	mapper  Mapper[T, M]
	store   Store[M]
	opts    options
}

// NewService creates a new projection Service.
//
// The getter is used to load Aggregate Roots by id when rebuilding: it should not
// be a Repository that projects on save, to avoid projecting twice.
// The lister and parseID function are used to enumerate all the Aggregate ids
// of the given type in the Event Store.
func NewService[I aggregate.ID, T aggregate.Root[I], M any](
	typ aggregate.Type[I, T],
	getter aggregate.Getter[I, T],
	lister event.StreamLister,
	parseID func(string) (I, error),
	mapper Mapper[T, M],
	store Store[M],
	opts ...Option,
) *Service[I, T, M] {
	s := &Service[I, T, M]{
		typ:     typ,
		getter:  getter,
		lister:  lister,
		parseID: parseID,
		mapper:  mapper,
		store:   store,
		opts: options{
			retry:       DefaultRetryConfig,
			concurrency: DefaultRebuildConcurrency,
			logger:      nil,
		},
	}

	for _, opt := range opts {
		opt.apply(&s.opts)
	}

	return s
}

// Project maps the Aggregate Root into its Read Model and upserts it,
// retrying with exponential backoff if the Store fails.
func (s *Service[I, T, M]) Project(ctx context.Context, root T) error {
	model, err := s.mapper.Map(ctx, root)
	if err != nil {
		return fmt.Errorf("projection.Service: failed to map '%s' to read model, %w", root.AggregateID(), err)
	}

	if err := s.upsert(ctx, root.AggregateID(), model); err != nil {
		return fmt.Errorf("projection.Service: failed to upsert read model for '%s', %w", root.AggregateID(), err)
	}

	return nil
}

// ProjectByID loads the Aggregate Root with the specified id and projects it.
//
// ErrNotFound is returned if the Aggregate Root does not exist.
func (s *Service[I, T, M]) ProjectByID(ctx context.Context, id I) error {
	root, found, err := s.getter.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("projection.Service: failed to load '%s', %w", id, err)
	}

	if !found {
		return fmt.Errorf("projection.Service: %w, '%s'", ErrNotFound, id)
	}

	return s.Project(ctx, root)
}

// Rebuild projects the Aggregate Root stored in the named Event Stream.
func (s *Service[I, T, M]) Rebuild(ctx context.Context, name string) error {
	id, err := s.parseID(name)
	if err != nil {
		return fmt.Errorf("projection.Service: invalid aggregate id '%s', %w", name, err)
	}

	return s.ProjectByID(ctx, id)
}

// RebuildAll projects every Aggregate Root of the Service type found in the
// Event Store, returning the number of Read Models rebuilt.
//
// Read Models are only upserted: rows without a matching Event Stream
// are left untouched.
func (s *Service[I, T, M]) RebuildAll(ctx context.Context) (int, error) {
	names, err := s.lister.StreamIDs(ctx, s.typ.Name)
	if err != nil {
		return 0, fmt.Errorf("projection.Service: failed to list '%s' streams, %w", s.typ.Name, err)
	}

	logger.Info(s.opts.logger, "Rebuilding read models",
		logger.With("aggregateType", s.typ.Name),
		logger.With("count", len(names)),
	)

	var rebuilt atomic.Int64

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(s.opts.concurrency)

	for _, name := range names {
		group.Go(func() error {
			if err := s.Rebuild(ctx, name); err != nil {
				return err
			}

			rebuilt.Add(1)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return int(rebuilt.Load()), fmt.Errorf("projection.Service: rebuild of '%s' failed, %w", s.typ.Name, err)
	}

	logger.Info(s.opts.logger, "Read models rebuilt",
		logger.With("aggregateType", s.typ.Name),
		logger.With("count", rebuilt.Load()),
	)

	return int(rebuilt.Load()), nil
}

func (s *Service[I, T, M]) upsert(ctx context.Context, id I, model M) error {
	attempt := 0

	operation := func() error {
		attempt++
		return s.store.Upsert(ctx, model)
	}

	notify := func(err error, delay time.Duration) {
		logger.Warn(s.opts.logger, "Read model upsert failed, retrying",
			logger.With("aggregateType", s.typ.Name),
			logger.With("aggregateId", id.String()),
			logger.With("attempt", attempt),
			logger.With("delay", delay),
			logger.Err(err),
		)
	}

	return backoff.RetryNotify(operation, s.backOff(ctx), notify)
}

func (s *Service[I, T, M]) backOff(ctx context.Context) backoff.BackOff {
	cfg := s.opts.retry
	if cfg.MaxAttempts <= 1 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialDelay
	b.Multiplier = cfg.Multiplier
	b.MaxInterval = cfg.MaxDelay
	b.MaxElapsedTime = 0
	b.Reset()

	//nolint:gosec // MaxAttempts is always positive here.
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(cfg.MaxAttempts-1)), ctx)
}
