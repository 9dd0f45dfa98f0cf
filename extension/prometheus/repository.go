package prometheus

import (
	"context"
	"time"

	"github.com/get-eventually/booking/aggregate"
)

// Repository is an aggregate.Repository wrapper that records the latency
// of Get and Save operations, labeled by aggregate type.
type Repository[I aggregate.ID, T aggregate.Root[I]] struct {
	Type       aggregate.Type[I, T]
	Repository aggregate.Repository[I, T]
	Metrics    *Metrics
}

// Get implements the aggregate.Getter interface.
func (r Repository[I, T]) Get(ctx context.Context, id I) (T, bool, error) {
	start := time.Now()
	root, found, err := r.Repository.Get(ctx, id)

	observeSince(r.Metrics.repoGetDuration.WithLabelValues(r.Type.Name, boolToStr(found)), start)

	return root, found, err
}

// Save implements the aggregate.Saver interface.
func (r Repository[I, T]) Save(ctx context.Context, root T) error {
	start := time.Now()
	err := r.Repository.Save(ctx, root)

	observeSince(r.Metrics.repoSaveDuration.WithLabelValues(r.Type.Name, boolToStr(err == nil)), start)

	return err
}

// Projector is an aggregate.Projector wrapper that counts the projected
// Aggregate Roots, labeled by aggregate type and outcome.
type Projector[I aggregate.ID, T aggregate.Root[I]] struct {
	Type      aggregate.Type[I, T]
	Projector aggregate.Projector[I, T]
	Metrics   *Metrics
}

// Project implements the aggregate.Projector interface.
func (p Projector[I, T]) Project(ctx context.Context, root T) error {
	err := p.Projector.Project(ctx, root)
	p.Metrics.projections.WithLabelValues(p.Type.Name, boolToStr(err == nil)).Inc()

	return err
}
