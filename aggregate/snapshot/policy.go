package snapshot

import (
	"sync"
	"time"

	"github.com/get-eventually/booking/version"
)

// Policy represents the behavior of the Snapshot functionality,
// advising on the frequency of the snapshots to take.
//
// ShouldRecord is queried after a successful save that moved an Aggregate
// from version `from` to version `to`; Record is called after a Snapshot
// has been recorded at version `to`.
//
// Policies are used concurrently by the Repository, so implementations
// must be thread-safe.
type Policy interface {
	ShouldRecord(from, to version.Version) bool
	Record(to version.Version)
}

// NeverPolicy is a Snapshot Policy that never signals to take snapshots
// when queried.
type NeverPolicy struct{}

// ShouldRecord always returns false.
func (NeverPolicy) ShouldRecord(_, _ version.Version) bool { return false }

// Record is a no-op.
func (NeverPolicy) Record(version.Version) {}

// AlwaysPolicy is a Snapshot Policy that always signals to take snapshots
// when queried.
type AlwaysPolicy struct{}

// ShouldRecord always returns true.
func (AlwaysPolicy) ShouldRecord(_, _ version.Version) bool { return true }

// Record is a no-op.
func (AlwaysPolicy) Record(version.Version) {}

// AtFixedIntervalsPolicy is a Snapshot Policy that signals to take snapshots
// at a fixed, specified time interval (e.g. every 1 hour, etc.)
//
// Please note: the time interval is tracked for the whole application,
// not per Aggregate.
type AtFixedIntervalsPolicy struct {
	mx       sync.Mutex
	interval time.Duration
	lastTime time.Time
	now      func() time.Time
}

// NewAtFixedIntervalsPolicy creates an AtFixedIntervalsPolicy instance
// with the specified time interval for Snapshot recordings.
func NewAtFixedIntervalsPolicy(interval time.Duration) *AtFixedIntervalsPolicy {
	return &AtFixedIntervalsPolicy{
		interval: interval,
		now:      time.Now,
	}
}

// ShouldRecord returns true on the first query, then after every interval
// specified during construction.
func (p *AtFixedIntervalsPolicy) ShouldRecord(_, _ version.Version) bool {
	p.mx.Lock()
	defer p.mx.Unlock()

	return p.lastTime.IsZero() || p.now().Sub(p.lastTime) >= p.interval
}

// Record updates the internal state of the Policy with the current timestamp.
func (p *AtFixedIntervalsPolicy) Record(version.Version) {
	p.mx.Lock()
	defer p.mx.Unlock()

	p.lastTime = p.now()
}

// EveryVersionIncrementPolicy is a Snapshot Policy that signals to take
// snapshots every time the number of events in an Event Stream crosses a
// multiple of this value.
//
// If the number used is EveryVersionIncrementPolicy(10), it means this policy
// will signal to record a snapshot when the stream reaches 10, 20, 30 events
// and so on, even when a single save appends more than one event.
type EveryVersionIncrementPolicy int64

// ShouldRecord returns true when the save crossed a multiple of the increment.
func (p EveryVersionIncrementPolicy) ShouldRecord(from, to version.Version) bool {
	if p <= 0 {
		return false
	}

	// Versions are 0-based, so version+1 is the stream length.
	return (int64(to)+1)/int64(p) > (int64(from)+1)/int64(p)
}

// Record is a no-op, as the policy uses a stateless function.
func (EveryVersionIncrementPolicy) Record(version.Version) {}
