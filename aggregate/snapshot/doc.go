// Package snapshot provides support for Aggregate Root snapshots, useful
// where the size of your Aggregate Roots is expected to considerably
// grow in size and number of events.
//
// Snapshots are used by the Event-sourced Aggregate Repository as an optimization
// technique to speed up the Aggregate state rehydration process, by saving
// the state of the Aggregate Root at a particular version in a durable store.
//
// Snapshots are never authoritative: a missing or stale snapshot only affects
// the number of Domain Events to replay.
package snapshot
