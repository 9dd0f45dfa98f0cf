// Package version contains the types used to address positions in an
// Event Stream, and to perform optimistic concurrency checks when appending
// new Domain Events to it.
package version

// Version is the position of a Domain Event in its Event Stream.
//
// Versions are 0-based: the first Domain Event of a stream has version 0,
// and a stream with N events is at version N-1.
type Version int64

// Empty is the version of an Event Stream that has no Domain Events yet.
const Empty Version = -1

// Next returns the version following v.
func (v Version) Next() Version { return v + 1 }

// SelectFromBeginning is a Selector value that will return all Domain Events in an Event Stream.
var SelectFromBeginning = Selector{From: 0}

// Selector specifies which slice of the Event Stream to select when streaming Domain Events
// from the Event Store: only events with version greater or equal than From are returned.
type Selector struct {
	From Version
}
