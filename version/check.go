package version

import (
	"errors"
	"fmt"
)

// Any avoids optimistic concurrency checks when requiring a version.Check instance.
var Any = CheckAny{}

// Check can be used to perform optimistic concurrency checks when writing to
// the Event Store using the event.Appender interface.
type Check interface {
	isVersionCheck()
}

// CheckAny is a Check variant that will avoid optimistic concurrency checks when used.
type CheckAny struct{}

func (CheckAny) isVersionCheck() {}

// CheckExact is a Check variant that ensures the specified version is the
// current highest version of the Event Stream. Use CheckExact(Empty) to
// append to a stream that must not exist yet.
type CheckExact Version

func (CheckExact) isVersionCheck() {}

// Expect returns the Check to use when the Event Stream is expected to be at version v.
func Expect(v Version) CheckExact { return CheckExact(v) }

// ConflictError is returned by an Event Store when appending some Domain Events
// using an expected Event Stream version that does not match the current
// state of the Event Stream.
//
// Every Event Store implementation maps its own conflict signal
// (unique constraint violations, failed transactional checks, etc.) into
// this type: callers should use errors.As to detect it and retry the
// whole operation by reloading the Aggregate.
type ConflictError struct {
	Expected Version
	Actual   Version
}

func (err ConflictError) Error() string {
	return fmt.Sprintf(
		"version.Check: conflict detected; expected stream version: %d, actual: %d",
		err.Expected,
		err.Actual,
	)
}

// IsConflict reports whether err is, or wraps, a ConflictError.
func IsConflict(err error) (ConflictError, bool) {
	var conflictErr ConflictError
	if errors.As(err, &conflictErr) {
		return conflictErr, true
	}

	return ConflictError{}, false
}
