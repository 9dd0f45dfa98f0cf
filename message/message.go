// Package message exposes the Message type, shared by every kind of
// message exchanged in the system (Domain Events, Commands).
package message

// Message is implemented by every message payload.
//
// The name returned by a Message is its stable type tag: it is persisted
// together with the serialized payload and used to route the payload back
// to its concrete Go type.
type Message interface {
	Name() string
}

// Metadata contains supporting information attached to a Message,
// which is not part of the Message payload itself (e.g. correlation ids,
// the user that issued a Command, etc.).
type Metadata map[string]string

// With returns the Metadata extended with the specified key-value pair.
//
// The method allocates a new map when called on a nil Metadata.
func (m Metadata) With(key, value string) Metadata {
	if m == nil {
		m = make(Metadata)
	}

	m[key] = value

	return m
}

// Merge copies all the entries of other into the current Metadata.
func (m Metadata) Merge(other Metadata) Metadata {
	if m == nil {
		return other
	}

	for k, v := range other {
		m[k] = v
	}

	return m
}

// Envelope bundles a Message with its Metadata.
type Envelope[T Message] struct {
	Message  T
	Metadata Metadata
}
