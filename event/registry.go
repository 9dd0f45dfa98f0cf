package event

import (
	"errors"
	"fmt"
	"sync"

	"github.com/get-eventually/booking/serde"
)

// ErrUnregisteredEvent is returned by the Registry when asked to deserialize
// a Domain Event with a type tag it does not know about.
var ErrUnregisteredEvent = errors.New("event.Registry: unregistered event type")

// Serde serializes Domain Events into their persisted representation and
// deserializes them back using the type tag stored alongside the payload.
type Serde interface {
	Serialize(evt Event) ([]byte, error)
	Deserialize(eventType string, data []byte) (Event, error)
}

// Registry is a type-tag based Serde for Domain Events, using JSON as
// the wire format of the Event payload.
//
// Event types are added to the Registry using the Register function.
type Registry struct {
	mx            sync.RWMutex
	deserializers map[string]serde.Deserializer[Event, []byte]
}

var _ Serde = new(Registry)

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		deserializers: make(map[string]serde.Deserializer[Event, []byte]),
	}
}

// Register adds the Domain Event type T to the Registry, using the type tag
// returned by the zero value of T: T should be a value type whose Name
// method does not depend on its fields.
//
// Registering the same type twice is a no-op; registering two different types
// sharing the same tag returns an error.
func Register[T Event](r *Registry) error {
	var zeroValue T

	name := zeroValue.Name()
	deserializer := serde.NewJSON(func() T { return zeroValue })

	r.mx.Lock()
	defer r.mx.Unlock()

	if existing, ok := r.deserializers[name]; ok {
		if _, sameType := existing.(typedDeserializer[T]); sameType {
			return nil
		}

		return fmt.Errorf("event.Registry: event type '%s' already registered with a different type", name)
	}

	r.deserializers[name] = typedDeserializer[T]{deserializer: deserializer}

	return nil
}

// Serialize implements the event.Serde interface.
func (r *Registry) Serialize(evt Event) ([]byte, error) {
	if evt == nil {
		return nil, fmt.Errorf("event.Registry: nil event provided")
	}

	r.mx.RLock()
	_, ok := r.deserializers[evt.Name()]
	r.mx.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w, '%s'", ErrUnregisteredEvent, evt.Name())
	}

	data, err := serde.JSON[Event]{}.Serialize(evt)
	if err != nil {
		return nil, fmt.Errorf("event.Registry: failed to serialize '%s', %w", evt.Name(), err)
	}

	return data, nil
}

// Deserialize implements the event.Serde interface.
func (r *Registry) Deserialize(eventType string, data []byte) (Event, error) {
	r.mx.RLock()
	deserializer, ok := r.deserializers[eventType]
	r.mx.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w, '%s'", ErrUnregisteredEvent, eventType)
	}

	evt, err := deserializer.Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("event.Registry: failed to deserialize '%s', %w", eventType, err)
	}

	return evt, nil
}

type typedDeserializer[T Event] struct {
	deserializer serde.Deserializer[T, []byte]
}

func (d typedDeserializer[T]) Deserialize(data []byte) (Event, error) {
	evt, err := d.deserializer.Deserialize(data)
	if err != nil {
		return nil, err
	}

	return evt, nil
}
