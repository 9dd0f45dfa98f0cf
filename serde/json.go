package serde

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyPayload is returned when deserializing an empty document.
var ErrEmptyPayload = errors.New("serde: empty payload")

// Error is returned by the JSON serde when a value cannot be encoded
// or decoded.
type Error struct {
	Op   string // "serialize" or "deserialize"
	Type string
	Err  error
}

func (err *Error) Error() string {
	return fmt.Sprintf("serde.JSON: failed to %s %s, %v", err.Op, err.Type, err.Err)
}

func (err *Error) Unwrap() error { return err.Err }

var _ Bytes[struct{}] = JSON[struct{}]{}

// JSON serializes values of type T to JSON documents, and back.
//
// Factory creates the value documents are decoded into: it must return a
// non-nil value when T is a pointer type.
//
// When Strict is set, documents with fields T does not declare, or with
// trailing data, fail to deserialize.
type JSON[T any] struct {
	Factory func() T
	Strict  bool
}

// NewJSON returns a JSON serde tolerating unknown fields, used for Domain
// Event payloads written by newer versions of an event type.
func NewJSON[T any](factory func() T) JSON[T] {
	return JSON[T]{Factory: factory}
}

// NewStrictJSON returns a JSON serde rejecting unknown fields, used for
// Aggregate snapshots: a snapshot written with a different state layout
// is discarded in favor of a full replay.
func NewStrictJSON[T any](factory func() T) JSON[T] {
	return JSON[T]{Factory: factory, Strict: true}
}

// Serialize implements the serde.Serializer interface.
func (s JSON[T]) Serialize(t T) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, &Error{Op: "serialize", Type: fmt.Sprintf("%T", t), Err: err}
	}

	return data, nil
}

// Deserialize implements the serde.Deserializer interface.
func (s JSON[T]) Deserialize(data []byte) (T, error) {
	var zeroValue T

	model := s.Factory()
	typ := fmt.Sprintf("%T", model)

	if len(bytes.TrimSpace(data)) == 0 {
		return zeroValue, &Error{Op: "deserialize", Type: typ, Err: ErrEmptyPayload}
	}

	if !s.Strict {
		if err := json.Unmarshal(data, &model); err != nil {
			return zeroValue, &Error{Op: "deserialize", Type: typ, Err: err}
		}

		return model, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&model); err != nil {
		return zeroValue, &Error{Op: "deserialize", Type: typ, Err: err}
	}

	if decoder.More() {
		return zeroValue, &Error{Op: "deserialize", Type: typ, Err: errors.New("trailing data after document")}
	}

	return model, nil
}
