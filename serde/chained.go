package serde

import "fmt"

// Chained maps a Src value to Dst through an intermediate model type (Mid):
// the model Serde converts between Src and Mid, and the encoding Serde
// converts between Mid and Dst.
//
// Aggregate snapshots use it to map an Aggregate Root to an exported state
// struct first, and the state struct to JSON afterwards.
type Chained[Src any, Mid any, Dst any] struct {
	model    Serde[Src, Mid]
	encoding Serde[Mid, Dst]
}

// Chain returns a Chained serde over the model and encoding serdes.
func Chain[Src any, Mid any, Dst any](model Serde[Src, Mid], encoding Serde[Mid, Dst]) Chained[Src, Mid, Dst] {
	return Chained[Src, Mid, Dst]{
		model:    model,
		encoding: encoding,
	}
}

// Serialize implements the serde.Serializer interface.
func (s Chained[Src, Mid, Dst]) Serialize(src Src) (dst Dst, err error) {
	mid, err := s.model.Serialize(src)
	if err != nil {
		return dst, fmt.Errorf("serde.Chained: failed to map %T to its model, %w", src, err)
	}

	if dst, err = s.encoding.Serialize(mid); err != nil {
		return dst, fmt.Errorf("serde.Chained: failed to encode %T, %w", mid, err)
	}

	return dst, nil
}

// Deserialize implements the serde.Deserializer interface.
func (s Chained[Src, Mid, Dst]) Deserialize(dst Dst) (src Src, err error) {
	mid, err := s.encoding.Deserialize(dst)
	if err != nil {
		return src, fmt.Errorf("serde.Chained: failed to decode %T, %w", mid, err)
	}

	if src, err = s.model.Deserialize(mid); err != nil {
		return src, fmt.Errorf("serde.Chained: failed to map %T from its model, %w", mid, err)
	}

	return src, nil
}
