// Package caster converts typed engine values to and from the wire bytes
// used on the websocket edge.
package caster

import "encoding/json"

type Codec[T any] interface {
	Decode([]byte) (T, error)
	Encode(T) ([]byte, error)
}

type JSONCodec[T any] struct{}

func (jc JSONCodec[T]) Decode(data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

func (jc JSONCodec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}
