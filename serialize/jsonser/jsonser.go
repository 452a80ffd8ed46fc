// Package jsonser implements serialize.Serializer over plain Go structs
// via JSON, for message types that don't warrant a protobuf schema (unit
// tests, simple control topics).
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package jsonser

import (
	"reflect"

	jsoniter "github.com/json-iterator/go"
)

// Serializer implements serialize.Serializer[T] for any JSON-marshalable
// struct type T.
type Serializer[T any] struct{ typeName string }

// New names the serializer's schema entry; typeName becomes
// MessageTypeInfo.Name and the schema_name half of the schema id.
func New[T any](typeName string) Serializer[T] { return Serializer[T]{typeName: typeName} }

func (Serializer[T]) Name() string { return "json" }

// SerializedSize marshals msg to measure it. JSON has no cheap exact
// size, so this pays the encode cost twice per message (size, then
// write) — acceptable for jsonser's control-topic use case, not for a
// hot data path.
func (Serializer[T]) SerializedSize(msg *T) int {
	b, err := jsoniter.Marshal(msg)
	if err != nil {
		return 0
	}
	return len(b)
}

func (Serializer[T]) SerializeToSpan(msg *T, buf []byte) error {
	b, err := jsoniter.Marshal(msg)
	if err != nil {
		return err
	}
	copy(buf, b)
	return nil
}

func (Serializer[T]) DeserializeFromSpan(buf []byte) (*T, error) {
	var out T
	if err := jsoniter.Unmarshal(buf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s Serializer[T]) TypeName() string { return s.typeName }

func (s Serializer[T]) SchemaText() string {
	var zero T
	return reflect.TypeOf(zero).String()
}

func (Serializer[T]) EfficientBytes() []byte { return nil }
