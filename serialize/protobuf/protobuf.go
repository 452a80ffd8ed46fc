// Package protobuf implements serialize.Serializer for protobuf message
// types, using google.golang.org/protobuf. This is the canonical
// serializer used by the end-to-end scenarios in spec §8 (Int32Value,
// Int64Value).
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package protobuf

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
)

// Message constrains T so *T implements proto.Message — the standard
// two-type-parameter pattern for a generic codec over a pointer receiver.
type Message[T any] interface {
	*T
	proto.Message
}

// Serializer implements serialize.Serializer[T] for any protobuf message
// type T whose pointer satisfies proto.Message.
type Serializer[T any, PT Message[T]] struct{}

func New[T any, PT Message[T]]() Serializer[T, PT] { return Serializer[T, PT]{} }

func (Serializer[T, PT]) Name() string { return "protobuf" }

func (Serializer[T, PT]) SerializedSize(msg *T) int {
	return proto.Size(PT(msg))
}

func (Serializer[T, PT]) SerializeToSpan(msg *T, buf []byte) error {
	b, err := proto.MarshalOptions{}.MarshalAppend(buf[:0], PT(msg))
	if err != nil {
		return err
	}
	if len(b) != len(buf) {
		// MarshalAppend may realloc if buf was undersized; that's a caller bug
		// (SerializedSize should have been used to size buf exactly).
		return fmt.Errorf("protobuf: serialized size mismatch: got %d, buf %d", len(b), len(buf))
	}
	return nil
}

func (Serializer[T, PT]) DeserializeFromSpan(buf []byte) (*T, error) {
	var zero T
	msg := PT(&zero)
	if err := proto.Unmarshal(buf, msg); err != nil {
		return nil, err
	}
	return &zero, nil
}

func (Serializer[T, PT]) TypeName() string {
	var zero T
	return string(PT(&zero).ProtoReflect().Descriptor().FullName())
}

// SchemaText returns a human-readable textual rendering of the message's
// descriptor — MessageSchema.schema_text is meant to be human-readable
// (spec §3), unlike EfficientBytes.
func (s Serializer[T, PT]) SchemaText() string {
	var zero T
	d := PT(&zero).ProtoReflect().Descriptor()
	return fmt.Sprintf("syntax = \"proto3\";\nmessage %s { /* %d fields */ }",
		d.Name(), d.Fields().Len())
}

// EfficientBytes returns the message's FileDescriptorProto, marshaled —
// the "efficient" schema form named in spec §6.3, suitable for
// reconstructing the type on a reader that only has the recorded bytes.
func (s Serializer[T, PT]) EfficientBytes() []byte {
	var zero T
	fd := PT(&zero).ProtoReflect().Descriptor().ParentFile()
	fdProto := protodesc.ToFileDescriptorProto(fd)
	b, err := proto.Marshal(fdProto)
	if err != nil {
		return nil
	}
	return b
}
