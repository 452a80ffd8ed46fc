// Package serialize defines the narrow interface concrete serializer
// plugins (protobuf, a ROS1-style msg codec) implement, and that the
// transport manager binds against generically when advertising a
// publisher or subscribing to a topic (spec §4.8, §9 "type erasure").
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package serialize

// Serializer is implemented once per wire message type T. Each Advertise/
// Subscribe call keeps the serializer on the handle it returns: the
// publisher calls SerializedSize/SerializeToSpan, the subscriber calls
// DeserializeFromSpan.
type Serializer[T any] interface {
	// Name identifies the serializer for MessageSchema/MessageTypeInfo,
	// e.g. "protobuf", "ros1msg", "raw".
	Name() string

	// SerializedSize returns the exact number of bytes SerializeToSpan
	// will write for msg, so the caller can allocate the packet payload
	// up front.
	SerializedSize(msg *T) int

	// SerializeToSpan encodes msg into buf, which is exactly
	// SerializedSize(msg) bytes.
	SerializeToSpan(msg *T, buf []byte) error

	// DeserializeFromSpan decodes buf into a new *T. Parse failures are
	// logged and the packet dropped by the caller (spec §7); the
	// connection itself is not affected.
	DeserializeFromSpan(buf []byte) (*T, error)

	// TypeName is the schema_name component of the type's schema id and
	// MessageTypeInfo.Name, e.g. "example.Foo".
	TypeName() string

	// SchemaText and EfficientBytes supply the registered MessageSchema
	// the first time this type is advertised; Subscribe does not register
	// a schema.
	SchemaText() string
	EfficientBytes() []byte
}
