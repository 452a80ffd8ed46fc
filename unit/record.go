// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package unit

import "github.com/basislabs/basis/meta"

// Recordable is the narrow interface a unit needs to forward a message
// it already has both the concrete type and serializer for into a
// recording (satisfied by *recorder.Recorder and *recorder.AsyncRecorder
// without unit importing recorder — a unit factory that wants recording
// sets u.Recorder itself).
type Recordable interface {
	RegisterTopic(topic string, typeInfo meta.MessageTypeInfo, schema meta.MessageSchema) error
	WriteMessage(topic string, payload []byte, logTime int64) error
}
