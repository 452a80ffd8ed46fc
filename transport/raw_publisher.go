// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package transport

import (
	"weak"

	"github.com/google/uuid"

	"github.com/basislabs/basis/cmn/cos"
	"github.com/basislabs/basis/meta"
	"github.com/basislabs/basis/wire"
)

// RawPublisher is the handle returned by AdvertiseRaw: a publisher whose
// payloads arrive pre-serialized (spec §4.14, the replayer's use case —
// it holds schema bytes read back out of an MCAP file, never a live
// Go type to serialize from). Like RawSubscriber, it never touches the
// in-process transport: inproc fan-out is for live typed publishers only.
type RawPublisher struct {
	publisherBase
}

// AdvertiseRaw registers typeInfo's schema and creates one backend
// publisher per registered transport, without requiring a serializer[T].
func AdvertiseRaw(m *Manager, topic string, typeInfo meta.MessageTypeInfo, schema meta.MessageSchema) (*RawPublisher, error) {
	p := &RawPublisher{}
	id, err := cos.GenPublisherID()
	if err != nil {
		return nil, err
	}
	p.id = id
	p.topic = topic
	p.useInproc = false
	p.backends = make(map[string]BackendPublisher)

	for name, backend := range m.backendList() {
		bp, err := backend.NewPublisher()
		if err != nil {
			continue
		}
		p.backends[name] = bp
	}

	m.registerSchema(schema.SerializerName, schema.SchemaName, schema.SchemaText, schema.EfficientBytes)
	_ = typeInfo

	m.mu.Lock()
	m.publishers[p.id] = weak.Make(&p.publisherBase)
	m.mu.Unlock()

	return p, nil
}

// PublishRaw fans an already-framed packet out to every backend with a
// live subscriber.
func (p *RawPublisher) PublishRaw(pkt *wire.Packet) {
	for _, bp := range p.backends {
		if bp.SubscriberCount() > 0 {
			bp.SendMessage(pkt)
		}
	}
}

func (p *RawPublisher) Topic() string  { return p.topic }
func (p *RawPublisher) ID() uuid.UUID  { return p.id }
func (p *RawPublisher) Close()         { p.close() }
