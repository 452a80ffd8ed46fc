// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package transport

import (
	"weak"

	"github.com/google/uuid"

	"github.com/basislabs/basis/cmn/cos"
	"github.com/basislabs/basis/cmn/mono"
	"github.com/basislabs/basis/cmn/nlog"
	"github.com/basislabs/basis/meta"
	"github.com/basislabs/basis/serialize"
	"github.com/basislabs/basis/transport/inproc"
	"github.com/basislabs/basis/wire"
)

// publisherBase is the non-generic part of a Publisher[T] — what the
// Manager's weak publisher registry actually points at, so a topology
// snapshot or Update doesn't need to know T.
type publisherBase struct {
	id        uuid.UUID
	topic     string
	useInproc bool
	backends  map[string]BackendPublisher
}

func (b *publisherBase) info() meta.PublisherInfo {
	transports := make(map[string]string, len(b.backends)+1)
	if b.useInproc {
		transports[meta.TransportInproc] = ""
	}
	for name, bp := range b.backends {
		transports[name] = bp.Endpoint()
	}
	return meta.PublisherInfo{ID: b.id, Topic: b.topic, Transports: transports}
}

func (b *publisherBase) update() {
	for _, bp := range b.backends {
		bp.Update()
	}
}

func (b *publisherBase) close() {
	for name, bp := range b.backends {
		if err := bp.Close(); err != nil {
			nlog.Warningln("transport: closing backend", name, "for", b.topic, "failed:", err)
		}
	}
}

// Publisher is the user-facing handle returned by Advertise. Publish
// fans out by shared pointer in-process, and lazily serializes to the
// wire only once some backend actually has a live subscriber (spec §4.6
// "enabling zero-copy for pure-inproc graphs").
type Publisher[T any] struct {
	publisherBase
	serializer serialize.Serializer[T]
	inproc     *inproc.Publisher[T]
}

// Advertise registers typeInfo's schema (once) and creates one backend
// publisher per registered transport, plus an in-process publisher if the
// manager has inproc enabled (spec §4.8).
func Advertise[T any](m *Manager, topic string, typeInfo meta.MessageTypeInfo, serializer serialize.Serializer[T]) (*Publisher[T], error) {
	p := &Publisher[T]{serializer: serializer}
	id, err := cos.GenPublisherID()
	if err != nil {
		return nil, err
	}
	p.id = id
	p.topic = topic
	p.useInproc = m.useInproc
	p.backends = make(map[string]BackendPublisher)

	if m.useInproc {
		p.inproc = getOrCreateInprocPublisher[T](m, topic).(*inproc.Publisher[T])
	}

	for name, backend := range m.backendList() {
		bp, err := backend.NewPublisher()
		if err != nil {
			nlog.Warningln("transport: advertise", topic, "on", name, "failed:", err)
			continue
		}
		p.backends[name] = bp
	}

	if serializer != nil {
		m.registerSchema(serializer.Name(), serializer.TypeName(), serializer.SchemaText(), serializer.EfficientBytes())
		_ = typeInfo // carried by the caller into recorder metadata; the manager only needs it for the schema registration above
	}

	m.mu.Lock()
	m.publishers[p.id] = weak.Make(&p.publisherBase)
	m.mu.Unlock()

	return p, nil
}

// Publish fans msg out in-process (if enabled) and, only if at least one
// backend currently has a live subscriber, serializes once and fans the
// resulting packet out to every backend.
func (p *Publisher[T]) Publish(msg *T) {
	if p.inproc != nil {
		p.inproc.Publish(msg)
	}

	needWire := false
	for _, bp := range p.backends {
		if bp.SubscriberCount() > 0 {
			needWire = true
			break
		}
	}
	if !needWire || p.serializer == nil {
		return
	}

	size := p.serializer.SerializedSize(msg)
	pkt := wire.NewPacket(wire.Message, uint32(size))
	if err := p.serializer.SerializeToSpan(msg, pkt.MutablePayload()); err != nil {
		nlog.Warningln("transport: serialize failed for", p.topic, ":", err)
		return
	}
	pkt.SetSendTime(uint64(mono.NanoTime()))

	for _, bp := range p.backends {
		bp.SendMessage(pkt)
	}
}

func (p *Publisher[T]) Topic() string { return p.topic }
func (p *Publisher[T]) ID() uuid.UUID { return p.id }

func (p *Publisher[T]) SubscriberCount() int {
	n := 0
	if p.inproc != nil {
		n += p.inproc.SubscriberCount()
	}
	for _, bp := range p.backends {
		n += bp.SubscriberCount()
	}
	return n
}

func (p *Publisher[T]) Close() { p.close() }
