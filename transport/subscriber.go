// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package transport

import (
	"sync"

	"github.com/basislabs/basis/cmn/nlog"
	"github.com/basislabs/basis/meta"
	"github.com/basislabs/basis/queue"
	"github.com/basislabs/basis/serialize"
	"github.com/basislabs/basis/transport/inproc"
	"github.com/basislabs/basis/wire"
)

// subscriberBase is the non-generic part of a Subscriber[T]: topology
// reconciliation (spec §4.9) only needs to track which (publisher, transport)
// pairs are already bound, not the message type.
type subscriberBase struct {
	topic     string
	useInproc bool
	backends  map[string]BackendSubscriber

	mu         sync.Mutex
	connected  map[string]bool // "publisherID:transport" -> bound
	bindInproc func(meta.PublisherInfo) bool
}

// handlePublisherInfo implements the reconciliation rule order (spec
// §4.9): skip if already connected; prefer inproc if both sides support
// it; otherwise try each backend in map order, first successful connect
// wins.
func (b *subscriberBase) handlePublisherInfo(pubs []meta.PublisherInfo) {
	for _, pub := range pubs {
		if pub.Topic != b.topic {
			continue
		}
		b.tryBind(pub)
	}
}

func (b *subscriberBase) tryBind(pub meta.PublisherInfo) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.useInproc && pub.HasTransport(meta.TransportInproc) {
		key := pub.ID.String() + ":" + meta.TransportInproc
		if b.connected[key] {
			return true
		}
		if b.bindInproc != nil && b.bindInproc(pub) {
			b.connected[key] = true
			return true
		}
	}

	for name, backend := range b.backends {
		endpoint, ok := pub.Transports[name]
		if !ok {
			continue
		}
		key := pub.ID.String() + ":" + name
		if b.connected[key] {
			return true
		}
		if err := backend.Connect(endpoint); err != nil {
			nlog.Warningln("transport: connect to", pub.Topic, "via", name, "failed:", err)
			continue
		}
		b.connected[key] = true
		return true
	}
	return false
}

func (b *subscriberBase) close() {
	for _, backend := range b.backends {
		backend.Close()
	}
}

// Subscriber is the user-facing handle returned by Subscribe/SubscribeRaw.
type Subscriber[T any] struct {
	subscriberBase
	queue      *queue.Subscriber
	callback   func(*T)
	serializer serialize.Serializer[T]
	inproc     *inproc.Publisher[T]
	inprocRefs []*inproc.Callback[T]
}

func (s *Subscriber[T]) deliverRaw(pkt *wire.Packet) {
	s.queue.AddCallback(func() {
		msg, err := s.serializer.DeserializeFromSpan(pkt.Payload())
		if err != nil {
			nlog.Warningln("transport: deserialize failed for", s.topic, ":", err)
			return
		}
		s.callback(msg)
	})
}

func (s *Subscriber[T]) bindInprocSelf(meta.PublisherInfo) bool {
	if s.inproc == nil {
		return false
	}
	if len(s.inprocRefs) > 0 {
		return true // already subscribed to this topic's inproc publisher
	}
	keep := s.inproc.Subscribe(func(ev inproc.MessageEvent[T]) {
		s.queue.AddCallback(func() { s.callback(ev.Msg) })
	})
	s.inprocRefs = append(s.inprocRefs, keep)
	return true
}

// Subscribe wraps callback in a type-erased delivery closure that
// deserializes with serializer (spec §4.8): logs and drops on parse
// failure. Immediately reconciles against the manager's local and
// network publisher caches for this topic, so intra-process subscribers
// bind without waiting for the coordinator (spec §8 Scenario A).
func Subscribe[T any](m *Manager, topic string, queueLimit int, serializer serialize.Serializer[T], callback func(*T)) *Subscriber[T] {
	s := &Subscriber[T]{serializer: serializer, callback: callback}
	s.topic = topic
	s.useInproc = m.useInproc
	s.backends = make(map[string]BackendSubscriber)
	s.connected = make(map[string]bool)
	s.queue = queue.NewSubscriber(m.overall, queueLimit, topic)

	if m.useInproc {
		s.inproc = getOrCreateInprocPublisher[T](m, topic).(*inproc.Publisher[T])
	}
	s.bindInproc = s.bindInprocSelf
	if s.inproc != nil {
		// the topic's inproc publisher is shared by every local publisher,
		// including ones advertised after this call
		s.bindInprocSelf(meta.PublisherInfo{})
	}

	for name, backend := range m.backendList() {
		sub, err := backend.NewSubscriber(s.deliverRaw)
		if err != nil {
			nlog.Warningln("transport: subscribe", topic, "on", name, "failed:", err)
			continue
		}
		s.backends[name] = sub
	}

	m.registerSubscriberWeak(topic, &s.subscriberBase)

	s.handlePublisherInfo(m.ownedInfoSnapshot().Publishers)
	s.handlePublisherInfo(m.networkInfoSnapshot(topic))

	return s
}

func (s *Subscriber[T]) Topic() string { return s.topic }
func (s *Subscriber[T]) Close()        { s.close() }

// RawSubscriber is the handle returned by SubscribeRaw: the callback
// receives the undeserialized packet directly and is never bound to
// inproc (inproc payloads are never serialized in the first place).
type RawSubscriber struct {
	subscriberBase
	callback func(*wire.Packet)
}

func SubscribeRaw(m *Manager, topic string, callback func(*wire.Packet)) *RawSubscriber {
	s := &RawSubscriber{callback: callback}
	s.topic = topic
	s.backends = make(map[string]BackendSubscriber)
	s.connected = make(map[string]bool)

	for name, backend := range m.backendList() {
		sub, err := backend.NewSubscriber(callback)
		if err != nil {
			nlog.Warningln("transport: subscribe_raw", topic, "on", name, "failed:", err)
			continue
		}
		s.backends[name] = sub
	}

	m.registerSubscriberWeak(topic, &s.subscriberBase)

	s.handlePublisherInfo(m.ownedInfoSnapshot().Publishers)
	s.handlePublisherInfo(m.networkInfoSnapshot(topic))

	return s
}

func (s *RawSubscriber) Topic() string { return s.topic }
func (s *RawSubscriber) Close()        { s.close() }
