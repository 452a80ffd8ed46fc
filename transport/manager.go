// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package transport

import (
	"sync"
	"weak"

	"github.com/google/uuid"

	"github.com/basislabs/basis/cmn/cos"
	"github.com/basislabs/basis/meta"
	"github.com/basislabs/basis/queue"
	"github.com/basislabs/basis/transport/inproc"
)

// Manager is the transport manager (spec §4.8): the per-process registry
// of publishers and subscribers, multiplexed across the in-process
// transport and every registered Backend, plus the schema store and the
// cached self-report/network-topology snapshots.
type Manager struct {
	useInproc bool
	backends  map[string]Backend
	overall   *queue.Overall

	mu              sync.Mutex
	publishers      map[uuid.UUID]weak.Pointer[publisherBase]
	subscribers     map[string][]weak.Pointer[subscriberBase] // topic -> subscribers
	inprocByTopic   map[string]any                            // topic -> *inproc.Publisher[T]
	schemas         map[string]meta.MessageSchema
	pendingSchemas  []meta.MessageSchema
	lastOwnedInfo   meta.TransportManagerInfo
	lastNetworkInfo map[string][]meta.PublisherInfo
}

// NewManager constructs a Manager. useInproc enables the in-process
// transport; overall is the process-wide callback ready-queue every
// subscriber's deque also feeds (spec §4.7).
func NewManager(useInproc bool, overall *queue.Overall) *Manager {
	return &Manager{
		useInproc:       useInproc,
		backends:        make(map[string]Backend),
		overall:         overall,
		publishers:      make(map[uuid.UUID]weak.Pointer[publisherBase]),
		subscribers:     make(map[string][]weak.Pointer[subscriberBase]),
		inprocByTopic:   make(map[string]any),
		schemas:         make(map[string]meta.MessageSchema),
		lastNetworkInfo: make(map[string][]meta.PublisherInfo),
	}
}

// RegisterBackend inserts a named wire transport (spec "RegisterTransport").
func (m *Manager) RegisterBackend(b Backend) {
	m.mu.Lock()
	m.backends[b.Name()] = b
	m.mu.Unlock()
}

// Update calls every live publisher's backends' Update, compacts the
// publisher weak-ref registry, and rebuilds the cached self-report.
func (m *Manager) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()

	live := make(map[uuid.UUID]weak.Pointer[publisherBase], len(m.publishers))
	owned := make([]meta.PublisherInfo, 0, len(m.publishers))
	for id, w := range m.publishers {
		pb := w.Value()
		if pb == nil {
			continue
		}
		pb.update()
		owned = append(owned, pb.info())
		live[id] = w
	}
	m.publishers = live
	m.lastOwnedInfo = meta.TransportManagerInfo{Publishers: owned}
}

// GetTransportManagerInfo materializes the cached self-report into the
// wire message sent to the coordinator.
func (m *Manager) GetTransportManagerInfo() meta.TransportManagerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOwnedInfo.Clone()
}

// PendingSchemas drains and returns every schema registered since the
// last call — what the coordinator connector advertises on its next tick.
func (m *Manager) PendingSchemas() []meta.MessageSchema {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.pendingSchemas
	m.pendingSchemas = nil
	return out
}

// HandleNetworkInfo replaces the cached network publisher list per topic
// and re-runs topology reconciliation for every live subscriber on that
// topic (spec §4.8, §4.9).
func (m *Manager) HandleNetworkInfo(info *meta.NetworkInfo) {
	m.mu.Lock()
	for topic, pubs := range info.Topics {
		m.lastNetworkInfo[topic] = pubs
	}
	m.mu.Unlock()

	for topic, pubs := range info.Topics {
		m.dispatchPublisherInfo(topic, pubs)
	}
}

// dispatchPublisherInfo hands pubs to every still-live subscriber on
// topic, compacting dead weak references along the way.
func (m *Manager) dispatchPublisherInfo(topic string, pubs []meta.PublisherInfo) {
	m.mu.Lock()
	subs := m.subscribers[topic]
	m.mu.Unlock()

	live := subs[:0]
	for _, w := range subs {
		sb := w.Value()
		if sb == nil {
			continue
		}
		live = append(live, w)
		sb.handlePublisherInfo(pubs)
	}

	m.mu.Lock()
	m.subscribers[topic] = live
	m.mu.Unlock()
}

// registerSchema inserts typeInfo/serializer's schema if its id isn't
// already known and queues it for the coordinator connector.
func (m *Manager) registerSchema(serializerName, typeName, schemaText string, efficientBytes []byte) {
	schema := meta.MessageSchema{
		SerializerName: serializerName,
		SchemaName:     typeName,
		SchemaText:     schemaText,
		HashID:         cos.HashSchema(serializerName, typeName, schemaText, efficientBytes),
		EfficientBytes: efficientBytes,
	}
	id := schema.SchemaID()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, known := m.schemas[id]; known {
		return
	}
	m.schemas[id] = schema
	m.pendingSchemas = append(m.pendingSchemas, schema)
}

// getOrCreateInprocPublisher returns the shared per-topic in-process
// publisher, creating it on first use so whichever of Advertise/Subscribe
// runs first wins (spec §8 Scenario A: subscribe-before-advertise works).
func getOrCreateInprocPublisher[T any](m *Manager, topic string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.inprocByTopic[topic]; ok {
		return existing
	}
	p := inproc.NewPublisher[T](topic)
	m.inprocByTopic[topic] = p
	return p
}

func (m *Manager) registerSubscriberWeak(topic string, sb *subscriberBase) {
	m.mu.Lock()
	m.subscribers[topic] = append(m.subscribers[topic], weak.Make(sb))
	m.mu.Unlock()
}

func (m *Manager) ownedInfoSnapshot() meta.TransportManagerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOwnedInfo.Clone()
}

func (m *Manager) networkInfoSnapshot(topic string) []meta.PublisherInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]meta.PublisherInfo(nil), m.lastNetworkInfo[topic]...)
}

func (m *Manager) backendList() map[string]Backend {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Backend, len(m.backends))
	for k, v := range m.backends {
		out[k] = v
	}
	return out
}
