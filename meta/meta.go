// Package meta defines the wire-level topology types shared by the
// transport manager and the coordinator: PublisherInfo, TransportManagerInfo,
// NetworkInfo, MessageSchema, and MessageTypeInfo (spec §3).
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package meta

import (
	"github.com/google/uuid"
)

// Well-known transport names a PublisherInfo's Transports map may carry.
const (
	TransportInproc = "inproc"
	TransportTCP    = "net_tcp"
)

type (
	// PublisherInfo names one publisher: its stable id, the topic it
	// publishes on, and the set of transports it's reachable through. The
	// inproc entry carries no endpoint (presence only); net_tcp's value is
	// the OS-assigned listen port as a decimal string.
	PublisherInfo struct {
		ID         uuid.UUID         `json:"id"`
		Topic      string            `json:"topic"`
		Transports map[string]string `json:"transports"` // transport name -> endpoint
	}

	// TransportManagerInfo is one process's self-report: every publisher it
	// currently owns.
	TransportManagerInfo struct {
		Publishers []PublisherInfo `json:"publishers"`
	}

	// NetworkInfo is the coordinator's aggregated topology: every known
	// publisher, grouped by topic, across every connected client.
	NetworkInfo struct {
		Topics map[string][]PublisherInfo `json:"topics"`
	}

	// MessageSchema describes one message type's wire schema. Keyed in the
	// coordinator's store (and the recorder's dedupe table) by SchemaID().
	MessageSchema struct {
		SerializerName string `json:"serializer_name"`
		SchemaName     string `json:"schema_name"`
		SchemaText     string `json:"schema_text"`
		HashID         string `json:"hash_id"`
		EfficientBytes []byte `json:"efficient_bytes"` // e.g. a protobuf FileDescriptorSet
	}

	// MessageTypeInfo is the metadata attached to a publisher and, when
	// recorded, to an MCAP channel.
	MessageTypeInfo struct {
		SerializerName      string `json:"serializer_name"`
		Name                string `json:"name"`
		MCAPMessageEncoding string `json:"mcap_message_encoding"`
		MCAPSchemaEncoding  string `json:"mcap_schema_encoding"`
	}
)

// SchemaID is the coordinator's and recorder's lookup key, "serializer:name".
func (s *MessageSchema) SchemaID() string { return s.SerializerName + ":" + s.SchemaName }

// HasTransport reports whether p advertises the named transport.
func (p *PublisherInfo) HasTransport(name string) bool {
	_, ok := p.Transports[name]
	return ok
}

// Endpoint returns p's endpoint string for the named transport, or "" if p
// doesn't advertise it (or the transport is presence-only, like inproc).
func (p *PublisherInfo) Endpoint(name string) string { return p.Transports[name] }

// Clone deep-copies t, so a transport manager can hand out
// last_owned_publisher_info without aliasing its internal registry.
func (t TransportManagerInfo) Clone() TransportManagerInfo {
	out := TransportManagerInfo{Publishers: make([]PublisherInfo, len(t.Publishers))}
	for i, p := range t.Publishers {
		out.Publishers[i] = p.clone()
	}
	return out
}

func (p PublisherInfo) clone() PublisherInfo {
	transports := make(map[string]string, len(p.Transports))
	for k, v := range p.Transports {
		transports[k] = v
	}
	return PublisherInfo{ID: p.ID, Topic: p.Topic, Transports: transports}
}

// Merge appends publishers to n's publisher list for topic, concatenating
// (the coordinator aggregates client contributions this way, spec §4.10).
func (n *NetworkInfo) Merge(topic string, publishers []PublisherInfo) {
	if n.Topics == nil {
		n.Topics = make(map[string][]PublisherInfo)
	}
	n.Topics[topic] = append(n.Topics[topic], publishers...)
}
