// Package transport implements the transport manager (spec §4.8): the
// per-process registry of publishers and subscribers, multiplexed across
// pluggable named transports (in-process and framed TCP), and the
// topology reconciliation that binds a subscriber to a publisher through
// whichever transport they share (spec §4.9).
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package transport

import (
	"github.com/basislabs/basis/wire"
)

// Backend is one named, pluggable wire transport a Manager can multiplex
// across — the Go shape of the source's "map of named transports".
// net_tcp (TCPBackend) is the only implementation; a Manager starts with
// no backends and callers add them with RegisterBackend. inproc is handled
// separately since it never touches the wire (spec §4.6).
type Backend interface {
	Name() string
	NewPublisher() (BackendPublisher, error)
	NewSubscriber(deliver func(pkt *wire.Packet)) (BackendSubscriber, error)
}

// BackendPublisher is one topic's publisher-side handle on a Backend.
type BackendPublisher interface {
	// Endpoint is the value to advertise in PublisherInfo.Transports for
	// this backend (e.g. a TCP port as a decimal string).
	Endpoint() string
	SendMessage(pkt *wire.Packet)
	SubscriberCount() int
	Update()
	Close() error
}

// BackendSubscriber is one topic's subscriber-side handle on a Backend.
type BackendSubscriber interface {
	Connect(endpoint string) error
	Connected(endpoint string) bool
	Close()
}
