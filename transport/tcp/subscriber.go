// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package tcp

import (
	"fmt"
	"net"
	"sync"

	"github.com/basislabs/basis/cmn/nlog"
)

// Subscriber dials out to known publisher endpoints and keeps one Receiver
// per live connection, keyed by "host:port" (spec §4.5). Connect is
// idempotent: calling it again for an endpoint that already has a live
// connection is a no-op.
type Subscriber struct {
	maxPayload uint32
	deliver    DeliverFunc

	mu      sync.Mutex
	conns   map[string]*Receiver
}

func NewSubscriber(maxPayload uint32, deliver DeliverFunc) *Subscriber {
	return &Subscriber{maxPayload: maxPayload, deliver: deliver, conns: make(map[string]*Receiver)}
}

// Connect dials host:port if not already connected. Safe to call
// repeatedly as topology reconciliation (spec §4.9) re-evaluates a known
// publisher list.
func (s *Subscriber) Connect(host string, port int) error {
	endpoint := fmt.Sprintf("%s:%d", host, port)

	s.mu.Lock()
	if _, ok := s.conns[endpoint]; ok {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	conn, err := net.Dial("tcp", endpoint)
	if err != nil {
		return err
	}
	setNoDelay(conn)

	recv := NewReceiver(conn, s.maxPayload, s.deliver, func(err error) {
		s.onDisconnect(endpoint, err)
	})

	s.mu.Lock()
	s.conns[endpoint] = recv
	s.mu.Unlock()
	return nil
}

// Connected reports whether endpoint currently has a live receiver.
func (s *Subscriber) Connected(host string, port int) bool {
	endpoint := fmt.Sprintf("%s:%d", host, port)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.conns[endpoint]
	return ok
}

func (s *Subscriber) onDisconnect(endpoint string, err error) {
	s.mu.Lock()
	delete(s.conns, endpoint)
	s.mu.Unlock()
	if err != nil {
		nlog.Warningln("tcp subscriber:", endpoint, "disconnected:", err)
	} else {
		nlog.Infoln("tcp subscriber:", endpoint, "disconnected")
	}
}

// Disconnect tears down a specific endpoint's receiver, if any.
func (s *Subscriber) Disconnect(host string, port int) {
	endpoint := fmt.Sprintf("%s:%d", host, port)
	s.mu.Lock()
	recv, ok := s.conns[endpoint]
	delete(s.conns, endpoint)
	s.mu.Unlock()
	if ok {
		recv.Stop()
	}
}

func (s *Subscriber) Close() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, recv := range conns {
		recv.Stop()
	}
}
