// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package transport

import (
	"strconv"

	"github.com/basislabs/basis/meta"
	"github.com/basislabs/basis/transport/tcp"
	"github.com/basislabs/basis/wire"
)

// TCPBackend is the Backend implementation wrapping the framed TCP
// transport (spec §4.2-§4.5).
type TCPBackend struct {
	maxPayload uint32
}

func NewTCPBackend(maxPayload uint32) *TCPBackend {
	return &TCPBackend{maxPayload: maxPayload}
}

func (*TCPBackend) Name() string { return meta.TransportTCP }

func (b *TCPBackend) NewPublisher() (BackendPublisher, error) {
	pub, err := tcp.NewPublisher()
	if err != nil {
		return nil, err
	}
	return &tcpBackendPublisher{pub: pub}, nil
}

func (b *TCPBackend) NewSubscriber(deliver func(pkt *wire.Packet)) (BackendSubscriber, error) {
	sub := tcp.NewSubscriber(b.maxPayload, func(pkt *wire.Packet, _ int64) { deliver(pkt) })
	return &tcpBackendSubscriber{sub: sub}, nil
}

type tcpBackendPublisher struct {
	pub *tcp.Publisher
}

func (p *tcpBackendPublisher) Endpoint() string          { return strconv.Itoa(p.pub.Port()) }
func (p *tcpBackendPublisher) SendMessage(pkt *wire.Packet) { p.pub.SendMessage(pkt) }
func (p *tcpBackendPublisher) SubscriberCount() int      { return p.pub.SubscriberCount() }
func (p *tcpBackendPublisher) Update()                   { p.pub.Update() }
func (p *tcpBackendPublisher) Close() error               { return p.pub.Close() }

type tcpBackendSubscriber struct {
	sub *tcp.Subscriber
}

func (s *tcpBackendSubscriber) Connect(endpoint string) error {
	host, portStr, err := splitEndpoint(endpoint)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}
	return s.sub.Connect(host, port)
}

func (s *tcpBackendSubscriber) Connected(endpoint string) bool {
	host, portStr, err := splitEndpoint(endpoint)
	if err != nil {
		return false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return false
	}
	return s.sub.Connected(host, port)
}

func (s *tcpBackendSubscriber) Close() { s.sub.Close() }

// splitEndpoint accepts either a bare port ("41527", defaulting host to
// loopback — the common case, since the coordinator only sees reachable
// same-host peers per spec's Non-goals) or an explicit "host:port".
func splitEndpoint(endpoint string) (host, port string, err error) {
	for i := len(endpoint) - 1; i >= 0; i-- {
		if endpoint[i] == ':' {
			return endpoint[:i], endpoint[i+1:], nil
		}
	}
	return "127.0.0.1", endpoint, nil
}
