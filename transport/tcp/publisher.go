// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package tcp

import (
	"net"
	"sync"
	"time"

	"github.com/basislabs/basis/cmn/nlog"
	"github.com/basislabs/basis/wire"
)

// Publisher owns a listen socket on an OS-assigned port — the port is the
// advertised endpoint (spec §4.3). Each accepted connection gets its own
// Sender; SendMessage fans out to every live sender, and a sender that
// reports stopped is removed on the next Update.
type Publisher struct {
	ln net.Listener

	mu      sync.Mutex
	senders []*Sender
}

func NewPublisher() (*Publisher, error) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return nil, err
	}
	return &Publisher{ln: ln}, nil
}

// Port is the OS-assigned listen port to advertise in PublisherInfo.
func (p *Publisher) Port() int {
	return p.ln.Addr().(*net.TCPAddr).Port
}

// Update accepts every pending connection non-blockingly and reaps any
// sender whose write loop has already stopped.
func (p *Publisher) Update() {
	p.acceptPending()
	p.mu.Lock()
	live := p.senders[:0]
	for _, s := range p.senders {
		if s.Stopped() {
			continue
		}
		live = append(live, s)
	}
	p.senders = live
	p.mu.Unlock()
}

func (p *Publisher) acceptPending() {
	for {
		conn, err := p.acceptNonBlocking()
		if err != nil {
			return
		}
		p.mu.Lock()
		setNoDelay(conn)
		p.senders = append(p.senders, NewSender(conn))
		p.mu.Unlock()
		nlog.Infoln("tcp publisher: accepted", conn.RemoteAddr())
	}
}

// acceptNonBlocking accepts one pending connection if one is already
// queued, else returns a timeout error after at most a millisecond.
// net.Listener has no native non-blocking Accept, so we set a short
// deadline on the underlying TCPListener (a deadline already in the past
// fails before even trying to accept) instead of spinning a permanent
// accept goroutine per Update.
func (p *Publisher) acceptNonBlocking() (net.Conn, error) {
	tl, ok := p.ln.(*net.TCPListener)
	if !ok {
		return p.ln.Accept()
	}
	if err := tl.SetDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return nil, err
	}
	return tl.Accept()
}

// SendMessage fans pkt out to every currently-live sender.
func (p *Publisher) SendMessage(pkt *wire.Packet) {
	p.mu.Lock()
	senders := append([]*Sender(nil), p.senders...)
	p.mu.Unlock()
	for _, s := range senders {
		s.SendMessage(pkt)
	}
}

// SubscriberCount reports how many live connections this publisher
// currently fans out to.
func (p *Publisher) SubscriberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.senders)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	senders := p.senders
	p.senders = nil
	p.mu.Unlock()
	for _, s := range senders {
		s.Stop()
	}
	return p.ln.Close()
}
