// Package tcp implements the framed TCP transport (spec §4.2-§4.5): a
// sender with a background drain goroutine, a publisher fanning out to
// every connected subscriber, a goroutine-per-connection reactor standing
// in for the source's one-shot epoll reactor (spec §9: same topology,
// ordered per-connection dispatch, idiomatic concurrency primitive), and a
// subscriber dialing out to known publishers.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package tcp

import (
	"net"
	"sync"

	"github.com/basislabs/basis/cmn/cos"
	"github.com/basislabs/basis/cmn/nlog"
	"github.com/basislabs/basis/wire"
)

// Sender owns a single peer connection and a background goroutine that
// drains its outbound queue (spec §4.2). SendMessage is safe to call
// concurrently from multiple producers; Stop is idempotent.
type Sender struct {
	conn net.Conn

	mu      sync.Mutex
	cond    *sync.Cond
	pending []*wire.Packet
	stopped bool

	done chan struct{}
}

func NewSender(conn net.Conn) *Sender {
	s := &Sender{conn: conn, done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	go s.watchForClose()
	return s
}

// watchForClose detects a peer close/reset even when this side never
// writes — a pure fan-out publisher connection otherwise wouldn't notice
// a dead subscriber until its next SendMessage. Any byte read here is
// unexpected on a send-only connection and is discarded.
func (s *Sender) watchForClose() {
	var discard [64]byte
	for {
		_, err := s.conn.Read(discard[:])
		if err != nil {
			s.markStopped(err)
			return
		}
	}
}

// SendMessage enqueues pkt for the background goroutine to write; it
// never blocks on I/O itself.
func (s *Sender) SendMessage(pkt *wire.Packet) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, pkt)
	s.mu.Unlock()
	s.cond.Signal()
}

// Stopped reports whether the sender's write loop has exited (connection
// error, or Stop was called). A publisher polls this to reap dead senders
// on each Update (spec §4.3).
func (s *Sender) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Stop signals the write goroutine to exit and waits for it to do so.
func (s *Sender) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()
	s.conn.Close()
	s.cond.Signal()
	<-s.done
}

func (s *Sender) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if s.stopped && len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, pkt := range batch {
			if err := s.writeFull(pkt.Bytes()); err != nil {
				s.markStopped(err)
				return
			}
		}
	}
}

// writeFull loops until the full span is written or a non-retriable error
// occurs, tolerating short writes (spec §4.2, §7).
func (s *Sender) writeFull(b []byte) error {
	for len(b) > 0 {
		n, err := s.conn.Write(b)
		if n > 0 {
			b = b[n:]
		}
		if err != nil {
			if cos.IsErrWouldBlock(err) {
				continue
			}
			return err
		}
	}
	return nil
}

func (s *Sender) markStopped(err error) {
	s.mu.Lock()
	wasStopped := s.stopped
	s.stopped = true
	s.mu.Unlock()
	s.cond.Signal() // wake run() so it can observe stopped and exit
	if !wasStopped {
		s.conn.Close()
		nlog.Warningln("tcp sender: connection closed, stopping:", err)
	}
}
