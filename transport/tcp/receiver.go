// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package tcp

import (
	"errors"
	"io"
	"net"

	"github.com/basislabs/basis/cmn/cos"
	"github.com/basislabs/basis/cmn/mono"
	"github.com/basislabs/basis/wire"
)

// DeliverFunc is called, in order, once per fully-reassembled packet. The
// receiver goroutine calls it synchronously, so delivery ordering per
// connection is exactly publish order (spec §5); whether DeliverFunc
// itself blocks or just enqueues is the caller's choice (direct invoke,
// worker pool, or output queue — spec §4.5).
type DeliverFunc func(pkt *wire.Packet, recvTime int64)

// CloseFunc is called once when the receive loop exits, with the reason
// (nil on a clean Stop).
type CloseFunc func(err error)

// Receiver runs one connection's receive state machine in its own
// goroutine — the idiomatic-Go stand-in for the source's one-shot
// edge-triggered reactor registration: one goroutine per fd gives the
// same one-at-a-time-per-connection ordering without a separate reactor
// thread and worker-pool dispatch layer (spec §9).
type Receiver struct {
	conn     net.Conn
	deliver  DeliverFunc
	onClose  CloseFunc
	stopCh   chan struct{}
	maxPayload uint32
}

func NewReceiver(conn net.Conn, maxPayload uint32, deliver DeliverFunc, onClose CloseFunc) *Receiver {
	r := &Receiver{conn: conn, deliver: deliver, onClose: onClose, stopCh: make(chan struct{}), maxPayload: maxPayload}
	go r.run()
	return r
}

func (r *Receiver) Stop() {
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
		r.conn.Close()
	}
}

func (r *Receiver) run() {
	incoming := wire.NewIncompleteMessagePacket(r.maxPayload)
	for {
		buf := incoming.CurrentBuffer()
		n, err := r.conn.Read(buf)
		if n > 0 {
			done, aerr := incoming.AdvanceCounter(n)
			if aerr != nil {
				r.finish(aerr)
				return
			}
			if done {
				pkt := incoming.Take()
				r.deliver(pkt, mono.NanoTime())
			}
		}
		if err != nil {
			r.finish(classifyErr(err))
			return
		}
	}
}

func (r *Receiver) finish(err error) {
	select {
	case <-r.stopCh:
		return // already stopped deliberately; don't report an error
	default:
	}
	close(r.stopCh)
	if r.onClose != nil {
		r.onClose(err)
	}
}

// classifyErr distinguishes a clean peer-close from an actual error (spec
// §4.1, §7): zero-byte read / EOF is "peer closed", not an error condition
// to log loudly.
func classifyErr(err error) error {
	if errors.Is(err, io.EOF) || cos.IsErrConnectionReset(err) {
		return nil
	}
	return err
}
