// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package coordinator

import (
	"fmt"
	"net"
	"sync"

	"github.com/basislabs/basis/cmn/nlog"
	"github.com/basislabs/basis/meta"
	"github.com/basislabs/basis/transport/tcp"
	"github.com/basislabs/basis/wire"
)

// NetworkInfoHandler receives every NetworkInfo broadcast the coordinator
// sends — normally wired straight into the transport manager's topology
// reconciliation (spec §4.9, §4.11).
type NetworkInfoHandler func(*meta.NetworkInfo)

// Connector is a transport manager's client-side link to the Coordinator
// (spec §4.11): it reports this process's owned publishers, exchanges
// message schemas on demand, and forwards every aggregated NetworkInfo to
// onInfo.
type Connector struct {
	sender  *tcp.Sender
	onInfo  NetworkInfoHandler

	mu      sync.Mutex
	pending map[string]chan schemaReply // request-id -> waiter, for RequestSchemas
}

type schemaReply struct {
	schemas []meta.MessageSchema
	err     string
}

// Connect dials the coordinator at host:port and starts its receive loop.
func Connect(host string, port int, maxPayload uint32, onInfo NetworkInfoHandler) (*Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", host, port)
	conn, err := net.Dial("tcp", endpoint)
	if err != nil {
		return nil, err
	}

	c := &Connector{onInfo: onInfo, pending: make(map[string]chan schemaReply)}
	c.sender = tcp.NewSender(conn)
	tcp.NewReceiver(conn, maxPayload, c.deliver, c.onClose)
	return c, nil
}

func (c *Connector) deliver(pkt *wire.Packet, _ int64) {
	msg, err := decodeCoordinatorMessage(pkt)
	if err != nil {
		nlog.Warningln("coordinator connector:", err)
		return
	}
	switch {
	case msg.NetworkInfo != nil:
		if c.onInfo != nil {
			c.onInfo(msg.NetworkInfo)
		}
	case msg.Error != "":
		nlog.Warningln("coordinator connector: server error:", msg.Error)
		c.mu.Lock()
		for id, ch := range c.pending {
			ch <- schemaReply{err: msg.Error}
			delete(c.pending, id)
		}
		c.mu.Unlock()
	case msg.Schemas != nil:
		// Unsolicited vs. requested schema replies aren't distinguished on
		// the wire (spec §4.11 open question); deliver to every outstanding
		// waiter so a RequestSchemas caller still completes.
		c.mu.Lock()
		for id, ch := range c.pending {
			ch <- schemaReply{schemas: msg.Schemas}
			delete(c.pending, id)
		}
		c.mu.Unlock()
	}
}

func (c *Connector) onClose(err error) {
	if err != nil {
		nlog.Warningln("coordinator connector: disconnected:", err)
	} else {
		nlog.Infoln("coordinator connector: disconnected")
	}
}

// SendTransportManagerInfo reports this process's full current publisher
// set, replacing whatever the coordinator last knew about it.
func (c *Connector) SendTransportManagerInfo(info meta.TransportManagerInfo) error {
	pkt, err := encodePacket(ClientToCoordinatorMessage{TransportManagerInfo: &info})
	if err != nil {
		return err
	}
	c.sender.SendMessage(pkt)
	return nil
}

// SendSchemas advertises schemas this process owns.
func (c *Connector) SendSchemas(schemas []meta.MessageSchema) error {
	pkt, err := encodePacket(ClientToCoordinatorMessage{Schemas: schemas})
	if err != nil {
		return err
	}
	c.sender.SendMessage(pkt)
	return nil
}

// RequestSchemas asks the coordinator for the named schema ids; the reply
// arrives asynchronously through the connector's receive loop and is
// delivered here as a blocking call for the caller's convenience.
func (c *Connector) RequestSchemas(ids []string) ([]meta.MessageSchema, error) {
	pkt, err := encodePacket(ClientToCoordinatorMessage{RequestSchemas: ids})
	if err != nil {
		return nil, err
	}

	ch := make(chan schemaReply, 1)
	key := fmt.Sprintf("%p", ch)
	c.mu.Lock()
	c.pending[key] = ch
	c.mu.Unlock()

	c.sender.SendMessage(pkt)
	reply := <-ch
	if reply.err != "" {
		return nil, fmt.Errorf("coordinator connector: %s", reply.err)
	}
	return reply.schemas, nil
}

func (c *Connector) Close() {
	c.sender.Stop()
}
