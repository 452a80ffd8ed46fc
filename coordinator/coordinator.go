// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package coordinator

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/basislabs/basis/cmn"
	"github.com/basislabs/basis/cmn/nlog"
	"github.com/basislabs/basis/meta"
	"github.com/basislabs/basis/transport/tcp"
	"github.com/basislabs/basis/wire"
)

// client is the coordinator's per-connection state: the last
// TransportManagerInfo that connection reported, plus the sender/receiver
// pair that replace the source's single non-blocking socket (spec §9:
// goroutine-per-connection instead of one-shot epoll).
type client struct {
	conn   net.Conn
	sender *tcp.Sender
	info   meta.TransportManagerInfo
}

// Coordinator is the topology broker (spec §4.10). Every connected
// client's self-report is merged into a process-wide NetworkInfo, rebuilt
// and broadcast to everyone on every update tick.
type Coordinator struct {
	ln net.Listener

	mu      sync.Mutex
	clients map[net.Conn]*client
	schemas map[string]meta.MessageSchema

	stop chan struct{}
	wg   sync.WaitGroup
}

// New binds the coordinator's well-known listen port (cmn.Rom.CoordinatorPort).
func New() (*Coordinator, error) {
	addr := fmt.Sprintf(":%d", cmn.Rom.CoordinatorPort())
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		ln:      ln,
		clients: make(map[net.Conn]*client),
		schemas: make(map[string]meta.MessageSchema),
		stop:    make(chan struct{}),
	}, nil
}

func (c *Coordinator) Port() int { return c.ln.Addr().(*net.TCPAddr).Port }

// Run accepts clients and broadcasts the aggregated NetworkInfo every
// interval, until Stop is called. Meant to run in its own goroutine for
// the coordinator process's lifetime.
func (c *Coordinator) Run(interval time.Duration) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.acceptLoop()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.broadcastNetworkInfo()
		}
	}
}

func (c *Coordinator) Stop() {
	select {
	case <-c.stop:
		return
	default:
		close(c.stop)
	}
	c.ln.Close()
	c.mu.Lock()
	clients := c.clients
	c.clients = nil
	c.mu.Unlock()
	for _, cl := range clients {
		cl.sender.Stop()
	}
	c.wg.Wait()
}

func (c *Coordinator) acceptLoop() {
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			select {
			case <-c.stop:
				return
			default:
				nlog.Warningln("coordinator: accept error:", err)
				return
			}
		}
		c.addClient(conn)
	}
}

func (c *Coordinator) addClient(conn net.Conn) {
	cl := &client{conn: conn, sender: tcp.NewSender(conn)}

	deliver := func(pkt *wire.Packet, _ int64) {
		c.handleClientMessage(cl, pkt)
	}
	onClose := func(err error) {
		c.removeClient(conn, err)
	}
	tcp.NewReceiver(conn, cmn.Rom.MaxPacketPayload(), deliver, onClose)

	c.mu.Lock()
	if c.clients == nil {
		c.mu.Unlock()
		cl.sender.Stop()
		return
	}
	c.clients[conn] = cl
	c.mu.Unlock()
	nlog.Infoln("coordinator: client connected:", conn.RemoteAddr())
}

func (c *Coordinator) removeClient(conn net.Conn, err error) {
	c.mu.Lock()
	cl, ok := c.clients[conn]
	if ok {
		delete(c.clients, conn)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	cl.sender.Stop()
	if err != nil {
		nlog.Warningln("coordinator: client disconnected on error:", err)
	} else {
		nlog.Infoln("coordinator: client disconnected")
	}
}

// handleClientMessage dispatches exactly one populated field of a
// ClientToCoordinatorMessage (spec §4.10): a fresh self-report replaces
// the client's prior contribution wholesale; schemas are inserted only if
// not already known; a schema request is answered with at most one error
// reply (listing every unknown id) followed by at most one schemas reply.
func (c *Coordinator) handleClientMessage(cl *client, pkt *wire.Packet) {
	msg, err := decodeClientMessage(pkt)
	if err != nil {
		nlog.Warningln("coordinator:", err)
		return
	}

	switch {
	case msg.TransportManagerInfo != nil:
		c.mu.Lock()
		cl.info = msg.TransportManagerInfo.Clone()
		c.mu.Unlock()

	case msg.Schemas != nil:
		c.mu.Lock()
		for _, schema := range msg.Schemas {
			key := schema.SchemaID()
			if _, known := c.schemas[key]; !known {
				c.schemas[key] = schema
			}
		}
		c.mu.Unlock()

	case msg.RequestSchemas != nil:
		c.answerSchemaRequest(cl, msg.RequestSchemas)

	default:
		nlog.Warningln("coordinator: unknown message from client")
	}
}

func (c *Coordinator) answerSchemaRequest(cl *client, ids []string) {
	var missing []string
	var found []meta.MessageSchema

	c.mu.Lock()
	for _, id := range ids {
		if s, ok := c.schemas[id]; ok {
			found = append(found, s)
		} else {
			missing = append(missing, id)
		}
	}
	c.mu.Unlock()

	if len(missing) > 0 {
		errMsg := "missing schemas: " + strings.Join(missing, ", ")
		nlog.Errorln("coordinator:", errMsg)
		if pkt, err := encodePacket(CoordinatorMessage{Error: errMsg}); err == nil {
			cl.sender.SendMessage(pkt)
		}
	}
	if len(found) > 0 {
		if pkt, err := encodePacket(CoordinatorMessage{Schemas: found}); err == nil {
			cl.sender.SendMessage(pkt)
		}
	}
}

// broadcastNetworkInfo rebuilds NetworkInfo from every client's last
// self-report and sends it to every client, unconditionally, every tick —
// same cadence as the source's per-Update broadcast (spec §4.10).
func (c *Coordinator) broadcastNetworkInfo() {
	c.mu.Lock()
	var network meta.NetworkInfo
	clients := make([]*client, 0, len(c.clients))
	for _, cl := range c.clients {
		for _, pub := range cl.info.Publishers {
			network.Merge(pub.Topic, []meta.PublisherInfo{pub})
		}
		clients = append(clients, cl)
	}
	c.mu.Unlock()

	pkt, err := encodePacket(CoordinatorMessage{NetworkInfo: &network})
	if err != nil {
		nlog.Warningln("coordinator:", err)
		return
	}
	for _, cl := range clients {
		cl.sender.SendMessage(pkt)
	}
}
