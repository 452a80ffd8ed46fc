// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package foxglove

import (
	"encoding/binary"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/basislabs/basis/cmn/nlog"
	"github.com/basislabs/basis/meta"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
	Subprotocols:    []string{"foxglove.websocket.v1"},
}

// Server is a narrow, read-only Foxglove WebSocket endpoint: it
// advertises a fixed set of channels and streams their published bytes
// to every subscribed client. It never accepts publishes, parameters,
// or services from a client.
type Server struct {
	name string

	mu       sync.RWMutex
	channels map[string]*Channel // topic -> advertised channel
	clients  map[*clientConn]struct{}

	nextChannelID uint32
}

// NewServer creates a Server that will identify itself to clients as name.
func NewServer(name string) *Server {
	return &Server{
		name:     name,
		channels: make(map[string]*Channel),
		clients:  make(map[*clientConn]struct{}),
	}
}

// Advertise registers topic as a streamable channel, returning its
// channel ID (idempotent — re-advertising the same topic returns the
// existing ID without notifying already-connected clients again).
func (s *Server) Advertise(topic string, typeInfo meta.MessageTypeInfo, schema meta.MessageSchema) uint32 {
	s.mu.Lock()
	if ch, ok := s.channels[topic]; ok {
		s.mu.Unlock()
		return ch.ID
	}
	id := atomic.AddUint32(&s.nextChannelID, 1)
	ch := &Channel{
		ID:             id,
		Topic:          topic,
		EncodingName:   typeInfo.MCAPMessageEncoding,
		SchemaName:     schema.SchemaName,
		Schema:         schema.SchemaText,
		SchemaEncoding: typeInfo.MCAPSchemaEncoding,
	}
	s.channels[topic] = ch
	clients := s.snapshotClientsLocked()
	s.mu.Unlock()

	for _, c := range clients {
		c.sendAdvertise([]Channel{*ch})
	}
	return id
}

func (s *Server) snapshotClientsLocked() []*clientConn {
	out := make([]*clientConn, 0, len(s.clients))
	for c := range s.clients {
		out = append(out, c)
	}
	return out
}

// Publish fans payload out to every client currently subscribed to
// topic's channel. A no-op if topic was never advertised or nobody is
// subscribed.
func (s *Server) Publish(topic string, payload []byte, publishTimeNanos uint64) {
	s.mu.RLock()
	ch, ok := s.channels[topic]
	if !ok {
		s.mu.RUnlock()
		return
	}
	clients := s.snapshotClientsLocked()
	s.mu.RUnlock()

	for _, c := range clients {
		c.sendMessageData(ch.ID, publishTimeNanos, payload)
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and runs its
// read loop until the client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		nlog.Warningln("foxglove bridge: upgrade failed:", err)
		return
	}
	c := newClientConn(conn)

	s.mu.Lock()
	s.clients[c] = struct{}{}
	channels := make([]Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		channels = append(channels, *ch)
	}
	s.mu.Unlock()

	c.sendServerInfo(s.name)
	if len(channels) > 0 {
		c.sendAdvertise(channels)
	}

	c.readLoop()

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

func putUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putUint64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
