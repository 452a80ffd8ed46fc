// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package foxglove

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/basislabs/basis/cmn/nlog"
)

// clientConn wraps one connected Foxglove client's WebSocket, tracking
// which channels it has subscribed to and which local subscription ID
// it wants message-data frames tagged with for each.
type clientConn struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu   sync.RWMutex
	subs map[uint32]uint32 // channelID -> subscriptionID
}

func newClientConn(conn *websocket.Conn) *clientConn {
	return &clientConn{conn: conn, subs: make(map[uint32]uint32)}
}

func (c *clientConn) sendServerInfo(name string) {
	c.writeJSON(serverInfoMessage{Op: opServerInfo, Name: name, Capabilities: nil})
}

func (c *clientConn) sendAdvertise(channels []Channel) {
	c.writeJSON(advertiseMessage{Op: opAdvertise, Channels: channels})
}

func (c *clientConn) sendUnadvertise(channelIDs []uint32) {
	c.writeJSON(unadvertiseMessage{Op: opUnadvertise, ChannelIDs: channelIDs})
}

// sendMessageData writes a binary message-data frame for channelID if
// this client currently has an active subscription to it.
func (c *clientConn) sendMessageData(channelID uint32, publishTimeNanos uint64, payload []byte) {
	c.mu.RLock()
	subID, ok := c.subs[channelID]
	c.mu.RUnlock()
	if !ok {
		return
	}

	frame := make([]byte, 1+4+8+len(payload))
	frame[0] = binaryOpMessageData
	putUint32(frame[1:5], subID)
	putUint64(frame[5:13], publishTimeNanos)
	copy(frame[13:], payload)

	c.writeMu.Lock()
	err := c.conn.WriteMessage(websocket.BinaryMessage, frame)
	c.writeMu.Unlock()
	if err != nil {
		nlog.Warningln("foxglove bridge: write failed:", err)
	}
}

func (c *clientConn) writeJSON(v any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(v); err != nil {
		nlog.Warningln("foxglove bridge: write failed:", err)
	}
}

// readLoop processes subscribe/unsubscribe control requests until the
// client disconnects. Every other op (parameters, services, assets) is
// outside this narrow bridge's scope and is silently ignored.
func (c *clientConn) readLoop() {
	defer c.conn.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handle(data)
	}
}

func (c *clientConn) handle(data []byte) {
	var req clientRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}

	switch req.Op {
	case opSubscribe:
		var sub subscribeRequest
		if err := json.Unmarshal(data, &sub); err != nil {
			return
		}
		c.mu.Lock()
		for _, s := range sub.Subscriptions {
			c.subs[s.ChannelID] = s.ID
		}
		c.mu.Unlock()

	case opUnsubscribe:
		var unsub unsubscribeRequest
		if err := json.Unmarshal(data, &unsub); err != nil {
			return
		}
		c.mu.Lock()
		for channelID, subID := range c.subs {
			for _, id := range unsub.SubscriptionIDs {
				if id == subID {
					delete(c.subs, channelID)
				}
			}
		}
		c.mu.Unlock()
	}
}
