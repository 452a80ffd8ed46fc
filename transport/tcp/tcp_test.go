// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package tcp_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/transport/tcp"
	"github.com/basislabs/basis/wire"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.Fail(t, "condition not met before deadline")
}

func TestPublisherSubscriberRoundtrip(t *testing.T) {
	pub, err := tcp.NewPublisher()
	require.NoError(t, err)
	defer pub.Close()

	var mu sync.Mutex
	var received []string

	deliver := func(pkt *wire.Packet, _ int64) {
		mu.Lock()
		received = append(received, string(pkt.Payload()))
		mu.Unlock()
	}
	sub := tcp.NewSubscriber(1<<20, deliver)
	defer sub.Close()

	require.NoError(t, sub.Connect("127.0.0.1", pub.Port()))

	waitFor(t, time.Second, func() bool {
		pub.Update()
		return pub.SubscriberCount() == 1
	})

	pkt := wire.NewPacket(wire.Message, 5)
	copy(pkt.MutablePayload(), []byte("hello"))
	pub.SendMessage(pkt)

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	})

	mu.Lock()
	require.Equal(t, []string{"hello"}, received)
	mu.Unlock()
}

func TestPublisherReapsStoppedSender(t *testing.T) {
	pub, err := tcp.NewPublisher()
	require.NoError(t, err)
	defer pub.Close()

	sub := tcp.NewSubscriber(1<<20, func(*wire.Packet, int64) {})
	require.NoError(t, sub.Connect("127.0.0.1", pub.Port()))

	waitFor(t, time.Second, func() bool {
		pub.Update()
		return pub.SubscriberCount() == 1
	})

	sub.Close()

	waitFor(t, time.Second, func() bool {
		pub.Update()
		return pub.SubscriberCount() == 0
	})
}

func TestSubscriberConnectIsIdempotent(t *testing.T) {
	pub, err := tcp.NewPublisher()
	require.NoError(t, err)
	defer pub.Close()

	sub := tcp.NewSubscriber(1<<20, func(*wire.Packet, int64) {})
	defer sub.Close()

	require.NoError(t, sub.Connect("127.0.0.1", pub.Port()))
	require.NoError(t, sub.Connect("127.0.0.1", pub.Port()))

	waitFor(t, time.Second, func() bool {
		pub.Update()
		return pub.SubscriberCount() == 1
	})
}
