// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package coordinator_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/coordinator"
	"github.com/basislabs/basis/meta"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Fail(t, "condition not met before deadline")
}

func startCoordinator(t *testing.T) *coordinator.Coordinator {
	t.Helper()
	c, err := coordinator.New()
	require.NoError(t, err)
	go c.Run(20 * time.Millisecond)
	t.Cleanup(c.Stop)
	return c
}

func TestBroadcastAggregatesAcrossClients(t *testing.T) {
	c := startCoordinator(t)

	var mu sync.Mutex
	var lastA, lastB *meta.NetworkInfo

	connA, err := coordinator.Connect("127.0.0.1", c.Port(), 1<<20, func(n *meta.NetworkInfo) {
		mu.Lock()
		lastA = n
		mu.Unlock()
	})
	require.NoError(t, err)
	defer connA.Close()

	connB, err := coordinator.Connect("127.0.0.1", c.Port(), 1<<20, func(n *meta.NetworkInfo) {
		mu.Lock()
		lastB = n
		mu.Unlock()
	})
	require.NoError(t, err)
	defer connB.Close()

	pubA := meta.PublisherInfo{ID: uuid.New(), Topic: "odom", Transports: map[string]string{meta.TransportTCP: "9001"}}
	pubB := meta.PublisherInfo{ID: uuid.New(), Topic: "scan", Transports: map[string]string{meta.TransportTCP: "9002"}}

	require.NoError(t, connA.SendTransportManagerInfo(meta.TransportManagerInfo{Publishers: []meta.PublisherInfo{pubA}}))
	require.NoError(t, connB.SendTransportManagerInfo(meta.TransportManagerInfo{Publishers: []meta.PublisherInfo{pubB}}))

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return lastA != nil && len(lastA.Topics["odom"]) == 1 && len(lastA.Topics["scan"]) == 1 &&
			lastB != nil && len(lastB.Topics["odom"]) == 1 && len(lastB.Topics["scan"]) == 1
	})
}

func TestRequestSchemasReturnsErrorForUnknown(t *testing.T) {
	c := startCoordinator(t)

	conn, err := coordinator.Connect("127.0.0.1", c.Port(), 1<<20, func(*meta.NetworkInfo) {})
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.RequestSchemas([]string{"protobuf:does.not.Exist"})
	require.Error(t, err)
}

func TestRequestSchemasReturnsKnownSchema(t *testing.T) {
	c := startCoordinator(t)

	producer, err := coordinator.Connect("127.0.0.1", c.Port(), 1<<20, func(*meta.NetworkInfo) {})
	require.NoError(t, err)
	defer producer.Close()

	schema := meta.MessageSchema{SerializerName: "protobuf", SchemaName: "my.Msg", SchemaText: "syntax"}
	require.NoError(t, producer.SendSchemas([]meta.MessageSchema{schema}))

	consumer, err := coordinator.Connect("127.0.0.1", c.Port(), 1<<20, func(*meta.NetworkInfo) {})
	require.NoError(t, err)
	defer consumer.Close()

	var got []meta.MessageSchema
	waitFor(t, 2*time.Second, func() bool {
		got, err = consumer.RequestSchemas([]string{schema.SchemaID()})
		return err == nil && len(got) == 1
	})
	require.Equal(t, schema.SchemaName, got[0].SchemaName)
}
