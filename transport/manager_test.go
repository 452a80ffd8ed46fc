// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package transport_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/meta"
	"github.com/basislabs/basis/queue"
	"github.com/basislabs/basis/serialize/jsonser"
	"github.com/basislabs/basis/transport"
)

type Int32Msg struct {
	Value int32 `json:"value"`
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	require.Fail(t, "condition not met before deadline")
}

// TestScenarioASingleProcessInprocOnly exercises spec §8 Scenario A:
// subscribe before and after advertise, publish once, both subscribers
// see the value exactly once.
func TestScenarioASingleProcessInprocOnly(t *testing.T) {
	overall := queue.NewOverall()
	m := transport.NewManager(true, overall)
	ser := jsonser.New[Int32Msg]("test.Int32Msg")

	var mu sync.Mutex
	var before, after []int32

	subBefore := transport.Subscribe(m, "/foo", 0, ser, func(msg *Int32Msg) {
		mu.Lock()
		before = append(before, msg.Value)
		mu.Unlock()
	})
	defer subBefore.Close()

	pub, err := transport.Advertise(m, "/foo", meta.MessageTypeInfo{SerializerName: "json", Name: "test.Int32Msg"}, ser)
	require.NoError(t, err)
	defer pub.Close()

	subAfter := transport.Subscribe(m, "/foo", 0, ser, func(msg *Int32Msg) {
		mu.Lock()
		after = append(after, msg.Value)
		mu.Unlock()
	})
	defer subAfter.Close()

	pub.Publish(&Int32Msg{Value: 42})
	overall.ProcessCallbacks(time.Second, make(chan struct{}))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int32{42}, before)
	require.Equal(t, []int32{42}, after)
}

// TestTopologyConvergenceAcrossTCPBackend exercises spec §8 property 3 in
// a single process: two managers, each with its own TCP backend, wired
// directly through HandleNetworkInfo (standing in for the coordinator
// round trip in this unit-level test).
func TestTopologyConvergenceAcrossTCPBackend(t *testing.T) {
	overallA := queue.NewOverall()
	mgrA := transport.NewManager(false, overallA)
	mgrA.RegisterBackend(transport.NewTCPBackend(1 << 20))

	overallB := queue.NewOverall()
	mgrB := transport.NewManager(false, overallB)
	mgrB.RegisterBackend(transport.NewTCPBackend(1 << 20))

	ser := jsonser.New[Int32Msg]("test.Int32Msg")

	pub, err := transport.Advertise(mgrA, "/bar", meta.MessageTypeInfo{SerializerName: "json", Name: "test.Int32Msg"}, ser)
	require.NoError(t, err)
	defer pub.Close()
	mgrA.Update()

	var mu sync.Mutex
	var got []int32
	sub := transport.Subscribe(mgrB, "/bar", 0, ser, func(msg *Int32Msg) {
		mu.Lock()
		got = append(got, msg.Value)
		mu.Unlock()
	})
	defer sub.Close()

	network := &meta.NetworkInfo{Topics: map[string][]meta.PublisherInfo{
		"/bar": mgrA.GetTransportManagerInfo().Publishers,
	}}
	mgrB.HandleNetworkInfo(network)

	waitFor(t, time.Second, func() bool {
		mgrA.Update()
		return pub.SubscriberCount() > 0
	})

	pub.Publish(&Int32Msg{Value: 7})

	waitFor(t, time.Second, func() bool {
		overallB.ProcessCallbacks(10*time.Millisecond, make(chan struct{}))
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int32{7}, got)
}
