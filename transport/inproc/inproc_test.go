// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package inproc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/transport/inproc"
)

type intMsg struct{ V int32 }

// TestScenarioASingleProcessInprocOnly exercises spec §8 Scenario A:
// subscribe before and after a publisher exists, publish once, both
// subscribers see the value exactly once.
func TestScenarioASingleProcessInprocOnly(t *testing.T) {
	pub := inproc.NewPublisher[intMsg]("/foo")

	var gotBefore, gotAfter []int32
	keepBefore := pub.Subscribe(func(ev inproc.MessageEvent[intMsg]) {
		gotBefore = append(gotBefore, ev.Msg.V)
	})
	_ = keepBefore

	keepAfter := pub.Subscribe(func(ev inproc.MessageEvent[intMsg]) {
		gotAfter = append(gotAfter, ev.Msg.V)
	})
	_ = keepAfter

	pub.Publish(&intMsg{V: 42})

	require.Equal(t, []int32{42}, gotBefore)
	require.Equal(t, []int32{42}, gotAfter)
}

func TestDeliveryOrderIsPublishOrder(t *testing.T) {
	pub := inproc.NewPublisher[intMsg]("/seq")
	var got []int32
	keep := pub.Subscribe(func(ev inproc.MessageEvent[intMsg]) { got = append(got, ev.Msg.V) })
	_ = keep

	for i := int32(1); i <= 5; i++ {
		pub.Publish(&intMsg{V: i})
	}
	require.Equal(t, []int32{1, 2, 3, 4, 5}, got)
}

func TestSubscriberCountReflectsLiveSubscribers(t *testing.T) {
	pub := inproc.NewPublisher[intMsg]("/drop")
	keep1 := pub.Subscribe(func(inproc.MessageEvent[intMsg]) {})
	keep2 := pub.Subscribe(func(inproc.MessageEvent[intMsg]) {})
	require.Equal(t, 2, pub.SubscriberCount())
	_, _ = keep1, keep2
}
