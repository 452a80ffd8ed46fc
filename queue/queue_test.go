// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/queue"
)

// TestQueueEviction exercises spec §8 Scenario F: limit 2, enqueue
// {1,2,3,4} before any servicing, observed delivery order is {3,4}.
func TestQueueEviction(t *testing.T) {
	overall := queue.NewOverall()
	sub := queue.NewSubscriber(overall, 2, "test")

	var delivered []int
	for _, v := range []int{1, 2, 3, 4} {
		v := v
		sub.AddCallback(func() { delivered = append(delivered, v) })
	}
	require.Equal(t, 2, sub.Len())

	stop := make(chan struct{})
	overall.ProcessCallbacks(10*time.Millisecond, stop)
	require.Equal(t, []int{3, 4}, delivered)
}

func TestUnboundedWhenLimitZero(t *testing.T) {
	overall := queue.NewOverall()
	sub := queue.NewSubscriber(overall, 0, "test")
	for i := 0; i < 100; i++ {
		sub.AddCallback(func() {})
	}
	require.Equal(t, 100, sub.Len())
}

func TestSetLimitRetroactivelyTrims(t *testing.T) {
	overall := queue.NewOverall()
	sub := queue.NewSubscriber(overall, 0, "test")
	for i := 0; i < 5; i++ {
		sub.AddCallback(func() {})
	}
	sub.SetLimit(2)
	require.Equal(t, 2, sub.Len())
}

func TestProcessCallbacksTimesOutWithNoWork(t *testing.T) {
	overall := queue.NewOverall()
	stop := make(chan struct{})
	start := time.Now()
	overall.ProcessCallbacks(20*time.Millisecond, stop)
	require.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestProcessCallbacksStopsImmediately(t *testing.T) {
	overall := queue.NewOverall()
	stop := make(chan struct{})
	close(stop)
	start := time.Now()
	overall.ProcessCallbacks(time.Second, stop)
	require.Less(t, time.Since(start), 100*time.Millisecond)
}
