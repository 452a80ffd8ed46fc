// Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/stats"
)

func TestTransportTrackerAddAndGet(t *testing.T) {
	r := stats.TransportTracker(time.Second)
	r.Add(stats.PublishCount, 1)
	r.Add(stats.PublishCount, 2)
	require.EqualValues(t, 3, r.Get(stats.PublishCount))
}

func TestTransportTrackerAddWith(t *testing.T) {
	r := stats.TransportTracker(time.Second)
	r.AddWith(
		stats.NamedVal64{Name: stats.DeliverCount, Value: 1},
		stats.NamedVal64{Name: stats.DeliverSize, Value: 128},
	)
	require.EqualValues(t, 1, r.Get(stats.DeliverCount))
	require.EqualValues(t, 128, r.Get(stats.DeliverSize))
}

func TestCoordinatorTrackerGauge(t *testing.T) {
	r := stats.CoordinatorTracker(time.Second)
	r.Add(stats.CoordinatorPeerCount, 3)
	require.EqualValues(t, 3, r.Get(stats.CoordinatorPeerCount))
	r.Add(stats.CoordinatorPeerCount, 5)
	require.EqualValues(t, 5, r.Get(stats.CoordinatorPeerCount))
}

func TestPromRegistryGather(t *testing.T) {
	r := stats.TransportTracker(time.Second)
	r.Add(stats.PublishCount, 1)
	mfs, err := r.PromRegistry().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}
