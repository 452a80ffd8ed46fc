// Package stats tracks counters, sizes, and latencies for the coordinator
// and a unit's transport manager, and exposes them to Prometheus.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	ratomic "sync/atomic"

	"github.com/basislabs/basis/cmn/debug"
)

// Naming convention:
//
//	-> "*.n"    - counter
//	-> "*.ns"   - latency (nanoseconds)
//	-> "*.size" - size (bytes)
//	-> "*.bps"  - throughput (bytes/s)
const (
	KindCounter            = "counter"
	KindSize               = "size"
	KindLatency            = "latency"
	KindThroughput         = "throughput"
	KindComputedThroughput = "computed-throughput"
	KindGauge              = "gauge"
	KindTotal              = "total"
	KindSpecial            = "special"
)

// Metric names. Per-process: a coordinator only ever updates the
// Coordinator* family; a transport manager only the Publish*/Subscribe*/
// Stream* family.
const (
	PublishCount = "publish.n"
	PublishSize  = "publish.size"

	DeliverCount = "deliver.n"
	DeliverSize  = "deliver.size"

	DropCount      = "drop.n"      // subscriber queue overflow evictions
	SendErrCount   = "err.send.n"  // TCP sender failures
	RecvErrCount   = "err.recv.n"  // TCP receiver/malformed-packet failures
	ReconnectCount = "reconnect.n" // TCP sender reconnect attempts

	SendLatency = "send.ns"
	RecvLatency = "recv.ns"

	StreamThroughput = "stream.bps"

	CoordinatorUpdateLatency = "coordinator.update.ns"
	CoordinatorPeerCount     = "coordinator.peers" // KindGauge
	QueueDepth               = "queue.depth"       // KindGauge, per-subscriber
)

type (
	// NamedVal64 is what a caller hands to Tracker.Add/AddWith: a metric
	// name plus a delta (or, for KindGauge, the new absolute value).
	NamedVal64 struct {
		Name       string
		NameSuffix string // carried with the sample; Add/AddWith do not consult it
		Value      int64
	}

	statsValue struct {
		kind       string
		Value      int64 `json:"v,string"`
		numSamples int64
		cumulative int64
	}

	// Tracker is the common interface implemented by the coordinator's and
	// the transport manager's stats runners.
	Tracker interface {
		Add(name string, val int64)
		AddWith(nvs ...NamedVal64)
		Get(name string) int64
		RegMetrics()
	}
)

func newStatsValue(kind string) *statsValue { return &statsValue{kind: kind} }

func (v *statsValue) add(delta int64) {
	switch v.kind {
	case KindLatency, KindThroughput:
		ratomic.AddInt64(&v.numSamples, 1)
		ratomic.AddInt64(&v.Value, delta)
		ratomic.AddInt64(&v.cumulative, delta)
	case KindCounter, KindSize, KindTotal:
		ratomic.AddInt64(&v.Value, delta)
		ratomic.AddInt64(&v.cumulative, delta)
	case KindGauge:
		ratomic.StoreInt64(&v.Value, delta)
	default:
		debug.Assert(false, v.kind)
	}
}

func (v *statsValue) get() int64 { return ratomic.LoadInt64(&v.Value) }

// swapAvg atomically resets the rolling sum/sample-count and returns the
// average over the interval just ended (used by KindLatency/KindThroughput
// during periodic logging).
func (v *statsValue) swapAvg() int64 {
	num := ratomic.SwapInt64(&v.numSamples, 0)
	sum := ratomic.SwapInt64(&v.Value, 0)
	if num == 0 {
		return 0
	}
	return sum / num
}

func (v *statsValue) reset() {
	ratomic.StoreInt64(&v.Value, 0)
	ratomic.StoreInt64(&v.numSamples, 0)
	ratomic.StoreInt64(&v.cumulative, 0)
}
