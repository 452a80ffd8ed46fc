// Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
package stats

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/basislabs/basis/cmn/nlog"
)

// Runner periodically logs a one-line snapshot of every non-idle metric,
// logging only when something has actually moved since the last tick.
type Runner struct {
	core     *core
	names    []string
	interval time.Duration
	stopCh   chan struct{}
	prev     string
}

// CoordinatorTracker returns a Tracker wired to the coordinator's metric
// family (spec §4.10/§4.11: update cadence, peer count, schema requests).
func CoordinatorTracker(interval time.Duration) *Runner {
	r := &Runner{core: newCore("coordinator", 8), interval: interval, stopCh: make(chan struct{})}
	for _, n := range []string{CoordinatorUpdateLatency, CoordinatorPeerCount} {
		r.core.reg(n)
		r.names = append(r.names, n)
	}
	return r
}

// TransportTracker returns a Tracker wired to the transport manager's
// metric family (spec §4.1-§4.9: publish/deliver volume, queue depth,
// send/recv errors and latency).
func TransportTracker(interval time.Duration) *Runner {
	r := &Runner{core: newCore("transport", 16), interval: interval, stopCh: make(chan struct{})}
	for _, n := range []string{
		PublishCount, PublishSize, DeliverCount, DeliverSize,
		DropCount, SendErrCount, RecvErrCount, ReconnectCount,
		SendLatency, RecvLatency, StreamThroughput, QueueDepth,
	} {
		r.core.reg(n)
		r.names = append(r.names, n)
	}
	return r
}

func (r *Runner) RegMetrics() {} // collectors are registered eagerly in reg(); nothing left to do lazily

func (r *Runner) Add(name string, val int64) { r.core.add(name, val) }

func (r *Runner) AddWith(nvs ...NamedVal64) {
	for _, nv := range nvs {
		r.core.add(nv.Name, nv.Value)
	}
}

func (r *Runner) Get(name string) int64 { return r.core.get(name) }

// PromRegistry exposes the underlying Prometheus registry, e.g. to mount
// promhttp.HandlerFor on an admin HTTP endpoint.
func (r *Runner) PromRegistry() *prometheus.Registry { return r.core.Registry() }

// Run logs a snapshot every interval until Stop is called.
func (r *Runner) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.logOnce()
		}
	}
}

func (r *Runner) Stop() { close(r.stopCh) }

func (r *Runner) logOnce() {
	snapshot := make(map[string]int64, len(r.names))
	for _, name := range r.names {
		v := r.core.tracker[name]
		var val int64
		switch v.kind {
		case KindLatency, KindThroughput:
			val = v.swapAvg()
		default:
			val = v.get()
		}
		if val == 0 {
			continue
		}
		snapshot[name] = val
	}
	if len(snapshot) == 0 {
		return
	}
	b, err := jsoniter.Marshal(snapshot)
	if err != nil {
		return
	}
	line := string(b)
	if line == r.prev {
		return
	}
	r.prev = line
	nlog.Infoln(line)
}
