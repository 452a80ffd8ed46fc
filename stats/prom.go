// Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
package stats

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/basislabs/basis/cmn/debug"
)

// core is the Prometheus-backed metric tracker shared by the coordinator's
// and transport manager's runners: one core per process, registered
// once at startup and then updated lock-free off of Add/AddWith.
type core struct {
	tracker  map[string]*statsValue
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
	hist     map[string]*prometheus.HistogramVec
	registry *prometheus.Registry
	subsys   string // "coordinator" | "transport"
}

func newCore(subsys string, size int) *core {
	return &core{
		tracker:  make(map[string]*statsValue, size),
		counters: make(map[string]*prometheus.CounterVec, size),
		gauges:   make(map[string]*prometheus.GaugeVec, size),
		hist:     make(map[string]*prometheus.HistogramVec, size),
		registry: prometheus.NewRegistry(),
		subsys:   subsys,
	}
}

func promName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// reg derives a statsValue's Kind from its name's suffix — the same
// convention the transport manager and coordinator metric names follow —
// and registers the matching Prometheus collector.
func (c *core) reg(name string) {
	var kind string
	switch {
	case strings.HasSuffix(name, ".n"):
		kind = KindCounter
	case strings.HasSuffix(name, ".ns"):
		kind = KindLatency
	case strings.HasSuffix(name, ".size"):
		kind = KindSize
	case strings.HasSuffix(name, ".bps"):
		kind = KindThroughput
	default:
		kind = KindGauge
	}
	v := newStatsValue(kind)
	c.tracker[name] = v

	pname := promName(name)
	switch kind {
	case KindCounter, KindSize, KindTotal:
		cv := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "basis", Subsystem: c.subsys, Name: pname,
		}, nil)
		c.counters[name] = cv
		c.registry.MustRegister(cv)
	case KindLatency, KindThroughput:
		hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "basis", Subsystem: c.subsys, Name: pname,
		}, nil)
		c.hist[name] = hv
		c.registry.MustRegister(hv)
	case KindGauge:
		gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "basis", Subsystem: c.subsys, Name: pname,
		}, nil)
		c.gauges[name] = gv
		c.registry.MustRegister(gv)
	default:
		debug.Assert(false, kind)
	}
}

func (c *core) Registry() *prometheus.Registry { return c.registry }

func (c *core) add(name string, delta int64) {
	v, ok := c.tracker[name]
	debug.Assertf(ok, "unregistered metric %q", name)
	v.add(delta)

	switch v.kind {
	case KindCounter, KindSize, KindTotal:
		if delta > 0 {
			c.counters[name].WithLabelValues().Add(float64(delta))
		}
	case KindLatency, KindThroughput:
		c.hist[name].WithLabelValues().Observe(float64(delta))
	case KindGauge:
		c.gauges[name].WithLabelValues().Set(float64(delta))
	}
}

func (c *core) get(name string) int64 {
	v, ok := c.tracker[name]
	if !ok {
		return 0
	}
	return v.get()
}
