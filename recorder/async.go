// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package recorder

import (
	"sync"

	"github.com/basislabs/basis/cmn/nlog"
	"github.com/basislabs/basis/meta"
)

type writeRequest struct {
	topic   string
	payload []byte
	logTime int64
}

// AsyncRecorder fronts a Recorder with a bounded multi-producer queue
// serviced by one writer goroutine (spec §4.13's "async variant"):
// overflow drops the oldest pending write rather than blocking the
// producer or growing without bound.
type AsyncRecorder struct {
	rec   *Recorder
	limit int

	mu      sync.Mutex
	cond    *sync.Cond
	pending []writeRequest
	stopped bool
	done    chan struct{}
}

func NewAsync(rec *Recorder, limit int) *AsyncRecorder {
	a := &AsyncRecorder{rec: rec, limit: limit, done: make(chan struct{})}
	a.cond = sync.NewCond(&a.mu)
	go a.run()
	return a
}

func (a *AsyncRecorder) RegisterTopic(topic string, typeInfo meta.MessageTypeInfo, schema meta.MessageSchema) error {
	return a.rec.RegisterTopic(topic, typeInfo, schema)
}

// WriteMessage enqueues the write; it never blocks the caller. The error
// is always nil: write failures are logged by the writer goroutine.
func (a *AsyncRecorder) WriteMessage(topic string, payload []byte, logTime int64) error {
	a.mu.Lock()
	a.pending = append(a.pending, writeRequest{topic: topic, payload: payload, logTime: logTime})
	if a.limit > 0 && len(a.pending) > a.limit {
		nlog.Warningf("recorder: async queue limit reached %d --> %d, dropping oldest", len(a.pending), a.limit)
		a.pending = a.pending[1:]
	}
	a.cond.Signal()
	a.mu.Unlock()
	return nil
}

func (a *AsyncRecorder) run() {
	defer close(a.done)
	for {
		a.mu.Lock()
		for len(a.pending) == 0 && !a.stopped {
			a.cond.Wait()
		}
		if len(a.pending) == 0 && a.stopped {
			a.mu.Unlock()
			return
		}
		req := a.pending[0]
		a.pending = a.pending[1:]
		a.mu.Unlock()

		if err := a.rec.WriteMessage(req.topic, req.payload, req.logTime); err != nil {
			nlog.Warningln("recorder: async write failed:", err)
		}
	}
}

// Close drains the pending queue, then stops the writer goroutine and
// closes the underlying file.
func (a *AsyncRecorder) Close() error {
	a.mu.Lock()
	a.stopped = true
	a.cond.Broadcast()
	a.mu.Unlock()
	<-a.done
	return a.rec.Close()
}
