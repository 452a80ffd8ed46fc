// Package queue implements the subscriber callback queue (spec §4.7):
// a two-level structure where each subscriber owns a bounded deque of
// callbacks, and every callback is also pushed — as a weak reference — to
// one process-wide overall queue that a single servicer goroutine drains.
//
// The weak reference is what lets the overall queue forget a callback
// once its owning subscriber has gone away entirely, without the
// subscriber needing to explicitly unregister (spec §9 "cyclic ownership
// risk"). Eviction from a subscriber's own bounded deque is a distinct,
// synchronous event — it is signaled explicitly via callbackHolder.dropped
// rather than relying on garbage collection to invalidate the weak
// pointer, since a weak.Pointer only reports dead after a GC actually
// reclaims the object, which is not guaranteed to happen before the
// servicer next drains the queue.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package queue

import (
	"sync"
	ratomic "sync/atomic"
	"time"
	"weak"

	"github.com/basislabs/basis/cmn/nlog"
)

// Func is the callback type stored in both levels of the queue.
type Func func()

// callbackHolder is the strong object a subscriber's deque owns and the
// overall queue holds only a weak.Pointer to. dropped is set synchronously
// by enforceLimitLocked on eviction, so the servicer can skip an evicted
// callback immediately instead of waiting on GC timing.
type callbackHolder struct {
	fn      Func
	dropped ratomic.Bool
}

// Overall is the per-process shared ready-queue: every Subscriber's
// AddCallback also lands a weak reference here, and one Servicer goroutine
// per process drains it (spec §4.7, §5).
type Overall struct {
	mu     sync.Mutex
	queue  []weak.Pointer[callbackHolder]
	notify chan struct{}
}

func NewOverall() *Overall {
	return &Overall{notify: make(chan struct{}, 1)}
}

func (o *Overall) addWeak(w weak.Pointer[callbackHolder]) {
	o.mu.Lock()
	o.queue = append(o.queue, w)
	o.mu.Unlock()
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

// ProcessCallbacks waits for new work (or maxSleep) and then invokes every
// callback whose holder is still live and not dropped. stop, if closed,
// returns immediately.
func (o *Overall) ProcessCallbacks(maxSleep time.Duration, stop <-chan struct{}) {
	timer := time.NewTimer(maxSleep)
	defer timer.Stop()
	select {
	case <-o.notify:
	case <-timer.C:
	case <-stop:
		return
	}

	o.mu.Lock()
	pending := o.queue
	o.queue = nil
	o.mu.Unlock()

	for _, w := range pending {
		h := w.Value()
		if h == nil || h.dropped.Load() {
			continue
		}
		h.fn()
	}
}

// Run services the overall queue until stop is closed; meant to run in its
// own goroutine for the process lifetime, same as hk.HK.Run.
func (o *Overall) Run(maxSleep time.Duration, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		o.ProcessCallbacks(maxSleep, stop)
	}
}

// Subscriber is one subscriber's bounded callback deque. limit == 0 means
// unbounded; SetLimit retroactively trims.
type Subscriber struct {
	mu        sync.Mutex
	callbacks []*callbackHolder
	limit     int
	overall   *Overall
	name      string // for the "limit reached" log line
}

func NewSubscriber(overall *Overall, limit int, name string) *Subscriber {
	return &Subscriber{overall: overall, limit: limit, name: name}
}

// AddCallback appends fn to this subscriber's deque (evicting the oldest
// entries if it's now over limit) and pushes a weak reference to the
// process-wide overall queue.
func (s *Subscriber) AddCallback(fn Func) {
	h := &callbackHolder{fn: fn}

	s.mu.Lock()
	s.callbacks = append(s.callbacks, h)
	s.enforceLimitLocked()
	s.mu.Unlock()

	s.overall.addWeak(weak.Make(h))
}

// SetLimit changes the deque's size limit and immediately trims if the
// new limit is now exceeded.
func (s *Subscriber) SetLimit(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = limit
	s.enforceLimitLocked()
}

// enforceLimitLocked must be called with s.mu held. It logs once when the
// deque is found over limit, then evicts oldest entries down to limit,
// marking each one dropped so the overall queue's servicer skips it even
// if it hasn't been garbage collected yet.
func (s *Subscriber) enforceLimitLocked() {
	if s.limit == 0 {
		return
	}
	if len(s.callbacks) > s.limit {
		nlog.Warningf("subscriber %s: queue limit reached %d --> %d", s.name, len(s.callbacks), s.limit)
	}
	for len(s.callbacks) > s.limit {
		s.callbacks[0].dropped.Store(true)
		s.callbacks[0] = nil
		s.callbacks = s.callbacks[1:]
	}
}

// Len reports the current number of live (not-yet-evicted) callbacks —
// exposed for tests.
func (s *Subscriber) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.callbacks)
}
