// Package hk provides a mechanism for registering cleanup functions which
// are invoked at specified intervals by one housekeeper goroutine.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package hk

import (
	"container/heap"
	"sync"
	"time"

	"github.com/basislabs/basis/cmn/debug"
	"github.com/basislabs/basis/cmn/nlog"
)

const (
	// NameSuffix is conventionally appended to a caller-chosen name so two
	// unrelated subsystems picking the same base name don't collide.
	NameSuffix = ".hk"

	DayInterval   = 24 * time.Hour
	PruneActiveIval = 10 * time.Second

	// UnregInterval is the sentinel a CleanupFunc returns to deregister
	// itself instead of being rescheduled.
	UnregInterval = time.Duration(0)
)

// CleanupFunc runs on its registered interval and returns the interval to
// reschedule at next — usually its own interval unchanged, UnregInterval
// to stop, or a different duration to back off/speed up.
type CleanupFunc func() time.Duration

type timeEntry struct {
	name     string
	f        CleanupFunc
	due      time.Time
	interval time.Duration
	index    int
}

type entryHeap []*timeEntry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].due.Before(h[j].due) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *entryHeap) Push(x any)         { e := x.(*timeEntry); e.index = len(*h); *h = append(*h, e) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// HK is a single process-wide housekeeper: a min-heap of scheduled
// CleanupFuncs serviced by one goroutine, so registrants never need their
// own ticker.
type HK struct {
	mu      sync.Mutex
	byName  map[string]*timeEntry
	heap    entryHeap
	wake    chan struct{}
	stop    chan struct{}
	started chan struct{}
	once    sync.Once
}

var DefaultHK = New()

func New() *HK {
	return &HK{
		byName:  make(map[string]*timeEntry),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		started: make(chan struct{}),
	}
}

// Reg schedules f to run every interval starting at interval from now.
// interval == 0 means "run once, as soon as possible" — f's own return
// value then decides whether and when it runs again.
func Reg(name string, f CleanupFunc, interval time.Duration) { DefaultHK.Reg(name, f, interval) }
func Unreg(name string)                                      { DefaultHK.Unreg(name) }

// UnregIf unregisters name only if cond() returns true; useful to avoid a
// racy unconditional Unreg right after a conditional Reg.
func UnregIf(name string, cond func() bool) {
	if cond() {
		DefaultHK.Unreg(name)
	}
}

func (hk *HK) Reg(name string, f CleanupFunc, interval time.Duration) {
	debug.Assert(name != "", "hk: empty name")
	e := &timeEntry{name: name, f: f, interval: interval, due: time.Now().Add(interval)}

	hk.mu.Lock()
	if old, ok := hk.byName[name]; ok {
		heap.Fix(&hk.heap, old.index)
		hk.removeLocked(old)
	}
	hk.byName[name] = e
	heap.Push(&hk.heap, e)
	hk.mu.Unlock()

	hk.kick()
}

func (hk *HK) Unreg(name string) {
	hk.mu.Lock()
	if e, ok := hk.byName[name]; ok {
		hk.removeLocked(e)
	}
	hk.mu.Unlock()
}

// removeLocked must be called with hk.mu held.
func (hk *HK) removeLocked(e *timeEntry) {
	delete(hk.byName, e.name)
	if e.index >= 0 && e.index < len(hk.heap) && hk.heap[e.index] == e {
		heap.Remove(&hk.heap, e.index)
	}
}

func (hk *HK) kick() {
	select {
	case hk.wake <- struct{}{}:
	default:
	}
}

// Run services the heap until Stop is called; it is meant to run in its
// own goroutine for the lifetime of the process.
func (hk *HK) Run() {
	hk.once.Do(func() { close(hk.started) })
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		hk.mu.Lock()
		var wait time.Duration
		if len(hk.heap) == 0 {
			wait = time.Hour
		} else {
			wait = time.Until(hk.heap[0].due)
			if wait < 0 {
				wait = 0
			}
		}
		hk.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-hk.stop:
			return
		case <-hk.wake:
			continue
		case <-timer.C:
			hk.fireDue()
		}
	}
}

func (hk *HK) fireDue() {
	now := time.Now()
	for {
		hk.mu.Lock()
		if len(hk.heap) == 0 || hk.heap[0].due.After(now) {
			hk.mu.Unlock()
			return
		}
		e := heap.Pop(&hk.heap).(*timeEntry)
		delete(hk.byName, e.name)
		hk.mu.Unlock()

		next := hk.callSafely(e)
		if next == UnregInterval {
			continue
		}
		e.interval = next
		e.due = now.Add(next)
		hk.mu.Lock()
		hk.byName[e.name] = e
		heap.Push(&hk.heap, e)
		hk.mu.Unlock()
	}
}

func (hk *HK) callSafely(e *timeEntry) (next time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			nlog.Errorln("hk:", e.name, "panicked:", r)
			next = e.interval
		}
	}()
	return e.f()
}

func (hk *HK) Stop() { close(hk.stop) }

// WaitStarted blocks until Run has been entered at least once; tests use
// this to avoid registering against a housekeeper that isn't servicing
// its heap yet.
func WaitStarted() { <-DefaultHK.started }

// TestInit resets DefaultHK for test isolation between packages that each
// register their own names.
func TestInit() { DefaultHK = New() }
