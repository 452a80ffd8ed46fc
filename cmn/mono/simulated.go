package mono

import (
	"sync"
	"time"
)

// Simulated time lets a replay or a test drive the clock explicitly instead
// of wall time. Now() returns the simulated value whenever it is active; a
// sleep scheduled under one run token must be cancelled the instant a later
// SetSimulatedTime call advances to a different token (a new simulation run).
type simClock struct {
	mu     sync.Mutex
	cond   *sync.Cond
	active bool
	nsecs  int64
	token  uint64
}

var sim = newSimClock()

func newSimClock() *simClock {
	s := &simClock{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// SetSimulatedTime activates (or advances) simulated time. Every call with a
// token different from the previously active one cancels pending SleepUntil
// waiters scheduled under the old token.
func SetSimulatedTime(nsecs int64, runToken uint64) {
	sim.mu.Lock()
	sim.active = true
	sim.nsecs = nsecs
	sim.token = runToken
	sim.mu.Unlock()
	sim.cond.Broadcast()
}

// ClearSimulatedTime reverts Now() to the real monotonic clock.
func ClearSimulatedTime() {
	sim.mu.Lock()
	sim.active = false
	sim.mu.Unlock()
	sim.cond.Broadcast()
}

// Now returns (nsecs, runToken). When simulated time is inactive, runToken is
// always 0 and nsecs is the real monotonic clock.
func Now() (nsecs int64, runToken uint64) {
	sim.mu.Lock()
	if sim.active {
		nsecs, runToken = sim.nsecs, sim.token
		sim.mu.Unlock()
		return
	}
	sim.mu.Unlock()
	return NanoTime(), 0
}

// SleepUntil blocks until either real/simulated time reaches targetNsecs, or
// the run token it was scheduled under changes (a new simulation run
// cancels it early), or stop fires. It returns true if it woke because the
// target was reached, false if cancelled by stop or a run-token change.
func SleepUntil(targetNsecs int64, stop <-chan struct{}) bool {
	sim.mu.Lock()
	if !sim.active {
		sim.mu.Unlock()
		return sleepRealUntil(targetNsecs, stop)
	}
	myToken := sim.token
	sim.mu.Unlock()

	// one watcher per call: wakes the condvar if the caller stops waiting
	// while we're blocked in cond.Wait()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-stop:
			// under sim.mu, so the broadcast can't land between the
			// waiter's stop check and its cond.Wait
			sim.mu.Lock()
			sim.cond.Broadcast()
			sim.mu.Unlock()
		case <-done:
		}
	}()

	sim.mu.Lock()
	for sim.active && sim.token == myToken && sim.nsecs < targetNsecs {
		select {
		case <-stop:
			sim.mu.Unlock()
			return false
		default:
		}
		sim.cond.Wait()
	}
	woke := sim.active && sim.token == myToken && sim.nsecs >= targetNsecs
	sim.mu.Unlock()
	return woke
}

func sleepRealUntil(targetNsecs int64, stop <-chan struct{}) bool {
	for {
		now := NanoTime()
		if now >= targetNsecs {
			return true
		}
		d := time.Duration(targetNsecs - now)
		t := time.NewTimer(d)
		select {
		case <-t.C:
			return true
		case <-stop:
			t.Stop()
			return false
		}
	}
}
