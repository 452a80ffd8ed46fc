// Package unit implements the per-process unit runtime (spec §4.15): a
// transport manager, an optional coordinator connector, and an output
// queue, driven either single-threaded (one Update tick at a time) or
// with a bounded worker pool so subscriber deliveries run concurrently.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package unit

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/basislabs/basis/coordinator"
	"github.com/basislabs/basis/queue"
	"github.com/basislabs/basis/transport"
)

// Unit holds the runtime state every handler wired into it shares.
type Unit struct {
	Manager   *transport.Manager
	Connector *coordinator.Connector
	// Recorder, if set by a unit factory, receives a copy of every
	// message that factory's handlers choose to forward (via its own
	// RegisterTopic/WriteMessage calls against the concrete type it
	// already has in hand).
	Recorder Recordable
	overall  *queue.Overall
}

// New constructs a Unit. connector may be nil for a unit run without a
// coordinator (e.g. a standalone test harness).
func New(useInproc bool, connector *coordinator.Connector) *Unit {
	overall := queue.NewOverall()
	return &Unit{
		Manager:   transport.NewManager(useInproc, overall),
		Connector: connector,
		overall:   overall,
	}
}

// Update is the single-threaded variant's one tick (spec §4.15): run one
// transport-manager Update, report the refreshed publisher set and any
// pending schemas to the coordinator, then drain the output queue with a
// bounded wait.
func (u *Unit) Update(sleep time.Duration, stop <-chan struct{}) {
	u.Manager.Update()
	u.publishPending()
	u.overall.ProcessCallbacks(sleep, stop)
}

func (u *Unit) publishPending() {
	if u.Connector == nil {
		return
	}
	info := u.Manager.GetTransportManagerInfo()
	if err := u.Connector.SendTransportManagerInfo(info); err != nil {
		return
	}
	if schemas := u.Manager.PendingSchemas(); len(schemas) > 0 {
		_ = u.Connector.SendSchemas(schemas)
	}
}

// RunSingleThreaded loops Update at the given cadence until stop closes.
func (u *Unit) RunSingleThreaded(sleep time.Duration, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
			u.Update(sleep, stop)
		}
	}
}

// RunMultiThreaded services the output queue across up to workers
// concurrent goroutines, so subscriber deliveries (and the user handlers
// they invoke) run off the main loop (spec §4.15's multi-threaded
// variant — "user handlers must be thread-safe").
func (u *Unit) RunMultiThreaded(ctx context.Context, workers int64, sleep time.Duration, stop <-chan struct{}) error {
	sem := semaphore.NewWeighted(workers)
	for {
		select {
		case <-stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		u.Manager.Update()
		u.publishPending()

		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		go func() {
			defer sem.Release(1)
			u.overall.ProcessCallbacks(sleep, stop)
		}()
	}
}
