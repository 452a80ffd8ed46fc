// Package cmn provides common constants, types, and configuration shared by
// every basis process: the coordinator, a unit's transport manager, and the
// launcher.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	ratomic "sync/atomic"
	"time"
)

// read-mostly, most-often-used values: populated once at startup (and again
// on config reload, if ever) to spare hot paths — e.g. the packet size
// ceiling handed to the TCP receive loop — a lock or a full Config
// dereference.

type readMostly struct {
	maxPacketPayload    ratomic.Uint32
	queueLimit          ratomic.Int64
	coordinatorPort     ratomic.Int64
	coordinatorUpdate   ratomic.Int64 // time.Duration, nanoseconds
	reactorShutdownPoll ratomic.Int64 // time.Duration, nanoseconds
}

var Rom readMostly

func (rom *readMostly) Set(cfg *Config) {
	rom.maxPacketPayload.Store(cfg.Transport.MaxPacketPayload)
	rom.queueLimit.Store(int64(cfg.Subscriber.DefaultQueueLimit))
	rom.coordinatorPort.Store(int64(cfg.Coordinator.Port))
	rom.coordinatorUpdate.Store(int64(cfg.Timeout.CoordinatorUpdate))
	rom.reactorShutdownPoll.Store(int64(cfg.Timeout.ReactorShutdownPoll))
}

func (rom *readMostly) MaxPacketPayload() uint32 { return rom.maxPacketPayload.Load() }
func (rom *readMostly) QueueLimit() int          { return int(rom.queueLimit.Load()) }
func (rom *readMostly) CoordinatorPort() int     { return int(rom.coordinatorPort.Load()) }

func (rom *readMostly) CoordinatorUpdate() time.Duration {
	return time.Duration(rom.coordinatorUpdate.Load())
}

func (rom *readMostly) ReactorShutdownPoll() time.Duration {
	return time.Duration(rom.reactorShutdownPoll.Load())
}

func init() { Rom.Set(Default()) }
