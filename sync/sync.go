// Package sync implements the message synchronizers: compile-time
// composed join operators that align messages arriving on independent
// topics before invoking a user handler with one aligned tuple.
//
// Each operator is generated per arity (All: 2, 3 and 4 inputs;
// FieldEqual and FieldApproximatelyEqual: 2 and 3 inputs) rather than
// built on a single variadic type, since Go generics don't support a
// variable number of distinct type parameters — the same shape as
// hand-generated N-ary helpers elsewhere in the ecosystem. Callers pick
// the arity matching their handler's input count.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package sync

import "github.com/basislabs/basis/cmn/mono"

// SlotOption carries the per-slot metadata every synchronizer variant
// respects on Consume.
type SlotOption struct {
	// IsOptional: the synchronizer may fire without this slot ever
	// having received a message; it contributes nil in that case.
	IsOptional bool
	// IsCached: the slot's last value is kept after Consume instead of
	// being cleared, so a later sync can reuse it.
	IsCached bool
}

// Default is the common case: required, not cached.
var Default = SlotOption{}

// retain reports whether a slot's value should survive a Consume.
func retain(opt SlotOption) bool { return opt.IsOptional || opt.IsCached }

func now() int64 { return mono.NanoTime() }
