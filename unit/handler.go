// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package unit

import "github.com/basislabs/basis/cmn/mono"

// Handler1 through Handler4 adapt a user handler function — declared
// inputs as typed arguments, declared outputs as the returned Output —
// into the callback shape a sync.All/FieldEqual/FieldApproximatelyEqual
// synchronizer of matching arity expects (spec §4.15: "the sync's
// callback calls the user-written handler function and routes the
// returned Output struct to the corresponding publishers"). In the
// original system this wiring is generated per unit from a YAML
// manifest; these are the generic runtime hooks that generated code
// targets.

// Handler0 wires a timer- or event-driven pure publisher with no
// synchronizer: fn is called directly by the caller (e.g. a ticker loop)
// and its Output is routed to the unit's publishers.
func Handler0[Output any](fn func(time int64) Output, route func(Output)) func(time int64) {
	return func(time int64) { route(fn(time)) }
}

func Handler1[A, Output any](fn func(time int64, a *A) Output, route func(Output)) func(int64, *A) {
	return func(time int64, a *A) { route(fn(time, a)) }
}

func Handler2[A, B, Output any](fn func(time int64, a *A, b *B) Output, route func(Output)) func(int64, *A, *B) {
	return func(time int64, a *A, b *B) { route(fn(time, a, b)) }
}

func Handler3[A, B, C, Output any](fn func(time int64, a *A, b *B, c *C) Output, route func(Output)) func(int64, *A, *B, *C) {
	return func(time int64, a *A, b *B, c *C) { route(fn(time, a, b, c)) }
}

func Handler4[A, B, C, D, Output any](fn func(time int64, a *A, b *B, c *C, d *D) Output, route func(Output)) func(int64, *A, *B, *C, *D) {
	return func(time int64, a *A, b *B, c *C, d *D) { route(fn(time, a, b, c, d)) }
}

// HandlerSubscriber wires a handler with exactly one input and no
// synchronizer directly onto a transport.Subscribe callback (spec
// §4.15's "or none, for pure publishers" case generalized to a single
// bare subscription).
func HandlerSubscriber[A, Output any](fn func(time int64, a *A) Output, route func(Output)) func(*A) {
	return func(a *A) { route(fn(mono.NanoTime(), a)) }
}
