// Package inproc implements the in-process transport (spec §4.6): a
// type-parametric publisher that fans a message out to every subscriber
// in the same process by handing over the pointer directly, no
// serialization involved.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package inproc

import (
	"sync"
	"weak"

	"github.com/basislabs/basis/cmn/mono"
)

// MessageEvent is what a subscriber's callback receives: the publish
// time, the topic it arrived on, and the message itself.
type MessageEvent[T any] struct {
	Time  int64
	Topic string
	Msg   *T
}

// Callback is a subscriber's inproc delivery function.
type Callback[T any] func(MessageEvent[T])

// Publisher holds weak references to its subscribers' callbacks, keyed by
// nothing more than registration order — a dead weak pointer is simply
// skipped on the next Publish (spec §9 "cyclic ownership risk", same
// pattern as the subscriber callback queue).
type Publisher[T any] struct {
	topic string

	mu   sync.Mutex
	subs []weak.Pointer[Callback[T]]
}

func NewPublisher[T any](topic string) *Publisher[T] {
	return &Publisher[T]{topic: topic}
}

// Subscribe registers cb and returns the strong reference the caller must
// keep alive for as long as delivery should continue — once it's dropped,
// the weak reference here dies with it.
func (p *Publisher[T]) Subscribe(cb Callback[T]) *Callback[T] {
	strong := &cb
	p.mu.Lock()
	p.subs = append(p.subs, weak.Make(strong))
	p.mu.Unlock()
	return strong
}

// Publish fans msg out to every still-live subscriber, in registration
// order, under one lock — the inproc transport's ordering guarantee
// (spec §5).
func (p *Publisher[T]) Publish(msg *T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := mono.NanoTime()
	for _, w := range p.subs {
		if cb := w.Value(); cb != nil {
			(*cb)(MessageEvent[T]{Time: now, Topic: p.topic, Msg: msg})
		}
	}
}

// Compact drops dead weak references so the slice doesn't grow without
// bound across a long-running publisher's lifetime.
func (p *Publisher[T]) Compact() {
	p.mu.Lock()
	defer p.mu.Unlock()
	live := p.subs[:0]
	for _, w := range p.subs {
		if w.Value() != nil {
			live = append(live, w)
		}
	}
	p.subs = live
}

// SubscriberCount reports currently-live (not-yet-collected) subscribers;
// exposed mainly for tests.
func (p *Publisher[T]) SubscriberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, w := range p.subs {
		if w.Value() != nil {
			n++
		}
	}
	return n
}
