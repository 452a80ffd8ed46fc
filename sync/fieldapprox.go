// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package sync

import stdsync "sync"

// approxEq builds an equality predicate over float64 keys that treats two
// keys as equal when they fall within epsilon of each other; epsilon is
// fixed when the synchronizer is constructed. Non-float64 keys never match.
func approxEq(epsilon float64) func(a, b any) bool {
	return func(a, b any) bool {
		af, aok := a.(float64)
		bf, bok := b.(float64)
		if !aok || !bok {
			return false
		}
		d := af - bf
		if d < 0 {
			d = -d
		}
		return d <= epsilon
	}
}

// FieldApproximatelyEqual2 is FieldEqual2 with float64 keys matched
// within a fixed epsilon instead of exactly.
type FieldApproximatelyEqual2[A, B any] struct {
	mu       stdsync.Mutex
	epsilon  float64
	a        fieldSlot[A]
	b        fieldSlot[B]
	callback func(time int64, a *A, b *B)
}

func NewFieldApproximatelyEqual2[A, B any](
	epsilon float64,
	optA SlotOption, keyA func(*A) float64,
	optB SlotOption, keyB func(*B) float64,
	bufLen int,
	callback func(time int64, a *A, b *B),
) *FieldApproximatelyEqual2[A, B] {
	var ka func(*A) any
	if keyA != nil {
		ka = func(v *A) any { return keyA(v) }
	}
	var kb func(*B) any
	if keyB != nil {
		kb = func(v *B) any { return keyB(v) }
	}
	return &FieldApproximatelyEqual2[A, B]{
		epsilon:  epsilon,
		a:        newFieldSlot(optA, ka, bufLen),
		b:        newFieldSlot(optB, kb, bufLen),
		callback: callback,
	}
}

func (s *FieldApproximatelyEqual2[A, B]) OnA(msg *A) {
	s.mu.Lock()
	s.a.push(msg)
	s.tryConsume()
	s.mu.Unlock()
}

func (s *FieldApproximatelyEqual2[A, B]) OnB(msg *B) {
	s.mu.Lock()
	s.b.push(msg)
	s.tryConsume()
	s.mu.Unlock()
}

// tryConsume walks slot A oldest-first, the tie-break order that yields
// the oldest-common alignment, requiring every pairwise key in the
// chosen tuple to lie within epsilon of A's key (the common center).
func (s *FieldApproximatelyEqual2[A, B]) tryConsume() {
	if s.a.passthrough() {
		return
	}
	eq := approxEq(s.epsilon)
	for ai, e := range s.a.entries {
		bi := -1
		if !s.b.passthrough() {
			bi = s.b.matchIndex(e.key, eq)
			if bi < 0 {
				continue
			}
		} else if len(s.b.entries) == 0 && !s.b.opt.IsOptional {
			continue
		}
		a := s.a.consumeAt(ai)
		var b *B
		if s.b.passthrough() {
			b = s.b.consumePassthrough()
		} else {
			b = s.b.consumeAt(bi)
		}
		s.callback(now(), a, b)
		return
	}
}

// FieldApproximatelyEqual3 is the 3-input variant of
// FieldApproximatelyEqual2: every pairwise key in the chosen tuple must
// lie within epsilon of A's key.
type FieldApproximatelyEqual3[A, B, C any] struct {
	mu       stdsync.Mutex
	epsilon  float64
	a        fieldSlot[A]
	b        fieldSlot[B]
	c        fieldSlot[C]
	callback func(time int64, a *A, b *B, c *C)
}

func NewFieldApproximatelyEqual3[A, B, C any](
	epsilon float64,
	optA SlotOption, keyA func(*A) float64,
	optB SlotOption, keyB func(*B) float64,
	optC SlotOption, keyC func(*C) float64,
	bufLen int,
	callback func(time int64, a *A, b *B, c *C),
) *FieldApproximatelyEqual3[A, B, C] {
	var ka func(*A) any
	if keyA != nil {
		ka = func(v *A) any { return keyA(v) }
	}
	var kb func(*B) any
	if keyB != nil {
		kb = func(v *B) any { return keyB(v) }
	}
	var kc func(*C) any
	if keyC != nil {
		kc = func(v *C) any { return keyC(v) }
	}
	return &FieldApproximatelyEqual3[A, B, C]{
		epsilon:  epsilon,
		a:        newFieldSlot(optA, ka, bufLen),
		b:        newFieldSlot(optB, kb, bufLen),
		c:        newFieldSlot(optC, kc, bufLen),
		callback: callback,
	}
}

func (s *FieldApproximatelyEqual3[A, B, C]) OnA(msg *A) {
	s.mu.Lock()
	s.a.push(msg)
	s.tryConsume()
	s.mu.Unlock()
}

func (s *FieldApproximatelyEqual3[A, B, C]) OnB(msg *B) {
	s.mu.Lock()
	s.b.push(msg)
	s.tryConsume()
	s.mu.Unlock()
}

func (s *FieldApproximatelyEqual3[A, B, C]) OnC(msg *C) {
	s.mu.Lock()
	s.c.push(msg)
	s.tryConsume()
	s.mu.Unlock()
}

func (s *FieldApproximatelyEqual3[A, B, C]) tryConsume() {
	if s.a.passthrough() {
		return
	}
	eq := approxEq(s.epsilon)
	for ai, e := range s.a.entries {
		bi := -1
		if !s.b.passthrough() {
			bi = s.b.matchIndex(e.key, eq)
			if bi < 0 {
				continue
			}
		} else if len(s.b.entries) == 0 && !s.b.opt.IsOptional {
			continue
		}
		ci := -1
		if !s.c.passthrough() {
			ci = s.c.matchIndex(e.key, eq)
			if ci < 0 {
				continue
			}
		} else if len(s.c.entries) == 0 && !s.c.opt.IsOptional {
			continue
		}
		a := s.a.consumeAt(ai)
		var b *B
		if s.b.passthrough() {
			b = s.b.consumePassthrough()
		} else {
			b = s.b.consumeAt(bi)
		}
		var c *C
		if s.c.passthrough() {
			c = s.c.consumePassthrough()
		} else {
			c = s.c.consumeAt(ci)
		}
		s.callback(now(), a, b, c)
		return
	}
}
