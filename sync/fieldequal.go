// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package sync

import stdsync "sync"

// keyedEntry is one buffered message alongside its extracted key, kept in
// arrival order so "oldest-common alignment" is just "earliest entry".
type keyedEntry[T any] struct {
	msg *T
	key any
}

// fieldSlot is a bounded per-slot buffer shared by FieldEqual and
// FieldApproximatelyEqual. A nil keyFunc marks a passthrough slot: it
// never participates in key matching and accumulates messages; on every
// sync it delivers only its newest buffered message and then clears the
// buffer (unless cached). Older buffered messages are not delivered.
type fieldSlot[T any] struct {
	opt      SlotOption
	keyFunc  func(*T) any
	maxLen   int
	entries  []keyedEntry[T]
}

func newFieldSlot[T any](opt SlotOption, keyFunc func(*T) any, maxLen int) fieldSlot[T] {
	if maxLen <= 0 {
		maxLen = 64
	}
	return fieldSlot[T]{opt: opt, keyFunc: keyFunc, maxLen: maxLen}
}

func (s *fieldSlot[T]) passthrough() bool { return s.keyFunc == nil }

func (s *fieldSlot[T]) push(msg *T) {
	var key any
	if s.keyFunc != nil {
		key = s.keyFunc(msg)
	}
	s.entries = append(s.entries, keyedEntry[T]{msg: msg, key: key})
	if len(s.entries) > s.maxLen {
		s.entries = s.entries[1:]
	}
}

// matchIndex returns the index of the oldest buffered entry whose key
// equals k, or -1.
func (s *fieldSlot[T]) matchIndex(k any, eq func(a, b any) bool) int {
	for i, e := range s.entries {
		if eq(e.key, k) {
			return i
		}
	}
	return -1
}

// consumeAt drops every entry up to and including idx ("drop older, keep
// newer"), unless the slot is cached, in which case the buffer is left
// untouched. Passthrough slots use consumePassthrough instead.
func (s *fieldSlot[T]) consumeAt(idx int) *T {
	if idx < 0 || idx >= len(s.entries) {
		return nil
	}
	msg := s.entries[idx].msg
	if !s.opt.IsCached {
		s.entries = s.entries[idx+1:]
	}
	return msg
}

func (s *fieldSlot[T]) consumePassthrough() *T {
	if len(s.entries) == 0 {
		return nil
	}
	msg := s.entries[len(s.entries)-1].msg
	if !s.opt.IsCached {
		s.entries = s.entries[:0]
	}
	return msg
}

func (s *fieldSlot[T]) ready() bool {
	return s.opt.IsOptional || s.passthrough() || len(s.entries) > 0
}

func exactEq(a, b any) bool { return a == b }

// FieldEqual2 aligns two topics on a shared key extracted from each
// message. A nil keyFunc marks that slot as a non-syncing passthrough
// (spec §4.12).
type FieldEqual2[A, B any] struct {
	mu       stdsync.Mutex
	a        fieldSlot[A]
	b        fieldSlot[B]
	callback func(time int64, a *A, b *B)
}

func NewFieldEqual2[A, B any](
	optA SlotOption, keyA func(*A) any,
	optB SlotOption, keyB func(*B) any,
	bufLen int,
	callback func(time int64, a *A, b *B),
) *FieldEqual2[A, B] {
	return &FieldEqual2[A, B]{
		a:        newFieldSlot(optA, keyA, bufLen),
		b:        newFieldSlot(optB, keyB, bufLen),
		callback: callback,
	}
}

func (s *FieldEqual2[A, B]) OnA(msg *A) {
	s.mu.Lock()
	s.a.push(msg)
	s.tryConsume()
	s.mu.Unlock()
}

func (s *FieldEqual2[A, B]) OnB(msg *B) {
	s.mu.Lock()
	s.b.push(msg)
	s.tryConsume()
	s.mu.Unlock()
}

// tryConsume scans slot A's buffer oldest-first (the candidate key order
// that yields the "oldest-common alignment" tie-break) for a key present
// in slot B. Slot A must be a syncing (non-passthrough) slot; a
// passthrough slot belongs in the B position.
func (s *FieldEqual2[A, B]) tryConsume() {
	if s.a.passthrough() {
		return
	}
	for _, e := range s.a.entries {
		bi := -1
		if !s.b.passthrough() {
			bi = s.b.matchIndex(e.key, exactEq)
			if bi < 0 {
				continue
			}
		} else if len(s.b.entries) == 0 && !s.b.opt.IsOptional {
			continue
		}
		ai := s.a.matchIndex(e.key, exactEq)
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

// FieldEqual3 is the 3-input variant of FieldEqual2.
type FieldEqual3[A, B, C any] struct {
	mu       stdsync.Mutex
	a        fieldSlot[A]
	b        fieldSlot[B]
	c        fieldSlot[C]
	callback func(time int64, a *A, b *B, c *C)
}

func NewFieldEqual3[A, B, C any](
	optA SlotOption, keyA func(*A) any,
	optB SlotOption, keyB func(*B) any,
	optC SlotOption, keyC func(*C) any,
	bufLen int,
	callback func(time int64, a *A, b *B, c *C),
) *FieldEqual3[A, B, C] {
	return &FieldEqual3[A, B, C]{
		a:        newFieldSlot(optA, keyA, bufLen),
		b:        newFieldSlot(optB, keyB, bufLen),
		c:        newFieldSlot(optC, keyC, bufLen),
		callback: callback,
	}
}

func (s *FieldEqual3[A, B, C]) OnA(msg *A) {
	s.mu.Lock()
	s.a.push(msg)
	s.tryConsume()
	s.mu.Unlock()
}

func (s *FieldEqual3[A, B, C]) OnB(msg *B) {
	s.mu.Lock()
	s.b.push(msg)
	s.tryConsume()
	s.mu.Unlock()
}

func (s *FieldEqual3[A, B, C]) OnC(msg *C) {
	s.mu.Lock()
	s.c.push(msg)
	s.tryConsume()
	s.mu.Unlock()
}

// tryConsume scans the first non-passthrough slot's buffer oldest-first
// for a key shared across every syncing slot (spec §4.12 tie-break:
// oldest-common alignment).
func (s *FieldEqual3[A, B, C]) tryConsume() {
	if s.a.passthrough() {
		return
	}
	for _, e := range s.a.entries {
		bi := -1
		if !s.b.passthrough() {
			bi = s.b.matchIndex(e.key, exactEq)
			if bi < 0 {
				continue
			}
		} else if len(s.b.entries) == 0 && !s.b.opt.IsOptional {
			continue
		}
		ci := -1
		if !s.c.passthrough() {
			ci = s.c.matchIndex(e.key, exactEq)
			if ci < 0 {
				continue
			}
		} else if len(s.c.entries) == 0 && !s.c.opt.IsOptional {
			continue
		}
		ai := s.a.matchIndex(e.key, exactEq)
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
