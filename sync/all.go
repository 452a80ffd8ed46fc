// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package sync

import "sync"

// All2 fires once every non-optional slot holds at least one message.
type All2[A, B any] struct {
	mu       sync.Mutex
	optA     SlotOption
	optB     SlotOption
	a        *A
	b        *B
	callback func(time int64, a *A, b *B)
}

func NewAll2[A, B any](optA, optB SlotOption, callback func(time int64, a *A, b *B)) *All2[A, B] {
	return &All2[A, B]{optA: optA, optB: optB, callback: callback}
}

func (s *All2[A, B]) OnA(msg *A) {
	s.mu.Lock()
	s.a = msg
	s.tryConsume()
	s.mu.Unlock()
}

func (s *All2[A, B]) OnB(msg *B) {
	s.mu.Lock()
	s.b = msg
	s.tryConsume()
	s.mu.Unlock()
}

func (s *All2[A, B]) ready() bool {
	if !s.optA.IsOptional && s.a == nil {
		return false
	}
	if !s.optB.IsOptional && s.b == nil {
		return false
	}
	return true
}

// tryConsume must be called with mu held.
func (s *All2[A, B]) tryConsume() {
	if !s.ready() {
		return
	}
	a, b := s.a, s.b
	if !retain(s.optA) {
		s.a = nil
	}
	if !retain(s.optB) {
		s.b = nil
	}
	s.callback(now(), a, b)
}

// All3 is the 3-input variant of All2.
type All3[A, B, C any] struct {
	mu       sync.Mutex
	optA     SlotOption
	optB     SlotOption
	optC     SlotOption
	a        *A
	b        *B
	c        *C
	callback func(time int64, a *A, b *B, c *C)
}

func NewAll3[A, B, C any](optA, optB, optC SlotOption, callback func(time int64, a *A, b *B, c *C)) *All3[A, B, C] {
	return &All3[A, B, C]{optA: optA, optB: optB, optC: optC, callback: callback}
}

func (s *All3[A, B, C]) OnA(msg *A) {
	s.mu.Lock()
	s.a = msg
	s.tryConsume()
	s.mu.Unlock()
}

func (s *All3[A, B, C]) OnB(msg *B) {
	s.mu.Lock()
	s.b = msg
	s.tryConsume()
	s.mu.Unlock()
}

func (s *All3[A, B, C]) OnC(msg *C) {
	s.mu.Lock()
	s.c = msg
	s.tryConsume()
	s.mu.Unlock()
}

func (s *All3[A, B, C]) ready() bool {
	if !s.optA.IsOptional && s.a == nil {
		return false
	}
	if !s.optB.IsOptional && s.b == nil {
		return false
	}
	if !s.optC.IsOptional && s.c == nil {
		return false
	}
	return true
}

func (s *All3[A, B, C]) tryConsume() {
	if !s.ready() {
		return
	}
	a, b, c := s.a, s.b, s.c
	if !retain(s.optA) {
		s.a = nil
	}
	if !retain(s.optB) {
		s.b = nil
	}
	if !retain(s.optC) {
		s.c = nil
	}
	s.callback(now(), a, b, c)
}

// All4 is the 4-input variant of All2.
type All4[A, B, C, D any] struct {
	mu       sync.Mutex
	optA     SlotOption
	optB     SlotOption
	optC     SlotOption
	optD     SlotOption
	a        *A
	b        *B
	c        *C
	d        *D
	callback func(time int64, a *A, b *B, c *C, d *D)
}

func NewAll4[A, B, C, D any](optA, optB, optC, optD SlotOption, callback func(time int64, a *A, b *B, c *C, d *D)) *All4[A, B, C, D] {
	return &All4[A, B, C, D]{optA: optA, optB: optB, optC: optC, optD: optD, callback: callback}
}

func (s *All4[A, B, C, D]) OnA(msg *A) {
	s.mu.Lock()
	s.a = msg
	s.tryConsume()
	s.mu.Unlock()
}

func (s *All4[A, B, C, D]) OnB(msg *B) {
	s.mu.Lock()
	s.b = msg
	s.tryConsume()
	s.mu.Unlock()
}

func (s *All4[A, B, C, D]) OnC(msg *C) {
	s.mu.Lock()
	s.c = msg
	s.tryConsume()
	s.mu.Unlock()
}

func (s *All4[A, B, C, D]) OnD(msg *D) {
	s.mu.Lock()
	s.d = msg
	s.tryConsume()
	s.mu.Unlock()
}

func (s *All4[A, B, C, D]) ready() bool {
	if !s.optA.IsOptional && s.a == nil {
		return false
	}
	if !s.optB.IsOptional && s.b == nil {
		return false
	}
	if !s.optC.IsOptional && s.c == nil {
		return false
	}
	if !s.optD.IsOptional && s.d == nil {
		return false
	}
	return true
}

func (s *All4[A, B, C, D]) tryConsume() {
	if !s.ready() {
		return
	}
	a, b, c, d := s.a, s.b, s.c, s.d
	if !retain(s.optA) {
		s.a = nil
	}
	if !retain(s.optB) {
		s.b = nil
	}
	if !retain(s.optC) {
		s.c = nil
	}
	if !retain(s.optD) {
		s.d = nil
	}
	s.callback(now(), a, b, c, d)
}
