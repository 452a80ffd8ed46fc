//go:build !debug

// Package debug provides build-tag gated invariant checks: compiled out
// entirely unless built with `-tags debug`, so release builds pay nothing
// for the asserts sprinkled through the hot paths (packet framing, reactor
// dispatch, subscriber registries).
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package debug

import "sync"

func ON() bool { return false }

func Func(_ func()) {}

func Assert(_ bool, _ ...any)             {}
func AssertFunc(_ func() bool, _ ...any)  {}
func AssertNoErr(_ error)                 {}
func Assertf(_ bool, _ string, _ ...any)  {}
func AssertMutexLocked(_ *sync.Mutex)     {}
func AssertRWMutexLocked(_ *sync.RWMutex) {}
