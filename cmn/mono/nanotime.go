//go:build !fastmono

// Package mono provides low-level monotonic time for basis processes.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var start = time.Now()

// NanoTime returns a monotonic nanosecond counter. Unlike time.Now().UnixNano(),
// it never jumps on wall-clock adjustment. Build with -tags fastmono to read
// runtime.nanotime directly instead (see fast_nanotime.go).
func NanoTime() int64 { return int64(time.Since(start)) }
