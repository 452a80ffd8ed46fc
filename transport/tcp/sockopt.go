//go:build linux || darwin

// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package tcp

import (
	"net"

	"golang.org/x/sys/unix"
)

// setNoDelay disables Nagle's algorithm on conn directly through the
// socket option, rather than the stdlib's net.TCPConn.SetNoDelay
// convenience wrapper — every framed send here is already a complete,
// deliberately-flushed message (spec §4.2), so Nagle coalescing only
// adds latency, never useful batching.
func setNoDelay(conn net.Conn) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		return
	}
	_ = raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
}
