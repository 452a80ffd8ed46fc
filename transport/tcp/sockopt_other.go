//go:build !linux && !darwin

// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package tcp

import "net"

func setNoDelay(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
}
