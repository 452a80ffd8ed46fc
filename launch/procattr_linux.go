//go:build linux

// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package launch

import (
	"os/exec"
	"syscall"
)

// configureChildProcAttr arranges for the child to receive SIGHUP if
// this launcher dies first (original_source's launch.cpp sets
// PR_SET_PDEATHSIG via prctl right after fork; the stdlib's
// SysProcAttr.Pdeathsig field wraps the identical syscall, so there is
// no call for unix.Prctl here — exec.Cmd gives no pre-exec hook to run
// prctl manually from, and the stdlib field is the documented way to
// get the same behavior through os/exec).
func configureChildProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGHUP,
	}
}
