// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package launch

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitWithTimeoutReturnsTrueWhenProcessExits(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())
	require.True(t, waitWithTimeout(cmd, 2*time.Second))
}

func TestWaitWithTimeoutReturnsFalseWhenProcessOutlivesDeadline(t *testing.T) {
	cmd := exec.Command("sleep", "5")
	require.NoError(t, cmd.Start())
	require.False(t, waitWithTimeout(cmd, 50*time.Millisecond))
	_ = cmd.Process.Kill()
	_ = cmd.Wait()
}

func TestShutdownKillsProcessThatIgnoresSIGHUP(t *testing.T) {
	// "sh -c trap ... sleep 5" ignores SIGHUP so Shutdown must escalate to SIGKILL.
	cmd := exec.Command("sh", "-c", "trap '' HUP; sleep 5")
	require.NoError(t, cmd.Start())

	pm := &ProcessManager{processes: []*managedProcess{{name: "stubborn", cmd: cmd}}}

	done := make(chan struct{})
	go func() {
		pm.Shutdown(100 * time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not escalate to SIGKILL in time")
	}
}
