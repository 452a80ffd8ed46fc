// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package launch

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/basislabs/basis/cmn/nlog"
)

// managedProcess is one forked child plus the means to wait on or
// escalate-kill it (original_source's process_manager.cpp, Process).
type managedProcess struct {
	name string
	cmd  *exec.Cmd
}

// ProcessManager forks one child process per launch-manifest process
// name, re-executing the launcher's own binary with "--process <name>"
// appended to its argv — the Go equivalent of the original's
// fork+execv sublauncher, since a single compiled binary here hosts
// every process variant rather than loading per-process shared objects.
type ProcessManager struct {
	mu        sync.Mutex
	processes []*managedProcess
}

func NewProcessManager() *ProcessManager { return &ProcessManager{} }

// LaunchAll forks one child per process name in m. argv is the parent's
// own os.Args — argv[0] is reused as the child's executable path, and
// argv[1:] is forwarded ahead of "--process <name>".
func (pm *ProcessManager) LaunchAll(m *Manifest, argv []string) error {
	for _, name := range m.ProcessNames() {
		if err := pm.launch(name, argv); err != nil {
			return err
		}
	}
	return nil
}

func (pm *ProcessManager) launch(name string, argv []string) error {
	args := append(append([]string{}, argv[1:]...), "--process", name)
	cmd := exec.Command(argv[0], args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	configureChildProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "launch: start process %s", name)
	}
	nlog.Infoln("launch: forked process", name, "pid", cmd.Process.Pid)

	pm.mu.Lock()
	pm.processes = append(pm.processes, &managedProcess{name: name, cmd: cmd})
	pm.mu.Unlock()
	return nil
}

// Wait blocks until every managed process has exited on its own.
func (pm *ProcessManager) Wait() {
	pm.mu.Lock()
	procs := append([]*managedProcess(nil), pm.processes...)
	pm.mu.Unlock()

	for _, p := range procs {
		_ = p.cmd.Wait()
	}
}

// Shutdown signals every managed process with SIGHUP, waits up to
// timeout for each to exit, then escalates to SIGKILL for any still
// running — mirroring Process::KillAndWait's signal-then-escalate shape.
func (pm *ProcessManager) Shutdown(timeout time.Duration) {
	pm.mu.Lock()
	procs := append([]*managedProcess(nil), pm.processes...)
	pm.mu.Unlock()

	for _, p := range procs {
		if p.cmd.Process == nil {
			continue
		}
		_ = p.cmd.Process.Signal(syscall.SIGHUP)
	}

	for _, p := range procs {
		if waitWithTimeout(p.cmd, timeout) {
			continue
		}
		nlog.Warningln("launch: process", p.name, "did not exit after SIGHUP, killing")
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		_ = p.cmd.Wait()
	}
}

func waitWithTimeout(cmd *exec.Cmd, timeout time.Duration) bool {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
