// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/basislabs/basis/cmn"
	"github.com/basislabs/basis/cmn/nlog"
	"github.com/basislabs/basis/coordinator"
	"github.com/basislabs/basis/launch"
	"github.com/basislabs/basis/recorder"
	"github.com/basislabs/basis/transport"
	"github.com/basislabs/basis/unit"
)

var (
	manifestPath string
	configPath   string
	logDir       string
	processName  string
	printMermaid bool
	shutdownWait time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "launcher",
		Short: "Forks and supervises the processes declared in a launch manifest",
		RunE:  run,
	}
	root.Flags().StringVar(&manifestPath, "manifest", "", "path to a launch manifest YAML file (required)")
	root.Flags().StringVar(&configPath, "config", "", "path to a basis config YAML file")
	root.Flags().StringVar(&logDir, "log-dir", "", "log directory (empty logs to stderr)")
	root.Flags().StringVar(&processName, "process", "", "internal: run only the named process in-place instead of forking the manifest")
	root.Flags().BoolVar(&printMermaid, "print-mermaid", false, "print the manifest's Mermaid graph and exit")
	root.Flags().DurationVar(&shutdownWait, "shutdown-wait", 5*time.Second, "grace period before escalating SIGHUP to SIGKILL")
	_ = root.MarkFlagRequired("manifest")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	m, err := launch.ParseManifestFile(manifestPath)
	if err != nil {
		return err
	}

	if printMermaid {
		fmt.Println(launch.RenderMermaid(launch.BuildGraph(m)))
		return nil
	}

	if processName != "" {
		return runProcess(m, processName)
	}
	return runSupervisor(m)
}

// runSupervisor forks one child per manifest process and waits for a
// shutdown signal to tear them all down.
func runSupervisor(m *launch.Manifest) error {
	nlog.SetLogDirRole(logDir, "launcher")
	defer nlog.Flush(true)

	pm := launch.NewProcessManager()
	if err := pm.LaunchAll(m, os.Args); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	nlog.Infoln("launcher: shutting down")
	pm.Shutdown(shutdownWait)
	return nil
}

// runProcess hosts one manifest process in the current OS process: it
// brings up a transport Manager, connects to the coordinator, builds
// every declared unit from the registered factories, and runs the
// single-threaded runtime loop until signaled.
func runProcess(m *launch.Manifest, name string) error {
	nlog.SetLogDirRole(logDir, name)
	defer nlog.Flush(true)

	cfg, err := cmn.Load(configPath)
	if err != nil {
		return err
	}
	cmn.Rom.Set(cfg)

	proc, ok := m.Processes[name]
	if !ok {
		return fmt.Errorf("launcher: manifest has no process %q", name)
	}

	u := unit.New(true, nil)
	u.Manager.RegisterBackend(transport.NewTCPBackend(cmn.Rom.MaxPacketPayload()))

	connector, err := coordinator.Connect("127.0.0.1", cmn.Rom.CoordinatorPort(), cmn.Rom.MaxPacketPayload(), u.Manager.HandleNetworkInfo)
	if err != nil {
		return fmt.Errorf("launcher: connect to coordinator: %w", err)
	}
	defer connector.Close()
	u.Connector = connector

	if m.Recording != nil {
		rec, err := recorder.New(filepath.Join(m.Recording.Directory, m.Recording.Name), m.Recording.Topics)
		if err != nil {
			return fmt.Errorf("launcher: start recorder: %w", err)
		}
		if m.Recording.Async {
			async := recorder.NewAsync(rec, 1024)
			defer async.Close()
			u.Recorder = async
		} else {
			defer rec.Close()
			u.Recorder = rec
		}
	}

	for unitName, def := range proc.Units {
		if err := launch.BuildUnit(u, def, nil); err != nil {
			return fmt.Errorf("launcher: build unit %q: %w", unitName, err)
		}
	}

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		close(stop)
	}()

	u.RunSingleThreaded(50*time.Millisecond, stop)
	return nil
}
