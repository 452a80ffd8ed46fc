// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/basislabs/basis/cmn"
	"github.com/basislabs/basis/cmn/nlog"
	"github.com/basislabs/basis/coordinator"
)

var (
	configPath string
	logDir     string
)

func main() {
	root := &cobra.Command{
		Use:   "coordinatord",
		Short: "Runs the topology broker every transport manager on a host connects to",
		RunE:  run,
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a basis config YAML file (defaults built in)")
	root.Flags().StringVar(&logDir, "log-dir", "", "log directory (empty logs to stderr)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := cmn.Load(configPath)
	if err != nil {
		return err
	}
	cmn.Rom.Set(cfg)

	dir := logDir
	if dir == "" {
		dir = cfg.Log.Dir
	}
	nlog.SetLogDirRole(dir, "coordinator")
	defer nlog.Flush(true)

	c, err := coordinator.New()
	if err != nil {
		return err
	}
	nlog.Infof("coordinator listening on port %d", c.Port())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		nlog.Infoln("coordinator: shutting down")
		c.Stop()
	}()

	c.Run(cmn.Rom.CoordinatorUpdate())
	return nil
}
