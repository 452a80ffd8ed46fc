// Package cmn provides common constants, types, and configuration shared by
// every basis process: the coordinator, a unit's transport manager, and the
// launcher.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultCoordinatorPort is the well-known compile-time coordinator port
// (spec §6.2): clients connect to 127.0.0.1:<port> unless overridden.
const DefaultCoordinatorPort = 4123

type (
	TimeoutConfig struct {
		// CoordinatorUpdate is the interval coordinatord passes to
		// Coordinator.Run (spec §5, 50ms default).
		CoordinatorUpdate time.Duration `yaml:"coordinator_update"`
		// ReactorShutdownPoll is loaded into Rom but not consulted: the TCP
		// receivers block in Read until their connection is closed.
		ReactorShutdownPoll time.Duration `yaml:"reactor_shutdown_poll"`
	}

	TransportConfig struct {
		// MaxPacketPayload is the data_size ceiling a receiver enforces
		// before rejecting a packet as malformed (spec §4.1).
		MaxPacketPayload uint32 `yaml:"max_packet_payload"`
	}

	SubscriberConfig struct {
		// DefaultQueueLimit is loaded into Rom.QueueLimit; 0 means
		// unbounded (spec §4.7). transport.Subscribe takes its queue limit
		// as an explicit argument and does not read this value.
		DefaultQueueLimit int `yaml:"default_queue_limit"`
	}

	LogConfig struct {
		Level string `yaml:"level"` // "info" | "warning" | "error"
		Dir   string `yaml:"dir"`
	}

	CoordinatorConfig struct {
		Port int `yaml:"port"`
	}

	// Config is the top-level process configuration, loaded from a YAML file
	// (the same family of files as the launch manifest) with environment
	// overrides for the handful of values spec.md calls out explicitly.
	Config struct {
		Coordinator CoordinatorConfig `yaml:"coordinator"`
		Transport   TransportConfig   `yaml:"transport"`
		Subscriber  SubscriberConfig  `yaml:"subscriber"`
		Timeout     TimeoutConfig     `yaml:"timeout"`
		Log         LogConfig         `yaml:"log"`
	}
)

func Default() *Config {
	return &Config{
		Coordinator: CoordinatorConfig{Port: DefaultCoordinatorPort},
		Transport:   TransportConfig{MaxPacketPayload: 64 << 20}, // 64MiB ceiling
		Subscriber:  SubscriberConfig{DefaultQueueLimit: 0},
		Timeout: TimeoutConfig{
			CoordinatorUpdate:   50 * time.Millisecond,
			ReactorShutdownPoll: time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a YAML config file, falling back to defaults for anything not
// present in the file, and finally applying BASIS_-prefixed env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides implements spec §6.4 "Log level from environment".
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BASIS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BASIS_LOG_DIR"); v != "" {
		cfg.Log.Dir = v
	}
	if v := os.Getenv("BASIS_COORDINATOR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Coordinator.Port = port
		}
	}
}
