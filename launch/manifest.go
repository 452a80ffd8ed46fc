// Package launch implements the launch-file manifest, the process
// launcher, and the Mermaid graph export spec §6.4 and the system
// overview table name as the launcher/unit-loader core component.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package launch

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// UnitDefinition is one handler instance inside a process: which plugin
// to load and the command-line arguments it's constructed with.
type UnitDefinition struct {
	UnitType string            `yaml:"unit_type"`
	Args     map[string]string `yaml:"args"`
}

// ProcessDefinition is one OS process the launcher forks, hosting one or
// more units.
type ProcessDefinition struct {
	Units map[string]UnitDefinition `yaml:"units"`
}

// RecordingSettings configures an optional recorder attached to the
// launch (spec §4.13's regex topic filter, directory, async mode).
type RecordingSettings struct {
	Directory string   `yaml:"directory"`
	Topics    []string `yaml:"topics"`
	Async     bool     `yaml:"async"`
	Name      string   `yaml:"name"`
}

// Manifest is the parsed launch file: every managed process plus an
// optional recording configuration.
type Manifest struct {
	Processes map[string]ProcessDefinition `yaml:"processes"`
	Recording *RecordingSettings           `yaml:"recording,omitempty"`
}

// ParseManifestFile reads and parses a launch YAML file.
func ParseManifestFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "launch: read %s", path)
	}
	return ParseManifest(data)
}

// ParseManifest parses launch YAML content.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "launch: parse manifest")
	}
	return &m, nil
}

// ProcessNames returns every managed process name, for iteration order
// independent of map iteration (callers that need a stable launch
// order should sort this themselves).
func (m *Manifest) ProcessNames() []string {
	names := make([]string, 0, len(m.Processes))
	for name := range m.Processes {
		names = append(names, name)
	}
	return names
}
