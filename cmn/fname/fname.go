// Package fname contains filename constants and common system directories
// used across basis processes.
/*
 * Copyright (c) 2018-2022, NVIDIA CORPORATION. All rights reserved.
 */
package fname

const (
	HomeConfigsDir = ".config" // join(os.UserHomeDir(), HomeConfigsDir)
	HomeBasis      = "basis"   // join(os.UserHomeDir(), HomeConfigsDir, HomeBasis)
)

const (
	// coordinator/transport-manager runtime config
	GlobalConfig = "basis.conf"

	// launch manifest (YAML graph of units/processes) passed to the launcher
	LaunchManifest = "launch.yaml"

	// name reserved for a coordinator schema cache file; the coordinator
	// keeps schemas in memory only and does not read or write this file
	SchemaCache = ".basis.schemas"

	// base name for recorder output files
	RecordingBase = "recording.mcap"
)
