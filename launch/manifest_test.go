// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package launch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/launch"
)

const sampleManifest = `
processes:
  perception:
    units:
      camera_driver:
        unit_type: camera_driver
        args:
          device: /dev/video0
          fps: "30"
      lidar_driver:
        unit_type: lidar_driver
        args: {}
  planning:
    units:
      planner:
        unit_type: path_planner
        args:
          horizon: "5.0"
recording:
  directory: /data/recordings
  topics:
    - /camera/.*
    - /lidar/.*
  async: true
  name: drive_001
`

func TestParseManifestParsesProcessesAndRecording(t *testing.T) {
	m, err := launch.ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)
	require.Len(t, m.Processes, 2)

	perception, ok := m.Processes["perception"]
	require.True(t, ok)
	require.Len(t, perception.Units, 2)
	require.Equal(t, "camera_driver", perception.Units["camera_driver"].UnitType)
	require.Equal(t, "/dev/video0", perception.Units["camera_driver"].Args["device"])

	require.NotNil(t, m.Recording)
	require.Equal(t, "drive_001", m.Recording.Name)
	require.True(t, m.Recording.Async)
	require.ElementsMatch(t, []string{"/camera/.*", "/lidar/.*"}, m.Recording.Topics)
}

func TestParseManifestRejectsInvalidYAML(t *testing.T) {
	_, err := launch.ParseManifest([]byte("processes: [this, is, not, a, map]"))
	require.Error(t, err)
}

func TestProcessNamesCoversEveryProcess(t *testing.T) {
	m, err := launch.ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"perception", "planning"}, m.ProcessNames())
}

func TestBuildGraphAndRenderMermaid(t *testing.T) {
	m, err := launch.ParseManifest([]byte(sampleManifest))
	require.NoError(t, err)

	g := launch.BuildGraph(m)
	require.Len(t, g.Processes, 2)
	require.Equal(t, "perception", g.Processes[0].Name)
	require.Len(t, g.Processes[0].Units, 2)

	out := launch.RenderMermaid(g)
	require.Contains(t, out, "flowchart TB")
	require.Contains(t, out, `subgraph process_perception["perception"]`)
	require.Contains(t, out, `unit_perception_camera_driver["camera_driver (camera_driver)"]`)
	require.Contains(t, out, `subgraph process_planning["planning"]`)
}
