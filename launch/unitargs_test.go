// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package launch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/launch"
)

func TestUnitArgsCoercesDeclaredTypes(t *testing.T) {
	kinds := map[string]launch.ArgKind{
		"device": launch.ArgString,
		"fps":    launch.ArgInt,
		"gain":   launch.ArgFloat,
		"mono":   launch.ArgBool,
	}
	raw := map[string]string{
		"device": "/dev/video0",
		"fps":    "30",
		"gain":   "1.5",
		"mono":   "true",
	}

	a, err := launch.NewUnitArgs("camera_driver", kinds, raw)
	require.NoError(t, err)

	device, err := a.String("device")
	require.NoError(t, err)
	require.Equal(t, "/dev/video0", device)

	fps, err := a.Int("fps")
	require.NoError(t, err)
	require.Equal(t, int64(30), fps)

	gain, err := a.Float("gain")
	require.NoError(t, err)
	require.InDelta(t, 1.5, gain, 1e-9)

	mono, err := a.Bool("mono")
	require.NoError(t, err)
	require.True(t, mono)
}

func TestUnitArgsRejectsBadIntValue(t *testing.T) {
	kinds := map[string]launch.ArgKind{"fps": launch.ArgInt}
	raw := map[string]string{"fps": "not-a-number"}

	_, err := launch.NewUnitArgs("camera_driver", kinds, raw)
	require.Error(t, err)
}

func TestUnitArgsIgnoresUndeclaredKeys(t *testing.T) {
	kinds := map[string]launch.ArgKind{"device": launch.ArgString}
	raw := map[string]string{"device": "/dev/video0", "extra": "ignored"}

	a, err := launch.NewUnitArgs("camera_driver", kinds, raw)
	require.NoError(t, err)
	device, err := a.String("device")
	require.NoError(t, err)
	require.Equal(t, "/dev/video0", device)
}
