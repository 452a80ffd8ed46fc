// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package launch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basislabs/basis/launch"
	"github.com/basislabs/basis/unit"
)

func TestBuildUnitRunsRegisteredFactory(t *testing.T) {
	var gotDevice string
	launch.RegisterUnitFactory("test_camera_driver", func(u *unit.Unit, args *launch.UnitArgs) error {
		device, err := args.String("device")
		if err != nil {
			return err
		}
		gotDevice = device
		return nil
	})

	u := unit.New(true, nil)
	def := launch.UnitDefinition{UnitType: "test_camera_driver", Args: map[string]string{"device": "/dev/video1"}}
	kinds := map[string]launch.ArgKind{"device": launch.ArgString}

	require.NoError(t, launch.BuildUnit(u, def, kinds))
	require.Equal(t, "/dev/video1", gotDevice)
}

func TestBuildUnitErrorsOnUnregisteredType(t *testing.T) {
	u := unit.New(true, nil)
	def := launch.UnitDefinition{UnitType: "nonexistent_unit_type"}
	err := launch.BuildUnit(u, def, nil)
	require.Error(t, err)
}
