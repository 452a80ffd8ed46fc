//go:build !linux

// Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
package launch

import "os/exec"

func configureChildProcAttr(cmd *exec.Cmd) {}
