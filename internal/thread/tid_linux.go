// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package thread

import "golang.org/x/sys/unix"

func currentThreadID() uint64 {
	return uint64(unix.Gettid())
}
