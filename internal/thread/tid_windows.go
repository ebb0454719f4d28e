// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

//go:build windows

package thread

import "golang.org/x/sys/windows"

func currentThreadID() uint64 {
	return uint64(windows.GetCurrentThreadId())
}
