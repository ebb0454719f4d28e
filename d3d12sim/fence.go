// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package d3d12sim

import (
	"sync"

	"github.com/embergpu/hal/nativeapi"
)

// SimFence implements nativeapi.Fence with a condition variable in place
// of a native event handle.
//
// Queue-side signals are deferred: Queue.Signal parks the (fence, value)
// pair on the queue and the value only lands when the queue next
// advances — a later submission, signal, or wait (see Queue). A CPU-side
// wait drains the device's pending signals itself before blocking, the
// way a real wait eventually observes the GPU catching up. This gives
// the allocator reset protocol the fence latency it is built around: a
// completed-value poll right after a submit sees the old value.
type SimFence struct {
	device *Device

	mu    sync.Mutex
	cond  *sync.Cond
	value uint64
}

// Signal sets the completed value from the CPU. Values are monotonic;
// signaling backwards is ignored.
func (f *SimFence) Signal(value uint64) {
	f.mu.Lock()
	if value > f.value {
		f.value = value
		f.cond.Broadcast()
	}
	f.mu.Unlock()
}

// CompletedValue returns the last completed value. No side effects:
// pending queue signals stay pending, so polling callers observe the
// deferred timeline.
func (f *SimFence) CompletedValue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// WaitCPU blocks until the completed value reaches value, draining the
// device's pending queue signals first.
func (f *SimFence) WaitCPU(value uint64) {
	f.mu.Lock()
	for f.value < value {
		if f.device != nil {
			f.mu.Unlock()
			f.device.retirePendingSignals()
			f.mu.Lock()
			if f.value >= value {
				break
			}
		}
		f.cond.Wait()
	}
	f.mu.Unlock()
}

// Release frees the fence.
func (f *SimFence) Release() {}

var _ nativeapi.Fence = (*SimFence)(nil)
