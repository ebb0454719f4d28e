// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package fence pools the user-visible fences: monotonic 64-bit counters
// signalable and waitable from both CPU and GPU.
package fence

import (
	"sync"

	"github.com/embergpu/hal/handle"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// Pool owns the fence nodes.
type Pool struct {
	mu     sync.Mutex
	device nativeapi.Device
	pool   *handle.Pool[nativeapi.Fence, types.FenceMarker]
}

// NewPool creates the pool.
func NewPool(device nativeapi.Device, maxNumFences int) *Pool {
	return &Pool{
		device: device,
		pool:   handle.NewPool[nativeapi.Fence, types.FenceMarker](maxNumFences),
	}
}

// Create creates a fence at value zero.
func (p *Pool) Create() types.Fence {
	native, err := p.device.CreateFence(0)
	if err != nil {
		diag.Fatalf("fence: native creation failed: %v", err)
	}
	p.mu.Lock()
	h, err := p.pool.Acquire(native)
	p.mu.Unlock()
	if err != nil {
		diag.Fatalf("fence: pool exhausted")
	}
	return h
}

// Free releases a fence.
func (p *Pool) Free(h types.Fence) {
	if !h.Valid() {
		return
	}
	p.get(h).Release()
	p.mu.Lock()
	released := p.pool.Release(h)
	p.mu.Unlock()
	if !released {
		diag.Fatalf("fence: double free of %v", h)
	}
}

// FreeMany releases a batch of fences.
func (p *Pool) FreeMany(hs []types.Fence) {
	for _, h := range hs {
		p.Free(h)
	}
}

func (p *Pool) get(h types.Fence) nativeapi.Fence {
	native, ok := p.pool.Get(h)
	if !ok {
		diag.Fatalf("fence: invalid handle %v", h)
	}
	return *native
}

// Native returns the native fence for queue-side signals and waits.
func (p *Pool) Native(h types.Fence) nativeapi.Fence { return p.get(h) }

// SignalCPU sets the fence value from the CPU.
func (p *Pool) SignalCPU(h types.Fence, value uint64) {
	p.get(h).Signal(value)
}

// SignalGPU enqueues a signal on queue after all prior work.
func (p *Pool) SignalGPU(h types.Fence, value uint64, queue nativeapi.Queue) {
	if err := queue.Signal(p.get(h), value); err != nil {
		diag.Fatalf("fence: GPU signal failed: %v", err)
	}
}

// WaitCPU blocks the calling thread until the fence reaches value.
func (p *Pool) WaitCPU(h types.Fence, value uint64) {
	p.get(h).WaitCPU(value)
}

// WaitGPU stalls queue until the fence reaches value.
func (p *Pool) WaitGPU(h types.Fence, value uint64, queue nativeapi.Queue) {
	if err := queue.Wait(p.get(h), value); err != nil {
		diag.Fatalf("fence: GPU wait failed: %v", err)
	}
}

// Value returns the fence's completed value.
func (p *Pool) Value(h types.Fence) uint64 {
	return p.get(h).CompletedValue()
}

// NumLive returns the number of live fences.
func (p *Pool) NumLive() int { return p.pool.Len() }

// Destroy releases remaining fences, reporting leaks.
func (p *Pool) Destroy() {
	leaks := 0
	p.pool.ForEach(func(_ types.Fence, native *nativeapi.Fence) bool {
		leaks++
		(*native).Release()
		return true
	})
	if leaks > 0 {
		diag.Logger().Warn("fence: leaked handles at pool destroy", "count", leaks)
	}
}
