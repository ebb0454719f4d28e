// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package swapchain pools per-window backbuffer rings. Each backbuffer
// carries its own presentation fence; acquiring a backbuffer waits on
// that fence, presenting signals it on the presentation queue. The
// acquired image is injected into the resource pool's reserved prefix so
// it binds and transitions like any other resource.
//
// Backbuffer references must be released before resize or destroy; the
// pool drops its injected resource-pool slot first for that reason
// (validation tooling deadlocks on live references during native
// resize).
package swapchain

import (
	"sync"

	"github.com/embergpu/hal/handle"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/resource"
	"github.com/embergpu/hal/types"
)

type backbuffer struct {
	fence nativeapi.Fence
	// issued counts the presents signaled through this backbuffer's
	// fence; acquire waits for the full count.
	issued uint64
	state  types.ResourceState
}

// Node is one swapchain.
type Node struct {
	native        nativeapi.Swapchain
	mode          types.PresentMode
	width, height int32
	hasResized    bool
	backbuffers   []backbuffer
	// injected is the resource-pool prefix handle of the currently
	// acquired backbuffer; null between present and the next acquire.
	injected types.Resource
}

// Pool owns the swapchain nodes.
type Pool struct {
	mu           sync.Mutex
	device       nativeapi.Device
	presentQueue nativeapi.Queue
	resources    *resource.Pool
	pool         *handle.Pool[Node, types.SwapchainMarker]
}

// NewPool creates the pool. presentQueue is the queue presents are issued
// on — the direct queue, or the compute queue when the backend is
// configured to present from compute.
func NewPool(device nativeapi.Device, presentQueue nativeapi.Queue, resources *resource.Pool, maxNumSwapchains int) *Pool {
	return &Pool{
		device:       device,
		presentQueue: presentQueue,
		resources:    resources,
		pool:         handle.NewPool[Node, types.SwapchainMarker](maxNumSwapchains),
	}
}

// Create builds a swapchain on a native window surface.
func (p *Pool) Create(windowHandle uintptr, width, height int32, numBackbuffers uint32, mode types.PresentMode) types.Swapchain {
	diag.Assert(numBackbuffers <= types.MaxBackbuffers, "swapchain: %d backbuffers exceeds maximum", numBackbuffers)

	native, err := p.device.CreateSwapchain(nativeapi.SwapchainDesc{
		WindowHandle:   windowHandle,
		Width:          width,
		Height:         height,
		NumBackbuffers: numBackbuffers,
		Mode:           mode,
	}, p.presentQueue)
	if err != nil {
		diag.Fatalf("swapchain: native creation failed: %v", err)
	}

	node := Node{
		native: native,
		mode:   mode,
		width:  width,
		height: height,
	}
	node.backbuffers = make([]backbuffer, numBackbuffers)
	for i := range node.backbuffers {
		f, err := p.device.CreateFence(0)
		if err != nil {
			diag.Fatalf("swapchain: fence creation failed: %v", err)
		}
		node.backbuffers[i] = backbuffer{fence: f, state: types.StatePresent}
	}

	p.mu.Lock()
	h, err := p.pool.Acquire(node)
	p.mu.Unlock()
	if err != nil {
		diag.Fatalf("swapchain: pool exhausted")
	}
	return h
}

func (p *Pool) node(h types.Swapchain) *Node {
	node, ok := p.pool.Get(h)
	if !ok {
		diag.Fatalf("swapchain: invalid handle %v", h)
	}
	return node
}

// AcquireBackbuffer waits for the current ring slot's presentation fence
// and returns its injected resource handle, ready for rendering.
func (p *Pool) AcquireBackbuffer(h types.Swapchain) types.Resource {
	node := p.node(h)
	idx := node.native.CurrentIndex()
	bb := &node.backbuffers[idx]

	bb.fence.WaitCPU(bb.issued)

	node.injected = p.resources.InjectBackbuffer(int(h.Index()), node.native.Backbuffer(idx), bb.state)
	return node.injected
}

// Present issues the native present and signals the just-presented
// backbuffer's fence on the presentation queue.
func (p *Pool) Present(h types.Swapchain) {
	node := p.node(h)
	idx := node.native.CurrentIndex()
	bb := &node.backbuffers[idx]

	// The injected handle's master state is authoritative at this point;
	// remember it for the next acquire of this ring slot.
	if node.injected.Valid() {
		bb.state = p.resources.State(node.injected)
		node.injected = types.NullResource()
	}

	if err := node.native.Present(); err != nil {
		diag.Fatalf("swapchain: present failed: %v", err)
	}

	bb.issued++
	if err := p.presentQueue.Signal(bb.fence, bb.issued); err != nil {
		diag.Fatalf("swapchain: present fence signal failed: %v", err)
	}
}

// Resize flushes must have happened externally; Resize drops the injected
// backbuffer reference, resizes the native swapchain, and raises the
// one-shot resize flag.
func (p *Pool) Resize(h types.Swapchain, width, height int32) {
	node := p.node(h)

	p.resources.ClearBackbuffer(int(h.Index()))
	node.injected = types.NullResource()
	if err := node.native.Resize(width, height); err != nil {
		diag.Fatalf("swapchain: resize failed: %v", err)
	}
	node.width, node.height = width, height
	for i := range node.backbuffers {
		node.backbuffers[i].state = types.StatePresent
	}
	node.hasResized = true
}

// ClearResizeFlag returns whether the swapchain resized since the last
// call, clearing the flag.
func (p *Pool) ClearResizeFlag(h types.Swapchain) bool {
	node := p.node(h)
	if !node.hasResized {
		return false
	}
	node.hasResized = false
	return true
}

// Extent returns the current backbuffer extent.
func (p *Pool) Extent(h types.Swapchain) (int32, int32) {
	node := p.node(h)
	return node.width, node.height
}

// NumBackbuffers returns the ring length.
func (p *Pool) NumBackbuffers(h types.Swapchain) uint32 {
	return uint32(len(p.node(h).backbuffers))
}

// Free releases the swapchain, its fences, and its injected resource
// slot. The caller must have flushed the GPU.
func (p *Pool) Free(h types.Swapchain) {
	if !h.Valid() {
		return
	}
	node := p.node(h)
	p.resources.ClearBackbuffer(int(h.Index()))
	for i := range node.backbuffers {
		node.backbuffers[i].fence.Release()
	}
	node.native.Release()

	p.mu.Lock()
	released := p.pool.Release(h)
	p.mu.Unlock()
	if !released {
		diag.Fatalf("swapchain: double free of %v", h)
	}
}

// NumLive returns the number of live swapchains.
func (p *Pool) NumLive() int { return p.pool.Len() }

// Destroy frees remaining swapchains, reporting leaks.
func (p *Pool) Destroy() {
	leaks := 0
	p.pool.ForEach(func(h types.Swapchain, node *Node) bool {
		leaks++
		p.resources.ClearBackbuffer(int(h.Index()))
		for i := range node.backbuffers {
			node.backbuffers[i].fence.Release()
		}
		node.native.Release()
		return true
	})
	if leaks > 0 {
		diag.Logger().Warn("swapchain: leaked handles at pool destroy", "count", leaks)
	}
}
