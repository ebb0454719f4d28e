// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package resource owns every buffer and texture allocation of the
// backend, together with each resource's master state — the state it
// holds on the GPU timeline between command-list boundaries.
//
// Master state reads and writes take no lock: between submission
// boundaries each resource has at most one logical owner (the submitter
// currently stitching barriers for it), and slot memory inside the handle
// pool is stable, so concurrent submits touching disjoint resources never
// interfere. Acquire and release of handles stay serialized by the pool.
//
// Swapchain backbuffers are injected into a reserved prefix of the handle
// space so they transition and bind exactly like ordinary resources. The
// swapchain pool owns their native memory; Free on an injected handle is
// a no-op.
package resource

import (
	"github.com/embergpu/hal/handle"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// Kind distinguishes buffer and image nodes.
type Kind uint8

const (
	KindBuffer Kind = iota
	KindImage
)

// BufferInfo is the buffer-specific metadata of a node.
type BufferInfo struct {
	WidthBytes uint64
	// Stride is the element stride for index/vertex interpretation;
	// 2 or 4 selects 16- or 32-bit indices.
	Stride uint32
	GPUVA  uint64
	// Mapped is non-nil only for upload/readback heaps.
	Mapped []byte
}

// ImageInfo is the image-specific metadata of a node.
type ImageInfo struct {
	PixelFormat    types.Format
	NumMips        uint32
	NumArrayLayers uint32
	Dimension      types.TextureDimension
}

// Node is one pooled resource.
type Node struct {
	Native nativeapi.Resource
	Kind   Kind
	Heap   types.HeapKind

	// MasterState is the resource's state between command-list
	// boundaries. Written without synchronization under the submit
	// protocol's exclusivity guarantee.
	MasterState types.ResourceState

	Buffer BufferInfo
	Image  ImageInfo
}

// Pool owns the resource nodes and the native allocator underneath.
type Pool struct {
	device nativeapi.Device
	pool   *handle.Pool[Node, types.ResourceMarker]

	// Handles of the reserved backbuffer prefix, indexed by swapchain
	// slot. Acquired once at construction, never released by user code.
	backbufferHandles []types.Resource
}

// NewPool creates the pool with capacity for maxNumResources user
// resources plus a reserved backbuffer prefix of maxNumSwapchains slots.
func NewPool(device nativeapi.Device, maxNumResources, maxNumSwapchains int) *Pool {
	p := &Pool{
		device: device,
		pool:   handle.NewPool[Node, types.ResourceMarker](maxNumResources + maxNumSwapchains),
	}
	p.backbufferHandles = make([]types.Resource, maxNumSwapchains)
	for i := range p.backbufferHandles {
		h, err := p.pool.Acquire(Node{})
		if err != nil {
			diag.Fatalf("resource: reserving backbuffer prefix: %v", err)
		}
		p.backbufferHandles[i] = h
	}
	return p
}

// CreateBuffer creates a buffer in the given heap. stride carries the
// element width for index/vertex interpretation and may be zero.
func (p *Pool) CreateBuffer(sizeBytes uint64, stride uint32, heap types.HeapKind, allowUAV bool, debugName string) types.Resource {
	initial := initialBufferState(heap)
	native, err := p.device.CreateResource(nativeapi.ResourceDesc{
		Kind:         nativeapi.KindBuffer,
		Heap:         heap,
		WidthBytes:   sizeBytes,
		Stride:       stride,
		AllowUAV:     allowUAV,
		InitialState: initial,
		DebugName:    debugName,
	})
	if err != nil {
		diag.Fatalf("resource: buffer creation failed: %v", err)
	}

	node := Node{
		Native:      native,
		Kind:        KindBuffer,
		Heap:        heap,
		MasterState: initial,
		Buffer: BufferInfo{
			WidthBytes: sizeBytes,
			Stride:     stride,
			GPUVA:      native.GPUVirtualAddress(),
		},
	}
	if heap != types.HeapGPU {
		node.Buffer.Mapped = native.Map()
	}
	return p.acquire(node, debugName)
}

// CreateMappedBuffer creates an upload-heap buffer with its persistent
// CPU mapping established.
func (p *Pool) CreateMappedBuffer(sizeBytes uint64, stride uint32, debugName string) types.Resource {
	return p.CreateBuffer(sizeBytes, stride, types.HeapUpload, false, debugName)
}

// CreateBufferRaw creates a GPU-heap buffer at an explicit initial state;
// the acceleration structure pool uses it for result/scratch/instance
// buffers.
func (p *Pool) CreateBufferRaw(sizeBytes uint64, stride uint32, allowUAV bool, initial types.ResourceState, debugName string) types.Resource {
	native, err := p.device.CreateResource(nativeapi.ResourceDesc{
		Kind:         nativeapi.KindBuffer,
		Heap:         types.HeapGPU,
		WidthBytes:   sizeBytes,
		Stride:       stride,
		AllowUAV:     allowUAV,
		InitialState: initial,
		DebugName:    debugName,
	})
	if err != nil {
		diag.Fatalf("resource: raw buffer creation failed: %v", err)
	}
	return p.acquire(Node{
		Native:      native,
		Kind:        KindBuffer,
		Heap:        types.HeapGPU,
		MasterState: initial,
		Buffer: BufferInfo{
			WidthBytes: sizeBytes,
			Stride:     stride,
			GPUVA:      native.GPUVirtualAddress(),
		},
	}, debugName)
}

// CreateTexture creates a sampled/storage texture in the GPU heap. The
// initial master state is copy_dest, anticipating the upload that fills
// it.
func (p *Pool) CreateTexture(format types.Format, w, h, mips uint32, dim types.TextureDimension, depthOrArraySize uint32, allowUAV bool, debugName string) types.Resource {
	const initial = types.StateCopyDest
	native, err := p.device.CreateResource(nativeapi.ResourceDesc{
		Kind:             nativeapi.KindImage,
		Heap:             types.HeapGPU,
		Format:           format,
		Width:            w,
		Height:           h,
		MipLevels:        mips,
		Dimension:        dim,
		DepthOrArraySize: depthOrArraySize,
		Samples:          1,
		AllowUAV:         allowUAV,
		InitialState:     initial,
		DebugName:        debugName,
	})
	if err != nil {
		diag.Fatalf("resource: texture creation failed: %v", err)
	}
	return p.acquire(Node{
		Native:      native,
		Kind:        KindImage,
		Heap:        types.HeapGPU,
		MasterState: initial,
		Image: ImageInfo{
			PixelFormat:    format,
			NumMips:        mips,
			NumArrayLayers: arrayLayers(dim, depthOrArraySize),
			Dimension:      dim,
		},
	}, debugName)
}

// CreateRenderTarget creates a render or depth-stencil target.
func (p *Pool) CreateRenderTarget(format types.Format, w, h, samples, arraySize uint32, debugName string) types.Resource {
	initial := types.StateRenderTarget
	if format.IsDepth() {
		initial = types.StateDepthWrite
	}
	native, err := p.device.CreateResource(nativeapi.ResourceDesc{
		Kind:              nativeapi.KindImage,
		Heap:              types.HeapGPU,
		Format:            format,
		Width:             w,
		Height:            h,
		MipLevels:         1,
		Dimension:         types.Texture2D,
		DepthOrArraySize:  arraySize,
		Samples:           samples,
		AllowRenderTarget: !format.IsDepth(),
		AllowDepthStencil: format.IsDepth(),
		InitialState:      initial,
		DebugName:         debugName,
	})
	if err != nil {
		diag.Fatalf("resource: render target creation failed: %v", err)
	}
	return p.acquire(Node{
		Native:      native,
		Kind:        KindImage,
		Heap:        types.HeapGPU,
		MasterState: initial,
		Image: ImageInfo{
			PixelFormat:    format,
			NumMips:        1,
			NumArrayLayers: arraySize,
			Dimension:      types.Texture2D,
		},
	}, debugName)
}

func (p *Pool) acquire(node Node, debugName string) types.Resource {
	h, err := p.pool.Acquire(node)
	if err != nil {
		diag.Fatalf("resource: pool exhausted creating %q", debugName)
	}
	return h
}

// Free releases a resource and its native allocation. Freeing an injected
// backbuffer handle is a no-op; freeing the null handle is a no-op.
func (p *Pool) Free(h types.Resource) {
	if !h.Valid() || p.IsBackbuffer(h) {
		return
	}
	node := p.Node(h)
	node.Native.Release()
	if !p.pool.Release(h) {
		diag.Fatalf("resource: double free of %v", h)
	}
}

// FreeMany releases a batch of handles.
func (p *Pool) FreeMany(hs []types.Resource) {
	for _, h := range hs {
		p.Free(h)
	}
}

// Node returns the stable node pointer for h. An invalid or stale handle
// is a programmer error.
func (p *Pool) Node(h types.Resource) *Node {
	node, ok := p.pool.Get(h)
	if !ok {
		diag.Fatalf("resource: invalid handle %v", h)
	}
	return node
}

// State returns the master state of h.
func (p *Pool) State(h types.Resource) types.ResourceState {
	return p.Node(h).MasterState
}

// SetState writes the master state of h. No synchronization: the submit
// protocol guarantees exclusive ownership of the resource during the
// write.
func (p *Pool) SetState(h types.Resource, s types.ResourceState) {
	p.Node(h).MasterState = s
}

// MapBuffer returns the persistent CPU mapping of an upload or readback
// buffer.
func (p *Pool) MapBuffer(h types.Resource) []byte {
	node := p.Node(h)
	if node.Kind != KindBuffer || node.Buffer.Mapped == nil {
		diag.Fatalf("resource: MapBuffer on unmappable resource %v", h)
	}
	return node.Buffer.Mapped
}

// IsImage reports whether h refers to an image.
func (p *Pool) IsImage(h types.Resource) bool {
	return p.Node(h).Kind == KindImage
}

// InjectBackbuffer fills the reserved prefix slot for swapchainSlot with
// a native backbuffer image and returns its resource handle.
func (p *Pool) InjectBackbuffer(swapchainSlot int, native nativeapi.Resource, state types.ResourceState) types.Resource {
	h := p.backbufferHandles[swapchainSlot]
	node := p.Node(h)
	*node = Node{
		Native:      native,
		Kind:        KindImage,
		Heap:        types.HeapGPU,
		MasterState: state,
		Image: ImageInfo{
			PixelFormat:    types.BackbufferFormat,
			NumMips:        1,
			NumArrayLayers: 1,
			Dimension:      types.Texture2D,
		},
	}
	return h
}

// ClearBackbuffer resets the prefix slot on swapchain resize or teardown.
func (p *Pool) ClearBackbuffer(swapchainSlot int) {
	h := p.backbufferHandles[swapchainSlot]
	*p.Node(h) = Node{}
}

// IsBackbuffer reports whether h lives in the reserved prefix.
func (p *Pool) IsBackbuffer(h types.Resource) bool {
	return int(h.Index()) < len(p.backbufferHandles)
}

// NumLive returns the number of live user resources, excluding the
// reserved prefix.
func (p *Pool) NumLive() int {
	return p.pool.Len() - len(p.backbufferHandles)
}

// Destroy releases every remaining allocation, reporting leaks.
func (p *Pool) Destroy() {
	leaks := 0
	p.pool.ForEach(func(h types.Resource, node *Node) bool {
		if p.IsBackbuffer(h) {
			return true
		}
		leaks++
		if node.Native != nil {
			node.Native.Release()
		}
		return true
	})
	if leaks > 0 {
		diag.Logger().Warn("resource: leaked handles at pool destroy", "count", leaks)
	}
}

func initialBufferState(heap types.HeapKind) types.ResourceState {
	switch heap {
	case types.HeapUpload:
		return types.StateCopySrc
	case types.HeapReadback:
		return types.StateCopyDest
	}
	return types.StateUndefined
}

func arrayLayers(dim types.TextureDimension, depthOrArraySize uint32) uint32 {
	if dim == types.Texture3D {
		return 1
	}
	if depthOrArraySize == 0 {
		return 1
	}
	return depthOrArraySize
}
