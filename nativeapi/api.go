// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package nativeapi

import "github.com/embergpu/hal/types"

// CPUDescriptor addresses one descriptor slot for CPU-side view creation.
type CPUDescriptor struct {
	Ptr uint64
}

// GPUDescriptor addresses one descriptor slot for GPU-side binding. A
// zero Ptr is the null descriptor.
type GPUDescriptor struct {
	Ptr uint64
}

// Offset returns the descriptor i slots past d.
func (d CPUDescriptor) Offset(i int, descriptorSize uint32) CPUDescriptor {
	return CPUDescriptor{Ptr: d.Ptr + uint64(i)*uint64(descriptorSize)}
}

// Offset returns the descriptor i slots past d.
func (d GPUDescriptor) Offset(i int, descriptorSize uint32) GPUDescriptor {
	return GPUDescriptor{Ptr: d.Ptr + uint64(i)*uint64(descriptorSize)}
}

// DescriptorHeapKind selects one of the four native descriptor heap
// classes.
type DescriptorHeapKind uint8

const (
	HeapSRVUAVCBV DescriptorHeapKind = iota
	HeapSampler
	HeapRTV
	HeapDSV
)

// DescriptorHeap is a contiguous array of descriptor slots.
type DescriptorHeap interface {
	Kind() DescriptorHeapKind
	NumDescriptors() uint32
	DescriptorSize() uint32
	CPUStart() CPUDescriptor
	// GPUStart returns the zero descriptor for non-shader-visible heaps.
	GPUStart() GPUDescriptor
	ShaderVisible() bool
	Release()
}

// Fence is a monotonic 64-bit counter on the native timeline.
type Fence interface {
	// Signal sets the completed value from the CPU.
	Signal(value uint64)
	// CompletedValue returns the last completed value.
	CompletedValue() uint64
	// WaitCPU blocks until the completed value reaches value.
	WaitCPU(value uint64)
	Release()
}

// CommandAllocator owns the backing memory of the command lists recorded
// against it. Reset reclaims that memory; the caller guarantees no list
// recorded against the allocator is still in flight.
type CommandAllocator interface {
	Reset() error
	Release()
}

// Queue is one of the three hardware queues.
type Queue interface {
	Kind() types.QueueKind
	// ExecuteCommandLists submits closed lists in order.
	ExecuteCommandLists(lists []CommandList) error
	// Signal enqueues a fence signal after all prior work on the queue.
	Signal(fence Fence, value uint64) error
	// Wait stalls the queue until fence reaches value.
	Wait(fence Fence, value uint64) error
}

// QueryHeap is a native heap of queries of one kind.
type QueryHeap interface {
	Kind() types.QueryKind
	NumQueries() uint32
	Release()
}

// RootSignature is a materialized shader argument layout.
type RootSignature interface {
	Release()
}

// RootSignatureKind distinguishes the four signature flavors the root
// signature cache can hold.
type RootSignatureKind uint8

const (
	RootSigGraphics RootSignatureKind = iota
	RootSigCompute
	RootSigRaytraceLocal
	RootSigRaytraceGlobal
)

// RootSignatureDesc is the creation input of a root signature: the
// argument shape array plus the root-constant flag — exactly the cache
// key of the root signature cache.
type RootSignatureDesc struct {
	Shapes           []types.ShaderArgumentShape
	HasRootConstants bool
	Kind             RootSignatureKind
}

// PipelineState is a compiled graphics or compute pipeline.
type PipelineState interface {
	Release()
}

// StateObject is a compiled raytracing pipeline. ShaderIdentifier returns
// the 32-byte record identifier of an export or hit group by name.
type StateObject interface {
	ShaderIdentifier(exportName string) (ShaderIdentifier, bool)
	Release()
}

// ShaderIdentifierSize is the fixed byte size of a native shader
// identifier inside a shader table record.
const ShaderIdentifierSize = 32

// ShaderTableAlignment is the required start alignment of each shader
// table, which also serves as the record stride alignment.
const ShaderTableAlignment = 64

// ShaderIdentifier is the opaque per-export identifier written at the
// head of every shader table record.
type ShaderIdentifier [ShaderIdentifierSize]byte

// SwapchainDesc is the creation input of a native swapchain. The window
// handle is platform-specific and opaque to everything above nativeapi.
type SwapchainDesc struct {
	WindowHandle   uintptr
	Width          int32
	Height         int32
	NumBackbuffers uint32
	Mode           types.PresentMode
}

// Swapchain is the native presentation object. The swapchain pool owns
// the backbuffer ring built on top of it.
type Swapchain interface {
	// Backbuffer returns the native image of ring slot i. The returned
	// resource is owned by the swapchain; Release on it is a no-op.
	Backbuffer(i uint32) Resource
	NumBackbuffers() uint32
	// CurrentIndex returns the ring slot the next present targets.
	CurrentIndex() uint32
	Present() error
	// Resize recreates the backbuffers. All references to previous
	// backbuffers must have been dropped.
	Resize(width, height int32) error
	Release()
}

// Device creates every native object class. One Device exists per
// backend; it outlives all pools.
type Device interface {
	CreateResource(desc ResourceDesc) (Resource, error)
	CreateDescriptorHeap(kind DescriptorHeapKind, capacity uint32, shaderVisible bool) (DescriptorHeap, error)
	CreateCommandAllocator(queue types.QueueKind) (CommandAllocator, error)
	// CreateCommandList returns a closed list recorded against alloc; it
	// must be Reset before first use.
	CreateCommandList(queue types.QueueKind, alloc CommandAllocator) (CommandList, error)
	CreateFence(initial uint64) (Fence, error)
	CreateQueryHeap(kind types.QueryKind, capacity uint32) (QueryHeap, error)
	CreateRootSignature(desc RootSignatureDesc) (RootSignature, error)
	CreateGraphicsPipeline(desc types.GraphicsPipelineDesc, rootSig RootSignature) (PipelineState, error)
	CreateComputePipeline(desc types.ComputePipelineDesc, rootSig RootSignature) (PipelineState, error)
	CreateStateObject(desc types.RaytracingPipelineDesc, localRootSigs []RootSignature, globalRootSig RootSignature) (StateObject, error)
	CreateSwapchain(desc SwapchainDesc, queue Queue) (Swapchain, error)

	// View creation fills a descriptor slot in place. A nil view creates
	// the resource's default view (used for swapchain backbuffers).
	CreateShaderResourceView(res Resource, view types.ResourceView, dst CPUDescriptor)
	CreateUnorderedAccessView(res Resource, view types.ResourceView, dst CPUDescriptor)
	CreateRenderTargetView(res Resource, view *types.ResourceView, dst CPUDescriptor)
	CreateDepthStencilView(res Resource, view *types.ResourceView, dst CPUDescriptor)
	CreateSampler(cfg types.SamplerConfig, dst CPUDescriptor)

	Queue(kind types.QueueKind) Queue

	// AccelStructPrebuildSizes returns the result and scratch buffer
	// sizes a build with the given inputs requires.
	AccelStructPrebuildSizes(numGeometriesOrInstances uint32, topLevel bool, flags types.AccelStructBuildFlags) (resultSize, scratchSize uint64)

	Destroy()
}
