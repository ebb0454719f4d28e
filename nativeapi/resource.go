// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package nativeapi

import "github.com/embergpu/hal/types"

// ResourceKind distinguishes buffer and image allocations.
type ResourceKind uint8

const (
	KindBuffer ResourceKind = iota
	KindImage
)

// ResourceDesc is the creation input of a committed resource allocation.
type ResourceDesc struct {
	Kind ResourceKind
	Heap types.HeapKind

	// Buffer fields.
	WidthBytes uint64
	Stride     uint32

	// Image fields.
	Format           types.Format
	Width            uint32
	Height           uint32
	DepthOrArraySize uint32
	MipLevels        uint32
	Dimension        types.TextureDimension
	Samples          uint32

	AllowUAV          bool
	AllowRenderTarget bool
	AllowDepthStencil bool

	InitialState types.ResourceState
	DebugName    string
}

// Resource is a native buffer or image allocation.
type Resource interface {
	Kind() ResourceKind
	// GPUVirtualAddress is nonzero for buffers only.
	GPUVirtualAddress() uint64
	// Map returns the persistent CPU mapping of an upload or readback
	// buffer. Mapping a GPU-only resource is a programmer error.
	Map() []byte
	Unmap()
	Release()
}

// AllSubresources is the barrier subresource index meaning "the whole
// resource".
const AllSubresources = ^uint32(0)

// BarrierKind distinguishes transition and UAV barriers.
type BarrierKind uint8

const (
	BarrierTransition BarrierKind = iota
	BarrierUAV
)

// Barrier is one entry of a ResourceBarrier call.
type Barrier struct {
	Kind        BarrierKind
	Resource    Resource
	Before      types.ResourceState
	After       types.ResourceState
	Subresource uint32 // AllSubresources or a single subresource index
}

// TransitionBarrier builds a whole-resource transition barrier.
func TransitionBarrier(res Resource, before, after types.ResourceState) Barrier {
	return Barrier{
		Kind:        BarrierTransition,
		Resource:    res,
		Before:      before,
		After:       after,
		Subresource: AllSubresources,
	}
}

// UAVBarrier builds an unordered-access barrier on res.
func UAVBarrier(res Resource) Barrier {
	return Barrier{Kind: BarrierUAV, Resource: res, Subresource: AllSubresources}
}

// TextureCopyFootprint describes the buffer side of a buffer<->texture
// copy: a linear layout with a row pitch aligned to the native row pitch
// alignment.
type TextureCopyFootprint struct {
	Offset   uint64
	Format   types.Format
	Width    uint32
	Height   uint32
	Depth    uint32
	RowPitch uint32
}

// RowPitchAlignment is the required row pitch alignment of linear texture
// data in buffers.
const RowPitchAlignment = 256

// AlignedRowPitch returns bytesPerRow rounded up to RowPitchAlignment.
func AlignedRowPitch(bytesPerRow uint32) uint32 {
	return (bytesPerRow + RowPitchAlignment - 1) &^ (RowPitchAlignment - 1)
}

// BuildAccelStructDesc is the native acceleration structure build input.
// Exactly one of Geometries (bottom level) or InstanceBufferVA (top
// level) is used.
type BuildAccelStructDesc struct {
	TopLevel bool
	Flags    types.AccelStructBuildFlags

	// Bottom level: the geometry list, with vertex/index buffer VAs
	// already resolved.
	Geometries []GeometryDesc

	// Top level: instance count and the VA of the instance buffer.
	NumInstances     uint32
	InstanceBufferVA uint64

	DestVA    uint64
	ScratchVA uint64
}

// GeometryDesc is one resolved geometry of a bottom-level build.
type GeometryDesc struct {
	VertexBufferVA uint64
	NumVertices    uint32
	VertexStride   uint32
	IndexBufferVA  uint64 // zero for non-indexed
	NumIndices     uint32
	IsOpaque       bool
}

// DispatchRaysDesc addresses the three shader tables of a rays dispatch.
type DispatchRaysDesc struct {
	RayGenVA     uint64
	RayGenSize   uint64
	MissVA       uint64
	MissSize     uint64
	MissStride   uint64
	HitGroupVA   uint64
	HitGroupSize uint64
	HitStride    uint64
	Width        uint32
	Height       uint32
	Depth        uint32
}
