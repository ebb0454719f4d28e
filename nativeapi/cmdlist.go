// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package nativeapi

import "github.com/embergpu/hal/types"

// CommandList is the native recording surface the translator emits into.
// Methods mirror the explicit-API command list one to one; the translator
// is the only caller. Lists cycle closed -> Reset -> recording -> Close.
type CommandList interface {
	// Reset opens the list for recording against alloc.
	Reset(alloc CommandAllocator) error
	// Close finishes recording. A closed list is submittable.
	Close() error

	SetDescriptorHeaps(heaps []DescriptorHeap)
	ResourceBarrier(barriers []Barrier)

	SetPipelineState(pso PipelineState)
	SetStateObject(so StateObject)
	SetPrimitiveTopology(topology types.PrimitiveTopology)
	SetGraphicsRootSignature(sig RootSignature)
	SetComputeRootSignature(sig RootSignature)
	SetGraphicsRootConstants(param uint32, data []byte)
	SetComputeRootConstants(param uint32, data []byte)
	SetGraphicsRootCBV(param uint32, va uint64)
	SetComputeRootCBV(param uint32, va uint64)
	SetGraphicsRootDescriptorTable(param uint32, table GPUDescriptor)
	SetComputeRootDescriptorTable(param uint32, table GPUDescriptor)

	SetViewport(offset types.Offset2D, size types.Viewport)
	SetScissor(rect types.Rect)
	SetRenderTargets(rtvs []CPUDescriptor, dsv *CPUDescriptor)
	ClearRenderTargetView(rtv CPUDescriptor, color [4]float32)
	ClearDepthStencilView(dsv CPUDescriptor, depth float32, stencil uint8, clearStencil bool)

	SetIndexBuffer(va uint64, sizeBytes uint32, is32Bit bool)
	SetVertexBuffer(va uint64, sizeBytes uint32, stride uint32)

	DrawInstanced(vertexCount, startVertex uint32)
	DrawIndexedInstanced(indexCount, startIndex uint32, baseVertex int32)
	ExecuteIndirect(indexed bool, numArguments uint32, argBuffer Resource, argOffset uint64)
	Dispatch(x, y, z uint32)

	CopyBufferRegion(dst Resource, dstOffset uint64, src Resource, srcOffset uint64, numBytes uint64)
	CopyTextureRegion(dst Resource, dstSubresource uint32, src Resource, srcSubresource uint32)
	CopyBufferToTexture(dst Resource, dstSubresource uint32, src Resource, footprint TextureCopyFootprint)
	CopyTextureToBuffer(dst Resource, footprint TextureCopyFootprint, src Resource, srcSubresource uint32)
	ResolveSubresource(dst Resource, dstSubresource uint32, src Resource, srcSubresource uint32, format types.Format)

	EndQuery(heap QueryHeap, kind types.QueryKind, index uint32)
	ResolveQueryData(heap QueryHeap, kind types.QueryKind, startIndex, numQueries uint32, dst Resource, dstOffset uint64)

	BeginEvent(label string)
	EndEvent()

	BuildRaytracingAccelStruct(desc BuildAccelStructDesc)
	DispatchRays(desc DispatchRaysDesc)

	Release()
}
