// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package d3d12sim

import (
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// Op is one recorded command list call. Concrete op types are exported so
// tests above this package can assert on the exact native sequence a
// translation produced.
type Op any

// Recorded op types, one per CommandList method that emits work.
type (
	OpSetDescriptorHeaps struct{ NumHeaps int }
	OpResourceBarrier    struct{ Barriers []nativeapi.Barrier }
	OpSetPipelineState   struct{ PSO nativeapi.PipelineState }
	OpSetStateObject     struct{ SO nativeapi.StateObject }
	OpSetTopology        struct{ Topology types.PrimitiveTopology }
	OpSetRootSignature   struct {
		Compute bool
		Sig     nativeapi.RootSignature
	}
	OpSetRootConstants struct {
		Compute bool
		Param   uint32
		Data    []byte
	}
	OpSetRootCBV struct {
		Compute bool
		Param   uint32
		VA      uint64
	}
	OpSetRootTable struct {
		Compute bool
		Param   uint32
		Table   nativeapi.GPUDescriptor
	}
	OpSetViewport struct {
		Offset types.Offset2D
		Size   types.Viewport
	}
	OpSetScissor       struct{ Rect types.Rect }
	OpSetRenderTargets struct {
		RTVs []nativeapi.CPUDescriptor
		DSV  *nativeapi.CPUDescriptor
	}
	OpClearRTV struct {
		RTV   nativeapi.CPUDescriptor
		Color [4]float32
	}
	OpClearDSV struct {
		DSV          nativeapi.CPUDescriptor
		Depth        float32
		Stencil      uint8
		ClearStencil bool
	}
	OpSetIndexBuffer struct {
		VA        uint64
		SizeBytes uint32
		Is32Bit   bool
	}
	OpSetVertexBuffer struct {
		VA        uint64
		SizeBytes uint32
		Stride    uint32
	}
	OpDraw struct {
		VertexCount uint32
		StartVertex uint32
	}
	OpDrawIndexed struct {
		IndexCount uint32
		StartIndex uint32
		BaseVertex int32
	}
	OpExecuteIndirect struct {
		Indexed      bool
		NumArguments uint32
		ArgBuffer    nativeapi.Resource
		ArgOffset    uint64
	}
	OpDispatch   struct{ X, Y, Z uint32 }
	OpCopyBuffer struct {
		Dst       nativeapi.Resource
		DstOffset uint64
		Src       nativeapi.Resource
		SrcOffset uint64
		NumBytes  uint64
	}
	OpCopyTexture struct {
		Dst    nativeapi.Resource
		DstSub uint32
		Src    nativeapi.Resource
		SrcSub uint32
	}
	OpCopyBufferToTexture struct {
		Dst       nativeapi.Resource
		DstSub    uint32
		Src       nativeapi.Resource
		Footprint nativeapi.TextureCopyFootprint
	}
	OpCopyTextureToBuffer struct {
		Dst       nativeapi.Resource
		Footprint nativeapi.TextureCopyFootprint
		Src       nativeapi.Resource
		SrcSub    uint32
	}
	OpResolve struct {
		Dst    nativeapi.Resource
		DstSub uint32
		Src    nativeapi.Resource
		SrcSub uint32
		Format types.Format
	}
	OpEndQuery struct {
		Heap  nativeapi.QueryHeap
		Kind  types.QueryKind
		Index uint32
	}
	OpResolveQueryData struct {
		Heap       nativeapi.QueryHeap
		Kind       types.QueryKind
		StartIndex uint32
		NumQueries uint32
		Dst        nativeapi.Resource
		DstOffset  uint64
	}
	OpBeginEvent       struct{ Label string }
	OpEndEvent         struct{}
	OpBuildAccelStruct struct {
		Desc nativeapi.BuildAccelStructDesc
	}
	OpDispatchRays struct{ Desc nativeapi.DispatchRaysDesc }
)

// CommandList implements nativeapi.CommandList by recording ops.
type CommandList struct {
	device *Device
	queue  types.QueueKind

	closed bool
	alloc  *CommandAllocator
	ops    []Op
}

// Ops returns the recorded op sequence of the last recording.
func (c *CommandList) Ops() []Op { return c.ops }

// QueueKind returns the queue kind the list was created for.
func (c *CommandList) QueueKind() types.QueueKind { return c.queue }

func (c *CommandList) record(op Op) {
	if c.closed {
		diag.Fatalf("d3d12sim: record on closed command list")
	}
	c.ops = append(c.ops, op)
}

// Reset opens the list for recording against alloc, discarding the
// previous recording.
func (c *CommandList) Reset(alloc nativeapi.CommandAllocator) error {
	a := alloc.(*CommandAllocator)
	if !c.closed {
		diag.Fatalf("d3d12sim: Reset on open command list")
	}
	c.closed = false
	c.alloc = a
	c.ops = c.ops[:0]
	a.mu.Lock()
	a.inRecording = c
	a.mu.Unlock()
	return nil
}

// Close finishes recording.
func (c *CommandList) Close() error {
	if c.closed {
		diag.Fatalf("d3d12sim: double Close on command list")
	}
	c.closed = true
	return nil
}

func (c *CommandList) SetDescriptorHeaps(heaps []nativeapi.DescriptorHeap) {
	c.record(OpSetDescriptorHeaps{NumHeaps: len(heaps)})
}

func (c *CommandList) ResourceBarrier(barriers []nativeapi.Barrier) {
	cp := make([]nativeapi.Barrier, len(barriers))
	copy(cp, barriers)
	c.record(OpResourceBarrier{Barriers: cp})
}

func (c *CommandList) SetPipelineState(pso nativeapi.PipelineState) {
	c.record(OpSetPipelineState{PSO: pso})
}

func (c *CommandList) SetStateObject(so nativeapi.StateObject) {
	c.record(OpSetStateObject{SO: so})
}

func (c *CommandList) SetPrimitiveTopology(topology types.PrimitiveTopology) {
	c.record(OpSetTopology{Topology: topology})
}

func (c *CommandList) SetGraphicsRootSignature(sig nativeapi.RootSignature) {
	c.record(OpSetRootSignature{Sig: sig})
}

func (c *CommandList) SetComputeRootSignature(sig nativeapi.RootSignature) {
	c.record(OpSetRootSignature{Compute: true, Sig: sig})
}

func (c *CommandList) SetGraphicsRootConstants(param uint32, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	c.record(OpSetRootConstants{Param: param, Data: cp})
}

func (c *CommandList) SetComputeRootConstants(param uint32, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	c.record(OpSetRootConstants{Compute: true, Param: param, Data: cp})
}

func (c *CommandList) SetGraphicsRootCBV(param uint32, va uint64) {
	c.record(OpSetRootCBV{Param: param, VA: va})
}

func (c *CommandList) SetComputeRootCBV(param uint32, va uint64) {
	c.record(OpSetRootCBV{Compute: true, Param: param, VA: va})
}

func (c *CommandList) SetGraphicsRootDescriptorTable(param uint32, table nativeapi.GPUDescriptor) {
	c.record(OpSetRootTable{Param: param, Table: table})
}

func (c *CommandList) SetComputeRootDescriptorTable(param uint32, table nativeapi.GPUDescriptor) {
	c.record(OpSetRootTable{Compute: true, Param: param, Table: table})
}

func (c *CommandList) SetViewport(offset types.Offset2D, size types.Viewport) {
	c.record(OpSetViewport{Offset: offset, Size: size})
}

func (c *CommandList) SetScissor(rect types.Rect) {
	c.record(OpSetScissor{Rect: rect})
}

func (c *CommandList) SetRenderTargets(rtvs []nativeapi.CPUDescriptor, dsv *nativeapi.CPUDescriptor) {
	cp := make([]nativeapi.CPUDescriptor, len(rtvs))
	copy(cp, rtvs)
	var dsvCopy *nativeapi.CPUDescriptor
	if dsv != nil {
		d := *dsv
		dsvCopy = &d
	}
	c.record(OpSetRenderTargets{RTVs: cp, DSV: dsvCopy})
}

func (c *CommandList) ClearRenderTargetView(rtv nativeapi.CPUDescriptor, color [4]float32) {
	c.record(OpClearRTV{RTV: rtv, Color: color})
}

func (c *CommandList) ClearDepthStencilView(dsv nativeapi.CPUDescriptor, depth float32, stencil uint8, clearStencil bool) {
	c.record(OpClearDSV{DSV: dsv, Depth: depth, Stencil: stencil, ClearStencil: clearStencil})
}

func (c *CommandList) SetIndexBuffer(va uint64, sizeBytes uint32, is32Bit bool) {
	c.record(OpSetIndexBuffer{VA: va, SizeBytes: sizeBytes, Is32Bit: is32Bit})
}

func (c *CommandList) SetVertexBuffer(va uint64, sizeBytes uint32, stride uint32) {
	c.record(OpSetVertexBuffer{VA: va, SizeBytes: sizeBytes, Stride: stride})
}

func (c *CommandList) DrawInstanced(vertexCount, startVertex uint32) {
	c.record(OpDraw{VertexCount: vertexCount, StartVertex: startVertex})
}

func (c *CommandList) DrawIndexedInstanced(indexCount, startIndex uint32, baseVertex int32) {
	c.record(OpDrawIndexed{IndexCount: indexCount, StartIndex: startIndex, BaseVertex: baseVertex})
}

func (c *CommandList) ExecuteIndirect(indexed bool, numArguments uint32, argBuffer nativeapi.Resource, argOffset uint64) {
	c.record(OpExecuteIndirect{Indexed: indexed, NumArguments: numArguments, ArgBuffer: argBuffer, ArgOffset: argOffset})
}

func (c *CommandList) Dispatch(x, y, z uint32) {
	c.record(OpDispatch{X: x, Y: y, Z: z})
}

func (c *CommandList) CopyBufferRegion(dst nativeapi.Resource, dstOffset uint64, src nativeapi.Resource, srcOffset uint64, numBytes uint64) {
	c.record(OpCopyBuffer{Dst: dst, DstOffset: dstOffset, Src: src, SrcOffset: srcOffset, NumBytes: numBytes})
}

func (c *CommandList) CopyTextureRegion(dst nativeapi.Resource, dstSubresource uint32, src nativeapi.Resource, srcSubresource uint32) {
	c.record(OpCopyTexture{Dst: dst, DstSub: dstSubresource, Src: src, SrcSub: srcSubresource})
}

func (c *CommandList) CopyBufferToTexture(dst nativeapi.Resource, dstSubresource uint32, src nativeapi.Resource, footprint nativeapi.TextureCopyFootprint) {
	c.record(OpCopyBufferToTexture{Dst: dst, DstSub: dstSubresource, Src: src, Footprint: footprint})
}

func (c *CommandList) CopyTextureToBuffer(dst nativeapi.Resource, footprint nativeapi.TextureCopyFootprint, src nativeapi.Resource, srcSubresource uint32) {
	c.record(OpCopyTextureToBuffer{Dst: dst, Footprint: footprint, Src: src, SrcSub: srcSubresource})
}

func (c *CommandList) ResolveSubresource(dst nativeapi.Resource, dstSubresource uint32, src nativeapi.Resource, srcSubresource uint32, format types.Format) {
	c.record(OpResolve{Dst: dst, DstSub: dstSubresource, Src: src, SrcSub: srcSubresource, Format: format})
}

func (c *CommandList) EndQuery(heap nativeapi.QueryHeap, kind types.QueryKind, index uint32) {
	c.record(OpEndQuery{Heap: heap, Kind: kind, Index: index})
}

func (c *CommandList) ResolveQueryData(heap nativeapi.QueryHeap, kind types.QueryKind, startIndex, numQueries uint32, dst nativeapi.Resource, dstOffset uint64) {
	c.record(OpResolveQueryData{Heap: heap, Kind: kind, StartIndex: startIndex, NumQueries: numQueries, Dst: dst, DstOffset: dstOffset})
}

func (c *CommandList) BeginEvent(label string) {
	c.record(OpBeginEvent{Label: label})
}

func (c *CommandList) EndEvent() {
	c.record(OpEndEvent{})
}

func (c *CommandList) BuildRaytracingAccelStruct(desc nativeapi.BuildAccelStructDesc) {
	c.record(OpBuildAccelStruct{Desc: desc})
}

func (c *CommandList) DispatchRays(desc nativeapi.DispatchRaysDesc) {
	c.record(OpDispatchRays{Desc: desc})
}

// Release frees the list.
func (c *CommandList) Release() {}

var _ nativeapi.CommandList = (*CommandList)(nil)
