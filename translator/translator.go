// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package translator turns encoded command streams into native command
// lists. One Translator exists per recording thread; it owns small
// non-shader-visible descriptor allocators for on-the-fly RTV/DSV
// creation and a bound-state block that suppresses redundant native
// binds. Within one translated list, native commands are emitted in
// encoded order with no reordering.
package translator

import (
	"github.com/embergpu/hal/accelstruct"
	"github.com/embergpu/hal/cmdstream"
	"github.com/embergpu/hal/incomplete"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/pipeline"
	"github.com/embergpu/hal/query"
	"github.com/embergpu/hal/resource"
	"github.com/embergpu/hal/rootsig"
	"github.com/embergpu/hal/shaderview"
	"github.com/embergpu/hal/types"
)

// linearAlloc hands out descriptors front to back and resets after each
// command that used it. CPU-only; RTVs and DSVs created here are consumed
// by the native calls in the same command.
type linearAlloc struct {
	heap nativeapi.DescriptorHeap
	next int
}

func newLinearAlloc(device nativeapi.Device, kind nativeapi.DescriptorHeapKind, capacity int) linearAlloc {
	heap, err := device.CreateDescriptorHeap(kind, uint32(capacity), false)
	if err != nil {
		diag.Fatalf("translator: descriptor heap creation failed: %v", err)
	}
	return linearAlloc{heap: heap}
}

// allocate reserves n slots and returns the first.
func (a *linearAlloc) allocate(n int) nativeapi.CPUDescriptor {
	diag.Assert(a.next+n <= int(a.heap.NumDescriptors()), "translator: linear descriptor allocator exhausted")
	start := a.heap.CPUStart().Offset(a.next, a.heap.DescriptorSize())
	a.next += n
	return start
}

func (a *linearAlloc) at(start nativeapi.CPUDescriptor, i int) nativeapi.CPUDescriptor {
	return start.Offset(i, a.heap.DescriptorSize())
}

func (a *linearAlloc) reset() { a.next = 0 }

// boundArg caches the last-set shader argument of one slot.
type boundArg struct {
	sv        types.ShaderView
	cbv       types.Resource
	cbvOffset uint32
}

func (b *boundArg) reset() {
	b.sv = types.NullShaderView()
	b.cbv = types.NullResource()
	b.cbvOffset = 0
}

// updateShaderView returns true if the slot's shader view changed.
func (b *boundArg) updateShaderView(sv types.ShaderView) bool {
	if b.sv != sv {
		b.sv = sv
		return true
	}
	return false
}

// updateCBV returns true if the slot's CBV or offset changed.
func (b *boundArg) updateCBV(cbv types.Resource, offset uint32) bool {
	if b.cbv != cbv || b.cbvOffset != offset {
		b.cbv = cbv
		b.cbvOffset = offset
		return true
	}
	return false
}

// boundState caches everything re-settable between commands. A pipeline
// change implies a possible root signature change; a root signature
// change invalidates all bound arguments.
type boundState struct {
	pipelineState types.PipelineState
	indexBuffer   types.Resource
	vertexBuffer  types.Resource
	rootSig       *rootsig.RootSignature
	args          [types.MaxShaderArguments]boundArg
}

func (b *boundState) reset() {
	b.pipelineState = types.NullPipelineState()
	b.indexBuffer = types.NullResource()
	b.vertexBuffer = types.NullResource()
	b.setRootSig(nil)
}

func (b *boundState) setRootSig(sig *rootsig.RootSignature) {
	for i := range b.args {
		b.args[i].reset()
	}
	b.rootSig = sig
}

func (b *boundState) updateRootSig(sig *rootsig.RootSignature) bool {
	if b.rootSig != sig {
		b.setRootSig(sig)
		return true
	}
	return false
}

func (b *boundState) updatePSO(pso types.PipelineState) bool {
	if b.pipelineState != pso {
		b.pipelineState = pso
		return true
	}
	return false
}

// Translator consumes command streams for one thread.
type Translator struct {
	device       nativeapi.Device
	resources    *resource.Pool
	shaderViews  *shaderview.Pool
	pipelines    *pipeline.Pool
	accelStructs *accelstruct.Pool
	queries      *query.Pool

	linRTVs linearAlloc
	linDSVs linearAlloc

	list  nativeapi.CommandList
	queue types.QueueKind
	cache *incomplete.StateCache
	bound boundState
}

// New creates a translator bound to the shared pools.
func New(device nativeapi.Device, resources *resource.Pool, shaderViews *shaderview.Pool, pipelines *pipeline.Pool, accelStructs *accelstruct.Pool, queries *query.Pool) *Translator {
	return &Translator{
		device:       device,
		resources:    resources,
		shaderViews:  shaderViews,
		pipelines:    pipelines,
		accelStructs: accelStructs,
		queries:      queries,
		linRTVs:      newLinearAlloc(device, nativeapi.HeapRTV, types.MaxRenderTargets),
		linDSVs:      newLinearAlloc(device, nativeapi.HeapDSV, types.MaxRenderTargets),
	}
}

// Destroy releases the translator's descriptor heaps.
func (t *Translator) Destroy() {
	t.linRTVs.heap.Release()
	t.linDSVs.heap.Release()
}

// Translate decodes buf into list. The list must be open for recording;
// it is closed before return. cache receives the list's incomplete state.
func (t *Translator) Translate(list nativeapi.CommandList, kind types.QueueKind, cache *incomplete.StateCache, buf []byte) {
	t.list = list
	t.queue = kind
	t.cache = cache

	t.bound.reset()
	t.cache.Reset()

	list.SetDescriptorHeaps(t.shaderViews.GPUHeaps())

	r := cmdstream.NewReader(buf)
	for r.More() {
		switch r.PeekType() {
		case cmdstream.CmdDraw:
			t.execDraw(cmdstream.ReadAs[cmdstream.Draw](r))
		case cmdstream.CmdDrawIndirect:
			t.execDrawIndirect(cmdstream.ReadAs[cmdstream.DrawIndirect](r))
		case cmdstream.CmdDispatch:
			t.execDispatch(cmdstream.ReadAs[cmdstream.Dispatch](r))
		case cmdstream.CmdTransitionResources:
			t.execTransitionResources(cmdstream.ReadAs[cmdstream.TransitionResources](r))
		case cmdstream.CmdBarrierUAV:
			t.execBarrierUAV(cmdstream.ReadAs[cmdstream.BarrierUAV](r))
		case cmdstream.CmdTransitionImageSlices:
			t.execTransitionImageSlices(cmdstream.ReadAs[cmdstream.TransitionImageSlices](r))
		case cmdstream.CmdCopyBuffer:
			t.execCopyBuffer(cmdstream.ReadAs[cmdstream.CopyBuffer](r))
		case cmdstream.CmdCopyTexture:
			t.execCopyTexture(cmdstream.ReadAs[cmdstream.CopyTexture](r))
		case cmdstream.CmdCopyBufferToTexture:
			t.execCopyBufferToTexture(cmdstream.ReadAs[cmdstream.CopyBufferToTexture](r))
		case cmdstream.CmdCopyTextureToBuffer:
			t.execCopyTextureToBuffer(cmdstream.ReadAs[cmdstream.CopyTextureToBuffer](r))
		case cmdstream.CmdResolveTexture:
			t.execResolveTexture(cmdstream.ReadAs[cmdstream.ResolveTexture](r))
		case cmdstream.CmdBeginRenderPass:
			t.execBeginRenderPass(cmdstream.ReadAs[cmdstream.BeginRenderPass](r))
		case cmdstream.CmdEndRenderPass:
			cmdstream.ReadAs[cmdstream.EndRenderPass](r)
		case cmdstream.CmdWriteTimestamp:
			t.execWriteTimestamp(cmdstream.ReadAs[cmdstream.WriteTimestamp](r))
		case cmdstream.CmdResolveQueries:
			t.execResolveQueries(cmdstream.ReadAs[cmdstream.ResolveQueries](r))
		case cmdstream.CmdBeginDebugLabel:
			t.list.BeginEvent(cmdstream.ReadAs[cmdstream.BeginDebugLabel](r).Text.String())
		case cmdstream.CmdEndDebugLabel:
			cmdstream.ReadAs[cmdstream.EndDebugLabel](r)
			t.list.EndEvent()
		case cmdstream.CmdUpdateBottomLevel:
			t.execUpdateBottomLevel(cmdstream.ReadAs[cmdstream.UpdateBottomLevel](r))
		case cmdstream.CmdUpdateTopLevel:
			t.execUpdateTopLevel(cmdstream.ReadAs[cmdstream.UpdateTopLevel](r))
		case cmdstream.CmdDispatchRays:
			t.execDispatchRays(cmdstream.ReadAs[cmdstream.DispatchRays](r))
		case cmdstream.CmdClearTextures:
			t.execClearTextures(cmdstream.ReadAs[cmdstream.ClearTextures](r))
		case cmdstream.CmdCodeLocationMarker:
			marker := cmdstream.ReadAs[cmdstream.CodeLocationMarker](r)
			diag.Logger().Debug("translator: code location", "file", marker.File.String(), "line", marker.Line)
		case cmdstream.CmdBeginProfileScope:
			t.list.BeginEvent(cmdstream.ReadAs[cmdstream.BeginProfileScope](r).Name.String())
		case cmdstream.CmdEndProfileScope:
			cmdstream.ReadAs[cmdstream.EndProfileScope](r)
			t.list.EndEvent()
		}
	}

	if err := list.Close(); err != nil {
		diag.Fatalf("translator: list close failed: %v", err)
	}
}

func (t *Translator) assertDirectQueue(what string) {
	diag.Assert(t.queue == types.QueueDirect, "translator: %s is only valid on the direct queue, got %v", what, t.queue)
}

// bindShaderArguments applies update-aware binding of CBVs and
// descriptor tables against the current root signature.
func (t *Translator) bindShaderArguments(sig *rootsig.RootSignature, args *cmdstream.ShaderArguments, rootConstants []byte, compute bool) {
	if sig.HasRootConstants() {
		param := sig.ArgumentMaps[0].RootConstParam
		if compute {
			t.list.SetComputeRootConstants(param, rootConstants)
		} else {
			t.list.SetGraphicsRootConstants(param, rootConstants)
		}
	}

	n := int(args.Count)
	if n > len(sig.ArgumentMaps) {
		n = len(sig.ArgumentMaps)
	}
	for i := 0; i < n; i++ {
		bound := &t.bound.args[i]
		arg := args.Args[i]
		m := sig.ArgumentMaps[i]

		if m.CBVParam != rootsig.NoParam {
			if bound.updateCBV(arg.ConstantBuffer, arg.ConstantBufferOffset) {
				va := t.resources.Node(arg.ConstantBuffer).Buffer.GPUVA + uint64(arg.ConstantBufferOffset)
				if compute {
					t.list.SetComputeRootCBV(m.CBVParam, va)
				} else {
					t.list.SetGraphicsRootCBV(m.CBVParam, va)
				}
			}
		}

		if bound.updateShaderView(arg.ShaderView) {
			if m.SRVUAVTableParam != rootsig.NoParam {
				table := t.shaderViews.SRVUAVGPUHandle(arg.ShaderView)
				if compute {
					t.list.SetComputeRootDescriptorTable(m.SRVUAVTableParam, table)
				} else {
					t.list.SetGraphicsRootDescriptorTable(m.SRVUAVTableParam, table)
				}
			}
			if m.SamplerTableParam != rootsig.NoParam {
				table := t.shaderViews.SamplerGPUHandle(arg.ShaderView)
				if compute {
					t.list.SetComputeRootDescriptorTable(m.SamplerTableParam, table)
				} else {
					t.list.SetGraphicsRootDescriptorTable(m.SamplerTableParam, table)
				}
			}
		}
	}
}

// bindGraphicsPipeline applies PSO, root signature, and IB/VB binds for a
// draw-class command.
func (t *Translator) bindGraphicsPipeline(pso types.PipelineState, indexBuffer, vertexBuffer types.Resource) *pipeline.Node {
	node := t.pipelines.Get(pso)

	if t.bound.updatePSO(pso) {
		t.list.SetPipelineState(node.Native)
		t.list.SetPrimitiveTopology(node.Topology)
	}
	if t.bound.updateRootSig(node.RootSig) {
		t.list.SetGraphicsRootSignature(node.RootSig.Native)
	}

	if indexBuffer != t.bound.indexBuffer {
		t.bound.indexBuffer = indexBuffer
		if indexBuffer.Valid() {
			info := t.resources.Node(indexBuffer).Buffer
			t.list.SetIndexBuffer(info.GPUVA, uint32(info.WidthBytes), info.Stride == 4)
		}
	}
	if vertexBuffer != t.bound.vertexBuffer {
		t.bound.vertexBuffer = vertexBuffer
		if vertexBuffer.Valid() {
			info := t.resources.Node(vertexBuffer).Buffer
			t.list.SetVertexBuffer(info.GPUVA, uint32(info.WidthBytes), info.Stride)
		}
	}
	return node
}

func (t *Translator) execDraw(cmd *cmdstream.Draw) {
	t.assertDirectQueue("draw")
	node := t.bindGraphicsPipeline(cmd.PipelineState, cmd.IndexBuffer, cmd.VertexBuffer)
	t.bindShaderArguments(node.RootSig, &cmd.Arguments, cmd.RootConstants[:], false)

	if cmd.Scissor.MinX != -1 {
		t.list.SetScissor(cmd.Scissor)
	}

	if cmd.IndexBuffer.Valid() {
		t.list.DrawIndexedInstanced(cmd.NumIndices, cmd.IndexOffset, cmd.VertexOffset)
	} else {
		t.list.DrawInstanced(cmd.NumIndices, uint32(cmd.VertexOffset))
	}
}

func (t *Translator) execDrawIndirect(cmd *cmdstream.DrawIndirect) {
	t.assertDirectQueue("draw_indirect")
	node := t.bindGraphicsPipeline(cmd.PipelineState, cmd.IndexBuffer, cmd.VertexBuffer)
	t.bindShaderArguments(node.RootSig, &cmd.Arguments, cmd.RootConstants[:], false)

	argBuffer := t.resources.Node(cmd.ArgumentBuffer).Native
	t.list.ExecuteIndirect(cmd.IndexBuffer.Valid(), cmd.NumArguments, argBuffer, cmd.ArgumentBufferOffset)
}

func (t *Translator) execDispatch(cmd *cmdstream.Dispatch) {
	node := t.pipelines.Get(cmd.PipelineState)

	if t.bound.updatePSO(cmd.PipelineState) {
		t.list.SetPipelineState(node.Native)
	}
	if t.bound.updateRootSig(node.RootSig) {
		t.list.SetComputeRootSignature(node.RootSig.Native)
	}
	t.bindShaderArguments(node.RootSig, &cmd.Arguments, cmd.RootConstants[:], true)

	t.list.Dispatch(cmd.X, cmd.Y, cmd.Z)
}

func (t *Translator) execTransitionResources(cmd *cmdstream.TransitionResources) {
	var barriers [types.MaxResourceTransitions]nativeapi.Barrier
	count := 0

	for _, transition := range cmd.Transitions[:cmd.Count] {
		after := transition.TargetState
		before, known := t.cache.Transition(transition.Resource, after, transition.Stages)

		if known && before != after {
			// Neither the implicit initial transition nor redundant.
			barriers[count] = nativeapi.TransitionBarrier(
				t.resources.Node(transition.Resource).Native, before, after)
			count++
		}
	}

	if count > 0 {
		t.list.ResourceBarrier(barriers[:count])
	}
}

func (t *Translator) execBarrierUAV(cmd *cmdstream.BarrierUAV) {
	var barriers [types.MaxResourceTransitions]nativeapi.Barrier
	for i, res := range cmd.Resources[:cmd.Count] {
		barriers[i] = nativeapi.UAVBarrier(t.resources.Node(res).Native)
	}
	if cmd.Count > 0 {
		t.list.ResourceBarrier(barriers[:cmd.Count])
	}
}

func (t *Translator) execTransitionImageSlices(cmd *cmdstream.TransitionImageSlices) {
	// Slice transitions are fully explicit and bypass the state cache:
	// the master state tracks whole resources only.
	var barriers [types.MaxResourceTransitions]nativeapi.Barrier
	for i, transition := range cmd.Slices[:cmd.Count] {
		node := t.resources.Node(transition.Resource)
		diag.Assert(node.Kind == resource.KindImage, "translator: slice transition on non-image %v", transition.Resource)
		b := nativeapi.TransitionBarrier(node.Native, transition.SourceState, transition.TargetState)
		b.Subresource = transition.MipLevel + transition.ArraySlice*node.Image.NumMips
		barriers[i] = b
	}
	if cmd.Count > 0 {
		t.list.ResourceBarrier(barriers[:cmd.Count])
	}
}

func (t *Translator) execCopyBuffer(cmd *cmdstream.CopyBuffer) {
	t.list.CopyBufferRegion(
		t.resources.Node(cmd.Destination).Native, cmd.DestOffset,
		t.resources.Node(cmd.Source).Native, cmd.SrcOffset, cmd.Size)
}

func (t *Translator) execCopyTexture(cmd *cmdstream.CopyTexture) {
	srcInfo := t.resources.Node(cmd.Source).Image
	destInfo := t.resources.Node(cmd.Destination).Image

	for layer := uint32(0); layer < cmd.NumArraySlices; layer++ {
		srcSub := cmd.SrcMipIndex + (cmd.SrcArrayIndex+layer)*srcInfo.NumMips
		destSub := cmd.DestMipIndex + (cmd.DestArrayIndex+layer)*destInfo.NumMips
		t.list.CopyTextureRegion(
			t.resources.Node(cmd.Destination).Native, destSub,
			t.resources.Node(cmd.Source).Native, srcSub)
	}
}

func (t *Translator) execCopyBufferToTexture(cmd *cmdstream.CopyBufferToTexture) {
	destInfo := t.resources.Node(cmd.Destination).Image
	footprint := nativeapi.TextureCopyFootprint{
		Offset:   cmd.SourceOffset,
		Format:   destInfo.PixelFormat,
		Width:    cmd.DestWidth,
		Height:   cmd.DestHeight,
		Depth:    1,
		RowPitch: nativeapi.AlignedRowPitch(destInfo.PixelFormat.SizeBytes() * cmd.DestWidth),
	}
	destSub := cmd.DestMipIndex + cmd.DestArrayIndex*destInfo.NumMips
	t.list.CopyBufferToTexture(
		t.resources.Node(cmd.Destination).Native, destSub,
		t.resources.Node(cmd.Source).Native, footprint)
}

func (t *Translator) execCopyTextureToBuffer(cmd *cmdstream.CopyTextureToBuffer) {
	srcInfo := t.resources.Node(cmd.Source).Image
	footprint := nativeapi.TextureCopyFootprint{
		Offset:   cmd.DestOffset,
		Format:   srcInfo.PixelFormat,
		Width:    cmd.SrcWidth,
		Height:   cmd.SrcHeight,
		Depth:    1,
		RowPitch: nativeapi.AlignedRowPitch(srcInfo.PixelFormat.SizeBytes() * cmd.SrcWidth),
	}
	srcSub := cmd.SrcMipIndex + cmd.SrcArrayIndex*srcInfo.NumMips
	t.list.CopyTextureToBuffer(
		t.resources.Node(cmd.Destination).Native, footprint,
		t.resources.Node(cmd.Source).Native, srcSub)
}

func (t *Translator) execResolveTexture(cmd *cmdstream.ResolveTexture) {
	srcInfo := t.resources.Node(cmd.Source).Image
	destInfo := t.resources.Node(cmd.Destination).Image
	srcSub := cmd.SrcMipIndex + cmd.SrcArrayIndex*srcInfo.NumMips
	destSub := cmd.DestMipIndex + cmd.DestArrayIndex*destInfo.NumMips
	t.list.ResolveSubresource(
		t.resources.Node(cmd.Destination).Native, destSub,
		t.resources.Node(cmd.Source).Native, srcSub,
		destInfo.PixelFormat)
}

func (t *Translator) execBeginRenderPass(cmd *cmdstream.BeginRenderPass) {
	t.assertDirectQueue("begin_render_pass")

	t.list.SetViewport(cmd.ViewportOffset, cmd.Viewport)
	// Scissor defaults to exactly the viewport.
	t.list.SetScissor(types.Rect{
		MinX: 0, MinY: 0,
		MaxX: cmd.Viewport.Width + cmd.ViewportOffset.X,
		MaxY: cmd.Viewport.Height + cmd.ViewportOffset.Y,
	})

	numRTs := int(cmd.Count)
	var rtvs []nativeapi.CPUDescriptor
	if numRTs > 0 {
		start := t.linRTVs.allocate(numRTs)
		rtvs = make([]nativeapi.CPUDescriptor, numRTs)
		for i := 0; i < numRTs; i++ {
			rt := &cmd.RenderTargets[i]
			rtv := t.linRTVs.at(start, i)
			rtvs[i] = rtv
			t.createRTV(rt.View, rtv)
			if rt.Clear == types.ClearOpClear {
				t.list.ClearRenderTargetView(rtv, rt.ClearValue)
			}
		}
	}

	var dsv *nativeapi.CPUDescriptor
	if cmd.DepthTarget.View.Resource.Valid() {
		d := t.linDSVs.allocate(1)
		view := cmd.DepthTarget.View
		t.device.CreateDepthStencilView(t.resources.Node(view.Resource).Native, &view, d)
		if cmd.DepthTarget.Clear == types.ClearOpClear {
			t.list.ClearDepthStencilView(d, cmd.DepthTarget.ClearValueDepth, cmd.DepthTarget.ClearValueStencil, view.PixelFormat.HasStencil())
		}
		dsv = &d
	}

	t.list.SetRenderTargets(rtvs, dsv)

	t.linRTVs.reset()
	t.linDSVs.reset()
}

// createRTV creates a render target view in place, using the default view
// for backbuffers.
func (t *Translator) createRTV(view types.ResourceView, dst nativeapi.CPUDescriptor) {
	native := t.resources.Node(view.Resource).Native
	if t.resources.IsBackbuffer(view.Resource) {
		t.device.CreateRenderTargetView(native, nil, dst)
	} else {
		t.device.CreateRenderTargetView(native, &view, dst)
	}
}

func (t *Translator) execWriteTimestamp(cmd *cmdstream.WriteTimestamp) {
	heap, index := t.queries.QueryTyped(cmd.QueryRange, types.QueryTimestamp, int(cmd.Index))
	t.list.EndQuery(heap, types.QueryTimestamp, index)
}

func (t *Translator) execResolveQueries(cmd *cmdstream.ResolveQueries) {
	heap, kind, index := t.queries.Query(cmd.SrcQueryRange, int(cmd.QueryStart))
	t.list.ResolveQueryData(heap, kind, index, cmd.NumQueries,
		t.resources.Node(cmd.DestBuffer).Native, cmd.DestOffset)
}

func (t *Translator) execUpdateBottomLevel(cmd *cmdstream.UpdateBottomLevel) {
	node := t.accelStructs.Node(cmd.Dest)
	resultBuffer := t.resources.Node(node.BufferAS)

	t.list.BuildRaytracingAccelStruct(nativeapi.BuildAccelStructDesc{
		TopLevel:   false,
		Flags:      node.Flags,
		Geometries: node.Geometries,
		DestVA:     node.RawASVA,
		ScratchVA:  t.resources.Node(node.BufferScratch).Buffer.GPUVA,
	})
	t.list.ResourceBarrier([]nativeapi.Barrier{nativeapi.UAVBarrier(resultBuffer.Native)})
}

func (t *Translator) execUpdateTopLevel(cmd *cmdstream.UpdateTopLevel) {
	node := t.accelStructs.Node(cmd.Dest)
	resultBuffer := t.resources.Node(node.BufferAS)

	t.list.BuildRaytracingAccelStruct(nativeapi.BuildAccelStructDesc{
		TopLevel:         true,
		Flags:            node.Flags,
		NumInstances:     cmd.NumInstances,
		InstanceBufferVA: t.resources.Node(node.BufferInstances).Buffer.GPUVA,
		DestVA:           node.RawASVA,
		ScratchVA:        t.resources.Node(node.BufferScratch).Buffer.GPUVA,
	})
	t.list.ResourceBarrier([]nativeapi.Barrier{nativeapi.UAVBarrier(resultBuffer.Native)})
}

func (t *Translator) execDispatchRays(cmd *cmdstream.DispatchRays) {
	rtNode := t.pipelines.GetRaytracing(cmd.PipelineState)
	if t.bound.updatePSO(cmd.PipelineState) {
		t.list.SetStateObject(rtNode.Native)
	}

	rayGen := t.resources.Node(cmd.TableRayGen).Buffer
	miss := t.resources.Node(cmd.TableMiss).Buffer
	hit := t.resources.Node(cmd.TableHitGroups).Buffer

	t.list.DispatchRays(nativeapi.DispatchRaysDesc{
		RayGenVA:     rayGen.GPUVA,
		RayGenSize:   rayGen.WidthBytes,
		MissVA:       miss.GPUVA,
		MissSize:     miss.WidthBytes,
		MissStride:   uint64(miss.Stride),
		HitGroupVA:   hit.GPUVA,
		HitGroupSize: hit.WidthBytes,
		HitStride:    uint64(hit.Stride),
		Width:        cmd.Width,
		Height:       cmd.Height,
		Depth:        cmd.Depth,
	})
}

func (t *Translator) execClearTextures(cmd *cmdstream.ClearTextures) {
	n := int(cmd.Count)
	if n == 0 {
		return
	}
	rtvStart := t.linRTVs.allocate(n)
	dsvStart := t.linDSVs.allocate(n)

	for i := 0; i < n; i++ {
		op := &cmd.Ops[i]
		if op.View.PixelFormat.IsDepth() {
			dsv := t.linDSVs.at(dsvStart, i)
			view := op.View
			t.device.CreateDepthStencilView(t.resources.Node(view.Resource).Native, &view, dsv)
			t.list.ClearDepthStencilView(dsv,
				float32(op.Value.RedOrDepth)/255.0, op.Value.GreenOrStencil,
				view.PixelFormat.HasStencil())
		} else {
			rtv := t.linRTVs.at(rtvStart, i)
			t.createRTV(op.View, rtv)
			t.list.ClearRenderTargetView(rtv, [4]float32{
				float32(op.Value.RedOrDepth) / 255.0,
				float32(op.Value.GreenOrStencil) / 255.0,
				float32(op.Value.Blue) / 255.0,
				float32(op.Value.Alpha) / 255.0,
			})
		}
	}

	t.linRTVs.reset()
	t.linDSVs.reset()
}
