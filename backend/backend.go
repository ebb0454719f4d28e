// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package backend assembles the pools and translators into the public
// HAL surface: resource and pipeline creation, command stream recording,
// the three queues with fence synchronization, swapchain presentation,
// and the state-stitching submit protocol.
package backend

import (
	"log/slog"
	"sync"

	"github.com/embergpu/hal/accelstruct"
	"github.com/embergpu/hal/cmdalloc"
	"github.com/embergpu/hal/cmdlist"
	"github.com/embergpu/hal/d3d12sim/nativecall"
	"github.com/embergpu/hal/fence"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/internal/thread"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/pipeline"
	"github.com/embergpu/hal/query"
	"github.com/embergpu/hal/resource"
	"github.com/embergpu/hal/shadertable"
	"github.com/embergpu/hal/shaderview"
	"github.com/embergpu/hal/swapchain"
	"github.com/embergpu/hal/translator"
	"github.com/embergpu/hal/types"
)

// SetLogger configures the logger used by the whole HAL. Pass nil to
// restore the default silent behavior. Safe for concurrent use.
func SetLogger(l *slog.Logger) { diag.SetLogger(l) }

// Logger returns the current HAL logger.
func Logger() *slog.Logger { return diag.Logger() }

// threadComponent is the per-recording-thread state: a translator and
// the three per-queue allocator bundles.
type threadComponent struct {
	translator *translator.Translator
	bundles    cmdalloc.PerThread
}

// Backend is the HAL facade. One per process and device; construct with
// New, tear down with Destroy.
type Backend struct {
	cfg    Config
	device nativeapi.Device

	resources    *resource.Pool
	shaderViews  *shaderview.Pool
	pipelines    *pipeline.Pool
	fences       *fence.Pool
	accelStructs *accelstruct.Pool
	queries      *query.Pool
	cmdLists     *cmdlist.Pool
	swapchains   *swapchain.Pool
	tableCtor    *shadertable.Constructor

	threads          *thread.Association
	threadComponents []threadComponent

	flushMu      sync.Mutex
	flushCounter uint64
	flushFences  [types.NumQueueKinds]nativeapi.Fence
}

// New assembles a backend over the given native device. Pool capacities
// and per-thread allocator budgets come from cfg; all are fixed for the
// backend's lifetime.
func New(cfg Config, device nativeapi.Device) *Backend {
	cfg.normalize()

	b := &Backend{cfg: cfg, device: device}

	b.resources = resource.NewPool(device, cfg.MaxNumResources, cfg.MaxNumSwapchains)
	b.shaderViews = shaderview.NewPool(device, b.resources, cfg.MaxNumCBVs, cfg.MaxNumSRVs+cfg.MaxNumUAVs, cfg.MaxNumSamplers)
	b.pipelines = pipeline.NewPool(device, cfg.MaxNumPipelineStates, cfg.MaxNumRaytracePipelineStates)
	b.fences = fence.NewPool(device, cfg.MaxNumFences)
	b.accelStructs = accelstruct.NewPool(device, b.resources, cfg.MaxNumAccelStructs)
	b.queries = query.NewPool(device, cfg.MaxNumTimestampQueries, cfg.MaxNumOcclusionQueries, cfg.MaxNumPipelineStatsQueries)
	b.tableCtor = shadertable.New(b.shaderViews, b.resources, b.pipelines, b.accelStructs)

	presentQueue := device.Queue(types.QueueDirect)
	if cfg.PresentFromComputeQueue {
		presentQueue = device.Queue(types.QueueCompute)
	}
	b.swapchains = swapchain.NewPool(device, presentQueue, b.resources, cfg.MaxNumSwapchains)

	b.threads = thread.NewAssociation(cfg.NumThreads)
	b.threadComponents = make([]threadComponent, cfg.NumThreads)
	bundlePtrs := make([]*cmdalloc.PerThread, cfg.NumThreads)
	for i := range b.threadComponents {
		b.threadComponents[i].translator = translator.New(device, b.resources, b.shaderViews, b.pipelines, b.accelStructs, b.queries)
		bundlePtrs[i] = &b.threadComponents[i].bundles
	}
	b.cmdLists = cmdlist.NewPool(device,
		[types.NumQueueKinds]int{cfg.NumDirectCmdlistAllocatorsPerThread, cfg.NumComputeCmdlistAllocatorsPerThread, cfg.NumCopyCmdlistAllocatorsPerThread},
		[types.NumQueueKinds]int{cfg.NumDirectCmdlistsPerAllocator, cfg.NumComputeCmdlistsPerAllocator, cfg.NumCopyCmdlistsPerAllocator},
		bundlePtrs)

	for kind := types.QueueKind(0); kind < types.NumQueueKinds; kind++ {
		f, err := device.CreateFence(0)
		if err != nil {
			diag.Fatalf("backend: flush fence creation failed: %v", err)
		}
		b.flushFences[kind] = f
	}

	if cfg.CaptureHooksRequested {
		if err := nativecall.Probe(); err != nil {
			diag.Logger().Warn("backend: capture hooks requested but native runtime unavailable", "err", err)
		} else {
			diag.Logger().Info("backend: native runtime present, captures available")
		}
	}
	diag.Logger().Info("backend: initialized",
		"threads", cfg.NumThreads,
		"max_resources", cfg.MaxNumResources,
		"validation", cfg.Validation)

	return b
}

// threadComponent returns the calling thread's component.
func (b *Backend) threadComponent() *threadComponent {
	idx, ok := b.threads.CurrentIndex()
	if !ok {
		diag.Fatalf("backend: more recording threads than the configured %d", b.threads.NumThreads())
	}
	return &b.threadComponents[idx]
}

// Resource creation.

// CreateBuffer creates a buffer in the given heap; stride carries the
// index/vertex element width and may be zero.
func (b *Backend) CreateBuffer(sizeBytes uint64, stride uint32, heap types.HeapKind, allowUAV bool, debugName string) types.Resource {
	return b.resources.CreateBuffer(sizeBytes, stride, heap, allowUAV, debugName)
}

// CreateMappedBuffer creates an upload-heap buffer with a persistent CPU
// mapping.
func (b *Backend) CreateMappedBuffer(sizeBytes uint64, stride uint32, debugName string) types.Resource {
	return b.resources.CreateMappedBuffer(sizeBytes, stride, debugName)
}

// CreateTexture creates a sampled or storage texture.
func (b *Backend) CreateTexture(format types.Format, w, h, mips uint32, dim types.TextureDimension, depthOrArraySize uint32, allowUAV bool, debugName string) types.Resource {
	return b.resources.CreateTexture(format, w, h, mips, dim, depthOrArraySize, allowUAV, debugName)
}

// CreateRenderTarget creates a render or depth-stencil target.
func (b *Backend) CreateRenderTarget(format types.Format, w, h, samples, arraySize uint32, debugName string) types.Resource {
	return b.resources.CreateRenderTarget(format, w, h, samples, arraySize, debugName)
}

// MapBuffer returns the persistent CPU mapping of an upload or readback
// buffer.
func (b *Backend) MapBuffer(h types.Resource) []byte { return b.resources.MapBuffer(h) }

// FreeResource releases a resource.
func (b *Backend) FreeResource(h types.Resource) { b.resources.Free(h) }

// FreeResources releases a batch of resources.
func (b *Backend) FreeResources(hs []types.Resource) { b.resources.FreeMany(hs) }

// Shader views.

// CreateShaderView builds a shader view from SRVs, UAVs, and samplers.
func (b *Backend) CreateShaderView(srvs, uavs []types.ResourceView, samplers []types.SamplerConfig) types.ShaderView {
	return b.shaderViews.Create(srvs, uavs, samplers)
}

// WriteShaderViewSRVs overwrites SRV descriptors in place; the caller
// must have flushed in-flight use of the view.
func (b *Backend) WriteShaderViewSRVs(sv types.ShaderView, offset int, views []types.ResourceView) {
	b.shaderViews.WriteSRVs(sv, offset, views)
}

// WriteShaderViewUAVs overwrites UAV descriptors in place.
func (b *Backend) WriteShaderViewUAVs(sv types.ShaderView, offset int, views []types.ResourceView) {
	b.shaderViews.WriteUAVs(sv, offset, views)
}

// WriteShaderViewSamplers overwrites sampler descriptors in place.
func (b *Backend) WriteShaderViewSamplers(sv types.ShaderView, offset int, cfgs []types.SamplerConfig) {
	b.shaderViews.WriteSamplers(sv, offset, cfgs)
}

// FreeShaderView releases a shader view.
func (b *Backend) FreeShaderView(sv types.ShaderView) { b.shaderViews.Free(sv) }

// Pipelines.

// CreateGraphicsPipeline builds a graphics pipeline state.
func (b *Backend) CreateGraphicsPipeline(desc types.GraphicsPipelineDesc) types.PipelineState {
	return b.pipelines.CreateGraphics(desc)
}

// CreateComputePipeline builds a compute pipeline state.
func (b *Backend) CreateComputePipeline(desc types.ComputePipelineDesc) types.PipelineState {
	return b.pipelines.CreateCompute(desc)
}

// CreateRaytracingPipeline builds a raytracing state object.
func (b *Backend) CreateRaytracingPipeline(desc types.RaytracingPipelineDesc) types.PipelineState {
	return b.pipelines.CreateRaytracing(desc)
}

// IsRaytracingPipeline reports whether h is a raytracing pipeline.
func (b *Backend) IsRaytracingPipeline(h types.PipelineState) bool {
	return b.pipelines.IsRaytracing(h)
}

// FreePipeline releases a pipeline of either kind.
func (b *Backend) FreePipeline(h types.PipelineState) { b.pipelines.Free(h) }

// Fences.

// CreateFence creates a fence at value zero.
func (b *Backend) CreateFence() types.Fence { return b.fences.Create() }

// FreeFence releases a fence.
func (b *Backend) FreeFence(h types.Fence) { b.fences.Free(h) }

// SignalFenceCPU sets a fence value from the CPU.
func (b *Backend) SignalFenceCPU(h types.Fence, value uint64) { b.fences.SignalCPU(h, value) }

// SignalFenceGPU signals a fence on a queue after all prior work.
func (b *Backend) SignalFenceGPU(h types.Fence, value uint64, queue types.QueueKind) {
	b.fences.SignalGPU(h, value, b.device.Queue(queue))
}

// WaitFenceCPU blocks until the fence reaches value.
func (b *Backend) WaitFenceCPU(h types.Fence, value uint64) { b.fences.WaitCPU(h, value) }

// WaitFenceGPU stalls a queue until the fence reaches value.
func (b *Backend) WaitFenceGPU(h types.Fence, value uint64, queue types.QueueKind) {
	b.fences.WaitGPU(h, value, b.device.Queue(queue))
}

// FenceValue returns a fence's completed value.
func (b *Backend) FenceValue(h types.Fence) uint64 { return b.fences.Value(h) }

// Queries.

// CreateQueryRange allocates a contiguous block of queries of one kind.
func (b *Backend) CreateQueryRange(kind types.QueryKind, size int) types.QueryRange {
	return b.queries.Create(kind, size)
}

// FreeQueryRange releases a query range.
func (b *Backend) FreeQueryRange(h types.QueryRange) { b.queries.Free(h) }

// Acceleration structures.

// CreateBottomLevelAccelStruct builds the buffers of a bottom-level
// structure; the GPU build records through an update_bottom_level
// command.
func (b *Backend) CreateBottomLevelAccelStruct(elements []types.BLASElement, flags types.AccelStructBuildFlags) types.AccelStruct {
	return b.accelStructs.CreateBottomLevel(elements, flags)
}

// CreateTopLevelAccelStruct builds the buffers of a top-level structure.
func (b *Backend) CreateTopLevelAccelStruct(numInstances uint32, flags types.AccelStructBuildFlags) types.AccelStruct {
	return b.accelStructs.CreateTopLevel(numInstances, flags)
}

// UploadTopLevelInstances writes instance records into the structure's
// mapped instance buffer.
func (b *Backend) UploadTopLevelInstances(h types.AccelStruct, instances []types.AccelStructInstance) {
	b.accelStructs.UploadInstances(h, instances)
}

// AccelStructBuffer returns the result buffer resource of h, bindable as
// a raytracing SRV.
func (b *Backend) AccelStructBuffer(h types.AccelStruct) types.Resource {
	return b.accelStructs.ResultBuffer(h)
}

// AccelStructGPUVA returns the raw GPU VA of the result buffer.
func (b *Backend) AccelStructGPUVA(h types.AccelStruct) uint64 {
	return b.accelStructs.Node(h).RawASVA
}

// FreeAccelStruct releases a structure and its buffers.
func (b *Backend) FreeAccelStruct(h types.AccelStruct) { b.accelStructs.Free(h) }

// Shader tables.

// CalculateShaderTableSizes computes record strides and table sizes.
func (b *Backend) CalculateShaderTableSizes(rayGen types.ShaderTableRecord, miss, hitGroups, callable []types.ShaderTableRecord) types.ShaderTableStrides {
	return b.tableCtor.CalculateSizes(rayGen, miss, hitGroups, callable)
}

// WriteShaderTable writes records into dest at the given stride.
func (b *Backend) WriteShaderTable(dest []byte, pso types.PipelineState, stride uint32, records []types.ShaderTableRecord) {
	b.tableCtor.Write(dest, pso, stride, records)
}

// Swapchains.

// CreateSwapchain builds a swapchain on a native window surface.
func (b *Backend) CreateSwapchain(windowHandle uintptr, width, height int32, mode types.PresentMode) types.Swapchain {
	return b.swapchains.Create(windowHandle, width, height, b.cfg.NumBackbuffers, mode)
}

// AcquireBackbuffer waits for the next backbuffer and returns it as a
// resource handle.
func (b *Backend) AcquireBackbuffer(h types.Swapchain) types.Resource {
	return b.swapchains.AcquireBackbuffer(h)
}

// Present presents the acquired backbuffer.
func (b *Backend) Present(h types.Swapchain) { b.swapchains.Present(h) }

// ResizeSwapchain flushes the GPU and recreates the backbuffer ring.
func (b *Backend) ResizeSwapchain(h types.Swapchain, width, height int32) {
	b.FlushGPU()
	b.swapchains.Resize(h, width, height)
}

// ClearResizeFlag returns and clears the swapchain's one-shot resize
// flag.
func (b *Backend) ClearResizeFlag(h types.Swapchain) bool {
	return b.swapchains.ClearResizeFlag(h)
}

// BackbufferFormat returns the fixed backbuffer format.
func (b *Backend) BackbufferFormat() types.Format { return types.BackbufferFormat }

// FreeSwapchain releases a swapchain; the caller must have flushed the
// GPU.
func (b *Backend) FreeSwapchain(h types.Swapchain) { b.swapchains.Free(h) }

// RecordCommandList translates an encoded command stream into a native
// command list on the calling thread, returning its handle for Submit or
// Discard.
func (b *Backend) RecordCommandList(stream []byte, queue types.QueueKind) types.CommandList {
	tc := b.threadComponent()
	h, raw := b.cmdLists.Create(queue, &tc.bundles)
	tc.translator.Translate(raw, queue, b.cmdLists.StateCache(h), stream)
	return h
}

// Discard drops recorded but unsubmitted command lists, keeping their
// allocators' reset accounting correct.
func (b *Backend) Discard(lists []types.CommandList) {
	b.cmdLists.FreeOnDiscard(lists)
}

// FlushGPU blocks until all three queues have drained.
func (b *Backend) FlushGPU() {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.flushCounter++
	for kind := types.QueueKind(0); kind < types.NumQueueKinds; kind++ {
		if err := b.device.Queue(kind).Signal(b.flushFences[kind], b.flushCounter); err != nil {
			diag.Fatalf("backend: flush signal failed on %v: %v", kind, err)
		}
	}
	for kind := types.QueueKind(0); kind < types.NumQueueKinds; kind++ {
		b.flushFences[kind].WaitCPU(b.flushCounter)
	}
}

// Destroy flushes the GPU and tears down every pool, reporting leaked
// handles through the logger.
func (b *Backend) Destroy() {
	b.FlushGPU()

	b.swapchains.Destroy()
	b.cmdLists.Destroy()
	b.accelStructs.Destroy()
	b.queries.Destroy()
	b.fences.Destroy()
	b.pipelines.Destroy()
	b.shaderViews.Destroy()
	b.resources.Destroy()

	for i := range b.threadComponents {
		b.threadComponents[i].translator.Destroy()
		if b.threadComponents[i].bundles.Direct != nil {
			b.threadComponents[i].bundles.Destroy()
		}
	}
	for _, f := range b.flushFences {
		f.Release()
	}
	b.device.Destroy()
}
