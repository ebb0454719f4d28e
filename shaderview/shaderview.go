// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package shaderview owns the shader-visible descriptor heaps and the
// pool of shader views allocated from them. A shader view is an immutable
// bundle of one contiguous SRV+UAV descriptor range and one contiguous
// sampler range; either range may be empty. Descriptors are created in
// place at view creation; partial overwrites are allowed provided the
// caller has flushed all in-flight work using the view.
package shaderview

import (
	"sync"

	"github.com/embergpu/hal/handle"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/pagealloc"
	"github.com/embergpu/hal/resource"
	"github.com/embergpu/hal/types"
)

// descriptorPageSize is the page granularity of both descriptor heaps.
const descriptorPageSize = 8

// pageAllocator manages variable-length descriptor ranges inside one
// shader-visible heap.
type pageAllocator struct {
	heap  nativeapi.DescriptorHeap
	pages *pagealloc.Allocator
}

func newPageAllocator(device nativeapi.Device, kind nativeapi.DescriptorHeapKind, numDescriptors int) pageAllocator {
	heap, err := device.CreateDescriptorHeap(kind, uint32(numDescriptors), true)
	if err != nil {
		diag.Fatalf("shaderview: descriptor heap creation failed: %v", err)
	}
	return pageAllocator{
		heap:  heap,
		pages: pagealloc.New(numDescriptors, descriptorPageSize),
	}
}

// allocate reserves numDescriptors contiguous slots, returning the page
// handle or -1 for an empty request. Overcommit is fatal: heap capacity
// was a configured promise.
func (a *pageAllocator) allocate(numDescriptors int) int {
	if numDescriptors <= 0 {
		return -1
	}
	page := a.pages.Allocate(numDescriptors)
	if page < 0 {
		diag.Fatalf("shaderview: descriptor page allocator overcommitted")
	}
	return page
}

func (a *pageAllocator) free(page int) {
	a.pages.Free(page)
}

func (a *pageAllocator) cpuAt(page, offset int) nativeapi.CPUDescriptor {
	index := page*a.pages.PageSize() + offset
	return a.heap.CPUStart().Offset(index, a.heap.DescriptorSize())
}

func (a *pageAllocator) gpuAt(page int) nativeapi.GPUDescriptor {
	index := page * a.pages.PageSize()
	return a.heap.GPUStart().Offset(index, a.heap.DescriptorSize())
}

// Node is one pooled shader view.
type Node struct {
	// Pre-computed GPU table starts; zero when the range is empty.
	SRVUAVGPU  nativeapi.GPUDescriptor
	SamplerGPU nativeapi.GPUDescriptor

	srvUAVPage  int
	samplerPage int

	numSRVs     int
	numUAVs     int
	numSamplers int

	// Resources referenced by the view, retained for liveness
	// diagnostics.
	Resources []types.Resource
}

// Pool owns the two shader-visible heaps and the shader view nodes.
type Pool struct {
	mu        sync.Mutex
	device    nativeapi.Device
	resources *resource.Pool
	pool      *handle.Pool[Node, types.ShaderViewMarker]

	srvUAV  pageAllocator
	sampler pageAllocator
}

// NewPool creates the pool and its heaps. numSRVsUAVs and numSamplers are
// the heap capacities in descriptors.
func NewPool(device nativeapi.Device, resources *resource.Pool, numShaderViews, numSRVsUAVs, numSamplers int) *Pool {
	return &Pool{
		device:    device,
		resources: resources,
		pool:      handle.NewPool[Node, types.ShaderViewMarker](numShaderViews),
		srvUAV:    newPageAllocator(device, nativeapi.HeapSRVUAVCBV, numSRVsUAVs),
		sampler:   newPageAllocator(device, nativeapi.HeapSampler, numSamplers),
	}
}

// Create builds a shader view from SRV descriptions, UAV descriptions,
// and sampler configs. Any of the three may be empty; a fully empty view
// is valid and binds as null descriptor tables.
func (p *Pool) Create(srvs, uavs []types.ResourceView, samplers []types.SamplerConfig) types.ShaderView {
	p.mu.Lock()
	defer p.mu.Unlock()

	node := Node{
		srvUAVPage:  p.srvUAV.allocate(len(srvs) + len(uavs)),
		samplerPage: p.sampler.allocate(len(samplers)),
		numSRVs:     len(srvs),
		numUAVs:     len(uavs),
		numSamplers: len(samplers),
	}
	if node.srvUAVPage >= 0 {
		node.SRVUAVGPU = p.srvUAV.gpuAt(node.srvUAVPage)
	}
	if node.samplerPage >= 0 {
		node.SamplerGPU = p.sampler.gpuAt(node.samplerPage)
	}

	// SRVs first, then UAVs, contiguously.
	for i, view := range srvs {
		p.writeSRV(&node, i, view)
		node.Resources = append(node.Resources, view.Resource)
	}
	for i, view := range uavs {
		p.writeUAV(&node, i, view)
		node.Resources = append(node.Resources, view.Resource)
	}
	for i, cfg := range samplers {
		p.device.CreateSampler(cfg, p.sampler.cpuAt(node.samplerPage, i))
	}

	h, err := p.pool.Acquire(node)
	if err != nil {
		diag.Fatalf("shaderview: pool exhausted")
	}
	return h
}

func (p *Pool) writeSRV(node *Node, i int, view types.ResourceView) {
	native := p.resources.Node(view.Resource).Native
	p.device.CreateShaderResourceView(native, view, p.srvUAV.cpuAt(node.srvUAVPage, i))
}

func (p *Pool) writeUAV(node *Node, i int, view types.ResourceView) {
	native := p.resources.Node(view.Resource).Native
	p.device.CreateUnorderedAccessView(native, view, p.srvUAV.cpuAt(node.srvUAVPage, node.numSRVs+i))
}

// WriteSRVs overwrites the SRV descriptors starting at offset. The caller
// must have flushed all in-flight work using the view.
func (p *Pool) WriteSRVs(sv types.ShaderView, offset int, views []types.ResourceView) {
	node := p.node(sv)
	diag.Assert(offset+len(views) <= node.numSRVs, "shaderview: SRV write past range (%d+%d > %d)", offset, len(views), node.numSRVs)
	for i, view := range views {
		p.writeSRV(node, offset+i, view)
	}
}

// WriteUAVs overwrites the UAV descriptors starting at offset.
func (p *Pool) WriteUAVs(sv types.ShaderView, offset int, views []types.ResourceView) {
	node := p.node(sv)
	diag.Assert(offset+len(views) <= node.numUAVs, "shaderview: UAV write past range (%d+%d > %d)", offset, len(views), node.numUAVs)
	for i, view := range views {
		p.writeUAV(node, offset+i, view)
	}
}

// WriteSamplers overwrites the sampler descriptors starting at offset.
func (p *Pool) WriteSamplers(sv types.ShaderView, offset int, cfgs []types.SamplerConfig) {
	node := p.node(sv)
	diag.Assert(offset+len(cfgs) <= node.numSamplers, "shaderview: sampler write past range (%d+%d > %d)", offset, len(cfgs), node.numSamplers)
	for i, cfg := range cfgs {
		p.device.CreateSampler(cfg, p.sampler.cpuAt(node.samplerPage, offset+i))
	}
}

// Free releases the view and its descriptor ranges.
func (p *Pool) Free(sv types.ShaderView) {
	if !sv.Valid() {
		return
	}
	node := p.node(sv)
	p.mu.Lock()
	p.srvUAV.free(node.srvUAVPage)
	p.sampler.free(node.samplerPage)
	released := p.pool.Release(sv)
	p.mu.Unlock()
	if !released {
		diag.Fatalf("shaderview: double free of %v", sv)
	}
}

// FreeMany releases a batch of views.
func (p *Pool) FreeMany(svs []types.ShaderView) {
	for _, sv := range svs {
		p.Free(sv)
	}
}

func (p *Pool) node(sv types.ShaderView) *Node {
	node, ok := p.pool.Get(sv)
	if !ok {
		diag.Fatalf("shaderview: invalid handle %v", sv)
	}
	return node
}

// HasSRVsUAVs reports whether the view's SRV+UAV range is non-empty.
func (p *Pool) HasSRVsUAVs(sv types.ShaderView) bool { return p.node(sv).srvUAVPage >= 0 }

// HasSamplers reports whether the view's sampler range is non-empty.
func (p *Pool) HasSamplers(sv types.ShaderView) bool { return p.node(sv).samplerPage >= 0 }

// SRVUAVGPUHandle returns the GPU table start of the SRV+UAV range; the
// zero descriptor when empty.
func (p *Pool) SRVUAVGPUHandle(sv types.ShaderView) nativeapi.GPUDescriptor {
	return p.node(sv).SRVUAVGPU
}

// SamplerGPUHandle returns the GPU table start of the sampler range; the
// zero descriptor when empty.
func (p *Pool) SamplerGPUHandle(sv types.ShaderView) nativeapi.GPUDescriptor {
	return p.node(sv).SamplerGPU
}

// GPUHeaps returns the two shader-visible heaps for SetDescriptorHeaps.
func (p *Pool) GPUHeaps() []nativeapi.DescriptorHeap {
	return []nativeapi.DescriptorHeap{p.srvUAV.heap, p.sampler.heap}
}

// NumLive returns the number of live shader views.
func (p *Pool) NumLive() int { return p.pool.Len() }

// Destroy releases the heaps, reporting leaked views.
func (p *Pool) Destroy() {
	if n := p.pool.Len(); n > 0 {
		diag.Logger().Warn("shaderview: leaked handles at pool destroy", "count", n)
	}
	p.srvUAV.heap.Release()
	p.sampler.heap.Release()
}
