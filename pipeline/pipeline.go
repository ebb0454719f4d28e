// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package pipeline owns graphics, compute, and raytracing pipeline
// states. Root signatures are derived from argument shapes and
// deduplicated through the rootsig cache; raytracing pipelines live in a
// separate sub-pool whose handles are offset by a fixed index step, so
// "is this a raytracing pipeline" is answerable from the handle alone.
package pipeline

import (
	"sync"

	"github.com/embergpu/hal/handle"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/rootsig"
	"github.com/embergpu/hal/types"
)

// raytracingIndexOffset separates the raytracing handle range from the
// graphics/compute range.
const raytracingIndexOffset = 1_000_000

// ArgumentInfo records the declared argument presence of one shader table
// target, used to verify shader table writes against the pipeline.
type ArgumentInfo struct {
	Shapes        [types.MaxShaderArguments]types.ShaderArgumentShape
	NumShapes     uint8
	HasRootConsts bool
}

func newArgumentInfo(shapes []types.ShaderArgumentShape, hasRootConsts bool) ArgumentInfo {
	info := ArgumentInfo{HasRootConsts: hasRootConsts, NumShapes: uint8(len(shapes))}
	copy(info.Shapes[:], shapes)
	return info
}

// HasCBV reports whether argument slot i declares a CBV.
func (a ArgumentInfo) HasCBV(i int) bool {
	return i < int(a.NumShapes) && a.Shapes[i].HasCBV
}

// HasSRVUAV reports whether argument slot i declares SRVs or UAVs.
func (a ArgumentInfo) HasSRVUAV(i int) bool {
	return i < int(a.NumShapes) && a.Shapes[i].NumSRVs+a.Shapes[i].NumUAVs > 0
}

// HasSampler reports whether argument slot i declares samplers.
func (a ArgumentInfo) HasSampler(i int) bool {
	return i < int(a.NumShapes) && a.Shapes[i].NumSamplers > 0
}

// Node is one graphics or compute pipeline.
type Node struct {
	Native   nativeapi.PipelineState
	RootSig  *rootsig.RootSignature
	Topology types.PrimitiveTopology
	Compute  bool
}

// ShaderExportInfo is one addressable target of a raytracing pipeline: a
// library export or a hit group, with its identifier and declared
// arguments.
type ShaderExportInfo struct {
	Name       string
	Identifier nativeapi.ShaderIdentifier
	ArgInfo    ArgumentInfo
}

// RTNode is one raytracing pipeline.
type RTNode struct {
	Native              nativeapi.StateObject
	RootSigs            []*rootsig.RootSignature
	IdentifiableShaders []ShaderExportInfo
	HitGroups           []ShaderExportInfo
}

// Pool owns both sub-pools and the root signature cache.
type Pool struct {
	mu     sync.Mutex
	device nativeapi.Device
	cache  *rootsig.Cache

	pool   *handle.Pool[Node, types.PipelineStateMarker]
	rtPool *handle.Pool[RTNode, types.PipelineStateMarker]
}

// NewPool creates the pool. The root signature cache is sized to the
// combined pipeline capacity, an upper bound on distinct signatures.
func NewPool(device nativeapi.Device, maxNumPSOs, maxNumRaytracingPSOs int) *Pool {
	return &Pool{
		device: device,
		cache:  rootsig.NewCache(device, maxNumPSOs+maxNumRaytracingPSOs),
		pool:   handle.NewPool[Node, types.PipelineStateMarker](maxNumPSOs),
		rtPool: handle.NewPool[RTNode, types.PipelineStateMarker](maxNumRaytracingPSOs),
	}
}

// CreateGraphics builds a graphics pipeline state. Stages given as WGSL
// source are lowered to the native shading language here.
func (p *Pool) CreateGraphics(desc types.GraphicsPipelineDesc) types.PipelineState {
	if len(desc.Shaders) > 0 {
		shaders := make([]types.GraphicsShaderStage, len(desc.Shaders))
		for i, s := range desc.Shaders {
			s.Binary = resolveBinary(s.Binary)
			shaders[i] = s
		}
		desc.Shaders = shaders
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sig := p.cache.GetOrCreate(desc.ArgumentShapes, desc.HasRootConstants, nativeapi.RootSigGraphics)
	native, err := p.device.CreateGraphicsPipeline(desc, sig.Native)
	if err != nil {
		diag.Fatalf("pipeline: graphics pipeline creation failed: %v", err)
	}

	h, err := p.pool.Acquire(Node{
		Native:   native,
		RootSig:  sig,
		Topology: desc.Config.Topology,
	})
	if err != nil {
		diag.Fatalf("pipeline: pool exhausted")
	}
	return h
}

// CreateCompute builds a compute pipeline state. A shader given as WGSL
// source is lowered to the native shading language here.
func (p *Pool) CreateCompute(desc types.ComputePipelineDesc) types.PipelineState {
	desc.Shader = resolveBinary(desc.Shader)

	p.mu.Lock()
	defer p.mu.Unlock()

	sig := p.cache.GetOrCreate(desc.ArgumentShapes, desc.HasRootConstants, nativeapi.RootSigCompute)
	native, err := p.device.CreateComputePipeline(desc, sig.Native)
	if err != nil {
		diag.Fatalf("pipeline: compute pipeline creation failed: %v", err)
	}

	h, err := p.pool.Acquire(Node{
		Native:  native,
		RootSig: sig,
		Compute: true,
	})
	if err != nil {
		diag.Fatalf("pipeline: pool exhausted")
	}
	return h
}

// CreateRaytracing builds a raytracing state object. Each argument
// association materializes one local root signature; exports without an
// association get the empty argument info.
func (p *Pool) CreateRaytracing(desc types.RaytracingPipelineDesc) types.PipelineState {
	diag.Assert(len(desc.ArgAssociations) <= types.MaxRaytracingArgAssocs,
		"pipeline: %d argument associations exceeds maximum", len(desc.ArgAssociations))

	p.mu.Lock()
	defer p.mu.Unlock()

	node := RTNode{}

	// Local root signatures, one per association, plus the argument info
	// each association grants its target exports.
	argInfoByExport := map[string]ArgumentInfo{}
	for _, assoc := range desc.ArgAssociations {
		sig := p.cache.GetOrCreate(assoc.ArgumentShapes, assoc.HasRootConstants, nativeapi.RootSigRaytraceLocal)
		node.RootSigs = append(node.RootSigs, sig)
		info := newArgumentInfo(assoc.ArgumentShapes, assoc.HasRootConstants)
		for _, export := range assoc.TargetExports {
			argInfoByExport[export] = info
		}
	}

	globalSig := p.cache.GetOrCreate(nil, false, nativeapi.RootSigRaytraceGlobal)
	nativeSigs := make([]nativeapi.RootSignature, len(node.RootSigs))
	for i, sig := range node.RootSigs {
		nativeSigs[i] = sig.Native
	}

	native, err := p.device.CreateStateObject(desc, nativeSigs, globalSig.Native)
	if err != nil {
		diag.Fatalf("pipeline: raytracing state object creation failed: %v", err)
	}
	node.Native = native

	exportInfo := func(name string) ShaderExportInfo {
		id, ok := native.ShaderIdentifier(name)
		if !ok {
			diag.Fatalf("pipeline: state object has no identifier for %q", name)
		}
		return ShaderExportInfo{Name: name, Identifier: id, ArgInfo: argInfoByExport[name]}
	}

	hitGroupExports := map[string]bool{}
	for _, hg := range desc.HitGroups {
		for _, export := range []string{hg.ClosestHitExport, hg.AnyHitExport, hg.IntersectExport} {
			if export != "" {
				hitGroupExports[export] = true
			}
		}
	}
	for _, lib := range desc.Libraries {
		for _, export := range lib.Exports {
			if !hitGroupExports[export] {
				node.IdentifiableShaders = append(node.IdentifiableShaders, exportInfo(export))
			}
		}
	}
	for _, hg := range desc.HitGroups {
		info := exportInfo(hg.Name)
		if hgInfo, ok := argInfoByExport[hg.ClosestHitExport]; ok {
			info.ArgInfo = hgInfo
		}
		node.HitGroups = append(node.HitGroups, info)
	}

	inner, err := p.rtPool.Acquire(node)
	if err != nil {
		diag.Fatalf("pipeline: raytracing pool exhausted")
	}
	return handle.New[types.PipelineStateMarker](inner.Index()+raytracingIndexOffset, inner.Epoch())
}

// IsRaytracing reports whether h lives in the raytracing handle range.
// O(1) on the handle alone.
func (p *Pool) IsRaytracing(h types.PipelineState) bool {
	return h.Valid() && h.Index() >= raytracingIndexOffset
}

func rtInner(h types.PipelineState) types.PipelineState {
	return handle.New[types.PipelineStateMarker](h.Index()-raytracingIndexOffset, h.Epoch())
}

// Get returns the node of a graphics or compute pipeline.
func (p *Pool) Get(h types.PipelineState) *Node {
	diag.Assert(!p.IsRaytracing(h), "pipeline: raytracing handle %v passed to Get", h)
	node, ok := p.pool.Get(h)
	if !ok {
		diag.Fatalf("pipeline: invalid handle %v", h)
	}
	return node
}

// GetRaytracing returns the node of a raytracing pipeline.
func (p *Pool) GetRaytracing(h types.PipelineState) *RTNode {
	diag.Assert(p.IsRaytracing(h), "pipeline: non-raytracing handle %v passed to GetRaytracing", h)
	node, ok := p.rtPool.Get(rtInner(h))
	if !ok {
		diag.Fatalf("pipeline: invalid raytracing handle %v", h)
	}
	return node
}

// Free releases a pipeline of either kind.
func (p *Pool) Free(h types.PipelineState) {
	if !h.Valid() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.IsRaytracing(h) {
		node, ok := p.rtPool.Get(rtInner(h))
		if !ok {
			diag.Fatalf("pipeline: double free of %v", h)
		}
		node.Native.Release()
		p.rtPool.Release(rtInner(h))
		return
	}
	node, ok := p.pool.Get(h)
	if !ok {
		diag.Fatalf("pipeline: double free of %v", h)
	}
	node.Native.Release()
	p.pool.Release(h)
}

// NumLive returns live pipelines across both sub-pools.
func (p *Pool) NumLive() int { return p.pool.Len() + p.rtPool.Len() }

// Destroy releases remaining pipelines and the root signature cache,
// reporting leaks.
func (p *Pool) Destroy() {
	if n := p.NumLive(); n > 0 {
		diag.Logger().Warn("pipeline: leaked handles at pool destroy", "count", n)
	}
	p.pool.ForEach(func(_ types.PipelineState, node *Node) bool {
		node.Native.Release()
		return true
	})
	p.rtPool.ForEach(func(_ types.PipelineState, node *RTNode) bool {
		node.Native.Release()
		return true
	})
	p.cache.Reset()
}
