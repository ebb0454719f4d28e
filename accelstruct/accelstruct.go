// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package accelstruct pools raytracing acceleration structures. Each node
// is a buffer triplet drawn from the resource pool: the result buffer,
// the build scratch buffer, and — for top-level structures — a CPU-mapped
// instance buffer updated through UploadInstances.
package accelstruct

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/embergpu/hal/handle"
	"github.com/embergpu/hal/internal/diag"
	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/resource"
	"github.com/embergpu/hal/types"
)

// instanceRecordSize is the native instance desc size in the instance
// buffer.
const instanceRecordSize = 64

// Node is one acceleration structure.
type Node struct {
	// RawASVA is the GPU VA of the result buffer, referenced by
	// top-level instances and dispatch tables.
	RawASVA uint64

	BufferAS        types.Resource
	BufferScratch   types.Resource
	BufferInstances types.Resource // null for bottom level

	// InstancesMapped is the persistent CPU mapping of the instance
	// buffer; nil for bottom level.
	InstancesMapped []byte

	Flags types.AccelStructBuildFlags

	// Geometries holds the resolved build inputs of a bottom-level
	// structure, consumed by the translator at build time.
	Geometries []nativeapi.GeometryDesc

	NumInstances uint32
}

// Pool owns the acceleration structure nodes.
type Pool struct {
	mu        sync.Mutex
	device    nativeapi.Device
	resources *resource.Pool
	pool      *handle.Pool[Node, types.AccelStructMarker]
}

// NewPool creates the pool.
func NewPool(device nativeapi.Device, resources *resource.Pool, maxNumAccelStructs int) *Pool {
	return &Pool{
		device:    device,
		resources: resources,
		pool:      handle.NewPool[Node, types.AccelStructMarker](maxNumAccelStructs),
	}
}

// CreateBottomLevel builds the buffer pair for a bottom-level structure
// over the given geometry. The actual GPU build is recorded later via an
// update_bottom_level command.
func (p *Pool) CreateBottomLevel(elements []types.BLASElement, flags types.AccelStructBuildFlags) types.AccelStruct {
	geometries := make([]nativeapi.GeometryDesc, len(elements))
	for i, el := range elements {
		g := nativeapi.GeometryDesc{
			VertexBufferVA: p.resources.Node(el.VertexBuffer).Buffer.GPUVA + uint64(el.VertexOffset)*uint64(el.VertexStride),
			NumVertices:    el.NumVertices,
			VertexStride:   el.VertexStride,
			IsOpaque:       el.IsOpaque,
		}
		if el.IndexBuffer.Valid() {
			ibNode := p.resources.Node(el.IndexBuffer)
			g.IndexBufferVA = ibNode.Buffer.GPUVA + uint64(el.IndexOffset)*uint64(ibNode.Buffer.Stride)
			g.NumIndices = el.NumIndices
		}
		geometries[i] = g
	}

	resultSize, scratchSize := p.device.AccelStructPrebuildSizes(uint32(len(elements)), false, flags)
	node := Node{
		BufferInstances: types.NullResource(),
		Flags:           flags,
		Geometries:      geometries,
	}
	node.BufferAS = p.resources.CreateBufferRaw(resultSize, 0, true, types.StateRaytraceAccelStruct, "blas result")
	node.BufferScratch = p.resources.CreateBufferRaw(scratchSize, 0, true, types.StateUnorderedAccess, "blas scratch")
	node.RawASVA = p.resources.Node(node.BufferAS).Buffer.GPUVA

	return p.acquire(node)
}

// CreateTopLevel builds the buffer triplet for a top-level structure over
// numInstances instances.
func (p *Pool) CreateTopLevel(numInstances uint32, flags types.AccelStructBuildFlags) types.AccelStruct {
	resultSize, scratchSize := p.device.AccelStructPrebuildSizes(numInstances, true, flags)
	node := Node{
		Flags:        flags,
		NumInstances: numInstances,
	}
	node.BufferAS = p.resources.CreateBufferRaw(resultSize, 0, true, types.StateRaytraceAccelStruct, "tlas result")
	node.BufferScratch = p.resources.CreateBufferRaw(scratchSize, 0, true, types.StateUnorderedAccess, "tlas scratch")
	node.BufferInstances = p.resources.CreateMappedBuffer(uint64(numInstances)*instanceRecordSize, instanceRecordSize, "tlas instances")
	node.InstancesMapped = p.resources.MapBuffer(node.BufferInstances)
	node.RawASVA = p.resources.Node(node.BufferAS).Buffer.GPUVA

	return p.acquire(node)
}

func (p *Pool) acquire(node Node) types.AccelStruct {
	p.mu.Lock()
	h, err := p.pool.Acquire(node)
	p.mu.Unlock()
	if err != nil {
		diag.Fatalf("accelstruct: pool exhausted")
	}
	return h
}

// UploadInstances writes instance records into the top-level structure's
// mapped instance buffer.
func (p *Pool) UploadInstances(h types.AccelStruct, instances []types.AccelStructInstance) {
	node := p.Node(h)
	diag.Assert(node.InstancesMapped != nil, "accelstruct: UploadInstances on bottom-level structure %v", h)
	diag.Assert(len(instances) <= int(node.NumInstances),
		"accelstruct: %d instances exceed capacity %d", len(instances), node.NumInstances)

	for i, inst := range instances {
		rec := node.InstancesMapped[i*instanceRecordSize:]
		for j, f := range inst.Transform {
			binary.LittleEndian.PutUint32(rec[j*4:], math.Float32bits(f))
		}
		binary.LittleEndian.PutUint32(rec[48:], inst.InstanceIDAndMask)
		binary.LittleEndian.PutUint32(rec[52:], inst.HitGroupIndexAndFlags)
		binary.LittleEndian.PutUint64(rec[56:], inst.NativeBottomLevelVA)
	}
}

// Node returns the stable node pointer for h.
func (p *Pool) Node(h types.AccelStruct) *Node {
	node, ok := p.pool.Get(h)
	if !ok {
		diag.Fatalf("accelstruct: invalid handle %v", h)
	}
	return node
}

// ResultBuffer returns the result buffer resource handle of h.
func (p *Pool) ResultBuffer(h types.AccelStruct) types.Resource {
	return p.Node(h).BufferAS
}

// Free releases the structure and its buffers.
func (p *Pool) Free(h types.AccelStruct) {
	if !h.Valid() {
		return
	}
	node := p.Node(h)
	p.freeBuffers(node)
	p.mu.Lock()
	released := p.pool.Release(h)
	p.mu.Unlock()
	if !released {
		diag.Fatalf("accelstruct: double free of %v", h)
	}
}

// FreeMany releases a batch of structures.
func (p *Pool) FreeMany(hs []types.AccelStruct) {
	for _, h := range hs {
		p.Free(h)
	}
}

func (p *Pool) freeBuffers(node *Node) {
	p.resources.Free(node.BufferAS)
	p.resources.Free(node.BufferScratch)
	if node.BufferInstances.Valid() {
		p.resources.Free(node.BufferInstances)
	}
}

// NumLive returns the number of live structures.
func (p *Pool) NumLive() int { return p.pool.Len() }

// Destroy releases remaining structures, reporting leaks.
func (p *Pool) Destroy() {
	leaks := 0
	p.pool.ForEach(func(_ types.AccelStruct, node *Node) bool {
		leaks++
		p.freeBuffers(node)
		return true
	})
	if leaks > 0 {
		diag.Logger().Warn("accelstruct: leaked handles at pool destroy", "count", leaks)
	}
}
