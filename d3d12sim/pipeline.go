// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package d3d12sim

import (
	"fmt"
	"hash/fnv"

	"github.com/embergpu/hal/nativeapi"
	"github.com/embergpu/hal/types"
)

// RootSignature implements nativeapi.RootSignature, retaining its
// creation desc for test assertions.
type RootSignature struct {
	Desc nativeapi.RootSignatureDesc
}

func (r *RootSignature) Release() {}

var _ nativeapi.RootSignature = (*RootSignature)(nil)

// CreateRootSignature materializes a root signature.
func (d *Device) CreateRootSignature(desc nativeapi.RootSignatureDesc) (nativeapi.RootSignature, error) {
	shapes := make([]types.ShaderArgumentShape, len(desc.Shapes))
	copy(shapes, desc.Shapes)
	desc.Shapes = shapes
	return &RootSignature{Desc: desc}, nil
}

// PipelineState implements nativeapi.PipelineState.
type PipelineState struct {
	Compute  bool
	Topology types.PrimitiveTopology
	RootSig  nativeapi.RootSignature
}

func (p *PipelineState) Release() {}

var _ nativeapi.PipelineState = (*PipelineState)(nil)

// CreateGraphicsPipeline "compiles" a graphics pipeline, validating the
// descriptor the way a driver-side compile would reject malformed input.
func (d *Device) CreateGraphicsPipeline(desc types.GraphicsPipelineDesc, rootSig nativeapi.RootSignature) (nativeapi.PipelineState, error) {
	if len(desc.Shaders) == 0 {
		return nil, fmt.Errorf("d3d12sim: graphics pipeline without shader stages")
	}
	for _, s := range desc.Shaders {
		if len(s.Binary.Data) == 0 {
			return nil, fmt.Errorf("d3d12sim: empty shader blob for stage %#x", uint16(s.Stage))
		}
	}
	if len(desc.Framebuffer.RenderTargets) > types.MaxRenderTargets {
		return nil, fmt.Errorf("d3d12sim: %d render targets exceeds maximum", len(desc.Framebuffer.RenderTargets))
	}
	return &PipelineState{Topology: desc.Config.Topology, RootSig: rootSig}, nil
}

// CreateComputePipeline "compiles" a compute pipeline.
func (d *Device) CreateComputePipeline(desc types.ComputePipelineDesc, rootSig nativeapi.RootSignature) (nativeapi.PipelineState, error) {
	if len(desc.Shader.Data) == 0 {
		return nil, fmt.Errorf("d3d12sim: empty compute shader blob")
	}
	return &PipelineState{Compute: true, RootSig: rootSig}, nil
}

// StateObject implements nativeapi.StateObject. Shader identifiers are
// deterministic digests of the export name, so a rebuilt state object
// yields identical shader tables.
type StateObject struct {
	exports map[string]nativeapi.ShaderIdentifier
}

// ShaderIdentifier returns the identifier of an export or hit group.
func (s *StateObject) ShaderIdentifier(exportName string) (nativeapi.ShaderIdentifier, bool) {
	id, ok := s.exports[exportName]
	return id, ok
}

func (s *StateObject) Release() {}

var _ nativeapi.StateObject = (*StateObject)(nil)

func identifierFor(name string) nativeapi.ShaderIdentifier {
	var id nativeapi.ShaderIdentifier
	h := fnv.New64a()
	h.Write([]byte(name))
	sum := h.Sum64()
	for i := 0; i < nativeapi.ShaderIdentifierSize; i += 8 {
		for b := 0; b < 8; b++ {
			id[i+b] = byte(sum >> (8 * b))
		}
		sum = sum*0x100000001B3 + 0x9E3779B97F4A7C15
	}
	return id
}

// CreateStateObject "compiles" a raytracing pipeline, registering a
// shader identifier per library export and per hit group.
func (d *Device) CreateStateObject(desc types.RaytracingPipelineDesc, localRootSigs []nativeapi.RootSignature, globalRootSig nativeapi.RootSignature) (nativeapi.StateObject, error) {
	if len(desc.Libraries) == 0 {
		return nil, fmt.Errorf("d3d12sim: raytracing pipeline without shader libraries")
	}
	so := &StateObject{exports: map[string]nativeapi.ShaderIdentifier{}}
	for _, lib := range desc.Libraries {
		if len(lib.Binary.Data) == 0 {
			return nil, fmt.Errorf("d3d12sim: empty raytracing library blob")
		}
		for _, export := range lib.Exports {
			so.exports[export] = identifierFor(export)
		}
	}
	for _, hg := range desc.HitGroups {
		so.exports[hg.Name] = identifierFor(hg.Name)
	}
	return so, nil
}
